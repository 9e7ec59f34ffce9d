// Package backend talks to the pharmacy chain's REST API, which owns the
// sales and expense records behind every analytics view.
package backend

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"

	"golang.org/x/sync/errgroup"

	"pharmacy-dashboard/internal/config"
	apperrors "pharmacy-dashboard/internal/errors"
	"pharmacy-dashboard/internal/models"
	"pharmacy-dashboard/internal/observability"
)

const maxBodySize = 32 << 20

type Client struct {
	baseURL string
	http    *http.Client
	logger  *slog.Logger
}

func NewClient(cfg config.BackendConfig, logger *slog.Logger) *Client {
	return &Client{
		baseURL: cfg.BaseURL,
		http:    &http.Client{Timeout: cfg.Timeout},
		logger:  logger,
	}
}

// Fetch loads the sales and expenses selected by q concurrently. Either
// request failing fails the whole fetch so no report is built from half
// the data.
func (c *Client) Fetch(ctx context.Context, token string, q models.Query) (*models.Snapshot, error) {
	ctx, span := observability.StartSpan(ctx, "backend.fetch")
	defer span.Finish(c.logger)
	span.SetTag("scope", string(q.Scope))
	span.SetTag("time_range", string(q.TimeRange))

	var (
		snap         models.Snapshot
		salesInvalid int
		expInvalid   int
	)

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		body, err := c.get(gctx, "/sales", token, q)
		if err != nil {
			return err
		}
		sales, invalid, err := ParseSales(body)
		if err != nil {
			return apperrors.UpstreamWrap(err, "backend returned invalid sales").WithDetails(err.Error())
		}
		snap.Sales, salesInvalid = sales, invalid
		return nil
	})
	g.Go(func() error {
		body, err := c.get(gctx, "/expenses", token, q)
		if err != nil {
			return err
		}
		expenses, invalid, err := ParseExpenses(body)
		if err != nil {
			return apperrors.UpstreamWrap(err, "backend returned invalid expenses").WithDetails(err.Error())
		}
		snap.Expenses, expInvalid = expenses, invalid
		return nil
	})

	if err := g.Wait(); err != nil {
		span.SetError(err)
		return nil, err
	}

	snap.InvalidDates = salesInvalid + expInvalid
	if snap.InvalidDates > 0 {
		c.logger.Warn("backend records with invalid dates",
			"count", snap.InvalidDates,
			"scope", q.Scope,
			"request_id", observability.GetRequestID(ctx),
		)
	}
	return &snap, nil
}

func (c *Client) get(ctx context.Context, path, token string, q models.Query) ([]byte, error) {
	params := url.Values{}
	params.Set("scope", string(q.Scope))
	if q.ID != "" {
		params.Set("id", q.ID)
	}
	params.Set("timeRange", string(q.TimeRange))

	endpoint := c.baseURL + path + "?" + params.Encode()
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)
	if err != nil {
		return nil, apperrors.InternalWrap(err, "build backend request")
	}
	req.Header.Set("Accept", "application/json")
	req.Header.Set("Authorization", "Bearer "+token)
	if requestID := observability.GetRequestID(ctx); requestID != "" {
		req.Header.Set("X-Request-ID", requestID)
	}

	resp, err := c.http.Do(req)
	if err != nil {
		return nil, apperrors.UpstreamWrap(err, "backend unreachable")
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(io.LimitReader(resp.Body, maxBodySize))
	if err != nil {
		return nil, apperrors.UpstreamWrap(err, "read backend response")
	}

	switch {
	case resp.StatusCode == http.StatusUnauthorized:
		return nil, apperrors.Unauthorized("backend rejected the session token")
	case resp.StatusCode == http.StatusForbidden:
		return nil, apperrors.Forbidden("session is not allowed to view this scope")
	case resp.StatusCode == http.StatusServiceUnavailable:
		return nil, apperrors.ServiceUnavailable("backend is temporarily unavailable")
	case resp.StatusCode < 200 || resp.StatusCode > 299:
		return nil, apperrors.Upstream(fmt.Sprintf("backend %s returned %d", path, resp.StatusCode))
	}

	c.logger.Debug("backend response",
		"path", path,
		"status", resp.StatusCode,
		"bytes", len(body),
		"request_id", observability.GetRequestID(ctx),
	)
	return body, nil
}
