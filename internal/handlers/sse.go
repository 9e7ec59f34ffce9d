package handlers

import (
	"encoding/json"
	"html/template"
	"log/slog"
	"net/http"
	"strings"

	"github.com/starfederation/datastar-go/datastar"

	"pharmacy-dashboard/internal/errors"
	"pharmacy-dashboard/internal/format"
	"pharmacy-dashboard/internal/middleware"
	"pharmacy-dashboard/internal/models"
	"pharmacy-dashboard/internal/services"
)

const maxTableRows = 50

var summaryTemplate = template.Must(template.New("summary").Funcs(template.FuncMap{
	"money":   format.Money,
	"percent": format.Percent,
}).Parse(`
<div id="analytics-content">
<div class="kpis">
<div class="kpi"><span>Sales</span><strong>{{money .Report.Totals.Sales .Currency}}</strong></div>
<div class="kpi"><span>Net profit</span><strong>{{money .Report.Totals.NetProfit .Currency}}</strong></div>
<div class="kpi"><span>Growth</span><strong>{{.Report.Growth}}%</strong></div>
<div class="kpi"><span>Trend</span><strong>{{percent .Report.Insights.Trend}}</strong></div>
<div class="kpi"><span>Margin</span><strong>{{percent .Report.ProfitMargin}}</strong></div>
</div>
<table class="modern-table">
<thead><tr><th>Period</th><th>Sales</th><th>Profit</th><th>Expenses</th><th>Net</th></tr></thead>
<tbody>
{{range .Rows}}<tr>
<td>{{.BucketKey}}</td>
<td>{{money .TotalSales $.Currency}}</td>
<td>{{money .TotalProfit $.Currency}}</td>
<td>{{money .TotalExpenses $.Currency}}</td>
<td><strong>{{money .NetProfit $.Currency}}</strong></td>
</tr>{{end}}
</tbody>
</table>
{{with .TopProducts}}<ol class="top-products">
{{range .}}<li>{{.Name}} <span>{{money .Value $.Currency}}</span> <small>{{.Quantity}} sold</small></li>
{{end}}</ol>{{end}}
</div>`))

var errorTemplate = template.Must(template.New("error").Parse(
	`<div id="analytics-content"><div class="error-banner">{{.}}</div></div>`))

type SSEHandlers struct {
	analytics *services.Analytics
	logger    *slog.Logger
	currency  string
}

func NewSSEHandlers(analytics *services.Analytics, logger *slog.Logger, currency string) *SSEHandlers {
	return &SSEHandlers{
		analytics: analytics,
		logger:    logger,
		currency:  currency,
	}
}

type summaryData struct {
	Report      *models.Report
	Rows        []models.AggregatedPoint
	TopProducts []models.TopProduct
	Currency    string
}

// renderSummary renders the most recent maxTableRows points.
func (h *SSEHandlers) renderSummary(report *models.Report) (string, error) {
	rows := report.Points
	if len(rows) > maxTableRows {
		rows = rows[len(rows)-maxTableRows:]
	}

	data := summaryData{Report: report, Rows: rows, Currency: h.currency}
	if len(report.Points) > 0 {
		data.TopProducts = report.Points[0].TopProducts
	}

	var buf strings.Builder
	err := summaryTemplate.Execute(&buf, data)
	return buf.String(), err
}

func (h *SSEHandlers) patchError(sse *datastar.ServerSentEventGenerator, message string) {
	var buf strings.Builder
	if err := errorTemplate.Execute(&buf, message); err != nil {
		h.logger.Error("render error banner", "error", err)
		return
	}
	if err := sse.PatchElements(buf.String()); err != nil {
		h.logger.Warn("patch error banner", "error", err)
	}
}

func (h *SSEHandlers) HandleAnalytics(w http.ResponseWriter, r *http.Request) {
	q, err := parseQuery(r)
	sse := datastar.NewSSE(w, r)
	if err != nil {
		h.patchError(sse, err.Error())
		return
	}

	report, err := h.analytics.Report(r.Context(), middleware.Token(r.Context()), q)
	if err != nil {
		h.logger.Warn("analytics stream failed", "error", err, "code", errors.CodeOf(err))
		h.patchError(sse, errors.PublicMessage(err))
		return
	}

	signals, err := json.Marshal(map[string]any{
		"analytics": report,
	})
	if err != nil {
		h.logger.Error("marshal analytics signals", "error", err)
		return
	}
	if err := sse.PatchSignals(signals); err != nil {
		h.logger.Warn("patch analytics signals", "error", err)
		return
	}

	html, err := h.renderSummary(report)
	if err != nil {
		h.logger.Error("render analytics summary", "error", err)
		return
	}
	if err := sse.PatchElements(html); err != nil {
		h.logger.Warn("patch analytics summary", "error", err)
		return
	}

	if f, ok := w.(http.Flusher); ok {
		f.Flush()
	}
}
