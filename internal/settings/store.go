// Package settings persists per-client dashboard preferences behind an
// injectable Store.
package settings

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"

	"pharmacy-dashboard/internal/config"
	"pharmacy-dashboard/internal/models"
)

var ErrInvalidID = errors.New("invalid settings id")

type Store interface {
	// Load returns the stored settings for id, or the defaults when none
	// were saved.
	Load(ctx context.Context, id string) (models.Settings, error)
	Save(ctx context.Context, id string, s models.Settings) error
	Close() error
}

// New builds the store selected by cfg.Store.
func New(cfg config.SettingsConfig) (Store, error) {
	switch cfg.Store {
	case "memory":
		return NewMemoryStore(), nil
	case "file":
		store, err := NewFileStore(cfg.Dir)
		if err != nil {
			return nil, err
		}
		return store, nil
	case "redis":
		return NewRedisStore(cfg.RedisAddr, cfg.RedisPassword, cfg.RedisDB, cfg.TTL), nil
	default:
		return nil, fmt.Errorf("unknown settings store %q", cfg.Store)
	}
}

// NewID issues an identity for a client that has no settings yet.
func NewID() string {
	return uuid.NewString()
}

// ValidID reports whether id has the shape issued by NewID. Ids end up in
// file names and cache keys, so anything else is rejected.
func ValidID(id string) bool {
	_, err := uuid.Parse(id)
	return err == nil && len(id) == 36
}

func Validate(s models.Settings) error {
	if !models.ValidBranchType(s.BranchType) {
		return fmt.Errorf("invalid branch type %q", s.BranchType)
	}
	return nil
}

func checkID(id string) error {
	if !ValidID(id) {
		return fmt.Errorf("%w: %q", ErrInvalidID, id)
	}
	return nil
}
