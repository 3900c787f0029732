package research

import (
	"context"
	"errors"

	"github.com/de-tools/bacc-research/pkg/models/store"
)

var (
	ErrMissingSessionID = errors.New("sessionId is required")
	ErrNotFound         = errors.New("research record not found")
)

// Store keeps one record per session. Upsert creates the record on first
// write; later writes replace calculator and survey data and shallow-merge
// metadata and completion status.
type Store interface {
	Upsert(ctx context.Context, update store.ResearchUpdate) (*store.ResearchRecord, error)
	Get(ctx context.Context, sessionID string) (*store.ResearchRecord, error)
	List(ctx context.Context) ([]store.ResearchRecord, error)
	Ping(ctx context.Context) error
	Close(ctx context.Context) error
}
