package message

import (
	"context"
	"errors"
	"time"

	"github.com/freema/convcom/internal/commit"
)

// ErrRecordNotFound is returned by a Store when no record has the given ID.
var ErrRecordNotFound = errors.New("record not found")

// Source tells how a record entered the system.
type Source string

const (
	SourceRender Source = "render"
	SourceParse  Source = "parse"
)

// Record is an archived commit message. Message always holds the canonical
// text of Commit.
type Record struct {
	ID        string                    `json:"id"`
	Source    Source                    `json:"source"`
	Commit    commit.ConventionalCommit `json:"commit"`
	Message   string                    `json:"message"`
	Breaking  bool                      `json:"breaking_change"`
	TraceID   string                    `json:"trace_id,omitempty"`
	CreatedAt time.Time                 `json:"created_at"`
}

// Store persists records.
type Store interface {
	Save(ctx context.Context, r *Record) error
	Get(ctx context.Context, id string) (*Record, error)
	// List returns at most limit records, newest first.
	List(ctx context.Context, limit int) ([]*Record, error)
	Ping(ctx context.Context) error
	Close() error
}
