package message

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strconv"
	"time"

	"github.com/google/uuid"
	"go.opentelemetry.io/otel/trace"

	"github.com/freema/convcom/internal/apperror"
	"github.com/freema/convcom/internal/commit"
	"github.com/freema/convcom/internal/metrics"
	"github.com/freema/convcom/internal/tracing"
)

const (
	DefaultListLimit = 20
	MaxListLimit     = 100
)

// Service renders and parses commit messages and archives the results.
type Service struct {
	store Store
	now   func() time.Time
}

// NewService creates a new message service.
func NewService(store Store) *Service {
	return &Service{
		store: store,
		now:   func() time.Time { return time.Now().UTC() },
	}
}

// Render produces the canonical text for c and stores the record.
func (s *Service) Render(ctx context.Context, c commit.ConventionalCommit) (*Record, error) {
	text := commit.Unparse(c)
	ctx, span := tracing.Tracer().Start(ctx, "message.render",
		tracing.WithMessageAttributes(string(SourceRender), len(text)))
	defer span.End()

	return s.save(ctx, span, SourceRender, c, text)
}

// Parse reads text into a commit, re-renders it canonically and stores the
// record. Malformed text is a validation error.
func (s *Service) Parse(ctx context.Context, text string) (*Record, error) {
	ctx, span := tracing.Tracer().Start(ctx, "message.parse",
		tracing.WithMessageAttributes(string(SourceParse), len(text)))
	defer span.End()

	c, err := commit.Parse(text)
	if err != nil {
		metrics.MessagesTotal.WithLabelValues(string(SourceParse), "invalid").Inc()
		tracing.Fail(span, err, "malformed message")
		return nil, AsValidation(err)
	}

	return s.save(ctx, span, SourceParse, c, commit.Unparse(c))
}

// Get retrieves a record by ID.
func (s *Service) Get(ctx context.Context, id string) (*Record, error) {
	ctx, span := tracing.Tracer().Start(ctx, "message.get")
	defer span.End()

	r, err := s.store.Get(ctx, id)
	if errors.Is(err, ErrRecordNotFound) {
		metrics.MessagesTotal.WithLabelValues("get", "not_found").Inc()
		return nil, apperror.NotFound("record %s not found", id)
	}
	if err != nil {
		metrics.MessagesTotal.WithLabelValues("get", "error").Inc()
		tracing.Fail(span, err, "store failed")
		return nil, fmt.Errorf("getting record %s: %w", id, err)
	}
	metrics.MessagesTotal.WithLabelValues("get", "ok").Inc()
	return r, nil
}

// List returns recent records. The limit is clamped to [1, MaxListLimit]
// and defaults to DefaultListLimit.
func (s *Service) List(ctx context.Context, limit int) ([]*Record, error) {
	switch {
	case limit <= 0:
		limit = DefaultListLimit
	case limit > MaxListLimit:
		limit = MaxListLimit
	}

	ctx, span := tracing.Tracer().Start(ctx, "message.list")
	defer span.End()

	records, err := s.store.List(ctx, limit)
	if err != nil {
		metrics.MessagesTotal.WithLabelValues("list", "error").Inc()
		tracing.Fail(span, err, "store failed")
		return nil, fmt.Errorf("listing records: %w", err)
	}
	metrics.MessagesTotal.WithLabelValues("list", "ok").Inc()
	return records, nil
}

func (s *Service) save(ctx context.Context, span trace.Span, source Source, c commit.ConventionalCommit, text string) (*Record, error) {
	r := &Record{
		ID:        uuid.New().String(),
		Source:    source,
		Commit:    c,
		Message:   text,
		Breaking:  c.IsBreakingChange(),
		TraceID:   tracing.TraceIDFromContext(ctx),
		CreatedAt: s.now(),
	}

	if err := s.store.Save(ctx, r); err != nil {
		metrics.MessagesTotal.WithLabelValues(string(source), "error").Inc()
		tracing.Fail(span, err, "store failed")
		return nil, fmt.Errorf("saving record: %w", err)
	}

	metrics.MessagesTotal.WithLabelValues(string(source), "ok").Inc()
	metrics.MessageBytes.WithLabelValues(string(source)).Observe(float64(len(text)))
	slog.Info("message stored", "record_id", r.ID, "source", source, "type", c.Header().Type(), "breaking", r.Breaking)
	return r, nil
}

// AsValidation converts commit construction and parse errors into a 400
// AppError carrying the offending field. Other errors pass through.
func AsValidation(err error) error {
	var verr *commit.ValidationError
	var perr *commit.ParseError

	switch {
	case errors.As(err, &perr):
		appErr := apperror.Validation("malformed commit message: %s", perr.Error())
		appErr.WithField("line", strconv.Itoa(perr.Line))
		if errors.As(perr.Err, &verr) {
			appErr.WithField(verr.Field, verr.Reason)
		}
		return appErr
	case errors.As(err, &verr):
		return apperror.Validation("invalid commit: %s", verr.Error()).WithField(verr.Field, verr.Reason)
	default:
		return err
	}
}
