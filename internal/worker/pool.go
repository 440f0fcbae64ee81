package worker

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"sync/atomic"
	"time"

	"github.com/redis/go-redis/v9"
	"go.opentelemetry.io/otel/attribute"

	"github.com/freema/convcom/internal/commit"
	"github.com/freema/convcom/internal/message"
	"github.com/freema/convcom/internal/metrics"
	"github.com/freema/convcom/internal/redisclient"
	"github.com/freema/convcom/internal/tracing"
	"github.com/freema/convcom/internal/webhook"
)

const (
	resultKeyPrefix = "input:result:"
	resultTTL       = 5 * time.Minute
	popTimeout      = 5 * time.Second
)

// Pool is a worker pool that consumes message jobs from a Redis queue.
type Pool struct {
	redis       *redisclient.Client
	service     *message.Service
	webhooks    *webhook.Sender
	queueName   string
	concurrency int
	maxMessage  int
	wg          sync.WaitGroup
	cancel      context.CancelFunc
	activeCount atomic.Int32
}

// NewPool creates a new worker pool. webhooks may be nil, in which case
// callback URLs are ignored. Parse jobs whose text is longer than
// maxMessageSize bytes fail without being parsed.
func NewPool(
	redis *redisclient.Client,
	service *message.Service,
	webhooks *webhook.Sender,
	queueName string,
	concurrency int,
	maxMessageSize int,
) *Pool {
	return &Pool{
		redis:       redis,
		service:     service,
		webhooks:    webhooks,
		queueName:   queueName,
		concurrency: concurrency,
		maxMessage:  maxMessageSize,
	}
}

// Start launches all worker goroutines.
func (p *Pool) Start(ctx context.Context) {
	ctx, p.cancel = context.WithCancel(ctx)

	slog.Info("starting worker pool", "concurrency", p.concurrency, "queue", p.queueName)
	metrics.WorkersTotal.Set(float64(p.concurrency))

	for i := 0; i < p.concurrency; i++ {
		p.wg.Add(1)
		go p.worker(ctx, i)
	}
}

// Stop signals workers to stop and waits for them to finish.
func (p *Pool) Stop() {
	slog.Info("stopping worker pool...")
	if p.cancel != nil {
		p.cancel()
	}
	p.wg.Wait()
	metrics.WorkersTotal.Set(0)
	slog.Info("worker pool stopped")
}

// ActiveCount returns the number of workers currently processing a job.
func (p *Pool) ActiveCount() int32 {
	return p.activeCount.Load()
}

func (p *Pool) worker(ctx context.Context, id int) {
	defer p.wg.Done()
	log := slog.With("worker", id)
	log.Info("worker started")

	queueKey := p.redis.Key(p.queueName)

	for {
		result, err := p.redis.Unwrap().BLPop(ctx, popTimeout, queueKey).Result()
		if err != nil {
			if errors.Is(err, redis.Nil) {
				if ctx.Err() != nil {
					return
				}
				continue // timeout
			}
			if ctx.Err() != nil {
				log.Info("worker shutting down")
				return
			}
			log.Error("queue pop failed", "error", err)
			time.Sleep(1 * time.Second)
			continue
		}

		p.activeCount.Add(1)
		metrics.WorkersActive.Inc()

		p.process(ctx, result[1]) // result[0] = key name

		metrics.WorkersActive.Dec()
		p.activeCount.Add(-1)
	}
}

// process runs one raw queue payload to completion. Payloads that cannot be
// decoded or validated are dropped, reporting back only when a correlation
// ID could be read.
func (p *Pool) process(ctx context.Context, raw string) Result {
	var job Job
	if err := json.Unmarshal([]byte(raw), &job); err != nil {
		slog.Error("invalid queue payload", "error", err, "payload", truncateLog(raw))
		metrics.JobsTotal.WithLabelValues("invalid").Inc()
		return Result{Status: StatusFailed, Error: "invalid payload: " + err.Error()}
	}

	ctx, span := tracing.Tracer().Start(ctx, "worker.job")
	defer span.End()
	span.SetAttributes(
		attribute.String("job.operation", job.Operation),
		attribute.String("job.correlation_id", job.CorrelationID),
	)

	if err := jobValidate.Struct(job); err != nil {
		slog.Error("queue payload validation failed", "error", err, "correlation_id", job.CorrelationID)
		metrics.JobsTotal.WithLabelValues("invalid").Inc()
		res := Result{Status: StatusFailed, Error: "invalid payload: " + err.Error()}
		p.report(ctx, job, res)
		return res
	}

	record, err := p.run(ctx, job)
	res := Result{Status: StatusCompleted}
	if err != nil {
		tracing.Fail(span, err, "job failed")
		slog.Warn("job failed", "operation", job.Operation, "correlation_id", job.CorrelationID, "error", err)
		metrics.JobsTotal.WithLabelValues(StatusFailed).Inc()
		res = Result{Status: StatusFailed, Error: err.Error()}
	} else {
		slog.Info("job completed", "operation", job.Operation, "record_id", record.ID, "correlation_id", job.CorrelationID)
		metrics.JobsTotal.WithLabelValues(StatusCompleted).Inc()
		res.RecordID = record.ID
		res.Message = record.Message
	}

	p.report(ctx, job, res)
	return res
}

func (p *Pool) run(ctx context.Context, job Job) (*message.Record, error) {
	switch job.Operation {
	case OperationRender:
		var c commit.ConventionalCommit
		if err := json.Unmarshal(job.Commit, &c); err != nil {
			return nil, fmt.Errorf("decoding commit: %w", err)
		}
		return p.service.Render(ctx, c)
	case OperationParse:
		if len(job.Text) > p.maxMessage {
			return nil, fmt.Errorf("message text exceeds %d bytes", p.maxMessage)
		}
		return p.service.Parse(ctx, job.Text)
	default:
		return nil, fmt.Errorf("unknown operation %q", job.Operation)
	}
}

// report writes the correlation result and fires the webhook, if requested.
func (p *Pool) report(ctx context.Context, job Job, res Result) {
	if job.CorrelationID != "" {
		if err := p.redis.SetJSON(ctx, resultKeyPrefix+job.CorrelationID, res, resultTTL); err != nil {
			slog.Error("failed to write job result", "correlation_id", job.CorrelationID, "error", err)
		}
	}

	if job.CallbackURL == "" || p.webhooks == nil {
		return
	}
	payload := webhook.Payload{
		RecordID:      res.RecordID,
		CorrelationID: job.CorrelationID,
		Status:        res.Status,
		Message:       res.Message,
		Error:         res.Error,
		TraceID:       tracing.TraceIDFromContext(ctx),
		FinishedAt:    time.Now().UTC(),
	}
	if err := p.webhooks.Send(ctx, job.CallbackURL, payload); err != nil {
		slog.Error("webhook delivery failed", "correlation_id", job.CorrelationID, "error", err)
	}
}

func truncateLog(s string) string {
	if len(s) > 200 {
		return s[:200] + "..."
	}
	return s
}
