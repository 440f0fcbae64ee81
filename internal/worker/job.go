package worker

import (
	"encoding/json"

	"github.com/go-playground/validator/v10"
)

var jobValidate = validator.New()

// Job operations.
const (
	OperationRender = "render"
	OperationParse  = "parse"
)

// Job statuses reported in results and webhooks.
const (
	StatusCompleted = "completed"
	StatusFailed    = "failed"
)

// Job is the JSON payload pushed onto the queue.
type Job struct {
	Operation     string          `json:"operation" validate:"required,oneof=render parse"`
	Commit        json.RawMessage `json:"commit,omitempty" validate:"required_if=Operation render"`
	Text          string          `json:"text,omitempty" validate:"required_if=Operation parse"`
	CorrelationID string          `json:"correlation_id,omitempty" validate:"max=128"`
	CallbackURL   string          `json:"callback_url,omitempty" validate:"omitempty,url"`
}

// Result is written to input:result:<correlation_id> once a job finishes.
type Result struct {
	RecordID string `json:"record_id,omitempty"`
	Status   string `json:"status"`
	Message  string `json:"message,omitempty"`
	Error    string `json:"error,omitempty"`
}
