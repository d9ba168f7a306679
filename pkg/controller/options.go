package controller

import (
	"io"
	"log/slog"
	"maps"
	"time"

	"github.com/goliatone/go-releaseform/pkg/condition"
	"github.com/goliatone/go-releaseform/pkg/sanitize"
)

// DefaultBlinkDuration is how long fields that blocked a submit stay
// highlighted.
const DefaultBlinkDuration = time.Second

// Option configures a Controller.
type Option func(*Controller)

// WithLogger sets the structured logger. Nil keeps the discard logger.
func WithLogger(logger *slog.Logger) Option {
	return func(c *Controller) {
		if logger != nil {
			c.logger = logger
		}
	}
}

// WithFileStore sets the collaborator used to upload file payloads.
func WithFileStore(store FileStore) Option {
	return func(c *Controller) {
		c.files = store
	}
}

// WithRecordSubmitter sets the collaborator that receives finished records.
func WithRecordSubmitter(submitter RecordSubmitter) Option {
	return func(c *Controller) {
		c.records = submitter
	}
}

// WithOwner sets the owner id passed to the record submitter.
func WithOwner(owner string) Option {
	return func(c *Controller) {
		c.owner = owner
	}
}

// WithExtras seeds the extra values reachable from requiredWhen rules and
// attached to submitted records.
func WithExtras(extras map[string]any) Option {
	return func(c *Controller) {
		c.extras = maps.Clone(extras)
	}
}

// WithSanitizer replaces the text sanitizer applied before validation.
func WithSanitizer(fn sanitize.Func) Option {
	return func(c *Controller) {
		if fn != nil {
			c.sanitize = fn
		}
	}
}

// WithEvaluator replaces the requiredWhen rule evaluator.
func WithEvaluator(evaluator condition.Evaluator) Option {
	return func(c *Controller) {
		if evaluator != nil {
			c.evaluator = evaluator
		}
	}
}

// WithClock overrides the time source used for blink highlights.
func WithClock(now func() time.Time) Option {
	return func(c *Controller) {
		if now != nil {
			c.now = now
		}
	}
}

// WithBlinkDuration overrides DefaultBlinkDuration.
func WithBlinkDuration(d time.Duration) Option {
	return func(c *Controller) {
		if d > 0 {
			c.blinkDuration = d
		}
	}
}

func discardLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}
