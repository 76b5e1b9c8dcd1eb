package notify

import (
	"context"

	"github.com/okelo-dev/sokowear-backend/pkg/logger"
)

// Variant labels the tone of a user-facing notification.
type Variant string

const (
	VariantSuccess     Variant = "success"
	VariantDestructive Variant = "destructive"
)

// Notification is the short title + description pair surfaced to the shopper
// after every checkout outcome. It is the only side channel besides state.
type Notification struct {
	Title       string  `json:"title"`
	Description string  `json:"description"`
	Variant     Variant `json:"variant"`
}

// Sink receives notifications as they are emitted.
type Sink interface {
	Notify(ctx context.Context, n Notification)
}

// LogSink records notifications through the structured logger. Transports that
// deliver to a client wrap or replace it.
type LogSink struct {
	logg *logger.Logger
}

// NewLogSink builds a Sink writing to the provided logger.
func NewLogSink(logg *logger.Logger) *LogSink {
	return &LogSink{logg: logg}
}

func (s *LogSink) Notify(ctx context.Context, n Notification) {
	if s == nil || s.logg == nil {
		return
	}
	ctx = s.logg.WithFields(ctx, map[string]any{
		"title":       n.Title,
		"description": n.Description,
		"variant":     string(n.Variant),
	})
	s.logg.Info(ctx, "notification.emitted")
}
