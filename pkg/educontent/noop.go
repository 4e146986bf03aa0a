package educontent

import (
	"context"
	"log/slog"
)

// NoopEventSink is a no-operation implementation of EventSink
type NoopEventSink struct{}

// NewNoopEventSink creates a new no-operation event sink
func NewNoopEventSink() EventSink {
	return &NoopEventSink{}
}

func (n *NoopEventSink) ContentCreated(ctx context.Context, content *Content) error { return nil }
func (n *NoopEventSink) ContentUpdated(ctx context.Context, content *Content) error { return nil }
func (n *NoopEventSink) ContentDeleted(ctx context.Context, content *Content) error { return nil }

// LoggingEventSink logs every event and takes no other action.
// Useful for development and debugging.
type LoggingEventSink struct {
	logger *slog.Logger
}

// NewLoggingEventSink creates a logging event sink. A nil logger uses slog.Default().
func NewLoggingEventSink(logger *slog.Logger) EventSink {
	if logger == nil {
		logger = slog.Default()
	}
	return &LoggingEventSink{logger: logger}
}

func (l *LoggingEventSink) ContentCreated(ctx context.Context, content *Content) error {
	l.log(ctx, "content created", content)
	return nil
}

func (l *LoggingEventSink) ContentUpdated(ctx context.Context, content *Content) error {
	l.log(ctx, "content updated", content)
	return nil
}

func (l *LoggingEventSink) ContentDeleted(ctx context.Context, content *Content) error {
	l.log(ctx, "content deleted", content)
	return nil
}

func (l *LoggingEventSink) log(ctx context.Context, msg string, content *Content) {
	l.logger.InfoContext(ctx, msg,
		"content_id", content.ID,
		"owner_id", content.OwnerID,
		"content_type", content.ContentType,
		"status", content.Status)
}
