package audit

import (
	"context"
	"log/slog"
	"time"
)

// Recorder is the producer side of the audit pipeline. Emit never blocks
// the request path: when the inbox is full the event is dropped and logged.
type Recorder struct {
	inbox  chan<- Event
	logger *slog.Logger
}

func NewRecorder(inbox chan<- Event, logger *slog.Logger) *Recorder {
	return &Recorder{inbox: inbox, logger: logger}
}

func (r *Recorder) Emit(ctx context.Context, event Event) {
	if event.Timestamp.IsZero() {
		event.Timestamp = time.Now()
	}
	select {
	case r.inbox <- event:
	default:
		r.logger.WarnContext(ctx, "audit inbox full, dropping event",
			"action", event.Action,
			"actor_did", event.ActorDID,
		)
	}
}
