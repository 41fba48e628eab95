package httpapi

import (
	"fmt"
	"net/http"
	"time"

	sonic "github.com/bytedance/sonic"
	"github.com/valyala/bytebufferpool"

	"github.com/chapterpoints/chapter-scoring/internal/usecase"
)

const (
	displayStreamBuffer    = 32
	displayHeartbeatPeriod = 15 * time.Second
	revealStateEventType   = "reveal.state"
)

// StreamDisplay is the TV display's server-sent events feed. The first event
// is the current reveal state so a reconnecting display repaints without
// waiting for the next mutation; after that every broadcast message becomes
// one SSE frame.
func (h *Handler) StreamDisplay(w http.ResponseWriter, r *http.Request) {
	ctx, span := startSpan(r.Context(), "httpapi.Handler.StreamDisplay")
	defer span.End()

	flusher, ok := w.(http.Flusher)
	if !ok {
		writeError(ctx, w, fmt.Errorf("%w: streaming is not supported by this connection", usecase.ErrDependencyUnavailable))
		return
	}

	// The stream outlives the server's write timeout.
	_ = http.NewResponseController(w).SetWriteDeadline(time.Time{})

	w.Header().Set("Content-Type", "text/event-stream")
	w.Header().Set("Cache-Control", "no-cache")
	w.Header().Set("Connection", "keep-alive")
	w.Header().Set("X-Accel-Buffering", "no")
	w.WriteHeader(http.StatusOK)

	messages, cancel := h.displayChannel.Subscribe(displayStreamBuffer)
	defer cancel()

	snapshot, err := sonic.Marshal(revealStateToDTO(h.revealService.Snapshot(ctx)))
	if err == nil {
		if err := writeSSEFrame(w, revealStateEventType, snapshot); err != nil {
			return
		}
		flusher.Flush()
	}

	heartbeat := time.NewTicker(displayHeartbeatPeriod)
	defer heartbeat.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-heartbeat.C:
			if _, err := fmt.Fprint(w, ": ping\n\n"); err != nil {
				return
			}
			flusher.Flush()
		case msg, open := <-messages:
			if !open {
				return
			}
			if err := writeSSEFrame(w, msg.Type, msg.Payload); err != nil {
				return
			}
			flusher.Flush()
		}
	}
}

// writeSSEFrame assembles the frame in a pooled buffer so each event costs a
// single Write on the wire.
func writeSSEFrame(w http.ResponseWriter, eventType string, payload []byte) error {
	buf := bytebufferpool.Get()
	defer bytebufferpool.Put(buf)

	_, _ = buf.WriteString("event: ")
	_, _ = buf.WriteString(eventType)
	_, _ = buf.WriteString("\ndata: ")
	_, _ = buf.Write(payload)
	_, _ = buf.WriteString("\n\n")

	_, err := w.Write(buf.Bytes())
	return err
}
