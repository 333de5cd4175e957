package http

import (
	"errors"
	"net/http"
	"time"

	"github.com/nova-labs/nova-core/internal/core/ports/driving"
)

// conversationIDHeader carries the conversation a chat turn was recorded under
const conversationIDHeader = "X-Conversation-ID"

// Verify interface compliance
var _ driving.StreamSink = (*sseSink)(nil)

// errStreamUnsupported is returned when the connection cannot be flushed
var errStreamUnsupported = errors.New("response writer does not support streaming")

// sseSink writes server-sent events to a response. Nothing reaches the
// client before Open, so a request rejected up front still gets a normal
// JSON error.
type sseSink struct {
	w      http.ResponseWriter
	rc     *http.ResponseController
	opened bool
}

func newSSESink(w http.ResponseWriter) *sseSink {
	return &sseSink{w: w, rc: http.NewResponseController(w)}
}

// Open sends the event-stream headers and lifts the server write deadline
func (s *sseSink) Open(conversationID string) error {
	h := s.w.Header()
	h.Set("Content-Type", "text/event-stream")
	h.Set("Cache-Control", "no-cache")
	h.Set("Connection", "keep-alive")
	h.Set("X-Accel-Buffering", "no")
	if conversationID != "" {
		h.Set(conversationIDHeader, conversationID)
	}

	// Not every writer supports deadlines; streaming still works without
	_ = s.rc.SetWriteDeadline(time.Time{})

	s.w.WriteHeader(http.StatusOK)
	s.opened = true
	if err := s.rc.Flush(); err != nil {
		return errStreamUnsupported
	}
	return nil
}

// WriteEvent writes one "data: ..." frame and flushes it
func (s *sseSink) WriteEvent(data []byte) error {
	buf := make([]byte, 0, len(data)+8)
	buf = append(buf, "data: "...)
	buf = append(buf, data...)
	buf = append(buf, "\n\n"...)

	if _, err := s.w.Write(buf); err != nil {
		return err
	}
	return s.rc.Flush()
}

// Close is a no-op; the handler returning ends the response
func (s *sseSink) Close() error {
	return nil
}
