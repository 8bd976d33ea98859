package rpc

import (
	"context"
	"encoding/json"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"nhooyr.io/websocket"

	"auctionhouse/core/events"
)

const (
	wsWriteTimeout = 10 * time.Second
	wsBuffer       = 256
)

// handleEventsWS streams committed ledger events. The optional "type" query
// parameter keeps only events whose type starts with the given prefix.
func (s *Server) handleEventsWS(w http.ResponseWriter, r *http.Request) {
	if s.cfg.Events == nil {
		http.Error(w, "event stream disabled", http.StatusServiceUnavailable)
		return
	}
	if !s.limiter.allow(clientSource(r)) {
		http.Error(w, "rate limit exceeded", http.StatusTooManyRequests)
		return
	}
	prefix := strings.TrimSpace(r.URL.Query().Get("type"))
	conn, err := websocket.Accept(w, r, &websocket.AcceptOptions{OriginPatterns: s.cfg.WSOrigins})
	if err != nil {
		return
	}
	defer conn.Close(websocket.StatusNormalClosure, "stream closed")

	ctx := conn.CloseRead(r.Context())
	if err := s.streamEvents(ctx, conn, prefix); err != nil {
		if status := websocket.CloseStatus(err); status == -1 {
			s.logger.Debug("event stream ended", slog.String("error", err.Error()))
			_ = conn.Close(websocket.StatusInternalError, "stream error")
		}
	}
}

func (s *Server) streamEvents(ctx context.Context, conn *websocket.Conn, prefix string) error {
	sub, cancel := s.cfg.Events.Subscribe(wsBuffer)
	defer cancel()
	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case env, ok := <-sub.C:
			if !ok {
				return nil
			}
			if prefix != "" && !strings.HasPrefix(env.Type, prefix) {
				continue
			}
			if err := writeEnvelope(ctx, conn, env); err != nil {
				return err
			}
		}
	}
}

func writeEnvelope(ctx context.Context, conn *websocket.Conn, env events.Envelope) error {
	data, err := json.Marshal(env)
	if err != nil {
		return err
	}
	writeCtx, cancel := context.WithTimeout(ctx, wsWriteTimeout)
	defer cancel()
	return conn.Write(writeCtx, websocket.MessageText, data)
}
