package web

import (
	"context"
	"net/http"
	"time"

	"go.uber.org/zap"
	"nhooyr.io/websocket"
	"nhooyr.io/websocket/wsjson"
)

// handleStream pushes every published snapshot to one viewer.
// The connection counts as a viewer for as long as it stays open.
func (s *Server) handleStream(w http.ResponseWriter, r *http.Request) {
	conn, err := websocket.Accept(w, r, &websocket.AcceptOptions{
		OriginPatterns:  s.opts.OriginPatterns,
		CompressionMode: websocket.CompressionNoContextTakeover,
	})
	if err != nil {
		s.logger.Debug("ws_accept_error", zap.Error(err))
		return
	}
	defer conn.CloseNow()

	updates, cancel := s.store.Subscribe()
	defer cancel()
	s.store.AddViewer()
	defer s.store.RemoveViewer()

	// Viewers never send anything meaningful; CloseRead handles control frames.
	ctx := conn.CloseRead(r.Context())

	if err := s.send(ctx, conn, s.store.Snapshot().DTO()); err != nil {
		return
	}

	ping := time.NewTicker(s.opts.PingInterval)
	defer ping.Stop()
	for {
		select {
		case <-ctx.Done():
			conn.Close(websocket.StatusNormalClosure, "")
			return
		case snap, ok := <-updates:
			if !ok {
				conn.Close(websocket.StatusGoingAway, "arena stopped")
				return
			}
			if err := s.send(ctx, conn, snap.DTO()); err != nil {
				s.logger.Debug("ws_write_error", zap.Error(err))
				return
			}
		case <-ping.C:
			pctx, pcancel := context.WithTimeout(ctx, s.opts.WriteTimeout)
			err := conn.Ping(pctx)
			pcancel()
			if err != nil {
				return
			}
		}
	}
}

func (s *Server) send(ctx context.Context, conn *websocket.Conn, v any) error {
	wctx, cancel := context.WithTimeout(ctx, s.opts.WriteTimeout)
	defer cancel()
	return wsjson.Write(wctx, conn, v)
}
