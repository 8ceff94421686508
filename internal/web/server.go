package web

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/park285/cheese-arena/internal/history"
	"github.com/park285/cheese-arena/internal/render"
	"github.com/park285/cheese-arena/internal/state"
	"github.com/park285/cheese-arena/pkg/arenadto"
	"go.uber.org/zap"
)

type Options struct {
	HistoryLimit int
	// OriginPatterns are passed to the websocket handshake; empty means same-origin only.
	OriginPatterns []string
	PingInterval   time.Duration
	WriteTimeout   time.Duration
	Logger         *zap.Logger
}

// Server exposes the shared arena state to viewers.
type Server struct {
	store    *state.Store
	history  history.Repository
	renderer *render.Renderer
	opts     Options
	logger   *zap.Logger
	mux      *http.ServeMux
}

func New(store *state.Store, repo history.Repository, renderer *render.Renderer, opts Options) *Server {
	if opts.HistoryLimit <= 0 {
		opts.HistoryLimit = history.DefaultLimit
	}
	if opts.PingInterval <= 0 {
		opts.PingInterval = 30 * time.Second
	}
	if opts.WriteTimeout <= 0 {
		opts.WriteTimeout = 5 * time.Second
	}
	logger := opts.Logger
	if logger == nil {
		logger = zap.NewNop()
	}
	if renderer == nil {
		renderer = render.New(64)
	}
	s := &Server{store: store, history: repo, renderer: renderer, opts: opts, logger: logger, mux: http.NewServeMux()}
	s.routes()
	return s
}

func (s *Server) routes() {
	s.mux.HandleFunc("GET /healthz", func(w http.ResponseWriter, _ *http.Request) {
		_, _ = w.Write([]byte("ok"))
	})
	s.mux.HandleFunc("GET /api/state", s.handleState)
	s.mux.HandleFunc("POST /api/viewers/join", s.handleJoin)
	s.mux.HandleFunc("POST /api/viewers/leave", s.handleLeave)
	s.mux.HandleFunc("GET /api/history", s.handleHistory)
	s.mux.HandleFunc("GET /api/history/{id}", s.handleGame)
	s.mux.HandleFunc("GET /api/history/{id}/pgn", s.handlePGN)
	s.mux.HandleFunc("GET /api/board.png", s.handleBoard)
	s.mux.HandleFunc("GET /api/stream", s.handleStream)
}

func (s *Server) Handler() http.Handler { return s.mux }

// ListenAndServe serves until ctx is cancelled, then drains for up to grace.
func (s *Server) ListenAndServe(ctx context.Context, addr string, grace time.Duration) error {
	srv := &http.Server{
		Addr:              addr,
		Handler:           s.mux,
		ReadHeaderTimeout: 10 * time.Second,
	}
	errCh := make(chan error, 1)
	go func() {
		s.logger.Info("http_listen", zap.String("addr", addr))
		errCh <- srv.ListenAndServe()
	}()

	select {
	case err := <-errCh:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return err
	case <-ctx.Done():
	}

	shutdownCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), grace)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		return err
	}
	if err := <-errCh; err != nil && !errors.Is(err, http.ErrServerClosed) {
		return err
	}
	return nil
}

func (s *Server) handleState(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, s.store.Snapshot().DTO())
}

type viewersResponse struct {
	Viewers int `json:"viewers"`
}

func (s *Server) handleJoin(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, viewersResponse{Viewers: s.store.AddViewer()})
}

func (s *Server) handleLeave(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, viewersResponse{Viewers: s.store.RemoveViewer()})
}

func (s *Server) handleHistory(w http.ResponseWriter, r *http.Request) {
	limit := s.opts.HistoryLimit
	if raw := strings.TrimSpace(r.URL.Query().Get("limit")); raw != "" {
		n, err := strconv.Atoi(raw)
		if err != nil || n <= 0 {
			writeError(w, http.StatusBadRequest, "bad_limit", "limit must be a positive integer")
			return
		}
		limit = n
	}
	games, err := s.history.RecentGames(r.Context(), limit)
	if err != nil {
		s.logger.Warn("history_query_error", zap.Error(err))
		writeError(w, http.StatusInternalServerError, "history_unavailable", "history is unavailable")
		return
	}
	if games == nil {
		games = []arenadto.GameRecord{}
	}
	writeJSON(w, http.StatusOK, games)
}

func (s *Server) lookupGame(w http.ResponseWriter, r *http.Request) (*arenadto.GameRecord, bool) {
	rec, err := s.history.GetGame(r.Context(), r.PathValue("id"))
	if err != nil {
		s.logger.Warn("history_query_error", zap.Error(err))
		writeError(w, http.StatusInternalServerError, "history_unavailable", "history is unavailable")
		return nil, false
	}
	if rec == nil {
		writeError(w, http.StatusNotFound, "not_found", "game not found")
		return nil, false
	}
	return rec, true
}

func (s *Server) handleGame(w http.ResponseWriter, r *http.Request) {
	if rec, ok := s.lookupGame(w, r); ok {
		writeJSON(w, http.StatusOK, rec)
	}
}

func (s *Server) handlePGN(w http.ResponseWriter, r *http.Request) {
	rec, ok := s.lookupGame(w, r)
	if !ok {
		return
	}
	pgn := rec.PGN
	if pgn == "" {
		pgn = history.BuildPGN(*rec)
	}
	w.Header().Set("Content-Type", "application/x-chess-pgn")
	_, _ = w.Write([]byte(pgn))
}

func (s *Server) handleBoard(w http.ResponseWriter, r *http.Request) {
	snap := s.store.Snapshot()
	if snap.FEN == "" {
		writeError(w, http.StatusServiceUnavailable, "no_game", "no game has started yet")
		return
	}
	opts := render.Options{}
	if snap.Sequence > 0 {
		opts.Caption = "Game #" + strconv.FormatInt(snap.Sequence, 10) + "  " + snap.StatusText
	}
	if uci := snap.LastMoveUCI; len(uci) >= 4 {
		opts.Highlight = &render.Highlight{From: uci[:2], To: uci[2:4]}
	}
	data, err := s.renderer.RenderPNG(r.Context(), snap.FEN, opts)
	if err != nil {
		s.logger.Warn("board_render_error", zap.Error(err))
		writeError(w, http.StatusInternalServerError, "render_failed", "could not render board")
		return
	}
	w.Header().Set("Content-Type", "image/png")
	w.Header().Set("Cache-Control", "no-store")
	_, _ = w.Write(data)
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, status int, code, msg string) {
	writeJSON(w, status, arenadto.ErrorResponse{Code: code, Message: msg})
}
