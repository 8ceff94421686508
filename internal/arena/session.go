package arena

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"
	"github.com/park285/cheese-arena/internal/history"
	"github.com/park285/cheese-arena/internal/msgcat"
	"github.com/park285/cheese-arena/internal/rules"
	"github.com/park285/cheese-arena/internal/state"
	"github.com/park285/cheese-arena/pkg/arenadto"
	"go.uber.org/zap"
)

const archiveTimeout = 5 * time.Second

// Stage is the loop's position in the session life cycle.
type Stage int

const (
	StageStarting Stage = iota
	StageInProgress
	StageFinished
)

func (s Stage) String() string {
	switch s {
	case StageInProgress:
		return "in_progress"
	case StageFinished:
		return "finished"
	default:
		return "starting"
	}
}

// Session is one game from start position to verdict. Owned by the Loop.
type Session struct {
	Sequence  int64
	ID        string
	StartFEN  string
	Position  rules.Position
	MovesUCI  []string
	MovesSAN  []string
	Fallbacks int
	Verdict   Verdict
	StartedAt time.Time
	EndedAt   time.Time
}

func (s *Session) clone() Session {
	cp := *s
	cp.MovesUCI = append([]string(nil), s.MovesUCI...)
	cp.MovesSAN = append([]string(nil), s.MovesSAN...)
	return cp
}

// Archive receives every finished session.
type Archive interface {
	SaveGame(ctx context.Context, rec arenadto.GameRecord) error
}

type Options struct {
	MoveDelay time.Duration
	GameDelay time.Duration
	Book      *Book
	Archive   Archive
	Messages  *msgcat.Catalog
	Logger    *zap.Logger
	// NewID generates session ids. Defaults to uuid.NewString.
	NewID func() string
}

// Loop drives sessions one transition at a time. It is the only writer of game
// state into the store; it is not safe for concurrent use.
type Loop struct {
	store    *state.Store
	seq      *Sequencer
	resolver Resolver
	book     *Book
	archive  Archive
	msgs     *msgcat.Catalog
	logger   *zap.Logger
	newID    func() string

	moveDelay time.Duration
	gameDelay time.Duration

	stage   Stage
	session *Session
	last    *Session
}

func NewLoop(store *state.Store, seq *Sequencer, resolver Resolver, opts Options) *Loop {
	l := &Loop{
		store:     store,
		seq:       seq,
		resolver:  resolver,
		book:      opts.Book,
		archive:   opts.Archive,
		msgs:      opts.Messages,
		logger:    opts.Logger,
		newID:     opts.NewID,
		moveDelay: opts.MoveDelay,
		gameDelay: opts.GameDelay,
	}
	if l.msgs == nil {
		l.msgs = msgcat.MustDefault()
	}
	if l.logger == nil {
		l.logger = zap.NewNop()
	}
	if l.newID == nil {
		l.newID = uuid.NewString
	}
	return l
}

func (l *Loop) Stage() Stage { return l.stage }

// Current returns a copy of the in-flight session.
func (l *Loop) Current() (Session, bool) {
	if l.session == nil {
		return Session{}, false
	}
	return l.session.clone(), true
}

// Reset abandons the in-flight session; the next Step starts a new one.
func (l *Loop) Reset() {
	l.stage = StageStarting
	l.session = nil
}

// Step performs exactly one transition.
func (l *Loop) Step(ctx context.Context) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	switch l.stage {
	case StageStarting:
		return l.start()
	case StageInProgress:
		return l.playTurn(ctx)
	case StageFinished:
		return l.finish(ctx)
	}
	return nil
}

// RunSession steps from the current stage until a session has finished.
func (l *Loop) RunSession(ctx context.Context) (Session, error) {
	for {
		if err := l.Step(ctx); err != nil {
			return Session{}, err
		}
		if l.stage == StageStarting && l.last != nil {
			done := l.last.clone()
			l.last = nil
			return done, nil
		}
	}
}

func (l *Loop) start() error {
	seqNo := l.store.Sequence() + 1
	pos, err := l.book.Position(seqNo)
	if err != nil {
		return err
	}
	sess := &Session{
		Sequence:  seqNo,
		ID:        l.newID(),
		StartFEN:  pos.FEN(),
		Position:  pos,
		StartedAt: time.Now(),
	}
	l.session = sess
	l.last = nil

	text := l.msgs.Text(msgcat.KeyStarting, map[string]any{"Game": seqNo}, "Starting game")
	l.store.Publish(func(v *state.GameView) {
		v.Sequence = sess.Sequence
		v.SessionID = sess.ID
		v.FEN = sess.StartFEN
		v.Phase = state.PhaseInProgress
		v.StatusText = text
		v.ActiveSide = pos.Turn()
		v.Winner = ""
		v.Method = ""
		v.LastMoveSAN = ""
		v.LastMoveUCI = ""
		v.LastMover = ""
		v.Fallback = false
		v.MovesSAN = nil
		v.Ply = 0
		v.OpeningCode = ""
		v.OpeningTitle = ""
	})
	l.logger.Info("arena_session_start",
		zap.Int64("game", sess.Sequence),
		zap.String("session_id", sess.ID),
		zap.String("fen", sess.StartFEN),
		zap.String("white", l.seq.AgentName(rules.White)),
		zap.String("black", l.seq.AgentName(rules.Black)),
	)
	l.stage = StageInProgress
	return nil
}

func (l *Loop) playTurn(ctx context.Context) error {
	sess := l.session
	side := sess.Position.Turn()
	thinking := l.msgs.Text(msgcat.KeyThinking, map[string]any{"Side": l.sideLabel(side)}, "")
	l.store.Publish(func(v *state.GameView) {
		v.ActiveSide = side
		if thinking != "" {
			v.StatusText = thinking
		}
	})

	turn, err := l.seq.Play(ctx, sess)
	if err != nil {
		if errors.Is(err, ErrNoLegalMoves) || errors.Is(err, ErrAgentUnavailable) {
			l.logger.Warn("arena_session_abnormal",
				zap.Int64("game", sess.Sequence),
				zap.String("side", string(side)),
				zap.Error(err),
			)
			sess.Verdict = abnormal(err.Error())
			l.stage = StageFinished
			return nil
		}
		return err
	}

	sess.Position = turn.Position
	sess.MovesUCI = append(sess.MovesUCI, turn.Move.UCI)
	sess.MovesSAN = append(sess.MovesSAN, turn.Move.SAN)
	if turn.Fallback {
		sess.Fallbacks++
	}
	code, title := sess.Position.Opening()

	key := msgcat.KeyMoved
	if turn.Fallback {
		key = msgcat.KeyFallback
	}
	text := l.msgs.Text(key, map[string]any{"Side": l.sideLabel(side), "Move": turn.Move.SAN}, turn.Move.SAN)
	moves := append([]string(nil), sess.MovesSAN...)
	l.store.Publish(func(v *state.GameView) {
		v.FEN = sess.Position.FEN()
		v.StatusText = text
		v.ActiveSide = sess.Position.Turn()
		v.LastMoveSAN = turn.Move.SAN
		v.LastMoveUCI = turn.Move.UCI
		v.LastMover = side
		v.Fallback = turn.Fallback
		v.MovesSAN = moves
		v.Ply = len(moves)
		v.OpeningCode = code
		v.OpeningTitle = title
	})
	l.logger.Debug("arena_move",
		zap.Int64("game", sess.Sequence),
		zap.String("side", string(side)),
		zap.String("uci", turn.Move.UCI),
		zap.String("san", turn.Move.SAN),
		zap.Bool("fallback", turn.Fallback),
		zap.Duration("elapsed", turn.Elapsed),
	)

	if err := sleepCtx(ctx, l.moveDelay); err != nil {
		return err
	}

	if v := l.resolver.Resolve(sess.Position); v.Terminal() {
		sess.Verdict = v
		l.stage = StageFinished
	}
	return nil
}

func (l *Loop) finish(ctx context.Context) error {
	sess := l.session
	sess.EndedAt = time.Now()
	verdict := sess.Verdict

	var winner rules.Side
	if verdict.Decisive() {
		winner = verdict.Winner
	}
	text := l.finalText(verdict)
	l.store.RecordWin(winner, func(v *state.GameView) {
		v.Phase = verdict.Status.Phase()
		v.StatusText = text
		v.Winner = winner
		v.Method = verdict.Method
	})
	l.logger.Info("arena_session_finish",
		zap.Int64("game", sess.Sequence),
		zap.String("session_id", sess.ID),
		zap.String("status", verdict.Status.String()),
		zap.String("winner", string(winner)),
		zap.String("method", verdict.Method),
		zap.Int("plies", len(sess.MovesUCI)),
		zap.Int("fallbacks", sess.Fallbacks),
	)
	l.save(ctx, sess)

	l.last = sess
	l.session = nil
	l.stage = StageStarting
	return sleepCtx(ctx, l.gameDelay)
}

func (l *Loop) finalText(v Verdict) string {
	switch v.Status {
	case Checkmate:
		return l.msgs.Text(msgcat.KeyCheckmate, map[string]any{"Winner": l.sideLabel(v.Winner)}, "Checkmate")
	case Stalemate:
		return l.msgs.Text(msgcat.KeyStalemate, nil, "Stalemate")
	case Draw:
		method := l.msgs.Text(msgcat.KeyMethodPrefix+v.Method, nil, v.Method)
		return l.msgs.Text(msgcat.KeyDraw, map[string]any{"Method": method}, "Draw")
	default:
		return l.msgs.Text(msgcat.KeyAbnormal, nil, "Game ended unexpectedly")
	}
}

func (l *Loop) sideLabel(side rules.Side) string {
	if side == rules.Black {
		return l.msgs.Text(msgcat.KeyBlack, nil, "Black")
	}
	return l.msgs.Text(msgcat.KeyWhite, nil, "White")
}

// save archives the finished session. Failures are logged only.
func (l *Loop) save(ctx context.Context, sess *Session) {
	if l.archive == nil {
		return
	}
	rec := arenadto.GameRecord{
		ID:        sess.ID,
		Game:      sess.Sequence,
		White:     l.seq.AgentName(rules.White),
		Black:     l.seq.AgentName(rules.Black),
		Result:    sess.Verdict.Result(),
		Method:    sess.Verdict.Method,
		StartFEN:  sess.StartFEN,
		MovesUCI:  append([]string(nil), sess.MovesUCI...),
		MovesSAN:  append([]string(nil), sess.MovesSAN...),
		StartedAt: sess.StartedAt,
		EndedAt:   sess.EndedAt,
	}
	rec.PGN = history.BuildPGN(rec)

	actx, cancel := context.WithTimeout(context.WithoutCancel(ctx), archiveTimeout)
	defer cancel()
	if err := l.archive.SaveGame(actx, rec); err != nil {
		l.logger.Warn("arena_archive_error", zap.Int64("game", sess.Sequence), zap.Error(err))
	}
}

func sleepCtx(ctx context.Context, d time.Duration) error {
	if d <= 0 {
		return ctx.Err()
	}
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-t.C:
		return nil
	}
}
