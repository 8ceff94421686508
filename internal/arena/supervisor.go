package arena

import (
	"context"
	"fmt"
	"time"

	"github.com/park285/cheese-arena/internal/msgcat"
	"github.com/park285/cheese-arena/internal/state"
	"go.uber.org/zap"
)

// Supervisor runs sessions back to back and turns any fault inside one into a restart.
type Supervisor struct {
	loop     *Loop
	store    *state.Store
	msgs     *msgcat.Catalog
	cooldown time.Duration
	logger   *zap.Logger

	// OnSession is called after every finished session. Optional.
	OnSession func(Session)
}

func NewSupervisor(loop *Loop, store *state.Store, cooldown time.Duration, msgs *msgcat.Catalog, logger *zap.Logger) *Supervisor {
	if msgs == nil {
		msgs = msgcat.MustDefault()
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Supervisor{loop: loop, store: store, msgs: msgs, cooldown: cooldown, logger: logger}
}

// Run returns only when ctx is cancelled.
func (s *Supervisor) Run(ctx context.Context) error {
	s.logger.Info("arena_supervisor_start", zap.Duration("cooldown", s.cooldown))
	defer s.logger.Info("arena_supervisor_stop")
	for {
		if ctx.Err() != nil {
			return nil
		}
		sess, err := s.runOnce(ctx)
		if err == nil {
			if s.OnSession != nil {
				s.OnSession(sess)
			}
			continue
		}
		if ctx.Err() != nil {
			return nil
		}
		s.handleFault(err)
		if sleepCtx(ctx, s.cooldown) != nil {
			return nil
		}
	}
}

func (s *Supervisor) runOnce(ctx context.Context) (sess Session, err error) {
	defer func() {
		if r := recover(); r != nil {
			s.logger.Error("arena_session_panic", zap.Any("panic", r), zap.Stack("stack"))
			err = fmt.Errorf("%w: %v", ErrSessionPanic, r)
		}
	}()
	return s.loop.RunSession(ctx)
}

func (s *Supervisor) handleFault(err error) {
	game := s.store.Sequence()
	s.loop.Reset()
	text := s.msgs.Text(msgcat.KeyError, nil, "Error occurred, restarting...")
	s.store.Publish(func(v *state.GameView) {
		v.Phase = state.PhaseError
		v.StatusText = text
	})
	s.logger.Error("arena_supervisor_recovered",
		zap.Int64("game", game),
		zap.Duration("cooldown", s.cooldown),
		zap.Error(err),
	)
}
