package uci

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/exec"
	"strings"
	"sync"
)

// Engine identifies a binary plus the options it is started with. Sessions
// are only reused for an identical Engine.
type Engine struct {
	Path    string
	Args    []string
	Options Options
}

func (e Engine) key() string {
	return fmt.Sprintf("%s|%s|thr=%d|hash=%d|skill=%d|multipv=%d|elo=%d",
		e.Path,
		strings.Join(e.Args, " "),
		e.Options.Threads,
		e.Options.HashMB,
		e.Options.SkillLevel,
		e.Options.MultiPV,
		e.Options.Elo)
}

// Pool keeps warm engine processes so each move does not pay the startup handshake.
type Pool struct {
	capacity int

	mu       sync.Mutex
	buckets  map[string]*sessionBucket
	sessions map[*Session]*sessionBucket
	closed   bool
}

// NewPool creates a pool holding at most capacity sessions per Engine (default 1).
func NewPool(capacity int) *Pool {
	if capacity <= 0 {
		capacity = 1
	}
	return &Pool{
		capacity: capacity,
		buckets:  make(map[string]*sessionBucket),
		sessions: make(map[*Session]*sessionBucket),
	}
}

var (
	errBucketAtCapacity = errors.New("session bucket at capacity")
	ErrPoolClosed       = errors.New("uci pool closed")
)

// CheckBinary resolves path through $PATH and verifies it exists.
func CheckBinary(path string) (string, error) {
	if strings.TrimSpace(path) == "" {
		return "", fmt.Errorf("engine binary path required")
	}
	resolved, err := exec.LookPath(path)
	if err != nil {
		if _, serr := os.Stat(path); serr == nil {
			return path, nil
		}
		return "", fmt.Errorf("engine binary check: %w", err)
	}
	return resolved, nil
}

func (p *Pool) Acquire(ctx context.Context, eng Engine) (*Session, error) {
	bucket, err := p.getBucket(eng)
	if err != nil {
		return nil, err
	}

	for {
		select {
		case session := <-bucket.idle:
			if s := p.revive(ctx, session, bucket); s != nil {
				return s, nil
			}
			continue
		default:
		}

		session, err := bucket.create(ctx)
		if err == nil {
			p.track(session, bucket)
			return session, nil
		}
		if !errors.Is(err, errBucketAtCapacity) {
			return nil, err
		}

		select {
		case session := <-bucket.idle:
			if s := p.revive(ctx, session, bucket); s != nil {
				return s, nil
			}
		case <-ctx.Done():
			return nil, ctx.Err()
		}
	}
}

func (p *Pool) revive(ctx context.Context, session *Session, bucket *sessionBucket) *Session {
	if session == nil {
		return nil
	}
	if err := session.EnsureReady(ctx); err != nil {
		bucket.discard(session)
		return nil
	}
	p.track(session, bucket)
	return session
}

// Release returns a session to its bucket. A non-nil err discards the process instead.
func (p *Pool) Release(session *Session, err error) {
	if session == nil {
		return
	}

	p.mu.Lock()
	bucket, ok := p.sessions[session]
	delete(p.sessions, session)
	closed := p.closed
	p.mu.Unlock()

	if !ok {
		_ = session.Close()
		return
	}
	if err != nil || closed || !bucket.put(session) {
		bucket.discard(session)
	}
}

func (p *Pool) Close() error {
	p.mu.Lock()
	p.closed = true
	buckets := make([]*sessionBucket, 0, len(p.buckets))
	for _, b := range p.buckets {
		buckets = append(buckets, b)
	}
	p.mu.Unlock()

	var errs []error
	for _, bucket := range buckets {
		for drained := false; !drained; {
			select {
			case session := <-bucket.idle:
				if session == nil {
					continue
				}
				if err := session.Close(); err != nil {
					errs = append(errs, err)
				}
				bucket.decrement()
			default:
				drained = true
			}
		}
	}
	return errors.Join(errs...)
}

func (p *Pool) track(session *Session, bucket *sessionBucket) {
	p.mu.Lock()
	p.sessions[session] = bucket
	p.mu.Unlock()
}

func (p *Pool) getBucket(eng Engine) (*sessionBucket, error) {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.closed {
		return nil, ErrPoolClosed
	}
	key := eng.key()
	bucket, ok := p.buckets[key]
	if !ok {
		bucket = &sessionBucket{
			engine:   eng,
			capacity: p.capacity,
			idle:     make(chan *Session, p.capacity),
		}
		p.buckets[key] = bucket
	}
	return bucket, nil
}

type sessionBucket struct {
	engine   Engine
	capacity int

	mu    sync.Mutex
	total int
	idle  chan *Session
}

func (b *sessionBucket) create(ctx context.Context) (*Session, error) {
	b.mu.Lock()
	if b.total >= b.capacity {
		b.mu.Unlock()
		return nil, errBucketAtCapacity
	}
	b.total++
	b.mu.Unlock()

	session, err := NewSession(ctx, b.engine.Path, b.engine.Options, b.engine.Args...)
	if err != nil {
		b.decrement()
		return nil, err
	}
	return session, nil
}

func (b *sessionBucket) put(session *Session) bool {
	select {
	case b.idle <- session:
		return true
	default:
		return false
	}
}

func (b *sessionBucket) discard(session *Session) {
	if session != nil {
		_ = session.Close()
	}
	b.decrement()
}

func (b *sessionBucket) decrement() {
	b.mu.Lock()
	if b.total > 0 {
		b.total--
	}
	b.mu.Unlock()
}
