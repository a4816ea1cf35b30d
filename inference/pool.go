package inference

import (
	"context"
	"errors"
	"fmt"
	"sync"
)

// ErrPoolClosed is returned by Acquire after Close.
var ErrPoolClosed = errors.New("inference: pool closed")

// Pool holds a fixed set of picker sessions for one model file. Each session
// runs one waveform window at a time, so the pool size bounds how many
// waveforms are picked concurrently.
type Pool struct {
	sessions  chan *Session
	modelPath string
	names     IONames
	size      int
	mu        sync.Mutex
	closed    bool
}

// NewPool opens size sessions on the model at modelPath, all bound to the
// same tensor names. A size below one opens a single session.
func NewPool(modelPath string, names IONames, size int) (*Pool, error) {
	if size <= 0 {
		size = 1
	}

	pool := &Pool{
		sessions:  make(chan *Session, size),
		modelPath: modelPath,
		names:     names,
		size:      size,
	}

	for i := 0; i < size; i++ {
		session, err := NewSession(modelPath, names)
		if err != nil {
			_ = pool.Close() // the session error is the one worth reporting
			return nil, fmt.Errorf("opening session %d of %d on %s: %w", i+1, size, modelPath, err)
		}
		pool.sessions <- session
	}

	return pool, nil
}

// Acquire takes a session, waiting until one is free or ctx is done.
func (p *Pool) Acquire(ctx context.Context) (*Session, error) {
	select {
	case session, ok := <-p.sessions:
		if !ok {
			return nil, ErrPoolClosed
		}
		return session, nil
	case <-ctx.Done():
		return nil, ctx.Err()
	}
}

// Release hands a session back. Sessions released after Close are destroyed.
func (p *Pool) Release(s *Session) {
	if s == nil {
		return
	}

	p.mu.Lock()
	defer p.mu.Unlock()
	if p.closed {
		_ = s.Close()
		return
	}

	select {
	case p.sessions <- s:
	default:
		_ = s.Close() // not one of ours
	}
}

// Do runs fn with a session held for its whole duration, so every window of
// one waveform goes through the same session.
func (p *Pool) Do(ctx context.Context, fn func(*Session) error) error {
	s, err := p.Acquire(ctx)
	if err != nil {
		return err
	}
	defer p.Release(s)
	return fn(s)
}

// Close destroys every idle session. Sessions still out are destroyed when
// released.
func (p *Pool) Close() error {
	p.mu.Lock()
	if p.closed {
		p.mu.Unlock()
		return nil
	}
	p.closed = true
	close(p.sessions)
	p.mu.Unlock()

	var errs []error
	for session := range p.sessions {
		if err := session.Close(); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}

// Size returns the number of sessions the pool was opened with.
func (p *Pool) Size() int {
	return p.size
}

// Names returns the tensor names the sessions were opened with.
func (p *Pool) Names() IONames {
	return p.names
}
