package pgwire

import (
	"container/list"
	"context"
	"errors"
	"runtime"
	"sync"
	"time"
)

// DefaultIdleTimeout is a suggested idleTimeout argument for NewPool.
// NewPool does not substitute it for a zero value: it rejects any
// idleTimeout below 5s.
const DefaultIdleTimeout = 300 * time.Second

type poolConn struct {
	conn  *Conn
	atime time.Time // time at which conn was pushed back onto the free list
}

// Pool manages a set of Conns shared safely across goroutines, growing on
// demand up to maxConns and closing connections idle for longer than
// idleTimeout, down to minConns.
type Pool struct {
	cfg     *Config
	conns   *list.List
	max     int
	min     int
	n       int
	cond    *sync.Cond
	timeout time.Duration
	closed  bool
	logger  Logger
}

// NewPool dials minConns connections against cfg to verify it works, then
// starts a background goroutine that evicts connections idle longer than
// idleTimeout, never dropping below minConns.
func NewPool(ctx context.Context, cfg *Config, minConns, maxConns int, idleTimeout time.Duration) (*Pool, error) {
	if minConns < 1 {
		return nil, errors.New("pgwire: minConns must be >= 1")
	}
	if maxConns < minConns {
		return nil, errors.New("pgwire: maxConns must be >= minConns")
	}
	if idleTimeout < 5*time.Second {
		return nil, errors.New("pgwire: idleTimeout must be >= 5s")
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	p := &Pool{
		cfg:     cfg,
		conns:   list.New(),
		max:     maxConns,
		min:     minConns,
		cond:    sync.NewCond(new(sync.Mutex)),
		timeout: idleTimeout,
		logger:  cfg.Logger,
	}

	for i := 0; i < minConns; i++ {
		c, err := Connect(ctx, cfg)
		if err != nil {
			p.closeAllLocked()
			return nil, err
		}
		p.conns.PushFront(poolConn{conn: c, atime: time.Now()})
		p.n++
	}

	go p.evictIdle()
	runtime.SetFinalizer(p, (*Pool).finalize)
	return p, nil
}

func (p *Pool) evictIdle() {
	for {
		p.cond.L.Lock()
		if p.closed {
			p.cond.L.Unlock()
			return
		}
		now := time.Now()
		delay := p.timeout
		for p.conns.Len() > p.min {
			front := p.conns.Front()
			pc := front.Value.(poolConn)
			if now.Sub(pc.atime) > p.timeout {
				pc.conn.Close()
				p.conns.Remove(front)
				p.n--
				p.logger.Debugf("pgwire: pool closed idle connection, %d remaining", p.n)
			} else {
				delay = p.timeout - now.Sub(pc.atime)
				break
			}
		}
		p.cond.L.Unlock()
		time.Sleep(delay)
	}
}

// Acquire removes a Conn from the pool, dialing a new one if fewer than
// maxConns exist, or blocking until one is Released or ctx is done
// otherwise.
func (p *Pool) Acquire(ctx context.Context) (*Conn, error) {
	p.cond.L.Lock()
	defer p.cond.L.Unlock()

	if p.closed {
		return nil, errors.New("pgwire: pool is closed")
	}
	if p.conns.Len() > 0 {
		return p.conns.Remove(p.conns.Front()).(poolConn).conn, nil
	}
	if p.n < p.max {
		c, err := Connect(ctx, p.cfg)
		if err != nil {
			return nil, err
		}
		p.n++
		return c, nil
	}

	waiting := make(chan struct{})
	go func() {
		<-ctx.Done()
		p.cond.L.Lock()
		close(waiting)
		p.cond.Broadcast()
		p.cond.L.Unlock()
	}()
	for p.conns.Len() == 0 && !p.closed {
		select {
		case <-waiting:
			return nil, ctx.Err()
		default:
		}
		p.cond.Wait()
	}
	if p.closed {
		return nil, errors.New("pgwire: pool is closed")
	}
	return p.conns.Remove(p.conns.Front()).(poolConn).conn, nil
}

// Release returns c to the pool for reuse, or closes it outright if the
// pool is closed or c is no longer in a reusable (ready) state.
func (p *Pool) Release(c *Conn) {
	p.cond.L.Lock()
	defer p.cond.L.Unlock()
	if p.closed || c.State() != StateReady {
		c.Close()
		p.n--
		p.cond.Signal()
		return
	}
	p.conns.PushBack(poolConn{conn: c, atime: time.Now()})
	p.cond.Signal()
}

func (p *Pool) closeAllLocked() {
	for p.conns.Len() > 0 {
		p.conns.Remove(p.conns.Front()).(poolConn).conn.Close()
	}
}

func (p *Pool) finalize() { p.Close() }

// Close closes every idle connection and refuses further Acquire calls.
// Connections currently on loan (acquired but not yet Released) are
// unaffected; Close is idempotent.
func (p *Pool) Close() error {
	p.cond.L.Lock()
	defer p.cond.L.Unlock()
	if p.closed {
		return nil
	}
	p.closeAllLocked()
	p.closed = true
	p.cond.Broadcast()
	runtime.SetFinalizer(p, nil)
	return nil
}
