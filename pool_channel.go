package mpdcmd

import (
	"context"
	"errors"
	"sync"
	"sync/atomic"
	"time"

	"github.com/pior/mpdcmd/internal/coarsetime"
)

var (
	ErrPoolClosed      = errors.New("mpdcmd: pool closed")
	errInvalidPoolSize = errors.New("mpdcmd: pool size must be positive")
)

// NewChannelPool creates a connection pool built on channels, an alternative
// to NewPuddlePool. Every live connection holds one of maxSize slots; idle
// connections wait in a buffered channel.
func NewChannelPool(constructor func(ctx context.Context) (*Connection, error), maxSize int32) (Pool, error) {
	if maxSize < 1 {
		return nil, errInvalidPoolSize
	}
	return &channelPool{
		constructor: constructor,
		slots:       make(chan struct{}, maxSize),
		idle:        make(chan *channelResource, maxSize),
		done:        make(chan struct{}),
	}, nil
}

type channelPool struct {
	constructor func(ctx context.Context) (*Connection, error)

	slots chan struct{}
	idle  chan *channelResource
	done  chan struct{}

	mu     sync.Mutex // guards closed and sends on idle
	closed bool

	acquires      atomic.Uint64
	waits         atomic.Uint64
	waitTimeNs    atomic.Uint64
	acquireErrors atomic.Uint64
	created       atomic.Uint64
	destroyed     atomic.Uint64
}

func (p *channelPool) Acquire(ctx context.Context) (Resource, error) {
	p.acquires.Add(1)

	select {
	case <-p.done:
		p.acquireErrors.Add(1)
		return nil, ErrPoolClosed
	case res := <-p.idle:
		return res, nil
	default:
	}

	select {
	case res := <-p.idle:
		return res, nil
	case p.slots <- struct{}{}:
		return p.create(ctx)
	default:
	}

	p.waits.Add(1)
	start := time.Now()
	defer func() { p.waitTimeNs.Add(uint64(time.Since(start))) }()

	select {
	case res := <-p.idle:
		return res, nil
	case p.slots <- struct{}{}:
		return p.create(ctx)
	case <-ctx.Done():
		p.acquireErrors.Add(1)
		return nil, ctx.Err()
	case <-p.done:
		p.acquireErrors.Add(1)
		return nil, ErrPoolClosed
	}
}

// create opens a connection in a slot already taken by the caller.
func (p *channelPool) create(ctx context.Context) (Resource, error) {
	conn, err := p.constructor(ctx)
	if err != nil {
		<-p.slots
		p.acquireErrors.Add(1)
		return nil, err
	}
	p.created.Add(1)

	now := coarsetime.Now()
	return &channelResource{conn: conn, pool: p, createdAt: now, lastUsed: now}, nil
}

func (p *channelPool) put(res *channelResource) {
	p.mu.Lock()
	defer p.mu.Unlock()

	if p.closed {
		p.destroy(res)
		return
	}
	// Never blocks: idle holds at most one entry per slot.
	p.idle <- res
}

func (p *channelPool) destroy(res *channelResource) {
	_ = res.conn.Close()
	<-p.slots
	p.destroyed.Add(1)
}

func (p *channelPool) AcquireAllIdle() []Resource {
	var resources []Resource
	for {
		select {
		case res := <-p.idle:
			resources = append(resources, res)
		default:
			return resources
		}
	}
}

// Close closes idle connections. Connections in use are closed when
// released.
func (p *channelPool) Close() {
	p.mu.Lock()
	defer p.mu.Unlock()

	if p.closed {
		return
	}
	p.closed = true
	close(p.done)

	for {
		select {
		case res := <-p.idle:
			p.destroy(res)
		default:
			return
		}
	}
}

func (p *channelPool) Stats() PoolStats {
	total := int32(len(p.slots))
	idle := int32(len(p.idle))
	return PoolStats{
		AcquireCount:      p.acquires.Load(),
		AcquireWaitCount:  p.waits.Load(),
		CreatedConns:      p.created.Load(),
		DestroyedConns:    p.destroyed.Load(),
		AcquireErrors:     p.acquireErrors.Load(),
		AcquireWaitTimeNs: p.waitTimeNs.Load(),
		TotalConns:        total,
		IdleConns:         idle,
		ActiveConns:       max(total-idle, 0),
	}
}

type channelResource struct {
	conn      *Connection
	pool      *channelPool
	createdAt time.Time
	lastUsed  time.Time
}

func (r *channelResource) Value() *Connection { return r.conn }

func (r *channelResource) Release() {
	r.lastUsed = coarsetime.Now()
	r.pool.put(r)
}

// ReleaseUnused returns the connection without marking it used, so health
// checks do not reset its idle time.
func (r *channelResource) ReleaseUnused() {
	r.pool.put(r)
}

func (r *channelResource) Destroy() {
	r.pool.destroy(r)
}

func (r *channelResource) CreationTime() time.Time { return r.createdAt }

func (r *channelResource) IdleDuration() time.Duration {
	return coarsetime.Since(r.lastUsed)
}
