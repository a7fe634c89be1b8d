package ping

import (
	"context"
	"errors"
	"fmt"
	"net"
	"net/netip"
	"os"
	"sync"

	"golang.org/x/sync/errgroup"

	"github.com/digineo/go-fping/internal"
)

// Conn is the raw ICMPv4 socket used by a run.
type Conn = internal.Conn

// State is the lifecycle state of an Engine.
type State int

const (
	Idle State = iota
	Running
	Stopping
)

func (s State) String() string {
	switch s {
	case Idle:
		return "idle"
	case Running:
		return "running"
	case Stopping:
		return "stopping"
	}
	return fmt.Sprintf("State(%d)", int(s))
}

// resolveConcurrency limits parallel lookups in AddTargets.
const resolveConcurrency = 4

// Engine probes the registered targets. At most one run is active at any
// time; results are published through Events.
type Engine struct {
	registry *Registry
	resolver Resolver
	open     func() (Conn, error)
	id       uint16
	sink     *Sink

	mtx    sync.Mutex
	state  State
	closed bool
	cancel context.CancelFunc
	done   chan struct{}
}

// Option configures an Engine.
type Option func(*Engine)

// WithResolver replaces net.DefaultResolver.
func WithResolver(r Resolver) Option {
	return func(e *Engine) { e.resolver = r }
}

// WithConn replaces the raw socket factory, e.g. for tests.
func WithConn(open func() (Conn, error)) Option {
	return func(e *Engine) { e.open = open }
}

// WithIdentifier overrides the ICMP identifier, which defaults to the
// lower 16 bits of the process id.
func WithIdentifier(id uint16) Option {
	return func(e *Engine) { e.id = id }
}

// New creates an idle Engine. Call Close to release it.
func New(opts ...Option) *Engine {
	e := &Engine{
		resolver: net.DefaultResolver,
		open:     internal.Open,
		id:       uint16(os.Getpid() & 0xffff),
		sink:     NewSink(),
	}
	for _, opt := range opts {
		opt(e)
	}
	e.registry = NewRegistry(e.resolver)
	return e
}

// Events returns the ordered stream of results. The channel is closed by
// Close.
func (e *Engine) Events() <-chan Event {
	return e.sink.C()
}

// AddTarget registers a host name or IPv4 address. Targets added while a
// run is active are probed from the next run on.
func (e *Engine) AddTarget(ctx context.Context, nameOrIP string) (int, error) {
	return e.registry.Add(ctx, nameOrIP)
}

// AddTargets resolves all names concurrently and registers them in the
// given order. Failed names get index -1; their errors are joined.
func (e *Engine) AddTargets(ctx context.Context, names ...string) ([]int, error) {
	type result struct {
		addr netip.Addr
		err  error
	}
	results := make([]result, len(names))

	var g errgroup.Group
	g.SetLimit(resolveConcurrency)
	for i, name := range names {
		i, name := i, name
		g.Go(func() error {
			addr, err := resolveIPv4(ctx, e.resolver, name)
			results[i] = result{addr, err}
			return nil
		})
	}
	g.Wait()

	indexes := make([]int, len(names))
	var errs []error
	for i, name := range names {
		indexes[i] = -1
		if err := results[i].err; err != nil {
			errs = append(errs, err)
			continue
		}
		index, err := e.registry.insert(name, results[i].addr)
		if err != nil {
			errs = append(errs, fmt.Errorf("%s: %w", name, err))
			continue
		}
		indexes[i] = index
	}

	return indexes, errors.Join(errs...)
}

// Targets returns snapshots of all registered targets.
func (e *Engine) Targets() []Target {
	return e.registry.List()
}

// Report returns the per-target statistics. It may be called at any
// time; after a run has ended it holds that run's final numbers.
func (e *Engine) Report() []Target {
	return e.registry.List()
}

// Reset removes all targets. It fails while a run is active.
func (e *Engine) Reset() error {
	e.mtx.Lock()
	defer e.mtx.Unlock()

	if e.state != Idle {
		return ErrRunning
	}
	e.registry.Reset()
	return nil
}

// State returns the current lifecycle state.
func (e *Engine) State() State {
	e.mtx.Lock()
	defer e.mtx.Unlock()
	return e.state
}

// Running reports whether a run is active.
func (e *Engine) Running() bool {
	return e.State() != Idle
}

// Start validates cfg, opens the raw socket and spawns the probe loop. It
// returns without waiting for the loop.
func (e *Engine) Start(cfg Config) error {
	if err := cfg.Validate(); err != nil {
		return err
	}

	e.mtx.Lock()
	defer e.mtx.Unlock()

	if e.closed {
		return ErrClosed
	}
	if e.state != Idle {
		return ErrRunning
	}

	targets := e.registry.all()
	if len(targets) == 0 {
		return ErrNoTargets
	}

	conn, err := e.connect(cfg)
	if err != nil {
		return err
	}

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan struct{})
	e.state = Running
	e.cancel = cancel
	e.done = done

	log.Infof("probing %d targets (interval %v, size %d, continuous %t)",
		len(targets), cfg.Interval, cfg.PacketSize, cfg.Continuous)

	go e.run(ctx, conn, newProber(conn, cfg, e.id, targets, e.sink, e.resolver), done)

	return nil
}

// connect opens and configures the socket for a run.
func (e *Engine) connect(cfg Config) (Conn, error) {
	conn, err := e.open()
	if err != nil {
		if errors.Is(err, internal.ErrPermission) {
			return nil, ErrInsufficientPrivilege
		}
		return nil, e.socketError(err)
	}

	if cfg.Mark != 0 {
		marker, ok := conn.(internal.Marker)
		if !ok {
			conn.Close()
			return nil, e.socketError(errors.New("setting SO_MARK is not supported"))
		}
		if err := marker.SetMark(cfg.Mark); err != nil {
			conn.Close()
			return nil, e.socketError(err)
		}
	}

	return conn, nil
}

func (e *Engine) socketError(err error) error {
	log.Errorf("unable to create socket: %v", err)
	e.sink.Push(Event{Kind: KindSocketError, Target: -1, Err: err})
	return &SocketError{Err: err}
}

func (e *Engine) run(ctx context.Context, conn Conn, p *prober, done chan struct{}) {
	defer close(done)
	defer e.finish()
	defer func() {
		if err := conn.Close(); err != nil {
			log.Errorf("unable to close socket: %v", err)
		}
	}()

	p.run(ctx)
}

func (e *Engine) finish() {
	e.mtx.Lock()
	e.cancel()
	e.state = Idle
	e.mtx.Unlock()

	log.Infof("probing finished")
}

// Stop requests cancellation of the active run and waits until its
// goroutine has exited and the socket is closed. Without an active run
// Stop returns immediately.
func (e *Engine) Stop() {
	e.mtx.Lock()
	cancel, done := e.cancel, e.done
	if e.state == Running {
		e.state = Stopping
	}
	e.mtx.Unlock()

	if done == nil {
		return
	}
	cancel()
	<-done
}

// Wait blocks until the active run, if any, has ended.
func (e *Engine) Wait() {
	e.mtx.Lock()
	done := e.done
	e.mtx.Unlock()

	if done != nil {
		<-done
	}
}

// Close stops any active run and closes the event stream. Pending events
// are still delivered to a reader draining Events; without one they are
// dropped after a second.
func (e *Engine) Close() {
	e.mtx.Lock()
	e.closed = true
	e.mtx.Unlock()

	e.Stop()
	e.sink.Close()
}
