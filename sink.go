package ping

import (
	"sync"
	"time"
)

// closeLinger is how long a closed Sink waits for a reader to take the
// next pending event before dropping the rest.
const closeLinger = time.Second

// Sink is an unbounded, ordered queue of Events. Push never blocks, so a
// slow consumer cannot delay the probe loop. Events are delivered through
// C in the order they were pushed.
type Sink struct {
	mtx    sync.Mutex
	queue  []Event
	closed bool

	notify chan struct{}
	quit   chan struct{}
	out    chan Event
	linger time.Duration
}

// NewSink creates a Sink and starts its delivery goroutine.
func NewSink() *Sink {
	s := &Sink{
		notify: make(chan struct{}, 1),
		quit:   make(chan struct{}),
		out:    make(chan Event),
		linger: closeLinger,
	}
	go s.deliver()
	return s
}

// Push enqueues e. It is a no-op once the Sink is closed.
func (s *Sink) Push(e Event) {
	s.mtx.Lock()
	if s.closed {
		s.mtx.Unlock()
		return
	}
	s.queue = append(s.queue, e)
	s.mtx.Unlock()

	s.wake()
}

// C returns the channel events are delivered on. It is closed after Close
// was called and all pending events were delivered.
func (s *Sink) C() <-chan Event {
	return s.out
}

// Len returns the number of events not yet delivered.
func (s *Sink) Len() int {
	s.mtx.Lock()
	defer s.mtx.Unlock()
	return len(s.queue)
}

// Close stops accepting events. Pending events are still delivered, but
// once no reader takes one within a second the rest is dropped and C is
// closed.
func (s *Sink) Close() {
	s.mtx.Lock()
	if s.closed {
		s.mtx.Unlock()
		return
	}
	s.closed = true
	close(s.quit)
	s.mtx.Unlock()

	s.wake()
}

func (s *Sink) wake() {
	select {
	case s.notify <- struct{}{}:
	default:
	}
}

func (s *Sink) deliver() {
	defer close(s.out)

	for {
		e, ok := s.next()
		if !ok {
			return
		}

		select {
		case s.out <- e:
			continue
		case <-s.quit:
		}

		timer := time.NewTimer(s.linger)
		select {
		case s.out <- e:
			timer.Stop()
		case <-timer.C:
			s.mtx.Lock()
			s.queue = nil
			s.mtx.Unlock()
			return
		}
	}
}

// next blocks until an event is queued. It returns false once the Sink is
// closed and empty.
func (s *Sink) next() (Event, bool) {
	for {
		s.mtx.Lock()
		if len(s.queue) > 0 {
			e := s.queue[0]
			s.queue[0] = Event{}
			s.queue = s.queue[1:]
			s.mtx.Unlock()
			return e, true
		}
		closed := s.closed
		s.mtx.Unlock()

		if closed {
			return Event{}, false
		}
		<-s.notify
	}
}
