package ping

import (
	"context"
	"errors"
	"fmt"
	"net/netip"
	"time"

	"github.com/digineo/go-fping/internal"
)

// pollInterval is the pause between two reads while waiting for the
// replies of a bounded run.
const pollInterval = 10 * time.Millisecond

// prober is the state of a single run. It is confined to the run's
// goroutine.
type prober struct {
	conn    Conn
	cfg     Config
	id      uint16
	targets []*target
	sink    *Sink

	bySource map[netip.Addr]*target
	names    *reverseCache
	buf      []byte
	lastSend time.Time
}

func newProber(conn Conn, cfg Config, id uint16, targets []*target, sink *Sink, r Resolver) *prober {
	p := &prober{
		conn:     conn,
		cfg:      cfg,
		id:       id,
		targets:  targets,
		sink:     sink,
		bySource: make(map[netip.Addr]*target, len(targets)),
		buf:      make([]byte, internal.MaxFrameSize),
	}
	for _, t := range targets {
		p.bySource[t.addr] = t
	}
	if cfg.ResolveDNS {
		p.names = newReverseCache(r, cfg.Timeout)
	}
	return p
}

// run executes rounds until the configured count is reached or ctx is
// cancelled.
func (p *prober) run(ctx context.Context) {
	rounds := p.cfg.rounds()

	if p.names != nil {
		addrs := make([]netip.Addr, len(p.targets))
		for i, t := range p.targets {
			addrs[i] = t.addr
		}
		p.names.prefetch(ctx, addrs)
	}

rounds:
	for round := 0; p.cfg.Continuous || round < rounds; round++ {
		if ctx.Err() != nil {
			break
		}

		for _, t := range p.targets {
			if ctx.Err() != nil || !p.pace(ctx) {
				break rounds
			}
			p.send(t)
			p.receive(ctx)
		}
	}

	if ctx.Err() == nil && !p.cfg.Continuous {
		p.drain(ctx)
	}

	if ctx.Err() != nil {
		p.info("Stopping...")
	}

	for _, t := range p.targets {
		t.expire()
		p.info(summary(t.snapshot()))
	}
}

// pace waits until the configured interval has passed since the previous
// transmission. It returns false if ctx was cancelled meanwhile.
func (p *prober) pace(ctx context.Context) bool {
	if p.lastSend.IsZero() {
		return true
	}

	wait := p.cfg.Interval - time.Since(p.lastSend)
	if wait <= 0 {
		return true
	}

	timer := time.NewTimer(wait)
	defer timer.Stop()

	select {
	case <-ctx.Done():
		return false
	case <-timer.C:
		return true
	}
}

// send transmits the next echo request to t. Failures are reported as
// events, they do not end the run.
func (p *prober) send(t *target) {
	seq := t.nextSeq()
	now := time.Now()
	p.lastSend = now

	wb, err := internal.EncodeEchoRequest(p.id, seq, p.cfg.PacketSize, now)
	if err == nil {
		err = p.conn.WriteTo(wb, t.addr)
	}
	if err != nil {
		log.Errorf("unable to send to %v: %v", t.addr, err)
		p.emit(Event{
			Kind:     KindSendError,
			Time:     now,
			Target:   t.index,
			Hostname: t.hostname,
			Address:  t.addr,
			Seq:      seq,
			Err:      err,
		})
	}
}

// receive reads until no datagram is pending. Unrelated ICMP traffic
// must not queue up in front of our replies.
func (p *prober) receive(ctx context.Context) {
	for ctx.Err() == nil && p.receiveOne() {
	}
}

// receiveOne performs a single non-blocking read and evaluates the packet,
// if any. It reports whether a packet was read.
func (p *prober) receiveOne() bool {
	n, _, at, err := p.conn.ReadFrom(p.buf)
	if err != nil {
		if !errors.Is(err, internal.ErrWouldBlock) {
			log.Errorf("unable to receive: %v", err)
			p.emit(Event{Kind: KindRecvError, Time: time.Now(), Target: -1, Err: err})
		}
		return false
	}

	reply, err := internal.DecodeReply(p.buf[:n], at)
	if err != nil {
		// other ICMP traffic is expected on a raw socket
		return true
	}
	if reply.ID != p.id {
		return true
	}

	t := p.bySource[reply.Source]
	if t == nil || !t.credit(reply.Seq, reply.RTT) {
		return true
	}

	e := Event{
		Kind:     KindReply,
		Time:     at,
		Target:   t.index,
		Hostname: t.hostname,
		Address:  reply.Source,
		TTL:      reply.TTL,
		Seq:      reply.Seq,
		RTT:      reply.RTT,
	}
	if p.names != nil {
		e.Name = p.names.name(reply.Source)
	}
	p.emit(e)

	return true
}

// drain collects replies of a bounded run until every probe is answered
// or the timeout has passed since the last transmission.
func (p *prober) drain(ctx context.Context) {
	deadline := p.lastSend.Add(p.cfg.Timeout)

	for {
		p.receive(ctx)
		if !p.outstanding() || !time.Now().Before(deadline) {
			return
		}

		timer := time.NewTimer(pollInterval)
		select {
		case <-ctx.Done():
			timer.Stop()
			return
		case <-timer.C:
		}
	}
}

func (p *prober) outstanding() bool {
	for _, t := range p.targets {
		if t.outstanding() {
			return true
		}
	}
	return false
}

func (p *prober) emit(e Event) {
	e.timestamp = p.cfg.ShowTimestamp
	e.showDNS = p.cfg.ResolveDNS
	p.sink.Push(e)
}

func (p *prober) info(text string) {
	if p.cfg.Quiet {
		return
	}
	p.emit(Event{Kind: KindInfo, Time: time.Now(), Target: -1, Text: text})
}

// summary renders the final statistics line of a target.
func summary(t Target) string {
	name := t.Address.String()
	if t.Hostname != name {
		name = fmt.Sprintf("%s (%s)", t.Hostname, t.Address)
	}

	s := t.Stats
	line := fmt.Sprintf("%s : xmt/rcv/%%loss = %d/%d/%.0f%%", name, s.Sent, s.Received, s.LossRate()*100)
	if s.Received > 0 {
		line += fmt.Sprintf(", min/avg/max/jitter = %s/%s/%s/%s",
			FormatRTT(s.Min), FormatRTT(s.Mean()), FormatRTT(s.Max), FormatRTT(s.Jitter()))
	}
	return line
}
