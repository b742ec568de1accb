package session

import (
	"sync"
	"time"
)

// OneShot runs fn once, d after Arm. Re-arming restarts the countdown.
// Disarm never waits for a running fn, and a fire that races with Disarm is dropped.
type OneShot struct {
	mu    sync.Mutex
	d     time.Duration
	fn    func()
	gen   uint64
	armed bool
	t     *time.Timer
}

func NewOneShot(d time.Duration, fn func()) *OneShot {
	return &OneShot{d: d, fn: fn}
}

func (o *OneShot) Arm() {
	o.mu.Lock()
	defer o.mu.Unlock()
	o.stopLocked()
	o.armed = true
	g := o.gen
	o.t = time.AfterFunc(o.d, func() {
		o.mu.Lock()
		live := o.armed && o.gen == g
		if live {
			o.armed = false
		}
		o.mu.Unlock()
		if live {
			o.fn()
		}
	})
}

func (o *OneShot) Disarm() {
	o.mu.Lock()
	defer o.mu.Unlock()
	o.stopLocked()
}

func (o *OneShot) Armed() bool {
	o.mu.Lock()
	defer o.mu.Unlock()
	return o.armed
}

func (o *OneShot) stopLocked() {
	o.gen++
	o.armed = false
	if o.t != nil {
		o.t.Stop()
		o.t = nil
	}
}

// Periodic runs fn every d while armed. The next tick is scheduled after fn returns.
type Periodic struct {
	mu    sync.Mutex
	d     time.Duration
	fn    func()
	gen   uint64
	armed bool
	t     *time.Timer
}

func NewPeriodic(d time.Duration, fn func()) *Periodic {
	return &Periodic{d: d, fn: fn}
}

// Arm starts ticking unless already armed.
func (p *Periodic) Arm() {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.armed {
		return
	}
	p.armed = true
	p.gen++
	p.scheduleLocked(p.gen)
}

func (p *Periodic) Disarm() {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.gen++
	p.armed = false
	if p.t != nil {
		p.t.Stop()
		p.t = nil
	}
}

func (p *Periodic) Armed() bool {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.armed
}

func (p *Periodic) scheduleLocked(g uint64) {
	p.t = time.AfterFunc(p.d, func() { p.fire(g) })
}

func (p *Periodic) fire(g uint64) {
	p.mu.Lock()
	if !p.armed || p.gen != g {
		p.mu.Unlock()
		return
	}
	p.mu.Unlock()

	p.fn()

	p.mu.Lock()
	if p.armed && p.gen == g {
		p.scheduleLocked(g)
	}
	p.mu.Unlock()
}
