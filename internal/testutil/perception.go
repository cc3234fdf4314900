package testutil

import (
	"context"
	"sync"

	"github.com/hupe1980/worldloop/core"
	"github.com/hupe1980/worldloop/tracker"
)

// Handle is a scriptable perceived human.
type Handle struct {
	id        string
	intention *core.Property[tracker.Intention]

	mu  sync.Mutex
	pos tracker.Position
}

// NewHandle creates a handle standing at (x, y) with an unknown intention.
func NewHandle(id string, x, y float64) *Handle {
	return &Handle{
		id:        id,
		intention: core.NewProperty(tracker.IntentionUnknown),
		pos:       tracker.Position{X: x, Y: y},
	}
}

// ID implements tracker.Handle.
func (h *Handle) ID() string { return h.id }

// EngagementIntention implements tracker.Handle.
func (h *Handle) EngagementIntention() core.Readable[tracker.Intention] { return h.intention }

// HeadPosition implements tracker.Handle.
func (h *Handle) HeadPosition(ctx context.Context) (tracker.Position, error) {
	if err := ctx.Err(); err != nil {
		return tracker.Position{}, err
	}
	h.mu.Lock()
	defer h.mu.Unlock()
	return h.pos, nil
}

// SetIntention changes the perceived intention.
func (h *Handle) SetIntention(i tracker.Intention) { h.intention.Set(i) }

// MoveTo moves the head of the human.
func (h *Handle) MoveTo(x, y float64) {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.pos = tracker.Position{X: x, Y: y}
}

// Perception is a scriptable tracker.Perception.
type Perception struct {
	humans  *core.Property[[]tracker.Handle]
	touched core.Signal[struct{}]
	heard   core.Signal[struct{}]
}

// NewPerception creates a perception seeing nobody.
func NewPerception() *Perception {
	return &Perception{humans: core.NewPropertyFunc[[]tracker.Handle](nil, nil)}
}

// Humans implements tracker.Perception.
func (p *Perception) Humans() core.Readable[[]tracker.Handle] { return p.humans }

// Touched implements tracker.Perception.
func (p *Perception) Touched() core.Observer[struct{}] { return &p.touched }

// SpeechHeard implements tracker.Perception.
func (p *Perception) SpeechHeard() core.Observer[struct{}] { return &p.heard }

// See replaces the list of visible humans.
func (p *Perception) See(handles ...*Handle) {
	hs := make([]tracker.Handle, len(handles))
	for i, h := range handles {
		hs[i] = h
	}
	p.humans.Set(hs)
}

// Touch emits a touch.
func (p *Perception) Touch() { p.touched.Emit(struct{}{}) }

// Hear emits heard speech.
func (p *Perception) Hear() { p.heard.Emit(struct{}{}) }
