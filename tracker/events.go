package tracker

import (
	"context"
	"time"

	"github.com/hupe1980/worldloop/core"
	"github.com/hupe1980/worldloop/domain"
	"github.com/hupe1980/worldloop/pddl"
	"github.com/hupe1980/worldloop/world"
)

// transaction runs fn and commits the changes it queued once the
// outermost transaction ends.
func (t *Tracker) transaction(fn func()) {
	t.depth++
	fn()
	t.depth--
	if t.depth == 0 {
		t.commit()
	}
}

func (t *Tracker) addChange(c world.Change) {
	t.addChangeFunc(func(world.State) world.Change { return c })
}

func (t *Tracker) addChangeFunc(fn world.ChangeFunc) {
	t.pending = append(t.pending, fn)
}

// commit evaluates the pending functions in order, each over the state left
// by the previous ones, and applies the merged change at once. Functions may
// queue more functions.
func (t *Tracker) commit() {
	state := t.world.Get()
	var change world.Change
	for len(t.pending) > 0 {
		fns := t.pending
		t.pending = nil
		for _, fn := range fns {
			c := fn(state)
			next, err := state.Updated(c)
			if err != nil {
				t.logger.Error("dropping tracker change change=%s error=%v", c, err)
				continue
			}
			state = next
			change = change.MergedWith(c)
		}
	}
	if change.IsEmpty() {
		return
	}

	if _, err := t.world.Update(change); err != nil {
		t.logger.Error("failed to commit tracker change change=%s error=%v", change, err)
		return
	}
	for _, o := range change.Objects.Removed().Items() {
		t.data.RemoveAll(o)
	}
	if t.check {
		t.checkConsistency()
	}
}

// checkConsistency logs every tracked human missing from the world or whose
// handle differs from the one attached in the world data.
func (t *Tracker) checkConsistency() {
	state := t.world.Get()
	for _, h := range t.humans {
		if !state.HasObject(h.instance) {
			t.logger.Error("human is tracked but not found in the world human=%s", h.instance)
			continue
		}
		attached, ok := world.GetAs[Handle](t.data, h.instance, world.HandleKey)
		switch {
		case h.handle == nil && ok:
			t.logger.Error("human has no handle but one is attached human=%s attached=%s", h.instance, attached.ID())
		case h.handle != nil && (!ok || attached.ID() != h.handle.ID()):
			t.logger.Error("human handle does not match the world data human=%s handle=%s", h.instance, h.handle.ID())
		}
	}
}

// processHumans reconciles the tracked humans with the handles currently
// seen.
func (t *Tracker) processHumans(handles []Handle) {
	seen := make(map[string]bool, len(handles))
	for _, handle := range handles {
		seen[handle.ID()] = true
	}

	for _, h := range t.humans {
		if h.handle == nil || seen[h.handle.ID()] {
			continue
		}
		t.logger.Debug("human is not visible anymore human=%s", h.instance)
		h.dissociate()
		t.schedule(h, t.cfg.VisibleTimeout)
		t.data.Remove(h.instance, world.HandleKey)
		t.addChange(world.RemovingFacts(
			domain.KnowsPath.Of(domain.Self, domain.Self, h.instance),
			domain.IsDisengaging.Of(h.instance),
		))
	}

	t.logger.Debug("humans around count=%d", len(handles))
	for _, handle := range handles {
		if t.findByHandle(handle) != nil {
			continue
		}

		h := t.attachInvisible(handle)
		if h == nil {
			h = t.declare(handle)
		}

		h.visible = core.Stamp(ptr(true))
		t.addChange(world.AddingFacts(domain.KnowsPath.Of(domain.Self, domain.Self, h.instance)))
		t.watch(h, handle)
	}

	t.updatePreferred()
}

// attachInvisible gives handle to the first human without one, assuming the
// newly seen human is one that was lost or never seen.
func (t *Tracker) attachInvisible(handle Handle) *human {
	for _, h := range t.humans {
		if h.handle != nil {
			continue
		}
		t.logger.Debug("replacing invisible human by visible human human=%s handle=%s", h.instance, handle.ID())
		h.handle = handle
		t.data.Set(h.instance, world.HandleKey, handle)
		t.updatePreferred()
		return h
	}
	return nil
}

// watch follows the intention and the location of a visible human until it
// is dissociated or forgotten.
func (t *Tracker) watch(h *human, handle Handle) {
	h.subs.Add(handle.EngagementIntention().SubscribeAndGet(func(i Intention) {
		t.post(func() { t.onIntention(h, handle, i) })
	}))

	ctx, cancel := context.WithCancel(t.gctx)
	h.subs.Add(core.DisposableFunc(cancel))
	t.group.Go(func() error {
		t.pollZone(ctx, h, handle)
		return nil
	})
}

func (t *Tracker) onIntention(h *human, handle Handle, i Intention) {
	if !t.isKnown(h) || !h.hasHandle(handle) {
		return
	}
	switch i {
	case IntentionInterested:
		h.seeksEngagement = core.Stamp(true)
		t.addChange(world.AddingFacts(domain.IsInterested.Of(h.instance)))
	case IntentionSeekingEngagement:
		h.seeksEngagement = core.Stamp(true)
		h.disengaging = false
		t.addChange(world.Change{Facts: core.MustSetDelta(
			core.NewSet(domain.IsInterested.Of(h.instance), domain.Engages.Of(h.instance, domain.Self)),
			core.NewSet(domain.IsDisengaging.Of(h.instance)),
		)})
	}
	t.updatePreferred()
}

// pollZone locates the human at every tick until ctx is done or the
// location fails.
func (t *Tracker) pollZone(ctx context.Context, h *human, handle Handle) {
	interval := t.cfg.ZonePollInterval
	if interval <= 0 {
		interval = DefaultConfig().ZonePollInterval
	}
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		p, err := handle.HeadPosition(ctx)
		if err != nil {
			if ctx.Err() == nil {
				t.logger.Error("failed to locate human human=%s error=%v", h.instance, err)
			}
			return
		}
		d, in := InZone(p, t.cfg.ZoneRadius, t.cfg.ZoneAngle)
		if !t.post(func() { t.onLocated(h, handle, d, in, p.At) }) {
			return
		}

		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
		}
	}
}

func (t *Tracker) onLocated(h *human, handle Handle, d float64, in bool, at time.Time) {
	if !t.isKnown(h) || !h.hasHandle(handle) {
		return
	}

	switch was := h.inZone.Value; {
	case was == nil:
		if in {
			t.logger.Debug("human is in the zone of interest human=%s distance=%.2f", h.instance, d)
		} else {
			t.logger.Debug("human is not in the zone of interest human=%s distance=%.2f", h.instance, d)
		}
	case *was && !in:
		t.logger.Debug("human has left the zone of interest human=%s distance=%.2f", h.instance, d)
	case !*was && in:
		t.logger.Debug("human has entered the zone of interest human=%s distance=%.2f", h.instance, d)
	}

	if at.IsZero() {
		at = time.Now()
	}
	h.inZone = core.Stamp(ptr(in))
	h.distance = core.Timestamped[*float64]{Value: ptr(d), At: at}
	if in {
		t.addChange(world.AddingFacts(domain.CanBeEngaged.Of(h.instance)))
	} else {
		t.addChange(world.RemovingFacts(domain.CanBeEngaged.Of(h.instance)))
	}
	t.updatePreferred()
}

type modality int

const (
	touch modality = iota
	speech
)

// onBlindInteraction handles a touch or speech whose author is unknown. The
// most probable human is marked as engaging and reconsidered later.
func (t *Tracker) onBlindInteraction(m modality) {
	t.addChangeFunc(func(s world.State) world.Change {
		h := t.deduceEngaged(s)
		now := time.Now()
		var timeout time.Duration
		seen := h.visible.Value != nil
		switch {
		case m == touch && seen:
			h.lastTouch, timeout = now, t.cfg.TouchOnceSeenTimeout
		case m == touch:
			h.lastTouch, timeout = now, t.cfg.TouchTimeout
		case seen:
			h.lastSpeech, timeout = now, t.cfg.SpeechOnceSeenTimeout
		default:
			h.lastSpeech, timeout = now, t.cfg.SpeechTimeout
		}
		t.schedule(h, timeout)
		return world.AddingFacts(engagesFacts(h.instance)...)
	})
	t.updatePreferred()
}

// deduceEngaged picks who most probably interacted with the robot: the
// engaged human, else an engageable one, else a new human.
func (t *Tracker) deduceEngaged(s world.State) *human {
	var engaged, engageable []*human
	for _, f := range s.FactsOf(domain.CanBeEngagedName) {
		if h := t.knownArg(f, 0); h != nil {
			engageable = append(engageable, h)
		}
	}
	for _, f := range s.FactsOf(domain.EngagesName) {
		if len(f.Args) > 1 && f.Args[0].Equal(domain.Self) {
			if h := t.knownArg(f, 1); h != nil {
				engaged = append(engaged, h)
			}
		}
	}

	switch {
	case len(engaged) == 1:
		t.logger.Debug("blind interaction deduced to be from the engaged human human=%s", engaged[0].instance)
		return engaged[0]
	case len(engageable) > 0:
		t.logger.Debug("blind interaction deduced to be from an engageable human human=%s", engageable[0].instance)
		return engageable[0]
	default:
		h := t.declare(nil)
		t.logger.Debug("blind interaction deduced to be from a new human human=%s", h.instance)
		return h
	}
}

func (t *Tracker) knownArg(f pddl.Fact, i int) *human {
	if f.Negated || len(f.Args) <= i {
		return nil
	}
	h := t.findByName(f.Args[i].Name)
	if h == nil {
		t.logger.Warn("human is involved in facts but is not known human=%s", f.Args[i].Name)
	}
	return h
}

// onWorld reacts to disengagement facts and to the robot engaging somebody
// else.
func (t *Tracker) onWorld(disengaging map[string]bool, engaged *pddl.Instance) {
	for _, h := range t.humans {
		if !disengaging[h.instance.Name] || h.disengaging {
			continue
		}
		h.disengaging = true
		h.seeksEngagement = core.Stamp(false)
		t.addChange(world.RemovingFacts(domain.IsInterested.Of(h.instance)))
		t.updateEngagement(h)
	}

	if sameHuman(t.engaged, engaged) {
		return
	}
	if t.engaged != nil {
		if h := t.findByName(t.engaged.Name); h != nil {
			t.logger.Debug("human is disengaged and will now be forgotten human=%s", h.instance)
			h.forget()
			t.remove(h)
			t.addChange(world.RemovingObjects(h.instance))
			t.updatePreferred()
			t.post(func() { t.processHumans(t.perception.Humans().Get()) })
		}
	}
	t.engaged = engaged
}

func sameHuman(a, b *pddl.Instance) bool {
	if a == nil || b == nil {
		return a == b
	}
	return a.Name == b.Name
}

// onTasks flags the humans the plan refers to.
func (t *Tracker) onTasks(tasks []pddl.Task) {
	for _, h := range t.humans {
		h.keptByTask = false
		inPlan := false
		for _, task := range tasks {
			if !task.Involves(h.instance.Name) {
				continue
			}
			inPlan = true
			if t.keepsHumans(task.Action) {
				h.keptByTask = true
				break
			}
		}
		h.inPlan = core.Stamp(ptr(inPlan))
		t.schedule(h, t.cfg.InPlanTimeout)
	}
}

// updateEngagement confirms the disengagement of h once every modality
// stayed silent for long enough. A disengaged human nobody sees is
// forgotten.
func (t *Tracker) updateEngagement(h *human) {
	if !t.isKnown(h) || h.seeksEngagement.Value {
		return
	}
	if h.keptByTask {
		t.logger.Info("not disengaging human kept by the current task human=%s", h.instance)
		return
	}

	sinceVisible := h.visible.Since()
	sinceTouch := core.SinceTime(h.lastTouch)
	sinceSpeech := core.SinceTime(h.lastSpeech)
	t.logger.Debug("human last signals human=%s visible=%v touch=%v speech=%v", h.instance, sinceVisible, sinceTouch, sinceSpeech)

	var disengaged bool
	switch visible := h.visible.Value; {
	case visible == nil:
		disengaged = sinceTouch >= t.cfg.TouchTimeout && sinceSpeech >= t.cfg.SpeechTimeout
	case *visible:
		disengaged = h.disengaging
	default:
		disengaged = sinceVisible >= t.cfg.VisibleTimeout &&
			sinceTouch >= t.cfg.TouchOnceSeenTimeout &&
			sinceSpeech >= t.cfg.SpeechOnceSeenTimeout
	}
	if disengaged && h.inPlan.Value != nil && *h.inPlan.Value {
		disengaged = h.inPlan.Since() >= t.cfg.InPlanTimeout
		if !disengaged {
			t.logger.Info("waiting before disengaging human of the plan human=%s", h.instance)
		}
	}
	if !disengaged {
		return
	}

	t.logger.Debug("human is now considered disengaged human=%s", h.instance)
	change := world.RemovingFacts(engagesFacts(h.instance)...)
	if h.handle == nil {
		t.logger.Debug("human is not visible and is now considered absent human=%s", h.instance)
		h.forget()
		t.remove(h)
		change = change.MergedWith(world.RemovingObjects(h.instance))
	}
	t.addChange(change)
	t.updatePreferred()
}

// schedule re-evaluates the engagement of h after d. Non-positive delays
// schedule nothing.
func (t *Tracker) schedule(h *human, d time.Duration) {
	if d <= 0 {
		return
	}
	var tm *time.Timer
	tm = time.AfterFunc(d, func() {
		t.post(func() {
			delete(t.timers, tm)
			t.updateEngagement(h)
		})
	})
	t.timers[tm] = struct{}{}
}

// updatePreferred elects the human preferred to be engaged: the only
// candidate, else the engaged one, else the closest located one.
func (t *Tracker) updatePreferred() {
	t.addChangeFunc(func(s world.State) world.Change {
		var candidates []*human
		for _, h := range t.humans {
			suitable, err := s.Evaluate(pddl.And(
				pddl.Or(domain.CanBeEngaged.Expr(h.instance), domain.Engages.Expr(domain.Self, h.instance)),
				pddl.Not(domain.IsDisengaging.Expr(h.instance)),
			))
			if err != nil {
				t.logger.Error("failed to evaluate engageability human=%s error=%v", h.instance, err)
				continue
			}
			if suitable {
				candidates = append(candidates, h)
			}
		}

		var preferred *human
		switch len(candidates) {
		case 0:
		case 1:
			preferred = candidates[0]
		default:
			for _, h := range candidates {
				if t.engaged != nil && h.instance.Name == t.engaged.Name {
					preferred = h
					break
				}
			}
			if preferred != nil {
				break
			}
			for _, h := range candidates {
				if h.distance.Value == nil {
					continue
				}
				if preferred == nil || *h.distance.Value < *preferred.distance.Value {
					preferred = h
				}
			}
		}

		previous := core.NewSet(s.FactsOf(domain.PreferredName)...)
		next := core.NewSet[pddl.Fact]()
		if preferred != nil {
			next.Add(domain.Preferred.Of(preferred.instance))
		}
		return world.Change{Facts: core.MustSetDelta(next.Difference(previous), previous.Difference(next))}
	})
}
