package tracker

import (
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/hupe1980/worldloop/core"
	"github.com/hupe1980/worldloop/domain"
	"github.com/hupe1980/worldloop/pddl"
)

// human is what the tracker knows about one human. It is owned by the
// tracker loop.
type human struct {
	instance pddl.Instance
	handle   Handle
	subs     *core.Disposables

	seeksEngagement core.Timestamped[bool]
	visible         core.Timestamped[*bool]
	disengaging     bool
	lastTouch       time.Time
	lastSpeech      time.Time
	distance        core.Timestamped[*float64]
	inZone          core.Timestamped[*bool]
	inPlan          core.Timestamped[*bool]
	keptByTask      bool
}

func newHuman(inst pddl.Instance, handle Handle) *human {
	return &human{
		instance:        inst,
		handle:          handle,
		subs:            &core.Disposables{},
		seeksEngagement: core.Stamp(false),
		visible:         core.Stamp[*bool](nil),
		distance:        core.Stamp[*float64](nil),
		inZone:          core.Stamp[*bool](nil),
		inPlan:          core.Stamp[*bool](nil),
	}
}

func (h *human) hasHandle(handle Handle) bool {
	return h.handle != nil && handle != nil && h.handle.ID() == handle.ID()
}

// dissociate drops the handle and everything derived from seeing the human.
func (h *human) dissociate() {
	h.subs.Dispose()
	h.subs = &core.Disposables{}
	h.handle = nil
	h.visible = core.Stamp(ptr(false))
	h.distance = core.Stamp[*float64](nil)
	h.seeksEngagement = core.Stamp(false)
	h.disengaging = false
}

func (h *human) forget() {
	h.subs.Dispose()
}

// HumanStatus is a read-only view of a tracked human.
type HumanStatus struct {
	Name            string   `json:"name"`
	Handle          string   `json:"handle,omitempty"`
	Visible         *bool    `json:"visible,omitempty"`
	Distance        *float64 `json:"distance,omitempty"`
	InZone          *bool    `json:"in_zone,omitempty"`
	SeeksEngagement bool     `json:"seeks_engagement"`
	Disengaging     bool     `json:"disengaging"`
	InPlan          bool     `json:"in_plan"`
	KeptByTask      bool     `json:"kept_by_task"`
}

func (h *human) status() HumanStatus {
	s := HumanStatus{
		Name:            h.instance.Name,
		Visible:         h.visible.Value,
		Distance:        h.distance.Value,
		InZone:          h.inZone.Value,
		SeeksEngagement: h.seeksEngagement.Value,
		Disengaging:     h.disengaging,
		InPlan:          h.inPlan.Value != nil && *h.inPlan.Value,
		KeptByTask:      h.keptByTask,
	}
	if h.handle != nil {
		s.Handle = h.handle.ID()
	}
	return s
}

func ptr[T any](v T) *T { return &v }

// engagesFacts describe a human who engages the robot.
func engagesFacts(h pddl.Instance) []pddl.Fact {
	return []pddl.Fact{
		domain.IsInterested.Of(h),
		domain.Engages.Of(h, domain.Self),
		domain.CanBeEngaged.Of(h),
	}
}

// HumanParameter stands for the new human in initial facts.
var HumanParameter = domain.Human.Variable("h")

// bindHuman replaces HumanParameter with inst in facts.
func bindHuman(facts []pddl.Fact, inst pddl.Instance) []pddl.Fact {
	out := make([]pddl.Fact, len(facts))
	for i, f := range facts {
		args := make([]pddl.Instance, len(f.Args))
		for j, a := range f.Args {
			if a.Equal(HumanParameter) {
				a = inst
			}
			args[j] = a
		}
		out[i] = pddl.Fact{Predicate: f.Predicate, Args: args, Negated: f.Negated}
	}
	return out
}

const humanPrefix = "human_"

// lowestFreeName returns human_N for the lowest positive N not in use.
func lowestFreeName(known []*human) string {
	used := make(map[int]bool, len(known))
	for _, h := range known {
		name := h.instance.Name
		if n, err := strconv.Atoi(name[strings.LastIndex(name, "_")+1:]); err == nil {
			used[n] = true
		}
	}
	for i := 1; ; i++ {
		if !used[i] {
			return fmt.Sprintf("%s%d", humanPrefix, i)
		}
	}
}
