package domain

import "github.com/hupe1980/worldloop/pddl"

// Types.
var (
	PhysicalObject = pddl.NewType("physical_object", nil)
	SocialAgent    = pddl.NewType("social_agent", PhysicalObject)
	Human          = pddl.NewType("human", SocialAgent)
	Emotion        = pddl.NewType("emotion", nil)
)

// Constants.
var (
	Self    = SocialAgent.Instance("self")
	Happy   = Emotion.Instance("happy")
	Neutral = Emotion.Instance("neutral")
	Sad     = Emotion.Instance("sad")
)

// Predicate names shared with the tracker.
const (
	IsInterestedName  = "is_interested"
	IsDisengagingName = "is_disengaging"
	CanBeEngagedName  = "can_be_engaged"
	PreferredName     = "preferred_to_be_engaged"
	EngagesName       = "engages"
	WasGreetedName    = "was_greeted"
	FeelsName         = "feels"
	KnowsPathName     = "knows_path"
)

var (
	h  = Human.Variable("h")
	a1 = SocialAgent.Variable("a1")
	a2 = SocialAgent.Variable("a2")
)

// Predicates. A disengaging human is assumed not interested until they seek
// engagement again. can_be_engaged holds while the human stands in the zone
// of interest.
var (
	IsInterested  = pddl.NewPredicate(IsInterestedName, h)
	IsDisengaging = pddl.NewPredicate(IsDisengagingName, h)
	CanBeEngaged  = pddl.NewPredicate(CanBeEngagedName, h)
	Preferred     = pddl.NewPredicate(PreferredName, h)
	Engages       = pddl.NewPredicate(EngagesName, a1, a2)
	WasGreeted    = pddl.NewPredicate(WasGreetedName, h)
	Feels         = pddl.NewPredicate(FeelsName, h, Emotion.Variable("e"))
	KnowsPath     = pddl.NewPredicate(KnowsPathName, a1, PhysicalObject.Variable("from"), PhysicalObject.Variable("to"))
)

// Types returns every declared type.
func Types() []*pddl.Type {
	return []*pddl.Type{PhysicalObject, SocialAgent, Human, Emotion}
}

// Constants returns every declared constant.
func Constants() []pddl.Instance {
	return []pddl.Instance{Self, Happy, Neutral, Sad}
}

// Predicates returns every declared predicate.
func Predicates() []pddl.Predicate {
	return []pddl.Predicate{IsInterested, IsDisengaging, CanBeEngaged, Preferred, Engages, WasGreeted, Feels, KnowsPath}
}
