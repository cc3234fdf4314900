package tracker

import (
	"context"
	"time"

	"github.com/hupe1980/worldloop/core"
)

// Intention is the engagement intention perceived for a human.
type Intention int

const (
	IntentionUnknown Intention = iota
	IntentionNotInterested
	IntentionInterested
	IntentionSeekingEngagement
)

func (i Intention) String() string {
	switch i {
	case IntentionNotInterested:
		return "not_interested"
	case IntentionInterested:
		return "interested"
	case IntentionSeekingEngagement:
		return "seeking_engagement"
	default:
		return "unknown"
	}
}

// Position is a head position in the robot frame, x pointing forward.
type Position struct {
	X, Y float64
	At   time.Time
}

// Handle is a human as reported by perception. Handles are compared by ID.
type Handle interface {
	ID() string
	EngagementIntention() core.Readable[Intention]
	HeadPosition(ctx context.Context) (Position, error)
}

// Perception is the source of human-related signals.
type Perception interface {
	// Humans lists the humans currently seen.
	Humans() core.Readable[[]Handle]
	// Touched fires when someone touches the robot.
	Touched() core.Observer[struct{}]
	// SpeechHeard fires when speech is heard. It may be nil.
	SpeechHeard() core.Observer[struct{}]
}
