package tracker

import (
	"math"
	"time"
)

// Config holds the debouncing timeouts and the zone of interest.
type Config struct {
	// VisibleTimeout is how long an unseen human is still considered present.
	VisibleTimeout time.Duration `yaml:"visible_timeout"`
	// TouchTimeout keeps a never-seen toucher engaged, TouchOnceSeenTimeout
	// a toucher who was seen before. Speech timeouts work the same way.
	TouchTimeout          time.Duration `yaml:"touch_timeout"`
	TouchOnceSeenTimeout  time.Duration `yaml:"touch_once_seen_timeout"`
	SpeechTimeout         time.Duration `yaml:"speech_timeout"`
	SpeechOnceSeenTimeout time.Duration `yaml:"speech_once_seen_timeout"`
	// InPlanTimeout delays forgetting humans the plan refers to.
	InPlanTimeout time.Duration `yaml:"in_plan_timeout"`

	// ZoneRadius in meters and ZoneAngle in radians bound the zone in
	// which humans can be engaged.
	ZoneRadius       float64       `yaml:"zone_radius"`
	ZoneAngle        float64       `yaml:"zone_angle"`
	ZonePollInterval time.Duration `yaml:"zone_poll_interval"`
}

// DefaultConfig returns the default timeouts and zone.
func DefaultConfig() Config {
	return Config{
		VisibleTimeout:        time.Second,
		TouchTimeout:          30 * time.Second,
		TouchOnceSeenTimeout:  5 * time.Second,
		SpeechTimeout:         30 * time.Second,
		SpeechOnceSeenTimeout: 5 * time.Second,
		InPlanTimeout:         0,
		ZoneRadius:            2.0,
		ZoneAngle:             math.Pi / 4,
		ZonePollInterval:      250 * time.Millisecond,
	}
}

// InZone reports the distance of p to the robot and whether p lies in the
// arc of the given radius and half-angle in front of the robot.
func InZone(p Position, radius, angle float64) (float64, bool) {
	d := math.Hypot(p.X, p.Y)
	if d == 0 {
		return 0, true
	}
	return d, d < radius && math.Acos(p.X/d) < angle
}
