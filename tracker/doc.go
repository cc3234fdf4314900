// Package tracker keeps the world consistent with what perception reports
// about the humans around the robot.
//
// Humans are world objects of type human named human_N. A seen human is
// linked to its perception Handle through world.Data under
// world.HandleKey. Touch and speech with nobody in sight create humans
// without a handle, and the next human seen is assumed to be them.
//
// Signals are debounced: losing sight of a human, or a blind interaction,
// schedules a re-evaluation after the relevant timeout of Config, and only
// then is the human disengaged or forgotten. Among engageable humans one is
// elected with the exclusive preferred_to_be_engaged fact.
//
// Every event is processed by a single goroutine and committed to the world
// as one change, so subscribers never see half of an event.
package tracker
