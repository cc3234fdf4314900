package report

import (
	"context"
	"encoding/json"
	"time"

	"github.com/google/uuid"

	"github.com/hupe1980/worldloop/pddl"
	"github.com/hupe1980/worldloop/tracker"
	"github.com/hupe1980/worldloop/world"
)

// Report is a JSON-serializable snapshot of the world and of the plan.
type Report struct {
	ID          string                `json:"id"`
	CreatedAt   time.Time             `json:"created_at"`
	Objects     []string              `json:"objects"`
	Facts       []string              `json:"facts"`
	Plan        []pddl.Task           `json:"plan"`
	CurrentTask *pddl.Task            `json:"current_task,omitempty"`
	Humans      []tracker.HumanStatus `json:"humans,omitempty"`
}

// Build snapshots state with the plan and the task currently running.
func Build(state world.State, plan []pddl.Task, current *pddl.Task) Report {
	r := Report{
		ID:        uuid.NewString(),
		CreatedAt: time.Now().UTC(),
		Objects:   make([]string, 0, len(state.Objects())),
		Facts:     make([]string, 0, len(state.Facts())),
		Plan:      append([]pddl.Task{}, plan...),
	}
	for _, o := range state.Objects() {
		r.Objects = append(r.Objects, o.Declaration())
	}
	for _, f := range state.Facts() {
		r.Facts = append(r.Facts, f.String())
	}
	if current != nil {
		t := *current
		r.CurrentTask = &t
	}
	return r
}

// Store persists reports. Implementations must be safe for concurrent use.
type Store interface {
	Save(ctx context.Context, r Report) error
	Get(ctx context.Context, id string) (Report, error)
	// List returns report ids, oldest first.
	List(ctx context.Context) ([]string, error)
	Delete(ctx context.Context, id string) error
}

// Encode renders r as indented JSON.
func Encode(r Report) ([]byte, error) {
	return json.MarshalIndent(r, "", "  ")
}

// Decode parses a report produced by Encode.
func Decode(data []byte) (Report, error) {
	var r Report
	err := json.Unmarshal(data, &r)
	return r, err
}
