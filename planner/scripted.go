package planner

import (
	"context"
	"sync"

	"github.com/hupe1980/worldloop/pddl"
)

// Step is one scripted planner answer.
type Step struct {
	Tasks []pddl.Task
	Err   error
	// Func, when set, computes the answer from the problem text.
	Func func(problem string) ([]pddl.Task, error)
	// Gate, when set, is waited on before answering.
	Gate <-chan struct{}
}

// Problem records one submitted problem.
type Problem struct {
	Domain  string
	Problem string
}

// Scripted answers with queued steps in order. The last step repeats once the
// queue is down to it; an empty script answers with an empty plan.
type Scripted struct {
	mu       sync.Mutex
	steps    []Step
	problems []Problem
}

// NewScripted creates a planner replaying steps.
func NewScripted(steps ...Step) *Scripted {
	return &Scripted{steps: steps}
}

// Returning is a step answering tasks.
func Returning(tasks ...pddl.Task) Step {
	if tasks == nil {
		tasks = []pddl.Task{}
	}
	return Step{Tasks: tasks}
}

// Failing is a step answering err.
func Failing(err error) Step { return Step{Err: err} }

// Push appends steps to the script.
func (s *Scripted) Push(steps ...Step) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.steps = append(s.steps, steps...)
}

// Calls returns the number of Plan calls so far.
func (s *Scripted) Calls() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.problems)
}

// Problems returns the submitted problems in order.
func (s *Scripted) Problems() []Problem {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]Problem(nil), s.problems...)
}

func (s *Scripted) next(domain, problem string) Step {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.problems = append(s.problems, Problem{Domain: domain, Problem: problem})
	if len(s.steps) == 0 {
		return Returning()
	}
	step := s.steps[0]
	if len(s.steps) > 1 {
		s.steps = s.steps[1:]
	}
	return step
}

// Plan implements planning.Planner.
func (s *Scripted) Plan(ctx context.Context, domain, problem string) ([]pddl.Task, error) {
	step := s.next(domain, problem)
	if step.Gate != nil {
		select {
		case <-step.Gate:
		case <-ctx.Done():
			return nil, ctx.Err()
		}
	}
	if step.Func != nil {
		return step.Func(problem)
	}
	if step.Err != nil {
		return nil, step.Err
	}
	return append([]pddl.Task(nil), step.Tasks...), nil
}
