package pddl

import (
	"fmt"
	"strings"
)

// Action is a planning operator schema.
type Action struct {
	Name         string
	Parameters   []Instance
	Precondition Expression
	Effect       Expression
}

// Declaration renders the action in domain syntax.
func (a Action) Declaration() string {
	var b strings.Builder
	fmt.Fprintf(&b, "(:action %s\n", a.Name)
	params := make([]string, len(a.Parameters))
	for i, p := range a.Parameters {
		params[i] = p.Declaration()
	}
	fmt.Fprintf(&b, "    :parameters (%s)\n", strings.Join(params, " "))
	if !IsEmpty(a.Precondition) {
		fmt.Fprintf(&b, "    :precondition %s\n", a.Precondition)
	}
	if !IsEmpty(a.Effect) {
		fmt.Fprintf(&b, "    :effect %s\n", a.Effect)
	}
	b.WriteString(")")
	return b.String()
}

// Bind pairs the action parameters with args.
func (a Action) Bind(args []Instance) (Bindings, error) {
	if len(args) != len(a.Parameters) {
		return nil, fmt.Errorf("action %s expects %d arguments, got %d", a.Name, len(a.Parameters), len(args))
	}
	b := make(Bindings, len(args))
	for i, p := range a.Parameters {
		if args[i].Type != nil && p.Type != nil && !args[i].Type.IsSubtypeOf(p.Type) {
			return nil, fmt.Errorf("action %s: argument %s is not a %s", a.Name, args[i].Declaration(), p.TypeName())
		}
		b[p.Key()] = args[i]
	}
	return b, nil
}

// Task is one step of a plan: an action name and the names of its arguments.
type Task struct {
	Action     string   `json:"action" yaml:"action"`
	Parameters []string `json:"parameters" yaml:"parameters"`
}

// NewTask builds a task from instances.
func NewTask(action string, args ...Instance) Task {
	names := make([]string, len(args))
	for i, a := range args {
		names[i] = a.Name
	}
	return Task{Action: action, Parameters: names}
}

func (t Task) String() string {
	if len(t.Parameters) == 0 {
		return "(" + t.Action + ")"
	}
	return "(" + t.Action + " " + strings.Join(t.Parameters, " ") + ")"
}

// Equal compares action and parameters.
func (t Task) Equal(o Task) bool {
	if t.Action != o.Action || len(t.Parameters) != len(o.Parameters) {
		return false
	}
	for i := range t.Parameters {
		if t.Parameters[i] != o.Parameters[i] {
			return false
		}
	}
	return true
}

// Involves reports whether name is one of the task arguments.
func (t Task) Involves(name string) bool {
	for _, p := range t.Parameters {
		if p == name {
			return true
		}
	}
	return false
}

// TasksEqual compares two plans step by step.
func TasksEqual(a, b []Task) bool {
	if len(a) != len(b) {
		return false
	}
	for i := range a {
		if !a[i].Equal(b[i]) {
			return false
		}
	}
	return true
}

// FormatPlan renders one task per line.
func FormatPlan(tasks []Task) string {
	lines := make([]string, len(tasks))
	for i, t := range tasks {
		lines[i] = t.String()
	}
	return strings.Join(lines, "\n")
}
