package planner

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"text/template"

	"github.com/hupe1980/worldloop/core"
	"github.com/hupe1980/worldloop/internal/util"
	"github.com/hupe1980/worldloop/logging"
	"github.com/hupe1980/worldloop/model"
	"github.com/hupe1980/worldloop/pddl"
)

// UnsolvableMarker is the line a model answers with when no plan exists.
const UnsolvableMarker = "; unsolvable"

var (
	// ErrUnsolvable is returned when the model reports that no plan reaches the goal.
	ErrUnsolvable = errors.New("planner: problem is unsolvable")
	// ErrCallLimit is returned once the configured number of model calls is spent.
	ErrCallLimit = errors.New("planner: model call limit reached")
)

// DefaultInstructions is the system prompt of the LLM planner.
const DefaultInstructions = `You are a classical PDDL planner. Given a domain and a problem, output a
sequential plan, one grounded action per line, in the form (action arg1 arg2).
Output nothing else: no numbering, no explanations, no code fences.
If the goal already holds in the initial state, output an empty answer.
If no plan can reach the goal, output exactly: ` + UnsolvableMarker

// DefaultPrompt is the user prompt template. It receives .Domain and .Problem.
const DefaultPrompt = `Domain:
{{ indent 2 .Domain }}

Problem:
{{ indent 2 .Problem }}

Plan:`

// LLMOptions configures an LLM planner.
type LLMOptions struct {
	// Instructions is sent as the system prompt.
	Instructions string
	// Prompt is a text/template rendered with .Domain and .Problem.
	Prompt string
	// MaxCalls bounds the number of model calls. Zero is unlimited.
	MaxCalls int
	// Stream requests streamed generation from the model.
	Stream bool
	// Logger receives request diagnostics.
	Logger logging.Logger
}

// LLM is a Planner backed by a language model. The model answers with plan
// lines which are read with pddl.ParsePlan.
type LLM struct {
	model        model.Model
	instructions string
	prompt       *template.Template
	stream       bool
	limiter      *core.CallLimiter
	logger       logging.Logger
}

// NewLLM creates a planner asking m. It fails when the prompt template does not parse.
func NewLLM(m model.Model, optFns ...func(o *LLMOptions)) (*LLM, error) {
	opts := LLMOptions{
		Instructions: DefaultInstructions,
		Prompt:       DefaultPrompt,
		Logger:       logging.NoOpLogger{},
	}

	for _, fn := range optFns {
		fn(&opts)
	}

	tmpl, err := util.ParseTemplate("plan", opts.Prompt)
	if err != nil {
		return nil, err
	}

	return &LLM{
		model:        m,
		instructions: opts.Instructions,
		prompt:       tmpl,
		stream:       opts.Stream,
		limiter:      core.NewCallLimiter(opts.MaxCalls),
		logger:       core.EnsureLogger(opts.Logger),
	}, nil
}

type promptData struct {
	Domain  string
	Problem string
}

// Plan implements planning.Planner.
func (p *LLM) Plan(ctx context.Context, domain, problem string) ([]pddl.Task, error) {
	if err := p.limiter.Acquire(); err != nil {
		return nil, fmt.Errorf("%w: %w", ErrCallLimit, err)
	}

	prompt, err := util.RenderTemplate(p.prompt, promptData{Domain: domain, Problem: problem})
	if err != nil {
		return nil, fmt.Errorf("render prompt: %w", err)
	}

	info := p.model.Info()
	p.logger.Debug("requesting plan provider=%s model=%s call=%d", info.Provider, info.Name, p.limiter.Granted())

	resp, err := model.Complete(ctx, p.model, model.Request{
		Instructions: p.instructions,
		Messages:     []model.Message{model.UserMessage(prompt)},
		Stream:       p.stream,
	})
	if err != nil {
		return nil, err
	}

	if resp.Usage != nil {
		p.logger.Debug("plan generated model=%s tokens=%d finish=%s", info.Name, resp.Usage.TotalTokens, resp.FinishReason)
	}

	return parseAnswer(resp.Text)
}

// Calls returns how many model calls were made. Calls refused by the limit
// are not counted.
func (p *LLM) Calls() int { return p.limiter.Granted() }

func parseAnswer(text string) ([]pddl.Task, error) {
	for _, line := range strings.Split(text, "\n") {
		if strings.EqualFold(strings.TrimSpace(line), UnsolvableMarker) {
			return nil, ErrUnsolvable
		}
	}
	tasks, err := pddl.ParsePlan(text)
	if err != nil {
		return nil, err
	}
	if tasks == nil {
		tasks = []pddl.Task{}
	}
	return tasks, nil
}
