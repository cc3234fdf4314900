package config

import (
	"fmt"
	"io"

	anthropicsdk "github.com/anthropics/anthropic-sdk-go"

	"github.com/hupe1980/worldloop/logging"
	"github.com/hupe1980/worldloop/model"
	"github.com/hupe1980/worldloop/model/anthropic"
	"github.com/hupe1980/worldloop/model/openai"
	"github.com/hupe1980/worldloop/pddl"
	"github.com/hupe1980/worldloop/planner"
	"github.com/hupe1980/worldloop/planning"
	"github.com/hupe1980/worldloop/report"
	"github.com/hupe1980/worldloop/report/sqlite"
)

// NewLogger builds the configured logger. The zap format returns a
// *logging.ZapAdapter which should be synced before exit.
func (c LoggingConfig) NewLogger(out io.Writer) (logging.Logger, error) {
	level := logging.ParseLevel(c.Level)
	switch c.Format {
	case "zap":
		return logging.NewZapProduction(level)
	case "", "text", "json":
		return logging.NewLogger(&logging.LoggerConfig{
			Level:     level,
			Format:    c.Format,
			Output:    out,
			Component: "worldloop",
		}), nil
	default:
		return nil, fmt.Errorf("invalid log format: %s (valid: [text json zap])", c.Format)
	}
}

// NewModel builds the language model of an LLM provider.
func (c PlannerConfig) NewModel() (model.Model, error) {
	switch c.Provider {
	case ProviderAnthropic:
		return anthropic.NewModel(func(o *anthropic.Options) {
			if c.Model != "" {
				o.Model = anthropicsdk.Model(c.Model)
			}
			o.Temperature = c.Temperature
			if c.MaxTokens > 0 {
				o.MaxTokens = c.MaxTokens
			}
			o.APIKey = c.APIKey
		}), nil
	case ProviderOpenAI:
		return openai.NewModel(func(o *openai.Options) {
			if c.Model != "" {
				o.Model = c.Model
			}
			o.Temperature = c.Temperature
			if c.MaxTokens > 0 {
				o.MaxCompletionTokens = c.MaxTokens
			}
			o.APIKey = c.APIKey
		}), nil
	default:
		return nil, fmt.Errorf("provider %s has no model", c.Provider)
	}
}

// NewPlanner builds the configured planner.
func (c PlannerConfig) NewPlanner(logger logging.Logger) (planning.Planner, error) {
	if c.Provider == ProviderScripted {
		tasks, err := pddl.ParsePlan(c.Script)
		if err != nil {
			return nil, fmt.Errorf("invalid planner script: %w", err)
		}
		return planner.NewScripted(planner.Returning(tasks...)), nil
	}

	m, err := c.NewModel()
	if err != nil {
		return nil, err
	}
	return planner.NewLLM(m, func(o *planner.LLMOptions) {
		o.MaxCalls = c.MaxCalls
		o.Stream = c.Stream
		o.Logger = logger
	})
}

// NewStore opens the configured report store. The returned closer releases
// it.
func (c ReportConfig) NewStore() (report.Store, io.Closer, error) {
	switch c.Store {
	case StoreSQLite:
		s, err := sqlite.Open(c.Path)
		if err != nil {
			return nil, nil, err
		}
		return s, s, nil
	case StoreMemory, "":
		return report.NewInMemoryStore(), nopCloser{}, nil
	default:
		return nil, nil, fmt.Errorf("invalid report store: %s", c.Store)
	}
}

type nopCloser struct{}

func (nopCloser) Close() error { return nil }
