package config

import (
	"bytes"
	"context"
	"path/filepath"
	"testing"
	"time"

	"github.com/hupe1980/worldloop/logging"
	"github.com/hupe1980/worldloop/pddl"
	"github.com/hupe1980/worldloop/report"
	"github.com/hupe1980/worldloop/world"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDefaultConfig_Validates(t *testing.T) {
	cfg := DefaultConfig()
	require.NoError(t, cfg.Validate())
	assert.Equal(t, time.Second, cfg.Tracker.VisibleTimeout)
	assert.Equal(t, 250*time.Millisecond, cfg.Tracker.ZonePollInterval)
	assert.Equal(t, ProviderScripted, cfg.Planner.Provider)
}

func TestParse_OverridesDefaults(t *testing.T) {
	cfg, err := Parse([]byte(`
tracker:
  visible_timeout: 2s
  zone_radius: 1.5
planning:
  goal: Engageable humans are happy
  timeout: 10s
planner:
  provider: openai
  model: gpt-4o-mini
  api_key: sk-test
report:
  store: sqlite
  path: /tmp/reports.db
`))
	require.NoError(t, err)
	require.NoError(t, cfg.Validate())

	assert.Equal(t, 2*time.Second, cfg.Tracker.VisibleTimeout)
	assert.Equal(t, 30*time.Second, cfg.Tracker.TouchTimeout, "unset keys keep their default")
	assert.InDelta(t, 1.5, cfg.Tracker.ZoneRadius, 1e-9)
	assert.Equal(t, 10*time.Second, cfg.Planning.Timeout)
	assert.Equal(t, "gpt-4o-mini", cfg.Planner.Model)
	assert.Equal(t, StoreSQLite, cfg.Report.Store)
}

func TestParse_Invalid(t *testing.T) {
	_, err := Parse([]byte("tracker: [1, 2"))
	assert.Error(t, err)
}

func TestValidate(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(c *Config)
	}{
		{"unknown provider", func(c *Config) { c.Planner.Provider = "gemini" }},
		{"missing api key", func(c *Config) { c.Planner.Provider = ProviderAnthropic; c.Planner.APIKey = "" }},
		{"unknown goal", func(c *Config) { c.Planning.Goal = "world_peace" }},
		{"unknown store", func(c *Config) { c.Report.Store = "s3" }},
		{"sqlite without path", func(c *Config) { c.Report.Store = StoreSQLite; c.Report.Path = "" }},
		{"empty zone", func(c *Config) { c.Tracker.ZoneRadius = 0 }},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := DefaultConfig()
			tt.mutate(cfg)
			assert.Error(t, cfg.Validate())
		})
	}
}

func TestApplyEnvOverrides(t *testing.T) {
	t.Setenv("ANTHROPIC_API_KEY", "from-env")
	cfg, err := Parse([]byte("planner:\n  provider: anthropic\n"))
	require.NoError(t, err)
	assert.Equal(t, "from-env", cfg.Planner.APIKey)

	cfg, err = Parse([]byte("planner:\n  provider: anthropic\n  api_key: from-file\n"))
	require.NoError(t, err)
	assert.Equal(t, "from-file", cfg.Planner.APIKey)
}

func TestLoad_MissingFileYieldsDefaults(t *testing.T) {
	cfg, err := Load(filepath.Join(t.TempDir(), "absent.yaml"))
	require.NoError(t, err)
	assert.Equal(t, DefaultConfig().Tracker, cfg.Tracker)
}

func TestSaveLoad(t *testing.T) {
	path := filepath.Join(t.TempDir(), "nested", "worldloop.yaml")
	cfg := DefaultConfig()
	cfg.Planning.Goal = "Engageable humans are happy"
	require.NoError(t, cfg.Save(path))

	back, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, cfg.Planning, back.Planning)
	assert.Equal(t, cfg.Tracker, back.Tracker)
}

func TestNewPlanner_Scripted(t *testing.T) {
	p, err := PlannerConfig{Provider: ProviderScripted, Script: "(greet human_1)\n(joke_with human_1)"}.NewPlanner(nil)
	require.NoError(t, err)

	tasks, err := p.Plan(context.Background(), "", "")
	require.NoError(t, err)
	assert.Equal(t, []pddl.Task{
		{Action: "greet", Parameters: []string{"human_1"}},
		{Action: "joke_with", Parameters: []string{"human_1"}},
	}, tasks)

	_, err = PlannerConfig{Provider: ProviderScripted, Script: "greet"}.NewPlanner(nil)
	assert.Error(t, err)
}

func TestNewPlanner_LLM(t *testing.T) {
	for _, provider := range []string{ProviderAnthropic, ProviderOpenAI} {
		p, err := PlannerConfig{Provider: provider, APIKey: "test"}.NewPlanner(nil)
		require.NoError(t, err, provider)
		assert.NotNil(t, p)
	}
}

func TestNewLogger(t *testing.T) {
	var buf bytes.Buffer
	l, err := LoggingConfig{Level: "debug", Format: "json"}.NewLogger(&buf)
	require.NoError(t, err)
	l.Debug("plan found tasks=%d", 2)
	assert.Contains(t, buf.String(), "plan found tasks=2")

	l, err = LoggingConfig{Format: "zap"}.NewLogger(nil)
	require.NoError(t, err)
	assert.IsType(t, &logging.ZapAdapter{}, l)

	_, err = LoggingConfig{Format: "xml"}.NewLogger(nil)
	assert.Error(t, err)
}

func TestNewStore(t *testing.T) {
	ctx := context.Background()
	for _, rc := range []ReportConfig{
		{Store: StoreMemory},
		{Store: StoreSQLite, Path: filepath.Join(t.TempDir(), "reports.db")},
	} {
		s, closer, err := rc.NewStore()
		require.NoError(t, err, rc.Store)

		r := report.Build(world.NewState(), nil, nil)
		require.NoError(t, s.Save(ctx, r))
		ids, err := s.List(ctx)
		require.NoError(t, err)
		assert.Equal(t, []string{r.ID}, ids)
		require.NoError(t, closer.Close())
	}
}
