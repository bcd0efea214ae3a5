package harness

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync/atomic"

	"github.com/roach88/replacer/internal/engine"
	"github.com/roach88/replacer/internal/host"
	"github.com/roach88/replacer/internal/host/memhost"
	"github.com/roach88/replacer/internal/rules"
	"github.com/roach88/replacer/internal/store"
	"github.com/roach88/replacer/internal/testutil"
)

// documentName is the session name every scenario runs under.
const documentName = "scenario"

// tableSource is a rules.Source the harness swaps on reload_rules.
type tableSource struct {
	table atomic.Pointer[rules.Table]
}

func (s *tableSource) Table() *rules.Table { return s.table.Load() }

// Harness executes one scenario against an in-memory host.
type Harness struct {
	scenario  *Scenario
	store     *store.Store
	loop      *memhost.Loop
	host      *memhost.Session
	source    *tableSource
	plugin    *engine.Plugin
	session   *engine.Session
	logs      *testutil.LogRecorder
	counter   *testutil.StepCounter
	result    *Result
	journaled int
}

// Run executes a test scenario and returns the result.
//
// Each scenario runs in a fresh in-memory journal for isolation.
// Deterministic helpers ensure reproducible traces.
//
// Execution flow:
// 1. Load the rule table and start the plugin on a new document
// 2. Execute steps, tracing each one and the passes it caused
// 3. Drain the task loop
// 4. Evaluate assertions
//
// Infrastructure failures (bad rules, invalid step arguments) are returned
// as errors; assertion failures are recorded in the result.
func Run(scenario *Scenario) (*Result, error) {
	st, err := store.Open(":memory:")
	if err != nil {
		return nil, fmt.Errorf("failed to create in-memory journal: %w", err)
	}
	defer st.Close()

	h, err := newHarness(scenario, st)
	if err != nil {
		return nil, err
	}
	defer h.plugin.Close()

	ctx := context.Background()
	for i, step := range scenario.Steps {
		if err := h.execute(step); err != nil {
			return nil, fmt.Errorf("steps[%d] (%s): %w", i, step.Kind(), err)
		}
		if err := h.trace(ctx, step); err != nil {
			return nil, err
		}
	}

	h.loop.RunPending()
	if err := h.collectPasses(ctx); err != nil {
		return nil, err
	}

	h.result.Final = h.final()
	for _, msg := range EvaluateAssertions(h.result, scenario.Assertions, h.logs) {
		h.result.AddError(msg)
	}
	return h.result, nil
}

func newHarness(scenario *Scenario, st *store.Store) (*Harness, error) {
	table, err := scenario.table(scenario.Rules)
	if err != nil {
		return nil, fmt.Errorf("failed to load rules: %w", err)
	}

	h := &Harness{
		scenario: scenario,
		store:    st,
		loop:     memhost.NewLoop(),
		source:   &tableSource{},
		logs:     testutil.NewLogRecorder(slog.LevelDebug),
		counter:  testutil.NewStepCounter(),
		result:   NewResult(),
	}
	h.source.table.Store(table)

	h.host = memhost.NewSession(documentName, scenario.Document, h.loop)
	h.host.SyncJoins = scenario.SyncJoins

	opts := []engine.Option{
		engine.WithLogger(h.logs.Logger()),
		engine.WithJournal(st),
		engine.WithPassIDGenerator(testutil.NewSequentialPassIDs("")),
		engine.WithClock(engine.NewClock()),
	}
	if scenario.Marker != nil {
		opts = append(opts, engine.WithMarker(*scenario.Marker))
	}
	if scenario.UserName != "" {
		opts = append(opts, engine.WithUserName(scenario.UserName))
	}

	h.plugin, err = engine.New(h.source, h.loop, opts...)
	if err != nil {
		return nil, fmt.Errorf("failed to start plugin: %w", err)
	}
	h.session = h.plugin.SessionAdded(h.host)
	return h, nil
}

func (h *Harness) execute(step Step) error {
	users := h.host.Users()

	switch step.Kind() {
	case StepJoin:
		users.Add(step.Join, 0)
	case StepLocalJoin:
		users.Add(step.LocalJoin, host.FlagLocal)
	case StepLeave:
		u, err := h.participant(step.Leave)
		if err != nil {
			return err
		}
		return users.SetStatus(u.ID, host.StatusUnavailable)
	case StepInsert:
		u, err := h.participant(step.Insert.User)
		if err != nil {
			return err
		}
		offset := h.host.Buffer().Length()
		if step.Insert.Offset != nil {
			offset = *step.Insert.Offset
		}
		return h.host.Buffer().Insert(offset, step.Insert.Text, u)
	case StepErase:
		u, err := h.participant(step.Erase.User)
		if err != nil {
			return err
		}
		return h.host.Buffer().Erase(step.Erase.Offset, step.Erase.Length, u)
	case StepRun:
		h.loop.RunPending()
	case StepFailNextJoin:
		h.host.FailNextJoin(errors.New(step.FailNextJoin))
	case StepReloadRules:
		table, err := h.scenario.table(*step.ReloadRules)
		if err != nil {
			return fmt.Errorf("reload rules: %w", err)
		}
		h.source.table.Store(table)
		h.plugin.Refresh()
	case StepDetach:
		h.plugin.SessionRemoved(h.session)
	default:
		return errors.New("no action")
	}
	return nil
}

// participant finds an available participant by name.
func (h *Harness) participant(name string) (host.User, error) {
	for _, u := range h.host.Users().Users() {
		if u.Name == name && u.Status != host.StatusUnavailable {
			return u, nil
		}
	}
	return host.User{}, fmt.Errorf("no available participant %q", name)
}

func (h *Harness) trace(ctx context.Context, step Step) error {
	f := h.final()
	h.result.Trace = append(h.result.Trace, TraceEvent{
		Type:    EventStep,
		Seq:     h.counter.Next(),
		Step:    step.Kind(),
		Args:    stepArgs(step),
		Text:    f.Text,
		State:   f.State,
		Enabled: f.Enabled,
	})
	return h.collectPasses(ctx)
}

// collectPasses appends the passes journaled since the last call.
func (h *Harness) collectPasses(ctx context.Context) error {
	passes, err := h.store.ReadPasses(ctx, documentName)
	if err != nil {
		return fmt.Errorf("failed to read journal: %w", err)
	}
	for i := h.journaled; i < len(passes); i++ {
		p := passes[i]
		h.result.Trace = append(h.result.Trace, TraceEvent{
			Type: EventPass,
			Seq:  h.counter.Next(),
			Pass: &p,
		})
	}
	h.journaled = len(passes)
	h.result.Passes = passes
	return nil
}

func (h *Harness) final() Final {
	return Final{
		Text:    h.host.Buffer().Text(),
		State:   h.session.State().String(),
		Enabled: h.session.Enabled(),
		Joins:   h.host.Joins(),
	}
}

func stepArgs(step Step) map[string]any {
	switch step.Kind() {
	case StepJoin:
		return map[string]any{"user": step.Join}
	case StepLocalJoin:
		return map[string]any{"user": step.LocalJoin}
	case StepLeave:
		return map[string]any{"user": step.Leave}
	case StepInsert:
		args := map[string]any{"user": step.Insert.User, "text": step.Insert.Text}
		if step.Insert.Offset != nil {
			args["offset"] = *step.Insert.Offset
		}
		return args
	case StepErase:
		return map[string]any{
			"user":   step.Erase.User,
			"offset": step.Erase.Offset,
			"length": step.Erase.Length,
		}
	case StepFailNextJoin:
		return map[string]any{"error": step.FailNextJoin}
	case StepReloadRules:
		if step.ReloadRules.File != "" {
			return map[string]any{"file": step.ReloadRules.File}
		}
		return map[string]any{"content": step.ReloadRules.Content}
	default:
		return nil
	}
}

// canonicalMap converts an event for ir.MarshalCanonical.
func (e TraceEvent) canonicalMap() map[string]any {
	m := map[string]any{
		"type": e.Type,
		"seq":  e.Seq,
	}
	if e.Type == EventPass && e.Pass != nil {
		m["pass"] = *e.Pass
		return m
	}
	m["step"] = e.Step
	m["text"] = e.Text
	m["state"] = e.State
	m["enabled"] = e.Enabled
	if len(e.Args) > 0 {
		m["args"] = e.Args
	}
	return m
}
