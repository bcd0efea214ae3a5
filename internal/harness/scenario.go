package harness

import (
	"bytes"
	"fmt"
	"os"
	"path/filepath"

	"gopkg.in/yaml.v3"

	"github.com/roach88/replacer/internal/rules"
)

// Scenario defines one replacer run.
type Scenario struct {
	// Name uniquely identifies this scenario and names its golden file.
	Name string `yaml:"name"`

	// Description explains what this scenario validates.
	Description string `yaml:"description"`

	// Rules is the initial rule table.
	Rules RuleSource `yaml:"rules"`

	// Marker overrides the enabling marker. Nil keeps the default; an
	// empty string enables every document.
	Marker *string `yaml:"marker,omitempty"`

	// UserName overrides the virtual participant's name.
	UserName string `yaml:"user_name,omitempty"`

	// Document is the initial content.
	Document string `yaml:"document"`

	// SyncJoins completes join requests inside the host call.
	SyncJoins bool `yaml:"sync_joins,omitempty"`

	Steps      []Step      `yaml:"steps"`
	Assertions []Assertion `yaml:"assertions"`

	// dir resolves relative rule files.
	dir string
}

// RuleSource is a rule table given inline or by file.
type RuleSource struct {
	Format  string `yaml:"format,omitempty"`
	Content string `yaml:"content,omitempty"`
	File    string `yaml:"file,omitempty"`
}

// Step is one action. Exactly one field is set.
type Step struct {
	Join         string      `yaml:"join,omitempty"`
	LocalJoin    string      `yaml:"local_join,omitempty"`
	Leave        string      `yaml:"leave,omitempty"`
	Insert       *InsertStep `yaml:"insert,omitempty"`
	Erase        *EraseStep  `yaml:"erase,omitempty"`
	Run          bool        `yaml:"run,omitempty"`
	FailNextJoin string      `yaml:"fail_next_join,omitempty"`
	ReloadRules  *RuleSource `yaml:"reload_rules,omitempty"`
	Detach       bool        `yaml:"detach,omitempty"`
}

// InsertStep types text as a participant. A nil Offset appends.
type InsertStep struct {
	User   string `yaml:"user"`
	Offset *int   `yaml:"offset,omitempty"`
	Text   string `yaml:"text"`
}

// EraseStep deletes text as a participant.
type EraseStep struct {
	User   string `yaml:"user"`
	Offset int    `yaml:"offset"`
	Length int    `yaml:"length"`
}

// Kind names the step's action.
func (s Step) Kind() string {
	switch {
	case s.Join != "":
		return StepJoin
	case s.LocalJoin != "":
		return StepLocalJoin
	case s.Leave != "":
		return StepLeave
	case s.Insert != nil:
		return StepInsert
	case s.Erase != nil:
		return StepErase
	case s.Run:
		return StepRun
	case s.FailNextJoin != "":
		return StepFailNextJoin
	case s.ReloadRules != nil:
		return StepReloadRules
	case s.Detach:
		return StepDetach
	default:
		return ""
	}
}

func (s Step) actions() int {
	n := 0
	for _, set := range []bool{
		s.Join != "", s.LocalJoin != "", s.Leave != "", s.Insert != nil, s.Erase != nil,
		s.Run, s.FailNextJoin != "", s.ReloadRules != nil, s.Detach,
	} {
		if set {
			n++
		}
	}
	return n
}

// Step kinds.
const (
	StepJoin         = "join"
	StepLocalJoin    = "local_join"
	StepLeave        = "leave"
	StepInsert       = "insert"
	StepErase        = "erase"
	StepRun          = "run"
	StepFailNextJoin = "fail_next_join"
	StepReloadRules  = "reload_rules"
	StepDetach       = "detach"
)

// Assertion validates the outcome of a run.
type Assertion struct {
	// Type is one of the Assert* constants.
	Type string `yaml:"type"`

	Text    string `yaml:"text,omitempty"`    // final_text
	State   string `yaml:"state,omitempty"`   // state
	Enabled *bool  `yaml:"enabled,omitempty"` // enabled
	Message string `yaml:"message,omitempty"` // log_count
	Rule    string `yaml:"rule,omitempty"`    // edit_rule

	// Count is the expected number for the *_count types. For edit_rule,
	// zero means at least one.
	Count int `yaml:"count"`
}

// Assertion type constants.
const (
	AssertFinalText = "final_text"
	AssertState     = "state"
	AssertEnabled   = "enabled"
	AssertPassCount = "pass_count"
	AssertEditCount = "edit_count"
	AssertJoinCount = "join_count"
	AssertLogCount  = "log_count"
	AssertEditRule  = "edit_rule"
)

// LoadScenario reads and parses a scenario YAML file.
// Returns an error if the file doesn't exist, is malformed,
// contains unknown fields (typos), or is missing required fields.
func LoadScenario(path string) (*Scenario, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read scenario file: %w", err)
	}

	// Strict field validation catches typos like "assertion:" vs "assertions:"
	var scenario Scenario
	decoder := yaml.NewDecoder(bytes.NewReader(data))
	decoder.KnownFields(true)
	if err := decoder.Decode(&scenario); err != nil {
		return nil, fmt.Errorf("failed to parse YAML: %w", err)
	}
	scenario.dir = filepath.Dir(path)

	if err := validateScenario(&scenario); err != nil {
		return nil, fmt.Errorf("invalid scenario: %w", err)
	}
	return &scenario, nil
}

// LoadScenarios loads every *.yaml and *.yml file in dir, in name order.
func LoadScenarios(dir string) ([]*Scenario, error) {
	var paths []string
	for _, pattern := range []string{"*.yaml", "*.yml"} {
		matches, err := filepath.Glob(filepath.Join(dir, pattern))
		if err != nil {
			return nil, err
		}
		paths = append(paths, matches...)
	}
	if len(paths) == 0 {
		return nil, fmt.Errorf("no scenario files in %s", dir)
	}

	scenarios := make([]*Scenario, 0, len(paths))
	for _, p := range paths {
		s, err := LoadScenario(p)
		if err != nil {
			return nil, fmt.Errorf("%s: %w", filepath.Base(p), err)
		}
		scenarios = append(scenarios, s)
	}
	return scenarios, nil
}

// table loads a rule source for s.
func (s *Scenario) table(src RuleSource) (*rules.Table, error) {
	if src.File != "" {
		path := src.File
		if !filepath.IsAbs(path) && s.dir != "" {
			path = filepath.Join(s.dir, path)
		}
		return rules.Load(path, src.Format)
	}
	name := s.Name + ".rules"
	format := src.Format
	if format == "" {
		format = rules.FormatKeyFile
	}
	return rules.LoadBytes(name, []byte(src.Content), format)
}

// validateScenario checks that required fields are present and valid.
func validateScenario(s *Scenario) error {
	if s.Name == "" {
		return fmt.Errorf("name is required")
	}
	if s.Description == "" {
		return fmt.Errorf("description is required")
	}
	if err := validateRuleSource("rules", s.Rules); err != nil {
		return err
	}
	if len(s.Assertions) == 0 {
		return fmt.Errorf("assertions list is required and must be non-empty")
	}

	for i, step := range s.Steps {
		if err := validateStep(i, step); err != nil {
			return err
		}
	}
	for i, a := range s.Assertions {
		if err := validateAssertion(i, &a); err != nil {
			return err
		}
	}
	return nil
}

func validateRuleSource(field string, src RuleSource) error {
	if src.File == "" && src.Content == "" {
		return fmt.Errorf("%s: file or content is required", field)
	}
	if src.File != "" && src.Content != "" {
		return fmt.Errorf("%s: file and content are mutually exclusive", field)
	}
	return nil
}

func validateStep(i int, step Step) error {
	switch step.actions() {
	case 0:
		return fmt.Errorf("steps[%d]: no action", i)
	case 1:
	default:
		return fmt.Errorf("steps[%d]: exactly one action is allowed", i)
	}

	switch {
	case step.Insert != nil:
		if step.Insert.User == "" {
			return fmt.Errorf("steps[%d]: insert.user is required", i)
		}
		if step.Insert.Text == "" {
			return fmt.Errorf("steps[%d]: insert.text is required", i)
		}
	case step.Erase != nil:
		if step.Erase.User == "" {
			return fmt.Errorf("steps[%d]: erase.user is required", i)
		}
		if step.Erase.Length <= 0 {
			return fmt.Errorf("steps[%d]: erase.length must be positive", i)
		}
	case step.ReloadRules != nil:
		return validateRuleSource(fmt.Sprintf("steps[%d].reload_rules", i), *step.ReloadRules)
	}
	return nil
}

// validateAssertion validates a single assertion based on its type.
func validateAssertion(index int, a *Assertion) error {
	if a.Type == "" {
		return fmt.Errorf("assertions[%d]: type is required", index)
	}

	switch a.Type {
	case AssertFinalText:
	case AssertState:
		switch a.State {
		case "detached", "awaiting_join", "attached":
		default:
			return fmt.Errorf("assertions[%d]: unknown state %q", index, a.State)
		}
	case AssertEnabled:
		if a.Enabled == nil {
			return fmt.Errorf("assertions[%d]: enabled is required", index)
		}
	case AssertPassCount, AssertEditCount, AssertJoinCount:
		if a.Count < 0 {
			return fmt.Errorf("assertions[%d]: count must be non-negative for %s", index, a.Type)
		}
	case AssertLogCount:
		if a.Message == "" {
			return fmt.Errorf("assertions[%d]: message is required for log_count", index)
		}
	case AssertEditRule:
		if a.Rule == "" {
			return fmt.Errorf("assertions[%d]: rule is required for edit_rule", index)
		}
	default:
		return fmt.Errorf("assertions[%d]: unknown assertion type %q", index, a.Type)
	}
	return nil
}
