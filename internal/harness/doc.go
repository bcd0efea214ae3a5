// Package harness runs replacer scenarios against an in-memory host.
//
// A scenario names a rule table, an initial document and a list of steps
// that model what participants do: join, leave, type, erase. After the
// steps run, assertions check the final document and the engine's state.
//
// # Scenario Format
//
// Scenarios are YAML files with the following structure:
//
//	name: scenario_name
//	description: "What this scenario validates"
//	rules:
//	  format: keyfile
//	  content: |
//	    [replacer]
//	    teh=the
//	document: "#replacer on\n"
//	steps:
//	  - join: alice
//	  - insert: { user: alice, text: "teh cat" }
//	  - run: true
//	assertions:
//	  - type: final_text
//	    text: "#replacer on\nthe cat"
//
// Rules may instead point at a file with rules.file, resolved relative to
// the scenario file.
//
// # Step Types
//
//   - join / local_join: add a remote or server-local participant
//   - leave: mark a participant unavailable
//   - insert / erase: edit the document as a participant
//   - run: drain the host's task loop
//   - fail_next_join: make the host reject the next join request
//   - reload_rules: replace the rule table and refresh the plugin
//   - detach: remove the document from the plugin
//
// The task loop is always drained after the last step.
//
// # Assertion Types
//
//   - final_text: the document content after all steps
//   - state: detached, awaiting_join or attached
//   - enabled: the last marker decision
//   - pass_count / edit_count: journaled passes and their edits
//   - join_count: join requests issued to the host
//   - log_count: occurrences of a log message
//   - edit_rule: journaled edits made by one rule
//
// # Deterministic Testing
//
// Every run uses a fresh in-memory journal, sequential pass IDs and a
// logical clock starting at zero, so the trace of a scenario is identical
// across runs and can be compared against a golden file.
package harness
