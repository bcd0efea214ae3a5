package cli

import (
	"context"
	"encoding/json"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/roach88/replacer/internal/ir"
	"github.com/roach88/replacer/internal/store"
)

func seedJournal(t *testing.T) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "passes.db")
	st, err := store.Open(path)
	require.NoError(t, err)
	defer st.Close()

	ctx := context.Background()
	require.NoError(t, st.WritePass(ctx, ir.Pass{
		ID: "pass-1", Document: "notes.txt", Seq: 1, Rules: 2, Digest: "d1",
		Edits: []ir.Edit{
			{Rule: "teh", Offset: 13, Inserted: "the", ErasedLen: 3},
			{Rule: "recieve", Offset: 17, Inserted: "receive", ErasedLen: 7},
		},
	}))
	require.NoError(t, st.WritePass(ctx, ir.Pass{
		ID: "pass-2", Document: "todo.txt", Seq: 2, Rules: 2, Digest: "d2",
		Edits: []ir.Edit{{Rule: "recieve", Offset: 0, Inserted: "receive", ErasedLen: 7}},
	}))
	return path
}

func TestTrace_Text(t *testing.T) {
	db := seedJournal(t)

	out, _, err := execute(NewTraceCommand(&RootOptions{Format: "text"}), "--db", db)
	require.NoError(t, err)
	assert.Contains(t, out, "[1] pass-1  notes.txt  rules=2 edits=2")
	assert.Contains(t, out, "[2] pass-2  todo.txt  rules=2 edits=1")
	assert.Contains(t, out, `+"receive"`)
	assert.Contains(t, out, "2 pass(es), 3 edit(s) across 2 document(s)")
}

func TestTrace_JSON(t *testing.T) {
	db := seedJournal(t)

	out, _, err := execute(NewTraceCommand(&RootOptions{Format: "json"}), "--db", db)
	require.NoError(t, err)

	var resp struct {
		Status string      `json:"status"`
		Data   TraceResult `json:"data"`
	}
	require.NoError(t, json.Unmarshal([]byte(out), &resp))
	assert.Equal(t, "ok", resp.Status)
	require.Len(t, resp.Data.Passes, 2)
	assert.Equal(t, "pass-1", resp.Data.Passes[0].ID)
	assert.Equal(t, 3, resp.Data.Stats.Edits)
	assert.Equal(t, map[string]int{"teh": 1, "recieve": 2}, resp.Data.Stats.ByRule)
}

func TestTrace_DocumentFilter(t *testing.T) {
	db := seedJournal(t)

	out, _, err := execute(NewTraceCommand(&RootOptions{Format: "text"}), "--db", db, "--document", "todo.txt")
	require.NoError(t, err)
	assert.NotContains(t, out, "pass-1")
	assert.Contains(t, out, "1 pass(es), 1 edit(s) across 1 document(s)")
}

func TestTrace_RuleFilter(t *testing.T) {
	db := seedJournal(t)

	out, _, err := execute(NewTraceCommand(&RootOptions{Format: "text"}), "--db", db, "--rule", "teh")
	require.NoError(t, err)
	assert.Contains(t, out, "[1] pass-1  notes.txt  rules=2 edits=1")
	assert.NotContains(t, out, "pass-2")
}

func TestTrace_Empty(t *testing.T) {
	path := filepath.Join(t.TempDir(), "empty.db")
	st, err := store.Open(path)
	require.NoError(t, err)
	require.NoError(t, st.Close())

	out, _, err := execute(NewTraceCommand(&RootOptions{Format: "text"}), "--db", path)
	require.NoError(t, err)
	assert.Contains(t, out, "No passes recorded.")
}

func TestTrace_MissingDatabase(t *testing.T) {
	_, _, err := execute(NewTraceCommand(&RootOptions{Format: "text"}), "--db", filepath.Join(t.TempDir(), "nope.db"))
	require.Error(t, err)
	assert.Equal(t, ExitCommandError, GetExitCode(err))
}

func TestTrace_RequiresDB(t *testing.T) {
	_, _, err := execute(NewTraceCommand(&RootOptions{Format: "text"}))
	require.Error(t, err)
}

func TestBuildTrace_DropsPassesWithoutMatchingEdits(t *testing.T) {
	passes := []ir.Pass{
		{ID: "a", Document: "d", Seq: 1, Edits: []ir.Edit{{Rule: "x"}}},
		{ID: "b", Document: "d", Seq: 2, Edits: []ir.Edit{{Rule: "y"}, {Rule: "x"}}},
	}

	result := buildTrace(passes, "", "y")
	require.Len(t, result.Passes, 1)
	assert.Equal(t, "b", result.Passes[0].ID)
	assert.Len(t, result.Passes[0].Edits, 1)
	assert.Equal(t, 1, result.Stats.Documents)
	assert.Len(t, passes[1].Edits, 2, "input passes are not modified")
}
