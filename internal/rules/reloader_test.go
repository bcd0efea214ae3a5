package rules

import (
	"io"
	"log/slog"
	"os"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func quietLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func TestStatic(t *testing.T) {
	table, err := FromRules("inline", []Rule{{Pattern: "a", Replacement: "b"}})
	require.NoError(t, err)
	assert.Same(t, table, Static(table).Table())
}

func TestNewReloader_InitialLoadMustSucceed(t *testing.T) {
	path := writeFile(t, t.TempDir(), "rules.ini", "[replacer]\na=ba\n")
	_, err := NewReloader(path, "", WithLogger(quietLogger()))
	assert.Equal(t, ErrCodeSelfContained, CodeOf(err))
}

func TestReloader_Reload(t *testing.T) {
	path := writeFile(t, t.TempDir(), "rules.ini", "[replacer]\nteh=the\n")
	r, err := NewReloader(path, "", WithLogger(quietLogger()))
	require.NoError(t, err)
	defer r.Close()

	first := r.Table()
	require.Equal(t, 1, first.Len())

	var notified atomic.Pointer[Table]
	r.OnChange(func(t *Table) { notified.Store(t) })

	require.NoError(t, os.WriteFile(path, []byte("[replacer]\nteh=the\nadn=and\n"), 0o644))
	require.NoError(t, r.Reload())

	assert.Equal(t, 2, r.Table().Len())
	assert.Same(t, r.Table(), notified.Load())
	assert.Equal(t, 1, first.Len(), "previous table is immutable")
}

func TestReloader_RejectedReloadKeepsPreviousTable(t *testing.T) {
	path := writeFile(t, t.TempDir(), "rules.ini", "[replacer]\nteh=the\n")
	r, err := NewReloader(path, "", WithLogger(quietLogger()))
	require.NoError(t, err)
	defer r.Close()

	called := false
	r.OnChange(func(*Table) { called = true })

	require.NoError(t, os.WriteFile(path, []byte("[replacer]\nab=x\nabc=y\n"), 0o644))
	err = r.Reload()
	require.Error(t, err)
	assert.Equal(t, ErrCodePrefixCollision, CodeOf(err))

	assert.Equal(t, "teh", r.Table().Rule(0).Pattern)
	assert.False(t, called)
}

func TestReloader_Watch(t *testing.T) {
	path := writeFile(t, t.TempDir(), "rules.ini", "[replacer]\nteh=the\n")
	r, err := NewReloader(path, "",
		WithLogger(quietLogger()),
		WithDebounce(10*time.Millisecond),
	)
	require.NoError(t, err)
	defer r.Close()

	require.NoError(t, r.Watch())

	require.NoError(t, os.WriteFile(path, []byte("[replacer]\nteh=the\nadn=and\n"), 0o644))

	assert.Eventually(t, func() bool {
		return r.Table().Len() == 2
	}, 2*time.Second, 10*time.Millisecond)
}

func TestReloader_WatchReportsRejectedReload(t *testing.T) {
	path := writeFile(t, t.TempDir(), "rules.ini", "[replacer]\nteh=the\n")
	r, err := NewReloader(path, "",
		WithLogger(quietLogger()),
		WithDebounce(10*time.Millisecond),
	)
	require.NoError(t, err)
	defer r.Close()

	require.NoError(t, r.Watch())
	require.NoError(t, os.WriteFile(path, []byte("[replacer]\nteh=\n"), 0o644))

	select {
	case err := <-r.Errors():
		// The truncate and the write may surface as separate events
		assert.True(t, IsConfigError(err), err.Error())
	case <-time.After(2 * time.Second):
		t.Fatal("expected reload error")
	}
	assert.Equal(t, 1, r.Table().Len())
}
