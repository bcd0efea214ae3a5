package testutil

import (
	"log/slog"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSequentialPassIDs(t *testing.T) {
	gen := NewSequentialPassIDs("")
	assert.Equal(t, "pass-0001", gen.Generate())
	assert.Equal(t, "pass-0002", gen.Generate())

	custom := NewSequentialPassIDs("scn")
	assert.Equal(t, "scn-0001", custom.Generate())
}

func TestStepCounter(t *testing.T) {
	c := NewStepCounter()
	assert.Equal(t, int64(0), c.Current())
	assert.Equal(t, int64(1), c.Next())
	assert.Equal(t, int64(2), c.Next())

	c.Reset()
	assert.Equal(t, int64(1), c.Next())
}

func TestStepCounter_Concurrent(t *testing.T) {
	c := NewStepCounter()
	var wg sync.WaitGroup
	for i := 0; i < 50; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			c.Next()
		}()
	}
	wg.Wait()
	assert.Equal(t, int64(50), c.Current())
}

func TestLogRecorder(t *testing.T) {
	rec := NewLogRecorder(slog.LevelInfo)
	logger := rec.Logger().With("document", "notes")

	logger.Debug("hidden")
	logger.Info("shown", "n", 1)
	logger.Warn("shown")

	records := rec.Records()
	require.Len(t, records, 2)
	assert.Equal(t, "shown", records[0].Message)
	assert.Equal(t, "notes", records[0].Attrs["document"])
	assert.Equal(t, int64(1), records[0].Attrs["n"])
	assert.Equal(t, slog.LevelWarn, records[1].Level)

	assert.Equal(t, 2, rec.Count("shown"))
	assert.Equal(t, []string{"shown", "shown"}, rec.Messages())

	rec.Reset()
	assert.Empty(t, rec.Records())
}
