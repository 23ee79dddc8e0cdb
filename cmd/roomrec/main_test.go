package main

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/rushteam/roomrec/core"
	"github.com/rushteam/roomrec/engine"
	"github.com/rushteam/roomrec/eval"
)

func TestParseTime(t *testing.T) {
	got, err := parseTime("")
	require.NoError(t, err)
	assert.Nil(t, got)

	got, err = parseTime("2026-04-01T10:00:00Z")
	require.NoError(t, err)
	assert.Equal(t, 10, got.Hour())

	_, err = parseTime("tomorrow")
	assert.True(t, core.IsInvalidInput(err))
}

func TestNewApp_MemoryFixture(t *testing.T) {
	path := filepath.Join(t.TempDir(), "roomrec.yaml")
	require.NoError(t, os.WriteFile(path, []byte(`
log:
  level: error
store:
  driver: memory
  fixture: ../../fixtures/demo.yaml
embedding:
  dimension: 64
filter:
  expr: room.capacity >= 1
`), 0o600))
	configPath = path
	t.Cleanup(func() { configPath = "" })

	ctx := context.Background()
	a, err := newApp(ctx)
	require.NoError(t, err)
	defer a.Close()

	res, err := a.engine.Recommend(ctx, engine.Request{UserID: "demo"})
	require.NoError(t, err)
	assert.False(t, res.IsColdStart)
	assert.Equal(t, 7, res.UserEventCount)
	assert.NotEmpty(t, res.Recommendations)

	report, err := (&eval.Evaluator{Recommender: a.engine, Bookings: a.bookings, Events: a.events, Logger: a.log}).Run(ctx, 8)
	require.NoError(t, err)
	assert.NotEmpty(t, report.Users)
}
