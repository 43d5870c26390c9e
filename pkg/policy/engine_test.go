package policy

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/polisai/statvar/pkg/domain"
)

const strengthFirst = `package variations

allow if {
	input.slots[0] >= input.slots[1]
	input.total <= 20
}
`

func TestEngine_Allow(t *testing.T) {
	ctx := context.Background()
	engine, err := NewEngine(ctx, Options{Modules: map[string]string{"build.rego": strengthFirst}})
	require.NoError(t, err)
	assert.Equal(t, "variations/allow", engine.Entrypoint())

	ok, err := engine.Allow(ctx, domain.Stats{5, 3, 0, 0, 0})
	require.NoError(t, err)
	assert.True(t, ok)

	// Undefined decisions deny.
	ok, err = engine.Allow(ctx, domain.Stats{1, 3, 0, 0, 0})
	require.NoError(t, err)
	assert.False(t, ok)

	ok, err = engine.Allow(ctx, domain.Stats{20, 3, 0, 0, 0})
	require.NoError(t, err)
	assert.False(t, ok)
}

func TestEngine_ApplyKeepsOrder(t *testing.T) {
	ctx := context.Background()
	engine, err := NewEngine(ctx, Options{
		Entrypoint: "/variations/allow/",
		Modules:    map[string]string{"build.rego": strengthFirst},
	})
	require.NoError(t, err)

	in := []domain.Stats{
		{0, 1, 0, 0, 0},
		{1, 0, 0, 0, 0},
		{1, 1, 0, 0, 0},
		{2, 3, 0, 0, 0},
		{3, 2, 0, 0, 0},
	}
	out, err := engine.Apply(ctx, in)
	require.NoError(t, err)
	assert.Equal(t, []domain.Stats{{1, 0, 0, 0, 0}, {1, 1, 0, 0, 0}, {3, 2, 0, 0, 0}}, out)
}

func TestEngine_NonBooleanDecision(t *testing.T) {
	ctx := context.Background()
	engine, err := NewEngine(ctx, Options{
		Entrypoint: "variations/score",
		Modules: map[string]string{"score.rego": `package variations

score := input.total * 2
`},
	})
	require.NoError(t, err)

	_, err = engine.Allow(ctx, domain.Stats{1, 1, 1, 1, 1})
	assert.ErrorIs(t, err, domain.ErrPolicyEvalFailed)
}

func TestNewEngine_Errors(t *testing.T) {
	ctx := context.Background()

	_, err := NewEngine(ctx, Options{})
	assert.Error(t, err)

	_, err = NewEngine(ctx, Options{Modules: map[string]string{"bad.rego": "package variations\nallow {"}})
	assert.Error(t, err)

	_, err = LoadEngine(ctx, filepath.Join(t.TempDir(), "missing.rego"), "")
	assert.Error(t, err)
}

func TestLoadEngine(t *testing.T) {
	path := filepath.Join(t.TempDir(), "build.rego")
	require.NoError(t, os.WriteFile(path, []byte(strengthFirst), 0o644))

	engine, err := LoadEngine(context.Background(), path, "variations/allow")
	require.NoError(t, err)

	ok, err := engine.Allow(context.Background(), domain.Stats{2, 2, 2, 2, 2})
	require.NoError(t, err)
	assert.True(t, ok)
}
