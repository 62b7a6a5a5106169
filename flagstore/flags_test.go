package flagstore

import (
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewAllActive(t *testing.T) {
	f := New(5)
	assert.Equal(t, 5, f.CountActive())
	for i := range f {
		assert.True(t, f.IsActive(i))
	}
}

func TestTwoPhaseMarking(t *testing.T) {
	f := New(4)
	f.MarkPass(1)
	f.MarkPass(3)

	assert.Equal(t, 2, f.CountActive())
	assert.Equal(t, 2, f.CountPending())
	assert.False(t, f.IsDead(1), "Pending is not yet Dead")

	f.PromotePass()

	assert.Equal(t, 2, f.CountActive())
	assert.Equal(t, 0, f.CountPending())
	assert.True(t, f.IsDead(1))
	assert.True(t, f.IsDead(3))
	assert.True(t, f.IsActive(0))
}

func TestSaveLoadRoundTrip(t *testing.T) {
	path := filepath.Join(t.TempDir(), "g0.dup")

	f := New(6)
	f.MarkPass(2)
	f.PromotePass()
	require.NoError(t, Save(path, f))

	got, err := Load(path, 6)
	require.NoError(t, err)
	assert.Equal(t, f, got)
}

func TestLoadRejectsWrongLength(t *testing.T) {
	path := filepath.Join(t.TempDir(), "g0.dup")
	require.NoError(t, Save(path, New(3)))

	_, err := Load(path, 4)
	assert.Error(t, err)
}
