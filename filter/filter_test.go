package filter

import (
	"bytes"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"doubri/manifest"
)

func TestFilterEachOffsetScenario(t *testing.T) {
	dir := t.TempDir()

	m := &manifest.Manifest{
		Group: 0,
		Entries: []manifest.Entry{
			{NumItems: 10, Path: "a.mh", Offset: 0},
			{NumItems: 20, Path: "b.mh", Offset: 10},
			{NumItems: 15, Path: "c.mh", Offset: 30},
		},
	}

	flags := make([]byte, 45)
	for i := range flags {
		flags[i] = ' '
	}
	flags[12] = 'D'
	flags[13] = 'D'
	flags[14] = 'D'

	flagPath := filepath.Join(dir, "g.dup")
	require.NoError(t, os.WriteFile(flagPath, flags, 0o644))

	var lines []string
	for i := 0; i < 20; i++ {
		lines = append(lines, fmt.Sprintf(`{"i":%d}`, i))
	}
	in := strings.NewReader(strings.Join(lines, "\n") + "\n")

	var out bytes.Buffer
	stats, err := FilterEach(flagPath, m, "b.mh", in, &out)
	require.NoError(t, err)

	assert.Equal(t, uint64(20), stats.NumTotal)
	assert.Equal(t, uint64(17), stats.NumActive)

	outLines := strings.Split(strings.TrimRight(out.String(), "\n"), "\n")
	assert.Len(t, outLines, 17)
}

func TestFilterEachTargetNotFound(t *testing.T) {
	dir := t.TempDir()
	m := &manifest.Manifest{Entries: []manifest.Entry{{NumItems: 1, Path: "a.mh"}}}
	flagPath := filepath.Join(dir, "g.dup")
	require.NoError(t, os.WriteFile(flagPath, []byte(" "), 0o644))

	_, err := FilterEach(flagPath, m, "missing.mh", strings.NewReader(""), &bytes.Buffer{})
	assert.Error(t, err)
}

func TestFilterEachStdinTooLong(t *testing.T) {
	dir := t.TempDir()
	m := &manifest.Manifest{Entries: []manifest.Entry{{NumItems: 1, Path: "a.mh"}}}
	flagPath := filepath.Join(dir, "g.dup")
	require.NoError(t, os.WriteFile(flagPath, []byte(" "), 0o644))

	in := strings.NewReader("{}\n{}\n")
	_, err := FilterEach(flagPath, m, "a.mh", in, &bytes.Buffer{})
	assert.Error(t, err)
}

func TestFilterEachStdinTooShort(t *testing.T) {
	dir := t.TempDir()
	m := &manifest.Manifest{Entries: []manifest.Entry{{NumItems: 2, Path: "a.mh"}}}
	flagPath := filepath.Join(dir, "g.dup")
	require.NoError(t, os.WriteFile(flagPath, []byte("  "), 0o644))

	in := strings.NewReader("{}\n")
	_, err := FilterEach(flagPath, m, "a.mh", in, &bytes.Buffer{})
	assert.Error(t, err)
}

func TestFilterWhole(t *testing.T) {
	dir := t.TempDir()
	flagPath := filepath.Join(dir, "g.dup")
	require.NoError(t, os.WriteFile(flagPath, []byte("  D "), 0o644))

	in := strings.NewReader("a\nb\nc\nd\n")
	var out bytes.Buffer
	stats, err := FilterWhole(flagPath, in, &out)
	require.NoError(t, err)

	assert.Equal(t, uint64(4), stats.NumTotal)
	assert.Equal(t, uint64(3), stats.NumActive)
	assert.Equal(t, "a\nb\nd\n", out.String())
}
