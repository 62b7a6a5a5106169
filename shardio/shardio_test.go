package shardio

import (
	"io"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"doubri/format"
)

func TestCodecForPath(t *testing.T) {
	assert.Equal(t, format.CodecGzip, CodecForPath("shard.jsonl.gz"))
	assert.Equal(t, format.CodecZstd, CodecForPath("shard.jsonl.zst"))
	assert.Equal(t, format.CodecS2, CodecForPath("shard.jsonl.s2"))
	assert.Equal(t, format.CodecLZ4, CodecForPath("shard.jsonl.lz4"))
	assert.Equal(t, format.CodecNone, CodecForPath("shard.jsonl"))
}

func TestRoundTripEachCodec(t *testing.T) {
	payload := []byte(`{"text":"hello"}` + "\n" + `{"text":"world"}` + "\n")

	for _, ext := range []string{"", ".gz", ".s2", ".lz4", ".zst"} {
		t.Run(ext, func(t *testing.T) {
			path := filepath.Join(t.TempDir(), "shard.jsonl"+ext)

			w, err := Create(path)
			require.NoError(t, err)
			_, err = w.Write(payload)
			require.NoError(t, err)
			require.NoError(t, w.Close())

			r, err := Open(path)
			require.NoError(t, err)
			defer r.Close()

			got, err := io.ReadAll(r)
			require.NoError(t, err)
			assert.Equal(t, payload, got)
		})
	}
}

func TestLineScanner(t *testing.T) {
	path := filepath.Join(t.TempDir(), "shard.jsonl")
	w, err := Create(path)
	require.NoError(t, err)
	_, err = w.Write([]byte("a\nb\nc\n"))
	require.NoError(t, err)
	require.NoError(t, w.Close())

	r, err := Open(path)
	require.NoError(t, err)
	defer r.Close()

	sc := LineScanner(r)
	var lines []string
	for sc.Scan() {
		lines = append(lines, sc.Text())
	}
	require.NoError(t, sc.Err())
	assert.Equal(t, []string{"a", "b", "c"}, lines)
}
