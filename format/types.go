// Package format holds the small enum types used by the shardio package.
package format

// Codec identifies the stream compression applied to a JSONL shard, inferred
// from the shard's file extension (.gz, .s2, .lz4, .zst) or set explicitly
// when a shard is created.
type Codec uint8

const (
	CodecNone Codec = 0x1
	CodecGzip Codec = 0x2
	CodecS2   Codec = 0x3
	CodecLZ4  Codec = 0x4
	CodecZstd Codec = 0x5
)

func (c Codec) String() string {
	switch c {
	case CodecNone:
		return "None"
	case CodecGzip:
		return "Gzip"
	case CodecS2:
		return "S2"
	case CodecLZ4:
		return "LZ4"
	case CodecZstd:
		return "Zstd"
	default:
		return "Unknown"
	}
}
