// Command doubri deduplicates large JSONL corpora with MinHash + LSH
// banding. The pipeline runs as five subcommands: "signature" turns a JSONL
// shard into a ".mh" signature file, "dedup" finds duplicates within one
// group of shards, "merge" finds duplicates across groups, and the two
// "filter-*" subcommands stream the original documents against the
// resulting flag files.
package main

import (
	"fmt"
	"os"
)

func main() {
	os.Exit(run(os.Args[1:]))
}

func run(args []string) int {
	if len(args) == 0 {
		usage(os.Stderr)
		return 2
	}

	switch args[0] {
	case "signature":
		return cmdSignature(args[1:])
	case "dedup":
		return cmdDedup(args[1:])
	case "merge":
		return cmdMerge(args[1:])
	case "filter-each":
		return cmdFilterEach(args[1:])
	case "filter-whole":
		return cmdFilterWhole(args[1:])
	case "help", "-h", "--help":
		usage(os.Stdout)
		return 0
	default:
		fmt.Fprintf(os.Stderr, "doubri: unknown subcommand %q\n\n", args[0])
		usage(os.Stderr)
		return 2
	}
}

func usage(w *os.File) {
	fmt.Fprint(w, `usage: doubri <subcommand> [flags] [args]

subcommands:
  signature    compute MinHash signatures for a JSONL shard (JSONL on stdin)
  dedup        deduplicate one group's signature files (paths on stdin)
  merge        k-way merge per-group index files across groups
  filter-each  emit one shard's surviving lines (JSONL on stdin)
  filter-whole emit a whole group's surviving lines (JSONL on stdin)

run "doubri <subcommand> -h" for that subcommand's flags.
`)
}
