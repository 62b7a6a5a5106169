package main

import (
	"encoding/json"
	"flag"
	"io"
	"os"
	"strings"

	"doubri/internal/logging"
	"doubri/minhash"
	"doubri/ngram"
	"doubri/shardio"
	"doubri/signature"
)

func cmdSignature(args []string) int {
	fs := flag.NewFlagSet("doubri signature", flag.ExitOnError)
	var (
		n         = fs.Int("n", 5, "n-gram width in Unicode code points")
		numHashes = fs.Uint("b", 20, "hash values per bucket")
		begin     = fs.Uint("s", 0, "first bucket number (inclusive)")
		end       = fs.Uint("r", 40, "last bucket number (exclusive)")
		textField = fs.String("t", "text", "JSON field holding the document text")
		input     = fs.String("i", "", "input JSONL shard (default stdin; .gz/.zst/.s2/.lz4 decompressed)")
		lf        logFlags
	)
	addLogFlags(fs, &lf, "off")
	fs.Parse(args)

	if fs.NArg() != 1 {
		fs.Usage()
		return 2
	}
	outPath := fs.Arg(0)

	log, err := openLogger("signature", lf, outPath+".log")
	if err != nil {
		return fatal(nil, err, "cannot initialize logging")
	}
	defer log.Close()

	var in io.Reader = os.Stdin
	if *input != "" {
		rc, err := shardio.Open(*input)
		if err != nil {
			return fatal(log, err, "cannot open input shard")
		}
		defer rc.Close()
		in = rc
	}

	if err := produceSignatures(in, outPath, *textField, *n, uint32(*numHashes), uint32(*begin), uint32(*end), log); err != nil {
		return fatal(log, err, "signature generation failed")
	}

	return 0
}

// produceSignatures streams JSONL from in and writes one ".mh" signature
// row per line: for each bucket b in [begin, end), the minimum of hash
// family members b*numHashes .. (b+1)*numHashes-1 over the document's
// n-gram features.
func produceSignatures(in io.Reader, outPath, textField string, n int, numHashes, begin, end uint32, log *logging.Logger) error {
	w, err := signature.NewWriter(outPath, numHashes, begin, end)
	if err != nil {
		return err
	}

	log.Info("computing signatures",
		logging.Str("out", outPath),
		logging.Int("ngram", n),
		logging.Int("hashes_per_bucket", int(numHashes)),
		logging.Int("begin", int(begin)),
		logging.Int("end", int(end)),
	)

	values := make([]uint32, 0, int(end-begin)*int(numHashes))
	sc := shardio.LineScanner(in)
	for sc.Scan() {
		features := extractFeatures(sc.Bytes(), textField, n)

		values = values[:0]
		for b := begin; b < end; b++ {
			values = append(values, minhash.Buckets(features, b*numHashes, numHashes)...)
		}

		if err := w.Put(values); err != nil {
			w.Close()
			return err
		}
	}
	if err := sc.Err(); err != nil {
		w.Close()
		return err
	}

	numItems := w.NumItems()
	if err := w.Close(); err != nil {
		return err
	}

	log.Info("wrote signature file", logging.Str("path", outPath), logging.Int("num_items", int(numItems)))

	return nil
}

// extractFeatures parses one JSONL document and returns its n-gram
// features. A document whose text field is missing, not a string, or
// shorter than n code points contributes a single all-underscore feature,
// so degenerate documents still carry a well-defined signature (and
// deduplicate against each other).
func extractFeatures(line []byte, textField string, n int) []string {
	var doc map[string]json.RawMessage
	text := ""
	if err := json.Unmarshal(line, &doc); err == nil {
		if raw, ok := doc[textField]; ok {
			_ = json.Unmarshal(raw, &text)
		}
	}

	if ngram.CodePointCount(text) < n {
		text = strings.Repeat("_", n)
	}

	return ngram.Extract(text, n)
}
