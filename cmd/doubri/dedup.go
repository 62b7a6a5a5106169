package main

import (
	"bufio"
	"flag"
	"fmt"
	"io"
	"os"
	"strings"

	"doubri/dedup"
	"doubri/errs"
	"doubri/flagstore"
	"doubri/internal/logging"
	"doubri/manifest"
)

func cmdDedup(args []string) int {
	fs := flag.NewFlagSet("doubri dedup", flag.ExitOnError)
	var (
		group      = fs.Uint("g", 0, "group id (0..65535)")
		noIndex    = fs.Bool("n", false, "skip writing per-bucket index files")
		ignoreFlag = fs.Bool("i", false, "ignore an existing flag file and start all-active")
		lf         logFlags
	)
	fs.BoolVar(ignoreFlag, "ignore-flag", false, "ignore an existing flag file and start all-active")
	addLogFlags(fs, &lf, "info")
	fs.Parse(args)

	if fs.NArg() != 1 {
		fs.Usage()
		return 2
	}
	basename := fs.Arg(0)

	log, err := openLogger("dedup", lf, basename+".log")
	if err != nil {
		return fatal(nil, err, "cannot initialize logging")
	}
	defer log.Close()

	if *group > 1<<16-1 {
		return fatal(log, errs.New(errs.OutOfRange, "dedup", basename, fmt.Errorf("group id %d exceeds 16 bits", *group)), "invalid group id")
	}
	gid := manifest.GroupID(*group)

	paths, err := readPathList(os.Stdin)
	if err != nil {
		return fatal(log, err, "cannot read signature file list from stdin")
	}
	if len(paths) == 0 {
		return fatal(log, errs.New(errs.NotFound, "dedup", basename, fmt.Errorf("no signature files on stdin")), "empty input")
	}

	dupPath := basename + ".dup"
	var opts []dedup.Option
	if !*ignoreFlag {
		if _, err := os.Stat(dupPath); err == nil {
			opts = append(opts, dedup.WithFlagFile(dupPath))
			log.Info("resuming from existing flag file", logging.Str("path", dupPath))
		}
	}

	d, err := dedup.New(paths, opts...)
	if err != nil {
		return fatal(log, err, "cannot open signature files")
	}

	// The manifest is written before the passes run: it fixes the global
	// ordinal order the flag and index files are about to be expressed in,
	// and the filter subcommands need it even if a later pass fails.
	m := buildManifest(gid, d)
	srcPath := basename + ".src"
	if err := manifest.Write(srcPath, m); err != nil {
		return fatal(log, err, "cannot write source manifest")
	}
	log.Info("wrote source manifest",
		logging.Str("path", srcPath),
		logging.Int("num_files", len(m.Entries)),
		logging.Int("num_items", int(m.Total())),
	)

	for b := d.Begin(); b < d.End(); b++ {
		stats, err := d.DeduplicateBucket(basename, gid, b, !*noIndex)
		if err != nil {
			return fatal(log, err, "bucket pass failed")
		}
		log.Info("bucket pass complete",
			logging.Int("bucket", int(stats.BucketNumber)),
			logging.Int("active_before", stats.NumActiveBefore),
			logging.Int("detected", stats.NumDetected),
			logging.Int("active_after", stats.NumActiveAfter),
		)
	}

	if err := flagstore.Save(dupPath, d.Flags()); err != nil {
		return fatal(log, err, "cannot write flag file")
	}
	log.Info("wrote flag file",
		logging.Str("path", dupPath),
		logging.Int("num_active", d.Flags().CountActive()),
	)

	return 0
}

// readPathList reads one signature file per line, skipping blanks. Lines
// in manifest form ("<num_items>\t<path>") are accepted too; the count is
// ignored because the authoritative count lives in the signature header.
func readPathList(f io.Reader) ([]string, error) {
	var paths []string

	sc := bufio.NewScanner(f)
	for sc.Scan() {
		line := strings.TrimSpace(sc.Text())
		if line == "" || strings.HasPrefix(line, "#") {
			continue
		}
		if tab := strings.IndexByte(line, '\t'); tab >= 0 {
			line = line[tab+1:]
		}
		paths = append(paths, line)
	}
	if err := sc.Err(); err != nil {
		return nil, errs.New(errs.IoRead, "dedup.readPathList", "", err)
	}

	return paths, nil
}

func buildManifest(gid manifest.GroupID, d *dedup.Deduplicator) *manifest.Manifest {
	files := make([]struct {
		NumItems uint64
		Path     string
	}, len(d.Files()))
	for i, sf := range d.Files() {
		files[i].NumItems = sf.NumItems
		files[i].Path = sf.Path
	}

	return manifest.New(gid, files)
}
