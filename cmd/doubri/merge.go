package main

import (
	"flag"

	"doubri/flagstore"
	"doubri/internal/logging"
	"doubri/manifest"
	"doubri/merge"
)

func cmdMerge(args []string) int {
	fs := flag.NewFlagSet("doubri merge", flag.ExitOnError)
	var (
		begin  = fs.Uint("s", 0, "first bucket number (inclusive)")
		end    = fs.Uint("r", 40, "last bucket number (exclusive)")
		output = fs.String("o", "", "output basename for the unified index")
		apply  = fs.Bool("a", false, "fold each group's cross-group losers back into its flag file")
		lf     logFlags
	)
	addLogFlags(fs, &lf, "info")
	fs.Parse(args)

	if *output == "" || fs.NArg() < 2 {
		fs.Usage()
		return 2
	}
	sources := fs.Args()

	log, err := openLogger("merge", lf, *output+".log")
	if err != nil {
		return fatal(nil, err, "cannot initialize logging")
	}
	defer log.Close()

	// Each source basename carries its group id in the ".src" manifest the
	// dedup subcommand wrote next to its index files.
	inputs := make([]merge.Input, len(sources))
	manifests := make([]*manifest.Manifest, len(sources))
	for i, src := range sources {
		m, err := manifest.Load(src + ".src")
		if err != nil {
			return fatal(log, err, "cannot load source manifest")
		}
		inputs[i] = merge.Input{Basename: src, Group: m.Group}
		manifests[i] = m
	}

	merger := merge.New(inputs, *output)
	for b := uint32(*begin); b < uint32(*end); b++ {
		stats, err := merger.MergeBucket(b)
		if err != nil {
			return fatal(log, err, "bucket merge failed")
		}
		log.Info("bucket merge complete",
			logging.Int("bucket", int(stats.BucketNumber)),
			logging.Int("total", int(stats.NumTotalItems)),
			logging.Int("survivors", int(stats.NumSurvivors)),
			logging.Int("duplicates", int(stats.NumDuplicates)),
		)
	}

	if err := merger.WriteDeltas(); err != nil {
		return fatal(log, err, "cannot write delta files")
	}

	if *apply {
		if err := applyDeltas(inputs, manifests, *output, log); err != nil {
			return fatal(log, err, "cannot apply delta files")
		}
	}

	return 0
}

// applyDeltas folds each group's "<output>.merge-dup.<gid>" file into that
// group's "<basename>.dup", so downstream filters drop cross-group
// duplicates too.
func applyDeltas(inputs []merge.Input, manifests []*manifest.Manifest, output string, log *logging.Logger) error {
	for i, in := range inputs {
		dupPath := in.Basename + ".dup"

		flags, err := flagstore.Load(dupPath, int(manifests[i].Total()))
		if err != nil {
			return err
		}

		if err := merge.ApplyDelta(flags, merge.DeltaFileName(output, in.Group)); err != nil {
			return err
		}

		if err := flagstore.Save(dupPath, flags); err != nil {
			return err
		}

		log.Info("applied delta",
			logging.Str("path", dupPath),
			logging.Int("group", int(in.Group)),
			logging.Int("num_active", flags.CountActive()),
		)
	}

	return nil
}
