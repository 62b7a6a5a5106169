package main

import (
	"flag"
	"io"
	"os"
	"path/filepath"

	"doubri/filter"
	"doubri/internal/logging"
	"doubri/manifest"
	"doubri/shardio"
)

func cmdFilterEach(args []string) int {
	fs := flag.NewFlagSet("doubri filter-each", flag.ExitOnError)
	var (
		flagPath = fs.String("f", "", "flag file (.dup)")
		srcPath  = fs.String("s", "", "source manifest (.src)")
		stripDir = fs.Bool("d", false, "match the target by base name only")
		outPath  = fs.String("o", "", "output file (default stdout; .gz/.zst/.s2/.lz4 compressed)")
		lf       logFlags
	)
	addLogFlags(fs, &lf, "off")
	fs.Parse(args)

	if *flagPath == "" || *srcPath == "" || fs.NArg() != 1 {
		fs.Usage()
		return 2
	}
	target := fs.Arg(0)
	if *stripDir {
		target = filepath.Base(target)
	}

	log, err := openLogger("filter-each", lf, *flagPath+".log")
	if err != nil {
		return fatal(nil, err, "cannot initialize logging")
	}
	defer log.Close()

	m, err := manifest.Load(*srcPath)
	if err != nil {
		return fatal(log, err, "cannot load source manifest")
	}

	out, closeOut, err := openOutput(*outPath)
	if err != nil {
		return fatal(log, err, "cannot open output")
	}

	stats, err := filter.FilterEach(*flagPath, m, target, os.Stdin, out)
	if err != nil {
		closeOut()
		return fatal(log, err, "filter failed")
	}
	if err := closeOut(); err != nil {
		return fatal(log, err, "cannot finalize output")
	}

	log.Info("filtered shard",
		logging.Str("target", target),
		logging.Int("total", int(stats.NumTotal)),
		logging.Int("active", int(stats.NumActive)),
	)

	return 0
}

func cmdFilterWhole(args []string) int {
	fs := flag.NewFlagSet("doubri filter-whole", flag.ExitOnError)
	var (
		flagPath = fs.String("f", "", "flag file (.dup)")
		outPath  = fs.String("o", "", "output file (default stdout; .gz/.zst/.s2/.lz4 compressed)")
		lf       logFlags
	)
	addLogFlags(fs, &lf, "off")
	fs.Parse(args)

	if *flagPath == "" || fs.NArg() != 0 {
		fs.Usage()
		return 2
	}

	log, err := openLogger("filter-whole", lf, *flagPath+".log")
	if err != nil {
		return fatal(nil, err, "cannot initialize logging")
	}
	defer log.Close()

	out, closeOut, err := openOutput(*outPath)
	if err != nil {
		return fatal(log, err, "cannot open output")
	}

	stats, err := filter.FilterWhole(*flagPath, os.Stdin, out)
	if err != nil {
		closeOut()
		return fatal(log, err, "filter failed")
	}
	if err := closeOut(); err != nil {
		return fatal(log, err, "cannot finalize output")
	}

	log.Info("filtered group",
		logging.Int("total", int(stats.NumTotal)),
		logging.Int("active", int(stats.NumActive)),
	)

	return 0
}

// openOutput returns stdout (with a no-op closer) when path is empty, or a
// shard writer whose compression follows the path's extension.
func openOutput(path string) (io.Writer, func() error, error) {
	if path == "" {
		return os.Stdout, func() error { return nil }, nil
	}

	wc, err := shardio.Create(path)
	if err != nil {
		return nil, nil, err
	}

	return wc, wc.Close, nil
}
