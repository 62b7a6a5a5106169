package main

import (
	"flag"
	"fmt"
	"os"

	"doubri/internal/logging"
)

// logFlags carries the console/file level split every subcommand accepts.
type logFlags struct {
	console string
	file    string
}

func addLogFlags(fs *flag.FlagSet, lf *logFlags, fileDefault string) {
	fs.StringVar(&lf.console, "log-level-console", "warning",
		"console log threshold (off, trace, debug, info, warning, error, critical)")
	fs.StringVar(&lf.file, "log-level-file", fileDefault,
		"log-file threshold (off, trace, debug, info, warning, error, critical)")
}

// openLogger parses the two level words and opens logPath for the file sink
// when the file threshold is not off.
func openLogger(name string, lf logFlags, logPath string) (*logging.Logger, error) {
	consoleLevel, err := logging.ParseLevel(lf.console)
	if err != nil {
		return nil, err
	}

	fileLevel, err := logging.ParseLevel(lf.file)
	if err != nil {
		return nil, err
	}

	if fileLevel == logging.LevelOff {
		logPath = ""
	}

	return logging.New(name, consoleLevel, fileLevel, logPath)
}

// fatal logs one critical message and returns the process exit code; every
// subcommand funnels its single failure through here.
func fatal(log *logging.Logger, err error, msg string) int {
	if log != nil {
		log.Critical(err, msg)
	} else {
		fmt.Fprintf(os.Stderr, "doubri: %s: %v\n", msg, err)
	}

	return 1
}
