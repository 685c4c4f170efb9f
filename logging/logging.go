// Package logging configures the process-wide log output, mirroring the
// rotation and CLI-flag conventions of the engine's ambient stack.
package logging

import (
	"log"

	"gopkg.in/natefinch/lumberjack.v2"
)

// Setup points the standard logger at a rotating file, for long-running
// signer processes.
func Setup(logfile string) error {
	log.SetFlags(log.Lshortfile | log.Ltime)

	if logfile == "" {
		return errEmptyLogfile
	}
	log.SetOutput(&lumberjack.Logger{
		Filename:   logfile,
		MaxSize:    20,
		MaxBackups: 3,
		MaxAge:     14,
	})
	return nil
}

// SetupCLI configures logging for interactive CLI invocations: no
// timestamps by default, file/line info when verbose is requested.
func SetupCLI(verbose bool) {
	if verbose {
		log.SetFlags(log.Lshortfile | log.Ltime)
	} else {
		log.SetFlags(0)
	}
}

type logfileError string

func (e logfileError) Error() string { return string(e) }

const errEmptyLogfile = logfileError("logging: no log file specified")
