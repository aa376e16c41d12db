// Package cmd implements the buildshim CLI commands.
package cmd

import (
	"errors"
	"fmt"
	"io"
	"os"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
	"github.com/spf13/cobra"
)

// rootLong is shared by Execute and NewRootCmd.
const rootLong = `buildshim sits in front of build-script-impl.

It splits a build command line into the flags it knows about and the rest,
asks build-script-impl to vet the rest (--check-args-only=1) and can then run
build-script-impl with them. A lone "--" is accepted anywhere and ignored.

Examples:
  buildshim parse --build-dir /tmp/build -- --reconfigure
  buildshim check --impl ./utils/build-script-impl --release --reconfigure
  buildshim run --impl ./utils/build-script-impl --build-dir /tmp/b --reconfigure
  buildshim flags cmake                # flags mentioning cmake
  buildshim flags -i                   # compose a command line interactively`

// NewRootCmd returns a fresh root command with all subcommands attached.
func NewRootCmd() *cobra.Command {
	c := &cobra.Command{
		Use:           "buildshim",
		Short:         "Partition and validate build-script-impl arguments",
		Long:          rootLong,
		Version:       versionString(),
		SilenceErrors: true,
		SilenceUsage:  true,
	}
	c.AddCommand(
		newParseCmd(),
		newCheckCmd(),
		newRunCmd(),
		newFlagsCmd(),
		newCacheCmd(),
		versionCmd(),
	)
	return c
}

// Execute runs the root command and exits non-zero on failure.
func Execute() {
	if err := NewRootCmd().Execute(); err != nil {
		var code exitCode
		if errors.As(err, &code) {
			os.Exit(int(code))
		}
		fmt.Fprintln(os.Stderr, "Error:", err)
		os.Exit(1)
	}
}

// exitCode carries build-script-impl's exit status out of `run`.
type exitCode int

func (e exitCode) Error() string { return fmt.Sprintf("exit status %d", int(e)) }

// setupLogging points the global zerolog logger at w.
func setupLogging(w io.Writer, debug bool) {
	logLevel := zerolog.WarnLevel
	if debug {
		logLevel = zerolog.DebugLevel
	}
	log.Logger = log.Output(zerolog.ConsoleWriter{Out: w}).Level(logLevel)
}
