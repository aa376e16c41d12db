package cmd

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/aallbrig/buildshim/config"
	"github.com/aallbrig/buildshim/render"
	"github.com/aallbrig/buildshim/tui"
)

type flagsOptions struct {
	configPath  string
	flagsFile   string
	output      string
	noColor     bool
	interactive bool
}

func newFlagsCmd() *cobra.Command {
	var o flagsOptions
	c := &cobra.Command{
		Use:   "flags [filter]",
		Short: "List the build-script-impl flags buildshim recognizes",
		Long: `List the build-script-impl flags with their defaults and help text.

A filter keeps flags whose name contains it or whose help mentions it.
With -i, browse the flags in a terminal UI, fill in values, and print the
resulting command line.

Examples:
  buildshim flags
  buildshim flags lto -o json
  buildshim flags -i`,
		Args: cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runFlags(cmd, o, args)
		},
	}
	c.Flags().StringVar(&o.configPath, "config", "", "config file (default $HOME/.buildshim.yaml)")
	c.Flags().StringVar(&o.flagsFile, "flags-file", "", "YAML flag table replacing the built-in build-script-impl flags")
	c.Flags().StringVarP(&o.output, "output", "o", "", "output format: text, json, yaml")
	c.Flags().BoolVar(&o.noColor, "no-color", false, "disable color output")
	c.Flags().BoolVarP(&o.interactive, "interactive", "i", false, "compose a command line in a terminal UI")
	return c
}

func runFlags(cmd *cobra.Command, o flagsOptions, args []string) error {
	cfg, err := config.Load(o.configPath)
	if err != nil {
		return err
	}
	if o.flagsFile != "" {
		cfg.FlagsFile = o.flagsFile
	}
	if o.output != "" {
		if cfg.Output, err = config.ParseOutput(o.output); err != nil {
			return err
		}
	}
	cfg.NoColor = cfg.NoColor || o.noColor
	setupLogging(cmd.ErrOrStderr(), cfg.Debug)

	flags, err := loadFlagTable(cfg.FlagsFile)
	if err != nil {
		return err
	}

	if o.interactive {
		tokens, err := tui.Run(flags, cfg)
		if err != nil {
			return fmt.Errorf("flag composer: %w", err)
		}
		if tokens != nil {
			fmt.Fprintln(cmd.OutOrStdout(), tui.CommandLine(tokens))
		}
		return nil
	}

	opts := render.Options{Output: cfg.Output, NoColor: cfg.NoColor, Colors: cfg.Colors}
	if len(args) == 1 {
		opts.Filter = args[0]
	}
	return render.New(opts).Flags(cmd.OutOrStdout(), flags)
}
