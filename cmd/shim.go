package cmd

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/exec"
	"slices"
	"strconv"

	"github.com/rs/zerolog/log"
	"github.com/spf13/cobra"
	"github.com/spf13/pflag"

	"github.com/aallbrig/buildshim/cache"
	"github.com/aallbrig/buildshim/config"
	"github.com/aallbrig/buildshim/impl"
	"github.com/aallbrig/buildshim/models"
	"github.com/aallbrig/buildshim/partition"
	"github.com/aallbrig/buildshim/render"
	"github.com/aallbrig/buildshim/schema"
)

// frontendFlags are buildshim's own options. They are partitioned together
// with the build-script-impl flags so either kind may appear anywhere.
var frontendFlags = []models.Flag{
	{Name: "--impl", Help: "build-script-impl to validate against and run (name or path)"},
	{Name: "--config", Help: "config file (default $HOME/.buildshim.yaml)"},
	{Name: "--output", Help: "output format: text, json, yaml"},
	{Name: "--flags-file", Help: "YAML flag table replacing the built-in build-script-impl flags"},
	{Name: "--cache", Help: "answer from remembered verdicts when build-script-impl is unchanged", Switch: true},
	{Name: "--no-cache", Help: "always ask build-script-impl, even when caching is configured", Switch: true},
	{Name: "--no-color", Help: "disable color output", Switch: true},
	{Name: "--debug", Help: "enable debug logging", Switch: true},
	{Name: "--help", Help: "help for this command", Switch: true},
}

var errHelpShown = errors.New("help shown")

// shortHelp is accepted alongside --help. It is not a schema flag because
// the partitioner only knows long options.
const shortHelp = "-h"

// invocation is one partitioned command line plus the configuration it
// selected.
type invocation struct {
	cfg  *config.Config
	args *models.Arguments
}

// prepare partitions argv twice: once against the front-end flags alone to
// find the config and flag table, then against the full schema.
func prepare(c *cobra.Command, argv []string) (*invocation, error) {
	base, err := schema.New().With(frontendFlags...)
	if err != nil {
		return nil, err
	}
	pre := partition.Parse(base, argv)
	if switchOn(pre, "--help") || slices.Contains(argv, shortHelp) {
		if err := c.Help(); err != nil {
			return nil, err
		}
		return nil, errHelpShown
	}

	cfgPath, _ := pre.Get("--config")
	cfg, err := config.Load(cfgPath)
	if err != nil {
		return nil, err
	}
	if err := applyOverrides(cfg, pre); err != nil {
		return nil, err
	}
	setupLogging(c.ErrOrStderr(), cfg.Debug)

	decls, err := loadFlagTable(cfg.FlagsFile)
	if err != nil {
		return nil, err
	}
	full, err := base.With(decls...)
	if err != nil {
		return nil, err
	}
	args := partition.Parse(full, argv)
	log.Debug().Int("flags", full.Len()).Strs("residual", args.Residual()).Msg("partitioned")
	return &invocation{cfg: cfg, args: args}, nil
}

func applyOverrides(cfg *config.Config, pre *models.Arguments) error {
	if v, ok := pre.Get("--impl"); ok {
		cfg.Impl = v
	}
	if v, ok := pre.Get("--flags-file"); ok {
		cfg.FlagsFile = v
	}
	if v, ok := pre.Get("--output"); ok {
		out, err := config.ParseOutput(v)
		if err != nil {
			return err
		}
		cfg.Output = out
	}
	cfg.Cache = cfg.Cache || switchOn(pre, "--cache")
	cfg.NoCache = cfg.NoCache || switchOn(pre, "--no-cache")
	cfg.NoColor = cfg.NoColor || switchOn(pre, "--no-color")
	cfg.Debug = cfg.Debug || switchOn(pre, "--debug")
	return nil
}

func loadFlagTable(path string) ([]models.Flag, error) {
	if path == "" {
		return schema.ImplFlags()
	}
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open flag table: %w", err)
	}
	defer f.Close()
	return schema.Decode(f)
}

func switchOn(args *models.Arguments, name string) bool {
	v, ok := args.Get(name)
	if !ok {
		return false
	}
	b, err := strconv.ParseBool(v)
	return err == nil && b
}

func (inv *invocation) renderer() *render.Renderer {
	return render.New(render.Options{
		Output:  inv.cfg.Output,
		NoColor: inv.cfg.NoColor,
		Colors:  inv.cfg.Colors,
	})
}

// checker returns the validator for the configured build-script-impl, backed
// by the verdict cache when enabled. The returned func releases the cache.
func (inv *invocation) checker() (impl.Checker, string, func(), error) {
	noop := func() {}
	path, err := impl.Resolve(inv.cfg.Impl)
	if err != nil {
		return nil, path, noop, &impl.InvocationError{Path: path, Err: err}
	}
	var checker impl.Checker = &impl.Script{Path: path}
	if !inv.cfg.CacheEnabled() {
		return checker, path, noop, nil
	}
	fp, err := impl.Fingerprint(path)
	if err != nil {
		log.Warn().Err(err).Msg("could not fingerprint build-script-impl, running without cache")
		return checker, path, noop, nil
	}
	c, err := cache.Open(inv.cfg.CacheDir)
	if err != nil {
		log.Warn().Err(err).Msg("could not open cache, running without")
		return checker, path, noop, nil
	}
	return cache.Wrap(c, checker, path, fp, inv.cfg.CacheTTL), path, func() { c.Close() }, nil
}

// validate checks the residual tokens and renders the verdict. A rejection
// is rendered, then reported as exit status 1.
func (inv *invocation) validate(c *cobra.Command, quietOK bool) (string, error) {
	checker, path, release, err := inv.checker()
	defer release()
	if err != nil {
		return path, err
	}
	residual := inv.args.Residual()
	err = checker.CheckArgs(context.Background(), residual)

	res := render.CheckResult{Impl: path, Args: residual, OK: err == nil}
	var verr *impl.ValidationError
	switch {
	case err == nil:
		if quietOK {
			return path, nil
		}
		return path, inv.renderer().Check(c.OutOrStdout(), res)
	case errors.As(err, &verr):
		res.Message = verr.Message
		w := c.OutOrStdout()
		if quietOK {
			w = c.ErrOrStderr()
		}
		if rerr := inv.renderer().Check(w, res); rerr != nil {
			return path, rerr
		}
		return path, exitCode(1)
	default:
		return path, err
	}
}

// forwardArgs is what `run` hands to build-script-impl: the build-script-impl
// flags given on the command line, then the residual tokens unchanged.
func (inv *invocation) forwardArgs() []string {
	front := map[string]bool{}
	for _, f := range frontendFlags {
		front[f.Name] = true
	}
	var out []string
	for _, name := range inv.args.Names() {
		if front[name] || !inv.args.Provided(name) {
			continue
		}
		v, _ := inv.args.Get(name)
		out = append(out, name+"="+v)
	}
	return append(out, inv.args.Residual()...)
}

func shimCommand(use, short, long string, run func(*cobra.Command, *invocation) error) *cobra.Command {
	c := &cobra.Command{
		Use:                use + " [flags] [--] [build-script-impl args...]",
		Short:              short,
		Long:               long,
		DisableFlagParsing: true,
		RunE: func(c *cobra.Command, argv []string) error {
			inv, err := prepare(c, argv)
			if errors.Is(err, errHelpShown) {
				return nil
			}
			if err != nil {
				return err
			}
			return run(c, inv)
		},
	}
	c.Flags().AddFlagSet(helpFlagSet())
	return c
}

// helpFlagSet lists the front-end and build-script-impl flags in help output.
func helpFlagSet() *pflag.FlagSet {
	base, err := schema.New().With(frontendFlags...)
	if err != nil {
		return pflag.NewFlagSet("buildshim", pflag.ContinueOnError)
	}
	fs := base.FlagSet("buildshim")
	if full, err := schema.Register(base); err == nil {
		fs = full.FlagSet("buildshim")
	}
	if f := fs.Lookup("help"); f != nil {
		f.Shorthand = "h"
	}
	return fs
}

const cacheNote = `With --cache (or cache: true in the config file) a verdict remembered for
the same build-script-impl path, size and modification time is returned
without running it. Such a verdict can be stale if build-script-impl's
answer depends on files it sources or on the environment.`

const checkLong = `Check runs build-script-impl --check-args-only=1 with the arguments
buildshim does not recognize and reports its verdict. A rejection prints the
first line of build-script-impl's error output and exits 1.

` + cacheNote

const runLong = `Run validates the arguments like check, then runs build-script-impl with
the recognized build-script-impl flags followed by the remaining arguments.
build-script-impl's exit status becomes buildshim's.

` + cacheNote

func newParseCmd() *cobra.Command {
	return shimCommand("parse", "Show how a command line is partitioned", "",
		func(c *cobra.Command, inv *invocation) error {
			return inv.renderer().Arguments(c.OutOrStdout(), inv.args)
		})
}

func newCheckCmd() *cobra.Command {
	return shimCommand("check", "Ask build-script-impl whether it accepts the residual arguments", checkLong,
		func(c *cobra.Command, inv *invocation) error {
			_, err := inv.validate(c, false)
			return err
		})
}

func newRunCmd() *cobra.Command {
	return shimCommand("run", "Validate, then run build-script-impl with the arguments", runLong,
		func(c *cobra.Command, inv *invocation) error {
			path, err := inv.validate(c, true)
			if err != nil {
				return err
			}
			script := &impl.Script{Path: path}
			err = script.Run(context.Background(), inv.forwardArgs(), c.OutOrStdout(), c.ErrOrStderr())
			var exitErr *exec.ExitError
			if errors.As(err, &exitErr) {
				return exitCode(exitErr.ExitCode())
			}
			return err
		})
}
