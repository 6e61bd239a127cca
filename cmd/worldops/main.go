package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"runtime"
	"runtime/debug"
	"strconv"
	"strings"
	"syscall"
	"time"

	"github.com/rs/zerolog"
	"github.com/spf13/cobra"
	pflag "github.com/spf13/pflag"

	"github.com/lepaul-HOU16/worldops"
	"github.com/lepaul-HOU16/worldops/internal/cliconfig"
	"github.com/lepaul-HOU16/worldops/internal/domain"
	"github.com/lepaul-HOU16/worldops/pkg/log"
)

var exampleUsage = strings.TrimSpace(`
  worldops clear --host mc.example.net --from 0,0,0 --to 99,63,99 --all
  worldops fill --from 0,0,0 --to 499,254,499 --band-min 62 --band-max 63
  worldops timelock --ticks 6000 --persist-wait 30s
`)

func getVersion() string {
	if info, ok := debug.ReadBuildInfo(); ok && info.Main.Version != "" {
		return info.Main.Version
	}
	return "dev"
}

// app carries the resolved configuration shared by the subcommands: the
// merged Config, the config file actually in use, and whether to keep
// watching it for tunable changes.
type app struct {
	cfg     cliconfig.Config
	cfgFile string
	watch   bool
	logger  log.Logger
}

func main() {
	a := &app{
		cfg:    cliconfig.DefaultConfig(),
		logger: log.NewConsole(),
	}
	cfg := &a.cfg
	var cfgPath string

	root := &cobra.Command{
		Use:          "worldops",
		Short:        "Apply bulk, verified mutations to a remote world server",
		Example:      exampleUsage,
		Version:      fmt.Sprintf("%s %s/%s", getVersion(), runtime.GOOS, runtime.GOARCH),
		SilenceUsage: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			// Precedence: flags over environment over file over defaults.
			cfgFile := cfgPath
			if cfgFile == "" {
				cfgFile = cliconfig.DefaultConfigPath()
			}

			changed := map[string]bool{}
			cmd.Flags().Visit(func(f *pflag.Flag) { changed[f.Name] = true })
			cmd.Root().PersistentFlags().Visit(func(f *pflag.Flag) { changed[f.Name] = true })

			if cfgFile != "" && cliconfig.FileExists(cfgFile) {
				fc, err := cliconfig.LoadFileConfig(cfgFile)
				if err != nil {
					return fmt.Errorf("load config: %w", err)
				}
				if err := cliconfig.ApplyFileConfig(cfg, fc, changed); err != nil {
					return err
				}
				a.cfgFile = cfgFile
			}

			if err := cliconfig.ApplyEnvConfig(cfg, changed); err != nil {
				return err
			}
			if err := cfg.Validate(); err != nil {
				return err
			}

			if !cfg.Verbose {
				zerolog.SetGlobalLevel(zerolog.InfoLevel)
			} else {
				zerolog.SetGlobalLevel(zerolog.DebugLevel)
			}
			return nil
		},
	}

	pf := root.PersistentFlags()
	pf.StringVar(&cfgPath, "config", "", "path to TOML config file")
	pf.BoolVar(&a.watch, "watch-config", false, "reload tunables when the config file changes")
	pf.StringVar(&cfg.Host, "host", cfg.Host, "server host")
	pf.IntVar(&cfg.Port, "port", cfg.Port, "remote console port")
	pf.StringVar(&cfg.Password, "password", cfg.Password, "remote console password")
	pf.DurationVar(&cfg.ExecTimeout, "exec-timeout", cfg.ExecTimeout, "per-command timeout")
	pf.DurationVar(&cfg.DialTimeout, "dial-timeout", cfg.DialTimeout, "per-attempt dial timeout")
	pf.IntVar(&cfg.DialAttempts, "dial-attempts", cfg.DialAttempts, "connection attempts before giving up")
	pf.Int64Var(&cfg.Ceiling, "ceiling", cfg.Ceiling, "max cells per command")
	pf.IntVar(&cfg.Concurrency, "concurrency", cfg.Concurrency, "parallel sessions (1 = sequential)")
	pf.DurationVar(&cfg.Budget, "budget", cfg.Budget, "wall-clock budget per operation")
	pf.IntVar(&cfg.VerifyBudget, "verify-budget", cfg.VerifyBudget, "max verification probes per operation")
	pf.BoolVarP(&cfg.Verbose, "verbose", "v", cfg.Verbose, "debug logging")

	root.AddCommand(newClearCmd(a))
	root.AddCommand(newFillCmd(a))
	root.AddCommand(newTimelockCmd(a))

	if err := root.Execute(); err != nil {
		os.Exit(1)
	}
}

func newClearCmd(a *app) *cobra.Command {
	var from, to string
	var targets []string
	var all bool

	cmd := &cobra.Command{
		Use:   "clear",
		Short: "Remove block classes from a region, preserving terrain",
		RunE: func(cmd *cobra.Command, args []string) error {
			region, err := parseRegion(from, to)
			if err != nil {
				return err
			}
			req := worldops.ClearRequest{
				Region:             region,
				AllExceptPreserved: all,
			}
			if len(targets) > 0 {
				req.Targets = domain.NewClassSet("targets", targets...)
			}

			return a.withClient(cmd.Context(), func(ctx context.Context, client *worldops.Client) error {
				res := client.Clear(ctx, req)
				return renderResult(a.logger, res)
			})
		},
	}
	cmd.Flags().StringVar(&from, "from", "", "region corner as x,y,z (required)")
	cmd.Flags().StringVar(&to, "to", "", "opposite region corner as x,y,z (required)")
	cmd.Flags().StringSliceVar(&targets, "target", nil, "block class to remove (repeatable)")
	cmd.Flags().BoolVar(&all, "all", false, "remove every clearable class")
	cmd.MarkFlagRequired("from")
	cmd.MarkFlagRequired("to")
	return cmd
}

func newFillCmd(a *app) *cobra.Command {
	var from, to string
	var bandMin, bandMax int
	var ground string

	cmd := &cobra.Command{
		Use:   "fill",
		Short: "Reset a region's terrain with a flat surface band",
		RunE: func(cmd *cobra.Command, args []string) error {
			region, err := parseRegion(from, to)
			if err != nil {
				return err
			}
			if ground == "" {
				ground = a.cfg.Ground
			}
			req := worldops.FillRequest{
				Region:   region,
				BandYMin: bandMin,
				BandYMax: bandMax,
				Ground:   ground,
			}

			return a.withClient(cmd.Context(), func(ctx context.Context, client *worldops.Client) error {
				res := client.FillSurface(ctx, req)
				return renderResult(a.logger, res)
			})
		},
	}
	cmd.Flags().StringVar(&from, "from", "", "region corner as x,y,z (required)")
	cmd.Flags().StringVar(&to, "to", "", "opposite region corner as x,y,z (required)")
	cmd.Flags().IntVar(&bandMin, "band-min", 0, "surface band lower Y, inclusive")
	cmd.Flags().IntVar(&bandMax, "band-max", 0, "surface band upper Y, inclusive")
	cmd.Flags().StringVar(&ground, "ground", "", "surface material")
	cmd.MarkFlagRequired("from")
	cmd.MarkFlagRequired("to")
	cmd.MarkFlagRequired("band-min")
	cmd.MarkFlagRequired("band-max")
	return cmd
}

func newTimelockCmd(a *app) *cobra.Command {
	var ticks int64
	var persistWait time.Duration

	cmd := &cobra.Command{
		Use:   "timelock",
		Short: "Fix world time and disable automatic progression",
		RunE: func(cmd *cobra.Command, args []string) error {
			req := worldops.TimeLockRequest{Ticks: ticks, PersistWait: persistWait}

			return a.withClient(cmd.Context(), func(ctx context.Context, client *worldops.Client) error {
				res := client.LockTime(ctx, req)
				a.logger.Info("time lock state", log.String("state", res.State.String()))
				return renderResult(a.logger, res.OperationResult)
			})
		},
	}
	cmd.Flags().Int64Var(&ticks, "ticks", 6000, "time value to lock to")
	cmd.Flags().DurationVar(&persistWait, "persist-wait", 0, "re-verify the lock after this wait")
	return cmd
}

// withClient connects, runs fn, and closes the session on the way out.
// Interrupt signals cancel the operation's context; in-flight batches finish
// and the partial result is still rendered. With --watch-config, edits to
// the config file in use reload the safe-to-swap tunables into the client
// while it runs.
func (a *app) withClient(parent context.Context, fn func(context.Context, *worldops.Client) error) error {
	if parent == nil {
		parent = context.Background()
	}
	ctx, stop := signal.NotifyContext(parent, syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	client, err := worldops.Connect(ctx, a.cfg, worldops.WithLogger(a.logger))
	if err != nil {
		return fmt.Errorf("connect: %w", err)
	}
	defer client.Close()

	if a.watch {
		if a.cfgFile == "" {
			a.logger.Warn("--watch-config set but no config file is in use")
		} else {
			w := cliconfig.NewWatcher(a.cfgFile, a.cfg, a.logger)
			w.OnReload = func(c cliconfig.Config) { client.ApplyTunables(c) }
			go func() {
				if err := w.Run(ctx); err != nil && ctx.Err() == nil {
					a.logger.Warn("config watch stopped", log.Err(err))
				}
			}()
		}
	}

	return fn(ctx, client)
}

func renderResult(logger log.Logger, res worldops.OperationResult) error {
	for _, rec := range res.Errors {
		logger.Warn("operation error",
			log.String("kind", rec.Kind.String()),
			log.String("message", rec.Message),
			log.Bool("retryable", rec.Retryable),
			log.String("hint", rec.Hint),
		)
	}
	logger.Info("operation finished",
		log.String("op", res.OperationID),
		log.String("type", res.Op.String()),
		log.String("status", res.Status.String()),
		log.Int64("units", res.UnitsAffected),
		log.Int("batches", res.BatchesIssued),
		log.Int("probes", len(res.Verification.Probes)),
		log.Bool("verified", res.Verification.AllMatched),
		log.Duration("elapsed", res.Elapsed),
	)
	if res.Status != worldops.StatusSucceeded {
		return fmt.Errorf("operation %s: %s", res.OperationID, res.Status)
	}
	return nil
}

// parseRegion builds a region from two x,y,z corner strings.
func parseRegion(from, to string) (worldops.Region, error) {
	a, err := parsePos(from)
	if err != nil {
		return worldops.Region{}, fmt.Errorf("--from: %w", err)
	}
	b, err := parsePos(to)
	if err != nil {
		return worldops.Region{}, fmt.Errorf("--to: %w", err)
	}
	return worldops.NewRegion(a, b), nil
}

func parsePos(s string) (worldops.Pos, error) {
	parts := strings.Split(s, ",")
	if len(parts) != 3 {
		return worldops.Pos{}, fmt.Errorf("want x,y,z, got %q", s)
	}
	coords := make([]int, 3)
	for i, p := range parts {
		n, err := strconv.Atoi(strings.TrimSpace(p))
		if err != nil {
			return worldops.Pos{}, fmt.Errorf("coordinate %q: %w", p, err)
		}
		coords[i] = n
	}
	return worldops.Pos{X: coords[0], Y: coords[1], Z: coords[2]}, nil
}
