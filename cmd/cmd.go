package cmd

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"os/signal"

	"github.com/urfave/cli/v3"
)

// ErrCheckFailed is returned by the check command when a declaration
// failed analysis or an assigned name drifted from the lock file.
var ErrCheckFailed = errors.New("check failed")

// Execute runs the bindplan CLI with the given version string.
func Execute(version string) {
	cmd := newCommand(version, os.Stdout, os.Stderr)
	if err := cmd.Run(context.Background(), os.Args); err != nil {
		fmt.Fprintf(os.Stderr, "error: %v\n", err)
		os.Exit(1)
	}
}

func newCommand(version string, stdout, stderr io.Writer) *cli.Command {
	outputFlags := []cli.Flag{
		&cli.StringFlag{
			Name:    "output",
			Aliases: []string{"o"},
			Usage:   "Write the plan to this file instead of stdout",
		},
		&cli.StringFlag{
			Name:  "format",
			Usage: "Plan format: json or yaml",
		},
		&cli.StringFlag{
			Name:  "lock-file",
			Usage: "Name lock file used to detect drift",
		},
		&cli.BoolFlag{
			Name:  "update-lock",
			Usage: "Rewrite the lock file with the names of this run",
		},
		&cli.StringFlag{
			Name:  "metrics-file",
			Usage: "Write run metrics as a Prometheus textfile",
		},
	}

	return &cli.Command{
		Name:                   "bindplan",
		Usage:                  "Plan the bindings of native functions into a managed language",
		Version:                version,
		UseShortOptionHandling: true,
		Writer:                 stdout,
		ErrWriter:              stderr,
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:    "config",
				Aliases: []string{"c"},
				Usage:   "Config file (default: $BINDPLAN_CONFIG or ./bindplan.toml)",
			},
			&cli.BoolFlag{
				Name:    "verbose",
				Aliases: []string{"v"},
				Usage:   "Enable debug logging",
			},
			&cli.BoolFlag{
				Name:    "no-color",
				Aliases: []string{"C"},
				Usage:   "Disable ANSI color output",
			},
		},
		Commands: []*cli.Command{
			{
				Name:      "analyze",
				Usage:     "Analyze a declaration batch and write the plan",
				ArgsUsage: "<decls.json|decls.yaml>",
				Flags:     outputFlags,
				Action:    analyzeAction,
			},
			{
				Name:      "check",
				Usage:     "Fail if any declaration fails or any name drifted",
				ArgsUsage: "<decls.json|decls.yaml>",
				Flags: []cli.Flag{
					&cli.StringFlag{
						Name:  "lock-file",
						Usage: "Name lock file used to detect drift",
					},
				},
				Action: checkAction,
			},
			{
				Name:      "show",
				Usage:     "List the plan of a declaration batch",
				ArgsUsage: "<decls.json|decls.yaml> [name]",
				Action:    showAction,
			},
			{
				Name:      "watch",
				Usage:     "Re-run analyze whenever the declarations or config change",
				ArgsUsage: "<decls.json|decls.yaml>",
				Flags: append(outputFlags, &cli.DurationFlag{
					Name:  "debounce",
					Usage: "Quiet period before re-running",
				}),
				Action: watchAction,
			},
		},
	}
}

func analyzeAction(ctx context.Context, cmd *cli.Command) error {
	if cmd.NArg() < 1 {
		return fmt.Errorf("usage: bindplan analyze [-o plan.json] <decls>")
	}
	s, err := newSession(cmd)
	if err != nil {
		return err
	}
	_, err = s.analyze(cmd.Args().First())
	return err
}

func checkAction(ctx context.Context, cmd *cli.Command) error {
	if cmd.NArg() < 1 {
		return fmt.Errorf("usage: bindplan check <decls>")
	}
	s, err := newSession(cmd)
	if err != nil {
		return err
	}
	p, err := s.run(cmd.Args().First())
	if err != nil {
		return err
	}
	s.report.diagnostics(p.Diagnostics)

	drift, err := s.drift(p)
	if err != nil {
		return err
	}
	s.report.drift(drift)

	if p.Failed() || len(drift) > 0 {
		return fmt.Errorf("%w: %d failed, %d drifted", ErrCheckFailed, len(p.Diagnostics), len(drift))
	}
	s.report.ok(len(p.Functions))
	return nil
}

func showAction(ctx context.Context, cmd *cli.Command) error {
	if cmd.NArg() < 1 {
		return fmt.Errorf("usage: bindplan show <decls> [name]")
	}
	s, err := newSession(cmd)
	if err != nil {
		return err
	}
	p, err := s.run(cmd.Args().First())
	if err != nil {
		return err
	}
	if cmd.NArg() > 1 {
		return s.showFunction(p, cmd.Args().Get(1))
	}
	return s.showPlan(p)
}

func watchAction(ctx context.Context, cmd *cli.Command) error {
	if cmd.NArg() < 1 {
		return fmt.Errorf("usage: bindplan watch <decls>")
	}
	s, err := newSession(cmd)
	if err != nil {
		return err
	}
	debounce := cmd.Duration("debounce")
	if debounce <= 0 {
		debounce = s.cfg.Watch.Debounce
	}
	w := &watcher{
		session:  s,
		decls:    cmd.Args().First(),
		config:   s.cfgPath,
		debounce: debounce,
	}
	ctx, stop := signal.NotifyContext(ctx, os.Interrupt)
	defer stop()
	return w.run(ctx)
}
