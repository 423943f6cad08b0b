package cmd

import (
	"fmt"
	"io"
	"log/slog"
	"time"

	"github.com/google/uuid"
	"github.com/rubiojr/bindplan/bridge"
	"github.com/rubiojr/bindplan/config"
	"github.com/rubiojr/bindplan/decl"
	"github.com/rubiojr/bindplan/doc"
	"github.com/rubiojr/bindplan/metrics"
	"github.com/rubiojr/bindplan/plan"
	"github.com/urfave/cli/v3"
)

// session carries what one CLI invocation needs across runs: the resolved
// config, flag overrides, the logger and the metrics registry.
type session struct {
	cfg     *config.Config
	cfgPath string
	logger  *slog.Logger
	metrics *metrics.Metrics
	report  *reporter
	stdout  io.Writer

	output      string
	format      string
	lockFile    string
	updateLock  bool
	metricsFile string
}

func newSession(cmd *cli.Command) (*session, error) {
	root := cmd.Root()
	cfg, cfgPath, err := config.Resolve(cmd.String("config"))
	if err != nil {
		return nil, err
	}

	level := slog.LevelInfo
	if cmd.Bool("verbose") {
		level = slog.LevelDebug
	}
	logger := slog.New(slog.NewTextHandler(root.ErrWriter, &slog.HandlerOptions{Level: level}))

	s := &session{
		cfg:         cfg,
		cfgPath:     cfgPath,
		logger:      logger,
		metrics:     metrics.New(),
		report:      newReporter(root.ErrWriter, colorEnabled(root.ErrWriter, cmd.Bool("no-color"))),
		stdout:      root.Writer,
		output:      firstNonEmpty(cmd.String("output"), cfg.Output.Plan),
		format:      firstNonEmpty(cmd.String("format"), cfg.Output.Format),
		lockFile:    firstNonEmpty(cmd.String("lock-file"), cfg.Output.LockFile),
		updateLock:  cmd.Bool("update-lock"),
		metricsFile: firstNonEmpty(cmd.String("metrics-file"), cfg.Output.MetricsFile),
	}
	if s.format != "json" && s.format != "yaml" {
		return nil, fmt.Errorf("unknown plan format %q (want json or yaml)", s.format)
	}
	if cfgPath != "" {
		logger.Debug("config loaded", "path", cfgPath)
	}
	return s, nil
}

// run loads the batch and analyzes it.
func (s *session) run(path string) (*plan.Plan, error) {
	batch, err := decl.Load(path)
	if err != nil {
		return nil, err
	}
	opts, err := s.cfg.Options(batch)
	if err != nil {
		return nil, err
	}

	runID := uuid.NewString()
	logger := s.logger.With("run_id", runID)
	logger.Info("analyzing", "file", path, "declarations", len(batch.Declarations))

	start := time.Now()
	out := bridge.NewAnalyzer(opts, logger).Run(batch.Decls())
	p := plan.Build(out, runID)
	s.metrics.Record(p, time.Since(start))

	if s.metricsFile != "" {
		if err := s.metrics.WriteTextfile(s.metricsFile); err != nil {
			return nil, fmt.Errorf("writing metrics: %w", err)
		}
	}
	return p, nil
}

// analyze runs the batch, writes the plan and maintains the lock file.
func (s *session) analyze(path string) (*plan.Plan, error) {
	p, err := s.run(path)
	if err != nil {
		return nil, err
	}

	if s.output == "" {
		if err := plan.Write(s.stdout, p, s.format); err != nil {
			return nil, err
		}
	} else {
		if err := plan.WriteFile(s.output, p, s.format); err != nil {
			return nil, err
		}
		s.logger.Info("plan written", "path", s.output, "functions", len(p.Functions))
	}
	s.report.diagnostics(p.Diagnostics)

	if s.lockFile == "" {
		return p, nil
	}
	old, err := plan.ReadLockFile(s.lockFile)
	if err != nil {
		return nil, err
	}
	next := plan.LockFromPlan(p)
	drift := old.Compare(next)
	s.report.drift(drift)
	if s.updateLock || len(old.Entries) == 0 {
		if err := plan.WriteLockFile(s.lockFile, next); err != nil {
			return nil, err
		}
		s.logger.Info("lock file written", "path", s.lockFile, "entries", len(next.Entries))
	}
	return p, nil
}

// drift compares p with the lock file, if one is configured.
func (s *session) drift(p *plan.Plan) ([]plan.Drift, error) {
	if s.lockFile == "" {
		return nil, nil
	}
	old, err := plan.ReadLockFile(s.lockFile)
	if err != nil {
		return nil, err
	}
	return old.Compare(plan.LockFromPlan(p)), nil
}

func (s *session) showPlan(p *plan.Plan) error {
	_, err := fmt.Fprint(s.stdout, doc.FormatPlan(p))
	return err
}

func (s *session) showFunction(p *plan.Plan, name string) error {
	found := p.Lookup(name)
	if len(found) == 0 {
		return fmt.Errorf("no function named %q in the plan", name)
	}
	for i, f := range found {
		if i > 0 {
			fmt.Fprintln(s.stdout)
		}
		fmt.Fprint(s.stdout, doc.FormatFunction(f))
	}
	return nil
}

func firstNonEmpty(values ...string) string {
	for _, v := range values {
		if v != "" {
			return v
		}
	}
	return ""
}
