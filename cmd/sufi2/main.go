// Package main provides sufi2 - SWAT-CUP SUFI2 calibration passes and result extraction.
package main

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"path/filepath"
	"strings"
	"syscall"
	"time"

	"github.com/jessevdk/go-flags"

	"github.com/umputun/sufi2/pkg/config"
	"github.com/umputun/sufi2/pkg/executor"
	"github.com/umputun/sufi2/pkg/launch"
	"github.com/umputun/sufi2/pkg/notify"
	"github.com/umputun/sufi2/pkg/progress"
	"github.com/umputun/sufi2/pkg/project"
	"github.com/umputun/sufi2/pkg/report"
	"github.com/umputun/sufi2/pkg/runner"
	"github.com/umputun/sufi2/pkg/session"
	"github.com/umputun/sufi2/pkg/status"
)

// opts holds all command-line options.
type opts struct {
	Pre   bool     `long:"pre" description:"run SUFI2_pre"`
	Run   bool     `long:"run" description:"run SUFI2_run"`
	Post  bool     `long:"post" description:"run SUFI2_post"`
	All   bool     `short:"a" long:"all" description:"run pre, run and post in order"`
	Tools []string `long:"tool" description:"run a single SUFI2 program, e.g. goal_fn (repeatable)"`
	Async bool     `long:"async" description:"launch stages in the background and poll them"`

	Goal   bool   `short:"g" long:"goal" description:"parse and show goal.txt"`
	Vars   bool   `long:"vars" description:"list the variable manifest"`
	Trace  bool   `short:"t" long:"trace" description:"parse every variable trace in the manifest"`
	Strict bool   `long:"strict" description:"fail on trace lines that are normally skipped"`
	Rows   int    `long:"rows" default:"20" description:"goal table rows to show, -1 for all"`
	YAML   string `long:"yaml" description:"write results as YAML to this file, - for stdout"`
	Copy   string `long:"copy-output" description:"copy SUFI2.OUT to this new directory after the pass"`

	Columns   []string `long:"column" description:"goal table column to show, e.g. goal_value (repeatable)"`
	TraceData bool     `long:"trace-data" description:"include every trace value in the YAML output"`

	Swatcup   string `long:"swatcup" description:"SWAT-CUP version (5.1.6.2 or 2019), overrides config"`
	Launchers string `long:"launchers" description:"YAML launcher table, overrides the built-in one"`
	ConfigDir string `long:"config-dir" env:"SUFI2_CONFIG_DIR" description:"global config directory"`
	NoColor   bool   `long:"no-color" description:"disable color output"`
	Debug     bool   `short:"d" long:"debug" description:"enable debug logging"`
	Version   bool   `short:"v" long:"version" description:"print version and exit"`

	Project string `positional-arg-name:"project" description:"SUFI2 project directory (default: current directory)"`
}

var revision = "unknown"

func main() {
	fmt.Printf("sufi2 %s\n", revision)

	var o opts
	parser := flags.NewParser(&o, flags.Default)
	parser.Usage = "[OPTIONS] [project]"

	args, err := parser.Parse()
	if err != nil {
		var flagsErr *flags.Error
		if errors.As(err, &flagsErr) && flagsErr.Type == flags.ErrHelp {
			os.Exit(0)
		}
		os.Exit(1)
	}

	if o.Version {
		os.Exit(0)
	}

	if len(args) > 0 {
		o.Project = args[0]
	}

	// setup context with signal handling, a canceled context kills the running stage
	ctx, cancel := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	if err := run(ctx, o); err != nil {
		fmt.Fprintf(os.Stderr, "error: %v\n", err)
		os.Exit(1)
	}
}

func run(ctx context.Context, o opts) error {
	root := o.Project
	if root == "" {
		root = "."
	}
	proj, err := project.Open(root)
	if err != nil {
		return fmt.Errorf("open project: %w", err)
	}

	cfg, err := config.LoadForProject(o.ConfigDir, proj.Root())
	if err != nil {
		return fmt.Errorf("load config: %w", err)
	}
	colors := progress.NewColors(cfg.Colors)

	stages, err := selectStages(o)
	if err != nil {
		return err
	}
	tools, err := selectTools(o.Tools)
	if err != nil {
		return err
	}

	version, err := launch.ParseVersion(firstNonEmpty(o.Swatcup, cfg.SwatcupVersion))
	if err != nil {
		return err
	}
	strategy, err := loadStrategy(version, launcherTablePath(o.Launchers, cfg.LauncherTable, cfg.LocalDir(), proj.Root()))
	if err != nil {
		return err
	}

	// runs get a progress file in the work dir, result-only invocations log to stdout
	active := len(stages) > 0 || len(tools) > 0
	logPath := ""
	if active {
		logPath = filepath.Join(proj.WorkDir(), progress.FileName)
	}
	holder := &status.StageHolder{}
	log, err := progress.NewLogger(progress.Config{
		Path:    logPath,
		Project: proj.Root(),
		Version: string(version),
		Stages:  stages,
		NoColor: o.NoColor,
		Colors:  cfg.Colors,
	}, holder)
	if err != nil {
		return fmt.Errorf("create progress logger: %w", err)
	}
	defer log.Close()

	if active {
		changed, bootErr := proj.Bootstrap(launch.Executables(strategy))
		if bootErr != nil {
			return fmt.Errorf("bootstrap executables: %w", bootErr)
		}
		if o.Debug && len(changed) > 0 {
			log.Print("made executable: %s", strings.Join(changed, ", "))
		}
	}

	notifier, err := notify.New(cfg.NotifyParams(), log)
	if err != nil {
		return fmt.Errorf("notifications: %w", err)
	}

	inv := executor.New(log.PrintAligned)
	sess := session.New(proj, strategy,
		session.WithInvoker(inv),
		session.WithStrict(o.Strict || cfg.StrictTrace),
		session.WithLogger(log),
		session.WithStageHolder(holder),
	)
	defer sess.Close()

	if active {
		colors.Info().Printf("project: %s (swat-cup %s, %s)\n", proj.Root(), version, strategy.Name())
		if logPath != "" {
			colors.Info().Printf("progress log: %s\n\n", log.Path())
		}
	}

	for _, tool := range tools {
		code, toolErr := sess.RunTool(ctx, tool)
		if toolErr != nil {
			return toolErr //nolint:wrapcheck // session errors name the tool
		}
		if code != 0 {
			return fmt.Errorf("%s exited with code %d", tool, code)
		}
	}

	r := runner.New(runner.Config{
		Stages:       stages,
		Async:        o.Async,
		PollInterval: time.Duration(cfg.PollIntervalMs) * time.Millisecond,
		FailOnStale:  cfg.StaleOutput == config.StaleFail,
		GoalWait:     time.Duration(cfg.GoalWaitMs) * time.Millisecond,
		Goal:         o.Goal || o.YAML != "",
		Traces:       o.Trace,
		CopyOutput:   o.Copy,
	}, sess, log)
	out, runErr := r.Run(ctx)

	if len(stages) > 0 {
		// notifications still go out after an interrupt
		notifier.Send(context.WithoutCancel(ctx), notifyResult(proj.Root(), string(version), stages, log.Elapsed(), out, runErr))
	}
	if runErr != nil {
		return fmt.Errorf("runner: %w", runErr)
	}

	if o.Vars && out.Manifest == nil {
		if out.Manifest, err = sess.ReadManifest(); err != nil {
			return fmt.Errorf("manifest: %w", err)
		}
	}

	rep := report.Report{Project: proj.Root(), Version: string(version), Goal: out.Goal,
		Manifest: out.Manifest, Traces: out.Traces, GoalColumns: o.Columns, TraceData: o.TraceData}
	if err := writeReport(rep, o); err != nil {
		return err
	}

	if active {
		colors.Info().Printf("\ncompleted in %s\n", log.Elapsed())
	}
	return nil
}

// selectStages maps the stage flags to stages in pass order.
func selectStages(o opts) ([]status.Stage, error) {
	if o.All {
		if o.Pre || o.Run || o.Post {
			return nil, errors.New("--all can't be combined with --pre, --run or --post")
		}
		return status.Stages(), nil
	}
	var res []status.Stage
	if o.Pre {
		res = append(res, status.StagePrepare)
	}
	if o.Run {
		res = append(res, status.StageExecute)
	}
	if o.Post {
		res = append(res, status.StagePostProcess)
	}
	return res, nil
}

func selectTools(names []string) ([]launch.Tool, error) {
	res := make([]launch.Tool, 0, len(names))
	for _, name := range names {
		t, err := launch.ParseTool(name)
		if err != nil {
			return nil, err //nolint:wrapcheck // error names the tool
		}
		res = append(res, t)
	}
	return res, nil
}

// launcherTablePath picks the launcher table: the flag wins over config. a relative config
// value is resolved against the local config dir, then the project root.
func launcherTablePath(flagValue, configValue, localDir, projectRoot string) string {
	if flagValue != "" {
		return flagValue
	}
	if configValue == "" || filepath.IsAbs(configValue) {
		return configValue
	}
	if localDir != "" {
		if _, err := os.Stat(filepath.Join(localDir, configValue)); err == nil {
			return filepath.Join(localDir, configValue)
		}
	}
	return filepath.Join(projectRoot, configValue)
}

func loadStrategy(version launch.Version, tablePath string) (launch.Strategy, error) {
	if tablePath != "" {
		tbl, err := launch.LoadTable(tablePath)
		if err != nil {
			return nil, fmt.Errorf("launcher table %s: %w", tablePath, err)
		}
		return tbl, nil
	}
	tbl, err := launch.Current(version)
	if err != nil {
		return nil, fmt.Errorf("launch strategy: %w", err)
	}
	return tbl, nil
}

// notifyResult builds the completion notification of a pass.
func notifyResult(root, version string, stages []status.Stage, elapsed string, out *runner.Outcome,
	runErr error) notify.Result {
	names := make([]string, 0, len(stages))
	for _, s := range stages {
		names = append(names, string(s))
	}
	res := notify.Result{
		Status:   notify.StatusSuccess,
		Project:  root,
		Version:  version,
		Stages:   strings.Join(names, ","),
		Duration: elapsed,
	}
	if out != nil {
		if out.Goal != nil {
			res.GoalType = out.Goal.GoalFunctionType
			res.Parameters = out.Goal.ParameterCount
			res.Simulations = out.Goal.SimulationCount
		}
		res.Traces = len(out.Traces)
	}
	if runErr != nil {
		res.Status = notify.StatusFailure
		res.Error = runErr.Error()
	}
	return res
}

func writeReport(rep report.Report, o opts) error {
	if o.YAML != "" {
		data, err := report.YAML(rep)
		if err != nil {
			return err //nolint:wrapcheck // report errors are descriptive
		}
		if o.YAML == "-" {
			_, _ = os.Stdout.Write(data)
		} else if err := os.WriteFile(o.YAML, data, 0o600); err != nil {
			return fmt.Errorf("write yaml: %w", err)
		}
	}

	if !o.Goal && !o.Trace && !o.Vars {
		return nil
	}
	rendered, err := report.Render(report.Markdown(rep, o.Rows), o.NoColor)
	if err != nil {
		return err //nolint:wrapcheck // report errors are descriptive
	}
	fmt.Println(rendered)
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
