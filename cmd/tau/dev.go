package main

import (
	"context"
	"os"
	"os/exec"
	"os/signal"
	"strconv"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/tau-dev/tau/internal/config"
	"github.com/tau-dev/tau/internal/dev"
	tauerrors "github.com/tau-dev/tau/internal/errors"
)

// projectFlags are the overrides shared by dev and run.
type projectFlags struct {
	port     int
	noWindow bool
}

func (f *projectFlags) register(cmd *cobra.Command) {
	cmd.Flags().IntVarP(&f.port, "port", "p", 0, "Port to run on (default from tau.json)")
	cmd.Flags().BoolVar(&f.noWindow, "no-window", false, "Do not open the native window")
}

// load reads the project configuration and applies the overrides. A
// project without a configuration file uses the defaults in the working
// directory.
func (f *projectFlags) load() (*config.Config, error) {
	cfg, err := config.LoadFromWorkingDir()
	if tauerrors.Is(err, "E141") {
		cfg, err = config.New(), nil
	}
	if err != nil {
		return nil, err
	}
	if f.port > 0 {
		cfg.Port = f.port
	}
	if f.noWindow {
		cfg.NoWindow = true
	}
	return cfg, cfg.Validate()
}

// workerArgs are the process flags the app binary understands.
func workerArgs(cfg *config.Config, devMode bool) []string {
	var args []string
	if devMode {
		args = append(args, "--dev")
	}
	args = append(args, "--port="+strconv.Itoa(cfg.Port))
	if cfg.NoWindow {
		args = append(args, "--no-window")
	}
	return args
}

func signalContext() (context.Context, context.CancelFunc) {
	return signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
}

func devCmd() *cobra.Command {
	var flags projectFlags

	cmd := &cobra.Command{
		Use:   "dev",
		Short: "Build, run and hot reload the app",
		Long: `Build the app and run it under the reload supervisor.

The app watches its sources and validates every change with go build.
With the default hard policy this command then starts a fresh process
running the new build. The soft policy ("reload": {"policy": "soft"})
re-runs the entry function of the running process instead: it re-applies
entry-time state and data files but keeps the compiled code, so Go edits
wait for the next restart. Build errors are shown in the console and in
every connected client while the previous build keeps running.

Examples:
  tau dev
  tau dev --port=9000
  tau dev --no-window`,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runDev(&flags)
		},
	}

	flags.register(cmd)
	return cmd
}

func runDev(flags *projectFlags) error {
	if _, err := exec.LookPath("go"); err != nil {
		errorMsg("Go is not installed or not in PATH")
		info("Install Go from https://go.dev/dl/")
		return err
	}

	cfg, err := flags.load()
	if err != nil {
		return err
	}

	printBanner()
	info("Project: %s", cfg.Dir())
	info("Policy:  %s", cfg.Reload.Policy)
	info("")

	validator := dev.NewGoValidator(dev.GoValidatorConfig{
		ProjectPath: cfg.Dir(),
		Entry:       cfg.Entry,
		Output:      cfg.OutputPath(),
		Tags:        cfg.Build.Tags,
	})

	runner := dev.NewRunner(dev.RunnerConfig{
		Validator: validator,
		Binary:    cfg.OutputPath(),
		Args:      workerArgs(cfg, true),
		Dir:       cfg.Dir(),
		Port:      cfg.Port,
		OnReady: func(generation int) {
			if generation > 1 {
				success("Restarted (generation %d)", generation)
			}
		},
	})

	ctx, stop := signalContext()
	defer stop()

	if err := runner.Run(ctx); err != nil {
		return err
	}
	info("Shutting down...")
	return nil
}
