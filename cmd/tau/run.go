package main

import (
	"time"

	"github.com/pkg/errors"
	"github.com/spf13/cobra"

	"github.com/tau-dev/tau/internal/dev"
	"github.com/tau-dev/tau/internal/proc"
)

func runCmd() *cobra.Command {
	var flags projectFlags

	cmd := &cobra.Command{
		Use:   "run",
		Short: "Build and run the app",
		Long: `Build the app once and run it without the reload supervisor.

Examples:
  tau run
  tau run --port=9000`,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runApp(&flags)
		},
	}

	flags.register(cmd)
	return cmd
}

func runApp(flags *projectFlags) error {
	cfg, err := flags.load()
	if err != nil {
		return err
	}

	ctx, stop := signalContext()
	defer stop()

	validator := dev.NewGoValidator(dev.GoValidatorConfig{
		ProjectPath: cfg.Dir(),
		Entry:       cfg.Entry,
		Output:      cfg.OutputPath(),
		Tags:        cfg.Build.Tags,
	})
	if err := validator.Parse(); err != nil {
		return err
	}
	result := validator.Build(ctx)
	if result.Error != nil {
		return result.Error
	}
	success("Built in %s", result.Duration.Round(time.Millisecond))

	p, err := proc.Start(ctx, proc.Spec{
		Path: cfg.OutputPath(),
		Args: workerArgs(cfg, false),
		Dir:  cfg.Dir(),
	})
	if err != nil {
		return err
	}

	<-p.Done()
	if ctx.Err() != nil {
		return nil
	}
	if code := p.ExitCode(); code != 0 {
		return errors.Errorf("app exited with code %d", code)
	}
	return nil
}
