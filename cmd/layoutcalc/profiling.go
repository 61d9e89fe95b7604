package main

import (
	"fmt"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"layoutcalc/internal/prof"
)

// setupProfiling starts the profilers requested by the persistent flags.
// It returns a nil session when none is requested.
func setupProfiling(cmd *cobra.Command) (*prof.Session, error) {
	root := cmd.Root()

	var opts prof.Options
	var err error
	if opts.CPU, err = root.PersistentFlags().GetString("cpu-profile"); err != nil {
		return nil, fmt.Errorf("failed to get cpu-profile flag: %w", err)
	}
	if opts.Mem, err = root.PersistentFlags().GetString("mem-profile"); err != nil {
		return nil, fmt.Errorf("failed to get mem-profile flag: %w", err)
	}
	if opts.Trace, err = root.PersistentFlags().GetString("runtime-trace"); err != nil {
		return nil, fmt.Errorf("failed to get runtime-trace flag: %w", err)
	}
	if !opts.Enabled() {
		return nil, nil
	}
	s, err := prof.Start(opts)
	if err != nil {
		return nil, err
	}
	logger.Debug("profiling enabled",
		zap.String("cpu", opts.CPU), zap.String("mem", opts.Mem), zap.String("trace", opts.Trace))
	return s, nil
}
