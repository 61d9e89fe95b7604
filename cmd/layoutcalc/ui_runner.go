package main

import (
	"context"
	"os"

	tea "github.com/charmbracelet/bubbletea"

	"layoutcalc/internal/driver"
	"layoutcalc/internal/ui"
)

type runOutcome struct {
	result *driver.Result
	err    error
}

// runWithUI drives the batch while a progress model renders its events on
// stderr. Quitting the UI with Ctrl-C cancels the batch.
func runWithUI(ctx context.Context, title string, files []string, opts driver.Options) (*driver.Result, error) {
	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	events := make(chan driver.Event, 256)
	outcomeCh := make(chan runOutcome, 1)
	go func() {
		opts.Sink = driver.ChannelSink{Ch: events}
		res, err := driver.Run(ctx, files, opts)
		outcomeCh <- runOutcome{result: res, err: err}
		close(events)
	}()

	model := ui.NewProgressModel(title, files, events)
	program := tea.NewProgram(model, tea.WithOutput(os.Stderr), tea.WithContext(ctx))
	final, uiErr := program.Run()
	if ui.Interrupted(final) {
		cancel()
	}
	// UI больше не читает канал: дочитываем, чтобы драйвер не встал на полном буфере.
	go func() {
		for range events {
		}
	}()

	outcome := <-outcomeCh
	if uiErr != nil && outcome.err == nil && ctx.Err() == nil {
		return outcome.result, uiErr
	}
	return outcome.result, outcome.err
}
