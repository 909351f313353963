package main

import (
	"context"
	"os"

	tea "github.com/charmbracelet/bubbletea"

	"jasmc/internal/buildpipeline"
	"jasmc/internal/driver"
	"jasmc/internal/ui"
)

type compileOutcome struct {
	results []*driver.Result
	err     error
}

// runCompileWithUI compiles units while a Bubble Tea view renders progress.
// The view quits when the compile goroutine closes the event channel.
func runCompileWithUI(ctx context.Context, title string, units []string, opts driver.Options) ([]*driver.Result, error) {
	events := make(chan buildpipeline.Event, 256)
	outcomeCh := make(chan compileOutcome, 1)

	go func() {
		opts.Progress = buildpipeline.ChannelSink{Ch: events}
		res, err := driver.CompileAll(ctx, units, &opts)
		outcomeCh <- compileOutcome{results: res, err: err}
		close(events)
	}()

	model := ui.NewProgressModel(title, units, events)
	program := tea.NewProgram(model, tea.WithOutput(os.Stdout))
	_, uiErr := program.Run()
	if uiErr != nil {
		// the view is gone; keep the workers from blocking on a full channel
		go func() {
			for range events {
			}
		}()
	}
	outcome := <-outcomeCh
	if uiErr != nil {
		return outcome.results, uiErr
	}
	return outcome.results, outcome.err
}
