package main

import (
	"context"
	"os"

	tea "github.com/charmbracelet/bubbletea"

	"nodeproto/internal/driver"
	"nodeproto/internal/ui"
)

type lintOutcome struct {
	result *driver.Result
	err    error
}

// runLintWithUI runs DiagnoseDir in the background and renders its progress
// events until the run finishes.
func runLintWithUI(ctx context.Context, title string, files []string, dir string, opts driver.Options) (*driver.Result, error) {
	events := make(chan driver.Event, 256)
	outcomeCh := make(chan lintOutcome, 1)

	go func() {
		runOpts := opts
		runOpts.Progress = driver.ChannelSink(events)
		res, err := driver.DiagnoseDir(ctx, dir, runOpts)
		outcomeCh <- lintOutcome{result: res, err: err}
		close(events)
	}()

	model := ui.NewProgressModel(title, files, events)
	program := tea.NewProgram(model, tea.WithOutput(os.Stderr))
	_, uiErr := program.Run()
	if uiErr != nil {
		// дочитываем события, иначе воркеры встанут на полном канале
		go func() {
			for range events {
			}
		}()
	}
	outcome := <-outcomeCh
	if uiErr != nil {
		return outcome.result, uiErr
	}
	return outcome.result, outcome.err
}
