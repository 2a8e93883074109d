package main

import (
	"context"
	"errors"
	"fmt"

	tea "github.com/charmbracelet/bubbletea"
	"go.opentelemetry.io/otel/exporters/stdout/stdoutlog"
	"go.opentelemetry.io/otel/log/global"
	sdklog "go.opentelemetry.io/otel/sdk/log"
)

// setupLogging sends the standard logger and every otelslog logger to path.
// The returned function flushes pending records and closes the file.
func setupLogging(path string) (func() error, error) {
	f, err := tea.LogToFile(path, "sunday")
	if err != nil {
		return nil, fmt.Errorf("failed to open log file: %w", err)
	}

	exporter, err := stdoutlog.New(stdoutlog.WithWriter(f))
	if err != nil {
		_ = f.Close()
		return nil, fmt.Errorf("failed to create log exporter: %w", err)
	}

	provider := sdklog.NewLoggerProvider(sdklog.WithProcessor(sdklog.NewSimpleProcessor(exporter)))
	global.SetLoggerProvider(provider)

	return func() error {
		return errors.Join(provider.Shutdown(context.Background()), f.Close())
	}, nil
}
