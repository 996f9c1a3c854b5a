package main

import (
	"io"
	"os"

	"github.com/YuminosukeSato/bikerental/inference"
	"github.com/YuminosukeSato/bikerental/pkg/log"
	"github.com/YuminosukeSato/bikerental/report"
	"github.com/YuminosukeSato/bikerental/store"
)

var stdout io.Writer = os.Stdout

func setupLogging(level, format string) error {
	if level == "" {
		level = "info"
	}
	if format == "" {
		format = log.FormatConsole
	}
	return log.SetupLogger(level, format)
}

func newPrinter(noColor bool) *report.Printer {
	return report.NewPrinter(stdout, noColor)
}

func loadEngine(path string) (*inference.Engine, error) {
	m, err := store.Load(path)
	if err != nil {
		return nil, err
	}
	return inference.NewEngine(m)
}
