// Package main is the entry point for the pomodoro terminal timer.
package main

import (
	"fmt"
	"os"

	"github.com/charmbracelet/lipgloss"
)

// Build information injected via ldflags at build time.
var (
	version = "dev"
	commit  = "none"
	date    = "unknown"
)

func init() {
	// Query the terminal background before any Bubble Tea program starts so
	// the OSC 11 reply cannot leak into the input loop.
	_ = lipgloss.HasDarkBackground()
}

func main() {
	root := newRootCmd(fmt.Sprintf("%s (commit: %s, built: %s)", version, commit, date))
	if err := root.Execute(); err != nil {
		os.Exit(1)
	}
}
