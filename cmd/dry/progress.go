// Copyright 2025 KrakLabs
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//     http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.
//
// SPDX-License-Identifier: Apache-2.0

package main

import (
	"io"
	"os"
	"time"

	"github.com/mattn/go-isatty"
	"github.com/schollz/progressbar/v3"
)

// ProgressConfig determines if and how a spinner should be displayed while
// an orchestrator operation runs.
type ProgressConfig struct {
	// Enabled indicates whether a spinner should be shown.
	Enabled bool

	// Writer is where progress output goes (always os.Stderr).
	Writer io.Writer

	// NoColor disables colored output in the spinner.
	NoColor bool
}

// NewProgressConfig derives progress configuration from global flags and TTY
// detection. Progress is disabled when --json or -q is set, or stderr is not
// a TTY (piped output, CI environments, etc.).
func NewProgressConfig(globals GlobalFlags) ProgressConfig {
	enabled := !globals.JSON && !globals.Quiet && isatty.IsTerminal(os.Stderr.Fd())
	return ProgressConfig{Enabled: enabled, Writer: os.Stderr, NoColor: globals.NoColor}
}

// NewSpinner creates an indeterminate progress spinner for a long-running
// orchestrator call whose total unit count isn't known up front.
// Returns nil if progress is disabled, so callers can safely no-op on it.
func NewSpinner(cfg ProgressConfig, description string) *progressbar.ProgressBar {
	if !cfg.Enabled {
		return nil
	}
	return progressbar.NewOptions(-1,
		progressbar.OptionSetDescription(description),
		progressbar.OptionSetWriter(cfg.Writer),
		progressbar.OptionSpinnerType(14),
		progressbar.OptionClearOnFinish(),
		progressbar.OptionEnableColorCodes(!cfg.NoColor),
	)
}

func finishSpinner(bar *progressbar.ProgressBar) {
	if bar == nil {
		return
	}
	_ = bar.Finish()
}

// spinWhile runs fn on a background goroutine while animating the spinner,
// and returns fn's error. Used by commands that call a single blocking
// orchestrator method with no intermediate progress signal.
func spinWhile(bar *progressbar.ProgressBar, fn func() error) error {
	if bar == nil {
		return fn()
	}
	done := make(chan struct{})
	go func() {
		ticker := time.NewTicker(65 * time.Millisecond)
		defer ticker.Stop()
		for {
			select {
			case <-done:
				return
			case <-ticker.C:
				_ = bar.Add(1)
			}
		}
	}()
	err := fn()
	close(done)
	finishSpinner(bar)
	return err
}
