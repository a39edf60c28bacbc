// Copyright (C) 2022-2025, Lux Industries Inc. All rights reserved.
// See the file LICENSE for licensing terms.

package ux

import (
	"fmt"
	"io"
	"os"
	"strings"
	"sync"
	"time"

	"github.com/mattn/go-isatty"
)

// ProgressTracker renders step progress, with a spinner on terminals and
// plain lines otherwise.
type ProgressTracker struct {
	writer         io.Writer
	isTTY          bool
	spinnerChars   []string
	spinnerIndex   int
	lastLineLength int
	startTime      time.Time
	mu             sync.Mutex
}

func NewProgressTracker(writer io.Writer) *ProgressTracker {
	return &ProgressTracker{
		writer:       writer,
		isTTY:        isTerminal(writer),
		spinnerChars: []string{"⠋", "⠙", "⠹", "⠸", "⠼", "⠴", "⠦", "⠧", "⠇", "⠏"},
		startTime:    time.Now(),
	}
}

func isTerminal(w io.Writer) bool {
	f, ok := w.(*os.File)
	if !ok {
		return false
	}
	return isatty.IsTerminal(f.Fd()) || isatty.IsCygwinTerminal(f.Fd())
}

// StartStep begins a new step and restarts the step clock.
func (pt *ProgressTracker) StartStep(stepName string) {
	pt.mu.Lock()
	defer pt.mu.Unlock()

	pt.startTime = time.Now()
	if pt.isTTY {
		pt.clearLine()
		fmt.Fprintf(pt.writer, "%s %s...", pt.nextSpinner(), stepName)
		pt.lastLineLength = len(stepName) + 5
	} else {
		fmt.Fprintf(pt.writer, "%s...\n", stepName)
	}
}

func (pt *ProgressTracker) CompleteStep(stepName string) {
	pt.mu.Lock()
	defer pt.mu.Unlock()

	pt.clearLine()
	fmt.Fprintf(pt.writer, "✓ %s (%.1fs)\n", stepName, time.Since(pt.startTime).Seconds())
	pt.startTime = time.Now()
}

func (pt *ProgressTracker) FailStep(stepName string, err error) {
	pt.mu.Lock()
	defer pt.mu.Unlock()

	pt.clearLine()
	fmt.Fprintf(pt.writer, "✗ %s: %v\n", stepName, err)
}

func (pt *ProgressTracker) PrintInfo(message string) {
	pt.printLine("ℹ", message)
}

func (pt *ProgressTracker) PrintWarning(message string) {
	pt.printLine("⚠", message)
}

func (pt *ProgressTracker) PrintSuccess(message string) {
	pt.printLine("✓", message)
}

func (pt *ProgressTracker) printLine(symbol, message string) {
	pt.mu.Lock()
	defer pt.mu.Unlock()

	pt.clearLine()
	fmt.Fprintf(pt.writer, "%s %s\n", symbol, message)
}

func (pt *ProgressTracker) nextSpinner() string {
	char := pt.spinnerChars[pt.spinnerIndex]
	pt.spinnerIndex = (pt.spinnerIndex + 1) % len(pt.spinnerChars)
	return char
}

func (pt *ProgressTracker) clearLine() {
	if pt.isTTY && pt.lastLineLength > 0 {
		fmt.Fprint(pt.writer, "\r")
		fmt.Fprint(pt.writer, strings.Repeat(" ", pt.lastLineLength))
		fmt.Fprint(pt.writer, "\r")
		pt.lastLineLength = 0
	}
}
