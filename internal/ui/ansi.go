// Package ui prints the plain (non-interactive) output of the todo CLI.
package ui

import (
	"fmt"
	"io"
	"os"

	"github.com/mattn/go-isatty"
)

var (
	reset = "\033[0m"
	bold  = "\033[1m"
	dim   = "\033[2m"

	fgGray   = "\033[90m"
	fgGreen  = "\033[32m"
	fgYellow = "\033[33m"
	fgBlue   = "\033[34m"
	fgRed    = "\033[31m"

	symCheck = "✔"
	symCross = "✖"
)

var (
	forceColor   bool
	disableColor = os.Getenv("NO_COLOR") != ""

	out    io.Writer = os.Stdout
	errOut io.Writer = os.Stderr
)

func SetColorForcing(force, disable bool) {
	forceColor = force
	disableColor = disable
}

// SetOutput redirects normal and error output.
func SetOutput(stdout, stderr io.Writer) {
	out, errOut = stdout, stderr
}

func isTTY() bool {
	f, ok := out.(*os.File)
	if !ok {
		return false
	}
	return isatty.IsTerminal(f.Fd()) || isatty.IsCygwinTerminal(f.Fd())
}

// IsTerminal reports whether normal output goes to a terminal.
func IsTerminal() bool { return isTTY() }

func C(color, s string) string {
	if disableColor || color == "" {
		return s
	}
	if forceColor || isTTY() {
		return color + s + reset
	}
	return s
}

func Dim(s string) string { return C(dim, s) }

func OK(msg string)   { fmt.Fprintln(out, C(fgGreen, symCheck+" "+msg)) }
func Fail(msg string) { fmt.Fprintln(errOut, C(fgRed, symCross+" "+msg)) }

// Hint prints a muted follow-up line under a failure.
func Hint(msg string) { fmt.Fprintln(errOut, C(fgGray, msg)) }

// Println writes a plain line to the normal output.
func Println(a ...any) { fmt.Fprintln(out, a...) }
