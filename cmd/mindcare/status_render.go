package main

import (
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/mattn/go-isatty"
)

const (
	ansiReset = "\x1b[0m"
	ansiBlue  = "\x1b[34m"
)

const (
	statusLabelWidth = 22
	statusIndent     = "  "
)

func renderStatLine(label string, value string) string {
	return fmt.Sprintf("%s%-*s %s", statusIndent, statusLabelWidth, label+":", value)
}

func renderSectionHeader(title string, colorize bool) []string {
	line := fmt.Sprintf("== %s ==", strings.TrimSpace(title))
	rule := strings.Repeat("-", len(line))
	if colorize {
		line = ansiBlue + line + ansiReset
		rule = ansiBlue + rule + ansiReset
	}
	return []string{line, rule}
}

func shouldColorize(writer io.Writer) bool {
	file, ok := writer.(*os.File)
	if !ok {
		return false
	}
	fd := file.Fd()
	return isatty.IsTerminal(fd) || isatty.IsCygwinTerminal(fd)
}
