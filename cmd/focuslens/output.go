package main

import (
	"encoding/json"
	"fmt"
	"io"
	"os"

	"github.com/mattn/go-isatty"
	"github.com/spf13/cobra"

	"focuslens/internal/services"
)

const (
	ansiReset  = "\x1b[0m"
	ansiRed    = "\x1b[31m"
	ansiGreen  = "\x1b[32m"
	ansiYellow = "\x1b[33m"
)

// writeJSON encodes v as indented JSON to the command's stdout.
func writeJSON(cmd *cobra.Command, v any) error {
	enc := json.NewEncoder(cmd.OutOrStdout())
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}

// renderError surfaces the machine code and suggestion carried by service
// errors alongside the message.
func renderError(err error) string {
	if err == nil {
		return ""
	}
	code := services.CodeOf(err)
	if code == "" {
		return err.Error()
	}
	rendered := fmt.Sprintf("%s: %v", code, err)
	if suggestion := services.SuggestionOf(err); suggestion != "" {
		rendered += "\n  hint: " + suggestion
	}
	return rendered
}

func shouldColorize(writer io.Writer) bool {
	file, ok := writer.(*os.File)
	if !ok {
		return false
	}
	fd := file.Fd()
	return isatty.IsTerminal(fd) || isatty.IsCygwinTerminal(fd)
}

func colorize(text, color string, enabled bool) string {
	if !enabled || color == "" {
		return text
	}
	return color + text + ansiReset
}

func statusColor(status string) string {
	switch status {
	case "success", "stopped", "recording":
		return ansiGreen
	case "fallback", "paused", "queued":
		return ansiYellow
	case "failed", "error":
		return ansiRed
	default:
		return ""
	}
}

func yesNo(value bool) string {
	if value {
		return "yes"
	}
	return "no"
}
