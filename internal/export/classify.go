package export

import (
	"strings"

	"focuslens/internal/services"
)

// classification maps diagnostic-log substrings to a failure code. Order
// matters: the first family with a hit wins.
type classification struct {
	code       string
	message    string
	suggestion string
	markers    []string
}

var classifications = []classification{
	{
		code:       "NO_PERMISSION",
		message:    "export destination is not writable",
		suggestion: "choose a destination you have write access to",
		markers:    []string{"permission denied", "access is denied"},
	},
	{
		code:       "NO_SPACE",
		message:    "not enough disk space to write the export",
		suggestion: "free up disk space and retry",
		markers:    []string{"no space left on device", "there is not enough space"},
	},
	{
		code:       "ENCODER_FAIL",
		message:    "encoder failed to initialize",
		suggestion: "check the encoder driver or retry with software encoding",
		markers:    []string{"unknown encoder", "error while opening encoder", "cannot open encoder"},
	},
}

// Classify converts the combined diagnostic text of both encode attempts
// into a categorized failure. Anything unrecognized is generic I/O.
func Classify(diagnostics string, cause error) error {
	lower := strings.ToLower(diagnostics)
	for _, c := range classifications {
		for _, marker := range c.markers {
			if strings.Contains(lower, marker) {
				return services.Wrap(services.ErrExternalTool, c.code, c.message, c.suggestion, cause)
			}
		}
	}
	return services.Wrap(
		services.ErrExternalTool,
		"IO_FAIL",
		"export failed",
		"inspect the export log and retry",
		cause,
	)
}
