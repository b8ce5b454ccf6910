package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"focuslens/internal/capture"
	"focuslens/internal/process"
)

func newDevicesCommand(ctx *commandContext) *cobra.Command {
	return &cobra.Command{
		Use:   "devices",
		Short: "List capture devices and encoder availability",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := ctx.ensureConfig()
			if err != nil {
				return err
			}
			sup := process.NewSupervisor(nil)
			strategy := capture.Current()
			binary := cfg.FFmpegBinary()
			out := cmd.OutOrStdout()
			color := shouldColorize(out)

			hardware := strategy.HardwareCodec()
			available := capture.EncoderAvailable(cmd.Context(), sup, binary, hardware)
			state := colorize("available", ansiGreen, color)
			if !available {
				state = colorize("not confirmed", ansiYellow, color)
			}
			fmt.Fprintf(out, "Platform: %s\n", strategy.Name())
			fmt.Fprintf(out, "Hardware encoder %s: %s\n", hardware, state)
			fmt.Fprintf(out, "Software encoder %s: always used as fallback\n\n", capture.SoftwareCodec)

			devices := capture.ListAudioDevices(cmd.Context(), sup, binary, strategy)
			if len(devices) == 0 {
				fmt.Fprintln(out, "No audio capture devices detected")
				return nil
			}
			fmt.Fprintln(out, "Audio devices:")
			for _, device := range devices {
				fmt.Fprintf(out, "  %s\n", device)
			}
			return nil
		},
	}
}
