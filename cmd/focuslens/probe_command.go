package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"focuslens/internal/media/ffprobe"
)

func newProbeCommand(ctx *commandContext) *cobra.Command {
	var asJSON bool

	cmd := &cobra.Command{
		Use:   "probe <media-file>",
		Short: "Inspect a media file's streams and A/V offset",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := ctx.ensureConfig()
			if err != nil {
				return err
			}
			result, err := ffprobe.Inspect(cmd.Context(), cfg.FFprobeBinary(), args[0])
			if err != nil {
				return err
			}
			if asJSON {
				return writeJSON(cmd, result)
			}

			width, height := result.VideoDimensions()
			rows := [][]string{
				{"Container", fmt.Sprintf("%.3fs", float64(result.ContainerDurationMS())/1000.0)},
				{"Video", fmt.Sprintf("%.3fs", float64(result.VideoDurationMS())/1000.0)},
				{"Audio", fmt.Sprintf("%.3fs", float64(result.AudioDurationMS())/1000.0)},
				{"A/V offset", fmt.Sprintf("%dms", result.AVOffsetMS())},
				{"Dimensions", fmt.Sprintf("%dx%d", width, height)},
				{"Has audio", yesNo(result.HasAudio())},
			}
			fmt.Fprintln(cmd.OutOrStdout(), fieldTable(rows))
			return nil
		},
	}

	cmd.Flags().BoolVar(&asJSON, "json", false, "Emit the raw probe result as JSON")
	return cmd
}
