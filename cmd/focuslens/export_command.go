package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"strconv"
	"syscall"

	"github.com/spf13/cobra"

	"focuslens/internal/export"
	"focuslens/internal/quality"
)

func newExportCommand(ctx *commandContext) *cobra.Command {
	var resolution string
	var aspect string
	var fps int
	var bitrate int
	var retryTask string

	cmd := &cobra.Command{
		Use:   "export <project-id>",
		Short: "Export a recorded project with autoframing",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			rt, err := ctx.buildRuntime()
			if err != nil {
				return err
			}
			defer rt.close()
			if err := rt.acquireLock(); err != nil {
				return err
			}

			profile := export.Profile{
				Resolution:  export.Resolution(resolution),
				Aspect:      export.AspectRatio(aspect),
				FPS:         fps,
				BitrateMbps: bitrate,
			}
			return runExport(cmd, rt, args[0], profile, retryTask)
		},
	}

	cmd.Flags().StringVar(&resolution, "resolution", "", "Output resolution: 1080p or 720p")
	cmd.Flags().StringVar(&aspect, "aspect", "", "Output aspect ratio: 16:9, 9:16, or 1:1")
	cmd.Flags().IntVar(&fps, "fps", 0, "Output frame rate")
	cmd.Flags().IntVar(&bitrate, "bitrate", 0, "Video bitrate in Mbps")
	cmd.Flags().StringVar(&retryTask, "retry", "", "Retry a finished task id instead of starting fresh")
	return cmd
}

func runExport(cmd *cobra.Command, rt *runtime, projectID string, profile export.Profile, retryTask string) error {
	signalCtx, stopSignals := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stopSignals()

	var task *export.Task
	var err error
	if retryTask != "" {
		task, err = rt.exporter.Retry(signalCtx, retryTask)
	} else {
		task, err = rt.exporter.Start(signalCtx, projectID, profile)
	}
	if err != nil {
		return err
	}

	out := cmd.OutOrStdout()
	fmt.Fprintf(out, "Export task %s started for project %s\n", task.ID, projectID)

	if err := task.Wait(signalCtx); err != nil {
		fmt.Fprintln(out, "Interrupted; the export keeps running until the encoder finishes")
		return err
	}

	printExportResult(cmd, task)
	if task.State() != export.StateSuccess {
		return task.LastError()
	}
	return nil
}

func printExportResult(cmd *cobra.Command, task *export.Task) {
	out := cmd.OutOrStdout()
	color := shouldColorize(out)
	metrics, reasons := task.QualityMetrics()

	rows := [][]string{
		{"State", colorize(string(task.State()), statusColor(string(task.State())), color)},
		{"Codec", task.CodecUsed()},
		{"Fallback used", yesNo(task.FallbackUsed())},
		{"Output", task.OutputPath()},
		{"A/V offset", fmt.Sprintf("%.0f ms", metrics.AVOffsetMS)},
		{"Avg drop rate", formatDropRate(metrics.AvgDropRate)},
		{"Peak drop rate", formatDropRate(metrics.PeakDropRate)},
	}
	if task.Retries > 0 {
		rows = append(rows, []string{"Retries", strconv.Itoa(task.Retries)})
	}
	fmt.Fprintln(out, fieldTable(rows))

	for _, reason := range reasons {
		fmt.Fprintln(out, colorize("quality: "+reason, ansiYellow, color))
	}
}

func formatDropRate(rate float64) string {
	if rate == quality.Unmeasured {
		return "unmeasured"
	}
	return fmt.Sprintf("%.2f%%", rate)
}
