package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"focuslens/internal/motion"
	"focuslens/internal/projects"
)

func newCameraCommand(ctx *commandContext) *cobra.Command {
	var enabled bool
	var intensity string
	var smoothing float64
	var maxZoom float64
	var idleMS uint64
	var highlight bool
	var evaluate bool

	cmd := &cobra.Command{
		Use:   "camera <project-id>",
		Short: "Adjust or evaluate a project's autoframing settings",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := ctx.ensureConfig()
			if err != nil {
				return err
			}
			store := projects.NewStore(cfg.Paths.ProjectRoot, nil)

			manifest, err := store.LoadManifest(args[0])
			if err != nil {
				return err
			}
			if evaluate {
				return evaluateCameraMotion(cmd, store, manifest)
			}
			camera := manifest.Camera
			flags := cmd.Flags()
			if flags.Changed("enabled") {
				camera.Enabled = enabled
			}
			if flags.Changed("intensity") {
				camera.Intensity = intensity
			}
			if flags.Changed("smoothing") {
				camera.Smoothing = smoothing
			}
			if flags.Changed("max-zoom") {
				camera.MaxZoom = maxZoom
			}
			if flags.Changed("idle-ms") {
				camera.IdleThresholdMS = idleMS
			}
			if flags.Changed("highlight") {
				camera.CursorHighlight = highlight
			}

			updated, err := store.PatchCamera(args[0], camera)
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(),
				"Camera for %s: enabled=%s intensity=%s smoothing=%.2f max-zoom=%.2f idle=%dms highlight=%s\n",
				updated.ProjectID,
				yesNo(updated.Camera.Enabled),
				updated.Camera.Intensity,
				updated.Camera.Smoothing,
				updated.Camera.MaxZoom,
				updated.Camera.IdleThresholdMS,
				yesNo(updated.Camera.CursorHighlight),
			)
			return nil
		},
	}

	cmd.Flags().BoolVar(&enabled, "enabled", true, "Enable autoframing")
	cmd.Flags().StringVar(&intensity, "intensity", "medium", "Follow intensity: low, medium, or high")
	cmd.Flags().Float64Var(&smoothing, "smoothing", 0.56, "Motion smoothing between 0 and 1")
	cmd.Flags().Float64Var(&maxZoom, "max-zoom", 1.35, "Zoom ceiling between 1.0 and 2.0")
	cmd.Flags().Uint64Var(&idleMS, "idle-ms", 420, "Idle time before recentering, in milliseconds")
	cmd.Flags().BoolVar(&highlight, "highlight", false, "Apply the cursor highlight enhancement on export")
	cmd.Flags().BoolVar(&evaluate, "evaluate", false, "Report motion latency and jitter for the recorded cursor track")
	return cmd
}

// evaluateCameraMotion replays the persisted cursor track through the motion
// engine and reports the derived UX metrics.
func evaluateCameraMotion(cmd *cobra.Command, store *projects.Store, manifest projects.Manifest) error {
	profile, err := manifest.Camera.Profile()
	if err != nil {
		return err
	}
	track, err := store.LoadCursorTrack(manifest.ProjectID, manifest.DurationMS)
	if err != nil {
		return err
	}

	path := motion.ComputePath(track, profile)
	metrics := motion.EvaluateMetrics(track, path)
	fmt.Fprintf(cmd.OutOrStdout(),
		"Camera motion for %s: latency=%.0fms jitter=%.3f samples=%d\n",
		manifest.ProjectID, metrics.LatencyMS, metrics.JitterRatio, len(track))
	return nil
}

func newTrimCommand(ctx *commandContext) *cobra.Command {
	var startMS uint64
	var endMS uint64

	cmd := &cobra.Command{
		Use:   "trim <project-id>",
		Short: "Set a project's export trim range",
		Long: "Set a project's export trim range in milliseconds. An end of 0 " +
			"means the end of the recording, resolved at export time.",
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := ctx.ensureConfig()
			if err != nil {
				return err
			}
			store := projects.NewStore(cfg.Paths.ProjectRoot, nil)

			updated, err := store.PatchTimeline(args[0], projects.Timeline{
				TrimStartMS: startMS,
				TrimEndMS:   endMS,
			})
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Trim for %s: %dms .. %dms\n",
				updated.ProjectID, updated.Timeline.TrimStartMS, updated.Timeline.TrimEndMS)
			return nil
		},
	}

	cmd.Flags().Uint64Var(&startMS, "start-ms", 0, "Trim start in milliseconds")
	cmd.Flags().Uint64Var(&endMS, "end-ms", 0, "Trim end in milliseconds (0 = end of recording)")
	return cmd
}
