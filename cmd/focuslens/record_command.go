package main

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"focuslens/internal/recording"
)

func newRecordCommand(ctx *commandContext) *cobra.Command {
	var fps int
	var systemAudio bool
	var microphone bool
	var duration time.Duration

	cmd := &cobra.Command{
		Use:   "record <project-id>",
		Short: "Record the screen into a project",
		Long: "Record the screen into a project. Recording runs until the " +
			"--duration elapses or the process receives an interrupt; the " +
			"cursor track and project manifest are persisted on stop.",
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			rt, err := ctx.buildRuntime()
			if err != nil {
				return err
			}
			defer rt.close()
			if err := rt.acquireLock(); err != nil {
				return err
			}

			return runRecord(cmd, rt, args[0], recording.Options{
				FPS:                fps,
				CaptureSystemAudio: systemAudio,
				CaptureMicrophone:  microphone,
			}, duration)
		},
	}

	cmd.Flags().IntVar(&fps, "fps", 30, "Capture frame rate")
	cmd.Flags().BoolVar(&systemAudio, "system-audio", true, "Capture system audio")
	cmd.Flags().BoolVar(&microphone, "microphone", false, "Capture the default microphone")
	cmd.Flags().DurationVar(&duration, "duration", 0, "Stop automatically after this long (0 = run until interrupted)")
	return cmd
}

func runRecord(cmd *cobra.Command, rt *runtime, projectID string, opts recording.Options, duration time.Duration) error {
	signalCtx, stopSignals := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stopSignals()

	session, err := rt.recorder.Start(signalCtx, projectID, opts)
	if err != nil {
		return err
	}

	out := cmd.OutOrStdout()
	fmt.Fprintf(out, "Recording project %s (session %s)\n", projectID, session.ID)
	if msg := session.DegradeMessage(); msg != "" {
		fmt.Fprintln(out, colorize(msg, ansiYellow, shouldColorize(out)))
	}
	if duration > 0 {
		fmt.Fprintf(out, "Stopping automatically after %s; press Ctrl-C to stop earlier\n", duration)
	} else {
		fmt.Fprintln(out, "Press Ctrl-C to stop")
	}

	if err := awaitRecordingEnd(signalCtx, session, duration); err != nil {
		return err
	}

	result, err := rt.recorder.Stop(context.Background(), session.ID)
	if err != nil {
		return err
	}
	fmt.Fprintf(out, "Recorded %s (%.1fs, %d cursor samples)\n",
		result.OutputPath, float64(result.DurationMS)/1000.0, result.SampleCount)
	return nil
}

// awaitRecordingEnd blocks until the duration elapses, a signal arrives, or
// the session dies underneath us.
func awaitRecordingEnd(ctx context.Context, session *recording.Session, duration time.Duration) error {
	var timeout <-chan time.Time
	if duration > 0 {
		timer := time.NewTimer(duration)
		defer timer.Stop()
		timeout = timer.C
	}

	ticker := time.NewTicker(250 * time.Millisecond)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return nil
		case <-timeout:
			return nil
		case <-ticker.C:
			if session.State() == recording.StateError {
				return errors.New("recording failed: encoder process exited unexpectedly")
			}
		}
	}
}
