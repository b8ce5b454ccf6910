package main

import (
	"errors"
	"fmt"
	"os"
	"sort"

	"github.com/spf13/cobra"

	"focuslens/internal/projects"
	"focuslens/internal/services"
)

func newStatusCommand(ctx *commandContext) *cobra.Command {
	var asJSON bool

	cmd := &cobra.Command{
		Use:   "status [project-id]",
		Short: "Show project status and crash recovery markers",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := ctx.ensureConfig()
			if err != nil {
				return err
			}
			store := projects.NewStore(cfg.Paths.ProjectRoot, nil)

			if len(args) == 1 {
				return printProjectStatus(cmd, store, args[0], asJSON)
			}
			return printAllProjects(cmd, store, asJSON)
		},
	}

	cmd.Flags().BoolVar(&asJSON, "json", false, "Emit machine-readable JSON")
	return cmd
}

func printProjectStatus(cmd *cobra.Command, store *projects.Store, projectID string, asJSON bool) error {
	manifest, err := store.LoadManifest(projectID)
	if err != nil {
		return err
	}
	if asJSON {
		return writeJSON(cmd, manifest)
	}

	out := cmd.OutOrStdout()
	rows := [][]string{
		{"Project", manifest.ProjectID},
		{"Duration", fmt.Sprintf("%.1fs", float64(manifest.DurationMS)/1000.0)},
		{"Frame", fmt.Sprintf("%dx%d", manifest.FrameWidth, manifest.FrameHeight)},
		{"Recording", manifest.RecordingFile},
		{"Autoframing", yesNo(manifest.Camera.Enabled)},
		{"Intensity", manifest.Camera.Intensity},
		{"Trim", fmt.Sprintf("%dms .. %dms", manifest.Timeline.TrimStartMS, manifest.Timeline.TrimEndMS)},
		{"Updated", manifest.UpdatedAt.Format("2006-01-02 15:04:05")},
	}
	fmt.Fprintln(out, fieldTable(rows))
	return nil
}

func printAllProjects(cmd *cobra.Command, store *projects.Store, asJSON bool) error {
	entries, err := os.ReadDir(store.Root())
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			fmt.Fprintln(cmd.OutOrStdout(), "No projects recorded yet")
			return nil
		}
		return fmt.Errorf("scan project root: %w", err)
	}

	marked, err := store.ListRecoveryMarkers()
	if err != nil {
		return err
	}
	recovering := make(map[string]bool, len(marked))
	for _, projectID := range marked {
		recovering[projectID] = true
	}

	type projectLine struct {
		ProjectID  string `json:"projectId"`
		DurationMS uint64 `json:"durationMs"`
		Autoframed bool   `json:"autoframed"`
		Recovering bool   `json:"recovering"`
	}

	var lines []projectLine
	for _, entry := range entries {
		if !entry.IsDir() {
			continue
		}
		manifest, err := store.LoadManifest(entry.Name())
		if err != nil {
			if errors.Is(err, services.ErrPrecondition) {
				continue
			}
			return err
		}
		lines = append(lines, projectLine{
			ProjectID:  manifest.ProjectID,
			DurationMS: manifest.DurationMS,
			Autoframed: manifest.Camera.Enabled,
			Recovering: recovering[manifest.ProjectID],
		})
	}
	sort.Slice(lines, func(i, j int) bool { return lines[i].ProjectID < lines[j].ProjectID })

	if asJSON {
		return writeJSON(cmd, lines)
	}

	out := cmd.OutOrStdout()
	if len(lines) == 0 {
		fmt.Fprintln(out, "No projects recorded yet")
		return nil
	}

	color := shouldColorize(out)
	rows := make([][]string, 0, len(lines))
	for _, line := range lines {
		state := "ready"
		if line.Recovering {
			state = colorize("crashed", ansiRed, color)
		}
		rows = append(rows, []string{
			line.ProjectID,
			fmt.Sprintf("%.1fs", float64(line.DurationMS)/1000.0),
			yesNo(line.Autoframed),
			state,
		})
	}
	fmt.Fprintln(out, renderTable(
		[]tableColumn{
			{title: "Project"},
			{title: "Duration", numeric: true},
			{title: "Autoframed"},
			{title: "State"},
		},
		rows,
	))
	return nil
}
