package cmd

import (
	"github.com/spf13/cobra"
)

var downloadCmd = &cobra.Command{
	Use:   "download <itemId>",
	Short: "Download a movie, episode, season or whole series",
	Long: `Download a movie, episode, season or whole series.

Series and seasons are expanded into their episodes. Files are written to

  Shows/{series}/Season {ss}/{series} - S{ss}E{ee} - {name}.{ext}
  Movies/{name} ({year})/{name} ({year}).{ext}

below the media directory. Files that already exist with the expected size
are skipped, so an interrupted run can simply be repeated.

Examples:
  jellysync download 5f1c0e8d2b9a4c7e9d3f6a1b2c4d8e0f
  jellysync --dry-run download 5f1c0e8d2b9a4c7e9d3f6a1b2c4d8e0f
  jellysync --media-dir ~/Media --concurrency 4 download 5f1c0e8d2b9a4c7e9d3f6a1b2c4d8e0f`,
	Args: cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		app, err := newApp()
		if err != nil {
			return err
		}

		summary, err := app.Download(cmd.Context(), args[0])
		if err != nil {
			return err
		}
		Logger.Debug("download finished",
			"downloaded", summary.Downloaded,
			"existing", summary.Existing,
			"dry_run", summary.DryRun,
			"bytes", summary.Bytes)
		return nil
	},
}

func init() {
	rootCmd.AddCommand(downloadCmd)
}
