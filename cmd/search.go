package cmd

import (
	"github.com/spf13/cobra"

	"github.com/keanucz/jellysync/internal/jellysync"
)

var (
	searchTypes typeFlags
	listTypes   typeFlags
)

var searchCmd = &cobra.Command{
	Use:   "search <query>",
	Short: "Search the catalog",
	Long: `Search the catalog for movies, series and episodes.

Examples:
  jellysync search dune
  jellysync search "breaking bad" --series`,
	Args: cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		types, err := searchTypes.selected(jellysync.DefaultSearchTypes)
		if err != nil {
			return err
		}
		app, err := newApp()
		if err != nil {
			return err
		}
		return app.Search(cmd.Context(), args[0], types)
	},
}

var listCmd = &cobra.Command{
	Use:   "list",
	Short: "List movies and series",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, _ []string) error {
		types, err := listTypes.selected(jellysync.DefaultListTypes)
		if err != nil {
			return err
		}
		app, err := newApp()
		if err != nil {
			return err
		}
		return app.List(cmd.Context(), types)
	},
}

func addTypeFlags(cmd *cobra.Command, t *typeFlags) {
	cmd.Flags().BoolVar(&t.movie, "movie", false, "Include movies")
	cmd.Flags().BoolVar(&t.series, "series", false, "Include series")
	cmd.Flags().BoolVar(&t.episode, "episode", false, "Include episodes")
	cmd.Flags().StringSliceVar(&t.types, "type", nil, "Include an item type by name (Movie, Series, Season, Episode); repeatable")
}

func init() {
	rootCmd.AddCommand(searchCmd, listCmd)
	addTypeFlags(searchCmd, &searchTypes)
	addTypeFlags(listCmd, &listTypes)
}
