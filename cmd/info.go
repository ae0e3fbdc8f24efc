package cmd

import (
	"github.com/spf13/cobra"
)

var infoYAMLFlag bool

var infoCmd = &cobra.Command{
	Use:   "info <itemId>",
	Short: "Print the raw metadata of an item",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		app, err := newApp()
		if err != nil {
			return err
		}
		return app.Info(cmd.Context(), args[0], infoYAMLFlag)
	},
}

func init() {
	rootCmd.AddCommand(infoCmd)
	infoCmd.Flags().BoolVar(&infoYAMLFlag, "yaml", false, "Print YAML instead of JSON")
}
