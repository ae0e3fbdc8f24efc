package cmd

import (
	"context"

	"github.com/spf13/cobra"

	"github.com/keanucz/jellysync/internal/config"
	"github.com/keanucz/jellysync/internal/jellyfin"
)

var (
	loginUserFlag    string
	loginNameFlag    string
	loginKeyringFlag bool
)

var loginCmd = &cobra.Command{
	Use:   "login",
	Short: "Log in to a Jellyfin server and save it as a profile",
	Long: `Log in to a Jellyfin server and save the access token as a named profile
in the config file (~/.jellysync, or $JELLYSYNC_CONFIG).

Missing details are prompted for; the password always is.

Examples:
  jellysync login
  jellysync login --host https://jellyfin.example.com --user alice --name home
  jellysync login --keyring`,
	Args: cobra.NoArgs,
	RunE: func(cmd *cobra.Command, _ []string) error {
		store, err := configStore()
		if err != nil {
			return err
		}
		file, err := store.Load()
		if err != nil {
			return err
		}

		client := httpClient()
		auth := func(ctx context.Context, host, user, password string) (jellyfin.AuthResult, error) {
			return jellyfin.AuthenticateByName(ctx, client, host, user, password)
		}

		name, err := config.Login(cmd.Context(), file, config.SurveyPrompter{}, auth, config.LoginOptions{
			Host:    hostFlag,
			User:    loginUserFlag,
			Name:    loginNameFlag,
			Keyring: loginKeyringFlag,
		})
		if err != nil {
			return err
		}
		if err := store.Save(file); err != nil {
			return err
		}

		Logger.Info("saved profile", "name", name, "path", store.Path())
		printSuccess(cmd.OutOrStdout(), "Logged in, profile %q saved to %s", name, store.Path())
		return nil
	},
}

func init() {
	rootCmd.AddCommand(loginCmd)
	loginCmd.Flags().StringVar(&loginUserFlag, "user", "", "Jellyfin user name")
	loginCmd.Flags().StringVar(&loginNameFlag, "name", "", "Name of the profile to create")
	loginCmd.Flags().BoolVar(&loginKeyringFlag, "keyring", false, "Store the token in the OS keyring instead of the config file")
}
