package cmd

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/charmbracelet/log"
	cc "github.com/ivanpirog/coloredcobra"
	"github.com/spf13/cobra"

	"github.com/keanucz/jellysync/internal/pool"
	"github.com/keanucz/jellysync/internal/version"
)

var (
	verboseFlag            bool
	debugFlag              bool
	configFlag             string
	hostFlag               string
	tokenFlag              string
	userIDFlag             string
	mediaDirFlag           string
	dryRunFlag             bool
	contentDispositionFlag bool
	concurrencyFlag        int
)

// Logger is the global logger instance.
var Logger *log.Logger

var rootCmd = &cobra.Command{
	Use:     "jellysync",
	Short:   "Search a Jellyfin server and mirror its media locally",
	Long:    fmt.Sprintf("jellysync %s\n\nSearch a Jellyfin server and download movies, series, seasons and episodes\ninto a Shows/ and Movies/ library layout.", version.Short()),
	Version: version.Version,
	// Errors are printed once by Execute.
	SilenceErrors: true,
	SilenceUsage:  true,
	PersistentPreRun: func(_ *cobra.Command, _ []string) {
		// Initialize logger based on verbose flag
		Logger = log.NewWithOptions(os.Stderr, log.Options{
			ReportTimestamp: verboseFlag,
			Level:           log.InfoLevel,
		})
		if verboseFlag || debugFlag {
			Logger.SetLevel(log.DebugLevel)
		}
	},
}

// Execute runs the root command.
func Execute() {
	cc.Init(&cc.Config{
		RootCmd:       rootCmd,
		Headings:      cc.HiCyan + cc.Bold + cc.Underline,
		Commands:      cc.HiYellow + cc.Bold,
		Example:       cc.Italic,
		ExecName:      cc.Bold,
		Flags:         cc.Bold,
		FlagsDataType: cc.Italic + cc.HiBlue,
	})

	// An interrupt ends the run on the spot; partial .tmp files stay behind.
	interrupts := make(chan os.Signal, 1)
	signal.Notify(interrupts, os.Interrupt, syscall.SIGTERM)
	go func() {
		<-interrupts
		os.Exit(0)
	}()

	if err := rootCmd.ExecuteContext(context.Background()); err != nil {
		fmt.Fprintln(os.Stderr, "error:", err)
		os.Exit(1)
	}
}

func init() {
	// Set custom version template to show full version info
	rootCmd.SetVersionTemplate(fmt.Sprintf("jellysync %s\n", version.Short()))

	flags := rootCmd.PersistentFlags()
	flags.BoolVarP(&verboseFlag, "verbose", "v", false, "Enable verbose debug output")
	flags.BoolVar(&debugFlag, "debug", false, "Log every request URL and raw response body")
	flags.StringVar(&configFlag, "config", "", "Profile name to use from the config file")
	flags.StringVar(&hostFlag, "host", "", "Jellyfin server URL")
	flags.StringVar(&tokenFlag, "token", "", "Jellyfin access token")
	flags.StringVar(&userIDFlag, "user-id", "", "Jellyfin user ID")
	flags.StringVar(&mediaDirFlag, "media-dir", "", "Directory the library is written to (default: current directory)")
	flags.BoolVar(&dryRunFlag, "dry-run", false, "Resolve and plan downloads without writing files")
	flags.BoolVar(&contentDispositionFlag, "use-content-disposition", false, "Name files after the server-supplied filename instead of the library layout")
	flags.IntVar(&concurrencyFlag, "concurrency", pool.DefaultSize, "Maximum concurrent requests and downloads")
}
