package cmd

import (
	"fmt"
	"io"
	"net/http"
	"os"

	"github.com/fatih/color"
	"github.com/samber/lo"
	"github.com/spf13/afero"
	"golang.org/x/term"

	"github.com/keanucz/jellysync/internal/config"
	"github.com/keanucz/jellysync/internal/jellyfin"
	"github.com/keanucz/jellysync/internal/jellysync"
	"github.com/keanucz/jellysync/internal/network"
	"github.com/keanucz/jellysync/internal/pool"
)

func configStore() (*config.Store, error) {
	path, err := config.DefaultPath()
	if err != nil {
		return nil, err
	}
	return config.NewStore(afero.NewOsFs(), path), nil
}

func httpClient() *http.Client {
	opts := network.DefaultOptions()
	opts.MaxConnsPerHost = concurrencyFlag
	opts.Log = Logger
	return network.New(opts)
}

// newApp resolves the connection settings and wires the client, pool and
// media filesystem together.
func newApp() (*jellysync.App, error) {
	if concurrencyFlag < 1 {
		return nil, fmt.Errorf("--concurrency must be at least 1")
	}

	store, err := configStore()
	if err != nil {
		return nil, err
	}
	file, err := store.Load()
	if err != nil {
		return nil, err
	}
	settings, err := config.Resolve(file, config.Overrides{
		Profile:  configFlag,
		Host:     hostFlag,
		UserID:   userIDFlag,
		Token:    tokenFlag,
		MediaDir: mediaDirFlag,
	})
	if err != nil {
		return nil, err
	}
	Logger.Debug("resolved settings", "profile", settings.Profile, "host", settings.Host, "media_dir", settings.MediaDir)

	p := pool.New(concurrencyFlag)
	client := jellyfin.New(httpClient(), jellyfin.Options{
		Host:   settings.Host,
		UserID: settings.UserID,
		Token:  settings.Token,
		Debug:  debugFlag,
		Log:    Logger,
		Pool:   p,
	})

	var fs afero.Fs = afero.NewOsFs()
	if settings.MediaDir != "" {
		fs = afero.NewBasePathFs(fs, settings.MediaDir)
	}

	return jellysync.New(client, jellysync.Options{
		Out:                   os.Stdout,
		Err:                   os.Stderr,
		Fs:                    fs,
		Pool:                  p,
		DryRun:                dryRunFlag,
		UseContentDisposition: contentDispositionFlag,
		Progress:              term.IsTerminal(int(os.Stderr.Fd())),
		Log:                   Logger,
	}), nil
}

// typeFlags holds the --movie/--series/--episode selection of a command.
type typeFlags struct {
	movie   bool
	series  bool
	episode bool
	types   []string
}

func (t *typeFlags) selected(defaults []jellyfin.ItemType) ([]jellyfin.ItemType, error) {
	known := []jellyfin.ItemType{jellyfin.TypeMovie, jellyfin.TypeSeries, jellyfin.TypeSeason, jellyfin.TypeEpisode}

	var out []jellyfin.ItemType
	for _, name := range t.types {
		typ, ok := lo.Find(known, func(k jellyfin.ItemType) bool { return string(k) == name })
		if !ok {
			return nil, fmt.Errorf("unknown item type %q", name)
		}
		out = append(out, typ)
	}
	if t.movie {
		out = append(out, jellyfin.TypeMovie)
	}
	if t.series {
		out = append(out, jellyfin.TypeSeries)
	}
	if t.episode {
		out = append(out, jellyfin.TypeEpisode)
	}
	if len(out) == 0 {
		return defaults, nil
	}
	return lo.Uniq(out), nil
}

var successColor = color.New(color.FgGreen)

func printSuccess(w io.Writer, format string, args ...any) {
	fmt.Fprintf(w, "%s %s\n", successColor.Sprint("✓"), fmt.Sprintf(format, args...))
}
