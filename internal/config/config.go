// Package config reads and writes the jellysync profile file and resolves the
// connection settings a command runs with.
package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/spf13/afero"
	"github.com/spf13/viper"
)

const (
	// EnvPrefix prefixes every environment override, e.g. JELLYSYNC_HOST.
	EnvPrefix = "JELLYSYNC"
	// FileName is the profile file kept in the home directory.
	FileName = ".jellysync"
	// TokenStoreKeyring marks a profile whose token lives in the OS keyring.
	TokenStoreKeyring = "keyring"

	keyDefault  = "default"
	keyMediaDir = "media_dir"
)

// Profile holds the connection details of one server.
type Profile struct {
	Host       string `mapstructure:"host"`
	UserID     string `mapstructure:"user_id"`
	Token      string `mapstructure:"token"`
	TokenStore string `mapstructure:"token_store"`
}

// File is the decoded profile file. Profile names are case-insensitive and
// stored lower-case.
type File struct {
	Default  string
	MediaDir string
	Profiles map[string]Profile
}

// Store reads and writes a profile file on a filesystem.
type Store struct {
	fs   afero.Fs
	path string
}

// NewStore creates a Store for the file at path.
func NewStore(fs afero.Fs, path string) *Store {
	return &Store{fs: fs, path: path}
}

// Path returns the location of the profile file.
func (s *Store) Path() string { return s.path }

// DefaultPath is JELLYSYNC_CONFIG when set, otherwise ~/.jellysync.
func DefaultPath() (string, error) {
	if p := environment().GetString("config"); p != "" {
		return ExpandHome(p)
	}
	home, err := os.UserHomeDir()
	if err != nil {
		return "", fmt.Errorf("locate home directory: %w", err)
	}
	return filepath.Join(home, FileName), nil
}

// ExpandHome replaces a leading "~/" with the user's home directory.
func ExpandHome(p string) (string, error) {
	if p != "~" && !strings.HasPrefix(p, "~/") {
		return p, nil
	}
	home, err := os.UserHomeDir()
	if err != nil {
		return "", fmt.Errorf("expand %s: %w", p, err)
	}
	return filepath.Join(home, strings.TrimPrefix(p, "~")), nil
}

func (s *Store) viper() *viper.Viper {
	v := viper.New()
	v.SetFs(s.fs)
	v.SetConfigFile(s.path)
	v.SetConfigType("toml")
	v.SetConfigPermissions(0o600)
	return v
}

// Load reads the profile file. A missing file yields an empty File.
func (s *Store) Load() (*File, error) {
	f := &File{Profiles: map[string]Profile{}}

	exists, err := afero.Exists(s.fs, s.path)
	if err != nil {
		return nil, fmt.Errorf("stat config %s: %w", s.path, err)
	}
	if !exists {
		return f, nil
	}

	v := s.viper()
	if err := v.ReadInConfig(); err != nil {
		return nil, fmt.Errorf("read config %s: %w", s.path, err)
	}

	for key, value := range v.AllSettings() {
		switch key {
		case keyDefault:
			f.Default = strings.ToLower(v.GetString(key))
		case keyMediaDir:
			f.MediaDir = v.GetString(key)
		default:
			if _, isTable := value.(map[string]any); !isTable {
				continue
			}
			var p Profile
			if err := v.UnmarshalKey(key, &p); err != nil {
				return nil, fmt.Errorf("decode profile %q in %s: %w", key, s.path, err)
			}
			f.Profiles[key] = p
		}
	}
	return f, nil
}

// Save writes f to the profile file, replacing its contents.
func (s *Store) Save(f *File) error {
	v := s.viper()
	if f.Default != "" {
		v.Set(keyDefault, f.Default)
	}
	if f.MediaDir != "" {
		v.Set(keyMediaDir, f.MediaDir)
	}
	for name, p := range f.Profiles {
		table := map[string]any{
			"host":    p.Host,
			"user_id": p.UserID,
		}
		if p.Token != "" {
			table["token"] = p.Token
		}
		if p.TokenStore != "" {
			table["token_store"] = p.TokenStore
		}
		v.Set(name, table)
	}

	if err := s.fs.MkdirAll(filepath.Dir(s.path), 0o755); err != nil {
		return fmt.Errorf("create config directory: %w", err)
	}
	if err := v.WriteConfigAs(s.path); err != nil {
		return fmt.Errorf("write config %s: %w", s.path, err)
	}
	return nil
}

// environment exposes the JELLYSYNC_* overrides.
func environment() *viper.Viper {
	v := viper.New()
	v.SetEnvPrefix(EnvPrefix)
	for _, key := range []string{"config", "host", "user_id", "token", "media_dir"} {
		_ = v.BindEnv(key)
	}
	return v
}
