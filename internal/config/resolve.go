package config

import (
	"fmt"
	"slices"
	"strings"

	"github.com/samber/lo"
)

// Overrides are values given on the command line; empty means unset.
type Overrides struct {
	Profile  string
	Host     string
	UserID   string
	Token    string
	MediaDir string
}

// Settings are the resolved connection details for a run.
type Settings struct {
	Profile  string
	Host     string
	UserID   string
	Token    string
	MediaDir string
}

// Resolve merges the named or default profile, JELLYSYNC_* environment
// variables and flags, in increasing order of precedence.
func Resolve(f *File, o Overrides) (Settings, error) {
	var st Settings
	st.MediaDir = f.MediaDir
	env := environment()
	tokenOverride := lo.CoalesceOrEmpty(o.Token, env.GetString("token"))

	name := strings.ToLower(o.Profile)
	if name == "" {
		name = f.Default
	}
	if name != "" {
		p, ok := f.Profiles[name]
		if !ok {
			known := lo.Keys(f.Profiles)
			slices.Sort(known)
			return Settings{}, fmt.Errorf("unknown config %q (known: %s)", name, strings.Join(known, ", "))
		}
		st.Profile = name
		st.Host, st.UserID, st.Token = p.Host, p.UserID, p.Token
		// The keyring is only consulted when no flag or variable supplies a token.
		if p.TokenStore == TokenStoreKeyring && tokenOverride == "" {
			token, err := GetToken(name)
			if err != nil {
				return Settings{}, err
			}
			st.Token = token
		}
	}

	st.Host = lo.CoalesceOrEmpty(o.Host, env.GetString("host"), st.Host)
	st.UserID = lo.CoalesceOrEmpty(o.UserID, env.GetString("user_id"), st.UserID)
	st.Token = lo.CoalesceOrEmpty(tokenOverride, st.Token)
	st.MediaDir = lo.CoalesceOrEmpty(o.MediaDir, env.GetString("media_dir"), st.MediaDir)

	switch {
	case st.Host == "":
		return Settings{}, fmt.Errorf("--host is required")
	case st.UserID == "":
		return Settings{}, fmt.Errorf("--user-id is required")
	case st.Token == "":
		return Settings{}, fmt.Errorf("--token is required")
	}
	st.Host = strings.TrimRight(st.Host, "/")

	if st.MediaDir != "" {
		dir, err := ExpandHome(st.MediaDir)
		if err != nil {
			return Settings{}, err
		}
		st.MediaDir = dir
	}
	return st, nil
}
