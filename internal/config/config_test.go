package config

import (
	"context"
	"errors"
	"testing"

	. "github.com/smartystreets/goconvey/convey"
	"github.com/spf13/afero"
	"github.com/zalando/go-keyring"

	"github.com/keanucz/jellysync/internal/jellyfin"
)

const sample = `default = "home"
media_dir = "/srv/media"

[home]
host = "https://jellyfin.example.com/"
user_id = "u1"
token = "tok-home"

[work]
host = "https://media.work.net"
user_id = "u2"
token_store = "keyring"
`

const configPath = "/home/test/.jellysync"

func clearEnv(t *testing.T) {
	t.Helper()
	for _, key := range []string{"JELLYSYNC_CONFIG", "JELLYSYNC_HOST", "JELLYSYNC_USER_ID", "JELLYSYNC_TOKEN", "JELLYSYNC_MEDIA_DIR"} {
		t.Setenv(key, "")
	}
}

func sampleStore(t *testing.T) *Store {
	t.Helper()
	fs := afero.NewMemMapFs()
	if err := afero.WriteFile(fs, configPath, []byte(sample), 0o600); err != nil {
		t.Fatal(err)
	}
	return NewStore(fs, configPath)
}

func TestLoad(t *testing.T) {
	Convey("Loading the profile file", t, func() {
		Convey("Should decode defaults and profiles", func() {
			f, err := sampleStore(t).Load()
			So(err, ShouldBeNil)
			So(f.Default, ShouldEqual, "home")
			So(f.MediaDir, ShouldEqual, "/srv/media")
			So(f.Profiles, ShouldHaveLength, 2)
			So(f.Profiles["home"].Token, ShouldEqual, "tok-home")
			So(f.Profiles["work"].TokenStore, ShouldEqual, TokenStoreKeyring)
		})

		Convey("Should treat a missing file as empty", func() {
			f, err := NewStore(afero.NewMemMapFs(), configPath).Load()
			So(err, ShouldBeNil)
			So(f.Default, ShouldBeEmpty)
			So(f.Profiles, ShouldBeEmpty)
		})

		Convey("Should reject invalid TOML", func() {
			fs := afero.NewMemMapFs()
			So(afero.WriteFile(fs, configPath, []byte("[broken"), 0o600), ShouldBeNil)
			_, err := NewStore(fs, configPath).Load()
			So(err, ShouldNotBeNil)
		})
	})
}

func TestSave(t *testing.T) {
	Convey("Saving the profile file", t, func() {
		fs := afero.NewMemMapFs()
		store := NewStore(fs, configPath)
		f := &File{
			Default: "home",
			Profiles: map[string]Profile{
				"home": {Host: "https://jf.example.com", UserID: "u1", Token: "secret"},
				"work": {Host: "https://media.work.net", UserID: "u2", TokenStore: TokenStoreKeyring},
			},
		}
		So(store.Save(f), ShouldBeNil)

		Convey("Should round trip through Load", func() {
			loaded, err := store.Load()
			So(err, ShouldBeNil)
			So(loaded.Default, ShouldEqual, "home")
			So(loaded.Profiles["home"], ShouldResemble, f.Profiles["home"])
			So(loaded.Profiles["work"], ShouldResemble, f.Profiles["work"])
		})

		Convey("Should write profiles as TOML tables", func() {
			raw, err := afero.ReadFile(fs, configPath)
			So(err, ShouldBeNil)
			So(string(raw), ShouldContainSubstring, "[work]")
			So(string(raw), ShouldContainSubstring, "token_store")
		})
	})
}

func TestResolve(t *testing.T) {
	Convey("Resolving settings", t, func() {
		clearEnv(t)
		keyring.MockInit()
		f, err := sampleStore(t).Load()
		So(err, ShouldBeNil)

		Convey("Should use the default profile", func() {
			st, err := Resolve(f, Overrides{})
			So(err, ShouldBeNil)
			So(st.Profile, ShouldEqual, "home")
			So(st.Host, ShouldEqual, "https://jellyfin.example.com")
			So(st.Token, ShouldEqual, "tok-home")
			So(st.MediaDir, ShouldEqual, "/srv/media")
		})

		Convey("Should let the environment override the profile", func() {
			t.Setenv("JELLYSYNC_HOST", "http://env-host:8096")
			st, err := Resolve(f, Overrides{})
			So(err, ShouldBeNil)
			So(st.Host, ShouldEqual, "http://env-host:8096")
			So(st.UserID, ShouldEqual, "u1")
		})

		Convey("Should let flags override the environment", func() {
			t.Setenv("JELLYSYNC_TOKEN", "env-token")
			st, err := Resolve(f, Overrides{Token: "flag-token", MediaDir: "/tmp/m"})
			So(err, ShouldBeNil)
			So(st.Token, ShouldEqual, "flag-token")
			So(st.MediaDir, ShouldEqual, "/tmp/m")
		})

		Convey("Should read keyring tokens", func() {
			So(SetToken("work", "tok-work"), ShouldBeNil)
			st, err := Resolve(f, Overrides{Profile: "WORK"})
			So(err, ShouldBeNil)
			So(st.Token, ShouldEqual, "tok-work")
		})

		Convey("Should fail when the keyring has no token", func() {
			_, err := Resolve(f, Overrides{Profile: "work"})
			So(errors.Is(err, keyring.ErrNotFound), ShouldBeTrue)
		})

		Convey("Should not need the keyring when a token is given", func() {
			keyring.MockInitWithError(keyring.ErrUnsupportedPlatform)

			st, err := Resolve(f, Overrides{Profile: "work", Token: "flag-token"})
			So(err, ShouldBeNil)
			So(st.Token, ShouldEqual, "flag-token")

			t.Setenv("JELLYSYNC_TOKEN", "env-token")
			st, err = Resolve(f, Overrides{Profile: "work"})
			So(err, ShouldBeNil)
			So(st.Token, ShouldEqual, "env-token")
		})

		Convey("Should reject unknown profiles", func() {
			_, err := Resolve(f, Overrides{Profile: "nope"})
			So(err, ShouldNotBeNil)
			So(err.Error(), ShouldContainSubstring, `unknown config "nope"`)
		})

		Convey("Should name the missing flag", func() {
			_, err := Resolve(&File{Profiles: map[string]Profile{}}, Overrides{Host: "http://h", UserID: "u"})
			So(err, ShouldNotBeNil)
			So(err.Error(), ShouldEqual, "--token is required")

			_, err = Resolve(&File{}, Overrides{})
			So(err.Error(), ShouldEqual, "--host is required")
		})
	})
}

// scriptedPrompter answers prompts from fixed values.
type scriptedPrompter struct {
	inputs   map[string]string
	password string
	confirm  bool
	asked    []string
}

func (p *scriptedPrompter) Input(message, def string) (string, error) {
	p.asked = append(p.asked, message)
	if v, ok := p.inputs[message]; ok {
		return v, nil
	}
	return def, nil
}

func (p *scriptedPrompter) Password(message string) (string, error) {
	p.asked = append(p.asked, message)
	return p.password, nil
}

func (p *scriptedPrompter) Confirm(message string, _ bool) (bool, error) {
	p.asked = append(p.asked, message)
	return p.confirm, nil
}

func TestLogin(t *testing.T) {
	Convey("Logging in", t, func() {
		keyring.MockInit()
		var gotHost, gotUser, gotPassword string
		auth := func(_ context.Context, host, user, password string) (jellyfin.AuthResult, error) {
			gotHost, gotUser, gotPassword = host, user, password
			if password != "secret" {
				return jellyfin.AuthResult{}, &jellyfin.RemoteError{Method: "POST", URL: host, StatusCode: 401}
			}
			return jellyfin.AuthResult{AccessToken: "tok-new", User: jellyfin.User{ID: "u-new"}}, nil
		}
		prompt := &scriptedPrompter{
			inputs:   map[string]string{"Enter Jellyfin server URL": "https://jellyfin.example.com/", "Enter login": "alice"},
			password: "secret",
			confirm:  true,
		}
		f := &File{Profiles: map[string]Profile{}}

		Convey("Should prompt for missing details and store a profile", func() {
			name, err := Login(context.Background(), f, prompt, auth, LoginOptions{})
			So(err, ShouldBeNil)
			So(name, ShouldEqual, "example")
			So(gotHost, ShouldEqual, "https://jellyfin.example.com")
			So(gotUser, ShouldEqual, "alice")
			So(gotPassword, ShouldEqual, "secret")
			So(f.Default, ShouldEqual, "example")
			So(f.Profiles["example"], ShouldResemble, Profile{Host: "https://jellyfin.example.com", UserID: "u-new", Token: "tok-new"})
		})

		Convey("Should only ask for the password when details are given", func() {
			prompt.confirm = false
			_, err := Login(context.Background(), f, prompt, auth, LoginOptions{Host: "http://h.example.org", User: "bob", Name: "lab"})
			So(err, ShouldBeNil)
			So(prompt.asked, ShouldResemble, []string{"Enter password", "Make lab the default Jellyfin server?"})
			So(f.Default, ShouldBeEmpty)
		})

		Convey("Should keep the token in the keyring when asked", func() {
			_, err := Login(context.Background(), f, prompt, auth, LoginOptions{Name: "vault", Keyring: true})
			So(err, ShouldBeNil)
			So(f.Profiles["vault"].Token, ShouldBeEmpty)
			So(f.Profiles["vault"].TokenStore, ShouldEqual, TokenStoreKeyring)
			token, err := GetToken("vault")
			So(err, ShouldBeNil)
			So(token, ShouldEqual, "tok-new")
		})

		Convey("Should surface authentication failures", func() {
			prompt.password = "wrong"
			_, err := Login(context.Background(), f, prompt, auth, LoginOptions{})
			var remote *jellyfin.RemoteError
			So(errors.As(err, &remote), ShouldBeTrue)
			So(f.Profiles, ShouldBeEmpty)
		})

		Convey("Should reject reserved names", func() {
			_, err := Login(context.Background(), f, prompt, auth, LoginOptions{Name: "default"})
			So(err, ShouldNotBeNil)
		})
	})
}

func TestProfileName(t *testing.T) {
	Convey("Proposing a profile name", t, func() {
		cases := map[string]string{
			"https://jellyfin.example.com":    "example",
			"https://media.smith.co.uk:8920/": "smith",
			"http://jellyfin.abc.io":          "",
			"http://192.168.1.10:8096":        "",
			"http://[::1]:8096":               "",
			"http://localhost:8096":           "localhost",
		}
		for in, want := range cases {
			So(ProfileName(in), ShouldEqual, want)
		}
	})
}
