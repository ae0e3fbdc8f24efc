package config

import (
	"context"
	"fmt"
	"net"
	"net/url"
	"strings"

	"github.com/AlecAivazis/survey/v2"
	"golang.org/x/net/publicsuffix"

	"github.com/keanucz/jellysync/internal/jellyfin"
)

// Prompter asks the user for login details.
type Prompter interface {
	Input(message, def string) (string, error)
	Password(message string) (string, error)
	Confirm(message string, def bool) (bool, error)
}

// SurveyPrompter prompts on the terminal.
type SurveyPrompter struct{}

func (SurveyPrompter) Input(message, def string) (string, error) {
	var response string
	err := survey.AskOne(&survey.Input{Message: message, Default: def}, &response, survey.WithValidator(survey.Required))
	return strings.TrimSpace(response), err
}

func (SurveyPrompter) Password(message string) (string, error) {
	var response string
	err := survey.AskOne(&survey.Password{Message: message}, &response)
	return response, err
}

func (SurveyPrompter) Confirm(message string, def bool) (bool, error) {
	var response bool
	err := survey.AskOne(&survey.Confirm{Message: message, Default: def}, &response)
	return response, err
}

// Authenticator exchanges credentials for an access token.
type Authenticator func(ctx context.Context, host, username, password string) (jellyfin.AuthResult, error)

// LoginOptions preset values that are otherwise prompted for.
type LoginOptions struct {
	Host string
	User string
	Name string
	// Keyring stores the token in the OS keyring instead of the file.
	Keyring bool
}

// Login authenticates against a server and records the result as a profile
// in f. It returns the profile name; the caller saves f.
func Login(ctx context.Context, f *File, prompt Prompter, auth Authenticator, opts LoginOptions) (string, error) {
	var err error

	host := opts.Host
	if host == "" {
		if host, err = prompt.Input("Enter Jellyfin server URL", ""); err != nil {
			return "", err
		}
	}
	if u, parseErr := url.Parse(host); parseErr != nil || u.Hostname() == "" {
		return "", fmt.Errorf("failed to parse hostname from URL: %s", host)
	}
	host = strings.TrimRight(host, "/")

	user := opts.User
	if user == "" {
		if user, err = prompt.Input("Enter login", ""); err != nil {
			return "", err
		}
	}
	password, err := prompt.Password("Enter password")
	if err != nil {
		return "", err
	}

	res, err := auth(ctx, host, user, password)
	if err != nil {
		return "", fmt.Errorf("login to %s: %w", host, err)
	}

	name := opts.Name
	if name == "" {
		if name, err = prompt.Input("Enter a name for this configuration", ProfileName(host)); err != nil {
			return "", err
		}
	}
	name = strings.ToLower(strings.TrimSpace(name))
	if err := validateName(name); err != nil {
		return "", err
	}

	p := Profile{Host: host, UserID: res.User.ID, Token: res.AccessToken}
	if opts.Keyring {
		if err := SetToken(name, res.AccessToken); err != nil {
			return "", err
		}
		p.Token = ""
		p.TokenStore = TokenStoreKeyring
	}
	if f.Profiles == nil {
		f.Profiles = map[string]Profile{}
	}
	f.Profiles[name] = p

	makeDefault, err := prompt.Confirm(fmt.Sprintf("Make %s the default Jellyfin server?", name), f.Default == "")
	if err != nil {
		return "", err
	}
	if makeDefault {
		f.Default = name
	}
	return name, nil
}

func validateName(name string) error {
	switch {
	case name == "":
		return fmt.Errorf("configuration name cannot be empty")
	case name == keyDefault || name == keyMediaDir:
		return fmt.Errorf("configuration name %q is reserved", name)
	case strings.ContainsAny(name, ". \t"):
		return fmt.Errorf("configuration name %q cannot contain dots or spaces", name)
	}
	return nil
}

// ProfileName proposes a profile name for a server URL: the registrable
// domain's first label, else the first hostname label that is not
// "jellyfin" and longer than three characters. IP addresses yield "".
func ProfileName(rawURL string) string {
	u, err := url.Parse(rawURL)
	if err != nil {
		return ""
	}
	host := u.Hostname()
	if host == "" || net.ParseIP(host) != nil {
		return ""
	}

	if domain, err := publicsuffix.EffectiveTLDPlusOne(host); err == nil {
		if label, _, _ := strings.Cut(domain, "."); usableLabel(label) {
			return label
		}
	}
	for _, part := range strings.Split(host, ".") {
		if usableLabel(part) {
			return part
		}
	}
	return ""
}

func usableLabel(s string) bool {
	return s != "jellyfin" && len(s) > 3
}
