package jellyfin

import (
	"bytes"
	"context"
	"encoding/base64"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"

	"github.com/keanucz/jellysync/internal/version"
)

// User is the account an access token belongs to.
type User struct {
	ID   string `json:"Id"`
	Name string `json:"Name"`
}

// AuthResult is the answer to a successful password login.
type AuthResult struct {
	AccessToken string `json:"AccessToken"`
	ServerID    string `json:"ServerId"`
	User        User   `json:"User"`
}

// deviceHeader identifies this client when it has no token yet.
func deviceHeader() string {
	deviceID := base64.StdEncoding.EncodeToString([]byte(version.ClientName))
	return fmt.Sprintf(`MediaBrowser Client=%q, Device=%q, DeviceId=%q, Version=%q`,
		version.ClientName, version.ClientName, deviceID, version.Version)
}

// AuthenticateByName exchanges a user name and password for an access token.
func AuthenticateByName(ctx context.Context, client HTTPClient, host, username, password string) (AuthResult, error) {
	u := strings.TrimRight(host, "/") + "/Users/authenticatebyname"

	payload, err := json.Marshal(map[string]string{"Username": username, "Pw": password})
	if err != nil {
		return AuthResult{}, err
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, u, bytes.NewReader(payload))
	if err != nil {
		return AuthResult{}, err
	}
	req.Header.Set("Authorization", deviceHeader())
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Accept", "application/json")

	resp, err := client.Do(req)
	if err != nil {
		return AuthResult{}, fmt.Errorf("POST %s: %w", u, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, maxErrorBody))
		return AuthResult{}, &RemoteError{Method: http.MethodPost, URL: u, StatusCode: resp.StatusCode, Body: string(body)}
	}

	var auth AuthResult
	if err := json.NewDecoder(resp.Body).Decode(&auth); err != nil {
		return AuthResult{}, &MalformedResponseError{URL: u, Reason: err.Error()}
	}
	if auth.AccessToken == "" || auth.User.ID == "" {
		return AuthResult{}, &MalformedResponseError{URL: u, Reason: "missing AccessToken or User.Id"}
	}
	return auth, nil
}
