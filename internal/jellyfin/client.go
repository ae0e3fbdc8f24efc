// Package jellyfin is a read-only client for the Jellyfin REST API together
// with the resolver that expands catalog items into downloadable leaves.
package jellyfin

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"

	"github.com/samber/lo"

	"github.com/keanucz/jellysync/internal/pool"
	"github.com/keanucz/jellysync/internal/version"
)

// HTTPClient describes the subset of http.Client used by the client.
type HTTPClient interface {
	Do(req *http.Request) (*http.Response, error)
}

// Logger interface for logging operations.
// Compatible with github.com/charmbracelet/log.Logger.
type Logger interface {
	Debug(msg any, keyvals ...any)
	Info(msg any, keyvals ...any)
	Warn(msg any, keyvals ...any)
	Error(msg any, keyvals ...any)
}

// Options configure a Client.
type Options struct {
	Host   string
	UserID string
	Token  string
	// Debug logs every request URL and raw response body.
	Debug bool
	Log   Logger
	// Pool bounds concurrent requests. Nil means unbounded.
	Pool *pool.Pool
}

// Client issues authenticated requests against one Jellyfin server.
type Client struct {
	http   HTTPClient
	host   string
	userID string
	token  string
	debug  bool
	log    Logger
	pool   *pool.Pool
}

// New creates a Client.
func New(client HTTPClient, opts Options) *Client {
	return &Client{
		http:   client,
		host:   strings.TrimRight(opts.Host, "/"),
		userID: opts.UserID,
		token:  opts.Token,
		debug:  opts.Debug,
		log:    opts.Log,
		pool:   opts.Pool,
	}
}

// AuthHeader is the value of the Authorization header sent with every request.
func (c *Client) AuthHeader() string {
	return fmt.Sprintf(`MediaBrowser Client=%q, Token=%q`, version.ClientName, c.token)
}

// GetItem fetches a single item as seen by the configured user.
func (c *Client) GetItem(ctx context.Context, id string) (Item, error) {
	u := c.itemURL(id)
	var w wireItem
	if err := c.getJSON(ctx, u, &w); err != nil {
		return nil, err
	}
	item, err := w.classify()
	if err != nil {
		return nil, withURL(err, u)
	}
	return item, nil
}

// GetItemJSON fetches a single item and returns the undecoded body.
func (c *Client) GetItemJSON(ctx context.Context, id string) (json.RawMessage, error) {
	u := c.itemURL(id)
	body, err := c.get(ctx, u)
	if err != nil {
		return nil, err
	}
	if !json.Valid(body) {
		return nil, &MalformedResponseError{URL: u, Reason: "body is not valid JSON"}
	}
	return json.RawMessage(body), nil
}

// GetSeasons lists the seasons of a series in server order.
func (c *Client) GetSeasons(ctx context.Context, seriesID string) ([]*Season, error) {
	u := c.url("Shows", seriesID, "Seasons")
	items, err := c.getItems(ctx, u)
	if err != nil {
		return nil, err
	}
	return only[*Season](items, u, TypeSeason)
}

// GetEpisodes lists the episodes of one season in server order.
func (c *Client) GetEpisodes(ctx context.Context, seriesID, seasonID string) ([]*Episode, error) {
	u := c.url("Shows", seriesID, "Episodes") + "?" + url.Values{"seasonId": {seasonID}}.Encode()
	items, err := c.getItems(ctx, u)
	if err != nil {
		return nil, err
	}
	return only[*Episode](items, u, TypeEpisode)
}

// SearchItems runs a recursive catalog search restricted to types.
// An empty query lists everything of those types.
func (c *Client) SearchItems(ctx context.Context, query string, types []ItemType) ([]Item, error) {
	params := url.Values{
		"searchTerm":       {query},
		"recursive":        {"true"},
		"includeItemTypes": {strings.Join(lo.Map(types, func(t ItemType, _ int) string { return string(t) }), ",")},
	}
	return c.getItems(ctx, c.url("Items")+"?"+params.Encode())
}

// DownloadURL is the endpoint serving the original file of an item.
func (c *Client) DownloadURL(id string) string {
	return c.url("Items", id, "Download")
}

// OpenDownload starts streaming the file of an item. The caller owns the
// response body and is expected to hold a pool permit for the whole transfer.
func (c *Client) OpenDownload(ctx context.Context, id string) (*http.Response, error) {
	u := c.DownloadURL(id)
	if c.debug {
		log(c.log, "GET "+u)
	}
	resp, err := c.do(ctx, u, "")
	if err != nil {
		return nil, err
	}
	if err := checkStatus(resp, u); err != nil {
		resp.Body.Close()
		return nil, err
	}
	return resp, nil
}

func (c *Client) itemURL(id string) string {
	return c.url("Users", c.userID, "Items", id)
}

// url builds an API URL from escaped path segments.
func (c *Client) url(parts ...string) string {
	escaped := lo.Map(parts, func(p string, _ int) string { return url.PathEscape(p) })
	return c.host + "/" + strings.Join(escaped, "/")
}

func (c *Client) do(ctx context.Context, u, accept string) (*http.Response, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, u, nil)
	if err != nil {
		return nil, err
	}
	req.Header.Set("Authorization", c.AuthHeader())
	if accept != "" {
		req.Header.Set("Accept", accept)
	}

	resp, err := c.http.Do(req)
	if err != nil {
		return nil, fmt.Errorf("GET %s: %w", u, err)
	}
	return resp, nil
}

// get performs a GET while holding a pool permit and returns the body.
func (c *Client) get(ctx context.Context, u string) ([]byte, error) {
	if c.debug {
		log(c.log, "GET "+u)
	}

	var body []byte
	fetch := func(ctx context.Context) error {
		resp, err := c.do(ctx, u, "application/json")
		if err != nil {
			return err
		}
		defer resp.Body.Close()

		if err := checkStatus(resp, u); err != nil {
			return err
		}
		body, err = io.ReadAll(resp.Body)
		if err != nil {
			return fmt.Errorf("GET %s: read body: %w", u, err)
		}
		return nil
	}

	var err error
	if c.pool != nil {
		err = c.pool.Do(ctx, fetch)
	} else {
		err = fetch(ctx)
	}
	if err != nil {
		return nil, err
	}

	if c.debug {
		log(c.log, "response", "url", u, "body", string(body))
	}
	return body, nil
}

func (c *Client) getJSON(ctx context.Context, u string, out any) error {
	body, err := c.get(ctx, u)
	if err != nil {
		return err
	}
	if err := json.Unmarshal(body, out); err != nil {
		return &MalformedResponseError{URL: u, Reason: err.Error()}
	}
	return nil
}

// getItems decodes an {"Items": [...]} envelope.
func (c *Client) getItems(ctx context.Context, u string) ([]Item, error) {
	var envelope struct {
		Items *[]wireItem `json:"Items"`
	}
	if err := c.getJSON(ctx, u, &envelope); err != nil {
		return nil, err
	}
	if envelope.Items == nil {
		return nil, &MalformedResponseError{URL: u, Reason: "missing Items"}
	}

	items := make([]Item, 0, len(*envelope.Items))
	for _, w := range *envelope.Items {
		item, err := w.classify()
		if err != nil {
			return nil, withURL(err, u)
		}
		items = append(items, item)
	}
	return items, nil
}

// only narrows a listing to a single variant.
func only[T Item](items []Item, u string, want ItemType) ([]T, error) {
	out := make([]T, 0, len(items))
	for _, item := range items {
		typed, ok := item.(T)
		if !ok {
			info := item.ItemInfo()
			return nil, &MalformedResponseError{
				URL:    u,
				Reason: fmt.Sprintf("expected %s, got %s %s", want, info.Type, info.ID),
			}
		}
		out = append(out, typed)
	}
	return out, nil
}

// checkStatus returns a RemoteError for non-2xx responses.
func checkStatus(resp *http.Response, u string) error {
	if resp.StatusCode >= 200 && resp.StatusCode < 300 {
		return nil
	}
	body, _ := io.ReadAll(io.LimitReader(resp.Body, maxErrorBody))
	return &RemoteError{
		Method:     http.MethodGet,
		URL:        u,
		StatusCode: resp.StatusCode,
		Body:       string(body),
	}
}

func withURL(err error, u string) error {
	if m, ok := err.(*MalformedResponseError); ok && m.URL == "" {
		m.URL = u
	}
	return err
}

// log is a helper that safely logs debug messages when logger is available.
func log(logger Logger, msg string, keyvals ...any) {
	if logger != nil {
		logger.Debug(msg, keyvals...)
	}
}
