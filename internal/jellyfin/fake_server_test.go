package jellyfin

import (
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"sync/atomic"
	"testing"
	"time"
)

const (
	testUser  = "u1"
	testToken = "tok"
)

// fakeServer is an in-memory catalog speaking the Jellyfin endpoints used here.
type fakeServer struct {
	items    map[string]string   // item id -> JSON
	seasons  map[string][]string // series id -> season JSON
	episodes map[string][]string // season id -> episode JSON
	delays   map[string]time.Duration
	search   func(r *http.Request) string

	mu       sync.Mutex
	requests []string

	current atomic.Int32
	peak    atomic.Int32
}

func newFakeServer() *fakeServer {
	return &fakeServer{
		items:    map[string]string{},
		seasons:  map[string][]string{},
		episodes: map[string][]string{},
		delays:   map[string]time.Duration{},
	}
}

func (f *fakeServer) start(t *testing.T) *httptest.Server {
	t.Helper()
	server := httptest.NewServer(f)
	t.Cleanup(server.Close)
	return server
}

func (f *fakeServer) client(server *httptest.Server, opts Options) *Client {
	opts.Host = server.URL
	opts.UserID = testUser
	opts.Token = testToken
	return New(server.Client(), opts)
}

func (f *fakeServer) requestLog() []string {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]string(nil), f.requests...)
}

func (f *fakeServer) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	n := f.current.Add(1)
	defer f.current.Add(-1)
	for {
		old := f.peak.Load()
		if n <= old || f.peak.CompareAndSwap(old, n) {
			break
		}
	}

	f.mu.Lock()
	f.requests = append(f.requests, r.URL.RequestURI())
	f.mu.Unlock()

	if r.Header.Get("Authorization") != fmt.Sprintf(`MediaBrowser Client="JellySync", Token=%q`, testToken) {
		http.Error(w, "unauthorized", http.StatusUnauthorized)
		return
	}

	parts := strings.Split(strings.Trim(r.URL.Path, "/"), "/")
	switch {
	case len(parts) == 4 && parts[0] == "Users" && parts[1] == testUser && parts[2] == "Items":
		id := parts[3]
		time.Sleep(f.delays[id])
		body, ok := f.items[id]
		if !ok {
			http.Error(w, "item not found: "+id, http.StatusNotFound)
			return
		}
		w.Header().Set("Content-Type", "application/json")
		fmt.Fprint(w, body)
	case len(parts) == 3 && parts[0] == "Shows" && parts[2] == "Seasons":
		writeItems(w, f.seasons[parts[1]])
	case len(parts) == 3 && parts[0] == "Shows" && parts[2] == "Episodes":
		writeItems(w, f.episodes[r.URL.Query().Get("seasonId")])
	case len(parts) == 1 && parts[0] == "Items" && f.search != nil:
		w.Header().Set("Content-Type", "application/json")
		fmt.Fprint(w, f.search(r))
	default:
		http.NotFound(w, r)
	}
}

func writeItems(w http.ResponseWriter, items []string) {
	w.Header().Set("Content-Type", "application/json")
	fmt.Fprintf(w, `{"Items":[%s],"TotalRecordCount":%d}`, strings.Join(items, ","), len(items))
}

func movieJSON(id, name string, year int, container string) string {
	return fmt.Sprintf(`{"Id":%q,"Name":%q,"Type":"Movie","ProductionYear":%d,"MediaSources":[{"Id":%q,"Container":%q,"Size":1024}]}`,
		id, name, year, id, container)
}

func seriesJSON(id, name string) string {
	return fmt.Sprintf(`{"Id":%q,"Name":%q,"Type":"Series","ProductionYear":2008}`, id, name)
}

func seasonJSON(id, name, seriesID string) string {
	return fmt.Sprintf(`{"Id":%q,"Name":%q,"Type":"Season","SeriesId":%q}`, id, name, seriesID)
}

func episodeJSON(id, name, series, seriesID, seasonID string, season, episode int) string {
	return fmt.Sprintf(`{"Id":%q,"Name":%q,"Type":"Episode","SeriesName":%q,"SeriesId":%q,"SeasonId":%q,"ParentIndexNumber":%d,"IndexNumber":%d,"MediaSources":[{"Id":%q,"Container":"mkv","Size":2048}]}`,
		id, name, series, seriesID, seasonID, season, episode, id)
}

// recordingLogger captures log lines for assertions.
type recordingLogger struct {
	mu    sync.Mutex
	lines []string
}

func (l *recordingLogger) add(msg any, keyvals []any) {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.lines = append(l.lines, fmt.Sprint(append([]any{msg}, keyvals...)...))
}

func (l *recordingLogger) Debug(msg any, keyvals ...any) { l.add(msg, keyvals) }
func (l *recordingLogger) Info(msg any, keyvals ...any)  { l.add(msg, keyvals) }
func (l *recordingLogger) Warn(msg any, keyvals ...any)  { l.add(msg, keyvals) }
func (l *recordingLogger) Error(msg any, keyvals ...any) { l.add(msg, keyvals) }

func (l *recordingLogger) contains(s string) bool {
	l.mu.Lock()
	defer l.mu.Unlock()
	for _, line := range l.lines {
		if strings.Contains(line, s) {
			return true
		}
	}
	return false
}
