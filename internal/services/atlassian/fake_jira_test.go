package atlassian

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strconv"
	"strings"
	"sync"
	"testing"

	"github.com/stretchr/testify/require"
	"github.com/ternarybob/arbor"
	"github.com/ternarybob/labelsync/internal/common"
)

const testFieldID = "customfield_10107"

// fakeJira serves the field and project endpoints from in-memory collections
type fakeJira struct {
	mu        sync.Mutex
	contexts  []map[string]interface{}
	mappings  []map[string]interface{}
	options   map[string][]map[string]interface{}
	projects  []map[string]interface{}
	requests  []*http.Request
	failPaths map[string]int
}

func newFakeJira() *fakeJira {
	return &fakeJira{
		options:   make(map[string][]map[string]interface{}),
		failPaths: make(map[string]int),
	}
}

func (f *fakeJira) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	f.mu.Lock()
	f.requests = append(f.requests, r.Clone(r.Context()))
	f.mu.Unlock()

	if status, ok := f.failPaths[r.URL.Path]; ok {
		http.Error(w, `{"errorMessages":["boom"]}`, status)
		return
	}

	prefix := "/rest/api/3/field/" + testFieldID + "/context"
	path := r.URL.Path

	switch {
	case path == "/rest/api/3/project/search":
		wanted := make(map[string]bool)
		for _, id := range r.URL.Query()["id"] {
			wanted[id] = true
		}
		var matched []map[string]interface{}
		for _, p := range f.projects {
			if wanted[p["id"].(string)] {
				matched = append(matched, p)
			}
		}
		writePage(w, r, matched)
	case path == prefix:
		writePage(w, r, f.contexts)
	case path == prefix+"/projectmapping":
		writePage(w, r, f.mappings)
	case strings.HasPrefix(path, prefix+"/") && strings.HasSuffix(path, "/option"):
		contextID := strings.TrimSuffix(strings.TrimPrefix(path, prefix+"/"), "/option")
		writePage(w, r, f.options[contextID])
	default:
		http.NotFound(w, r)
	}
}

func (f *fakeJira) requestCount(path string) int {
	f.mu.Lock()
	defer f.mu.Unlock()
	count := 0
	for _, r := range f.requests {
		if r.URL.Path == path {
			count++
		}
	}
	return count
}

// writePage slices values by startAt/maxResults the way Jira does
func writePage(w http.ResponseWriter, r *http.Request, values []map[string]interface{}) {
	startAt, _ := strconv.Atoi(r.URL.Query().Get("startAt"))
	maxResults, _ := strconv.Atoi(r.URL.Query().Get("maxResults"))
	if maxResults <= 0 {
		maxResults = 50
	}

	end := startAt + maxResults
	if end > len(values) {
		end = len(values)
	}
	page := []map[string]interface{}{}
	if startAt < len(values) {
		page = values[startAt:end]
	}

	w.Header().Set("Content-Type", "application/json")
	_ = json.NewEncoder(w).Encode(map[string]interface{}{
		"values":     page,
		"startAt":    startAt,
		"maxResults": maxResults,
		"total":      len(values),
		"isLast":     end >= len(values),
	})
}

func newTestClient(t *testing.T, handler http.Handler) *JiraClient {
	t.Helper()
	server := httptest.NewServer(handler)
	t.Cleanup(server.Close)

	client, err := NewJiraClient(&common.JiraConfig{
		BaseURL:   server.URL,
		Email:     "bot@example.com",
		APIToken:  "secret",
		UserAgent: "labelsync-test",
		RateLimit: 1000,
	}, arbor.NewLogger())
	require.NoError(t, err)
	return client
}

func option(id, value string, disabled bool) map[string]interface{} {
	return map[string]interface{}{"id": id, "value": value, "disabled": disabled}
}

func project(id, key, name string) map[string]interface{} {
	return map[string]interface{}{"id": id, "key": key, "name": name}
}
