// Package wikitest provides an in-memory wiki REST API for tests.
package wikitest

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strconv"
	"sync"
	"testing"

	"github.com/go-chi/chi/v5"
)

// APIPath is the REST root served by the fake, relative to the server URL.
const APIPath = "/confluence/rest/api"

// Page is one page of the fake wiki.
type Page struct {
	ID    string
	Title string
	Body  string
}

// Space is a space and its pages in listing order.
type Space struct {
	Key   string
	Name  string
	Pages []Page
}

// Wiki is the fake wiki's content and failure injection.
type Wiki struct {
	Spaces []Space

	// FailContent maps a page id to the status its content request returns.
	FailContent map[string]int
	// FailPagesAt maps a space key to the start offset whose listing returns 500.
	FailPagesAt map[string]int

	mu       sync.Mutex
	requests []string
}

// Server is a running fake wiki.
type Server struct {
	*httptest.Server
	wiki *Wiki
}

// NewServer starts a fake wiki serving w and stops it when the test ends.
func NewServer(t testing.TB, w *Wiki) *Server {
	t.Helper()

	r := chi.NewRouter()
	r.Use(w.record)
	r.Route(APIPath, func(r chi.Router) {
		r.Get("/space", w.listSpaces)
		r.Get("/content", w.listPages)
		r.Get("/content/{id}", w.content)
	})

	srv := httptest.NewServer(r)
	t.Cleanup(srv.Close)
	return &Server{Server: srv, wiki: w}
}

// BaseURL is the REST root to configure a client with.
func (s *Server) BaseURL() string {
	return s.URL + APIPath
}

// Requests returns the request URIs served so far.
func (s *Server) Requests() []string {
	s.wiki.mu.Lock()
	defer s.wiki.mu.Unlock()
	return append([]string(nil), s.wiki.requests...)
}

func (w *Wiki) record(next http.Handler) http.Handler {
	return http.HandlerFunc(func(rw http.ResponseWriter, r *http.Request) {
		w.mu.Lock()
		w.requests = append(w.requests, r.URL.RequestURI())
		w.mu.Unlock()
		next.ServeHTTP(rw, r)
	})
}

func (w *Wiki) listSpaces(rw http.ResponseWriter, r *http.Request) {
	if r.URL.Query().Get("type") != "global" {
		http.Error(rw, "type must be global", http.StatusBadRequest)
		return
	}

	results := make([]map[string]string, 0, len(w.Spaces))
	for _, s := range w.Spaces {
		results = append(results, map[string]string{"key": s.Key, "name": s.Name})
	}
	writeJSON(rw, map[string]any{"results": results, "_links": map[string]string{}})
}

func (w *Wiki) listPages(rw http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	key := q.Get("spaceKey")
	start, _ := strconv.Atoi(q.Get("start"))
	limit, err := strconv.Atoi(q.Get("limit"))
	if err != nil || limit <= 0 || q.Get("type") != "page" {
		http.Error(rw, "bad listing parameters", http.StatusBadRequest)
		return
	}

	if at, ok := w.FailPagesAt[key]; ok && at == start {
		http.Error(rw, "listing failed", http.StatusInternalServerError)
		return
	}

	var pages []Page
	for _, s := range w.Spaces {
		if s.Key == key {
			pages = s.Pages
		}
	}

	results := []map[string]any{}
	for i := start; i < len(pages) && i < start+limit; i++ {
		results = append(results, map[string]any{
			"id":    pages[i].ID,
			"type":  "page",
			"title": pages[i].Title,
		})
	}

	links := map[string]string{}
	if start+limit < len(pages) {
		links["next"] = APIPath + "/content?type=page&spaceKey=" + key +
			"&start=" + strconv.Itoa(start+limit) + "&limit=" + strconv.Itoa(limit)
	}
	writeJSON(rw, map[string]any{
		"results": results,
		"start":   start,
		"limit":   limit,
		"size":    len(results),
		"_links":  links,
	})
}

func (w *Wiki) content(rw http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	if status, ok := w.FailContent[id]; ok {
		http.Error(rw, "content failed", status)
		return
	}
	if r.URL.Query().Get("expand") != "body.storage" {
		http.Error(rw, "expand=body.storage required", http.StatusBadRequest)
		return
	}

	for _, s := range w.Spaces {
		for _, p := range s.Pages {
			if p.ID == id {
				writeJSON(rw, map[string]any{
					"id":    p.ID,
					"title": p.Title,
					"body": map[string]any{
						"storage": map[string]string{"value": p.Body, "representation": "storage"},
					},
				})
				return
			}
		}
	}
	http.NotFound(rw, r)
}

func writeJSON(rw http.ResponseWriter, v any) {
	rw.Header().Set("Content-Type", "application/json")
	_ = json.NewEncoder(rw).Encode(v)
}
