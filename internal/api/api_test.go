package api

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/starford/postconf/internal/postservice"
	"github.com/starford/postconf/internal/testutil"
)

// testEnv sets up a temp output dir, SQLite index, session, and router.
// An empty authToken means auth is disabled.
func testEnv(t *testing.T, authToken string) (*postservice.Service, http.Handler, string) {
	t.Helper()
	return testEnvWithSSE(t, authToken, nil)
}

func testEnvWithSSE(t *testing.T, authToken string, sseHandler http.Handler) (*postservice.Service, http.Handler, string) {
	t.Helper()
	dir, store := testutil.TestOutput(t)
	db := testutil.TestDB(t)
	a := testutil.TestArticle(t, "Hello World", "2024-01-05", []string{"tech"}, []string{"go"})
	svc := postservice.NewService(a, store,
		postservice.WithIndex(db),
		postservice.WithLogger(testutil.QuietLogger()),
	)
	return svc, NewRouter(svc, authToken != "", authToken, sseHandler), dir
}

func do(t *testing.T, router http.Handler, method, path string, body any) *httptest.ResponseRecorder {
	t.Helper()
	var buf bytes.Buffer
	if body != nil {
		if s, ok := body.(string); ok {
			buf.WriteString(s)
		} else if err := json.NewEncoder(&buf).Encode(body); err != nil {
			t.Fatal(err)
		}
	}
	req := httptest.NewRequest(method, path, &buf)
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)
	return w
}

func decode[T any](t *testing.T, w *httptest.ResponseRecorder) T {
	t.Helper()
	var v T
	if err := json.Unmarshal(w.Body.Bytes(), &v); err != nil {
		t.Fatalf("decode %s: %v", w.Body.String(), err)
	}
	return v
}

func TestGetSession(t *testing.T) {
	_, router, dir := testEnv(t, "")

	w := do(t, router, http.MethodGet, "/session", nil)
	if w.Code != http.StatusOK {
		t.Fatalf("status = %d", w.Code)
	}
	st := decode[postservice.State](t, w)
	if st.Title != "Hello World" || st.Date != "2024-01-05" || st.OutputDir != dir {
		t.Errorf("session = %+v", st)
	}
	if !strings.Contains(w.Body.String(), `"output_dir"`) || !strings.Contains(w.Body.String(), `"categories":["tech"]`) {
		t.Errorf("body = %s", w.Body.String())
	}
}

func TestSessionEdits(t *testing.T) {
	_, router, _ := testEnv(t, "")

	if w := do(t, router, http.MethodPut, "/session/title", map[string]string{"title": "Draft"}); w.Code != http.StatusOK {
		t.Fatalf("set title = %d %s", w.Code, w.Body.String())
	}
	w := do(t, router, http.MethodPost, "/session/title/edits", map[string]any{"op": "insert", "text": " One", "at": 5})
	if w.Code != http.StatusOK {
		t.Fatalf("edit = %d %s", w.Code, w.Body.String())
	}
	if res := decode[postservice.TitleEditResult](t, w); res.Title != "Draft One" || res.Inserted != 4 {
		t.Errorf("edit result = %+v", res)
	}
	if w := do(t, router, http.MethodPut, "/session/date", map[string]string{"date": "2024-12-31"}); w.Code != http.StatusOK {
		t.Fatalf("set date = %d %s", w.Code, w.Body.String())
	}
	if w := do(t, router, http.MethodPost, "/session/tags", map[string]string{"name": "cli"}); w.Code != http.StatusOK {
		t.Fatalf("add tag = %d %s", w.Code, w.Body.String())
	}
	if w := do(t, router, http.MethodDelete, "/session/categories/0", nil); w.Code != http.StatusOK {
		t.Fatalf("delete category = %d %s", w.Code, w.Body.String())
	}

	st := decode[postservice.State](t, do(t, router, http.MethodGet, "/session", nil))
	if st.Title != "Draft One" || st.Date != "2024-12-31" || len(st.Categories) != 0 ||
		strings.Join(st.Tags, ",") != "go,cli" {
		t.Errorf("session = %+v", st)
	}
}

func TestErrorStatusMapping(t *testing.T) {
	_, router, _ := testEnv(t, "")

	cases := []struct {
		name   string
		method string
		path   string
		body   any
		want   int
	}{
		{"bad date", http.MethodPut, "/session/date", map[string]string{"date": "05/01/2024"}, http.StatusUnprocessableEntity},
		{"missing date", http.MethodPut, "/session/date", map[string]string{}, http.StatusBadRequest},
		{"duplicate tag", http.MethodPost, "/session/tags", map[string]string{"name": "go"}, http.StatusConflict},
		{"duplicate category", http.MethodPost, "/session/categories", map[string]string{"name": "tech"}, http.StatusConflict},
		{"blank tag", http.MethodPost, "/session/tags", map[string]string{"name": "   "}, http.StatusBadRequest},
		{"tag out of range", http.MethodDelete, "/session/tags/5", nil, http.StatusUnprocessableEntity},
		{"non-numeric index", http.MethodDelete, "/session/tags/first", nil, http.StatusBadRequest},
		{"edit out of range", http.MethodPost, "/session/title/edits", map[string]any{"op": "delete_range", "start": 0, "end": 99}, http.StatusUnprocessableEntity},
		{"unknown edit op", http.MethodPost, "/session/title/edits", map[string]any{"op": "shout"}, http.StatusBadRequest},
		{"title key missing", http.MethodPut, "/session/title", map[string]string{}, http.StatusBadRequest},
		{"invalid json", http.MethodPut, "/session/title", "{", http.StatusBadRequest},
		{"missing output dir", http.MethodPut, "/session/output-dir", map[string]string{"dir": "/does/not/exist"}, http.StatusUnprocessableEntity},
		{"post not found", http.MethodGet, "/posts/nope.md", nil, http.StatusNotFound},
		{"search without query", http.MethodGet, "/search", nil, http.StatusBadRequest},
	}
	for _, c := range cases {
		w := do(t, router, c.method, c.path, c.body)
		if w.Code != c.want {
			t.Errorf("%s: status = %d, want %d (%s)", c.name, w.Code, c.want, w.Body.String())
			continue
		}
		if body := decode[errResponse](t, w); body.Error == "" {
			t.Errorf("%s: empty error body", c.name)
		}
	}

	// Categories: delete the only one, then deleting again reports the empty collection.
	if w := do(t, router, http.MethodDelete, "/session/categories/0", nil); w.Code != http.StatusOK {
		t.Fatalf("delete = %d", w.Code)
	}
	if w := do(t, router, http.MethodDelete, "/session/categories/0", nil); w.Code != http.StatusUnprocessableEntity {
		t.Errorf("delete from empty = %d, want 422", w.Code)
	}
}

func TestSaveAndReadBack(t *testing.T) {
	_, router, dir := testEnv(t, "")

	w := do(t, router, http.MethodPost, "/session/save", nil)
	if w.Code != http.StatusCreated {
		t.Fatalf("save = %d %s", w.Code, w.Body.String())
	}
	res := decode[postservice.SaveResult](t, w)
	if res.Path != filepath.Join(dir, "2024-01-05-Hello-World.md") || !res.Indexed {
		t.Errorf("save result = %+v", res)
	}

	data, err := os.ReadFile(res.Path)
	if err != nil {
		t.Fatal(err)
	}
	doc := string(data)
	if !strings.HasPrefix(doc, "---\ntitle: Hello World\n") || !strings.HasSuffix(doc, "\n---\n") {
		t.Errorf("file = %q", doc)
	}
	if !strings.Contains(doc, "categories:\n  - tech\ntags:\n  - go\n") {
		t.Errorf("lists not in order: %q", doc)
	}

	if w := do(t, router, http.MethodPost, "/session/save", nil); w.Code != http.StatusConflict {
		t.Errorf("second save = %d, want 409", w.Code)
	}

	list := decode[PostListResponse](t, do(t, router, http.MethodGet, "/posts?tag=go", nil))
	if list.Total != 1 || list.Posts[0].Path != res.Name {
		t.Errorf("list = %+v", list)
	}

	post := decode[PostDetail](t, do(t, router, http.MethodGet, "/posts/"+res.Name, nil))
	if post.Title != "Hello World" || post.Checksum != res.Checksum {
		t.Errorf("post = %+v", post)
	}

	search := decode[SearchResponse](t, do(t, router, http.MethodGet, "/search?q=Hello", nil))
	if len(search.Results) != 1 {
		t.Errorf("search = %+v", search)
	}

	vocab := decode[postservice.Vocabulary](t, do(t, router, http.MethodGet, "/vocabulary", nil))
	if len(vocab.Tags) != 1 || vocab.Tags[0].Name != "go" || vocab.Tags[0].Count != 1 {
		t.Errorf("vocabulary = %+v", vocab)
	}
}

func TestGetPost_NonPostFilesNotServed(t *testing.T) {
	_, router, dir := testEnv(t, "")
	testutil.WriteFile(t, dir, ".env", "AUTH_TOKEN=secret\n")
	testutil.WriteFile(t, dir, "postconf.db", "SQLite format 3")

	for _, path := range []string{"/posts/.env", "/posts/postconf.db"} {
		w := do(t, router, http.MethodGet, path, nil)
		if w.Code != http.StatusNotFound {
			t.Errorf("%s: status = %d, want 404", path, w.Code)
		}
		if strings.Contains(w.Body.String(), "secret") || strings.Contains(w.Body.String(), "SQLite") {
			t.Errorf("%s: body leaks file contents: %s", path, w.Body.String())
		}
	}
}

func TestStatusFor_UnknownEdit(t *testing.T) {
	svc, _, _ := testEnv(t, "")
	_, err := svc.EditTitle(postservice.TitleEdit{Op: "shout"})
	if got := statusFor(err); got != http.StatusBadRequest {
		t.Errorf("status = %d, want 400 (%v)", got, err)
	}
}

func TestSaveEmptyTitle(t *testing.T) {
	_, router, dir := testEnv(t, "")

	if w := do(t, router, http.MethodPut, "/session/title", map[string]string{"title": ""}); w.Code != http.StatusOK {
		t.Fatalf("set title = %d", w.Code)
	}
	if w := do(t, router, http.MethodPost, "/session/save", nil); w.Code != http.StatusUnprocessableEntity {
		t.Errorf("save = %d, want 422", w.Code)
	}
	if entries, _ := os.ReadDir(dir); len(entries) != 0 {
		t.Errorf("files written: %v", entries)
	}
}

func TestSetOutputDir(t *testing.T) {
	_, router, _ := testEnv(t, "")
	other := t.TempDir()

	w := do(t, router, http.MethodPut, "/session/output-dir", map[string]string{"dir": other})
	if w.Code != http.StatusOK {
		t.Fatalf("status = %d %s", w.Code, w.Body.String())
	}
	if st := decode[postservice.State](t, w); st.OutputDir != other {
		t.Errorf("output dir = %q", st.OutputDir)
	}

	res := decode[postservice.SaveResult](t, do(t, router, http.MethodPost, "/session/save", nil))
	if filepath.Dir(res.Path) != other {
		t.Errorf("saved to %q, want under %q", res.Path, other)
	}
}

func TestAuthMiddleware_ValidToken(t *testing.T) {
	_, router, _ := testEnv(t, "secret123")

	req := httptest.NewRequest(http.MethodGet, "/session", nil)
	req.Header.Set("Authorization", "Bearer secret123")
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)
	if w.Code != http.StatusOK {
		t.Errorf("authed = %d, want 200", w.Code)
	}
}

func TestAuthMiddleware_MissingToken(t *testing.T) {
	_, router, _ := testEnv(t, "secret123")

	if w := do(t, router, http.MethodGet, "/session", nil); w.Code != http.StatusUnauthorized {
		t.Errorf("unauthed = %d, want 401", w.Code)
	}
}

func TestAuthMiddleware_WrongToken(t *testing.T) {
	_, router, _ := testEnv(t, "secret123")

	req := httptest.NewRequest(http.MethodPost, "/session/save", nil)
	req.Header.Set("Authorization", "Bearer wrong")
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)
	if w.Code != http.StatusUnauthorized {
		t.Errorf("wrong token = %d, want 401", w.Code)
	}
}

func TestAuthMiddleware_Disabled(t *testing.T) {
	_, router, _ := testEnv(t, "")

	if w := do(t, router, http.MethodGet, "/posts", nil); w.Code != http.StatusOK {
		t.Errorf("no auth = %d, want 200", w.Code)
	}
}

// blockingSSE writes headers and blocks until the request context ends.
var blockingSSE = http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "text/event-stream")
	w.WriteHeader(http.StatusOK)
	if f, ok := w.(http.Flusher); ok {
		f.Flush()
	}
	<-r.Context().Done()
})

func TestSSEEvents_AuthProtected(t *testing.T) {
	_, router, _ := testEnvWithSSE(t, "secret", blockingSSE)

	if w := do(t, router, http.MethodGet, "/events", nil); w.Code != http.StatusUnauthorized {
		t.Errorf("SSE no auth = %d, want 401", w.Code)
	}
}

func TestSSEEvents_ValidToken(t *testing.T) {
	_, router, _ := testEnvWithSSE(t, "tok", blockingSSE)

	ctx, cancel := context.WithTimeout(context.Background(), 50*time.Millisecond)
	defer cancel()
	req := httptest.NewRequest(http.MethodGet, "/events", nil).WithContext(ctx)
	req.Header.Set("Authorization", "Bearer tok")
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)
	if w.Code != http.StatusOK || w.Header().Get("Content-Type") != "text/event-stream" {
		t.Errorf("SSE with valid token = %d %q", w.Code, w.Header().Get("Content-Type"))
	}
}
