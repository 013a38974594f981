package editor

import (
	"bytes"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gorilla/websocket"

	"github.com/hazyhaar/atelier/store"
)

func apiFixture(t *testing.T) (*httptest.Server, *Service) {
	t.Helper()
	svc := newTestService(t)
	ts := httptest.NewServer(svc.Routes())
	t.Cleanup(ts.Close)
	return ts, svc
}

func postJSON(t *testing.T, url string, body any) *http.Response {
	t.Helper()
	raw, _ := json.Marshal(body)
	res, err := http.Post(url, "application/json", bytes.NewReader(raw))
	if err != nil {
		t.Fatalf("POST %s: %v", url, err)
	}
	return res
}

func decodeBody[T any](t *testing.T, res *http.Response) T {
	t.Helper()
	defer res.Body.Close()
	var v T
	if err := json.NewDecoder(res.Body).Decode(&v); err != nil {
		t.Fatalf("decode response: %v", err)
	}
	return v
}

func TestAPI_ProjectAndSessionLifecycle(t *testing.T) {
	ts, _ := apiFixture(t)

	res := postJSON(t, ts.URL+"/projects", map[string]string{"name": "API Site"})
	if res.StatusCode != 201 {
		t.Fatalf("create project: status %d", res.StatusCode)
	}
	p := decodeBody[store.Project](t, res)
	if p.ID == "" {
		t.Fatal("created project carries no id")
	}

	res = postJSON(t, ts.URL+"/projects/"+p.ID+"/sessions", nil)
	if res.StatusCode != 201 {
		t.Fatalf("open session: status %d", res.StatusCode)
	}
	st := decodeBody[State](t, res)
	if st.SessionID == "" || st.ActivePage != "home" {
		t.Fatalf("session state: %+v", st)
	}

	// Insert over HTTP, then undo over HTTP.
	res = postJSON(t, ts.URL+"/sessions/"+st.SessionID+"/components",
		map[string]any{"type": "footer", "index": 99})
	if res.StatusCode != 201 {
		t.Fatalf("insert: status %d", res.StatusCode)
	}
	ins := decodeBody[map[string]string](t, res)
	if ins["componentId"] == "" {
		t.Fatal("insert response carries no component id")
	}

	res = postJSON(t, ts.URL+"/sessions/"+st.SessionID+"/undo", nil)
	after := decodeBody[State](t, res)
	if len(after.Components) != 1 {
		t.Fatalf("after undo: got %d components, want 1", len(after.Components))
	}
	if !after.CanRedo {
		t.Fatal("undo over HTTP must leave redo available")
	}
}

func TestAPI_UnknownSessionIs404(t *testing.T) {
	ts, _ := apiFixture(t)
	res := postJSON(t, ts.URL+"/sessions/ses_ghost/undo", nil)
	defer res.Body.Close()
	if res.StatusCode != 404 {
		t.Fatalf("unknown session: status %d, want 404", res.StatusCode)
	}
}

func TestAPI_StylesQueuedThenVisible(t *testing.T) {
	ts, svc := apiFixture(t)
	s := openTestSession(t, svc)
	id := s.Components()[0].ID

	res := postJSON(t, ts.URL+"/sessions/"+s.ID+"/styles", map[string]any{
		"componentId": id,
		"props":       map[string]string{"color": "#fff"},
		"breakpoint":  "mobile",
	})
	defer res.Body.Close()
	if res.StatusCode != 202 {
		t.Fatalf("styles: status %d, want 202", res.StatusCode)
	}

	s.FlushStyles()
	if !strings.Contains(s.Document().Shared.CSS, "max-width: 768px") {
		t.Fatal("mobile style patch missing from shared CSS")
	}
}

func TestAPI_Palette(t *testing.T) {
	ts, _ := apiFixture(t)
	res, err := http.Get(ts.URL + "/palette")
	if err != nil {
		t.Fatalf("GET /palette: %v", err)
	}
	types := decodeBody[[]string](t, res)
	if len(types) == 0 {
		t.Fatal("palette is empty")
	}
}

func TestAPI_ExportZipDownload(t *testing.T) {
	ts, svc := apiFixture(t)
	s := openTestSession(t, svc)

	res, err := http.Get(ts.URL + "/sessions/" + s.ID + "/export/zip")
	if err != nil {
		t.Fatalf("GET export: %v", err)
	}
	defer res.Body.Close()
	if res.StatusCode != 200 {
		t.Fatalf("export: status %d", res.StatusCode)
	}
	if ct := res.Header.Get("Content-Type"); ct != "application/zip" {
		t.Fatalf("export content type: %q", ct)
	}
}

func TestAPI_FeedStreamsEdits(t *testing.T) {
	ts, svc := apiFixture(t)
	s := openTestSession(t, svc)

	wsURL := "ws" + strings.TrimPrefix(ts.URL, "http") + "/sessions/" + s.ID + "/feed"
	conn, _, err := websocket.DefaultDialer.Dial(wsURL, nil)
	if err != nil {
		t.Fatalf("dial feed: %v", err)
	}
	defer conn.Close()

	// Give the server loop a beat to register the subscriber.
	waitFor(t, "feed subscriber", func() bool {
		s.Feed().mu.Lock()
		defer s.Feed().mu.Unlock()
		return len(s.Feed().subs) > 0
	})

	res := postJSON(t, ts.URL+"/sessions/"+s.ID+"/components",
		map[string]any{"type": "cta", "index": 99})
	res.Body.Close()

	conn.SetReadDeadline(time.Now().Add(2 * time.Second))
	_, raw, err := conn.ReadMessage()
	if err != nil {
		t.Fatalf("read feed: %v", err)
	}
	var evt Event
	if err := json.Unmarshal(raw, &evt); err != nil {
		t.Fatalf("decode feed event: %v", err)
	}
	if evt.Type != EventDocument {
		t.Fatalf("feed event: got %q, want %q", evt.Type, EventDocument)
	}
}
