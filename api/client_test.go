package api

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"net/url"
	"strings"
	"sync/atomic"
	"testing"
	"time"

	"github.com/jonwraymond/ems/auth"
	"github.com/jonwraymond/ems/observe"
	"github.com/jonwraymond/ems/resilience"
)

func newTestClient(t *testing.T, h http.HandlerFunc, mutate ...func(*Config)) *Client {
	t.Helper()
	srv := httptest.NewServer(h)
	t.Cleanup(srv.Close)

	cfg := Config{BaseURL: srv.URL + "/v1"}
	for _, m := range mutate {
		m(&cfg)
	}
	c, err := New(cfg)
	if err != nil {
		t.Fatalf("New() error = %v", err)
	}
	return c
}

func TestNew_InvalidBaseURL(t *testing.T) {
	for _, base := range []string{"", "not a url", "/relative", "://x"} {
		if _, err := New(Config{BaseURL: base}); !errors.Is(err, ErrInvalidBaseURL) {
			t.Errorf("New(%q) error = %v, want ErrInvalidBaseURL", base, err)
		}
	}
}

func TestClient_Headers(t *testing.T) {
	var got http.Header
	var path string
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		got = r.Header.Clone()
		path = r.URL.Path
		_, _ = w.Write([]byte(`[]`))
	}, func(cfg *Config) { cfg.TenantHost = "default.example.org" })

	ctx := auth.WithSession(context.Background(), auth.Session{Token: "tok-1"})
	if err := c.GetJSON(ctx, "/elections/"+Segment("E 1"), nil, nil, ""); err != nil {
		t.Fatalf("GetJSON() error = %v", err)
	}

	if path != "/v1/elections/E 1" {
		t.Errorf("path = %q", path)
	}
	if v := got.Get("Authorization"); v != "Bearer tok-1" {
		t.Errorf("Authorization = %q", v)
	}
	if v := got.Get(HeaderTenantHost); v != "default.example.org" {
		t.Errorf("%s = %q", HeaderTenantHost, v)
	}
	if v := got.Get(HeaderRequestID); len(v) != 36 {
		t.Errorf("%s = %q, want a UUID", HeaderRequestID, v)
	}
	if v := got.Get("Accept"); v != "application/json" {
		t.Errorf("Accept = %q", v)
	}

	// Signed out: no Authorization; context tenant wins.
	ctx = auth.WithTenantHost(context.Background(), "lagos.example.org")
	_ = c.GetJSON(ctx, "/elections", nil, nil, "")
	if v := got.Get("Authorization"); v != "" {
		t.Errorf("Authorization without session = %q", v)
	}
	if v := got.Get(HeaderTenantHost); v != "lagos.example.org" {
		t.Errorf("%s = %q", HeaderTenantHost, v)
	}
}

func TestClient_SendJSON(t *testing.T) {
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodPost || r.Header.Get("Content-Type") != "application/json" {
			t.Errorf("request = %s %s", r.Method, r.Header.Get("Content-Type"))
		}
		var in map[string]any
		_ = json.NewDecoder(r.Body).Decode(&in)
		in["id"] = "S1"
		_ = json.NewEncoder(w).Encode(map[string]any{"data": in})
	}, func(cfg *Config) { cfg.DataPath = "data" })

	out, err := Send[map[string]string](context.Background(), c, http.MethodPost, "/states", map[string]string{"name": "Lagos"}, "")
	if err != nil {
		t.Fatalf("Send() error = %v", err)
	}
	if out["id"] != "S1" || out["name"] != "Lagos" {
		t.Errorf("Send() = %v", out)
	}
}

func TestClient_DataPathMissingDecodesWhole(t *testing.T) {
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(`{"id":"E1"}`))
	}, func(cfg *Config) { cfg.DataPath = "data" })

	out, err := Get[map[string]string](context.Background(), c, "/elections/E1", nil, "")
	if err != nil || out["id"] != "E1" {
		t.Errorf("Get() = (%v, %v)", out, err)
	}
}

func TestClient_ErrorMessages(t *testing.T) {
	tests := []struct {
		name     string
		status   int
		body     string
		fallback string
		want     string
	}{
		{"message", 400, `{"message":"Election not found"}`, "Failed", "Election not found"},
		{"nested error", 422, `{"error":{"message":"Name taken"}}`, "Failed", "Name taken"},
		{"error string", 500, `{"error":"boom"}`, "Failed", "boom"},
		{"detail", 403, `{"detail":"Forbidden"}`, "Failed", "Forbidden"},
		{"errors array", 400, `{"errors":[{"message":"bad id"}]}`, "Failed", "bad id"},
		{"empty message falls through", 400, `{"message":"  ","msg":"second"}`, "Failed", "second"},
		{"no message", 500, `{"ok":false}`, "Failed to fetch elections", "Failed to fetch elections"},
		{"not json", 502, `<html>bad gateway</html>`, "Failed to fetch elections", "Failed to fetch elections"},
		{"no fallback", 500, ``, "", ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
				w.WriteHeader(tt.status)
				_, _ = w.Write([]byte(tt.body))
			})

			err := c.GetJSON(context.Background(), "/x", nil, nil, tt.fallback)
			var apiErr *Error
			if !errors.As(err, &apiErr) {
				t.Fatalf("error = %v, want *Error", err)
			}
			if apiErr.Status != tt.status || apiErr.UserMessage() != tt.want {
				t.Errorf("error = {%d %q}, want {%d %q}", apiErr.Status, apiErr.UserMessage(), tt.status, tt.want)
			}
		})
	}
}

func TestClient_NetworkError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(http.ResponseWriter, *http.Request) {}))
	base := srv.URL
	srv.Close()

	c, err := New(Config{BaseURL: base})
	if err != nil {
		t.Fatal(err)
	}
	err = c.GetJSON(context.Background(), "/x", nil, nil, "Failed")

	var apiErr *Error
	if !errors.As(err, &apiErr) || apiErr.Status != 0 || apiErr.UserMessage() != NetworkErrorMessage {
		t.Fatalf("error = %#v", err)
	}
	if !errors.Is(err, ErrNetwork) {
		t.Error("transport failures should match ErrNetwork")
	}
}

func TestClient_Timeout(t *testing.T) {
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		<-r.Context().Done()
	}, func(cfg *Config) { cfg.Timeout = 20 * time.Millisecond })

	err := c.GetJSON(context.Background(), "/slow", nil, nil, "")
	if StatusCode(err) != 0 || !errors.Is(err, resilience.ErrTimeout) {
		t.Fatalf("error = %v, want a network error caused by timeout", err)
	}
}

func TestClient_Cancelled(t *testing.T) {
	started := make(chan struct{})
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		close(started)
		<-r.Context().Done()
	})

	ctx, cancel := context.WithCancel(context.Background())
	go func() {
		<-started
		cancel()
	}()

	err := c.GetJSON(ctx, "/slow", nil, nil, "")
	if !errors.Is(err, context.Canceled) {
		t.Fatalf("error = %v, want context.Canceled", err)
	}
	var apiErr *Error
	if errors.As(err, &apiErr) {
		t.Error("cancellation should not be reported as *Error")
	}
}

func TestClient_OnUnauthorized(t *testing.T) {
	var calls atomic.Int32
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusUnauthorized)
	}, func(cfg *Config) { cfg.OnUnauthorized = func(context.Context) { calls.Add(1) } })

	err := c.GetJSON(context.Background(), "/users", nil, nil, "Failed to fetch users")
	if !IsUnauthorized(err) {
		t.Fatalf("error = %v, want 401", err)
	}
	if calls.Load() != 1 {
		t.Errorf("OnUnauthorized calls = %d", calls.Load())
	}
}

func TestClient_DecodeError(t *testing.T) {
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(`{"id": 1`))
	})
	_, err := Get[map[string]any](context.Background(), c, "/x", nil, "")
	if !errors.Is(err, ErrDecode) {
		t.Errorf("error = %v, want ErrDecode", err)
	}
}

func TestClient_Upload(t *testing.T) {
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		if err := r.ParseMultipartForm(1 << 20); err != nil {
			t.Errorf("ParseMultipartForm() error = %v", err)
			return
		}
		f, hdr, err := r.FormFile("photo")
		if err != nil {
			t.Errorf("FormFile() error = %v", err)
			return
		}
		data, _ := io.ReadAll(f)
		_ = json.NewEncoder(w).Encode(map[string]string{
			"name":     r.FormValue("name"),
			"filename": hdr.Filename,
			"type":     hdr.Header.Get("Content-Type"),
			"data":     string(data),
		})
	})

	var out map[string]string
	err := c.Upload(context.Background(), "", "/aspirants", Form{
		Fields: map[string]string{"name": "Ada"},
		Files:  []File{{Field: "photo", Name: "ada.png", ContentType: "image/png", Data: []byte("PNG")}},
	}, &out, "Failed to create aspirant")
	if err != nil {
		t.Fatalf("Upload() error = %v", err)
	}
	want := map[string]string{"name": "Ada", "filename": "ada.png", "type": "image/png", "data": "PNG"}
	for k, v := range want {
		if out[k] != v {
			t.Errorf("%s = %q, want %q", k, out[k], v)
		}
	}
}

func TestClient_ExportCSV(t *testing.T) {
	var query url.Values
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		query = r.URL.Query()
		if r.Header.Get("Accept") != "text/csv" {
			t.Errorf("Accept = %q", r.Header.Get("Accept"))
		}
		w.Header().Set("Content-Disposition", `attachment; filename="results-E1.csv"`)
		_, _ = w.Write([]byte("\ufeffparty,votes\nAPC,100\n\"Labour, LP\",80\n"))
	})

	export, err := c.ExportCSV(context.Background(), "/reports/E1/export", url.Values{"level": {"state"}}, "")
	if err != nil {
		t.Fatalf("ExportCSV() error = %v", err)
	}
	if query.Get("level") != "state" {
		t.Errorf("query = %v", query)
	}
	if export.Filename != "results-E1.csv" {
		t.Errorf("Filename = %q", export.Filename)
	}
	if strings.Join(export.Header, "|") != "party|votes" {
		t.Errorf("Header = %q", export.Header)
	}
	if len(export.Rows) != 2 || export.Rows[1][0] != "Labour, LP" {
		t.Errorf("Rows = %q", export.Rows)
	}
}

func TestClient_LogsRequests(t *testing.T) {
	var logs bytes.Buffer
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(`{}`))
	}, func(cfg *Config) { cfg.Logger = observe.NewLoggerWithWriter("debug", &logs) })

	ctx := auth.WithSession(context.Background(), auth.Session{Token: "secret-token"})
	_ = c.GetJSON(ctx, "/states", nil, nil, "")

	if !strings.Contains(logs.String(), `"path":"/v1/states"`) {
		t.Errorf("log = %s", logs.String())
	}
	if strings.Contains(logs.String(), "secret-token") {
		t.Error("token leaked into logs")
	}
}
