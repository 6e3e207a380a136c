package features

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/jonwraymond/ems/api"
	"github.com/jonwraymond/ems/auth"
	"github.com/jonwraymond/ems/cache"
	"github.com/jonwraymond/ems/observe"
)

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

// newBackend starts a fake backend and a Root talking to it.
func newBackend(t *testing.T, mux *http.ServeMux, opts Options) *Root {
	t.Helper()
	srv := httptest.NewServer(mux)
	t.Cleanup(srv.Close)

	client, err := api.New(api.Config{BaseURL: srv.URL})
	if err != nil {
		t.Fatalf("api.New() error = %v", err)
	}
	root, err := NewRoot(client, opts)
	if err != nil {
		t.Fatalf("NewRoot() error = %v", err)
	}
	return root
}

func TestNewRoot(t *testing.T) {
	root := newBackend(t, http.NewServeMux(), Options{})

	names := root.Features()
	if len(names) != 12 {
		t.Fatalf("Features() = %v, want 12 names", names)
	}
	for _, name := range names {
		store, ok := root.Store(name)
		if !ok || store.Name() != name {
			t.Errorf("Store(%q) = %v, %v", name, store, ok)
		}
	}
	if _, ok := root.Store("organizations"); ok {
		t.Error("Store() should not find an unknown feature")
	}

	wantOps := map[string][]string{
		FeatureElections: {"elections/getAllElections", "elections/getElectionById", "elections/createElection",
			"elections/updateElection", "elections/deleteElection", "elections/getElectionCoverage"},
		FeatureLGAs:    {"lgas/getAllLGAs", "lgas/getLGAsByState", "lgas/createLGA"},
		FeatureUser:    {"user/getAllUsers", "user/createUser", "user/updateProfilePhoto"},
		FeatureReports: {"reports/exportResultsCSV"},
	}
	for feature, ops := range wantOps {
		f, _ := root.Feature(feature)
		for _, op := range ops {
			if !f.Registry().Has(op) {
				t.Errorf("%s registry missing %s (have %v)", feature, op, f.Registry().List())
			}
		}
	}
}

func TestNewRoot_Errors(t *testing.T) {
	if _, err := NewRoot(nil, Options{}); !errors.Is(err, ErrNilClient) {
		t.Errorf("NewRoot(nil) error = %v", err)
	}
	client, _ := api.New(api.Config{BaseURL: "http://localhost"})
	_, err := NewRoot(client, Options{Policies: map[string]cache.Policy{"organizations": {}}})
	if err == nil {
		t.Error("NewRoot() should reject a policy for an unknown feature")
	}
}

func TestNewRoot_PerFeaturePolicy(t *testing.T) {
	client, _ := api.New(api.Config{BaseURL: "http://localhost"})
	root, err := NewRoot(client, Options{
		Policies: map[string]cache.Policy{FeatureResults: cache.BoundedPolicy(2, time.Minute)},
	})
	if err != nil {
		t.Fatal(err)
	}
	results, _ := root.Store(FeatureResults)
	states, _ := root.Store(FeatureStates)
	if results.Policy().Capacity != 2 || states.Policy().Bounded() {
		t.Errorf("policies = %+v / %+v", results.Policy(), states.Policy())
	}
}

func TestElections_GetByID(t *testing.T) {
	release := make(chan struct{})
	var auths []string
	var mu sync.Mutex

	mux := http.NewServeMux()
	mux.HandleFunc("GET /elections/{id}", func(w http.ResponseWriter, r *http.Request) {
		mu.Lock()
		auths = append(auths, r.Header.Get("Authorization"))
		mu.Unlock()
		if r.PathValue("id") == "E1" {
			<-release
		}
		writeJSON(w, http.StatusOK, Election{ID: r.PathValue("id"), Name: "Governorship 2023"})
	})
	root := newBackend(t, mux, Options{})
	op := root.Elections.GetByID
	store := op.Feature().Store()
	ctx := auth.WithSession(context.Background(), auth.Session{Token: "tok"})

	key, _ := op.Key("E1")
	if key != `elections/getElectionById::"E1"` {
		t.Fatalf("Key() = %q", key)
	}

	done := make(chan error, 1)
	go func() {
		_, err := op.Run(ctx, "E1")
		done <- err
	}()

	deadline := time.Now().Add(2 * time.Second)
	for !store.Loading(key) {
		if time.Now().After(deadline) {
			t.Fatal("entry never became loading")
		}
		time.Sleep(time.Millisecond)
	}
	close(release)
	if err := <-done; err != nil {
		t.Fatalf("Run() error = %v", err)
	}

	if got := op.SelectData("E1")(store); got.Name != "Governorship 2023" {
		t.Errorf("SelectData() = %+v", got)
	}
	if op.SelectLoading("E1")(store) || op.SelectError("E1")(store) != "" {
		t.Error("entry should be settled without error")
	}

	if _, err := op.Run(ctx, "E2"); err != nil {
		t.Fatal(err)
	}
	if _, ok := store.Data(`elections/getElectionById::"E2"`); !ok {
		t.Error("E2 should have its own key")
	}
	if e := op.Entry("E1"); !e.HasData || e.Loading {
		t.Errorf("E1 entry changed: %+v", e)
	}

	mu.Lock()
	defer mu.Unlock()
	for _, a := range auths {
		if a != "Bearer tok" {
			t.Errorf("Authorization = %q", a)
		}
	}
}

func TestUsers_GetAllKey(t *testing.T) {
	mux := http.NewServeMux()
	mux.HandleFunc("GET /users", func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, http.StatusOK, []User{{ID: "U1", Name: "Ada"}})
	})
	root := newBackend(t, mux, Options{})

	users, err := root.Users.GetAll.Run(context.Background(), cache.None{})
	if err != nil || len(users) != 1 {
		t.Fatalf("Run() = (%v, %v)", users, err)
	}
	store, _ := root.Store(FeatureUser)
	if keys := store.Keys(); len(keys) != 1 || keys[0] != "user/getAllUsers" {
		t.Errorf("Keys() = %v, want [user/getAllUsers]", keys)
	}
}

func TestResults_ReorderedArgumentSharesKey(t *testing.T) {
	root := newBackend(t, http.NewServeMux(), Options{})
	op := root.Results.GetByPollingUnit

	typed, err := op.Key(PollingUnitResultsQuery{ElectionID: "E1", PollingUnitID: "P1"})
	if err != nil {
		t.Fatal(err)
	}

	// The same fields declared in the opposite order.
	reordered := struct {
		PollingUnitID string `json:"pollingUnitId"`
		ElectionID    string `json:"electionId"`
	}{"P1", "E1"}
	other, err := cache.DeriveKey(op.Name(), reordered)
	if err != nil {
		t.Fatal(err)
	}

	want := `results/getResultsByElectionAndPollingUnit::{"electionId":"E1","pollingUnitId":"P1"}`
	if typed != want || other != want {
		t.Errorf("keys = %q / %q, want %q", typed, other, want)
	}
}

func TestLGAs_CreateFailure(t *testing.T) {
	mux := http.NewServeMux()
	mux.HandleFunc("POST /lgas", func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, http.StatusConflict, map[string]string{"message": "duplicate code"})
	})
	root := newBackend(t, mux, Options{})
	op := root.LGAs.Create
	in := LGA{Name: "Ikeja", Code: "IKJ", StateID: "S1"}

	if _, err := op.Run(context.Background(), in); api.StatusCode(err) != http.StatusConflict {
		t.Fatalf("Run() error = %v", err)
	}

	e := op.Entry(in)
	if e.Error != "duplicate code" || e.HasData || e.Loading {
		t.Errorf("entry = %+v", e)
	}
}

func TestStates_StaleDataSurvivesFailure(t *testing.T) {
	var fail atomic.Bool
	mux := http.NewServeMux()
	mux.HandleFunc("GET /states/{id}", func(w http.ResponseWriter, r *http.Request) {
		if fail.Load() {
			writeJSON(w, http.StatusInternalServerError, map[string]any{})
			return
		}
		writeJSON(w, http.StatusOK, State{ID: "S1", Name: "Lagos"})
	})
	root := newBackend(t, mux, Options{})
	op := root.States.GetByID

	if _, err := op.Run(context.Background(), "S1"); err != nil {
		t.Fatal(err)
	}
	fail.Store(true)
	if _, err := op.Run(context.Background(), "S1"); err == nil {
		t.Fatal("second Run() should fail")
	}

	e := op.Entry("S1")
	if !e.HasData || e.Data.(State).Name != "Lagos" {
		t.Errorf("stale data lost: %+v", e)
	}
	if e.Error != "Failed to fetch state" {
		t.Errorf("Error = %q, want the per-operation default", e.Error)
	}
}

func TestNetworkFailureMessage(t *testing.T) {
	srv := httptest.NewServer(http.NewServeMux())
	base := srv.URL
	srv.Close()

	client, _ := api.New(api.Config{BaseURL: base})
	root, _ := NewRoot(client, Options{})

	_, _ = root.Wards.GetByLGA.Run(context.Background(), "L1")
	if got := root.Wards.GetByLGA.Error("L1"); got != api.NetworkErrorMessage {
		t.Errorf("Error() = %q, want %q", got, api.NetworkErrorMessage)
	}
}

func TestUsers_UpdateProfilePhotoMirrorsSession(t *testing.T) {
	mux := http.NewServeMux()
	mux.HandleFunc("PUT /users/profile-photo", func(w http.ResponseWriter, r *http.Request) {
		if _, _, err := r.FormFile("photo"); err != nil {
			writeJSON(w, http.StatusBadRequest, map[string]string{"message": "photo missing"})
			return
		}
		writeJSON(w, http.StatusOK, User{ID: "U1", PhotoURL: "https://cdn.example.org/u1.png"})
	})
	sessions := auth.NewMemorySessionStore()
	_ = sessions.Save(auth.Session{Token: "tok", User: &auth.User{ID: "U1", PhotoURL: "old.png"}})
	root := newBackend(t, mux, Options{Sessions: sessions})

	photo := &Upload{Name: "me.png", ContentType: "image/png", Data: []byte("PNG")}
	user, err := root.Users.UpdateProfilePhoto.Run(context.Background(), photo)
	if err != nil {
		t.Fatalf("Run() error = %v", err)
	}

	s, _ := sessions.Load()
	if s.User.PhotoURL != user.PhotoURL {
		t.Errorf("session photo = %q, want %q", s.User.PhotoURL, user.PhotoURL)
	}

	key, _ := root.Users.UpdateProfilePhoto.Key(photo)
	if !strings.HasPrefix(key, "user/updateProfilePhoto::") || strings.Contains(key, "PNG") {
		t.Errorf("Key() = %q, want a digest-based key", key)
	}

	if _, err := root.Users.UpdateProfilePhoto.Run(context.Background(), nil); err == nil {
		t.Error("Run(nil) should fail")
	}
	if got := root.Users.UpdateProfilePhoto.Error(nil); got != "No photo selected" {
		t.Errorf("Error(nil) = %q", got)
	}
}

func TestUsers_CreateKeyOmitsPassword(t *testing.T) {
	mux := http.NewServeMux()
	mux.HandleFunc("POST /users", func(w http.ResponseWriter, r *http.Request) {
		var in UserInput
		_ = json.NewDecoder(r.Body).Decode(&in)
		if in.Password != "s3cret" {
			t.Errorf("password not sent")
		}
		writeJSON(w, http.StatusCreated, User{ID: "U2", Email: in.Email, Role: in.Role})
	})
	root := newBackend(t, mux, Options{})
	in := UserInput{Name: "Bola", Email: "bola@example.org", Role: auth.RoleWardAgent, Password: "s3cret"}

	if _, err := root.Users.Create.Run(context.Background(), in); err != nil {
		t.Fatal(err)
	}
	key, _ := root.Users.Create.Key(in)
	if key != `user/createUser::"bola@example.org"` {
		t.Errorf("Key() = %q", key)
	}
}

func TestAspirants_CreateUpload(t *testing.T) {
	mux := http.NewServeMux()
	mux.HandleFunc("POST /aspirants", func(w http.ResponseWriter, r *http.Request) {
		f, _, err := r.FormFile("photo")
		if err != nil {
			writeJSON(w, http.StatusBadRequest, map[string]string{"message": "photo missing"})
			return
		}
		data, _ := io.ReadAll(f)
		writeJSON(w, http.StatusCreated, Aspirant{
			ID: "A1", ElectionID: r.FormValue("electionId"), Name: r.FormValue("name"),
			Party: r.FormValue("party"), PhotoURL: "https://cdn/" + string(data),
		})
	})
	root := newBackend(t, mux, Options{})

	in := AspirantInput{ElectionID: "E1", Name: "Ada", Party: "APC",
		Photo: &Upload{Name: "ada.png", ContentType: "image/png", Data: []byte("ada")}}
	got, err := root.Aspirants.Create.Run(context.Background(), in)
	if err != nil {
		t.Fatalf("Run() error = %v", err)
	}
	if got.Name != "Ada" || got.PhotoURL != "https://cdn/ada" {
		t.Errorf("Run() = %+v", got)
	}

	// A different file is a different run.
	other := in
	other.Photo = &Upload{Name: "ada.png", ContentType: "image/png", Data: []byte("ada2")}
	k1, _ := root.Aspirants.Create.Key(in)
	k2, _ := root.Aspirants.Create.Key(other)
	if k1 == k2 {
		t.Error("uploads with different content should not share a key")
	}
}

func TestReports_ExportCSV(t *testing.T) {
	mux := http.NewServeMux()
	mux.HandleFunc("GET /elections/{id}/results/export", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "text/csv")
		_, _ = w.Write([]byte("party,votes\nAPC,10\nPDP,7\n"))
	})
	root := newBackend(t, mux, Options{})

	export, err := root.Reports.ExportCSV.Run(context.Background(), "E1")
	if err != nil {
		t.Fatalf("Run() error = %v", err)
	}
	if len(export.Rows) != 2 || export.Header[1] != "votes" {
		t.Errorf("export = %+v", export)
	}
	if cached, ok := root.Reports.ExportCSV.Cached("E1"); !ok || cached != export {
		t.Error("export should be cached under its election")
	}
}

func TestResultSheets(t *testing.T) {
	mux := http.NewServeMux()
	mux.HandleFunc("GET /result-sheets", func(w http.ResponseWriter, r *http.Request) {
		q := r.URL.Query()
		writeJSON(w, http.StatusOK, []ResultSheet{{ElectionID: q.Get("electionId"), PollingUnitID: q.Get("pollingUnitId")}})
	})
	mux.HandleFunc("POST /result-sheets", func(w http.ResponseWriter, r *http.Request) {
		_, hdr, err := r.FormFile("sheet")
		if err != nil {
			writeJSON(w, http.StatusBadRequest, map[string]string{"error": "sheet missing"})
			return
		}
		writeJSON(w, http.StatusCreated, ResultSheet{ID: "RS1", URL: "https://cdn/" + hdr.Filename})
	})
	root := newBackend(t, mux, Options{})
	ctx := context.Background()

	sheets, err := root.ResultSheets.Get.Run(ctx, ResultSheetQuery{ElectionID: "E1", PollingUnitID: "P1"})
	if err != nil || len(sheets) != 1 || sheets[0].PollingUnitID != "P1" {
		t.Fatalf("Get.Run() = (%v, %v)", sheets, err)
	}

	sheet, err := root.ResultSheets.Upload.Run(ctx, ResultSheetUpload{
		ElectionID: "E1", PollingUnitID: "P1",
		Sheet: Upload{Name: "p1.jpg", Data: []byte{0xff, 0xd8}},
	})
	if err != nil || sheet.URL != "https://cdn/p1.jpg" {
		t.Errorf("Upload.Run() = (%+v, %v)", sheet, err)
	}
}

func TestPresenceVotingAndResults(t *testing.T) {
	mux := http.NewServeMux()
	mux.HandleFunc("POST /presence", func(w http.ResponseWriter, r *http.Request) {
		var in PresenceMark
		_ = json.NewDecoder(r.Body).Decode(&in)
		writeJSON(w, http.StatusCreated, Presence{ElectionID: in.ElectionID, PollingUnitID: in.PollingUnitID, Present: true})
	})
	mux.HandleFunc("GET /elections/{id}/voting-status", func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, http.StatusOK, VotingStatus{ElectionID: r.PathValue("id"), Open: true})
	})
	mux.HandleFunc("POST /votes", func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, http.StatusForbidden, map[string]any{"error": map[string]string{"message": "Voting closed"}})
	})
	mux.HandleFunc("GET /results/election/{e}/ward/{w}", func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, http.StatusOK, []Result{{ElectionID: r.PathValue("e"), Level: auth.LevelWard, LocationID: r.PathValue("w")}})
	})
	root := newBackend(t, mux, Options{})
	ctx := context.Background()

	p, err := root.Presence.Mark.Run(ctx, PresenceMark{ElectionID: "E1", PollingUnitID: "P1"})
	if err != nil || !p.Present {
		t.Errorf("Mark.Run() = (%+v, %v)", p, err)
	}

	status, err := root.Voting.GetStatus.Run(ctx, "E1")
	if err != nil || !status.Open {
		t.Errorf("GetStatus.Run() = (%+v, %v)", status, err)
	}

	vote := VoteInput{ElectionID: "E1", AspirantID: "A1"}
	_, _ = root.Voting.Cast.Run(ctx, vote)
	if got := root.Voting.Cast.Error(vote); got != "Voting closed" {
		t.Errorf("Cast error = %q", got)
	}

	res, err := root.Results.GetByWard.Run(ctx, WardResultsQuery{ElectionID: "E1", WardID: "W1"})
	if err != nil || len(res) != 1 || res[0].LocationID != "W1" {
		t.Errorf("GetByWard.Run() = (%v, %v)", res, err)
	}
}

func TestRoot_LogoutAndClear(t *testing.T) {
	mux := http.NewServeMux()
	mux.HandleFunc("GET /states", func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, http.StatusOK, []State{{ID: "S1"}})
	})
	mux.HandleFunc("GET /states/{id}/lgas", func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, http.StatusOK, []LGA{{ID: "L1", StateID: r.PathValue("id")}})
	})
	sessions := auth.NewMemorySessionStore()
	_ = sessions.Save(auth.Session{Token: "tok"})
	root := newBackend(t, mux, Options{Sessions: sessions})
	ctx := context.Background()

	_, _ = root.States.GetAll.Run(ctx, cache.None{})
	_, _ = root.LGAs.GetByState.Run(ctx, "S1")

	stats := root.Stats()
	if stats[FeatureStates].Keys != 1 || stats[FeatureLGAs].Keys != 1 {
		t.Fatalf("Stats() = %+v", stats)
	}

	if err := root.Logout(ctx); err != nil {
		t.Fatalf("Logout() error = %v", err)
	}
	for name, s := range root.Stats() {
		if s.Keys != 0 {
			t.Errorf("%s still holds %d keys", name, s.Keys)
		}
	}
	if _, err := sessions.Load(); !errors.Is(err, auth.ErrNoSession) {
		t.Errorf("session not cleared: %v", err)
	}
}

func TestRoot_LogoutDropsInFlightResponse(t *testing.T) {
	release := make(chan struct{})
	mux := http.NewServeMux()
	mux.HandleFunc("GET /users", func(w http.ResponseWriter, r *http.Request) {
		<-release
		writeJSON(w, http.StatusOK, []User{{ID: "u1", Name: "previous user"}})
	})
	root := newBackend(t, mux, Options{Sessions: auth.NewMemorySessionStore()})
	op := root.Users.GetAll
	store := op.Feature().Store()
	ctx := context.Background()

	done := make(chan error, 1)
	go func() {
		_, err := op.Run(ctx, cache.None{})
		done <- err
	}()

	deadline := time.Now().Add(2 * time.Second)
	for !store.Loading("user/getAllUsers") {
		if time.Now().After(deadline) {
			t.Fatal("entry never became loading")
		}
		time.Sleep(time.Millisecond)
	}

	if err := root.Logout(ctx); err != nil {
		t.Fatalf("Logout() error = %v", err)
	}
	close(release)
	if err := <-done; err != nil {
		t.Fatalf("Run() error = %v", err)
	}

	if e := op.Entry(cache.None{}); e.HasData || e.Loading {
		t.Errorf("entry after logout = %+v, want empty", e)
	}
	if keys := store.Keys(); len(keys) != 0 {
		t.Errorf("Keys() = %v, want none", keys)
	}
}

func TestInstrument(t *testing.T) {
	mux := http.NewServeMux()
	mux.HandleFunc("GET /elections/{id}/coverage", func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, http.StatusOK, Coverage{ElectionID: r.PathValue("id"), Percent: 42.5})
	})
	var logs bytes.Buffer
	mw := observe.NewMiddleware(nil, nil, observe.NewLoggerWithWriter("info", &logs))
	root := newBackend(t, mux, Options{Middleware: []cache.Middleware{Instrument(mw)}})

	cov, err := root.Elections.GetCoverage.Run(context.Background(), "E1")
	if err != nil || cov.Percent != 42.5 {
		t.Fatalf("Run() = (%+v, %v)", cov, err)
	}

	var entry map[string]any
	if err := json.Unmarshal(bytes.TrimSpace(logs.Bytes()), &entry); err != nil {
		t.Fatalf("log = %q", logs.String())
	}
	if entry["op.id"] != "elections/getElectionCoverage" || entry["op.feature"] != "elections" {
		t.Errorf("log entry = %v", entry)
	}
}
