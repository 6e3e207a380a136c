package features_test

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"

	"github.com/jonwraymond/ems/api"
	"github.com/jonwraymond/ems/features"
)

func ExampleRoot() {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		_ = json.NewEncoder(w).Encode(features.Election{ID: "E1", Name: "Governorship"})
	}))
	defer srv.Close()

	client, _ := api.New(api.Config{BaseURL: srv.URL})
	root, _ := features.NewRoot(client, features.Options{})

	op := root.Elections.GetByID
	_, _ = op.Run(context.Background(), "E1")

	key, _ := op.Key("E1")
	election, _ := op.Cached("E1")
	fmt.Println(key)
	fmt.Println(election.Name, op.Loading("E1"))
	// Output:
	// elections/getElectionById::"E1"
	// Governorship false
}
