package features

import (
	"context"
	"errors"
	"fmt"

	"github.com/jonwraymond/ems/api"
	"github.com/jonwraymond/ems/cache"
)

// ErrNilClient indicates NewRoot was given no backend client.
var ErrNilClient = errors.New("features: client is nil")

// Root owns every feature store. Composition is static: the set of
// features is fixed when NewRoot returns.
type Root struct {
	Elections    *Elections
	Aspirants    *Aspirants
	Results      *Results
	PollingUnits *PollingUnits
	Wards        *Wards
	LGAs         *LGAs
	States       *States
	Presence     *PresenceSlice
	Reports      *Reports
	ResultSheets *ResultSheets
	Voting       *Voting
	Users        *Users

	opts     Options
	features map[string]*cache.Feature
}

// NewRoot builds all twelve features over client.
func NewRoot(client *api.Client, opts Options) (*Root, error) {
	if client == nil {
		return nil, ErrNilClient
	}
	for name := range opts.Policies {
		if !known(name) {
			return nil, fmt.Errorf("features: policy for unknown feature %q", name)
		}
	}

	r := &Root{
		Elections:    newElections(client, opts),
		Aspirants:    newAspirants(client, opts),
		Results:      newResults(client, opts),
		PollingUnits: newPollingUnits(client, opts),
		Wards:        newWards(client, opts),
		LGAs:         newLGAs(client, opts),
		States:       newStates(client, opts),
		Presence:     newPresence(client, opts),
		Reports:      newReports(client, opts),
		ResultSheets: newResultSheets(client, opts),
		Voting:       newVoting(client, opts),
		Users:        newUsers(client, opts),
		opts:         opts,
	}

	r.features = make(map[string]*cache.Feature, len(Names))
	for _, f := range []*cache.Feature{
		r.Elections.Feature(),
		r.Aspirants.Feature(),
		r.Results.Feature(),
		r.PollingUnits.Feature(),
		r.Wards.Feature(),
		r.LGAs.Feature(),
		r.States.Feature(),
		r.Presence.Feature(),
		r.Reports.Feature(),
		r.ResultSheets.Feature(),
		r.Voting.Feature(),
		r.Users.Feature(),
	} {
		r.features[f.Name()] = f
	}
	return r, nil
}

func known(name string) bool {
	for _, n := range Names {
		if n == name {
			return true
		}
	}
	return false
}

// Features returns the feature names in construction order.
func (r *Root) Features() []string {
	out := make([]string, len(Names))
	copy(out, Names)
	return out
}

// Feature returns the named feature.
func (r *Root) Feature(name string) (*cache.Feature, bool) {
	f, ok := r.features[name]
	return f, ok
}

// Store returns the named feature store for by-key reads.
func (r *Root) Store(name string) (*cache.Store, bool) {
	f, ok := r.features[name]
	if !ok {
		return nil, false
	}
	return f.Store(), true
}

// ClearAll empties every feature store.
func (r *Root) ClearAll() {
	for _, f := range r.features {
		f.Clear()
	}
}

// Logout clears the persisted session and every cached response.
func (r *Root) Logout(ctx context.Context) error {
	r.ClearAll()
	if r.opts.Sessions == nil {
		return nil
	}
	if err := r.opts.Sessions.Clear(); err != nil {
		r.opts.logger().Error(ctx, "clear session", observeErr(err))
		return err
	}
	return nil
}

// Stats returns per-feature store statistics.
func (r *Root) Stats() map[string]cache.StoreStats {
	out := make(map[string]cache.StoreStats, len(r.features))
	for name, f := range r.features {
		out[name] = f.Store().Stats()
	}
	return out
}
