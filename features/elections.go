package features

import (
	"context"

	"github.com/jonwraymond/ems/api"
	"github.com/jonwraymond/ems/cache"
)

// Elections manages elections and their reporting coverage.
type Elections struct {
	feature *cache.Feature
	CRUD[Election, Election]
	GetCoverage *cache.Operation[string, Coverage]
}

func newElections(c *api.Client, o Options) *Elections {
	f := o.newFeature(FeatureElections)
	return &Elections{
		feature: f,
		CRUD: defineCRUD[Election, Election](f, c, resource{singular: "Election", plural: "Elections", path: "/elections", noun: "election"},
			func(e Election) string { return e.ID }),
		GetCoverage: cache.MustDefine(f, "getElectionCoverage", func(ctx context.Context, id string) (Coverage, error) {
			return api.Get[Coverage](ctx, c, "/elections/"+api.Segment(id)+"/coverage", nil, "Failed to fetch election coverage")
		}),
	}
}

// Feature returns the underlying cache feature.
func (e *Elections) Feature() *cache.Feature { return e.feature }
