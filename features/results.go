package features

import (
	"context"
	"net/http"

	"github.com/jonwraymond/ems/api"
	"github.com/jonwraymond/ems/cache"
)

// Results reads collated results at every level and accepts submissions.
type Results struct {
	feature          *cache.Feature
	GetByElection    *cache.Operation[string, []Result]
	GetByPollingUnit *cache.Operation[PollingUnitResultsQuery, []Result]
	GetByWard        *cache.Operation[WardResultsQuery, []Result]
	GetByLGA         *cache.Operation[LGAResultsQuery, []Result]
	GetByState       *cache.Operation[StateResultsQuery, []Result]
	Submit           *cache.Operation[ResultSubmission, Result]
}

func newResults(c *api.Client, o Options) *Results {
	f := o.newFeature(FeatureResults)

	at := func(electionID, level, id string) string {
		return "/results/election/" + api.Segment(electionID) + "/" + level + "/" + api.Segment(id)
	}
	const failure = "Failed to fetch results"

	return &Results{
		feature: f,
		GetByElection: cache.MustDefine(f, "getResultsByElection", func(ctx context.Context, id string) ([]Result, error) {
			return api.Get[[]Result](ctx, c, "/results/election/"+api.Segment(id), nil, failure)
		}),
		GetByPollingUnit: cache.MustDefine(f, "getResultsByElectionAndPollingUnit", func(ctx context.Context, q PollingUnitResultsQuery) ([]Result, error) {
			return api.Get[[]Result](ctx, c, at(q.ElectionID, "polling-unit", q.PollingUnitID), nil, failure)
		}),
		GetByWard: cache.MustDefine(f, "getResultsByElectionAndWard", func(ctx context.Context, q WardResultsQuery) ([]Result, error) {
			return api.Get[[]Result](ctx, c, at(q.ElectionID, "ward", q.WardID), nil, failure)
		}),
		GetByLGA: cache.MustDefine(f, "getResultsByElectionAndLGA", func(ctx context.Context, q LGAResultsQuery) ([]Result, error) {
			return api.Get[[]Result](ctx, c, at(q.ElectionID, "lga", q.LGAID), nil, failure)
		}),
		GetByState: cache.MustDefine(f, "getResultsByElectionAndState", func(ctx context.Context, q StateResultsQuery) ([]Result, error) {
			return api.Get[[]Result](ctx, c, at(q.ElectionID, "state", q.StateID), nil, failure)
		}),
		Submit: cache.MustDefine(f, "submitResult", func(ctx context.Context, in ResultSubmission) (Result, error) {
			return api.Send[Result](ctx, c, http.MethodPost, "/results", in, "Failed to submit result")
		}),
	}
}

// Feature returns the underlying cache feature.
func (r *Results) Feature() *cache.Feature { return r.feature }
