package features

import (
	"context"
	"net/http"

	"github.com/jonwraymond/ems/api"
	"github.com/jonwraymond/ems/cache"
)

// Voting reads the voting window and casts votes.
type Voting struct {
	feature   *cache.Feature
	GetStatus *cache.Operation[string, VotingStatus]
	Cast      *cache.Operation[VoteInput, Vote]
}

func newVoting(c *api.Client, o Options) *Voting {
	f := o.newFeature(FeatureVoting)
	return &Voting{
		feature: f,
		GetStatus: cache.MustDefine(f, "getVotingStatus", func(ctx context.Context, electionID string) (VotingStatus, error) {
			return api.Get[VotingStatus](ctx, c, "/elections/"+api.Segment(electionID)+"/voting-status", nil, "Failed to fetch voting status")
		}),
		Cast: cache.MustDefine(f, "castVote", func(ctx context.Context, in VoteInput) (Vote, error) {
			return api.Send[Vote](ctx, c, http.MethodPost, "/votes", in, "Failed to cast vote")
		}),
	}
}

// Feature returns the underlying cache feature.
func (v *Voting) Feature() *cache.Feature { return v.feature }
