package features

import (
	"context"
	"net/http"

	"github.com/jonwraymond/ems/api"
	"github.com/jonwraymond/ems/cache"
)

// PresenceSlice tracks agent attendance at polling units.
type PresenceSlice struct {
	feature       *cache.Feature
	GetByElection *cache.Operation[string, []Presence]
	Mark          *cache.Operation[PresenceMark, Presence]
}

func newPresence(c *api.Client, o Options) *PresenceSlice {
	f := o.newFeature(FeaturePresence)
	return &PresenceSlice{
		feature:       f,
		GetByElection: childrenOf[Presence](f, c, "getPresenceByElection", "/elections", "/presence", "presence records"),
		Mark: cache.MustDefine(f, "markPresence", func(ctx context.Context, in PresenceMark) (Presence, error) {
			return api.Send[Presence](ctx, c, http.MethodPost, "/presence", in, "Failed to mark presence")
		}),
	}
}

// Feature returns the underlying cache feature.
func (p *PresenceSlice) Feature() *cache.Feature { return p.feature }
