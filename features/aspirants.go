package features

import (
	"context"
	"net/http"

	"github.com/jonwraymond/ems/api"
	"github.com/jonwraymond/ems/cache"
)

// Aspirants manages the candidates of an election.
type Aspirants struct {
	feature       *cache.Feature
	GetByElection *cache.Operation[string, []Aspirant]
	GetByID       *cache.Operation[string, Aspirant]
	Create        *cache.Operation[AspirantInput, Aspirant]
	Delete        *cache.Operation[string, string]
}

func newAspirants(c *api.Client, o Options) *Aspirants {
	f := o.newFeature(FeatureAspirants)
	return &Aspirants{
		feature:       f,
		GetByElection: childrenOf[Aspirant](f, c, "getAspirantsByElection", "/elections", "/aspirants", "aspirants"),
		GetByID: cache.MustDefine(f, "getAspirantById", func(ctx context.Context, id string) (Aspirant, error) {
			return api.Get[Aspirant](ctx, c, "/aspirants/"+api.Segment(id), nil, "Failed to fetch aspirant")
		}),
		Create: cache.MustDefine(f, "createAspirant", func(ctx context.Context, in AspirantInput) (Aspirant, error) {
			form := api.Form{Fields: map[string]string{
				"electionId": in.ElectionID,
				"name":       in.Name,
				"party":      in.Party,
			}}
			if in.Photo != nil {
				form.Files = append(form.Files, in.Photo.file("photo"))
			}
			var out Aspirant
			err := c.Upload(ctx, http.MethodPost, "/aspirants", form, &out, "Failed to create aspirant")
			return out, err
		}),
		Delete: cache.MustDefine(f, "deleteAspirant", func(ctx context.Context, id string) (string, error) {
			if err := c.SendJSON(ctx, http.MethodDelete, "/aspirants/"+api.Segment(id), nil, nil, "Failed to delete aspirant"); err != nil {
				return "", err
			}
			return id, nil
		}),
	}
}

// Feature returns the underlying cache feature.
func (a *Aspirants) Feature() *cache.Feature { return a.feature }
