package features

import (
	"context"
	"net/http"
	"net/url"

	"github.com/jonwraymond/ems/api"
	"github.com/jonwraymond/ems/cache"
)

// ResultSheets manages scanned result sheets.
type ResultSheets struct {
	feature *cache.Feature
	Get     *cache.Operation[ResultSheetQuery, []ResultSheet]
	Upload  *cache.Operation[ResultSheetUpload, ResultSheet]
}

func newResultSheets(c *api.Client, o Options) *ResultSheets {
	f := o.newFeature(FeatureResultSheets)
	return &ResultSheets{
		feature: f,
		Get: cache.MustDefine(f, "getResultSheets", func(ctx context.Context, q ResultSheetQuery) ([]ResultSheet, error) {
			query := url.Values{}
			query.Set("electionId", q.ElectionID)
			if q.PollingUnitID != "" {
				query.Set("pollingUnitId", q.PollingUnitID)
			}
			return api.Get[[]ResultSheet](ctx, c, "/result-sheets", query, "Failed to fetch result sheets")
		}),
		Upload: cache.MustDefine(f, "uploadResultSheet", func(ctx context.Context, in ResultSheetUpload) (ResultSheet, error) {
			form := api.Form{
				Fields: map[string]string{
					"electionId":    in.ElectionID,
					"pollingUnitId": in.PollingUnitID,
				},
				Files: []api.File{in.Sheet.file("sheet")},
			}
			var out ResultSheet
			err := c.Upload(ctx, http.MethodPost, "/result-sheets", form, &out, "Failed to upload result sheet")
			return out, err
		}),
	}
}

// Feature returns the underlying cache feature.
func (r *ResultSheets) Feature() *cache.Feature { return r.feature }
