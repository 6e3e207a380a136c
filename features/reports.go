package features

import (
	"context"
	"net/http"

	"github.com/jonwraymond/ems/api"
	"github.com/jonwraymond/ems/cache"
)

// Reports manages situation reports and result exports.
type Reports struct {
	feature       *cache.Feature
	GetByElection *cache.Operation[string, []Report]
	Create        *cache.Operation[ReportInput, Report]
	ExportCSV     *cache.Operation[string, *api.CSVExport]
}

func newReports(c *api.Client, o Options) *Reports {
	f := o.newFeature(FeatureReports)
	return &Reports{
		feature:       f,
		GetByElection: childrenOf[Report](f, c, "getReportsByElection", "/elections", "/reports", "reports"),
		Create: cache.MustDefine(f, "createReport", func(ctx context.Context, in ReportInput) (Report, error) {
			return api.Send[Report](ctx, c, http.MethodPost, "/reports", in, "Failed to create report")
		}),
		ExportCSV: cache.MustDefine(f, "exportResultsCSV", func(ctx context.Context, electionID string) (*api.CSVExport, error) {
			return c.ExportCSV(ctx, "/elections/"+api.Segment(electionID)+"/results/export", nil, "Failed to export results")
		}),
	}
}

// Feature returns the underlying cache feature.
func (r *Reports) Feature() *cache.Feature { return r.feature }
