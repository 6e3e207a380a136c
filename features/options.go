package features

import (
	"context"

	"github.com/jonwraymond/ems/auth"
	"github.com/jonwraymond/ems/cache"
	"github.com/jonwraymond/ems/observe"
)

// Feature names. Operation names are qualified with them.
const (
	FeatureElections    = "elections"
	FeatureAspirants    = "aspirants"
	FeatureResults      = "results"
	FeaturePollingUnits = "pollingUnits"
	FeatureWards        = "wards"
	FeatureLGAs         = "lgas"
	FeatureStates       = "states"
	FeaturePresence     = "presence"
	FeatureReports      = "reports"
	FeatureResultSheets = "resultSheets"
	FeatureVoting       = "voting"
	FeatureUser         = "user"
)

// Names lists every feature in construction order.
var Names = []string{
	FeatureElections,
	FeatureAspirants,
	FeatureResults,
	FeaturePollingUnits,
	FeatureWards,
	FeatureLGAs,
	FeatureStates,
	FeaturePresence,
	FeatureReports,
	FeatureResultSheets,
	FeatureVoting,
	FeatureUser,
}

// Options configures NewRoot.
type Options struct {
	// Policy applies to every feature store. Default: cache.DefaultPolicy().
	Policy cache.Policy

	// Policies overrides Policy per feature name.
	Policies map[string]cache.Policy

	// Keyer derives cache keys. Default: cache.DefaultKeyer.
	Keyer cache.Keyer

	// Middleware wraps every operation's remote call.
	Middleware []cache.Middleware

	// Sessions receives the profile photo mirror and is cleared on logout.
	Sessions auth.SessionStore

	// Logger reports failures that do not fail an operation.
	Logger observe.Logger
}

func (o Options) policy(name string) cache.Policy {
	if p, ok := o.Policies[name]; ok {
		return p
	}
	return o.Policy
}

func (o Options) newFeature(name string) *cache.Feature {
	opts := []cache.FeatureOption{cache.WithMiddleware(o.Middleware...)}
	if o.Keyer != nil {
		opts = append(opts, cache.WithKeyer(o.Keyer))
	}
	return cache.NewFeature(name, o.policy(name), opts...)
}

func (o Options) logger() observe.Logger {
	if o.Logger == nil {
		return observe.NopLogger()
	}
	return o.Logger
}

// Instrument adapts observe middleware to the cache execution chain.
func Instrument(mw *observe.Middleware) cache.Middleware {
	return func(next cache.ExecFunc) cache.ExecFunc {
		wrapped := mw.Wrap(func(ctx context.Context, meta observe.OperationMeta, arg any) (any, error) {
			return next(ctx, meta.OperationID(), arg)
		})
		return func(ctx context.Context, op string, arg any) (any, error) {
			return wrapped(ctx, observe.ParseOperation(op), arg)
		}
	}
}

func observeErr(err error) observe.Field {
	return observe.Field{Key: "error", Value: err.Error()}
}
