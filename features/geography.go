package features

import (
	"github.com/jonwraymond/ems/api"
	"github.com/jonwraymond/ems/cache"
)

// States manages states, the top of the hierarchy.
type States struct {
	feature *cache.Feature
	CRUD[State, State]
}

func newStates(c *api.Client, o Options) *States {
	f := o.newFeature(FeatureStates)
	return &States{
		feature: f,
		CRUD: defineCRUD[State, State](f, c, resource{singular: "State", plural: "States", path: "/states", noun: "state"},
			func(s State) string { return s.ID }),
	}
}

// Feature returns the underlying cache feature.
func (s *States) Feature() *cache.Feature { return s.feature }

// LGAs manages local government areas.
type LGAs struct {
	feature *cache.Feature
	CRUD[LGA, LGA]
	GetByState *cache.Operation[string, []LGA]
}

func newLGAs(c *api.Client, o Options) *LGAs {
	f := o.newFeature(FeatureLGAs)
	return &LGAs{
		feature: f,
		CRUD: defineCRUD[LGA, LGA](f, c, resource{singular: "LGA", plural: "LGAs", path: "/lgas", noun: "LGA"},
			func(l LGA) string { return l.ID }),
		GetByState: childrenOf[LGA](f, c, "getLGAsByState", "/states", "/lgas", "LGAs"),
	}
}

// Feature returns the underlying cache feature.
func (l *LGAs) Feature() *cache.Feature { return l.feature }

// Wards manages wards.
type Wards struct {
	feature *cache.Feature
	CRUD[Ward, Ward]
	GetByLGA *cache.Operation[string, []Ward]
}

func newWards(c *api.Client, o Options) *Wards {
	f := o.newFeature(FeatureWards)
	return &Wards{
		feature: f,
		CRUD: defineCRUD[Ward, Ward](f, c, resource{singular: "Ward", plural: "Wards", path: "/wards", noun: "ward"},
			func(w Ward) string { return w.ID }),
		GetByLGA: childrenOf[Ward](f, c, "getWardsByLGA", "/lgas", "/wards", "wards"),
	}
}

// Feature returns the underlying cache feature.
func (w *Wards) Feature() *cache.Feature { return w.feature }

// PollingUnits manages polling units, the bottom of the hierarchy.
type PollingUnits struct {
	feature *cache.Feature
	CRUD[PollingUnit, PollingUnit]
	GetByWard *cache.Operation[string, []PollingUnit]
}

func newPollingUnits(c *api.Client, o Options) *PollingUnits {
	f := o.newFeature(FeaturePollingUnits)
	return &PollingUnits{
		feature: f,
		CRUD: defineCRUD[PollingUnit, PollingUnit](f, c, resource{singular: "PollingUnit", plural: "PollingUnits", path: "/polling-units", noun: "polling unit"},
			func(p PollingUnit) string { return p.ID }),
		GetByWard: childrenOf[PollingUnit](f, c, "getPollingUnitsByWard", "/wards", "/polling-units", "polling units"),
	}
}

// Feature returns the underlying cache feature.
func (p *PollingUnits) Feature() *cache.Feature { return p.feature }
