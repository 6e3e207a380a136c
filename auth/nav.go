package auth

// NavEntry is one item of the dashboard navigation.
type NavEntry struct {
	Label string
	Path  string

	// Requires lists capabilities of which at least one must be held.
	// Empty means visible to every authenticated role.
	Requires []Capability
}

// NavEntries is the full navigation, in display order.
var NavEntries = []NavEntry{
	{Label: "Overview", Path: "/dashboard", Requires: []Capability{CapViewOverview}},
	{Label: "Elections", Path: "/elections", Requires: []Capability{CapViewElections}},
	{Label: "Aspirants", Path: "/aspirants", Requires: []Capability{CapManageAspirants}},
	{Label: "Results", Path: "/results", Requires: []Capability{CapViewResults}},
	{Label: "Enter Results", Path: "/results/entry", Requires: []Capability{
		EnterResults(LevelPollingUnit), EnterResults(LevelWard),
		EnterResults(LevelLGA), EnterResults(LevelState),
	}},
	{Label: "Result Sheets", Path: "/result-sheets", Requires: []Capability{CapUploadResultSheet}},
	{Label: "Presence", Path: "/presence", Requires: []Capability{CapMarkPresence}},
	{Label: "Voting", Path: "/voting", Requires: []Capability{CapCastVote}},
	{Label: "States", Path: "/states", Requires: []Capability{CapManageGeography}},
	{Label: "LGAs", Path: "/lgas", Requires: []Capability{CapManageGeography}},
	{Label: "Wards", Path: "/wards", Requires: []Capability{CapManageGeography}},
	{Label: "Polling Units", Path: "/polling-units", Requires: []Capability{CapManageGeography}},
	{Label: "Reports", Path: "/reports", Requires: []Capability{CapViewReports}},
	{Label: "Users", Path: "/users", Requires: []Capability{CapManageUsers}},
	{Label: "Profile", Path: "/profile"},
}

// Navigation returns the entries visible to role.
func Navigation(role Role) []NavEntry {
	return navigationFor(Capabilities(role))
}

// Navigation returns the entries visible to role under this role table.
func (r *RBAC) Navigation(role Role) []NavEntry {
	return navigationFor(r.Capabilities(role))
}

func navigationFor(caps CapabilitySet) []NavEntry {
	out := make([]NavEntry, 0, len(NavEntries))
	for _, e := range NavEntries {
		if len(e.Requires) == 0 || caps.Any(e.Requires...) {
			out = append(out, e)
		}
	}
	return out
}
