package auth

import (
	"fmt"
	"sort"
	"strings"
)

// Role is the role string of a session.
type Role string

// Known roles. Each agent role is bound to one level of the hierarchy.
const (
	RoleSuperAdmin       Role = "superadmin"
	RoleExecutive        Role = "executive"
	RoleRegular          Role = "regular"
	RolePollingUnitAgent Role = "polling_unit_agent"
	RoleWardAgent        Role = "ward_agent"
	RoleLGAAgent         Role = "lga_agent"
	RoleStateAgent       Role = "state_agent"
)

// Level is a level of the geographic hierarchy.
type Level string

const (
	LevelState       Level = "state"
	LevelLGA         Level = "lga"
	LevelWard        Level = "ward"
	LevelPollingUnit Level = "polling_unit"
)

// OverviewRoles may see the cross-hierarchy overview dashboard.
var OverviewRoles = []Role{RoleExecutive, RoleRegular, RoleSuperAdmin}

// AgentRoles maps each hierarchy level to the role that enters its results.
var AgentRoles = map[Level]Role{
	LevelPollingUnit: RolePollingUnitAgent,
	LevelWard:        RoleWardAgent,
	LevelLGA:         RoleLGAAgent,
	LevelState:       RoleStateAgent,
}

// Capability is a page-level affordance gated by role.
type Capability string

const (
	CapViewOverview      Capability = "overview:view"
	CapViewElections     Capability = "elections:view"
	CapManageElections   Capability = "elections:manage"
	CapManageAspirants   Capability = "aspirants:manage"
	CapManageGeography   Capability = "geography:manage"
	CapManageUsers       Capability = "users:manage"
	CapViewResults       Capability = "results:view"
	CapViewReports       Capability = "reports:view"
	CapExportReports     Capability = "reports:export"
	CapCreateReports     Capability = "reports:create"
	CapMarkPresence      Capability = "presence:mark"
	CapUploadResultSheet Capability = "result_sheets:upload"
	CapCastVote          Capability = "voting:cast"
)

// EnterResults returns the capability to enter results at level.
func EnterResults(level Level) Capability {
	return Capability("results:enter:" + string(level))
}

// RoleConfig defines the capabilities of a role.
type RoleConfig struct {
	// Capabilities granted directly.
	Capabilities []Capability

	// Inherits lists roles whose capabilities this role also has.
	Inherits []Role
}

// RBACConfig maps roles to their configuration.
type RBACConfig struct {
	Roles map[Role]RoleConfig
}

// DefaultRBACConfig returns the role table of the dashboard.
func DefaultRBACConfig() RBACConfig {
	agent := func(level Level, extra ...Capability) RoleConfig {
		caps := append([]Capability{CapViewElections, CapViewResults, CapMarkPresence, EnterResults(level)}, extra...)
		return RoleConfig{Capabilities: caps}
	}

	return RBACConfig{
		Roles: map[Role]RoleConfig{
			RoleRegular: {
				Capabilities: []Capability{CapViewOverview, CapViewElections, CapViewResults},
			},
			RoleExecutive: {
				Capabilities: []Capability{CapViewReports, CapExportReports, CapCreateReports},
				Inherits:     []Role{RoleRegular},
			},
			RoleSuperAdmin: {
				Capabilities: []Capability{
					CapManageElections, CapManageAspirants, CapManageGeography, CapManageUsers,
				},
				Inherits: []Role{RoleExecutive},
			},
			RolePollingUnitAgent: agent(LevelPollingUnit, CapUploadResultSheet, CapCastVote),
			RoleWardAgent:        agent(LevelWard),
			RoleLGAAgent:         agent(LevelLGA),
			RoleStateAgent:       agent(LevelState),
		},
	}
}

// CapabilitySet is the set of capabilities a role unlocks.
type CapabilitySet map[Capability]struct{}

// Has reports whether c is in the set.
func (s CapabilitySet) Has(c Capability) bool {
	_, ok := s[c]
	return ok
}

// Any reports whether any of cs is in the set.
func (s CapabilitySet) Any(cs ...Capability) bool {
	for _, c := range cs {
		if s.Has(c) {
			return true
		}
	}
	return false
}

// List returns the capabilities in sorted order.
func (s CapabilitySet) List() []Capability {
	out := make([]Capability, 0, len(s))
	for c := range s {
		out = append(out, c)
	}
	sort.Slice(out, func(i, j int) bool { return out[i] < out[j] })
	return out
}

// RBAC resolves roles to capability sets.
type RBAC struct {
	config RBACConfig
}

// NewRBAC creates a resolver over config.
func NewRBAC(config RBACConfig) *RBAC {
	return &RBAC{config: config}
}

// Capabilities returns the capabilities of role, including inherited ones.
// An unknown or empty role yields the empty set.
func (r *RBAC) Capabilities(role Role) CapabilitySet {
	set := make(CapabilitySet)
	for _, name := range r.collectRoles(normalizeRole(role)) {
		for _, c := range r.config.Roles[name].Capabilities {
			set[c] = struct{}{}
		}
	}
	return set
}

// Require returns ErrForbidden unless role has c.
func (r *RBAC) Require(role Role, c Capability) error {
	if r.Capabilities(role).Has(c) {
		return nil
	}
	return fmt.Errorf("%w: role %q lacks %q", ErrForbidden, role, c)
}

func (r *RBAC) collectRoles(role Role) []Role {
	if _, ok := r.config.Roles[role]; !ok {
		return nil
	}

	seen := make(map[Role]bool)
	result := make([]Role, 0)
	toProcess := []Role{role}

	for len(toProcess) > 0 {
		current := toProcess[0]
		toProcess = toProcess[1:]

		if seen[current] {
			continue
		}
		seen[current] = true
		result = append(result, current)

		if rc, ok := r.config.Roles[current]; ok {
			for _, inherited := range rc.Inherits {
				if !seen[inherited] {
					toProcess = append(toProcess, inherited)
				}
			}
		}
	}
	return result
}

func normalizeRole(role Role) Role {
	return Role(strings.ToLower(strings.TrimSpace(string(role))))
}

var defaultRBAC = NewRBAC(DefaultRBACConfig())

// Capabilities resolves role against the default role table.
func Capabilities(role Role) CapabilitySet {
	return defaultRBAC.Capabilities(role)
}

// IsOverviewRole reports whether role may see the overview dashboard.
func IsOverviewRole(role Role) bool {
	role = normalizeRole(role)
	for _, r := range OverviewRoles {
		if r == role {
			return true
		}
	}
	return false
}

// AgentLevel returns the hierarchy level an agent role enters results for.
func AgentLevel(role Role) (Level, bool) {
	role = normalizeRole(role)
	for level, r := range AgentRoles {
		if r == role {
			return level, true
		}
	}
	return "", false
}
