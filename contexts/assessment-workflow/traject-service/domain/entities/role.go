package entities

import "sort"

// Role is the closed set of actor roles the workflow understands. Role strings
// entering the core are canonicalized once with ParseRole.
type Role string

const (
	RoleCandidate          Role = "customer"
	RoleCoach              Role = "coach"
	RoleQualityCoordinator Role = "kwaliteitscoordinator"
	RoleAssessor           Role = "assessor"
	RoleAdmin              Role = "admin"
	// RoleSystem is reserved for scheduled, non-human transitions.
	RoleSystem Role = "system"
)

var roleAliases = map[string]Role{
	"customer":               RoleCandidate,
	"user":                   RoleCandidate,
	"candidate":              RoleCandidate,
	"kandidaat":              RoleCandidate,
	"deelnemer":              RoleCandidate,
	"coach":                  RoleCoach,
	"begeleider":             RoleCoach,
	"kwaliteitscoordinator":  RoleQualityCoordinator,
	"kwaliteitscoördinator":  RoleQualityCoordinator,
	"kwaliteits coordinator": RoleQualityCoordinator,
	"quality coordinator":    RoleQualityCoordinator,
	"qualitycoordinator":     RoleQualityCoordinator,
	"kcr":                    RoleQualityCoordinator,
	"assessor":               RoleAssessor,
	"beoordelaar":            RoleAssessor,
	"admin":                  RoleAdmin,
	"administrator":          RoleAdmin,
	"beheerder":              RoleAdmin,
	"system":                 RoleSystem,
}

// ParseRole canonicalizes a role string. Unknown roles report false.
func ParseRole(raw string) (Role, bool) {
	role, ok := roleAliases[foldLabel(raw)]
	return role, ok
}

// RoleSpellings lists every accepted spelling of role, canonical first. Stores
// use it to match user documents written with legacy role strings.
func RoleSpellings(role Role) []string {
	var aliases []string
	for alias, target := range roleAliases {
		if target == role && alias != string(role) {
			aliases = append(aliases, alias)
		}
	}
	sort.Strings(aliases)
	return append([]string{string(role)}, aliases...)
}

// Valid reports whether r is a canonical role.
func (r Role) Valid() bool {
	switch r {
	case RoleCandidate, RoleCoach, RoleQualityCoordinator, RoleAssessor, RoleAdmin, RoleSystem:
		return true
	default:
		return false
	}
}
