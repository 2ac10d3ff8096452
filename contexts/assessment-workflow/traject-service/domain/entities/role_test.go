package entities

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestParseRole(t *testing.T) {
	cases := map[string]Role{
		"coach":                 RoleCoach,
		" Coach ":               RoleCoach,
		"Beoordelaar":           RoleAssessor,
		"Kwaliteitscoördinator": RoleQualityCoordinator,
		"quality_coordinator":   RoleQualityCoordinator,
		"Beheerder":             RoleAdmin,
		"kandidaat":             RoleCandidate,
		"system":                RoleSystem,
	}
	for raw, want := range cases {
		got, ok := ParseRole(raw)
		assert.True(t, ok, raw)
		assert.Equal(t, want, got, raw)
	}

	_, ok := ParseRole("superuser")
	assert.False(t, ok)
	_, ok = ParseRole("")
	assert.False(t, ok)
}

func TestRoleSpellingsStartWithCanonical(t *testing.T) {
	spellings := RoleSpellings(RoleAssessor)
	assert.Equal(t, "assessor", spellings[0])
	assert.Contains(t, spellings, "beoordelaar")
	assert.NotContains(t, spellings, "coach")
}

func TestRoleValid(t *testing.T) {
	assert.True(t, RoleAdmin.Valid())
	assert.True(t, RoleSystem.Valid())
	assert.False(t, Role("Admin").Valid())
	assert.False(t, Role("").Valid())
}
