package models

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDateJSON(t *testing.T) {
	var v struct {
		Due Date `json:"due"`
	}
	require.NoError(t, json.Unmarshal([]byte(`{"due":"2026-10-21"}`), &v))
	assert.Equal(t, "2026-10-21", v.Due.String())

	out, err := json.Marshal(v)
	require.NoError(t, err)
	assert.JSONEq(t, `{"due":"2026-10-21"}`, string(out))

	assert.Error(t, json.Unmarshal([]byte(`{"due":"21/10/2026"}`), &v))

	start, _ := ParseDate("2026-01-01")
	end, _ := ParseDate("2026-12-31")
	assert.True(t, end.After(start))
	assert.False(t, start.After(start))
}

func TestEnums(t *testing.T) {
	assert.True(t, RoleSafetyOfficer.Valid())
	assert.False(t, UserRole("Admin").Valid())
	assert.True(t, RoleProjectManager.SeesEverything())
	assert.False(t, RoleSiteOfficer.SeesEverything())

	assert.True(t, TradeHVAC.Valid())
	assert.False(t, TradeName("MECHANICAL").Valid())
	assert.True(t, SpecialtyMechanical.Valid())
	assert.False(t, SpecialtyNone.Valid())

	assert.True(t, PriorityCritical.Valid())
	assert.False(t, Priority("URGENT").Valid())
	assert.True(t, StatusInProgress.Valid())
}

func TestSpecialtyJSON(t *testing.T) {
	out, err := json.Marshal(User{Username: "a", Role: RoleSiteOfficer})
	require.NoError(t, err)
	assert.Contains(t, string(out), `"specialty":null`)
	assert.NotContains(t, string(out), "PasswordHash")

	out, err = json.Marshal(User{Specialty: SpecialtyPlumbing})
	require.NoError(t, err)
	assert.Contains(t, string(out), `"specialty":"PLUMBING"`)
}
