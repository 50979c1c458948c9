package models

import (
	"encoding/json"
	"time"
)

type UserRole string

const (
	RoleAdmin          UserRole = "ADMIN"
	RoleProjectManager UserRole = "PROJECT MANAGER"
	RoleSiteOfficer    UserRole = "SITE OFFICER"
	RoleSubContractor  UserRole = "SUB CONTRACTOR"
	RoleSafetyOfficer  UserRole = "SAFETY OFFICER"
)

// Roles lists every role in declaration order.
var Roles = []UserRole{
	RoleAdmin,
	RoleProjectManager,
	RoleSiteOfficer,
	RoleSubContractor,
	RoleSafetyOfficer,
}

// Valid reports whether r is one of the declared roles. Matching is case-sensitive.
func (r UserRole) Valid() bool {
	switch r {
	case RoleAdmin, RoleProjectManager, RoleSiteOfficer, RoleSubContractor, RoleSafetyOfficer:
		return true
	}
	return false
}

// SeesEverything is true for the roles that read every project and issue.
func (r UserRole) SeesEverything() bool {
	return r == RoleAdmin || r == RoleProjectManager
}

type Specialty string

const (
	SpecialtyNone          Specialty = ""
	SpecialtyGeneral       Specialty = "GENERAL"
	SpecialtyArchitectural Specialty = "ARCHITECTURAL"
	SpecialtyStructural    Specialty = "STRUCTURAL"
	SpecialtyElectrical    Specialty = "ELECTRICAL"
	SpecialtyMechanical    Specialty = "MECHANICAL"
	SpecialtyPlumbing      Specialty = "PLUMBING"
)

func (s Specialty) Valid() bool {
	switch s {
	case SpecialtyGeneral, SpecialtyArchitectural, SpecialtyStructural,
		SpecialtyElectrical, SpecialtyMechanical, SpecialtyPlumbing:
		return true
	}
	return false
}

// MarshalJSON encodes a missing specialty as null.
func (s Specialty) MarshalJSON() ([]byte, error) {
	if s == SpecialtyNone {
		return []byte("null"), nil
	}
	return json.Marshal(string(s))
}

type User struct {
	ID        uint      `gorm:"primaryKey" json:"id"`
	CreatedAt time.Time `json:"date_joined"`
	UpdatedAt time.Time `json:"-"`

	Username     string    `gorm:"uniqueIndex;size:150;not null" json:"username"`
	Email        string    `gorm:"uniqueIndex;size:254;not null" json:"email"`
	PasswordHash string    `gorm:"not null" json:"-"`
	Role         UserRole  `gorm:"type:varchar(20);not null" json:"role"`
	Specialty    Specialty `gorm:"type:varchar(50)" json:"specialty"`

	AssignedProjects []Project `gorm:"many2many:user_assigned_projects;constraint:OnDelete:CASCADE" json:"-"`
}
