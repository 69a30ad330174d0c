// Package models contains domain entities and business models for the campaign tracking platform
package models

import (
	"database/sql/driver"
	"fmt"
)

// Role represents a user's role in the platform
type Role string

const (
	RoleAdmin         Role = "admin"
	RoleInfluencer    Role = "influencer"
	RoleBusinessOwner Role = "business_owner"
)

// String returns the string representation of the role
func (r Role) String() string {
	return string(r)
}

// Valid checks if the role is valid
func (r Role) Valid() bool {
	switch r {
	case RoleAdmin, RoleInfluencer, RoleBusinessOwner:
		return true
	default:
		return false
	}
}

// Scan implements the sql.Scanner interface for Role
func (r *Role) Scan(value any) error {
	if value == nil {
		*r = ""
		return nil
	}

	switch v := value.(type) {
	case string:
		*r = Role(v)
	case []byte:
		*r = Role(string(v))
	default:
		return fmt.Errorf("cannot scan %T into Role", value)
	}

	return nil
}

// Value implements the driver.Valuer interface for Role
func (r Role) Value() (driver.Value, error) {
	if !r.Valid() {
		return nil, fmt.Errorf("invalid Role: %s", r)
	}
	return string(r), nil
}

// GetDisplayName returns a human-readable role name
func (r Role) GetDisplayName() string {
	switch r {
	case RoleAdmin:
		return "Admin"
	case RoleInfluencer:
		return "Influencer"
	case RoleBusinessOwner:
		return "Business Owner"
	default:
		return "Unknown"
	}
}

// Capability identifies a role-gated operation
type Capability string

const (
	CapabilityCreateCampaign       Capability = "create_campaign"
	CapabilityGenerateTrackingLink Capability = "generate_tracking_link"
)

// roleCapabilities maps each capability to the roles permitted to perform it.
// Checked once at the service boundary; client-side role checks are UX only.
var roleCapabilities = map[Capability][]Role{
	CapabilityCreateCampaign:       {RoleAdmin, RoleBusinessOwner},
	CapabilityGenerateTrackingLink: {RoleInfluencer},
}

// RoleCan reports whether the role is permitted to perform the capability
func RoleCan(role Role, capability Capability) bool {
	for _, allowed := range roleCapabilities[capability] {
		if role == allowed {
			return true
		}
	}
	return false
}
