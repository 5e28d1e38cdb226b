package domain

import "time"

// Seeded system roles.
const (
	RoleIDAdmin    = 1
	RoleIDManager  = 2
	RoleIDStaff    = 3
	RoleIDSupport  = 4
	RoleIDCustomer = 5

	RoleNameAdmin    = "Admin"
	RoleNameCustomer = "Customer"

	// RoleNameUnknown is reported when a user's role cannot be resolved.
	RoleNameUnknown = "Unknown"
)

// Role groups permissions granted to users.
type Role struct {
	ID          int       `gorm:"primaryKey;autoIncrement" json:"id"`
	Name        string    `gorm:"size:100;not null;uniqueIndex:ix_roles_name" json:"name"`
	Description *string   `json:"description,omitempty"`
	IsSystem    bool      `gorm:"not null;default:false" json:"is_system"`
	CreatedAt   time.Time `json:"created_at"`
}

// TableName pins the roles table name.
func (Role) TableName() string {
	return "roles"
}

// SystemRoles returns the roles every deployment starts with.
func SystemRoles() []Role {
	describe := func(s string) *string { return &s }
	return []Role{
		{ID: RoleIDAdmin, Name: RoleNameAdmin, Description: describe("Full administrative access"), IsSystem: true},
		{ID: RoleIDManager, Name: "Manager", Description: describe("Manages staff and operations"), IsSystem: true},
		{ID: RoleIDStaff, Name: "Staff", Description: describe("Internal staff member"), IsSystem: true},
		{ID: RoleIDSupport, Name: "Support", Description: describe("Customer support agent"), IsSystem: true},
		{ID: RoleIDCustomer, Name: RoleNameCustomer, Description: describe("Self-registered customer"), IsSystem: true},
	}
}
