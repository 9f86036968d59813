package models

import "strings"

// Role selects which prefix of the upstream API a session may call.
type Role string

const (
	RoleOwner Role = "owner"
	RoleStaff Role = "staff"
	RoleChef  Role = "chef"
	RoleAdmin Role = "admin"
)

func NormalizeRole(s string) (Role, bool) {
	r := Role(strings.ToLower(strings.TrimSpace(s)))
	switch r {
	case RoleOwner, RoleStaff, RoleChef, RoleAdmin:
		return r, true
	}
	return r, false
}

// DashboardPath maps a role to its post-login landing route, kept for parity
// with the upstream dashboard's redirect table.
func DashboardPath(r Role) string {
	switch r {
	case RoleOwner:
		return "/dashboard"
	case RoleStaff:
		return "/staff-dashboard"
	case RoleChef:
		return "/chef-dashboard"
	case RoleAdmin:
		return "/admin-dashboard"
	default:
		return "/login"
	}
}

// UserInfo is the profile payload cached alongside the token pair.
type UserInfo struct {
	ID          int64   `json:"id"`
	Username    string  `json:"username"`
	Role        string  `json:"role"`
	Restaurants []int64 `json:"restaurants"`
}

// Session is the persisted authentication state. Presence of AccessToken is
// the sole "logged in" signal; expiry is handled by the refresh-on-401 path.
type Session struct {
	AccessToken  string   `json:"accessToken"`
	RefreshToken string   `json:"refreshToken"`
	UserInfo     UserInfo `json:"userInfo"`
}

// Restaurant is the admin-level view of a tenant.
type Restaurant struct {
	ID        int64  `gorm:"primaryKey;column:id"`
	Name      string `gorm:"column:name"`
	OwnerName string `gorm:"column:owner_name"`
	Email     string `gorm:"column:email"`
	Active    bool   `gorm:"column:active"`
}

func (Restaurant) TableName() string { return "restaurants" }
