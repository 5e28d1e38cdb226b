package domain

// RoleSummary is the role view embedded in a profile.
type RoleSummary struct {
	ID          int     `json:"id"`
	Name        string  `json:"name"`
	Description *string `json:"description,omitempty"`
}

// UserProfile is the flat, role-inlined projection of a user.
type UserProfile struct {
	ID            string      `json:"id"`
	Email         string      `json:"email"`
	FullName      *string     `json:"full_name"`
	Phone         *string     `json:"phone"`
	Status        UserStatus  `json:"status"`
	EmailVerified bool        `json:"email_verified"`
	Role          RoleSummary `json:"role"`
}

// NewUserProfile projects user and its role. A nil role yields id 0 and name
// "Unknown".
func NewUserProfile(user *User, role *Role) UserProfile {
	summary := RoleSummary{ID: 0, Name: RoleNameUnknown}
	if role != nil {
		summary = RoleSummary{ID: role.ID, Name: role.Name, Description: role.Description}
	}
	return UserProfile{
		ID:            user.ID,
		Email:         user.Email,
		FullName:      user.FullName,
		Phone:         user.Phone,
		Status:        user.Status,
		EmailVerified: user.EmailVerified,
		Role:          summary,
	}
}
