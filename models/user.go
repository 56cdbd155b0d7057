package models

// User is an account on the backend. Suppliers are users with the supplier role.
type User struct {
	ID          uint    `json:"id"`
	Role        string  `json:"role"`
	FullName    string  `json:"full_name"`
	PhoneNumber string  `json:"phone_number"`
	Image       *string `json:"image"`
	AuthType    string  `json:"auth_type"`
	IsActive    bool    `json:"is_active"`
	DateJoined  string  `json:"date_joined"`
}

// DisplayName returns the full name, falling back to the phone number
func (u *User) DisplayName() string {
	if u == nil {
		return ""
	}
	if u.FullName != "" {
		return u.FullName
	}
	return u.PhoneNumber
}
