package users

import "time"

const (
	RoleUser  = "user"
	RoleAgent = "agent"
	RoleAdmin = "admin"
)

// User is the stored account. PasswordHash is never sent to clients; see
// Public.
type User struct {
	ID           string
	Name         string
	Email        string
	Role         string
	Phone        string
	Avatar       string
	Agency       string
	Verified     bool
	PasswordHash string
	CreatedAt    time.Time
}

// PublicUser is the account as returned by the API.
type PublicUser struct {
	ID       string `json:"id"`
	Name     string `json:"name"`
	Email    string `json:"email"`
	Role     string `json:"role"`
	Phone    string `json:"phone,omitempty"`
	Avatar   string `json:"avatar,omitempty"`
	Agency   string `json:"agency,omitempty"`
	Verified bool   `json:"isVerified"`
}

func (u *User) Public() *PublicUser {
	return &PublicUser{
		ID:       u.ID,
		Name:     u.Name,
		Email:    u.Email,
		Role:     u.Role,
		Phone:    u.Phone,
		Avatar:   u.Avatar,
		Agency:   u.Agency,
		Verified: u.Verified,
	}
}
