package user

import "time"

type Role string

const (
	RoleAthlete Role = "athlete"
	RoleCoach   Role = "coach"
	RoleAdmin   Role = "admin"
)

type User struct {
	ID            string    `json:"id"`
	ClerkID       string    `json:"clerkId"`
	Email         string    `json:"email"`
	Username      string    `json:"username"`
	FirstName     string    `json:"firstName"`
	LastName      string    `json:"lastName"`
	ImageURL      string    `json:"imageUrl,omitempty"`
	Role          Role      `json:"role"`
	Belt          string    `json:"belt,omitempty"`
	EmailVerified bool      `json:"emailVerified"`
	CreatedAt     time.Time `json:"createdAt"`
	UpdatedAt     time.Time `json:"updatedAt"`
}

// DisplayName is what leaderboards and chat lists show for this user.
func (u *User) DisplayName() string {
	if u.Username != "" {
		return u.Username
	}
	return u.FirstName + " " + u.LastName
}
