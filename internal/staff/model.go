package staff

import (
	"fmt"
	"time"

	"github.com/google/uuid"
)

const (
	RoleStaff  = "staff"
	RoleDoctor = "doctor"
)

type User struct {
	ID           uuid.UUID
	Username     string
	FirstName    string
	LastName     string
	Email        string
	PhoneNumber  string
	PasswordHash string
	Role         string
	IsActive     bool
	CreatedAt    time.Time
	UpdatedAt    time.Time
}

func (u *User) FullName() string {
	return u.FirstName + " " + u.LastName
}

// StaffProfile carries the front-desk particulars of a user. One profile per
// user, created in the same transaction as the user row.
type StaffProfile struct {
	ID         uuid.UUID
	UserID     uuid.UUID
	EmployeeID string
	Shift      string // morning, afternoon, night
	Department string
	DateJoined time.Time
}

// FormatEmployeeID renders the public employee identifier, e.g. EMP0007.
func FormatEmployeeID(seq int) string {
	return fmt.Sprintf("EMP%04d", seq)
}
