package patient

import (
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/google/uuid"
)

// Patient is a registered clinic patient. Patients are never deleted;
// deactivation flips the IsActive flag and keeps the record.
type Patient struct {
	ID          uuid.UUID
	PatientID   string // public identifier, PAT + 5-digit sequence
	FirstName   string
	LastName    string
	DateOfBirth time.Time
	Gender      string // M, F, O
	BloodGroup  *string

	PhoneNumber string
	Email       *string

	AddressLine1 string
	AddressLine2 string
	City         string
	State        string
	Pincode      string

	EmergencyContactName     string
	EmergencyContactPhone    string
	EmergencyContactRelation string

	Allergies          string
	ChronicConditions  string
	CurrentMedications string

	RegisteredBy *uuid.UUID
	IsActive     bool

	CreatedAt time.Time
	UpdatedAt time.Time
}

func (p *Patient) FullName() string {
	return p.FirstName + " " + p.LastName
}

// Age in whole years as of now.
func (p *Patient) Age(now time.Time) int {
	years := now.Year() - p.DateOfBirth.Year()
	if now.Month() < p.DateOfBirth.Month() ||
		(now.Month() == p.DateOfBirth.Month() && now.Day() < p.DateOfBirth.Day()) {
		years--
	}
	return years
}

const idPrefix = "PAT"

// FormatPatientID renders the public patient identifier, e.g. PAT00001.
func FormatPatientID(seq int) string {
	return fmt.Sprintf("%s%05d", idPrefix, seq)
}

// ParsePatientSeq extracts the numeric suffix from a public patient ID.
func ParsePatientSeq(id string) (int, bool) {
	if !strings.HasPrefix(id, idPrefix) {
		return 0, false
	}
	n, err := strconv.Atoi(strings.TrimPrefix(id, idPrefix))
	if err != nil || n < 0 {
		return 0, false
	}
	return n, true
}
