package booking

import (
	"fmt"
	"math/rand/v2"
	"strings"
	"time"
)

const idAlphabet = "ABCDEFGHIJKLMNOPQRSTUVWXYZ0123456789"

// FormatAppointmentID renders the public id for the given day and sequence,
// e.g. APT202608260042.
func FormatAppointmentID(day time.Time, seq int) string {
	return fmt.Sprintf("APT%s%04d", day.Format("20060102"), seq)
}

// RandomAppointmentID is the fallback when sequential assignment keeps
// colliding: same prefix, random 4-character suffix.
func RandomAppointmentID(day time.Time) string {
	var b strings.Builder
	b.WriteString("APT")
	b.WriteString(day.Format("20060102"))
	for i := 0; i < 4; i++ {
		b.WriteByte(idAlphabet[rand.IntN(len(idAlphabet))])
	}
	return b.String()
}
