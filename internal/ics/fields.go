package ics

import (
	"math"
	"strconv"
	"strings"

	"icsgen/internal/models"
)

var acceptedStatuses = []string{"TENTATIVE", "CONFIRMED", "CANCELLED"}

// Line breaks inside values become the two characters \n (RFC 5545 3.3.11)
// so a property never spans lines. Commas are left as they are.
var lineBreakEscaper = strings.NewReplacer("\r\n", `\n`, "\r", `\n`, "\n", `\n`)

func escapeText(s string) string {
	return lineBreakEscaper.Replace(s)
}

func formatUID(uid string, generate func() string) string {
	if uid != "" {
		return "UID:" + escapeText(uid)
	}
	return "UID:" + generate()
}

// formatProperty returns KEY:value, or "" when value is empty.
func formatProperty(key, value string) string {
	if value == "" {
		return ""
	}
	return key + ":" + escapeText(value)
}

// formatStatus keeps the caller's spelling of an accepted status.
func formatStatus(status string) string {
	if status == "" {
		return ""
	}
	for _, s := range acceptedStatuses {
		if strings.EqualFold(status, s) {
			return "STATUS:" + status
		}
	}
	return ""
}

// formatGeo emits nothing unless both coordinates are finite and non-zero.
func formatGeo(geo *models.Geo) string {
	if geo == nil {
		return ""
	}
	lat, lon := float64(geo.Lat), float64(geo.Lon)
	if !usableCoordinate(lat) || !usableCoordinate(lon) {
		return ""
	}
	return "GEO:" + formatNumber(lat) + ";" + formatNumber(lon)
}

func usableCoordinate(f float64) bool {
	return f != 0 && !math.IsNaN(f) && !math.IsInf(f, 0)
}

// formatNumber renders f the way a JavaScript number converts to text:
// shortest round-trip digits, exponent form outside [1e-6, 1e21).
func formatNumber(f float64) string {
	abs := math.Abs(f)
	if abs != 0 && (abs < 1e-6 || abs >= 1e21) {
		s := strconv.FormatFloat(f, 'e', -1, 64)
		mant, exp, _ := strings.Cut(s, "e")
		return mant + "e" + exp[:1] + strings.TrimLeft(exp[1:], "0")
	}
	return strconv.FormatFloat(f, 'f', -1, 64)
}

func formatCalAddress(property, name, email string) string {
	if name == "" || email == "" {
		return ""
	}
	return property + ";CN=" + escapeText(name) + ":mailto:" + escapeText(email)
}

func formatOrganizer(organizer *models.Person) string {
	if organizer == nil {
		return ""
	}
	return formatCalAddress("ORGANIZER", organizer.Name, organizer.Email)
}

// formatAttendees keeps input order; incomplete entries yield "" and are
// dropped when the document is assembled.
func formatAttendees(attendees []models.Attendee) []string {
	lines := make([]string, 0, len(attendees))
	for _, a := range attendees {
		lines = append(lines, formatCalAddress("ATTENDEE", a.Name, a.Email))
	}
	return lines
}

// formatCategories joins categories with commas. Embedded commas are not escaped.
func formatCategories(categories []string) string {
	if len(categories) == 0 {
		return ""
	}
	return "CATEGORIES:" + escapeText(strings.Join(categories, ","))
}

func formatAttachments(attachments []string) []string {
	lines := make([]string, 0, len(attachments))
	for _, path := range attachments {
		lines = append(lines, formatProperty("ATTACH", path))
	}
	return lines
}
