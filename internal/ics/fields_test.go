package ics

import (
	"math"
	"os"
	"path/filepath"
	"testing"
	"time"

	"icsgen/internal/models"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestIsDateTime(t *testing.T) {
	for in, want := range map[string]bool{
		"1985-09-25":               false,
		"9-26-1985":                false,
		"2017-09-25T02:30:00.000Z": true,
		"09-26-1985 2:20":          true,

		// Any T counts, even outside a time component.
		"Tuesday": true,
		"tuesday": false,
	} {
		assert.Equal(t, want, isDateTime(in), in)
	}
}

func TestAddDays(t *testing.T) {
	loc := time.UTC
	for _, tt := range []struct {
		in   time.Time
		n    int
		want string
	}{
		{time.Date(1985, 1, 31, 13, 0, 0, 0, loc), 1, "19850201"},
		{time.Date(1985, 12, 31, 0, 0, 0, 0, loc), 1, "19860101"},
		{time.Date(1985, 3, 1, 0, 0, 0, 0, loc), -1, "19850228"},
		{time.Date(2024, 2, 28, 0, 0, 0, 0, loc), 1, "20240229"},
	} {
		assert.Equal(t, tt.want, formatLocalDate(addDays(tt.in, tt.n, loc), loc))
	}
}

func TestFormatUTCDateTime(t *testing.T) {
	ts := time.Date(2017, 9, 25, 4, 5, 9, 0, time.FixedZone("CEST", 2*60*60))
	assert.Equal(t, "20170925T020500Z", formatUTCDateTime(ts, false))
	assert.Equal(t, "20170925T020509Z", formatUTCDateTime(ts, true))
}

func TestFormatStatus(t *testing.T) {
	assert.Equal(t, "STATUS:TENTATIVE", formatStatus("TENTATIVE"))
	assert.Equal(t, "STATUS:Cancelled", formatStatus("Cancelled"))
	assert.Equal(t, "STATUS:confirmed", formatStatus("confirmed"))
	assert.Empty(t, formatStatus("done"))
	assert.Empty(t, formatStatus(""))
}

func TestFormatGeo(t *testing.T) {
	assert.Equal(t, "GEO:37.386013;-122.082932", formatGeo(&models.Geo{Lat: 37.386013, Lon: -122.082932}))
	assert.Equal(t, "GEO:10;20.5", formatGeo(&models.Geo{Lat: 10.0, Lon: 20.50}))
	assert.Empty(t, formatGeo(nil))
	assert.Empty(t, formatGeo(&models.Geo{Lat: 37.386013}))
	assert.Empty(t, formatGeo(&models.Geo{Lon: 1}))
	assert.Empty(t, formatGeo(&models.Geo{Lat: models.Coordinate(math.NaN()), Lon: 1}))
}

func TestFormatNumber(t *testing.T) {
	for in, want := range map[float64]string{
		37.386013:   "37.386013",
		-122.082932: "-122.082932",
		10:          "10",
		0.5:         "0.5",
		1e-7:        "1e-7",
		1e21:        "1e+21",
		-2.5e-8:     "-2.5e-8",
	} {
		assert.Equal(t, want, formatNumber(in))
	}
}

func TestFormatCategoriesAndAttachments(t *testing.T) {
	assert.Equal(t, "CATEGORIES:a,b,c", formatCategories([]string{"a", "b", "c"}))
	assert.Equal(t, "CATEGORIES:a,b,c", formatCategories([]string{"a,b", "c"}))
	assert.Empty(t, formatCategories(nil))

	assert.Equal(t, []string{"ATTACH:p", "ATTACH:q"}, formatAttachments([]string{"p", "q"}))
	assert.Empty(t, formatAttachments(nil))
}

func TestSetFileExtension(t *testing.T) {
	assert.Equal(t, "event.ics", SetFileExtension("event"))
	assert.Equal(t, "event.ics", SetFileExtension("event.ics"))
	assert.Equal(t, "/tmp/a.ics.ics", SetFileExtension("/tmp/a.ics.ics"))
	assert.Equal(t, "/tmp/a.ical.ics", SetFileExtension("/tmp/a.ical"))
}

func TestWriteFile(t *testing.T) {
	dir := t.TempDir()
	b := newTestBuilder(WithFilename("party"))

	path, err := b.WriteFile(dir, &models.EventAttributes{Title: "Party", Start: "1985-09-25"})
	require.NoError(t, err)
	assert.Equal(t, filepath.Join(dir, "party.ics"), path)

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Contains(t, string(data), "SUMMARY:Party\r\n")

	_, err = b.WriteFile(dir, &models.EventAttributes{Start: "garbage"})
	require.ErrorIs(t, err, ErrInvalidDate)
}

func TestVerify(t *testing.T) {
	doc, err := newTestBuilder().Build(nil)
	require.NoError(t, err)
	_, err = Verify(doc)
	require.NoError(t, err)

	_, err = Verify("BEGIN:VCALENDAR\r\nVERSION:2.0\r\nPRODID:x\r\nEND:VCALENDAR\r\n")
	assert.ErrorIs(t, err, ErrInvalidDocument)

	_, err = Verify("BEGIN:VCALENDAR\r\nVERSION:2.0\r\nPRODID:x\r\nBEGIN:VEVENT\r\nUID:x\r\nEND:VEVENT\r\nEND:VCALENDAR\r\n")
	assert.ErrorIs(t, err, ErrInvalidDocument)

	_, err = Verify("not a calendar")
	assert.ErrorIs(t, err, ErrInvalidDocument)
}
