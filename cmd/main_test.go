package main

import (
	"bytes"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func runApp(t *testing.T, stdin string, args ...string) (string, error) {
	t.Helper()
	var out bytes.Buffer
	app := newApp()
	app.Reader = strings.NewReader(stdin)
	app.Writer = &out
	err := app.Run(append([]string{"icsgen", "--log-level", "error"}, args...))
	return out.String(), err
}

func TestBuildCommand_Stdout(t *testing.T) {
	out, err := runApp(t, `{"uid": "abc", "title": "Party", "start": "1985-09-25"}`, "build")
	require.NoError(t, err)

	assert.True(t, strings.HasPrefix(out, "BEGIN:VCALENDAR\r\n"))
	assert.Contains(t, out, "UID:abc\r\n")
	assert.Contains(t, out, "SUMMARY:Party\r\n")
	assert.Contains(t, out, "DTSTART;VALUE=DATE:19850925\r\n")
	assert.Contains(t, out, "DTEND;VALUE=DATE:19850926\r\n")
	assert.True(t, strings.HasSuffix(out, "\r\nEND:VCALENDAR"), "output must end with the calendar terminator")
	assert.NotContains(t, strings.ReplaceAll(out, "\r\n", ""), "\n")
}

func TestBuildCommand_EmptyInputBuildsDefault(t *testing.T) {
	out, err := runApp(t, "  \n", "build")
	require.NoError(t, err)
	assert.Contains(t, out, "BEGIN:VEVENT\r\nUID:")
	assert.NotContains(t, out, "SUMMARY")
}

func TestBuildCommand_WriteAndValidate(t *testing.T) {
	dir := t.TempDir()
	in := filepath.Join(dir, "attrs.json")
	require.NoError(t, os.WriteFile(in, []byte(`{"title": "Run", "start": "2017-09-25T02:30:00.000Z"}`), 0644))

	_, err := runApp(t, "", "build", "--in", in, "--out", dir, "--filename", "run")
	require.NoError(t, err)

	data, err := os.ReadFile(filepath.Join(dir, "run.ics"))
	require.NoError(t, err)
	assert.Contains(t, string(data), "DTSTART:20170925T023000Z\r\n")

	_, err = runApp(t, "", "validate", filepath.Join(dir, "run.ics"))
	assert.NoError(t, err)
}

func TestBuildCommand_Errors(t *testing.T) {
	_, err := runApp(t, `{"start": "not a date"}`, "build")
	assert.Error(t, err)

	_, err = runApp(t, `{"title": `, "build")
	assert.Error(t, err)

	_, err = runApp(t, `{}`, "--timezone", "Mars/Olympus", "build")
	assert.Error(t, err)
}

func TestValidateCommand_RejectsNonCalendar(t *testing.T) {
	path := filepath.Join(t.TempDir(), "bad.ics")
	require.NoError(t, os.WriteFile(path, []byte("hello"), 0644))

	_, err := runApp(t, "", "validate", path)
	assert.Error(t, err)

	_, err = runApp(t, "", "validate")
	assert.Error(t, err)
}

func TestSplitList(t *testing.T) {
	assert.Equal(t, []string{"a", "b"}, splitList(" a, ,b,"))
	assert.Nil(t, splitList(""))
}

func TestExportCommand_RejectsNonPositiveWatch(t *testing.T) {
	for _, watch := range []string{"0", "-5"} {
		_, err := runApp(t, "", "export", "--calendars", "primary", "--watch", watch)
		require.Error(t, err, watch)
		assert.Contains(t, err.Error(), "--watch must be a positive number")
	}
}
