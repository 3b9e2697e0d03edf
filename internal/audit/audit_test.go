package audit

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var testTime = time.Date(2024, 3, 15, 10, 30, 0, 0, time.UTC)

func testEntry() Entry {
	return Entry{
		Timestamp: testTime,
		Actor:     "cli",
		Action:    ActionPost,
		Details:   "posted 2 entries",
		VoucherID: "V2024-03-001",
		RunID:     "5f0c7a3e-8a34-4f5e-9a55-2b8d2f1f3d10",
	}
}

func TestAppend_NewFile(t *testing.T) {
	dir := t.TempDir()
	require.NoError(t, Append(dir, []Entry{testEntry()}))

	entries, err := Read(dir)
	require.NoError(t, err)
	require.Len(t, entries, 1)
	assert.Equal(t, ActionPost, entries[0].Action)
}

func TestAppend_ExistingFile(t *testing.T) {
	dir := t.TempDir()
	require.NoError(t, Append(dir, []Entry{testEntry()}))

	e2 := testEntry()
	e2.Action = ActionReconcile
	e2.VoucherID = ""
	require.NoError(t, Append(dir, []Entry{e2}))

	entries, err := Read(dir)
	require.NoError(t, err)
	require.Len(t, entries, 2)
	assert.Equal(t, ActionPost, entries[0].Action)
	assert.Equal(t, ActionReconcile, entries[1].Action)
	assert.Empty(t, entries[1].VoucherID)
}

func TestRead_RoundTrip(t *testing.T) {
	dir := t.TempDir()
	original := testEntry()
	original.Details = "memo, with \"quotes\""
	require.NoError(t, Append(dir, []Entry{original}))

	entries, err := Read(dir)
	require.NoError(t, err)
	require.Len(t, entries, 1)

	got := entries[0]
	assert.True(t, original.Timestamp.Equal(got.Timestamp))
	assert.Equal(t, original.Actor, got.Actor)
	assert.Equal(t, original.Details, got.Details)
	assert.Equal(t, original.RunID, got.RunID)
}

func TestRead_NotFound(t *testing.T) {
	entries, err := Read(t.TempDir())
	require.NoError(t, err)
	assert.Nil(t, entries)
}

func TestRead_EmptyFile(t *testing.T) {
	dir := t.TempDir()
	require.NoError(t, os.MkdirAll(filepath.Join(dir, "logs"), 0o755))
	require.NoError(t, os.WriteFile(filepath.Join(dir, "logs", "audit-log.csv"), []byte(Header+"\n"), 0o644))

	entries, err := Read(dir)
	require.NoError(t, err)
	assert.Nil(t, entries)
}

func TestUnmarshalEntry_BadFieldCount(t *testing.T) {
	_, err := UnmarshalEntry([]string{"one", "two"})
	assert.ErrorContains(t, err, "expected 6 fields")
}

func TestUnmarshalEntry_BadTimestamp(t *testing.T) {
	row := MarshalEntry(testEntry())
	row[0] = "yesterday"
	_, err := UnmarshalEntry(row)
	assert.ErrorContains(t, err, "parsing timestamp")
}

func TestTimestampFormat(t *testing.T) {
	e := testEntry()
	e.Timestamp = testTime.In(time.FixedZone("CST", 8*3600))
	assert.Equal(t, "2024-03-15T10:30:00Z", MarshalEntry(e)[0])
}

func TestLog_Record(t *testing.T) {
	dir := t.TempDir()
	l := NewLog(dir, "tester")
	l.now = func() time.Time { return testTime }

	require.NoError(t, l.Record(ActionCommit, "2 lines", "V2024-03-002", ""))

	entries, err := l.Entries()
	require.NoError(t, err)
	require.Len(t, entries, 1)
	assert.Equal(t, "tester", entries[0].Actor)
	assert.Equal(t, ActionCommit, entries[0].Action)
	assert.Equal(t, "V2024-03-002", entries[0].VoucherID)
	assert.True(t, testTime.Equal(entries[0].Timestamp))
}
