package id

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestFormatVoucherID(t *testing.T) {
	assert.Equal(t, "V2024-03-001", FormatVoucherID(2024, 3, 1))
	assert.Equal(t, "V2025-12-999", FormatVoucherID(2025, 12, 999))
	assert.Equal(t, "V2025-01-1000", FormatVoucherID(2025, 1, 1000))
}

func TestFormatEntryID(t *testing.T) {
	tests := []struct {
		leg  int
		want string
	}{
		{0, "V2024-03-001a"},
		{1, "V2024-03-001b"},
		{25, "V2024-03-001z"},
		{26, "V2024-03-001aa"},
		{27, "V2024-03-001ab"},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, FormatEntryID("V2024-03-001", tt.leg), "leg %d", tt.leg)
	}
}

func TestParseVoucherID(t *testing.T) {
	year, month, seq, err := ParseVoucherID("V2024-03-007b")
	require.NoError(t, err)
	assert.Equal(t, 2024, year)
	assert.Equal(t, 3, month)
	assert.Equal(t, 7, seq)

	for _, bad := range []string{"", "2024-03-001", "Vxxxx-03-001", "V2024-03", "V2024-xx-001", "V2024-03-abc1"} {
		_, _, _, err := ParseVoucherID(bad)
		assert.Error(t, err, "ParseVoucherID(%q)", bad)
	}
}

func TestVoucherOf(t *testing.T) {
	assert.Equal(t, "V2024-03-001", VoucherOf("V2024-03-001a"))
	assert.Equal(t, "V2024-03-001", VoucherOf("V2024-03-001ab"))
	assert.Equal(t, "V2024-03-001", VoucherOf("V2024-03-001"))
	assert.Equal(t, "", VoucherOf(""))
}

func TestNextVoucherID(t *testing.T) {
	date := time.Date(2024, 3, 15, 0, 0, 0, 0, time.UTC)

	assert.Equal(t, "V2024-03-001", NextVoucherID(date, nil))

	used := []string{"V2024-03-001a", "V2024-03-001b", "V2024-03-004a", "V2024-02-010a", "legacy-1"}
	assert.Equal(t, "V2024-03-005", NextVoucherID(date, used))
}
