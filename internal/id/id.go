package id

import (
	"fmt"
	"strconv"
	"strings"
	"time"
)

// VoucherPrefix marks voucher numbers ("V2024-03-001").
const VoucherPrefix = "V"

// FormatVoucherID returns a voucher number like "V2024-03-001".
func FormatVoucherID(year, month, seq int) string {
	return fmt.Sprintf("%s%04d-%02d-%03d", VoucherPrefix, year, month, seq)
}

// FormatEntryID returns an entry ID like "V2024-03-001a" (leg 0='a', 1='b', etc.).
// Legs past 'z' continue as "aa", "ab", ...
func FormatEntryID(voucherID string, leg int) string {
	return voucherID + legSuffix(leg)
}

func legSuffix(leg int) string {
	if leg < 26 {
		return string(rune('a' + leg))
	}
	return legSuffix(leg/26-1) + string(rune('a'+leg%26))
}

// ParseVoucherID parses "V2024-03-001" (with or without leg suffix) into year, month, seq.
func ParseVoucherID(id string) (year, month, seq int, err error) {
	base := VoucherOf(id)
	if !strings.HasPrefix(base, VoucherPrefix) {
		return 0, 0, 0, fmt.Errorf("invalid voucher ID format: %q", id)
	}

	parts := strings.SplitN(strings.TrimPrefix(base, VoucherPrefix), "-", 3)
	if len(parts) != 3 {
		return 0, 0, 0, fmt.Errorf("invalid voucher ID format: %q", id)
	}

	year, err = strconv.Atoi(parts[0])
	if err != nil {
		return 0, 0, 0, fmt.Errorf("invalid year in voucher ID %q: %w", id, err)
	}

	month, err = strconv.Atoi(parts[1])
	if err != nil {
		return 0, 0, 0, fmt.Errorf("invalid month in voucher ID %q: %w", id, err)
	}

	seq, err = strconv.Atoi(parts[2])
	if err != nil {
		return 0, 0, 0, fmt.Errorf("invalid sequence in voucher ID %q: %w", id, err)
	}

	return year, month, seq, nil
}

// VoucherOf strips the leg suffix from an entry ID.
// "V2024-03-001a" -> "V2024-03-001"
func VoucherOf(entryID string) string {
	i := len(entryID)
	for i > 0 && entryID[i-1] >= 'a' && entryID[i-1] <= 'z' {
		i--
	}
	return entryID[:i]
}

// NextVoucherID returns the next free voucher number in date's month given
// the IDs already in use. Unparseable IDs are ignored.
func NextVoucherID(date time.Time, used []string) string {
	year, month := date.Year(), int(date.Month())
	maxSeq := 0
	for _, u := range used {
		y, m, seq, err := ParseVoucherID(u)
		if err != nil || y != year || m != month {
			continue
		}
		if seq > maxSeq {
			maxSeq = seq
		}
	}
	return FormatVoucherID(year, month, maxSeq+1)
}
