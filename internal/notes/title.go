package notes

import (
	"crypto/sha256"
	"fmt"
	"math/rand/v2"
	"strings"
	"time"
)

const (
	contentTitleSliceLength = 40
	titleSegmentSeparator   = " - "
	titleIDLength           = 5
)

// Characters that cannot appear in note titles across the filesystems and
// hosts the vault may live on.
const forbiddenTitleChars = `*"\/<>:|?#^[]` + "\n\r\t"

const idAlphabet = "abcdefghijklmnopqrstuvwxyz0123456789"

// Title derives a note title from a slice of the content plus a UTC
// datetime and a short random id, so titles stay readable, sortable, and
// collision-resistant.
func Title(content string, now time.Time) string {
	var segments []string
	if slice := strings.TrimSpace(content); slice != "" {
		if len(slice) > contentTitleSliceLength {
			slice = slice[:contentTitleSliceLength]
		}
		if sanitized := strings.TrimSpace(SanitizeTitle(slice)); sanitized != "" {
			segments = append(segments, sanitized)
		}
	}
	segments = append(segments, dateTimeString(now), generateID(titleIDLength))
	return strings.Join(segments, titleSegmentSeparator)
}

// SanitizeTitle replaces characters that cannot be used in note titles
// with spaces.
func SanitizeTitle(text string) string {
	return strings.Map(func(r rune) rune {
		if strings.ContainsRune(forbiddenTitleChars, r) {
			return ' '
		}
		return r
	}, strings.TrimSpace(text))
}

// ContentSlice returns the start of content capped at sliceLength,
// appending ellipses when truncated.
func ContentSlice(content string, sliceLength int, ellipses bool) string {
	trimmed := strings.TrimSpace(content)
	if len(trimmed) <= sliceLength {
		return trimmed
	}
	if !ellipses {
		return trimmed[:sliceLength]
	}
	return trimmed[:sliceLength-3] + "..."
}

// ShortHash returns a short stable digest of text, used to disambiguate
// duplicate note names. Content is normalized the same way regardless of
// platform line endings.
func ShortHash(text string) string {
	normalized := strings.ReplaceAll(strings.TrimSpace(text), "\r\n", "\n")
	sum := sha256.Sum256([]byte(normalized))
	return fmt.Sprintf("%x", sum)[:8]
}

// dateTimeString formats a title-safe UTC date and time.
func dateTimeString(t time.Time) string {
	t = t.UTC()
	return fmt.Sprintf("%d-%d-%dT%dH%dM", t.Year(), int(t.Month()), t.Day(), t.Hour(), t.Minute())
}

func generateID(length int) string {
	var sb strings.Builder
	for range length {
		sb.WriteByte(idAlphabet[rand.IntN(len(idAlphabet))])
	}
	return sb.String()
}
