package utils

import (
	"math/rand"
	"time"

	"github.com/araddon/dateparse"
	"github.com/pkg/errors"
)

const alphabet = "abcdefghijklmnopqrstuvwxyz"

// RandomAlphabetString generates a random lowercase string of length n.
func RandomAlphabetString(n int) string {
	b := make([]byte, n)
	for i := range b {
		b[i] = alphabet[rand.Intn(len(alphabet))]
	}
	return string(b)
}

// ParseTimestamp parses a client supplied timestamp into an absolute instant
// in UTC. Clients send timestamps in a variety of formats (ISO-8601 with and
// without offset being the most common), so parsing goes through dateparse
// instead of a fixed layout. Strings without an explicit offset are
// interpreted as UTC, never as server local time, since store-side values are
// stored in UTC.
func ParseTimestamp(raw string) (time.Time, error) {
	t, err := dateparse.ParseIn(raw, time.UTC)
	if err != nil {
		return time.Time{}, errors.Wrapf(err, "invalid timestamp %q", raw)
	}
	return t.UTC(), nil
}
