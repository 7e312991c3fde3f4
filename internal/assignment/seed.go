package assignment

import (
	"encoding/binary"
	"strings"
	"time"

	"golang.org/x/crypto/blake2b"
)

// Seed derives the deterministic draw seed for a booking request from the
// event, the chosen start and the attendee email. Hashing the request rather
// than drawing true randomness keeps weighted selection reproducible: retries
// of the same request land on the same host and distribution tests are
// stable, while distinct requests still spread per the configured weights.
func Seed(eventID string, start time.Time, attendeeEmail string) uint64 {
	sum := blake2b.Sum256([]byte(
		eventID + "|" + start.UTC().Format(time.RFC3339) + "|" + strings.ToLower(strings.TrimSpace(attendeeEmail)),
	))
	return binary.BigEndian.Uint64(sum[:8])
}
