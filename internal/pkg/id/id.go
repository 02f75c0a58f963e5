package id

import (
	"crypto/rand"

	gonanoid "github.com/matoous/go-nanoid/v2"
	"github.com/oklog/ulid/v2"
)

// LongSize is the length of nanoid-based identifiers and object keys.
const LongSize = 64

// New generates a new ULID string. ULIDs are lexicographically sortable
// by creation time and safe for use as DynamoDB partition keys.
func New() string {
	return ulid.MustNew(ulid.Now(), rand.Reader).String()
}

// Long returns a 64-character URL-safe random id (A-Za-z0-9_-).
func Long() (string, error) {
	return gonanoid.New(LongSize)
}

// MustLong is Long for callers that cannot handle a crypto/rand failure.
func MustLong() string {
	return gonanoid.Must(LongSize)
}
