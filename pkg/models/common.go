package models

import (
	"time"

	"github.com/google/uuid"
)

// readingNamespace scopes name-based reading ids, so a feed that re-delivers the
// same week yields the same ids and inserts deduplicate.
var readingNamespace = uuid.MustParse("6f1c1f8e-2b8a-4d7e-9b43-5a1f0c6d2e71")

// NewUUID generates a new random UUID string
func NewUUID() string {
	return uuid.New().String()
}

// ReadingID derives a stable id for the reading of weekID taken at ts.
func ReadingID(weekID string, ts time.Time) string {
	return uuid.NewSHA1(readingNamespace, []byte(weekID+ts.UTC().Format(time.RFC3339Nano))).String()
}
