package model

import "github.com/oklog/ulid/v2"

// NewID generates a new ULID string. Batch ids are ULIDs so they sort by
// creation time in the history store.
func NewID() string {
	return ulid.Make().String()
}
