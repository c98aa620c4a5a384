// Package id generates record identifiers. Identifiers are random
// UUIDs, so two records created back-to-back within the same
// millisecond cannot collide.
package id

import "github.com/google/uuid"

// New returns a globally unique string identifier.
func New() string {
	return uuid.NewString()
}
