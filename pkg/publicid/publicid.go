// Package publicid issues externally safe identifiers for records that are
// exposed outside the service. Internal numeric keys never leave the API.
package publicid

import "github.com/google/uuid"

// New returns a fresh externally visible identifier.
func New() string {
	return uuid.NewString()
}
