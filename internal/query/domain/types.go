// Package domain contains the read-only contract queries served over HTTP.
package domain

// OwnerResult is the result of an owner query.
type OwnerResult struct {
	Owner string `json:"owner"`
}

// VerifiedResult is the result of a verification query.
type VerifiedResult struct {
	Address  string `json:"address"`
	Verified bool   `json:"verified"`
}
