// Package id provides unique identifier generation for job descriptors.
package id

import (
	"github.com/google/uuid"
)

// Prefix is prepended to every generated identifier.
const Prefix = "job-"

// Generate creates a new unique job ID.
// Format: job-<uuid v4>
// Example: job-6f1c2d0e-8a9b-4c3d-9e7f-0a1b2c3d4e5f
func Generate() string {
	return Prefix + uuid.NewString()
}

// Valid reports whether s looks like an ID produced by Generate.
func Valid(s string) bool {
	if len(s) <= len(Prefix) || s[:len(Prefix)] != Prefix {
		return false
	}
	_, err := uuid.Parse(s[len(Prefix):])
	return err == nil
}
