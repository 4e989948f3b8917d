package testutil

import (
	"github.com/skosovsky/agentics"
)

// NewTestRegistry returns a Registry with panic recovery enabled holding tools.
// It panics if a tool cannot be registered.
func NewTestRegistry(tools ...agentics.Tool) *agentics.Registry {
	reg := agentics.NewRegistry(agentics.WithRecoverPanics(true))
	for _, t := range tools {
		if err := reg.Register(t); err != nil {
			panic(err)
		}
	}
	return reg
}
