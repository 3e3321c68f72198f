// Package personas wires the built-in personas into an agent registry.
package personas

import (
	"github.com/mkerring/talkshop/internal/agent"
	"github.com/mkerring/talkshop/internal/personas/barista"
	"github.com/mkerring/talkshop/internal/personas/grocer"
	"github.com/mkerring/talkshop/internal/personas/sentinel"
	"github.com/mkerring/talkshop/internal/personas/tutor"
	"github.com/mkerring/talkshop/internal/personas/wellness"
)

// RegisterAll registers every built-in persona on the registry.
func RegisterAll(reg *agent.Registry) {
	reg.MustRegister(barista.New())
	reg.MustRegister(grocer.New())
	reg.MustRegister(sentinel.New())
	reg.MustRegister(tutor.New())
	reg.MustRegister(wellness.New())
}

// NewRegistry returns a registry preloaded with the built-in personas.
func NewRegistry() *agent.Registry {
	reg := agent.NewRegistry()
	RegisterAll(reg)
	return reg
}
