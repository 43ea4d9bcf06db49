package app

import (
	"github.com/vk/wirestate/internal/registry"
	"github.com/vk/wirestate/modules/counter"
	"github.com/vk/wirestate/modules/search"
)

// coreModules is the definitive list of all component modules that are
// compiled into the wirestate binary.
var coreModules = []registry.Module{
	&counter.Module{},
	&search.Module{},
}
