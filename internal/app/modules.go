package app

import (
	"github.com/specialistvlad/extreg/internal/registry"
	"github.com/specialistvlad/extreg/modules/schema"
	"github.com/specialistvlad/extreg/modules/service"
	"github.com/specialistvlad/extreg/modules/topic"
)

// coreModules is the definitive list of all extensions that are compiled into
// the extreg binary.
var coreModules = []registry.Module{
	&topic.Module{},
	&schema.Module{},
	&service.Module{},
}

// Modules returns the extensions compiled into extreg.
func Modules() []registry.Module {
	return append([]registry.Module(nil), coreModules...)
}
