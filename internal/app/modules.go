package app

import (
	"github.com/vk/featgridgo/internal/registry"
	"github.com/vk/featgridgo/modules/aggregate"
	"github.com/vk/featgridgo/modules/csvstore"
	"github.com/vk/featgridgo/modules/jsonstore"
	"github.com/vk/featgridgo/modules/memstore"
	"github.com/vk/featgridgo/modules/textstats"
	"github.com/vk/featgridgo/modules/transform"
)

// coreModules is the definitive list of all modules that are compiled into
// the featgridgo binary.
var coreModules = []registry.Module{
	&textstats.Module{},
	&transform.Module{},
	&aggregate.Module{},
	&memstore.Module{},
	&csvstore.Module{},
	&jsonstore.Module{},
}
