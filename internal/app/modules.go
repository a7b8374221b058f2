package app

import (
	"github.com/vk/taskgridgo/internal/registry"
	"github.com/vk/taskgridgo/kernels/busywork"
	"github.com/vk/taskgridgo/kernels/checksum"
	"github.com/vk/taskgridgo/kernels/echo"
	"github.com/vk/taskgridgo/kernels/fail"
	"github.com/vk/taskgridgo/kernels/sleep"
)

// coreModules is the definitive list of all kernel modules that are compiled
// into the taskgridgo binary.
var coreModules = []registry.Module{
	&busywork.Module{},
	&checksum.Module{},
	&echo.Module{},
	&fail.Module{},
	&sleep.Module{},
}
