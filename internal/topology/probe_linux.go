//go:build linux

package topology

import (
	"fmt"
	"os"
	"strconv"
	"strings"
)

const sysCPURoot = "/sys/devices/system/cpu"

// probeProcessors enumerates online cpus through sysfs. A nil result means
// the probe found nothing usable and callers should fall back to a guess.
func probeProcessors() []processor {
	online, err := os.ReadFile(sysCPURoot + "/online")
	if err != nil {
		return nil
	}
	ids, err := parseCPUList(string(online))
	if err != nil || len(ids) == 0 {
		return nil
	}

	cacheKeys := make(map[string]int)
	procs := make([]processor, 0, len(ids))
	for _, id := range ids {
		base := fmt.Sprintf("%s/cpu%d", sysCPURoot, id)
		pkg, err := readSysInt(base + "/topology/physical_package_id")
		if err != nil {
			pkg = 0
		}
		core, err := readSysInt(base + "/topology/core_id")
		if err != nil {
			// Without core ids every cpu counts as its own core.
			core = id
		}
		procs = append(procs, processor{
			id:    id,
			core:  pkg<<16 | core,
			cache: l2Domain(base, id, cacheKeys),
		})
	}
	return procs
}

// l2Domain resolves the L2 cache domain of a cpu, preferring the kernel's
// cache id and falling back to the shared_cpu_list string. Cpus whose cache
// layout cannot be read each get a domain of their own.
func l2Domain(base string, id int, seen map[string]int) int {
	var key string
	if v, err := readSysInt(base + "/cache/index2/id"); err == nil {
		key = "id:" + strconv.Itoa(v)
	} else if raw, err := os.ReadFile(base + "/cache/index2/shared_cpu_list"); err == nil {
		key = "cpus:" + strings.TrimSpace(string(raw))
	} else {
		key = "cpu:" + strconv.Itoa(id)
	}
	if v, ok := seen[key]; ok {
		return v
	}
	v := len(seen)
	seen[key] = v
	return v
}

func readSysInt(path string) (int, error) {
	raw, err := os.ReadFile(path)
	if err != nil {
		return 0, err
	}
	return strconv.Atoi(strings.TrimSpace(string(raw)))
}
