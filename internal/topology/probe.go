package topology

import (
	"fmt"
	"strconv"
	"strings"
)

// processor is one logical cpu as reported by the host probe.
type processor struct {
	id    int // logical cpu number
	core  int // physical core key, unique per (package, core) pair
	cache int // dense L2 cache domain ordinal
}

// parseCPUList parses the kernel's cpu list format, e.g. "0-3,8,10-11".
func parseCPUList(s string) ([]int, error) {
	var out []int
	for _, part := range strings.Split(strings.TrimSpace(s), ",") {
		if part == "" {
			continue
		}
		loStr, hiStr, ranged := strings.Cut(part, "-")
		lo, err := strconv.Atoi(loStr)
		if err != nil {
			return nil, fmt.Errorf("cpu list %q: %w", s, err)
		}
		hi := lo
		if ranged {
			hi, err = strconv.Atoi(hiStr)
			if err != nil {
				return nil, fmt.Errorf("cpu list %q: %w", s, err)
			}
		}
		if hi < lo {
			return nil, fmt.Errorf("cpu list %q: descending range %q", s, part)
		}
		for i := lo; i <= hi; i++ {
			out = append(out, i)
		}
	}
	return out, nil
}
