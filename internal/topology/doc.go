// Package topology models the processor layout an executor schedules onto.
//
// A topology is an ordered list of groups, one per worker the executor will
// spawn. Groups carry an optional processor affinity and cache placement so
// workers can be spread across physical cores or L2 cache domains instead of
// piling onto logical cpus. Probing reads Linux sysfs when available and
// degrades to a cpu-count guess elsewhere; probe results are advisory and
// never fail topology construction.
package topology
