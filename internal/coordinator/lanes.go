package coordinator

import "hash/fnv"

// laneFor hashes storageKey to one of numLanes lanes with FNV-1a, so
// every WorkEvent for the same key always routes to the same lane and
// is therefore processed in submission order relative to its
// predecessors, regardless of which source emitted it.
func laneFor(storageKey string, numLanes int) int {
	h := fnv.New32a()
	_, _ = h.Write([]byte(storageKey))
	return int(h.Sum32() % uint32(numLanes))
}

// LaneFor exposes laneFor's routing decision to callers outside this
// package (acceptance tests, ops tooling) that need to reason about
// which lane a given key would land on without spinning up a
// Coordinator.
func LaneFor(storageKey string, numLanes int) int {
	return laneFor(storageKey, numLanes)
}
