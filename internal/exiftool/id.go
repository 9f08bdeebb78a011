package exiftool

import "sync"

// idMu and nextCommandID implement the cross-instance-shared id allocator
// described in spec §5: ids are unique across every Supervisor in the
// process, not just within one, mirroring the original's static counter
// guarded by a static mutex.
var (
	idMu          sync.Mutex
	nextCommandID = MinCommandID
)

// allocateCommandID returns the next command id and advances the shared
// counter, wrapping back to MinCommandID after MaxCommandID.
func allocateCommandID() int32 {
	idMu.Lock()
	defer idMu.Unlock()

	id := nextCommandID
	nextCommandID++
	if nextCommandID > MaxCommandID {
		nextCommandID = MinCommandID
	}
	return id
}
