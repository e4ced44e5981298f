package pool

import (
	"context"

	"kvpool/slot"
)

// replaceOnError implements spec.md §4.5. Under the array-of-cells model,
// "splice under the slot list" becomes a single atomic pointer store at a
// fixed index: there is no list to walk and no node to find by id, because
// id == index.
//
// The replacement stays in the pool whether or not its connect attempt
// succeeds — a failed reconnect leaves it Unconnected, to be retried
// opportunistically by a future Acquire, exactly as spec.md describes.
func (p *Pool) replaceOnError(old *slot.Slot) {
	old.Close() // closes the connection if State == Connected; no-op otherwise

	replacement := slot.New(old.ID, old.EndpointIndex)
	replacement.Mu.Lock()
	if err := slot.Connect(context.Background(), replacement, p.connectParams()); err != nil {
		p.logger.Printf("pool: %v", &ConnectError{SlotID: old.ID, Err: err})
	}
	replacement.Mu.Unlock()

	p.cells[old.ID].Store(replacement)

	old.InUse = false
	old.Mu.Unlock()
}
