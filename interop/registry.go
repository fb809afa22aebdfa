// Package interop carries the boundary layer of the shim: the live-handle
// table and the operations that marshal engine results into caller-owned
// buffers with sentinel-coded failures.
//
// Sentinel conventions, fixed across the whole surface:
//
//   - handle 0 never refers to a live engine
//   - EncodeAsIDs returns -n when the segmentation needs n > len(buf) slots
//     (buffer untouched), and -1 on any other failure
//   - UCS2LengthOfPieceID returns -1 for the unknown piece and 0 on failure
//
// Diagnostic detail is logged and deliberately discarded; callers only ever
// see the sentinels. Engine panics are recovered here and reported as the
// operation's failure sentinel, so nothing can unwind across the ABI.
package interop

import (
	"log/slog"
	"sync"

	"github.com/techwithsergiu/spm_interop_go/spm"
)

// Handle identifies one live engine across the boundary. Zero is never valid.
type Handle uintptr

// EncodeFailed is the generic encode failure sentinel. Capacity overflow is
// reported as the negated required length instead.
const EncodeFailed = -1

// Registry is the process-wide table of live engines. Handles are validated
// on every operation, so a stale or double-unloaded handle fails cleanly
// instead of touching freed state.
//
// The table itself is mutex-guarded; calls against a single engine are not
// synchronized beyond that.
type Registry struct {
	mu      sync.RWMutex
	engines map[Handle]spm.Engine
	next    Handle
}

// NewRegistry returns an empty registry.
func NewRegistry() *Registry {
	return &Registry{engines: make(map[Handle]spm.Engine)}
}

// Add registers a loaded engine and returns its handle.
func (r *Registry) Add(eng spm.Engine) Handle {
	r.mu.Lock()
	defer r.mu.Unlock()

	r.next++
	h := r.next
	r.engines[h] = eng
	return h
}

// Unload closes and forgets the engine behind h. Unloading a dead handle is
// a logged no-op.
func (r *Registry) Unload(h Handle) {
	r.mu.Lock()
	eng, ok := r.engines[h]
	if ok {
		delete(r.engines, h)
	}
	r.mu.Unlock()

	if !ok {
		slog.Warn("unload of unknown handle", "handle", uintptr(h))
		return
	}

	defer func() {
		if r := recover(); r != nil {
			slog.Error("engine close panicked", "handle", uintptr(h), "recovered", r)
		}
	}()
	eng.Close()
}

// Len returns the number of live engines.
func (r *Registry) Len() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.engines)
}

func (r *Registry) get(h Handle) (spm.Engine, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	eng, ok := r.engines[h]
	return eng, ok
}

// EncodeAsIDs segments text with the engine behind h and copies the piece ids
// into buf starting at offset 0. It returns the id count on success, the
// negated required length when buf is too small (buf untouched), or
// EncodeFailed on any other failure.
func (r *Registry) EncodeAsIDs(h Handle, text string, buf []int32) (n int) {
	defer func() {
		if r := recover(); r != nil {
			slog.Error("encode panicked", "recovered", r)
			n = EncodeFailed
		}
	}()

	eng, ok := r.get(h)
	if !ok {
		slog.Warn("encode with unknown handle", "handle", uintptr(h))
		return EncodeFailed
	}

	ids, err := eng.EncodeAsIDs(text)
	if err != nil {
		slog.Error("encode failed", "error", err)
		return EncodeFailed
	}

	if len(ids) > len(buf) {
		return -len(ids)
	}
	for i, id := range ids {
		buf[i] = int32(id)
	}
	return len(ids)
}

// UCS2LengthOfPieceID returns the UTF-16 code-unit count of the piece behind
// id, -1 if the engine classifies id as unknown, or 0 on failure. Zero is
// safe as a failure sentinel because no real piece has an empty surface form.
func (r *Registry) UCS2LengthOfPieceID(h Handle, id int) (n int) {
	defer func() {
		if r := recover(); r != nil {
			slog.Error("piece length query panicked", "id", id, "recovered", r)
			n = 0
		}
	}()

	eng, ok := r.get(h)
	if !ok {
		slog.Warn("piece length query with unknown handle", "handle", uintptr(h))
		return 0
	}

	if eng.IsUnknown(id) {
		return -1
	}

	piece, err := eng.IDToPiece(id)
	if err != nil {
		slog.Error("piece length query failed", "id", id, "error", err)
		return 0
	}
	return UTF16Units(piece)
}
