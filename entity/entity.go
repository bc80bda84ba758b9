// Package entity implements the inspect-cache and reloadable-handle pattern
// shared by every engine object kind (spec §3 "Entity", §4.E, §4.G).
//
// Handle is generic over the entity's inspect payload type so that each
// domain package (container, image, volume, ...) gets the caching,
// equality, and lazy-refresh behavior for free and only has to supply the
// inspect call itself.
package entity

import (
	"context"
	"fmt"
	"hash/fnv"
	"sync"
	"time"

	"github.com/banksean/enginectl/dwerr"
)

// DefaultValidity is the out-of-the-box cache window (spec §3, §4.E): small
// enough to reflect state changes across distinct operations, large enough
// to collapse an attribute-access burst into a single inspect call.
const DefaultValidity = 10 * time.Millisecond

// InspectFunc resolves a reference (name, id, or other accepted form) to its
// canonical immutable id and parsed payload.
type InspectFunc[T any] func(ctx context.Context, ref string) (id string, payload *T, err error)

// BulkInspectFunc resolves many ids to their payloads in one engine call.
type BulkInspectFunc[T any] func(ctx context.Context, ids []string) ([]*T, error)

// Handle is a reloadable handle over one engine object of payload type T.
type Handle[T any] struct {
	clientKey   string // identifies the owning client for equality (spec §3)
	idFieldName string
	immutableID string
	inspect     InspectFunc[T]

	mu          sync.Mutex
	payload     *T
	lastRefresh time.Time
	validity    time.Duration
}

// NewTrusted builds a zero-cost handle: no inspect call happens until an
// attribute is actually read (spec §3 "is_immutable_id").
func NewTrusted[T any](clientKey, idFieldName, trustedID string, validity time.Duration, inspect InspectFunc[T]) *Handle[T] {
	return &Handle[T]{
		clientKey:   clientKey,
		idFieldName: idFieldName,
		immutableID: trustedID,
		inspect:     inspect,
		validity:    validity,
	}
}

// NewFromReference resolves ref via an inspect call immediately, to obtain
// the canonical immutable id (spec §3 "is_immutable_id" = false case).
func NewFromReference[T any](ctx context.Context, clientKey, idFieldName, ref string, validity time.Duration, inspect InspectFunc[T]) (*Handle[T], error) {
	id, payload, err := inspect(ctx, ref)
	if err != nil {
		return nil, err
	}
	h := &Handle[T]{
		clientKey:   clientKey,
		idFieldName: idFieldName,
		immutableID: id,
		inspect:     inspect,
		validity:    validity,
		payload:     payload,
		lastRefresh: now(),
	}
	return h, nil
}

// now is indirected so tests can freeze time without a real sleep.
var now = time.Now

// ID returns the cached immutable id, resolving it first if absent.
func (h *Handle[T]) ID(ctx context.Context) (string, error) {
	h.mu.Lock()
	id := h.immutableID
	h.mu.Unlock()
	if id != "" {
		return id, nil
	}
	if err := h.Reload(ctx); err != nil {
		return "", err
	}
	h.mu.Lock()
	defer h.mu.Unlock()
	return h.immutableID, nil
}

// MustID returns the immutable id already known at construction time,
// without ever triggering a refresh. Safe for trusted handles.
func (h *Handle[T]) MustID() string {
	h.mu.Lock()
	defer h.mu.Unlock()
	return h.immutableID
}

// ClientKey returns the owning client's identity, for equality checks.
func (h *Handle[T]) ClientKey() string { return h.clientKey }

// String renders the handle's immutable id (spec §3 "String form").
func (h *Handle[T]) String() string { return h.MustID() }

// Hash derives a hash from the immutable id only (spec §3).
func (h *Handle[T]) Hash() uint64 {
	f := fnv.New64a()
	f.Write([]byte(h.MustID()))
	return f.Sum64()
}

// Equal reports whether two handles refer to the same object on the same
// client (spec §3 "Invariants").
func (h *Handle[T]) Equal(other *Handle[T]) bool {
	if other == nil {
		return false
	}
	return h.clientKey == other.clientKey && h.MustID() == other.MustID()
}

func (h *Handle[T]) needsReload() bool {
	if h.payload == nil {
		return true
	}
	return now().Sub(h.lastRefresh) >= h.validity
}

// Inspect returns the cached payload, refreshing first if stale or absent
// (spec §4.E "inspect_result").
func (h *Handle[T]) Inspect(ctx context.Context) (*T, error) {
	h.mu.Lock()
	stale := h.needsReload()
	h.mu.Unlock()
	if stale {
		if err := h.Reload(ctx); err != nil {
			return nil, err
		}
	}
	h.mu.Lock()
	defer h.mu.Unlock()
	return h.payload, nil
}

// Reload forces one refresh via the entity's documented inspect call (spec
// §4.E "reload"). The reference passed to the inspect call is the handle's
// immutable id.
func (h *Handle[T]) Reload(ctx context.Context) error {
	h.mu.Lock()
	ref := h.immutableID
	h.mu.Unlock()

	id, payload, err := h.inspect(ctx, ref)
	if err != nil {
		return err
	}
	h.mu.Lock()
	defer h.mu.Unlock()
	if h.immutableID == "" {
		h.immutableID = id
	}
	h.payload = payload
	h.lastRefresh = now()
	return nil
}

// Invalidate drops the cached payload so the next access refreshes (spec
// §3 "invalidated": "implementations MAY eagerly invalidate" on a
// successful mutating operation).
func (h *Handle[T]) Invalidate() {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.payload = nil
	h.lastRefresh = time.Time{}
}

// OverrideValidity is the scoped-override helper design note 9 calls for:
// it changes this handle's cache window and returns a function that
// restores the previous value, for use in tests (spec §4.E "Refresh
// policy").
func (h *Handle[T]) OverrideValidity(d time.Duration) (restore func()) {
	h.mu.Lock()
	old := h.validity
	h.validity = d
	h.mu.Unlock()
	return func() {
		h.mu.Lock()
		h.validity = old
		h.mu.Unlock()
	}
}

// BulkReload fans a single inspect call with all ids across a homogeneous
// collection sharing a client, matching results back to handles by id, and
// fails the whole batch if any id goes unmatched (spec §4.E "bulk_reload").
func BulkReload[T any](ctx context.Context, handles []*Handle[T], bulk BulkInspectFunc[T], idOf func(*T) string) error {
	if len(handles) == 0 {
		return nil
	}
	ids := make([]string, len(handles))
	for i, h := range handles {
		id, err := h.ID(ctx)
		if err != nil {
			return err
		}
		ids[i] = id
	}

	payloads, err := bulk(ctx, ids)
	if err != nil {
		return err
	}

	byID := make(map[string]*T, len(payloads))
	for _, p := range payloads {
		byID[idOf(p)] = p
	}

	for i, h := range handles {
		p, ok := byID[ids[i]]
		if !ok {
			return &dwerr.ParseError{
				Context: "bulk_reload",
				Cause:   fmt.Errorf("engine did not return an entry for id %q", ids[i]),
			}
		}
		h.mu.Lock()
		h.payload = p
		h.lastRefresh = now()
		h.mu.Unlock()
	}
	return nil
}

// Scope guarantees a teardown callback runs on every exit path from the
// enclosing code, including a panic or error (spec §3 "scoped cleanup",
// design note 9 "Scoped resources").
type Scope struct {
	teardown func(ctx context.Context) error
	released bool
	mu       sync.Mutex
}

// NewScope wraps teardown as a scoped resource.
func NewScope(teardown func(ctx context.Context) error) *Scope {
	return &Scope{teardown: teardown}
}

// Close runs the teardown unless the scope was released. Intended to be
// deferred immediately after the scope is created:
//
//	sc := entity.NewScope(func(ctx context.Context) error { return v.Remove(ctx) })
//	defer sc.Close(ctx)
func (s *Scope) Close(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.released {
		return nil
	}
	s.released = true
	return s.teardown(ctx)
}

// Release converts the scope into a permanent lifetime: the teardown will
// never run.
func (s *Scope) Release() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.released = true
}
