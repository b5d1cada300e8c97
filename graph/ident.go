package graph

import (
	"fmt"
	"strings"
)

// Registry mints collision-safe, deterministic stable IDs for entities.
//
// The registry is a plain value owned by whoever runs the discovery pass and
// threaded through mint calls. It is deliberately not a package-level
// singleton so independent pipeline runs cannot contaminate each other.
//
// Determinism guarantee: the same sequence of (rawName, entityType) calls
// always yields the same sequence of IDs, across independent registry
// instances and across sessions.
type Registry struct {
	byRaw map[rawKey]string // exact raw string -> first assigned ID
	seen  map[baseKey]int   // distinct raw strings seen per (type, key)
}

type rawKey struct {
	Type EntityType
	Raw  string
}

type baseKey struct {
	Type EntityType
	Key  string
}

// NewRegistry creates an empty identifier registry
func NewRegistry() *Registry {
	return &Registry{
		byRaw: make(map[rawKey]string),
		seen:  make(map[baseKey]int),
	}
}

// Mint returns the stable ID for rawName under the given entity type.
//
// Minting is total: it never fails, and re-submitting a previously seen raw
// string always returns its original ID even after later collisions. The
// first raw string normalizing to a key gets the bare PREFIX-KEY; subsequent
// distinct raw strings colliding on the same key get _2, _3, ... suffixes in
// first-seen order.
func (r *Registry) Mint(rawName string, entityType EntityType) string {
	rk := rawKey{Type: entityType, Raw: rawName}
	if id, ok := r.byRaw[rk]; ok {
		return id
	}

	key := NormalizeKey(rawName)
	bk := baseKey{Type: entityType, Key: key}
	n := r.seen[bk] + 1
	r.seen[bk] = n

	id := entityType.Prefix() + "-" + key
	if n > 1 {
		id = fmt.Sprintf("%s_%d", id, n)
	}
	r.byRaw[rk] = id
	return id
}

// Known reports whether rawName was already minted for the given type,
// returning its ID when so. Unlike Mint this never assigns a new ID.
func (r *Registry) Known(rawName string, entityType EntityType) (string, bool) {
	id, ok := r.byRaw[rawKey{Type: entityType, Raw: rawName}]
	return id, ok
}

// NormalizeKey collapses a raw name to its canonical ID key:
// uppercase, runs of non-alphanumerics become single underscores, edges
// trimmed. Empty or fully non-alphanumeric input yields an empty key, which
// still mints a stable (if degenerate) ID.
func NormalizeKey(raw string) string {
	var b strings.Builder
	b.Grow(len(raw))
	pendingSep := false
	for _, r := range strings.ToUpper(raw) {
		alnum := (r >= 'A' && r <= 'Z') || (r >= '0' && r <= '9')
		if alnum {
			if pendingSep && b.Len() > 0 {
				b.WriteByte('_')
			}
			pendingSep = false
			b.WriteRune(r)
			continue
		}
		pendingSep = true
	}
	return b.String()
}
