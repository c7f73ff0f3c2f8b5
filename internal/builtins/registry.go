// Package builtins holds the set of Node.js built-in module names.
package builtins

import (
	"crypto/sha256"
	"encoding/hex"
	"slices"
	"strings"
)

// Registry is an immutable set of canonical built-in module names.
// It is safe for concurrent reads.
type Registry struct {
	names map[string]struct{}
}

// New builds a registry from names. Blank entries are ignored.
func New(names ...string) *Registry {
	r := &Registry{names: make(map[string]struct{}, len(names))}
	for _, n := range names {
		n = strings.TrimSpace(n)
		if n == "" {
			continue
		}
		r.names[n] = struct{}{}
	}
	return r
}

// With returns a copy of r extended by extra names.
func (r *Registry) With(extra ...string) *Registry {
	if len(extra) == 0 {
		return r
	}
	return New(append(r.Names(), extra...)...)
}

// Has reports whether name is a built-in module. The comparison is exact:
// "fs" and "node:fs" are distinct entries.
func (r *Registry) Has(name string) bool {
	if r == nil {
		return false
	}
	_, ok := r.names[name]
	return ok
}

// Len returns the number of names.
func (r *Registry) Len() int {
	if r == nil {
		return 0
	}
	return len(r.names)
}

// Names returns the names in sorted order.
func (r *Registry) Names() []string {
	if r == nil {
		return nil
	}
	out := make([]string, 0, len(r.names))
	for n := range r.names {
		out = append(out, n)
	}
	slices.Sort(out)
	return out
}

// Digest is a stable SHA-256 over the sorted names.
func (r *Registry) Digest() string {
	h := sha256.New()
	for _, n := range r.Names() {
		h.Write([]byte(n))
		h.Write([]byte{0})
	}
	return hex.EncodeToString(h.Sum(nil))
}
