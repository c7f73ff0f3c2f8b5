package driver

import (
	"crypto/sha256"
	"encoding/binary"

	"nodeproto/internal/jsast"
	"nodeproto/internal/lint"
)

// Digest - фиксированный 256 битный хеш (совместим с source.File.Hash)
type Digest [32]byte

// cacheKey: H(schema || rule || policy || registry || dialect || content).
// Строковые части разделены нулевым байтом.
func cacheKey(rule *lint.Rule, dialect jsast.Dialect, content Digest) Digest {
	h := sha256.New()
	var schema [2]byte
	binary.BigEndian.PutUint16(schema[:], diskCacheSchemaVersion)
	_, _ = h.Write(schema[:])
	for _, part := range []string{rule.Name(), rule.Policy().String(), rule.Registry().Digest(), dialect.String()} {
		_, _ = h.Write([]byte(part))
		_, _ = h.Write([]byte{0})
	}
	_, _ = h.Write(content[:])
	var out Digest
	copy(out[:], h.Sum(nil))
	return out
}
