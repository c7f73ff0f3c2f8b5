package driver

import (
	"encoding/hex"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sync"

	"github.com/go-git/go-billy/v5"
	"github.com/go-git/go-billy/v5/osfs"
	"github.com/go-git/go-billy/v5/util"
	"github.com/vmihailenco/msgpack/v5"

	"nodeproto/internal/nodeproto"
	"nodeproto/internal/source"
)

// Current schema version - increment when DiskPayload format changes
const diskCacheSchemaVersion uint16 = 2

const cacheFilesDir = "files"

// DiskCache хранит результаты проверки файлов по ключу cacheKey.
// Thread-safe for concurrent access.
type DiskCache struct {
	mu sync.RWMutex
	fs billy.Filesystem
}

// DiskPayload is the cached outcome of linting one file.
type DiskPayload struct {
	// Schema version for safe invalidation when format changes
	Schema uint16

	// Broken files are reported once and never linted.
	Broken     bool
	ErrorStart uint32
	ErrorEnd   uint32

	Findings []CachedFinding
}

// CachedFinding is a nodeproto.Finding without the file identity.
type CachedFinding struct {
	Kind       uint8
	ModuleName string
	TokenStart uint32
	TokenEnd   uint32
	EditStart  uint32
	EditEnd    uint32
	NewText    string
	OldText    string
}

// OpenDiskCache initializes and returns a disk cache at the standard location.
func OpenDiskCache(app string) (*DiskCache, error) {
	base := os.Getenv("XDG_CACHE_HOME")
	if base == "" {
		home, err := os.UserHomeDir()
		if err != nil {
			return nil, err
		}
		base = filepath.Join(home, ".cache")
	}
	dir := filepath.Join(base, app)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, err
	}
	return NewDiskCache(osfs.New(dir)), nil
}

// NewDiskCache stores entries in the root of fsys.
func NewDiskCache(fsys billy.Filesystem) *DiskCache {
	return &DiskCache{fs: fsys}
}

func (c *DiskCache) pathFor(key Digest) string {
	hexKey := hex.EncodeToString(key[:])
	// Для удобства чтения/очистки - подкаталог "files".
	return filepath.Join(cacheFilesDir, hexKey[:2], hexKey+".mp")
}

// Put serializes and writes a payload to the disk cache.
func (c *DiskCache) Put(key Digest, payload *DiskPayload) (err error) {
	if c == nil || payload == nil {
		return nil
	}
	c.mu.Lock()
	defer c.mu.Unlock()

	p := c.pathFor(key)
	dir := filepath.Dir(p)
	if err := c.fs.MkdirAll(dir, 0o755); err != nil {
		return err
	}
	f, err := c.fs.TempFile(dir, "tmp-")
	if err != nil {
		return err
	}
	tmp := f.Name()
	defer func() {
		if err != nil {
			_ = f.Close()
			_ = c.fs.Remove(tmp)
		}
	}()

	if err = msgpack.NewEncoder(f).Encode(payload); err != nil {
		return fmt.Errorf("encode cache entry: %w", err)
	}
	if err = f.Close(); err != nil {
		return err
	}
	// Атомарная замена
	return c.fs.Rename(tmp, p)
}

// Get reads and deserializes a payload from the disk cache. Entries written
// by another schema version count as misses.
func (c *DiskCache) Get(key Digest, out *DiskPayload) (bool, error) {
	if c == nil {
		return false, nil
	}
	c.mu.RLock()
	defer c.mu.RUnlock()

	f, err := c.fs.Open(c.pathFor(key))
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return false, nil
		}
		return false, err
	}
	defer f.Close()

	var payload DiskPayload
	if err := msgpack.NewDecoder(f).Decode(&payload); err != nil {
		return false, fmt.Errorf("decode cache entry: %w", err)
	}
	if payload.Schema != diskCacheSchemaVersion {
		return false, nil
	}
	*out = payload
	return true, nil
}

// DropAll invalidates the cache, useful after format changes.
func (c *DiskCache) DropAll() error {
	if c == nil {
		return nil
	}
	c.mu.Lock()
	defer c.mu.Unlock()
	return util.RemoveAll(c.fs, cacheFilesDir)
}

// findingsToPayload converts lint results into a cache entry.
func findingsToPayload(findings []nodeproto.Finding) *DiskPayload {
	payload := &DiskPayload{
		Schema:   diskCacheSchemaVersion,
		Findings: make([]CachedFinding, len(findings)),
	}
	for i, f := range findings {
		payload.Findings[i] = CachedFinding{
			Kind:       uint8(f.Kind),
			ModuleName: f.ModuleName,
			TokenStart: f.Token.Start,
			TokenEnd:   f.Token.End,
			EditStart:  f.Edit.Span.Start,
			EditEnd:    f.Edit.Span.End,
			NewText:    f.Edit.NewText,
			OldText:    f.Edit.OldText,
		}
	}
	return payload
}

func brokenPayload(errSpan source.Span) *DiskPayload {
	return &DiskPayload{
		Schema:     diskCacheSchemaVersion,
		Broken:     true,
		ErrorStart: errSpan.Start,
		ErrorEnd:   errSpan.End,
	}
}

// payloadFindings restores findings for file.
func payloadFindings(payload *DiskPayload, file source.FileID) []nodeproto.Finding {
	out := make([]nodeproto.Finding, len(payload.Findings))
	for i, cf := range payload.Findings {
		out[i] = nodeproto.Finding{
			Kind:       nodeproto.MessageKind(cf.Kind),
			ModuleName: cf.ModuleName,
			Token:      source.Span{File: file, Start: cf.TokenStart, End: cf.TokenEnd},
			Edit: nodeproto.Edit{
				Span:    source.Span{File: file, Start: cf.EditStart, End: cf.EditEnd},
				NewText: cf.NewText,
				OldText: cf.OldText,
			},
		}
	}
	return out
}
