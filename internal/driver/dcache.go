package driver

import (
	"crypto/sha256"
	"encoding/binary"
	"encoding/hex"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sync"
	"time"

	"github.com/vmihailenco/msgpack/v5"

	"jasmc/internal/codegen"
	"jasmc/internal/diag"
)

// Current schema version - increment when CachePayload format changes
const diskCacheSchemaVersion uint16 = 2

// Digest keys one cached unit.
type Digest [32]byte

// DiskCache хранит сгенерированный текст программ по хешу юнита.
// Thread-safe for concurrent access.
type DiskCache struct {
	mu  sync.RWMutex
	dir string
}

// CachedDiag is a diagnostic without its file, which is re-attached on load.
type CachedDiag struct {
	Severity uint8
	Code     uint16
	Message  string
	Index    int
	Path     string
}

// CachePayload is what a successful compilation leaves behind.
type CachePayload struct {
	// Schema version for safe invalidation when format changes
	Schema  uint16
	Program string
	Text    []byte
	Lines   int
	// Warnings reported on the way; units with errors are never cached.
	Diags []CachedDiag
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
	return OpenDiskCacheAt(filepath.Join(base, app))
}

// OpenDiskCacheAt uses dir as the cache root.
func OpenDiskCacheAt(dir string) (*DiskCache, error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, err
	}
	return &DiskCache{dir: dir}, nil
}

// Dir returns the cache root.
func (c *DiskCache) Dir() string {
	if c == nil {
		return ""
	}
	return c.dir
}

func (c *DiskCache) pathFor(key Digest) string {
	hexKey := hex.EncodeToString(key[:])
	return filepath.Join(c.dir, "units", hexKey+".mp")
}

// Put serializes and writes a payload to the disk cache.
func (c *DiskCache) Put(key Digest, payload *CachePayload) error {
	if c == nil || payload == nil {
		return nil
	}
	c.mu.Lock()
	defer c.mu.Unlock()

	p := c.pathFor(key)
	if err := os.MkdirAll(filepath.Dir(p), 0o755); err != nil {
		return err
	}
	f, err := os.CreateTemp(filepath.Dir(p), "tmp-*")
	if err != nil {
		return err
	}
	tmp := f.Name()
	if err := msgpack.NewEncoder(f).Encode(payload); err != nil {
		_ = f.Close()
		_ = os.Remove(tmp)
		return fmt.Errorf("encode cache entry: %w", err)
	}
	if err := f.Close(); err != nil {
		_ = os.Remove(tmp)
		return err
	}
	// Атомарная замена
	if err := os.Rename(tmp, p); err != nil {
		_ = os.Remove(tmp)
		return err
	}
	return nil
}

// Get reads and deserializes a payload from the disk cache. Entries written
// by another schema are treated as misses.
func (c *DiskCache) Get(key Digest, out *CachePayload) (bool, error) {
	if c == nil {
		return false, nil
	}
	c.mu.RLock()
	defer c.mu.RUnlock()

	f, err := os.Open(c.pathFor(key))
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return false, nil
		}
		return false, err
	}
	defer func() { _ = f.Close() }()
	if err := msgpack.NewDecoder(f).Decode(out); err != nil {
		return false, fmt.Errorf("decode cache entry: %w", err)
	}
	if out.Schema != diskCacheSchemaVersion {
		return false, nil
	}
	return true, nil
}

// DropAll invalidates the cache, useful after format changes.
func (c *DiskCache) DropAll() error {
	if c == nil {
		return nil
	}
	c.mu.Lock()
	defer c.mu.Unlock()

	// тривиально: переименуем каталог и удалим
	old := c.dir + ".old-" + time.Now().Format("20060102150405")
	if err := os.Rename(c.dir, old); err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return nil
		}
		return err
	}
	if err := os.RemoveAll(old); err != nil {
		return err
	}
	return os.MkdirAll(c.dir, 0o755)
}

// cacheKey: H(schema || options || source).
func cacheKey(src []byte, opts codegen.Options) Digest {
	h := sha256.New()
	var hdr [2]byte
	binary.BigEndian.PutUint16(hdr[:], diskCacheSchemaVersion)
	_, _ = h.Write(hdr[:])
	_, _ = fmt.Fprintf(h, "%d|%d|%s|%t|", opts.MaxStack, opts.MaxLocals, opts.LabelPrefix, opts.Indent)
	_, _ = h.Write(src)
	var out Digest
	copy(out[:], h.Sum(nil))
	return out
}

func newCachePayload(program string, text []byte, lines int, bag *diag.Bag) *CachePayload {
	payload := &CachePayload{
		Schema:  diskCacheSchemaVersion,
		Program: program,
		Text:    append([]byte(nil), text...),
		Lines:   lines,
	}
	for _, d := range bag.Items() {
		payload.Diags = append(payload.Diags, CachedDiag{
			Severity: uint8(d.Severity),
			Code:     uint16(d.Code),
			Message:  d.Message,
			Index:    d.Primary.Index,
			Path:     d.Primary.Path,
		})
	}
	return payload
}

// restore replays cached diagnostics against file.
func (p *CachePayload) restore(r diag.Reporter, file string) {
	for _, d := range p.Diags {
		sev := diag.Severity(d.Severity)
		if !sev.Valid() {
			continue
		}
		r.Report(diag.Code(d.Code), sev, diag.Location{File: file, Index: d.Index, Path: d.Path}, d.Message, nil)
	}
}
