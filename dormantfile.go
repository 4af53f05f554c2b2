package duotier

import (
	"context"
	"os"
	"path/filepath"
	"sync"
	"time"

	"github.com/goccy/go-json"
	"github.com/pkg/errors"
	"github.com/rs/zerolog"
)

/*
fileDormantStore is the default DormantStore (spec.md §4.5, §6): a single
JSON document at a fixed path, whole-file read/write, one mutex
serializing all access. Keys are string — the teacher's Cache is
map[string]*list.Element throughout, and JSON object keys have to be
strings anyway, so rather than introduce a generic key type at all this
module keys every tier by string, same as every concrete cache the
teacher and the rest of the pack ship (none of them key by anything but
string).

WIRE FORMAT

Not part of the public contract (spec.md §6): "any format that (a)
round-trips the record, (b) preserves frequency and timestamps... (c) is
re-writable atomically-enough... suffices." This implementation uses
github.com/goccy/go-json over a small exported wireRecord[V] struct,
because EntryRecord's fields are unexported (callers outside the package
must not be able to forge frequency/timestamps) and because goccy/go-json
is the faster encoding/json-shaped encoder already present in the pack's
service go.mods.
*/

type wireRecord[V any] struct {
	Value      V         `json:"value"`
	Frequency  uint64    `json:"frequency"`
	CreatedAt  time.Time `json:"created_at"`
	ModifiedAt time.Time `json:"modified_at"`
}

type fileDormantStore[V any] struct {
	mu         sync.Mutex
	path       string
	dormantTTL time.Duration
	lastCount  int
	log        zerolog.Logger
}

// NewFileDormantStore constructs the default file-backed dormant store.
// path is the stable on-disk location; dormantTTL is the logical TTL
// applied on Read (spec.md §3: "any record whose now - created_at >=
// dormant_ttl_ms is filtered out and not returned").
func NewFileDormantStore[V any](path string, dormantTTL time.Duration, log zerolog.Logger) DormantStore[V] {
	return &fileDormantStore[V]{
		path:       path,
		dormantTTL: dormantTTL,
		log:        log,
	}
}

// defaultDormantPath mirrors the teacher's preference for a stable,
// OS-appropriate location (spec.md §9 leaves the teacher's "relative,
// oddly concatenated" path unspecified beyond "any stable location").
// os.UserCacheDir is the standard-library primitive for exactly this —
// no example repo in the pack supplies an embeddable config-dir
// resolver, so this one spot legitimately falls back to os/path
// filepath rather than inventing a dependency for it.
func defaultDormantPath() string {
	dir, err := os.UserCacheDir()
	if err != nil {
		dir = os.TempDir()
	}
	return filepath.Join(dir, "duotier", "dormant.json")
}

func (s *fileDormantStore[V]) EnsureExists() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.ensureExistsLocked()
}

func (s *fileDormantStore[V]) ensureExistsLocked() error {
	if err := os.MkdirAll(filepath.Dir(s.path), 0o755); err != nil {
		return wrapDormant(err, "ensure-exists: mkdir")
	}
	if _, err := os.Stat(s.path); os.IsNotExist(err) {
		return s.writeLocked(map[string]*wireRecord[V]{})
	} else if err != nil {
		return wrapDormant(err, "ensure-exists: stat")
	}
	return nil
}

func (s *fileDormantStore[V]) Exists() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	_, err := os.Stat(s.path)
	return err == nil
}

func (s *fileDormantStore[V]) IsAccessible() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.ensureExistsLocked(); err != nil {
		return false
	}
	f, err := os.Open(s.path)
	if err != nil {
		return false
	}
	_ = f.Close()
	return true
}

func (s *fileDormantStore[V]) Count() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.lastCount
}

func (s *fileDormantStore[V]) IsEmpty(ctx context.Context) bool {
	records, err := s.Read(ctx)
	if err != nil {
		// §7: dormant-unavailable is treated as empty for read.
		return true
	}
	return len(records) == 0
}

// Read loads the whole file and filters out any record whose age
// exceeds dormantTTL, per spec.md §3/§4.5. A missing file reads as an
// empty, non-error mapping — the store has simply never been written.
func (s *fileDormantStore[V]) Read(ctx context.Context) (map[string]*EntryRecord[V], error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	raw, err := os.ReadFile(s.path)
	if os.IsNotExist(err) {
		s.lastCount = 0
		return map[string]*EntryRecord[V]{}, nil
	}
	if err != nil {
		return nil, wrapDormant(err, "read: open")
	}

	if len(raw) == 0 {
		s.lastCount = 0
		return map[string]*EntryRecord[V]{}, nil
	}

	var wire map[string]*wireRecord[V]
	if err := json.Unmarshal(raw, &wire); err != nil {
		s.log.Warn().Err(err).Str("path", s.path).Msg("dormant store payload corrupt, treating as empty")
		return nil, errors.Wrap(ErrDeserialization, err.Error())
	}

	now := time.Now()
	out := make(map[string]*EntryRecord[V], len(wire))
	for k, w := range wire {
		if s.dormantTTL > 0 && now.Sub(w.CreatedAt) >= s.dormantTTL {
			continue
		}
		out[k] = &EntryRecord[V]{
			value:      w.Value,
			frequency:  w.Frequency,
			createdAt:  w.CreatedAt,
			modifiedAt: w.ModifiedAt,
		}
	}
	s.lastCount = len(out)
	return out, nil
}

// Write replaces the whole file. A temp-file-then-rename is used so a
// crash mid-write leaves either the old or the new contents, never a
// half-written file — "atomically-enough" per spec.md §1's acceptance of
// torn-write recovery loss, not a transactional guarantee.
func (s *fileDormantStore[V]) Write(ctx context.Context, records map[string]*EntryRecord[V]) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	wire := make(map[string]*wireRecord[V], len(records))
	for k, rec := range records {
		wire[k] = &wireRecord[V]{
			Value:      rec.value,
			Frequency:  rec.frequency,
			CreatedAt:  rec.createdAt,
			ModifiedAt: rec.modifiedAt,
		}
	}
	if err := s.writeLocked(wire); err != nil {
		return err
	}
	s.lastCount = len(records)
	return nil
}

func (s *fileDormantStore[V]) writeLocked(wire map[string]*wireRecord[V]) error {
	if err := os.MkdirAll(filepath.Dir(s.path), 0o755); err != nil {
		return wrapDormant(err, "write: mkdir")
	}

	data, err := json.Marshal(wire)
	if err != nil {
		return wrapDormant(err, "write: marshal")
	}

	tmp := s.path + ".tmp"
	if err := os.WriteFile(tmp, data, 0o644); err != nil {
		return wrapDormant(err, "write: write-temp")
	}
	if err := os.Rename(tmp, s.path); err != nil {
		return wrapDormant(err, "write: rename")
	}
	return nil
}

// Clear drops all stored records by writing an empty document.
func (s *fileDormantStore[V]) Clear(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.writeLocked(map[string]*wireRecord[V]{}); err != nil {
		return err
	}
	s.lastCount = 0
	return nil
}
