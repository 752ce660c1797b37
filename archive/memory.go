package archive

import (
	"context"
	"sort"
	"sync"

	"protobag.io/errors"
)

func init() {
	Register(FormatMemory, newMemory)
}

func newMemory(ctx context.Context, spec Spec) (Archive, error) {
	if err := ctxErr(ctx); err != nil {
		return nil, errors.E(errors.IoError, err)
	}
	return &memoryArchive{entries: make(map[string][]byte)}, nil
}

// memoryArchive is an in-process Archive backed by a map, safe for
// concurrent use. Grounded on upspin.io/cloud/storage/storagetest's
// Memory() implementation.
type memoryArchive struct {
	mu      sync.RWMutex
	entries map[string][]byte
	closed  bool
}

var _ Archive = (*memoryArchive)(nil)

func (m *memoryArchive) Namelist(ctx context.Context) ([]string, error) {
	if err := ctxErr(ctx); err != nil {
		return nil, errors.E("archive.memoryArchive.Namelist", errors.IoError, err)
	}
	m.mu.RLock()
	defer m.mu.RUnlock()

	names := make([]string, 0, len(m.entries))
	for name := range m.entries {
		names = append(names, DisplayName(name))
	}
	sort.Strings(names)
	return names, nil
}

func (m *memoryArchive) ReadAsString(ctx context.Context, name string) ([]byte, error) {
	if err := ctxErr(ctx); err != nil {
		return nil, errors.E("archive.memoryArchive.ReadAsString", errors.IoError, err)
	}
	m.mu.RLock()
	defer m.mu.RUnlock()

	b, ok := m.entries[CanonicalizeName(name)]
	if !ok {
		return nil, errors.E("archive.memoryArchive.ReadAsString", errors.NotFound, errors.Str(name))
	}
	return append([]byte{}, b...), nil
}

func (m *memoryArchive) Write(ctx context.Context, name string, data []byte) error {
	if err := ctxErr(ctx); err != nil {
		return errors.E("archive.memoryArchive.Write", errors.IoError, err)
	}
	m.mu.Lock()
	defer m.mu.Unlock()

	m.entries[CanonicalizeName(name)] = append([]byte{}, data...)
	return nil
}

func (m *memoryArchive) Close(ctx context.Context) error {
	if err := ctxErr(ctx); err != nil {
		return errors.E("archive.memoryArchive.Close", errors.IoError, err)
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	m.closed = true
	return nil
}
