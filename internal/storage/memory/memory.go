package memory

import (
	"bufio"
	"context"
	"os"
	"path/filepath"
	"strings"
	"sync"

	"presenze/internal/storage"
)

// Store is an in-process KV used by the memory backend and in tests.
type Store struct {
	mu     sync.Mutex
	values map[string]string
}

var _ storage.KV = (*Store)(nil)

func New() *Store {
	return &Store{values: map[string]string{}}
}

// NewFromFiles seeds the store from <base>/seed_<key>.json files, one key
// per file. Missing files are ignored.
func NewFromFiles(base string) *Store {
	s := New()
	for _, key := range []string{"attendance", "attendanceUser"} {
		if v, ok := readSeed(filepath.Join(base, "seed_"+key+".json")); ok {
			s.values[key] = v
		}
	}
	return s
}

// Get implements storage.KV
func (s *Store) Get(_ context.Context, key string) (string, bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	v, ok := s.values[key]
	return v, ok, nil
}

// Set implements storage.KV
func (s *Store) Set(_ context.Context, key, value string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.values[key] = value
	return nil
}

// Delete implements storage.KV
func (s *Store) Delete(_ context.Context, key string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.values, key)
	return nil
}

func readSeed(path string) (string, bool) {
	f, err := os.Open(path)
	if err != nil {
		return "", false
	}
	defer f.Close()
	var b strings.Builder
	sc := bufio.NewScanner(f)
	sc.Buffer(make([]byte, 0, 64*1024), 4<<20)
	for sc.Scan() {
		line := strings.TrimSpace(sc.Text())
		if line == "" || strings.HasPrefix(line, "#") {
			continue
		}
		b.WriteString(line)
	}
	if b.Len() == 0 {
		return "", false
	}
	return b.String(), true
}
