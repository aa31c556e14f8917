package mockserver

import (
	"os"
	"path/filepath"
	"sort"
	"strings"
	"sync"

	"pixelate/internal/model"
	"pixelate/internal/palette"
)

// Builtin palettes seeded into every store.
var Builtin = map[string][]model.Color{
	"pico-8": {
		"000000", "1d2b53", "7e2553", "008751", "ab5236", "5f574f", "c2c3c7", "fff1e8",
		"ff004d", "ffa300", "ffec27", "00e436", "29adff", "83769c", "ff77a8", "ffccaa",
	},
	"gameboy": {"0f380f", "306230", "8bac0f", "9bbc0f"},
	"1bit":    {"000000", "ffffff"},
}

// Palette is a stored palette. Ids are integers, as the reference service
// issues them.
type Palette struct {
	ID     int
	Name   string
	Colors []model.Color
}

// Store keeps palettes and converted images in memory.
type Store struct {
	mu       sync.RWMutex
	nextID   int
	palettes []Palette
	results  map[string][]byte
}

func NewStore() *Store {
	s := &Store{results: make(map[string][]byte)}
	names := make([]string, 0, len(Builtin))
	for name := range Builtin {
		names = append(names, name)
	}
	sort.Strings(names)
	for _, name := range names {
		s.Add(name, Builtin[name])
	}
	return s
}

// LoadDir adds every palette file in dir and returns how many were added.
func (s *Store) LoadDir(dir string) (int, error) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return 0, err
	}
	added := 0
	for _, e := range entries {
		if e.IsDir() || !palette.Importable(e.Name()) {
			continue
		}
		data, err := os.ReadFile(filepath.Join(dir, e.Name()))
		if err != nil {
			return added, err
		}
		colors, err := palette.Parse(data)
		if err != nil {
			return added, err
		}
		s.Add(palette.DefaultName(e.Name()), colors)
		added++
	}
	return added, nil
}

func (s *Store) Add(name string, colors []model.Color) Palette {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.nextID++
	p := Palette{ID: s.nextID, Name: strings.TrimSpace(name), Colors: colors}
	s.palettes = append(s.palettes, p)
	return p
}

func (s *Store) Get(id int) (Palette, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	for _, p := range s.palettes {
		if p.ID == id {
			return p, true
		}
	}
	return Palette{}, false
}

func (s *Store) List() []Palette {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]Palette, len(s.palettes))
	copy(out, s.palettes)
	return out
}

func (s *Store) PutResult(name string, data []byte) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.results[name] = data
}

func (s *Store) Result(name string) ([]byte, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	data, ok := s.results[name]
	return data, ok
}
