// Package presets manages named sets of category labels. User presets are
// persisted in full on every mutation; the "Imported data" preset is a live,
// session-only view of the labels found in the current import and never
// touches durable storage.
package presets

import (
	"encoding/json"
	"errors"
	"strings"
	"sync"

	"github.com/rs/zerolog"

	"github.com/dagingaa/bank-transaction-review/internal/localstore"
)

const (
	// SentinelLabel is the reserved label shown for unassigned transactions.
	// It can never be removed from a preset's label set.
	SentinelLabel = "(Not set)"

	// ImportedPresetName is the live system preset tracking the current
	// import's category column.
	ImportedPresetName = "Imported data"

	// DefaultPresetName is used when a fresh preset has to be synthesized.
	DefaultPresetName = "New preset"

	// StorageKey is the stable key the persisted preset list lives under.
	StorageKey = "bank-transaction-viewer-category-presets"
)

var (
	ErrDuplicateName = errors.New("a preset with that name already exists")
	ErrNotFound      = errors.New("preset not found")
	ErrProtected     = errors.New("system preset cannot be modified")
)

// Preset is a named, ordered set of category labels.
type Preset struct {
	Name       string   `json:"name"`
	Categories []string `json:"categories"`
	System     bool     `json:"isSystem,omitempty"`
}

// Store owns the preset list and the active label set. The active set is the
// labels currently offered in the UI; whenever it drifts from the selected
// preset's stored set, the preset is updated and written through.
type Store struct {
	mu      sync.Mutex
	storage localstore.Storage
	log     zerolog.Logger

	presets  []Preset // index 0 is always the imported/live preset
	selected string
	active   []string
}

// NewStore loads persisted presets from storage. A read failure or corrupt
// value means "no presets found" and triggers default-preset creation.
func NewStore(storage localstore.Storage, log zerolog.Logger) *Store {
	s := &Store{
		storage: storage,
		log:     log,
	}

	imported := Preset{
		Name:       ImportedPresetName,
		Categories: []string{SentinelLabel},
		System:     true,
	}
	s.presets = []Preset{imported}

	loaded := s.loadPersisted()
	if len(loaded) == 0 {
		defaultPreset := Preset{Name: DefaultPresetName, Categories: []string{SentinelLabel}}
		s.presets = append(s.presets, defaultPreset)
		s.persistLocked()
	} else {
		s.presets = append(s.presets, loaded...)
	}

	s.selected = ImportedPresetName
	s.active = cloneLabels(imported.Categories)
	return s
}

func (s *Store) loadPersisted() []Preset {
	raw, ok := s.storage.Get(StorageKey)
	if !ok {
		return nil
	}
	var loaded []Preset
	if err := json.Unmarshal(raw, &loaded); err != nil {
		s.log.Warn().Err(err).Msg("Stored presets are corrupt, treating as absent")
		return nil
	}
	// The live preset is never stored; drop any stale copy, and make sure no
	// persisted preset lost its sentinel.
	out := loaded[:0]
	for _, p := range loaded {
		if p.Name == ImportedPresetName {
			continue
		}
		p.System = false
		p.Categories = ensureSentinel(p.Categories)
		out = append(out, p)
	}
	return out
}

// SetImportedLabels replaces the live preset's labels with the categories
// found in a just-imported file, selects it, and makes it the active set.
// Called once per import; never persisted.
func (s *Store) SetImportedLabels(labels []string) {
	s.mu.Lock()
	defer s.mu.Unlock()

	merged := ensureSentinel(cloneLabels(labels))
	s.presets[0].Categories = merged
	s.selected = ImportedPresetName
	s.active = cloneLabels(merged)
}

// CreatePreset adds a new user preset and selects it.
func (s *Store) CreatePreset(name string, initialLabels []string) (Preset, error) {
	name = strings.TrimSpace(name)
	if name == "" {
		return Preset{}, errors.New("preset name is required")
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if s.findLocked(name) >= 0 {
		return Preset{}, ErrDuplicateName
	}

	p := Preset{Name: name, Categories: ensureSentinel(cloneLabels(initialLabels))}
	s.presets = append(s.presets, p)
	s.persistLocked()

	s.selected = name
	s.active = cloneLabels(p.Categories)
	return p, nil
}

// RenamePreset renames a user preset. The live preset is protected.
func (s *Store) RenamePreset(oldName, newName string) error {
	newName = strings.TrimSpace(newName)
	if newName == "" {
		return errors.New("preset name is required")
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	i := s.findLocked(oldName)
	if i < 0 {
		return ErrNotFound
	}
	if s.presets[i].System {
		return ErrProtected
	}
	if j := s.findLocked(newName); j >= 0 && j != i {
		return ErrDuplicateName
	}

	s.presets[i].Name = newName
	if s.selected == oldName {
		s.selected = newName
	}
	s.persistLocked()
	return nil
}

// DeletePreset removes a user preset. If the deleted preset was selected,
// the first remaining preset (the live one) takes over; if nothing remains
// beyond the live preset, a fresh default preset is synthesized so there is
// always a durable preset to save into.
func (s *Store) DeletePreset(name string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	i := s.findLocked(name)
	if i < 0 {
		return ErrNotFound
	}
	if s.presets[i].System {
		return ErrProtected
	}

	s.presets = append(s.presets[:i], s.presets[i+1:]...)

	if len(s.presets) == 1 {
		// Only the live preset is left; synthesize a default.
		s.presets = append(s.presets, Preset{Name: DefaultPresetName, Categories: []string{SentinelLabel}})
	}
	s.persistLocked()

	if s.selected == name {
		// Fall back to the first remaining preset, which is the live one.
		next := s.presets[0]
		s.selected = next.Name
		s.active = cloneLabels(next.Categories)
	}
	return nil
}

// SelectPreset replaces the active label set with the preset's labels.
func (s *Store) SelectPreset(name string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	i := s.findLocked(name)
	if i < 0 {
		return ErrNotFound
	}
	s.selected = s.presets[i].Name
	s.active = cloneLabels(s.presets[i].Categories)
	return nil
}

// AddLabels splits a comma-separated input, trims each piece, drops empties
// and exact duplicates of existing labels, and appends the rest to the
// active set. The selected preset auto-saves.
func (s *Store) AddLabels(csvInput string) []string {
	s.mu.Lock()
	defer s.mu.Unlock()

	existing := make(map[string]bool, len(s.active))
	for _, label := range s.active {
		existing[label] = true
	}

	for _, piece := range strings.Split(csvInput, ",") {
		label := strings.TrimSpace(piece)
		if label == "" || existing[label] {
			continue
		}
		existing[label] = true
		s.active = append(s.active, label)
	}

	s.autoSaveLocked()
	return cloneLabels(s.active)
}

// RemoveLabel removes a label from the active set. Removing the sentinel is
// a no-op.
func (s *Store) RemoveLabel(label string) []string {
	s.mu.Lock()
	defer s.mu.Unlock()

	if label == SentinelLabel {
		return cloneLabels(s.active)
	}
	out := s.active[:0]
	for _, l := range s.active {
		if l != label {
			out = append(out, l)
		}
	}
	s.active = out

	s.autoSaveLocked()
	return cloneLabels(s.active)
}

// ActiveLabels returns a copy of the active label set.
func (s *Store) ActiveLabels() []string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return cloneLabels(s.active)
}

// Selected returns the name of the selected preset.
func (s *Store) Selected() string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.selected
}

// Presets returns a copy of the full preset list, live preset first.
func (s *Store) Presets() []Preset {
	s.mu.Lock()
	defer s.mu.Unlock()

	out := make([]Preset, len(s.presets))
	for i, p := range s.presets {
		out[i] = Preset{Name: p.Name, Categories: cloneLabels(p.Categories), System: p.System}
	}
	return out
}

// autoSaveLocked writes the active set into the selected preset and persists
// when that preset is durable. Caller holds the lock.
func (s *Store) autoSaveLocked() {
	i := s.findLocked(s.selected)
	if i < 0 {
		return
	}
	if equalLabels(s.presets[i].Categories, s.active) {
		return
	}
	s.presets[i].Categories = cloneLabels(s.active)
	if !s.presets[i].System {
		s.persistLocked()
	}
}

// persistLocked writes every non-system preset through to durable storage.
// A failed write is logged and swallowed; in-memory state stays the source
// of truth for the rest of the session. Caller holds the lock.
func (s *Store) persistLocked() {
	durable := make([]Preset, 0, len(s.presets))
	for _, p := range s.presets {
		if p.System {
			continue
		}
		durable = append(durable, p)
	}

	raw, err := json.Marshal(durable)
	if err != nil {
		s.log.Error().Err(err).Msg("Failed to serialize presets")
		return
	}
	if err := s.storage.Set(StorageKey, raw); err != nil {
		s.log.Error().Err(err).Msg("Failed to persist presets")
	}
}

func (s *Store) findLocked(name string) int {
	for i, p := range s.presets {
		if p.Name == name {
			return i
		}
	}
	return -1
}

func ensureSentinel(labels []string) []string {
	for _, l := range labels {
		if l == SentinelLabel {
			return labels
		}
	}
	return append([]string{SentinelLabel}, labels...)
}

func cloneLabels(labels []string) []string {
	return append([]string(nil), labels...)
}

func equalLabels(a, b []string) bool {
	if len(a) != len(b) {
		return false
	}
	for i := range a {
		if a[i] != b[i] {
			return false
		}
	}
	return true
}
