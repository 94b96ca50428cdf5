package presets

import (
	"encoding/json"
	"errors"
	"testing"

	"github.com/rs/zerolog"

	"github.com/dagingaa/bank-transaction-review/internal/localstore"
)

func newTestStore(t *testing.T) (*Store, *localstore.MemoryStore) {
	t.Helper()
	storage := localstore.NewMemoryStore()
	return NewStore(storage, zerolog.Nop()), storage
}

func labelsEqual(got, want []string) bool {
	if len(got) != len(want) {
		return false
	}
	for i := range got {
		if got[i] != want[i] {
			return false
		}
	}
	return true
}

func TestNewStore_FreshStorage(t *testing.T) {
	s, _ := newTestStore(t)

	ps := s.Presets()
	if len(ps) != 2 {
		t.Fatalf("got %d presets, want live + default", len(ps))
	}
	if ps[0].Name != ImportedPresetName || !ps[0].System {
		t.Errorf("presets[0] = %+v, want the live system preset", ps[0])
	}
	if ps[1].Name != DefaultPresetName || ps[1].System {
		t.Errorf("presets[1] = %+v, want the default user preset", ps[1])
	}
	if s.Selected() != ImportedPresetName {
		t.Errorf("Selected = %q, want %q", s.Selected(), ImportedPresetName)
	}
	if !labelsEqual(s.ActiveLabels(), []string{SentinelLabel}) {
		t.Errorf("ActiveLabels = %v, want just the sentinel", s.ActiveLabels())
	}
}

func TestNewStore_CorruptStorage(t *testing.T) {
	storage := localstore.NewMemoryStore()
	storage.Set(StorageKey, []byte("{not json"))

	s := NewStore(storage, zerolog.Nop())
	ps := s.Presets()
	if len(ps) != 2 || ps[1].Name != DefaultPresetName {
		t.Errorf("corrupt storage did not fall back to defaults: %+v", ps)
	}
}

func TestNewStore_LoadsPersistedPresets(t *testing.T) {
	storage := localstore.NewMemoryStore()
	raw, _ := json.Marshal([]Preset{
		{Name: "Monthly", Categories: []string{"Rent", "Food"}},
		{Name: ImportedPresetName, Categories: []string{"stale"}, System: true},
	})
	storage.Set(StorageKey, raw)

	s := NewStore(storage, zerolog.Nop())
	ps := s.Presets()
	if len(ps) != 2 {
		t.Fatalf("got %d presets, want live + Monthly", len(ps))
	}
	// A stale stored copy of the live preset is dropped, and the loaded
	// preset gets the sentinel restored.
	if ps[1].Name != "Monthly" {
		t.Fatalf("presets[1] = %+v, want Monthly", ps[1])
	}
	if !labelsEqual(ps[1].Categories, []string{SentinelLabel, "Rent", "Food"}) {
		t.Errorf("Monthly labels = %v", ps[1].Categories)
	}
}

func TestSetImportedLabels(t *testing.T) {
	s, _ := newTestStore(t)
	s.SelectPreset(DefaultPresetName)

	s.SetImportedLabels([]string{"Food", "Travel"})

	if s.Selected() != ImportedPresetName {
		t.Errorf("Selected = %q, want the live preset", s.Selected())
	}
	if !labelsEqual(s.ActiveLabels(), []string{SentinelLabel, "Food", "Travel"}) {
		t.Errorf("ActiveLabels = %v", s.ActiveLabels())
	}
}

func TestCreatePreset(t *testing.T) {
	s, storage := newTestStore(t)

	p, err := s.CreatePreset("Monthly", []string{"Rent"})
	if err != nil {
		t.Fatalf("CreatePreset failed: %v", err)
	}
	if !labelsEqual(p.Categories, []string{SentinelLabel, "Rent"}) {
		t.Errorf("Categories = %v", p.Categories)
	}
	if s.Selected() != "Monthly" {
		t.Errorf("Selected = %q, want Monthly", s.Selected())
	}

	if _, err := s.CreatePreset("Monthly", nil); !errors.Is(err, ErrDuplicateName) {
		t.Errorf("duplicate create error = %v, want ErrDuplicateName", err)
	}
	if _, err := s.CreatePreset("   ", nil); err == nil {
		t.Error("blank name accepted")
	}

	raw, ok := storage.Get(StorageKey)
	if !ok {
		t.Fatal("nothing persisted")
	}
	var stored []Preset
	if err := json.Unmarshal(raw, &stored); err != nil {
		t.Fatalf("persisted value is not valid JSON: %v", err)
	}
	for _, p := range stored {
		if p.Name == ImportedPresetName {
			t.Error("live preset leaked into storage")
		}
	}
}

func TestRenamePreset(t *testing.T) {
	s, _ := newTestStore(t)
	s.CreatePreset("Monthly", nil)

	if err := s.RenamePreset("Monthly", "Budget"); err != nil {
		t.Fatalf("RenamePreset failed: %v", err)
	}
	if s.Selected() != "Budget" {
		t.Errorf("Selected = %q, selection did not follow the rename", s.Selected())
	}

	if err := s.RenamePreset("missing", "x"); !errors.Is(err, ErrNotFound) {
		t.Errorf("error = %v, want ErrNotFound", err)
	}
	if err := s.RenamePreset(ImportedPresetName, "x"); !errors.Is(err, ErrProtected) {
		t.Errorf("error = %v, want ErrProtected", err)
	}
	if err := s.RenamePreset("Budget", DefaultPresetName); !errors.Is(err, ErrDuplicateName) {
		t.Errorf("error = %v, want ErrDuplicateName", err)
	}
	if err := s.RenamePreset("Budget", ""); err == nil {
		t.Error("blank rename accepted")
	}
}

func TestDeletePreset_FallbackSelection(t *testing.T) {
	s, _ := newTestStore(t)
	s.SetImportedLabels([]string{"Food"})
	s.CreatePreset("Monthly", []string{"Rent"}) // selected now

	if err := s.DeletePreset("Monthly"); err != nil {
		t.Fatalf("DeletePreset failed: %v", err)
	}
	// Selection falls back to the first remaining preset overall, which is
	// always the live one.
	if s.Selected() != ImportedPresetName {
		t.Errorf("Selected = %q, want %q", s.Selected(), ImportedPresetName)
	}
	if !labelsEqual(s.ActiveLabels(), []string{SentinelLabel, "Food"}) {
		t.Errorf("ActiveLabels = %v, want the live preset's labels", s.ActiveLabels())
	}
}

func TestDeletePreset_UnselectedKeepsSelection(t *testing.T) {
	s, _ := newTestStore(t)
	s.CreatePreset("Monthly", nil)
	s.CreatePreset("Budget", nil) // selected now

	if err := s.DeletePreset("Monthly"); err != nil {
		t.Fatalf("DeletePreset failed: %v", err)
	}
	if s.Selected() != "Budget" {
		t.Errorf("Selected = %q, want Budget", s.Selected())
	}
}

func TestDeletePreset_SynthesizesDefault(t *testing.T) {
	s, _ := newTestStore(t)

	if err := s.DeletePreset(DefaultPresetName); err != nil {
		t.Fatalf("DeletePreset failed: %v", err)
	}
	ps := s.Presets()
	if len(ps) != 2 || ps[1].Name != DefaultPresetName {
		t.Errorf("deleting the last user preset did not synthesize a default: %+v", ps)
	}
}

func TestDeletePreset_Errors(t *testing.T) {
	s, _ := newTestStore(t)

	if err := s.DeletePreset(ImportedPresetName); !errors.Is(err, ErrProtected) {
		t.Errorf("error = %v, want ErrProtected", err)
	}
	if err := s.DeletePreset("missing"); !errors.Is(err, ErrNotFound) {
		t.Errorf("error = %v, want ErrNotFound", err)
	}
}

func TestSelectPreset(t *testing.T) {
	s, _ := newTestStore(t)
	s.CreatePreset("Monthly", []string{"Rent"})

	if err := s.SelectPreset(DefaultPresetName); err != nil {
		t.Fatalf("SelectPreset failed: %v", err)
	}
	if !labelsEqual(s.ActiveLabels(), []string{SentinelLabel}) {
		t.Errorf("ActiveLabels = %v, want the default preset's labels", s.ActiveLabels())
	}
	if err := s.SelectPreset("missing"); !errors.Is(err, ErrNotFound) {
		t.Errorf("error = %v, want ErrNotFound", err)
	}
}

func TestAddLabels(t *testing.T) {
	s, _ := newTestStore(t)
	s.SelectPreset(DefaultPresetName)

	got := s.AddLabels("Food, Food, Travel")
	if !labelsEqual(got, []string{SentinelLabel, "Food", "Travel"}) {
		t.Errorf("AddLabels = %v", got)
	}

	// Empty pieces and existing labels are dropped.
	got = s.AddLabels(" , Travel, Rent ,")
	if !labelsEqual(got, []string{SentinelLabel, "Food", "Travel", "Rent"}) {
		t.Errorf("AddLabels = %v", got)
	}
}

func TestAddLabels_AutoSavesSelectedPreset(t *testing.T) {
	s, storage := newTestStore(t)
	s.SelectPreset(DefaultPresetName)
	s.AddLabels("Food")

	raw, ok := storage.Get(StorageKey)
	if !ok {
		t.Fatal("nothing persisted")
	}
	var stored []Preset
	json.Unmarshal(raw, &stored)
	if len(stored) != 1 || !labelsEqual(stored[0].Categories, []string{SentinelLabel, "Food"}) {
		t.Errorf("stored = %+v", stored)
	}
}

func TestRemoveLabel(t *testing.T) {
	s, _ := newTestStore(t)
	s.SelectPreset(DefaultPresetName)
	s.AddLabels("Food, Travel")

	got := s.RemoveLabel("Food")
	if !labelsEqual(got, []string{SentinelLabel, "Travel"}) {
		t.Errorf("RemoveLabel = %v", got)
	}

	// The sentinel cannot be removed.
	got = s.RemoveLabel(SentinelLabel)
	if !labelsEqual(got, []string{SentinelLabel, "Travel"}) {
		t.Errorf("sentinel removal changed labels: %v", got)
	}
}

func TestPersistFailureIsSwallowed(t *testing.T) {
	storage := localstore.NewMemoryStore()
	storage.FailWrites = true
	s := NewStore(storage, zerolog.Nop())

	// Mutations still apply in memory when storage rejects writes.
	if _, err := s.CreatePreset("Monthly", nil); err != nil {
		t.Fatalf("CreatePreset failed: %v", err)
	}
	if s.Selected() != "Monthly" {
		t.Errorf("Selected = %q, want Monthly", s.Selected())
	}
	s.AddLabels("Food")
	if !labelsEqual(s.ActiveLabels(), []string{SentinelLabel, "Food"}) {
		t.Errorf("ActiveLabels = %v", s.ActiveLabels())
	}
}

func TestImportedPresetNeverAutoSaved(t *testing.T) {
	s, storage := newTestStore(t)
	s.SetImportedLabels([]string{"Food"})
	before, _ := storage.Get(StorageKey)

	s.AddLabels("Travel")

	after, _ := storage.Get(StorageKey)
	if string(before) != string(after) {
		t.Error("mutating the live preset touched durable storage")
	}
	// The live preset itself did pick up the label for the session.
	if !labelsEqual(s.ActiveLabels(), []string{SentinelLabel, "Food", "Travel"}) {
		t.Errorf("ActiveLabels = %v", s.ActiveLabels())
	}
}
