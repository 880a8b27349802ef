package pdf

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"sync"

	"gopkg.in/yaml.v3"

	"github.com/inkswift/mcp-pdf-signer/internal/signature"
)

const (
	sidecarSuffix = ".fields.yaml"
	signedSuffix  = ".signed.pdf"

	// DefaultFilePerm is used for sidecars and signed outputs
	DefaultFilePerm = 0o600
)

// placementFile is the on-disk layout of a sidecar
type placementFile struct {
	Document string                     `yaml:"document"`
	Fields   []signature.SignatureField `yaml:"fields"`
}

// PlacementStore keeps the pending signature fields of each document in a
// YAML file next to it, so placements survive restarts until finalised.
type PlacementStore struct {
	mu sync.Mutex
}

// NewPlacementStore creates a placement store
func NewPlacementStore() *PlacementStore {
	return &PlacementStore{}
}

// SidecarPath returns the sidecar file for a document
func SidecarPath(docPath string) string {
	return strings.TrimSuffix(docPath, filepath.Ext(docPath)) + sidecarSuffix
}

// SignedPath returns the default output path for a document
func SignedPath(docPath string) string {
	return strings.TrimSuffix(docPath, filepath.Ext(docPath)) + signedSuffix
}

// Load returns the pending fields of a document. A document with no
// sidecar has no pending fields.
func (s *PlacementStore) Load(docPath string) ([]signature.SignatureField, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.load(docPath)
}

// Add stores f, replacing a pending field with the same ID. It returns the
// number of pending fields afterwards and whether f replaced another.
func (s *PlacementStore) Add(docPath string, f signature.SignatureField) (int, bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	fields, err := s.load(docPath)
	if err != nil {
		return 0, false, err
	}

	replaced := false
	for i := range fields {
		if fields[i].ID == f.ID {
			fields[i] = f
			replaced = true
			break
		}
	}
	if !replaced {
		fields = append(fields, f)
	}

	if err := s.save(docPath, fields); err != nil {
		return 0, false, err
	}
	return len(fields), replaced, nil
}

// Clear removes the sidecar of a document and returns how many fields it held
func (s *PlacementStore) Clear(docPath string) (int, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	fields, err := s.load(docPath)
	if err != nil {
		return 0, err
	}
	if err := os.Remove(SidecarPath(docPath)); err != nil && !errors.Is(err, os.ErrNotExist) {
		return 0, fmt.Errorf("failed to remove placements: %w", err)
	}
	return len(fields), nil
}

// Remove drops the given fields from a document's pending set and returns
// how many remain. Only entries still equal to one of fields are dropped, so
// a field added or replaced after fields were loaded stays pending. The
// sidecar is deleted once nothing remains.
func (s *PlacementStore) Remove(docPath string, fields []signature.SignatureField) (int, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	pending, err := s.load(docPath)
	if err != nil {
		return 0, err
	}

	done := make(map[signature.SignatureField]struct{}, len(fields))
	for _, f := range fields {
		done[f] = struct{}{}
	}
	kept := pending[:0]
	for _, f := range pending {
		if _, ok := done[f]; !ok {
			kept = append(kept, f)
		}
	}

	if len(kept) == 0 {
		if err := os.Remove(SidecarPath(docPath)); err != nil && !errors.Is(err, os.ErrNotExist) {
			return 0, fmt.Errorf("failed to remove placements: %w", err)
		}
		return 0, nil
	}
	if len(kept) == len(pending) {
		return len(kept), nil
	}
	if err := s.save(docPath, kept); err != nil {
		return 0, err
	}
	return len(kept), nil
}

// Count returns the number of pending fields without failing on a broken
// sidecar
func (s *PlacementStore) Count(docPath string) int {
	fields, err := s.Load(docPath)
	if err != nil {
		return 0
	}
	return len(fields)
}

func (s *PlacementStore) load(docPath string) ([]signature.SignatureField, error) {
	data, err := os.ReadFile(SidecarPath(docPath))
	if errors.Is(err, os.ErrNotExist) {
		return []signature.SignatureField{}, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to read placements: %w", err)
	}

	var pf placementFile
	if err := yaml.Unmarshal(data, &pf); err != nil {
		return nil, fmt.Errorf("failed to parse placements %s: %w", SidecarPath(docPath), err)
	}
	if pf.Fields == nil {
		pf.Fields = []signature.SignatureField{}
	}
	return pf.Fields, nil
}

func (s *PlacementStore) save(docPath string, fields []signature.SignatureField) error {
	data, err := yaml.Marshal(placementFile{
		Document: filepath.Base(docPath),
		Fields:   fields,
	})
	if err != nil {
		return fmt.Errorf("failed to encode placements: %w", err)
	}

	// write-then-rename so a crash never leaves a truncated sidecar
	tmp := SidecarPath(docPath) + ".tmp"
	if err := os.WriteFile(tmp, data, DefaultFilePerm); err != nil {
		return fmt.Errorf("failed to write placements: %w", err)
	}
	if err := os.Rename(tmp, SidecarPath(docPath)); err != nil {
		_ = os.Remove(tmp)
		return fmt.Errorf("failed to write placements: %w", err)
	}
	return nil
}
