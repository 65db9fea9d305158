// SPDX-License-Identifier: MIT
// Copyright (c) 2026 WoozyMasta
// Source: github.com/woozymasta/dat

package dat

import (
	"bytes"
	"errors"
	"fmt"
	"io/fs"

	"gopkg.in/yaml.v3"
)

// ManifestFileName is the reserved sidecar name inside an unpack directory.
// It is never packed.
const ManifestFileName = "dat_manifest.yaml"

// Manifest preserves hashed-format metadata across an unpack/repack cycle.
type Manifest struct {
	// Unk1 is the opaque metadata scalar.
	Unk1 int32 `json:"unk1" yaml:"unk1"`
	// NameWidth is the filename record width of the source archive.
	NameWidth uint32 `json:"name_width,omitempty" yaml:"name_width,omitempty"`
	// UnknownIndices is the opaque auxiliary index block.
	UnknownIndices []int16 `json:"unknown_indices" yaml:"unknown_indices,flow"`
	// Files maps filename to metadata in archive order.
	Files ManifestFiles `json:"Files" yaml:"Files"`
}

// ManifestFile is one per-entry metadata record.
type ManifestFile struct {
	Name  string `json:"name" yaml:"-"`
	Index int16  `json:"index" yaml:"index"`
	Hash  uint32 `json:"hash" yaml:"hash"`
}

// ManifestFiles is an ordered filename mapping.
type ManifestFiles []ManifestFile

// manifestRecord is the YAML value stored under each filename key.
type manifestRecord struct {
	Index int16  `yaml:"index"`
	Hash  uint32 `yaml:"hash"`
}

// MarshalYAML emits files as a mapping that keeps slice order.
func (f ManifestFiles) MarshalYAML() (any, error) {
	node := &yaml.Node{Kind: yaml.MappingNode, Tag: "!!map"}
	for _, file := range f {
		var value yaml.Node
		if err := value.Encode(manifestRecord{Index: file.Index, Hash: file.Hash}); err != nil {
			return nil, fmt.Errorf("encode manifest record %q: %w", file.Name, err)
		}

		node.Content = append(node.Content,
			&yaml.Node{Kind: yaml.ScalarNode, Tag: "!!str", Value: file.Name},
			&value,
		)
	}

	return node, nil
}

// UnmarshalYAML reads a filename mapping in document order.
func (f *ManifestFiles) UnmarshalYAML(value *yaml.Node) error {
	if value.Kind != yaml.MappingNode {
		return fmt.Errorf("manifest Files: expected mapping at line %d", value.Line)
	}

	out := make(ManifestFiles, 0, len(value.Content)/2)
	seen := make(map[string]struct{}, len(value.Content)/2)
	for i := 0; i+1 < len(value.Content); i += 2 {
		key, val := value.Content[i], value.Content[i+1]

		var rec manifestRecord
		if err := val.Decode(&rec); err != nil {
			return fmt.Errorf("manifest record %q: %w", key.Value, err)
		}

		if _, ok := seen[key.Value]; ok {
			return fmt.Errorf("%w: manifest lists %q twice", ErrDuplicateEntryName, key.Value)
		}
		seen[key.Value] = struct{}{}

		out = append(out, ManifestFile{Name: key.Value, Index: rec.Index, Hash: rec.Hash})
	}

	*f = out
	return nil
}

// Lookup returns the record for name.
func (m *Manifest) Lookup(name string) (ManifestFile, bool) {
	if m == nil {
		return ManifestFile{}, false
	}

	for _, file := range m.Files {
		if file.Name == name {
			return file, true
		}
	}

	return ManifestFile{}, false
}

// ManifestFromArchive captures metadata of a decoded archive.
func ManifestFromArchive(a *Archive) *Manifest {
	m := &Manifest{
		Unk1:           a.Unk1,
		NameWidth:      a.NameWidth,
		UnknownIndices: append([]int16{}, a.UnknownIndices...),
		Files:          make(ManifestFiles, len(a.Entries)),
	}

	for i := range a.Entries {
		m.Files[i] = ManifestFile{
			Name:  a.Entries[i].Name,
			Index: a.Entries[i].Index,
			Hash:  a.Entries[i].Hash,
		}
	}

	return m
}

// MarshalManifest renders the manifest as YAML.
func MarshalManifest(m *Manifest) ([]byte, error) {
	var buf bytes.Buffer
	enc := yaml.NewEncoder(&buf)
	enc.SetIndent(2)

	if err := enc.Encode(m); err != nil {
		return nil, fmt.Errorf("encode manifest: %w", err)
	}

	if err := enc.Close(); err != nil {
		return nil, fmt.Errorf("encode manifest: %w", err)
	}

	return buf.Bytes(), nil
}

// UnmarshalManifest parses a YAML manifest.
func UnmarshalManifest(data []byte) (*Manifest, error) {
	var m Manifest
	if err := yaml.Unmarshal(data, &m); err != nil {
		return nil, fmt.Errorf("decode manifest: %w", err)
	}

	return &m, nil
}

// LoadManifest reads the reserved manifest from store.
func LoadManifest(store FileStore) (*Manifest, error) {
	if store == nil {
		return nil, ErrNilStore
	}

	data, err := store.ReadFile(ManifestFileName)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return nil, fmt.Errorf("%w: %s", ErrMissingManifest, ManifestFileName)
		}

		return nil, err
	}

	return UnmarshalManifest(data)
}

// SaveManifest writes the manifest under its reserved name.
func SaveManifest(store FileStore, m *Manifest) error {
	if store == nil {
		return ErrNilStore
	}

	data, err := MarshalManifest(m)
	if err != nil {
		return err
	}

	return store.WriteFile(ManifestFileName, data)
}

// hasManifest reports whether store holds a manifest.
func hasManifest(store FileStore) (bool, error) {
	_, err := store.Size(ManifestFileName)
	if err == nil {
		return true, nil
	}

	if errors.Is(err, fs.ErrNotExist) {
		return false, nil
	}

	return false, err
}
