package catalog

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"
)

// Snapshot is the persisted form of a catalog.
type Snapshot struct {
	Records []Record
	SavedAt time.Time
}

// Store persists catalog snapshots.
type Store interface {
	Save(ctx context.Context, snap Snapshot) error
	// Load returns ErrStateMissing when nothing was saved yet.
	Load(ctx context.Context) (Snapshot, error)
}

// localTimeLayout is the naive ISO-8601 form written by older index files.
const localTimeLayout = "2006-01-02T15:04:05.999999"

type fileDocument struct {
	ID       string  `json:"id"`
	Content  string  `json:"content"`
	FilePath *string `json:"file_path"`
	AddedAt  string  `json:"added_at"`
}

type fileState struct {
	Documents []fileDocument `json:"documents"`
	Summaries []string       `json:"summaries"`
	DocIDMap  map[string]int `json:"doc_id_map"`
	SavedAt   string         `json:"saved_at"`
}

// FileStore keeps the catalog in one JSON file with positionally aligned
// documents and summaries arrays.
type FileStore struct {
	path string
}

// NewFileStore creates a store writing to path.
func NewFileStore(path string) *FileStore {
	return &FileStore{path: path}
}

// Path returns the file location.
func (s *FileStore) Path() string { return s.path }

// Save writes the snapshot atomically. Summaries are written only once at
// least one record has been summarized; unsummarized records then get "".
func (s *FileStore) Save(_ context.Context, snap Snapshot) error {
	state := fileState{
		Documents: make([]fileDocument, len(snap.Records)),
		Summaries: []string{},
		DocIDMap:  make(map[string]int, len(snap.Records)),
		SavedAt:   snap.SavedAt.Format(time.RFC3339Nano),
	}
	anySummarized := false
	for i, r := range snap.Records {
		doc := fileDocument{ID: r.ID, Content: r.Content, AddedAt: r.AddedAt.Format(time.RFC3339Nano)}
		if r.FilePath != "" {
			fp := r.FilePath
			doc.FilePath = &fp
		}
		state.Documents[i] = doc
		state.DocIDMap[r.ID] = i
		anySummarized = anySummarized || r.Summarized
	}
	if anySummarized {
		state.Summaries = make([]string, len(snap.Records))
		for i, r := range snap.Records {
			state.Summaries[i] = r.Summary
		}
	}

	data, err := json.MarshalIndent(state, "", "  ")
	if err != nil {
		return fmt.Errorf("marshal catalog: %w", err)
	}
	if err := os.MkdirAll(filepath.Dir(s.path), 0o755); err != nil {
		return err
	}
	tmp := s.path + ".tmp"
	if err := os.WriteFile(tmp, data, 0o644); err != nil {
		return err
	}
	return os.Rename(tmp, s.path)
}

// Load reads the file. Records sharing an id are returned as stored; every
// doc_id_map entry must point at a document with that id.
func (s *FileStore) Load(_ context.Context) (Snapshot, error) {
	data, err := os.ReadFile(s.path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return Snapshot{}, fmt.Errorf("%w: %s", ErrStateMissing, s.path)
		}
		return Snapshot{}, err
	}
	var state fileState
	if err := json.Unmarshal(data, &state); err != nil {
		return Snapshot{}, fmt.Errorf("%w: %v", ErrCorruptState, err)
	}

	summarized := len(state.Summaries) > 0
	if summarized && len(state.Summaries) != len(state.Documents) {
		return Snapshot{}, fmt.Errorf("%w: %d documents but %d summaries",
			ErrCorruptState, len(state.Documents), len(state.Summaries))
	}
	for id, i := range state.DocIDMap {
		if i < 0 || i >= len(state.Documents) || state.Documents[i].ID != id {
			return Snapshot{}, fmt.Errorf("%w: doc_id_map entry %q -> %d", ErrCorruptState, id, i)
		}
	}

	snap := Snapshot{Records: make([]Record, len(state.Documents))}
	snap.SavedAt, _ = parseTime(state.SavedAt)
	for i, d := range state.Documents {
		r := Record{ID: d.ID, Content: d.Content, Summarized: summarized}
		if d.FilePath != nil {
			r.FilePath = *d.FilePath
		}
		r.AddedAt, _ = parseTime(d.AddedAt)
		if summarized {
			r.Summary = state.Summaries[i]
		}
		snap.Records[i] = r
	}
	return snap, nil
}

func parseTime(s string) (time.Time, error) {
	if t, err := time.Parse(time.RFC3339Nano, s); err == nil {
		return t, nil
	}
	return time.ParseInLocation(localTimeLayout, s, time.Local)
}
