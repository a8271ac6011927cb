package jobstore

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"slices"
	"strconv"
	"strings"

	"github.com/rafarodsa/onager/internal/sweep"
)

// DefaultPathTemplate is used when neither the command line nor the
// configuration names a job file.
const DefaultPathTemplate = ".onager/scripts/{jobname}/jobs.json"

// ErrNotFound is returned when a job id is not in the store.
var ErrNotFound = errors.New("job not found")

// Record is one numbered job.
type Record struct {
	ID      int    `json:"id"`
	Command string `json:"command"`
	Tag     string `json:"tag"`
}

// Store holds job records keyed by id.
//
// Thread-safety: Store is not safe for concurrent use.
type Store struct {
	records map[int]Record
}

// New returns an empty store. Its first id is 1.
func New() *Store {
	return &Store{records: make(map[int]Record)}
}

// ResolvePath expands the {jobname} placeholder of a job file template.
func ResolvePath(template, jobname string) string {
	if template == "" {
		template = DefaultPathTemplate
	}
	return strings.ReplaceAll(template, "{jobname}", jobname)
}

// Load reads a job file. A missing file returns an error wrapping
// fs.ErrNotExist so callers can decide to start empty.
func Load(path string) (*Store, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("load job file: %w", err)
	}
	s := New()
	if err := json.Unmarshal(data, s); err != nil {
		return nil, fmt.Errorf("load job file %s: %w", path, err)
	}
	return s, nil
}

// Save rewrites path with every record, creating parent directories.
func (s *Store) Save(path string) error {
	if dir := filepath.Dir(path); dir != "." {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return fmt.Errorf("create job directory: %w", err)
		}
	}
	data, err := s.MarshalJSON()
	if err != nil {
		return err
	}
	if err := os.WriteFile(path, data, 0o644); err != nil {
		return fmt.Errorf("write job file: %w", err)
	}
	return nil
}

// NextID returns max(existing ids) + 1, or 1 for an empty store.
func (s *Store) NextID() int {
	next := 1
	for id := range s.records {
		if id >= next {
			next = id + 1
		}
	}
	return next
}

// Add numbers cmds contiguously from NextID and stores them.
// The new records are returned in input order.
func (s *Store) Add(cmds []sweep.Command) []Record {
	id := s.NextID()
	added := make([]Record, len(cmds))
	for i, c := range cmds {
		r := Record{ID: id + i, Command: c.Command, Tag: c.Tag}
		s.records[r.ID] = r
		added[i] = r
	}
	return added
}

// Len returns the number of records.
func (s *Store) Len() int {
	return len(s.records)
}

// IDs returns every id in ascending order.
func (s *Store) IDs() []int {
	ids := make([]int, 0, len(s.records))
	for id := range s.records {
		ids = append(ids, id)
	}
	slices.Sort(ids)
	return ids
}

// Get returns the record with the given id.
func (s *Store) Get(id int) (Record, bool) {
	r, ok := s.records[id]
	return r, ok
}

// Records returns every record in id order.
func (s *Store) Records() []Record {
	ids := s.IDs()
	out := make([]Record, len(ids))
	for i, id := range ids {
		out[i] = s.records[id]
	}
	return out
}

// Select returns the records for ids in the order given.
func (s *Store) Select(ids []int) ([]Record, error) {
	out := make([]Record, 0, len(ids))
	for _, id := range ids {
		r, ok := s.records[id]
		if !ok {
			return nil, fmt.Errorf("job %d: %w", id, ErrNotFound)
		}
		out = append(out, r)
	}
	return out, nil
}

// MarshalJSON writes records in numeric id order with ", " and ": "
// separators. Strings are not HTML-escaped.
func (s *Store) MarshalJSON() ([]byte, error) {
	var b strings.Builder
	b.WriteByte('{')
	for i, id := range s.IDs() {
		r := s.records[id]
		if i > 0 {
			b.WriteString(", ")
		}
		cmd, err := encodeString(r.Command)
		if err != nil {
			return nil, fmt.Errorf("marshal job %d: %w", id, err)
		}
		tag, err := encodeString(r.Tag)
		if err != nil {
			return nil, fmt.Errorf("marshal job %d: %w", id, err)
		}
		fmt.Fprintf(&b, "%q: [%s, %s]", strconv.Itoa(id), cmd, tag)
	}
	b.WriteByte('}')
	return []byte(b.String()), nil
}

// UnmarshalJSON replaces the store contents. Keys must be decimal integers
// and values [command, tag] pairs.
func (s *Store) UnmarshalJSON(data []byte) error {
	var raw map[string][]string
	if err := json.Unmarshal(data, &raw); err != nil {
		return fmt.Errorf("decode records: %w", err)
	}
	records := make(map[int]Record, len(raw))
	for key, pair := range raw {
		id, err := strconv.Atoi(key)
		if err != nil {
			return fmt.Errorf("job id %q is not an integer", key)
		}
		if len(pair) != 2 {
			return fmt.Errorf("job %d: expected [command, tag], got %d fields", id, len(pair))
		}
		records[id] = Record{ID: id, Command: pair[0], Tag: pair[1]}
	}
	s.records = records
	return nil
}

func encodeString(v string) (string, error) {
	var b strings.Builder
	enc := json.NewEncoder(&b)
	enc.SetEscapeHTML(false)
	if err := enc.Encode(v); err != nil {
		return "", err
	}
	// Encoder adds a trailing newline.
	return strings.TrimSuffix(b.String(), "\n"), nil
}
