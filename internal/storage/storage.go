package storage

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"slices"
	"sync"

	"rsvp-checkin/internal/apperr"
	"rsvp-checkin/internal/models"
)

// FileStore keeps attendees in memory and mirrors them to a JSON file.
// An empty file path keeps everything in memory only.
type FileStore struct {
	mu        sync.RWMutex
	attendees []models.Attendee
	file      string
}

// NewFileStore creates a new file-backed store
func NewFileStore(filePath string) (*FileStore, error) {
	s := &FileStore{
		attendees: make([]models.Attendee, 0),
		file:      filePath,
	}

	// Load existing data if file exists
	if filePath != "" {
		if _, err := os.Stat(filePath); err == nil {
			if err := s.Load(); err != nil {
				return nil, fmt.Errorf("failed to load storage: %w", err)
			}
		}
	}

	return s, nil
}

// NewMemoryStore returns a store without a backing file
func NewMemoryStore() *FileStore {
	s, _ := NewFileStore("")
	return s
}

// Get retrieves an attendee by identifier
func (s *FileStore) Get(_ context.Context, id string) (*models.Attendee, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	if i := s.indexOf(id); i >= 0 {
		a := s.attendees[i]
		return &a, nil
	}
	return nil, apperr.NotFound("get", id)
}

// Insert adds a new attendee; the identifier must not be taken
func (s *FileStore) Insert(_ context.Context, a *models.Attendee) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.indexOf(a.ID) >= 0 {
		return apperr.Conflict("insert", a.ID)
	}
	s.attendees = append(s.attendees, *a)
	if err := s.Save(); err != nil {
		s.attendees = s.attendees[:len(s.attendees)-1]
		return err
	}
	return nil
}

// Replace overwrites the stored attendee with the same identifier
func (s *FileStore) Replace(_ context.Context, a *models.Attendee) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	i := s.indexOf(a.ID)
	if i < 0 {
		return apperr.NotFound("replace", a.ID)
	}
	previous := s.attendees[i]
	s.attendees[i] = *a
	if err := s.Save(); err != nil {
		s.attendees[i] = previous
		return err
	}
	return nil
}

// Delete removes an attendee by identifier
func (s *FileStore) Delete(_ context.Context, id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	i := s.indexOf(id)
	if i < 0 {
		return apperr.NotFound("delete", id)
	}
	previous := slices.Clone(s.attendees)
	s.attendees = slices.Delete(s.attendees, i, i+1)
	if err := s.Save(); err != nil {
		s.attendees = previous
		return err
	}
	return nil
}

// List returns all attendees ordered by creation time
func (s *FileStore) List(_ context.Context) ([]models.Attendee, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	attendees := make([]models.Attendee, len(s.attendees))
	copy(attendees, s.attendees)
	slices.SortStableFunc(attendees, func(a, b models.Attendee) int {
		return a.CreatedAt.Compare(b.CreatedAt)
	})
	return attendees, nil
}

// Clear removes every attendee
func (s *FileStore) Clear(_ context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	previous := s.attendees
	s.attendees = make([]models.Attendee, 0)
	if err := s.Save(); err != nil {
		s.attendees = previous
		return err
	}
	return nil
}

func (s *FileStore) indexOf(id string) int {
	return slices.IndexFunc(s.attendees, func(a models.Attendee) bool { return a.ID == id })
}

// Save saves the attendees to file
func (s *FileStore) Save() error {
	if s.file == "" {
		return nil
	}

	data, err := json.MarshalIndent(s.attendees, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to marshal data: %w", err)
	}

	// Ensure directory exists
	dir := filepath.Dir(s.file)
	if err := os.MkdirAll(dir, 0755); err != nil {
		return fmt.Errorf("failed to create directory: %w", err)
	}

	// written beside the target, then renamed over it
	tmp := s.file + ".tmp"
	if err := os.WriteFile(tmp, data, 0644); err != nil {
		return fmt.Errorf("failed to write file: %w", err)
	}
	return os.Rename(tmp, s.file)
}

// Load loads attendees from file
func (s *FileStore) Load() error {
	data, err := os.ReadFile(s.file)
	if err != nil {
		return fmt.Errorf("failed to read file: %w", err)
	}

	if len(data) == 0 {
		s.attendees = make([]models.Attendee, 0)
		return nil
	}

	if err := json.Unmarshal(data, &s.attendees); err != nil {
		return fmt.Errorf("failed to unmarshal data: %w", err)
	}

	return nil
}
