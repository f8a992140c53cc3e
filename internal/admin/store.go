// Package admin holds the small mutable documents behind the admin CRUD
// surface: generator personalities, the active personality selection, and
// the game version/date. These are plain read/write documents with no
// caching semantics.
package admin

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/discolens/discolens-bridge/internal/cache"
)

const (
	personalitiesKey = "admin:personalities"
	activeKey        = "admin:active-personality"
	gameDataKey      = "admin:game-data"
)

// ErrNotFound is returned when a requested document or personality does
// not exist.
var ErrNotFound = errors.New("not found")

// Personality is a generator persona: its prompt steers the random-fact
// route's completions.
type Personality struct {
	ID     string `json:"id"`
	Name   string `json:"name"`
	Prompt string `json:"prompt"`
}

// GameData is the daily game document.
type GameData struct {
	Version string `json:"version"`
	Date    string `json:"date"`
}

// Store persists the admin documents as JSON values in the shared
// key-value store, without TTLs.
type Store struct {
	store cache.Store
}

// NewStore creates an admin document store.
func NewStore(store cache.Store) *Store {
	return &Store{store: store}
}

// Personalities returns all stored personalities. An absent document is an
// empty list, not an error.
func (s *Store) Personalities(ctx context.Context) ([]Personality, error) {
	var list []Personality
	err := s.read(ctx, personalitiesKey, &list)
	if errors.Is(err, ErrNotFound) {
		return []Personality{}, nil
	}
	if err != nil {
		return nil, err
	}
	return list, nil
}

// SavePersonality inserts or replaces a personality by ID.
func (s *Store) SavePersonality(ctx context.Context, p Personality) error {
	if p.ID == "" {
		return fmt.Errorf("personality id must not be empty")
	}

	list, err := s.Personalities(ctx)
	if err != nil {
		return err
	}

	replaced := false
	for i := range list {
		if list[i].ID == p.ID {
			list[i] = p
			replaced = true
			break
		}
	}
	if !replaced {
		list = append(list, p)
	}

	return s.write(ctx, personalitiesKey, list)
}

// DeletePersonality removes a personality by ID. Deleting the active
// personality clears the active selection.
func (s *Store) DeletePersonality(ctx context.Context, id string) error {
	list, err := s.Personalities(ctx)
	if err != nil {
		return err
	}

	kept := list[:0]
	for _, p := range list {
		if p.ID != id {
			kept = append(kept, p)
		}
	}
	if len(kept) == len(list) {
		return ErrNotFound
	}

	if err := s.write(ctx, personalitiesKey, kept); err != nil {
		return err
	}

	if active, err := s.activeID(ctx); err == nil && active == id {
		return s.store.Delete(ctx, activeKey)
	}
	return nil
}

// ActivePersonality returns the currently selected personality.
func (s *Store) ActivePersonality(ctx context.Context) (Personality, error) {
	id, err := s.activeID(ctx)
	if err != nil {
		return Personality{}, err
	}

	list, err := s.Personalities(ctx)
	if err != nil {
		return Personality{}, err
	}

	for _, p := range list {
		if p.ID == id {
			return p, nil
		}
	}

	return Personality{}, ErrNotFound
}

// SetActivePersonality selects a personality by ID. The personality must
// exist.
func (s *Store) SetActivePersonality(ctx context.Context, id string) error {
	list, err := s.Personalities(ctx)
	if err != nil {
		return err
	}

	known := false
	for _, p := range list {
		if p.ID == id {
			known = true
			break
		}
	}
	if !known {
		return ErrNotFound
	}

	return s.write(ctx, activeKey, id)
}

// GameData returns the stored game document.
func (s *Store) GameData(ctx context.Context) (GameData, error) {
	var data GameData
	if err := s.read(ctx, gameDataKey, &data); err != nil {
		return GameData{}, err
	}
	return data, nil
}

// SetGameData replaces the game document.
func (s *Store) SetGameData(ctx context.Context, data GameData) error {
	return s.write(ctx, gameDataKey, data)
}

func (s *Store) activeID(ctx context.Context) (string, error) {
	var id string
	if err := s.read(ctx, activeKey, &id); err != nil {
		return "", err
	}
	return id, nil
}

func (s *Store) read(ctx context.Context, key string, target any) error {
	entry, found, err := s.store.Get(ctx, key)
	if err != nil {
		return fmt.Errorf("could not read %s: %w", key, err)
	}
	if !found {
		return ErrNotFound
	}

	if err := json.Unmarshal([]byte(entry.Value), target); err != nil {
		return fmt.Errorf("could not decode %s: %w", key, err)
	}
	return nil
}

func (s *Store) write(ctx context.Context, key string, value any) error {
	data, err := json.Marshal(value)
	if err != nil {
		return fmt.Errorf("could not encode %s: %w", key, err)
	}

	if err := s.store.Set(ctx, key, string(data), 0); err != nil {
		return fmt.Errorf("could not write %s: %w", key, err)
	}
	return nil
}
