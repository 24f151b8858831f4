package services

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/skilltrade/backend/internal/models"
	"github.com/skilltrade/backend/internal/storage"
)

// Keys every session namespace may hold.
const (
	KeyUserProfile     = "userProfile"
	KeyIsAuthenticated = "isAuthenticated"
	KeyUserPosts       = "userPosts"
)

// LocalStore reads and writes the well-known keys of a session namespace as
// JSON. It adds no locking of its own.
type LocalStore struct {
	kv storage.Store
}

func NewLocalStore(kv storage.Store) *LocalStore {
	return &LocalStore{kv: kv}
}

func (s *LocalStore) IsAuthenticated(ctx context.Context, sessionID string) (bool, error) {
	v, err := s.kv.Get(ctx, sessionID, KeyIsAuthenticated)
	if errors.Is(err, storage.ErrNotFound) {
		return false, nil
	}
	if err != nil {
		return false, err
	}
	return v == "true", nil
}

func (s *LocalStore) SetAuthenticated(ctx context.Context, sessionID string) error {
	return s.kv.Set(ctx, sessionID, KeyIsAuthenticated, "true")
}

// Profile returns storage.ErrNotFound when no profile is stored.
func (s *LocalStore) Profile(ctx context.Context, sessionID string) (*models.Profile, error) {
	raw, err := s.kv.Get(ctx, sessionID, KeyUserProfile)
	if err != nil {
		return nil, err
	}
	var p models.Profile
	if err := json.Unmarshal([]byte(raw), &p); err != nil {
		return nil, fmt.Errorf("decoding %s: %w", KeyUserProfile, err)
	}
	p.Normalize()
	return &p, nil
}

func (s *LocalStore) SaveProfile(ctx context.Context, sessionID string, p *models.Profile) error {
	raw, err := json.Marshal(p)
	if err != nil {
		return err
	}
	return s.kv.Set(ctx, sessionID, KeyUserProfile, string(raw))
}

// Posts returns the stored posts, newest first. A missing key is an empty list.
func (s *LocalStore) Posts(ctx context.Context, sessionID string) ([]models.Post, error) {
	raw, err := s.kv.Get(ctx, sessionID, KeyUserPosts)
	if errors.Is(err, storage.ErrNotFound) {
		return []models.Post{}, nil
	}
	if err != nil {
		return nil, err
	}
	posts := []models.Post{}
	if err := json.Unmarshal([]byte(raw), &posts); err != nil {
		return nil, fmt.Errorf("decoding %s: %w", KeyUserPosts, err)
	}
	return posts, nil
}

func (s *LocalStore) SavePosts(ctx context.Context, sessionID string, posts []models.Post) error {
	raw, err := json.Marshal(posts)
	if err != nil {
		return err
	}
	return s.kv.Set(ctx, sessionID, KeyUserPosts, string(raw))
}

// SignOut forgets the profile and the signed-in flag. Posts stay behind.
func (s *LocalStore) SignOut(ctx context.Context, sessionID string) error {
	if err := s.kv.Delete(ctx, sessionID, KeyIsAuthenticated); err != nil {
		return err
	}
	return s.kv.Delete(ctx, sessionID, KeyUserProfile)
}

func (s *LocalStore) Clear(ctx context.Context, sessionID string) error {
	return s.kv.Clear(ctx, sessionID)
}
