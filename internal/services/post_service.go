package services

import (
	"context"
	"errors"
	"sync"
	"time"

	"github.com/skilltrade/backend/internal/models"
	"github.com/skilltrade/backend/internal/storage"
)

type PostService struct {
	// mu serialises the read-modify-write of userPosts.
	mu    sync.Mutex
	local *LocalStore
	now   func() time.Time
}

func NewPostService(local *LocalStore) *PostService {
	return &PostService{local: local, now: time.Now}
}

// Create prepends a post to the session's list. The author is a snapshot of
// the stored profile, or anonymous when there is none.
func (s *PostService) Create(ctx context.Context, sessionID string, req *models.CreatePostRequest) (*models.Post, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	profile, err := s.local.Profile(ctx, sessionID)
	if err != nil && !errors.Is(err, storage.ErrNotFound) {
		return nil, err
	}

	posts, err := s.local.Posts(ctx, sessionID)
	if err != nil {
		return nil, err
	}

	now := s.now()
	id := now.UnixMilli()
	if len(posts) > 0 && posts[0].ID >= id {
		id = posts[0].ID + 1
	}

	post := req.ToPost(id, models.AuthorFrom(profile), now)
	posts = append([]models.Post{post}, posts...)

	if err := s.local.SavePosts(ctx, sessionID, posts); err != nil {
		return nil, err
	}
	return &post, nil
}

// List returns every post stored in the session, newest first.
func (s *PostService) List(ctx context.Context, sessionID string) ([]models.Post, error) {
	return s.local.Posts(ctx, sessionID)
}
