package services

import (
	"context"
	"errors"
	"sync"
	"time"

	"github.com/skilltrade/backend/internal/models"
)

var ErrPostNotFound = errors.New("post not found")

// FeedService merges the session's own posts with the sample posts and
// tracks which posts each session has liked. Likes live in memory only.
type FeedService struct {
	mu        sync.RWMutex
	posts     *PostService
	seedPosts []models.Post
	likes     map[string]*likeSet // sessionID -> liked posts
	now       func() time.Time
}

type likeSet struct {
	postIDs  map[int64]bool
	lastSeen time.Time
}

func NewFeedService(posts *PostService, seedPosts []models.Post) *FeedService {
	return &FeedService{
		posts:     posts,
		seedPosts: seedPosts,
		likes:     make(map[string]*likeSet),
		now:       time.Now,
	}
}

// Feed returns the session's posts followed by the sample posts.
func (s *FeedService) Feed(ctx context.Context, sessionID string) ([]models.FeedPost, error) {
	own, err := s.posts.List(ctx, sessionID)
	if err != nil {
		return nil, err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	liked := s.touch(sessionID)
	now := s.now()

	feed := make([]models.FeedPost, 0, len(own)+len(s.seedPosts))
	for _, p := range own {
		feed = append(feed, s.view(p, liked, now))
	}
	for _, p := range s.seedPosts {
		feed = append(feed, s.view(p, liked, now))
	}
	return feed, nil
}

// ToggleLike likes postID for the session, or unlikes it if already liked.
func (s *FeedService) ToggleLike(ctx context.Context, sessionID string, postID int64) (*models.FeedPost, error) {
	post, err := s.find(ctx, sessionID, postID)
	if err != nil {
		return nil, err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	liked := s.touch(sessionID)
	if liked.postIDs[postID] {
		delete(liked.postIDs, postID)
	} else {
		liked.postIDs[postID] = true
	}

	view := s.view(*post, liked, s.now())
	return &view, nil
}

// Prune forgets like state for sessions idle longer than idle and returns
// how many were dropped.
func (s *FeedService) Prune(idle time.Duration) int {
	s.mu.Lock()
	defer s.mu.Unlock()

	cutoff := s.now().Add(-idle)
	dropped := 0
	for id, set := range s.likes {
		if set.lastSeen.Before(cutoff) {
			delete(s.likes, id)
			dropped++
		}
	}
	return dropped
}

// Forget drops the session's likes.
func (s *FeedService) Forget(sessionID string) {
	s.mu.Lock()
	delete(s.likes, sessionID)
	s.mu.Unlock()
}

func (s *FeedService) find(ctx context.Context, sessionID string, postID int64) (*models.Post, error) {
	own, err := s.posts.List(ctx, sessionID)
	if err != nil {
		return nil, err
	}
	for i := range own {
		if own[i].ID == postID {
			return &own[i], nil
		}
	}
	for i := range s.seedPosts {
		if s.seedPosts[i].ID == postID {
			p := s.seedPosts[i]
			return &p, nil
		}
	}
	return nil, ErrPostNotFound
}

// touch returns the session's like set, creating it if needed. Callers hold s.mu.
func (s *FeedService) touch(sessionID string) *likeSet {
	set, ok := s.likes[sessionID]
	if !ok {
		set = &likeSet{postIDs: make(map[int64]bool)}
		s.likes[sessionID] = set
	}
	set.lastSeen = s.now()
	return set
}

func (s *FeedService) view(p models.Post, liked *likeSet, now time.Time) models.FeedPost {
	fp := models.FeedPost{
		Post:      p,
		Timestamp: FormatRelative(now, p.CreatedAt),
		Liked:     liked.postIDs[p.ID],
	}
	if fp.Liked {
		fp.Likes++
	}
	return fp
}
