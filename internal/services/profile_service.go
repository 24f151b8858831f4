package services

import (
	"context"
	"errors"
	"strings"
	"time"

	"golang.org/x/crypto/bcrypt"

	"github.com/skilltrade/backend/internal/models"
	"github.com/skilltrade/backend/internal/storage"
)

// ErrNoSession means the session is not signed in or holds no profile.
var ErrNoSession = errors.New("no signed-in profile")

type ProfileService struct {
	local *LocalStore
	now   func() time.Time
}

func NewProfileService(local *LocalStore) *ProfileService {
	return &ProfileService{local: local, now: time.Now}
}

// Create stores a new profile for the session and signs it in. Any profile
// already in the session is replaced.
func (s *ProfileService) Create(ctx context.Context, sessionID string, req *models.CreateProfileRequest) (*models.Profile, error) {
	hashedPassword, err := bcrypt.GenerateFromPassword([]byte(req.Password), bcrypt.DefaultCost)
	if err != nil {
		return nil, err
	}

	now := s.now()
	p := &models.Profile{
		Name:           strings.TrimSpace(req.Name),
		Email:          strings.TrimSpace(req.Email),
		PasswordHash:   string(hashedPassword),
		ProfilePicture: req.ProfilePicture,
		SkillsIHave:    req.SkillsIHave,
		WhatImGoodAt:   req.WhatImGoodAt,
		Location:       strings.TrimSpace(req.Location),
		PreferredWork:  req.PreferredWork,
		CreatedAt:      now,
		UpdatedAt:      now,
	}
	p.Normalize()

	if err := s.local.SaveProfile(ctx, sessionID, p); err != nil {
		return nil, err
	}
	if err := s.local.SetAuthenticated(ctx, sessionID); err != nil {
		return nil, err
	}
	return p, nil
}

// Get returns the signed-in profile or ErrNoSession.
func (s *ProfileService) Get(ctx context.Context, sessionID string) (*models.Profile, error) {
	ok, err := s.local.IsAuthenticated(ctx, sessionID)
	if err != nil {
		return nil, err
	}
	if !ok {
		return nil, ErrNoSession
	}

	p, err := s.local.Profile(ctx, sessionID)
	if errors.Is(err, storage.ErrNotFound) {
		return nil, ErrNoSession
	}
	return p, err
}

func (s *ProfileService) Update(ctx context.Context, sessionID string, req *models.UpdateProfileRequest) (*models.Profile, error) {
	p, err := s.Get(ctx, sessionID)
	if err != nil {
		return nil, err
	}

	req.Apply(p)
	p.UpdatedAt = s.now()

	if err := s.local.SaveProfile(ctx, sessionID, p); err != nil {
		return nil, err
	}
	return p, nil
}

func (s *ProfileService) SignOut(ctx context.Context, sessionID string) error {
	return s.local.SignOut(ctx, sessionID)
}

// Forgetter holds per-session state outside the store.
type Forgetter interface {
	Forget(sessionID string)
}

// ClearAccount drops everything the session has stored, posts included,
// along with whatever the given services keep in memory for it.
func (s *ProfileService) ClearAccount(ctx context.Context, sessionID string, memory ...Forgetter) error {
	if err := s.local.Clear(ctx, sessionID); err != nil {
		return err
	}
	for _, m := range memory {
		m.Forget(sessionID)
	}
	return nil
}

func (s *ProfileService) State(ctx context.Context, sessionID string) (*models.SessionState, error) {
	state := &models.SessionState{SessionID: sessionID}

	p, err := s.Get(ctx, sessionID)
	if errors.Is(err, ErrNoSession) {
		return state, nil
	}
	if err != nil {
		return nil, err
	}

	pub := p.Public()
	state.IsAuthenticated = true
	state.Profile = &pub
	return state, nil
}
