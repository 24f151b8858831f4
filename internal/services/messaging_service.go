package services

import (
	"errors"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/skilltrade/backend/internal/models"
	"github.com/skilltrade/backend/internal/seed"
)

var (
	ErrConversationNotFound = errors.New("conversation not found")
	ErrEmptyMessage         = errors.New("message is empty")
)

// EventNewMessage is published whenever a message is appended.
const EventNewMessage = "message.new"

// Notifier pushes events to the live connections of a session.
type Notifier interface {
	Publish(sessionID, action string, payload interface{})
}

// MessagingService gives each session its own in-memory copy of the sample
// conversations. Nothing here is persisted; a restart starts over.
type MessagingService struct {
	mu       sync.Mutex
	seed     *seed.Data
	notifier Notifier
	inboxes  map[string]*inbox // sessionID -> inbox
	now      func() time.Time
}

type inbox struct {
	conversations []*models.Conversation
	messages      map[string][]models.Message
	lastSeen      time.Time
}

func NewMessagingService(data *seed.Data, notifier Notifier) *MessagingService {
	return &MessagingService{
		seed:     data,
		notifier: notifier,
		inboxes:  make(map[string]*inbox),
		now:      time.Now,
	}
}

// List returns the session's conversations whose participant name contains
// search, ignoring case. An empty search matches everything.
func (s *MessagingService) List(sessionID, search string) []models.Conversation {
	s.mu.Lock()
	defer s.mu.Unlock()

	box := s.inbox(sessionID)
	now := s.now()
	term := strings.ToLower(search)

	out := []models.Conversation{}
	for _, c := range box.conversations {
		if term != "" && !strings.Contains(strings.ToLower(c.ParticipantName), term) {
			continue
		}
		out = append(out, snapshot(c, now))
	}
	return out
}

// Get returns a conversation with its messages and marks them read.
func (s *MessagingService) Get(sessionID, conversationID string) (*models.ConversationDetail, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	box := s.inbox(sessionID)
	conv := box.find(conversationID)
	if conv == nil {
		return nil, ErrConversationNotFound
	}

	msgs := box.messages[conversationID]
	for i := range msgs {
		msgs[i].Read = true
	}
	conv.UnreadCount = 0
	if conv.LastMessage != nil {
		conv.LastMessage.Read = true
	}

	return &models.ConversationDetail{
		Conversation: snapshot(conv, s.now()),
		Messages:     append([]models.Message{}, msgs...),
	}, nil
}

// Send appends a text message from the session owner.
func (s *MessagingService) Send(sessionID, conversationID, content string) (*models.Message, error) {
	content = strings.TrimSpace(content)
	if content == "" {
		return nil, ErrEmptyMessage
	}

	s.mu.Lock()
	box := s.inbox(sessionID)
	conv := box.find(conversationID)
	if conv == nil {
		s.mu.Unlock()
		return nil, ErrConversationNotFound
	}

	now := s.now()
	msg := models.Message{
		ID:        box.nextMessageID(conversationID, now),
		SenderID:  models.CurrentUserID,
		Content:   content,
		Timestamp: now,
		Type:      models.MessageText,
		Read:      true,
	}
	box.messages[conversationID] = append(box.messages[conversationID], msg)
	last := msg
	conv.LastMessage = &last
	s.mu.Unlock()

	if s.notifier != nil {
		s.notifier.Publish(sessionID, EventNewMessage, map[string]interface{}{
			"conversationId": conversationID,
			"message":        msg,
		})
	}
	return &msg, nil
}

// Open returns the conversation with userID, starting an empty one if the
// session has never talked to them.
func (s *MessagingService) Open(sessionID string, req *models.OpenConversationRequest) models.Conversation {
	s.mu.Lock()
	defer s.mu.Unlock()

	box := s.inbox(sessionID)
	id := "conv_" + req.UserID

	if conv := box.find(id); conv != nil {
		return snapshot(conv, s.now())
	}
	if conv := box.findParticipant(req.UserID); conv != nil {
		return snapshot(conv, s.now())
	}

	name := req.UserName
	if name == "" {
		name = "User"
	}
	avatar := req.Avatar
	if avatar == "" {
		avatar = models.DefaultAvatar
	}
	conv := &models.Conversation{
		ID:                id,
		ParticipantID:     req.UserID,
		ParticipantName:   name,
		ParticipantAvatar: avatar,
	}
	box.conversations = append([]*models.Conversation{conv}, box.conversations...)
	box.messages[id] = []models.Message{}
	return snapshot(conv, s.now())
}

// Prune drops inboxes idle longer than idle and returns how many were dropped.
func (s *MessagingService) Prune(idle time.Duration) int {
	s.mu.Lock()
	defer s.mu.Unlock()

	cutoff := s.now().Add(-idle)
	dropped := 0
	for id, box := range s.inboxes {
		if box.lastSeen.Before(cutoff) {
			delete(s.inboxes, id)
			dropped++
		}
	}
	return dropped
}

// Forget drops the session's inbox so the next use starts from the samples.
func (s *MessagingService) Forget(sessionID string) {
	s.mu.Lock()
	delete(s.inboxes, sessionID)
	s.mu.Unlock()
}

// inbox returns the session's inbox, seeding it on first use. Callers hold s.mu.
func (s *MessagingService) inbox(sessionID string) *inbox {
	box, ok := s.inboxes[sessionID]
	if !ok {
		box = &inbox{messages: make(map[string][]models.Message)}
		if s.seed != nil {
			box.conversations, box.messages = s.seed.Inbox(s.now())
		}
		s.inboxes[sessionID] = box
	}
	box.lastSeen = s.now()
	return box
}

func (b *inbox) find(id string) *models.Conversation {
	for _, c := range b.conversations {
		if c.ID == id {
			return c
		}
	}
	return nil
}

func (b *inbox) findParticipant(userID string) *models.Conversation {
	for _, c := range b.conversations {
		if c.ParticipantID == userID {
			return c
		}
	}
	return nil
}

func (b *inbox) nextMessageID(conversationID string, now time.Time) string {
	base := fmt.Sprintf("msg_%d", now.UnixMilli())
	id := base
	for n := 1; b.hasMessage(conversationID, id); n++ {
		id = fmt.Sprintf("%s_%d", base, n)
	}
	return id
}

func (b *inbox) hasMessage(conversationID, id string) bool {
	for _, m := range b.messages[conversationID] {
		if m.ID == id {
			return true
		}
	}
	return false
}

func snapshot(c *models.Conversation, now time.Time) models.Conversation {
	out := *c
	if c.LastMessage != nil {
		last := *c.LastMessage
		out.LastMessage = &last
		out.LastActive = FormatRelative(now, last.Timestamp)
	}
	return out
}
