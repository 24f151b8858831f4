// Package seed holds the sample posts and conversations every session starts
// with. Ages are relative to the moment the data is materialised.
package seed

import (
	_ "embed"
	"fmt"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/skilltrade/backend/internal/models"
)

//go:embed seed.yaml
var seedYAML []byte

type Data struct {
	Posts         []Post         `yaml:"posts"`
	Conversations []Conversation `yaml:"conversations"`
}

type Post struct {
	models.Post `yaml:",inline"`
	Age         time.Duration `yaml:"age"`
}

type Conversation struct {
	ID                string    `yaml:"id"`
	ParticipantID     string    `yaml:"participantId"`
	ParticipantName   string    `yaml:"participantName"`
	ParticipantAvatar string    `yaml:"participantAvatar"`
	Online            bool      `yaml:"online"`
	Messages          []Message `yaml:"messages"`
}

type Message struct {
	ID       string        `yaml:"id"`
	SenderID string        `yaml:"senderId"`
	Content  string        `yaml:"content"`
	Age      time.Duration `yaml:"age"`
	Read     bool          `yaml:"read"`
}

// Load parses the embedded seed file.
func Load() (*Data, error) {
	return Parse(seedYAML)
}

func Parse(raw []byte) (*Data, error) {
	var d Data
	if err := yaml.Unmarshal(raw, &d); err != nil {
		return nil, fmt.Errorf("parsing seed data: %w", err)
	}
	return &d, nil
}

// FeedPosts returns the sample posts, newest first as listed.
func (d *Data) FeedPosts(now time.Time) []models.Post {
	posts := make([]models.Post, 0, len(d.Posts))
	for _, p := range d.Posts {
		post := p.Post
		post.CreatedAt = now.Add(-p.Age)
		post.SkillsOffered = append([]string(nil), p.SkillsOffered...)
		post.SkillsNeeded = append([]string(nil), p.SkillsNeeded...)
		posts = append(posts, post)
	}
	return posts
}

// Inbox returns fresh copies of the sample conversations and their
// messages, keyed by conversation id. Unread counts and last messages are
// derived from the message list.
func (d *Data) Inbox(now time.Time) ([]*models.Conversation, map[string][]models.Message) {
	convs := make([]*models.Conversation, 0, len(d.Conversations))
	messages := make(map[string][]models.Message, len(d.Conversations))

	for _, c := range d.Conversations {
		conv := &models.Conversation{
			ID:                c.ID,
			ParticipantID:     c.ParticipantID,
			ParticipantName:   c.ParticipantName,
			ParticipantAvatar: c.ParticipantAvatar,
			Online:            c.Online,
		}

		msgs := make([]models.Message, 0, len(c.Messages))
		for _, m := range c.Messages {
			msg := models.Message{
				ID:        m.ID,
				SenderID:  m.SenderID,
				Content:   m.Content,
				Timestamp: now.Add(-m.Age),
				Type:      models.MessageText,
				Read:      m.Read,
			}
			if !msg.Read && msg.SenderID != models.CurrentUserID {
				conv.UnreadCount++
			}
			msgs = append(msgs, msg)
		}
		if n := len(msgs); n > 0 {
			last := msgs[n-1]
			conv.LastMessage = &last
		}

		convs = append(convs, conv)
		messages[c.ID] = msgs
	}
	return convs, messages
}
