package models

import "time"

// CurrentUserID is the sender id used for messages written by the session
// owner.
const CurrentUserID = "currentUser"

type MessageType string

const (
	MessageText  MessageType = "text"
	MessageImage MessageType = "image"
	MessageFile  MessageType = "file"
)

type Message struct {
	ID        string      `json:"id"`
	SenderID  string      `json:"senderId"`
	Content   string      `json:"content"`
	Timestamp time.Time   `json:"timestamp"`
	Type      MessageType `json:"type"`
	Read      bool        `json:"read"`
}

type Conversation struct {
	ID                string   `json:"id"`
	ParticipantID     string   `json:"participantId"`
	ParticipantName   string   `json:"participantName"`
	ParticipantAvatar string   `json:"participantAvatar"`
	LastMessage       *Message `json:"lastMessage,omitempty"`
	UnreadCount       int      `json:"unreadCount"`
	Online            bool     `json:"online"`
	// LastActive is LastMessage's timestamp formatted relative to now.
	LastActive string `json:"lastActive,omitempty"`
}

// ConversationDetail is a conversation with its full message list.
type ConversationDetail struct {
	Conversation
	Messages []Message `json:"messages"`
}

type SendMessageRequest struct {
	Content string `json:"content"`
}

type OpenConversationRequest struct {
	UserID   string `json:"userId"`
	UserName string `json:"userName"`
	Avatar   string `json:"avatar"`
}

func (r *OpenConversationRequest) Validate() map[string]string {
	errors := make(map[string]string)
	if r.UserID == "" {
		errors["userId"] = "User ID is required"
	}
	return errors
}
