package seed

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/skilltrade/backend/internal/models"
)

func TestLoadEmbedded(t *testing.T) {
	d, err := Load()
	require.NoError(t, err)

	now := time.Date(2026, 1, 2, 12, 0, 0, 0, time.UTC)

	posts := d.FeedPosts(now)
	require.Len(t, posts, 7)
	assert.Equal(t, int64(1), posts[0].ID)
	assert.Equal(t, "Alex Chen", posts[0].User.Name)
	assert.True(t, posts[0].User.Verified)
	assert.Equal(t, models.PostSkillRequest, posts[0].Type)
	assert.Equal(t, now.Add(-2*time.Hour), posts[0].CreatedAt)
	assert.Equal(t, []string{"UI/UX Design", "Figma"}, posts[0].SkillsNeeded)
	assert.Empty(t, posts[3].Image)

	convs, msgs := d.Inbox(now)
	require.Len(t, convs, 3)
	assert.Equal(t, "conv1", convs[0].ID)
	assert.Equal(t, 2, convs[0].UnreadCount)
	assert.Equal(t, "msg1_4", convs[0].LastMessage.ID)
	assert.Equal(t, 0, convs[1].UnreadCount)
	assert.Len(t, msgs["conv1"], 4)
	assert.Equal(t, now.Add(-5*time.Minute), msgs["conv1"][3].Timestamp)
}

func TestInboxReturnsIndependentCopies(t *testing.T) {
	d, err := Load()
	require.NoError(t, err)

	now := time.Now()
	convs1, msgs1 := d.Inbox(now)
	convs1[0].UnreadCount = 99
	msgs1["conv1"][0].Content = "changed"

	convs2, msgs2 := d.Inbox(now)
	assert.NotEqual(t, 99, convs2[0].UnreadCount)
	assert.NotEqual(t, "changed", msgs2["conv1"][0].Content)
}

func TestParseRejectsGarbage(t *testing.T) {
	_, err := Parse([]byte("posts: [unterminated"))
	assert.Error(t, err)
}
