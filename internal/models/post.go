package models

import (
	"regexp"
	"strings"
	"time"
)

type PostType string

const (
	PostSkillOffer   PostType = "skill_offer"
	PostSkillRequest PostType = "skill_request"
	PostProject      PostType = "project"
	PostGeneral      PostType = "general"
)

// PostKind is the choice made on the first step of the post form.
type PostKind string

const (
	KindOfferWork   PostKind = "offer_work"
	KindRequestWork PostKind = "request_work"
)

func (k PostKind) Valid() bool {
	return k == KindOfferWork || k == KindRequestWork
}

// PostAuthor is a copy of the author's profile taken when the post is
// created. It is not updated when the profile changes.
type PostAuthor struct {
	Name     string `json:"name"`
	Username string `json:"username"`
	Avatar   string `json:"avatar"`
	Verified bool   `json:"verified"`
}

type Post struct {
	ID            int64      `json:"id" yaml:"id"`
	User          PostAuthor `json:"user" yaml:"user"`
	Content       string     `json:"content" yaml:"content"`
	Type          PostType   `json:"type" yaml:"type"`
	CreatedAt     time.Time  `json:"createdAt" yaml:"-"`
	Likes         int        `json:"likes" yaml:"likes"`
	Comments      int        `json:"comments" yaml:"comments"`
	SkillsOffered []string   `json:"skillsOffered,omitempty" yaml:"skillsOffered"`
	SkillsNeeded  []string   `json:"skillsNeeded,omitempty" yaml:"skillsNeeded"`
	Image         string     `json:"image,omitempty" yaml:"image"`
}

// FeedPost is a post as one session sees it in the feed.
type FeedPost struct {
	Post
	Timestamp string `json:"timestamp"`
	Liked     bool   `json:"liked"`
}

const (
	anonymousName     = "Anonymous User"
	anonymousUsername = "anonymous"
)

// whitespaceRun matches runs of Unicode whitespace, not just ASCII.
var whitespaceRun = regexp.MustCompile(`[\s\v\p{Zs}\x{2028}\x{2029}\x{FEFF}]+`)

// AuthorFrom snapshots p for a new post. A nil profile posts anonymously.
func AuthorFrom(p *Profile) PostAuthor {
	author := PostAuthor{
		Name:     anonymousName,
		Username: anonymousUsername,
		Avatar:   DefaultAvatar,
	}
	if p == nil {
		return author
	}
	if p.Name != "" {
		author.Name = p.Name
		author.Username = whitespaceRun.ReplaceAllString(strings.ToLower(p.Name), "_")
	}
	author.Avatar = p.Avatar()
	return author
}

type CreatePostRequest struct {
	Type            PostKind        `json:"type"`
	Title           string          `json:"title"`
	Description     string          `json:"description"`
	Skills          []string        `json:"skills"`
	ExperienceLevel ExperienceLevel `json:"experienceLevel"`
	Availability    Availability    `json:"availability"`
	Deadline        string          `json:"deadline"`
	WorkOffered     string          `json:"workOffered"`
	WorkDemanded    string          `json:"workDemanded"`
	Media           []string        `json:"media"`
}

func (r *CreatePostRequest) Validate() map[string]string {
	errors := make(map[string]string)

	if !r.Type.Valid() {
		errors["type"] = "Choose whether you are offering or requesting work"
	}
	if strings.TrimSpace(r.Title) == "" {
		errors["title"] = "Title is required"
	}
	if strings.TrimSpace(r.Description) == "" {
		errors["description"] = "Description is required"
	}
	if len(CleanSkills(r.Skills)) == 0 {
		errors["skills"] = "Add at least one skill"
	}
	if r.ExperienceLevel != "" && !r.ExperienceLevel.Valid() {
		errors["experienceLevel"] = "Experience level must be beginner, intermediate, advanced or expert"
	}
	if r.Availability != "" && !r.Availability.Valid() {
		errors["availability"] = "Availability must be full_time, part_time or project_based"
	}

	return errors
}

// Content renders the post body shown in the feed.
func (r *CreatePostRequest) Content() string {
	var b strings.Builder
	b.WriteString(r.Title)
	b.WriteString("\n\n")
	b.WriteString(r.Description)
	if r.WorkOffered != "" {
		b.WriteString("\n\nWhat I can offer: ")
		b.WriteString(r.WorkOffered)
	}
	if r.WorkDemanded != "" {
		b.WriteString("\n\nWhat I'm offering in return: ")
		b.WriteString(r.WorkDemanded)
	}
	return b.String()
}

// ToPost builds the stored post. Offers list the skills they need; requests
// list the skills they offer in exchange.
func (r *CreatePostRequest) ToPost(id int64, author PostAuthor, now time.Time) Post {
	skills := CleanSkills(r.Skills)
	post := Post{
		ID:        id,
		User:      author,
		Content:   r.Content(),
		CreatedAt: now,
	}
	if r.Type == KindOfferWork {
		post.Type = PostSkillOffer
		post.SkillsNeeded = skills
	} else {
		post.Type = PostSkillRequest
		post.SkillsOffered = skills
	}
	if len(r.Media) > 0 {
		post.Image = r.Media[0]
	}
	return post
}
