package models

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestCleanSkills(t *testing.T) {
	got := CleanSkills([]string{" React ", "", "Go", "React", "  ", "Design"})
	assert.Equal(t, []string{"React", "Go", "Design"}, got)
	assert.Equal(t, []string{}, CleanSkills(nil))
}

func TestTopSkills(t *testing.T) {
	assert.Equal(t, []string{"a", "b", "c"}, TopSkills([]string{"a", "b", "c", "d"}))
	assert.Equal(t, []string{"a"}, TopSkills([]string{"a"}))
	assert.Equal(t, []string{}, TopSkills(nil))
}

func TestProfileNormalize(t *testing.T) {
	p := Profile{
		WhatImGoodAt:  "Teaching piano",
		SkillsIHave:   []string{"Piano", "Piano", "Theory", "Singing", "Guitar"},
		PreferredWork: "part_time",
	}
	p.Normalize()

	assert.Equal(t, "Teaching piano", p.Bio)
	assert.Equal(t, "Teaching piano", p.WhatImGoodAt)
	assert.Equal(t, []string{"Piano", "Theory", "Singing", "Guitar"}, p.SkillsIHave)
	assert.Equal(t, []string{"Piano", "Theory", "Singing"}, p.TopSkills)
	assert.Equal(t, AvailabilityPartTime, p.Availability, "availability stored under preferredWork is moved")
	assert.Equal(t, WorkBoth, p.PreferredWork)
	assert.Equal(t, ExperienceIntermediate, p.ExperienceLevel)
}

func TestProfileNormalizePrefersBio(t *testing.T) {
	p := Profile{Bio: "new", WhatImGoodAt: "old"}
	p.Normalize()
	assert.Equal(t, "new", p.Bio)
	assert.Equal(t, "new", p.WhatImGoodAt)
}

func TestCreateProfileRequestValidate(t *testing.T) {
	req := CreateProfileRequest{SkillsIHave: []string{"  "}, PreferredWork: "remote"}
	errs := req.Validate()
	assert.Contains(t, errs, "name")
	assert.Contains(t, errs, "email")
	assert.Contains(t, errs, "password")
	assert.Contains(t, errs, "skillsIHave")
	assert.Contains(t, errs, "preferredWork")

	req = CreateProfileRequest{Name: "Ada", Email: "ada@example.com", Password: "pw", SkillsIHave: []string{"Math"}}
	assert.Empty(t, req.Validate())
}

func TestUpdateProfileRequestApply(t *testing.T) {
	p := Profile{Name: "Ada", SkillsIHave: []string{"Math"}, Bio: "old"}
	p.Normalize()

	name := " Ada Lovelace "
	bio := "Analytical engines"
	skills := []string{"Math", "Poetry", "Engines", "Looms"}
	level := ExperienceExpert
	req := UpdateProfileRequest{Name: &name, Bio: &bio, SkillsOffered: &skills, ExperienceLevel: &level}
	assert.Empty(t, req.Validate())

	req.Apply(&p)
	assert.Equal(t, "Ada Lovelace", p.Name)
	assert.Equal(t, "Analytical engines", p.WhatImGoodAt)
	assert.Equal(t, []string{"Math", "Poetry", "Engines"}, p.TopSkills)
	assert.Equal(t, ExperienceExpert, p.ExperienceLevel)

	empty := ""
	bad := Availability("weekends")
	errs := (&UpdateProfileRequest{Name: &empty, Availability: &bad}).Validate()
	assert.Contains(t, errs, "name")
	assert.Contains(t, errs, "availability")

	blank := "  "
	errs = (&UpdateProfileRequest{Email: &blank}).Validate()
	assert.Equal(t, "Email is required", errs["email"])
}

func TestAuthorFrom(t *testing.T) {
	a := AuthorFrom(nil)
	assert.Equal(t, PostAuthor{Name: "Anonymous User", Username: "anonymous", Avatar: DefaultAvatar}, a)

	a = AuthorFrom(&Profile{Name: "Mary  Jane Watson", ProfilePicture: "data:image/png;base64,AAA"})
	assert.Equal(t, "Mary  Jane Watson", a.Name)
	assert.Equal(t, "mary_jane_watson", a.Username)

	a = AuthorFrom(&Profile{Name: "Ana\u00a0L\u00f3pez\u2003Ruiz"})
	assert.Equal(t, "ana_l\u00f3pez_ruiz", a.Username)
	assert.Equal(t, "data:image/png;base64,AAA", a.Avatar)
	assert.False(t, a.Verified)
}

func TestCreatePostRequestContent(t *testing.T) {
	req := CreatePostRequest{Title: "Logo design", Description: "Need a logo"}
	assert.Equal(t, "Logo design\n\nNeed a logo", req.Content())

	req.WorkOffered = "Web dev"
	req.WorkDemanded = "Branding"
	assert.Equal(t,
		"Logo design\n\nNeed a logo\n\nWhat I can offer: Web dev\n\nWhat I'm offering in return: Branding",
		req.Content())
}

func TestCreatePostRequestToPost(t *testing.T) {
	now := time.Unix(1700000000, 0)
	author := AuthorFrom(nil)

	offer := CreatePostRequest{Type: KindOfferWork, Title: "t", Description: "d", Skills: []string{"Go", "Go"}, Media: []string{"/uploads/a.png", "/uploads/b.png"}}
	p := offer.ToPost(42, author, now)
	assert.Equal(t, PostSkillOffer, p.Type)
	assert.Equal(t, []string{"Go"}, p.SkillsNeeded)
	assert.Nil(t, p.SkillsOffered)
	assert.Equal(t, "/uploads/a.png", p.Image)
	assert.Equal(t, int64(42), p.ID)

	request := CreatePostRequest{Type: KindRequestWork, Title: "t", Description: "d", Skills: []string{"SEO"}}
	p = request.ToPost(43, author, now)
	assert.Equal(t, PostSkillRequest, p.Type)
	assert.Equal(t, []string{"SEO"}, p.SkillsOffered)
	assert.Nil(t, p.SkillsNeeded)
	assert.Empty(t, p.Image)
}

func TestCreatePostRequestValidate(t *testing.T) {
	errs := (&CreatePostRequest{}).Validate()
	assert.Contains(t, errs, "type")
	assert.Contains(t, errs, "title")
	assert.Contains(t, errs, "description")
	assert.Contains(t, errs, "skills")

	ok := CreatePostRequest{Type: KindRequestWork, Title: "t", Description: "d", Skills: []string{"x"}}
	assert.Empty(t, ok.Validate())
}
