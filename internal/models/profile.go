package models

import (
	"strings"
	"time"
)

// DefaultAvatar is shown wherever a profile has no picture.
const DefaultAvatar = "https://images.unsplash.com/photo-1472099645785-5658abf4ff4e?w=150&h=150&fit=crop&crop=face"

// TopSkillCount is how many leading skills are promoted to top skills.
const TopSkillCount = 3

type ExperienceLevel string

const (
	ExperienceBeginner     ExperienceLevel = "beginner"
	ExperienceIntermediate ExperienceLevel = "intermediate"
	ExperienceAdvanced     ExperienceLevel = "advanced"
	ExperienceExpert       ExperienceLevel = "expert"
)

func (e ExperienceLevel) Valid() bool {
	switch e {
	case ExperienceBeginner, ExperienceIntermediate, ExperienceAdvanced, ExperienceExpert:
		return true
	}
	return false
}

type Availability string

const (
	AvailabilityFullTime     Availability = "full_time"
	AvailabilityPartTime     Availability = "part_time"
	AvailabilityProjectBased Availability = "project_based"
)

func (a Availability) Valid() bool {
	switch a {
	case AvailabilityFullTime, AvailabilityPartTime, AvailabilityProjectBased:
		return true
	}
	return false
}

type WorkPreference string

const (
	WorkOnline  WorkPreference = "online"
	WorkOffline WorkPreference = "offline"
	WorkBoth    WorkPreference = "both"
)

func (w WorkPreference) Valid() bool {
	switch w {
	case WorkOnline, WorkOffline, WorkBoth:
		return true
	}
	return false
}

// Profile is the blob stored under the userProfile key. Field names follow
// the blobs written by the onboarding and edit forms.
type Profile struct {
	Name            string          `json:"name"`
	Email           string          `json:"email"`
	PasswordHash    string          `json:"passwordHash,omitempty"`
	ProfilePicture  string          `json:"profilePicture"`
	SkillsIHave     []string        `json:"skillsIHave"`
	TopSkills       []string        `json:"topSkills"`
	WhatImGoodAt    string          `json:"whatImGoodAt"`
	Bio             string          `json:"bio"`
	Location        string          `json:"location"`
	WorkWanted      string          `json:"workWanted"`
	ExperienceLevel ExperienceLevel `json:"experienceLevel"`
	Availability    Availability    `json:"availability"`
	PreferredWork   WorkPreference  `json:"preferredWork"`
	CreatedAt       time.Time       `json:"createdAt"`
	UpdatedAt       time.Time       `json:"updatedAt"`
}

// Normalize resolves the fallback fields older blobs may carry and recomputes
// derived fields.
func (p *Profile) Normalize() {
	bio := p.Bio
	if bio == "" {
		bio = p.WhatImGoodAt
	}
	p.Bio = bio
	p.WhatImGoodAt = bio

	// The edit form once stored availability values under preferredWork.
	if a := Availability(p.PreferredWork); a.Valid() {
		if !p.Availability.Valid() {
			p.Availability = a
		}
		p.PreferredWork = ""
	}

	if !p.ExperienceLevel.Valid() {
		p.ExperienceLevel = ExperienceIntermediate
	}
	if !p.Availability.Valid() {
		p.Availability = AvailabilityProjectBased
	}
	if !p.PreferredWork.Valid() {
		p.PreferredWork = WorkBoth
	}

	p.SkillsIHave = CleanSkills(p.SkillsIHave)
	p.TopSkills = TopSkills(p.SkillsIHave)
}

// Avatar returns the profile picture or the default avatar.
func (p *Profile) Avatar() string {
	if p.ProfilePicture != "" {
		return p.ProfilePicture
	}
	return DefaultAvatar
}

// PublicProfile is the profile without credentials.
type PublicProfile struct {
	Name            string          `json:"name"`
	Email           string          `json:"email"`
	ProfilePicture  string          `json:"profilePicture"`
	SkillsIHave     []string        `json:"skillsIHave"`
	TopSkills       []string        `json:"topSkills"`
	Bio             string          `json:"bio"`
	Location        string          `json:"location"`
	WorkWanted      string          `json:"workWanted"`
	ExperienceLevel ExperienceLevel `json:"experienceLevel"`
	Availability    Availability    `json:"availability"`
	PreferredWork   WorkPreference  `json:"preferredWork"`
}

func (p *Profile) Public() PublicProfile {
	return PublicProfile{
		Name:            p.Name,
		Email:           p.Email,
		ProfilePicture:  p.ProfilePicture,
		SkillsIHave:     p.SkillsIHave,
		TopSkills:       p.TopSkills,
		Bio:             p.Bio,
		Location:        p.Location,
		WorkWanted:      p.WorkWanted,
		ExperienceLevel: p.ExperienceLevel,
		Availability:    p.Availability,
		PreferredWork:   p.PreferredWork,
	}
}

// CleanSkills trims skills and drops empty entries and repeats, keeping the
// first occurrence of each.
func CleanSkills(skills []string) []string {
	out := []string{}
	seen := make(map[string]bool, len(skills))
	for _, s := range skills {
		s = strings.TrimSpace(s)
		if s == "" || seen[s] {
			continue
		}
		seen[s] = true
		out = append(out, s)
	}
	return out
}

func TopSkills(skills []string) []string {
	if len(skills) > TopSkillCount {
		skills = skills[:TopSkillCount]
	}
	return append([]string{}, skills...)
}

type CreateProfileRequest struct {
	Name           string         `json:"name"`
	Email          string         `json:"email"`
	Password       string         `json:"password"`
	ProfilePicture string         `json:"profilePicture"`
	SkillsIHave    []string       `json:"skillsIHave"`
	WhatImGoodAt   string         `json:"whatImGoodAt"`
	Location       string         `json:"location"`
	PreferredWork  WorkPreference `json:"preferredWork"`
}

func (r *CreateProfileRequest) Validate() map[string]string {
	errors := make(map[string]string)

	if strings.TrimSpace(r.Name) == "" {
		errors["name"] = "Name is required"
	}
	if strings.TrimSpace(r.Email) == "" {
		errors["email"] = "Email is required"
	}
	if r.Password == "" {
		errors["password"] = "Password is required"
	}
	if len(CleanSkills(r.SkillsIHave)) == 0 {
		errors["skillsIHave"] = "Add at least one skill"
	}
	if r.PreferredWork != "" && !r.PreferredWork.Valid() {
		errors["preferredWork"] = "Work preference must be online, offline or both"
	}

	return errors
}

// UpdateProfileRequest carries the edit form. Nil fields are left unchanged.
type UpdateProfileRequest struct {
	Name            *string          `json:"name"`
	Email           *string          `json:"email"`
	ProfilePicture  *string          `json:"profilePicture"`
	Bio             *string          `json:"bio"`
	Location        *string          `json:"location"`
	SkillsOffered   *[]string        `json:"skillsOffered"`
	WorkWanted      *string          `json:"workWanted"`
	ExperienceLevel *ExperienceLevel `json:"experienceLevel"`
	Availability    *Availability    `json:"availability"`
	PreferredWork   *WorkPreference  `json:"preferredWork"`
}

func (r *UpdateProfileRequest) Validate() map[string]string {
	errors := make(map[string]string)

	if r.Name != nil && strings.TrimSpace(*r.Name) == "" {
		errors["name"] = "Name is required"
	}
	if r.Email != nil && strings.TrimSpace(*r.Email) == "" {
		errors["email"] = "Email is required"
	}
	if r.ExperienceLevel != nil && !r.ExperienceLevel.Valid() {
		errors["experienceLevel"] = "Experience level must be beginner, intermediate, advanced or expert"
	}
	if r.Availability != nil && !r.Availability.Valid() {
		errors["availability"] = "Availability must be full_time, part_time or project_based"
	}
	if r.PreferredWork != nil && !r.PreferredWork.Valid() {
		errors["preferredWork"] = "Work preference must be online, offline or both"
	}

	return errors
}

// Apply copies the set fields onto p and renormalises it.
func (r *UpdateProfileRequest) Apply(p *Profile) {
	if r.Name != nil {
		p.Name = strings.TrimSpace(*r.Name)
	}
	if r.Email != nil {
		p.Email = strings.TrimSpace(*r.Email)
	}
	if r.ProfilePicture != nil {
		p.ProfilePicture = *r.ProfilePicture
	}
	if r.Bio != nil {
		p.Bio = *r.Bio
		p.WhatImGoodAt = *r.Bio
	}
	if r.Location != nil {
		p.Location = *r.Location
	}
	if r.SkillsOffered != nil {
		p.SkillsIHave = *r.SkillsOffered
	}
	if r.WorkWanted != nil {
		p.WorkWanted = *r.WorkWanted
	}
	if r.ExperienceLevel != nil {
		p.ExperienceLevel = *r.ExperienceLevel
	}
	if r.Availability != nil {
		p.Availability = *r.Availability
	}
	if r.PreferredWork != nil {
		p.PreferredWork = *r.PreferredWork
	}
	p.Normalize()
}
