package domain

import (
	"encoding/json"
	"errors"
	"time"
)

var ErrNotFound = errors.New("not found")

type Category string

const (
	CategorySupport   Category = "support"
	CategoryEducation Category = "education"
	CategoryEvent     Category = "event"
	CategorySeminar   Category = "seminar"
	CategoryFestival  Category = "festival"
	CategoryNotice    Category = "notice"
)

// Valid reports whether c is one of the known categories.
func (c Category) Valid() bool {
	switch c {
	case CategorySupport, CategoryEducation, CategoryEvent, CategorySeminar, CategoryFestival, CategoryNotice:
		return true
	}
	return false
}

type Status string

const (
	StatusOngoing  Status = "ongoing"
	StatusUpcoming Status = "upcoming"
	StatusClosed   Status = "closed"
)

// Source identifies where a post was ingested from.
type Source string

const (
	SourceKStartup Source = "k-startup"
	SourceTourAPI  Source = "tour-api"
	SourceKOPIS    Source = "kopis"
	SourceLocalGov Source = "local-gov-crawl"
	SourceCheonan  Source = "cheonan-crawl"
)

// Post is the normalized document shared by every source.
// Empty optional fields are omitted from the stored document so that a
// merge-upsert leaves previously stored values untouched.
type Post struct {
	ID             string   `json:"id" bson:"_id"`
	Title          string   `json:"title" bson:"title"`
	Category       Category `json:"category" bson:"category"`
	Status         Status   `json:"status" bson:"status"`
	Organization   string   `json:"organization,omitempty" bson:"organization,omitempty"`
	Region         string   `json:"region,omitempty" bson:"region,omitempty"`
	SupportField   string   `json:"supportField,omitempty" bson:"supportField,omitempty"`
	Target         string   `json:"target,omitempty" bson:"target,omitempty"`
	Age            string   `json:"age,omitempty" bson:"age,omitempty"`
	Career         string   `json:"career,omitempty" bson:"career,omitempty"`
	StartDate      string   `json:"startDate,omitempty" bson:"startDate,omitempty"`
	EndDate        string   `json:"endDate,omitempty" bson:"endDate,omitempty"`
	Description    string   `json:"description,omitempty" bson:"description,omitempty"`
	Summary        string   `json:"summary,omitempty" bson:"summary,omitempty"`
	Content        string   `json:"content,omitempty" bson:"content,omitempty"`
	ApplicationURL string   `json:"applicationUrl,omitempty" bson:"applicationUrl,omitempty"`
	Image          string   `json:"image,omitempty" bson:"image,omitempty"`
	Images         []string `json:"images,omitempty" bson:"images,omitempty"`

	PhoneNumber string `json:"phoneNumber,omitempty" bson:"phoneNumber,omitempty"`
	ContentID   string `json:"contentId,omitempty" bson:"contentId,omitempty"`
	KopisID     string `json:"kopisId,omitempty" bson:"kopisId,omitempty"`
	TicketPrice string `json:"ticketPrice,omitempty" bson:"ticketPrice,omitempty"`
	Runtime     string `json:"runtime,omitempty" bson:"runtime,omitempty"`
	Showtime    string `json:"showtime,omitempty" bson:"showtime,omitempty"`
	Cast        string `json:"cast,omitempty" bson:"cast,omitempty"`

	Source    Source    `json:"source" bson:"source"`
	CreatedAt time.Time `json:"createdAt" bson:"createdAt"`
	UpdatedAt time.Time `json:"updatedAt" bson:"updatedAt"`
}

// Fields returns the mergeable part of the document: every non-empty field
// except the key and the write timestamps, which stores manage themselves.
func (p Post) Fields() (map[string]any, error) {
	raw, err := json.Marshal(p)
	if err != nil {
		return nil, err
	}

	var fields map[string]any
	if err := json.Unmarshal(raw, &fields); err != nil {
		return nil, err
	}

	delete(fields, "id")
	delete(fields, "createdAt")
	delete(fields, "updatedAt")

	return fields, nil
}

// FromFields rebuilds a post from a stored document.
func FromFields(id string, data []byte, createdAt, updatedAt time.Time) (Post, error) {
	var p Post
	if err := json.Unmarshal(data, &p); err != nil {
		return Post{}, err
	}
	p.ID = id
	p.CreatedAt = createdAt
	p.UpdatedAt = updatedAt
	return p, nil
}
