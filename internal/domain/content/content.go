// Package content holds the read-only catalogue model that gets indexed.
package content

import (
	"fmt"
	"strconv"
	"time"
)

// ID is a numeric catalogue identifier.
type ID int64

func (id ID) String() string { return strconv.FormatInt(int64(id), 10) }

// ParseID parses a decimal identifier.
func ParseID(s string) (ID, error) {
	v, err := strconv.ParseInt(s, 10, 64)
	if err != nil {
		return 0, fmt.Errorf("parse id %q: %w", s, err)
	}
	return ID(v), nil
}

// Publisher is identified by its canonical short key (e.g. "bbc.co.uk").
type Publisher string

// Key returns the canonical key used in documents and filters.
func (p Publisher) Key() string { return string(p) }

// Specialization classifies content by medium.
type Specialization string

// Known specializations.
const (
	SpecializationTV      Specialization = "tv"
	SpecializationRadio   Specialization = "radio"
	SpecializationFilm    Specialization = "film"
	SpecializationMusic   Specialization = "music"
	SpecializationPodcast Specialization = "podcast"
)

// Key returns the canonical key used in documents and filters.
func (s Specialization) Key() string { return string(s) }

// Described carries the fields shared by containers and items.
type Described struct {
	ID             ID             `json:"id"`
	URI            string         `json:"uri"`
	Title          string         `json:"title,omitempty"`
	Publisher      Publisher      `json:"publisher"`
	Specialization Specialization `json:"specialization,omitempty"`
	Topics         []TopicRef     `json:"topics,omitempty"`
}

// Container groups child items (a brand or a series).
type Container struct {
	Described
	Children []ChildRef `json:"children,omitempty"`
}

// HasChildren reports whether the container lists any child references.
func (c Container) HasChildren() bool { return len(c.Children) > 0 }

// Item is a single piece of content, optionally belonging to a container.
type Item struct {
	Described
	Parent   *ParentRef `json:"parent,omitempty"`
	Versions []Version  `json:"versions,omitempty"`
}

// ParentRef points from an item to its container.
type ParentRef struct {
	ID ID `json:"id"`
}

// ChildRef points from a container to one of its items.
type ChildRef struct {
	ID ID `json:"id"`
}

// TopicRef associates content with a topic.
type TopicRef struct {
	Topic      ID      `json:"topic"`
	Supervised bool    `json:"supervised"`
	Weighting  float64 `json:"weighting"`
}

// Version is one rendition of an item with its broadcasts and encodings.
type Version struct {
	Broadcasts []Broadcast `json:"broadcasts,omitempty"`
	Encodings  []Encoding  `json:"encodings,omitempty"`
}

// Broadcast is a scheduled transmission of a version on a channel.
type Broadcast struct {
	SourceID            string    `json:"sourceId,omitempty"`
	Channel             string    `json:"channel"`
	TransmissionTime    time.Time `json:"transmissionTime"`
	TransmissionEndTime time.Time `json:"transmissionEndTime"`
	Repeat              bool      `json:"repeat,omitempty"`
	ActivelyPublished   bool      `json:"activelyPublished"`
}

// Encoding is a physical rendition available at a set of locations.
type Encoding struct {
	AvailableAt []Location `json:"availableAt,omitempty"`
}

// Location is where an encoding can be consumed.
type Location struct {
	URI    string  `json:"uri,omitempty"`
	Policy *Policy `json:"policy,omitempty"`
}

// Policy bounds when a location is available. Zero times mean unbounded.
type Policy struct {
	AvailabilityStart time.Time `json:"availabilityStart,omitzero"`
	AvailabilityEnd   time.Time `json:"availabilityEnd,omitzero"`
}

// Bounded reports whether both availability bounds are present.
func (p *Policy) Bounded() bool {
	return p != nil && !p.AvailabilityStart.IsZero() && !p.AvailabilityEnd.IsZero()
}
