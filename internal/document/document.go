// Package document defines the fixed-shape records written to the store and
// builds them from catalogue entities.
package document

import (
	"strconv"
	"time"

	"github.com/kailas-cloud/mediadex/internal/domain/content"
	"github.com/kailas-cloud/mediadex/internal/domain/topic"
)

// Content is the denormalized search document for containers and items.
// Kind and Parent route the document and are not part of its source.
type Content struct {
	Kind   string `json:"-"`
	Parent string `json:"-"`

	ID                   int64          `json:"id"`
	URI                  string         `json:"uri,omitempty"`
	Title                string         `json:"title,omitempty"`
	FlattenedTitle       string         `json:"flattenedTitle,omitempty"`
	ParentTitle          string         `json:"parentTitle,omitempty"`
	ParentFlattenedTitle string         `json:"parentFlattenedTitle,omitempty"`
	Publisher            string         `json:"publisher,omitempty"`
	Specialization       string         `json:"specialization,omitempty"`
	HasChildren          bool           `json:"hasChildren"`
	Broadcasts           []Broadcast    `json:"broadcasts,omitempty"`
	Locations            []Location     `json:"locations,omitempty"`
	Topics               []TopicMapping `json:"topics,omitempty"`
}

// DocID is the store identifier of the document.
func (c *Content) DocID() string { return strconv.FormatInt(c.ID, 10) }

// Inherit sets the fields a child takes from its container's title.
func (c *Content) Inherit(parentTitle string) {
	c.ParentTitle = parentTitle
	c.ParentFlattenedTitle = flattenOrEmpty(parentTitle)
}

// Broadcast is an embedded transmission. Times are UTC.
type Broadcast struct {
	ID                       string    `json:"id,omitempty"`
	Channel                  string    `json:"channel,omitempty"`
	TransmissionTime         time.Time `json:"transmissionTime,omitzero"`
	TransmissionEndTime      time.Time `json:"transmissionEndTime,omitzero"`
	TransmissionTimeInMillis int64     `json:"transmissionTimeInMillis"`
	Repeat                   bool      `json:"repeat"`
}

// Location is an embedded availability window.
type Location struct {
	AvailabilityTime    time.Time `json:"availabilityTime"`
	AvailabilityEndTime time.Time `json:"availabilityEndTime"`
}

// TopicMapping is an embedded topic association.
type TopicMapping struct {
	ID         int64   `json:"id"`
	Supervised bool    `json:"supervised"`
	Weighting  float64 `json:"weighting"`
}

// Write is one document destined for an index. An empty Index targets the
// content index.
type Write struct {
	Index string
	Doc   Content
}

// Projection is a schedule partition document for one item.
type Projection struct {
	Index string
	Doc   Content
}

// Topic is the topic index document.
type Topic struct {
	ID          int64   `json:"id"`
	Source      string  `json:"source,omitempty"`
	Title       string  `json:"title,omitempty"`
	Description string  `json:"description,omitempty"`
	Aliases     []Alias `json:"aliases,omitempty"`
}

// DocID is the store identifier of the document.
func (t *Topic) DocID() string { return strconv.FormatInt(t.ID, 10) }

// Alias is an embedded namespaced identifier.
type Alias struct {
	Namespace string `json:"namespace"`
	Value     string `json:"value"`
}

// FromTopic maps a catalogue topic.
func FromTopic(t topic.Topic) Topic {
	doc := Topic{
		ID:          int64(t.ID),
		Source:      t.Source.Key(),
		Title:       t.Title,
		Description: t.Description,
	}
	for _, a := range t.Aliases {
		doc.Aliases = append(doc.Aliases, Alias{Namespace: a.Namespace, Value: a.Value})
	}
	return doc
}

// ToTopic maps the document back to a catalogue topic.
func (t *Topic) ToTopic() topic.Topic {
	out := topic.Topic{
		ID:          content.ID(t.ID),
		Source:      content.Publisher(t.Source),
		Title:       t.Title,
		Description: t.Description,
	}
	for _, a := range t.Aliases {
		out.Aliases = append(out.Aliases, topic.Alias{Namespace: a.Namespace, Value: a.Value})
	}
	return out
}

func toBroadcast(b content.Broadcast) Broadcast {
	start := b.TransmissionTime.UTC()
	out := Broadcast{
		ID:                  b.SourceID,
		Channel:             b.Channel,
		TransmissionTime:    start,
		TransmissionEndTime: b.TransmissionEndTime.UTC(),
		Repeat:              b.Repeat,
	}
	if !start.IsZero() {
		out.TransmissionTimeInMillis = start.UnixMilli()
	}
	return out
}

func toLocation(p *content.Policy) Location {
	return Location{
		AvailabilityTime:    p.AvailabilityStart.UTC(),
		AvailabilityEndTime: p.AvailabilityEnd.UTC(),
	}
}

func toTopics(refs []content.TopicRef) []TopicMapping {
	if len(refs) == 0 {
		return nil
	}
	out := make([]TopicMapping, len(refs))
	for i, r := range refs {
		out[i] = TopicMapping{ID: int64(r.Topic), Supervised: r.Supervised, Weighting: r.Weighting}
	}
	return out
}
