package attribute

import (
	"fmt"
	"sort"
	"strconv"
	"strings"
	"time"

	"github.com/kailas-cloud/mediadex/internal/domain/content"
)

// Catalogue is the set of attributes a compiler accepts.
type Catalogue struct {
	byName map[string]Attribute
}

// NewCatalogue indexes attributes by name. Duplicate names panic.
func NewCatalogue(attrs ...Attribute) *Catalogue {
	c := &Catalogue{byName: make(map[string]Attribute, len(attrs))}
	for _, a := range attrs {
		if _, dup := c.byName[a.name]; dup {
			panic("attribute: duplicate " + a.name)
		}
		c.byName[a.name] = a
	}
	return c
}

// Lookup finds an attribute by dotted name.
func (c *Catalogue) Lookup(name string) (Attribute, bool) {
	a, ok := c.byName[name]
	return a, ok
}

// Contains reports whether a is the attribute registered under its name.
func (c *Catalogue) Contains(a Attribute) bool {
	known, ok := c.byName[a.name]
	return ok && known == a
}

// All returns attributes sorted by name.
func (c *Catalogue) All() []Attribute {
	out := make([]Attribute, 0, len(c.byName))
	for _, a := range c.byName {
		out = append(out, a)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].name < out[j].name })
	return out
}

// Content attributes.
var (
	ContentID             = New("id", Identifier, EntityContent, false)
	ContentURI            = New("uri", String, EntityContent, false)
	ContentTitle          = New("flattenedTitle", String, EntityContent, false)
	ContentParentTitle    = New("parentFlattenedTitle", String, EntityContent, false)
	ContentPublisher      = New("publisher", Enum, EntityContent, false)
	ContentSpecialization = New("specialization", Enum, EntityContent, false)
	ContentHasChildren    = New("hasChildren", Boolean, EntityContent, false)

	BroadcastID               = New("broadcasts.id", String, EntityContent, true)
	BroadcastChannel          = New("broadcasts.channel", String, EntityContent, true)
	BroadcastTransmissionTime = New("broadcasts.transmissionTime", Timestamp, EntityContent, true)
	BroadcastTransmissionEnd  = New("broadcasts.transmissionEndTime", Timestamp, EntityContent, true)
	BroadcastTransmissionMs   = New("broadcasts.transmissionTimeInMillis", Integer, EntityContent, true)
	BroadcastRepeat           = New("broadcasts.repeat", Boolean, EntityContent, true)

	LocationAvailabilityStart = New("locations.availabilityTime", Timestamp, EntityContent, true)
	LocationAvailabilityEnd   = New("locations.availabilityEndTime", Timestamp, EntityContent, true)

	TopicID         = New("topics.id", Identifier, EntityContent, true)
	TopicSupervised = New("topics.supervised", Boolean, EntityContent, true)
	TopicWeighting  = New("topics.weighting", Float, EntityContent, true)
)

// Topic attributes.
var (
	TopicEntityID  = New("id", Identifier, EntityTopic, false)
	TopicSource    = New("source", Enum, EntityTopic, false)
	TopicTitle     = New("title", String, EntityTopic, false)
	AliasNamespace = New("aliases.namespace", String, EntityTopic, true)
	AliasValue     = New("aliases.value", String, EntityTopic, true)
)

// Content is the catalogue of content attributes.
var Content = NewCatalogue(
	ContentID, ContentURI, ContentTitle, ContentParentTitle, ContentPublisher,
	ContentSpecialization, ContentHasChildren,
	BroadcastID, BroadcastChannel, BroadcastTransmissionTime, BroadcastTransmissionEnd,
	BroadcastTransmissionMs, BroadcastRepeat,
	LocationAvailabilityStart, LocationAvailabilityEnd,
	TopicID, TopicSupervised, TopicWeighting,
)

// Topics is the catalogue of topic attributes.
var Topics = NewCatalogue(TopicEntityID, TopicSource, TopicTitle, AliasNamespace, AliasValue)

// ParseValue converts a textual operand into the attribute's value type.
func (a Attribute) ParseValue(raw string) (any, error) {
	switch a.valueType {
	case String, Enum:
		return raw, nil
	case Integer:
		v, err := strconv.ParseInt(raw, 10, 64)
		if err != nil {
			return nil, fmt.Errorf("%s: integer expected: %w", a.name, err)
		}
		return v, nil
	case Float:
		v, err := strconv.ParseFloat(raw, 64)
		if err != nil {
			return nil, fmt.Errorf("%s: float expected: %w", a.name, err)
		}
		return v, nil
	case Boolean:
		v, err := strconv.ParseBool(raw)
		if err != nil {
			return nil, fmt.Errorf("%s: boolean expected: %w", a.name, err)
		}
		return v, nil
	case Timestamp:
		v, err := time.Parse(time.RFC3339Nano, raw)
		if err != nil {
			return nil, fmt.Errorf("%s: RFC 3339 timestamp expected: %w", a.name, err)
		}
		return v.UTC(), nil
	case Identifier:
		return content.ParseID(strings.TrimSpace(raw))
	default:
		return nil, fmt.Errorf("%s: unsupported value type %q", a.name, a.valueType)
	}
}
