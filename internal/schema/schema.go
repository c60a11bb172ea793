// Package schema maps catalogue documents onto store indexes: document kinds,
// field layout, nested paths and schedule partition naming.
package schema

import "github.com/kailas-cloud/mediadex/internal/db"

// Document kinds in the content index.
const (
	KindContainer = "container"
	KindTopItem   = "top_item"
	KindChildItem = "child_item"
	// KindTopic is the single document kind of the topic index.
	KindTopic = "topic"
)

// ContentKinds lists every kind searched by content queries.
var ContentKinds = []string{KindChildItem, KindContainer, KindTopItem}

// Content document fields.
const (
	FieldID                   = "id"
	FieldURI                  = "uri"
	FieldTitle                = "title"
	FieldFlattenedTitle       = "flattenedTitle"
	FieldParentTitle          = "parentTitle"
	FieldParentFlattenedTitle = "parentFlattenedTitle"
	FieldPublisher            = "publisher"
	FieldSpecialization       = "specialization"
	FieldHasChildren          = "hasChildren"

	PathBroadcasts = "broadcasts"
	PathLocations  = "locations"
	PathTopics     = "topics"

	FieldBroadcastID               = "broadcasts.id"
	FieldBroadcastChannel          = "broadcasts.channel"
	FieldBroadcastTransmissionTime = "broadcasts.transmissionTime"
	FieldBroadcastTransmissionEnd  = "broadcasts.transmissionEndTime"
	FieldBroadcastTransmissionMs   = "broadcasts.transmissionTimeInMillis"
	FieldBroadcastRepeat           = "broadcasts.repeat"

	FieldLocationStart = "locations.availabilityTime"
	FieldLocationEnd   = "locations.availabilityEndTime"

	FieldTopicID         = "topics.id"
	FieldTopicSupervised = "topics.supervised"
	FieldTopicWeighting  = "topics.weighting"
)

// Topic document fields.
const (
	FieldTopicSource      = "source"
	FieldTopicDescription = "description"
	PathAliases           = "aliases"
	FieldAliasNamespace   = "aliases.namespace"
	FieldAliasValue       = "aliases.value"
)

// Content returns the mapping shared by every kind of the content index.
// Schedule partitions reuse it for their top-level item projections.
func Content(name string) *db.IndexDefinition {
	return db.NewIndex(name).
		Nested(PathBroadcasts, PathLocations, PathTopics).
		Numeric(FieldID, FieldBroadcastTransmissionMs, FieldTopicID, FieldTopicWeighting).
		Keyword(
			FieldURI, FieldFlattenedTitle, FieldParentFlattenedTitle,
			FieldPublisher, FieldSpecialization,
			FieldBroadcastID, FieldBroadcastChannel,
		).
		Text(FieldTitle, FieldParentTitle).
		Boolean(FieldHasChildren, FieldBroadcastRepeat, FieldTopicSupervised).
		Timestamp(
			FieldBroadcastTransmissionTime, FieldBroadcastTransmissionEnd,
			FieldLocationStart, FieldLocationEnd,
		).
		MustBuild()
}

// Topics returns the topic index mapping.
func Topics(name string) *db.IndexDefinition {
	return db.NewIndex(name).
		Nested(PathAliases).
		Numeric(FieldID).
		Keyword(FieldTopicSource, FieldAliasNamespace, FieldAliasValue).
		Text(FieldTitle, FieldTopicDescription).
		MustBuild()
}
