package document

import (
	"context"
	"slices"

	"go.uber.org/zap"

	"github.com/kailas-cloud/mediadex/internal/domain/content"
	"github.com/kailas-cloud/mediadex/internal/schema"
)

// ParentTitles are the display fields a child inherits from its container.
type ParentTitles struct {
	Title          string
	FlattenedTitle string
}

// ParentLookup resolves the indexed titles of a container. ok is false when
// the container is absent or could not be read.
type ParentLookup interface {
	ParentTitles(ctx context.Context, parent content.ID) (titles ParentTitles, ok bool)
}

// Builder maps catalogue entities to content documents.
type Builder struct {
	parents ParentLookup
	names   schema.ScheduleNames
	logger  *zap.Logger
}

// NewBuilder creates a document builder.
func NewBuilder(parents ParentLookup, names schema.ScheduleNames, logger *zap.Logger) *Builder {
	return &Builder{parents: parents, names: names, logger: logger}
}

// BuildContainer maps a container. Children are separate documents, so only
// the hasChildren flag reflects them.
func (b *Builder) BuildContainer(c content.Container) Content {
	doc := described(c.Described)
	doc.Kind = schema.KindContainer
	doc.ParentTitle = doc.Title
	doc.ParentFlattenedTitle = doc.FlattenedTitle
	doc.HasChildren = c.HasChildren()
	return doc
}

// BuildItem maps an item to its primary document and one projection per
// schedule partition its broadcasts touch.
func (b *Builder) BuildItem(ctx context.Context, item content.Item) (Content, []Projection) {
	doc := described(item.Described)
	doc.Topics = toTopics(item.Topics)
	doc.Broadcasts = activeBroadcasts(item)
	doc.Locations = boundedLocations(item)

	if item.Parent != nil {
		doc.Kind = schema.KindChildItem
		doc.Parent = item.Parent.ID.String()
		if titles, ok := b.parents.ParentTitles(ctx, item.Parent.ID); ok {
			doc.ParentTitle = titles.Title
			doc.ParentFlattenedTitle = titles.FlattenedTitle
		} else {
			b.logger.Debug("parent titles unavailable",
				zap.Stringer("item", item.ID), zap.Stringer("parent", item.Parent.ID))
		}
	} else {
		doc.Kind = schema.KindTopItem
		doc.ParentTitle = doc.Title
		doc.ParentFlattenedTitle = doc.FlattenedTitle
	}
	doc.HasChildren = false

	return doc, b.projections(item)
}

// projections groups active broadcasts by partition, one document per
// partition, in ascending partition order.
func (b *Builder) projections(item content.Item) []Projection {
	byIndex := map[string][]Broadcast{}
	for _, v := range item.Versions {
		for _, bc := range v.Broadcasts {
			if !bc.ActivelyPublished {
				continue
			}
			eb := toBroadcast(bc)
			for _, name := range b.names.PartitionsFor(bc.TransmissionTime, bc.TransmissionEndTime) {
				byIndex[name] = append(byIndex[name], eb)
			}
		}
	}
	if len(byIndex) == 0 {
		return nil
	}

	names := make([]string, 0, len(byIndex))
	for name := range byIndex {
		names = append(names, name)
	}
	slices.Sort(names)

	out := make([]Projection, 0, len(names))
	for _, name := range names {
		out = append(out, Projection{Index: name, Doc: Content{
			Kind:       schema.KindTopItem,
			ID:         int64(item.ID),
			URI:        item.URI,
			Publisher:  item.Publisher.Key(),
			Broadcasts: byIndex[name],
		}})
	}
	return out
}

func described(d content.Described) Content {
	return Content{
		ID:             int64(d.ID),
		URI:            d.URI,
		Title:          d.Title,
		FlattenedTitle: flattenOrEmpty(d.Title),
		Publisher:      d.Publisher.Key(),
		Specialization: d.Specialization.Key(),
	}
}

func activeBroadcasts(item content.Item) []Broadcast {
	var out []Broadcast
	for _, v := range item.Versions {
		for _, bc := range v.Broadcasts {
			if bc.ActivelyPublished {
				out = append(out, toBroadcast(bc))
			}
		}
	}
	return out
}

func boundedLocations(item content.Item) []Location {
	var out []Location
	for _, v := range item.Versions {
		for _, enc := range v.Encodings {
			for _, loc := range enc.AvailableAt {
				if loc.Policy.Bounded() {
					out = append(out, toLocation(loc.Policy))
				}
			}
		}
	}
	return out
}
