package schema

import (
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/kailas-cloud/mediadex/internal/domain/attribute"
)

func TestCatalogueFieldsAreMapped(t *testing.T) {
	tests := []struct {
		name string
		cat  *attribute.Catalogue
		def  func(string) bool
		nest func(string) bool
	}{
		{
			name: "content",
			cat:  attribute.Content,
			def:  func(f string) bool { _, ok := Content("content").Field(f); return ok },
			nest: Content("content").IsNested,
		},
		{
			name: "topics",
			cat:  attribute.Topics,
			def:  func(f string) bool { _, ok := Topics("topics").Field(f); return ok },
			nest: Topics("topics").IsNested,
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			for _, a := range tt.cat.All() {
				assert.True(t, tt.def(a.Name()), "attribute %s has no field", a.Name())
				if segs := a.Segments(); len(segs) > 1 {
					assert.True(t, tt.nest(segs[0]), "attribute %s is not under a nested path", a.Name())
				}
			}
		})
	}
}

func TestContentDefinitionValid(t *testing.T) {
	require.NoError(t, Content("content").Validate())
	require.NoError(t, Content("schedule-2024").Validate())
	require.NoError(t, Topics("topics").Validate())
}

func TestPartitionsFor(t *testing.T) {
	names := NewScheduleNames("")
	at := func(y int, m time.Month, d, h int) time.Time { return time.Date(y, m, d, h, 0, 0, 0, time.UTC) }

	tests := []struct {
		name       string
		start, end time.Time
		want       []string
	}{
		{"same year", at(2024, 3, 1, 10), at(2024, 3, 1, 11), []string{"schedule-2024"}},
		{"spans new year", at(2023, 12, 31, 23), at(2024, 1, 1, 1), []string{"schedule-2023", "schedule-2024"}},
		{"spans several years", at(2020, 6, 1, 0), at(2022, 6, 1, 0), []string{"schedule-2020", "schedule-2021", "schedule-2022"}},
		{"open end", at(2024, 3, 1, 10), time.Time{}, []string{"schedule-2024"}},
		{"inverted", at(2024, 3, 1, 10), at(2023, 3, 1, 10), []string{"schedule-2024"}},
		{"zero start", time.Time{}, at(2024, 1, 1, 0), nil},
		{
			"local offset is normalised",
			time.Date(2024, 1, 1, 0, 30, 0, 0, time.FixedZone("CET", 3600)),
			time.Date(2024, 1, 1, 0, 45, 0, 0, time.FixedZone("CET", 3600)),
			[]string{"schedule-2023"},
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, names.PartitionsFor(tt.start, tt.end))
		})
	}
}

func TestScheduleNamesFilter(t *testing.T) {
	names := NewScheduleNames("schedule-")
	got := names.Filter([]string{"content", "schedule-2024", "topics", "schedule-2019", "schedule-x", "schedule-20245"})
	assert.Equal(t, []string{"schedule-2019", "schedule-2024"}, got)

	y, ok := names.Year("schedule-2021")
	assert.True(t, ok)
	assert.Equal(t, 2021, y)
	assert.True(t, strings.HasPrefix(names.For(time.Date(2025, 5, 5, 0, 0, 0, 0, time.UTC)), "schedule-2025"))
}
