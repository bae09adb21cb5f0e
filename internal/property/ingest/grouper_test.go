package ingest

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/aqarhub/property-service/internal/property/domain"
)

func TestGroupByField(t *testing.T) {
	files := []domain.Attachment{
		{FieldKey: "mainImages", StoredName: "a.jpg"},
		{FieldKey: "roomsImages[0].images", StoredName: "b.jpg"},
		{FieldKey: "mainImages", StoredName: "c.jpg"},
		{FieldKey: "roomsImages[0].images", StoredName: "d.jpg"},
		{FieldKey: "mainImages", StoredName: "e.jpg"},
	}

	groups := GroupByField(files)

	assert.Len(t, groups, 2)
	assert.Len(t, groups["mainImages"], 3)
	assert.Len(t, groups["roomsImages[0].images"], 2)
}

func TestGroupByField_PreservesSubmissionOrder(t *testing.T) {
	files := []domain.Attachment{
		{FieldKey: "mainImages", StoredName: "first.jpg"},
		{FieldKey: "mainImages", StoredName: "second.jpg"},
		{FieldKey: "mainImages", StoredName: "third.jpg"},
	}

	groups := GroupByField(files)

	names := make([]string, 0, 3)
	for _, f := range groups["mainImages"] {
		names = append(names, f.StoredName)
	}
	assert.Equal(t, []string{"first.jpg", "second.jpg", "third.jpg"}, names)
}

func TestGroupByField_Empty(t *testing.T) {
	groups := GroupByField(nil)
	assert.Empty(t, groups)
}
