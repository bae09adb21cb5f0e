package ingest

import (
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/aqarhub/property-service/internal/property/domain"
)

func mainImageAttachments(n int) []domain.Attachment {
	files := make([]domain.Attachment, 0, n)
	for i := 0; i < n; i++ {
		files = append(files, domain.Attachment{
			FieldKey:   MainImagesKey,
			StoredName: fmt.Sprintf("main-%d.jpg", i),
		})
	}
	return files
}

func TestMatchMainImages(t *testing.T) {
	groups := GroupByField(mainImageAttachments(domain.MainImageCount))

	files, err := MatchMainImages(groups)
	require.NoError(t, err)
	assert.Len(t, files, domain.MainImageCount)
}

func TestMatchMainImages_WrongCount(t *testing.T) {
	for _, n := range []int{0, 4, 6} {
		groups := GroupByField(mainImageAttachments(n))
		_, err := MatchMainImages(groups)
		assert.ErrorIs(t, err, domain.ErrMainImageCount, "count %d must be rejected", n)
	}
}

func TestMatchRoomGroups_AcceptsEveryKeySpelling(t *testing.T) {
	decls := []RoomImagesDecl{
		{Room: "507f1f77bcf86cd799439013"},
		{Room: "507f1f77bcf86cd799439014"},
		{Room: "507f1f77bcf86cd799439015"},
		{Room: "507f1f77bcf86cd799439016"},
	}
	groups := map[string][]domain.Attachment{
		"roomsImages[0].images": {{StoredName: "r0.jpg"}},
		"roomsImages.1.images":  {{StoredName: "r1.jpg"}},
		"roomsImages[2]":        {{StoredName: "r2.jpg"}},
		"roomsImages.3":         {{StoredName: "r3.jpg"}},
	}

	matched, err := MatchRoomGroups(decls, groups)
	require.NoError(t, err)
	require.Len(t, matched, 4)
	for i, group := range matched {
		require.Len(t, group, 1)
		assert.Equal(t, fmt.Sprintf("r%d.jpg", i), group[0].StoredName)
	}
}

func TestMatchRoomGroups_BracketSpellingWins(t *testing.T) {
	decls := []RoomImagesDecl{{Room: "507f1f77bcf86cd799439013"}}
	groups := map[string][]domain.Attachment{
		"roomsImages[0].images": {{StoredName: "bracket.jpg"}},
		"roomsImages.0.images":  {{StoredName: "dot.jpg"}},
	}

	matched, err := MatchRoomGroups(decls, groups)
	require.NoError(t, err)
	require.Len(t, matched, 1)
	assert.Equal(t, "bracket.jpg", matched[0][0].StoredName)
}

func TestMatchRoomGroups_MissingGroup(t *testing.T) {
	decls := []RoomImagesDecl{
		{Room: "507f1f77bcf86cd799439013"},
		{Room: "507f1f77bcf86cd799439014"},
	}
	groups := map[string][]domain.Attachment{
		"roomsImages[0].images": {{StoredName: "r0.jpg"}},
	}

	_, err := MatchRoomGroups(decls, groups)
	require.Error(t, err)
	assert.ErrorIs(t, err, domain.ErrRoomMediaMissing)

	var missing *domain.RoomMediaMissingError
	require.ErrorAs(t, err, &missing)
	assert.Equal(t, 1, missing.Index)
}

func TestMatchRoomGroups_NoDeclarations(t *testing.T) {
	matched, err := MatchRoomGroups(nil, map[string][]domain.Attachment{})
	require.NoError(t, err)
	assert.Empty(t, matched)
}
