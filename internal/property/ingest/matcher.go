package ingest

import (
	"fmt"

	"github.com/aqarhub/property-service/internal/property/domain"
)

// MainImagesKey is the fixed multipart field key for the main image set.
const MainImagesKey = "mainImages"

// roomKeyCandidates returns the acceptable field-key spellings for the room
// declaration at position i, in fixed priority order. The first candidate
// present in the grouped attachments wins.
func roomKeyCandidates(i int) []string {
	return []string{
		fmt.Sprintf("roomsImages[%d].images", i),
		fmt.Sprintf("roomsImages.%d.images", i),
		fmt.Sprintf("roomsImages[%d]", i),
		fmt.Sprintf("roomsImages.%d", i),
	}
}

// MatchMainImages resolves the main image group. Exactly MainImageCount
// attachments must be present under the fixed key; any other count is
// rejected before a single byte reaches the remote store.
func MatchMainImages(groups map[string][]domain.Attachment) ([]domain.Attachment, error) {
	files := groups[MainImagesKey]
	if len(files) != domain.MainImageCount {
		return nil, domain.ErrMainImageCount
	}
	return files, nil
}

// MatchRoomGroups resolves, for each room declaration, the attachment group
// that holds that room's images. Matching is positional: declaration i is
// paired with the field keys numbered i. Clients are responsible for keeping
// the metadata list and the field-key numbering in the same order; the server
// cannot detect a reordering. A declaration with no matching group fails with
// a RoomMediaMissingError carrying its index.
func MatchRoomGroups(decls []RoomImagesDecl, groups map[string][]domain.Attachment) ([][]domain.Attachment, error) {
	matched := make([][]domain.Attachment, 0, len(decls))
	for i := range decls {
		var files []domain.Attachment
		for _, key := range roomKeyCandidates(i) {
			if g, ok := groups[key]; ok {
				files = g
				break
			}
		}
		if len(files) == 0 {
			return nil, &domain.RoomMediaMissingError{Index: i}
		}
		matched = append(matched, files)
	}
	return matched, nil
}
