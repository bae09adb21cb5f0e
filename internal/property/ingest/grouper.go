package ingest

import "github.com/aqarhub/property-service/internal/property/domain"

// Submission is one multipart request as received from the HTTP surface:
// the JSON-text fields by name, and the binary parts in arrival order.
type Submission struct {
	Fields map[string]string
	Files  []domain.Attachment
}

// GroupByField groups the submission's attachments by their multipart field
// key. Order within each group follows submission order; the matcher relies
// on this for main-image ordering. No validation happens here.
func GroupByField(files []domain.Attachment) map[string][]domain.Attachment {
	groups := make(map[string][]domain.Attachment)
	for _, f := range files {
		groups[f.FieldKey] = append(groups[f.FieldKey], f)
	}
	return groups
}
