package httpapi

import (
	"errors"
	"fmt"
	"io"
	"mime"
	"net/http"
	"path/filepath"
	"strings"

	"github.com/aqarhub/property-service/internal/property/domain"
	"github.com/aqarhub/property-service/internal/property/ingest"
)

const (
	// maxImageSize mirrors the upload contract clients already code against.
	maxImageSize = 2 << 20
	// maxFieldSize bounds a single text sub-field.
	maxFieldSize = 1 << 20
	// maxFileCount bounds a single submission.
	maxFileCount = 64
)

// scratchSaver stages an incoming file part on local disk.
type scratchSaver interface {
	Save(fieldKey, originalName string, r io.Reader) (domain.Attachment, error)
}

// readSubmission streams a multipart request into a Submission: text parts
// become fields, file parts are staged in the scratch directory under their
// submitted field key. Oversized or non-image file parts reject the whole
// request. Files staged before the failure are returned alongside the error
// so the caller can remove them.
func readSubmission(r *http.Request, scratch scratchSaver) (ingest.Submission, error) {
	sub := ingest.Submission{Fields: make(map[string]string)}

	reader, err := r.MultipartReader()
	if err != nil {
		return sub, fmt.Errorf("%w: expected multipart form: %v", domain.ErrMalformedPayload, err)
	}

	for {
		part, err := reader.NextPart()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return sub, fmt.Errorf("%w: reading multipart form: %v", domain.ErrMalformedPayload, err)
		}

		if part.FileName() == "" {
			value, err := io.ReadAll(io.LimitReader(part, maxFieldSize+1))
			part.Close()
			if err != nil {
				return sub, fmt.Errorf("%w: reading field %q: %v", domain.ErrMalformedPayload, part.FormName(), err)
			}
			if len(value) > maxFieldSize {
				return sub, fmt.Errorf("%w: field %q exceeds size limit", domain.ErrMalformedPayload, part.FormName())
			}
			sub.Fields[part.FormName()] = string(value)
			continue
		}

		if len(sub.Files) >= maxFileCount {
			part.Close()
			return sub, fmt.Errorf("%w: too many files in submission", domain.ErrMalformedPayload)
		}
		if !isImagePart(part.Header.Get("Content-Type"), part.FileName()) {
			part.Close()
			return sub, fmt.Errorf("%w: file %q is not an image", domain.ErrMalformedPayload, part.FileName())
		}

		att, err := saveLimited(scratch, part.FormName(), part.FileName(), part)
		part.Close()
		if att.StoredName != "" {
			sub.Files = append(sub.Files, att)
		}
		if err != nil {
			return sub, err
		}
	}

	return sub, nil
}

// saveLimited stages one file part, rejecting anything over maxImageSize. The
// staged file is recorded even on rejection so the cleanup pass removes it.
func saveLimited(scratch scratchSaver, fieldKey, fileName string, r io.Reader) (domain.Attachment, error) {
	att, err := scratch.Save(fieldKey, fileName, io.LimitReader(r, maxImageSize+1))
	if err != nil {
		return att, fmt.Errorf("%w: staging file %q: %v", domain.ErrPersistence, fileName, err)
	}
	if att.Size > maxImageSize {
		return att, fmt.Errorf("%w: file %q exceeds the 2MB limit", domain.ErrMalformedPayload, fileName)
	}
	return att, nil
}

func isImagePart(contentType, fileName string) bool {
	if strings.HasPrefix(contentType, "image/") {
		return true
	}
	if contentType == "" || contentType == "application/octet-stream" {
		byExt := mime.TypeByExtension(strings.ToLower(filepath.Ext(fileName)))
		return strings.HasPrefix(byExt, "image/")
	}
	return false
}
