package httpapi

import (
	"bytes"
	"io"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/aqarhub/property-service/internal/property/domain"
)

type memorySaver struct {
	saved []domain.Attachment
}

func (m *memorySaver) Save(fieldKey, originalName string, r io.Reader) (domain.Attachment, error) {
	data, err := io.ReadAll(r)
	if err != nil {
		return domain.Attachment{}, err
	}
	att := domain.Attachment{
		FieldKey:   fieldKey,
		StoredName: originalName,
		Size:       int64(len(data)),
	}
	m.saved = append(m.saved, att)
	return att, nil
}

func multipartRequest(t *testing.T, build func(w *multipart.Writer)) *http.Request {
	t.Helper()
	var buf bytes.Buffer
	w := multipart.NewWriter(&buf)
	build(w)
	require.NoError(t, w.Close())

	req := httptest.NewRequest(http.MethodPost, "/api/properties", &buf)
	req.Header.Set("Content-Type", w.FormDataContentType())
	return req
}

func writeImagePart(t *testing.T, w *multipart.Writer, field, name string, size int) {
	t.Helper()
	part, err := w.CreateFormFile(field, name)
	require.NoError(t, err)
	_, err = part.Write(bytes.Repeat([]byte{0xAB}, size))
	require.NoError(t, err)
}

func TestReadSubmission(t *testing.T) {
	saver := &memorySaver{}
	req := multipartRequest(t, func(w *multipart.Writer) {
		require.NoError(t, w.WriteField("city", "Almaty"))
		require.NoError(t, w.WriteField("price", "15000"))
		writeImagePart(t, w, "mainImages", "a.jpg", 128)
		writeImagePart(t, w, "roomsImages[0].images", "b.jpg", 256)
	})

	sub, err := readSubmission(req, saver)
	require.NoError(t, err)

	assert.Equal(t, "Almaty", sub.Fields["city"])
	assert.Equal(t, "15000", sub.Fields["price"])
	require.Len(t, sub.Files, 2)
	assert.Equal(t, "mainImages", sub.Files[0].FieldKey)
	assert.Equal(t, "roomsImages[0].images", sub.Files[1].FieldKey)
	assert.Equal(t, int64(256), sub.Files[1].Size)
}

func TestReadSubmission_NotMultipart(t *testing.T) {
	req := httptest.NewRequest(http.MethodPost, "/api/properties", bytes.NewBufferString("{}"))
	req.Header.Set("Content-Type", "application/json")

	_, err := readSubmission(req, &memorySaver{})
	assert.ErrorIs(t, err, domain.ErrMalformedPayload)
}

func TestReadSubmission_OversizedFileRejected(t *testing.T) {
	saver := &memorySaver{}
	req := multipartRequest(t, func(w *multipart.Writer) {
		writeImagePart(t, w, "mainImages", "huge.jpg", maxImageSize+1)
	})

	sub, err := readSubmission(req, saver)
	assert.ErrorIs(t, err, domain.ErrMalformedPayload)
	// The staged file is reported back so the caller can remove it.
	require.Len(t, sub.Files, 1)
}

func TestReadSubmission_NonImageRejected(t *testing.T) {
	req := multipartRequest(t, func(w *multipart.Writer) {
		part, err := w.CreateFormFile("mainImages", "notes.txt")
		require.NoError(t, err)
		_, err = part.Write([]byte("hello"))
		require.NoError(t, err)
	})

	_, err := readSubmission(req, &memorySaver{})
	assert.ErrorIs(t, err, domain.ErrMalformedPayload)
}
