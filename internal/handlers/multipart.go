package handlers

import (
	"errors"
	"mime/multipart"
	"net/http"
)

var (
	errMissingImage = errors.New("image file is required")
	errBodyTooLarge = errors.New("upload exceeds the size limit")
)

// imageFromMultipart extracts the "image" part from a multipart request,
// enforcing the byte limit before any of the body is buffered.
func imageFromMultipart(r *http.Request, maxBytes int64) (multipart.File, string, error) {
	mem := maxBytes
	if mem <= 0 {
		mem = 10 << 20
	} else {
		r.Body = http.MaxBytesReader(nil, r.Body, maxBytes)
	}

	if err := r.ParseMultipartForm(mem); err != nil {
		var tooLarge *http.MaxBytesError
		if errors.As(err, &tooLarge) {
			return nil, "", errBodyTooLarge
		}
		return nil, "", errMissingImage
	}

	file, header, err := r.FormFile("image")
	if err != nil {
		return nil, "", errMissingImage
	}

	contentType := header.Header.Get("Content-Type")
	return file, contentType, nil
}
