package media

import "errors"

var (
	// ErrStorageUnavailable indicates no blob storage is configured.
	ErrStorageUnavailable = errors.New("media storage unavailable")
	// ErrUnsupportedType indicates the upload is not an accepted image type.
	ErrUnsupportedType = errors.New("unsupported media type")
	// ErrTooLarge indicates the upload exceeds the configured size limit.
	ErrTooLarge = errors.New("media exceeds size limit")
)

// AcceptedContentTypes lists the image types post and story uploads may carry.
var AcceptedContentTypes = map[string]string{
	"image/jpeg": ".jpg",
	"image/png":  ".png",
	"image/webp": ".webp",
}

// ExtensionFor returns the canonical file extension for an accepted content
// type, or ErrUnsupportedType.
func ExtensionFor(contentType string) (string, error) {
	ext, ok := AcceptedContentTypes[contentType]
	if !ok {
		return "", ErrUnsupportedType
	}
	return ext, nil
}
