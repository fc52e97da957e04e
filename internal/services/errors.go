package services

import "errors"

// Failure kinds surfaced to the service boundary. Components wrap these with
// fmt.Errorf("...: %w", err) and callers match them with errors.Is.
var (
	ErrMissingInput         = errors.New("no image file provided")
	ErrImageTooLarge        = errors.New("image exceeds the maximum allowed size")
	ErrUnsupportedMedia     = errors.New("unsupported image media type")
	ErrInvalidImage         = errors.New("image could not be decoded")
	ErrStaging              = errors.New("image staging failed")
	ErrInferenceUnavailable = errors.New("inference service unavailable")
	ErrInferenceTimeout     = errors.New("inference service timed out")
)

// Code returns a stable machine-readable identifier for err.
func Code(err error) string {
	switch {
	case errors.Is(err, ErrMissingInput):
		return "missing_input"
	case errors.Is(err, ErrImageTooLarge):
		return "image_too_large"
	case errors.Is(err, ErrUnsupportedMedia):
		return "unsupported_media"
	case errors.Is(err, ErrInvalidImage):
		return "invalid_image"
	case errors.Is(err, ErrInferenceTimeout):
		return "inference_timeout"
	case errors.Is(err, ErrInferenceUnavailable):
		return "inference_unavailable"
	default:
		return "internal"
	}
}

// InternalMessage is shown to callers for failures without a public kind.
const InternalMessage = "Internal server error"

var publicErrors = []error{
	ErrMissingInput,
	ErrImageTooLarge,
	ErrUnsupportedMedia,
	ErrInvalidImage,
	ErrInferenceTimeout,
	ErrInferenceUnavailable,
}

// Message returns text safe to show callers: the failure kind, never the
// wrapped cause.
func Message(err error) string {
	for _, e := range publicErrors {
		if errors.Is(err, e) {
			return e.Error()
		}
	}
	return InternalMessage
}
