package models

import "time"

// StagedImage describes an artifact written to staging storage.
type StagedImage struct {
	Key         string    `json:"key"`
	Backend     string    `json:"backend"`
	ContentType string    `json:"content_type"`
	Size        int64     `json:"size"`
	StagedAt    time.Time `json:"staged_at"`
}

// ImageSubmission is one uploaded image on its way to the critique pipeline.
// It lives for a single request.
type ImageSubmission struct {
	Filename  string
	MediaType string
	Size      int64
	Staged    *StagedImage
}

// Empty reports whether the submission carries no usable payload.
func (s *ImageSubmission) Empty() bool {
	return s == nil || s.Size <= 0 || s.Staged == nil || s.Staged.Key == ""
}
