package models

import "github.com/google/uuid"

// SubmitInput is the request body for submitting a video for analysis.
// Technique and Style are optional hints biasing the scoring prompt and
// keying progress aggregation.
type SubmitInput struct {
	VideoID    uuid.UUID `json:"video_id" validate:"required"`
	UserID     uuid.UUID `json:"user_id" validate:"required"`
	VideoKey   string    `json:"video_key" validate:"required,lte=512"`
	Technique  string    `json:"technique" validate:"omitempty,lte=100"`
	Style      string    `json:"style" validate:"omitempty,lte=50"`
	FrameCount int       `json:"frame_count" validate:"omitempty,gte=1,lte=30"`
}

type UploadInput struct {
	UserID     uuid.UUID `json:"user_id" validate:"required"`
	Name       string    `json:"filename" validate:"required,lte=255"`
	BucketName string    `json:"-"`
	Key        string    `json:"-"`
}
