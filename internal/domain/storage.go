package domain

import "time"

// StorageObject records an object-store key handed out to a client.
// It is created with IsUploaded=false and flipped once the upload is confirmed.
type StorageObject struct {
	StorageID  string    `json:"id" dynamodbav:"storage_id"`
	Location   string    `json:"location" dynamodbav:"location"`
	IsUploaded bool      `json:"is_uploaded" dynamodbav:"is_uploaded"`
	UserID     string    `json:"user_id" dynamodbav:"user_id"`
	CreatedAt  time.Time `json:"created" dynamodbav:"created_at"`
}

// UploadIntent is what a client needs to PUT a file: the storage id, the
// signed URL and the URL-encoded headers the URL was signed with.
type UploadIntent struct {
	ID      string `json:"id"`
	URL     string `json:"url"`
	Headers string `json:"headers"`
}

type CreateUploadIntentRequest struct {
	MD5      string `json:"md5" validate:"required,md5hex"`
	Size     int64  `json:"size" validate:"gte=0"`
	MimeType string `json:"mime_type" validate:"required"`
}
