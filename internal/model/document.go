package model

import "time"

// Document registers an uploaded file. Its ID doubles as the file_id
// stamped onto every vector-index chunk produced from the file; that
// metadata field is the only linkage between the two stores.
type Document struct {
	ID              uint      `gorm:"primaryKey" json:"id"`
	Filename        string    `gorm:"size:256;not null" json:"filename"`
	UploadTimestamp time.Time `gorm:"autoCreateTime;index" json:"upload_timestamp"`
}
