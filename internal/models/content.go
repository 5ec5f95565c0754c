package models

import (
	"time"

	"github.com/lib/pq"
)

// ContentType enumerates the supported lesson material kinds.
type ContentType string

const (
	ContentVideo ContentType = "video"
	ContentPDF   ContentType = "pdf"
	ContentImage ContentType = "image"
	ContentNote  ContentType = "note"
)

// LessonContent is media or document metadata attached to a lesson.
type LessonContent struct {
	ID          string         `db:"id" json:"id"`
	LessonID    string         `db:"lesson_id" json:"lessonId"`
	Title       string         `db:"title" json:"title"`
	Description *string        `db:"description" json:"description,omitempty"`
	ContentType ContentType    `db:"content_type" json:"contentType"`
	FileURL     *string        `db:"file_url" json:"fileUrl,omitempty"`
	FileName    *string        `db:"file_name" json:"fileName,omitempty"`
	FileSize    *int64         `db:"file_size" json:"fileSize,omitempty"`
	Duration    *int           `db:"duration" json:"duration,omitempty"`
	Positions   pq.StringArray `db:"positions" json:"positions"`
	Techniques  pq.StringArray `db:"techniques" json:"techniques"`
	CreatedBy   *string        `db:"created_by" json:"createdBy,omitempty"`
	CreatedAt   time.Time      `db:"created_at" json:"createdAt"`
}

// LibraryItem is a content row joined with its lesson for the library listing.
type LibraryItem struct {
	LessonContent
	LessonDate  string  `db:"lesson_date" json:"lessonDate"`
	LessonTopic *string `db:"lesson_topic" json:"lessonTopic,omitempty"`
}
