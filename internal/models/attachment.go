package models

import "time"

type Attachment struct {
	ID uint `gorm:"primaryKey" json:"id"`

	IssueID uint  `gorm:"not null;index" json:"issue"`
	Issue   Issue `gorm:"constraint:OnDelete:CASCADE" json:"-"`
	UserID  uint  `gorm:"not null;index" json:"user"`
	User    User  `gorm:"constraint:OnDelete:CASCADE" json:"-"`

	File       string    `gorm:"size:255;not null" json:"file"` // storage key
	FileName   string    `gorm:"size:255" json:"file_name"`
	Size       int64     `json:"file_size"`
	UploadedAt time.Time `gorm:"autoCreateTime" json:"uploaded_at"`

	URL string `gorm:"-" json:"file_url"`
}
