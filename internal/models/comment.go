package models

import "time"

type Comment struct {
	ID uint `gorm:"primaryKey" json:"id"`

	IssueID uint  `gorm:"not null;index" json:"issue"`
	Issue   Issue `gorm:"constraint:OnDelete:CASCADE" json:"-"`
	UserID  uint  `gorm:"not null;index" json:"user"`
	User    User  `gorm:"constraint:OnDelete:CASCADE" json:"-"`

	Content   string    `gorm:"type:text;not null" json:"content"`
	Timestamp time.Time `gorm:"autoCreateTime;index" json:"timestamp"`
}
