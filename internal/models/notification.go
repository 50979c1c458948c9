package models

import "time"

type Notification struct {
	ID        uint      `gorm:"primaryKey" json:"id"`
	CreatedAt time.Time `json:"created_at"`

	UserID  uint   `gorm:"not null;index" json:"user"`
	User    User   `gorm:"constraint:OnDelete:CASCADE" json:"-"`
	IssueID *uint  `gorm:"index" json:"issue"`
	Issue   *Issue `gorm:"constraint:OnDelete:CASCADE" json:"-"`

	Title   string `gorm:"size:200;not null" json:"title"`
	Message string `gorm:"type:text" json:"message"`
	IsRead  bool   `gorm:"not null;default:false" json:"is_read"`
}
