package models

import "time"

const (
	ActionIssueCreated         = "issue_created"
	ActionAssignedTradeChanged = "assigned_trade_changed"
)

// IssueHistory is an append-only audit entry. Rows are only removed by the
// cascade from their issue.
type IssueHistory struct {
	ID        uint      `gorm:"primaryKey" json:"id"`
	CreatedAt time.Time `json:"timestamp"`

	IssueID uint  `gorm:"not null;index" json:"issue"`
	Issue   Issue `gorm:"constraint:OnDelete:CASCADE" json:"-"`
	UserID  uint  `gorm:"not null;index" json:"user"`

	Action   string `gorm:"size:50;not null" json:"action"`
	OldValue string `gorm:"type:text" json:"old_value"`
	NewValue string `gorm:"type:text" json:"new_value"`
}

func (IssueHistory) TableName() string { return "issue_history" }
