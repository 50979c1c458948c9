package models

import "time"

type Priority string

const (
	PriorityLow      Priority = "LOW"
	PriorityMedium   Priority = "MEDIUM"
	PriorityHigh     Priority = "HIGH"
	PriorityCritical Priority = "CRITICAL"
)

func (p Priority) Valid() bool {
	switch p {
	case PriorityLow, PriorityMedium, PriorityHigh, PriorityCritical:
		return true
	}
	return false
}

type IssueStatus string

const (
	StatusOpen       IssueStatus = "OPEN"
	StatusInProgress IssueStatus = "IN PROGRESS"
	StatusResolved   IssueStatus = "RESOLVED"
	StatusClosed     IssueStatus = "CLOSED"
)

func (s IssueStatus) Valid() bool {
	switch s {
	case StatusOpen, StatusInProgress, StatusResolved, StatusClosed:
		return true
	}
	return false
}

type Issue struct {
	ID        uint      `gorm:"primaryKey" json:"id"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`

	ProjectID uint    `gorm:"not null;index" json:"project"`
	Project   Project `gorm:"constraint:OnDelete:CASCADE" json:"-"`

	Trade               TradeName   `gorm:"type:varchar(50);not null;index" json:"trade"`
	IssueTitle          string      `gorm:"size:200;not null" json:"issue_title"`
	DetailedDescription string      `gorm:"type:text" json:"detailed_description"`
	Priority            Priority    `gorm:"type:varchar(20);not null;index" json:"priority"`
	AssignedTo          TradeName   `gorm:"type:varchar(50);not null" json:"assigned_to"`
	DueDate             Date        `gorm:"not null" json:"due_date"`
	Status              IssueStatus `gorm:"type:varchar(20);not null;default:OPEN;index" json:"status"`
}
