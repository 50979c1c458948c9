package database

import (
	"context"

	"siteflow/internal/models"

	"gorm.io/gorm"
)

// History is the IssueHistory log. It only appends and reads.
type History struct {
	DB *gorm.DB
}

func (h History) Record(ctx context.Context, entry models.IssueHistory) error {
	entry.ID = 0
	return h.DB.WithContext(ctx).Create(&entry).Error
}

func (h History) ForIssue(ctx context.Context, issueID uint) ([]models.IssueHistory, error) {
	var entries []models.IssueHistory
	err := h.DB.WithContext(ctx).
		Where("issue_id = ?", issueID).
		Order("created_at asc, id asc").
		Find(&entries).Error
	return entries, internal(err, "load issue history")
}
