package database

import (
	"context"

	"siteflow/internal/models"

	"gorm.io/gorm"
)

type Issues struct {
	DB *gorm.DB
}

func (s Issues) FindIssue(ctx context.Context, id uint) (models.Issue, error) {
	var issue models.Issue
	err := s.DB.WithContext(ctx).Preload("Project").First(&issue, id).Error
	return issue, notFound(err, "Issue not found")
}

func (s Issues) UpdateAssignment(ctx context.Context, issue *models.Issue, trade models.TradeName) error {
	err := s.DB.WithContext(ctx).Model(issue).Update("assigned_to", trade).Error
	return internal(err, "save issue assignment")
}
