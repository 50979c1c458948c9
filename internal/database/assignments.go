package database

import (
	"context"

	"siteflow/internal/models"

	"gorm.io/gorm"
)

// Assignments reads and writes the user/project assignment relation.
type Assignments struct {
	DB *gorm.DB
}

func (a Assignments) AssignedProjects(ctx context.Context, userID uint) ([]uint, error) {
	var ids []uint
	err := a.DB.WithContext(ctx).
		Table("user_assigned_projects").
		Where("user_id = ?", userID).
		Order("project_id").
		Pluck("project_id", &ids).Error
	return ids, err
}

func (a Assignments) Assign(ctx context.Context, user *models.User, project *models.Project) error {
	return internal(a.DB.WithContext(ctx).Model(user).Association("AssignedProjects").Append(project),
		"assign user to project")
}
