package database

import (
	"context"

	"siteflow/internal/models"

	"gorm.io/gorm"
)

const notificationBatchSize = 100

type Notifications struct {
	DB *gorm.DB
}

func (n Notifications) UsersWithSpecialty(ctx context.Context, specialty models.Specialty) ([]models.User, error) {
	var users []models.User
	if specialty == models.SpecialtyNone {
		return users, nil
	}
	err := n.DB.WithContext(ctx).Where("specialty = ?", specialty).Order("id").Find(&users).Error
	return users, err
}

func (n Notifications) UsersWithRoles(ctx context.Context, roles ...models.UserRole) ([]models.User, error) {
	var users []models.User
	err := n.DB.WithContext(ctx).Where("role IN ?", roles).Order("id").Find(&users).Error
	return users, err
}

// CreateNotifications inserts in batches without a wrapping transaction, so
// an error may leave earlier batches written.
func (n Notifications) CreateNotifications(ctx context.Context, batch []models.Notification) error {
	if len(batch) == 0 {
		return nil
	}
	return n.DB.WithContext(ctx).
		Session(&gorm.Session{SkipDefaultTransaction: true}).
		CreateInBatches(batch, notificationBatchSize).Error
}

func (n Notifications) ForUser(ctx context.Context, userID uint, unreadOnly bool) ([]models.Notification, error) {
	q := n.DB.WithContext(ctx).Where("user_id = ?", userID)
	if unreadOnly {
		q = q.Where("is_read = ?", false)
	}
	var out []models.Notification
	err := q.Order("created_at desc, id desc").Find(&out).Error
	return out, internal(err, "load notifications")
}

// MarkRead acknowledges one of userID's notifications.
func (n Notifications) MarkRead(ctx context.Context, userID, id uint) (models.Notification, error) {
	var note models.Notification
	db := n.DB.WithContext(ctx)
	if err := db.Where("id = ? AND user_id = ?", id, userID).First(&note).Error; err != nil {
		return note, notFound(err, "Notification not found")
	}
	if err := db.Model(&note).Update("is_read", true).Error; err != nil {
		return note, internal(err, "mark notification read")
	}
	return note, nil
}
