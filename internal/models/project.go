package models

import "time"

type Project struct {
	ID        uint      `gorm:"primaryKey" json:"id"`
	CreatedAt time.Time `json:"-"`
	UpdatedAt time.Time `json:"-"`

	ProjectName string `gorm:"size:200;not null" json:"project_name"`
	Description string `gorm:"type:text" json:"description"`
	StartDate   Date   `gorm:"not null" json:"start_date"`
	EndDate     Date   `gorm:"not null" json:"end_date"`

	Trades []Trade `gorm:"foreignKey:ProjectID;constraint:OnDelete:CASCADE" json:"trades"`
	Users  []User  `gorm:"many2many:user_assigned_projects;constraint:OnDelete:CASCADE" json:"-"`
}
