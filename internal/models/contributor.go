package models

import "gorm.io/gorm"

type Contributor struct {
	gorm.Model

	UserID     uint   `gorm:"not null;uniqueIndex:idx_user_project"`
	ProjectID  uint   `gorm:"not null;uniqueIndex:idx_user_project"`
	Role       string `gorm:"not null"` // "AUTHOR", "COLLABORATOR"
	Permission string `gorm:"not null"` // "manage", "edit" (derived from role, never client-set)

	// Relationships
	User    User    `gorm:"foreignKey:UserID;constraint:OnUpdate:Cascade,OnDelete:CASCADE"`
	Project Project `gorm:"foreignKey:ProjectID;constraint:OnUpdate:Cascade,OnDelete:CASCADE"`
}
