package models

import "gorm.io/gorm"

type Comment struct {
	gorm.Model

	Description string `gorm:"not null"`
	AuthorID    uint   `gorm:"not null;index"`
	IssueID     uint   `gorm:"not null;index"`

	// Relationships
	Author User  `gorm:"foreignKey:AuthorID;constraint:OnUpdate:Cascade,OnDelete:CASCADE"`
	Issue  Issue `gorm:"foreignKey:IssueID;constraint:OnUpdate:Cascade,OnDelete:CASCADE"`
}

func (c *Comment) AuthorUserID() uint {
	return c.AuthorID
}
