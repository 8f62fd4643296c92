package models

import "gorm.io/gorm"

type Project struct {
	gorm.Model

	Title       string `gorm:"not null"`
	Description string
	Type        string `gorm:"not null"` // "back end", "front end", "iOS", "Android"
	AuthorID    uint   `gorm:"not null;index"`

	// Relationships
	Author       User          `gorm:"foreignKey:AuthorID;constraint:OnUpdate:Cascade,OnDelete:CASCADE"`
	Contributors []Contributor `gorm:"foreignKey:ProjectID;constraint:OnUpdate:Cascade,OnDelete:CASCADE"`
	Issues       []Issue       `gorm:"foreignKey:ProjectID;constraint:OnUpdate:Cascade,OnDelete:CASCADE"`
}

func (p *Project) AuthorUserID() uint {
	return p.AuthorID
}
