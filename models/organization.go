package models

import "gorm.io/gorm"

type Organization struct {
	gorm.Model

	Name     string `gorm:"size:128;index" json:"name"`
	Kind     string `gorm:"size:16;index" json:"kind"` // buyer, seller
	IsActive bool   `gorm:"default:true" json:"is_active"`

	Members []OrganizationMember `gorm:"foreignKey:OrgID" json:"members,omitempty"`
}

type OrganizationMember struct {
	gorm.Model

	OrgID    uint   `gorm:"index" json:"org_id"`
	Name     string `gorm:"size:128" json:"name"`
	Email    string `gorm:"size:128;index" json:"email"`
	IsActive bool   `gorm:"default:true" json:"is_active"`
}
