package models

import (
	"time"

	"gorm.io/gorm"
)

type Department struct {
	ID   string `json:"id" gorm:"primaryKey;size:255"`
	Name string `json:"name" gorm:"not null;size:150;uniqueIndex"`
	// User id of the department head
	Head string `json:"head" gorm:"size:255;index"`

	CreatedAt time.Time      `json:"created_at"`
	UpdatedAt time.Time      `json:"updated_at"`
	DeletedAt gorm.DeletedAt `json:"-" gorm:"index"`
}

func (Department) TableName() string {
	return "departments"
}
