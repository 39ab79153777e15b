package models

import "time"

// Folder is a gallery owner. The slug in Folder is the public key used by
// images and survey entries; it never changes after creation.
type Folder struct {
	ID         uint      `json:"-" gorm:"primaryKey;autoIncrement"`
	Folder     string    `json:"folder" gorm:"uniqueIndex;not null"`
	Name       string    `json:"name" gorm:"not null"`
	Age        int       `json:"age" gorm:"not null"`
	Profession string    `json:"profession" gorm:"not null"`
	Category   string    `json:"category" gorm:"not null;index"`
	CreatedAt  time.Time `json:"-"`
}

func (Folder) TableName() string {
	return "folders"
}
