package models

import "time"

// Image is a normalized JPEG owned by exactly one folder.
type Image struct {
	ID              uint      `json:"-" gorm:"primaryKey;autoIncrement"`
	Name            string    `json:"name" gorm:"not null;uniqueIndex:idx_images_folder_name"`
	Folder          string    `json:"folder" gorm:"not null;uniqueIndex:idx_images_folder_name;index"`
	ImageData       []byte    `json:"-" gorm:"not null"`
	DownloadAllowed bool      `json:"download_allowed" gorm:"not null"`
	CreatedAt       time.Time `json:"-"`
	UpdatedAt       time.Time `json:"-"`
}

func (Image) TableName() string {
	return "images"
}
