package models

// SurveyEntry is one visitor rating. ID is the entry identity; Timestamp is
// kept as submitted and only used for display and ordering.
type SurveyEntry struct {
	ID        string  `json:"id" gorm:"primaryKey"`
	Folder    string  `json:"folder" gorm:"not null;index"`
	Rating    int     `json:"rating" gorm:"not null"`
	Feedback  *string `json:"feedback,omitempty"`
	Timestamp string  `json:"timestamp" gorm:"not null"`
}

func (SurveyEntry) TableName() string {
	return "surveys"
}

// All returns the tables in the order they must be created and filled.
func All() []interface{} {
	return []interface{}{&Folder{}, &Image{}, &SurveyEntry{}}
}
