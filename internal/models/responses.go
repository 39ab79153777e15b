package models

// ImageSummary is an image without its blob, as listed by the API.
type ImageSummary struct {
	Name            string `json:"name" example:"3f8d9a7c-5e4b-4b3a-8e1d-7f6b5c4d3a2b.jpg"`
	Folder          string `json:"folder" example:"sarika"`
	Size            int    `json:"size" example:"102400"`
	DownloadAllowed bool   `json:"download_allowed" example:"true"`
	URL             string `json:"url" example:"/api/v1/folders/sarika/images/3f8d9a7c-5e4b-4b3a-8e1d-7f6b5c4d3a2b.jpg"`
}

// NewImageSummary drops the image bytes and fills in the serving URL.
func NewImageSummary(img Image) ImageSummary {
	return ImageSummary{
		Name:            img.Name,
		Folder:          img.Folder,
		Size:            len(img.ImageData),
		DownloadAllowed: img.DownloadAllowed,
		URL:             "/api/v1/folders/" + img.Folder + "/images/" + img.Name,
	}
}

// RatingSummary is the average visitor rating of one folder.
type RatingSummary struct {
	Folder  string  `json:"folder" example:"sarika"`
	Name    string  `json:"name" example:"Sarika"`
	Average float64 `json:"average" example:"4.5"`
	Count   int64   `json:"count" example:"12"`
}

// CategoryGroup lists the folders shown under one gallery tab.
type CategoryGroup struct {
	Category string   `json:"category" example:"Artists"`
	Folders  []Folder `json:"folders"`
}
