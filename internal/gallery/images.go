package gallery

import (
	"bytes"
	"context"
	"errors"
	"strings"

	"go-photo-gallery/internal/logging"
	"go-photo-gallery/internal/models"
	"go-photo-gallery/internal/utils"
	"go-photo-gallery/internal/validation"
)

var errUnsupportedImage = errors.New("file is not a JPEG, PNG or GIF image")

// Upload is one file received from an administrator.
type Upload struct {
	Filename string
	Data     []byte
}

type RejectedUpload struct {
	Filename string `json:"filename"`
	Reason   string `json:"reason"`
}

type UploadResult struct {
	Images   []models.ImageSummary `json:"images"`
	Rejected []RejectedUpload      `json:"rejected,omitempty"`
}

// UploadImages normalizes and stores every decodable file with the given
// download permission. Files that are not images are reported in Rejected; if
// none is usable the call fails without writing anything.
func (s *Service) UploadImages(ctx context.Context, folder string, uploads []Upload, downloadAllowed bool) (*UploadResult, *CommitResult, error) {
	if len(uploads) == 0 {
		return nil, nil, validation.NewError("files", "at least one file is required")
	}
	if _, err := s.store.GetFolder(ctx, folder); err != nil {
		return nil, nil, err
	}

	result := &UploadResult{Images: []models.ImageSummary{}}
	type pending struct {
		filename string
		image    *models.Image
	}
	var images []pending
	for _, up := range uploads {
		normalized, err := s.normalize(up.Data)
		if err != nil {
			result.Rejected = append(result.Rejected, RejectedUpload{Filename: up.Filename, Reason: err.Error()})
			continue
		}
		images = append(images, pending{filename: up.Filename, image: &models.Image{
			Name:            utils.NewImageName(),
			Folder:          folder,
			ImageData:       normalized,
			DownloadAllowed: downloadAllowed,
		}})
	}
	if len(images) == 0 {
		reasons := make([]string, 0, len(result.Rejected))
		for _, r := range result.Rejected {
			reasons = append(reasons, r.Filename+": "+r.Reason)
		}
		return nil, nil, validation.NewError("files", "no valid image uploaded ("+strings.Join(reasons, "; ")+")")
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	for _, p := range images {
		if err := s.store.AddImage(ctx, p.image); err != nil {
			if len(result.Images) == 0 {
				return nil, nil, err
			}
			// Earlier files are already stored; keep them and report this one.
			result.Rejected = append(result.Rejected, RejectedUpload{Filename: p.filename, Reason: err.Error()})
			continue
		}
		result.Images = append(result.Images, models.NewImageSummary(*p.image))
	}
	logging.With("gallery").Info().
		Str("folder", folder).
		Int("stored", len(result.Images)).
		Int("rejected", len(result.Rejected)).
		Msg("images uploaded")

	commit, err := s.commit(ctx, true)
	return result, commit, err
}

// SwapImage replaces the content of an existing image, keeping its name and
// download permission.
func (s *Service) SwapImage(ctx context.Context, folder, name string, data []byte) (*models.ImageSummary, *CommitResult, error) {
	normalized, err := s.normalize(data)
	if err != nil {
		return nil, nil, validation.NewError("file", err.Error())
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if err := s.store.ReplaceImageData(ctx, folder, name, normalized); err != nil {
		return nil, nil, err
	}
	img, err := s.store.GetImage(ctx, folder, name)
	if err != nil {
		return nil, nil, err
	}
	summary := models.NewImageSummary(*img)

	commit, err := s.commit(ctx, true)
	return &summary, commit, err
}

func (s *Service) SetDownloadAllowed(ctx context.Context, folder, name string, allowed bool) (*CommitResult, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if err := s.store.SetDownloadAllowed(ctx, folder, name, allowed); err != nil {
		return nil, err
	}
	return s.commit(ctx, true)
}

func (s *Service) DeleteImage(ctx context.Context, folder, name string) (*CommitResult, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if err := s.store.DeleteImage(ctx, folder, name); err != nil {
		return nil, err
	}
	logging.With("gallery").Info().Str("folder", folder).Str("image", name).Msg("image deleted")
	return s.commit(ctx, true)
}

// ListImages fails with store.ErrFolderNotFound for an unknown folder rather
// than returning an empty list.
func (s *Service) ListImages(ctx context.Context, folder string) ([]models.ImageSummary, error) {
	if _, err := s.store.GetFolder(ctx, folder); err != nil {
		return nil, err
	}
	return s.store.ListImages(ctx, folder)
}

func (s *Service) GetImage(ctx context.Context, folder, name string) (*models.Image, error) {
	return s.store.GetImage(ctx, folder, name)
}

func (s *Service) normalize(data []byte) ([]byte, error) {
	if !utils.IsSupportedImage(data) {
		return nil, errUnsupportedImage
	}
	out, err := utils.NormalizeImage(bytes.NewReader(data), s.opts.Images)
	if err != nil {
		return nil, err
	}
	return out.Data, nil
}
