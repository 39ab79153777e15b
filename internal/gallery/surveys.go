package gallery

import (
	"context"
	"strings"
	"time"

	"github.com/google/uuid"

	"go-photo-gallery/internal/models"
	"go-photo-gallery/internal/validation"
)

type SurveyInput struct {
	Rating   int    `json:"rating" validate:"min=1,max=5"`
	Feedback string `json:"feedback" validate:"max=1000"`
}

// SubmitSurvey records a visitor rating for folder.
func (s *Service) SubmitSurvey(ctx context.Context, folder string, in SurveyInput) (*models.SurveyEntry, *CommitResult, error) {
	in.Feedback = strings.TrimSpace(in.Feedback)
	if err := validation.ValidateStruct(in); err != nil {
		return nil, nil, err
	}

	entry := &models.SurveyEntry{
		ID:        uuid.NewString(),
		Folder:    folder,
		Rating:    in.Rating,
		Timestamp: s.opts.Now().UTC().Format(time.RFC3339),
	}
	if in.Feedback != "" {
		feedback := in.Feedback
		entry.Feedback = &feedback
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if err := s.store.AddSurveyEntry(ctx, entry); err != nil {
		return nil, nil, err
	}
	commit, err := s.commit(ctx, true)
	return entry, commit, err
}

func (s *Service) DeleteSurvey(ctx context.Context, id string) (*CommitResult, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if err := s.store.DeleteSurveyEntry(ctx, id); err != nil {
		return nil, err
	}
	return s.commit(ctx, true)
}

// ListSurveys returns entries for one folder, or all entries when folder is empty.
func (s *Service) ListSurveys(ctx context.Context, folder string) ([]models.SurveyEntry, error) {
	return s.store.ListSurveyEntries(ctx, folder)
}

func (s *Service) RatingSummaries(ctx context.Context) ([]models.RatingSummary, error) {
	return s.store.RatingSummaries(ctx)
}
