package services

import (
	"context"
	"fmt"
	"strings"
	"time"

	"moodsync/internal/models"

	"github.com/google/uuid"
	"github.com/rs/zerolog/log"
)

// CheckInRepository is the storage used by CheckInService
type CheckInRepository interface {
	Create(ctx context.Context, c *models.CheckIn) error
	List(ctx context.Context) ([]*models.CheckIn, error)
	Ping(ctx context.Context) error
}

// Notifier is told about every stored check-in
type Notifier interface {
	NotifyCheckInCreated(c *models.CheckIn) error
}

// CheckInService handles check-in business logic
type CheckInService struct {
	repo     CheckInRepository
	photos   PhotoStore
	notifier Notifier
	now      func() time.Time
}

// NewCheckInService creates a new check-in service. A nil photo store keeps
// photos inline and a nil notifier disables the live feed.
func NewCheckInService(repo CheckInRepository, photos PhotoStore, notifier Notifier) *CheckInService {
	if photos == nil {
		photos = InlinePhotoStore{}
	}
	return &CheckInService{
		repo:     repo,
		photos:   photos,
		notifier: notifier,
		now:      time.Now,
	}
}

// Create assigns identity and canonical timestamp, then persists the check-in
func (s *CheckInService) Create(ctx context.Context, in models.CheckIn) (*models.CheckIn, error) {
	now := s.now().UTC().Truncate(time.Microsecond)

	c := in
	c.ID = uuid.New().String()
	c.CreatedAt = now
	if c.Timestamp.IsZero() {
		c.Timestamp = now
	} else {
		c.Timestamp = c.Timestamp.UTC().Truncate(time.Microsecond)
	}
	if strings.TrimSpace(c.Emoji) == "" {
		c.Emoji = models.DefaultEmoji
	}
	if c.Note != nil && *c.Note == "" {
		c.Note = nil
	}

	if c.HasPhoto() {
		stored, err := s.photos.Store(ctx, c.ID, *c.Photo)
		if err != nil {
			return nil, fmt.Errorf("failed to store photo: %w", err)
		}
		c.Photo = &stored
	} else {
		c.Photo = nil
	}

	if err := s.repo.Create(ctx, &c); err != nil {
		return nil, err
	}

	if s.notifier != nil {
		if err := s.notifier.NotifyCheckInCreated(&c); err != nil {
			log.Warn().Err(err).Str("checkin_id", c.ID).Msg("Failed to broadcast check-in")
		}
	}

	return &c, nil
}

// List returns all stored check-ins, newest first
func (s *CheckInService) List(ctx context.Context) ([]*models.CheckIn, error) {
	return s.repo.List(ctx)
}

// Healthy reports whether the backing store answers
func (s *CheckInService) Healthy(ctx context.Context) error {
	return s.repo.Ping(ctx)
}
