package accommodation

import (
	"context"
	"log"
	"strconv"

	"stayfinder/internal/domain"
	"stayfinder/internal/kafka"
	"stayfinder/internal/repository"
)

type AccommodationUseCase interface {
	Create(ctx context.Context, userID int64, input CreateAccommodationInput) (*domain.Accommodation, error)
	GetByID(ctx context.Context, id int64) (*domain.Accommodation, error)
	List(ctx context.Context, page domain.Page) ([]domain.Accommodation, error)
	Update(ctx context.Context, id int64, input CreateAccommodationInput) (*domain.Accommodation, error)
	Delete(ctx context.Context, id int64) error
}

// Cache keeps the listing catalog hot and is invalidated on every write.
type Cache interface {
	GetAccommodations(ctx context.Context) ([]domain.Accommodation, error)
	SetAccommodations(ctx context.Context, accommodations []domain.Accommodation) error
	InvalidateAccommodations(ctx context.Context) error
}

type Producer interface {
	Publish(ctx context.Context, topic, key string, value interface{}) error
}

type AccommodationService struct {
	repo     repository.AccommodationRepository
	cache    Cache
	producer Producer
	topic    string
}

type CreateAccommodationInput struct {
	Type           domain.AccommodationType `json:"type"`
	Location       string                   `json:"location"`
	Size           string                   `json:"size"`
	Amenities      []string                 `json:"amenities"`
	DailyRateCents int64                    `json:"daily_rate_cents"`
	Availability   int                      `json:"availability"`
}

func NewAccommodationService(repo repository.AccommodationRepository, cache Cache, producer Producer, topic string) *AccommodationService {
	return &AccommodationService{repo: repo, cache: cache, producer: producer, topic: topic}
}

func (s *AccommodationService) Create(ctx context.Context, userID int64, input CreateAccommodationInput) (*domain.Accommodation, error) {
	accommodation := &domain.Accommodation{
		Type:           input.Type,
		Location:       input.Location,
		Size:           input.Size,
		Amenities:      input.Amenities,
		DailyRateCents: input.DailyRateCents,
		Availability:   input.Availability,
	}
	if err := s.repo.Create(ctx, accommodation); err != nil {
		return nil, err
	}
	s.invalidate(ctx)

	if s.producer != nil && s.topic != "" {
		event := kafka.NotificationEvent{
			Type:            kafka.EventAccommodationCreated,
			AccommodationID: accommodation.ID,
			UserID:          userID,
		}
		if err := s.producer.Publish(ctx, s.topic, strconv.FormatInt(accommodation.ID, 10), event); err != nil {
			log.Printf("WARNING: failed to publish %s event for accommodation %d: %v", event.Type, accommodation.ID, err)
		}
	}
	return accommodation, nil
}

func (s *AccommodationService) GetByID(ctx context.Context, id int64) (*domain.Accommodation, error) {
	return s.repo.GetByID(ctx, id)
}

func (s *AccommodationService) List(ctx context.Context, page domain.Page) ([]domain.Accommodation, error) {
	// Only the first page is cached: it is the one the catalog screen hits.
	cacheable := page.Number <= 0
	if s.cache != nil && cacheable {
		if cached, err := s.cache.GetAccommodations(ctx); err == nil && cached != nil {
			return cached, nil
		}
	}

	accommodations, err := s.repo.List(ctx, page)
	if err != nil {
		return nil, err
	}
	if s.cache != nil && cacheable {
		_ = s.cache.SetAccommodations(ctx, accommodations)
	}
	return accommodations, nil
}

func (s *AccommodationService) Update(ctx context.Context, id int64, input CreateAccommodationInput) (*domain.Accommodation, error) {
	accommodation := &domain.Accommodation{
		ID:             id,
		Type:           input.Type,
		Location:       input.Location,
		Size:           input.Size,
		Amenities:      input.Amenities,
		DailyRateCents: input.DailyRateCents,
		Availability:   input.Availability,
	}
	updated, err := s.repo.Update(ctx, accommodation)
	if err != nil {
		return nil, err
	}
	s.invalidate(ctx)
	return updated, nil
}

func (s *AccommodationService) Delete(ctx context.Context, id int64) error {
	if err := s.repo.SoftDelete(ctx, id); err != nil {
		return err
	}
	s.invalidate(ctx)
	return nil
}

func (s *AccommodationService) invalidate(ctx context.Context) {
	if s.cache == nil {
		return
	}
	if err := s.cache.InvalidateAccommodations(ctx); err != nil {
		log.Printf("WARNING: failed to invalidate accommodations cache: %v", err)
	}
}

var _ AccommodationUseCase = (*AccommodationService)(nil)
