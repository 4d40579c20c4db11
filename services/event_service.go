package services

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/Dosada05/promotion-results/models"
	"github.com/Dosada05/promotion-results/repositories"
)

type EventService interface {
	GetEvent(ctx context.Context, id int) (*models.Event, error)
	// ListAwaitingResults returns past events whose results have not been recorded yet.
	ListAwaitingResults(ctx context.Context, now time.Time) ([]*models.Event, error)
}

type eventService struct {
	eventRepo repositories.EventRepository
}

func NewEventService(eventRepo repositories.EventRepository) EventService {
	return &eventService{eventRepo: eventRepo}
}

func (s *eventService) GetEvent(ctx context.Context, id int) (*models.Event, error) {
	event, err := s.eventRepo.GetWithCard(ctx, nil, id)
	if err != nil {
		if errors.Is(err, repositories.ErrEventNotFound) {
			return nil, ErrEventNotFound
		}
		return nil, fmt.Errorf("failed to get event by id %d: %w", id, err)
	}
	return event, nil
}

func (s *eventService) ListAwaitingResults(ctx context.Context, now time.Time) ([]*models.Event, error) {
	events, err := s.eventRepo.ListPendingBefore(ctx, nil, now)
	if err != nil {
		return nil, fmt.Errorf("failed to list events awaiting results: %w", err)
	}
	return events, nil
}
