package services

import (
	"context"
	"errors"
	"fmt"

	"github.com/Dosada05/promotion-results/models"
	"github.com/Dosada05/promotion-results/repositories"
)

const (
	defaultHistoryLimit = 50
	maxHistoryLimit     = 200
)

type CompetitorService interface {
	GetCompetitor(ctx context.Context, id int) (*models.Competitor, error)
	// History returns the competitor's most recent matches first.
	History(ctx context.Context, id int, limit int) ([]models.MatchHistoryRecord, error)
}

type competitorService struct {
	competitorRepo repositories.CompetitorRepository
	historyRepo    repositories.MatchHistoryRepository
}

func NewCompetitorService(competitorRepo repositories.CompetitorRepository, historyRepo repositories.MatchHistoryRepository) CompetitorService {
	return &competitorService{
		competitorRepo: competitorRepo,
		historyRepo:    historyRepo,
	}
}

func (s *competitorService) GetCompetitor(ctx context.Context, id int) (*models.Competitor, error) {
	competitor, err := s.competitorRepo.GetByID(ctx, nil, id)
	if err != nil {
		if errors.Is(err, repositories.ErrCompetitorNotFound) {
			return nil, ErrCompetitorNotFound
		}
		return nil, fmt.Errorf("failed to get competitor by id %d: %w", id, err)
	}
	return competitor, nil
}

func (s *competitorService) History(ctx context.Context, id int, limit int) ([]models.MatchHistoryRecord, error) {
	if _, err := s.GetCompetitor(ctx, id); err != nil {
		return nil, err
	}
	switch {
	case limit <= 0:
		limit = defaultHistoryLimit
	case limit > maxHistoryLimit:
		limit = maxHistoryLimit
	}

	records, err := s.historyRepo.ListByCompetitor(ctx, nil, id, limit)
	if err != nil {
		return nil, fmt.Errorf("failed to list match history for competitor %d: %w", id, err)
	}
	if records == nil {
		records = []models.MatchHistoryRecord{}
	}
	return records, nil
}
