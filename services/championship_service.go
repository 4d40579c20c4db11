package services

import (
	"context"
	"errors"
	"fmt"

	"github.com/Dosada05/promotion-results/models"
	"github.com/Dosada05/promotion-results/repositories"
)

type ChampionshipService interface {
	// GetWithLineage returns the championship and every reign ordered by sequence.
	GetWithLineage(ctx context.Context, id int) (*models.Championship, error)
}

type championshipService struct {
	championshipRepo repositories.ChampionshipRepository
	reignRepo        repositories.ReignRepository
}

func NewChampionshipService(championshipRepo repositories.ChampionshipRepository, reignRepo repositories.ReignRepository) ChampionshipService {
	return &championshipService{
		championshipRepo: championshipRepo,
		reignRepo:        reignRepo,
	}
}

func (s *championshipService) GetWithLineage(ctx context.Context, id int) (*models.Championship, error) {
	championship, err := s.championshipRepo.GetByID(ctx, nil, id)
	if err != nil {
		if errors.Is(err, repositories.ErrChampionshipNotFound) {
			return nil, ErrChampionshipNotFound
		}
		return nil, fmt.Errorf("failed to get championship by id %d: %w", id, err)
	}

	lineage, err := s.reignRepo.ListByChampionship(ctx, nil, id)
	if err != nil {
		return nil, fmt.Errorf("failed to list lineage for championship %d: %w", id, err)
	}
	if lineage == nil {
		lineage = []models.Reign{}
	}
	championship.Lineage = lineage
	return championship, nil
}
