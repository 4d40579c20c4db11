package handlers

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/stretchr/testify/require"

	"github.com/Dosada05/promotion-results/lineage"
	"github.com/Dosada05/promotion-results/models"
	"github.com/Dosada05/promotion-results/services"
)

type stubResultsService struct {
	summary *services.SubmissionSummary
	err     error
	gotID   int
}

func (s *stubResultsService) SubmitEventResults(_ context.Context, eventID int) (*services.SubmissionSummary, error) {
	s.gotID = eventID
	return s.summary, s.err
}

func submit(t *testing.T, svc services.ResultsService, path string) *httptest.ResponseRecorder {
	t.Helper()
	router := chi.NewRouter()
	router.Post("/events/{eventID}/results", NewResultsHandler(svc).SubmitEventResults)

	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, httptest.NewRequest(http.MethodPost, path, nil))
	return rec
}

func decodeBody(t *testing.T, rec *httptest.ResponseRecorder) map[string]interface{} {
	t.Helper()
	var body map[string]interface{}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	return body
}

func TestSubmitEventResults_OK(t *testing.T) {
	svc := &stubResultsService{summary: &services.SubmissionSummary{
		EventID:             10,
		CompetitorsUpdated:  2,
		TitleChanges:        []services.TitleChange{},
		AnnouncementsQueued: 0,
		Competitors: []services.CompetitorUpdate{
			{CompetitorID: 1, Rating: 1016, Delta: 16, Movement: models.MovementUp, Reason: "Spring Slam: +16 points"},
			{CompetitorID: 2, Rating: 984, Delta: -16, Movement: models.MovementDown, Reason: "Spring Slam: -16 points"},
		},
	}}

	rec := submit(t, svc, "/events/10/results")

	require.Equal(t, http.StatusOK, rec.Code)
	require.Equal(t, 10, svc.gotID)
	body := decodeBody(t, rec)
	require.Equal(t, true, body["ok"])
	require.Equal(t, 2.0, body["competitors_updated"])
	require.Equal(t, 0.0, body["announcements_queued"])
	competitors := body["competitors"].([]interface{})
	require.Len(t, competitors, 2)
	require.Equal(t, "up", competitors[0].(map[string]interface{})["movement"])
}

func TestSubmitEventResults_Failures(t *testing.T) {
	tests := []struct {
		name   string
		err    error
		status int
		reason string
	}{
		{"incomplete", &services.IncompleteMatchesError{Count: 1}, http.StatusUnprocessableEntity, "incomplete_matches"},
		{"invalid card", &services.InvalidCardError{Problems: []string{"match 3: bad"}}, http.StatusUnprocessableEntity, "invalid_card"},
		{"already recorded", services.ErrResultsAlreadyRecorded, http.StatusConflict, "already_recorded"},
		{"lineage", fmt.Errorf("match 4: %w", &lineage.InconsistencyError{ChampionshipID: 7}), http.StatusInternalServerError, "lineage_inconsistency"},
		{"transaction", fmt.Errorf("%w: %w", services.ErrTransactionFailed, errors.New("conn reset")), http.StatusServiceUnavailable, "transaction_failed"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rec := submit(t, &stubResultsService{err: tt.err}, "/events/10/results")

			require.Equal(t, tt.status, rec.Code)
			body := decodeBody(t, rec)
			require.Equal(t, false, body["ok"])
			require.Equal(t, tt.reason, body["reason"])
		})
	}
}

func TestSubmitEventResults_IncompleteCarriesCount(t *testing.T) {
	rec := submit(t, &stubResultsService{err: &services.IncompleteMatchesError{Count: 3}}, "/events/10/results")

	require.Equal(t, 3.0, decodeBody(t, rec)["count"])
}

func TestSubmitEventResults_TransactionFailureIsRetryable(t *testing.T) {
	rec := submit(t, &stubResultsService{err: services.ErrTransactionFailed}, "/events/10/results")

	require.Equal(t, "1", rec.Header().Get("Retry-After"))
}

func TestSubmitEventResults_EventNotFound(t *testing.T) {
	rec := submit(t, &stubResultsService{err: services.ErrEventNotFound}, "/events/10/results")

	require.Equal(t, http.StatusNotFound, rec.Code)
}

func TestSubmitEventResults_BadID(t *testing.T) {
	svc := &stubResultsService{}
	for _, path := range []string{"/events/abc/results", "/events/-1/results", "/events/0/results"} {
		rec := submit(t, svc, path)
		require.Equal(t, http.StatusBadRequest, rec.Code, path)
	}
	require.Zero(t, svc.gotID)
}

type stubCompetitorService struct {
	limit int
}

func (s *stubCompetitorService) GetCompetitor(_ context.Context, id int) (*models.Competitor, error) {
	if id != 1 {
		return nil, services.ErrCompetitorNotFound
	}
	rating := 1016
	return &models.Competitor{ID: 1, Name: "Ada", Rating: &rating}, nil
}

func (s *stubCompetitorService) History(_ context.Context, id int, limit int) ([]models.MatchHistoryRecord, error) {
	s.limit = limit
	if id != 1 {
		return nil, services.ErrCompetitorNotFound
	}
	return []models.MatchHistoryRecord{{ID: 1, MatchID: 100, EventID: 10}}, nil
}

func TestCompetitorHandler(t *testing.T) {
	svc := &stubCompetitorService{}
	h := NewCompetitorHandler(svc)
	router := chi.NewRouter()
	router.Get("/competitors/{competitorID}", h.GetCompetitor)
	router.Get("/competitors/{competitorID}/history", h.GetHistory)

	serve := func(path string) *httptest.ResponseRecorder {
		rec := httptest.NewRecorder()
		router.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, path, nil))
		return rec
	}

	rec := serve("/competitors/1")
	require.Equal(t, http.StatusOK, rec.Code)
	require.Equal(t, "Ada", decodeBody(t, rec)["competitor"].(map[string]interface{})["name"])

	require.Equal(t, http.StatusNotFound, serve("/competitors/2").Code)

	rec = serve("/competitors/1/history?limit=5")
	require.Equal(t, http.StatusOK, rec.Code)
	require.Equal(t, 5, svc.limit)
	require.Len(t, decodeBody(t, rec)["history"], 1)

	require.Equal(t, http.StatusBadRequest, serve("/competitors/1/history?limit=many").Code)
}

type stubChampionshipService struct{}

func (stubChampionshipService) GetWithLineage(_ context.Context, id int) (*models.Championship, error) {
	if id != 7 {
		return nil, services.ErrChampionshipNotFound
	}
	holder := 1
	ended := time.Date(2026, 3, 14, 20, 0, 0, 0, time.UTC)
	return &models.Championship{
		ID:              7,
		Name:            "World Championship",
		CurrentHolderID: &holder,
		Lineage: []models.Reign{
			{ID: 1, ChampionshipID: 7, HolderID: 2, Sequence: 1, EndedAt: &ended, LostToID: &holder},
			{ID: 2, ChampionshipID: 7, HolderID: 1, Sequence: 2},
		},
	}, nil
}

func TestChampionshipHandler(t *testing.T) {
	router := chi.NewRouter()
	router.Get("/championships/{championshipID}", NewChampionshipHandler(stubChampionshipService{}).GetChampionship)

	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/championships/7", nil))
	require.Equal(t, http.StatusOK, rec.Code)
	champ := decodeBody(t, rec)["championship"].(map[string]interface{})
	require.Len(t, champ["lineage"], 2)

	rec = httptest.NewRecorder()
	router.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/championships/8", nil))
	require.Equal(t, http.StatusNotFound, rec.Code)
}
