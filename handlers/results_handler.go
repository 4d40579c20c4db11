package handlers

import (
	"errors"
	"net/http"

	"github.com/Dosada05/promotion-results/lineage"
	"github.com/Dosada05/promotion-results/services"
)

type ResultsHandler struct {
	resultsService services.ResultsService
}

func NewResultsHandler(rs services.ResultsService) *ResultsHandler {
	return &ResultsHandler{resultsService: rs}
}

type submitResponse struct {
	OK bool `json:"ok"`
	*services.SubmissionSummary
}

type submitFailure struct {
	OK      bool     `json:"ok"`
	Reason  string   `json:"reason"`
	Count   int      `json:"count,omitempty"`
	Details []string `json:"details,omitempty"`
}

// SubmitEventResults resolves every match on the event's card in one transaction.
func (h *ResultsHandler) SubmitEventResults(w http.ResponseWriter, r *http.Request) {
	eventID, err := getIDFromURL(r, "eventID")
	if err != nil {
		badRequestResponse(w, r, err)
		return
	}

	summary, err := h.resultsService.SubmitEventResults(r.Context(), eventID)
	if err != nil {
		resultsErrorResponse(w, r, err)
		return
	}

	if err := writeJSON(w, http.StatusOK, submitResponse{OK: true, SubmissionSummary: summary}, nil); err != nil {
		serverErrorResponse(w, r, err)
	}
}

func resultsErrorResponse(w http.ResponseWriter, r *http.Request, err error) {
	var (
		incomplete *services.IncompleteMatchesError
		invalid    *services.InvalidCardError
		status     int
		body       submitFailure
	)
	switch {
	case errors.As(err, &incomplete):
		status, body = http.StatusUnprocessableEntity, submitFailure{Reason: "incomplete_matches", Count: incomplete.Count}
	case errors.As(err, &invalid):
		status, body = http.StatusUnprocessableEntity, submitFailure{Reason: "invalid_card", Details: invalid.Problems}
	case errors.Is(err, services.ErrResultsAlreadyRecorded):
		status, body = http.StatusConflict, submitFailure{Reason: "already_recorded"}
	case errors.Is(err, lineage.ErrInconsistency):
		status, body = http.StatusInternalServerError, submitFailure{Reason: "lineage_inconsistency"}
	case errors.Is(err, services.ErrTransactionFailed):
		status, body = http.StatusServiceUnavailable, submitFailure{Reason: "transaction_failed"}
	default:
		mapServiceErrorToHTTP(w, r, err)
		return
	}

	headers := http.Header{}
	if status == http.StatusServiceUnavailable {
		headers.Set("Retry-After", "1")
	}
	if err := writeJSON(w, status, body, headers); err != nil {
		serverErrorResponse(w, r, err)
	}
}
