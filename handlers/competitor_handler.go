package handlers

import (
	"net/http"

	"github.com/Dosada05/promotion-results/services"
)

type CompetitorHandler struct {
	competitorService services.CompetitorService
}

func NewCompetitorHandler(cs services.CompetitorService) *CompetitorHandler {
	return &CompetitorHandler{competitorService: cs}
}

func (h *CompetitorHandler) GetCompetitor(w http.ResponseWriter, r *http.Request) {
	competitorID, err := getIDFromURL(r, "competitorID")
	if err != nil {
		badRequestResponse(w, r, err)
		return
	}

	competitor, err := h.competitorService.GetCompetitor(r.Context(), competitorID)
	if err != nil {
		mapServiceErrorToHTTP(w, r, err)
		return
	}

	if err := writeJSON(w, http.StatusOK, jsonResponse{"competitor": competitor}, nil); err != nil {
		serverErrorResponse(w, r, err)
	}
}

// GetHistory lists the competitor's matches, newest first. ?limit= caps the page.
func (h *CompetitorHandler) GetHistory(w http.ResponseWriter, r *http.Request) {
	competitorID, err := getIDFromURL(r, "competitorID")
	if err != nil {
		badRequestResponse(w, r, err)
		return
	}
	limit, err := getIntQuery(r, "limit", 0)
	if err != nil {
		badRequestResponse(w, r, err)
		return
	}

	history, err := h.competitorService.History(r.Context(), competitorID, limit)
	if err != nil {
		mapServiceErrorToHTTP(w, r, err)
		return
	}

	if err := writeJSON(w, http.StatusOK, jsonResponse{"history": history}, nil); err != nil {
		serverErrorResponse(w, r, err)
	}
}
