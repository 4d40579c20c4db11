package handlers

import (
	"net/http"

	"github.com/Dosada05/promotion-results/services"
)

type ChampionshipHandler struct {
	championshipService services.ChampionshipService
}

func NewChampionshipHandler(cs services.ChampionshipService) *ChampionshipHandler {
	return &ChampionshipHandler{championshipService: cs}
}

func (h *ChampionshipHandler) GetChampionship(w http.ResponseWriter, r *http.Request) {
	championshipID, err := getIDFromURL(r, "championshipID")
	if err != nil {
		badRequestResponse(w, r, err)
		return
	}

	championship, err := h.championshipService.GetWithLineage(r.Context(), championshipID)
	if err != nil {
		mapServiceErrorToHTTP(w, r, err)
		return
	}

	if err := writeJSON(w, http.StatusOK, jsonResponse{"championship": championship}, nil); err != nil {
		serverErrorResponse(w, r, err)
	}
}
