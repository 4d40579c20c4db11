package services

import (
	"errors"
	"fmt"

	"github.com/go-playground/validator/v10"

	"github.com/Dosada05/promotion-results/models"
)

var cardValidator = newCardValidator()

func newCardValidator() *validator.Validate {
	v := validator.New(validator.WithRequiredStructEnabled())

	_ = v.RegisterValidation("result_method", func(fl validator.FieldLevel) bool {
		return models.ResultMethod(fl.Field().String()).Valid()
	})
	// Победитель должен быть одним из двух участников матча.
	_ = v.RegisterValidation("participant", func(fl validator.FieldLevel) bool {
		winner := fl.Field().Int()
		parent := fl.Parent()
		return winner == parent.FieldByName("Competitor1ID").Int() ||
			winner == parent.FieldByName("Competitor2ID").Int()
	})
	v.RegisterStructValidation(func(sl validator.StructLevel) {
		m, ok := sl.Current().Interface().(models.Match)
		if !ok {
			return
		}
		if m.IsDraw() && m.WinnerID != nil {
			sl.ReportError(m.WinnerID, "WinnerID", "winner_id", "draw_without_winner", "")
		}
	}, models.Match{})

	return v
}

// countIncomplete returns how many matches on the card lack a declared outcome.
func countIncomplete(card []models.Match) int {
	n := 0
	for i := range card {
		if !card[i].IsReady() {
			n++
		}
	}
	return n
}

// validateCard checks a complete card against its own matches and the loaded snapshot.
func validateCard(card []models.Match, snap *Snapshot) error {
	var problems []string
	for i := range card {
		m := card[i]
		if err := cardValidator.Struct(m); err != nil {
			var verrs validator.ValidationErrors
			if !errors.As(err, &verrs) {
				return fmt.Errorf("validate match %d: %w", m.ID, err)
			}
			for _, fe := range verrs {
				problems = append(problems, fmt.Sprintf("match %d (position %d): %s failed %q", m.ID, m.Position, fe.Field(), fe.Tag()))
			}
			continue
		}
		for _, id := range []int{m.Competitor1ID, m.Competitor2ID} {
			if _, ok := snap.Competitors[id]; !ok {
				problems = append(problems, fmt.Sprintf("match %d (position %d): competitor %d does not exist", m.ID, m.Position, id))
			}
		}
		if m.IsTitleMatch {
			if _, ok := snap.Championships[*m.ChampionshipID]; !ok {
				problems = append(problems, fmt.Sprintf("match %d (position %d): championship %d does not exist", m.ID, m.Position, *m.ChampionshipID))
			}
		}
	}
	if len(problems) > 0 {
		return &InvalidCardError{Problems: problems}
	}
	return nil
}
