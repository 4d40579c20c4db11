package services

import (
	"errors"
	"fmt"
	"strings"
)

// Общие ошибки, используемые в разных сервисах и маппинге HTTP.
var (
	ErrNotFound = errors.New("requested resource not found")

	ErrEventNotFound        = errors.New("event not found")
	ErrCompetitorNotFound   = errors.New("competitor not found")
	ErrChampionshipNotFound = errors.New("championship not found")

	// Ошибки валидации: ничего не записано, вызывающий может исправить данные и повторить.
	ErrValidationFailed       = errors.New("validation failed")
	ErrResultsAlreadyRecorded = errors.New("event results already recorded")

	// ErrTransactionFailed: the commit did not happen, nothing persisted, retry is safe.
	ErrTransactionFailed = errors.New("results transaction failed")
)

// IncompleteMatchesError rejects a card where some matches have no declared outcome.
type IncompleteMatchesError struct {
	Count int
}

func (e *IncompleteMatchesError) Error() string {
	return fmt.Sprintf("%s: %d incomplete matches", ErrValidationFailed, e.Count)
}

func (e *IncompleteMatchesError) Is(target error) bool {
	return target == ErrValidationFailed
}

// InvalidCardError rejects a complete card whose outcomes contradict its matches.
type InvalidCardError struct {
	Problems []string
}

func (e *InvalidCardError) Error() string {
	return fmt.Sprintf("%s: %s", ErrValidationFailed, strings.Join(e.Problems, "; "))
}

func (e *InvalidCardError) Is(target error) bool {
	return target == ErrValidationFailed
}
