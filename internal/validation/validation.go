// Package validation содержит функции валидации входных данных.
package validation

import (
	"errors"
	"strings"
	"time"
)

// Ошибки валидации параметров челленджа.
var (
	ErrEmptyParticipant = errors.New("participant id must not be empty")
	ErrSameParticipants = errors.New("challenger and recipient must differ")
	ErrNonPositiveSteps = errors.New("target steps must be positive")
	ErrNonPositiveStake = errors.New("stake must be positive")
)

// acceptedDateLayouts — форматы даты челленджа, принимаемые от клиента.
var acceptedDateLayouts = []string{
	time.RFC3339,
	"2006-01-02",
}

// ValidateChallengeParams проверяет параметры создания челленджа.
// Email участников не валидируется как почтовый адрес: идентификатор —
// непрозрачный ключ, проверяется только непустота.
func ValidateChallengeParams(challenger, recipient string, targetSteps, stake int64) error {
	if strings.TrimSpace(challenger) == "" || strings.TrimSpace(recipient) == "" {
		return ErrEmptyParticipant
	}
	if challenger == recipient {
		return ErrSameParticipants
	}
	if targetSteps <= 0 {
		return ErrNonPositiveSteps
	}
	if stake <= 0 {
		return ErrNonPositiveStake
	}
	return nil
}

// ParseChallengeDate разбирает дату челленджа из строки клиента.
// Принимает RFC3339 либо короткую форму YYYY-MM-DD; результат усечён до дня.
func ParseChallengeDate(value string) (time.Time, error) {
	var lastErr error
	for _, layout := range acceptedDateLayouts {
		t, err := time.Parse(layout, value)
		if err == nil {
			return TruncateToDay(t), nil
		}
		lastErr = err
	}
	return time.Time{}, lastErr
}

// TruncateToDay усекает момент времени до начала календарного дня.
func TruncateToDay(t time.Time) time.Time {
	y, m, d := t.Date()
	return time.Date(y, m, d, 0, 0, 0, 0, t.Location())
}

// SameDay сравнивает два момента времени с точностью до календарного дня.
func SameDay(a, b time.Time) bool {
	ay, am, ad := a.Date()
	by, bm, bd := b.Date()
	return ay == by && am == bm && ad == bd
}
