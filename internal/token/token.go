// Package token содержит правила начисления наградных токенов и определения
// победителя челленджа.
package token

// Начисление за активность: по 10 токенов за каждую полную тысячу шагов
// и за каждые полные 500 килокалорий.
const (
	stepsPerTier    = 1000
	caloriesPerTier = 500
	tokensPerTier   = 10
)

// Daily вычисляет токены за дневную активность по шагам и калориям.
// Отрицательные значения трактуются как ноль.
func Daily(steps, calories int64) int64 {
	if steps < 0 {
		steps = 0
	}
	if calories < 0 {
		calories = 0
	}
	return steps/stepsPerTier*tokensPerTier + calories/caloriesPerTier*tokensPerTier
}

// AccrualDelta возвращает прибавку к накопленному балансу при повторном
// отчёте за тот же день. Баланс растёт только на положительную разницу:
// отчёт с меньшим или равным числом токенов уже заработанное не отнимает.
func AccrualDelta(previousToday, newToday int64) int64 {
	if newToday > previousToday {
		return newToday - previousToday
	}
	return 0
}

// Winner определяет победителя завершённого челленджа по текущим шагам
// сторон. Пустая строка означает, что цель ещё никем не достигнута.
// Если цель взяли обе стороны, побеждает больший счёт; при равенстве
// побеждает инициатор — сознательно сохранённая политика исходной системы.
func Winner(challenger, recipient string, challengerSteps, recipientSteps, target int64) string {
	challengerDone := challengerSteps >= target
	recipientDone := recipientSteps >= target

	switch {
	case challengerDone && recipientDone:
		if recipientSteps > challengerSteps {
			return recipient
		}
		return challenger
	case challengerDone:
		return challenger
	case recipientDone:
		return recipient
	default:
		return ""
	}
}
