// Package model содержит доменные сущности сервиса FitQuest.
package model

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// Account представляет фитнес-аккаунт пользователя с накопленными токенами.
// Идентификатором служит переданный клиентом email; внутри системы он
// трактуется как непрозрачный ключ и не валидируется как адрес почты.
type Account struct {
	Email          string
	Name           string
	Steps          int64
	Calories       int64
	Latitude       *float64
	Longitude      *float64
	ProfilePicture string
	AvatarID       string
	TodayTokens    int64
	TotalTokens    int64
	CreatedAt      time.Time
}

// TokenBalance содержит баланс токенов аккаунта.
type TokenBalance struct {
	TodayTokens int64 `json:"todayTokens"`
	TotalTokens int64 `json:"totalTokens"`
}

// ChallengeStatus описывает статус жизненного цикла челленджа.
type ChallengeStatus string

const (
	ChallengeStatusPending   ChallengeStatus = "pending"
	ChallengeStatusAccepted  ChallengeStatus = "accepted"
	ChallengeStatusDeclined  ChallengeStatus = "declined"
	ChallengeStatusOngoing   ChallengeStatus = "ongoing"
	ChallengeStatusCompleted ChallengeStatus = "completed"
)

// Challenge описывает парный челлендж на шаги между двумя аккаунтами.
// Имена участников фиксируются на момент создания и могут расходиться
// с актуальными именами аккаунтов.
type Challenge struct {
	ID              uuid.UUID
	Challenger      string
	ChallengerName  string
	Recipient       string
	RecipientName   string
	TargetSteps     int64
	StakeTokens     int64
	ChallengeDate   time.Time
	Status          ChallengeStatus
	ChallengerSteps int64
	RecipientSteps  int64
	Winner          string
	DeclinedBy      string
	Notification    string
	DeletedFor      []string
	CreatedAt       time.Time
}

// Opponent возвращает второго участника челленджа относительно указанного.
func (c *Challenge) Opponent(email string) string {
	if email == c.Challenger {
		return c.Recipient
	}
	return c.Challenger
}

// IsParticipant сообщает, является ли email одной из сторон челленджа.
func (c *Challenge) IsParticipant(email string) bool {
	return email == c.Challenger || email == c.Recipient
}

// DeletedBy сообщает, скрыл ли участник челлендж из своей истории.
func (c *Challenge) DeletedBy(email string) bool {
	for _, e := range c.DeletedFor {
		if e == email {
			return true
		}
	}
	return false
}

// PaymentRecord описывает факт обмена токенов на выплату.
type PaymentRecord struct {
	Amount        decimal.Decimal
	Tokens        int64
	TransactionID string
	Currency      string
	CreatedAt     time.Time
}

// LeaderboardEntry описывает позицию аккаунта в таблице лидеров по шагам.
type LeaderboardEntry struct {
	Rank     int    `json:"rank"`
	Name     string `json:"name"`
	Email    string `json:"email"`
	Steps    int64  `json:"steps"`
	Calories int64  `json:"calories"`
}

// PlayerLocation описывает координаты игрока для карты.
type PlayerLocation struct {
	Email          string  `json:"email"`
	Name           string  `json:"name"`
	Latitude       float64 `json:"latitude"`
	Longitude      float64 `json:"longitude"`
	Steps          int64   `json:"steps"`
	Calories       int64   `json:"calories"`
	ProfilePicture string  `json:"profilePicture,omitempty"`
	AvatarID       string  `json:"avatarId,omitempty"`
}
