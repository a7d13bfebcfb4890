// Package handler содержит HTTP-обработчики API сервиса FitQuest.
package handler

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"

	"github.com/fitquest/fitquest-system/internal/model"
	"github.com/fitquest/fitquest-system/internal/oauth"
	"github.com/fitquest/fitquest-system/internal/repository"
	"github.com/fitquest/fitquest-system/internal/service"
	"github.com/fitquest/fitquest-system/internal/validation"
)

// Service определяет контракт бизнес-логики, используемой HTTP-обработчиками.
type Service interface {
	ReportActivity(ctx context.Context, email, name string, steps, calories int64) (*model.TokenBalance, error)
	GetTokens(ctx context.Context, email string) (*model.TokenBalance, error)
	Leaderboard(ctx context.Context) ([]model.LeaderboardEntry, error)
	UpdateLocation(ctx context.Context, email string, latitude, longitude float64) error
	PlayersLocation(ctx context.Context) ([]model.PlayerLocation, error)
	UpdateAvatar(ctx context.Context, email, avatarID string) error
	Cashout(ctx context.Context, email string, tokens int64) (*model.PaymentRecord, int64, error)
	PaymentHistory(ctx context.Context, email string) ([]model.PaymentRecord, error)
	CreateChallenge(ctx context.Context, challenger, challengerName, recipient, recipientName string, targetSteps, stake int64, date time.Time) (*model.Challenge, error)
	AcceptChallenge(ctx context.Context, id uuid.UUID) (*model.Challenge, error)
	DeclineChallenge(ctx context.Context, id uuid.UUID) (*model.Challenge, error)
	DeclineAcceptedChallenge(ctx context.Context, id uuid.UUID, email string) (*model.Challenge, error)
	ReportChallengeProgress(ctx context.Context, id uuid.UUID, email string, steps int64) (*service.ProgressResult, error)
	ListPendingChallenges(ctx context.Context, email string) ([]model.Challenge, error)
	ListIncomingChallenges(ctx context.Context, email string) ([]model.Challenge, error)
	ListUpcomingChallenges(ctx context.Context, email string) ([]model.Challenge, error)
	ListChallengerChallenges(ctx context.Context, email string) ([]model.Challenge, error)
	DeleteChallenge(ctx context.Context, id uuid.UUID, email string) error
	DeleteAllCompleted(ctx context.Context, email string) error
	ExchangeCode(ctx context.Context, code string) (*oauth.TokenResponse, error)
	RefreshToken(ctx context.Context, refreshToken string) (*oauth.TokenResponse, error)
}

// Handler реализует HTTP-обработчики API сервиса FitQuest.
type Handler struct {
	service Service
	logger  *zap.Logger
}

// NewHandler создаёт новый экземпляр обработчика HTTP-запросов.
func NewHandler(s Service, logger *zap.Logger) *Handler {
	return &Handler{
		service: s,
		logger:  logger,
	}
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

// writeDomainError транслирует доменные ошибки в HTTP-статусы.
// Неожиданные ошибки логируются и отдаются как 500.
func (h *Handler) writeDomainError(w http.ResponseWriter, err error, op string) {
	switch {
	case errors.Is(err, repository.ErrAccountNotFound),
		errors.Is(err, repository.ErrChallengeNotFound):
		http.Error(w, http.StatusText(http.StatusNotFound), http.StatusNotFound)
	case errors.Is(err, repository.ErrNotParticipant):
		http.Error(w, http.StatusText(http.StatusForbidden), http.StatusForbidden)
	case errors.Is(err, repository.ErrDuplicatePending),
		errors.Is(err, repository.ErrInvalidChallengeState):
		http.Error(w, http.StatusText(http.StatusConflict), http.StatusConflict)
	case errors.Is(err, repository.ErrInsufficientTokens):
		http.Error(w, http.StatusText(http.StatusPaymentRequired), http.StatusPaymentRequired)
	default:
		h.logger.Error(op+" error", zap.Error(err))
		http.Error(w, http.StatusText(http.StatusInternalServerError), http.StatusInternalServerError)
	}
}

type activityRequest struct {
	Email    string `json:"email"`
	Name     string `json:"name"`
	Steps    int64  `json:"steps"`
	Calories int64  `json:"calories"`
}

// ReportActivity принимает отчёт о дневной активности и начисляет токены.
func (h *Handler) ReportActivity(w http.ResponseWriter, r *http.Request) {
	var req activityRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, http.StatusText(http.StatusBadRequest), http.StatusBadRequest)
		return
	}

	if req.Email == "" {
		http.Error(w, http.StatusText(http.StatusBadRequest), http.StatusBadRequest)
		return
	}

	balance, err := h.service.ReportActivity(r.Context(), req.Email, req.Name, req.Steps, req.Calories)
	if err != nil {
		h.writeDomainError(w, err, "report activity")
		return
	}

	writeJSON(w, http.StatusOK, balance)
}

// GetTokens возвращает баланс токенов аккаунта.
func (h *Handler) GetTokens(w http.ResponseWriter, r *http.Request) {
	email := chi.URLParam(r, "email")

	balance, err := h.service.GetTokens(r.Context(), email)
	if err != nil {
		h.writeDomainError(w, err, "get tokens")
		return
	}

	writeJSON(w, http.StatusOK, balance)
}

// Leaderboard возвращает таблицу лидеров по шагам.
func (h *Handler) Leaderboard(w http.ResponseWriter, r *http.Request) {
	entries, err := h.service.Leaderboard(r.Context())
	if err != nil {
		h.writeDomainError(w, err, "leaderboard")
		return
	}

	if entries == nil {
		entries = []model.LeaderboardEntry{}
	}
	writeJSON(w, http.StatusOK, entries)
}

type locationRequest struct {
	Email     string  `json:"email"`
	Latitude  float64 `json:"latitude"`
	Longitude float64 `json:"longitude"`
}

// UpdateLocation сохраняет координаты игрока.
func (h *Handler) UpdateLocation(w http.ResponseWriter, r *http.Request) {
	var req locationRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, http.StatusText(http.StatusBadRequest), http.StatusBadRequest)
		return
	}

	if err := h.service.UpdateLocation(r.Context(), req.Email, req.Latitude, req.Longitude); err != nil {
		h.writeDomainError(w, err, "update location")
		return
	}

	w.WriteHeader(http.StatusOK)
}

// PlayersLocation возвращает координаты игроков для карты.
func (h *Handler) PlayersLocation(w http.ResponseWriter, r *http.Request) {
	players, err := h.service.PlayersLocation(r.Context())
	if err != nil {
		h.writeDomainError(w, err, "players location")
		return
	}

	if players == nil {
		players = []model.PlayerLocation{}
	}
	writeJSON(w, http.StatusOK, players)
}

type avatarRequest struct {
	Email    string `json:"email"`
	AvatarID string `json:"avatarId"`
}

// UpdateAvatar сохраняет выбранный аватар аккаунта.
func (h *Handler) UpdateAvatar(w http.ResponseWriter, r *http.Request) {
	var req avatarRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, http.StatusText(http.StatusBadRequest), http.StatusBadRequest)
		return
	}

	if err := h.service.UpdateAvatar(r.Context(), req.Email, req.AvatarID); err != nil {
		h.writeDomainError(w, err, "update avatar")
		return
	}

	writeJSON(w, http.StatusOK, map[string]string{"avatarId": req.AvatarID})
}

type challengeResponse struct {
	ID              string `json:"id"`
	Challenger      string `json:"challenger"`
	ChallengerName  string `json:"challengerName"`
	Recipient       string `json:"recipient"`
	RecipientName   string `json:"recipientName"`
	TargetSteps     int64  `json:"targetSteps"`
	StakeTokens     int64  `json:"stakeTokens"`
	Date            string `json:"date"`
	Status          string `json:"status"`
	ChallengerSteps int64  `json:"challengerSteps"`
	RecipientSteps  int64  `json:"recipientSteps"`
	Winner          string `json:"winner,omitempty"`
	DeclinedBy      string `json:"declinedBy,omitempty"`
	Notification    string `json:"notification,omitempty"`
	CreatedAt       string `json:"createdAt"`
}

func toChallengeResponse(c *model.Challenge) challengeResponse {
	return challengeResponse{
		ID:              c.ID.String(),
		Challenger:      c.Challenger,
		ChallengerName:  c.ChallengerName,
		Recipient:       c.Recipient,
		RecipientName:   c.RecipientName,
		TargetSteps:     c.TargetSteps,
		StakeTokens:     c.StakeTokens,
		Date:            c.ChallengeDate.Format("2006-01-02"),
		Status:          string(c.Status),
		ChallengerSteps: c.ChallengerSteps,
		RecipientSteps:  c.RecipientSteps,
		Winner:          c.Winner,
		DeclinedBy:      c.DeclinedBy,
		Notification:    c.Notification,
		CreatedAt:       c.CreatedAt.Format(time.RFC3339),
	}
}

type createChallengeRequest struct {
	Challenger     string `json:"challenger"`
	ChallengerName string `json:"challengerName"`
	Recipient      string `json:"recipient"`
	RecipientName  string `json:"recipientName"`
	TargetSteps    int64  `json:"targetSteps"`
	StakeTokens    int64  `json:"stakeTokens"`
	Date           string `json:"date"`
}

// CreateChallenge создаёт новый челлендж на шаги.
func (h *Handler) CreateChallenge(w http.ResponseWriter, r *http.Request) {
	var req createChallengeRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, http.StatusText(http.StatusBadRequest), http.StatusBadRequest)
		return
	}

	date, err := validation.ParseChallengeDate(req.Date)
	if err != nil {
		http.Error(w, http.StatusText(http.StatusBadRequest), http.StatusBadRequest)
		return
	}

	c, err := h.service.CreateChallenge(r.Context(),
		req.Challenger, req.ChallengerName, req.Recipient, req.RecipientName,
		req.TargetSteps, req.StakeTokens, date,
	)
	if err != nil {
		if isValidationError(err) {
			http.Error(w, err.Error(), http.StatusUnprocessableEntity)
			return
		}
		h.writeDomainError(w, err, "create challenge")
		return
	}

	writeJSON(w, http.StatusCreated, toChallengeResponse(c))
}

func isValidationError(err error) bool {
	return errors.Is(err, validation.ErrEmptyParticipant) ||
		errors.Is(err, validation.ErrSameParticipants) ||
		errors.Is(err, validation.ErrNonPositiveSteps) ||
		errors.Is(err, validation.ErrNonPositiveStake)
}

func challengeID(r *http.Request) (uuid.UUID, bool) {
	id, err := uuid.Parse(chi.URLParam(r, "id"))
	return id, err == nil
}

// AcceptChallenge принимает входящий челлендж.
func (h *Handler) AcceptChallenge(w http.ResponseWriter, r *http.Request) {
	id, ok := challengeID(r)
	if !ok {
		http.Error(w, http.StatusText(http.StatusBadRequest), http.StatusBadRequest)
		return
	}

	c, err := h.service.AcceptChallenge(r.Context(), id)
	if err != nil {
		h.writeDomainError(w, err, "accept challenge")
		return
	}

	writeJSON(w, http.StatusOK, toChallengeResponse(c))
}

// DeclineChallenge отклоняет входящий pending-челлендж.
func (h *Handler) DeclineChallenge(w http.ResponseWriter, r *http.Request) {
	id, ok := challengeID(r)
	if !ok {
		http.Error(w, http.StatusText(http.StatusBadRequest), http.StatusBadRequest)
		return
	}

	c, err := h.service.DeclineChallenge(r.Context(), id)
	if err != nil {
		h.writeDomainError(w, err, "decline challenge")
		return
	}

	writeJSON(w, http.StatusOK, toChallengeResponse(c))
}

type declineAcceptedRequest struct {
	ChallengeID string `json:"challengeId"`
	Email       string `json:"email"`
}

// DeclineAcceptedChallenge отклоняет уже принятый челлендж до его даты.
func (h *Handler) DeclineAcceptedChallenge(w http.ResponseWriter, r *http.Request) {
	var req declineAcceptedRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, http.StatusText(http.StatusBadRequest), http.StatusBadRequest)
		return
	}

	id, err := uuid.Parse(req.ChallengeID)
	if err != nil {
		http.Error(w, http.StatusText(http.StatusBadRequest), http.StatusBadRequest)
		return
	}

	c, err := h.service.DeclineAcceptedChallenge(r.Context(), id, req.Email)
	if err != nil {
		h.writeDomainError(w, err, "decline accepted challenge")
		return
	}

	writeJSON(w, http.StatusOK, toChallengeResponse(c))
}

type progressRequest struct {
	Email        string `json:"email"`
	CurrentSteps int64  `json:"currentSteps"`
}

type progressResponse struct {
	Challenge         challengeResponse `json:"challenge"`
	Completed         bool              `json:"completed"`
	Winner            string            `json:"winner,omitempty"`
	SettlementSkipped bool              `json:"settlementSkipped,omitempty"`
}

// ReportChallengeProgress принимает отчёт участника о шагах в челлендже.
func (h *Handler) ReportChallengeProgress(w http.ResponseWriter, r *http.Request) {
	id, ok := challengeID(r)
	if !ok {
		http.Error(w, http.StatusText(http.StatusBadRequest), http.StatusBadRequest)
		return
	}

	var req progressRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, http.StatusText(http.StatusBadRequest), http.StatusBadRequest)
		return
	}

	res, err := h.service.ReportChallengeProgress(r.Context(), id, req.Email, req.CurrentSteps)
	if err != nil {
		h.writeDomainError(w, err, "report challenge progress")
		return
	}

	if res.SettlementSkipped {
		h.logger.Warn("settlement skipped for completed challenge",
			zap.String("challengeID", id.String()),
			zap.String("winner", res.Winner),
		)
	}

	writeJSON(w, http.StatusOK, progressResponse{
		Challenge:         toChallengeResponse(res.Challenge),
		Completed:         res.Completed,
		Winner:            res.Winner,
		SettlementSkipped: res.SettlementSkipped,
	})
}

func (h *Handler) writeChallengeList(w http.ResponseWriter, challenges []model.Challenge, err error, op string) {
	if err != nil {
		h.writeDomainError(w, err, op)
		return
	}

	if len(challenges) == 0 {
		w.WriteHeader(http.StatusNoContent)
		return
	}

	resp := make([]challengeResponse, 0, len(challenges))
	for i := range challenges {
		resp = append(resp, toChallengeResponse(&challenges[i]))
	}
	writeJSON(w, http.StatusOK, resp)
}

// ListPendingChallenges возвращает pending-челленджи аккаунта.
func (h *Handler) ListPendingChallenges(w http.ResponseWriter, r *http.Request) {
	email := chi.URLParam(r, "email")
	challenges, err := h.service.ListPendingChallenges(r.Context(), email)
	h.writeChallengeList(w, challenges, err, "list pending challenges")
}

// ListIncomingChallenges возвращает входящие запросы на челлендж.
func (h *Handler) ListIncomingChallenges(w http.ResponseWriter, r *http.Request) {
	email := chi.URLParam(r, "email")
	challenges, err := h.service.ListIncomingChallenges(r.Context(), email)
	h.writeChallengeList(w, challenges, err, "list incoming challenges")
}

// ListUpcomingChallenges возвращает принятые челленджи аккаунта.
func (h *Handler) ListUpcomingChallenges(w http.ResponseWriter, r *http.Request) {
	email := chi.URLParam(r, "email")
	challenges, err := h.service.ListUpcomingChallenges(r.Context(), email)
	h.writeChallengeList(w, challenges, err, "list upcoming challenges")
}

// ListChallengerChallenges возвращает челленджи, созданные аккаунтом.
func (h *Handler) ListChallengerChallenges(w http.ResponseWriter, r *http.Request) {
	email := chi.URLParam(r, "email")
	challenges, err := h.service.ListChallengerChallenges(r.Context(), email)
	h.writeChallengeList(w, challenges, err, "list challenger challenges")
}

// DeleteChallenge скрывает челлендж из истории участника.
func (h *Handler) DeleteChallenge(w http.ResponseWriter, r *http.Request) {
	id, ok := challengeID(r)
	if !ok {
		http.Error(w, http.StatusText(http.StatusBadRequest), http.StatusBadRequest)
		return
	}
	email := chi.URLParam(r, "email")

	if err := h.service.DeleteChallenge(r.Context(), id, email); err != nil {
		h.writeDomainError(w, err, "delete challenge")
		return
	}

	writeJSON(w, http.StatusOK, map[string]string{"message": "challenge deleted"})
}

// DeleteAllCompleted скрывает все завершённые челленджи участника.
func (h *Handler) DeleteAllCompleted(w http.ResponseWriter, r *http.Request) {
	email := chi.URLParam(r, "email")

	if err := h.service.DeleteAllCompleted(r.Context(), email); err != nil {
		h.writeDomainError(w, err, "delete all completed")
		return
	}

	writeJSON(w, http.StatusOK, map[string]string{"message": "completed challenges deleted"})
}

type cashoutRequest struct {
	Email  string `json:"email"`
	Tokens int64  `json:"tokens"`
}

type paymentResponse struct {
	Amount        decimal.Decimal `json:"amount"`
	Tokens        int64           `json:"tokens"`
	TransactionID string          `json:"transactionId"`
	Currency      string          `json:"currency"`
	Timestamp     string          `json:"timestamp"`
}

func toPaymentResponse(p *model.PaymentRecord) paymentResponse {
	return paymentResponse{
		Amount:        p.Amount,
		Tokens:        p.Tokens,
		TransactionID: p.TransactionID,
		Currency:      p.Currency,
		Timestamp:     p.CreatedAt.Format(time.RFC3339),
	}
}

type cashoutResponse struct {
	Payment         paymentResponse `json:"payment"`
	RemainingTokens int64           `json:"remainingTokens"`
}

// Cashout обменивает токены аккаунта на симулируемую выплату.
func (h *Handler) Cashout(w http.ResponseWriter, r *http.Request) {
	var req cashoutRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, http.StatusText(http.StatusBadRequest), http.StatusBadRequest)
		return
	}

	if req.Tokens <= 0 {
		http.Error(w, http.StatusText(http.StatusBadRequest), http.StatusBadRequest)
		return
	}

	payment, remaining, err := h.service.Cashout(r.Context(), req.Email, req.Tokens)
	if err != nil {
		h.writeDomainError(w, err, "cashout")
		return
	}

	writeJSON(w, http.StatusOK, cashoutResponse{
		Payment:         toPaymentResponse(payment),
		RemainingTokens: remaining,
	})
}

// PaymentHistory возвращает историю выплат аккаунта.
func (h *Handler) PaymentHistory(w http.ResponseWriter, r *http.Request) {
	email := chi.URLParam(r, "email")

	payments, err := h.service.PaymentHistory(r.Context(), email)
	if err != nil {
		h.writeDomainError(w, err, "payment history")
		return
	}

	resp := make([]paymentResponse, 0, len(payments))
	for i := range payments {
		resp = append(resp, toPaymentResponse(&payments[i]))
	}
	writeJSON(w, http.StatusOK, resp)
}

type exchangeCodeRequest struct {
	Code string `json:"code"`
}

// ExchangeCode обменивает код авторизации Google на токены доступа.
func (h *Handler) ExchangeCode(w http.ResponseWriter, r *http.Request) {
	var req exchangeCodeRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, http.StatusText(http.StatusBadRequest), http.StatusBadRequest)
		return
	}

	tokens, err := h.service.ExchangeCode(r.Context(), req.Code)
	if err != nil {
		h.logger.Error("exchange code error", zap.Error(err))
		http.Error(w, http.StatusText(http.StatusBadGateway), http.StatusBadGateway)
		return
	}

	writeJSON(w, http.StatusOK, tokens)
}

type refreshTokenRequest struct {
	RefreshToken string `json:"refresh_token"`
}

// RefreshToken обновляет токен доступа Google.
func (h *Handler) RefreshToken(w http.ResponseWriter, r *http.Request) {
	var req refreshTokenRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, http.StatusText(http.StatusBadRequest), http.StatusBadRequest)
		return
	}

	tokens, err := h.service.RefreshToken(r.Context(), req.RefreshToken)
	if err != nil {
		h.logger.Error("refresh token error", zap.Error(err))
		http.Error(w, http.StatusText(http.StatusBadGateway), http.StatusBadGateway)
		return
	}

	writeJSON(w, http.StatusOK, tokens)
}
