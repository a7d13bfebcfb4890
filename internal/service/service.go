// Package service реализует бизнес-логику сервиса FitQuest.
package service

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/segmentio/ksuid"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"

	"github.com/fitquest/fitquest-system/internal/model"
	"github.com/fitquest/fitquest-system/internal/oauth"
	"github.com/fitquest/fitquest-system/internal/repository"
	"github.com/fitquest/fitquest-system/internal/token"
	"github.com/fitquest/fitquest-system/internal/validation"
)

// cashoutCurrency — валюта симулируемых выплат.
const cashoutCurrency = "INR"

// Repository описывает контракт доступа к данным, используемый сервисом.
type Repository interface {
	Close() error
	UpsertDailyActivity(ctx context.Context, email, name string, steps, calories, todayTokens int64) (*model.TokenBalance, error)
	GetTokens(ctx context.Context, email string) (*model.TokenBalance, error)
	ListAccountsBySteps(ctx context.Context) ([]model.Account, error)
	UpdateLocation(ctx context.Context, email string, latitude, longitude float64) error
	ListAccountsWithLocation(ctx context.Context) ([]model.Account, error)
	UpdateAvatar(ctx context.Context, email, avatarID string) error
	CreateCashout(ctx context.Context, email string, tokens int64, amount decimal.Decimal, transactionID, currency string) (*model.PaymentRecord, int64, error)
	GetPaymentsByAccount(ctx context.Context, email string) ([]model.PaymentRecord, error)
	CreateChallenge(ctx context.Context, c *model.Challenge) error
	GetChallenge(ctx context.Context, id uuid.UUID) (*model.Challenge, error)
	AcceptChallenge(ctx context.Context, id uuid.UUID) (*model.Challenge, error)
	DeclineChallenge(ctx context.Context, id uuid.UUID, notification string) (*model.Challenge, error)
	DeclineAcceptedChallenge(ctx context.Context, id uuid.UUID, declinedBy string) (*model.Challenge, error)
	UpdateChallengeSteps(ctx context.Context, id uuid.UUID, email string, steps int64) (*model.Challenge, error)
	CompleteAndSettle(ctx context.Context, id uuid.UUID, winner, loser string, stake int64) (bool, error)
	ListPendingChallenges(ctx context.Context, email string) ([]model.Challenge, error)
	ListIncomingChallenges(ctx context.Context, email string) ([]model.Challenge, error)
	ListUpcomingChallenges(ctx context.Context, email string) ([]model.Challenge, error)
	ListChallengerChallenges(ctx context.Context, email string) ([]model.Challenge, error)
	SoftDeleteChallenge(ctx context.Context, id uuid.UUID, email string) error
	SoftDeleteCompletedChallenges(ctx context.Context, email string) error
}

// Service содержит бизнес-логику сервиса FitQuest.
type Service struct {
	repo        Repository
	oauthClient *oauth.Client
	logger      *zap.Logger
	tokenRate   decimal.Decimal

	now func() time.Time
}

// NewService создаёт новый сервис с указанным репозиторием, клиентом OAuth
// и курсом обмена токенов на валюту выплат.
func NewService(repo Repository, oauthClient *oauth.Client, logger *zap.Logger, tokenRate decimal.Decimal) *Service {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Service{
		repo:        repo,
		oauthClient: oauthClient,
		logger:      logger,
		tokenRate:   tokenRate,
		now:         time.Now,
	}
}

// Close закрывает ресурсы сервиса.
func (s *Service) Close() error {
	if s.repo != nil {
		return s.repo.Close()
	}
	return nil
}

// ReportActivity применяет отчёт о дневной активности: пересчитывает дневные
// токены и пополняет накопленный баланс на положительную разницу. Повторный
// отчёт с меньшими значениями уже начисленное не отнимает.
func (s *Service) ReportActivity(ctx context.Context, email, name string, steps, calories int64) (*model.TokenBalance, error) {
	todayTokens := token.Daily(steps, calories)
	return s.repo.UpsertDailyActivity(ctx, email, name, steps, calories, todayTokens)
}

// GetTokens возвращает баланс токенов аккаунта.
func (s *Service) GetTokens(ctx context.Context, email string) (*model.TokenBalance, error) {
	return s.repo.GetTokens(ctx, email)
}

// Leaderboard возвращает таблицу лидеров по шагам с присвоенными местами.
func (s *Service) Leaderboard(ctx context.Context) ([]model.LeaderboardEntry, error) {
	accounts, err := s.repo.ListAccountsBySteps(ctx)
	if err != nil {
		return nil, err
	}

	entries := make([]model.LeaderboardEntry, 0, len(accounts))
	for i, a := range accounts {
		entries = append(entries, model.LeaderboardEntry{
			Rank:     i + 1,
			Name:     a.Name,
			Email:    a.Email,
			Steps:    a.Steps,
			Calories: a.Calories,
		})
	}
	return entries, nil
}

// UpdateLocation сохраняет координаты игрока.
func (s *Service) UpdateLocation(ctx context.Context, email string, latitude, longitude float64) error {
	return s.repo.UpdateLocation(ctx, email, latitude, longitude)
}

// PlayersLocation возвращает координаты игроков, сообщивших своё положение.
func (s *Service) PlayersLocation(ctx context.Context) ([]model.PlayerLocation, error) {
	accounts, err := s.repo.ListAccountsWithLocation(ctx)
	if err != nil {
		return nil, err
	}

	res := make([]model.PlayerLocation, 0, len(accounts))
	for _, a := range accounts {
		if a.Latitude == nil || a.Longitude == nil {
			continue
		}
		res = append(res, model.PlayerLocation{
			Email:          a.Email,
			Name:           a.Name,
			Latitude:       *a.Latitude,
			Longitude:      *a.Longitude,
			Steps:          a.Steps,
			Calories:       a.Calories,
			ProfilePicture: a.ProfilePicture,
			AvatarID:       a.AvatarID,
		})
	}
	return res, nil
}

// UpdateAvatar сохраняет выбранный аватар аккаунта.
func (s *Service) UpdateAvatar(ctx context.Context, email, avatarID string) error {
	return s.repo.UpdateAvatar(ctx, email, avatarID)
}

// Cashout обменивает токены на симулируемую выплату. Сумма считается по курсу
// tokenRate за токен с округлением до двух знаков. Проверка и списание баланса
// атомарны на уровне репозитория.
func (s *Service) Cashout(ctx context.Context, email string, tokens int64) (*model.PaymentRecord, int64, error) {
	if tokens <= 0 {
		return nil, 0, errors.New("cashout amount must be positive")
	}

	amount := s.tokenRate.Mul(decimal.NewFromInt(tokens)).Round(2)
	transactionID := "TXN_" + ksuid.New().String()

	return s.repo.CreateCashout(ctx, email, tokens, amount, transactionID, cashoutCurrency)
}

// PaymentHistory возвращает историю выплат аккаунта.
func (s *Service) PaymentHistory(ctx context.Context, email string) ([]model.PaymentRecord, error) {
	return s.repo.GetPaymentsByAccount(ctx, email)
}

// CreateChallenge создаёт новый челлендж между двумя аккаунтами.
// Имена сторон фиксируются в челлендже на момент создания.
func (s *Service) CreateChallenge(ctx context.Context, challenger, challengerName, recipient, recipientName string, targetSteps, stake int64, date time.Time) (*model.Challenge, error) {
	if err := validation.ValidateChallengeParams(challenger, recipient, targetSteps, stake); err != nil {
		return nil, err
	}

	c := &model.Challenge{
		ID:             uuid.New(),
		Challenger:     challenger,
		ChallengerName: challengerName,
		Recipient:      recipient,
		RecipientName:  recipientName,
		TargetSteps:    targetSteps,
		StakeTokens:    stake,
		ChallengeDate:  validation.TruncateToDay(date),
		Status:         model.ChallengeStatusPending,
		DeletedFor:     []string{},
	}

	if err := s.repo.CreateChallenge(ctx, c); err != nil {
		return nil, err
	}
	return c, nil
}

// AcceptChallenge принимает входящий челлендж. Проверка участника здесь
// сознательно не выполняется: поведение исходной системы сохранено.
func (s *Service) AcceptChallenge(ctx context.Context, id uuid.UUID) (*model.Challenge, error) {
	return s.repo.AcceptChallenge(ctx, id)
}

// DeclineChallenge отклоняет pending-челлендж и оставляет инициатору
// уведомление об отказе.
func (s *Service) DeclineChallenge(ctx context.Context, id uuid.UUID) (*model.Challenge, error) {
	c, err := s.repo.GetChallenge(ctx, id)
	if err != nil {
		return nil, err
	}

	notification := fmt.Sprintf("%s declined your challenge.", c.RecipientName)
	return s.repo.DeclineChallenge(ctx, id, notification)
}

// DeclineAcceptedChallenge отклоняет уже принятый челлендж. Разрешено только
// участникам и только из статуса accepted.
func (s *Service) DeclineAcceptedChallenge(ctx context.Context, id uuid.UUID, email string) (*model.Challenge, error) {
	c, err := s.repo.GetChallenge(ctx, id)
	if err != nil {
		return nil, err
	}
	if !c.IsParticipant(email) {
		return nil, repository.ErrNotParticipant
	}
	if c.Status != model.ChallengeStatusAccepted {
		return nil, repository.ErrInvalidChallengeState
	}

	return s.repo.DeclineAcceptedChallenge(ctx, id, email)
}

// ProgressResult описывает результат отчёта о прогрессе челленджа.
type ProgressResult struct {
	Challenge         *model.Challenge
	Completed         bool
	Winner            string
	SettlementSkipped bool
}

// ReportChallengeProgress сохраняет отчёт участника о шагах и при достижении
// цели завершает челлендж с переводом ставки. Завершение оценивается только
// для принятого челленджа в его календарную дату; повторные отчёты после
// завершения принимаются, но эффекта уже не имеют.
func (s *Service) ReportChallengeProgress(ctx context.Context, id uuid.UUID, email string, steps int64) (*ProgressResult, error) {
	c, err := s.repo.UpdateChallengeSteps(ctx, id, email, steps)
	if err != nil {
		return nil, err
	}

	res := &ProgressResult{
		Challenge: c,
		Completed: c.Status == model.ChallengeStatusCompleted,
		Winner:    c.Winner,
	}

	if c.Status != model.ChallengeStatusAccepted || !validation.SameDay(c.ChallengeDate, s.now()) {
		return res, nil
	}

	winner := token.Winner(c.Challenger, c.Recipient, c.ChallengerSteps, c.RecipientSteps, c.TargetSteps)
	if winner == "" {
		return res, nil
	}

	loser := c.Opponent(winner)
	settled, err := s.repo.CompleteAndSettle(ctx, id, winner, loser, c.StakeTokens)
	if err != nil {
		if !errors.Is(err, repository.ErrSettlementSkipped) {
			return nil, err
		}
		// Перевод пропущен из-за отсутствия аккаунта: завершение состоялось,
		// условие поднимается наверх как предупреждение, а не ошибка операции.
		res.SettlementSkipped = true
		s.logger.Warn("challenge settlement skipped",
			zap.String("challengeID", id.String()),
			zap.String("winner", winner),
			zap.String("loser", loser),
		)
	}

	if settled || res.SettlementSkipped {
		c.Status = model.ChallengeStatusCompleted
		c.Winner = winner
		res.Completed = true
		res.Winner = winner
		return res, nil
	}

	// Гонку на завершение выиграл параллельный отчёт: возвращаем актуальное состояние.
	fresh, err := s.repo.GetChallenge(ctx, id)
	if err != nil {
		return nil, err
	}
	res.Challenge = fresh
	res.Completed = fresh.Status == model.ChallengeStatusCompleted
	res.Winner = fresh.Winner
	return res, nil
}

// ListPendingChallenges возвращает pending-челленджи аккаунта.
func (s *Service) ListPendingChallenges(ctx context.Context, email string) ([]model.Challenge, error) {
	return s.repo.ListPendingChallenges(ctx, email)
}

// ListIncomingChallenges возвращает входящие запросы на челлендж.
func (s *Service) ListIncomingChallenges(ctx context.Context, email string) ([]model.Challenge, error) {
	return s.repo.ListIncomingChallenges(ctx, email)
}

// ListUpcomingChallenges возвращает принятые челленджи, ожидающие свою дату.
func (s *Service) ListUpcomingChallenges(ctx context.Context, email string) ([]model.Challenge, error) {
	return s.repo.ListUpcomingChallenges(ctx, email)
}

// ListChallengerChallenges возвращает челленджи, созданные аккаунтом.
func (s *Service) ListChallengerChallenges(ctx context.Context, email string) ([]model.Challenge, error) {
	return s.repo.ListChallengerChallenges(ctx, email)
}

// DeleteChallenge скрывает челлендж из истории участника. Сам челлендж
// не удаляется, пока на него может ссылаться вторая сторона.
func (s *Service) DeleteChallenge(ctx context.Context, id uuid.UUID, email string) error {
	c, err := s.repo.GetChallenge(ctx, id)
	if err != nil {
		return err
	}
	if !c.IsParticipant(email) {
		return repository.ErrNotParticipant
	}

	return s.repo.SoftDeleteChallenge(ctx, id, email)
}

// DeleteAllCompleted скрывает из истории участника все завершённые челленджи.
func (s *Service) DeleteAllCompleted(ctx context.Context, email string) error {
	return s.repo.SoftDeleteCompletedChallenges(ctx, email)
}

// ExchangeCode обменивает код авторизации Google на токены доступа.
func (s *Service) ExchangeCode(ctx context.Context, code string) (*oauth.TokenResponse, error) {
	if s.oauthClient == nil {
		return nil, errors.New("oauth client not configured")
	}
	return s.oauthClient.ExchangeCode(ctx, code)
}

// RefreshToken обновляет токен доступа по refresh-токену.
func (s *Service) RefreshToken(ctx context.Context, refreshToken string) (*oauth.TokenResponse, error) {
	if s.oauthClient == nil {
		return nil, errors.New("oauth client not configured")
	}
	return s.oauthClient.RefreshToken(ctx, refreshToken)
}
