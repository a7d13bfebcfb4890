package handler

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/fitquest/fitquest-system/internal/model"
	"github.com/fitquest/fitquest-system/internal/oauth"
	"github.com/fitquest/fitquest-system/internal/repository"
	"github.com/fitquest/fitquest-system/internal/service"
)

type stubService struct {
	balance    *model.TokenBalance
	balanceErr error

	leaderboard []model.LeaderboardEntry

	locationErr error
	avatarErr   error

	payment     *model.PaymentRecord
	remaining   int64
	cashoutErr  error
	payments    []model.PaymentRecord
	paymentsErr error

	challenge    *model.Challenge
	challengeErr error

	progress    *service.ProgressResult
	progressErr error

	challenges    []model.Challenge
	challengesErr error

	deleteErr error

	tokens    *oauth.TokenResponse
	tokensErr error
}

func (s *stubService) ReportActivity(ctx context.Context, email, name string, steps, calories int64) (*model.TokenBalance, error) {
	return s.balance, s.balanceErr
}

func (s *stubService) GetTokens(ctx context.Context, email string) (*model.TokenBalance, error) {
	return s.balance, s.balanceErr
}

func (s *stubService) Leaderboard(ctx context.Context) ([]model.LeaderboardEntry, error) {
	return s.leaderboard, nil
}

func (s *stubService) UpdateLocation(ctx context.Context, email string, latitude, longitude float64) error {
	return s.locationErr
}

func (s *stubService) PlayersLocation(ctx context.Context) ([]model.PlayerLocation, error) {
	return nil, nil
}

func (s *stubService) UpdateAvatar(ctx context.Context, email, avatarID string) error {
	return s.avatarErr
}

func (s *stubService) Cashout(ctx context.Context, email string, tokens int64) (*model.PaymentRecord, int64, error) {
	return s.payment, s.remaining, s.cashoutErr
}

func (s *stubService) PaymentHistory(ctx context.Context, email string) ([]model.PaymentRecord, error) {
	return s.payments, s.paymentsErr
}

func (s *stubService) CreateChallenge(ctx context.Context, challenger, challengerName, recipient, recipientName string, targetSteps, stake int64, date time.Time) (*model.Challenge, error) {
	return s.challenge, s.challengeErr
}

func (s *stubService) AcceptChallenge(ctx context.Context, id uuid.UUID) (*model.Challenge, error) {
	return s.challenge, s.challengeErr
}

func (s *stubService) DeclineChallenge(ctx context.Context, id uuid.UUID) (*model.Challenge, error) {
	return s.challenge, s.challengeErr
}

func (s *stubService) DeclineAcceptedChallenge(ctx context.Context, id uuid.UUID, email string) (*model.Challenge, error) {
	return s.challenge, s.challengeErr
}

func (s *stubService) ReportChallengeProgress(ctx context.Context, id uuid.UUID, email string, steps int64) (*service.ProgressResult, error) {
	return s.progress, s.progressErr
}

func (s *stubService) ListPendingChallenges(ctx context.Context, email string) ([]model.Challenge, error) {
	return s.challenges, s.challengesErr
}

func (s *stubService) ListIncomingChallenges(ctx context.Context, email string) ([]model.Challenge, error) {
	return s.challenges, s.challengesErr
}

func (s *stubService) ListUpcomingChallenges(ctx context.Context, email string) ([]model.Challenge, error) {
	return s.challenges, s.challengesErr
}

func (s *stubService) ListChallengerChallenges(ctx context.Context, email string) ([]model.Challenge, error) {
	return s.challenges, s.challengesErr
}

func (s *stubService) DeleteChallenge(ctx context.Context, id uuid.UUID, email string) error {
	return s.deleteErr
}

func (s *stubService) DeleteAllCompleted(ctx context.Context, email string) error {
	return s.deleteErr
}

func (s *stubService) ExchangeCode(ctx context.Context, code string) (*oauth.TokenResponse, error) {
	return s.tokens, s.tokensErr
}

func (s *stubService) RefreshToken(ctx context.Context, refreshToken string) (*oauth.TokenResponse, error) {
	return s.tokens, s.tokensErr
}

func newTestRouter(t *testing.T, svc Service) http.Handler {
	t.Helper()

	logger, err := zap.NewDevelopment()
	if err != nil {
		t.Fatalf("new logger: %v", err)
	}

	return NewHandler(svc, logger).SetupRouter()
}

func testChallenge() *model.Challenge {
	return &model.Challenge{
		ID:             uuid.New(),
		Challenger:     "a@x.com",
		ChallengerName: "A",
		Recipient:      "b@x.com",
		RecipientName:  "B",
		TargetSteps:    5000,
		StakeTokens:    50,
		ChallengeDate:  time.Date(2025, 6, 15, 0, 0, 0, 0, time.UTC),
		Status:         model.ChallengeStatusPending,
		CreatedAt:      time.Now().UTC(),
	}
}

func TestReportActivity_Success(t *testing.T) {
	svc := &stubService{
		balance: &model.TokenBalance{TodayTokens: 30, TotalTokens: 120},
	}
	router := newTestRouter(t, svc)

	body, _ := json.Marshal(activityRequest{
		Email:    "a@x.com",
		Name:     "A",
		Steps:    2500,
		Calories: 600,
	})

	req := httptest.NewRequest(http.MethodPost, "/api/fitness/activity", bytes.NewReader(body))
	rec := httptest.NewRecorder()

	router.ServeHTTP(rec, req)

	res := rec.Result()
	if res.StatusCode != http.StatusOK {
		t.Fatalf("status = %d, want %d", res.StatusCode, http.StatusOK)
	}

	var balance model.TokenBalance
	if err := json.NewDecoder(res.Body).Decode(&balance); err != nil {
		t.Fatalf("decode response: %v", err)
	}
	if balance.TodayTokens != 30 || balance.TotalTokens != 120 {
		t.Fatalf("balance = %+v, want today 30 total 120", balance)
	}
}

func TestReportActivity_BadRequest(t *testing.T) {
	router := newTestRouter(t, &stubService{})

	req := httptest.NewRequest(http.MethodPost, "/api/fitness/activity", strings.NewReader("not json"))
	rec := httptest.NewRecorder()

	router.ServeHTTP(rec, req)

	if rec.Result().StatusCode != http.StatusBadRequest {
		t.Fatalf("status = %d, want %d", rec.Result().StatusCode, http.StatusBadRequest)
	}
}

func TestGetTokens_NotFound(t *testing.T) {
	svc := &stubService{
		balanceErr: repository.ErrAccountNotFound,
	}
	router := newTestRouter(t, svc)

	req := httptest.NewRequest(http.MethodGet, "/api/fitness/tokens/ghost@x.com", nil)
	rec := httptest.NewRecorder()

	router.ServeHTTP(rec, req)

	if rec.Result().StatusCode != http.StatusNotFound {
		t.Fatalf("status = %d, want %d", rec.Result().StatusCode, http.StatusNotFound)
	}
}

func TestCreateChallenge_DuplicatePending(t *testing.T) {
	svc := &stubService{
		challengeErr: repository.ErrDuplicatePending,
	}
	router := newTestRouter(t, svc)

	body, _ := json.Marshal(createChallengeRequest{
		Challenger:  "a@x.com",
		Recipient:   "b@x.com",
		TargetSteps: 5000,
		StakeTokens: 50,
		Date:        "2025-06-15",
	})

	req := httptest.NewRequest(http.MethodPost, "/api/challenges", bytes.NewReader(body))
	rec := httptest.NewRecorder()

	router.ServeHTTP(rec, req)

	if rec.Result().StatusCode != http.StatusConflict {
		t.Fatalf("status = %d, want %d", rec.Result().StatusCode, http.StatusConflict)
	}
}

func TestCreateChallenge_Success(t *testing.T) {
	c := testChallenge()
	svc := &stubService{challenge: c}
	router := newTestRouter(t, svc)

	body, _ := json.Marshal(createChallengeRequest{
		Challenger:     "a@x.com",
		ChallengerName: "A",
		Recipient:      "b@x.com",
		RecipientName:  "B",
		TargetSteps:    5000,
		StakeTokens:    50,
		Date:           "2025-06-15",
	})

	req := httptest.NewRequest(http.MethodPost, "/api/challenges", bytes.NewReader(body))
	rec := httptest.NewRecorder()

	router.ServeHTTP(rec, req)

	res := rec.Result()
	if res.StatusCode != http.StatusCreated {
		t.Fatalf("status = %d, want %d", res.StatusCode, http.StatusCreated)
	}

	var resp challengeResponse
	if err := json.NewDecoder(res.Body).Decode(&resp); err != nil {
		t.Fatalf("decode response: %v", err)
	}
	if resp.ID != c.ID.String() || resp.Status != "pending" {
		t.Fatalf("response = %+v, want id %s status pending", resp, c.ID)
	}
	if resp.Date != "2025-06-15" {
		t.Fatalf("date = %q, want 2025-06-15", resp.Date)
	}
}

func TestCashout_InsufficientTokens(t *testing.T) {
	svc := &stubService{
		cashoutErr: repository.ErrInsufficientTokens,
	}
	router := newTestRouter(t, svc)

	body, _ := json.Marshal(cashoutRequest{Email: "a@x.com", Tokens: 100})

	req := httptest.NewRequest(http.MethodPost, "/api/cashout", bytes.NewReader(body))
	rec := httptest.NewRecorder()

	router.ServeHTTP(rec, req)

	if rec.Result().StatusCode != http.StatusPaymentRequired {
		t.Fatalf("status = %d, want %d", rec.Result().StatusCode, http.StatusPaymentRequired)
	}
}

func TestDeclineAccepted_Forbidden(t *testing.T) {
	svc := &stubService{
		challengeErr: repository.ErrNotParticipant,
	}
	router := newTestRouter(t, svc)

	body, _ := json.Marshal(declineAcceptedRequest{
		ChallengeID: uuid.NewString(),
		Email:       "stranger@x.com",
	})

	req := httptest.NewRequest(http.MethodPost, "/api/challenges/decline-accepted", bytes.NewReader(body))
	rec := httptest.NewRecorder()

	router.ServeHTTP(rec, req)

	if rec.Result().StatusCode != http.StatusForbidden {
		t.Fatalf("status = %d, want %d", rec.Result().StatusCode, http.StatusForbidden)
	}
}

func TestDeclineAccepted_InvalidState(t *testing.T) {
	svc := &stubService{
		challengeErr: repository.ErrInvalidChallengeState,
	}
	router := newTestRouter(t, svc)

	body, _ := json.Marshal(declineAcceptedRequest{
		ChallengeID: uuid.NewString(),
		Email:       "a@x.com",
	})

	req := httptest.NewRequest(http.MethodPost, "/api/challenges/decline-accepted", bytes.NewReader(body))
	rec := httptest.NewRecorder()

	router.ServeHTTP(rec, req)

	if rec.Result().StatusCode != http.StatusConflict {
		t.Fatalf("status = %d, want %d", rec.Result().StatusCode, http.StatusConflict)
	}
}

func TestListPendingChallenges_NoContent(t *testing.T) {
	router := newTestRouter(t, &stubService{})

	req := httptest.NewRequest(http.MethodGet, "/api/challenges/pending/a@x.com", nil)
	rec := httptest.NewRecorder()

	router.ServeHTTP(rec, req)

	if rec.Result().StatusCode != http.StatusNoContent {
		t.Fatalf("status = %d, want %d", rec.Result().StatusCode, http.StatusNoContent)
	}
}

func TestReportChallengeProgress_ReturnsWinner(t *testing.T) {
	c := testChallenge()
	c.Status = model.ChallengeStatusCompleted
	c.Winner = "a@x.com"
	c.ChallengerSteps = 5000

	svc := &stubService{
		progress: &service.ProgressResult{
			Challenge: c,
			Completed: true,
			Winner:    "a@x.com",
		},
	}
	router := newTestRouter(t, svc)

	body, _ := json.Marshal(progressRequest{Email: "a@x.com", CurrentSteps: 5000})

	req := httptest.NewRequest(http.MethodPost, "/api/challenges/"+c.ID.String()+"/progress", bytes.NewReader(body))
	rec := httptest.NewRecorder()

	router.ServeHTTP(rec, req)

	res := rec.Result()
	if res.StatusCode != http.StatusOK {
		t.Fatalf("status = %d, want %d", res.StatusCode, http.StatusOK)
	}

	var resp progressResponse
	if err := json.NewDecoder(res.Body).Decode(&resp); err != nil {
		t.Fatalf("decode response: %v", err)
	}
	if !resp.Completed || resp.Winner != "a@x.com" {
		t.Fatalf("response = %+v, want completed with winner a@x.com", resp)
	}
}

func TestReportChallengeProgress_BadChallengeID(t *testing.T) {
	router := newTestRouter(t, &stubService{})

	body, _ := json.Marshal(progressRequest{Email: "a@x.com", CurrentSteps: 5000})

	req := httptest.NewRequest(http.MethodPost, "/api/challenges/not-a-uuid/progress", bytes.NewReader(body))
	rec := httptest.NewRecorder()

	router.ServeHTTP(rec, req)

	if rec.Result().StatusCode != http.StatusBadRequest {
		t.Fatalf("status = %d, want %d", rec.Result().StatusCode, http.StatusBadRequest)
	}
}

func TestDeleteChallenge_Success(t *testing.T) {
	router := newTestRouter(t, &stubService{})

	req := httptest.NewRequest(http.MethodDelete, "/api/challenges/"+uuid.NewString()+"/a@x.com", nil)
	rec := httptest.NewRecorder()

	router.ServeHTTP(rec, req)

	if rec.Result().StatusCode != http.StatusOK {
		t.Fatalf("status = %d, want %d", rec.Result().StatusCode, http.StatusOK)
	}
}

func TestExchangeCode_BadGateway(t *testing.T) {
	svc := &stubService{
		tokensErr: context.DeadlineExceeded,
	}
	router := newTestRouter(t, svc)

	body, _ := json.Marshal(exchangeCodeRequest{Code: "auth-code"})

	req := httptest.NewRequest(http.MethodPost, "/api/oauth/exchange", bytes.NewReader(body))
	rec := httptest.NewRecorder()

	router.ServeHTTP(rec, req)

	if rec.Result().StatusCode != http.StatusBadGateway {
		t.Fatalf("status = %d, want %d", rec.Result().StatusCode, http.StatusBadGateway)
	}
}
