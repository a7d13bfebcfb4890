// Package repository содержит реализацию доступа к данным в PostgreSQL.
package repository

import (
	"context"
	"embed"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgerrcode"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/jackc/pgx/v5/stdlib"
	"github.com/pressly/goose/v3"
	"github.com/shopspring/decimal"

	"github.com/fitquest/fitquest-system/internal/model"
)

//go:embed migrations/*.sql
var migrationsFS embed.FS

// ErrAccountNotFound возвращается, если аккаунт с указанным email не найден.
var (
	ErrAccountNotFound = errors.New("account not found")
	// ErrChallengeNotFound возвращается, если челлендж с указанным id не найден.
	ErrChallengeNotFound = errors.New("challenge not found")
	// ErrDuplicatePending возвращается при попытке создать второй pending-челлендж между той же парой участников.
	ErrDuplicatePending = errors.New("pending challenge already exists between these users")
	// ErrInsufficientTokens возвращается при попытке вывести больше токенов, чем есть на балансе.
	ErrInsufficientTokens = errors.New("insufficient tokens")
	// ErrNotParticipant возвращается, если действие выполняет не участник челленджа.
	ErrNotParticipant = errors.New("caller is not a participant of the challenge")
	// ErrInvalidChallengeState возвращается, если операция недопустима для текущего статуса челленджа.
	ErrInvalidChallengeState = errors.New("operation is not valid for current challenge status")
	// ErrSettlementSkipped возвращается, когда перевод ставки пропущен из-за отсутствия
	// аккаунта одной из сторон. Завершение челленджа при этом фиксируется.
	ErrSettlementSkipped = errors.New("settlement skipped: participant account missing")
)

// PostgresRepository предоставляет доступ к хранилищу данных в PostgreSQL.
type PostgresRepository struct {
	pool *pgxpool.Pool
}

// NewPostgresRepository создаёт новый репозиторий и инициализирует схему БД через миграции.
func NewPostgresRepository(dsn string) (*PostgresRepository, error) {
	cfg, err := pgxpool.ParseConfig(dsn)
	if err != nil {
		return nil, fmt.Errorf("parse pool config: %w", err)
	}

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	pool, err := pgxpool.NewWithConfig(ctx, cfg)
	if err != nil {
		return nil, fmt.Errorf("create pool: %w", err)
	}

	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		return nil, fmt.Errorf("ping database: %w", err)
	}

	r := &PostgresRepository{pool: pool}

	if err := r.runMigrations(ctx); err != nil {
		pool.Close()
		return nil, err
	}

	return r, nil
}

func (r *PostgresRepository) runMigrations(ctx context.Context) error {
	db := stdlib.OpenDBFromPool(r.pool)
	defer db.Close()

	goose.SetBaseFS(migrationsFS)

	if err := goose.SetDialect("postgres"); err != nil {
		return fmt.Errorf("set dialect: %w", err)
	}

	if err := goose.UpContext(ctx, db, "migrations"); err != nil {
		return fmt.Errorf("run migrations: %w", err)
	}

	return nil
}

func (r *PostgresRepository) withRetry(ctx context.Context, fn func() error) error {
	var err error
	delays := []time.Duration{1 * time.Second, 3 * time.Second, 5 * time.Second}

	for i := 0; i <= len(delays); i++ {
		err = fn()
		if err == nil {
			return nil
		}

		if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
			return err
		}

		// Ретраи имеют смысл для serialization failure и дедлоков,
		// с переподключением pgxpool справляется сам.
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) {
			if pgErr.Code == pgerrcode.SerializationFailure || pgErr.Code == pgerrcode.DeadlockDetected {
				if i < len(delays) {
					time.Sleep(delays[i])
					continue
				}
			}
		}

		if isConnectionError(err) {
			if i < len(delays) {
				time.Sleep(delays[i])
				continue
			}
		}

		break
	}
	return err
}

func isConnectionError(err error) bool {
	// Упрощенная проверка на ошибки соединения
	return strings.Contains(err.Error(), "connection refused") ||
		strings.Contains(err.Error(), "broken pipe") ||
		strings.Contains(err.Error(), "connection reset by peer")
}

// Close закрывает пул соединений с БД.
func (r *PostgresRepository) Close() error {
	r.pool.Close()
	return nil
}

// UpsertDailyActivity сохраняет дневную активность аккаунта и применяет правило
// начисления: today_tokens перезаписывается, а накопленный баланс растёт только
// на положительную разницу с предыдущим значением за день. Дельта вычисляется
// в одном условном UPDATE, поэтому параллельные отчёты не приводят к двойному
// начислению. Отсутствующий аккаунт создаётся с балансом, равным дневным токенам.
func (r *PostgresRepository) UpsertDailyActivity(ctx context.Context, email, name string, steps, calories, todayTokens int64) (*model.TokenBalance, error) {
	var balance model.TokenBalance

	err := r.withRetry(ctx, func() error {
		return r.pool.QueryRow(ctx,
			`INSERT INTO accounts (email, name, steps, calories, today_tokens, total_tokens)
			 VALUES ($1, $2, $3, $4, $5, $5)
			 ON CONFLICT (email) DO UPDATE
			 SET name = $2,
			     steps = $3,
			     calories = $4,
			     today_tokens = $5,
			     total_tokens = accounts.total_tokens + GREATEST($5 - accounts.today_tokens, 0)
			 RETURNING today_tokens, total_tokens`,
			email, name, steps, calories, todayTokens,
		).Scan(&balance.TodayTokens, &balance.TotalTokens)
	})
	if err != nil {
		return nil, fmt.Errorf("upsert activity: %w", err)
	}

	return &balance, nil
}

// GetTokens возвращает баланс токенов аккаунта.
func (r *PostgresRepository) GetTokens(ctx context.Context, email string) (*model.TokenBalance, error) {
	var balance model.TokenBalance
	err := r.pool.QueryRow(ctx,
		`SELECT today_tokens, total_tokens FROM accounts WHERE email = $1`,
		email,
	).Scan(&balance.TodayTokens, &balance.TotalTokens)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrAccountNotFound
		}
		return nil, fmt.Errorf("get tokens: %w", err)
	}
	return &balance, nil
}

// ListAccountsBySteps возвращает все аккаунты в порядке убывания шагов.
func (r *PostgresRepository) ListAccountsBySteps(ctx context.Context) ([]model.Account, error) {
	rows, err := r.pool.Query(ctx,
		`SELECT email, name, steps, calories FROM accounts ORDER BY steps DESC`,
	)
	if err != nil {
		return nil, fmt.Errorf("select accounts: %w", err)
	}
	defer rows.Close()

	var res []model.Account
	for rows.Next() {
		var a model.Account
		if err := rows.Scan(&a.Email, &a.Name, &a.Steps, &a.Calories); err != nil {
			return nil, fmt.Errorf("scan account: %w", err)
		}
		res = append(res, a)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("rows error: %w", err)
	}

	return res, nil
}

// UpdateLocation сохраняет координаты аккаунта.
func (r *PostgresRepository) UpdateLocation(ctx context.Context, email string, latitude, longitude float64) error {
	cmdTag, err := r.pool.Exec(ctx,
		`UPDATE accounts SET latitude = $2, longitude = $3 WHERE email = $1`,
		email, latitude, longitude,
	)
	if err != nil {
		return fmt.Errorf("update location: %w", err)
	}
	if cmdTag.RowsAffected() == 0 {
		return ErrAccountNotFound
	}
	return nil
}

// ListAccountsWithLocation возвращает аккаунты, сообщившие свои координаты.
func (r *PostgresRepository) ListAccountsWithLocation(ctx context.Context) ([]model.Account, error) {
	rows, err := r.pool.Query(ctx,
		`SELECT email, name, latitude, longitude, steps, calories, profile_picture, avatar_id
		 FROM accounts
		 WHERE latitude IS NOT NULL AND longitude IS NOT NULL`,
	)
	if err != nil {
		return nil, fmt.Errorf("select locations: %w", err)
	}
	defer rows.Close()

	var res []model.Account
	for rows.Next() {
		var a model.Account
		if err := rows.Scan(&a.Email, &a.Name, &a.Latitude, &a.Longitude, &a.Steps, &a.Calories, &a.ProfilePicture, &a.AvatarID); err != nil {
			return nil, fmt.Errorf("scan account: %w", err)
		}
		res = append(res, a)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("rows error: %w", err)
	}

	return res, nil
}

// UpdateAvatar сохраняет идентификатор аватара аккаунта.
func (r *PostgresRepository) UpdateAvatar(ctx context.Context, email, avatarID string) error {
	cmdTag, err := r.pool.Exec(ctx,
		`UPDATE accounts SET avatar_id = $2 WHERE email = $1`,
		email, avatarID,
	)
	if err != nil {
		return fmt.Errorf("update avatar: %w", err)
	}
	if cmdTag.RowsAffected() == 0 {
		return ErrAccountNotFound
	}
	return nil
}

// CreateCashout списывает токены и сохраняет запись о выплате. Строка аккаунта
// блокируется на время транзакции, поэтому параллельные списания и расчёты
// по челленджам не могут увести баланс в минус.
func (r *PostgresRepository) CreateCashout(ctx context.Context, email string, tokens int64, amount decimal.Decimal, transactionID, currency string) (*model.PaymentRecord, int64, error) {
	tx, err := r.pool.Begin(ctx)
	if err != nil {
		return nil, 0, fmt.Errorf("begin tx: %w", err)
	}
	defer tx.Rollback(ctx)

	var total int64
	err = tx.QueryRow(ctx,
		`SELECT total_tokens FROM accounts WHERE email = $1 FOR UPDATE`,
		email,
	).Scan(&total)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, 0, ErrAccountNotFound
		}
		return nil, 0, fmt.Errorf("lock account: %w", err)
	}

	if tokens > total {
		return nil, 0, ErrInsufficientTokens
	}

	_, err = tx.Exec(ctx,
		`UPDATE accounts SET total_tokens = total_tokens - $2 WHERE email = $1`,
		email, tokens,
	)
	if err != nil {
		return nil, 0, fmt.Errorf("decrement tokens: %w", err)
	}

	record := model.PaymentRecord{
		Amount:        amount,
		Tokens:        tokens,
		TransactionID: transactionID,
		Currency:      currency,
	}

	err = tx.QueryRow(ctx,
		`INSERT INTO payments (account_email, amount, tokens, transaction_id, currency)
		 VALUES ($1, $2, $3, $4, $5)
		 RETURNING created_at`,
		email, amount, tokens, transactionID, currency,
	).Scan(&record.CreatedAt)
	if err != nil {
		return nil, 0, fmt.Errorf("insert payment: %w", err)
	}

	if err := tx.Commit(ctx); err != nil {
		return nil, 0, fmt.Errorf("commit tx: %w", err)
	}

	return &record, total - tokens, nil
}

// GetPaymentsByAccount возвращает историю выплат аккаунта от новых к старым.
func (r *PostgresRepository) GetPaymentsByAccount(ctx context.Context, email string) ([]model.PaymentRecord, error) {
	var exists bool
	err := r.pool.QueryRow(ctx,
		`SELECT EXISTS (SELECT 1 FROM accounts WHERE email = $1)`,
		email,
	).Scan(&exists)
	if err != nil {
		return nil, fmt.Errorf("check account: %w", err)
	}
	if !exists {
		return nil, ErrAccountNotFound
	}

	rows, err := r.pool.Query(ctx,
		`SELECT amount, tokens, transaction_id, currency, created_at
		 FROM payments
		 WHERE account_email = $1
		 ORDER BY created_at DESC`,
		email,
	)
	if err != nil {
		return nil, fmt.Errorf("select payments: %w", err)
	}
	defer rows.Close()

	var res []model.PaymentRecord
	for rows.Next() {
		var p model.PaymentRecord
		if err := rows.Scan(&p.Amount, &p.Tokens, &p.TransactionID, &p.Currency, &p.CreatedAt); err != nil {
			return nil, fmt.Errorf("scan payment: %w", err)
		}
		res = append(res, p)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("rows error: %w", err)
	}

	return res, nil
}

// CreateChallenge сохраняет новый челлендж в статусе pending.
// Уникальность pending-пары обеспечивает частичный индекс в БД.
func (r *PostgresRepository) CreateChallenge(ctx context.Context, c *model.Challenge) error {
	err := r.withRetry(ctx, func() error {
		_, err := r.pool.Exec(ctx,
			`INSERT INTO challenges
			     (id, challenger, challenger_name, recipient, recipient_name,
			      target_steps, stake_tokens, challenge_date, status)
			 VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)`,
			c.ID, c.Challenger, c.ChallengerName, c.Recipient, c.RecipientName,
			c.TargetSteps, c.StakeTokens, c.ChallengeDate, string(c.Status),
		)
		return err
	})
	if err != nil {
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && pgErr.Code == pgerrcode.UniqueViolation {
			return fmt.Errorf("%w: %s / %s", ErrDuplicatePending, c.Challenger, c.Recipient)
		}
		return fmt.Errorf("create challenge: %w", err)
	}
	return nil
}

const challengeColumns = `id, challenger, challenger_name, recipient, recipient_name,
	target_steps, stake_tokens, challenge_date, status, challenger_steps,
	recipient_steps, winner, declined_by, notification, deleted_for, created_at`

func scanChallenge(row pgx.Row) (*model.Challenge, error) {
	var c model.Challenge
	var status string
	err := row.Scan(
		&c.ID, &c.Challenger, &c.ChallengerName, &c.Recipient, &c.RecipientName,
		&c.TargetSteps, &c.StakeTokens, &c.ChallengeDate, &status, &c.ChallengerSteps,
		&c.RecipientSteps, &c.Winner, &c.DeclinedBy, &c.Notification, &c.DeletedFor, &c.CreatedAt,
	)
	if err != nil {
		return nil, err
	}
	c.Status = model.ChallengeStatus(status)
	return &c, nil
}

// GetChallenge возвращает челлендж по идентификатору.
func (r *PostgresRepository) GetChallenge(ctx context.Context, id uuid.UUID) (*model.Challenge, error) {
	c, err := scanChallenge(r.pool.QueryRow(ctx,
		`SELECT `+challengeColumns+` FROM challenges WHERE id = $1`,
		id,
	))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrChallengeNotFound
		}
		return nil, fmt.Errorf("get challenge: %w", err)
	}
	return c, nil
}

// AcceptChallenge переводит челлендж из pending в accepted.
func (r *PostgresRepository) AcceptChallenge(ctx context.Context, id uuid.UUID) (*model.Challenge, error) {
	return r.transitionStatus(ctx, id,
		`UPDATE challenges SET status = 'accepted'
		 WHERE id = $1 AND status = 'pending'
		 RETURNING `+challengeColumns,
	)
}

// DeclineChallenge отклоняет pending-челлендж и сохраняет уведомление для инициатора.
func (r *PostgresRepository) DeclineChallenge(ctx context.Context, id uuid.UUID, notification string) (*model.Challenge, error) {
	return r.transitionStatus(ctx, id,
		`UPDATE challenges SET status = 'declined', notification = $2
		 WHERE id = $1 AND status = 'pending'
		 RETURNING `+challengeColumns,
		notification,
	)
}

// DeclineAcceptedChallenge отклоняет уже принятый челлендж до его даты
// и фиксирует, кто из участников его отклонил.
func (r *PostgresRepository) DeclineAcceptedChallenge(ctx context.Context, id uuid.UUID, declinedBy string) (*model.Challenge, error) {
	return r.transitionStatus(ctx, id,
		`UPDATE challenges SET status = 'declined', declined_by = $2
		 WHERE id = $1 AND status = 'accepted'
		 RETURNING `+challengeColumns,
		declinedBy,
	)
}

// transitionStatus выполняет условный переход статуса. Если условие не
// сработало, различает отсутствие челленджа и недопустимый текущий статус.
func (r *PostgresRepository) transitionStatus(ctx context.Context, id uuid.UUID, query string, args ...any) (*model.Challenge, error) {
	queryArgs := append([]any{id}, args...)
	c, err := scanChallenge(r.pool.QueryRow(ctx, query, queryArgs...))
	if err == nil {
		return c, nil
	}
	if !errors.Is(err, pgx.ErrNoRows) {
		return nil, fmt.Errorf("transition challenge: %w", err)
	}

	var exists bool
	if err := r.pool.QueryRow(ctx,
		`SELECT EXISTS (SELECT 1 FROM challenges WHERE id = $1)`, id,
	).Scan(&exists); err != nil {
		return nil, fmt.Errorf("check challenge: %w", err)
	}
	if !exists {
		return nil, ErrChallengeNotFound
	}
	return nil, ErrInvalidChallengeState
}

// UpdateChallengeSteps сохраняет последний отчёт участника о шагах.
// Сторона определяется по email: инициатор или получатель.
func (r *PostgresRepository) UpdateChallengeSteps(ctx context.Context, id uuid.UUID, email string, steps int64) (*model.Challenge, error) {
	c, err := scanChallenge(r.pool.QueryRow(ctx,
		`UPDATE challenges
		 SET challenger_steps = CASE WHEN challenger = $2 THEN $3 ELSE challenger_steps END,
		     recipient_steps  = CASE WHEN recipient  = $2 THEN $3 ELSE recipient_steps END
		 WHERE id = $1
		 RETURNING `+challengeColumns,
		id, email, steps,
	))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrChallengeNotFound
		}
		return nil, fmt.Errorf("update challenge steps: %w", err)
	}
	return c, nil
}

// CompleteAndSettle завершает челлендж и переводит ставку от проигравшего к
// победителю в одной транзакции. Переход accepted -> completed условный,
// поэтому расчёт выполняется не более одного раза даже при гонке двух
// отчётов о прогрессе; повторный вызов возвращает settled = false.
// Если аккаунт любой из сторон отсутствует, перевод пропускается целиком,
// завершение фиксируется, а вызывающему возвращается ErrSettlementSkipped.
func (r *PostgresRepository) CompleteAndSettle(ctx context.Context, id uuid.UUID, winner, loser string, stake int64) (bool, error) {
	tx, err := r.pool.Begin(ctx)
	if err != nil {
		return false, fmt.Errorf("begin tx: %w", err)
	}
	defer tx.Rollback(ctx)

	cmdTag, err := tx.Exec(ctx,
		`UPDATE challenges SET status = 'completed', winner = $2
		 WHERE id = $1 AND status = 'accepted'`,
		id, winner,
	)
	if err != nil {
		return false, fmt.Errorf("complete challenge: %w", err)
	}
	if cmdTag.RowsAffected() == 0 {
		// Кто-то успел завершить челлендж раньше.
		return false, nil
	}

	// Блокируем обе строки в стабильном порядке, чтобы встречные расчёты
	// не приводили к дедлоку.
	rows, err := tx.Query(ctx,
		`SELECT email FROM accounts WHERE email = ANY($1) ORDER BY email FOR UPDATE`,
		[]string{winner, loser},
	)
	if err != nil {
		return false, fmt.Errorf("lock accounts: %w", err)
	}

	locked := 0
	for rows.Next() {
		var email string
		if err := rows.Scan(&email); err != nil {
			rows.Close()
			return false, fmt.Errorf("scan account: %w", err)
		}
		locked++
	}
	rows.Close()
	if err := rows.Err(); err != nil {
		return false, fmt.Errorf("rows error: %w", err)
	}

	if locked < 2 {
		// Аккаунт одной из сторон отсутствует: перевод пропускается для обеих,
		// но завершение остаётся в силе.
		if err := tx.Commit(ctx); err != nil {
			return false, fmt.Errorf("commit tx: %w", err)
		}
		return true, ErrSettlementSkipped
	}

	_, err = tx.Exec(ctx,
		`UPDATE accounts SET total_tokens = total_tokens + $2 WHERE email = $1`,
		winner, stake,
	)
	if err != nil {
		return false, fmt.Errorf("credit winner: %w", err)
	}

	_, err = tx.Exec(ctx,
		`UPDATE accounts SET total_tokens = GREATEST(total_tokens - $2, 0) WHERE email = $1`,
		loser, stake,
	)
	if err != nil {
		return false, fmt.Errorf("debit loser: %w", err)
	}

	if err := tx.Commit(ctx); err != nil {
		return false, fmt.Errorf("commit tx: %w", err)
	}

	return true, nil
}

// ListChallenges возвращает челленджи по фильтру, скрывая удалённые
// участником записи.
func (r *PostgresRepository) listChallenges(ctx context.Context, query string, args ...any) ([]model.Challenge, error) {
	rows, err := r.pool.Query(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("select challenges: %w", err)
	}
	defer rows.Close()

	var res []model.Challenge
	for rows.Next() {
		c, err := scanChallenge(rows)
		if err != nil {
			return nil, fmt.Errorf("scan challenge: %w", err)
		}
		res = append(res, *c)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("rows error: %w", err)
	}

	return res, nil
}

// ListPendingChallenges возвращает pending-челленджи, где участвует аккаунт.
func (r *PostgresRepository) ListPendingChallenges(ctx context.Context, email string) ([]model.Challenge, error) {
	return r.listChallenges(ctx,
		`SELECT `+challengeColumns+` FROM challenges
		 WHERE (challenger = $1 OR recipient = $1)
		   AND status = 'pending'
		   AND NOT ($1 = ANY(deleted_for))
		 ORDER BY created_at DESC`,
		email,
	)
}

// ListIncomingChallenges возвращает входящие pending-челленджи аккаунта.
func (r *PostgresRepository) ListIncomingChallenges(ctx context.Context, email string) ([]model.Challenge, error) {
	return r.listChallenges(ctx,
		`SELECT `+challengeColumns+` FROM challenges
		 WHERE recipient = $1
		   AND status = 'pending'
		   AND NOT ($1 = ANY(deleted_for))
		 ORDER BY created_at DESC`,
		email,
	)
}

// ListUpcomingChallenges возвращает принятые челленджи, где аккаунт — получатель.
func (r *PostgresRepository) ListUpcomingChallenges(ctx context.Context, email string) ([]model.Challenge, error) {
	return r.listChallenges(ctx,
		`SELECT `+challengeColumns+` FROM challenges
		 WHERE recipient = $1
		   AND status = 'accepted'
		   AND NOT ($1 = ANY(deleted_for))
		 ORDER BY created_at DESC`,
		email,
	)
}

// ListChallengerChallenges возвращает активные и завершённые челленджи,
// созданные аккаунтом.
func (r *PostgresRepository) ListChallengerChallenges(ctx context.Context, email string) ([]model.Challenge, error) {
	return r.listChallenges(ctx,
		`SELECT `+challengeColumns+` FROM challenges
		 WHERE challenger = $1
		   AND status IN ('accepted', 'completed', 'ongoing')
		   AND NOT ($1 = ANY(deleted_for))
		 ORDER BY created_at DESC`,
		email,
	)
}

// SoftDeleteChallenge скрывает челлендж из истории участника. Повторный
// вызов не добавляет дубликатов в deleted_for.
func (r *PostgresRepository) SoftDeleteChallenge(ctx context.Context, id uuid.UUID, email string) error {
	_, err := r.pool.Exec(ctx,
		`UPDATE challenges
		 SET deleted_for = array_append(deleted_for, $2)
		 WHERE id = $1 AND NOT ($2 = ANY(deleted_for))`,
		id, email,
	)
	if err != nil {
		return fmt.Errorf("soft delete challenge: %w", err)
	}
	return nil
}

// SoftDeleteCompletedChallenges скрывает все завершённые челленджи участника.
func (r *PostgresRepository) SoftDeleteCompletedChallenges(ctx context.Context, email string) error {
	_, err := r.pool.Exec(ctx,
		`UPDATE challenges
		 SET deleted_for = array_append(deleted_for, $1)
		 WHERE (challenger = $1 OR recipient = $1)
		   AND status = 'completed'
		   AND NOT ($1 = ANY(deleted_for))`,
		email,
	)
	if err != nil {
		return fmt.Errorf("soft delete completed challenges: %w", err)
	}
	return nil
}
