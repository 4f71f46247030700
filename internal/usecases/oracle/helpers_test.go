package oracle

import (
	"context"
	"fmt"
	"io"
	"sort"
	"time"

	"log/slog"

	"github.com/admin/tg-bots/horoscope-bot/internal/domain"
	"github.com/admin/tg-bots/horoscope-bot/internal/ports/cache"
	"github.com/admin/tg-bots/horoscope-bot/internal/ports/persistence"
	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"
)

// --- персистентность ---

type noopQuerier struct{}

func (noopQuerier) Get(ctx context.Context, dest interface{}, query string, args ...interface{}) error {
	return nil
}
func (noopQuerier) Select(ctx context.Context, dest interface{}, query string, args ...interface{}) error {
	return nil
}
func (noopQuerier) Exec(ctx context.Context, query string, args ...interface{}) error { return nil }
func (noopQuerier) ExecWithResult(ctx context.Context, query string, args ...interface{}) (int64, error) {
	return 0, nil
}
func (noopQuerier) NamedExec(ctx context.Context, query string, arg interface{}) error { return nil }
func (noopQuerier) QueryRow(ctx context.Context, query string, args ...interface{}) *sqlx.Row {
	return nil
}

type fakeTx struct {
	noopQuerier
	parent *fakePersistence
}

func (t *fakeTx) Commit() error   { t.parent.commits++; return nil }
func (t *fakeTx) Rollback() error { t.parent.rollbacks++; return nil }

// fakePersistence считает открытые/закрытые транзакции, сами запросы
// выполняют репозитории-заглушки
type fakePersistence struct {
	noopQuerier
	begins    int
	commits   int
	rollbacks int
}

func (p *fakePersistence) BeginTx(ctx context.Context) (persistence.Transaction, error) {
	p.begins++
	return &fakeTx{parent: p}, nil
}

func (p *fakePersistence) Close() error { return nil }

// --- репозитории ---

type fakeUserRepo struct {
	byTelegramID map[int64]*domain.User
	conflictOnce bool // следующий Create проигрывает гонку
	created      []*domain.User
	cascade      func(userID uuid.UUID) // внешние ключи ON DELETE CASCADE
}

func newFakeUserRepo() *fakeUserRepo {
	return &fakeUserRepo{byTelegramID: make(map[int64]*domain.User)}
}

func (r *fakeUserRepo) add(u *domain.User) { r.byTelegramID[u.TelegramID] = u }

func (r *fakeUserRepo) Create(ctx context.Context, q persistence.Querier, user *domain.User) error {
	if r.conflictOnce {
		r.conflictOnce = false
		// Запись появляется так, как её оставил выигравший гонку
		racing := *user
		racing.ID = uuid.New()
		r.byTelegramID[user.TelegramID] = &racing
		return fmt.Errorf("duplicate tg_id: %w", domain.ErrConflict)
	}
	if _, ok := r.byTelegramID[user.TelegramID]; ok {
		return fmt.Errorf("duplicate tg_id: %w", domain.ErrConflict)
	}
	r.byTelegramID[user.TelegramID] = user
	r.created = append(r.created, user)
	return nil
}

func (r *fakeUserRepo) GetByTelegramID(ctx context.Context, q persistence.Querier, telegramID int64) (*domain.User, error) {
	u, ok := r.byTelegramID[telegramID]
	if !ok {
		return nil, fmt.Errorf("user %d: %w", telegramID, domain.ErrNotFound)
	}
	copied := *u
	return &copied, nil
}

func (r *fakeUserRepo) GetByID(ctx context.Context, q persistence.Querier, id uuid.UUID) (*domain.User, error) {
	for _, u := range r.byTelegramID {
		if u.ID == id {
			copied := *u
			return &copied, nil
		}
	}
	return nil, fmt.Errorf("user %s: %w", id, domain.ErrNotFound)
}

func (r *fakeUserRepo) Update(ctx context.Context, q persistence.Querier, user *domain.User) error {
	for tgID, u := range r.byTelegramID {
		if u.ID == user.ID {
			copied := *user
			r.byTelegramID[tgID] = &copied
			return nil
		}
	}
	return fmt.Errorf("user %s: %w", user.ID, domain.ErrNotFound)
}

func (r *fakeUserRepo) UpdateLastSeen(ctx context.Context, q persistence.Querier, userID uuid.UUID) error {
	for _, u := range r.byTelegramID {
		if u.ID == userID {
			now := time.Now()
			u.LastSeenAt = &now
			return nil
		}
	}
	return fmt.Errorf("user %s: %w", userID, domain.ErrNotFound)
}

func (r *fakeUserRepo) SetNotifications(ctx context.Context, q persistence.Querier, telegramID int64, enabled bool) error {
	u, ok := r.byTelegramID[telegramID]
	if !ok {
		return fmt.Errorf("user %d: %w", telegramID, domain.ErrNotFound)
	}
	u.NotificationsEnabled = enabled
	return nil
}

func (r *fakeUserRepo) Delete(ctx context.Context, q persistence.Querier, userID uuid.UUID) error {
	for tgID, u := range r.byTelegramID {
		if u.ID == userID {
			delete(r.byTelegramID, tgID)
			if r.cascade != nil {
				r.cascade(userID)
			}
			return nil
		}
	}
	return fmt.Errorf("user %s: %w", userID, domain.ErrNotFound)
}

type fakeChartRepo struct {
	charts []domain.NatalChart
}

func (r *fakeChartRepo) Create(ctx context.Context, q persistence.Querier, chart *domain.NatalChart) error {
	r.charts = append(r.charts, *chart)
	return nil
}

func (r *fakeChartRepo) ListByUser(ctx context.Context, q persistence.Querier, userID uuid.UUID) ([]domain.NatalChart, error) {
	var out []domain.NatalChart
	for _, c := range r.charts {
		if c.UserID == userID {
			out = append(out, c)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].CreatedAt.After(out[j].CreatedAt) })
	return out, nil
}

func (r *fakeChartRepo) GetByID(ctx context.Context, q persistence.Querier, chartID, userID uuid.UUID) (*domain.NatalChart, error) {
	for _, c := range r.charts {
		if c.ID == chartID && c.UserID == userID {
			copied := c
			return &copied, nil
		}
	}
	return nil, fmt.Errorf("chart %s: %w", chartID, domain.ErrNotFound)
}

func (r *fakeChartRepo) Delete(ctx context.Context, q persistence.Querier, chartID, userID uuid.UUID) error {
	for i, c := range r.charts {
		if c.ID == chartID && c.UserID == userID {
			r.charts = append(r.charts[:i], r.charts[i+1:]...)
			return nil
		}
	}
	return fmt.Errorf("chart %s: %w", chartID, domain.ErrNotFound)
}

type fakePredictionRepo struct {
	predictions []domain.Prediction
}

func (r *fakePredictionRepo) Create(ctx context.Context, q persistence.Querier, prediction *domain.Prediction) error {
	r.predictions = append(r.predictions, *prediction)
	return nil
}

func (r *fakePredictionRepo) FindValid(ctx context.Context, q persistence.Querier, userID uuid.UUID, category string, asOf time.Time) (*domain.Prediction, error) {
	var best *domain.Prediction
	for i := range r.predictions {
		p := &r.predictions[i]
		if p.UserID != userID || p.Category != category || !p.ValidAt(asOf) {
			continue
		}
		if best == nil || p.CreatedAt.After(best.CreatedAt) {
			best = p
		}
	}
	if best == nil {
		return nil, fmt.Errorf("prediction: %w", domain.ErrNotFound)
	}
	copied := *best
	return &copied, nil
}

func (r *fakePredictionRepo) ListByUser(ctx context.Context, q persistence.Querier, userID uuid.UUID, category string) ([]domain.Prediction, error) {
	var out []domain.Prediction
	for _, p := range r.predictions {
		if p.UserID == userID && (category == "" || p.Category == category) {
			out = append(out, p)
		}
	}
	return out, nil
}

func (r *fakePredictionRepo) DeleteOlderThan(ctx context.Context, q persistence.Querier, cutoff time.Time) (int64, error) {
	var kept []domain.Prediction
	var deleted int64
	for _, p := range r.predictions {
		if p.CreatedAt.Before(cutoff) {
			deleted++
			continue
		}
		kept = append(kept, p)
	}
	r.predictions = kept
	return deleted, nil
}

type fakeSubscriptionRepo struct {
	byUserID     map[uuid.UUID]*domain.Subscription
	conflictOnce bool
	expired      []int64
}

func newFakeSubscriptionRepo() *fakeSubscriptionRepo {
	return &fakeSubscriptionRepo{byUserID: make(map[uuid.UUID]*domain.Subscription)}
}

func (r *fakeSubscriptionRepo) Create(ctx context.Context, q persistence.Querier, sub *domain.Subscription) error {
	if r.conflictOnce {
		r.conflictOnce = false
		racing := *sub
		racing.ID = uuid.New()
		r.byUserID[sub.UserID] = &racing
		return fmt.Errorf("duplicate user_id: %w", domain.ErrConflict)
	}
	if _, ok := r.byUserID[sub.UserID]; ok {
		return fmt.Errorf("duplicate user_id: %w", domain.ErrConflict)
	}
	copied := *sub
	r.byUserID[sub.UserID] = &copied
	return nil
}

func (r *fakeSubscriptionRepo) GetByUserID(ctx context.Context, q persistence.Querier, userID uuid.UUID) (*domain.Subscription, error) {
	sub, ok := r.byUserID[userID]
	if !ok {
		return nil, fmt.Errorf("subscription: %w", domain.ErrNotFound)
	}
	copied := *sub
	return &copied, nil
}

func (r *fakeSubscriptionRepo) Update(ctx context.Context, q persistence.Querier, sub *domain.Subscription) error {
	if _, ok := r.byUserID[sub.UserID]; !ok {
		return fmt.Errorf("subscription: %w", domain.ErrNotFound)
	}
	copied := *sub
	r.byUserID[sub.UserID] = &copied
	return nil
}

func (r *fakeSubscriptionRepo) MarkExpired(ctx context.Context, q persistence.Querier, now time.Time) ([]int64, error) {
	ids := r.expired
	r.expired = nil
	return ids, nil
}

func (r *fakeSubscriptionRepo) ExtendPremium(ctx context.Context, q persistence.Querier, telegramIDs []int64, days int) (int64, error) {
	return int64(len(telegramIDs)), nil
}

func (r *fakeSubscriptionRepo) ListExpiring(ctx context.Context, q persistence.Querier, now time.Time, within time.Duration) ([]int64, error) {
	return nil, nil
}

type fakeCompatibilityRepo struct {
	reports []domain.CompatibilityReport
}

func (r *fakeCompatibilityRepo) Create(ctx context.Context, q persistence.Querier, report *domain.CompatibilityReport) error {
	r.reports = append(r.reports, *report)
	return nil
}

func (r *fakeCompatibilityRepo) FindValid(ctx context.Context, q persistence.Querier, userID uuid.UUID, pairKey, sphere string, asOf time.Time) (*domain.CompatibilityReport, error) {
	var best *domain.CompatibilityReport
	for i := range r.reports {
		rep := &r.reports[i]
		if rep.UserID != userID || rep.PairKey != pairKey || rep.Sphere != sphere || !rep.ValidAt(asOf) {
			continue
		}
		if best == nil || rep.CreatedAt.After(best.CreatedAt) {
			best = rep
		}
	}
	if best == nil {
		return nil, fmt.Errorf("report: %w", domain.ErrNotFound)
	}
	copied := *best
	return &copied, nil
}

func (r *fakeCompatibilityRepo) ListByUser(ctx context.Context, q persistence.Querier, userID uuid.UUID) ([]domain.CompatibilityReport, error) {
	var out []domain.CompatibilityReport
	for _, rep := range r.reports {
		if rep.UserID == userID {
			out = append(out, rep)
		}
	}
	return out, nil
}

func (r *fakeCompatibilityRepo) GetByID(ctx context.Context, q persistence.Querier, reportID, userID uuid.UUID) (*domain.CompatibilityReport, error) {
	for _, rep := range r.reports {
		if rep.ID == reportID && rep.UserID == userID {
			copied := rep
			return &copied, nil
		}
	}
	return nil, fmt.Errorf("report: %w", domain.ErrNotFound)
}

func (r *fakeCompatibilityRepo) Delete(ctx context.Context, q persistence.Querier, reportID, userID uuid.UUID) error {
	for i, rep := range r.reports {
		if rep.ID == reportID && rep.UserID == userID {
			r.reports = append(r.reports[:i], r.reports[i+1:]...)
			return nil
		}
	}
	return fmt.Errorf("report: %w", domain.ErrNotFound)
}

func (r *fakeCompatibilityRepo) DeleteOlderThan(ctx context.Context, q persistence.Querier, cutoff time.Time) (int64, error) {
	var kept []domain.CompatibilityReport
	var deleted int64
	for _, rep := range r.reports {
		if rep.CreatedAt.Before(cutoff) {
			deleted++
			continue
		}
		kept = append(kept, rep)
	}
	r.reports = kept
	return deleted, nil
}

type fakeAdminRepo struct {
	stats *domain.Statistics
	err   error
}

func (r *fakeAdminRepo) ListUsersPaginated(ctx context.Context, q persistence.Querier, page, pageSize int, filter domain.UserFilter) ([]domain.User, int64, error) {
	return nil, 0, r.err
}

func (r *fakeAdminRepo) ListUsersForBroadcast(ctx context.Context, q persistence.Querier, filter domain.BroadcastFilter) ([]int64, error) {
	return nil, r.err
}

func (r *fakeAdminRepo) AggregateStatistics(ctx context.Context, q persistence.Querier) (*domain.Statistics, error) {
	if r.err != nil {
		return nil, r.err
	}
	return r.stats, nil
}

func (r *fakeAdminRepo) UserActivity(ctx context.Context, q persistence.Querier, telegramID int64) (*domain.UserActivity, error) {
	return nil, fmt.Errorf("user: %w", domain.ErrNotFound)
}

// --- кэш и внешние сервисы ---

type cacheEntry struct {
	value string
	ttl   time.Duration
}

type fakeCache struct {
	entries map[string]cacheEntry
	sets    int
	deletes int
}

func newFakeCache() *fakeCache {
	return &fakeCache{entries: make(map[string]cacheEntry)}
}

func (c *fakeCache) Get(ctx context.Context, key string) (string, error) {
	e, ok := c.entries[key]
	if !ok {
		return "", cache.ErrCacheMiss
	}
	return e.value, nil
}

func (c *fakeCache) Set(ctx context.Context, key string, value string, ttl time.Duration) error {
	c.entries[key] = cacheEntry{value: value, ttl: ttl}
	c.sets++
	return nil
}

func (c *fakeCache) Delete(ctx context.Context, key string) error {
	delete(c.entries, key)
	c.deletes++
	return nil
}

func (c *fakeCache) Exists(ctx context.Context, key string) (bool, error) {
	_, ok := c.entries[key]
	return ok, nil
}

func (c *fakeCache) Close() error { return nil }

type fakeEphemeris struct {
	payload domain.ChartPayload
	err     error
	calls   int
}

func (e *fakeEphemeris) CalculateChart(ctx context.Context, birth domain.BirthData) (domain.ChartPayload, error) {
	e.calls++
	if e.err != nil {
		return nil, e.err
	}
	return e.payload, nil
}

type fakeOracleClient struct {
	content string
	err     error
	calls   int
}

func (o *fakeOracleClient) GeneratePrediction(ctx context.Context, chart domain.ChartPayload, category string) (string, error) {
	o.calls++
	if o.err != nil {
		return "", o.err
	}
	return o.content, nil
}

func (o *fakeOracleClient) GenerateCompatibility(ctx context.Context, chartA, chartB domain.ChartPayload, sphere string) (string, error) {
	o.calls++
	if o.err != nil {
		return "", o.err
	}
	return o.content, nil
}

type fakeEventProducer struct {
	events []domain.Event
}

func (p *fakeEventProducer) Publish(ctx context.Context, event domain.Event) error {
	p.events = append(p.events, event)
	return nil
}

func (p *fakeEventProducer) Close() error { return nil }

// --- сборка сервиса ---

type testEnv struct {
	svc       *Service
	db        *fakePersistence
	users     *fakeUserRepo
	charts    *fakeChartRepo
	preds     *fakePredictionRepo
	subs      *fakeSubscriptionRepo
	reports   *fakeCompatibilityRepo
	admin     *fakeAdminRepo
	cache     *fakeCache
	ephemeris *fakeEphemeris
	oracle    *fakeOracleClient
	events    *fakeEventProducer
}

func newTestEnv() *testEnv {
	env := &testEnv{
		db:        &fakePersistence{},
		users:     newFakeUserRepo(),
		charts:    &fakeChartRepo{},
		preds:     &fakePredictionRepo{},
		subs:      newFakeSubscriptionRepo(),
		reports:   &fakeCompatibilityRepo{},
		admin:     &fakeAdminRepo{},
		cache:     newFakeCache(),
		ephemeris: &fakeEphemeris{payload: domain.ChartPayload(`{"sun":"virgo"}`)},
		oracle:    &fakeOracleClient{content: "the stars are aligned"},
		events:    &fakeEventProducer{},
	}
	// Повторяет ON DELETE CASCADE схемы: удаление пользователя уносит
	// его карты, прогнозы, подписку и отчёты
	env.users.cascade = func(userID uuid.UUID) {
		var charts []domain.NatalChart
		for _, c := range env.charts.charts {
			if c.UserID != userID {
				charts = append(charts, c)
			}
		}
		env.charts.charts = charts

		var preds []domain.Prediction
		for _, p := range env.preds.predictions {
			if p.UserID != userID {
				preds = append(preds, p)
			}
		}
		env.preds.predictions = preds

		delete(env.subs.byUserID, userID)

		var reports []domain.CompatibilityReport
		for _, rep := range env.reports.reports {
			if rep.UserID != userID {
				reports = append(reports, rep)
			}
		}
		env.reports.reports = reports
	}
	env.svc = New(
		env.db,
		env.users,
		env.charts,
		env.preds,
		env.subs,
		env.reports,
		env.admin,
		env.cache,
		env.ephemeris,
		env.oracle,
		env.events,
		slog.New(slog.NewTextHandler(io.Discard, nil)),
	)
	return env
}

func (e *testEnv) addUser(telegramID int64) *domain.User {
	now := time.Now().UTC()
	u := &domain.User{
		ID:                   uuid.New(),
		TelegramID:           telegramID,
		Name:                 "Anna",
		NotificationsEnabled: true,
		CreatedAt:            now,
		UpdatedAt:            now,
	}
	e.users.add(u)
	return u
}

func (e *testEnv) addOwnChart(userID uuid.UUID) *domain.NatalChart {
	chart := domain.NatalChart{
		ID:        uuid.New(),
		UserID:    userID,
		ChartType: domain.ChartTypeOwn,
		City:      "Moscow",
		Planets:   domain.ChartPayload(`{"sun":"virgo"}`),
		CreatedAt: time.Now().UTC(),
	}
	e.charts.charts = append(e.charts.charts, chart)
	return &chart
}
