package service

import (
	"context"
	"sync"

	"drink-rating/internal/cache"
	"drink-rating/internal/events"
	"drink-rating/internal/model"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/stretchr/testify/mock"
)

// MockAdminRepository is a mock implementation of AdminRepository.
type MockAdminRepository struct {
	mock.Mock
}

func (m *MockAdminRepository) GetByUsername(ctx context.Context, username string) (*model.Admin, error) {
	args := m.Called(ctx, username)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*model.Admin), args.Error(1)
}

func (m *MockAdminRepository) GetByID(ctx context.Context, id int64) (*model.Admin, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*model.Admin), args.Error(1)
}

func (m *MockAdminRepository) CreateIfNone(ctx context.Context, username, passwordHash string) (bool, error) {
	args := m.Called(ctx, username, passwordHash)
	return args.Bool(0), args.Error(1)
}

func (m *MockAdminRepository) UpdatePassword(ctx context.Context, username, passwordHash string) (bool, error) {
	args := m.Called(ctx, username, passwordHash)
	return args.Bool(0), args.Error(1)
}

// MockDrinkRepository is a mock implementation of DrinkRepository.
type MockDrinkRepository struct {
	mock.Mock
}

func (m *MockDrinkRepository) BeginTx(ctx context.Context) (pgx.Tx, error) {
	args := m.Called(ctx)
	if tx, ok := args.Get(0).(pgx.Tx); ok {
		return tx, args.Error(1)
	}
	return nil, args.Error(1)
}

func (m *MockDrinkRepository) List(ctx context.Context) ([]model.Drink, error) {
	args := m.Called(ctx)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]model.Drink), args.Error(1)
}

func (m *MockDrinkRepository) GetByID(ctx context.Context, id int64) (*model.Drink, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*model.Drink), args.Error(1)
}

func (m *MockDrinkRepository) Exists(ctx context.Context, id int64) (bool, error) {
	args := m.Called(ctx, id)
	return args.Bool(0), args.Error(1)
}

func (m *MockDrinkRepository) Create(ctx context.Context, drink *model.Drink) error {
	args := m.Called(ctx, drink)
	return args.Error(0)
}

func (m *MockDrinkRepository) Update(ctx context.Context, drink *model.Drink) (*string, bool, error) {
	args := m.Called(ctx, drink)
	var previous *string
	if args.Get(0) != nil {
		previous = args.Get(0).(*string)
	}
	return previous, args.Bool(1), args.Error(2)
}

func (m *MockDrinkRepository) LockByID(ctx context.Context, tx pgx.Tx, id int64) (*model.Drink, error) {
	args := m.Called(ctx, tx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*model.Drink), args.Error(1)
}

func (m *MockDrinkRepository) Delete(ctx context.Context, tx pgx.Tx, id int64) error {
	args := m.Called(ctx, tx, id)
	return args.Error(0)
}

// MockRatingRepository is a mock implementation of RatingRepository.
type MockRatingRepository struct {
	mock.Mock
}

func (m *MockRatingRepository) Create(ctx context.Context, rating *model.Rating) error {
	args := m.Called(ctx, rating)
	return args.Error(0)
}

func (m *MockRatingRepository) ListByDrink(ctx context.Context, drinkID int64) ([]model.Rating, error) {
	args := m.Called(ctx, drinkID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]model.Rating), args.Error(1)
}

func (m *MockRatingRepository) Delete(ctx context.Context, id int64) (*model.Rating, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*model.Rating), args.Error(1)
}

func (m *MockRatingRepository) DeleteByDrink(ctx context.Context, tx pgx.Tx, drinkID int64) (int64, error) {
	args := m.Called(ctx, tx, drinkID)
	return args.Get(0).(int64), args.Error(1)
}

func (m *MockRatingRepository) Summary(ctx context.Context, drinkID int64) (int64, float64, error) {
	args := m.Called(ctx, drinkID)
	return args.Get(0).(int64), args.Get(1).(float64), args.Error(2)
}

func (m *MockRatingRepository) DashboardRows(ctx context.Context) ([]model.DrinkStats, error) {
	args := m.Called(ctx)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]model.DrinkStats), args.Error(1)
}

// MockStore is a mock implementation of blob.Store.
type MockStore struct {
	mock.Mock
}

func (m *MockStore) Put(ctx context.Context, image *model.ImageUpload) (string, error) {
	args := m.Called(ctx, image)
	return args.String(0), args.Error(1)
}

func (m *MockStore) Delete(ctx context.Context, url string) error {
	args := m.Called(ctx, url)
	return args.Error(0)
}

// MockTx is a minimal mock implementation of pgx.Tx for testing.
type MockTx struct {
	mock.Mock
	committed  bool
	rolledBack bool
}

func (m *MockTx) Commit(ctx context.Context) error {
	args := m.Called(ctx)
	m.committed = true
	return args.Error(0)
}

func (m *MockTx) Rollback(ctx context.Context) error {
	args := m.Called(ctx)
	m.rolledBack = true
	return args.Error(0)
}

// Stub methods to satisfy pgx.Tx interface - these are not used in our tests
func (m *MockTx) Begin(ctx context.Context) (pgx.Tx, error) { return nil, nil }
func (m *MockTx) CopyFrom(ctx context.Context, tableName pgx.Identifier, columnNames []string, rowSrc pgx.CopyFromSource) (int64, error) {
	return 0, nil
}
func (m *MockTx) SendBatch(ctx context.Context, b *pgx.Batch) pgx.BatchResults { return nil }
func (m *MockTx) LargeObjects() pgx.LargeObjects                               { return pgx.LargeObjects{} }
func (m *MockTx) Prepare(ctx context.Context, name, sql string) (*pgconn.StatementDescription, error) {
	return nil, nil
}
func (m *MockTx) Exec(ctx context.Context, sql string, arguments ...any) (commandTag pgconn.CommandTag, err error) {
	return
}
func (m *MockTx) Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error) {
	return nil, nil
}
func (m *MockTx) QueryRow(ctx context.Context, sql string, args ...any) pgx.Row { return nil }
func (m *MockTx) Conn() *pgx.Conn                                               { return nil }

// fakeCache is an in-memory cache that records invalidations. It tracks
// generations the same way the redis cache does.
type fakeCache struct {
	mu           sync.Mutex
	dashboard    *model.Dashboard
	dashboardGen cache.Version
	dashboardAt  cache.Version
	summaries    map[int64]*model.RatingSummary
	summaryGens  map[int64]cache.Version
	summaryAt    map[int64]cache.Version
	invalidated  []int64
}

func newFakeCache() *fakeCache {
	return &fakeCache{
		summaries:   map[int64]*model.RatingSummary{},
		summaryGens: map[int64]cache.Version{},
		summaryAt:   map[int64]cache.Version{},
	}
}

func (c *fakeCache) GetDashboard(context.Context) (*model.Dashboard, cache.Version, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.dashboard == nil || c.dashboardAt != c.dashboardGen {
		return nil, c.dashboardGen, false
	}
	return c.dashboard, c.dashboardGen, true
}

func (c *fakeCache) SetDashboard(_ context.Context, version cache.Version, d *model.Dashboard) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.dashboard = d
	c.dashboardAt = version
}

func (c *fakeCache) GetSummary(_ context.Context, drinkID int64) (*model.RatingSummary, cache.Version, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	gen := c.summaryGens[drinkID]
	s, ok := c.summaries[drinkID]
	if !ok || c.summaryAt[drinkID] != gen {
		return nil, gen, false
	}
	return s, gen, true
}

func (c *fakeCache) SetSummary(_ context.Context, version cache.Version, s *model.RatingSummary) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.summaries[s.DrinkID] = s
	c.summaryAt[s.DrinkID] = version
}

// seedSummary stores a summary under the drink's current generation.
func (c *fakeCache) seedSummary(ctx context.Context, s *model.RatingSummary) {
	_, version, _ := c.GetSummary(ctx, s.DrinkID)
	c.SetSummary(ctx, version, s)
}

func (c *fakeCache) InvalidateDrink(_ context.Context, drinkID int64) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.dashboard = nil
	c.dashboardGen++
	delete(c.summaries, drinkID)
	c.summaryGens[drinkID]++
	c.invalidated = append(c.invalidated, drinkID)
}

// recordingPublisher keeps every published event.
type recordingPublisher struct {
	events []events.Event
	err    error
}

func (p *recordingPublisher) Publish(_ context.Context, event events.Event) error {
	p.events = append(p.events, event)
	return p.err
}

func (p *recordingPublisher) Close() error { return nil }

func (p *recordingPublisher) types() []string {
	types := make([]string, len(p.events))
	for i, e := range p.events {
		types[i] = e.Type
	}
	return types
}

func strPtr(s string) *string { return &s }
