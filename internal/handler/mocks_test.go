package handler

import (
	"context"

	"drink-rating/internal/model"

	"github.com/stretchr/testify/mock"
)

// MockAuthService is a mock implementation of AuthService.
type MockAuthService struct {
	mock.Mock
}

func (m *MockAuthService) Login(ctx context.Context, req *model.LoginRequest) (*model.LoginResponse, error) {
	args := m.Called(ctx, req)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*model.LoginResponse), args.Error(1)
}

func (m *MockAuthService) Verify(ctx context.Context, token string) (*model.AdminIdentity, error) {
	args := m.Called(ctx, token)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*model.AdminIdentity), args.Error(1)
}

func (m *MockAuthService) Bootstrap(ctx context.Context) error {
	args := m.Called(ctx)
	return args.Error(0)
}

func (m *MockAuthService) ResetPassword(ctx context.Context, req *model.PasswordResetRequest) error {
	args := m.Called(ctx, req)
	return args.Error(0)
}

// MockDrinkService is a mock implementation of DrinkService.
type MockDrinkService struct {
	mock.Mock
}

func (m *MockDrinkService) List(ctx context.Context) ([]model.Drink, error) {
	args := m.Called(ctx)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]model.Drink), args.Error(1)
}

func (m *MockDrinkService) Get(ctx context.Context, id int64) (*model.Drink, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*model.Drink), args.Error(1)
}

func (m *MockDrinkService) Create(ctx context.Context, input *model.DrinkInput) (*model.Drink, error) {
	args := m.Called(ctx, input)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*model.Drink), args.Error(1)
}

func (m *MockDrinkService) Update(ctx context.Context, id int64, input *model.DrinkInput) (*model.Drink, error) {
	args := m.Called(ctx, id, input)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*model.Drink), args.Error(1)
}

func (m *MockDrinkService) Delete(ctx context.Context, id int64) error {
	args := m.Called(ctx, id)
	return args.Error(0)
}

// MockRatingService is a mock implementation of RatingService.
type MockRatingService struct {
	mock.Mock
}

func (m *MockRatingService) Submit(ctx context.Context, req *model.RatingRequest) (int64, error) {
	args := m.Called(ctx, req)
	return args.Get(0).(int64), args.Error(1)
}

func (m *MockRatingService) ListFor(ctx context.Context, drinkID int64) ([]model.Rating, error) {
	args := m.Called(ctx, drinkID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]model.Rating), args.Error(1)
}

func (m *MockRatingService) DeleteOne(ctx context.Context, ratingID int64) error {
	args := m.Called(ctx, ratingID)
	return args.Error(0)
}

func (m *MockRatingService) Aggregate(ctx context.Context, drinkID int64) (*model.RatingSummary, error) {
	args := m.Called(ctx, drinkID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*model.RatingSummary), args.Error(1)
}

func (m *MockRatingService) DashboardSummary(ctx context.Context) (*model.Dashboard, error) {
	args := m.Called(ctx)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*model.Dashboard), args.Error(1)
}

// MockQRGenerator is a mock implementation of QRGenerator.
type MockQRGenerator struct {
	mock.Mock
}

func (m *MockQRGenerator) Generate(drinkID int64) ([]byte, error) {
	args := m.Called(drinkID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]byte), args.Error(1)
}

type stubPinger struct {
	err error
}

func (p stubPinger) Ping(context.Context) error {
	return p.err
}
