package services

import (
	"context"

	"github.com/stretchr/testify/mock"
)

// MockReadinessChecker is a mock for the ReadinessChecker interface
type MockReadinessChecker struct {
	mock.Mock
}

func (m *MockReadinessChecker) Ready(ctx context.Context) error {
	args := m.Called(ctx)
	return args.Error(0)
}
