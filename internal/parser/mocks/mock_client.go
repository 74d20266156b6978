package mocks

import (
	"context"

	"github.com/stretchr/testify/mock"
)

type MockClient struct {
	mock.Mock
}

func (m *MockClient) Extract(ctx context.Context, data []byte, filename string) (string, bool) {
	args := m.Called(ctx, data, filename)
	return args.String(0), args.Bool(1)
}
