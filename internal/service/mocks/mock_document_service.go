package mocks

import (
	"context"
	"io"

	"docvault/internal/model"
	"docvault/internal/service"

	"github.com/stretchr/testify/mock"
)

type MockDocumentService struct {
	mock.Mock
}

func (m *MockDocumentService) Upload(ctx context.Context, reportID, principalID string, r io.Reader, originalFilename string) (*model.Document, error) {
	args := m.Called(ctx, reportID, principalID, r, originalFilename)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*model.Document), args.Error(1)
}

func (m *MockDocumentService) Get(ctx context.Context, id, principalID string) (*model.Document, error) {
	args := m.Called(ctx, id, principalID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*model.Document), args.Error(1)
}

func (m *MockDocumentService) Download(ctx context.Context, id, principalID string) (io.ReadCloser, *model.Document, error) {
	args := m.Called(ctx, id, principalID)
	var rc io.ReadCloser
	if args.Get(0) != nil {
		rc = args.Get(0).(io.ReadCloser)
	}
	var doc *model.Document
	if args.Get(1) != nil {
		doc = args.Get(1).(*model.Document)
	}
	return rc, doc, args.Error(2)
}

func (m *MockDocumentService) DownloadURL(ctx context.Context, id, principalID string) (string, error) {
	args := m.Called(ctx, id, principalID)
	return args.String(0), args.Error(1)
}

func (m *MockDocumentService) List(ctx context.Context, reportID, principalID string) ([]model.Document, error) {
	args := m.Called(ctx, reportID, principalID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]model.Document), args.Error(1)
}

func (m *MockDocumentService) Update(ctx context.Context, id, principalID string, upd service.DocumentUpdate) (*model.Document, error) {
	args := m.Called(ctx, id, principalID, upd)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*model.Document), args.Error(1)
}

func (m *MockDocumentService) Delete(ctx context.Context, id, principalID string) error {
	args := m.Called(ctx, id, principalID)
	return args.Error(0)
}

func (m *MockDocumentService) Search(ctx context.Context, reportID, principalID, query string) ([]model.Document, error) {
	args := m.Called(ctx, reportID, principalID, query)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]model.Document), args.Error(1)
}
