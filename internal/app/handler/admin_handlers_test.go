package handler

import (
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"go.uber.org/mock/gomock"
	"go.uber.org/zap"

	"github.com/atinyakov/clickshort/internal/app/service"
	"github.com/atinyakov/clickshort/internal/mocks"
	"github.com/atinyakov/clickshort/internal/models"
	"github.com/atinyakov/clickshort/internal/storage"
)

func TestAdminHandler_Login(t *testing.T) {
	tests := []struct {
		name         string
		body         string
		mockToken    string
		mockErr      error
		expectedCode int
		expectedBody string
	}{
		{
			name:         "valid credentials",
			body:         `{"username":"admin","password":"admin123"}`,
			mockToken:    "signed-token",
			expectedCode: http.StatusOK,
			expectedBody: `{"token":"signed-token"}`,
		},
		{
			name:         "wrong password",
			body:         `{"username":"admin","password":"nope"}`,
			mockErr:      service.ErrInvalidCredentials,
			expectedCode: http.StatusUnauthorized,
			expectedBody: `{"error":"Invalid credentials"}`,
		},
		{
			name:         "store down",
			body:         `{"username":"admin","password":"admin123"}`,
			mockErr:      storage.ErrUnavailable,
			expectedCode: http.StatusInternalServerError,
			expectedBody: `{"error":"Server error"}`,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			ctrl := gomock.NewController(t)
			defer ctrl.Finish()

			mockAuth := mocks.NewMockAuthIface(ctrl)
			mockAuth.EXPECT().Login(gomock.Any(), "admin", gomock.Any()).Return(tt.mockToken, tt.mockErr)

			h := NewAdmin(mocks.NewMockURLServiceIface(ctrl), mockAuth, zap.NewNop())

			req := httptest.NewRequest(http.MethodPost, "/api/admin/login", strings.NewReader(tt.body))
			req.Header.Set("Content-Type", "application/json")
			rec := httptest.NewRecorder()

			h.Login(rec, req)

			assert.Equal(t, tt.expectedCode, rec.Code)
			assert.JSONEq(t, tt.expectedBody, rec.Body.String())
		})
	}
}

func TestAdminHandler_URLs(t *testing.T) {
	ctrl := gomock.NewController(t)
	defer ctrl.Finish()

	created := time.Date(2024, 5, 1, 12, 0, 0, 0, time.UTC)
	mockService := mocks.NewMockURLServiceIface(ctrl)
	mockService.EXPECT().Overview(gomock.Any()).Return(&models.AdminURLsResponse{
		URLs: []storage.Link{
			{Code: "bbb222", Original: "https://b.example", Clicks: 0, CreatedAt: created.Add(time.Hour)},
			{Code: "aaa111", Original: "https://a.example", Clicks: 1, CreatedAt: created},
		},
		Stats: models.Stats{TotalURLs: 2, TotalClicks: 1, AverageClicks: 0.5},
	}, nil)

	h := NewAdmin(mockService, mocks.NewMockAuthIface(ctrl), zap.NewNop())

	rec := httptest.NewRecorder()
	h.URLs(rec, httptest.NewRequest(http.MethodGet, "/api/admin/urls", nil))

	assert.Equal(t, http.StatusOK, rec.Code)
	assert.JSONEq(t, `{
		"urls": [
			{"shortCode":"bbb222","originalUrl":"https://b.example","clicks":0,"createdAt":"2024-05-01T13:00:00Z"},
			{"shortCode":"aaa111","originalUrl":"https://a.example","clicks":1,"createdAt":"2024-05-01T12:00:00Z"}
		],
		"stats": {"totalUrls":2,"totalClicks":1,"averageClicks":0.5}
	}`, rec.Body.String())
}

func TestAdminHandler_URLsEmpty(t *testing.T) {
	ctrl := gomock.NewController(t)
	defer ctrl.Finish()

	mockService := mocks.NewMockURLServiceIface(ctrl)
	mockService.EXPECT().Overview(gomock.Any()).Return(&models.AdminURLsResponse{}, nil)

	h := NewAdmin(mockService, mocks.NewMockAuthIface(ctrl), zap.NewNop())

	rec := httptest.NewRecorder()
	h.URLs(rec, httptest.NewRequest(http.MethodGet, "/api/admin/urls", nil))

	assert.Equal(t, http.StatusOK, rec.Code)
	assert.JSONEq(t, `{"urls":[],"stats":{"totalUrls":0,"totalClicks":0,"averageClicks":0}}`, rec.Body.String())
}

func TestAdminHandler_URLsStoreDown(t *testing.T) {
	ctrl := gomock.NewController(t)
	defer ctrl.Finish()

	mockService := mocks.NewMockURLServiceIface(ctrl)
	mockService.EXPECT().Overview(gomock.Any()).Return(nil, storage.ErrUnavailable)

	h := NewAdmin(mockService, mocks.NewMockAuthIface(ctrl), zap.NewNop())

	rec := httptest.NewRecorder()
	h.URLs(rec, httptest.NewRequest(http.MethodGet, "/api/admin/urls", nil))

	assert.Equal(t, http.StatusInternalServerError, rec.Code)
}
