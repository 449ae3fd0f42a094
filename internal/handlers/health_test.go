package handlers

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"

	"go.uber.org/mock/gomock"

	vectorstore_mocks "ragstore/internal/vectorstore/mocks"
)

// fakePinger implements Pinger with a fixed result.
type fakePinger struct {
	err error
}

func (p *fakePinger) Ping(_ context.Context) error {
	return p.err
}

func TestHealthHandler_ServeHTTP(t *testing.T) {
	tests := []struct {
		name       string
		storeErr   error
		embErr     error
		wantStatus int
		wantHealth string
	}{
		{
			name:       "all healthy",
			wantStatus: http.StatusOK,
			wantHealth: "healthy",
		},
		{
			name:       "store down",
			storeErr:   fmt.Errorf("connection refused"),
			wantStatus: http.StatusServiceUnavailable,
			wantHealth: "unhealthy",
		},
		{
			name:       "embedder down",
			embErr:     fmt.Errorf("no route to host"),
			wantStatus: http.StatusServiceUnavailable,
			wantHealth: "unhealthy",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			ctrl := gomock.NewController(t)
			defer ctrl.Finish()

			mockStore := vectorstore_mocks.NewMockChunkStore(ctrl)
			mockStore.EXPECT().Ping(gomock.Any()).Return(tt.storeErr)

			handler := NewHealthHandler(mockStore, &fakePinger{err: tt.embErr})
			req := httptest.NewRequest(http.MethodGet, "/health", nil)
			rec := httptest.NewRecorder()
			handler.ServeHTTP(rec, req)

			if rec.Code != tt.wantStatus {
				t.Fatalf("status = %d, want %d", rec.Code, tt.wantStatus)
			}

			var resp HealthResponse
			if err := json.Unmarshal(rec.Body.Bytes(), &resp); err != nil {
				t.Fatalf("failed to decode response: %v", err)
			}
			if resp.Status != tt.wantHealth {
				t.Errorf("health = %s, want %s", resp.Status, tt.wantHealth)
			}
		})
	}
}
