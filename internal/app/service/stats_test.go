package service_test

import (
	"context"
	"encoding/json"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/mock/gomock"
	"go.uber.org/zap"

	"github.com/atinyakov/clickshort/internal/app/service"
	"github.com/atinyakov/clickshort/internal/mocks"
	"github.com/atinyakov/clickshort/internal/models"
	"github.com/atinyakov/clickshort/internal/storage"
)

func TestAggregate(t *testing.T) {
	tests := []struct {
		name  string
		links []storage.Link
		want  models.Stats
	}{
		{
			name:  "empty",
			links: nil,
			want:  models.Stats{},
		},
		{
			name:  "even",
			links: []storage.Link{{Clicks: 4}, {Clicks: 2}},
			want:  models.Stats{TotalURLs: 2, TotalClicks: 6, AverageClicks: 3},
		},
		{
			name:  "two decimals",
			links: []storage.Link{{Clicks: 1}, {Clicks: 0}, {Clicks: 0}},
			want:  models.Stats{TotalURLs: 3, TotalClicks: 1, AverageClicks: 0.33},
		},
		{
			name:  "rounds half up",
			links: []storage.Link{{Clicks: 2}, {Clicks: 0}, {Clicks: 0}},
			want:  models.Stats{TotalURLs: 3, TotalClicks: 2, AverageClicks: 0.67},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, service.Aggregate(tt.links))
		})
	}
}

func TestURLService_SummarizeEmpty(t *testing.T) {
	svc, _ := newMemoryService(t)

	st, err := svc.Summarize(context.Background())
	require.NoError(t, err)
	assert.Equal(t, &models.Stats{}, st)

	b, err := json.Marshal(st)
	require.NoError(t, err)
	assert.JSONEq(t, `{"totalUrls":0,"totalClicks":0,"averageClicks":0}`, string(b))
}

func TestURLService_OverviewMatchesListing(t *testing.T) {
	svc, _ := newMemoryService(t)
	ctx := context.Background()

	a, err := svc.Shorten(ctx, "https://a.example")
	require.NoError(t, err)
	time.Sleep(2 * time.Millisecond)
	b, err := svc.Shorten(ctx, "https://b.example")
	require.NoError(t, err)

	for i := 0; i < 3; i++ {
		_, err := svc.Resolve(ctx, a.Code)
		require.NoError(t, err)
	}

	res, err := svc.Overview(ctx)
	require.NoError(t, err)

	require.Len(t, res.URLs, 2)
	assert.Equal(t, b.Code, res.URLs[0].Code, "newest first")
	assert.Equal(t, a.Code, res.URLs[1].Code)
	assert.Equal(t, int64(3), res.URLs[1].Clicks)
	assert.Equal(t, models.Stats{TotalURLs: 2, TotalClicks: 3, AverageClicks: 1.5}, res.Stats)
}

func TestURLService_OverviewStoreError(t *testing.T) {
	ctrl := gomock.NewController(t)
	defer ctrl.Finish()

	store := mocks.NewMockLinkStore(ctrl)
	store.EXPECT().ListAll(gomock.Any()).Return(nil, storage.ErrUnavailable)

	svc := service.NewURL(store, mocks.NewMockCodeGenerator(ctrl), zap.NewNop(), "")

	_, err := svc.Overview(context.Background())
	assert.ErrorIs(t, err, storage.ErrUnavailable)
}
