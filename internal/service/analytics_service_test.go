package service

import (
	"context"
	"errors"
	"testing"
	"time"

	"actc_portal_go/internal/model"
	"actc_portal_go/pkg/analytics"
)

type fakeAnalyticsClient struct {
	fetchFn func(ctx context.Context, days int) ([]analytics.ViewCount, error)
}

func (f *fakeAnalyticsClient) FetchAllViewCounts(ctx context.Context, days int) ([]analytics.ViewCount, error) {
	return f.fetchFn(ctx, days)
}

func TestAnalyticsService_RefreshViewCounts_CountsOnlyMatched(t *testing.T) {
	client := &fakeAnalyticsClient{
		fetchFn: func(context.Context, int) ([]analytics.ViewCount, error) {
			return []analytics.ViewCount{
				{AnalyticsID: "news_1_100", Count: 10},
				{AnalyticsID: "news_2_200", Count: 20},
				{AnalyticsID: "mock_9", Count: 5},
			}, nil
		},
	}
	matched := map[string]int64{"news_1_100": 0, "news_2_200": 0}
	repo := &fakeNewsRepo{
		setViewCountFn: func(analyticsID string, count int64) (bool, error) {
			if _, ok := matched[analyticsID]; !ok {
				return false, nil
			}
			matched[analyticsID] = count
			return true, nil
		},
	}
	svc := NewAnalyticsService(client, repo, nil, time.Minute, "@hourly")

	updated, err := svc.RefreshViewCounts(context.Background(), 30)
	if err != nil {
		t.Fatalf("RefreshViewCounts() error = %v", err)
	}
	if updated != 2 {
		t.Fatalf("expected 2 updated, got %d", updated)
	}
	if matched["news_1_100"] != 10 || matched["news_2_200"] != 20 {
		t.Fatalf("unexpected counts: %v", matched)
	}
}

func TestAnalyticsService_RefreshViewCounts_SkipsRowErrors(t *testing.T) {
	client := &fakeAnalyticsClient{
		fetchFn: func(context.Context, int) ([]analytics.ViewCount, error) {
			return []analytics.ViewCount{
				{AnalyticsID: "news_1_100", Count: 10},
				{AnalyticsID: "news_2_200", Count: 20},
			}, nil
		},
	}
	repo := &fakeNewsRepo{
		setViewCountFn: func(analyticsID string, _ int64) (bool, error) {
			if analyticsID == "news_1_100" {
				return false, errors.New("db hiccup")
			}
			return true, nil
		},
	}
	svc := NewAnalyticsService(client, repo, nil, time.Minute, "@hourly")

	updated, err := svc.RefreshViewCounts(context.Background(), 30)
	if err != nil {
		t.Fatalf("RefreshViewCounts() error = %v", err)
	}
	if updated != 1 {
		t.Fatalf("expected 1 updated, got %d", updated)
	}
}

func TestAnalyticsService_RefreshViewCounts_FetchFailure(t *testing.T) {
	client := &fakeAnalyticsClient{
		fetchFn: func(context.Context, int) ([]analytics.ViewCount, error) {
			return nil, errors.New("api quota exceeded")
		},
	}
	svc := NewAnalyticsService(client, &fakeNewsRepo{}, nil, time.Minute, "@hourly")

	_, err := svc.RefreshViewCounts(context.Background(), 30)
	if !errors.Is(err, ErrInternal) {
		t.Fatalf("expected ErrInternal, got: %v", err)
	}
}

func TestAnalyticsService_Trending_NoCacheFallsToRepo(t *testing.T) {
	var gotLimit int
	repo := &fakeNewsRepo{
		trendingFn: func(limit int) ([]model.News, error) {
			gotLimit = limit
			return []model.News{{ID: 1, Title: "hot"}}, nil
		},
	}
	svc := NewAnalyticsService(&fakeAnalyticsClient{}, repo, nil, time.Minute, "@hourly")

	items, err := svc.Trending(context.Background(), 5)
	if err != nil {
		t.Fatalf("Trending() error = %v", err)
	}
	if gotLimit != 5 || len(items) != 1 {
		t.Fatalf("unexpected result: limit=%d len=%d", gotLimit, len(items))
	}
}

func TestAnalyticsService_Trending_ClampsLimit(t *testing.T) {
	var gotLimit int
	repo := &fakeNewsRepo{
		trendingFn: func(limit int) ([]model.News, error) {
			gotLimit = limit
			return []model.News{}, nil
		},
	}
	svc := NewAnalyticsService(&fakeAnalyticsClient{}, repo, nil, time.Minute, "@hourly")

	for _, limit := range []int{0, -3, 500} {
		if _, err := svc.Trending(context.Background(), limit); err != nil {
			t.Fatalf("Trending(%d) error = %v", limit, err)
		}
		if gotLimit != 10 {
			t.Fatalf("Trending(%d): expected clamped limit 10, got %d", limit, gotLimit)
		}
	}
}

func TestAnalyticsService_Start_InvalidSchedule(t *testing.T) {
	svc := NewAnalyticsService(&fakeAnalyticsClient{}, &fakeNewsRepo{}, nil, time.Minute, "every five minutes")

	if err := svc.Start(); err == nil {
		t.Fatal("expected error for invalid schedule")
	}
}

func TestAnalyticsService_StartStop(t *testing.T) {
	client := &fakeAnalyticsClient{
		fetchFn: func(context.Context, int) ([]analytics.ViewCount, error) {
			return nil, nil
		},
	}
	svc := NewAnalyticsService(client, &fakeNewsRepo{}, nil, time.Minute, "@hourly")

	if err := svc.Start(); err != nil {
		t.Fatalf("Start() error = %v", err)
	}
	// 重复 Start 不应重复建任务
	if err := svc.Start(); err != nil {
		t.Fatalf("second Start() error = %v", err)
	}
	svc.Stop()
	svc.Stop()
}
