package service

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"actc_portal_go/internal/model"
	"actc_portal_go/internal/repository"
	"actc_portal_go/pkg/analytics"
	"actc_portal_go/pkg/log"

	"github.com/go-redis/redis/v8"
	"github.com/robfig/cron/v3"
)

// AnalyticsService 把外部分析数据同步进浏览量，并提供热门新闻读路径。
// Start/Stop 管理定时刷新任务的生命周期。
type AnalyticsService interface {
	RefreshViewCounts(ctx context.Context, days int) (int, error)
	Trending(ctx context.Context, limit int) ([]model.News, error)
	Start() error
	Stop()
}

type analyticsService struct {
	client   analytics.Client
	newsRepo repository.NewsRepository
	rdb      *redis.Client // 可选，nil 时热门列表直接查库
	cacheTTL time.Duration
	spec     string
	cron     *cron.Cron
}

// NewAnalyticsService 创建 AnalyticsService。
// spec 是 cron 表达式（支持 @hourly 等描述符），rdb 传 nil 时不启用缓存。
func NewAnalyticsService(
	client analytics.Client,
	newsRepo repository.NewsRepository,
	rdb *redis.Client,
	cacheTTL time.Duration,
	spec string,
) AnalyticsService {
	return &analyticsService{
		client:   client,
		newsRepo: newsRepo,
		rdb:      rdb,
		cacheTTL: cacheTTL,
		spec:     spec,
	}
}

// RefreshViewCounts 拉取过去 days 天的事件计数并覆盖写入浏览量。
// 匹配不到记录的 id（已删除的新闻、模拟数据）静默跳过，返回更新条数。
func (s *analyticsService) RefreshViewCounts(ctx context.Context, days int) (int, error) {
	if days <= 0 {
		days = 30
	}

	counts, err := s.client.FetchAllViewCounts(ctx, days)
	if err != nil {
		log.Errorf("analytics: failed to fetch view counts: %v", err)
		return 0, ErrInternal
	}

	updated := 0
	for _, vc := range counts {
		matched, err := s.newsRepo.SetViewCountByAnalyticsID(vc.AnalyticsID, vc.Count)
		if err != nil {
			log.Warnf("analytics: failed to update view count for %s: %v", vc.AnalyticsID, err)
			continue
		}
		if matched {
			updated++
		}
	}

	s.invalidateTrending(ctx)
	log.Infof("analytics: refreshed view counts, %d of %d rows matched", updated, len(counts))
	return updated, nil
}

// Trending 返回浏览量最高的已发布新闻，带短 TTL 缓存。
// 缓存读写失败只记日志，不影响结果。
func (s *analyticsService) Trending(ctx context.Context, limit int) ([]model.News, error) {
	if limit <= 0 || limit > 50 {
		limit = 10
	}
	key := trendingKey(limit)

	if s.rdb != nil {
		cached, err := s.rdb.Get(ctx, key).Result()
		if err == nil {
			var items []model.News
			if err := json.Unmarshal([]byte(cached), &items); err == nil {
				return items, nil
			}
			log.Warnf("analytics: bad trending cache payload: %v", err)
		} else if err != redis.Nil {
			log.Warnf("analytics: trending cache read failed: %v", err)
		}
	}

	items, err := s.newsRepo.Trending(limit)
	if err != nil {
		log.Errorf("analytics: failed to load trending news: %v", err)
		return nil, ErrInternal
	}

	if s.rdb != nil {
		payload, err := json.Marshal(items)
		if err == nil {
			if err := s.rdb.Set(ctx, key, payload, s.cacheTTL).Err(); err != nil {
				log.Warnf("analytics: trending cache write failed: %v", err)
			}
		}
	}
	return items, nil
}

// Start 启动定时刷新任务。
func (s *analyticsService) Start() error {
	if s.cron != nil {
		return nil
	}
	c := cron.New()
	_, err := c.AddFunc(s.spec, func() {
		ctx, cancel := context.WithTimeout(context.Background(), time.Minute)
		defer cancel()
		if _, err := s.RefreshViewCounts(ctx, 30); err != nil {
			log.Warnf("analytics: scheduled refresh failed: %v", err)
		}
	})
	if err != nil {
		return fmt.Errorf("invalid analytics refresh schedule %q: %w", s.spec, err)
	}
	c.Start()
	s.cron = c
	log.Infof("analytics: refresh scheduled with %q", s.spec)
	return nil
}

// Stop 停止定时任务并等待在跑的刷新结束。
func (s *analyticsService) Stop() {
	if s.cron == nil {
		return
	}
	<-s.cron.Stop().Done()
	s.cron = nil
}

// invalidateTrending 刷新浏览量后清掉所有热门缓存键。
func (s *analyticsService) invalidateTrending(ctx context.Context) {
	if s.rdb == nil {
		return
	}
	keys, err := s.rdb.Keys(ctx, "trending:news:*").Result()
	if err != nil {
		log.Warnf("analytics: failed to list trending cache keys: %v", err)
		return
	}
	if len(keys) == 0 {
		return
	}
	if err := s.rdb.Del(ctx, keys...).Err(); err != nil {
		log.Warnf("analytics: failed to invalidate trending cache: %v", err)
	}
}

func trendingKey(limit int) string {
	return fmt.Sprintf("trending:news:%d", limit)
}
