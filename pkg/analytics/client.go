// Package analytics 封装外部分析服务（GA4 Data API）的访问。
//
// 未配置或请求失败时退回 MockClient 的合成数据，保证依赖浏览量的读路径
// （热门新闻）始终可用。
package analytics

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"math/rand"
	"net/http"
	"strconv"
	"time"
)

// ViewCount 是一条新闻的外部浏览量，按 AnalyticsID 与记录关联。
type ViewCount struct {
	AnalyticsID string
	Count       int64
}

// Client 拉取每篇新闻的事件计数。
type Client interface {
	FetchAllViewCounts(ctx context.Context, days int) ([]ViewCount, error)
}

// GA4Client 通过 GA4 Data API 的 runReport 接口查询 news_id 自定义维度的
// 事件计数。只做一次 HTTP 调用，不重试。
type GA4Client struct {
	baseURL    string
	propertyID string
	apiKey     string
	httpClient *http.Client
}

// NewGA4Client 创建 GA4 客户端。
func NewGA4Client(baseURL, propertyID, apiKey string) *GA4Client {
	return &GA4Client{
		baseURL:    baseURL,
		propertyID: propertyID,
		apiKey:     apiKey,
		httpClient: &http.Client{Timeout: 15 * time.Second},
	}
}

// runReport 请求/响应体，只声明用到的字段。
type runReportRequest struct {
	DateRanges []dateRange `json:"dateRanges"`
	Dimensions []named     `json:"dimensions"`
	Metrics    []named     `json:"metrics"`
}

type dateRange struct {
	StartDate string `json:"startDate"`
	EndDate   string `json:"endDate"`
}

type named struct {
	Name string `json:"name"`
}

type runReportResponse struct {
	Rows []struct {
		DimensionValues []struct {
			Value string `json:"value"`
		} `json:"dimensionValues"`
		MetricValues []struct {
			Value string `json:"value"`
		} `json:"metricValues"`
	} `json:"rows"`
}

// FetchAllViewCounts 查询过去 days 天每个 news_id 的事件计数。
func (c *GA4Client) FetchAllViewCounts(ctx context.Context, days int) ([]ViewCount, error) {
	start := time.Now().AddDate(0, 0, -days)
	reqBody := runReportRequest{
		DateRanges: []dateRange{{StartDate: start.Format("2006-01-02"), EndDate: "today"}},
		Dimensions: []named{{Name: "customEvent:news_id"}},
		Metrics:    []named{{Name: "eventCount"}},
	}

	payload, err := json.Marshal(reqBody)
	if err != nil {
		return nil, err
	}

	url := fmt.Sprintf("%s/v1beta/properties/%s:runReport", c.baseURL, c.propertyID)
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(payload))
	if err != nil {
		return nil, err
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Authorization", "Bearer "+c.apiKey)

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("analytics api returned status %d", resp.StatusCode)
	}

	var report runReportResponse
	if err := json.NewDecoder(resp.Body).Decode(&report); err != nil {
		return nil, err
	}

	counts := make([]ViewCount, 0, len(report.Rows))
	for _, row := range report.Rows {
		if len(row.DimensionValues) == 0 || len(row.MetricValues) == 0 {
			continue
		}
		n, err := strconv.ParseInt(row.MetricValues[0].Value, 10, 64)
		if err != nil {
			continue
		}
		counts = append(counts, ViewCount{AnalyticsID: row.DimensionValues[0].Value, Count: n})
	}
	return counts, nil
}

// MockClient 在外部分析服务未配置时提供合成数据。
type MockClient struct{}

// FetchAllViewCounts 返回固定 id 加随机计数的占位数据。
func (MockClient) FetchAllViewCounts(_ context.Context, _ int) ([]ViewCount, error) {
	counts := make([]ViewCount, 0, 5)
	for i := 1; i <= 5; i++ {
		counts = append(counts, ViewCount{
			AnalyticsID: fmt.Sprintf("mock_%d", i),
			Count:       int64(rand.Intn(1000) + 50),
		})
	}
	return counts, nil
}
