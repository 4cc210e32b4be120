// Package search 提供可选的新闻全文检索。
//
// 启用 Elasticsearch 时，新闻的增删改会同步索引（尽力而为，失败只记日志），
// 管理端搜索先查 ES 拿 id 列表；未启用或查询失败时由调用方退回 SQL LIKE。
package search

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"strconv"

	"actc_portal_go/internal/model"
	"actc_portal_go/pkg/log"

	"github.com/elastic/go-elasticsearch/v8"
)

// NewsIndexer 把新闻文档写入/移出 Elasticsearch，并提供 id 检索。
type NewsIndexer struct {
	client *elasticsearch.Client
	index  string
}

// newsDoc 是写入索引的文档结构，只包含参与检索的字段。
type newsDoc struct {
	Title       string `json:"title"`
	Description string `json:"description"`
	Content     string `json:"content"`
	Tags        string `json:"tags"`
	Status      string `json:"status"`
}

// NewNewsIndexer 创建索引器。
func NewNewsIndexer(addresses []string, index string) (*NewsIndexer, error) {
	client, err := elasticsearch.NewClient(elasticsearch.Config{Addresses: addresses})
	if err != nil {
		return nil, fmt.Errorf("failed to create elasticsearch client: %w", err)
	}
	return &NewsIndexer{client: client, index: index}, nil
}

// Index 写入或覆盖一条新闻文档。
func (x *NewsIndexer) Index(ctx context.Context, news *model.News) {
	doc := newsDoc{
		Title:       news.Title,
		Description: news.Description,
		Content:     news.Content,
		Tags:        news.Tags,
		Status:      news.Status,
	}
	payload, err := json.Marshal(doc)
	if err != nil {
		log.Warnf("search: failed to marshal news %d: %v", news.ID, err)
		return
	}

	res, err := x.client.Index(
		x.index,
		bytes.NewReader(payload),
		x.client.Index.WithDocumentID(strconv.FormatUint(uint64(news.ID), 10)),
		x.client.Index.WithContext(ctx),
	)
	if err != nil {
		log.Warnf("search: failed to index news %d: %v", news.ID, err)
		return
	}
	defer res.Body.Close()
	if res.IsError() {
		log.Warnf("search: indexing news %d returned %s", news.ID, res.Status())
	}
}

// Delete 移除一条新闻文档，文档不存在不算错误。
func (x *NewsIndexer) Delete(ctx context.Context, newsID uint) {
	res, err := x.client.Delete(
		x.index,
		strconv.FormatUint(uint64(newsID), 10),
		x.client.Delete.WithContext(ctx),
	)
	if err != nil {
		log.Warnf("search: failed to delete news %d from index: %v", newsID, err)
		return
	}
	defer res.Body.Close()
}

// Search 按关键词检索新闻 id，按相关度排序。
func (x *NewsIndexer) Search(ctx context.Context, keyword string, limit int) ([]uint, error) {
	if limit <= 0 {
		limit = 50
	}
	query := map[string]interface{}{
		"size": limit,
		"query": map[string]interface{}{
			"multi_match": map[string]interface{}{
				"query":  keyword,
				"fields": []string{"title^3", "description^2", "content", "tags"},
			},
		},
	}
	payload, err := json.Marshal(query)
	if err != nil {
		return nil, err
	}

	res, err := x.client.Search(
		x.client.Search.WithIndex(x.index),
		x.client.Search.WithBody(bytes.NewReader(payload)),
		x.client.Search.WithContext(ctx),
	)
	if err != nil {
		return nil, err
	}
	defer res.Body.Close()
	if res.IsError() {
		return nil, fmt.Errorf("search returned %s", res.Status())
	}

	var result struct {
		Hits struct {
			Hits []struct {
				ID string `json:"_id"`
			} `json:"hits"`
		} `json:"hits"`
	}
	if err := json.NewDecoder(res.Body).Decode(&result); err != nil {
		return nil, err
	}

	ids := make([]uint, 0, len(result.Hits.Hits))
	for _, hit := range result.Hits.Hits {
		n, err := strconv.ParseUint(hit.ID, 10, 64)
		if err != nil {
			continue
		}
		ids = append(ids, uint(n))
	}
	return ids, nil
}
