package service

import (
	"context"
	"errors"
	"time"

	"actc_portal_go/internal/model"
	"actc_portal_go/internal/repository"
	"actc_portal_go/internal/search"
	"actc_portal_go/pkg/log"
	"actc_portal_go/pkg/upload"

	"gorm.io/gorm"
)

// NewsInput 是新闻创建/更新的输入，nil 字段表示不修改。
// Image/File 是 handler 已落盘的上传文件；保存失败时由 service 负责清理。
type NewsInput struct {
	Title       *string
	Content     *string
	Description *string
	VideoURL    *string
	Link        *string
	PublishDate *time.Time
	Status      *string
	Tags        *string
	Featured    *bool
	Image       *upload.Stored
	File        *upload.Stored
	RemoveImage bool
	RemoveFile  bool
}

// NewsListResult 是管理端列表响应：分页数据加状态统计。
type NewsListResult struct {
	Items  []model.News
	Total  int64
	Counts map[string]int64
}

// NewsBatchAction 是批量操作的动作名。
const (
	NewsBatchPublish   = "publish"
	NewsBatchDraft     = "draft"
	NewsBatchFeature   = "feature"
	NewsBatchUnfeature = "unfeature"
	NewsBatchDelete    = "delete"
)

// NewsService 负责新闻的读写、文件生命周期与索引同步。
type NewsService interface {
	Create(authorID uint, input NewsInput) (*model.News, error)
	Update(newsID uint, input NewsInput) (*model.News, error)
	Delete(newsID uint) error
	GetAdmin(newsID uint) (*model.News, error)
	GetPublic(newsID uint) (*model.News, error)
	ListPublic(filter repository.NewsFilter) ([]model.News, int64, error)
	ListAdmin(filter repository.NewsFilter) (*NewsListResult, error)
	Batch(action string, ids []uint) (int64, error)
}

type newsService struct {
	newsRepo repository.NewsRepository
	uploads  *upload.Manager
	indexer  *search.NewsIndexer // 可选，nil 表示未启用全文检索
}

// NewNewsService 创建 NewsService，indexer 传 nil 时搜索退回 SQL LIKE。
func NewNewsService(newsRepo repository.NewsRepository, uploads *upload.Manager, indexer *search.NewsIndexer) NewsService {
	return &newsService{newsRepo: newsRepo, uploads: uploads, indexer: indexer}
}

// Create 创建新闻。分析关联 id 在 INSERT 前生成，一次写入；
// 落库失败时清理本次已写入的上传文件。
func (s *newsService) Create(authorID uint, input NewsInput) (*model.News, error) {
	if input.Title == nil || *input.Title == "" || input.Content == nil || *input.Content == "" {
		s.uploads.Cleanup(input.Image, input.File)
		return nil, ErrInvalidInput
	}

	news := &model.News{
		Title:       *input.Title,
		Content:     *input.Content,
		Status:      model.NewsStatusDraft,
		PublishDate: time.Now(),
		AuthorID:    authorID,
	}
	if input.Description != nil {
		news.Description = *input.Description
	}
	if input.Link != nil {
		news.Link = *input.Link
	}
	if input.VideoURL != nil {
		news.VideoURL = *input.VideoURL
	}
	if input.PublishDate != nil {
		news.PublishDate = *input.PublishDate
	}
	if input.Status != nil {
		if *input.Status != model.NewsStatusDraft && *input.Status != model.NewsStatusPublished {
			s.uploads.Cleanup(input.Image, input.File)
			return nil, ErrInvalidInput
		}
		news.Status = *input.Status
	}
	if input.Tags != nil {
		news.Tags = NormalizeTags(*input.Tags)
	}
	if input.Featured != nil {
		news.Featured = *input.Featured
	}
	news.VideoType = DeriveVideoType(news.VideoURL)
	news.AnalyticsID = GenerateAnalyticsID()
	if input.Image != nil {
		news.ImageURL = input.Image.Path
	}
	if input.File != nil {
		news.File = storedToAttachment(input.File)
	}

	if err := s.newsRepo.Create(news); err != nil {
		s.uploads.Cleanup(input.Image, input.File)
		log.Errorf("CreateNews: failed to create: %v", err)
		return nil, ErrInternal
	}

	s.syncIndex(news)
	return news, nil
}

// Update 更新新闻。替换图片/附件时先写新文件，落库成功后才删旧文件，
// 落库失败则清理新文件，保证记录与磁盘始终一致。
func (s *newsService) Update(newsID uint, input NewsInput) (*model.News, error) {
	news, err := s.findNews(newsID)
	if err != nil {
		s.uploads.Cleanup(input.Image, input.File)
		return nil, err
	}

	var stale []string

	if input.Title != nil && *input.Title != "" {
		news.Title = *input.Title
	}
	if input.Content != nil && *input.Content != "" {
		news.Content = *input.Content
	}
	if input.Description != nil {
		news.Description = *input.Description
	}
	if input.Link != nil {
		news.Link = *input.Link
	}
	if input.VideoURL != nil {
		news.VideoURL = *input.VideoURL
		news.VideoType = DeriveVideoType(news.VideoURL)
	}
	if input.PublishDate != nil {
		news.PublishDate = *input.PublishDate
	}
	if input.Status != nil {
		if *input.Status != model.NewsStatusDraft && *input.Status != model.NewsStatusPublished {
			s.uploads.Cleanup(input.Image, input.File)
			return nil, ErrInvalidInput
		}
		news.Status = *input.Status
	}
	if input.Tags != nil {
		news.Tags = NormalizeTags(*input.Tags)
	}
	if input.Featured != nil {
		news.Featured = *input.Featured
	}

	if input.Image != nil {
		if news.ImageURL != "" {
			stale = append(stale, news.ImageURL)
		}
		news.ImageURL = input.Image.Path
	} else if input.RemoveImage && news.ImageURL != "" {
		stale = append(stale, news.ImageURL)
		news.ImageURL = ""
	}
	if input.File != nil {
		if news.File.Path != "" {
			stale = append(stale, news.File.Path)
		}
		news.File = storedToAttachment(input.File)
	} else if input.RemoveFile && news.File.Path != "" {
		stale = append(stale, news.File.Path)
		news.File = model.Attachment{}
	}

	if err := s.newsRepo.Update(news); err != nil {
		s.uploads.Cleanup(input.Image, input.File)
		log.Errorf("UpdateNews: failed to update %d: %v", newsID, err)
		return nil, ErrInternal
	}
	for _, path := range stale {
		s.uploads.Remove(path)
	}

	s.syncIndex(news)
	return news, nil
}

// Delete 删除新闻并回收其图片与附件。
func (s *newsService) Delete(newsID uint) error {
	news, err := s.findNews(newsID)
	if err != nil {
		return err
	}
	if err := s.newsRepo.Delete(newsID); err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return ErrNewsNotFound
		}
		log.Errorf("DeleteNews: failed to delete %d: %v", newsID, err)
		return ErrInternal
	}

	s.removeNewsFiles(news)
	if s.indexer != nil {
		s.indexer.Delete(context.Background(), newsID)
	}
	return nil
}

func (s *newsService) GetAdmin(newsID uint) (*model.News, error) {
	return s.findNews(newsID)
}

// GetPublic 读取单条已发布新闻并计一次浏览。
// 草稿对公开端视同不存在。
func (s *newsService) GetPublic(newsID uint) (*model.News, error) {
	news, err := s.findNews(newsID)
	if err != nil {
		return nil, err
	}
	if news.Status != model.NewsStatusPublished {
		return nil, ErrNewsNotFound
	}

	if err := s.newsRepo.IncrementViewCount(newsID); err != nil {
		log.Warnf("GetNews: failed to increment view count for %d: %v", newsID, err)
	} else {
		news.ViewCount++
	}
	return news, nil
}

// ListPublic 公开列表：只返回已发布的新闻。
func (s *newsService) ListPublic(filter repository.NewsFilter) ([]model.News, int64, error) {
	filter.Status = model.NewsStatusPublished
	items, total, err := s.newsRepo.List(filter)
	if err != nil {
		log.Errorf("ListNews: %v", err)
		return nil, 0, ErrInternal
	}
	return items, total, nil
}

// ListAdmin 管理端列表，带状态统计。
// 有关键词且索引可用时先查全文索引，失败退回 SQL LIKE。
func (s *newsService) ListAdmin(filter repository.NewsFilter) (*NewsListResult, error) {
	counts, err := s.newsRepo.CountByStatus()
	if err != nil {
		log.Errorf("ListNews: failed to count by status: %v", err)
		return nil, ErrInternal
	}

	if filter.Search != "" && s.indexer != nil {
		if result, ok := s.searchByIndex(filter); ok {
			result.Counts = counts
			return result, nil
		}
	}

	items, total, err := s.newsRepo.List(filter)
	if err != nil {
		log.Errorf("ListNews: %v", err)
		return nil, ErrInternal
	}
	return &NewsListResult{Items: items, Total: total, Counts: counts}, nil
}

// searchByIndex 用全文索引取 id 再回表，保持相关度排序。
// 返回 false 表示索引不可用，调用方退回 SQL。
func (s *newsService) searchByIndex(filter repository.NewsFilter) (*NewsListResult, bool) {
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	ids, err := s.indexer.Search(ctx, filter.Search, 200)
	if err != nil {
		log.Warnf("ListNews: index search failed, falling back to SQL: %v", err)
		return nil, false
	}

	rows, err := s.newsRepo.FindByIDs(ids)
	if err != nil {
		log.Warnf("ListNews: failed to load indexed news: %v", err)
		return nil, false
	}
	byID := make(map[uint]model.News, len(rows))
	for _, n := range rows {
		byID[n.ID] = n
	}

	items := make([]model.News, 0, len(ids))
	for _, id := range ids {
		n, ok := byID[id]
		if !ok {
			continue
		}
		if filter.Status != "" && n.Status != filter.Status {
			continue
		}
		if filter.Featured != nil && n.Featured != *filter.Featured {
			continue
		}
		items = append(items, n)
	}
	return &NewsListResult{Items: items, Total: int64(len(items))}, true
}

// Batch 批量操作：发布、转草稿、置顶、取消置顶、删除。
// 删除会同时回收文件并清理索引。
func (s *newsService) Batch(action string, ids []uint) (int64, error) {
	if len(ids) == 0 {
		return 0, ErrInvalidInput
	}

	var (
		affected int64
		err      error
	)
	switch action {
	case NewsBatchPublish:
		affected, err = s.newsRepo.BatchUpdateStatus(ids, model.NewsStatusPublished)
	case NewsBatchDraft:
		affected, err = s.newsRepo.BatchUpdateStatus(ids, model.NewsStatusDraft)
	case NewsBatchFeature:
		affected, err = s.newsRepo.BatchSetFeatured(ids, true)
	case NewsBatchUnfeature:
		affected, err = s.newsRepo.BatchSetFeatured(ids, false)
	case NewsBatchDelete:
		return s.batchDelete(ids)
	default:
		return 0, ErrInvalidInput
	}
	if err != nil {
		log.Errorf("BatchNews: action %q failed: %v", action, err)
		return 0, ErrInternal
	}

	if action == NewsBatchPublish || action == NewsBatchDraft {
		s.reindexByIDs(ids)
	}
	return affected, nil
}

func (s *newsService) batchDelete(ids []uint) (int64, error) {
	// 先取出记录，删库后才能回收对应文件
	rows, err := s.newsRepo.FindByIDs(ids)
	if err != nil {
		log.Errorf("BatchNews: failed to load news for delete: %v", err)
		return 0, ErrInternal
	}

	affected, err := s.newsRepo.BatchDelete(ids)
	if err != nil {
		log.Errorf("BatchNews: delete failed: %v", err)
		return 0, ErrInternal
	}

	for i := range rows {
		s.removeNewsFiles(&rows[i])
		if s.indexer != nil {
			s.indexer.Delete(context.Background(), rows[i].ID)
		}
	}
	return affected, nil
}

func (s *newsService) reindexByIDs(ids []uint) {
	if s.indexer == nil {
		return
	}
	rows, err := s.newsRepo.FindByIDs(ids)
	if err != nil {
		log.Warnf("BatchNews: failed to reload news for reindex: %v", err)
		return
	}
	for i := range rows {
		s.indexer.Index(context.Background(), &rows[i])
	}
}

func (s *newsService) syncIndex(news *model.News) {
	if s.indexer == nil {
		return
	}
	s.indexer.Index(context.Background(), news)
}

func (s *newsService) removeNewsFiles(news *model.News) {
	if news.ImageURL != "" {
		s.uploads.Remove(news.ImageURL)
	}
	if news.File.Path != "" {
		s.uploads.Remove(news.File.Path)
	}
}

func (s *newsService) findNews(newsID uint) (*model.News, error) {
	news, err := s.newsRepo.FindByID(newsID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrNewsNotFound
		}
		log.Errorf("failed to query news %d: %v", newsID, err)
		return nil, ErrInternal
	}
	return news, nil
}

func storedToAttachment(s *upload.Stored) model.Attachment {
	return model.Attachment{
		Path:         s.Path,
		OriginalName: s.OriginalName,
		Size:         s.Size,
		MimeType:     s.MimeType,
	}
}
