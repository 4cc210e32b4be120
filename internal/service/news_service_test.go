package service

import (
	"errors"
	"os"
	"strings"
	"testing"

	"actc_portal_go/internal/model"
	"actc_portal_go/internal/repository"
	"actc_portal_go/pkg/upload"

	"gorm.io/gorm"
)

type fakeNewsRepo struct {
	createFn        func(news *model.News) error
	findByIDFn      func(newsID uint) (*model.News, error)
	findByIDsFn     func(ids []uint) ([]model.News, error)
	updateFn        func(news *model.News) error
	deleteFn        func(newsID uint) error
	listFn          func(filter repository.NewsFilter) ([]model.News, int64, error)
	trendingFn      func(limit int) ([]model.News, error)
	incrementFn     func(newsID uint) error
	setViewCountFn  func(analyticsID string, count int64) (bool, error)
	batchStatusFn   func(ids []uint, status string) (int64, error)
	batchFeaturedFn func(ids []uint, featured bool) (int64, error)
	batchDeleteFn   func(ids []uint) (int64, error)
	countByStatusFn func() (map[string]int64, error)
}

func (f *fakeNewsRepo) Create(news *model.News) error {
	if f.createFn != nil {
		return f.createFn(news)
	}
	return nil
}
func (f *fakeNewsRepo) FindByID(newsID uint) (*model.News, error) {
	if f.findByIDFn != nil {
		return f.findByIDFn(newsID)
	}
	return nil, gorm.ErrRecordNotFound
}
func (f *fakeNewsRepo) FindByIDs(ids []uint) ([]model.News, error) {
	if f.findByIDsFn != nil {
		return f.findByIDsFn(ids)
	}
	return []model.News{}, nil
}
func (f *fakeNewsRepo) Update(news *model.News) error {
	if f.updateFn != nil {
		return f.updateFn(news)
	}
	return nil
}
func (f *fakeNewsRepo) Delete(newsID uint) error {
	if f.deleteFn != nil {
		return f.deleteFn(newsID)
	}
	return nil
}
func (f *fakeNewsRepo) List(filter repository.NewsFilter) ([]model.News, int64, error) {
	if f.listFn != nil {
		return f.listFn(filter)
	}
	return []model.News{}, 0, nil
}
func (f *fakeNewsRepo) Trending(limit int) ([]model.News, error) {
	if f.trendingFn != nil {
		return f.trendingFn(limit)
	}
	return []model.News{}, nil
}
func (f *fakeNewsRepo) IncrementViewCount(newsID uint) error {
	if f.incrementFn != nil {
		return f.incrementFn(newsID)
	}
	return nil
}
func (f *fakeNewsRepo) SetViewCountByAnalyticsID(analyticsID string, count int64) (bool, error) {
	if f.setViewCountFn != nil {
		return f.setViewCountFn(analyticsID, count)
	}
	return false, nil
}
func (f *fakeNewsRepo) BatchUpdateStatus(ids []uint, status string) (int64, error) {
	if f.batchStatusFn != nil {
		return f.batchStatusFn(ids, status)
	}
	return int64(len(ids)), nil
}
func (f *fakeNewsRepo) BatchSetFeatured(ids []uint, featured bool) (int64, error) {
	if f.batchFeaturedFn != nil {
		return f.batchFeaturedFn(ids, featured)
	}
	return int64(len(ids)), nil
}
func (f *fakeNewsRepo) BatchDelete(ids []uint) (int64, error) {
	if f.batchDeleteFn != nil {
		return f.batchDeleteFn(ids)
	}
	return int64(len(ids)), nil
}
func (f *fakeNewsRepo) CountByStatus() (map[string]int64, error) {
	if f.countByStatusFn != nil {
		return f.countByStatusFn()
	}
	return map[string]int64{}, nil
}

func newTestUploads(t *testing.T) *upload.Manager {
	t.Helper()
	m, err := upload.NewManager(t.TempDir())
	if err != nil {
		t.Fatalf("NewManager() error: %v", err)
	}
	return m
}

// writeStored 在上传目录里直接落一个文件，模拟 handler 已保存的上传。
func writeStored(t *testing.T, m *upload.Manager, dir, name string) *upload.Stored {
	t.Helper()
	publicPath := "/uploads/" + dir + "/" + name
	diskPath, ok := m.DiskPath(publicPath)
	if !ok {
		t.Fatalf("DiskPath(%q) rejected", publicPath)
	}
	if err := os.WriteFile(diskPath, []byte("payload"), 0644); err != nil {
		t.Fatalf("WriteFile() error: %v", err)
	}
	return &upload.Stored{
		Path:         publicPath,
		DiskPath:     diskPath,
		OriginalName: name,
		Size:         7,
		MimeType:     "application/octet-stream",
	}
}

func fileExists(path string) bool {
	_, err := os.Stat(path)
	return err == nil
}

func strPtr(s string) *string { return &s }

func TestNewsService_Create_DerivesFields(t *testing.T) {
	uploads := newTestUploads(t)
	var atInsert string
	repo := &fakeNewsRepo{
		createFn: func(news *model.News) error {
			atInsert = news.AnalyticsID
			news.ID = 12
			return nil
		},
	}
	svc := NewNewsService(repo, uploads, nil)

	news, err := svc.Create(1, NewsInput{
		Title:    strPtr("Launch"),
		Content:  strPtr("body"),
		VideoURL: strPtr("https://www.youtube.com/watch?v=abc"),
		Tags:     strPtr("Go, AI ,go"),
	})
	if err != nil {
		t.Fatalf("Create() error = %v", err)
	}
	if news.VideoType != model.VideoTypeYouTube {
		t.Fatalf("expected youtube video type, got %q", news.VideoType)
	}
	if news.Tags != "go,ai" {
		t.Fatalf("expected normalized tags, got %q", news.Tags)
	}
	if !strings.HasPrefix(atInsert, "news_") {
		t.Fatalf("expected analytics id at insert time, got %q", atInsert)
	}
}

// 分析关联 id 必须在 INSERT 时就位：唯一索引列不能先写空串再回填。
func TestNewsService_Create_AnalyticsIDSingleWrite(t *testing.T) {
	uploads := newTestUploads(t)
	updated := false
	repo := &fakeNewsRepo{
		createFn: func(news *model.News) error {
			if news.AnalyticsID == "" {
				t.Fatal("analytics id empty at insert time")
			}
			news.ID = 7
			return nil
		},
		updateFn: func(*model.News) error {
			updated = true
			return nil
		},
	}
	svc := NewNewsService(repo, uploads, nil)

	news, err := svc.Create(1, NewsInput{Title: strPtr("Launch"), Content: strPtr("body")})
	if err != nil {
		t.Fatalf("Create() error = %v", err)
	}
	if updated {
		t.Fatal("Create must not issue a second UPDATE to backfill the analytics id")
	}
	if news.AnalyticsID == "" {
		t.Fatal("expected analytics id on the returned record")
	}
}

func TestNewsService_Create_DBFailureCleansUploads(t *testing.T) {
	uploads := newTestUploads(t)
	image := writeStored(t, uploads, upload.DirImages, "image-1.png")
	file := writeStored(t, uploads, upload.DirFiles, "file-1.pdf")

	repo := &fakeNewsRepo{
		createFn: func(*model.News) error { return errors.New("db down") },
	}
	svc := NewNewsService(repo, uploads, nil)

	_, err := svc.Create(1, NewsInput{
		Title:   strPtr("Launch"),
		Content: strPtr("body"),
		Image:   image,
		File:    file,
	})
	if !errors.Is(err, ErrInternal) {
		t.Fatalf("expected ErrInternal, got: %v", err)
	}
	if fileExists(image.DiskPath) || fileExists(file.DiskPath) {
		t.Fatal("expected uploaded files to be cleaned up after DB failure")
	}
}

func TestNewsService_Create_MissingTitleCleansUploads(t *testing.T) {
	uploads := newTestUploads(t)
	image := writeStored(t, uploads, upload.DirImages, "image-2.png")

	svc := NewNewsService(&fakeNewsRepo{}, uploads, nil)

	_, err := svc.Create(1, NewsInput{Content: strPtr("body"), Image: image})
	if !errors.Is(err, ErrInvalidInput) {
		t.Fatalf("expected ErrInvalidInput, got: %v", err)
	}
	if fileExists(image.DiskPath) {
		t.Fatal("expected uploaded file to be cleaned up after validation failure")
	}
}

func TestNewsService_Update_ReplacesImageAndRemovesOld(t *testing.T) {
	uploads := newTestUploads(t)
	oldImage := writeStored(t, uploads, upload.DirImages, "old.png")
	newImage := writeStored(t, uploads, upload.DirImages, "new.png")

	existing := &model.News{ID: 5, Title: "t", Content: "c", ImageURL: oldImage.Path}
	repo := &fakeNewsRepo{
		findByIDFn: func(uint) (*model.News, error) { return existing, nil },
	}
	svc := NewNewsService(repo, uploads, nil)

	news, err := svc.Update(5, NewsInput{Image: newImage})
	if err != nil {
		t.Fatalf("Update() error = %v", err)
	}
	if news.ImageURL != newImage.Path {
		t.Fatalf("expected new image path, got %q", news.ImageURL)
	}
	if fileExists(oldImage.DiskPath) {
		t.Fatal("expected old image to be removed after successful update")
	}
	if !fileExists(newImage.DiskPath) {
		t.Fatal("expected new image to survive")
	}
}

func TestNewsService_Update_DBFailureKeepsOldRemovesNew(t *testing.T) {
	uploads := newTestUploads(t)
	oldImage := writeStored(t, uploads, upload.DirImages, "old-2.png")
	newImage := writeStored(t, uploads, upload.DirImages, "new-2.png")

	existing := &model.News{ID: 5, Title: "t", Content: "c", ImageURL: oldImage.Path}
	repo := &fakeNewsRepo{
		findByIDFn: func(uint) (*model.News, error) { return existing, nil },
		updateFn:   func(*model.News) error { return errors.New("db down") },
	}
	svc := NewNewsService(repo, uploads, nil)

	_, err := svc.Update(5, NewsInput{Image: newImage})
	if !errors.Is(err, ErrInternal) {
		t.Fatalf("expected ErrInternal, got: %v", err)
	}
	if !fileExists(oldImage.DiskPath) {
		t.Fatal("old image must survive a failed update")
	}
	if fileExists(newImage.DiskPath) {
		t.Fatal("new image must be cleaned up after a failed update")
	}
}

func TestNewsService_Delete_RemovesFiles(t *testing.T) {
	uploads := newTestUploads(t)
	image := writeStored(t, uploads, upload.DirImages, "del.png")
	attachment := writeStored(t, uploads, upload.DirFiles, "del.pdf")

	existing := &model.News{
		ID: 3, Title: "t", Content: "c",
		ImageURL: image.Path,
		File:     model.Attachment{Path: attachment.Path},
	}
	repo := &fakeNewsRepo{
		findByIDFn: func(uint) (*model.News, error) { return existing, nil },
	}
	svc := NewNewsService(repo, uploads, nil)

	if err := svc.Delete(3); err != nil {
		t.Fatalf("Delete() error = %v", err)
	}
	if fileExists(image.DiskPath) || fileExists(attachment.DiskPath) {
		t.Fatal("expected both files to be removed with the record")
	}
}

func TestNewsService_GetPublic_DraftHidden(t *testing.T) {
	repo := &fakeNewsRepo{
		findByIDFn: func(uint) (*model.News, error) {
			return &model.News{ID: 1, Status: model.NewsStatusDraft}, nil
		},
	}
	svc := NewNewsService(repo, newTestUploads(t), nil)

	_, err := svc.GetPublic(1)
	if !errors.Is(err, ErrNewsNotFound) {
		t.Fatalf("expected ErrNewsNotFound for draft, got: %v", err)
	}
}

func TestNewsService_GetPublic_IncrementsViewCount(t *testing.T) {
	incremented := false
	repo := &fakeNewsRepo{
		findByIDFn: func(uint) (*model.News, error) {
			return &model.News{ID: 1, Status: model.NewsStatusPublished, ViewCount: 4}, nil
		},
		incrementFn: func(uint) error {
			incremented = true
			return nil
		},
	}
	svc := NewNewsService(repo, newTestUploads(t), nil)

	news, err := svc.GetPublic(1)
	if err != nil {
		t.Fatalf("GetPublic() error = %v", err)
	}
	if !incremented || news.ViewCount != 5 {
		t.Fatalf("expected view count bump, got %d", news.ViewCount)
	}
}

func TestNewsService_ListPublic_ForcesPublished(t *testing.T) {
	var gotFilter repository.NewsFilter
	repo := &fakeNewsRepo{
		listFn: func(filter repository.NewsFilter) ([]model.News, int64, error) {
			gotFilter = filter
			return []model.News{}, 0, nil
		},
	}
	svc := NewNewsService(repo, newTestUploads(t), nil)

	if _, _, err := svc.ListPublic(repository.NewsFilter{Status: "draft"}); err != nil {
		t.Fatalf("ListPublic() error = %v", err)
	}
	if gotFilter.Status != model.NewsStatusPublished {
		t.Fatalf("expected published filter, got %q", gotFilter.Status)
	}
}

func TestNewsService_Batch_UnknownAction(t *testing.T) {
	svc := NewNewsService(&fakeNewsRepo{}, newTestUploads(t), nil)

	_, err := svc.Batch("explode", []uint{1})
	if !errors.Is(err, ErrInvalidInput) {
		t.Fatalf("expected ErrInvalidInput, got: %v", err)
	}
}

func TestNewsService_Batch_DeleteRemovesFiles(t *testing.T) {
	uploads := newTestUploads(t)
	image := writeStored(t, uploads, upload.DirImages, "batch.png")

	repo := &fakeNewsRepo{
		findByIDsFn: func([]uint) ([]model.News, error) {
			return []model.News{{ID: 1, ImageURL: image.Path}}, nil
		},
	}
	svc := NewNewsService(repo, uploads, nil)

	affected, err := svc.Batch(NewsBatchDelete, []uint{1})
	if err != nil {
		t.Fatalf("Batch() error = %v", err)
	}
	if affected != 1 {
		t.Fatalf("expected 1 affected, got %d", affected)
	}
	if fileExists(image.DiskPath) {
		t.Fatal("expected file to be removed by batch delete")
	}
}
