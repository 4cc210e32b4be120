package repository

import (
	"errors"
	"testing"
	"time"

	"actc_portal_go/internal/model"

	"github.com/DATA-DOG/go-sqlmock"
	"gorm.io/gorm"
)

func newMockNewsRepo(t *testing.T) (NewsRepository, sqlmock.Sqlmock) {
	t.Helper()
	gdb, mock := newMockDB(t)
	return NewNewsRepository(gdb), mock
}

func newsRows() *sqlmock.Rows {
	now := time.Now()
	return sqlmock.NewRows([]string{
		"id", "title", "content", "description", "status", "view_count",
		"analytics_id", "tags", "featured", "author_id", "publish_date",
		"created_at", "updated_at",
	}).AddRow(1, "title", "content", "", "published", 10, "news_1_1700000000000", "ai,golang", false, 1, now, now, now)
}

func TestNewsRepository_List_TagFilter(t *testing.T) {
	repo, mock := newMockNewsRepo(t)

	// 标签用包裹匹配，避免 "go" 误中 "golang"
	mock.ExpectQuery("SELECT count\\(\\*\\) FROM `news` WHERE status = \\? AND CONCAT\\(',', tags, ','\\) LIKE \\?").
		WithArgs("published", "%,golang,%").
		WillReturnRows(sqlmock.NewRows([]string{"count(*)"}).AddRow(1))
	mock.ExpectQuery("SELECT .* FROM `news` WHERE status = \\? AND CONCAT\\(',', tags, ','\\) LIKE \\? ORDER BY publish_date DESC, created_at DESC LIMIT \\?").
		WithArgs("published", "%,golang,%", 10).
		WillReturnRows(newsRows())

	items, total, err := repo.List(NewsFilter{Status: "published", Tag: "golang", Page: 1, Limit: 10})
	if err != nil {
		t.Fatalf("List() error: %v", err)
	}
	if total != 1 || len(items) != 1 {
		t.Fatalf("unexpected result: total=%d len=%d", total, len(items))
	}
	if err := mock.ExpectationsWereMet(); err != nil {
		t.Fatalf("unmet expectations: %v", err)
	}
}

func TestNewsRepository_List_EmptyShortCircuit(t *testing.T) {
	repo, mock := newMockNewsRepo(t)

	mock.ExpectQuery("SELECT count\\(\\*\\) FROM `news`").
		WillReturnRows(sqlmock.NewRows([]string{"count(*)"}).AddRow(0))

	items, total, err := repo.List(NewsFilter{Page: 1, Limit: 10})
	if err != nil {
		t.Fatalf("List() error: %v", err)
	}
	if total != 0 || len(items) != 0 {
		t.Fatalf("unexpected result: total=%d len=%d", total, len(items))
	}
}

func TestNewsRepository_Trending(t *testing.T) {
	repo, mock := newMockNewsRepo(t)

	mock.ExpectQuery("SELECT .* FROM `news` WHERE status = \\? ORDER BY view_count DESC, publish_date DESC LIMIT \\?").
		WithArgs(model.NewsStatusPublished, 5).
		WillReturnRows(newsRows())

	items, err := repo.Trending(5)
	if err != nil {
		t.Fatalf("Trending() error: %v", err)
	}
	if len(items) != 1 {
		t.Fatalf("expected 1 item, got %d", len(items))
	}
}

func TestNewsRepository_IncrementViewCount(t *testing.T) {
	repo, mock := newMockNewsRepo(t)

	mock.ExpectBegin()
	mock.ExpectExec("UPDATE `news` SET .*view_count.*=.*view_count.*\\+.*1.* WHERE id = \\?").
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectCommit()

	if err := repo.IncrementViewCount(1); err != nil {
		t.Fatalf("IncrementViewCount() error: %v", err)
	}
}

func TestNewsRepository_SetViewCountByAnalyticsID(t *testing.T) {
	repo, mock := newMockNewsRepo(t)

	mock.ExpectBegin()
	mock.ExpectExec("UPDATE `news` SET .* WHERE analytics_id = \\?").
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectCommit()

	matched, err := repo.SetViewCountByAnalyticsID("news_1_1700000000000", 42)
	if err != nil {
		t.Fatalf("SetViewCountByAnalyticsID() error: %v", err)
	}
	if !matched {
		t.Fatal("expected matched=true")
	}
}

func TestNewsRepository_SetViewCountByAnalyticsID_NoMatch(t *testing.T) {
	repo, mock := newMockNewsRepo(t)

	mock.ExpectBegin()
	mock.ExpectExec("UPDATE `news` SET .* WHERE analytics_id = \\?").
		WillReturnResult(sqlmock.NewResult(0, 0))
	mock.ExpectCommit()

	matched, err := repo.SetViewCountByAnalyticsID("mock_1", 42)
	if err != nil {
		t.Fatalf("SetViewCountByAnalyticsID() error: %v", err)
	}
	if matched {
		t.Fatal("expected matched=false for unknown analytics id")
	}
}

func TestNewsRepository_BatchUpdateStatus(t *testing.T) {
	repo, mock := newMockNewsRepo(t)

	mock.ExpectBegin()
	mock.ExpectExec("UPDATE `news` SET .* WHERE id IN \\(\\?,\\?\\)").
		WillReturnResult(sqlmock.NewResult(0, 2))
	mock.ExpectCommit()

	affected, err := repo.BatchUpdateStatus([]uint{1, 2}, model.NewsStatusPublished)
	if err != nil {
		t.Fatalf("BatchUpdateStatus() error: %v", err)
	}
	if affected != 2 {
		t.Fatalf("expected 2 affected, got %d", affected)
	}
}

func TestNewsRepository_Delete_NotFound(t *testing.T) {
	repo, mock := newMockNewsRepo(t)

	mock.ExpectBegin()
	mock.ExpectExec("DELETE FROM `news` WHERE `news`.`id` = \\?").
		WithArgs(uint(99)).
		WillReturnResult(sqlmock.NewResult(0, 0))
	mock.ExpectCommit()

	err := repo.Delete(99)
	if !errors.Is(err, gorm.ErrRecordNotFound) {
		t.Fatalf("expected ErrRecordNotFound, got: %v", err)
	}
}

func TestNewsRepository_FindByIDs_Empty(t *testing.T) {
	repo, _ := newMockNewsRepo(t)

	items, err := repo.FindByIDs(nil)
	if err != nil {
		t.Fatalf("FindByIDs() error: %v", err)
	}
	if len(items) != 0 {
		t.Fatalf("expected empty result, got %d", len(items))
	}
}

func TestNewsRepository_CountByStatus(t *testing.T) {
	repo, mock := newMockNewsRepo(t)

	mock.ExpectQuery("SELECT status, COUNT\\(\\*\\) AS count FROM `news` GROUP BY `status`").
		WillReturnRows(sqlmock.NewRows([]string{"status", "count"}).
			AddRow("published", 3).
			AddRow("draft", 2))

	stats, err := repo.CountByStatus()
	if err != nil {
		t.Fatalf("CountByStatus() error: %v", err)
	}
	if stats["published"] != 3 || stats["draft"] != 2 {
		t.Fatalf("unexpected stats: %+v", stats)
	}
}
