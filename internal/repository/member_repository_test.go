package repository

import (
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
)

func newMockMemberRepo(t *testing.T) (MemberRepository, sqlmock.Sqlmock) {
	t.Helper()
	gdb, mock := newMockDB(t)
	return NewMemberRepository(gdb), mock
}

func memberRows() *sqlmock.Rows {
	now := time.Now()
	return sqlmock.NewRows([]string{
		"id", "company_name", "contact_person", "email", "membership_type",
		"membership_level", "is_active", "is_displayed", "display_order",
		"join_date", "created_at", "updated_at",
	}).AddRow(1, "Acme", "Bob", "bob@acme.test", "gold", "A", true, true, 1, now, now, now)
}

func TestMemberRepository_List_SortWhitelist(t *testing.T) {
	repo, mock := newMockMemberRepo(t)

	// 未知的 sortBy 回落到 created_at，排序列永远来自白名单
	mock.ExpectQuery("SELECT count\\(\\*\\) FROM `corporate_members`").
		WillReturnRows(sqlmock.NewRows([]string{"count(*)"}).AddRow(1))
	mock.ExpectQuery("SELECT .* FROM `corporate_members` ORDER BY created_at DESC LIMIT \\?").
		WillReturnRows(memberRows())

	items, total, err := repo.List(MemberFilter{SortBy: "password; DROP TABLE users", Page: 1, Limit: 20})
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

func TestMemberRepository_List_SearchAndType(t *testing.T) {
	repo, mock := newMockMemberRepo(t)

	mock.ExpectQuery("SELECT count\\(\\*\\) FROM `corporate_members` WHERE \\(company_name LIKE \\? OR company_name_en LIKE \\? OR contact_person LIKE \\? OR email LIKE \\?\\) AND membership_type = \\?").
		WithArgs("%acme%", "%acme%", "%acme%", "%acme%", "gold").
		WillReturnRows(sqlmock.NewRows([]string{"count(*)"}).AddRow(1))
	mock.ExpectQuery("SELECT .* FROM `corporate_members` WHERE .* ORDER BY company_name ASC LIMIT \\?").
		WillReturnRows(memberRows())

	_, total, err := repo.List(MemberFilter{
		Search:         "acme",
		MembershipType: "gold",
		SortBy:         "companyName",
		SortOrder:      "asc",
		Page:           1,
		Limit:          20,
	})
	if err != nil {
		t.Fatalf("List() error: %v", err)
	}
	if total != 1 {
		t.Fatalf("expected total=1, got %d", total)
	}
}

func TestMemberRepository_ListDisplayed(t *testing.T) {
	repo, mock := newMockMemberRepo(t)

	mock.ExpectQuery("SELECT count\\(\\*\\) FROM `corporate_members` WHERE is_active = \\? AND is_displayed = \\?").
		WithArgs(true, true).
		WillReturnRows(sqlmock.NewRows([]string{"count(*)"}).AddRow(1))
	mock.ExpectQuery("SELECT .* FROM `corporate_members` WHERE is_active = \\? AND is_displayed = \\? ORDER BY display_order ASC, created_at DESC LIMIT \\?").
		WillReturnRows(memberRows())

	items, total, err := repo.ListDisplayed(DisplayedFilter{Limit: 20})
	if err != nil {
		t.Fatalf("ListDisplayed() error: %v", err)
	}
	if total != 1 || len(items) != 1 {
		t.Fatalf("unexpected result: total=%d len=%d", total, len(items))
	}
}

// MySQL 对值未变化的 UPDATE 报告 0 行受影响，这不是记录不存在。
func TestMemberRepository_SetDisplayed_NoopUpdate(t *testing.T) {
	repo, mock := newMockMemberRepo(t)

	mock.ExpectBegin()
	mock.ExpectExec("UPDATE `corporate_members` SET .* WHERE id = \\?").
		WillReturnResult(sqlmock.NewResult(0, 0))
	mock.ExpectCommit()

	if err := repo.SetDisplayed(99, true, 1); err != nil {
		t.Fatalf("expected nil for a value-unchanged update, got: %v", err)
	}
}

func TestMemberRepository_BatchUpdate(t *testing.T) {
	repo, mock := newMockMemberRepo(t)

	mock.ExpectBegin()
	mock.ExpectExec("UPDATE `corporate_members` SET .* WHERE id IN \\(\\?,\\?,\\?\\)").
		WillReturnResult(sqlmock.NewResult(0, 3))
	mock.ExpectCommit()

	affected, err := repo.BatchUpdate([]uint{1, 2, 3}, map[string]interface{}{
		"is_displayed":  true,
		"updated_by_id": uint(1),
	})
	if err != nil {
		t.Fatalf("BatchUpdate() error: %v", err)
	}
	if affected != 3 {
		t.Fatalf("expected 3 affected, got %d", affected)
	}
}

func TestMemberRepository_Stats(t *testing.T) {
	repo, mock := newMockMemberRepo(t)

	mock.ExpectQuery("SELECT count\\(\\*\\) FROM `corporate_members`").
		WillReturnRows(sqlmock.NewRows([]string{"count(*)"}).AddRow(10))
	mock.ExpectQuery("SELECT count\\(\\*\\) FROM `corporate_members` WHERE is_active = \\?").
		WithArgs(true).
		WillReturnRows(sqlmock.NewRows([]string{"count(*)"}).AddRow(8))
	mock.ExpectQuery("SELECT count\\(\\*\\) FROM `corporate_members` WHERE is_displayed = \\?").
		WithArgs(true).
		WillReturnRows(sqlmock.NewRows([]string{"count(*)"}).AddRow(5))
	mock.ExpectQuery("SELECT membership_type, COUNT\\(\\*\\) AS count, SUM\\(CASE WHEN is_active THEN 1 ELSE 0 END\\) AS active, SUM\\(CASE WHEN is_displayed THEN 1 ELSE 0 END\\) AS displayed FROM `corporate_members` GROUP BY `membership_type` ORDER BY membership_type ASC").
		WillReturnRows(sqlmock.NewRows([]string{"membership_type", "count", "active", "displayed"}).
			AddRow("gold", 4, 4, 3).
			AddRow("regular", 6, 4, 2))

	stats, err := repo.Stats()
	if err != nil {
		t.Fatalf("Stats() error: %v", err)
	}
	if stats.Total != 10 || stats.Active != 8 || stats.Displayed != 5 {
		t.Fatalf("unexpected totals: %+v", stats)
	}
	if len(stats.MembershipTypes) != 2 || stats.MembershipTypes[0].MembershipType != "gold" {
		t.Fatalf("unexpected membership types: %+v", stats.MembershipTypes)
	}
}
