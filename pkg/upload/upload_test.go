package upload

import (
	"bytes"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"testing"

	applog "actc_portal_go/pkg/log"

	"github.com/gin-gonic/gin"
)

func TestMain(m *testing.M) {
	gin.SetMode(gin.TestMode)
	applog.Init("error", "console", "")
	os.Exit(m.Run())
}

// buildMultipart 构造一个带单个文件字段的 multipart 请求体。
func buildMultipart(t *testing.T, field, filename, contentType string, size int) (*bytes.Buffer, string) {
	t.Helper()
	body := &bytes.Buffer{}
	w := multipart.NewWriter(body)
	h := make(map[string][]string)
	h["Content-Disposition"] = []string{`form-data; name="` + field + `"; filename="` + filename + `"`}
	h["Content-Type"] = []string{contentType}
	part, err := w.CreatePart(h)
	if err != nil {
		t.Fatalf("CreatePart() error: %v", err)
	}
	if _, err := part.Write(bytes.Repeat([]byte("x"), size)); err != nil {
		t.Fatalf("part.Write() error: %v", err)
	}
	_ = w.Close()
	return body, w.FormDataContentType()
}

// saveThrough 跑一个最小的 gin handler，把请求中的文件交给 Manager.Save。
func saveThrough(t *testing.T, m *Manager, field string, rule Rule, body *bytes.Buffer, contentType string) (*Stored, error) {
	t.Helper()
	var stored *Stored
	var saveErr error

	r := gin.New()
	r.POST("/", func(c *gin.Context) {
		fh, err := c.FormFile(field)
		if err != nil {
			t.Fatalf("FormFile() error: %v", err)
		}
		stored, saveErr = m.Save(c, fh, field, rule)
		c.Status(http.StatusOK)
	})

	req := httptest.NewRequest(http.MethodPost, "/", body)
	req.Header.Set("Content-Type", contentType)
	r.ServeHTTP(httptest.NewRecorder(), req)
	return stored, saveErr
}

func TestManager_SaveImage(t *testing.T) {
	m, err := NewManager(t.TempDir())
	if err != nil {
		t.Fatalf("NewManager() error: %v", err)
	}

	body, ct := buildMultipart(t, "image", "photo.JPG", "image/jpeg", 128)
	stored, err := saveThrough(t, m, "image", ImageRule(1024), body, ct)
	if err != nil {
		t.Fatalf("Save() error: %v", err)
	}

	if !strings.HasPrefix(stored.Path, "/uploads/images/image-") {
		t.Fatalf("unexpected public path: %s", stored.Path)
	}
	if !strings.HasSuffix(stored.Path, ".jpg") {
		t.Fatalf("extension not normalized: %s", stored.Path)
	}
	if stored.OriginalName != "photo.JPG" || stored.Size != 128 || stored.MimeType != "image/jpeg" {
		t.Fatalf("unexpected metadata: %+v", stored)
	}
	if _, err := os.Stat(stored.DiskPath); err != nil {
		t.Fatalf("file not on disk: %v", err)
	}
}

func TestManager_SaveRejectsOversize(t *testing.T) {
	dir := t.TempDir()
	m, _ := NewManager(dir)

	body, ct := buildMultipart(t, "file", "big.pdf", "application/pdf", 2048)
	_, err := saveThrough(t, m, "file", DocumentRule(1024), body, ct)
	if err == nil || !strings.Contains(err.Error(), "size limit") {
		t.Fatalf("expected size error, got: %v", err)
	}

	// 校验失败时不得留下任何文件
	entries, _ := os.ReadDir(filepath.Join(dir, DirFiles))
	if len(entries) != 0 {
		t.Fatalf("rejected upload left %d files on disk", len(entries))
	}
}

func TestManager_SaveRejectsBadMIME(t *testing.T) {
	m, _ := NewManager(t.TempDir())

	body, ct := buildMultipart(t, "file", "run.exe", "application/octet-stream", 16)
	if _, err := saveThrough(t, m, "file", DocumentRule(1024), body, ct); err == nil {
		t.Fatal("expected MIME rejection")
	}

	body, ct = buildMultipart(t, "logo", "doc.pdf", "application/pdf", 16)
	if _, err := saveThrough(t, m, "logo", ImageRule(1024), body, ct); err == nil {
		t.Fatal("expected image-only field to reject pdf")
	}
}

func TestManager_CleanupAndRemove(t *testing.T) {
	m, _ := NewManager(t.TempDir())

	body, ct := buildMultipart(t, "image", "a.png", "image/png", 8)
	stored, err := saveThrough(t, m, "image", ImageRule(1024), body, ct)
	if err != nil {
		t.Fatalf("Save() error: %v", err)
	}

	m.Cleanup(stored, nil)
	if _, err := os.Stat(stored.DiskPath); !os.IsNotExist(err) {
		t.Fatalf("Cleanup() did not delete file")
	}

	// 重复删除与不存在的路径都不应报错
	m.Remove(stored.Path)
	m.Remove("/uploads/images/never-existed.png")
	m.Remove("../../etc/passwd")
}

func TestManager_DiskPath(t *testing.T) {
	m, _ := NewManager(t.TempDir())

	if _, ok := m.DiskPath("/somewhere/else.pdf"); ok {
		t.Fatal("DiskPath() accepted a non-upload path")
	}
	p, ok := m.DiskPath("/uploads/files/x.pdf")
	if !ok || !strings.HasSuffix(p, filepath.Join(DirFiles, "x.pdf")) {
		t.Fatalf("unexpected disk path: %s", p)
	}
}
