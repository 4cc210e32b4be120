// Package upload 管理 multipart 上传文件的校验、落盘与清理。
//
// 文件按类型分目录存放（images/、files/），磁盘文件名由字段名、毫秒时间戳
// 和随机后缀拼成，客户端声明的文件名与 MIME 只作为元数据保存在所属记录上。
// 记录保存失败时调用方必须用 Cleanup 删掉本次已写入的文件，避免孤儿文件。
package upload

import (
	"errors"
	"fmt"
	"mime/multipart"
	"os"
	"path/filepath"
	"strings"
	"time"

	"actc_portal_go/pkg/log"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
)

// 校验失败的哨兵错误，handler 层统一映射为 400。
var (
	ErrFileTooLarge    = errors.New("file exceeds size limit")
	ErrFileTypeillegal = errors.New("file type not allowed")
)

// 内容类型子目录。
const (
	DirImages = "images"
	DirFiles  = "files"
)

// ImageMIMETypes 允许的图片类型（image/* 前缀匹配）。
// DocumentMIMETypes 是附件的固定允许清单：pdf、docx、pptx。
var DocumentMIMETypes = []string{
	"application/pdf",
	"application/vnd.openxmlformats-officedocument.wordprocessingml.document",
	"application/vnd.openxmlformats-officedocument.presentationml.presentation",
}

// Rule 描述某个表单文件字段的校验规则。
type Rule struct {
	Dir       string   // DirImages 或 DirFiles
	MaxSize   int64    // 字节数上限
	MIMETypes []string // 允许的完整 MIME；为空时按 image/* 前缀处理
}

// ImageRule 返回常用的图片字段规则。
func ImageRule(maxSize int64) Rule {
	return Rule{Dir: DirImages, MaxSize: maxSize}
}

// DocumentRule 返回附件字段规则。
func DocumentRule(maxSize int64) Rule {
	return Rule{Dir: DirFiles, MaxSize: maxSize, MIMETypes: DocumentMIMETypes}
}

// Stored 描述一次成功落盘的文件。
// Path 是对外可访问的 /uploads/... 路径，会原样写到所属记录上。
type Stored struct {
	Path         string
	DiskPath     string
	OriginalName string
	Size         int64
	MimeType     string
}

// Manager 负责所有上传文件的生命周期。文件永远归属某条记录，
// 记录删除或附件替换是删除文件的唯一入口。
type Manager struct {
	baseDir string
}

// NewManager 创建 Manager 并确保分区目录存在。
func NewManager(baseDir string) (*Manager, error) {
	for _, sub := range []string{DirImages, DirFiles} {
		if err := os.MkdirAll(filepath.Join(baseDir, sub), 0755); err != nil {
			return nil, fmt.Errorf("failed to create upload dir: %w", err)
		}
	}
	return &Manager{baseDir: baseDir}, nil
}

// Save 校验并保存一个 multipart 文件。
// 校验顺序：大小上限 → MIME 允许清单。通过后以生成的防碰撞文件名落盘。
func (m *Manager) Save(c *gin.Context, fh *multipart.FileHeader, field string, rule Rule) (*Stored, error) {
	if fh.Size > rule.MaxSize {
		return nil, fmt.Errorf("%w: %s is %d bytes, limit %d", ErrFileTooLarge, field, fh.Size, rule.MaxSize)
	}

	mimeType := fh.Header.Get("Content-Type")
	if !m.mimeAllowed(mimeType, rule) {
		return nil, fmt.Errorf("%w: %s has type %q", ErrFileTypeillegal, field, mimeType)
	}

	name := generateName(field, fh.Filename)
	diskPath := filepath.Join(m.baseDir, rule.Dir, name)
	if err := c.SaveUploadedFile(fh, diskPath); err != nil {
		return nil, fmt.Errorf("failed to save uploaded file: %w", err)
	}

	return &Stored{
		Path:         "/uploads/" + rule.Dir + "/" + name,
		DiskPath:     diskPath,
		OriginalName: fh.Filename,
		Size:         fh.Size,
		MimeType:     mimeType,
	}, nil
}

func (m *Manager) mimeAllowed(mimeType string, rule Rule) bool {
	if len(rule.MIMETypes) == 0 {
		return strings.HasPrefix(mimeType, "image/")
	}
	for _, allowed := range rule.MIMETypes {
		if mimeType == allowed {
			return true
		}
	}
	return false
}

// Remove 按公开路径删除一个文件。尽力而为：文件不存在不算错误。
func (m *Manager) Remove(publicPath string) {
	if !strings.HasPrefix(publicPath, "/uploads/") {
		return
	}
	diskPath := filepath.Join(m.baseDir, strings.TrimPrefix(publicPath, "/uploads/"))
	if err := os.Remove(diskPath); err != nil && !os.IsNotExist(err) {
		log.Warnf("failed to remove upload %s: %v", diskPath, err)
	}
}

// Cleanup 删除本次请求中已写入的文件，用于记录保存失败后的回滚。
func (m *Manager) Cleanup(stored ...*Stored) {
	for _, s := range stored {
		if s == nil {
			continue
		}
		if err := os.Remove(s.DiskPath); err != nil && !os.IsNotExist(err) {
			log.Warnf("failed to clean up upload %s: %v", s.DiskPath, err)
		}
	}
}

// DiskPath 把记录上的公开路径换算回磁盘路径，用于下载接口。
func (m *Manager) DiskPath(publicPath string) (string, bool) {
	if !strings.HasPrefix(publicPath, "/uploads/") {
		return "", false
	}
	return filepath.Join(m.baseDir, strings.TrimPrefix(publicPath, "/uploads/")), true
}

// BaseDir 返回上传根目录，路由层用它挂载静态文件服务。
func (m *Manager) BaseDir() string {
	return m.baseDir
}

// generateName 生成防碰撞文件名：字段名-毫秒时间戳-随机后缀+原始扩展名。
func generateName(field, originalName string) string {
	suffix := uuid.NewString()[:8]
	ext := strings.ToLower(filepath.Ext(originalName))
	return fmt.Sprintf("%s-%d-%s%s", field, time.Now().UnixMilli(), suffix, ext)
}
