package model

import "time"

// News 的生命周期状态。
const (
	NewsStatusDraft     = "draft"
	NewsStatusPublished = "published"
)

// 根据视频链接推导的平台标记。
const (
	VideoTypeYouTube   = "youtube"
	VideoTypeInstagram = "instagram"
)

// Attachment 是随记录保存的上传文件元数据。
// Path 是 /uploads/files/ 下的公开路径；OriginalName/MimeType 仅作展示，
// 绝不用作磁盘文件名。
type Attachment struct {
	Path         string `gorm:"type:varchar(500)" json:"path"`
	OriginalName string `gorm:"type:varchar(255)" json:"originalName"`
	Size         int64  `json:"size"`
	MimeType     string `gorm:"type:varchar(100)" json:"mimeType"`
}

// News 对应数据库中 news 表。
// AnalyticsID 在创建时生成一次，终生不变，用于匹配外部分析事件。
// Tags 以逗号分隔字符串落库，响应时转为数组。
type News struct {
	ID          uint       `gorm:"primaryKey;autoIncrement" json:"id"`
	Title       string     `gorm:"type:varchar(200);not null" json:"title"`
	Content     string     `gorm:"type:text;not null" json:"content"`
	Description string     `gorm:"type:varchar(500)" json:"description"`
	ImageURL    string     `gorm:"type:varchar(500)" json:"imageUrl"`
	VideoURL    string     `gorm:"type:varchar(500)" json:"videoUrl"`
	VideoType   string     `gorm:"type:varchar(20)" json:"videoType"`
	Link        string     `gorm:"type:varchar(500)" json:"link"`
	PublishDate time.Time  `gorm:"index" json:"publishDate"`
	Status      string     `gorm:"type:enum('draft','published');default:'draft';index" json:"status"`
	ViewCount   int64      `gorm:"default:0" json:"viewCount"`
	AnalyticsID string     `gorm:"type:varchar(100);uniqueIndex" json:"analyticsId"`
	File        Attachment `gorm:"embedded;embeddedPrefix:file_" json:"file"`
	Tags        string     `gorm:"type:varchar(500)" json:"-"`
	Featured    bool       `gorm:"default:false" json:"featured"`
	AuthorID    uint       `gorm:"index" json:"authorId"`
	CreatedAt   time.Time  `gorm:"autoCreateTime" json:"createdAt"`
	UpdatedAt   time.Time  `gorm:"autoUpdateTime" json:"updatedAt"`
}

// TableName 指定 GORM 使用的表名
func (News) TableName() string {
	return "news"
}
