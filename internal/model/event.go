package model

import "time"

// Event 的生命周期状态。报名只在 registration_open 状态下接受。
const (
	EventStatusDraft              = "draft"
	EventStatusPublished          = "published"
	EventStatusRegistrationOpen   = "registration_open"
	EventStatusRegistrationClosed = "registration_closed"
	EventStatusCancelled          = "cancelled"
	EventStatusCompleted          = "completed"
)

// EventTypes 是合法的活动类别。
var EventTypes = []string{"meetup", "workshop", "course", "conference", "training", "other"}

// EventStatuses 是合法的活动状态。
var EventStatuses = []string{
	EventStatusDraft, EventStatusPublished, EventStatusRegistrationOpen,
	EventStatusRegistrationClosed, EventStatusCancelled, EventStatusCompleted,
}

// Instructor 是活动的讲师子记录，全部可选。
// Expertise 以逗号分隔字符串落库。
type Instructor struct {
	Name      string `gorm:"type:varchar(100)" json:"name"`
	Title     string `gorm:"type:varchar(100)" json:"title"`
	Company   string `gorm:"type:varchar(100)" json:"company"`
	Bio       string `gorm:"type:varchar(500)" json:"bio"`
	Photo     string `gorm:"type:varchar(500)" json:"photo"`
	Expertise string `gorm:"type:varchar(500)" json:"-"`
	LinkedIn  string `gorm:"type:varchar(300)" json:"linkedin"`
	Twitter   string `gorm:"type:varchar(300)" json:"twitter"`
	Website   string `gorm:"type:varchar(300)" json:"website"`
}

// Price 是活动价格子记录，IsFree 为 true 时 Amount 不参与展示。
type Price struct {
	Amount   float64 `gorm:"default:0" json:"amount"`
	Currency string  `gorm:"type:varchar(10);default:'TWD'" json:"currency"`
	IsFree   bool    `gorm:"default:true" json:"isFree"`
}

// Event 对应数据库中 events 表。
// 不变式：Capacity 非空时 RegisteredCount 不超过 Capacity，由仓储层的
// 条件 UPDATE 保证（单文档原子性）。
type Event struct {
	ID              uint       `gorm:"primaryKey;autoIncrement" json:"id"`
	Title           string     `gorm:"type:varchar(200);not null" json:"title"`
	Type            string     `gorm:"type:varchar(20);not null;index" json:"type"`
	Description     string     `gorm:"type:varchar(1000);not null" json:"description"`
	ShortDesc       string     `gorm:"type:varchar(200)" json:"shortDescription"`
	Date            time.Time  `gorm:"not null;index" json:"date"`
	EndDate         *time.Time `json:"endDate"`
	Location        string     `gorm:"type:varchar(200);not null" json:"location"`
	VirtualLocation string     `gorm:"type:varchar(200)" json:"virtualLocation"`
	Link            string     `gorm:"type:varchar(500)" json:"link"`
	ImageURL        string     `gorm:"type:varchar(500)" json:"imageUrl"`
	File            Attachment `gorm:"embedded;embeddedPrefix:file_" json:"file"`
	Instructor      Instructor `gorm:"embedded;embeddedPrefix:instructor_" json:"instructor"`
	Capacity        *int       `json:"capacity"`
	RegisteredCount int        `gorm:"default:0" json:"registeredCount"`
	Price           Price      `gorm:"embedded;embeddedPrefix:price_" json:"price"`
	Status          string     `gorm:"type:varchar(30);default:'draft';index" json:"status"`
	Tags            string     `gorm:"type:varchar(500)" json:"-"`
	Requirements    string     `gorm:"type:varchar(500)" json:"requirements"`
	Views           int64      `gorm:"default:0" json:"views"`
	Downloads       int64      `gorm:"default:0" json:"downloads"`
	CreatedAt       time.Time  `gorm:"autoCreateTime" json:"createdAt"`
	UpdatedAt       time.Time  `gorm:"autoUpdateTime" json:"updatedAt"`
}

// TableName 指定 GORM 使用的表名
func (Event) TableName() string {
	return "events"
}

// CanRegister 判断活动当前是否可报名。
func (e *Event) CanRegister() bool {
	if e.Status != EventStatusRegistrationOpen {
		return false
	}
	return e.Capacity == nil || e.RegisteredCount < *e.Capacity
}
