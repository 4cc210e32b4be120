package service

import (
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
)

// 派生字段一律用显式函数在落库前计算，不依赖任何 ORM 钩子，
// 保证推导顺序可见、可单测。

// NormalizeTags 清洗标签列表：去空白、去空项、统一小写、去重，
// 返回落库用的逗号分隔字符串。
func NormalizeTags(raw string) string {
	return normalizeCSV(raw, true)
}

// NormalizeList 清洗服务项目/专业领域等普通列表，不做大小写归一。
func NormalizeList(raw string) string {
	return normalizeCSV(raw, false)
}

func normalizeCSV(raw string, lower bool) string {
	if strings.TrimSpace(raw) == "" {
		return ""
	}
	parts := strings.Split(raw, ",")
	out := make([]string, 0, len(parts))
	seen := make(map[string]struct{}, len(parts))
	for _, p := range parts {
		item := strings.TrimSpace(p)
		if item == "" {
			continue
		}
		if lower {
			item = strings.ToLower(item)
		}
		if _, ok := seen[item]; ok {
			continue
		}
		seen[item] = struct{}{}
		out = append(out, item)
	}
	return strings.Join(out, ",")
}

// SplitCSV 把落库的逗号分隔字符串转回数组，供响应序列化。
func SplitCSV(raw string) []string {
	if strings.TrimSpace(raw) == "" {
		return []string{}
	}
	parts := strings.Split(raw, ",")
	out := make([]string, 0, len(parts))
	for _, p := range parts {
		if item := strings.TrimSpace(p); item != "" {
			out = append(out, item)
		}
	}
	return out
}

// DeriveVideoType 根据视频链接推导平台标记，链接为空或无法识别时返回空串。
func DeriveVideoType(videoURL string) string {
	switch {
	case videoURL == "":
		return ""
	case strings.Contains(videoURL, "youtube.com"), strings.Contains(videoURL, "youtu.be"):
		return "youtube"
	case strings.Contains(videoURL, "instagram.com"):
		return "instagram"
	default:
		return ""
	}
}

// GenerateAnalyticsID 生成新闻的外部分析关联 id。
// 创建时赋值一次，终生不再变更。不依赖自增主键，
// 在 INSERT 之前就能生成，唯一索引列上永远不会出现占位空串。
func GenerateAnalyticsID() string {
	return fmt.Sprintf("news_%d_%s", time.Now().UnixMilli(), uuid.NewString()[:8])
}
