package middleware

import (
	"bytes"
	"io"
	"strings"
	"time"

	"actc_portal_go/pkg/log"

	"github.com/gin-gonic/gin"
)

// 请求/响应体日志的截断上限，避免大响应撑爆日志。
const maxLoggedBody = 4096

// bodyLogWriter 用于记录响应的body
type bodyLogWriter struct {
	gin.ResponseWriter
	body *bytes.Buffer
}

// Write 实现了 io.Writer 接口，将响应写入 gin.ResponseWriter 和一个内部的 buffer
func (w *bodyLogWriter) Write(b []byte) (int, error) {
	if w.body.Len() < maxLoggedBody {
		w.body.Write(b)
	}
	return w.ResponseWriter.Write(b)
}

// RequestLogger 作为 gin.HandlerFunc，记录每个请求的概要和截断后的 body。
// multipart 上传和静态文件请求只记录元信息，不缓存 body。
func RequestLogger() gin.HandlerFunc {
	return func(c *gin.Context) {
		startTime := time.Now()

		skipBody := strings.HasPrefix(c.ContentType(), "multipart/") ||
			strings.HasPrefix(c.Request.URL.Path, "/uploads/")

		// 读取并重新缓存请求体，以便后续处理函数可以正常读取
		var requestBody []byte
		if !skipBody && c.Request.Body != nil {
			requestBody, _ = io.ReadAll(io.LimitReader(c.Request.Body, maxLoggedBody))
			rest, _ := io.ReadAll(c.Request.Body)
			c.Request.Body = io.NopCloser(io.MultiReader(bytes.NewReader(requestBody), bytes.NewReader(rest)))
		}

		var blw *bodyLogWriter
		if !skipBody {
			blw = &bodyLogWriter{
				ResponseWriter: c.Writer,
				body:           &bytes.Buffer{},
			}
			c.Writer = blw
		}

		c.Next()

		fields := []interface{}{
			"latency", time.Since(startTime),
			"status", c.Writer.Status(),
			"client_ip", c.ClientIP(),
			"method", c.Request.Method,
			"path", c.Request.URL.Path,
		}
		if !skipBody {
			fields = append(fields,
				"request_body", truncate(string(requestBody)),
				"response_body", truncate(blw.body.String()),
			)
		}
		log.Infow("HTTP request", fields...)
	}
}

func truncate(s string) string {
	if len(s) > maxLoggedBody {
		return s[:maxLoggedBody] + "...(truncated)"
	}
	return s
}
