package handler

import (
	"fmt"
	"mime/multipart"
	"strconv"
	"strings"
	"time"
)

// formValues 包装一次已解析的 multipart 表单。
// 字段走允许清单：出现清单之外的字段名视为客户端错误，直接 400，
// 而不是静默丢弃（字段打错名的上传事故很难排查）。
type formValues struct {
	values map[string][]string
	files  map[string][]*multipart.FileHeader
}

// parseStrictForm 解析 multipart 表单并校验字段允许清单。
func parseStrictForm(form *multipart.Form, allowedValues, allowedFiles []string) (*formValues, error) {
	valueSet := make(map[string]struct{}, len(allowedValues))
	for _, name := range allowedValues {
		valueSet[name] = struct{}{}
	}
	fileSet := make(map[string]struct{}, len(allowedFiles))
	for _, name := range allowedFiles {
		fileSet[name] = struct{}{}
	}

	for name := range form.Value {
		if _, ok := valueSet[name]; !ok {
			return nil, fmt.Errorf("unexpected field %q", name)
		}
	}
	for name := range form.File {
		if _, ok := fileSet[name]; !ok {
			return nil, fmt.Errorf("unexpected file field %q", name)
		}
	}
	return &formValues{values: form.Value, files: form.File}, nil
}

// String 返回字段值指针，字段缺失时返回 nil。
func (f *formValues) String(name string) *string {
	vals, ok := f.values[name]
	if !ok || len(vals) == 0 {
		return nil
	}
	v := vals[0]
	return &v
}

// Bool 解析布尔字段，接受 true/false/1/0。
func (f *formValues) Bool(name string) (*bool, error) {
	raw := f.String(name)
	if raw == nil {
		return nil, nil
	}
	v, err := strconv.ParseBool(strings.TrimSpace(*raw))
	if err != nil {
		return nil, fmt.Errorf("field %q is not a boolean", name)
	}
	return &v, nil
}

// Int 解析整数字段。
func (f *formValues) Int(name string) (*int, error) {
	raw := f.String(name)
	if raw == nil {
		return nil, nil
	}
	v, err := strconv.Atoi(strings.TrimSpace(*raw))
	if err != nil {
		return nil, fmt.Errorf("field %q is not an integer", name)
	}
	return &v, nil
}

// Float 解析数值字段。
func (f *formValues) Float(name string) (*float64, error) {
	raw := f.String(name)
	if raw == nil {
		return nil, nil
	}
	v, err := strconv.ParseFloat(strings.TrimSpace(*raw), 64)
	if err != nil {
		return nil, fmt.Errorf("field %q is not a number", name)
	}
	return &v, nil
}

// Time 解析时间字段，接受 RFC3339 或 2006-01-02。
func (f *formValues) Time(name string) (*time.Time, error) {
	raw := f.String(name)
	if raw == nil {
		return nil, nil
	}
	s := strings.TrimSpace(*raw)
	if t, err := time.Parse(time.RFC3339, s); err == nil {
		return &t, nil
	}
	if t, err := time.Parse("2006-01-02", s); err == nil {
		return &t, nil
	}
	return nil, fmt.Errorf("field %q is not a valid date", name)
}

// BoolFlag 解析标记字段（如 removeImage），缺失按 false 处理。
func (f *formValues) BoolFlag(name string) (bool, error) {
	v, err := f.Bool(name)
	if err != nil {
		return false, err
	}
	return v != nil && *v, nil
}

// File 返回文件字段的第一个文件头，字段缺失时返回 nil。
func (f *formValues) File(name string) *multipart.FileHeader {
	fhs, ok := f.files[name]
	if !ok || len(fhs) == 0 {
		return nil
	}
	return fhs[0]
}
