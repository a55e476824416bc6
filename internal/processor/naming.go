package processor

import (
	"fmt"
	"path/filepath"
	"strings"
	"time"

	"github.com/google/uuid"
)

const timestampLayout = "20060102_150405"

// NamingFunc 根据模板路径和时间生成输出文件名
type NamingFunc func(templatePath string, now time.Time) string

// DefaultFileName 生成 filled_<模板名>_<时间戳><扩展名>
func DefaultFileName(templatePath string, now time.Time) string {
	base, ext := splitName(templatePath)
	return fmt.Sprintf("filled_%s_%s%s", base, now.Format(timestampLayout), ext)
}

// ReportFileName 生成 report_<uuid>_<时间戳><扩展名>，同一模板并发生成时也不会重名
func ReportFileName(templatePath string, now time.Time) string {
	_, ext := splitName(templatePath)
	return fmt.Sprintf("report_%s_%s%s", uuid.NewString(), now.Format(timestampLayout), ext)
}

// NamingFor 按配置中的文件名模式选择命名函数
func NamingFor(pattern string) (NamingFunc, error) {
	switch pattern {
	case "", "timestamp":
		return DefaultFileName, nil
	case "report":
		return ReportFileName, nil
	default:
		return nil, fmt.Errorf("不支持的文件名模式: %s", pattern)
	}
}

func splitName(templatePath string) (string, string) {
	name := filepath.Base(templatePath)
	ext := filepath.Ext(name)
	return strings.TrimSuffix(name, ext), ext
}
