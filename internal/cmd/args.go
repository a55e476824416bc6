package cmd

import (
	"fmt"
	"strings"

	"github.com/allanpk716/docx_filler/internal/config"
	"github.com/allanpk716/docx_filler/internal/matcher"
)

// CommandLineArgs 命令行参数结构
type CommandLineArgs struct {
	ConfigFile  string
	OutputDir   string
	OutputName  string
	Sets        []string
	Concurrency int
	Report      bool
	Watch       bool
	Verbose     bool
}

// ValidateArgs 验证命令行参数
func ValidateArgs(args *CommandLineArgs) error {
	if args.Concurrency < 0 || args.Concurrency > 50 {
		return fmt.Errorf("并发数必须在0-50之间，0表示使用配置或默认值")
	}
	if args.OutputName != "" && args.Report {
		return fmt.Errorf("不能同时指定输出文件名和报告命名模式")
	}
	if strings.ContainsAny(args.OutputName, `/\`) {
		return fmt.Errorf("输出文件名不能包含路径分隔符: %s", args.OutputName)
	}
	for _, set := range args.Sets {
		if _, _, err := parseSet(set); err != nil {
			return err
		}
	}
	return nil
}

// ParseSetFlags 解析 --set Key=Value，Key 可写成 Name 或 ![Name]
func ParseSetFlags(sets []string) (map[string]string, error) {
	fields := make(map[string]string, len(sets))
	for _, set := range sets {
		key, value, err := parseSet(set)
		if err != nil {
			return nil, err
		}
		fields[key] = value
	}
	return fields, nil
}

func parseSet(set string) (string, string, error) {
	key, value, ok := strings.Cut(set, "=")
	key = matcher.ParseToken(strings.TrimSpace(key))
	if !ok || key == "" {
		return "", "", fmt.Errorf("--set 参数格式应为 Key=Value: %q", set)
	}
	return key, value, nil
}

// ResolveFields 合并配置文件中的字段和命令行字段，命令行优先
func ResolveFields(cm config.ConfigManager, cfg *config.Config, sets []string) (map[string]string, error) {
	fields := make(map[string]string)
	if cfg != nil {
		for key, value := range cm.GetFieldMap(cfg) {
			fields[key] = value
		}
	}

	overrides, err := ParseSetFlags(sets)
	if err != nil {
		return nil, err
	}
	for key, value := range overrides {
		fields[key] = value
	}
	return fields, nil
}
