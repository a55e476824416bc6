package config

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"gopkg.in/yaml.v3"

	"github.com/allanpk716/docx_filler/internal/matcher"
)

const (
	// DefaultMaxConcurrentFiles 默认最大并发文件数
	DefaultMaxConcurrentFiles = 4
	// DefaultFileNamePattern 默认输出文件名模式
	DefaultFileNamePattern = "timestamp"
)

// DefaultExcludePatterns 默认跳过的文件（Word临时锁文件）
var DefaultExcludePatterns = []string{"~$*"}

// Field 表示一个字段配置项
type Field struct {
	Key   string `json:"key" yaml:"key"`
	Value string `json:"value" yaml:"value"`
}

// Processing 处理配置
type Processing struct {
	OutputDir          string   `json:"output_dir,omitempty" yaml:"output_dir,omitempty"`
	MaxConcurrentFiles int      `json:"max_concurrent_files" yaml:"max_concurrent_files"`
	FileNamePattern    string   `json:"file_name_pattern" yaml:"file_name_pattern"`
	ExcludePatterns    []string `json:"exclude_patterns,omitempty" yaml:"exclude_patterns,omitempty"`
	DetailedLogging    bool     `json:"detailed_logging" yaml:"detailed_logging"`
}

// Config 表示完整的配置文件结构
type Config struct {
	ProjectName string      `json:"project_name" yaml:"project_name"`
	Fields      []Field     `json:"fields" yaml:"fields"`
	Processing  *Processing `json:"processing,omitempty" yaml:"processing,omitempty"`
}

// ConfigManager 配置管理接口
type ConfigManager interface {
	LoadConfig(filePath string) (*Config, error)
	SaveConfig(config *Config, filePath string) error
	ValidateConfig(config *Config) error
	GetFieldMap(config *Config) map[string]string
}

// configManager 配置管理器实现
type configManager struct{}

// NewConfigManager 创建新的配置管理器
func NewConfigManager() ConfigManager {
	return &configManager{}
}

type format int

const (
	formatJSON format = iota
	formatYAML
)

func formatOf(filePath string) (format, error) {
	switch ext := strings.ToLower(filepath.Ext(filePath)); ext {
	case ".json":
		return formatJSON, nil
	case ".yaml", ".yml":
		return formatYAML, nil
	default:
		return 0, fmt.Errorf("配置文件必须是 JSON 或 YAML 格式，当前文件: %s", ext)
	}
}

// LoadConfig 从文件加载配置，按扩展名选择 JSON 或 YAML 解析
func (cm *configManager) LoadConfig(filePath string) (*Config, error) {
	if filePath == "" {
		return nil, fmt.Errorf("配置文件路径不能为空")
	}

	// 检查文件是否存在
	if _, err := os.Stat(filePath); os.IsNotExist(err) {
		return nil, fmt.Errorf("配置文件不存在: %s", filePath)
	}

	f, err := formatOf(filePath)
	if err != nil {
		return nil, err
	}

	data, err := os.ReadFile(filePath)
	if err != nil {
		return nil, fmt.Errorf("读取配置文件失败: %w", err)
	}

	var config Config
	switch f {
	case formatYAML:
		err = yaml.Unmarshal(data, &config)
	default:
		err = json.Unmarshal(data, &config)
	}
	if err != nil {
		return nil, fmt.Errorf("解析配置文件失败: %w", err)
	}

	SetDefaults(&config)

	if err := cm.ValidateConfig(&config); err != nil {
		return nil, fmt.Errorf("配置验证失败: %w", err)
	}

	return &config, nil
}

// SaveConfig 保存配置到文件，格式由扩展名决定
func (cm *configManager) SaveConfig(config *Config, filePath string) error {
	if err := cm.ValidateConfig(config); err != nil {
		return fmt.Errorf("配置验证失败: %w", err)
	}

	f, err := formatOf(filePath)
	if err != nil {
		return err
	}

	var data []byte
	switch f {
	case formatYAML:
		data, err = yaml.Marshal(config)
	default:
		data, err = json.MarshalIndent(config, "", "  ")
	}
	if err != nil {
		return fmt.Errorf("序列化配置失败: %w", err)
	}

	if err := os.MkdirAll(filepath.Dir(filePath), 0755); err != nil {
		return fmt.Errorf("创建目录失败: %w", err)
	}
	if err := os.WriteFile(filePath, data, 0644); err != nil {
		return fmt.Errorf("写入配置文件失败: %w", err)
	}
	return nil
}

// ValidateConfig 验证配置的有效性。字段值允许为空，替换后占位符即被清空。
func (cm *configManager) ValidateConfig(config *Config) error {
	if config == nil {
		return fmt.Errorf("配置不能为空")
	}

	if config.ProjectName == "" {
		return fmt.Errorf("项目名称不能为空")
	}

	// 检查字段重复，Name 与 ![Name] 视为同一字段
	keySet := make(map[string]bool)
	for i, field := range config.Fields {
		name := matcher.ParseToken(strings.TrimSpace(field.Key))
		if name == "" {
			return fmt.Errorf("第 %d 个字段的 key 不能为空", i+1)
		}
		if strings.ContainsAny(name, "<>]") {
			return fmt.Errorf("第 %d 个字段的 key 含有非法字符: %s", i+1, field.Key)
		}
		if keySet[name] {
			return fmt.Errorf("字段重复: %s", name)
		}
		keySet[name] = true
	}

	if config.Processing != nil {
		if err := validateProcessing(config.Processing); err != nil {
			return fmt.Errorf("处理配置无效: %w", err)
		}
	}

	return nil
}

// validateProcessing 验证处理配置
func validateProcessing(p *Processing) error {
	if p.MaxConcurrentFiles < 1 || p.MaxConcurrentFiles > 50 {
		return fmt.Errorf("最大并发文件数必须在1-50之间")
	}

	switch p.FileNamePattern {
	case "timestamp", "report":
	default:
		return fmt.Errorf("不支持的文件名模式: %s", p.FileNamePattern)
	}

	for _, pattern := range p.ExcludePatterns {
		if _, err := filepath.Match(pattern, ""); err != nil {
			return fmt.Errorf("排除模式无效 %q: %w", pattern, err)
		}
	}
	return nil
}

// GetFieldMap 将字段列表转换为 字段名→值 映射，key 可写成 Name 或 ![Name]
func (cm *configManager) GetFieldMap(config *Config) map[string]string {
	if config == nil {
		return nil
	}

	fieldMap := make(map[string]string, len(config.Fields))
	for _, field := range config.Fields {
		fieldMap[matcher.ParseToken(strings.TrimSpace(field.Key))] = field.Value
	}
	return fieldMap
}

// SetDefaults 补齐处理配置的默认值
func SetDefaults(config *Config) {
	if config.Processing == nil {
		config.Processing = &Processing{}
	}

	p := config.Processing
	if p.MaxConcurrentFiles == 0 {
		p.MaxConcurrentFiles = DefaultMaxConcurrentFiles
	}
	if p.FileNamePattern == "" {
		p.FileNamePattern = DefaultFileNamePattern
	}
	if p.ExcludePatterns == nil {
		p.ExcludePatterns = append([]string(nil), DefaultExcludePatterns...)
	}
}
