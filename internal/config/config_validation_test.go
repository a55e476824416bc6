package config

import (
	"testing"
)

func TestConfigManager_ValidateConfig(t *testing.T) {
	tests := []struct {
		name    string
		config  *Config
		wantErr bool
	}{
		{
			name: "valid config",
			config: &Config{
				ProjectName: "Test Project",
				Fields: []Field{
					{Key: "NAME", Value: "John"},
				},
			},
			wantErr: false,
		},
		{
			name:    "nil config",
			config:  nil,
			wantErr: true,
		},
		{
			name: "empty project name",
			config: &Config{
				ProjectName: "",
				Fields: []Field{
					{Key: "NAME", Value: "John"},
				},
			},
			wantErr: true,
		},
		{
			name: "no fields",
			config: &Config{
				ProjectName: "Test Project",
				Fields:      []Field{},
			},
			wantErr: false,
		},
		{
			name: "empty key",
			config: &Config{
				ProjectName: "Test Project",
				Fields: []Field{
					{Key: "", Value: "John"},
				},
			},
			wantErr: true,
		},
		{
			name: "empty token key",
			config: &Config{
				ProjectName: "Test Project",
				Fields:      []Field{{Key: "![]", Value: "John"}},
			},
			wantErr: true,
		},
		{
			name: "key with markup",
			config: &Config{
				ProjectName: "Test Project",
				Fields:      []Field{{Key: "a<b>", Value: "John"}},
			},
			wantErr: true,
		},
		{
			name: "empty value",
			config: &Config{
				ProjectName: "Test Project",
				Fields: []Field{
					{Key: "NAME", Value: ""},
				},
			},
			wantErr: false,
		},
		{
			name: "duplicate keys",
			config: &Config{
				ProjectName: "Test Project",
				Fields: []Field{
					{Key: "NAME", Value: "John"},
					{Key: "NAME", Value: "Jane"},
				},
			},
			wantErr: true,
		},
		{
			name: "duplicate keys in token form",
			config: &Config{
				ProjectName: "Test Project",
				Fields: []Field{
					{Key: "NAME", Value: "John"},
					{Key: "![NAME]", Value: "Jane"},
				},
			},
			wantErr: true,
		},
		{
			name: "unknown file name pattern",
			config: &Config{
				ProjectName: "Test Project",
				Processing:  &Processing{MaxConcurrentFiles: 2, FileNamePattern: "random"},
			},
			wantErr: true,
		},
		{
			name: "bad exclude pattern",
			config: &Config{
				ProjectName: "Test Project",
				Processing:  &Processing{MaxConcurrentFiles: 2, FileNamePattern: "report", ExcludePatterns: []string{"[a-"}},
			},
			wantErr: true,
		},
	}

	manager := NewConfigManager()
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := manager.ValidateConfig(tt.config)
			if tt.wantErr {
				if err == nil {
					t.Errorf("期望出现错误，但没有错误")
				}
			} else {
				if err != nil {
					t.Errorf("不期望出现错误，但出现了错误: %v", err)
				}
			}
		})
	}
}
