// Package catalog 维护模板目录中各模板及其占位符的缓存
package catalog

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/fsnotify/fsnotify"
	"go.uber.org/zap"

	"github.com/allanpk716/docx_filler/internal/domain"
	"github.com/allanpk716/docx_filler/internal/logging"
	"github.com/allanpk716/docx_filler/pkg/docx"
)

// Template 模板目录中的一个模板
type Template struct {
	Name         string
	Path         string
	Placeholders []string
	ModTime      time.Time
}

// IsTemplate 判断文件名是否为模板：Word文档或 .txt，且不匹配任何排除模式
func IsTemplate(name string, excludePatterns []string) bool {
	base := filepath.Base(name)
	ext := strings.ToLower(filepath.Ext(base))
	if !docx.IsRichExtension(ext) && ext != ".txt" {
		return false
	}
	for _, pattern := range excludePatterns {
		if matched, _ := filepath.Match(pattern, base); matched {
			return false
		}
	}
	return true
}

// Catalog 模板目录缓存
type Catalog struct {
	mu        sync.RWMutex
	dir       string
	exclude   []string
	extractor domain.PlaceholderExtractor
	templates map[string]Template
	debounce  time.Duration
	logger    *zap.Logger
}

// New 创建模板目录缓存，需调用 Scan 载入
func New(dir string, extractor domain.PlaceholderExtractor, excludePatterns []string, logger *zap.Logger) *Catalog {
	return &Catalog{
		dir:       dir,
		exclude:   excludePatterns,
		extractor: extractor,
		templates: make(map[string]Template),
		debounce:  300 * time.Millisecond,
		logger:    logging.OrNop(logger),
	}
}

// Scan 重新读取目录中的全部模板
func (c *Catalog) Scan() error {
	entries, err := os.ReadDir(c.dir)
	if err != nil {
		return fmt.Errorf("读取模板目录失败: %w", err)
	}

	templates := make(map[string]Template)
	for _, entry := range entries {
		if entry.IsDir() || !IsTemplate(entry.Name(), c.exclude) {
			continue
		}
		tmpl, err := c.load(filepath.Join(c.dir, entry.Name()))
		if err != nil {
			c.logger.Warn("载入模板失败", zap.String("name", entry.Name()), zap.Error(err))
			continue
		}
		templates[tmpl.Name] = tmpl
	}

	c.mu.Lock()
	c.templates = templates
	c.mu.Unlock()

	c.logger.Info("模板目录已扫描", zap.String("dir", c.dir), zap.Int("templates", len(templates)))
	return nil
}

func (c *Catalog) load(path string) (Template, error) {
	info, err := os.Stat(path)
	if err != nil {
		return Template{}, err
	}
	return Template{
		Name:         filepath.Base(path),
		Path:         path,
		Placeholders: c.extractor.ExtractFile(path),
		ModTime:      info.ModTime(),
	}, nil
}

// List 返回按名称排序的模板列表
func (c *Catalog) List() []Template {
	c.mu.RLock()
	defer c.mu.RUnlock()

	list := make([]Template, 0, len(c.templates))
	for _, tmpl := range c.templates {
		list = append(list, tmpl)
	}
	sort.Slice(list, func(i, j int) bool { return list[i].Name < list[j].Name })
	return list
}

// Get 按文件名查找模板
func (c *Catalog) Get(name string) (Template, bool) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	tmpl, ok := c.templates[name]
	return tmpl, ok
}

// Watch 监视模板目录，文件新建或修改后刷新对应条目，删除或改名后移除。
// 返回的通道在 ctx 取消、监视结束后关闭。
func (c *Catalog) Watch(ctx context.Context) (<-chan struct{}, error) {
	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, fmt.Errorf("创建目录监视器失败: %w", err)
	}
	if err := watcher.Add(c.dir); err != nil {
		watcher.Close()
		return nil, fmt.Errorf("监视模板目录失败: %w", err)
	}

	done := make(chan struct{})
	go func() {
		defer close(done)
		defer watcher.Close()
		c.run(ctx, watcher)
	}()

	c.logger.Info("开始监视模板目录", zap.String("dir", c.dir))
	return done, nil
}

func (c *Catalog) run(ctx context.Context, watcher *fsnotify.Watcher) {
	pending := make(map[string]time.Time)
	interval := c.debounce / 3
	if interval <= 0 {
		interval = 10 * time.Millisecond
	}
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			c.logger.Debug("停止监视模板目录")
			return

		case event, ok := <-watcher.Events:
			if !ok {
				return
			}
			if !IsTemplate(event.Name, c.exclude) {
				continue
			}
			switch {
			case event.Op&(fsnotify.Create|fsnotify.Write) != 0:
				// 保存文件时常连续触发多次写事件，稍后统一刷新
				pending[event.Name] = time.Now()
			case event.Op&(fsnotify.Remove|fsnotify.Rename) != 0:
				delete(pending, event.Name)
				c.remove(event.Name)
			}

		case err, ok := <-watcher.Errors:
			if !ok {
				return
			}
			c.logger.Error("目录监视出错", zap.Error(err))

		case <-ticker.C:
			now := time.Now()
			for path, at := range pending {
				if now.Sub(at) >= c.debounce {
					delete(pending, path)
					c.refresh(path)
				}
			}
		}
	}
}

func (c *Catalog) refresh(path string) {
	tmpl, err := c.load(path)
	if err != nil {
		c.logger.Debug("模板已不存在，跳过刷新", zap.String("path", path), zap.Error(err))
		c.remove(path)
		return
	}

	c.mu.Lock()
	c.templates[tmpl.Name] = tmpl
	c.mu.Unlock()
	c.logger.Info("模板已刷新", zap.String("name", tmpl.Name), zap.Strings("placeholders", tmpl.Placeholders))
}

func (c *Catalog) remove(path string) {
	name := filepath.Base(path)
	c.mu.Lock()
	_, existed := c.templates[name]
	delete(c.templates, name)
	c.mu.Unlock()
	if existed {
		c.logger.Info("模板已移除", zap.String("name", name))
	}
}
