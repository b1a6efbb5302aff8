package config

import (
	"context"
	"fmt"
	"time"

	"github.com/fsnotify/fsnotify"
)

// Watcher 监听配置文件变更并回调最新配置，用于会话中途调整
// 大单阈值/告警参数。冷却时间合并编辑器连续写入产生的事件风暴。
type Watcher struct {
	Path     string
	Cooldown time.Duration

	watcher *fsnotify.Watcher
}

// NewWatcher 创建基于 fsnotify 的配置监听器。
func NewWatcher(path string, cooldown time.Duration) (*Watcher, error) {
	w, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, fmt.Errorf("create watcher: %w", err)
	}
	if err := w.Add(path); err != nil {
		_ = w.Close()
		return nil, fmt.Errorf("watch config file: %w", err)
	}
	if cooldown <= 0 {
		cooldown = 2 * time.Second
	}
	return &Watcher{Path: path, Cooldown: cooldown, watcher: w}, nil
}

// Start 阻塞监听直到 ctx 取消；重载失败只跳过该次变更，不回调坏配置。
func (w *Watcher) Start(ctx context.Context, onUpdate func(AppConfig)) error {
	defer w.watcher.Close()
	var lastReload time.Time
	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case ev, ok := <-w.watcher.Events:
			if !ok {
				return nil
			}
			if !ev.Has(fsnotify.Write) && !ev.Has(fsnotify.Create) {
				continue
			}
			if time.Since(lastReload) < w.Cooldown {
				continue
			}
			cfg, err := LoadWithEnvOverrides(w.Path)
			if err != nil {
				continue
			}
			lastReload = time.Now()
			if onUpdate != nil {
				onUpdate(cfg)
			}
		case _, ok := <-w.watcher.Errors:
			if !ok {
				return nil
			}
		}
	}
}
