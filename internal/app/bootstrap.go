package app

import (
	"errors"
	"fmt"

	"github.com/toolshelf/internal/config"
	"github.com/toolshelf/internal/provider"
	"github.com/toolshelf/internal/router"
	"github.com/toolshelf/internal/worker"
)

// BuildRunner 按启动模式组装 API 与通知投递服务
func BuildRunner(cfg *config.Config, mode string) (*Runner, error) {
	if cfg == nil {
		return nil, errors.New("config is nil")
	}
	mode, err := ParseMode(mode)
	if err != nil {
		return nil, err
	}

	var services []Service
	if mode == ModeAll || mode == ModeAPI {
		container := provider.NewContainer(cfg)
		engine := router.SetupRouter(cfg, container)
		services = append(services, NewHTTPService(cfg.Server.Addr(), engine))
	}

	// worker 只负责投递结算通知，不依赖业务容器
	if mode == ModeAll || mode == ModeWorker {
		if !cfg.Queue.Enabled {
			if mode == ModeWorker {
				return nil, errors.New("worker mode requires queue.enabled")
			}
		} else {
			consumer := worker.NewConsumer(worker.NewDeliverer(cfg.Notify))
			workerService, err := worker.NewService(&cfg.Queue, consumer)
			if err != nil {
				return nil, fmt.Errorf("init worker failed: %w", err)
			}
			services = append(services, workerService)
		}
	}

	if len(services) == 0 {
		return nil, errors.New("no services initialized (check mode and config)")
	}
	return NewRunner(services...), nil
}

// Run 应用启动入口
func Run(opts Options) error {
	opts = normalizeOptions(opts)
	if opts.Config == nil {
		return errors.New("config is nil")
	}

	runner, err := BuildRunner(opts.Config, opts.Mode)
	if err != nil {
		return err
	}

	opts.Logger.Infow("app_start", "addr", opts.Config.Server.Addr(), "mode", opts.Mode, "services", runner.Names())
	return RunWithOptions(runner, opts)
}
