package main

import (
	"time"

	"mafia-game-be/internal/api/http"
	"mafia-game-be/internal/config"
	"mafia-game-be/internal/logger"
	"mafia-game-be/internal/service"
	"mafia-game-be/internal/state"
	"mafia-game-be/internal/storage"
)

func main() {
	// 加载配置
	cfg := config.InitConfig()

	// 初始化日志器
	logger.InitLogger(cfg.LogLevel)

	// 打开快照存储（不可用时自动降级为进程内存储）
	store := storage.Open(cfg.DBPath)

	// 组装应用状态
	appState := state.NewAppState(
		cfg,
		service.NewGameService(
			store,
			time.Duration(cfg.NightTimeoutSeconds)*time.Second,
		),
	)

	// 启动服务器
	http.RunServer(appState)
}
