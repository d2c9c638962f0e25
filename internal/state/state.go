package state

import (
	"mafia-game-be/internal/config"
	"mafia-game-be/internal/service"
)

type AppState struct {
	Cfg     *config.AppConfig
	GameSvc *service.GameService
}

func NewAppState(
	cfg *config.AppConfig,
	gameSvc *service.GameService,
) *AppState {
	return &AppState{
		Cfg:     cfg,
		GameSvc: gameSvc,
	}
}
