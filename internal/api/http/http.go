package http

import (
	"fmt"

	"mafia-game-be/internal/api/http/websocket"
	"mafia-game-be/internal/state"

	"github.com/kataras/iris/v12"
)

func RunServer(appState *state.AppState) {
	app := iris.Default()

	app.Get("/health", func(ctx iris.Context) {
		ctx.JSON(iris.Map{"status": "healthy"})
	})

	api := app.Party("/api/v1")

	api.Post("/games/create", CreateGame(appState))
	api.Get("/games/{game_id}", GetGame(appState))
	api.Post("/games/{game_id}/reset", ResetGame(appState))

	api.Get("/ws/join", websocket.JoinGame(appState))

	addr := fmt.Sprintf(
		"%s:%d",
		appState.Cfg.Host,
		appState.Cfg.Port,
	)

	app.Listen(addr)
}
