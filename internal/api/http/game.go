package http

import (
	"mafia-game-be/internal/state"

	"github.com/kataras/iris/v12"
)

func CreateGame(appState *state.AppState) iris.Handler {
	return func(ctx iris.Context) {
		gameID := appState.GameSvc.CreateGame()

		ctx.JSON(iris.Map{
			"game_id": gameID,
		})
	}
}

// GetGame 返回该游戏最近一次持久化的快照
func GetGame(appState *state.AppState) iris.Handler {
	return func(ctx iris.Context) {
		gameID := ctx.Params().Get("game_id")

		snap, err := appState.GameSvc.Snapshot(gameID)
		if err != nil {
			ctx.StatusCode(iris.StatusInternalServerError)
			ctx.JSON(iris.Map{
				"error": "读取游戏快照失败",
			})
			return
		}

		if snap == nil {
			ctx.StatusCode(iris.StatusNotFound)
			ctx.JSON(iris.Map{
				"error": "游戏不存在",
			})
			return
		}

		ctx.JSON(snap)
	}
}

func ResetGame(appState *state.AppState) iris.Handler {
	return func(ctx iris.Context) {
		gameID := ctx.Params().Get("game_id")

		if err := appState.GameSvc.ResetGame(gameID); err != nil {
			ctx.StatusCode(iris.StatusBadRequest)
			ctx.JSON(iris.Map{
				"error": err.Error(),
			})
			return
		}

		ctx.JSON(iris.Map{
			"message": "游戏已重置",
		})
	}
}
