package websocket

import (
	"encoding/json"
	"time"

	"mafia-game-be/internal/service/game"
	"mafia-game-be/internal/state"

	"github.com/gorilla/websocket"
	"github.com/kataras/iris/v12"
	"go.uber.org/zap"
)

// JoinGame 把一条 WebSocket 连接接入指定游戏的状态机：
// 首条消息必须是 JoinGame 请求，之后读协程向状态机转发请求，
// 写协程把状态机的响应和心跳发回客户端
func JoinGame(appState *state.AppState) iris.Handler {
	return func(ctx iris.Context) {
		gameID := ctx.URLParam("game_id")
		if gameID == "" {
			ctx.StatusCode(iris.StatusBadRequest)
			ctx.JSON(iris.Map{"error": "缺少 game_id 参数"})
			return
		}

		conn, err := upgrader.Upgrade(
			ctx.ResponseWriter(),
			ctx.Request(),
			nil,
		)
		if err != nil {
			zap.L().Error("升级到WebSocket失败", zap.Error(err))
			ctx.StatusCode(iris.StatusBadRequest)
			return
		}

		defer conn.Close()

		conn.SetReadDeadline(time.Now().Add(HEARTBEAT_TIMEOUT))
		conn.SetPongHandler(pongHandler(conn))

		respCh := make(chan game.ResponseWrapper, 64)

		// 读取首次请求，获取必要的参数
		_, msg, err := conn.ReadMessage()
		if err != nil {
			zap.L().Error(
				"读取首次请求失败",
				zap.String("client_ip", ctx.RemoteAddr()),
				zap.Error(err),
			)
			return
		}

		var wrapper game.RequestWrapper

		if err := json.Unmarshal(msg, &wrapper); err != nil {
			zap.L().Error(
				"解析首次请求失败",
				zap.String("client_ip", ctx.RemoteAddr()),
				zap.Error(err),
			)

			return
		}

		joinReq := game.TryUnwrapJoinGameRequest(wrapper)
		if joinReq == nil {
			zap.L().Error(
				"首次请求不是JoinGame类型",
				zap.String("client_ip", ctx.RemoteAddr()),
				zap.Any("wrapper", wrapper),
			)

			return
		}

		joinReq.RespCh = respCh

		// 先调用加入游戏的接口，获取游戏状态机的请求通道
		reqCh, err := appState.GameSvc.JoinGame(gameID, joinReq)
		if err != nil {
			zap.L().Error(
				"加入游戏失败",
				zap.String("client_ip", ctx.RemoteAddr()),
				zap.Error(err),
			)

			conn.WriteJSON(game.WrapErrResponse(err.Error()))

			return
		}

		// 等待并读取加入确认响应，获取玩家ID
		var playerID string
		var playerName string

		select {
		case joinResp := <-respCh:
			if joinResp.RespType == game.RESP_JOIN_GAME {
				// 提取玩家ID
				if respData, ok := joinResp.Data.(game.JoinGameResponse); ok {
					playerID = respData.Joiner.ID
					playerName = respData.Joiner.Name
				}

				// 将响应放回通道供写协程发送
				select {
				case respCh <- joinResp:
				default:
					zap.L().Warn("无法回放加入响应")
				}
			} else if joinResp.RespType == game.RESP_ERROR {
				// 加入被拒绝（例如房间已满或游戏已开始）
				conn.WriteJSON(joinResp)
				return
			}
		case <-time.After(3 * time.Second):
			zap.L().Error("等待加入响应超时", zap.String("client_ip", ctx.RemoteAddr()))
			return
		}

		if playerID == "" {
			zap.L().Error("未能获取玩家ID", zap.String("client_ip", ctx.RemoteAddr()))
			return
		}

		zap.L().Info(
			"玩家成功加入游戏",
			zap.String("client_ip", ctx.RemoteAddr()),
			zap.String("game_id", gameID),
			zap.String("player_id", playerID),
			zap.String("player_name", playerName),
		)

		// 写协程的退出信号
		writeDoneCh := make(chan struct{})
		defer close(writeDoneCh)

		clientIP := ctx.RemoteAddr()

		// 写入协程
		go func() {
			ticker := time.NewTicker(HEARTBEAT_INTERVAL)
			defer ticker.Stop()

			for {
				select {
				case <-writeDoneCh:
					zap.L().Info(
						"WebSocket写入协程退出",
						zap.String("client_ip", clientIP),
					)
					return

				case <-ticker.C:
					if err := conn.WriteMessage(websocket.PingMessage, nil); err != nil {
						zap.L().Error(
							"发送心跳失败",
							zap.String("client_ip", clientIP),
							zap.Error(err),
						)
						return
					}

					conn.SetWriteDeadline(time.Now().Add(HEARTBEAT_TIMEOUT))

				case resp, ok := <-respCh:
					// 检测到channel已关闭（玩家退出时状态机关闭了通道）
					if !ok {
						zap.L().Info(
							"响应通道已关闭，退出写协程",
							zap.String("client_ip", clientIP),
						)
						return
					}

					if err := conn.WriteJSON(resp); err != nil {
						zap.L().Error(
							"发送消息失败",
							zap.String("client_ip", clientIP),
							zap.Error(err),
						)
						return
					}

					zap.L().Debug(
						"发送消息",
						zap.String("client_ip", clientIP),
						zap.Any("response", resp),
					)
				}
			}
		}()

		// 读取协程（主协程）
		for {
			_, msg, err := conn.ReadMessage()
			if err != nil {
				if websocket.IsUnexpectedCloseError(
					err,
					websocket.CloseGoingAway,
					websocket.CloseAbnormalClosure,
				) {
					zap.L().Error(
						"读取消息失败",
						zap.String("client_ip", clientIP),
						zap.Error(err),
					)
				}

				break
			}

			// 解析消息
			var wrapper game.RequestWrapper

			if err := json.Unmarshal(msg, &wrapper); err != nil {
				zap.L().Error(
					"解析消息失败",
					zap.String("client_ip", clientIP),
					zap.Error(err),
				)

				respCh <- game.WrapErrResponse("无效的请求格式")

				continue
			}

			// 将解析后的请求发送到游戏状态机
			select {
			case reqCh <- wrapper:
				zap.L().Debug(
					"发送请求到游戏状态机",
					zap.String("client_ip", clientIP),
					zap.Any("request_wrapper", wrapper),
				)
			default:
				zap.L().Error(
					"发送请求到游戏状态机失败：请求通道已满",
					zap.String("client_ip", clientIP),
				)

				respCh <- game.WrapErrResponse("游戏繁忙，请稍后再试")
			}
		}

		// 读循环退出，表示客户端断开连接
		// 发送 ExitGame 请求通知游戏状态机清理玩家
		zap.L().Info(
			"客户端连接断开，发送退出请求",
			zap.String("client_ip", clientIP),
			zap.String("player_id", playerID),
		)

		exitReq := game.ExitGameRequest{
			PlayerID: playerID,
			RespCh:   respCh,
		}

		exitWrapper := game.RequestWrapper{
			ReqType:    game.REQ_EXIT_GAME,
			NativeData: &exitReq,
		}

		select {
		case reqCh <- exitWrapper:
			zap.L().Debug(
				"发送退出请求成功",
				zap.String("player_id", playerID),
			)
		default:
			zap.L().Warn(
				"发送退出请求失败：请求通道已满",
				zap.String("player_id", playerID),
			)
			// 即使发送失败也继续等待，确保资源回收
		}

		// 等待退出确认响应或超时
		select {
		case resp, ok := <-respCh:
			if !ok {
				// 通道已关闭，说明状态机已处理退出
				zap.L().Info(
					"响应通道已关闭，玩家退出完成",
					zap.String("player_id", playerID),
				)
			} else if resp.RespType == game.RESP_EXIT_GAME {
				zap.L().Info(
					"收到退出确认响应",
					zap.String("player_id", playerID),
				)
			}
		case <-time.After(3 * time.Second):
			zap.L().Warn(
				"等待退出确认超时，强制退出",
				zap.String("player_id", playerID),
			)
		}

		zap.L().Info(
			"WebSocket连接处理完成",
			zap.String("client_ip", clientIP),
			zap.String("player_id", playerID),
		)
	}
}
