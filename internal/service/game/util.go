package game

import (
	"encoding/json"

	"github.com/google/uuid"
)

// GenID 生成按时间戳有序的 UUIDv7 字符串
func GenID() string {
	id, err := uuid.NewV7()
	if err != nil {
		panic("生成 UUID 失败: " + err.Error())
	}

	return id.String()
}

// ShortID 取 UUID 的末八位，作为对玩家可读的短 ID
func ShortID() string {
	id := GenID()
	return id[len(id)-8:]
}

func mustMarshal(v any) json.RawMessage {
	data, err := json.Marshal(v)
	if err != nil {
		panic("序列化失败: " + err.Error())
	}

	return data
}
