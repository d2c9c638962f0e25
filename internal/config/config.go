package config

import (
	"fmt"

	"github.com/spf13/viper"
)

type AppConfig struct {
	Host     string `mapstructure:"host"`
	Port     int    `mapstructure:"port"`
	LogLevel string `mapstructure:"log_level"`

	// 夜晚阶段自动结算的超时秒数，0 表示使用默认值
	NightTimeoutSeconds int `mapstructure:"night_timeout_seconds"`
	// SQLite 快照库路径
	DBPath string `mapstructure:"db_path"`
}

var cfg *AppConfig

func GetConfig() *AppConfig {
	if cfg == nil {
		cfg = InitConfig()
	}

	return cfg
}

func InitConfig() *AppConfig {
	v := viper.New()

	v.SetConfigFile("app_config")
	v.SetConfigType("json")
	v.AddConfigPath(".")

	v.SetDefault("night_timeout_seconds", 10)
	v.SetDefault("db_path", "./mafia_game.db")

	if err := v.ReadInConfig(); err != nil {
		panic(fmt.Errorf("加载配置失败: %w", err))
	}

	var config AppConfig

	if err := v.Unmarshal(&config); err != nil {
		panic(fmt.Errorf("解析配置失败: %w", err))
	}

	return &config
}
