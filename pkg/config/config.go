// Package config 负责 viper 配置的加载：搜索路径、环境变量、默认值。
package config

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/spf13/viper"
)

// Load 初始化 Viper 配置
// cfgFile: 可选，用户显式指定的配置文件路径
func Load(cfgFile string) error {
	setDefaults()

	if cfgFile != "" {
		viper.SetConfigFile(cfgFile)
	} else {
		home, err := os.UserHomeDir()
		if err != nil {
			return err
		}

		// 搜索顺序：当前目录 → 当前目录下的 .ov → 用户主目录下的 .ov
		viper.AddConfigPath(".")
		viper.AddConfigPath(".ov")
		viper.AddConfigPath(filepath.Join(home, ".ov"))

		viper.SetConfigType("yaml")
		viper.SetConfigName("config") // 找 config.yaml
	}

	// 环境变量 (OV_STORAGE_TYPE 等)
	viper.SetEnvPrefix("OV")
	viper.AutomaticEnv()

	if err := viper.ReadInConfig(); err != nil {
		// 没找到配置文件不算错 (环境变量 + 默认值也能跑)，格式错才算
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			return fmt.Errorf("fatal error config file: %w", err)
		}
	}
	return nil
}

func setDefaults() {
	wd, _ := os.Getwd()
	repoPath := filepath.Join(wd, ".ov")

	// 存储默认值
	viper.SetDefault("storage.type", "disk")
	viper.SetDefault("storage.path", filepath.Join(repoPath, "objects"))

	// 对象存在性缓存 (默认关)
	viper.SetDefault("cache.enabled", false)
	viper.SetDefault("cache.ttl", "24h")

	// op log 投影数据库 (默认本地 sqlite)
	viper.SetDefault("database.enabled", false)
	viper.SetDefault("database.driver", "sqlite")
	viper.SetDefault("database.path", filepath.Join(repoPath, "meta.db"))
	viper.SetDefault("database.host", "localhost")
	viper.SetDefault("database.port", 5432)
	viper.SetDefault("database.sslmode", "disable")

	// 操作元信息里的 user 字段
	host, _ := os.Hostname()
	viper.SetDefault("user.name", os.Getenv("USER")+"@"+host)
}
