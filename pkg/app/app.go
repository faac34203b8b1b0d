// Package app 是应用程序的依赖容器：按 viper 配置组装存储后端、
// 对象门面、操作日志与元数据投影，供 CLI 消费。
package app

import (
	"context"
	"fmt"
	"path/filepath"

	"opvault/pkg/index"
	"opvault/pkg/meta"
	"opvault/pkg/op"
	"opvault/pkg/signing"
	"opvault/pkg/storage"
	"opvault/pkg/storage/cache"
	"opvault/pkg/storage/disk"
	"opvault/pkg/storage/s3"
	"opvault/pkg/store"
	"opvault/pkg/track"
	"opvault/pkg/view"

	"github.com/spf13/viper"
)

// App 持有所有单例服务
type App struct {
	Store *store.Store
	Log   *op.Log
	Index *index.Index
	Track *track.Decider

	// Meta 可选：database.enabled 时才有
	Meta *meta.Repository

	RepoPath string
	User     string
}

// NewApp 工厂函数：遵循 viper 配置组装依赖，不知道具体的 CLI 命令
func NewApp(ctx context.Context) (*App, error) {
	storePath := viper.GetString("storage.path")
	if storePath == "" {
		return nil, fmt.Errorf("storage path not set")
	}
	// storePath: .../.ov/objects → repoPath: .../.ov
	repoPath := filepath.Dir(storePath)

	cas, err := initStore(ctx, repoPath)
	if err != nil {
		return nil, fmt.Errorf("failed to init storage: %w", err)
	}

	s := store.New(cas, signing.NewEd25519Signer())

	heads, err := op.NewHeadsDir(filepath.Join(repoPath, "op-heads"))
	if err != nil {
		return nil, err
	}

	idx, err := index.NewIndex(filepath.Join(repoPath, "index.json"))
	if err != nil {
		return nil, fmt.Errorf("failed to load index: %w", err)
	}

	decider, err := track.NewDecider(filepath.Dir(repoPath), viper.GetStringSlice("sparse.patterns"))
	if err != nil {
		return nil, fmt.Errorf("failed to load ignore rules: %w", err)
	}

	a := &App{
		Store:    s,
		Log:      op.NewLog(s, heads),
		Index:    idx,
		Track:    decider,
		RepoPath: repoPath,
		User:     viper.GetString("user.name"),
	}

	if viper.GetBool("database.enabled") {
		db, err := initMetaDB(ctx, repoPath)
		if err != nil {
			return nil, fmt.Errorf("failed to init meta db: %w", err)
		}
		a.Meta = meta.NewRepository(db)
		// 每次操作落盘都顺带刷新 SQL 投影，读路径才有数据可查
		a.Log.SetRecorded(a.projectOperation)
	}
	return a, nil
}

// RebuildIndex 从视图快照全量重建提交图索引并持久化 (ov index)
func (a *App) RebuildIndex(ctx context.Context, v *view.View) (int, error) {
	if err := a.Index.Rebuild(ctx, a.Store, v); err != nil {
		return 0, err
	}
	if err := a.Index.Save(); err != nil {
		return 0, fmt.Errorf("failed to persist index: %w", err)
	}
	return a.Index.Len(), nil
}

// initStore 按配置选择对象存储后端，可叠加 redis 存在性缓存
func initStore(ctx context.Context, repoPath string) (storage.Store, error) {
	var backend storage.Store
	var err error

	switch storageType := viper.GetString("storage.type"); storageType {
	case "disk", "":
		backend, err = disk.NewAdapter(viper.GetString("storage.path"))
		if err != nil {
			return nil, err
		}

	case "s3":
		bucket := viper.GetString("storage.s3.bucket")
		if bucket == "" {
			return nil, fmt.Errorf("s3 bucket is required")
		}
		backend, err = s3.NewAdapter(ctx, s3.Config{
			Endpoint:        viper.GetString("storage.s3.endpoint"),
			Region:          viper.GetString("storage.s3.region"),
			Bucket:          bucket,
			AccessKeyID:     viper.GetString("storage.s3.access_key"),
			SecretAccessKey: viper.GetString("storage.s3.secret_key"),
		})
		if err != nil {
			return nil, err
		}

	default:
		return nil, fmt.Errorf("unsupported storage type: %s", storageType)
	}

	// 远端后端 (S3) 上叠加 redis 缓存收益最大；disk 上也允许，方便测试
	if viper.GetBool("cache.enabled") {
		backend, err = cache.NewCachedStore(backend, cache.Config{
			RedisURL: viper.GetString("cache.redis_url"),
			TTL:      viper.GetDuration("cache.ttl"),
		})
		if err != nil {
			return nil, err
		}
	}
	return backend, nil
}

// initMetaDB 按配置打开投影数据库 (本地 sqlite 或团队 postgres)
func initMetaDB(ctx context.Context, repoPath string) (*meta.DB, error) {
	switch driver := viper.GetString("database.driver"); driver {
	case "sqlite", "":
		path := viper.GetString("database.path")
		if path == "" {
			path = filepath.Join(repoPath, "meta.db")
		}
		return meta.NewSQLite(path)

	case "postgres":
		return meta.NewDB(ctx, meta.Config{
			Host:     viper.GetString("database.host"),
			Port:     viper.GetInt("database.port"),
			User:     viper.GetString("database.user"),
			Password: viper.GetString("database.password"),
			DBName:   viper.GetString("database.dbname"),
			SSLMode:  viper.GetString("database.sslmode"),
		})

	default:
		return nil, fmt.Errorf("unsupported database driver: %s", driver)
	}
}
