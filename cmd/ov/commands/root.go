package commands

import (
	"context"
	"fmt"
	"os"

	"opvault/pkg/app"
	"opvault/pkg/config"
	"opvault/pkg/op"
	"opvault/pkg/view"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"
)

var (
	cfgFile string
	// 全局应用实例，供子命令使用
	OV *app.App
)

var rootCmd = &cobra.Command{
	Use:   "ov",
	Short: "opvault: conflict-aware distributed version control",
	// PersistentPreRunE 会在所有子命令执行前运行
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		// 跳过 init 命令的依赖检查 (因为它就是去创建环境的)
		if cmd.Name() == "init" {
			return nil
		}

		var err error
		OV, err = app.NewApp(cmd.Context())
		if err != nil {
			return fmt.Errorf("failed to initialize opvault: %w\n(Did you run 'ov init'?)", err)
		}
		return nil
	},
}

// Execute 是入口
func Execute() error {
	return rootCmd.Execute()
}

func init() {
	cobra.OnInitialize(initConfig)

	rootCmd.PersistentFlags().StringVar(&cfgFile, "config", "", "config file (default is $HOME/.ov/config.yaml)")

	// 用户既可以在 yaml 里写，也可以用 --storage-path 覆盖
	rootCmd.PersistentFlags().String("storage-path", "", "Directory to store objects")
	if err := viper.BindPFlag("storage.path", rootCmd.PersistentFlags().Lookup("storage-path")); err != nil {
		fmt.Println("Failed to bind flag:", err)
		os.Exit(1)
	}
}

// initConfig 读取配置文件和环境变量
func initConfig() {
	if err := config.Load(cfgFile); err != nil {
		fmt.Println("Config error:", err)
		os.Exit(1)
	}
}

// headView 收敛日志头并返回当前视图
// 分叉在任何命令开始前先被合并掉：用户永远面对单一视图
func headView(ctx context.Context) (*op.Operation, *view.View, error) {
	head, err := OV.Log.Reconcile(ctx, OV.User)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to load operation log: %w", err)
	}
	v, err := head.View(ctx)
	if err != nil {
		return nil, nil, err
	}
	return head, v, nil
}
