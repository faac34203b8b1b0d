package commands

import (
	"fmt"
	"os"
	"path/filepath"
	"time"

	"opvault/pkg/core"
	"opvault/pkg/op"
	"opvault/pkg/signing"
	"opvault/pkg/storage/disk"
	"opvault/pkg/store"
	"opvault/pkg/view"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"
)

var initCmd = &cobra.Command{
	Use:   "init",
	Short: "Initialize an opvault repository",
	Long:  `Create an empty opvault repository: object store, operation log, and the initial empty view.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		wd, err := os.Getwd()
		if err != nil {
			return err
		}

		repoPath := filepath.Join(wd, ".ov")
		objectsPath := filepath.Join(repoPath, "objects")

		if _, err := os.Stat(repoPath); err == nil {
			fmt.Printf("⚠️  opvault repository already exists in %s\n", repoPath)
			return nil
		}

		if err := os.MkdirAll(objectsPath, 0o755); err != nil {
			return fmt.Errorf("failed to create repo directory: %w", err)
		}

		// 落第一条操作：空视图 + default 工作区占位
		cas, err := disk.NewAdapter(objectsPath)
		if err != nil {
			return err
		}
		heads, err := op.NewHeadsDir(filepath.Join(repoPath, "op-heads"))
		if err != nil {
			return err
		}
		l := op.NewLog(store.New(cas, signing.NewEd25519Signer()), heads)

		// 首个提交产生前 default 工作区尚无绑定，初始视图是空的
		now := time.Now().Unix()
		root, err := l.Record(cmd.Context(), view.NewView(), nil, core.OpMetadata{
			StartTime:   now,
			EndTime:     now,
			Description: "initialize repo",
			User:        viper.GetString("user.name"),
		})
		if err != nil {
			return fmt.Errorf("failed to record initial operation: %w", err)
		}

		fmt.Printf("✅ Initialized empty opvault repository in %s\n", repoPath)
		fmt.Printf("   Initial operation: %s\n", shortId(string(root.ID())))
		return nil
	},
}

func init() {
	rootCmd.AddCommand(initCmd)
}

func shortId(id string) string {
	if len(id) > 12 {
		return id[:12]
	}
	return id
}
