package main

import (
	"flag"

	"github.com/dixitakash2514/argos-mob-proposal/config"
	"github.com/dixitakash2514/argos-mob-proposal/internal/pkg/database"
	"github.com/dixitakash2514/argos-mob-proposal/internal/repository"
	"github.com/spf13/cobra"
	"k8s.io/klog/v2"
)

var rootCmd = &cobra.Command{
	Use:   "proposalctl",
	Short: "Inspect and render stored proposals",
	Long:  `Lists proposals from the configured database and renders them as markdown, HTML, PDF or plain text.`,
	PersistentPostRun: func(cmd *cobra.Command, args []string) {
		klog.Flush()
	},
	SilenceUsage: true,
}

func init() {
	// klog 的 -v 等参数挂到根命令上
	klog.InitFlags(nil)
	rootCmd.PersistentFlags().AddGoFlagSet(flag.CommandLine)
}

// openRepository 按配置打开提案存储
func openRepository() (repository.ProposalRepository, *config.Config, error) {
	cfg := config.GetConfig()
	db, err := database.InitDB(cfg.Database.Type, cfg.Database.DSN)
	if err != nil {
		return nil, nil, err
	}
	return repository.NewProposalRepository(db), cfg, nil
}
