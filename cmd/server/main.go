package main

import (
	"context"
	"flag"
	"log"
	"os"

	"k8s.io/klog/v2"

	"github.com/dixitakash2514/argos-mob-proposal/config"
	"github.com/dixitakash2514/argos-mob-proposal/internal/eventbus"
	"github.com/dixitakash2514/argos-mob-proposal/internal/handler"
	"github.com/dixitakash2514/argos-mob-proposal/internal/pkg/database"
	"github.com/dixitakash2514/argos-mob-proposal/internal/pkg/llm"
	"github.com/dixitakash2514/argos-mob-proposal/internal/pkg/sse"
	"github.com/dixitakash2514/argos-mob-proposal/internal/repository"
	"github.com/dixitakash2514/argos-mob-proposal/internal/router"
	"github.com/dixitakash2514/argos-mob-proposal/internal/service"
	"github.com/dixitakash2514/argos-mob-proposal/internal/service/chat"
	"github.com/dixitakash2514/argos-mob-proposal/internal/subscriber"
)

func main() {
	// 初始化 klog
	klog.InitFlags(nil)
	flag.Parse()
	defer klog.Flush()

	klog.V(6).Info("服务启动中...")

	cfg := config.GetConfig()

	if err := os.MkdirAll(cfg.Data.Dir, 0755); err != nil {
		log.Fatalf("Failed to create data directory: %v", err)
	}

	// 初始化数据库
	db, err := database.InitDB(cfg.Database.Type, cfg.Database.DSN)
	if err != nil {
		log.Fatalf("Failed to initialize database: %v", err)
	}

	proposalRepo := repository.NewProposalRepository(db)
	bus := eventbus.NewProposalEventBus()
	proposalService := service.NewProposalService(cfg, proposalRepo, bus)

	// 自动保存：会话内的修改通过事件异步落盘
	autosave, err := subscriber.NewAutosaveSubscriber(proposalService, cfg.Proposal.AutosaveWorkers)
	if err != nil {
		log.Fatalf("Failed to initialize autosave: %v", err)
	}
	autosave.Register(bus)
	defer autosave.Stop()

	collaborator := newCollaborator(cfg)
	sessions := chat.NewManager(proposalService, collaborator, bus)

	proposalHandler := handler.NewProposalHandler(proposalService, sessions)
	sessionHandler := handler.NewSessionHandler(sessions)
	chatHandler := handler.NewChatHandler(collaborator)
	renderHandler := handler.NewRenderHandler(cfg, proposalService, sessions)

	r := router.Setup(cfg, proposalHandler, sessionHandler, chatHandler, renderHandler)

	log.Printf("Server starting on port %s...", cfg.Server.Port)
	if err := r.Run(":" + cfg.Server.Port); err != nil {
		log.Fatalf("Failed to start server: %v", err)
	}
}

// newCollaborator 优先转发到远端 /api/chat，其次直连模型；都不可用时每轮都走手动录入
func newCollaborator(cfg *config.Config) chat.Collaborator {
	if cfg.LLM.RemoteChatURL != "" {
		klog.V(6).Infof("使用远端对话服务: %s", cfg.LLM.RemoteChatURL)
		return sse.NewRemoteCollaborator(cfg.LLM.RemoteChatURL)
	}

	cm, err := llm.NewChatModel(context.Background(), cfg.LLM)
	if err != nil {
		klog.Warningf("AI 协作方不可用，将只支持手动录入: %v", err)
		return llm.Unavailable{Err: err}
	}
	return llm.NewSectionWriter(cm, cfg.Proposal.CompanyName)
}
