package main

import (
	"context"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"snipshare/internal/config"
	"snipshare/internal/db"
	"snipshare/internal/router"
	"snipshare/internal/services"

	"github.com/pkg/errors"
	log "github.com/sirupsen/logrus"
)

func main() {
	cfg := config.Load()
	cfg.ApplyLogLevel()

	// Initialize Database
	db.Init(cfg.DatabaseURL)

	// 初始化异步排名服务
	ranking := services.NewRankingService(db.DB)
	ranking.Start()
	ranking.StartScheduledRefresh()

	mail := services.NewMailService(cfg.SMTP.Host, cfg.SMTP.Port, cfg.SMTP.User, cfg.SMTP.Password, cfg.SMTP.From)
	llm := services.NewLLMService(cfg.LLM.BaseURL, cfg.LLM.Token, cfg.LLM.Model, cfg.LLM.Timeout)
	if !llm.Enabled() {
		log.Warn("LLM_BASE_URL not set, code customization disabled")
	}

	r := router.New(router.Deps{
		DB:            db.DB,
		SessionSecret: cfg.SessionSecret,
		SiteURL:       cfg.SiteURL,
		Accounts:      services.NewAccountService(db.DB, mail),
		Posts:         services.NewPostService(db.DB, ranking),
		Reactions:     services.NewReactionService(db.DB, ranking),
		Leaderboard:   services.NewLeaderboardService(db.DB),
		LLM:           llm,
	})

	srv := &http.Server{
		Addr:    ":" + cfg.Port,
		Handler: r,
	}

	go func() {
		log.Infof("snipshare server starting on :%s", cfg.Port)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.WithError(err).Fatal("server failed")
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit
	log.Info("shutting down")

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := srv.Shutdown(ctx); err != nil {
		log.WithError(err).Error("server shutdown failed")
	}
	// 已入队的热度更新处理完再退出
	ranking.Stop()
}
