package main

import (
	"context"
	"fmt"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"

	"dealbrief/auth"
	"dealbrief/automation"
	"dealbrief/brief"
	"dealbrief/db"
	"dealbrief/invite"
	"dealbrief/outreach"
	"dealbrief/prospect"
	"dealbrief/quote"
)

func main() {
	_ = godotenv.Load()

	cfg, err := Load()
	if err != nil {
		log.Fatalf("config: %v", err)
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	pool, err := db.NewPool(ctx, cfg.DatabaseURL)
	if err != nil {
		log.Fatalf("bootstrap database pool: %v", err)
	}
	defer pool.Close()

	timeline := brief.NewTimeline(pool)
	briefRepo := brief.NewRepository(pool)
	briefSvc := brief.NewService(pool, briefRepo, timeline)
	statusSvc := brief.NewStatusService(pool)

	finder := outreach.NewDealerFinder(outreach.DealerFinderConfig{
		BaseURL: cfg.LLMBaseURL,
		APIKey:  cfg.LLMAPIKey,
		Model:   cfg.LLMModel,
	})

	var emailSender prospect.EmailSender
	if cfg.EmailAPIKey != "" {
		emailSender = outreach.NewEmailClient(outreach.EmailConfig{
			BaseURL: cfg.EmailBaseURL,
			APIKey:  cfg.EmailAPIKey,
			From:    cfg.EmailFrom,
		})
	}
	var smsSender prospect.SMSSender
	if cfg.SMSSID != "" && cfg.SMSToken != "" {
		smsSender = outreach.NewSMSClient(outreach.SMSConfig{
			BaseURL:    cfg.SMSBaseURL,
			AccountSID: cfg.SMSSID,
			AuthToken:  cfg.SMSToken,
			From:       cfg.SMSFrom,
		})
	}

	prospectRepo := prospect.NewRepository(pool)
	discovery := prospect.NewDiscovery(pool, prospectRepo, briefRepo, finder)
	dispatcher := prospect.NewDispatcher(prospectRepo, briefRepo, emailSender, smsSender).
		WithConcurrency(cfg.SendConcurrency)
	orchestrator := automation.NewOrchestrator(briefRepo, discovery, dispatcher, timeline).
		WithTimeout(cfg.AutomationTimeout)

	quoteSvc := quote.NewService(pool, timeline)
	inviteRepo := invite.NewRepository(pool)
	authSvc := auth.NewService(auth.NewRepository(pool), inviteRepo, cfg.JWTSecret)

	server := &Server{
		briefs:       briefSvc,
		status:       statusSvc,
		timeline:     timeline,
		discovery:    discovery,
		dispatcher:   dispatcher,
		prospects:    prospectRepo,
		orchestrator: orchestrator,
		quotes:       quoteSvc,
		auth:         authSvc,
		invites:      inviteRepo,
	}

	httpServer := &http.Server{
		Addr:        cfg.ListenAddr,
		Handler:     server.Routes(),
		ReadTimeout: 15 * time.Second,
		// Automation runs block on external providers; give them room.
		WriteTimeout: cfg.AutomationTimeout + 30*time.Second,
		IdleTimeout:  60 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() { errCh <- httpServer.ListenAndServe() }()
	log.Printf("listening on %s", cfg.ListenAddr)

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
	select {
	case sig := <-sigCh:
		log.Printf("shutting down on %s", sig)
		shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer shutdownCancel()
		if err := httpServer.Shutdown(shutdownCtx); err != nil {
			log.Printf("shutdown: %v", err)
		}
	case err := <-errCh:
		log.Fatal(fmt.Errorf("server error: %w", err))
	}
}
