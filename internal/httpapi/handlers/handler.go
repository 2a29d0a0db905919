package handlers

import (
	"context"
	"fmt"

	"github.com/matria-app/matria/internal/assistant"
	"github.com/matria-app/matria/internal/config"
	"github.com/matria-app/matria/internal/conversation"
	"github.com/matria-app/matria/internal/email"
	"github.com/matria-app/matria/internal/localstore"
	"github.com/matria-app/matria/internal/remote"
	"github.com/matria-app/matria/internal/session"
	"github.com/matria-app/matria/internal/store/rabbitmq"
	"github.com/matria-app/matria/internal/store/redisstore"
	"github.com/matria-app/matria/internal/syncer"
	"gorm.io/gorm"
)

type Handler struct {
	DB          *gorm.DB
	Cfg         config.Config
	Redis       *redisstore.Store
	SMTPSetting email.SMTPConfig

	Sessions  *session.Manager
	Convs     *conversation.Manager
	Assistant *assistant.Client
	Syncer    *syncer.Syncer

	// nil when the broker is not configured; sync then runs inline
	Rabbit *rabbitmq.Publisher
}

func NewHandler(db *gorm.DB, cfg config.Config, rds *redisstore.Store, store *localstore.Store, rabbit *rabbitmq.Publisher) *Handler {
	sessions := session.NewManager(store)
	convs := conversation.NewManager(store)
	repo := remote.NewRepo(db)

	remoteProvider := assistant.NewRemoteProvider(
		cfg.ChatAPIBaseURL, cfg.ChatAPIPath, cfg.ChatAPIKey,
		cfg.ChatAPITimeout, cfg.ChatAPIRetries,
	)

	reg := assistant.NewRegistry()
	reg.Register("remote", func(ctx context.Context) (assistant.Provider, error) {
		return remoteProvider, nil
	})
	reg.Register("canned", func(ctx context.Context) (assistant.Provider, error) {
		return assistant.NewCannedProvider(), nil
	})

	name := cfg.AssistantProvider
	if name == "" {
		name = "remote"
	}
	primary, err := reg.Get(context.Background(), name)
	if err != nil {
		panic(fmt.Sprintf("unsupported ASSISTANT_PROVIDER=%q", cfg.AssistantProvider))
	}

	return &Handler{
		DB:    db,
		Cfg:   cfg,
		Redis: rds,
		SMTPSetting: email.SMTPConfig{
			Host: cfg.SMTPHost,
			Port: cfg.SMTPPort,
			User: cfg.SMTPUser,
			Pass: cfg.SMTPPass,
			From: cfg.SMTPFrom,
		},
		Sessions:  sessions,
		Convs:     convs,
		Assistant: assistant.NewClient(primary, remoteProvider),
		Syncer:    syncer.New(repo, sessions, convs),
		Rabbit:    rabbit,
	}
}
