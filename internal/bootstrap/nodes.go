// Package bootstrap builds the concrete node instances that a
// registry.Registry discovers at process startup. Kept as an explicit
// builder function rather than
// reflective package scanning, matching the teacher's
// internal/engine/node_registry.go NewNodeRegistry() construction style.
package bootstrap

import (
	"context"
	"fmt"

	awsconfig "github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/hibiken/asynq"
	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"

	"github.com/Narcis13/workscript-sub004/internal/config"
	"github.com/Narcis13/workscript-sub004/internal/node"
	"github.com/Narcis13/workscript-sub004/internal/nodes/ai"
	"github.com/Narcis13/workscript-sub004/internal/nodes/cache"
	"github.com/Narcis13/workscript-sub004/internal/nodes/control"
	"github.com/Narcis13/workscript-sub004/internal/nodes/database"
	"github.com/Narcis13/workscript-sub004/internal/nodes/flow"
	"github.com/Narcis13/workscript-sub004/internal/nodes/httpclient"
	"github.com/Narcis13/workscript-sub004/internal/nodes/lognode"
	"github.com/Narcis13/workscript-sub004/internal/nodes/queue"
	"github.com/Narcis13/workscript-sub004/internal/nodes/security"
	"github.com/Narcis13/workscript-sub004/internal/nodes/storage"
	"github.com/Narcis13/workscript-sub004/internal/nodes/transform"
	"github.com/Narcis13/workscript-sub004/internal/registry"
)

// Resources bundles the live clients BuildProviders opened, so the host
// can close/reuse them (e.g. closing Redis and Asynq on shutdown)
// without reaching back into the registry.
type Resources struct {
	Redis   *redis.Client
	DB      *gorm.DB
	Asynq   *asynq.Client
	S3      *s3.Client
}

// BuildProviders constructs every domain node this repository ships and
// returns them as registry.Provider entries, plus the underlying clients
// for reuse elsewhere (health checks, graceful shutdown).
func BuildProviders(ctx context.Context, cfg config.Config, logger zerolog.Logger, reg *registry.Registry) ([]registry.Provider, *Resources, error) {
	redisClient := redis.NewClient(&redis.Options{
		Addr:     cfg.Redis.Addr,
		Password: cfg.Redis.Password,
		DB:       cfg.Redis.DB,
	})

	db, err := gorm.Open(sqlite.Open(cfg.Database.DSN), &gorm.Config{})
	if err != nil {
		return nil, nil, fmt.Errorf("bootstrap: open database: %w", err)
	}

	asynqClient := asynq.NewClient(asynq.RedisClientOpt{Addr: cfg.Redis.Addr})

	awsCfg, err := awsconfig.LoadDefaultConfig(ctx)
	if err != nil {
		return nil, nil, fmt.Errorf("bootstrap: load aws config: %w", err)
	}
	s3Client := s3.NewFromConfig(awsCfg)

	jwtSecret := cfg.Server.JWTSecret
	if jwtSecret == "" {
		jwtSecret = "dev-secret-change-me"
	}

	providers := []registry.Provider{
		{Scope: node.ScopeUniversal, Node: lognode.New(logger)},
		{Scope: node.ScopeUniversal, Node: flow.Condition{}},
		{Scope: node.ScopeUniversal, Node: flow.Delay{}},
		{Scope: node.ScopeUniversal, Node: flow.While{}},
		{Scope: node.ScopeUniversal, Node: transform.New()},
		{Scope: node.ScopeUniversal, Node: httpclient.New()},
		{Scope: node.ScopeUniversal, Node: security.NewJWTNode(jwtSecret)},
		{Scope: node.ScopeUniversal, Node: security.HashNode{}},
		{Scope: node.ScopeUniversal, Node: control.New(reg)},

		{Scope: node.ScopeServer, Node: cache.New(redisClient)},
		{Scope: node.ScopeServer, Node: database.New(db)},
		{Scope: node.ScopeServer, Node: queue.New(asynqClient)},
		{Scope: node.ScopeServer, Node: storage.New(s3Client)},
		{Scope: node.ScopeServer, Node: ai.New(nil)}, // no model wired: every ai_complete call fails with a node error
	}

	return providers, &Resources{Redis: redisClient, DB: db, Asynq: asynqClient, S3: s3Client}, nil
}
