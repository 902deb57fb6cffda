package container

import (
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/redis/go-redis/v9"
	"github.com/sirupsen/logrus"

	"github.com/nordveldt/userbase/config"
	"github.com/nordveldt/userbase/pkg/helpers"
)

// app-level container to share constructed components across packages
// Router can auto-wire modules from these singletons.

var (
	cfg         *config.Config
	logger      *logrus.Logger
	pgPool      *pgxpool.Pool
	redisClient *redis.Client

	emailPub  *helpers.RabbitPublisher
	eventsPub *helpers.RabbitPublisher
)

func SetConfig(c *config.Config) { cfg = c }
func GetConfig() *config.Config  { return cfg }
func SetLogger(l *logrus.Logger) { logger = l }
func GetLogger() *logrus.Logger  { return logger }
func SetPGPool(p *pgxpool.Pool)  { pgPool = p }
func GetPGPool() *pgxpool.Pool   { return pgPool }
func SetRedis(r *redis.Client)   { redisClient = r }
func GetRedis() *redis.Client    { return redisClient }

// SetEmailPub stores the publisher feeding the outbound email queue.
func SetEmailPub(p *helpers.RabbitPublisher) { emailPub = p }
func GetEmailPub() *helpers.RabbitPublisher  { return emailPub }

// SetEventsPub stores the publisher feeding the user events queue.
func SetEventsPub(p *helpers.RabbitPublisher) { eventsPub = p }
func GetEventsPub() *helpers.RabbitPublisher  { return eventsPub }
