package app

import (
	"context"
	"encoding/base64"
	"log/slog"
	"net/http"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	awsconfig "github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/credentials"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb"
	"github.com/aws/aws-sdk-go-v2/service/sns"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/nats-io/nats.go"
	"github.com/redis/go-redis/v9"
	"github.com/rs/cors"
	"github.com/segmentio/kafka-go"
	"github.com/shandysiswandi/gostore/internal/pkg/clock"
	"github.com/shandysiswandi/gostore/internal/pkg/config"
	"github.com/shandysiswandi/gostore/internal/pkg/goroutine"
	"github.com/shandysiswandi/gostore/internal/pkg/hash"
	"github.com/shandysiswandi/gostore/internal/pkg/idempotency"
	"github.com/shandysiswandi/gostore/internal/pkg/instrument"
	"github.com/shandysiswandi/gostore/internal/pkg/jwt"
	"github.com/shandysiswandi/gostore/internal/pkg/mail"
	"github.com/shandysiswandi/gostore/internal/pkg/messaging"
	"github.com/shandysiswandi/gostore/internal/pkg/rbac"
	"github.com/shandysiswandi/gostore/internal/pkg/router"
	"github.com/shandysiswandi/gostore/internal/pkg/secretbox"
	"github.com/shandysiswandi/gostore/internal/pkg/sms"
	"github.com/shandysiswandi/gostore/internal/pkg/uid"
	"github.com/shandysiswandi/gostore/internal/pkg/validator"
	"github.com/shandysiswandi/gostore/internal/verification"
	"github.com/shandysiswandi/gostore/internal/verification/outbound/dynamo"
	"github.com/shandysiswandi/gostore/migrations"
	"golang.org/x/oauth2/google"
	"google.golang.org/api/option"
)

const pubsubScope = "https://www.googleapis.com/auth/pubsub"

func (a *App) initConfig() {
	path := os.Getenv("CONFIG_PATH")
	if path == "" {
		path = "/config/config.yaml"
		if os.Getenv("LOCAL") == "true" {
			path = "./config/config.yaml"
		}
	}

	cfg, err := config.NewViper(path)
	if err != nil {
		slog.Error("failed to init config", "error", err)
		os.Exit(1)
	}

	//nolint:errcheck,gosec // ignore error
	os.Setenv("TZ", cfg.GetString("app.tz"))

	a.config = cfg
}

func (a *App) initInstrument() {
	var level slog.Level
	if err := level.UnmarshalText([]byte(a.config.GetString("instrument.log_level"))); err != nil {
		level = slog.LevelInfo
	}

	ins, err := instrument.New(context.Background(), &instrument.Config{
		Enabled:          a.config.GetBool("instrument.enabled"),
		ServiceName:      a.config.GetString("instrument.service_name"),
		ServiceVersion:   a.config.GetString("instrument.service_version"),
		Environment:      a.config.GetString("instrument.env"),
		OTLPEndpoint:     a.config.GetString("instrument.otlp_endpoint"),
		OTLPSecure:       a.config.GetBool("instrument.otlp_secure"),
		TraceSampleRatio: a.config.GetFloat64("instrument.trace_sample_ratio"),
		MetricsInterval:  a.config.GetSecond("instrument.metric_interval_seconds"),
		LogLevel:         level,
		MaskFields:       a.config.GetArray("instrument.log_mask_fields"),
	})
	if err != nil {
		slog.Error("failed to init instrumentation", "error", err)
		os.Exit(1)
	}
	a.ins = ins
}

func (a *App) initLibraries() {
	a.clock = clock.New()
	a.uuid = uid.NewUUID()
	a.oid = uid.NewULID()
	a.goroutine = goroutine.NewManager(a.config.GetInt("app.server.max_goroutine"))
	a.hmac = hash.NewHMACSHA256(a.config.GetString("hash.hmac.secret"))
	a.argon2id = hash.NewArgon2id(a.config.GetString("hash.argon2id.pepper"))
	a.bcrypt = hash.NewBcrypt(a.config.GetInt("hash.bcrypt.cost"), a.config.GetString("hash.bcrypt.pepper"))

	validator, err := validator.NewV10Validator()
	if err != nil {
		slog.Error("failed to init validation v10 validator", "error", err)
		os.Exit(1)
	}
	a.validator = validator

	snow, err := uid.NewSnowflake(a.config.GetInt64("app.node_id"))
	if err != nil {
		slog.Error("failed to init uid number snowflake", "error", err)
		os.Exit(1)
	}
	a.uid = snow

	keys := make(map[uint16][]byte)
	for version, raw := range a.config.GetMap("secretbox.keys") {
		v, err := strconv.ParseUint(version, 10, 16)
		if err != nil {
			slog.Error("failed to parse secretbox key version", "version", version, "error", err)
			os.Exit(1)
		}
		key, err := base64.StdEncoding.DecodeString(raw)
		if err != nil {
			slog.Error("failed to decode secretbox key", "version", version, "error", err)
			os.Exit(1)
		}
		keys[uint16(v)] = key
	}

	box, err := secretbox.NewKeyRing(a.config.GetUint16("secretbox.current_version"), keys)
	if err != nil {
		slog.Error("failed to init secretbox, keys must be 32 bytes (AES-256)", "error", err)
		os.Exit(1)
	}
	a.secretbox = box
}

func (a *App) initJWT() {
	defaultJWT, err := jwt.NewHS512(jwt.Config{
		Secret:    []byte(a.config.GetString("jwt.secret")),
		Issuer:    a.config.GetString("jwt.issuer"),
		Audiences: a.config.GetArray("jwt.audiences"),
		TTL:       a.config.GetMinute("jwt.ttl_minutes"),
		Clock:     a.clock,
		UUID:      a.uuid,
	})
	if err != nil {
		slog.Error("failed to init jwt token", "error", err)
		os.Exit(1)
	}
	a.jwt = defaultJWT
}

func (a *App) initDatabase() {
	config, err := pgxpool.ParseConfig(a.config.GetString("database.url"))
	if err != nil {
		slog.Error("failed to parse DB connection string.", "error", err)
		os.Exit(1)
	}

	config.MaxConns = a.config.GetInt32("database.pool.max_conns")
	config.MinConns = a.config.GetInt32("database.pool.min_conns")
	config.MaxConnLifetime = a.config.GetSecond("database.pool.max_conn_lifetime_seconds")
	config.MaxConnIdleTime = a.config.GetSecond("database.pool.max_conn_idle_seconds")
	config.HealthCheckPeriod = a.config.GetSecond("database.pool.health_check_period_seconds")

	pool, err := pgxpool.NewWithConfig(a.ctx, config)
	if err != nil {
		slog.Error("failed to create DB connection pool", "error", err)
		os.Exit(1)
	}

	pingCtx, cancel := context.WithTimeout(a.ctx, 5*time.Second)
	defer cancel()
	if err := pool.Ping(pingCtx); err != nil {
		slog.Error("failed to ping DB", "error", err)
		os.Exit(1)
	}

	a.dbConn = pool
}

func (a *App) initMigrations() {
	if !a.config.GetBool("database.migrate_on_start") {
		return
	}

	ctx, cancel := context.WithTimeout(a.ctx, 30*time.Second)
	defer cancel()
	if err := migrations.Apply(ctx, a.dbConn); err != nil {
		slog.Error("failed to apply migrations", "error", err)
		os.Exit(1)
	}
}

func (a *App) initCache() {
	opt, err := redis.ParseURL(a.config.GetString("redis.url"))
	if err != nil {
		slog.Error("failed to parse redis url", "error", err)
		os.Exit(1)
	}

	rdb := redis.NewClient(opt)

	pingCtx, cancel := context.WithTimeout(a.ctx, 5*time.Second)
	defer cancel()
	if err := rdb.Ping(pingCtx).Err(); err != nil {
		slog.Error("failed to init redis", "error", err)
		os.Exit(1)
	}

	a.cacheConn = rdb
	a.idemp = idempotency.New(a.cacheConn)
}

// initAWS builds the SNS client for SMS and, when the verification store runs
// on DynamoDB, the DynamoDB client.
func (a *App) initAWS() {
	opts := []func(*awsconfig.LoadOptions) error{
		awsconfig.WithRegion(a.config.GetString("aws.region")),
	}
	if ak := strings.TrimSpace(a.config.GetString("aws.access_key")); ak != "" {
		opts = append(opts, awsconfig.WithCredentialsProvider(credentials.NewStaticCredentialsProvider(
			ak,
			a.config.GetString("aws.secret_key"),
			a.config.GetString("aws.session_token"),
		)))
	}

	awsCfg, err := awsconfig.LoadDefaultConfig(a.ctx, opts...)
	if err != nil {
		slog.Error("failed to load aws config", "error", err)
		os.Exit(1)
	}

	snsClient := sns.NewFromConfig(awsCfg, func(o *sns.Options) {
		if v := strings.TrimSpace(a.config.GetString("aws.sns.endpoint")); v != "" {
			o.BaseEndpoint = aws.String(v)
		}
	})
	a.sms = sms.NewSNS(snsClient, sms.SNSConfig{
		SenderID:   a.config.GetString("aws.sns.sender_id"),
		MaxRetries: a.config.GetUint64("aws.sns.max_retries"),
		Backoff:    time.Duration(a.config.GetInt("aws.sns.backoff_millis")) * time.Millisecond,
	})

	if a.config.GetString("modules.verification.store.driver") != verification.StoreDriverDynamoDB {
		return
	}

	a.dynamoConn = dynamodb.NewFromConfig(awsCfg, func(o *dynamodb.Options) {
		if v := strings.TrimSpace(a.config.GetString("aws.dynamodb.endpoint")); v != "" {
			o.BaseEndpoint = aws.String(v)
		}
	})

	if a.config.GetBool("aws.dynamodb.create_table") {
		ctx, cancel := context.WithTimeout(a.ctx, 30*time.Second)
		defer cancel()
		if err := dynamo.EnsureTable(ctx, a.dynamoConn, a.config.GetString("modules.verification.store.dynamodb.table")); err != nil {
			slog.Error("failed to ensure dynamodb table", "error", err)
			os.Exit(1)
		}
	}
}

func (a *App) initMail() {
	mail, err := mail.NewSMTP(mail.SMTPConfig{
		Host:     a.config.GetString("mail.host"),
		Port:     a.config.GetInt("mail.port"),
		Username: a.config.GetString("mail.username"),
		Password: a.config.GetString("mail.password"),
		From:     a.config.GetString("mail.from"),
	})
	if err != nil {
		slog.Error("failed to init mail", "error", err)
		os.Exit(1)
	}

	a.mail = mail
}

func (a *App) initMessaging() {
	driver := a.config.GetString("messaging.driver")
	if driver == messaging.DriverMemory {
		slog.Warn("in-memory messaging driver in use, events do not survive a restart")
	}

	var pubsubOptions []option.ClientOption
	if driver == messaging.DriverGooglePubSub {
		if a.config.GetBool("messaging.pubsub.without_auth") {
			pubsubOptions = append(pubsubOptions, option.WithoutAuthentication())
		}
		if v := a.config.GetBinary("messaging.pubsub.credentials_json"); len(v) > 0 {
			creds, err := google.CredentialsFromJSON(a.ctx, v, pubsubScope)
			if err != nil {
				slog.Error("failed to parse pubsub credentials json", "error", err)
				os.Exit(1)
			}
			pubsubOptions = append(pubsubOptions, option.WithCredentials(creds))
		}
		if v := strings.TrimSpace(a.config.GetString("messaging.pubsub.endpoint")); v != "" {
			pubsubOptions = append(pubsubOptions, option.WithEndpoint(v))
		}
	}

	client, err := messaging.NewFromDriver(a.ctx, driver, messaging.FactoryOptions{
		NSQ: messaging.NSQConfig{
			ProducerAddr:         a.config.GetString("messaging.nsq.producer_addr"),
			ConsumerNSQDAddrs:    a.config.GetArray("messaging.nsq.consumer_nsqd_addrs"),
			ConsumerLookupdAddrs: a.config.GetArray("messaging.nsq.consumer_lookupd_addrs"),
		},
		Kafka: messaging.KafkaConfig{
			Brokers: a.config.GetArray("messaging.kafka.brokers"),
			Dialer: &kafka.Dialer{
				ClientID:  a.config.GetString("messaging.kafka.client_id"),
				Timeout:   a.config.GetSecond("messaging.kafka.dial_timeout_seconds"),
				DualStack: true,
			},
		},
		NATS: messaging.NATSConfig{
			URL: a.config.GetString("messaging.nats.url"),
			Options: []nats.Option{
				nats.Name(a.config.GetString("messaging.nats.name")),
				nats.MaxReconnects(a.config.GetInt("messaging.nats.max_reconnects")),
				nats.Timeout(a.config.GetSecond("messaging.nats.timeout_seconds")),
				nats.ReconnectWait(a.config.GetSecond("messaging.nats.reconnect_wait_seconds")),
				nats.PingInterval(a.config.GetSecond("messaging.nats.ping_interval_seconds")),
				nats.MaxPingsOutstanding(a.config.GetInt("messaging.nats.max_pings_outstanding")),
				nats.RetryOnFailedConnect(a.config.GetBool("messaging.nats.retry_on_failed_connect")),
			},
		},
		PubSub: messaging.PubSubConfig{
			ProjectID:     a.config.GetString("messaging.pubsub.project_id"),
			ClientOptions: pubsubOptions,
		},
	})
	if err != nil {
		slog.Error("failed to init messaging", "error", err, "driver", driver)
		os.Exit(1)
	}

	a.messaging = client
}

func (a *App) initCasbin() {
	adapter := rbac.NewAdapter(a.dbConn,
		rbac.WithTable(a.config.GetString("rbac.table")),
		rbac.WithChannel(a.config.GetString("rbac.channel")),
	)

	e, err := rbac.NewEnforcer(adapter)
	if err != nil {
		slog.Error("failed to init casbin", "error", err)
		os.Exit(1)
	}

	watcher := rbac.NewWatcher(a.ctx, a.dbConn, rbac.WithWatcherChannel(a.config.GetString("rbac.channel")))
	if err := watcher.SetUpdateCallback(rbac.ReloadCallback(e)); err != nil {
		slog.Error("failed to set watcher callback casbin", "error", err)
		os.Exit(1)
	}

	if err := e.SetWatcher(watcher); err != nil {
		slog.Error("failed to set watcher casbin", "error", err)
		os.Exit(1)
	}

	e.EnableAutoSave(true)
	e.EnableAutoNotifyWatcher(true)

	a.rbacAdapter = adapter
	a.casbin = e
	a.casbinWatcher = watcher
}

func (a *App) initHTTPServer() {
	a.router = router.NewRouter(router.Config{
		Config:     a.config,
		UUID:       a.uuid,
		JWT:        a.jwt,
		Instrument: a.ins,
	})

	routerWithCORS := cors.New(cors.Options{
		AllowedOrigins: a.config.GetArray("app.server.cors"),
		AllowedMethods: []string{
			http.MethodGet,
			http.MethodPost,
			http.MethodDelete,
			http.MethodOptions,
		},
		AllowedHeaders:   []string{"*"},
		AllowCredentials: true,
	}).Handler(a.router)

	a.httpServer = &http.Server{
		Addr:              a.config.GetString("app.server.http.address"),
		Handler:           routerWithCORS,
		ReadTimeout:       a.config.GetSecond("app.server.http.read_timeout_seconds"),
		ReadHeaderTimeout: a.config.GetSecond("app.server.http.read_header_timeout_seconds"),
		WriteTimeout:      a.config.GetSecond("app.server.http.write_timeout_seconds"),
		IdleTimeout:       a.config.GetSecond("app.server.http.idle_timeout_seconds"),
	}
}

func (a *App) initClosers() {
	a.closers = []struct {
		name string
		fn   func(context.Context) error
	}{
		{
			name: "Instrument",
			fn: func(ctx context.Context) error {
				return a.ins.Shutdown(ctx)
			},
		},
		{
			name: "Messaging",
			fn: func(context.Context) error {
				return a.messaging.Close()
			},
		},
		{
			name: "Mail",
			fn: func(context.Context) error {
				return a.mail.Close()
			},
		},
		{
			name: "CasbinWatcher",
			fn: func(context.Context) error {
				if a.casbinWatcher != nil {
					a.casbinWatcher.Close()
				}

				return nil
			},
		},
		{
			name: "Redis",
			fn: func(context.Context) error {
				return a.cacheConn.Close()
			},
		},
		{
			name: "Database",
			fn: func(context.Context) error {
				a.dbConn.Close()

				return nil
			},
		},
		{
			name: "Config",
			fn: func(context.Context) error {
				return a.config.Close()
			},
		},
	}
}
