package app

import (
	"context"
	"net/http"

	"github.com/aws/aws-sdk-go-v2/service/dynamodb"
	"github.com/casbin/casbin/v3"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/redis/go-redis/v9"
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
)

// App wires dependencies and manages service lifecycle.
type App struct {
	ctx    context.Context
	cancel context.CancelFunc

	// configuration
	config config.Config
	ins    instrument.Instrumentation

	// libraries
	goroutine *goroutine.Manager
	validator validator.Validator
	clock     clock.Clocker
	hmac      hash.Hash
	argon2id  hash.Hash
	bcrypt    hash.Hash
	uid       uid.NumberID
	oid       uid.StringID
	uuid      uid.StringID
	jwt       jwt.JWT
	secretbox secretbox.Box

	// resources
	dbConn        *pgxpool.Pool
	cacheConn     *redis.Client
	dynamoConn    *dynamodb.Client
	idemp         idempotency.Idempotency
	mail          mail.Mail
	sms           sms.SMS
	messaging     messaging.Messaging
	rbacAdapter   *rbac.Adapter
	casbin        *casbin.Enforcer
	casbinWatcher *rbac.Watcher

	// server
	router     *router.Router
	httpServer *http.Server

	//
	closers []struct {
		name string
		fn   func(context.Context) error
	}
}

// New initializes the application with default wiring and returns an App instance.
func New() *App {
	ctx, cancel := context.WithCancel(context.Background())
	app := &App{
		ctx:    ctx,
		cancel: cancel,
	}

	app.initConfig()
	app.initInstrument()
	app.initLibraries()
	app.initJWT()
	app.initDatabase()
	app.initMigrations()
	app.initCache()
	app.initAWS()
	app.initMail()
	app.initMessaging()
	app.initCasbin()
	app.initHTTPServer()
	app.initModules()
	app.initClosers()

	return app
}
