// Package bootstrap holds the process wiring shared by every binary under cmd/:
// environment loading, the leveled logger, infrastructure clients, and ordered
// teardown of whatever was opened.
package bootstrap

import (
	"context"
	"fmt"
	"io"
	"os"
	"os/signal"
	"syscall"

	"github.com/joho/godotenv"
	"go.uber.org/multierr"

	"github.com/logiccrafts/connect-backend/pkg/config"
	"github.com/logiccrafts/connect-backend/pkg/db"
	"github.com/logiccrafts/connect-backend/pkg/instance"
	"github.com/logiccrafts/connect-backend/pkg/logger"
	"github.com/logiccrafts/connect-backend/pkg/migrate"
	"github.com/logiccrafts/connect-backend/pkg/pubsub"
	"github.com/logiccrafts/connect-backend/pkg/redis"
)

var exit = os.Exit

type resource struct {
	name string
	c    io.Closer
}

// Runtime is the per-process container returned by Start.
type Runtime struct {
	Service string
	Config  *config.Config
	Logger  *logger.Logger

	resources []resource
}

// Start loads .env (when present) and the LCC_* configuration, then builds the
// service logger. A configuration failure terminates the process.
func Start(service string) *Runtime {
	boot := logger.New(logger.Options{ServiceName: service})
	if err := godotenv.Load(); err != nil {
		boot.Warn(context.Background(), ".env file not found, relying on environment")
	}

	cfg, err := config.Load()
	if err != nil {
		boot.Error(context.Background(), "failed to load config", err)
		exit(1)
		return nil
	}
	return New(service, cfg, nil)
}

// New builds a Runtime around an already loaded config. A nil out writes logs
// to stdout.
func New(service string, cfg *config.Config, out io.Writer) *Runtime {
	cfg.Service.Kind = service
	return &Runtime{
		Service: service,
		Config:  cfg,
		Logger: logger.New(logger.Options{
			ServiceName: service,
			Level:       cfg.App.LogLevel,
			WarnStack:   cfg.App.LogWarnStack,
			Output:      out,
		}),
	}
}

// Defer registers c to be closed by Close. Resources close in reverse order of
// registration.
func (r *Runtime) Defer(name string, c io.Closer) {
	if c == nil {
		return
	}
	r.resources = append(r.resources, resource{name: name, c: c})
}

// Close releases every deferred resource and reports all failures together.
func (r *Runtime) Close() error {
	var err error
	for i := len(r.resources) - 1; i >= 0; i-- {
		res := r.resources[i]
		if cerr := res.c.Close(); cerr != nil {
			err = multierr.Append(err, fmt.Errorf("close %s: %w", res.name, cerr))
		}
	}
	r.resources = nil
	return err
}

// Shutdown closes resources and logs any failure. Binaries defer it from main.
func (r *Runtime) Shutdown() {
	if err := r.Close(); err != nil {
		r.Logger.Error(context.Background(), "error releasing resources", err)
	}
}

// Fatal logs err, releases resources and exits with status 1.
func (r *Runtime) Fatal(ctx context.Context, msg string, err error) {
	if ctx == nil {
		ctx = context.Background()
	}
	r.Logger.Error(ctx, msg, err)
	r.Shutdown()
	exit(1)
}

// Context returns a context cancelled on SIGINT or SIGTERM, carrying the
// environment, service kind and instance id as log fields plus any extras.
func (r *Runtime) Context(extra map[string]any) (context.Context, context.CancelFunc) {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	return r.Logger.WithFields(ctx, r.fields(extra)), stop
}

func (r *Runtime) fields(extra map[string]any) map[string]any {
	fields := map[string]any{
		"env":         r.Config.App.Env,
		"serviceKind": r.Config.Service.Kind,
		"instance":    instance.GetID(),
	}
	for k, v := range extra {
		fields[k] = v
	}
	return fields
}

// Database opens Postgres and applies embedded migrations in dev when
// LCC_AUTO_MIGRATE is set.
func (r *Runtime) Database(ctx context.Context) (*db.Client, error) {
	client, err := db.New(ctx, r.Config.DB, r.Logger)
	if err != nil {
		return nil, fmt.Errorf("bootstrap database: %w", err)
	}
	r.Defer("database", client)

	if err := migrate.MaybeRunDev(ctx, r.Config, r.Logger, client); err != nil {
		return nil, fmt.Errorf("dev migrations: %w", err)
	}
	return client, nil
}

func (r *Runtime) Redis(ctx context.Context) (*redis.Client, error) {
	client, err := redis.New(ctx, r.Config.Redis, r.Logger)
	if err != nil {
		return nil, fmt.Errorf("bootstrap redis: %w", err)
	}
	r.Defer("redis", client)
	return client, nil
}

func (r *Runtime) PubSub(ctx context.Context) (*pubsub.Client, error) {
	client, err := pubsub.NewClient(ctx, r.Config.GCP, r.Config.PubSub, r.Logger)
	if err != nil {
		return nil, fmt.Errorf("bootstrap pubsub: %w", err)
	}
	r.Defer("pubsub", client)
	return client, nil
}
