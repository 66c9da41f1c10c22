package integration

import (
	"context"
	"fmt"
	"os"
	"testing"
	"time"

	"github.com/testcontainers/testcontainers-go"
	tcpostgres "github.com/testcontainers/testcontainers-go/modules/postgres"
	tcredis "github.com/testcontainers/testcontainers-go/modules/redis"
	"github.com/testcontainers/testcontainers-go/wait"
	"go.uber.org/zap"
	"gorm.io/gorm"

	"github.com/bafoka-labs/voicebank/internal/adapter/storage/postgres"
)

// TestEnv holds the backing services the integration tests run against.
// External services from the CI environment win over local containers.
type TestEnv struct {
	RedisURL    string
	PostgresURL string
	DB          *gorm.DB
	Logger      *zap.Logger

	postgresContainer testcontainers.Container
	redisContainer    testcontainers.Container
}

var testEnv *TestEnv

func SetupTestEnvironment(t *testing.T) *TestEnv {
	t.Helper()
	if testEnv != nil {
		return testEnv
	}

	logger, _ := zap.NewDevelopment()
	env := &TestEnv{Logger: logger}
	ctx := context.Background()

	if url := os.Getenv("DATABASE_URL"); url != "" {
		env.PostgresURL = url
	} else {
		startPostgres(t, ctx, env)
	}

	if url := os.Getenv("REDIS_URL"); url != "" {
		env.RedisURL = url
	} else {
		startRedis(t, ctx, env)
	}

	if env.PostgresURL != "" {
		db, err := postgres.NewConnection(env.PostgresURL, logger)
		if err != nil {
			t.Fatalf("Failed to connect to postgres: %v", err)
		}
		if err := postgres.RunMigrations(db); err != nil {
			t.Fatalf("Failed to run migrations: %v", err)
		}
		env.DB = db
	}

	testEnv = env
	return testEnv
}

func startPostgres(t *testing.T, ctx context.Context, env *TestEnv) {
	t.Helper()

	container, err := tcpostgres.RunContainer(ctx,
		testcontainers.WithImage("postgres:16-alpine"),
		tcpostgres.WithDatabase("voicebank_test"),
		tcpostgres.WithUsername("voicebank"),
		tcpostgres.WithPassword("voicebank_test"),
		testcontainers.WithWaitStrategy(
			wait.ForLog("database system is ready to accept connections").
				WithOccurrence(2).
				WithStartupTimeout(60*time.Second),
		),
	)
	if err != nil {
		t.Skipf("Postgres container unavailable: %v", err)
	}

	host, err := container.Host(ctx)
	if err != nil {
		t.Fatalf("Failed to get postgres host: %v", err)
	}
	port, err := container.MappedPort(ctx, "5432")
	if err != nil {
		t.Fatalf("Failed to get postgres port: %v", err)
	}

	env.postgresContainer = container
	env.PostgresURL = fmt.Sprintf("postgres://voicebank:voicebank_test@%s:%s/voicebank_test?sslmode=disable", host, port.Port())
}

func startRedis(t *testing.T, ctx context.Context, env *TestEnv) {
	t.Helper()

	container, err := tcredis.RunContainer(ctx,
		testcontainers.WithImage("redis:7-alpine"),
		testcontainers.WithWaitStrategy(
			wait.ForLog("Ready to accept connections").
				WithStartupTimeout(60*time.Second),
		),
	)
	if err != nil {
		t.Skipf("Redis container unavailable: %v", err)
	}

	host, err := container.Host(ctx)
	if err != nil {
		t.Fatalf("Failed to get redis host: %v", err)
	}
	port, err := container.MappedPort(ctx, "6379")
	if err != nil {
		t.Fatalf("Failed to get redis port: %v", err)
	}

	env.redisContainer = container
	env.RedisURL = fmt.Sprintf("redis://%s:%s", host, port.Port())
}

func TestMain(m *testing.M) {
	code := m.Run()

	if testEnv != nil {
		ctx := context.Background()
		if testEnv.DB != nil {
			postgres.Close(testEnv.DB)
		}
		if testEnv.postgresContainer != nil {
			testEnv.postgresContainer.Terminate(ctx)
		}
		if testEnv.redisContainer != nil {
			testEnv.redisContainer.Terminate(ctx)
		}
	}

	os.Exit(code)
}

// CleanArchive truncates the turn archive between tests.
func CleanArchive(t *testing.T, db *gorm.DB) {
	t.Helper()
	if err := db.Exec("TRUNCATE TABLE turn_records").Error; err != nil {
		t.Logf("Failed to truncate turn_records: %v", err)
	}
}
