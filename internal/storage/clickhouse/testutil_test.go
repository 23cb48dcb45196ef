package clickhouse

import (
	"context"
	"flag"
	"fmt"
	"os"
	"path/filepath"
	"regexp"
	"strings"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
	"github.com/testcontainers/testcontainers-go"
	"github.com/testcontainers/testcontainers-go/wait"
)

// One server per package run; every test gets its own database on it.
var (
	serverOnce sync.Once
	server     testcontainers.Container
	serverAddr string
	serverErr  error
	dbSeq      atomic.Int64
)

func TestMain(m *testing.M) {
	flag.Parse()
	code := m.Run()
	if server != nil {
		_ = server.Terminate(context.Background())
	}
	os.Exit(code)
}

func startServer(ctx context.Context) {
	server, serverErr = testcontainers.GenericContainer(ctx, testcontainers.GenericContainerRequest{
		ContainerRequest: testcontainers.ContainerRequest{
			Image:        "clickhouse/clickhouse-server:24.1-alpine",
			ExposedPorts: []string{"9000/tcp"},
			Env:          map[string]string{"CLICKHOUSE_SKIP_USER_SETUP": "1"},
			WaitingFor: wait.ForAll(
				wait.ForLog("Ready for connections").WithStartupTimeout(90*time.Second),
				wait.ForListeningPort("9000/tcp"),
			),
		},
		Started: true,
	})
	if serverErr != nil {
		return
	}
	host, err := server.Host(ctx)
	if err != nil {
		serverErr = err
		return
	}
	port, err := server.MappedPort(ctx, "9000")
	if err != nil {
		serverErr = err
		return
	}
	serverAddr = fmt.Sprintf("%s:%s", host, port.Port())
}

// setupTestDB returns a connection to a fresh, migrated database.
func setupTestDB(t *testing.T) (*Conn, func()) {
	t.Helper()
	if testing.Short() {
		t.Skip("skipping ClickHouse integration test in short mode")
	}

	ctx := context.Background()
	serverOnce.Do(func() { startServer(ctx) })
	require.NoError(t, serverErr, "start clickhouse container")

	dbName := fmt.Sprintf("runs_%d", dbSeq.Add(1))
	dsn := fmt.Sprintf("clickhouse://default:@%s/%s", serverAddr, dbName)

	admin, err := NewConnWithDatabase(ctx, dsn, "")
	require.NoError(t, err)
	require.NoError(t, admin.Exec(ctx, "CREATE DATABASE "+dbName))
	require.NoError(t, admin.Close())

	conn, err := NewConn(ctx, dsn)
	require.NoError(t, err)
	applySchema(t, conn)

	return conn, func() {
		_ = conn.Exec(ctx, "DROP DATABASE IF EXISTS "+dbName)
		_ = conn.Close()
	}
}

var statementEnd = regexp.MustCompile(`;\s*(\n|$)`)

// applySchema runs the ClickHouse migration files. They keep one statement
// per file ending in ";" at end of line, with no quoted semicolons.
func applySchema(t *testing.T, conn *Conn) {
	t.Helper()
	files, err := filepath.Glob(filepath.Join("..", "migrations", "clickhouse", "*.sql"))
	require.NoError(t, err)
	require.NotEmpty(t, files)

	for _, file := range files {
		raw, err := os.ReadFile(file)
		require.NoError(t, err)
		for _, stmt := range statementEnd.Split(string(raw), -1) {
			if strings.TrimSpace(stripComments(stmt)) == "" {
				continue
			}
			require.NoError(t, conn.Exec(context.Background(), stmt), "apply %s", filepath.Base(file))
		}
	}
}

func stripComments(sql string) string {
	var b strings.Builder
	for _, line := range strings.Split(sql, "\n") {
		if !strings.HasPrefix(strings.TrimSpace(line), "--") {
			b.WriteString(line)
			b.WriteByte('\n')
		}
	}
	return b.String()
}

func ptr[T any](v T) *T {
	return &v
}
