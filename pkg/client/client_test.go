package client

import (
	"context"
	"errors"
	"go/parser"
	"go/token"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"testing"

	"distribution-service/internal/server"
	"distribution-service/pkg/config"
	"distribution-service/pkg/database"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

func newServer(t *testing.T) *httptest.Server {
	t.Helper()
	cfg := &config.Config{
		ServiceName: config.ServiceName,
		Server:      config.ServerConfig{Env: "test"},
		JWT:         config.JWTConfig{SigningKey: "client-test-key", ExpirationHours: 1},
		Upload:      config.UploadConfig{MaxBytes: 1 << 20, TempDir: t.TempDir()},
	}
	srv := httptest.NewServer(server.New(cfg, database.NewTestDB(t), nil, zap.NewNop()))
	t.Cleanup(srv.Close)
	return srv
}

func TestClientRoundTrip(t *testing.T) {
	ctx := context.Background()
	srv := newServer(t)
	c := New(srv.URL+"/", "")

	_, err := c.Register(ctx, "admin@example.com", "secret1")
	require.NoError(t, err)
	_, err = c.Login(ctx, "admin@example.com", "secret1")
	require.NoError(t, err)
	require.NotEmpty(t, c.Token)

	admin, err := c.CurrentAdmin(ctx)
	require.NoError(t, err)
	assert.Equal(t, "admin@example.com", admin.Email)

	ann, err := c.CreateAgent(ctx, AgentRequest{Name: "Ann", Email: "ann@example.com", MobileNumber: "+1555", Password: "secret1"})
	require.NoError(t, err)
	ben, err := c.CreateAgent(ctx, AgentRequest{Name: "Ben", Email: "ben@example.com", MobileNumber: "+1556", Password: "secret1"})
	require.NoError(t, err)

	ann, err = c.UpdateAgent(ctx, ann.ID, AgentRequest{Name: "Ann A.", Email: "ann@example.com", MobileNumber: "+1555"})
	require.NoError(t, err)
	assert.Equal(t, "Ann A.", ann.Name)

	agents, err := c.ListAgents(ctx)
	require.NoError(t, err)
	assert.Len(t, agents, 2)

	path := filepath.Join(t.TempDir(), "march leads.csv")
	require.NoError(t, os.WriteFile(path, []byte("FirstName,Phone,Notes\nAlice,111,\nBob,222,call back\nCara,333,\n"), 0o600))

	up, err := c.UploadFile(ctx, path)
	require.NoError(t, err)
	assert.Equal(t, 3, up.TotalItems)
	require.Len(t, up.Distribution, 2)
	assert.Equal(t, int64(2), up.Distribution[0].Count)
	assert.Equal(t, int64(1), up.Distribution[1].Count)

	summary, err := c.Summary(ctx)
	require.NoError(t, err)
	assert.Equal(t, int64(3), summary.TotalItems)

	items, err := c.Lists(ctx, ben.ID, "")
	require.NoError(t, err)
	require.Len(t, items, 1)
	assert.Equal(t, "Bob", items[0].FirstName)
	require.NotNil(t, items[0].Agent)
	assert.Equal(t, "Ben", items[0].Agent.Name)

	items, err = c.Lists(ctx, 0, "cara")
	require.NoError(t, err)
	require.Len(t, items, 1)

	items, err = c.AgentLists(ctx, ann.ID)
	require.NoError(t, err)
	assert.Len(t, items, 2)

	files, err := c.Files(ctx)
	require.NoError(t, err)
	require.Len(t, files, 1)
	assert.Equal(t, "march leads.csv", files[0].OriginalFileName)

	require.NoError(t, c.DeleteItem(ctx, items[0].ID))

	deleted, err := c.DeleteFile(ctx, "march leads.csv")
	require.NoError(t, err)
	assert.Equal(t, int64(2), deleted.DeletedCount)
	assert.Equal(t, "2 items removed successfully", deleted.Message)

	require.NoError(t, c.DeleteAgent(ctx, ben.ID))
	_, err = c.GetAgent(ctx, ben.ID)
	var apiErr *APIError
	require.True(t, errors.As(err, &apiErr))
	assert.Equal(t, http.StatusNotFound, apiErr.StatusCode)
}

func TestClientReportsAPIErrors(t *testing.T) {
	ctx := context.Background()
	srv := newServer(t)

	_, err := New(srv.URL, "").ListAgents(ctx)
	var apiErr *APIError
	require.ErrorAs(t, err, &apiErr)
	assert.Equal(t, http.StatusUnauthorized, apiErr.StatusCode)
	assert.Equal(t, "No token, authorization denied", apiErr.Message)

	c := New(srv.URL, "")
	_, err = c.Register(ctx, "admin@example.com", "secret1")
	require.NoError(t, err)
	_, err = c.Login(ctx, "admin@example.com", "secret1")
	require.NoError(t, err)

	_, err = c.Upload(ctx, "contacts.csv", strings.NewReader("FirstName,Phone\nAlice,111\n"))
	require.ErrorAs(t, err, &apiErr)
	assert.Equal(t, http.StatusBadRequest, apiErr.StatusCode)
	assert.Contains(t, apiErr.Message, "no agents")
}

func TestClientHonoursContext(t *testing.T) {
	srv := newServer(t)
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := New(srv.URL, "").Summary(ctx)
	assert.ErrorIs(t, err, context.Canceled)
}

func TestClientImportsNoInternalPackages(t *testing.T) {
	files, err := filepath.Glob("*.go")
	require.NoError(t, err)

	fset := token.NewFileSet()
	for _, name := range files {
		if strings.HasSuffix(name, "_test.go") {
			continue
		}
		f, err := parser.ParseFile(fset, name, nil, parser.ImportsOnly)
		require.NoError(t, err)
		for _, imp := range f.Imports {
			path, err := strconv.Unquote(imp.Path.Value)
			require.NoError(t, err)
			assert.NotContains(t, path, "/internal/", "%s imports %s", name, path)
		}
	}
}
