package main

import (
	"context"
	"io"
	"log/slog"
	"net/http"
	"os"
	"path/filepath"
	"testing"

	"github.com/cmlabs-hris/leave-engine/internal/config"
	"github.com/cmlabs-hris/leave-engine/internal/domain/user"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const (
	testOrg      = "0197a000-0000-7000-8000-0000000000aa"
	testUser     = "0197a000-0000-7000-8000-000000000001"
	testEmployee = "0197a000-0000-7000-8000-000000000101"
)

const testDirectory = `
[[users]]
id = "` + testUser + `"
organization_id = "` + testOrg + `"
email = "hana@example.com"
full_name = "Hana"
role = "hr_admin"

[[employees]]
id = "` + testEmployee + `"
organization_id = "` + testOrg + `"
user_id = "` + testUser + `"
full_name = "Hana"
employee_code = "EMP-001"
`

func writeFile(t *testing.T, name, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), name)
	require.NoError(t, os.WriteFile(path, []byte(content), 0o600))
	return path
}

func TestOpenStores_Memory(t *testing.T) {
	ctx := context.Background()
	cfg := &config.Config{
		App: config.AppConfig{
			StoreType:     config.StoreTypeMemory,
			DirectoryFile: writeFile(t, "directory.toml", testDirectory),
		},
		Leave: config.LeaveConfig{
			PolicySource: config.PolicySourceFile,
			PolicyFile:   writeFile(t, "policies.toml", "[defaults]\ncasual = 20\n"),
		},
	}

	st, err := openStores(ctx, cfg)
	require.NoError(t, err)
	defer st.close()

	own, err := st.employees.GetByUserID(ctx, testOrg, testUser)
	require.NoError(t, err)
	assert.Equal(t, testEmployee, own.ID)

	admins, err := st.users.FindUsersByRole(ctx, testOrg, user.AdminRoles)
	require.NoError(t, err)
	assert.Len(t, admins, 1)

	allocations, err := st.policies.GetAllocations(ctx, testOrg)
	require.NoError(t, err)
	require.Len(t, allocations, 1)
	assert.Equal(t, 20, allocations[0].TotalDays)
}

func TestOpenStores_MemoryBadDirectory(t *testing.T) {
	cfg := &config.Config{
		App: config.AppConfig{
			StoreType:     config.StoreTypeMemory,
			DirectoryFile: writeFile(t, "directory.toml", "[[users]]\nid = \"u-1\"\n"),
		},
		Leave: config.LeaveConfig{PolicySource: config.PolicySourceFile},
	}

	_, err := openStores(context.Background(), cfg)
	assert.Error(t, err)
}

type recorder struct {
	calls []string
}

func (r *recorder) Wait() { r.calls = append(r.calls, "wait") }
func (r *recorder) Stop() { r.calls = append(r.calls, "stop") }

func TestShutdown_DrainsWhenServerNeverStarted(t *testing.T) {
	rec := &recorder{}
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))

	shutdown(context.Background(), logger, &http.Server{}, rec, rec)

	assert.Equal(t, []string{"wait", "stop"}, rec.calls)
}
