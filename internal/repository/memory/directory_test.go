package memory

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/cmlabs-hris/leave-engine/internal/domain/user"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const (
	dirOrg = "0197a000-0000-7000-8000-0000000000aa"
	dirAna = "0197a000-0000-7000-8000-000000000001"
	dirHR  = "0197a000-0000-7000-8000-000000000002"
	dirEmp = "0197a000-0000-7000-8000-000000000101"
)

const sampleDirectory = `
[[users]]
id = "` + dirAna + `"
organization_id = "` + dirOrg + `"
email = "ana@example.com"
full_name = "Ana"
role = "employee"

[[users]]
id = "` + dirHR + `"
organization_id = "` + dirOrg + `"
email = "hana@example.com"
full_name = "Hana"
role = "hr_admin"

[[employees]]
id = "` + dirEmp + `"
organization_id = "` + dirOrg + `"
user_id = "` + dirAna + `"
full_name = "Ana"
employee_code = "EMP-001"

[[employees]]
id = "0197a000-0000-7000-8000-000000000102"
organization_id = "` + dirOrg + `"
full_name = "Contractor"
employee_code = "EMP-002"
`

func TestParseDirectory(t *testing.T) {
	ctx := context.Background()
	users := NewUserStore()
	employees := NewEmployeeStore()

	require.NoError(t, ParseDirectory(sampleDirectory, users, employees))

	own, err := employees.GetByUserID(ctx, dirOrg, dirAna)
	require.NoError(t, err)
	assert.Equal(t, dirEmp, own.ID)
	assert.Equal(t, "EMP-001", own.EmployeeCode)

	contractor, err := employees.GetByID(ctx, dirOrg, "0197a000-0000-7000-8000-000000000102")
	require.NoError(t, err)
	assert.Nil(t, contractor.UserID)

	role, err := users.GetRole(ctx, dirHR)
	require.NoError(t, err)
	assert.Equal(t, user.RoleHRAdmin, role)

	admins, err := users.FindUsersByRole(ctx, dirOrg, user.AdminRoles)
	require.NoError(t, err)
	require.Len(t, admins, 1)
	assert.Equal(t, "hana@example.com", admins[0].Email)
}

func TestParseDirectory_RejectsBadEntries(t *testing.T) {
	tests := []struct {
		name string
		doc  string
	}{
		{"unknown role", `
[[users]]
id = "` + dirAna + `"
organization_id = "` + dirOrg + `"
role = "intern"
`},
		{"non uuid employee", `
[[employees]]
id = "e-1"
organization_id = "` + dirOrg + `"
`},
		{"non uuid user link", `
[[employees]]
id = "` + dirEmp + `"
organization_id = "` + dirOrg + `"
user_id = "u-1"
`},
		{"not toml", `[[users`},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			users := NewUserStore()
			employees := NewEmployeeStore()
			assert.Error(t, ParseDirectory(tt.doc, users, employees))

			_, err := employees.GetByID(context.Background(), dirOrg, dirEmp)
			assert.Error(t, err, "nothing is stored from a rejected document")
		})
	}
}

func TestLoadDirectoryFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "directory.toml")
	require.NoError(t, os.WriteFile(path, []byte(sampleDirectory), 0o600))

	users := NewUserStore()
	employees := NewEmployeeStore()
	require.NoError(t, LoadDirectoryFile(path, users, employees))

	u, err := users.GetByID(context.Background(), dirAna)
	require.NoError(t, err)
	assert.Equal(t, "Ana", u.FullName)

	assert.Error(t, LoadDirectoryFile(filepath.Join(t.TempDir(), "missing.toml"), NewUserStore(), NewEmployeeStore()))
}
