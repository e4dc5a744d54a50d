package policyfile

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/cmlabs-hris/leave-engine/internal/domain/leave"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const sample = `
[defaults]
casual = 12
sick = 10

[organizations."org-a"]
unpaid = 5
casual = 20
sabbatical = 30
`

func TestGetAllocations(t *testing.T) {
	p, err := Parse(sample)
	require.NoError(t, err)

	t.Run("organization table in canonical order", func(t *testing.T) {
		got, err := p.GetAllocations(context.Background(), "org-a")
		require.NoError(t, err)
		assert.Equal(t, []leave.Allocation{
			{LeaveType: leave.TypeCasual, TotalDays: 20},
			{LeaveType: leave.TypeUnpaid, TotalDays: 5},
			{LeaveType: leave.Type("sabbatical"), TotalDays: 30},
		}, got)
	})

	t.Run("falls back to defaults", func(t *testing.T) {
		got, err := p.GetAllocations(context.Background(), "org-b")
		require.NoError(t, err)
		assert.Equal(t, []leave.Allocation{
			{LeaveType: leave.TypeCasual, TotalDays: 12},
			{LeaveType: leave.TypeSick, TotalDays: 10},
		}, got)
	})
}

func TestGetAllocations_NoDefaults(t *testing.T) {
	p, err := Parse(`[organizations.x]
sick = 3
`)
	require.NoError(t, err)

	got, err := p.GetAllocations(context.Background(), "y")
	require.NoError(t, err)
	assert.Empty(t, got)
}

func TestParse_Invalid(t *testing.T) {
	_, err := Parse(`[defaults]
casual = -1
`)
	assert.ErrorContains(t, err, "negative")

	_, err = Parse(`[defaults`)
	assert.Error(t, err)
}

func TestLoad(t *testing.T) {
	path := filepath.Join(t.TempDir(), "policies.toml")
	require.NoError(t, os.WriteFile(path, []byte(sample), 0o600))

	p, err := Load(path)
	require.NoError(t, err)

	got, err := p.GetAllocations(context.Background(), "org-a")
	require.NoError(t, err)
	assert.Len(t, got, 3)

	_, err = Load(filepath.Join(t.TempDir(), "missing.toml"))
	assert.Error(t, err)
}
