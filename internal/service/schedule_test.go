package service

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"adlens/internal/domain"
)

func writeScheduleFile(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "audits.yaml")
	require.NoError(t, os.WriteFile(path, []byte(content), 0o600))
	return path
}

func TestLoadScheduleFile(t *testing.T) {
	path := writeScheduleFile(t, `
audits:
  - name: weekly-admins
    cron: "0 6 * * 1"
    direction: descendant
    root: "Domain Admins"
    expand_nested: true
    include_inactive: true
    inactive_days: 90
  - name: alice-memberships
    cron: "@daily"
    direction: ancestor
    root: alice
    max_nodes: 500
`)

	sf, err := LoadScheduleFile(path)
	require.NoError(t, err)
	require.Len(t, sf.Audits, 2)

	admins := sf.Audits[0]
	assert.Equal(t, "weekly-admins", admins.Name)
	assert.Equal(t, domain.DirectionDescendant, admins.Direction)

	opts := admins.Options()
	assert.Equal(t, 90*24*time.Hour, opts.InactivityThreshold)
	assert.True(t, opts.ExpandNested)
	assert.True(t, opts.IncludeInactive)

	assert.Equal(t, 500, sf.Audits[1].MaxNodes)
}

func TestLoadScheduleFile_BadDirection(t *testing.T) {
	path := writeScheduleFile(t, `
audits:
  - name: broken
    cron: "@daily"
    direction: sideways
    root: alice
`)

	_, err := LoadScheduleFile(path)
	var validation *domain.ValidationError
	assert.ErrorAs(t, err, &validation)
}

func TestLoadScheduleFile_DuplicateNames(t *testing.T) {
	path := writeScheduleFile(t, `
audits:
  - name: twin
    cron: "@daily"
    direction: ancestor
    root: alice
  - name: twin
    cron: "@hourly"
    direction: ancestor
    root: bob
`)

	_, err := LoadScheduleFile(path)
	var validation *domain.ValidationError
	assert.ErrorAs(t, err, &validation)
}

func TestLoadScheduleFile_Missing(t *testing.T) {
	_, err := LoadScheduleFile(filepath.Join(t.TempDir(), "nope.yaml"))
	assert.Error(t, err)
}

func TestScheduledAudit_Validate(t *testing.T) {
	base := ScheduledAudit{Name: "a", Cron: "@daily", Direction: domain.DirectionAncestor, Root: "alice"}
	assert.NoError(t, base.Validate())

	missingName := base
	missingName.Name = ""
	assert.Error(t, missingName.Validate())

	missingCron := base
	missingCron.Cron = ""
	assert.Error(t, missingCron.Validate())

	missingRoot := base
	missingRoot.Root = ""
	assert.Error(t, missingRoot.Validate())
}
