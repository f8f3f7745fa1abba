package version

import (
	"bytes"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestGetVersion_Defaults(t *testing.T) {
	ResetBuildVars()
	defer ResetBuildVars()

	info := GetVersion()

	assert.Equal(t, DefaultVersion, info.Version)
	assert.Equal(t, DefaultCommit, info.Commit)
	assert.Equal(t, DefaultBuildTime, info.BuildTime)
	assert.True(t, info.IsDevelopment())
}

func TestGetVersion_InjectedValues(t *testing.T) {
	SetBuildVars("v1.2.3", "abc123", "2025-06-01T12:00:00Z")
	defer ResetBuildVars()

	info := GetVersion()

	assert.Equal(t, "v1.2.3", info.Version)
	assert.Equal(t, "abc123", info.Commit)
	assert.False(t, info.IsDevelopment())
}

func TestFormatFull(t *testing.T) {
	SetBuildVars("v1.2.3", "abc123", "2025-06-01T12:00:00Z")
	defer ResetBuildVars()

	out := GetVersion().FormatFull()

	assert.Contains(t, out, ApplicationName)
	assert.Contains(t, out, "Version: v1.2.3")
	assert.Contains(t, out, "Commit: abc123")
	assert.Contains(t, out, "Built: 2025-06-01T12:00:00Z")
}

func TestWrite_ShortFormat(t *testing.T) {
	SetBuildVars("v1.2.3", "abc123", "2025-06-01T12:00:00Z")
	defer ResetBuildVars()

	var buf bytes.Buffer
	require.NoError(t, GetVersion().Write(&buf, true))

	assert.Equal(t, "v1.2.3\n", buf.String())
}

func TestGetBuildTime(t *testing.T) {
	SetBuildVars("v1.2.3", "abc123", "2025-06-01T12:00:00Z")
	defer ResetBuildVars()

	bt := GetVersion().GetBuildTime()
	assert.Equal(t, time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC), bt)
}

func TestGetBuildTime_Unparseable(t *testing.T) {
	SetBuildVars("v1.2.3", "abc123", "yesterday")
	defer ResetBuildVars()

	assert.True(t, GetVersion().GetBuildTime().IsZero())
}
