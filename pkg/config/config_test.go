package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

func writeConfig(t *testing.T, contents string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "groupdrive.yaml")
	require.NoError(t, os.WriteFile(path, []byte(contents), 0o644))
	return path
}

func TestLoadDefaults(t *testing.T) {
	cfg, err := Load(writeConfig(t, "{}\n"))
	require.NoError(t, err)

	require.Equal(t, "INFO", cfg.Logging.Level)
	require.Equal(t, ":8080", cfg.Server.ListenAddress)
	require.Equal(t, 10*time.Second, cfg.Server.ShutdownTimeout)
	require.Equal(t, "memory", cfg.Store.Type)
	require.Equal(t, 200, cfg.Limits.MaxDirectoriesPerGroup)
	require.Equal(t, "admin", cfg.Limits.AdminRole)
	require.Empty(t, cfg.Groups)
}

func TestLoadFullConfig(t *testing.T) {
	cfg, err := Load(writeConfig(t, `
logging:
  level: debug
server:
  listen_address: "127.0.0.1:9090"
  shutdown_timeout: 5s
store:
  type: badger
  badger:
    path: /tmp/groupdrive-test
limits:
  max_directories_per_group: 50
  admin_role: owner
groups:
  - name: lectures
    roles: [admin, member]
    members:
      bob: admin
      alice: member
`))
	require.NoError(t, err)

	require.Equal(t, "DEBUG", cfg.Logging.Level)
	require.Equal(t, "127.0.0.1:9090", cfg.Server.ListenAddress)
	require.Equal(t, 5*time.Second, cfg.Server.ShutdownTimeout)
	require.Equal(t, "badger", cfg.Store.Type)
	require.Equal(t, 50, cfg.Limits.MaxDirectoriesPerGroup)
	require.Equal(t, "owner", cfg.Limits.AdminRole)

	badger, err := cfg.Store.BadgerConfig()
	require.NoError(t, err)
	require.Equal(t, "/tmp/groupdrive-test", badger.Path)
	require.False(t, badger.InMemory)

	require.Len(t, cfg.Groups, 1)
	require.Equal(t, "lectures", cfg.Groups[0].Name)
	require.Equal(t, "admin", cfg.Groups[0].Members["bob"])
}

func TestLoadRejectsInvalidValues(t *testing.T) {
	cases := []struct {
		name     string
		contents string
	}{
		{
			name:     "BadLogLevel",
			contents: "logging:\n  level: verbose\n",
		},
		{
			name:     "BadStoreType",
			contents: "store:\n  type: postgres\n",
		},
		{
			name:     "BadgerWithoutPath",
			contents: "store:\n  type: badger\n",
		},
		{
			name:     "GroupWithoutRoles",
			contents: "groups:\n  - name: lectures\n    roles: []\n",
		},
		{
			name:     "DuplicateGroups",
			contents: "groups:\n  - name: g\n    roles: [admin]\n  - name: g\n    roles: [admin]\n",
		},
		{
			name:     "MemberWithEmptyRole",
			contents: "groups:\n  - name: g\n    roles: [admin]\n    members:\n      bob: \"\"\n",
		},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			_, err := Load(writeConfig(t, tc.contents))
			require.Error(t, err)
		})
	}
}

func TestLoadMissingExplicitFileFails(t *testing.T) {
	_, err := Load(filepath.Join(t.TempDir(), "does-not-exist.yaml"))
	require.Error(t, err)
}

func TestBadgerConfigInMemoryNeedsNoPath(t *testing.T) {
	store := StoreConfig{
		Type:   "badger",
		Badger: map[string]any{"in_memory": true},
	}
	cfg, err := store.BadgerConfig()
	require.NoError(t, err)
	require.True(t, cfg.InMemory)
}
