package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const sampleYAML = `
bot:
  token: "123:abc"
database:
  host: db
  password: secret
admin:
  ids: [1, 2]
whitelist:
  chats: [-100]
counting:
  chat_id: -200
  timezone: Europe/Berlin
competition:
  start: "2026-03-14 12:00:00"
  end: "2026-03-14 13:00:00"
games:
  coup:
    decision_timeout: 30s
  uno:
    decision_timeout: 0s
`

func writeConfig(t *testing.T, body string) string {
	t.Helper()
	dir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(dir, "config.yaml"), []byte(body), 0o600))
	return dir
}

func TestLoad_FileAndDefaults(t *testing.T) {
	cfg, err := Load(writeConfig(t, sampleYAML))
	require.NoError(t, err)

	assert.Equal(t, "123:abc", cfg.Bot.Token)
	assert.Equal(t, "db", cfg.Database.Host)
	assert.Equal(t, 5432, cfg.Database.Port)
	assert.Equal(t, "postgres://gamebot:secret@db:5432/gamebot?sslmode=disable", cfg.Database.DSN())
	assert.Equal(t, "localhost:6379", cfg.Redis.Addr)
	assert.Equal(t, "card_game_actions", cfg.Redis.Queue)
	assert.Equal(t, int64(-200), cfg.Counting.ChatID)
	assert.Equal(t, 10, cfg.Counting.LeaderboardSize)
	assert.Equal(t, "2026-03-14 12:00:00", cfg.Competition.Start)
	assert.Equal(t, 30*time.Second, cfg.Games.Coup.DecisionTimeout)
	assert.Equal(t, time.Duration(0), cfg.Games.Uno.DecisionTimeout)

	loc, err := cfg.Location()
	require.NoError(t, err)
	assert.Equal(t, "Europe/Berlin", loc.String())
}

func TestLoad_EnvOverrides(t *testing.T) {
	t.Setenv("BOT_TOKEN", "from-env")
	t.Setenv("COUNTING_LEADERBOARD_SIZE", "25")
	t.Setenv("HTTP_ADDR", ":9090")

	cfg, err := Load(writeConfig(t, sampleYAML))
	require.NoError(t, err)
	assert.Equal(t, "from-env", cfg.Bot.Token)
	assert.Equal(t, 25, cfg.Counting.LeaderboardSize)
	assert.Equal(t, ":9090", cfg.HTTP.Addr)
}

func TestLoad_MissingFileUsesDefaults(t *testing.T) {
	cfg, err := Load(t.TempDir())
	require.NoError(t, err)
	assert.Equal(t, "localhost", cfg.Database.Host)
	assert.Equal(t, 2*time.Minute, cfg.Games.Coup.DecisionTimeout)
}

func TestLoad_BadTimezone(t *testing.T) {
	_, err := Load(writeConfig(t, "counting:\n  timezone: Mars/Olympus\n"))
	assert.Error(t, err)
}

func TestConfig_Lists(t *testing.T) {
	cfg, err := Load(writeConfig(t, sampleYAML))
	require.NoError(t, err)

	assert.True(t, cfg.IsAdmin(2))
	assert.False(t, cfg.IsAdmin(3))
	assert.True(t, cfg.IsChatAllowed(-100))
	assert.False(t, cfg.IsChatAllowed(-101))

	cfg.Whitelist.Chats = nil
	assert.True(t, cfg.IsChatAllowed(-101))
}
