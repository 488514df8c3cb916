package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/spf13/pflag"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gopkg.in/yaml.v3"
)

func writeConfig(t *testing.T, dir, body string) {
	t.Helper()
	require.NoError(t, os.WriteFile(filepath.Join(dir, FileName), []byte(body), 0o644))
}

func testFlags() *pflag.FlagSet {
	fs := pflag.NewFlagSet("test", pflag.ContinueOnError)
	fs.String("locale", "", "")
	fs.String("theme", "", "")
	fs.String("store", "", "")
	fs.Duration("silence-end", 0, "")
	return fs
}

func TestDefaults(t *testing.T) {
	dir := t.TempDir()
	cfg, err := Load(dir, nil)
	require.NoError(t, err)
	assert.Equal(t, dir, cfg.DataDir)
	assert.Equal(t, "en-US", cfg.Locale)
	assert.Equal(t, "dark", cfg.Theme)
	assert.Equal(t, "deepgram", cfg.Recognizer)
	assert.Equal(t, "espeak", cfg.Speech)
	assert.Equal(t, "file", cfg.Store)
	assert.Equal(t, "easybingo:cards", cfg.RedisKey)
	assert.Equal(t, 8*time.Second, cfg.SilenceEnd)
	assert.Equal(t, time.Minute, cfg.SessionMax)
	assert.False(t, cfg.DesktopNotify)
}

func TestPrecedence(t *testing.T) {
	dir := t.TempDir()
	writeConfig(t, dir, "locale: fr-FR\ntheme: light\nstore: redis\nsilence_end: 5s\n")

	cfg, err := Load(dir, nil)
	require.NoError(t, err)
	assert.Equal(t, "fr-FR", cfg.Locale, "file over default")
	assert.Equal(t, 5*time.Second, cfg.SilenceEnd)

	t.Setenv("EASYBINGO_THEME", "dark")
	cfg, err = Load(dir, nil)
	require.NoError(t, err)
	assert.Equal(t, "dark", cfg.Theme, "env over file")
	assert.Equal(t, "redis", cfg.Store)

	fs := testFlags()
	require.NoError(t, fs.Parse([]string{"--theme=light", "--store=file"}))
	cfg, err = Load(dir, fs)
	require.NoError(t, err)
	assert.Equal(t, "light", cfg.Theme, "flag over env")
	assert.Equal(t, "file", cfg.Store, "flag over file")
	assert.Equal(t, "fr-FR", cfg.Locale, "unset flag does not override")
	assert.Equal(t, 5*time.Second, cfg.SilenceEnd)
}

func TestDeepgramKeyFromEitherEnv(t *testing.T) {
	dir := t.TempDir()
	t.Setenv("DEEPGRAM_API_KEY", "plain")
	cfg, err := Load(dir, nil)
	require.NoError(t, err)
	assert.Equal(t, "plain", cfg.DeepgramKey)

	t.Setenv("EASYBINGO_DEEPGRAM_KEY", "prefixed")
	cfg, err = Load(dir, nil)
	require.NoError(t, err)
	assert.Equal(t, "prefixed", cfg.DeepgramKey)
}

func TestLocaleNormalized(t *testing.T) {
	dir := t.TempDir()
	writeConfig(t, dir, "locale: fr\n")
	cfg, err := Load(dir, nil)
	require.NoError(t, err)
	assert.Equal(t, "fr-FR", cfg.Locale)
}

func TestInvalidValues(t *testing.T) {
	for _, body := range []string{
		"theme: purple\n",
		"store: postgres\n",
		"speech: loud\n",
		"recognizer: whisper\n",
		"locale: '!!'\n",
		"silence_end: -1s\n",
		"theme: [broken\n",
	} {
		t.Run(body, func(t *testing.T) {
			dir := t.TempDir()
			writeConfig(t, dir, body)
			_, err := Load(dir, nil)
			assert.Error(t, err)
		})
	}
}

func TestDirFromEnv(t *testing.T) {
	t.Setenv("EASYBINGO_CONFIG_DIR", "/tmp/eb-test")
	d, err := Dir()
	require.NoError(t, err)
	assert.Equal(t, "/tmp/eb-test", d)
}

func TestSaveSettingsKeepsOtherKeys(t *testing.T) {
	dir := t.TempDir()
	writeConfig(t, dir, "store: redis\nredis_addr: cache:6379\ntheme: dark\n")

	require.NoError(t, SaveSettings(dir, "fr", "LIGHT"))

	data, err := os.ReadFile(filepath.Join(dir, FileName))
	require.NoError(t, err)
	var doc map[string]any
	require.NoError(t, yaml.Unmarshal(data, &doc))
	assert.Equal(t, "fr-FR", doc["locale"])
	assert.Equal(t, "light", doc["theme"])
	assert.Equal(t, "cache:6379", doc["redis_addr"])

	cfg, err := Load(dir, nil)
	require.NoError(t, err)
	assert.Equal(t, "fr-FR", cfg.Locale)
	assert.Equal(t, "light", cfg.Theme)
	assert.Equal(t, "redis", cfg.Store)
}

func TestSaveSettingsCreatesFile(t *testing.T) {
	dir := filepath.Join(t.TempDir(), "new")
	require.NoError(t, SaveSettings(dir, "", "light"))
	cfg, err := Load(dir, nil)
	require.NoError(t, err)
	assert.Equal(t, "light", cfg.Theme)
	assert.Equal(t, "en-US", cfg.Locale)
}

func TestSaveSettingsRejectsBadValues(t *testing.T) {
	dir := t.TempDir()
	assert.Error(t, SaveSettings(dir, "", "neon"))
	assert.Error(t, SaveSettings(dir, "!!", ""))
	_, err := os.Stat(filepath.Join(dir, FileName))
	assert.True(t, os.IsNotExist(err))
}
