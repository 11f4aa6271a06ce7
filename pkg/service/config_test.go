package service

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/creasty/defaults"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/growatorchard/leadsync/pkg/ledger"
	"github.com/growatorchard/leadsync/pkg/mail"
	"github.com/growatorchard/leadsync/pkg/schedule"
	"github.com/growatorchard/leadsync/pkg/storage"
)

func validConfig(t *testing.T) *Config {
	t.Helper()

	config := &Config{}
	require.NoError(t, defaults.Set(config))

	config.Redis.Address = "localhost:6379"
	config.Mail.SubjectFilter = "Lead Report"
	config.Storage.SpreadsheetID = "sheet-1"
	config.Schedule.ReferenceDate = "2025-09-30"

	return config
}

func TestConfigValidate(t *testing.T) {
	t.Run("valid config passes", func(t *testing.T) {
		require.NoError(t, validConfig(t).Validate())
	})

	t.Run("missing redis address", func(t *testing.T) {
		config := validConfig(t)
		config.Redis.Address = ""

		err := config.Validate()
		require.ErrorIs(t, err, ledger.ErrAddressRequired)
	})

	t.Run("missing subject filter", func(t *testing.T) {
		config := validConfig(t)
		config.Mail.SubjectFilter = ""

		err := config.Validate()
		require.ErrorIs(t, err, mail.ErrSubjectFilterRequired)
	})

	t.Run("missing token file", func(t *testing.T) {
		config := validConfig(t)
		config.Storage.TokenFile = ""

		err := config.Validate()
		require.ErrorIs(t, err, storage.ErrTokenFileRequired)
	})

	t.Run("missing reference date", func(t *testing.T) {
		config := validConfig(t)
		config.Schedule.ReferenceDate = ""

		err := config.Validate()
		require.ErrorIs(t, err, schedule.ErrReferenceDateRequired)
	})

	t.Run("validate fills schedule defaults", func(t *testing.T) {
		config := validConfig(t)
		require.NoError(t, config.Validate())

		assert.Equal(t, []string{"11:20", "12:00"}, config.Schedule.CheckTimes)
	})
}

func TestLoadFromFile(t *testing.T) {
	t.Run("defaults applied under partial yaml", func(t *testing.T) {
		path := filepath.Join(t.TempDir(), "watcher.yaml")
		content := `
redis:
  address: localhost:6379
mail:
  subjectFilter: "Lead Report"
storage:
  spreadsheetId: sheet-1
schedule:
  referenceDate: "2025-09-30"
`
		require.NoError(t, os.WriteFile(path, []byte(content), 0o600))

		config, err := LoadFromFile(path)
		require.NoError(t, err)
		require.NoError(t, config.Validate())

		assert.Equal(t, "info", config.Logging)
		assert.Equal(t, ":9090", config.MetricsAddr)
		assert.Equal(t, "leadsync", config.Redis.Prefix)
		assert.Equal(t, mail.SenderAny, config.Mail.SenderFilter)
		assert.Equal(t, "INBOX", config.Mail.Label)
		assert.Equal(t, "@every 30s", config.Schedule.CheckInterval)
		assert.Equal(t, 5000, config.Pipeline.MaxRowsToProcess)
	})

	t.Run("explicit values win over defaults", func(t *testing.T) {
		path := filepath.Join(t.TempDir(), "watcher.yaml")
		content := `
logging: debug
redis:
  address: localhost:6379
  prefix: custom
mail:
  subjectFilter: "Lead Report"
  senderFilter: reports@example.com
storage:
  spreadsheetId: sheet-1
schedule:
  referenceDate: "2025-09-30"
  checkTimes: ["09:00"]
`
		require.NoError(t, os.WriteFile(path, []byte(content), 0o600))

		config, err := LoadFromFile(path)
		require.NoError(t, err)
		require.NoError(t, config.Validate())

		assert.Equal(t, "debug", config.Logging)
		assert.Equal(t, "custom", config.Redis.Prefix)
		assert.Equal(t, "reports@example.com", config.Mail.SenderFilter)
		assert.Equal(t, []string{"09:00"}, config.Schedule.CheckTimes)
	})

	t.Run("missing file errors", func(t *testing.T) {
		_, err := LoadFromFile(filepath.Join(t.TempDir(), "nope.yaml"))
		require.Error(t, err)
	})
}
