package pipeline

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/growatorchard/leadsync/pkg/mail"
)

func TestNamer(t *testing.T) {
	at := time.Date(2025, 9, 30, 11, 20, 5, 0, time.UTC)

	t.Run("default templates", func(t *testing.T) {
		cfg := &Config{MaxRowsToProcess: 100}
		require.NoError(t, cfg.Validate())

		namer, err := NewNamer(cfg)
		require.NoError(t, err)

		audit, err := namer.AuditName(mail.Message{ID: "msg-1", AttachmentName: "leads.csv"}, at)
		require.NoError(t, err)
		assert.Equal(t, "New Leads - Daily TMP 2025-09-30_11-20-05.csv", audit)

		output, err := namer.OutputName(at)
		require.NoError(t, err)
		assert.Equal(t, "Lead_Data_2025-09-30_11-20.csv", output)
	})

	t.Run("custom template with message fields", func(t *testing.T) {
		cfg := &Config{
			MaxRowsToProcess: 100,
			AuditName:        `{{ .MessageID }}-{{ .Attachment | trimSuffix ".csv" }}.raw`,
			OutputName:       `out-{{ .Timestamp | date "20060102" }}.csv`,
		}
		require.NoError(t, cfg.Validate())

		namer, err := NewNamer(cfg)
		require.NoError(t, err)

		audit, err := namer.AuditName(mail.Message{ID: "msg-9", AttachmentName: "leads.csv"}, at)
		require.NoError(t, err)
		assert.Equal(t, "msg-9-leads.raw", audit)

		output, err := namer.OutputName(at)
		require.NoError(t, err)
		assert.Equal(t, "out-20250930.csv", output)
	})

	t.Run("malformed template rejected at construction", func(t *testing.T) {
		cfg := &Config{MaxRowsToProcess: 100, AuditName: "{{ .Timestamp"}
		require.NoError(t, cfg.Validate())

		_, err := NewNamer(cfg)
		require.Error(t, err)
	})
}
