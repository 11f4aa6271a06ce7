package mail

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestQueryString(t *testing.T) {
	tests := []struct {
		name  string
		query Query
		want  string
	}{
		{
			name: "all filters",
			query: Query{
				From:          "reports@example.com",
				Subject:       "Lead Report",
				Label:         "INBOX",
				HasAttachment: true,
			},
			want: `label:INBOX from:reports@example.com subject:"Lead Report" has:attachment`,
		},
		{
			name: "any sender",
			query: Query{
				Subject:       "Lead Report",
				Label:         "INBOX",
				HasAttachment: true,
			},
			want: `label:INBOX subject:"Lead Report" has:attachment`,
		},
		{
			name:  "empty query",
			query: Query{},
			want:  "",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, tt.query.String())
		})
	}
}

func TestConfigValidate(t *testing.T) {
	t.Run("subject filter required", func(t *testing.T) {
		cfg := &Config{TokenFile: "token.json"}
		require.ErrorIs(t, cfg.Validate(), ErrSubjectFilterRequired)
	})

	t.Run("token file required", func(t *testing.T) {
		cfg := &Config{SubjectFilter: "Lead Report"}
		require.ErrorIs(t, cfg.Validate(), ErrTokenFileRequired)
	})

	t.Run("label defaults to INBOX", func(t *testing.T) {
		cfg := &Config{SubjectFilter: "Lead Report", TokenFile: "token.json"}
		require.NoError(t, cfg.Validate())
		assert.Equal(t, "INBOX", cfg.Label)
	})
}

func TestConfigQuery(t *testing.T) {
	t.Run("sender enforced", func(t *testing.T) {
		cfg := &Config{
			SubjectFilter: "Lead Report",
			SenderFilter:  "reports@example.com",
			Label:         "INBOX",
		}

		q := cfg.Query()
		assert.Equal(t, "reports@example.com", q.From)
		assert.True(t, q.HasAttachment)
	})

	t.Run("sender relaxed to any", func(t *testing.T) {
		cfg := &Config{
			SubjectFilter: "Lead Report",
			SenderFilter:  SenderAny,
			Label:         "INBOX",
		}

		q := cfg.Query()
		assert.Empty(t, q.From)
	})
}

func TestFindCSVPart(t *testing.T) {
	payload := &messagePart{
		MimeType: "multipart/mixed",
		Parts: []messagePart{
			{MimeType: "text/plain"},
			{
				MimeType: "multipart/alternative",
				Parts: []messagePart{
					{
						MimeType: "text/csv",
						Filename: "Leads.CSV",
						Body:     &messageBody{AttachmentID: "att-1"},
					},
				},
			},
		},
	}

	part := findCSVPart(payload)
	require.NotNil(t, part)
	assert.Equal(t, "att-1", part.Body.AttachmentID)

	assert.Nil(t, findCSVPart(&messagePart{MimeType: "text/plain"}))
}
