package pipeline

import (
	"context"
	"fmt"
	"time"

	"github.com/sirupsen/logrus"

	"github.com/growatorchard/leadsync/pkg/mail"
	"github.com/growatorchard/leadsync/pkg/observability"
	"github.com/growatorchard/leadsync/pkg/storage"
	"github.com/growatorchard/leadsync/pkg/transform"
)

// CommitStrategy writes one message's canonical records downstream. The
// variant (append to an existing spreadsheet vs create a new artifact per
// run) is selected once at configuration load, never per message.
type CommitStrategy interface {
	Commit(ctx context.Context, msg mail.Message, records []transform.Record) error
}

// NewCommitStrategy selects the strategy from the storage configuration:
// append mode when a spreadsheet ID is set, create mode otherwise.
func NewCommitStrategy(
	log logrus.FieldLogger,
	store storage.Client,
	cfg *storage.Config,
	enc *transform.Transformer,
	namer *Namer,
	now func() time.Time,
) CommitStrategy {
	if cfg.AppendMode() {
		return &appendStrategy{
			log:           log.WithField("component", "commit_append"),
			store:         store,
			spreadsheetID: cfg.SpreadsheetID,
		}
	}

	return &createStrategy{
		log:   log.WithField("component", "commit_create"),
		store: store,
		enc:   enc,
		namer: namer,
		now:   now,
	}
}

// appendStrategy adds rows to a pre-existing spreadsheet without re-emitting
// headers.
type appendStrategy struct {
	log           logrus.FieldLogger
	store         storage.Client
	spreadsheetID string
}

func (s *appendStrategy) Commit(ctx context.Context, msg mail.Message, records []transform.Record) error {
	rows := make([][]string, 0, len(records))
	for i := range records {
		rows = append(rows, records[i].Row())
	}

	if err := s.store.AppendRows(ctx, s.spreadsheetID, rows); err != nil {
		return fmt.Errorf("%w: append for message %s: %v", ErrCommit, msg.ID, err)
	}

	observability.RecordRowsCommitted(len(rows))

	s.log.WithFields(logrus.Fields{
		"message_id": msg.ID,
		"rows":       len(rows),
	}).Info("Appended rows")

	return nil
}

// createStrategy produces a fresh CSV artifact per run, headers included.
type createStrategy struct {
	log   logrus.FieldLogger
	store storage.Client
	enc   *transform.Transformer
	namer *Namer
	now   func() time.Time
}

func (s *createStrategy) Commit(ctx context.Context, msg mail.Message, records []transform.Record) error {
	data, err := s.enc.EncodeCSV(records, true)
	if err != nil {
		return fmt.Errorf("%w: encode for message %s: %v", ErrCommit, msg.ID, err)
	}

	name, err := s.namer.OutputName(s.now())
	if err != nil {
		return fmt.Errorf("%w: name for message %s: %v", ErrCommit, msg.ID, err)
	}

	artifactID, err := s.store.CreateArtifact(ctx, name, data)
	if err != nil {
		return fmt.Errorf("%w: create for message %s: %v", ErrCommit, msg.ID, err)
	}

	observability.RecordRowsCommitted(len(records))

	s.log.WithFields(logrus.Fields{
		"message_id":  msg.ID,
		"artifact_id": artifactID,
		"name":        name,
		"rows":        len(records),
	}).Info("Created artifact")

	return nil
}

var (
	_ CommitStrategy = (*appendStrategy)(nil)
	_ CommitStrategy = (*createStrategy)(nil)
)
