package pipeline

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"

	"github.com/growatorchard/leadsync/pkg/ledger"
	"github.com/growatorchard/leadsync/pkg/mail"
	"github.com/growatorchard/leadsync/pkg/storage"
	"github.com/growatorchard/leadsync/pkg/transform"
)

// Result summarizes one pipeline run.
type Result struct {
	// Matched is the number of candidate messages the search returned
	Matched int
	// Committed is the number of messages whose rows reached storage and
	// whose ledger entry was written
	Committed int
	// Skipped is the number of messages already present in the ledger
	Skipped int
	// Failed is the number of messages that errored; they stay un-ledgered
	Failed int
	// Rows is the total number of canonical rows committed
	Rows int
}

// Deps are the collaborators a pipeline runs against.
type Deps struct {
	Mail        mail.Client
	Storage     storage.Client
	Ledger      ledger.Ledger
	Transformer *transform.Transformer
	Strategy    CommitStrategy
	Namer       *Namer
}

// Pipeline executes the ingest state machine:
// Fetch -> Filter(Dedup) -> Transform -> Commit -> Ledger-Update.
// Messages are processed sequentially in fetch order, and the ledger entry
// is written immediately after each successful commit, so an interrupted
// batch resumes on the next run with only the uncommitted remainder.
type Pipeline struct {
	log      logrus.FieldLogger
	deps     Deps
	query    mail.Query
	folderID string
	now      func() time.Time
}

// New creates a pipeline.
func New(log logrus.FieldLogger, deps Deps, query mail.Query, folderID string) *Pipeline {
	return &Pipeline{
		log:      log.WithField("service", "pipeline"),
		deps:     deps,
		query:    query,
		folderID: folderID,
		now:      time.Now,
	}
}

// RunOnce executes one full pass over the mailbox. Fetch and ledger-lookup
// failures abort the cycle; per-message failures are recorded and the batch
// continues.
func (p *Pipeline) RunOnce(ctx context.Context) (Result, error) {
	log := p.log.WithField("run_id", uuid.New().String())

	var res Result

	messages, err := p.deps.Mail.Search(ctx, p.query)
	if err != nil {
		return res, fmt.Errorf("mailbox search failed: %w", err)
	}

	res.Matched = len(messages)
	log.WithFields(logrus.Fields{
		"query":   p.query.String(),
		"matched": res.Matched,
	}).Info("Fetched candidate messages")

	for _, msg := range messages {
		seen, err := p.deps.Ledger.Has(ctx, msg.ID)
		if err != nil {
			// Without the ledger the at-most-once guarantee is gone;
			// abort the cycle rather than risk a double append.
			return res, fmt.Errorf("ledger lookup failed for message %s: %w", msg.ID, err)
		}

		if seen {
			res.Skipped++
			log.WithField("message_id", msg.ID).Debug("Skipping already committed message")

			continue
		}

		rows, err := p.processMessage(ctx, log, msg)
		if err != nil {
			res.Failed++
			log.WithError(err).WithField("message_id", msg.ID).Error("Message processing failed")

			continue
		}

		res.Committed++
		res.Rows += rows
	}

	log.WithFields(logrus.Fields{
		"matched":   res.Matched,
		"committed": res.Committed,
		"skipped":   res.Skipped,
		"failed":    res.Failed,
		"rows":      res.Rows,
	}).Info("Pipeline run complete")

	return res, nil
}

// processMessage carries one message through transform, commit, and ledger
// update. The raw attachment is uploaded as an audit copy before the
// transform so a malformed report still leaves evidence in storage.
func (p *Pipeline) processMessage(ctx context.Context, log logrus.FieldLogger, msg mail.Message) (int, error) {
	raw, err := p.deps.Mail.FetchAttachment(ctx, msg.ID)
	if err != nil {
		return 0, fmt.Errorf("attachment fetch: %w", err)
	}

	auditName, err := p.deps.Namer.AuditName(msg, p.now())
	if err != nil {
		return 0, fmt.Errorf("audit name: %w", err)
	}

	if err := p.deps.Storage.UploadFile(ctx, p.folderID, auditName, raw); err != nil {
		return 0, fmt.Errorf("%w: audit upload %q: %v", ErrCommit, auditName, err)
	}

	log.WithFields(logrus.Fields{
		"message_id": msg.ID,
		"audit_name": auditName,
	}).Debug("Uploaded audit copy")

	records, err := p.deps.Transformer.Transform(raw)
	if err != nil {
		return 0, fmt.Errorf("transform: %w", err)
	}

	if err := p.deps.Strategy.Commit(ctx, msg, records); err != nil {
		return 0, err
	}

	// The ledger entry follows the confirmed commit. If this write fails
	// the message will be re-fetched next slot; the error is surfaced so
	// the operator can repair the ledger before the re-append happens.
	if err := p.deps.Ledger.RecordCommitted(ctx, msg.ID, p.now()); err != nil {
		return 0, fmt.Errorf("ledger update after commit: %w", err)
	}

	return len(records), nil
}
