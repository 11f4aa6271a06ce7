package pipeline

import (
	"bytes"
	"fmt"
	"text/template"
	"time"

	"github.com/Masterminds/sprig/v3"

	"github.com/growatorchard/leadsync/pkg/mail"
)

// Namer renders artifact and audit-copy names from the configured
// templates. Templates get Sprig functions plus {Timestamp, MessageID,
// Attachment} as data.
type Namer struct {
	audit  *template.Template
	output *template.Template
}

type nameData struct {
	Timestamp  time.Time
	MessageID  string
	Attachment string
}

// NewNamer parses the naming templates. Call after Config.Validate so the
// defaults are in place.
func NewNamer(cfg *Config) (*Namer, error) {
	audit, err := template.New("audit").Funcs(sprig.TxtFuncMap()).Parse(cfg.AuditName)
	if err != nil {
		return nil, fmt.Errorf("failed to parse audit name template: %w", err)
	}

	output, err := template.New("output").Funcs(sprig.TxtFuncMap()).Parse(cfg.OutputName)
	if err != nil {
		return nil, fmt.Errorf("failed to parse output name template: %w", err)
	}

	return &Namer{audit: audit, output: output}, nil
}

// AuditName renders the timestamped name for a message's raw audit copy.
func (n *Namer) AuditName(msg mail.Message, at time.Time) (string, error) {
	return render(n.audit, nameData{
		Timestamp:  at,
		MessageID:  msg.ID,
		Attachment: msg.AttachmentName,
	})
}

// OutputName renders the timestamped name for a create-mode artifact.
func (n *Namer) OutputName(at time.Time) (string, error) {
	return render(n.output, nameData{Timestamp: at})
}

func render(tmpl *template.Template, data nameData) (string, error) {
	var buf bytes.Buffer

	if err := tmpl.Execute(&buf, data); err != nil {
		return "", fmt.Errorf("failed to render %s name template: %w", tmpl.Name(), err)
	}

	return buf.String(), nil
}
