package mail

import (
	"context"
	"encoding/base64"
	"errors"
	"fmt"
	"net/http"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/go-resty/resty/v2"
	"github.com/sirupsen/logrus"
)

var (
	// ErrUnauthorized is returned when the provider rejects the credentials
	ErrUnauthorized = errors.New("mail provider rejected credentials")
	// ErrNoAttachment is returned when a message carries no CSV attachment
	ErrNoAttachment = errors.New("message has no csv attachment")
)

// Wire shapes of the Gmail REST API (v1).
type listMessagesResponse struct {
	Messages []messageRef `json:"messages"`
}

type messageRef struct {
	ID string `json:"id"`
}

type gmailMessage struct {
	ID           string       `json:"id"`
	InternalDate string       `json:"internalDate"`
	Payload      *messagePart `json:"payload"`
}

type messagePart struct {
	MimeType string        `json:"mimeType"`
	Filename string        `json:"filename,omitempty"`
	Headers  []header      `json:"headers"`
	Body     *messageBody  `json:"body,omitempty"`
	Parts    []messagePart `json:"parts,omitempty"`
}

type messageBody struct {
	AttachmentID string `json:"attachmentId,omitempty"`
	Data         string `json:"data,omitempty"`
}

type header struct {
	Name  string `json:"name"`
	Value string `json:"value"`
}

type attachmentResponse struct {
	Size int    `json:"size"`
	Data string `json:"data"`
}

type profileResponse struct {
	EmailAddress string `json:"emailAddress"`
}

// GmailClient implements Client against the Gmail REST API. Credentials are
// an opaque bearer token read from the configured token file; refreshing it
// is owned by the operator tooling, not by this client.
type GmailClient struct {
	log  logrus.FieldLogger
	http *resty.Client
}

// NewGmailClient creates a Gmail-backed mail client.
func NewGmailClient(log logrus.FieldLogger, cfg *Config) (*GmailClient, error) {
	token, err := os.ReadFile(cfg.TokenFile)
	if err != nil {
		return nil, fmt.Errorf("failed to read mail token file: %w", err)
	}

	httpClient := resty.New().
		SetBaseURL(cfg.BaseURL).
		SetAuthToken(strings.TrimSpace(string(token))).
		SetTimeout(time.Duration(cfg.TimeoutSeconds) * time.Second)

	return &GmailClient{
		log:  log.WithField("component", "gmail"),
		http: httpClient,
	}, nil
}

// Search lists messages matching the query, then hydrates each with its
// headers and attachment filename. Subject matching is exact: provider-side
// subject queries are substring matches, so the configured subject is
// re-checked against the fetched header.
func (c *GmailClient) Search(ctx context.Context, q Query) ([]Message, error) {
	var list listMessagesResponse

	resp, err := c.http.R().
		SetContext(ctx).
		SetQueryParam("q", q.String()).
		SetResult(&list).
		Get("/gmail/v1/users/me/messages")
	if err != nil {
		return nil, fmt.Errorf("message list request failed: %w", err)
	}

	if err := classifyStatus(resp); err != nil {
		return nil, err
	}

	messages := make([]Message, 0, len(list.Messages))

	for _, ref := range list.Messages {
		msg, err := c.getMessage(ctx, ref.ID)
		if err != nil {
			return nil, fmt.Errorf("failed to fetch message %s: %w", ref.ID, err)
		}

		if q.Subject != "" && msg.Subject != q.Subject {
			c.log.WithFields(logrus.Fields{
				"message_id": msg.ID,
				"subject":    msg.Subject,
			}).Debug("Dropping message with non-exact subject match")

			continue
		}

		messages = append(messages, msg)
	}

	c.log.WithFields(logrus.Fields{
		"query":   q.String(),
		"matched": len(messages),
	}).Info("Mailbox search complete")

	return messages, nil
}

// FetchAttachment downloads the first CSV attachment of a message.
func (c *GmailClient) FetchAttachment(ctx context.Context, messageID string) ([]byte, error) {
	raw, err := c.getRawMessage(ctx, messageID)
	if err != nil {
		return nil, err
	}

	part := findCSVPart(raw.Payload)
	if part == nil || part.Body == nil {
		return nil, fmt.Errorf("%w: %s", ErrNoAttachment, messageID)
	}

	// Small attachments arrive inline; larger ones by attachment ID.
	if part.Body.Data != "" {
		return decodeAttachment(part.Body.Data)
	}

	var attachment attachmentResponse

	resp, err := c.http.R().
		SetContext(ctx).
		SetResult(&attachment).
		Get(fmt.Sprintf("/gmail/v1/users/me/messages/%s/attachments/%s", messageID, part.Body.AttachmentID))
	if err != nil {
		return nil, fmt.Errorf("attachment request failed: %w", err)
	}

	if err := classifyStatus(resp); err != nil {
		return nil, err
	}

	return decodeAttachment(attachment.Data)
}

// CheckAuth fetches the mailbox profile to exercise the credentials.
func (c *GmailClient) CheckAuth(ctx context.Context) error {
	var profile profileResponse

	resp, err := c.http.R().
		SetContext(ctx).
		SetResult(&profile).
		Get("/gmail/v1/users/me/profile")
	if err != nil {
		return fmt.Errorf("profile request failed: %w", err)
	}

	if err := classifyStatus(resp); err != nil {
		return err
	}

	c.log.WithField("email", profile.EmailAddress).Info("Mail credentials verified")

	return nil
}

func (c *GmailClient) getMessage(ctx context.Context, id string) (Message, error) {
	raw, err := c.getRawMessage(ctx, id)
	if err != nil {
		return Message{}, err
	}

	msg := Message{ID: raw.ID}

	if ms, err := strconv.ParseInt(raw.InternalDate, 10, 64); err == nil {
		msg.ReceivedAt = time.UnixMilli(ms)
	}

	if raw.Payload != nil {
		for _, h := range raw.Payload.Headers {
			switch h.Name {
			case "From":
				msg.From = h.Value
			case "Subject":
				msg.Subject = h.Value
			}
		}

		if part := findCSVPart(raw.Payload); part != nil {
			msg.AttachmentName = part.Filename
		}
	}

	return msg, nil
}

func (c *GmailClient) getRawMessage(ctx context.Context, id string) (*gmailMessage, error) {
	var raw gmailMessage

	resp, err := c.http.R().
		SetContext(ctx).
		SetQueryParam("format", "full").
		SetResult(&raw).
		Get(fmt.Sprintf("/gmail/v1/users/me/messages/%s", id))
	if err != nil {
		return nil, fmt.Errorf("message request failed: %w", err)
	}

	if err := classifyStatus(resp); err != nil {
		return nil, err
	}

	return &raw, nil
}

// findCSVPart walks the message part tree for the first CSV attachment.
func findCSVPart(part *messagePart) *messagePart {
	if part == nil {
		return nil
	}

	if part.Filename != "" && strings.HasSuffix(strings.ToLower(part.Filename), ".csv") {
		return part
	}

	for i := range part.Parts {
		if found := findCSVPart(&part.Parts[i]); found != nil {
			return found
		}
	}

	return nil
}

// decodeAttachment decodes the provider's URL-safe base64 payload encoding.
func decodeAttachment(data string) ([]byte, error) {
	decoded, err := base64.URLEncoding.WithPadding(base64.NoPadding).DecodeString(strings.TrimRight(data, "="))
	if err != nil {
		return nil, fmt.Errorf("failed to decode attachment payload: %w", err)
	}

	return decoded, nil
}

func classifyStatus(resp *resty.Response) error {
	switch {
	case resp.StatusCode() == http.StatusUnauthorized || resp.StatusCode() == http.StatusForbidden:
		return fmt.Errorf("%w: status %d", ErrUnauthorized, resp.StatusCode())
	case resp.IsError():
		return fmt.Errorf("mail provider returned status %d: %s", resp.StatusCode(), resp.String())
	}

	return nil
}

var _ Client = (*GmailClient)(nil)
