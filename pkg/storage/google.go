package storage

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"mime/multipart"
	"net/http"
	"net/textproto"
	"net/url"
	"os"
	"strings"
	"time"

	"github.com/go-resty/resty/v2"
	"github.com/sirupsen/logrus"
)

type appendRequest struct {
	Values [][]string `json:"values"`
}

type appendResponse struct {
	Updates struct {
		UpdatedCells int `json:"updatedCells"`
	} `json:"updates"`
}

type driveFile struct {
	ID string `json:"id"`
}

type aboutResponse struct {
	User struct {
		EmailAddress string `json:"emailAddress"`
	} `json:"user"`
}

// GoogleClient implements Client against the Sheets and Drive REST APIs.
type GoogleClient struct {
	log      logrus.FieldLogger
	sheets   *resty.Client
	drive    *resty.Client
	folderID string
	sheet    string
}

// NewGoogleClient creates a Sheets/Drive-backed storage client.
func NewGoogleClient(log logrus.FieldLogger, cfg *Config) (*GoogleClient, error) {
	token, err := os.ReadFile(cfg.TokenFile)
	if err != nil {
		return nil, fmt.Errorf("failed to read storage token file: %w", err)
	}

	bearer := strings.TrimSpace(string(token))
	timeout := time.Duration(cfg.TimeoutSeconds) * time.Second

	return &GoogleClient{
		log:      log.WithField("component", "google_storage"),
		sheets:   resty.New().SetBaseURL(cfg.SheetsBaseURL).SetAuthToken(bearer).SetTimeout(timeout),
		drive:    resty.New().SetBaseURL(cfg.DriveBaseURL).SetAuthToken(bearer).SetTimeout(timeout),
		folderID: cfg.DriveFolderID,
		sheet:    cfg.SheetName,
	}, nil
}

// AppendRows appends rows after the last populated row of the sheet.
// Headers are never written here; append mode assumes the sheet already
// carries them (or deliberately never had any).
func (c *GoogleClient) AppendRows(ctx context.Context, spreadsheetID string, rows [][]string) error {
	if len(rows) == 0 {
		return nil
	}

	rangeName := url.PathEscape(fmt.Sprintf("%s!A:G", c.sheet))

	var result appendResponse

	resp, err := c.sheets.R().
		SetContext(ctx).
		SetQueryParam("valueInputOption", "RAW").
		SetQueryParam("insertDataOption", "INSERT_ROWS").
		SetBody(appendRequest{Values: rows}).
		SetResult(&result).
		Post(fmt.Sprintf("/v4/spreadsheets/%s/values/%s:append", spreadsheetID, rangeName))
	if err != nil {
		return fmt.Errorf("append request failed: %w", err)
	}

	if err := classifyStatus(resp); err != nil {
		return err
	}

	c.log.WithFields(logrus.Fields{
		"spreadsheet_id": spreadsheetID,
		"rows":           len(rows),
		"updated_cells":  result.Updates.UpdatedCells,
	}).Info("Appended rows to spreadsheet")

	return nil
}

// CreateArtifact stores a new CSV file in the configured folder and returns
// its file ID.
func (c *GoogleClient) CreateArtifact(ctx context.Context, name string, data []byte) (string, error) {
	id, err := c.uploadMultipart(ctx, c.folderID, name, data)
	if err != nil {
		return "", err
	}

	c.log.WithFields(logrus.Fields{
		"name":    name,
		"file_id": id,
	}).Info("Created artifact")

	return id, nil
}

// UploadFile stores raw bytes under the given folder and name.
func (c *GoogleClient) UploadFile(ctx context.Context, folderID, name string, data []byte) error {
	id, err := c.uploadMultipart(ctx, folderID, name, data)
	if err != nil {
		return err
	}

	c.log.WithFields(logrus.Fields{
		"name":    name,
		"file_id": id,
	}).Debug("Uploaded file")

	return nil
}

// CheckAuth fetches account information to exercise the credentials.
func (c *GoogleClient) CheckAuth(ctx context.Context) error {
	var about aboutResponse

	resp, err := c.drive.R().
		SetContext(ctx).
		SetQueryParam("fields", "user").
		SetResult(&about).
		Get("/drive/v3/about")
	if err != nil {
		return fmt.Errorf("about request failed: %w", err)
	}

	if err := classifyStatus(resp); err != nil {
		return err
	}

	c.log.WithField("user", about.User.EmailAddress).Info("Storage credentials verified")

	return nil
}

// uploadMultipart performs a multipart/related upload: a JSON metadata part
// followed by the media part.
func (c *GoogleClient) uploadMultipart(ctx context.Context, folderID, name string, data []byte) (string, error) {
	metadata := map[string]interface{}{
		"name":     name,
		"mimeType": "text/csv",
	}
	if folderID != "" {
		metadata["parents"] = []string{folderID}
	}

	metaJSON, err := json.Marshal(metadata)
	if err != nil {
		return "", fmt.Errorf("failed to encode file metadata: %w", err)
	}

	var body bytes.Buffer

	writer := multipart.NewWriter(&body)

	metaHeader := textproto.MIMEHeader{}
	metaHeader.Set("Content-Type", "application/json; charset=UTF-8")

	metaPart, err := writer.CreatePart(metaHeader)
	if err != nil {
		return "", fmt.Errorf("failed to create metadata part: %w", err)
	}

	if _, err := metaPart.Write(metaJSON); err != nil {
		return "", fmt.Errorf("failed to write metadata part: %w", err)
	}

	mediaHeader := textproto.MIMEHeader{}
	mediaHeader.Set("Content-Type", "text/csv")

	mediaPart, err := writer.CreatePart(mediaHeader)
	if err != nil {
		return "", fmt.Errorf("failed to create media part: %w", err)
	}

	if _, err := mediaPart.Write(data); err != nil {
		return "", fmt.Errorf("failed to write media part: %w", err)
	}

	if err := writer.Close(); err != nil {
		return "", fmt.Errorf("failed to finalize upload body: %w", err)
	}

	var file driveFile

	resp, err := c.drive.R().
		SetContext(ctx).
		SetQueryParam("uploadType", "multipart").
		SetHeader("Content-Type", fmt.Sprintf("multipart/related; boundary=%s", writer.Boundary())).
		SetBody(body.Bytes()).
		SetResult(&file).
		Post("/upload/drive/v3/files")
	if err != nil {
		return "", fmt.Errorf("upload request failed: %w", err)
	}

	if err := classifyStatus(resp); err != nil {
		return "", err
	}

	return file.ID, nil
}

func classifyStatus(resp *resty.Response) error {
	switch {
	case resp.StatusCode() == http.StatusUnauthorized || resp.StatusCode() == http.StatusForbidden:
		return fmt.Errorf("%w: status %d", ErrUnauthorized, resp.StatusCode())
	case resp.IsError():
		return fmt.Errorf("storage provider returned status %d: %s", resp.StatusCode(), resp.String())
	}

	return nil
}

var _ Client = (*GoogleClient)(nil)
