package api

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	apperrors "github.com/alexrolguin/voicebox/internal/errors"
	"github.com/alexrolguin/voicebox/internal/logger"
	"github.com/alexrolguin/voicebox/internal/recorder"
)

// maxBodySize caps how much of a response body is read.
const maxBodySize = 4 << 20

// Config describes the server endpoints.
type Config struct {
	BaseURL     string
	UploadPath  string
	HistoryPath string
	Timeout     time.Duration
	FieldName   string
	FileName    string
}

func (c *Config) applyDefaults() {
	if c.UploadPath == "" {
		c.UploadPath = "/api/upload"
	}
	if c.HistoryPath == "" {
		c.HistoryPath = "/api/transcriptions"
	}
	if c.Timeout <= 0 {
		c.Timeout = 5 * time.Minute
	}
	if c.FieldName == "" {
		c.FieldName = "audio"
	}
	if c.FileName == "" {
		c.FileName = "recording.webm"
	}
}

// Client talks to the transcription server.
type Client struct {
	httpClient *http.Client
	cfg        Config
	base       *url.URL
	log        *logger.Logger
}

// New returns a Client for cfg.BaseURL.
func New(cfg Config, log *logger.Logger) (*Client, error) {
	cfg.applyDefaults()
	base, err := url.Parse(cfg.BaseURL)
	if err != nil {
		return nil, fmt.Errorf("parse base url: %w", err)
	}
	if base.Scheme != "http" && base.Scheme != "https" {
		return nil, fmt.Errorf("base url %q: scheme must be http or https", cfg.BaseURL)
	}
	return &Client{
		httpClient: &http.Client{Timeout: cfg.Timeout},
		cfg:        cfg,
		base:       base,
		log:        log.WithComponent("api"),
	}, nil
}

// Upload sends the recording as multipart form data and returns the
// transcription. A nil recording fails with NO_RECORDING before any request
// is made; there is no retry.
func (c *Client) Upload(ctx context.Context, rec *recorder.Recording) (TranscriptionRecord, error) {
	if rec == nil {
		return TranscriptionRecord{}, apperrors.NoRecording()
	}

	fileName := rec.FileName
	if fileName == "" {
		fileName = c.cfg.FileName
	}
	body, contentType, err := encodeMultipart(nil, FileField{
		FieldName:   c.cfg.FieldName,
		FileName:    fileName,
		ContentType: rec.MediaType,
		Data:        rec.Data,
	})
	if err != nil {
		return TranscriptionRecord{}, fmt.Errorf("encode upload: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.endpoint(c.cfg.UploadPath), body)
	if err != nil {
		return TranscriptionRecord{}, fmt.Errorf("create upload request: %w", err)
	}
	req.Header.Set("Content-Type", contentType)
	req.Header.Set("Accept", "application/json")

	status, data, err := c.do(req)
	if err != nil {
		return TranscriptionRecord{}, apperrors.Network(err)
	}
	if !isSuccess(status) {
		return TranscriptionRecord{}, rejected(status, data)
	}

	var resp UploadResponse
	if err := json.Unmarshal(data, &resp); err != nil || resp.ID == nil {
		c.log.Warn("malformed upload response", logger.Fields(logger.FieldStatus, status))
		return TranscriptionRecord{}, apperrors.ServerRejected(status, "malformed response")
	}
	c.log.Info("upload transcribed", logger.Fields(
		logger.FieldRecording, rec.ID.String(),
		logger.FieldBytes, rec.Size(),
		"transcription_id", *resp.ID,
	))
	return resp.Record(), nil
}

// Transcriptions fetches the full history, oldest first. Every failure is
// reported as LOAD_HISTORY.
func (c *Client) Transcriptions(ctx context.Context) ([]TranscriptionRecord, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.endpoint(c.cfg.HistoryPath), nil)
	if err != nil {
		return nil, apperrors.LoadHistory(err)
	}
	req.Header.Set("Accept", "application/json")

	status, data, err := c.do(req)
	if err != nil {
		return nil, apperrors.LoadHistory(err)
	}
	if !isSuccess(status) {
		return nil, apperrors.LoadHistory(rejected(status, data))
	}

	var resp HistoryResponse
	if err := json.Unmarshal(data, &resp); err != nil {
		return nil, apperrors.LoadHistory(fmt.Errorf("decode history: %w", err))
	}
	return resp.Transcriptions, nil
}

// Transcription fetches one record by id.
func (c *Client) Transcription(ctx context.Context, id int) (TranscriptionRecord, error) {
	path := strings.TrimRight(c.cfg.HistoryPath, "/") + "/" + strconv.Itoa(id)
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.endpoint(path), nil)
	if err != nil {
		return TranscriptionRecord{}, fmt.Errorf("create request: %w", err)
	}
	req.Header.Set("Accept", "application/json")

	status, data, err := c.do(req)
	if err != nil {
		return TranscriptionRecord{}, apperrors.Network(err)
	}
	if !isSuccess(status) {
		return TranscriptionRecord{}, rejected(status, data)
	}

	var rec TranscriptionRecord
	if err := json.Unmarshal(data, &rec); err != nil {
		return TranscriptionRecord{}, apperrors.ServerRejected(status, "malformed response")
	}
	return rec, nil
}

// do sends req and reads the (capped) response body.
func (c *Client) do(req *http.Request) (int, []byte, error) {
	start := time.Now()
	resp, err := c.httpClient.Do(req)
	if err != nil {
		c.log.WithError(err).Warn("request failed", logger.Fields(logger.FieldURL, req.URL.String()))
		return 0, nil, fmt.Errorf("%s %s: %w", req.Method, req.URL.Path, err)
	}
	defer resp.Body.Close()

	data, err := io.ReadAll(io.LimitReader(resp.Body, maxBodySize))
	if err != nil {
		return 0, nil, fmt.Errorf("read response body: %w", err)
	}
	c.log.Debug("request done", logger.Fields(
		logger.FieldURL, req.URL.String(),
		logger.FieldStatus, resp.StatusCode,
		logger.FieldDuration, time.Since(start).Milliseconds(),
	))
	return resp.StatusCode, data, nil
}

func (c *Client) endpoint(path string) string {
	ref := &url.URL{Path: strings.TrimRight(c.base.Path, "/") + "/" + strings.TrimLeft(path, "/")}
	return c.base.ResolveReference(ref).String()
}

func isSuccess(status int) bool {
	return status >= 200 && status < 300
}

// rejected turns an error response into SERVER_REJECTED, keeping the
// server's message verbatim.
func rejected(status int, body []byte) error {
	var er ErrorResponse
	_ = json.Unmarshal(body, &er)
	return apperrors.ServerRejected(status, er.Error)
}
