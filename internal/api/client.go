package api

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"strconv"
	"strings"
	"time"

	"bioterminal/internal/models"
)

// VerificationResult is the response payload of a verification request.
type VerificationResult struct {
	Verified bool   `json:"verified"`
	Mensaje  string `json:"mensaje"`
	Cedula   string `json:"cedula,omitempty"`
	Nombre   string `json:"nombre,omitempty"`
}

// apiError mirrors the error body the verification API returns on non-200.
type apiError struct {
	Detail string `json:"detail"`
}

// Client talks to the BioEntry verification API.
type Client struct {
	baseURL    string
	terminalID string
	apiKey     string

	httpClient  *http.Client
	probeClient *http.Client
}

// NewClient creates an API client. timeout bounds verification requests,
// probeTimeout bounds the /version connectivity probe.
func NewClient(baseURL, terminalID, apiKey string, timeout, probeTimeout time.Duration) *Client {
	return &Client{
		baseURL:     strings.TrimRight(baseURL, "/"),
		terminalID:  terminalID,
		apiKey:      apiKey,
		httpClient:  &http.Client{Timeout: timeout},
		probeClient: &http.Client{Timeout: probeTimeout},
	}
}

// CheckConnection reports whether the API answers its version endpoint.
// Any transport error or non-200 status counts as offline.
func (c *Client) CheckConnection(ctx context.Context) bool {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+"/version", nil)
	if err != nil {
		return false
	}

	resp, err := c.probeClient.Do(req)
	if err != nil {
		return false
	}
	defer resp.Body.Close()
	io.Copy(io.Discard, resp.Body)

	return resp.StatusCode == http.StatusOK
}

// VerifyFaceAuto sends a captured JPEG for automatic verification. lat/lng are
// optional and sent only when both are set.
func (c *Client) VerifyFaceAuto(ctx context.Context, imageJPEG []byte, lat, lng *float64) (*VerificationResult, error) {
	var body bytes.Buffer
	writer := multipart.NewWriter(&body)

	part, err := writer.CreateFormFile("image", "capture.jpg")
	if err != nil {
		return nil, fmt.Errorf("failed to create image part: %w", err)
	}
	if _, err := part.Write(imageJPEG); err != nil {
		return nil, fmt.Errorf("failed to write image part: %w", err)
	}

	if err := writer.WriteField("terminal_id", c.terminalID); err != nil {
		return nil, fmt.Errorf("failed to write terminal_id field: %w", err)
	}
	if lat != nil && lng != nil {
		if err := writer.WriteField("lat", strconv.FormatFloat(*lat, 'f', -1, 64)); err != nil {
			return nil, fmt.Errorf("failed to write lat field: %w", err)
		}
		if err := writer.WriteField("lng", strconv.FormatFloat(*lng, 'f', -1, 64)); err != nil {
			return nil, fmt.Errorf("failed to write lng field: %w", err)
		}
	}

	if err := writer.Close(); err != nil {
		return nil, fmt.Errorf("failed to finalize multipart body: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+"/verify-terminal/auto", &body)
	if err != nil {
		return nil, fmt.Errorf("failed to build verification request: %w", err)
	}
	req.Header.Set("Content-Type", writer.FormDataContentType())
	req.Header.Set("X-API-Key", c.apiKey)

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("verification request failed: %w", err)
	}
	defer resp.Body.Close()

	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("failed to read verification response: %w", err)
	}

	if resp.StatusCode != http.StatusOK {
		var apiErr apiError
		if err := json.Unmarshal(data, &apiErr); err == nil && apiErr.Detail != "" {
			return nil, fmt.Errorf("api error (%d): %s", resp.StatusCode, apiErr.Detail)
		}
		return nil, fmt.Errorf("api error: status %d", resp.StatusCode)
	}

	var result VerificationResult
	if err := json.Unmarshal(data, &result); err != nil {
		return nil, fmt.Errorf("failed to decode verification response: %w", err)
	}

	return &result, nil
}

// SyncRecords pushes offline access records to the API so the backend can
// reconcile them, returning the ids the server accepted.
func (c *Client) SyncRecords(ctx context.Context, records []models.OfflineRecord) ([]string, error) {
	payload, err := json.Marshal(map[string]interface{}{
		"terminal_id": c.terminalID,
		"registros":   records,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to encode records: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+"/registros-offline/sync", bytes.NewReader(payload))
	if err != nil {
		return nil, fmt.Errorf("failed to build sync request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("X-API-Key", c.apiKey)

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("sync request failed: %w", err)
	}
	defer resp.Body.Close()

	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("failed to read sync response: %w", err)
	}

	if resp.StatusCode != http.StatusOK {
		var apiErr apiError
		if err := json.Unmarshal(data, &apiErr); err == nil && apiErr.Detail != "" {
			return nil, fmt.Errorf("api error (%d): %s", resp.StatusCode, apiErr.Detail)
		}
		return nil, fmt.Errorf("api error: status %d", resp.StatusCode)
	}

	var result struct {
		Synced []string `json:"synced"`
	}
	if err := json.Unmarshal(data, &result); err != nil {
		return nil, fmt.Errorf("failed to decode sync response: %w", err)
	}

	return result.Synced, nil
}
