package scanner

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"time"

	"github.com/roudbar/studio-reservation/internal/service"
)

// CheckinClient submits decoded QR tokens to the reservation API.
type CheckinClient struct {
	baseURL string
	token   string // bearer token of the scanner station account
	http    *http.Client
}

// NewCheckinClient returns a client for the given API base URL.  The
// 10 second timeout bounds how long the door display can hang on a
// slow or unreachable server.
func NewCheckinClient(baseURL, bearerToken string) *CheckinClient {
	return &CheckinClient{
		baseURL: baseURL,
		token:   bearerToken,
		http:    &http.Client{Timeout: 10 * time.Second},
	}
}

// Submit posts one scanned token for the given session and returns the
// server's tagged result.
func (c *CheckinClient) Submit(ctx context.Context, qrToken, scheduleID string) (*service.ScanResult, error) {
	body, err := json.Marshal(map[string]string{
		"qrCodeData": qrToken,
		"scheduleId": scheduleID,
	})
	if err != nil {
		return nil, err
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost,
		c.baseURL+"/v1/reservations/scan", bytes.NewReader(body))
	if err != nil {
		return nil, err
	}
	req.Header.Set("Content-Type", "application/json")
	if c.token != "" {
		req.Header.Set("Authorization", "Bearer "+c.token)
	}

	resp, err := c.http.Do(req)
	if err != nil {
		return nil, fmt.Errorf("submit scan: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("scan endpoint returned %s", resp.Status)
	}
	var result service.ScanResult
	if err := json.NewDecoder(resp.Body).Decode(&result); err != nil {
		return nil, fmt.Errorf("decode scan result: %w", err)
	}
	return &result, nil
}
