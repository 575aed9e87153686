package main

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/goccy/go-json"
)

// monitorRow is the subset of a MonitorState a terminal table needs.
// Decoded loosely from probewalld's /status.json rather than importing
// internal/status, so probewallctl only ever depends on the wire shape.
type monitorRow struct {
	ID     string `json:"id"`
	Status struct {
		Status      *string `json:"status"`
		Code        int64   `json:"code"`
		Description string  `json:"description"`
	} `json:"status"`
}

type statusDoc struct {
	Monitors []monitorRow `json:"monitors"`
}

func fetchStatus(ctx context.Context, baseURL string) ([]monitorRow, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, baseURL+"/status.json", nil)
	if err != nil {
		return nil, err
	}

	resp, err := http.DefaultClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("requesting %s: %w", baseURL, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(resp.Body)
		return nil, fmt.Errorf("%s returned %d: %s", baseURL, resp.StatusCode, string(body))
	}

	var doc statusDoc
	if err := json.NewDecoder(resp.Body).Decode(&doc); err != nil {
		return nil, fmt.Errorf("decoding status.json: %w", err)
	}
	return doc.Monitors, nil
}

func fetchLog(ctx context.Context, baseURL, monitorID string) (string, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, baseURL+"/log/"+monitorID, nil)
	if err != nil {
		return "", err
	}

	resp, err := http.DefaultClient.Do(req)
	if err != nil {
		return "", fmt.Errorf("requesting %s: %w", baseURL, err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return "", err
	}
	if resp.StatusCode != http.StatusOK {
		return "", fmt.Errorf("%s returned %d: %s", baseURL, resp.StatusCode, string(body))
	}
	return string(body), nil
}

const requestTimeout = 10 * time.Second
