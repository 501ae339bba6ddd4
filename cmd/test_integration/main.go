package main

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"os"
	"time"
)

func main() {
	baseURL := os.Getenv("AUREHAL_URL")
	if baseURL == "" {
		baseURL = "http://localhost:8080"
	}

	// Wait for server to start
	time.Sleep(2 * time.Second)

	fmt.Println("Starting smoke test against", baseURL)

	fmt.Println("1. Health...")
	if _, ok := sendRequest(baseURL, "GET", "/healthz", nil); !ok {
		fmt.Println("FAILED: Health")
		os.Exit(1)
	}
	fmt.Println("PASSED: Health")

	fmt.Println("2. Harvesting descendants of 1039632...")
	body, ok := sendRequest(baseURL, "POST", "/api/harvest", map[string]string{
		"root":      "1039632",
		"direction": "desc",
	})
	if !ok || !checkHarvest(body, "ok") {
		fmt.Println("FAILED: Descendant harvest")
		os.Exit(1)
	}
	fmt.Println("PASSED: Descendant harvest")

	fmt.Println("3. Harvesting ancestors of 409...")
	body, ok = sendRequest(baseURL, "GET", "/api/harvest/409?direction=asc", nil)
	if !ok || !checkHarvest(body, "") {
		fmt.Println("FAILED: Ancestor harvest")
		os.Exit(1)
	}
	fmt.Println("PASSED: Ancestor harvest")

	fmt.Println("4. Building network view...")
	_, ok = sendRequest(baseURL, "POST", "/api/network", map[string]any{
		"root":      "1039632",
		"direction": "desc",
		"options":   map[string]any{"color_by": "type_s", "hierarchical": true},
	})
	if !ok {
		fmt.Println("FAILED: Network")
		os.Exit(1)
	}
	fmt.Println("PASSED: Network")
}

// checkHarvest verifies that every edge endpoint has a record. wantStatus is
// ignored when empty.
func checkHarvest(body []byte, wantStatus string) bool {
	var h struct {
		Status string `json:"status"`
		Edges  []struct {
			From string `json:"from"`
			To   string `json:"to"`
		} `json:"edges"`
		Records []struct {
			ID string `json:"id"`
		} `json:"records"`
	}
	if err := json.Unmarshal(body, &h); err != nil {
		fmt.Printf("Invalid harvest body: %v\n", err)
		return false
	}
	if wantStatus != "" && h.Status != wantStatus {
		fmt.Printf("Status %q, want %q\n", h.Status, wantStatus)
		return false
	}

	seen := make(map[string]bool, len(h.Records))
	for _, r := range h.Records {
		seen[r.ID] = true
	}
	for _, e := range h.Edges {
		if !seen[e.From] || !seen[e.To] {
			fmt.Printf("Edge %s->%s has no record\n", e.From, e.To)
			return false
		}
	}
	fmt.Printf("Harvest: status=%s edges=%d records=%d\n", h.Status, len(h.Edges), len(h.Records))
	return true
}

func sendRequest(baseURL, method, endpoint string, payload any) ([]byte, bool) {
	var body io.Reader
	if payload != nil {
		jsonBytes, _ := json.Marshal(payload)
		body = bytes.NewBuffer(jsonBytes)
	}

	req, err := http.NewRequest(method, baseURL+endpoint, body)
	if err != nil {
		fmt.Printf("Error creating request: %v\n", err)
		return nil, false
	}
	req.Header.Set("Content-Type", "application/json")

	client := &http.Client{Timeout: 5 * time.Minute}
	resp, err := client.Do(req)
	if err != nil {
		fmt.Printf("Error sending request: %v\n", err)
		return nil, false
	}
	defer resp.Body.Close()

	respBody, _ := io.ReadAll(resp.Body)
	if resp.StatusCode != http.StatusOK {
		fmt.Printf("Request failed with status %d: %s\n", resp.StatusCode, string(respBody))
		return nil, false
	}
	return respBody, true
}
