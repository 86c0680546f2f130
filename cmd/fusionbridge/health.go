package main

import (
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"os"
	"strings"
	"time"
)

// HealthCmd probes a running bridge with a one-shot GET /health.
// Exit code 0 means bridge and add-in are healthy, 1 means the bridge is up
// but Fusion 360 is unreachable, 2 means the bridge itself is unreachable.
type HealthCmd struct {
	URL string `short:"u" long:"url" description:"bridge base URL" default:"http://127.0.0.1:8765"`
}

func (h *HealthCmd) Execute(_ []string) error {
	if code := h.probe(os.Stdout, os.Stderr); code != 0 {
		os.Exit(code)
	}
	return nil
}

func (h *HealthCmd) probe(stdout, stderr io.Writer) int {
	client := &http.Client{Timeout: 5 * time.Second}
	resp, err := client.Get(strings.TrimSuffix(h.URL, "/") + "/health")
	if err != nil {
		fmt.Fprintln(stderr, "bridge server not reachable")
		return 2
	}
	defer resp.Body.Close()

	var payload struct {
		Status string `json:"status"`
		Fusion string `json:"fusion"`
		Detail string `json:"detail"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&payload); err != nil {
		fmt.Fprintf(stderr, "unexpected health response: %v\n", err)
		return 2
	}
	fmt.Fprintf(stdout, "Fusion 360: %s\n", payload.Fusion)
	if payload.Fusion == "connected" {
		fmt.Fprintln(stdout, "Add-in is connected and ready")
		return 0
	}
	if payload.Detail != "" {
		fmt.Fprintln(stderr, payload.Detail)
	} else {
		fmt.Fprintln(stderr, "Fusion 360 add-in not running")
	}
	return 1
}
