package main

import (
	"bytes"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestHealthCmdProbe(t *testing.T) {
	type testCase struct {
		name         string
		payload      string
		closeServer  bool
		expectCode   int
		expectStdout string
		expectStderr string
	}

	cases := []testCase{
		{
			name:         "connected",
			payload:      `{"status":"ok","fusion":"connected"}`,
			expectCode:   0,
			expectStdout: "Add-in is connected and ready",
		},
		{
			name:         "host unreachable",
			payload:      `{"status":"ok","fusion":"disconnected","detail":"Fusion 360 not running or add-in not loaded"}`,
			expectCode:   1,
			expectStdout: "Fusion 360: disconnected",
			expectStderr: "Fusion 360 not running or add-in not loaded",
		},
		{
			name:         "disconnected without detail",
			payload:      `{"status":"ok","fusion":"disconnected"}`,
			expectCode:   1,
			expectStderr: "Fusion 360 add-in not running",
		},
		{
			name:         "bridge down",
			closeServer:  true,
			expectCode:   2,
			expectStderr: "bridge server not reachable",
		},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				assert.EqualValues(t, "/health", r.URL.Path)
				w.Header().Set("Content-Type", "application/json")
				_, _ = w.Write([]byte(tc.payload))
			}))
			if tc.closeServer {
				server.Close()
			} else {
				defer server.Close()
			}

			cmd := &HealthCmd{URL: server.URL}
			stdout := &bytes.Buffer{}
			stderr := &bytes.Buffer{}
			code := cmd.probe(stdout, stderr)

			assert.EqualValues(t, tc.expectCode, code)
			if tc.expectStdout != "" {
				assert.Contains(t, stdout.String(), tc.expectStdout)
			}
			if tc.expectStderr != "" {
				assert.Contains(t, stderr.String(), tc.expectStderr)
			}
		})
	}
}
