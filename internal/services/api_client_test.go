package services

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestPostJSON_DecodesReplyAndSendsHeaders(t *testing.T) {
	var gotAuth, gotType string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotAuth = r.Header.Get("Authorization")
		gotType = r.Header.Get("Content-Type")
		var in map[string]string
		_ = json.NewDecoder(r.Body).Decode(&in)
		_ = json.NewEncoder(w).Encode(map[string]string{"echo": in["prompt"]})
	}))
	defer srv.Close()

	client := NewJSONClient(srv.URL)
	defer client.Close()

	var out map[string]string
	err := client.PostJSON(context.Background(), map[string]string{"prompt": "hi"}, &out,
		CallOptions{Headers: map[string]string{"Authorization": "Bearer t"}})
	require.NoError(t, err)
	assert.Equal(t, "hi", out["echo"])
	assert.Equal(t, "Bearer t", gotAuth)
	assert.Equal(t, "application/json", gotType)
}

func TestPostJSON_RetriesServerErrorsOnly(t *testing.T) {
	tests := []struct {
		name      string
		status    int
		wantCalls int32
	}{
		{"5xx is retried", http.StatusBadGateway, 3},
		{"4xx is not retried", http.StatusBadRequest, 1},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var calls atomic.Int32
			srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
				calls.Add(1)
				http.Error(w, "nope", tt.status)
			}))
			defer srv.Close()

			err := NewJSONClient(srv.URL).PostJSON(context.Background(), struct{}{}, nil,
				CallOptions{Retries: 2, RetryDelay: time.Millisecond})

			var statusErr *StatusError
			require.ErrorAs(t, err, &statusErr)
			assert.Equal(t, tt.status, statusErr.StatusCode)
			assert.Equal(t, tt.wantCalls, calls.Load())
		})
	}
}

func TestPostJSON_Timeout(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		select {
		case <-r.Context().Done():
		case <-time.After(time.Second):
		}
	}))
	defer srv.Close()

	err := NewJSONClient(srv.URL).PostJSON(context.Background(), struct{}{}, nil, CallOptions{Timeout: 20 * time.Millisecond})
	require.Error(t, err)
	assert.ErrorIs(t, err, context.DeadlineExceeded)
}
