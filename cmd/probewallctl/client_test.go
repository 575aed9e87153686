package main

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestFetchStatusDecodesMonitors(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`{"monitors":[{"id":"db","status":{"status":"green","code":0,"description":"ok"}}]}`))
	}))
	defer srv.Close()

	rows, err := fetchStatus(context.Background(), srv.URL)
	require.NoError(t, err)
	require.Len(t, rows, 1)
	assert.Equal(t, "db", rows[0].ID)
	assert.Equal(t, "green", *rows[0].Status.Status)
}

func TestFetchStatusErrorsOnNonOK(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusInternalServerError)
		w.Write([]byte("boom"))
	}))
	defer srv.Close()

	_, err := fetchStatus(context.Background(), srv.URL)
	assert.Error(t, err)
}

func TestFetchLogReturnsBody(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte("line one\nline two\n"))
	}))
	defer srv.Close()

	body, err := fetchLog(context.Background(), srv.URL, "db")
	require.NoError(t, err)
	assert.Contains(t, body, "line one")
}
