// Copyright (C) 2026 Treelight Labs
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.

package reasoner

import (
	"bytes"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/treelight/reasoner/services/reasoner/config"
)

func newRouter(t *testing.T) *gin.Engine {
	t.Helper()
	gin.SetMode(gin.TestMode)
	router := gin.New()
	RegisterRoutes(router, NewHandlers(NewRegistry(config.Default(), nil)))
	return router
}

func doJSON(t *testing.T, router *gin.Engine, method, path string, body any, header map[string]string) *httptest.ResponseRecorder {
	t.Helper()
	var buf bytes.Buffer
	if body != nil {
		require.NoError(t, json.NewEncoder(&buf).Encode(body))
	}
	req := httptest.NewRequest(method, path, &buf)
	req.Header.Set("Content-Type", "application/json")
	for k, v := range header {
		req.Header.Set(k, v)
	}
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)
	return rec
}

func thoughtBody() map[string]any {
	return map[string]any{
		"thought":           "prototype the grappling hook",
		"thoughtNumber":     1,
		"totalThoughts":     4,
		"nextThoughtNeeded": true,
	}
}

func TestHandleThought(t *testing.T) {
	router := newRouter(t)

	rec := doJSON(t, router, http.MethodPost, "/v1/reason/thought", thoughtBody(), nil)
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	assert.NotEmpty(t, rec.Header().Get("X-Request-ID"))

	var resp map[string]any
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	assert.NotEmpty(t, resp["nodeId"])
	assert.Equal(t, "prototype the grappling hook", resp["thought"])
	assert.Equal(t, true, resp["nextThoughtNeeded"])
}

func TestHandleThought_MissingRequiredField(t *testing.T) {
	router := newRouter(t)

	body := thoughtBody()
	delete(body, "nextThoughtNeeded")

	rec := doJSON(t, router, http.MethodPost, "/v1/reason/thought", body, nil)
	require.Equal(t, http.StatusBadRequest, rec.Code)

	var errResp ErrorResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &errResp))
	assert.Equal(t, "INVALID_REQUEST", errResp.Code)
}

func TestHandleThought_InternalErrorShaped(t *testing.T) {
	router := newRouter(t)

	body := thoughtBody()
	body["parentId"] = "no-such-node"

	rec := doJSON(t, router, http.MethodPost, "/v1/reason/thought", body, nil)
	// The contract embeds internal failures instead of failing the call.
	require.Equal(t, http.StatusOK, rec.Code)

	var resp map[string]any
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	assert.Equal(t, true, resp["error"])
	assert.NotEmpty(t, resp["message"])
	_, hasNodeID := resp["nodeId"]
	if hasNodeID {
		assert.Empty(t, resp["nodeId"])
	}
}

func TestHandleStats(t *testing.T) {
	router := newRouter(t)

	doJSON(t, router, http.MethodPost, "/v1/reason/thought", thoughtBody(), nil)

	rec := doJSON(t, router, http.MethodGet, "/v1/reason/stats", nil, nil)
	require.Equal(t, http.StatusOK, rec.Code)

	var stats Stats
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &stats))
	assert.Equal(t, 1, stats.TotalNodes)
	assert.Len(t, stats.Strategies, 5)
}

func TestHandlePath(t *testing.T) {
	router := newRouter(t)

	rec := doJSON(t, router, http.MethodGet, "/v1/reason/path", nil, nil)
	require.Equal(t, http.StatusNotFound, rec.Code)

	doJSON(t, router, http.MethodPost, "/v1/reason/thought", thoughtBody(), nil)

	rec = doJSON(t, router, http.MethodGet, "/v1/reason/path", nil, nil)
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())

	var resp struct {
		Length int              `json:"length"`
		Path   []map[string]any `json:"path"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	assert.Equal(t, 1, resp.Length)
	require.Len(t, resp.Path, 1)

	// Path to an explicit unknown node id.
	rec = doJSON(t, router, http.MethodGet, "/v1/reason/path?nodeId=missing", nil, nil)
	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestHandleSetStrategy(t *testing.T) {
	router := newRouter(t)

	rec := doJSON(t, router, http.MethodPost, "/v1/reason/strategy", map[string]any{"strategy": "a_star"}, nil)
	require.Equal(t, http.StatusOK, rec.Code)

	rec = doJSON(t, router, http.MethodPost, "/v1/reason/strategy", map[string]any{"strategy": "oracle"}, nil)
	require.Equal(t, http.StatusBadRequest, rec.Code)
	var errResp ErrorResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &errResp))
	assert.Equal(t, "UNKNOWN_STRATEGY", errResp.Code)

	rec = doJSON(t, router, http.MethodPost, "/v1/reason/strategy", map[string]any{}, nil)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestHandleClear(t *testing.T) {
	router := newRouter(t)

	doJSON(t, router, http.MethodPost, "/v1/reason/thought", thoughtBody(), nil)

	rec := doJSON(t, router, http.MethodPost, "/v1/reason/clear", nil, nil)
	require.Equal(t, http.StatusOK, rec.Code)

	rec = doJSON(t, router, http.MethodGet, "/v1/reason/stats", nil, nil)
	var stats Stats
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &stats))
	assert.Equal(t, 0, stats.TotalNodes)
}

func TestHandleStrategies(t *testing.T) {
	router := newRouter(t)

	rec := doJSON(t, router, http.MethodGet, "/v1/reason/strategies", nil, nil)
	require.Equal(t, http.StatusOK, rec.Code)

	var resp struct {
		Available []string `json:"available"`
		Current   string   `json:"current"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	assert.Len(t, resp.Available, 5)
	assert.Equal(t, "hybrid", resp.Current)
}

func TestHandleTree(t *testing.T) {
	router := newRouter(t)

	rec := doJSON(t, router, http.MethodGet, "/v1/reason/tree", nil, nil)
	require.Equal(t, http.StatusNotFound, rec.Code)

	doJSON(t, router, http.MethodPost, "/v1/reason/thought", thoughtBody(), nil)

	rec = doJSON(t, router, http.MethodGet, "/v1/reason/tree", nil, nil)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), "prototype the grappling hook")
}

func TestSessionIsolationOverHTTP(t *testing.T) {
	router := newRouter(t)

	doJSON(t, router, http.MethodPost, "/v1/reason/thought", thoughtBody(),
		map[string]string{"X-Session-ID": "alpha"})

	rec := doJSON(t, router, http.MethodGet, "/v1/reason/stats", nil,
		map[string]string{"X-Session-ID": "beta"})
	var stats Stats
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &stats))
	assert.Equal(t, 0, stats.TotalNodes)

	rec = doJSON(t, router, http.MethodGet, "/v1/reason/stats", nil,
		map[string]string{"X-Session-ID": "alpha"})
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &stats))
	assert.Equal(t, 1, stats.TotalNodes)
}

func TestHealthz(t *testing.T) {
	router := newRouter(t)

	rec := doJSON(t, router, http.MethodGet, "/healthz", nil, nil)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), "ok")
}
