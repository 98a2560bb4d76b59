// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package policy

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/pdiddy/policy-engine/pkg/types"
)

func TestSearchGranules(t *testing.T) {
	var body map[string]any
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.NoError(t, json.NewDecoder(r.Body).Decode(&body))
		_, _ = w.Write([]byte(`{
		  "offsetMark": "AoE",
		  "results": [
		    {"title": "Both ids", "packageId": "P1", "granuleId": "G1", "collectionCode": "CREC", "resultLink": "https://x/1"},
		    {"title": "Package only", "packageId": "P2"},
		    {"title": "Variant ids", "package_id": "P3", "granuleID": "G3", "collection": "FR"}
		  ]}`))
	}))
	defer ts.Close()

	g := &GovInfo{Client: ts.Client(), APIKey: "k", BaseURL: ts.URL}
	env := SearchGranules(context.Background(), g, "budget", 500, "mark-1")
	require.True(t, env.OK, "error: %+v", env.Error)

	assert.Equal(t, float64(50), body["pageSize"])
	assert.Equal(t, "mark-1", body["offsetMark"])
	assert.Equal(t, []any{map[string]any{"field": "score", "sortOrder": "DESC"}}, body["sorts"])

	data, ok := env.Data.(GranuleSearchData)
	require.True(t, ok)
	assert.Equal(t, "AoE", data.NextOffsetMark)
	assert.Equal(t, []GranuleItem{
		{PackageID: "P1", GranuleID: "G1", Title: "Both ids", Collection: "CREC", ResultLink: "https://x/1"},
		{PackageID: "P3", GranuleID: "G3", Title: "Variant ids", Collection: "FR"},
	}, data.Items)
}

func TestSearchGranules_ClampsPageSize(t *testing.T) {
	var pageSizes []float64
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		var body map[string]any
		assert.NoError(t, json.NewDecoder(r.Body).Decode(&body))
		pageSizes = append(pageSizes, body["pageSize"].(float64))
		_, _ = w.Write([]byte(`{"results":[]}`))
	}))
	defer ts.Close()

	g := &GovInfo{Client: ts.Client(), APIKey: "k", BaseURL: ts.URL}
	for _, n := range []int{0, -5, 1, 25, 50, 51} {
		env := SearchGranules(context.Background(), g, "x", n, "")
		require.True(t, env.OK)
		assert.NotNil(t, env.Data.(GranuleSearchData).Items)
	}
	assert.Equal(t, []float64{1, 1, 1, 25, 50, 50}, pageSizes)
}

func TestSearchGranules_MissingKeyIsBadInput(t *testing.T) {
	transport := &countingTransport{}
	g := &GovInfo{Client: &http.Client{Transport: transport}}

	env := SearchGranules(context.Background(), g, "x", 10, "*")
	assert.False(t, env.OK)
	assert.Equal(t, types.CodeBadInput, env.Error.Code)
	assert.Equal(t, int32(0), transport.calls.Load())
}
