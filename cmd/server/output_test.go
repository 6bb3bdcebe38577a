package main

import (
	"bytes"
	"context"
	"testing"
	"time"

	"github.com/kb-dashboard/backend/internal/config"
	"github.com/kb-dashboard/backend/internal/graphview"
	"github.com/kb-dashboard/backend/internal/models"
	"github.com/kb-dashboard/backend/internal/statsview"
	"github.com/kb-dashboard/backend/internal/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestPrintStats(t *testing.T) {
	backend := testutil.NewMockBackend()
	backend.KBData = testutil.SampleKBData()

	v := statsview.NewView(time.UTC)
	require.NoError(t, v.Load(context.Background(), backend, time.Second))

	var out bytes.Buffer
	printStats(&out, v)

	s := out.String()
	assert.Contains(t, s, "Total Documents:")
	assert.Contains(t, s, "Handbook")
	assert.Contains(t, s, "2024-05-10")
	assert.Contains(t, s, "Last updated: 2024-05-12 08:15:30 (execution time 0.04s)")
}

func TestPrintGraph(t *testing.T) {
	backend := testutil.NewMockBackend()
	backend.Graph = testutil.SampleGraph()

	v := graphview.NewView("cli")
	require.NoError(t, v.Load(context.Background(), backend, time.Second))
	_, err := v.Toggle("place")
	require.NoError(t, err)

	var out bytes.Buffer
	printGraph(&out, v.Snapshot())

	s := out.String()
	assert.Contains(t, s, "Categories: org, person")
	assert.Contains(t, s, "Dropped 1 links with unknown endpoints")
	assert.NotContains(t, s, "Paris")
	assert.Contains(t, s, "3 nodes, 3 links")
}

func TestPrintGraph_Empty(t *testing.T) {
	backend := testutil.NewMockBackend()
	backend.Graph = &models.GraphResponse{}

	v := graphview.NewView("cli")
	require.NoError(t, v.Load(context.Background(), backend, time.Second))

	var out bytes.Buffer
	printGraph(&out, v.Snapshot())
	assert.Equal(t, "No graph data available\n", out.String())
}

func TestNewBackendClient(t *testing.T) {
	cfg := config.DefaultConfig()
	assert.NotNil(t, newBackendClient(cfg))

	cfg.Security.JWTSecret = "secret"
	assert.NotNil(t, newBackendClient(cfg))

	cfg.Security.APIToken = "static"
	assert.NotNil(t, newBackendClient(cfg))
}

func TestAllowedOrigins(t *testing.T) {
	cfg := config.DefaultConfig()
	cfg.Server.AllowOrigins = " http://a.example , ,http://b.example"

	assert.Nil(t, allowedOrigins(cfg))

	cfg.Server.EnableCORS = true
	assert.Equal(t, []string{"http://a.example", "http://b.example"}, allowedOrigins(cfg))
}
