package api

import (
	"bytes"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/calvinalkan/graphd/internal/device"
	"github.com/calvinalkan/graphd/internal/durability"
	"github.com/calvinalkan/graphd/internal/store"
)

func newTestServer(t *testing.T) *Server {
	t.Helper()

	layout := durability.Layout{LogSize: durability.LogBlockSize * 4, CheckpointSize: 8192}

	s, err := store.Open(device.NewFake(), "/dev/fake0", durability.ModeFormat, layout, nil)
	require.NoError(t, err)

	t.Cleanup(func() { s.Close() })

	return NewServer(s, nil)
}

func post(t *testing.T, srv *Server, path string, body any) *httptest.ResponseRecorder {
	t.Helper()

	buf, err := json.Marshal(body)
	require.NoError(t, err)

	req := httptest.NewRequest(http.MethodPost, path, bytes.NewReader(buf))
	rec := httptest.NewRecorder()
	srv.ServeHTTP(rec, req)

	return rec
}

func TestHandleAddNode(t *testing.T) {
	srv := newTestServer(t)

	rec := post(t, srv, "/api/v1/add_node", nodeRequest{NodeID: 1})
	require.Equal(t, http.StatusOK, rec.Code)

	rec = post(t, srv, "/api/v1/add_node", nodeRequest{NodeID: 1})
	require.Equal(t, http.StatusNoContent, rec.Code)
}

func TestHandleAddEdge_SelfLoopIsBadRequest(t *testing.T) {
	srv := newTestServer(t)

	post(t, srv, "/api/v1/add_node", nodeRequest{NodeID: 1})

	rec := post(t, srv, "/api/v1/add_edge", edgeRequest{NodeAID: 1, NodeBID: 1})
	require.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestHandleGetNeighbors(t *testing.T) {
	srv := newTestServer(t)

	post(t, srv, "/api/v1/add_node", nodeRequest{NodeID: 1})
	post(t, srv, "/api/v1/add_node", nodeRequest{NodeID: 2})
	post(t, srv, "/api/v1/add_edge", edgeRequest{NodeAID: 1, NodeBID: 2})

	rec := post(t, srv, "/api/v1/get_neighbors", nodeRequest{NodeID: 1})
	require.Equal(t, http.StatusOK, rec.Code)

	var body struct {
		NodeID    uint64   `json:"node_id"` //nolint:tagliatelle
		Neighbors []uint64 `json:"neighbors"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	require.Equal(t, []uint64{2}, body.Neighbors)
}

func TestHandleShortestPath_Disconnected(t *testing.T) {
	srv := newTestServer(t)

	post(t, srv, "/api/v1/add_node", nodeRequest{NodeID: 1})
	post(t, srv, "/api/v1/add_node", nodeRequest{NodeID: 2})

	rec := post(t, srv, "/api/v1/shortest_path", edgeRequest{NodeAID: 1, NodeBID: 2})
	require.Equal(t, http.StatusNoContent, rec.Code)
}

func TestHandleCheckpoint(t *testing.T) {
	srv := newTestServer(t)

	post(t, srv, "/api/v1/add_node", nodeRequest{NodeID: 1})

	rec := post(t, srv, "/api/v1/checkpoint", nil)
	require.Equal(t, http.StatusOK, rec.Code)
}

func TestHandleHealthz(t *testing.T) {
	srv := newTestServer(t)

	req := httptest.NewRequest(http.MethodGet, "/healthz", nil)
	rec := httptest.NewRecorder()
	srv.ServeHTTP(rec, req)

	require.Equal(t, http.StatusOK, rec.Code)
}
