// Package api is the thin HTTP/JSON adapter described in §6: it decodes
// request bodies, calls the corresponding [*store.Store] operation, and
// maps the result to a status code and response body. It holds no
// domain state of its own — every invariant lives in internal/graph and
// internal/durability.
package api

import (
	"encoding/json"
	"log/slog"
	"net/http"
	"time"

	"github.com/calvinalkan/graphd/internal/durability"
	"github.com/calvinalkan/graphd/internal/store"
)

// Server adapts HTTP requests onto a [*store.Store].
type Server struct {
	store *store.Store
	log   *slog.Logger
	mux   *http.ServeMux
}

// NewServer builds the request mux. logger may be nil, in which case
// [slog.Default] is used.
func NewServer(s *store.Store, logger *slog.Logger) *Server {
	if logger == nil {
		logger = slog.Default()
	}

	srv := &Server{store: s, log: logger, mux: http.NewServeMux()}
	srv.routes()

	return srv
}

func (s *Server) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	s.mux.ServeHTTP(w, r)
}

func (s *Server) routes() {
	s.mux.HandleFunc("GET /healthz", s.handleHealthz)
	s.mux.HandleFunc("GET /api/v1/stats", s.handleStats)
	s.mux.HandleFunc("POST /api/v1/add_node", s.handleNodeOp(s.store.AddNode))
	s.mux.HandleFunc("POST /api/v1/remove_node", s.handleNodeOp(s.store.RemoveNode))
	s.mux.HandleFunc("POST /api/v1/get_node", s.handleGetNode)
	s.mux.HandleFunc("POST /api/v1/get_neighbors", s.handleGetNeighbors)
	s.mux.HandleFunc("POST /api/v1/add_edge", s.handleEdgeOp(s.store.AddEdge))
	s.mux.HandleFunc("POST /api/v1/remove_edge", s.handleEdgeOp(s.store.RemoveEdge))
	s.mux.HandleFunc("POST /api/v1/get_edge", s.handleGetEdge)
	s.mux.HandleFunc("POST /api/v1/shortest_path", s.handleShortestPath)
	s.mux.HandleFunc("POST /api/v1/checkpoint", s.handleCheckpoint)
}

type nodeRequest struct {
	NodeID uint64 `json:"node_id"` //nolint:tagliatelle
}

type edgeRequest struct {
	NodeAID uint64 `json:"node_a_id"` //nolint:tagliatelle
	NodeBID uint64 `json:"node_b_id"` //nolint:tagliatelle
}

func decode[T any](r *http.Request) (T, bool) {
	var v T

	if err := json.NewDecoder(r.Body).Decode(&v); err != nil {
		var zero T
		return zero, false
	}

	return v, true
}

func writeJSON(w http.ResponseWriter, status int, body any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)

	if body != nil {
		_ = json.NewEncoder(w).Encode(body)
	}
}

// resultStatus maps a [store.Result] to its HTTP status per §6.
func resultStatus(res store.Result) int {
	switch res {
	case store.ResultOK:
		return http.StatusOK
	case store.ResultNoOp:
		return http.StatusNoContent
	default:
		return http.StatusBadRequest
	}
}

// writeStoreError maps a durability error to its HTTP status: a full log
// surfaces as 507 per §6, anything else is a 500 — the core otherwise
// only returns semantic codes, per §7's propagation policy.
func (s *Server) writeStoreError(w http.ResponseWriter, err error) {
	if durability.IsLogFull(err) {
		writeJSON(w, http.StatusInsufficientStorage, nil)
		return
	}

	s.log.Error("durability error", "err", err)
	writeJSON(w, http.StatusInternalServerError, nil)
}

type healthzResponse struct {
	OK         bool   `json:"ok"`
	Generation uint32 `json:"generation"`
	Tail       uint32 `json:"tail"`
}

// handleHealthz never touches the device; it reads only in-memory
// durability state under the store's mutex, per §4.7.
func (s *Server) handleHealthz(w http.ResponseWriter, _ *http.Request) {
	st := s.store.Stats()
	writeJSON(w, http.StatusOK, healthzResponse{OK: true, Generation: st.Generation, Tail: st.Tail})
}

type statsResponse struct {
	NSize      int    `json:"nsize"`
	ESize      int    `json:"esize"`
	Generation uint32 `json:"generation"`
	Tail       uint32 `json:"tail"`
	LogFull    bool   `json:"log_full"`
}

func (s *Server) handleStats(w http.ResponseWriter, _ *http.Request) {
	st := s.store.Stats()
	writeJSON(w, http.StatusOK, statsResponse{NSize: st.Nodes, ESize: st.Edges, Generation: st.Generation, Tail: st.Tail, LogFull: st.LogFull})
}

func (s *Server) handleNodeOp(op func(uint64) (store.Result, error)) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		req, ok := decode[nodeRequest](r)
		if !ok {
			writeJSON(w, http.StatusBadRequest, nil)
			return
		}

		res, err := op(req.NodeID)
		if err != nil {
			s.writeStoreError(w, err)
			return
		}

		writeJSON(w, resultStatus(res), nodeRequest{NodeID: req.NodeID})
	}
}

func (s *Server) handleEdgeOp(op func(uint64, uint64) (store.Result, error)) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		req, ok := decode[edgeRequest](r)
		if !ok {
			writeJSON(w, http.StatusBadRequest, nil)
			return
		}

		res, err := op(req.NodeAID, req.NodeBID)
		if err != nil {
			s.writeStoreError(w, err)
			return
		}

		writeJSON(w, resultStatus(res), edgeRequest{NodeAID: req.NodeAID, NodeBID: req.NodeBID})
	}
}

func (s *Server) handleGetNode(w http.ResponseWriter, r *http.Request) {
	req, ok := decode[nodeRequest](r)
	if !ok {
		writeJSON(w, http.StatusBadRequest, nil)
		return
	}

	inGraph := 0
	if s.store.GetNode(req.NodeID) {
		inGraph = 1
	}

	writeJSON(w, http.StatusOK, map[string]int{"in_graph": inGraph})
}

func (s *Server) handleGetEdge(w http.ResponseWriter, r *http.Request) {
	req, ok := decode[edgeRequest](r)
	if !ok {
		writeJSON(w, http.StatusBadRequest, nil)
		return
	}

	inGraph := 0
	if s.store.GetEdge(req.NodeAID, req.NodeBID) {
		inGraph = 1
	}

	writeJSON(w, http.StatusOK, map[string]int{"in_graph": inGraph})
}

func (s *Server) handleGetNeighbors(w http.ResponseWriter, r *http.Request) {
	req, ok := decode[nodeRequest](r)
	if !ok {
		writeJSON(w, http.StatusBadRequest, nil)
		return
	}

	neighbors, exists := s.store.GetNeighbors(req.NodeID)
	if !exists {
		writeJSON(w, http.StatusBadRequest, nil)
		return
	}

	writeJSON(w, http.StatusOK, map[string]any{"node_id": req.NodeID, "neighbors": neighbors})
}

func (s *Server) handleShortestPath(w http.ResponseWriter, r *http.Request) {
	req, ok := decode[edgeRequest](r)
	if !ok {
		writeJSON(w, http.StatusBadRequest, nil)
		return
	}

	distance, exists := s.store.ShortestPath(req.NodeAID, req.NodeBID)
	if !exists {
		writeJSON(w, http.StatusBadRequest, nil)
		return
	}

	if distance < 0 {
		writeJSON(w, http.StatusNoContent, nil)
		return
	}

	writeJSON(w, http.StatusOK, map[string]int{"distance": distance})
}

func (s *Server) handleCheckpoint(w http.ResponseWriter, _ *http.Request) {
	if err := s.store.Checkpoint(); err != nil {
		s.writeStoreError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, nil)
}

// NewHTTPServer builds an [*http.Server] around srv with conservative
// timeouts; graphd has no streaming endpoints.
func NewHTTPServer(addr string, srv *Server) *http.Server {
	return &http.Server{
		Addr:              addr,
		Handler:           srv,
		ReadHeaderTimeout: 5 * time.Second,
	}
}
