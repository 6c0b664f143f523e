package api

import (
	"encoding/json"
	"net/http"
	"strings"

	"routeopt/internal/buildinfo"
	"routeopt/internal/model"
	"routeopt/internal/opt"
)

// OptimizeHandler runs the full optimization pipeline for one request.
func (s *Server) OptimizeHandler(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		writeProblem(w, http.StatusMethodNotAllowed, "method not allowed", "", r.URL.Path)
		return
	}
	var req model.OptimizationRequest
	if err := decodeJSON(r, &req); err != nil {
		writeProblem(w, http.StatusBadRequest, "invalid JSON", err.Error(), r.URL.Path)
		return
	}
	req.Owner = s.owner(r)
	res, err := s.Orch.Optimize(r.Context(), req)
	if err != nil {
		writeError(w, err, r.URL.Path)
		return
	}
	writeJSON(w, http.StatusOK, res)
}

// MultimodalPlanHandler enumerates and ranks multimodal route options for a
// point-to-point shipment.
func (s *Server) MultimodalPlanHandler(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		writeProblem(w, http.StatusMethodNotAllowed, "method not allowed", "", r.URL.Path)
		return
	}
	var req multimodalPlanRequest
	if err := decodeJSON(r, &req); err != nil {
		writeProblem(w, http.StatusBadRequest, "invalid JSON", err.Error(), r.URL.Path)
		return
	}
	if err := req.validate(); err != nil {
		writeError(w, err, r.URL.Path)
		return
	}
	routes := opt.PlanMultimodal(s.Cfg, req.Origin, req.Destination, req.Cargo)
	ranked := opt.RankMultimodal(s.Cfg, routes, req.Weights)
	for _, rt := range ranked {
		if err := opt.ValidateLegChain(rt); err != nil {
			writeProblem(w, http.StatusInternalServerError, "internal error", err.Error(), r.URL.Path)
			return
		}
	}
	writeJSON(w, http.StatusOK, map[string]any{"routes": ranked})
}

// ValidateHandler checks a route against constraints without modifying it.
func (s *Server) ValidateHandler(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		writeProblem(w, http.StatusMethodNotAllowed, "method not allowed", "", r.URL.Path)
		return
	}
	var req validateRequest
	if err := decodeJSON(r, &req); err != nil {
		writeProblem(w, http.StatusBadRequest, "invalid JSON", err.Error(), r.URL.Path)
		return
	}
	writeJSON(w, http.StatusOK, opt.Validate(req.Route, req.Constraints))
}

// SimulateHandler evaluates a route under what-if context scenarios.
func (s *Server) SimulateHandler(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		writeProblem(w, http.StatusMethodNotAllowed, "method not allowed", "", r.URL.Path)
		return
	}
	var req simulateRequest
	if err := decodeJSON(r, &req); err != nil {
		writeProblem(w, http.StatusBadRequest, "invalid JSON", err.Error(), r.URL.Path)
		return
	}
	if err := req.validate(); err != nil {
		writeError(w, err, r.URL.Path)
		return
	}
	writeJSON(w, http.StatusOK, opt.Simulate(s.Cfg, req.Route, req.Vehicle, req.Context, req.Constraints, req.Scenarios))
}

// CompareHandler picks per-criterion winners among enriched routes.
func (s *Server) CompareHandler(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		writeProblem(w, http.StatusMethodNotAllowed, "method not allowed", "", r.URL.Path)
		return
	}
	var req compareRequest
	if err := decodeJSON(r, &req); err != nil {
		writeProblem(w, http.StatusBadRequest, "invalid JSON", err.Error(), r.URL.Path)
		return
	}
	res, err := opt.Compare(req.Routes, req.Criteria)
	if err != nil {
		writeError(w, err, r.URL.Path)
		return
	}
	writeJSON(w, http.StatusOK, res)
}

// SavedRoutesHandler lists (GET, optional ?search=) and creates (POST) saved
// routes for the caller.
func (s *Server) SavedRoutesHandler(w http.ResponseWriter, r *http.Request) {
	owner := s.owner(r)
	switch r.Method {
	case http.MethodGet:
		routes, err := s.Store.ListSavedRoutes(r.Context(), r.URL.Query().Get("search"), owner)
		if err != nil {
			writeError(w, err, r.URL.Path)
			return
		}
		writeJSON(w, http.StatusOK, map[string]any{"routes": routes})
	case http.MethodPost:
		var req saveRouteRequest
		if err := decodeJSON(r, &req); err != nil {
			writeProblem(w, http.StatusBadRequest, "invalid JSON", err.Error(), r.URL.Path)
			return
		}
		if err := req.validate(); err != nil {
			writeError(w, err, r.URL.Path)
			return
		}
		saved, err := s.Store.SaveRoute(r.Context(), req.Payload, req.Name, req.Description, owner)
		if err != nil {
			writeError(w, err, r.URL.Path)
			return
		}
		writeJSON(w, http.StatusCreated, saved)
	default:
		writeProblem(w, http.StatusMethodNotAllowed, "method not allowed", "", r.URL.Path)
	}
}

// SavedRouteByIDHandler serves /v1/saved-routes/{id} and the
// /v1/saved-routes/{id}/reoptimize action.
func (s *Server) SavedRouteByIDHandler(w http.ResponseWriter, r *http.Request) {
	owner := s.owner(r)
	rest := strings.TrimPrefix(r.URL.Path, "/v1/saved-routes/")
	id, action, _ := strings.Cut(rest, "/")
	if id == "" {
		writeProblem(w, http.StatusNotFound, "not found", "", r.URL.Path)
		return
	}

	if action == "reoptimize" {
		if r.Method != http.MethodPost {
			writeProblem(w, http.StatusMethodNotAllowed, "method not allowed", "", r.URL.Path)
			return
		}
		saved, err := s.Store.TouchSavedRoute(r.Context(), id, owner)
		if err != nil {
			writeError(w, err, r.URL.Path)
			return
		}
		var req model.OptimizationRequest
		if err := json.Unmarshal(saved.Payload, &req); err != nil {
			writeProblem(w, http.StatusUnprocessableEntity, "invalid saved payload", err.Error(), r.URL.Path)
			return
		}
		req.RequestID = ""
		req.Owner = owner
		res, err := s.Orch.Optimize(r.Context(), req)
		if err != nil {
			writeError(w, err, r.URL.Path)
			return
		}
		writeJSON(w, http.StatusOK, res)
		return
	}
	if action != "" {
		writeProblem(w, http.StatusNotFound, "not found", "", r.URL.Path)
		return
	}

	switch r.Method {
	case http.MethodGet:
		saved, err := s.Store.GetSavedRoute(r.Context(), id, owner)
		if err != nil {
			writeError(w, err, r.URL.Path)
			return
		}
		writeJSON(w, http.StatusOK, saved)
	case http.MethodDelete:
		if err := s.Store.DeleteSavedRoute(r.Context(), id, owner); err != nil {
			writeError(w, err, r.URL.Path)
			return
		}
		w.WriteHeader(http.StatusNoContent)
	default:
		writeProblem(w, http.StatusMethodNotAllowed, "method not allowed", "", r.URL.Path)
	}
}

// SubscriptionsHandler lists (GET) and creates (POST) webhook subscriptions.
func (s *Server) SubscriptionsHandler(w http.ResponseWriter, r *http.Request) {
	owner := s.owner(r)
	switch r.Method {
	case http.MethodGet:
		subs, err := s.Store.ListSubscriptions(r.Context(), owner)
		if err != nil {
			writeError(w, err, r.URL.Path)
			return
		}
		writeJSON(w, http.StatusOK, map[string]any{"subscriptions": subs})
	case http.MethodPost:
		var req model.SubscriptionRequest
		if err := decodeJSON(r, &req); err != nil {
			writeProblem(w, http.StatusBadRequest, "invalid JSON", err.Error(), r.URL.Path)
			return
		}
		if err := validateSubscription(req); err != nil {
			writeError(w, err, r.URL.Path)
			return
		}
		req.Owner = owner
		sub, err := s.Store.CreateSubscription(r.Context(), req)
		if err != nil {
			writeError(w, err, r.URL.Path)
			return
		}
		sub.Secret = ""
		writeJSON(w, http.StatusCreated, sub)
	default:
		writeProblem(w, http.StatusMethodNotAllowed, "method not allowed", "", r.URL.Path)
	}
}

func (s *Server) SubscriptionByIDHandler(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodDelete {
		writeProblem(w, http.StatusMethodNotAllowed, "method not allowed", "", r.URL.Path)
		return
	}
	id := strings.TrimPrefix(r.URL.Path, "/v1/subscriptions/")
	if err := s.Store.DeleteSubscription(r.Context(), id, s.owner(r)); err != nil {
		writeError(w, err, r.URL.Path)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (s *Server) HealthHandler(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]any{"status": "ok", "build": buildinfo.Info()})
}

func (s *Server) ReadyHandler(w http.ResponseWriter, r *http.Request) {
	// the store is wired at startup; a live check would ping it here
	writeJSON(w, http.StatusOK, map[string]any{"status": "ready", "solvers": s.Orch.SolverNames()})
}
