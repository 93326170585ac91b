package server

import (
	"encoding/json"
	"errors"
	"net/http"
	"strconv"
)

// ErrorResponse is the TMF-style error body: a stringified status code plus
// a human-readable reason.
type ErrorResponse struct {
	Code   string `json:"code"`
	Reason string `json:"reason"`
}

func writeJSON(w http.ResponseWriter, status int, data any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if data != nil {
		_ = json.NewEncoder(w).Encode(data)
	}
}

// writeError writes an error response.
func writeError(w http.ResponseWriter, status int, reason string) {
	writeJSON(w, status, ErrorResponse{
		Code:   strconv.Itoa(status),
		Reason: reason,
	})
}

// statusCoder is implemented by store and hub errors.
type statusCoder interface {
	error
	StatusCode() int
}

// writeOperationError maps typed errors to their status code; anything else
// is an internal error.
func writeOperationError(w http.ResponseWriter, err error) {
	var sc statusCoder
	if errors.As(err, &sc) {
		writeError(w, sc.StatusCode(), err.Error())
		return
	}
	writeError(w, http.StatusInternalServerError, err.Error())
}

func decodeBody(w http.ResponseWriter, r *http.Request) (map[string]any, bool) {
	var body map[string]any
	if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
		writeError(w, http.StatusBadRequest, "invalid JSON body: "+err.Error())
		return nil, false
	}
	return body, true
}

func (s *Server) handleList(resource string) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		query := r.URL.Query()
		where := query.Get("where")
		query.Del("where")

		filter := make(map[string]string, len(query))
		for field := range query {
			filter[field] = query.Get(field)
		}

		records, err := s.engine.ListRecords(r.Context(), resource, filter, where)
		if err != nil {
			writeOperationError(w, err)
			return
		}
		writeJSON(w, http.StatusOK, records)
	}
}

func (s *Server) handleGet(resource string) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		record, err := s.engine.GetRecord(r.Context(), resource, r.PathValue("id"))
		if err != nil {
			writeOperationError(w, err)
			return
		}
		writeJSON(w, http.StatusOK, record)
	}
}

func (s *Server) handleCreate(resource string) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		body, ok := decodeBody(w, r)
		if !ok {
			return
		}
		record, err := s.engine.CreateRecord(r.Context(), resource, body)
		if err != nil {
			writeOperationError(w, err)
			return
		}
		writeJSON(w, http.StatusCreated, record)
	}
}

func (s *Server) handleUpdate(resource string) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		body, ok := decodeBody(w, r)
		if !ok {
			return
		}
		record, err := s.engine.UpdateRecord(r.Context(), resource, r.PathValue("id"), body)
		if err != nil {
			writeOperationError(w, err)
			return
		}
		writeJSON(w, http.StatusOK, record)
	}
}

func (s *Server) handlePatch(resource string) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		body, ok := decodeBody(w, r)
		if !ok {
			return
		}
		record, err := s.engine.PatchRecord(r.Context(), resource, r.PathValue("id"), body)
		if err != nil {
			writeOperationError(w, err)
			return
		}
		writeJSON(w, http.StatusOK, record)
	}
}

func (s *Server) handleDelete(resource string) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if err := s.engine.DeleteRecord(r.Context(), resource, r.PathValue("id")); err != nil {
			writeOperationError(w, err)
			return
		}
		w.WriteHeader(http.StatusNoContent)
	}
}

func (s *Server) handleListResources(w http.ResponseWriter, r *http.Request) {
	infos, err := s.engine.ListResources(r.Context())
	if err != nil {
		writeOperationError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, infos)
}

// subscribeRequest is the TMF hub registration body.
type subscribeRequest struct {
	Callback string `json:"callback"`
	Query    string `json:"query,omitempty"`
}

func (s *Server) handleSubscribe(w http.ResponseWriter, r *http.Request) {
	var req subscribeRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid JSON body: "+err.Error())
		return
	}

	sub, err := s.engine.CreateSubscription(r.Context(), req.Callback, req.Query)
	if err != nil {
		writeOperationError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, sub)
}

func (s *Server) handleListSubscriptions(w http.ResponseWriter, r *http.Request) {
	subs, err := s.engine.ListSubscriptions(r.Context())
	if err != nil {
		writeOperationError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, subs)
}

func (s *Server) handleUnsubscribe(w http.ResponseWriter, r *http.Request) {
	if err := s.engine.DeleteSubscription(r.Context(), r.PathValue("id")); err != nil {
		writeOperationError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	health, err := s.engine.Health(r.Context())
	if err != nil {
		writeOperationError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, health)
}

// debugState is the full engine state view returned by /__debug/state.
type debugState struct {
	Resources map[string][]map[string]any `json:"resources"`
	Hub       any                         `json:"hub"`
	Metrics   any                         `json:"metrics"`
}

func (s *Server) handleDebugState(w http.ResponseWriter, r *http.Request) {
	dump, err := s.engine.Dump(r.Context(), r.URL.Query().Get("resource"))
	if err != nil {
		writeOperationError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, debugState{
		Resources: dump,
		Hub:       s.engine.HubStats(),
		Metrics:   s.engine.Metrics(),
	})
}

// resetResponse reports which resources a reset touched.
type resetResponse struct {
	Reset     bool     `json:"reset"`
	Resources []string `json:"resources"`
}

func (s *Server) handleDebugReset(w http.ResponseWriter, r *http.Request) {
	names, err := s.engine.Reset(r.Context())
	if err != nil {
		writeOperationError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, resetResponse{Reset: true, Resources: names})
}

func (s *Server) handleDebugError(w http.ResponseWriter, r *http.Request) {
	code, err := strconv.Atoi(r.PathValue("code"))
	if err != nil {
		writeError(w, http.StatusBadRequest, "status code must be numeric")
		return
	}

	status, body, err := s.engine.SimulateError(r.Context(), code)
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	writeJSON(w, status, body)
}
