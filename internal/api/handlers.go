package api

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"

	"github.com/lunfardo314/widgetfl/formula"
)

// maxBodyBytes is far above any formula which can pass the token limit
const maxBodyBytes = 64 << 10

type HelperInfo struct {
	Name    string `json:"name"`
	MinArgs int    `json:"minArgs"`
	MaxArgs int    `json:"maxArgs"`
	Doc     string `json:"doc"`
}

type ErrorInfo struct {
	Kind     string `json:"kind"`
	Message  string `json:"message"`
	Position int    `json:"position"`
	Snippet  string `json:"snippet,omitempty"`
}

type ValidateRequest struct {
	Formula string `json:"formula"`
}

type ValidateResponse struct {
	Valid     bool       `json:"valid"`
	Canonical string     `json:"canonical,omitempty"`
	Error     *ErrorInfo `json:"error,omitempty"`
}

type EvaluateRequest struct {
	Formula string        `json:"formula"`
	Value   formula.Value `json:"value"`
	// Fallback, when present (null included), is returned instead of an error
	Fallback json.RawMessage `json:"fallback,omitempty"`
}

type EvaluateResponse struct {
	Result   formula.Value `json:"result"`
	Fallback bool          `json:"fallback,omitempty"`
	Error    *ErrorInfo    `json:"error,omitempty"`
}

func (s *Server) healthHandler(w http.ResponseWriter, _ *http.Request) {
	w.WriteHeader(http.StatusOK)
	w.Write([]byte(`{"status":"ok"}`))
}

func (s *Server) listHelpers(w http.ResponseWriter, _ *http.Request) {
	lib := formula.Helpers()
	ret := make([]HelperInfo, len(lib))
	for i, h := range lib {
		ret[i] = HelperInfo{
			Name:    h.Name,
			MinArgs: h.Arity.Min,
			MaxArgs: h.Arity.Max,
			Doc:     h.Doc,
		}
	}
	s.writeJSON(w, http.StatusOK, ret)
}

// validateFormula answers 200 for both valid and invalid formulas, the editor shows the diagnostics
func (s *Server) validateFormula(w http.ResponseWriter, r *http.Request) {
	var req ValidateRequest
	if !s.readJSON(w, r, &req) {
		return
	}
	f, err := s.cache.Get(req.Formula)
	if err != nil {
		s.writeJSON(w, http.StatusOK, ValidateResponse{Error: errorInfo(err)})
		return
	}
	s.writeJSON(w, http.StatusOK, ValidateResponse{Valid: true, Canonical: f.String()})
}

func (s *Server) evaluateFormula(w http.ResponseWriter, r *http.Request) {
	var req EvaluateRequest
	if !s.readJSON(w, r, &req) {
		return
	}
	var fallback *formula.Value
	if len(req.Fallback) > 0 {
		fallback = new(formula.Value)
		if err := json.Unmarshal(req.Fallback, fallback); err != nil {
			s.badRequest(w, fmt.Errorf("wrong fallback: %w", err))
			return
		}
	}

	ret, err := s.evaluate(req.Formula, req.Value)
	if err == nil {
		if _, encErr := json.Marshal(ret); encErr != nil {
			err = encErr
		}
	}
	switch {
	case err == nil:
		s.writeJSON(w, http.StatusOK, EvaluateResponse{Result: ret})
	case fallback != nil:
		s.log.Debugf("evaluate '%s': %v. Fallback to %#v", req.Formula, err, *fallback)
		s.writeJSON(w, http.StatusOK, EvaluateResponse{Result: *fallback, Fallback: true, Error: errorInfo(err)})
	default:
		s.writeJSON(w, http.StatusUnprocessableEntity, EvaluateResponse{Error: errorInfo(err)})
	}
}

func (s *Server) evaluate(source string, v formula.Value) (formula.Value, error) {
	f, err := s.cache.Get(source)
	if err != nil {
		return formula.Null(), err
	}
	return f.Evaluate(v)
}

func errorInfo(err error) *ErrorInfo {
	var ce *formula.CompileError
	var ee *formula.EvalError
	switch {
	case errors.As(err, &ce):
		return &ErrorInfo{
			Kind:     ce.Reason(),
			Message:  ce.Msg,
			Position: ce.Pos,
			Snippet:  ce.Snippet(),
		}
	case errors.As(err, &ee):
		return &ErrorInfo{
			Kind:     ee.Kind.String(),
			Message:  ee.Msg,
			Position: ee.Pos,
		}
	}
	return &ErrorInfo{Kind: "EncodingError", Message: err.Error(), Position: -1}
}

func (s *Server) readJSON(w http.ResponseWriter, r *http.Request, v interface{}) bool {
	dec := json.NewDecoder(http.MaxBytesReader(w, r.Body, maxBodyBytes))
	dec.DisallowUnknownFields()
	if err := dec.Decode(v); err != nil {
		s.badRequest(w, err)
		return false
	}
	return true
}

func (s *Server) badRequest(w http.ResponseWriter, err error) {
	s.writeJSON(w, http.StatusBadRequest, struct {
		Error string `json:"error"`
	}{err.Error()})
}

func (s *Server) writeJSON(w http.ResponseWriter, status int, v interface{}) {
	data, err := json.Marshal(v)
	if err != nil {
		s.log.Errorf("encoding response: %v", err)
		http.Error(w, err.Error(), http.StatusInternalServerError)
		return
	}
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	w.Write(data)
}
