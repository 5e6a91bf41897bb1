package api

import (
	"encoding/json"
	"net/http"
)

type analyzeRequest struct {
	ContractText string `json:"contract_text"`
}

type questionRequest struct {
	Question     string `json:"question"`
	ContractText string `json:"contract_text"`
}

type emailRequest struct {
	ContractText string   `json:"contract_text"`
	Tone         string   `json:"tone"`
	Issues       []string `json:"issues"`
}

func (s *Server) handleAnalyze(w http.ResponseWriter, r *http.Request) {
	var req analyzeRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "Invalid JSON payload")
		return
	}
	if req.ContractText == "" {
		writeError(w, http.StatusBadRequest, "No contract text provided")
		return
	}
	if s.config.AI == nil {
		writeError(w, http.StatusInternalServerError, "Analysis failed: AI not configured")
		return
	}

	analysis, err := s.config.AI.AnalyzeContract(r.Context(), req.ContractText)
	if err != nil {
		writeError(w, http.StatusInternalServerError, "Analysis failed: %v", err)
		return
	}

	writeJSON(w, http.StatusOK, analysis)
}

func (s *Server) handleAskQuestion(w http.ResponseWriter, r *http.Request) {
	var req questionRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "Invalid JSON payload")
		return
	}
	if req.Question == "" || req.ContractText == "" {
		writeError(w, http.StatusBadRequest, "Question and contract text are required")
		return
	}
	if s.config.AI == nil {
		writeError(w, http.StatusInternalServerError, "Question answering failed: AI not configured")
		return
	}

	answer, err := s.config.AI.AnswerContractQuestion(r.Context(), req.Question, req.ContractText)
	if err != nil {
		writeError(w, http.StatusInternalServerError, "Question answering failed: %v", err)
		return
	}

	writeJSON(w, http.StatusOK, map[string]string{
		"question": req.Question,
		"answer":   answer,
	})
}

func (s *Server) handleGenerateEmail(w http.ResponseWriter, r *http.Request) {
	var req emailRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "Invalid JSON payload")
		return
	}
	if req.ContractText == "" {
		writeError(w, http.StatusBadRequest, "No contract text provided")
		return
	}
	if s.config.AI == nil {
		writeError(w, http.StatusInternalServerError, "Email generation failed: AI not configured")
		return
	}

	email := s.config.AI.GenerateNegotiationEmail(r.Context(), req.ContractText, req.Tone, req.Issues)
	writeJSON(w, http.StatusOK, email)
}
