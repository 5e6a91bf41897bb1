package api

import (
	"bytes"
	"errors"
	"io"
	"net/http"
	"path/filepath"

	"github.com/go-chi/chi/v5"

	"github.com/contractai/backend/pkg/ai"
	"github.com/contractai/backend/pkg/contracts"
	"github.com/contractai/backend/pkg/ledger"
)

const (
	maxUploadBytes   = 32 << 20 // 32 MB
	textPreviewLimit = 1000
)

func (s *Server) handleUpload(w http.ResponseWriter, r *http.Request) {
	r.Body = http.MaxBytesReader(w, r.Body, maxUploadBytes)

	file, header, err := r.FormFile("file")
	if err != nil {
		writeError(w, http.StatusBadRequest, "No file provided")
		return
	}
	defer file.Close()

	if header.Filename == "" {
		writeError(w, http.StatusBadRequest, "No file provided")
		return
	}

	data, err := io.ReadAll(file)
	if err != nil {
		writeError(w, http.StatusInternalServerError, "Error processing file: %v", err)
		return
	}

	doc, err := s.config.Contracts.Save(header.Filename, bytes.NewReader(data))
	if errors.Is(err, contracts.ErrUnsupportedType) {
		writeError(w, http.StatusBadRequest, "Unsupported file type. Allowed: [.pdf .docx .txt]")
		return
	}
	if err != nil {
		writeError(w, http.StatusInternalServerError, "Error processing file: %v", err)
		return
	}

	extracted, err := contracts.ExtractText(header.Filename, data)
	if err != nil {
		writeError(w, http.StatusBadRequest, "Error extracting text: %v", err)
		return
	}

	analysis := s.analyzeOrFallback(r, extracted)

	preview := extracted
	if len([]rune(preview)) > textPreviewLimit {
		preview = string([]rune(preview)[:textPreviewLimit]) + "..."
	}

	writeJSON(w, http.StatusOK, map[string]any{
		"message":        "Contract uploaded and analyzed successfully",
		"filename":       doc.Filename,
		"saved_as":       doc.StoredName,
		"size":           doc.Size,
		"extracted_text": preview,
		"analysis":       analysis,
	})
}

// analyzeOrFallback returns a real analysis when the AI client is
// configured and working, and a placeholder otherwise. Uploads always
// succeed even when analysis does not.
func (s *Server) analyzeOrFallback(r *http.Request, text string) *ai.Analysis {
	if s.config.AI == nil {
		return analysisUnavailable("AI analysis failed: not configured")
	}

	analysis, err := s.config.AI.AnalyzeContract(r.Context(), text)
	if err != nil {
		s.config.Logger.Warn("contract analysis failed",
			ledger.Field{Key: "error", Value: err.Error()})
		return analysisUnavailable("AI analysis failed: " + err.Error())
	}
	return analysis
}

func analysisUnavailable(summary string) *ai.Analysis {
	return &ai.Analysis{
		Summary:    summary,
		KeyClauses: []ai.KeyClause{},
		Risks:      []ai.Risk{},
		RiskScore:  50,
	}
}

func (s *Server) handleListContracts(w http.ResponseWriter, _ *http.Request) {
	docs, err := s.config.Contracts.List()
	if err != nil {
		writeError(w, http.StatusInternalServerError, "Error listing contracts: %v", err)
		return
	}

	files := make([]map[string]any, 0, len(docs))
	for _, doc := range docs {
		files = append(files, map[string]any{
			"filename":   doc.StoredName,
			"size":       doc.Size,
			"created_at": doc.UploadedAt.Unix(),
			"extension":  filepath.Ext(doc.StoredName),
		})
	}

	writeJSON(w, http.StatusOK, map[string]any{
		"contracts": files,
		"count":     len(files),
	})
}

func (s *Server) handleDeleteContract(w http.ResponseWriter, r *http.Request) {
	filename := chi.URLParam(r, "filename")

	err := s.config.Contracts.Delete(filename)
	if errors.Is(err, contracts.ErrNotFound) {
		writeError(w, http.StatusNotFound, "Contract not found")
		return
	}
	if err != nil {
		writeError(w, http.StatusInternalServerError, "Error deleting contract: %v", err)
		return
	}

	writeJSON(w, http.StatusOK, map[string]string{
		"message": "Contract " + filename + " deleted successfully",
	})
}
