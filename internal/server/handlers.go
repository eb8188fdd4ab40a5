package server

import (
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"strings"

	"go.uber.org/zap"

	"github.com/spigell/internship-matcher/internal/document"
	"github.com/spigell/internship-matcher/internal/embedding"
	"github.com/spigell/internship-matcher/internal/matching"
	"github.com/spigell/internship-matcher/internal/skills"
)

const uploadField = "file"

type uploadResponse struct {
	ResumeText      string          `json:"resume_text"`
	ExtractedSkills skills.SkillSet `json:"extracted_skills"`
}

type matchRequest struct {
	ResumeText string `json:"resume_text"`
	Limit      *int   `json:"limit,omitempty"`
}

type matchResponse struct {
	Results []*matching.MatchResult `json:"results"`
}

type errorResponse struct {
	Error string `json:"error"`
}

func (s *Server) handleUpload(w http.ResponseWriter, r *http.Request) {
	maxBytes := int64(s.cfg.MaxUploadMB) << 20
	r.Body = http.MaxBytesReader(w, r.Body, maxBytes)

	if err := r.ParseMultipartForm(maxBytes); err != nil {
		var tooLarge *http.MaxBytesError
		if errors.As(err, &tooLarge) {
			s.writeError(w, http.StatusRequestEntityTooLarge, "uploaded file is too large")
			return
		}
		s.writeError(w, http.StatusBadRequest, "multipart form with a file field is required")
		return
	}
	defer r.MultipartForm.RemoveAll()

	file, header, err := r.FormFile(uploadField)
	if err != nil {
		s.writeError(w, http.StatusBadRequest, "file is required")
		return
	}
	defer file.Close()

	data, err := io.ReadAll(file)
	if err != nil {
		s.writeError(w, http.StatusBadRequest, "reading uploaded file failed")
		return
	}
	if len(data) == 0 {
		s.writeError(w, http.StatusBadRequest, "uploaded file is empty")
		return
	}

	text, err := document.ExtractText(header.Filename, data)
	if err != nil {
		if errors.Is(err, document.ErrUnsupportedFormat) {
			s.writeError(w, http.StatusUnsupportedMediaType, "only .pdf, .docx and .txt files are supported")
			return
		}
		s.logger.Warn("extracting resume text", zap.String("filename", header.Filename), zap.Error(err))
		s.writeError(w, http.StatusUnprocessableEntity, "could not read text from the uploaded file")
		return
	}

	found := s.ranker.ExtractSkills(text)

	s.logger.Info("resume uploaded",
		zap.String("filename", header.Filename),
		zap.Int("bytes", len(data)),
		zap.Int("extracted_skills", found.Len()),
	)

	s.writeJSON(w, http.StatusOK, uploadResponse{ResumeText: text, ExtractedSkills: found})
}

func (s *Server) handleMatch(w http.ResponseWriter, r *http.Request) {
	r.Body = http.MaxBytesReader(w, r.Body, int64(s.cfg.MaxUploadMB)<<20)

	var req matchRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		var tooLarge *http.MaxBytesError
		if errors.As(err, &tooLarge) {
			s.writeError(w, http.StatusRequestEntityTooLarge, "request body is too large")
			return
		}
		s.writeError(w, http.StatusBadRequest, "request body must be a JSON object")
		return
	}

	if strings.TrimSpace(req.ResumeText) == "" {
		s.writeError(w, http.StatusBadRequest, "resume_text is required")
		return
	}

	limit := s.cfg.DefaultLimit
	if req.Limit != nil {
		limit = *req.Limit
	}

	results, err := s.ranker.Rank(r.Context(), req.ResumeText, s.postings, limit)
	if err != nil {
		var providerErr *embedding.ProviderError
		if errors.As(err, &providerErr) {
			s.writeError(w, http.StatusBadGateway, "embedding provider failed")
			return
		}
		s.logger.Error("ranking resume", zap.Error(err))
		s.writeError(w, http.StatusInternalServerError, "ranking failed")
		return
	}

	s.writeJSON(w, http.StatusOK, matchResponse{Results: results})
}

func (s *Server) handleHealth(w http.ResponseWriter, _ *http.Request) {
	s.writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

func (s *Server) writeJSON(w http.ResponseWriter, code int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		s.logger.Warn("writing response", zap.Error(err))
	}
}

func (s *Server) writeError(w http.ResponseWriter, code int, msg string) {
	s.writeJSON(w, code, errorResponse{Error: msg})
}
