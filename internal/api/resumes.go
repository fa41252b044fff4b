package api

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/spigell/resume-coach/internal/resume"
	"go.uber.org/zap"
)

type resumeResponse struct {
	UserID            string           `json:"user_id"`
	Resume            *resume.Resume   `json:"resume"`
	Analysis          *resume.Analysis `json:"analysis"`
	CompletenessScore float64          `json:"completeness_score"`
}

// GetResume returns the current structured résumé and analysis of an applicant.
func (h *Handler) GetResume(w http.ResponseWriter, r *http.Request) {
	userID := chi.URLParam(r, "user_id")

	doc, analysis, err := h.resumes.GetCurrent(r.Context(), userID)
	if err != nil {
		h.fail(w, r, err)
		return
	}

	JSON(w, http.StatusOK, resumeResponse{
		UserID:            userID,
		Resume:            doc,
		Analysis:          analysis,
		CompletenessScore: doc.CompletenessScore(),
	})
}

type putResumeRequest struct {
	Resume   json.RawMessage `json:"resume"`
	Analysis map[string]any  `json:"analysis"`
}

// PutResume stores the structured résumé and analysis of an applicant.
func (h *Handler) PutResume(w http.ResponseWriter, r *http.Request) {
	userID := chi.URLParam(r, "user_id")

	var req putResumeRequest
	if err := json.NewDecoder(http.MaxBytesReader(w, r.Body, maxBodyBytes)).Decode(&req); err != nil {
		Error(w, http.StatusBadRequest, "invalid request body")
		return
	}
	if len(req.Resume) == 0 {
		Error(w, http.StatusBadRequest, "resume is required")
		return
	}

	doc, err := resume.Parse(string(req.Resume))
	if err != nil {
		Error(w, http.StatusBadRequest, err.Error())
		return
	}

	var analysis *resume.Analysis
	if req.Analysis != nil {
		analysis, err = resume.DecodeAnalysis(req.Analysis)
		if err != nil {
			status := http.StatusInternalServerError
			if errors.Is(err, resume.ErrInvalid) {
				status = http.StatusBadRequest
			}
			Error(w, status, err.Error())
			return
		}
	}

	if err := h.resumes.Put(r.Context(), userID, doc, analysis); err != nil {
		h.fail(w, r, err)
		return
	}

	h.logger.Info("resume stored",
		zap.String("user_id", userID),
		zap.Int("questions", len(analysis.Questions())),
	)
	JSON(w, http.StatusOK, map[string]any{
		"user_id":            userID,
		"questions":          len(analysis.Questions()),
		"completeness_score": doc.CompletenessScore(),
	})
}
