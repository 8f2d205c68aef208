package handlers

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"time"

	"github.com/google/uuid"
	"github.com/gorilla/mux"

	"matSideAPI/internal/pricing"
	"matSideAPI/internal/types/enrollment"
	"matSideAPI/internal/types/school"
	"matSideAPI/middleware"
	"matSideAPI/services"
)

type SchoolHandler struct {
	schoolService *services.SchoolService
}

func NewSchoolHandler(schoolService *services.SchoolService) *SchoolHandler {
	return &SchoolHandler{
		schoolService: schoolService,
	}
}

func (h *SchoolHandler) CreateSchool(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), 5*time.Second)
	defer cancel()

	clerkID, ok := middleware.GetClerkID(ctx)
	if !ok {
		respondWithError(w, http.StatusUnauthorized, "User not authenticated")
		return
	}

	var req school.CreateSchoolRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondWithError(w, http.StatusBadRequest, "Invalid request body")
		return
	}
	if req.Name == "" {
		respondWithError(w, http.StatusBadRequest, "Name is required")
		return
	}

	sc, err := h.schoolService.CreateSchool(ctx, clerkID, &req)
	if err != nil {
		if respondWithPricingError(w, err) {
			return
		}
		respondWithError(w, http.StatusInternalServerError, err.Error())
		return
	}

	respondWithJSON(w, http.StatusCreated, sc)
}

func (h *SchoolHandler) GetSchool(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), 5*time.Second)
	defer cancel()

	schoolID, err := uuid.Parse(mux.Vars(r)["schoolID"])
	if err != nil {
		respondWithError(w, http.StatusBadRequest, "Invalid school id")
		return
	}

	sc, err := h.schoolService.GetSchool(ctx, schoolID)
	if err != nil {
		respondWithError(w, http.StatusNotFound, "School not found")
		return
	}

	respondWithJSON(w, http.StatusOK, sc)
}

func (h *SchoolHandler) ListSchools(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), 5*time.Second)
	defer cancel()

	schools, err := h.schoolService.ListSchools(ctx, r.URL.Query().Get("city"))
	if err != nil {
		respondWithError(w, http.StatusInternalServerError, err.Error())
		return
	}

	respondWithJSON(w, http.StatusOK, schools)
}

func (h *SchoolHandler) UpdateSchool(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), 5*time.Second)
	defer cancel()

	clerkID, ok := middleware.GetClerkID(ctx)
	if !ok {
		respondWithError(w, http.StatusUnauthorized, "User not authenticated")
		return
	}

	schoolID, err := uuid.Parse(mux.Vars(r)["schoolID"])
	if err != nil {
		respondWithError(w, http.StatusBadRequest, "Invalid school id")
		return
	}

	var req school.UpdateSchoolRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondWithError(w, http.StatusBadRequest, "Invalid request body")
		return
	}

	sc, err := h.schoolService.UpdateSchool(ctx, clerkID, schoolID, &req)
	if err != nil {
		if respondWithPricingError(w, err) {
			return
		}
		respondWithError(w, http.StatusInternalServerError, err.Error())
		return
	}

	respondWithJSON(w, http.StatusOK, sc)
}

func (h *SchoolHandler) RequestEnrollment(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), 5*time.Second)
	defer cancel()

	clerkID, ok := middleware.GetClerkID(ctx)
	if !ok {
		respondWithError(w, http.StatusUnauthorized, "User not authenticated")
		return
	}

	var req enrollment.RequestEnrollmentRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondWithError(w, http.StatusBadRequest, "Invalid request body")
		return
	}

	enr, err := h.schoolService.RequestEnrollment(ctx, clerkID, &req)
	if err != nil {
		respondWithError(w, http.StatusInternalServerError, err.Error())
		return
	}

	respondWithJSON(w, http.StatusCreated, enr)
}

func (h *SchoolHandler) ReviewEnrollment(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), 5*time.Second)
	defer cancel()

	clerkID, ok := middleware.GetClerkID(ctx)
	if !ok {
		respondWithError(w, http.StatusUnauthorized, "User not authenticated")
		return
	}

	enrollmentID, err := uuid.Parse(mux.Vars(r)["enrollmentID"])
	if err != nil {
		respondWithError(w, http.StatusBadRequest, "Invalid enrollment id")
		return
	}

	var req enrollment.ReviewEnrollmentRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondWithError(w, http.StatusBadRequest, "Invalid request body")
		return
	}

	enr, err := h.schoolService.ReviewEnrollment(ctx, clerkID, enrollmentID, req.Approve)
	if err != nil {
		respondWithError(w, http.StatusInternalServerError, err.Error())
		return
	}

	respondWithJSON(w, http.StatusOK, enr)
}

func (h *SchoolHandler) ListEnrollments(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), 5*time.Second)
	defer cancel()

	clerkID, ok := middleware.GetClerkID(ctx)
	if !ok {
		respondWithError(w, http.StatusUnauthorized, "User not authenticated")
		return
	}

	schoolID, err := uuid.Parse(mux.Vars(r)["schoolID"])
	if err != nil {
		respondWithError(w, http.StatusBadRequest, "Invalid school id")
		return
	}

	status := enrollment.Status(r.URL.Query().Get("status"))

	list, err := h.schoolService.ListEnrollments(ctx, clerkID, schoolID, status)
	if err != nil {
		respondWithError(w, http.StatusInternalServerError, err.Error())
		return
	}

	respondWithJSON(w, http.StatusOK, list)
}

func (h *SchoolHandler) ListMyEnrollments(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), 5*time.Second)
	defer cancel()

	clerkID, ok := middleware.GetClerkID(ctx)
	if !ok {
		respondWithError(w, http.StatusUnauthorized, "User not authenticated")
		return
	}

	list, err := h.schoolService.ListMyEnrollments(ctx, clerkID)
	if err != nil {
		respondWithError(w, http.StatusInternalServerError, err.Error())
		return
	}

	respondWithJSON(w, http.StatusOK, list)
}

// respondWithPricingError maps the pricing validation errors to 422 payloads
// the app can render field by field. Returns false when err is neither.
func respondWithPricingError(w http.ResponseWriter, err error) bool {
	var oor *pricing.OutOfRangeError
	if errors.As(err, &oor) {
		respondWithJSON(w, http.StatusUnprocessableEntity, map[string]any{
			"field":  "price",
			"reason": "out_of_range",
			"min":    oor.Min,
			"max":    oor.Max,
		})
		return true
	}

	var invalid *pricing.InvalidPolicyError
	if errors.As(err, &invalid) {
		respondWithJSON(w, http.StatusUnprocessableEntity, map[string]any{
			"error":      "invalid policy",
			"violations": invalid.Fields,
		})
		return true
	}

	return false
}
