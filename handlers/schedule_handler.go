package handlers

import (
	"context"
	"encoding/json"
	"net/http"
	"time"

	"github.com/google/uuid"
	"github.com/gorilla/mux"

	"matSideAPI/internal/types/schedule"
	"matSideAPI/middleware"
	"matSideAPI/services"
)

type ScheduleHandler struct {
	scheduleService *services.ScheduleService
}

func NewScheduleHandler(scheduleService *services.ScheduleService) *ScheduleHandler {
	return &ScheduleHandler{
		scheduleService: scheduleService,
	}
}

func (h *ScheduleHandler) CreateClass(w http.ResponseWriter, r *http.Request) {
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

	var req schedule.CreateClassRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondWithError(w, http.StatusBadRequest, "Invalid request body")
		return
	}

	slot, err := h.scheduleService.CreateClass(ctx, clerkID, schoolID, &req)
	if err != nil {
		respondWithError(w, http.StatusInternalServerError, err.Error())
		return
	}

	respondWithJSON(w, http.StatusCreated, slot)
}

func (h *ScheduleHandler) ListWeek(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), 5*time.Second)
	defer cancel()

	schoolID, err := uuid.Parse(mux.Vars(r)["schoolID"])
	if err != nil {
		respondWithError(w, http.StatusBadRequest, "Invalid school id")
		return
	}

	slots, err := h.scheduleService.ListWeek(ctx, schoolID)
	if err != nil {
		respondWithError(w, http.StatusInternalServerError, err.Error())
		return
	}

	respondWithJSON(w, http.StatusOK, slots)
}

func (h *ScheduleHandler) DeleteClass(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), 5*time.Second)
	defer cancel()

	clerkID, ok := middleware.GetClerkID(ctx)
	if !ok {
		respondWithError(w, http.StatusUnauthorized, "User not authenticated")
		return
	}

	classID, err := uuid.Parse(mux.Vars(r)["classID"])
	if err != nil {
		respondWithError(w, http.StatusBadRequest, "Invalid class id")
		return
	}

	if err := h.scheduleService.DeleteClass(ctx, clerkID, classID); err != nil {
		respondWithError(w, http.StatusNotFound, err.Error())
		return
	}

	respondWithJSON(w, http.StatusOK, map[string]string{"message": "Class deleted"})
}

func (h *ScheduleHandler) IssueCheckInCode(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), 5*time.Second)
	defer cancel()

	clerkID, ok := middleware.GetClerkID(ctx)
	if !ok {
		respondWithError(w, http.StatusUnauthorized, "User not authenticated")
		return
	}

	classID, err := uuid.Parse(mux.Vars(r)["classID"])
	if err != nil {
		respondWithError(w, http.StatusBadRequest, "Invalid class id")
		return
	}

	code, err := h.scheduleService.IssueCheckInCode(ctx, clerkID, classID)
	if err != nil {
		respondWithError(w, http.StatusInternalServerError, err.Error())
		return
	}

	respondWithJSON(w, http.StatusCreated, code)
}

func (h *ScheduleHandler) CheckIn(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), 5*time.Second)
	defer cancel()

	clerkID, ok := middleware.GetClerkID(ctx)
	if !ok {
		respondWithError(w, http.StatusUnauthorized, "User not authenticated")
		return
	}

	var req schedule.CheckInRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondWithError(w, http.StatusBadRequest, "Invalid request body")
		return
	}
	if req.Code == "" {
		respondWithError(w, http.StatusBadRequest, "Code is required")
		return
	}

	checkIn, err := h.scheduleService.CheckIn(ctx, clerkID, req.Code)
	if err != nil {
		respondWithError(w, http.StatusInternalServerError, err.Error())
		return
	}

	respondWithJSON(w, http.StatusCreated, checkIn)
}

func (h *ScheduleHandler) ListAttendance(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), 5*time.Second)
	defer cancel()

	clerkID, ok := middleware.GetClerkID(ctx)
	if !ok {
		respondWithError(w, http.StatusUnauthorized, "User not authenticated")
		return
	}

	classID, err := uuid.Parse(mux.Vars(r)["classID"])
	if err != nil {
		respondWithError(w, http.StatusBadRequest, "Invalid class id")
		return
	}

	date := time.Now()
	if d := r.URL.Query().Get("date"); d != "" {
		parsed, err := time.Parse("2006-01-02", d)
		if err != nil {
			respondWithError(w, http.StatusBadRequest, "Date must be YYYY-MM-DD")
			return
		}
		date = parsed
	}

	list, err := h.scheduleService.ListAttendance(ctx, clerkID, classID, date)
	if err != nil {
		respondWithError(w, http.StatusInternalServerError, err.Error())
		return
	}

	respondWithJSON(w, http.StatusOK, list)
}
