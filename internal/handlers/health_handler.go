package handlers

import (
	"context"
	"net/http"
	"time"

	"aicruiter/internal/prompts"
	"aicruiter/internal/utils"
)

const readinessTimeout = 2 * time.Second

type ReadinessCheck struct {
	Status  string `json:"status"` // "ok" | "degraded" | "failed"
	Message string `json:"message,omitempty"`
}

type ReadinessResponse struct {
	Status  string                    `json:"status"` // "ready" | "not_ready"
	Service string                    `json:"service"`
	Checks  map[string]ReadinessCheck `json:"checks"`
}

// Pinger is satisfied by every InterviewStore.
type Pinger interface {
	Ping(ctx context.Context) error
}

// PageSet is satisfied by *web.Renderer.
type PageSet interface {
	Pages() []string
}

type HealthHandler struct {
	store         Pinger
	promptManager prompts.PromptProvider
	generator     QuestionGenerator
	pages         PageSet
}

func NewHealthHandler(store Pinger, promptManager prompts.PromptProvider, generator QuestionGenerator, pages PageSet) *HealthHandler {
	return &HealthHandler{
		store:         store,
		promptManager: promptManager,
		generator:     generator,
		pages:         pages,
	}
}

func (handler *HealthHandler) HealthzHandler(writer http.ResponseWriter, request *http.Request) {
	utils.JSON(writer, http.StatusOK, map[string]string{
		"status":  "ok",
		"service": "aicruiter",
		"version": "1.0.0",
	})
}

func (handler *HealthHandler) ReadyzHandler(writer http.ResponseWriter, request *http.Request) {
	checks := make(map[string]ReadinessCheck)
	allChecksPass := true

	// record store must answer
	if handler.store == nil {
		checks["store"] = ReadinessCheck{Status: "failed", Message: "Record store not initialized"}
		allChecksPass = false
	} else {
		ctx, cancel := context.WithTimeout(request.Context(), readinessTimeout)
		err := handler.store.Ping(ctx)
		cancel()
		if err != nil {
			checks["store"] = ReadinessCheck{Status: "failed", Message: err.Error()}
			allChecksPass = false
		} else {
			checks["store"] = ReadinessCheck{Status: "ok"}
		}
	}

	if handler.promptManager == nil || len(handler.promptManager.GetTemplates()) == 0 {
		checks["prompt_manager"] = ReadinessCheck{Status: "failed", Message: "No prompt templates loaded"}
		allChecksPass = false
	} else {
		checks["prompt_manager"] = ReadinessCheck{Status: "ok"}
	}

	if handler.pages == nil || len(handler.pages.Pages()) == 0 {
		checks["templates"] = ReadinessCheck{Status: "failed", Message: "No page templates loaded"}
		allChecksPass = false
	} else {
		checks["templates"] = ReadinessCheck{Status: "ok"}
	}

	// the fallback bank covers a missing source, so this never fails readiness
	if handler.generator == nil || !handler.generator.HasSource() {
		checks["question_source"] = ReadinessCheck{Status: "degraded", Message: "No question source configured, using fallback questions"}
	} else {
		checks["question_source"] = ReadinessCheck{Status: "ok"}
	}

	response := ReadinessResponse{
		Service: "aicruiter",
		Checks:  checks,
	}

	if allChecksPass {
		response.Status = "ready"
		utils.JSON(writer, http.StatusOK, response)
	} else {
		response.Status = "not_ready"
		utils.JSON(writer, http.StatusServiceUnavailable, response)
	}
}
