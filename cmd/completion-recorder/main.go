package main

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"os"
	"sync"

	"github.com/GoogleCloudPlatform/functions-framework-go/functions"

	"github.com/Lllllllleong/ecoaction/internal/models"
	"github.com/Lllllllleong/ecoaction/internal/services"
)

var (
	completionInstance *services.CompletionFunction
	once               sync.Once
	initErr            error
)

func init() {
	// --- Set up structured logging ---
	logger := slog.New(slog.NewJSONHandler(os.Stdout, nil))
	slog.SetDefault(logger)

	functions.HTTP("HandleRecordCompletion", handleRecordCompletion)
	functions.HTTP("HandleProgress", handleProgress)
}

// main is required by the Go Functions Framework.
func main() {}

func initialize() error {
	once.Do(func() {
		completionInstance, initErr = services.NewCompletion(context.Background())
	})
	if initErr != nil {
		slog.Error("Critical: Completion service initialization failed", "error", initErr)
	}
	return initErr
}

func handleRecordCompletion(w http.ResponseWriter, r *http.Request) {
	if err := initialize(); err != nil {
		http.Error(w, "Internal Server Error: failed to initialize service", http.StatusInternalServerError)
		return
	}

	var req models.CompletionRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		slog.Warn("Could not decode request body", "error", err)
		http.Error(w, "Bad Request: could not parse JSON", http.StatusBadRequest)
		return
	}

	res, err := completionInstance.Record(r.Context(), &req)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, res)
}

func handleProgress(w http.ResponseWriter, r *http.Request) {
	if err := initialize(); err != nil {
		http.Error(w, "Internal Server Error: failed to initialize service", http.StatusInternalServerError)
		return
	}

	var req models.ProgressRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		slog.Warn("Could not decode request body", "error", err)
		http.Error(w, "Bad Request: could not parse JSON", http.StatusBadRequest)
		return
	}

	res, err := completionInstance.Progress(r.Context(), &req)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, res)
}

func writeError(w http.ResponseWriter, err error) {
	if errors.Is(err, services.ErrBadRequest) {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}
	http.Error(w, "Internal Server Error: processing failed", http.StatusInternalServerError)
}

func writeJSON(w http.ResponseWriter, v any) {
	w.Header().Set("Content-Type", "application/json")
	if err := json.NewEncoder(w).Encode(v); err != nil {
		slog.Error("Failed to write response", "error", err)
		http.Error(w, "Internal Server Error: failed to encode response", http.StatusInternalServerError)
	}
}
