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
	ingestorInstance *services.IngestorFunction
	once             sync.Once
	initErr          error
)

func init() {
	// --- Set up structured logging ---
	logger := slog.New(slog.NewJSONHandler(os.Stdout, nil))
	slog.SetDefault(logger)

	// "HandleIngest" is the entry point name configured in GCP.
	functions.HTTP("HandleIngest", handleIngest)
}

// main is required by the Go Functions Framework.
func main() {}

// handleIngest recovers, validates and stores one document. Degraded and invalid
// documents are reported with 200 and the status in the body.
func handleIngest(w http.ResponseWriter, r *http.Request) {
	once.Do(func() {
		ingestorInstance, initErr = services.NewIngestor(context.Background())
	})
	if initErr != nil {
		slog.Error("Critical: Ingestor initialization failed", "error", initErr)
		http.Error(w, "Internal Server Error: failed to initialize service", http.StatusInternalServerError)
		return
	}

	var req models.IngestRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		slog.Warn("Could not decode request body", "error", err)
		http.Error(w, "Bad Request: could not parse JSON", http.StatusBadRequest)
		return
	}

	res, err := ingestorInstance.Process(r.Context(), &req)
	if err != nil {
		if errors.Is(err, services.ErrBadRequest) {
			http.Error(w, err.Error(), http.StatusBadRequest)
			return
		}
		// The specific error is already logged inside the Process method.
		http.Error(w, "Internal Server Error: processing failed", http.StatusInternalServerError)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	if err := json.NewEncoder(w).Encode(res); err != nil {
		slog.Error("Failed to write response", "error", err, "ownerId", req.OwnerID, "kind", req.Kind)
		http.Error(w, "Internal Server Error: failed to encode response", http.StatusInternalServerError)
	}
}
