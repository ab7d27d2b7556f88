package internal

import (
	"encoding/json"
	"log"
	"net/http"
	"strconv"

	datafeed "github.com/tradelab/fvgscanner/Internal/database"
	"github.com/tradelab/fvgscanner/Internal/types"
)

type API struct{}

// HandleGetPatterns returns recently detected patterns, optionally
// filtered by symbol with ?symbol= and capped with ?limit=.
func (api *API) HandleGetPatterns(w http.ResponseWriter, r *http.Request) {
	symbol := r.URL.Query().Get("symbol")
	limit := queryLimit(r, 50)

	patterns, err := datafeed.GetRecentPatterns(r.Context(), symbol, limit)
	if err != nil {
		log.Printf("Error fetching patterns: %v", err)
		WriteError(w, http.StatusInternalServerError, "Failed to fetch patterns")
		return
	}
	if patterns == nil {
		patterns = []types.Pattern{}
	}

	WriteJSON(w, http.StatusOK, map[string]interface{}{
		"count":    len(patterns),
		"patterns": patterns,
	})
}

// HandleGetSignals returns pending and active signals.
func (api *API) HandleGetSignals(w http.ResponseWriter, r *http.Request) {
	signals, err := datafeed.GetActiveSignals(r.Context())
	if err != nil {
		log.Printf("Error fetching signals: %v", err)
		WriteError(w, http.StatusInternalServerError, "Failed to fetch signals")
		return
	}
	if signals == nil {
		signals = []types.Signal{}
	}

	symbol := r.URL.Query().Get("symbol")
	if symbol != "" {
		filtered := signals[:0]
		for _, s := range signals {
			if s.Symbol == symbol {
				filtered = append(filtered, s)
			}
		}
		signals = filtered
	}

	WriteJSON(w, http.StatusOK, map[string]interface{}{
		"count":   len(signals),
		"summary": types.SummarizeSignals(signals),
		"signals": signals,
	})
}

// HandleGetStats returns row counts for the dashboard.
func (api *API) HandleGetStats(w http.ResponseWriter, r *http.Request) {
	stats, err := datafeed.GetScannerStats(r.Context())
	if err != nil {
		log.Printf("Error fetching stats: %v", err)
		WriteError(w, http.StatusInternalServerError, "Failed to fetch stats")
		return
	}
	WriteJSON(w, http.StatusOK, stats)
}

func queryLimit(r *http.Request, fallback int) int {
	limitStr := r.URL.Query().Get("limit")
	if limitStr == "" {
		return fallback
	}
	limit, err := strconv.Atoi(limitStr)
	if err != nil || limit <= 0 {
		return fallback
	}
	return limit
}

func WriteJSON(w http.ResponseWriter, status int, payload interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(payload); err != nil {
		log.Printf("Error encoding response: %v", err)
	}
}

func WriteError(w http.ResponseWriter, status int, message string) {
	WriteJSON(w, status, map[string]string{"error": message})
}
