package web

import (
	"encoding/json"
	"errors"
	"net/http"
	"runtime"
	"strconv"
	"time"

	sdkmath "cosmossdk.io/math"
	"github.com/gorilla/mux"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/elys-network/poold/internal/engine"
	"github.com/elys-network/poold/internal/logger"
	"github.com/elys-network/poold/internal/metrics"
	"github.com/elys-network/poold/internal/state"
)

var webLogger = logger.GetForComponent("web_server")

// WebServer exposes the pool engine over HTTP: depositor operations, the
// privileged admin surface, read-only previews, the event journal, health
// and Prometheus metrics.
type WebServer struct {
	router *mux.Router
	engine *engine.Engine
	port   string
}

// NewWebServer creates a new web server instance
func NewWebServer(port string, eng *engine.Engine) *WebServer {
	if port == "" {
		port = "8080"
	}

	server := &WebServer{
		router: mux.NewRouter(),
		engine: eng,
		port:   port,
	}

	server.setupRoutes()
	return server
}

// setupRoutes configures all HTTP routes
func (ws *WebServer) setupRoutes() {
	// Health and metrics (direct routes)
	ws.router.HandleFunc("/health", ws.handleHealth).Methods("GET")
	ws.router.Handle("/metrics", promhttp.Handler()).Methods("GET")

	// API endpoints
	api := ws.router.PathPrefix("/api").Subrouter()
	api.HandleFunc("/pools", ws.handleGetPools).Methods("GET")
	api.HandleFunc("/pools/{denom}", ws.handleGetPool).Methods("GET")
	api.HandleFunc("/pools/{denom}/positions/{address}", ws.handlePreviewClaim).Methods("GET")
	api.HandleFunc("/pools/{denom}/deposit", ws.handleDeposit).Methods("POST")
	api.HandleFunc("/pools/{denom}/withdraw", ws.handleWithdraw).Methods("POST")
	api.HandleFunc("/pools/{denom}/claim", ws.handleClaim).Methods("POST")
	api.HandleFunc("/events", ws.handleGetEvents).Methods("GET")

	// Admin endpoints (privileged callers; the engine enforces the gate)
	admin := ws.router.PathPrefix("/api/admin").Subrouter()
	admin.HandleFunc("/pools/{denom}/allow", ws.handleAllow).Methods("POST")
	admin.HandleFunc("/pools/{denom}/disallow", ws.handleDisallow).Methods("POST")
	admin.HandleFunc("/pools/{denom}/reward-denom", ws.handleSetRewardDenom).Methods("POST")
	admin.HandleFunc("/pools/{denom}/distribute", ws.handleDistribute).Methods("POST")
	admin.HandleFunc("/sweep", ws.handleSweep).Methods("POST")

	// Add CORS middleware
	ws.router.Use(ws.corsMiddleware)
	ws.router.Use(ws.loggingMiddleware)
}

// Start starts the web server
func (ws *WebServer) Start() error {
	webLogger.Info().Str("port", ws.port).Msg("Starting web server")

	server := &http.Server{
		Addr:         ":" + ws.port,
		Handler:      ws.router,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 15 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	return server.ListenAndServe()
}

// Router exposes the handler tree, mainly for tests.
func (ws *WebServer) Router() http.Handler {
	return ws.router
}

// operationRequest is the JSON body shared by all POST operations. Caller
// identity is a bare address: authenticating it is outside this system's
// scope (the gate only checks the privileged allowlist).
type operationRequest struct {
	Caller      string `json:"caller"`
	Amount      string `json:"amount,omitempty"`
	Receiver    string `json:"receiver,omitempty"`
	RewardDenom string `json:"reward_denom,omitempty"`
	Denom       string `json:"denom,omitempty"`
	To          string `json:"to,omitempty"`
}

// decodeRequest parses the operation body and validates the caller field.
func (ws *WebServer) decodeRequest(w http.ResponseWriter, r *http.Request) (*operationRequest, bool) {
	var req operationRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		ws.writeErrorResponse(w, http.StatusBadRequest, "Invalid JSON body")
		return nil, false
	}
	if req.Caller == "" {
		ws.writeErrorResponse(w, http.StatusBadRequest, "Field 'caller' is required")
		return nil, false
	}
	return &req, true
}

// parseAmount parses the request amount into a positive integer.
func (ws *WebServer) parseAmount(w http.ResponseWriter, amountStr string) (sdkmath.Int, bool) {
	amount, ok := sdkmath.NewIntFromString(amountStr)
	if !ok || !amount.IsPositive() {
		ws.writeErrorResponse(w, http.StatusBadRequest, "Field 'amount' must be a positive integer string")
		return sdkmath.ZeroInt(), false
	}
	return amount, true
}

// handleHealth returns server health status
func (ws *WebServer) handleHealth(w http.ResponseWriter, r *http.Request) {
	var memStats runtime.MemStats
	runtime.ReadMemStats(&memStats)

	dbHealthy := state.TestDBConnection() == nil

	overallStatus := "OK"
	statusCode := http.StatusOK
	if !dbHealthy {
		overallStatus = "DEGRADED"
		statusCode = http.StatusServiceUnavailable
	}

	response := map[string]interface{}{
		"status":    overallStatus,
		"timestamp": time.Now().UTC().Format(time.RFC3339Nano),
		"system": map[string]interface{}{
			"version":          runtime.Version(),
			"goroutines_count": runtime.NumGoroutine(),
			"alloc_bytes":      memStats.Alloc,
			"sys_bytes":        memStats.Sys,
			"gc_cycles":        memStats.NumGC,
		},
		"component": map[string]interface{}{
			"name":    "poold-staking-pool-daemon",
			"version": "1.0.0",
		},
		"engine_status": map[string]interface{}{
			"database_healthy": dbHealthy,
			"pools_tracked":    len(ws.engine.Pools()),
		},
	}

	ws.writeJSONResponse(w, statusCode, response)
}

// handleGetPools returns all pool records
func (ws *WebServer) handleGetPools(w http.ResponseWriter, r *http.Request) {
	pools := ws.engine.Pools()

	response := map[string]interface{}{
		"pools": pools,
		"count": len(pools),
	}

	ws.writeJSONResponse(w, http.StatusOK, response)
}

// handleGetPool returns a specific pool by denom
func (ws *WebServer) handleGetPool(w http.ResponseWriter, r *http.Request) {
	denom := mux.Vars(r)["denom"]

	pool, err := ws.engine.GetPool(denom)
	if err != nil {
		ws.writeErrorResponse(w, http.StatusNotFound, "Pool not found")
		return
	}

	ws.writeJSONResponse(w, http.StatusOK, pool)
}

// handlePreviewClaim returns the non-mutating claim preview for a depositor
func (ws *WebServer) handlePreviewClaim(w http.ResponseWriter, r *http.Request) {
	vars := mux.Vars(r)

	preview, err := ws.engine.PreviewClaim(vars["denom"], vars["address"])
	if err != nil {
		ws.writeEngineError(w, err)
		return
	}

	ws.writeJSONResponse(w, http.StatusOK, preview)
}

// handleDeposit stakes tokens into a pool on behalf of the caller
func (ws *WebServer) handleDeposit(w http.ResponseWriter, r *http.Request) {
	denom := mux.Vars(r)["denom"]

	req, ok := ws.decodeRequest(w, r)
	if !ok {
		return
	}
	amount, ok := ws.parseAmount(w, req.Amount)
	if !ok {
		return
	}

	if err := ws.engine.Deposit(req.Caller, denom, amount); err != nil {
		ws.writeEngineError(w, err)
		return
	}

	ws.writeJSONResponse(w, http.StatusOK, map[string]interface{}{
		"denom":     denom,
		"depositor": req.Caller,
		"amount":    amount.String(),
	})
}

// handleWithdraw returns principal to the caller after settling rewards
func (ws *WebServer) handleWithdraw(w http.ResponseWriter, r *http.Request) {
	denom := mux.Vars(r)["denom"]

	req, ok := ws.decodeRequest(w, r)
	if !ok {
		return
	}
	amount, ok := ws.parseAmount(w, req.Amount)
	if !ok {
		return
	}

	if err := ws.engine.Withdraw(req.Caller, denom, amount); err != nil {
		ws.writeEngineError(w, err)
		return
	}

	ws.writeJSONResponse(w, http.StatusOK, map[string]interface{}{
		"denom":     denom,
		"depositor": req.Caller,
		"amount":    amount.String(),
	})
}

// handleClaim settles and pays out the caller's accrued reward
func (ws *WebServer) handleClaim(w http.ResponseWriter, r *http.Request) {
	denom := mux.Vars(r)["denom"]

	req, ok := ws.decodeRequest(w, r)
	if !ok {
		return
	}

	payout, err := ws.engine.Claim(req.Caller, denom, req.Receiver)
	if err != nil {
		ws.writeEngineError(w, err)
		return
	}

	receiver := req.Receiver
	if receiver == "" {
		receiver = req.Caller
	}
	ws.writeJSONResponse(w, http.StatusOK, map[string]interface{}{
		"denom":    denom,
		"claimer":  req.Caller,
		"receiver": receiver,
		"payout":   payout.String(),
	})
}

// handleGetEvents returns recent journal entries
func (ws *WebServer) handleGetEvents(w http.ResponseWriter, r *http.Request) {
	limit := 20
	if limitStr := r.URL.Query().Get("limit"); limitStr != "" {
		if parsedLimit, err := strconv.Atoi(limitStr); err == nil && parsedLimit > 0 && parsedLimit <= 100 {
			limit = parsedLimit
		}
	}

	events, err := state.GetRecentEvents(r.URL.Query().Get("denom"), limit)
	if err != nil {
		webLogger.Error().Err(err).Msg("Failed to get recent events")
		ws.writeErrorResponse(w, http.StatusInternalServerError, "Failed to retrieve events")
		return
	}

	response := map[string]interface{}{
		"events": events,
		"count":  len(events),
		"limit":  limit,
	}

	ws.writeJSONResponse(w, http.StatusOK, response)
}

// handleAllow marks a denom as eligible for staking
func (ws *WebServer) handleAllow(w http.ResponseWriter, r *http.Request) {
	denom := mux.Vars(r)["denom"]

	req, ok := ws.decodeRequest(w, r)
	if !ok {
		return
	}

	if err := ws.engine.Allow(req.Caller, denom); err != nil {
		ws.writeEngineError(w, err)
		return
	}

	ws.writeJSONResponse(w, http.StatusOK, map[string]interface{}{"denom": denom, "allowed": true})
}

// handleDisallow blocks further operations on a pool
func (ws *WebServer) handleDisallow(w http.ResponseWriter, r *http.Request) {
	denom := mux.Vars(r)["denom"]

	req, ok := ws.decodeRequest(w, r)
	if !ok {
		return
	}

	if err := ws.engine.Disallow(req.Caller, denom); err != nil {
		ws.writeEngineError(w, err)
		return
	}

	ws.writeJSONResponse(w, http.StatusOK, map[string]interface{}{"denom": denom, "allowed": false})
}

// handleSetRewardDenom configures the payout token for a pool
func (ws *WebServer) handleSetRewardDenom(w http.ResponseWriter, r *http.Request) {
	denom := mux.Vars(r)["denom"]

	req, ok := ws.decodeRequest(w, r)
	if !ok {
		return
	}
	if req.RewardDenom == "" {
		ws.writeErrorResponse(w, http.StatusBadRequest, "Field 'reward_denom' is required")
		return
	}

	if err := ws.engine.SetRewardDenom(req.Caller, denom, req.RewardDenom); err != nil {
		ws.writeEngineError(w, err)
		return
	}

	ws.writeJSONResponse(w, http.StatusOK, map[string]interface{}{
		"denom":        denom,
		"reward_denom": req.RewardDenom,
	})
}

// handleDistribute injects a lump-sum reward into a pool
func (ws *WebServer) handleDistribute(w http.ResponseWriter, r *http.Request) {
	denom := mux.Vars(r)["denom"]

	req, ok := ws.decodeRequest(w, r)
	if !ok {
		return
	}
	amount, ok := ws.parseAmount(w, req.Amount)
	if !ok {
		return
	}

	if err := ws.engine.Distribute(req.Caller, denom, amount); err != nil {
		ws.writeEngineError(w, err)
		return
	}

	ws.writeJSONResponse(w, http.StatusOK, map[string]interface{}{
		"denom":  denom,
		"amount": amount.String(),
	})
}

// handleSweep force-transfers custody balance out, bypassing accounting
func (ws *WebServer) handleSweep(w http.ResponseWriter, r *http.Request) {
	req, ok := ws.decodeRequest(w, r)
	if !ok {
		return
	}
	if req.Denom == "" || req.To == "" {
		ws.writeErrorResponse(w, http.StatusBadRequest, "Fields 'denom' and 'to' are required")
		return
	}
	amount, ok := ws.parseAmount(w, req.Amount)
	if !ok {
		return
	}

	if err := ws.engine.Sweep(req.Caller, req.Denom, amount, req.To); err != nil {
		ws.writeEngineError(w, err)
		return
	}

	ws.writeJSONResponse(w, http.StatusOK, map[string]interface{}{
		"denom":  req.Denom,
		"amount": amount.String(),
		"to":     req.To,
	})
}

// writeEngineError maps engine failures onto HTTP status codes.
func (ws *WebServer) writeEngineError(w http.ResponseWriter, err error) {
	status := http.StatusInternalServerError
	switch {
	case errors.Is(err, engine.ErrUnauthorized):
		status = http.StatusForbidden
	case errors.Is(err, engine.ErrTokenNotAllowed):
		status = http.StatusNotFound
	case errors.Is(err, engine.ErrZeroAmount),
		errors.Is(err, engine.ErrNoStake),
		errors.Is(err, engine.ErrInsufficientPosition):
		status = http.StatusBadRequest
	case errors.Is(err, engine.ErrTransferFailed):
		status = http.StatusBadGateway
	}
	ws.writeErrorResponse(w, status, err.Error())
}

// writeJSONResponse writes a JSON response
func (ws *WebServer) writeJSONResponse(w http.ResponseWriter, statusCode int, data interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(statusCode)

	if err := json.NewEncoder(w).Encode(data); err != nil {
		webLogger.Error().Err(err).Msg("Failed to encode JSON response")
	}
}

// writeErrorResponse writes an error response
func (ws *WebServer) writeErrorResponse(w http.ResponseWriter, statusCode int, message string) {
	response := map[string]interface{}{
		"error":     true,
		"message":   message,
		"timestamp": time.Now().UTC(),
	}

	ws.writeJSONResponse(w, statusCode, response)
}

// corsMiddleware adds CORS headers
func (ws *WebServer) corsMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Access-Control-Allow-Origin", "*")
		w.Header().Set("Access-Control-Allow-Methods", "GET, POST, OPTIONS")
		w.Header().Set("Access-Control-Allow-Headers", "Content-Type, Authorization")

		if r.Method == "OPTIONS" {
			w.WriteHeader(http.StatusOK)
			return
		}

		next.ServeHTTP(w, r)
	})
}

// loggingMiddleware logs HTTP requests
func (ws *WebServer) loggingMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()

		// Create a response writer wrapper to capture status code
		wrapper := &responseWriterWrapper{ResponseWriter: w, statusCode: http.StatusOK}

		next.ServeHTTP(wrapper, r)

		duration := time.Since(start)

		metrics.HTTPRequests.WithLabelValues(r.Method, r.URL.Path, strconv.Itoa(wrapper.statusCode)).Inc()
		webLogger.Info().
			Str("method", r.Method).
			Str("path", r.URL.Path).
			Str("remote_addr", r.RemoteAddr).
			Int("status", wrapper.statusCode).
			Dur("duration", duration).
			Msg("HTTP request")
	})
}

// responseWriterWrapper wraps http.ResponseWriter to capture status code
type responseWriterWrapper struct {
	http.ResponseWriter
	statusCode int
}

func (w *responseWriterWrapper) WriteHeader(statusCode int) {
	w.statusCode = statusCode
	w.ResponseWriter.WriteHeader(statusCode)
}
