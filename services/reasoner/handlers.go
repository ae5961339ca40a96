// Copyright (C) 2026 Treelight Labs
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.

package reasoner

import (
	"errors"
	"log/slog"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/gin-gonic/gin/binding"
	"github.com/go-playground/validator/v10"
	"github.com/google/uuid"

	"github.com/treelight/reasoner/services/reasoner/store"
	"github.com/treelight/reasoner/services/reasoner/strategy"
)

func init() {
	if v, ok := binding.Validator.Engine().(*validator.Validate); ok {
		_ = v.RegisterValidation("strategytype", func(fl validator.FieldLevel) bool {
			_, err := strategy.ParseType(fl.Field().String())
			return err == nil
		})
	}
}

// ThoughtRequest is the wire form of one reasoning step.
//
// NextThoughtNeeded is a pointer so a missing field fails validation
// instead of silently reading as false.
type ThoughtRequest struct {
	Thought           string             `json:"thought" binding:"required"`
	ThoughtNumber     int                `json:"thoughtNumber" binding:"required,gte=1"`
	TotalThoughts     int                `json:"totalThoughts" binding:"required,gte=1"`
	NextThoughtNeeded *bool              `json:"nextThoughtNeeded" binding:"required"`
	ParentID          string             `json:"parentId"`
	StrategyType      string             `json:"strategyType"`
	BranchingFactor   int                `json:"branchingFactor" binding:"omitempty,gte=1"`
	Evaluations       map[string]float64 `json:"evaluations"`
	EvaluationMetrics []string           `json:"evaluationMetrics"`
	Constraints       map[string]any     `json:"constraints"`
	ProblemType       string             `json:"problemType"`
}

// toRequest converts the wire form into the strategy-layer request.
func (t *ThoughtRequest) toRequest() *strategy.Request {
	return &strategy.Request{
		Thought:           t.Thought,
		ThoughtNumber:     t.ThoughtNumber,
		TotalThoughts:     t.TotalThoughts,
		NextThoughtNeeded: *t.NextThoughtNeeded,
		ParentID:          t.ParentID,
		StrategyType:      strategy.Type(t.StrategyType),
		BranchingFactor:   t.BranchingFactor,
		Evaluations:       t.Evaluations,
		EvaluationMetrics: t.EvaluationMetrics,
		Constraints:       t.Constraints,
		ProblemType:       t.ProblemType,
	}
}

// StrategyRequest selects a session's current strategy.
type StrategyRequest struct {
	Strategy string `json:"strategy" binding:"required,strategytype"`
}

// ErrorResponse is the boundary error envelope.
type ErrorResponse struct {
	// Error is the error message.
	Error string `json:"error"`

	// Code is the error code (optional).
	Code string `json:"code,omitempty"`

	// Details provides additional error context (optional).
	Details string `json:"details,omitempty"`
}

// Handlers contains the HTTP handlers for the reasoner service.
//
// Thread Safety: Handlers is safe for concurrent use.
type Handlers struct {
	registry *Registry
}

// NewHandlers creates handlers over a session registry.
func NewHandlers(registry *Registry) *Handlers {
	return &Handlers{registry: registry}
}

// session resolves the caller's Reasoner from the X-Session-ID header
// or the session query parameter.
func (h *Handlers) session(c *gin.Context) *Reasoner {
	id := c.GetHeader("X-Session-ID")
	if id == "" {
		id = c.Query("session")
	}
	return h.registry.Get(id)
}

// HandleThought handles POST /v1/reason/thought.
//
// Response:
//
//	200 OK: strategy.Response (including shaped internal errors)
//	400 Bad Request: Validation error
func (h *Handlers) HandleThought(c *gin.Context) {
	requestID := getOrCreateRequestID(c)
	logger := slog.With("request_id", requestID, "handler", "HandleThought")

	var req ThoughtRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		logger.Warn("Invalid request body", "error", err)
		c.JSON(http.StatusBadRequest, ErrorResponse{
			Error:   "Invalid request body",
			Code:    "INVALID_REQUEST",
			Details: err.Error(),
		})
		return
	}

	resp := h.session(c).ProcessThought(c.Request.Context(), req.toRequest())
	if resp.Error {
		logger.Warn("Thought produced error response", "message", resp.Message)
	}
	c.JSON(http.StatusOK, resp)
}

// HandleStats handles GET /v1/reason/stats.
func (h *Handlers) HandleStats(c *gin.Context) {
	getOrCreateRequestID(c)
	c.JSON(http.StatusOK, h.session(c).Stats())
}

// HandlePath handles GET /v1/reason/path.
//
// Description:
//
//	Without a nodeId query parameter, returns the current strategy's
//	best root-to-node path. With one, reconstructs the path to that
//	node.
//
// Response:
//
//	200 OK: {"path": [...], "length": n}
//	404 Not Found: Empty tree or unknown node id
//	500 Internal Server Error: Corrupt parent chain
func (h *Handlers) HandlePath(c *gin.Context) {
	requestID := getOrCreateRequestID(c)
	logger := slog.With("request_id", requestID, "handler", "HandlePath")
	r := h.session(c)

	var (
		path []*store.Node
		err  error
	)
	if nodeID := c.Query("nodeId"); nodeID != "" {
		path, err = r.PathTo(nodeID)
	} else {
		path, err = r.BestPath()
	}
	if err != nil {
		logger.Warn("Path reconstruction failed", "error", err)
		c.JSON(statusFor(err), ErrorResponse{
			Error: "Path reconstruction failed",
			Code:  codeFor(err),
		})
		return
	}
	if len(path) == 0 {
		c.JSON(http.StatusNotFound, ErrorResponse{
			Error: "No thoughts recorded",
			Code:  "EMPTY_TREE",
		})
		return
	}

	c.JSON(http.StatusOK, gin.H{"path": path, "length": len(path)})
}

// HandleSetStrategy handles POST /v1/reason/strategy.
func (h *Handlers) HandleSetStrategy(c *gin.Context) {
	requestID := getOrCreateRequestID(c)
	logger := slog.With("request_id", requestID, "handler", "HandleSetStrategy")

	var req StrategyRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		logger.Warn("Invalid request body", "error", err)
		var verrs validator.ValidationErrors
		if errors.As(err, &verrs) && len(verrs) > 0 && verrs[0].Tag() == "strategytype" {
			c.JSON(http.StatusBadRequest, ErrorResponse{
				Error: "Unknown strategy: " + req.Strategy,
				Code:  "UNKNOWN_STRATEGY",
			})
			return
		}
		c.JSON(http.StatusBadRequest, ErrorResponse{
			Error:   "Invalid request body",
			Code:    "INVALID_REQUEST",
			Details: err.Error(),
		})
		return
	}

	r := h.session(c)
	if err := r.SetStrategy(req.Strategy); err != nil {
		logger.Warn("Unknown strategy", "strategy", req.Strategy)
		c.JSON(http.StatusBadRequest, ErrorResponse{
			Error: "Unknown strategy: " + req.Strategy,
			Code:  "UNKNOWN_STRATEGY",
		})
		return
	}

	logger.Info("Strategy set", "strategy", req.Strategy)
	c.JSON(http.StatusOK, gin.H{"strategy": r.Current()})
}

// HandleClear handles POST /v1/reason/clear.
func (h *Handlers) HandleClear(c *gin.Context) {
	getOrCreateRequestID(c)
	r := h.session(c)
	r.Clear()
	c.JSON(http.StatusOK, gin.H{
		"status":   "cleared",
		"strategy": r.Current(),
	})
}

// HandleStrategies handles GET /v1/reason/strategies.
func (h *Handlers) HandleStrategies(c *gin.Context) {
	getOrCreateRequestID(c)
	r := h.session(c)
	c.JSON(http.StatusOK, gin.H{
		"available": r.AvailableStrategies(),
		"current":   r.Current(),
	})
}

// HandleTree handles GET /v1/reason/tree.
//
// Response:
//
//	200 OK: text/plain ASCII rendering of the thought tree
//	404 Not Found: Empty tree
func (h *Handlers) HandleTree(c *gin.Context) {
	getOrCreateRequestID(c)
	rendered, err := h.session(c).Tree()
	if err != nil {
		c.JSON(http.StatusNotFound, ErrorResponse{
			Error: "No thoughts recorded",
			Code:  "EMPTY_TREE",
		})
		return
	}
	c.String(http.StatusOK, rendered)
}

// statusFor maps layer errors onto HTTP statuses.
func statusFor(err error) int {
	if errors.Is(err, store.ErrNotFound) {
		return http.StatusNotFound
	}
	return http.StatusInternalServerError
}

func codeFor(err error) string {
	if errors.Is(err, store.ErrNotFound) {
		return "NOT_FOUND"
	}
	return "INTERNAL"
}

// getOrCreateRequestID returns the inbound request id, minting one when
// the caller did not supply it, and echoes it on the response.
func getOrCreateRequestID(c *gin.Context) string {
	requestID := c.GetHeader("X-Request-ID")
	if requestID == "" {
		requestID = uuid.NewString()
	}
	c.Header("X-Request-ID", requestID)
	return requestID
}
