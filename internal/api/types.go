package api

import "github.com/stacklok/plugin-index/internal/api/common"

// HealthResponse is the body of /health
type HealthResponse struct {
	Status string `json:"status" example:"healthy"`
}

// ReadinessResponse is the body of /readiness once the database answers
type ReadinessResponse struct {
	Status string `json:"status" example:"ready"`
}

// ErrorResponse is the body of every failed request
type ErrorResponse = common.ErrorBody
