package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"
)

// HealthResponse represents the health check response
type HealthResponse struct {
	Status  string `json:"status"`
	Session string `json:"session"`
}

// HealthCheck handles the health check endpoint
func HealthCheck(c *gin.Context) {
	response := HealthResponse{Status: "ok", Session: "not configured"}

	if s := currentSession(); s != nil {
		response.Session = "empty"
		if s.HasData() {
			response.Session = "loaded"
		}
	}

	c.JSON(http.StatusOK, response)
}
