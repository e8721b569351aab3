package handlers

import (
	"errors"
	"net/http"

	"github.com/farmaintel/price-service/internal/session"
	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog/log"
)

// GetSettings returns the settings applied to the next run
func GetSettings(c *gin.Context) {
	s, ok := requireSession(c)
	if !ok {
		return
	}
	c.JSON(http.StatusOK, SettingsResponse{Settings: s.Settings(), HasData: s.HasData()})
}

// SetRate sets the exchange rate manually
func SetRate(c *gin.Context) {
	s, ok := requireSession(c)
	if !ok {
		return
	}

	var req RateRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, ErrorResponse{Error: err.Error()})
		return
	}

	settings, err := s.SetExchangeRate(req.ExchangeRate)
	if err != nil {
		c.JSON(http.StatusBadRequest, ErrorResponse{Error: err.Error()})
		return
	}
	log.Info().Float64("rate", req.ExchangeRate).Msg("Exchange rate set manually")
	c.JSON(http.StatusOK, SettingsResponse{Settings: settings, HasData: s.HasData()})
}

// RefreshRate fetches the official exchange rate
func RefreshRate(c *gin.Context) {
	s, ok := requireSession(c)
	if !ok {
		return
	}

	if _, err := s.RefreshRate(c.Request.Context()); err != nil {
		log.Warn().Err(err).Msg("Exchange rate refresh failed")
		if errors.Is(err, session.ErrNoRateSource) {
			respondSessionError(c, err)
			return
		}
		c.JSON(http.StatusBadGateway, ErrorResponse{Error: err.Error()})
		return
	}
	c.JSON(http.StatusOK, SettingsResponse{Settings: s.Settings(), HasData: s.HasData()})
}
