package handlers

import (
	"errors"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"strconv"
	"sync"

	"github.com/farmaintel/price-service/internal/adapters/config"
	"github.com/farmaintel/price-service/internal/engine"
	"github.com/farmaintel/price-service/internal/pipeline"
	"github.com/farmaintel/price-service/internal/types"
	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog/log"
)

// collector gathers listener callbacks of one request
type collector struct {
	mu       sync.Mutex
	warnings []StageMessage
	fatal    string
}

func (c *collector) OnProgress(message string, pct int) {
	log.Debug().Int("pct", pct).Msg(message)
}

func (c *collector) OnError(stage, message string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if stage == pipeline.StageGeneral {
		c.fatal = message
		return
	}
	c.warnings = append(c.warnings, StageMessage{Stage: stage, Message: message})
}

func (c *collector) OnComplete(*pipeline.Result) {}

// formFields returns the multipart field names accepted for a supplier
func formFields(id types.SupplierID) []string {
	if id == types.SupplierP365 {
		return []string{string(id), config.Label(id)}
	}
	return []string{string(id)}
}

func readUpload(fh *multipart.FileHeader) (pipeline.Source, error) {
	if fh.Size > MaxUploadBytes {
		return pipeline.Source{}, fmt.Errorf("%s exceeds %d bytes", fh.Filename, MaxUploadBytes)
	}
	f, err := fh.Open()
	if err != nil {
		return pipeline.Source{}, err
	}
	defer f.Close()

	content, err := io.ReadAll(io.LimitReader(f, MaxUploadBytes+1))
	if err != nil {
		return pipeline.Source{}, err
	}
	if len(content) > MaxUploadBytes {
		return pipeline.Source{}, fmt.Errorf("%s exceeds %d bytes", fh.Filename, MaxUploadBytes)
	}
	return pipeline.Source{Filename: fh.Filename, Content: content}, nil
}

// settingsFromForm applies the optional form overrides to base
func settingsFromForm(c *gin.Context, base pipeline.Settings) (pipeline.Settings, error) {
	s := base
	if v := c.PostForm("margin_pct"); v != "" {
		margin, err := strconv.ParseFloat(v, 64)
		if err != nil {
			return s, fmt.Errorf("invalid margin_pct: %w", err)
		}
		s = s.WithMargin(margin)
	}
	if v := c.PostForm("join_strategy"); v != "" {
		strategy, err := engine.ParseJoinStrategy(v)
		if err != nil {
			return s, err
		}
		s = s.WithJoinStrategy(strategy)
	}
	if v := c.PostForm("exchange_rate"); v != "" {
		rate, err := strconv.ParseFloat(v, 64)
		if err != nil {
			return s, fmt.Errorf("invalid exchange_rate: %w", err)
		}
		s = s.WithExchangeRate(rate)
	}
	if v := c.PostForm("fetch_rate"); v != "" {
		fetch, err := strconv.ParseBool(v)
		if err != nil {
			return s, fmt.Errorf("invalid fetch_rate: %w", err)
		}
		s.FetchRate = fetch
	}
	if v := c.PostForm("export"); v != "" {
		export, err := strconv.ParseBool(v)
		if err != nil {
			return s, fmt.Errorf("invalid export: %w", err)
		}
		s.Export = export
	}
	return s, s.Validate()
}

// Process runs a full pass over the uploaded supplier files
func Process(c *gin.Context) {
	s, ok := requireSession(c)
	if !ok {
		return
	}

	files := make(map[types.SupplierID]pipeline.Source)
	for _, id := range types.SupplierIDs {
		for _, field := range formFields(id) {
			fh, err := c.FormFile(field)
			if err != nil {
				continue
			}
			src, err := readUpload(fh)
			if err != nil {
				c.JSON(http.StatusBadRequest, ErrorResponse{Error: err.Error()})
				return
			}
			files[id] = src
			break
		}
	}
	if len(files) == 0 {
		c.JSON(http.StatusBadRequest, ErrorResponse{Error: "no supplier files uploaded"})
		return
	}

	settings, err := settingsFromForm(c, s.Settings())
	if err != nil {
		c.JSON(http.StatusBadRequest, ErrorResponse{Error: err.Error()})
		return
	}

	col := &collector{}
	result, err := s.Process(c.Request.Context(), files, settings, col)
	if err != nil {
		status := http.StatusInternalServerError
		if errors.Is(err, pipeline.ErrNoSupplierData) {
			status = http.StatusUnprocessableEntity
		}
		log.Error().Err(err).Int("files", len(files)).Msg("Processing failed")
		c.JSON(status, gin.H{"error": err.Error(), "warnings": col.warnings})
		return
	}

	c.JSON(http.StatusOK, ProcessResponse{
		RunID:      result.RunID,
		Settings:   result.Settings,
		Reports:    result.Reports,
		Warnings:   col.warnings,
		Converted:  result.Converted,
		ReportPath: result.ReportPath,
		Summary:    result.Summary,
		Duration:   formatDuration(result.Duration),
	})
}

// Recalculate re-ranks the last run with a new margin and join strategy
func Recalculate(c *gin.Context) {
	s, ok := requireSession(c)
	if !ok {
		return
	}

	var req RecalculateRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, ErrorResponse{Error: err.Error()})
		return
	}

	current := s.Settings()
	margin := current.MarginPct
	if req.MarginPct != nil {
		margin = *req.MarginPct
	}
	strategy := current.JoinStrategy
	if req.JoinStrategy != "" {
		parsed, err := engine.ParseJoinStrategy(req.JoinStrategy)
		if err != nil {
			c.JSON(http.StatusBadRequest, ErrorResponse{Error: err.Error()})
			return
		}
		strategy = parsed
	}
	if err := current.WithMargin(margin).WithJoinStrategy(strategy).Validate(); err != nil {
		c.JSON(http.StatusBadRequest, ErrorResponse{Error: err.Error()})
		return
	}

	if err := s.Recalculate(margin, strategy); err != nil {
		respondSessionError(c, err)
		return
	}

	var resp gin.H
	err := s.View(func(r *pipeline.Result) error {
		resp = gin.H{"settings": r.Settings, "summary": r.Summary}
		return nil
	})
	if err != nil {
		respondSessionError(c, err)
		return
	}
	c.JSON(http.StatusOK, resp)
}

// LatestRun returns the per-supplier reports of the last run
func LatestRun(c *gin.Context) {
	s, ok := requireSession(c)
	if !ok {
		return
	}

	var resp gin.H
	err := s.View(func(r *pipeline.Result) error {
		resp = gin.H{
			"runId":      r.RunID,
			"startedAt":  r.StartedAt,
			"duration":   formatDuration(r.Duration),
			"settings":   r.Settings,
			"reports":    r.Reports,
			"failed":     len(r.Failed()),
			"converted":  r.Converted,
			"reportPath": r.ReportPath,
		}
		return nil
	})
	if err != nil {
		respondSessionError(c, err)
		return
	}
	c.JSON(http.StatusOK, resp)
}
