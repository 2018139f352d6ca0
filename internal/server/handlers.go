package server

import (
	"errors"
	"io"
	"net/http"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/entanglegraph/entanglegraph/internal/adapters/registry"
	"github.com/entanglegraph/entanglegraph/internal/app/dto"
	"github.com/entanglegraph/entanglegraph/internal/core/entangle"
	"github.com/entanglegraph/entanglegraph/pkg/validation"
)

// badRequestSentinels are service errors caused by the request itself.
// Anything else that is not a not-found is the server's fault.
var badRequestSentinels = []error{
	dto.ErrMissingGraphName,
	dto.ErrMissingSource,
	dto.ErrMissingTarget,
	dto.ErrStrengthOutOfRange,
	dto.ErrInvalidAmplify,
	dto.ErrInvalidKind,
	dto.ErrInvalidLimit,
	dto.ErrInvalidTopN,
	entangle.ErrInvalidDefaultStrength,
	entangle.ErrInvalidDecayRate,
	entangle.ErrInvalidMaxDepth,
}

func (s *Server) renderError(c *gin.Context, err error) {
	status := http.StatusInternalServerError
	switch {
	case errors.Is(err, registry.ErrInstanceNotFound):
		status = http.StatusNotFound
	default:
		for _, sentinel := range badRequestSentinels {
			if errors.Is(err, sentinel) {
				status = http.StatusBadRequest
				break
			}
		}
	}
	c.JSON(status, validation.ErrorResponse{Error: err.Error()})
}

func (s *Server) handleHealthz(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"status": "ok"})
}

func (s *Server) handleCreateGraph(c *gin.Context) {
	var req dto.CreateGraphRequest
	if !validation.BindJSON(c, &req) {
		return
	}
	resp, err := s.graphs.CreateGraph(&req)
	if err != nil {
		s.renderError(c, err)
		return
	}
	c.JSON(http.StatusCreated, resp)
}

func (s *Server) handleListGraphs(c *gin.Context) {
	graphs := s.graphs.ListGraphs()
	c.JSON(http.StatusOK, gin.H{
		"graphs": graphs,
		"count":  len(graphs),
	})
}

func (s *Server) handleGetGraph(c *gin.Context) {
	resp, err := s.graphs.GetGraph(c.Param("id"))
	if err != nil {
		s.renderError(c, err)
		return
	}
	c.JSON(http.StatusOK, resp)
}

func (s *Server) handleDeleteGraph(c *gin.Context) {
	if err := s.graphs.DeleteGraph(c.Param("id")); err != nil {
		s.renderError(c, err)
		return
	}
	c.Status(http.StatusNoContent)
}

func (s *Server) handleEntangle(c *gin.Context) {
	var req dto.EntangleRequest
	if !validation.BindJSON(c, &req) {
		return
	}
	resp, err := s.graphs.Entangle(c.Param("id"), &req)
	if err != nil {
		s.renderError(c, err)
		return
	}
	c.JSON(http.StatusOK, resp)
}

func (s *Server) handleDisentangle(c *gin.Context) {
	var req dto.DisentangleRequest
	if !validation.BindJSON(c, &req) {
		return
	}
	resp, err := s.graphs.Disentangle(c.Param("id"), &req)
	if err != nil {
		s.renderError(c, err)
		return
	}
	c.JSON(http.StatusOK, resp)
}

func (s *Server) handlePropagate(c *gin.Context) {
	var req dto.PropagateRequest
	if !validation.BindJSON(c, &req) {
		return
	}
	resp, err := s.graphs.Propagate(c.Param("id"), &req)
	if err != nil {
		s.renderError(c, err)
		return
	}
	c.JSON(http.StatusOK, resp)
}

func (s *Server) handleEntanglements(c *gin.Context) {
	views, err := s.graphs.Entanglements(c.Param("id"))
	if err != nil {
		s.renderError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{
		"entanglements": views,
		"count":         len(views),
	})
}

func (s *Server) handleState(c *gin.Context) {
	resp, err := s.graphs.GetGraph(c.Param("id"))
	if err != nil {
		s.renderError(c, err)
		return
	}
	c.JSON(http.StatusOK, resp.State)
}

func (s *Server) handleAnalytics(c *gin.Context) {
	var q dto.AnalyticsQuery
	if !validation.BindQuery(c, &q) {
		return
	}
	if err := q.Validate(); err != nil {
		s.renderError(c, err)
		return
	}
	report, err := s.graphs.Analytics(c.Param("id"), q.Top)
	if err != nil {
		s.renderError(c, err)
		return
	}
	c.JSON(http.StatusOK, report)
}

func (s *Server) handleJournal(c *gin.Context) {
	var q dto.JournalQuery
	if !validation.BindQuery(c, &q) {
		return
	}
	entries, err := s.graphs.Journal(c.Param("id"), &q)
	if err != nil {
		s.renderError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{
		"entries": entries,
		"count":   len(entries),
	})
}

func (s *Server) handleJournalAll(c *gin.Context) {
	var q dto.JournalQuery
	if !validation.BindQuery(c, &q) {
		return
	}
	entries, err := s.graphs.JournalAll(&q)
	if err != nil {
		s.renderError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{
		"entries": entries,
		"count":   len(entries),
	})
}

// handleJournalExport serves both the per-graph and the global export route;
// the :id param is empty on the global one.
func (s *Server) handleJournalExport(c *gin.Context) {
	data, codec, err := s.graphs.ExportJournal(c.Param("id"))
	if err != nil {
		s.renderError(c, err)
		return
	}
	c.Header("X-Journal-Codec", codec)
	c.Data(http.StatusOK, "application/octet-stream", data)
}

func (s *Server) handleJournalImport(c *gin.Context) {
	data, err := io.ReadAll(c.Request.Body)
	if err != nil {
		c.JSON(http.StatusBadRequest, validation.ErrorResponse{
			Error: "failed to read request body: " + err.Error(),
		})
		return
	}
	count, err := s.graphs.ImportJournal(data)
	if err != nil {
		// Snapshots come from this server's export endpoint; anything that
		// fails to decode is a client-side problem.
		c.JSON(http.StatusBadRequest, validation.ErrorResponse{Error: err.Error()})
		return
	}
	c.JSON(http.StatusOK, gin.H{"imported": count})
}

// handleWorkloadStart accepts optional interval and nodes query parameters;
// values that fail to parse keep the configured defaults.
func (s *Server) handleWorkloadStart(c *gin.Context) {
	var interval time.Duration
	if v := c.Query("interval"); v != "" {
		if parsed, err := time.ParseDuration(v); err == nil {
			interval = parsed
		}
	}
	var nodes int
	if v := c.Query("nodes"); v != "" {
		if parsed, err := strconv.Atoi(v); err == nil {
			nodes = parsed
		}
	}

	if err := s.workload.Start(interval, nodes); err != nil {
		if errors.Is(err, ErrWorkloadRunning) {
			c.JSON(http.StatusConflict, validation.ErrorResponse{Error: err.Error()})
			return
		}
		s.renderError(c, err)
		return
	}
	c.JSON(http.StatusAccepted, gin.H{"status": "started"})
}

func (s *Server) handleWorkloadStop(c *gin.Context) {
	s.workload.Stop()
	c.JSON(http.StatusOK, gin.H{"status": "stopped"})
}
