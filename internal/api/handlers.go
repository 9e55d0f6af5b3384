package api

import (
	"context"
	"net/http"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/sandkit/playground/internal/language"
	"github.com/sandkit/playground/internal/runner"
)

type runRequest struct {
	Code      string `json:"code" binding:"required"`
	Language  string `json:"language"`
	SessionID string `json:"sessionId"`
}

type codeRequest struct {
	Code     string `json:"code" binding:"required"`
	Language string `json:"language"`
}

type sessionRequest struct {
	SessionID string `json:"sessionId" binding:"required"`
}

type envRequest struct {
	Vars map[string]string `json:"vars" binding:"required"`
}

func (s *Server) root(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{
		"service": "playground",
		"status":  "running",
	})
}

func (s *Server) health(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"status": "ok"})
}

func (s *Server) run(c *gin.Context) {
	var req runRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	ctx := c.Request.Context()
	var slot *sessionSlot
	if req.SessionID != "" {
		var cancel context.CancelFunc
		ctx, cancel = context.WithCancel(ctx)
		slot = &sessionSlot{cancel: cancel}
		s.claimSession(req.SessionID, slot)
		defer s.releaseSession(req.SessionID, slot)
	}

	results, err := s.runner.Run(ctx, req.Code, req.Language)
	if err != nil {
		s.log.Error("run failed", zap.Error(err))
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}
	c.JSON(http.StatusOK, gin.H{"results": results})
}

// claimSession installs slot as the session's live run, cancelling any
// outstanding one (last-request-wins).
func (s *Server) claimSession(id string, slot *sessionSlot) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if prev, ok := s.sessions[id]; ok {
		prev.cancel()
	}
	s.sessions[id] = slot
}

func (s *Server) releaseSession(id string, slot *sessionSlot) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.sessions[id] == slot {
		delete(s.sessions, id)
	}
	slot.cancel()
}

func (s *Server) cancel(c *gin.Context) {
	var req sessionRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	s.mu.Lock()
	slot, ok := s.sessions[req.SessionID]
	if ok {
		slot.cancel()
		delete(s.sessions, req.SessionID)
	}
	s.mu.Unlock()

	c.JSON(http.StatusOK, gin.H{"cancelled": ok})
}

func (s *Server) transform(c *gin.Context) {
	var req codeRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	out, err := s.runner.TransformCode(req.Code, req.Language)
	if err != nil {
		c.JSON(http.StatusUnprocessableEntity, gin.H{"error": err.Error()})
		return
	}
	c.JSON(http.StatusOK, gin.H{"code": out})
}

func (s *Server) detect(c *gin.Context) {
	var req codeRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	det := language.Detect(req.Code)
	c.JSON(http.StatusOK, gin.H{
		"extension":     det.Extension,
		"languageId":    det.LanguageID,
		"hasJsx":        det.HasJSX,
		"hasTypescript": det.HasTypeScript,
	})
}

func (s *Server) setEnv(c *gin.Context) {
	var req envRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	runner.SetEnvironmentVariables(req.Vars)
	c.JSON(http.StatusOK, gin.H{"updated": len(req.Vars)})
}
