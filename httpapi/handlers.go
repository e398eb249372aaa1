package httpapi

import (
	"io"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"

	"github.com/goliatone/go-studio/core"
	"github.com/goliatone/go-studio/protocols"
)

const maxInboundBody = 1 << 20 // 1MB

// renderError maps any service error onto the shared JSON envelope.
func renderError(c *gin.Context, err error) {
	mapped := core.MapError(err)
	c.JSON(mapped.Code, gin.H{
		"error": gin.H{
			"message":   mapped.Message,
			"text_code": mapped.TextCode,
		},
	})
}

func protocolID(c *gin.Context) (int, bool) {
	id, err := strconv.Atoi(c.Param("id"))
	if err != nil {
		renderError(c, core.ValidationError("httpapi: protocol id must be an integer"))
		return 0, false
	}
	return id, true
}

// Task handlers

func (s *Server) handleListTasks(c *gin.Context) {
	out, err := s.lifecycle.List(c.Request.Context())
	if err != nil {
		renderError(c, err)
		return
	}
	c.JSON(http.StatusOK, out)
}

func (s *Server) handleCreateTask(c *gin.Context) {
	var input core.TaskInput
	if err := c.ShouldBindJSON(&input); err != nil {
		renderError(c, core.ValidationError("httpapi: invalid task body"))
		return
	}
	task, err := s.lifecycle.Create(c.Request.Context(), input)
	if err != nil {
		renderError(c, err)
		return
	}
	c.JSON(http.StatusCreated, task)
}

func (s *Server) handleGetTask(c *gin.Context) {
	task, err := s.lifecycle.Get(c.Request.Context(), c.Param("id"))
	if err != nil {
		renderError(c, err)
		return
	}
	c.JSON(http.StatusOK, task)
}

func (s *Server) handleUpdateTask(c *gin.Context) {
	var patch core.TaskPatch
	if err := c.ShouldBindJSON(&patch); err != nil {
		renderError(c, core.ValidationError("httpapi: invalid task patch"))
		return
	}
	task, err := s.lifecycle.Update(c.Request.Context(), c.Param("id"), patch)
	if err != nil {
		renderError(c, err)
		return
	}
	c.JSON(http.StatusOK, task)
}

func (s *Server) handleDeleteTask(c *gin.Context) {
	if err := s.lifecycle.Delete(c.Request.Context(), c.Param("id")); err != nil {
		renderError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"deleted": true})
}

// Protocol handlers

func (s *Server) handleListProtocols(c *gin.Context) {
	out, err := s.catalog.List(c.Request.Context())
	if err != nil {
		renderError(c, err)
		return
	}
	c.JSON(http.StatusOK, out)
}

func (s *Server) handleGetProtocol(c *gin.Context) {
	id, ok := protocolID(c)
	if !ok {
		return
	}
	protocol, err := s.catalog.Get(c.Request.Context(), id)
	if err != nil {
		renderError(c, err)
		return
	}
	c.JSON(http.StatusOK, protocol)
}

func (s *Server) handleProtocolSummary(c *gin.Context) {
	summary, err := s.catalog.Summary(c.Request.Context())
	if err != nil {
		renderError(c, err)
		return
	}
	c.JSON(http.StatusOK, summary)
}

func (s *Server) handleListProtocolMeta(c *gin.Context) {
	meta, err := s.catalog.Meta(c.Request.Context())
	if err != nil {
		renderError(c, err)
		return
	}
	c.JSON(http.StatusOK, meta)
}

func (s *Server) handleUpdateProtocolMeta(c *gin.Context) {
	var input protocols.UpdateMetaInput
	if err := c.ShouldBindJSON(&input); err != nil {
		renderError(c, core.ValidationError("httpapi: invalid meta body"))
		return
	}
	meta, err := s.catalog.UpdateMeta(c.Request.Context(), input)
	if err != nil {
		renderError(c, err)
		return
	}
	c.JSON(http.StatusOK, meta)
}

func (s *Server) handleUpdateProtocolStatus(c *gin.Context) {
	id, ok := protocolID(c)
	if !ok {
		return
	}
	var input protocols.UpdateStatusInput
	if err := c.ShouldBindJSON(&input); err != nil {
		renderError(c, core.ValidationError("httpapi: invalid status body"))
		return
	}
	protocol, err := s.catalog.UpdateStatus(c.Request.Context(), id, input)
	if err != nil {
		renderError(c, err)
		return
	}
	c.JSON(http.StatusOK, protocol)
}

// Session handlers

func (s *Server) handleListSessions(c *gin.Context) {
	id, ok := protocolID(c)
	if !ok {
		return
	}
	sessions, err := s.sessions.ListByProtocol(c.Request.Context(), id)
	if err != nil {
		renderError(c, err)
		return
	}
	if sessions == nil {
		sessions = []core.ProtocolSession{}
	}
	c.JSON(http.StatusOK, sessions)
}

func (s *Server) handleRecordSession(c *gin.Context) {
	id, ok := protocolID(c)
	if !ok {
		return
	}
	var input core.SessionInput
	if err := c.ShouldBindJSON(&input); err != nil {
		renderError(c, core.ValidationError("httpapi: invalid session body"))
		return
	}
	session, protocol, err := s.engine.RecordSession(c.Request.Context(), id, input)
	if err != nil {
		// The append may have happened even when the projection failed;
		// the error envelope is still the caller's answer.
		renderError(c, err)
		return
	}
	c.JSON(http.StatusCreated, gin.H{"session": session, "protocol": protocol})
}

func (s *Server) handleRecordBasicSession(c *gin.Context) {
	id, ok := protocolID(c)
	if !ok {
		return
	}
	var input core.BasicSessionInput
	if err := c.ShouldBindJSON(&input); err != nil {
		renderError(c, core.ValidationError("httpapi: invalid session body"))
		return
	}
	session, protocol, err := s.engine.RecordBasicSession(c.Request.Context(), id, input)
	if err != nil {
		renderError(c, err)
		return
	}
	c.JSON(http.StatusCreated, gin.H{"session": session, "protocol": protocol})
}

// Inbound webhook

func (s *Server) handleIncomingWebhook(c *gin.Context) {
	if err := s.receiver.Verify(c.Query("secret")); err != nil {
		renderError(c, err)
		return
	}
	body, err := io.ReadAll(io.LimitReader(c.Request.Body, maxInboundBody))
	if err != nil {
		renderError(c, core.ValidationError("httpapi: unreadable webhook body"))
		return
	}
	ack := s.receiver.Receive(c.Request.Context(), body)
	c.JSON(http.StatusOK, ack)
}
