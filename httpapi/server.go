// Package httpapi mounts the studio services on a gin router.
package httpapi

import (
	"context"
	"fmt"

	"github.com/gin-gonic/gin"

	"github.com/goliatone/go-studio/core"
	"github.com/goliatone/go-studio/inbound"
	"github.com/goliatone/go-studio/progress"
	"github.com/goliatone/go-studio/protocols"
	"github.com/goliatone/go-studio/tasks"
)

// Server owns the router and the services behind each route group.
type Server struct {
	lifecycle *tasks.Lifecycle
	engine    *progress.Engine
	catalog   *protocols.Service
	sessions  core.SessionStore
	receiver  *inbound.Receiver
	logger    core.Logger
	router    *gin.Engine
}

func NewServer(
	lifecycle *tasks.Lifecycle,
	engine *progress.Engine,
	catalog *protocols.Service,
	sessions core.SessionStore,
	receiver *inbound.Receiver,
	logger core.Logger,
) (*Server, error) {
	if lifecycle == nil {
		return nil, fmt.Errorf("httpapi: task lifecycle is required")
	}
	if engine == nil {
		return nil, fmt.Errorf("httpapi: progress engine is required")
	}
	if catalog == nil {
		return nil, fmt.Errorf("httpapi: protocol service is required")
	}
	if sessions == nil {
		return nil, fmt.Errorf("httpapi: session store is required")
	}
	if receiver == nil {
		return nil, fmt.Errorf("httpapi: inbound receiver is required")
	}

	router := gin.Default()
	s := &Server{
		lifecycle: lifecycle,
		engine:    engine,
		catalog:   catalog,
		sessions:  sessions,
		receiver:  receiver,
		logger:    logger,
		router:    router,
	}

	api := router.Group("/api")
	{
		api.GET("/tasks", s.handleListTasks)
		api.POST("/tasks", s.handleCreateTask)
		api.GET("/tasks/:id", s.handleGetTask)
		api.PUT("/tasks/:id", s.handleUpdateTask)
		api.DELETE("/tasks/:id", s.handleDeleteTask)

		api.GET("/protocols", s.handleListProtocols)
		api.GET("/protocols/summary", s.handleProtocolSummary)
		api.GET("/protocols/meta", s.handleListProtocolMeta)
		api.PUT("/protocols/meta", s.handleUpdateProtocolMeta)
		api.GET("/protocols/:id", s.handleGetProtocol)
		api.PUT("/protocols/:id/status", s.handleUpdateProtocolStatus)
		api.GET("/protocols/:id/sessions", s.handleListSessions)
		api.POST("/protocols/:id/sessions", s.handleRecordSession)
		api.POST("/protocols/:id/sessions/basic", s.handleRecordBasicSession)

		api.POST("/incoming-webhook", s.handleIncomingWebhook)
	}

	return s, nil
}

// Handler exposes the router for tests and embedding.
func (s *Server) Handler() *gin.Engine {
	if s == nil {
		return nil
	}
	return s.router
}

// Run serves until the listener fails or the context is canceled by the
// caller shutting the process down.
func (s *Server) Run(_ context.Context, addr string) error {
	if s == nil || s.router == nil {
		return fmt.Errorf("httpapi: server is not configured")
	}
	return s.router.Run(addr)
}
