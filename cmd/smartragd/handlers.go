package main

import (
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/gorilla/websocket"

	"github.com/smartrag/smartrag-core/internal/orchestrator"
	"github.com/smartrag/smartrag-core/internal/ragerr"
	"github.com/smartrag/smartrag-core/pkg/ragtypes"
)

// server holds the gin handler methods, grounded on
// unified-rag-service/main.go's UnifiedRAGService handler set
// (uploadDocumentHandler, ragQueryHandler, healthHandler), generalized
// from its hardcoded legal-document shape to the Document/QueryRequest
// model.
type server struct {
	orch *orchestrator.Orchestrator
}

type uploadRequest struct {
	FileName    string `json:"fileName" binding:"required"`
	ContentType string `json:"contentType"`
	Content     string `json:"content" binding:"required"`
	UploadedBy  string `json:"uploadedBy"`
	DocumentType string `json:"documentType"`
	TenantID    string `json:"tenantId"`
}

func (s *server) uploadDocument(c *gin.Context) {
	var req uploadRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"success": false, "error": fmt.Sprintf("invalid upload request: %v", err)})
		return
	}

	docType := ragtypes.DocumentTypeText
	if req.DocumentType != "" {
		docType = ragtypes.DocumentType(req.DocumentType)
	}

	doc, err := s.orch.IngestDocument(c.Request.Context(), ragtypes.Document{
		ID:          uuid.NewString(),
		FileName:    req.FileName,
		ContentType: req.ContentType,
		Content:     req.Content,
		UploadedBy:  req.UploadedBy,
		UploadedAt:  time.Now(),
		FileSize:    int64(len(req.Content)),
		DocType:     docType,
		TenantID:    req.TenantID,
	})
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"success": true, "documentId": doc.ID, "chunkCount": len(doc.Chunks)})
}

type queryRequestBody struct {
	SessionID string `json:"sessionId" binding:"required"`
	Query     string `json:"query" binding:"required"`
}

func (s *server) query(c *gin.Context) {
	var req queryRequestBody
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"success": false, "error": fmt.Sprintf("invalid query: %v", err)})
		return
	}

	resp, err := s.orch.Query(c.Request.Context(), ragtypes.QueryRequest{
		SessionID: req.SessionID,
		Query:     req.Query,
		Options:   ragtypes.DefaultSearchOptions(),
	})
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, resp)
}

var wsUpgrader = websocket.Upgrader{
	ReadBufferSize:  4096,
	WriteBufferSize: 4096,
	// The gin CORS middleware sends Access-Control-Allow-Origin: * and
	// checks no origin; the websocket handshake likewise accepts any origin.
	CheckOrigin: func(r *http.Request) bool { return true },
}

// streamQuery upgrades to a websocket connection and streams each
// inbound {"sessionId","query"} message back as one JSON RagResponse
// frame per turn, grounded on sse-rag-service's one-event-per-turn
// streaming shape but generalized onto a bidirectional socket instead
// of a one-shot SSE response.
func (s *server) streamQuery(c *gin.Context) {
	conn, err := wsUpgrader.Upgrade(c.Writer, c.Request, nil)
	if err != nil {
		return
	}
	defer conn.Close()

	for {
		var req queryRequestBody
		if err := conn.ReadJSON(&req); err != nil {
			return
		}
		resp, err := s.orch.Query(c.Request.Context(), ragtypes.QueryRequest{
			SessionID: req.SessionID,
			Query:     req.Query,
			Options:   ragtypes.DefaultSearchOptions(),
		})
		if err != nil {
			if writeErr := conn.WriteJSON(gin.H{"success": false, "error": err.Error()}); writeErr != nil {
				return
			}
			continue
		}
		if err := conn.WriteJSON(resp); err != nil {
			return
		}
	}
}

func (s *server) health(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"status": "ok"})
}

func respondError(c *gin.Context, err error) {
	status := http.StatusInternalServerError
	switch {
	case errors.Is(err, ragerr.ErrInvalidInput), errors.Is(err, ragerr.ErrInvalidConfiguration):
		status = http.StatusBadRequest
	case errors.Is(err, ragerr.ErrCancelled):
		status = http.StatusRequestTimeout
	}
	c.JSON(status, gin.H{"success": false, "error": err.Error()})
}
