package server

import (
	"errors"
	"net/http"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/hupe1980/agentcrew/internal/util"
	"github.com/hupe1980/agentcrew/session"
	"github.com/hupe1980/agentcrew/workspace"
)

const (
	defaultMessageLimit = 50
	filePreviewLimit    = 500
)

// fileExtensions are the workspace files shown by /files.
var fileExtensions = map[string]bool{".go": true, ".txt": true, ".md": true, ".json": true, ".mod": true}

type promptRequest struct {
	Prompt string `json:"prompt"`
}

type agentInfo struct {
	ID          string            `json:"id"`
	Name        string            `json:"name"`
	Model       map[string]string `json:"model"`
	Tools       []string          `json:"tools"`
	Description string            `json:"description"`
}

type fileInfo struct {
	Name     string    `json:"name"`
	Path     string    `json:"path"`
	Size     int64     `json:"size"`
	Modified time.Time `json:"modified"`
	Content  string    `json:"content"`
}

func success(extra gin.H) gin.H {
	out := gin.H{"status": "success"}
	for k, v := range extra {
		out[k] = v
	}
	return out
}

func failure(c *gin.Context, code int, msg string) {
	c.JSON(code, gin.H{"status": "error", "message": msg})
}

func (s *Server) current(c *gin.Context) (*session.Workflow, bool) {
	w, err := s.store.Current()
	if err != nil {
		failure(c, http.StatusServiceUnavailable, "Agents not available: "+err.Error())
		return nil, false
	}
	return w, true
}

func (s *Server) handleHealth(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{
		"status": "ok",
		"uptime": time.Since(s.startTime).Round(time.Second).String(),
	})
}

func (s *Server) handleAgents(c *gin.Context) {
	w, ok := s.current(c)
	if !ok {
		return
	}

	type described interface {
		Model() string
		ToolNames() []string
	}

	agents := make([]agentInfo, 0)
	for _, a := range w.Agents() {
		info := agentInfo{
			ID:          session.AgentID(a.Name()),
			Name:        a.Name(),
			Model:       map[string]string{},
			Tools:       []string{},
			Description: "Agent: " + a.Name(),
		}
		if d, ok := a.(described); ok {
			info.Model["id"] = d.Model()
			info.Tools = d.ToolNames()
		}
		agents = append(agents, info)
	}

	c.JSON(http.StatusOK, success(gin.H{"agents": agents}))
}

func (s *Server) handleMessages(c *gin.Context) {
	limit := defaultMessageLimit
	if raw := c.Query("limit"); raw != "" {
		n, err := strconv.Atoi(raw)
		if err != nil || n < 0 {
			failure(c, http.StatusBadRequest, "limit must be a non-negative integer")
			return
		}
		limit = n
	}

	w, ok := s.current(c)
	if !ok {
		return
	}
	c.JSON(http.StatusOK, success(gin.H{"messages": w.Communications(limit)}))
}

func (s *Server) handleTasks(c *gin.Context) {
	w, ok := s.current(c)
	if !ok {
		return
	}
	tasks, err := w.Tasks()
	if err != nil {
		failure(c, http.StatusInternalServerError, err.Error())
		return
	}

	c.JSON(http.StatusOK, success(gin.H{
		"tasks":            tasks,
		"currentTaskIndex": currentTaskIndex(tasks),
		"workflowStatus":   w.Status(),
		"progress":         workspace.Summarize(tasks),
	}))
}

// currentTaskIndex is the first task not completed, or len(tasks) when all are.
func currentTaskIndex(tasks []workspace.Task) int {
	for i, t := range tasks {
		if t.Status != workspace.StatusCompleted {
			return i
		}
	}
	return len(tasks)
}

func (s *Server) handleFiles(c *gin.Context) {
	entries, err := s.ws.Files()
	if err != nil {
		failure(c, http.StatusInternalServerError, err.Error())
		return
	}

	files := make([]fileInfo, 0, len(entries))
	for _, e := range entries {
		if !fileExtensions[strings.ToLower(filepath.Ext(e.Name))] {
			continue
		}
		path := filepath.Join(s.ws.Dir(), e.Name)
		data, err := os.ReadFile(path)
		if err != nil {
			s.opts.Logger.Warn("server.files.read", "file", e.Name, "error", err.Error())
			continue
		}
		fi := fileInfo{Name: e.Name, Path: path, Size: int64(len(data)), Content: string(data)}
		if st, err := os.Stat(path); err == nil {
			fi.Modified = st.ModTime()
		}
		fi.Content = util.Truncate(fi.Content, filePreviewLimit)
		files = append(files, fi)
	}

	c.JSON(http.StatusOK, success(gin.H{"files": files}))
}

func (s *Server) handleStatus(c *gin.Context) {
	w, ok := s.current(c)
	if !ok {
		return
	}
	c.JSON(http.StatusOK, success(gin.H{"system_status": w.Info()}))
}

func (s *Server) handleSubmitPrompt(c *gin.Context) {
	var req promptRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		failure(c, http.StatusBadRequest, "invalid request: "+err.Error())
		return
	}
	req.Prompt = strings.TrimSpace(req.Prompt)
	if req.Prompt == "" {
		failure(c, http.StatusBadRequest, "prompt is required")
		return
	}

	w, ok := s.current(c)
	if !ok {
		return
	}

	if err := w.Start(s.runCtx, req.Prompt); err != nil {
		if errors.Is(err, session.ErrRunning) {
			failure(c, http.StatusConflict, "Workflow already running")
			return
		}
		failure(c, http.StatusInternalServerError, err.Error())
		return
	}

	s.opts.Logger.Info("server.workflow.started", "workflow", w.ID())
	c.JSON(http.StatusAccepted, success(gin.H{"message": "Workflow started", "workflow_id": w.ID()}))
}

func (s *Server) handleReset(c *gin.Context) {
	w, ok := s.current(c)
	if !ok {
		return
	}
	if err := w.Reset(c.Request.Context()); err != nil {
		failure(c, http.StatusInternalServerError, err.Error())
		return
	}
	c.JSON(http.StatusOK, success(gin.H{"message": "System reset successfully"}))
}
