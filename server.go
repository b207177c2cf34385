package main

import (
	"embed"
	"html/template"
	"log"
	"net/http"
	"os"
	"path/filepath"
	"strconv"
	"sync"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
)

//go:embed templates/index.html
var templateFS embed.FS

// Server is the web upload entry point: images in, manifest out
type Server struct {
	config   *Config
	pipeline *Pipeline
	hub      *Hub
	ledger   *Ledger
	metrics  *Metrics

	// models are not reentrant, so uploads run one at a time
	runMu sync.Mutex
}

// NewServer wires the HTTP handlers; ledger and metrics may be nil
func NewServer(config *Config, pipeline *Pipeline, hub *Hub, ledger *Ledger, metrics *Metrics) *Server {
	return &Server{
		config:   config,
		pipeline: pipeline,
		hub:      hub,
		ledger:   ledger,
		metrics:  metrics,
	}
}

// Router builds the gin engine
func (s *Server) Router() *gin.Engine {
	router := gin.Default()
	_ = router.SetTrustedProxies([]string{"127.0.0.1"})
	router.MaxMultipartMemory = 32 << 20
	router.SetHTMLTemplate(template.Must(template.ParseFS(templateFS, "templates/index.html")))

	router.GET("/", s.handleIndex)
	router.POST("/", s.handleUpload)
	router.GET("/ws", WSHandler(s.hub))
	router.GET("/health", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "ok", "ws_clients": s.hub.Count()})
	})
	router.GET("/runs", s.handleRuns)
	router.GET("/runs/:id", s.handleRunItems)
	if s.metrics != nil {
		router.GET("/metrics", gin.WrapH(s.metrics.Handler()))
	}

	return router
}

func (s *Server) handleIndex(c *gin.Context) {
	site, err := s.config.Site()
	if err != nil {
		site = SiteAdobeStock
	}
	c.HTML(http.StatusOK, "index.html", gin.H{
		"Sites":       []StockSite{SiteAdobeStock, SiteShutterstock},
		"DefaultSite": site,
	})
}

// handleUpload stages the uploaded images, runs the pipeline synchronously
// and sends the manifest back as a download. Staged and processed files are
// removed afterwards.
func (s *Server) handleUpload(c *gin.Context) {
	c.Request.Body = http.MaxBytesReader(c.Writer, c.Request.Body, s.config.MaxUploadBytes())

	site, err := ParseStockSite(c.PostForm("stock_site"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	form, err := c.MultipartForm()
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid upload: " + err.Error()})
		return
	}
	files := form.File["file"]
	if len(files) == 0 {
		c.JSON(http.StatusBadRequest, gin.H{"error": "no files uploaded"})
		return
	}

	runID := uuid.NewString()
	stagingDir := filepath.Join(s.config.Settings.Server.UploadDirectory, runID)
	outputDir := filepath.Join(s.config.Settings.Server.ProcessedDirectory, runID)
	defer cleanDirectory(stagingDir)
	defer cleanDirectory(outputDir)

	if err := os.MkdirAll(stagingDir, 0755); err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}
	for _, fh := range files {
		name := filepath.Base(fh.Filename)
		if name == "." || name == string(filepath.Separator) {
			continue
		}
		if err := c.SaveUploadedFile(fh, filepath.Join(stagingDir, name)); err != nil {
			c.JSON(http.StatusInternalServerError, gin.H{"error": "saving upload: " + err.Error()})
			return
		}
	}

	s.runMu.Lock()
	defer s.runMu.Unlock()

	events := make(chan Event, workerEventBuffer)
	forwarded := make(chan struct{})
	go func() {
		s.hub.Forward(events)
		close(forwarded)
	}()

	result, err := s.pipeline.Run(c.Request.Context(), RunRequest{
		RunID:     runID,
		InputDir:  stagingDir,
		OutputDir: outputDir,
		Site:      site,
	}, events)
	close(events)
	<-forwarded

	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error(), "run_id": runID})
		return
	}
	if result.State != StateCompleted {
		c.JSON(http.StatusServiceUnavailable, gin.H{"error": "run " + string(result.State), "run_id": runID})
		return
	}

	c.FileAttachment(result.ManifestPath, filepath.Base(result.ManifestPath))
}

func (s *Server) handleRuns(c *gin.Context) {
	if s.ledger == nil {
		c.JSON(http.StatusNotFound, gin.H{"error": "run ledger disabled"})
		return
	}
	limit, _ := strconv.Atoi(c.DefaultQuery("limit", "20"))
	runs, err := s.ledger.ListRuns(c.Request.Context(), limit)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}
	c.JSON(http.StatusOK, gin.H{"runs": runs})
}

func (s *Server) handleRunItems(c *gin.Context) {
	if s.ledger == nil {
		c.JSON(http.StatusNotFound, gin.H{"error": "run ledger disabled"})
		return
	}
	items, err := s.ledger.RunItems(c.Request.Context(), c.Param("id"))
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}
	if len(items) == 0 {
		c.JSON(http.StatusNotFound, gin.H{"error": "run not found"})
		return
	}
	c.JSON(http.StatusOK, gin.H{"run_id": c.Param("id"), "items": items})
}

func cleanDirectory(dir string) {
	if err := os.RemoveAll(dir); err != nil {
		log.Printf("Failed to delete %s: %v", dir, err)
	}
}
