package api

import (
	"context"
	"errors"
	"io"
	"net/http"
	"strconv"
	"strings"

	"github.com/gin-gonic/gin"

	"propertyrag/internal/models"
	"propertyrag/internal/objectstore"
	"propertyrag/internal/rag/interfaces"
	"propertyrag/internal/rag/pipeline"
	"propertyrag/internal/store"
	"propertyrag/pkg/logger"
)

// HealthCheck reports whether one backing component is reachable.
type HealthCheck func(ctx context.Context) error

// API provides handlers for the document and query endpoints.
type API struct {
	ingestion *pipeline.IngestionPipeline
	answers   *pipeline.AnswerEngine
	documents *store.DocumentDAL
	projects  *store.ProjectDAL
	extracted *store.ExtractedDAL
	vectors   interfaces.VectorStore
	objects   *objectstore.DocumentStore
	health    map[string]HealthCheck
	logger    *logger.Logger
}

// Deps bundles everything the API handlers need.
type Deps struct {
	Ingestion *pipeline.IngestionPipeline
	Answers   *pipeline.AnswerEngine
	Documents *store.DocumentDAL
	Projects  *store.ProjectDAL
	Extracted *store.ExtractedDAL
	Vectors   interfaces.VectorStore
	Objects   *objectstore.DocumentStore
	Health    map[string]HealthCheck
}

// NewAPI creates a new API handler.
func NewAPI(deps Deps, logger *logger.Logger) *API {
	return &API{
		ingestion: deps.Ingestion,
		answers:   deps.Answers,
		documents: deps.Documents,
		projects:  deps.Projects,
		extracted: deps.Extracted,
		vectors:   deps.Vectors,
		objects:   deps.Objects,
		health:    deps.Health,
		logger:    logger,
	}
}

// UploadDocumentHandler accepts a PDF upload and runs it through the
// ingestion pipeline synchronously.
func (a *API) UploadDocumentHandler(c *gin.Context) {
	fileHeader, err := c.FormFile("file")
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Missing file upload"})
		return
	}
	if !strings.HasSuffix(strings.ToLower(fileHeader.Filename), ".pdf") {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Only PDF files are supported"})
		return
	}

	file, err := fileHeader.Open()
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Failed to read file upload"})
		return
	}
	defer file.Close()

	content, err := io.ReadAll(file)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Failed to read file upload"})
		return
	}
	if len(content) == 0 {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Uploaded file is empty"})
		return
	}

	opts := pipeline.IngestionOptions{
		DocumentType: models.ParseDocumentType(c.DefaultPostForm("document_type", "unknown")),
		AutoExtract:  true,
	}
	if projectID := c.PostForm("project_id"); projectID != "" {
		opts.ProjectID = &projectID
	}
	if raw := c.PostForm("auto_extract"); raw != "" {
		if parsed, parseErr := strconv.ParseBool(raw); parseErr == nil {
			opts.AutoExtract = parsed
		}
	}

	documentID, err := a.ingestion.Ingest(c.Request.Context(), content, fileHeader.Filename, opts)
	if err != nil {
		var ingErr *pipeline.IngestionError
		if errors.As(err, &ingErr) {
			c.JSON(http.StatusUnprocessableEntity, gin.H{"error": ingErr.Error()})
			return
		}
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to ingest document"})
		return
	}

	if a.objects != nil {
		if err := a.objects.Put(c.Request.Context(), documentID, content); err != nil {
			a.logger.WithField("document_id", documentID).Warn("Failed to archive original PDF")
		}
	}

	c.JSON(http.StatusCreated, gin.H{
		"id":       documentID,
		"filename": fileHeader.Filename,
		"status":   models.StatusCompleted,
		"message":  "Document ingested successfully",
	})
}

// ListDocumentsHandler lists documents, optionally filtered by project and status.
func (a *API) ListDocumentsHandler(c *gin.Context) {
	var projectID *string
	if raw := c.Query("project_id"); raw != "" {
		projectID = &raw
	}
	var status *models.ProcessingStatus
	if raw := c.Query("status"); raw != "" {
		parsed := models.ProcessingStatus(raw)
		status = &parsed
	}

	documents, err := a.documents.List(c.Request.Context(), projectID, status)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to list documents"})
		return
	}

	c.JSON(http.StatusOK, gin.H{"documents": documents, "total": len(documents)})
}

// GetDocumentHandler returns a single document by its ID.
func (a *API) GetDocumentHandler(c *gin.Context) {
	document, err := a.documents.GetByID(c.Request.Context(), c.Param("id"))
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			c.JSON(http.StatusNotFound, gin.H{"error": "Document not found"})
			return
		}
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to load document"})
		return
	}
	c.JSON(http.StatusOK, document)
}

// DeleteDocumentHandler removes a document together with its chunks,
// vectors and archived original.
func (a *API) DeleteDocumentHandler(c *gin.Context) {
	documentID := c.Param("id")

	if err := a.documents.Delete(c.Request.Context(), documentID); err != nil {
		if errors.Is(err, store.ErrNotFound) {
			c.JSON(http.StatusNotFound, gin.H{"error": "Document not found"})
			return
		}
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to delete document"})
		return
	}

	if err := a.vectors.DeleteByDocument(c.Request.Context(), documentID); err != nil {
		a.logger.WithField("document_id", documentID).Warn("Failed to delete vectors for document")
	}
	if a.objects != nil {
		if err := a.objects.Delete(c.Request.Context(), documentID); err != nil {
			a.logger.WithField("document_id", documentID).Warn("Failed to delete archived PDF")
		}
	}

	c.Status(http.StatusNoContent)
}

// GetExtractedDataHandler returns the structured data extracted from a document.
func (a *API) GetExtractedDataHandler(c *gin.Context) {
	record, err := a.extracted.GetByDocument(c.Request.Context(), c.Param("id"))
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			c.JSON(http.StatusNotFound, gin.H{"error": "No extracted data found for this document"})
			return
		}
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to load extracted data"})
		return
	}
	c.JSON(http.StatusOK, record)
}

// ExtractDocumentHandler triggers structured extraction for a document.
// With force=true an existing result is discarded and extraction reruns
// from the stored chunks.
func (a *API) ExtractDocumentHandler(c *gin.Context) {
	documentID := c.Param("id")

	force := false
	if raw := c.Query("force"); raw != "" {
		if parsed, err := strconv.ParseBool(raw); err == nil {
			force = parsed
		}
	}

	data, err := a.ingestion.ReExtract(c.Request.Context(), documentID, force)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			c.JSON(http.StatusNotFound, gin.H{"error": "Document not found"})
			return
		}
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to extract document"})
		return
	}
	if data == nil {
		c.JSON(http.StatusUnprocessableEntity, gin.H{"error": "Extraction failed or document type unknown"})
		return
	}

	record, err := a.extracted.GetByDocument(c.Request.Context(), documentID)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to load extracted data"})
		return
	}
	c.JSON(http.StatusOK, record)
}

// CreateProjectHandler creates a new project.
func (a *API) CreateProjectHandler(c *gin.Context) {
	var payload struct {
		Name        string `json:"name" binding:"required"`
		Description string `json:"description"`
	}
	if err := c.ShouldBindJSON(&payload); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid request payload"})
		return
	}

	project := &models.Project{Name: payload.Name, Description: payload.Description}
	if err := a.projects.Create(c.Request.Context(), project); err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to create project"})
		return
	}

	c.JSON(http.StatusCreated, store.ProjectWithCount{Project: *project, DocumentCount: 0})
}

// ListProjectsHandler lists all projects with their document counts.
func (a *API) ListProjectsHandler(c *gin.Context) {
	projects, err := a.projects.List(c.Request.Context())
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to list projects"})
		return
	}
	c.JSON(http.StatusOK, gin.H{"projects": projects, "total": len(projects)})
}

// GetProjectHandler returns a single project with its document count.
func (a *API) GetProjectHandler(c *gin.Context) {
	projectID := c.Param("id")

	project, err := a.projects.GetByID(c.Request.Context(), projectID)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			c.JSON(http.StatusNotFound, gin.H{"error": "Project not found"})
			return
		}
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to load project"})
		return
	}

	documents, err := a.documents.List(c.Request.Context(), &projectID, nil)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to load project"})
		return
	}

	c.JSON(http.StatusOK, store.ProjectWithCount{Project: *project, DocumentCount: int64(len(documents))})
}

// UpdateProjectHandler updates a project's name and description.
func (a *API) UpdateProjectHandler(c *gin.Context) {
	var payload struct {
		Name        string `json:"name" binding:"required"`
		Description string `json:"description"`
	}
	if err := c.ShouldBindJSON(&payload); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid request payload"})
		return
	}

	project := &models.Project{ID: c.Param("id"), Name: payload.Name, Description: payload.Description}
	if err := a.projects.Update(c.Request.Context(), project); err != nil {
		if errors.Is(err, store.ErrNotFound) {
			c.JSON(http.StatusNotFound, gin.H{"error": "Project not found"})
			return
		}
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to update project"})
		return
	}

	a.GetProjectHandler(c)
}

// DeleteProjectHandler deletes a project. Its documents are kept and
// detached from the project.
func (a *API) DeleteProjectHandler(c *gin.Context) {
	if err := a.projects.Delete(c.Request.Context(), c.Param("id")); err != nil {
		if errors.Is(err, store.ErrNotFound) {
			c.JSON(http.StatusNotFound, gin.H{"error": "Project not found"})
			return
		}
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to delete project"})
		return
	}
	c.Status(http.StatusNoContent)
}

// QueryHandler answers a natural-language question about the ingested documents.
func (a *API) QueryHandler(c *gin.Context) {
	var req models.QueryRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid request payload"})
		return
	}

	response, err := a.answers.Answer(c.Request.Context(), &req)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to answer query"})
		return
	}

	c.JSON(http.StatusOK, response)
}

// HealthHandler reports the health of all backing components.
func (a *API) HealthHandler(c *gin.Context) {
	components := gin.H{}
	healthy := true
	for name, check := range a.health {
		if err := check(c.Request.Context()); err != nil {
			components[name] = err.Error()
			healthy = false
		} else {
			components[name] = "ok"
		}
	}

	status := http.StatusOK
	body := gin.H{"status": "ok", "components": components}
	if !healthy {
		status = http.StatusServiceUnavailable
		body["status"] = "degraded"
	}
	c.JSON(status, body)
}
