package api

import (
	"github.com/gin-gonic/gin"
)

// NewRouter builds the gin engine with all routes registered.
func NewRouter(api *API) *gin.Engine {
	router := gin.New()
	router.Use(gin.Recovery())
	RegisterRoutes(router, api)
	return router
}

// RegisterRoutes registers all the routes for the document service.
func RegisterRoutes(router *gin.Engine, api *API) {
	v1 := router.Group("/api/v1")

	documents := v1.Group("/documents")
	{
		documents.POST("/upload", api.UploadDocumentHandler)
		documents.GET("", api.ListDocumentsHandler)
		documents.GET("/:id", api.GetDocumentHandler)
		documents.DELETE("/:id", api.DeleteDocumentHandler)
		documents.GET("/:id/extracted", api.GetExtractedDataHandler)
		documents.POST("/:id/extract", api.ExtractDocumentHandler)
	}

	projects := v1.Group("/projects")
	{
		projects.POST("", api.CreateProjectHandler)
		projects.GET("", api.ListProjectsHandler)
		projects.GET("/:id", api.GetProjectHandler)
		projects.PUT("/:id", api.UpdateProjectHandler)
		projects.DELETE("/:id", api.DeleteProjectHandler)
	}

	v1.POST("/query", api.QueryHandler)

	router.GET("/healthz", api.HealthHandler)
}
