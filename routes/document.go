package routes

import (
	"docpipe_backend/config"
	"docpipe_backend/handlers"
	"docpipe_backend/middleware"

	"github.com/gofiber/fiber/v2"
)

func RegisterDocumentRoutes(app *fiber.App, cfg *config.Config, handler *handlers.DocHandler) {
	document := app.Group("api/documents", middleware.Auth(cfg))
	document.Post("/upload", handler.RequestUpload)
	document.Get("/", handler.List)
	document.Get("/:doc_id", handler.Get)
	document.Post("/:doc_id/confirm", handler.ConfirmUpload)
	document.Post("/:doc_id/convert", handler.Convert)
	document.Post("/:doc_id/transcribe", handler.Transcribe)
	document.Get("/:doc_id/logs", handler.Logs)
	document.Get("/:doc_id/transcription", handler.Transcription)
	document.Get("/:doc_id/upload-state", handler.UploadState)
	document.Delete("/:doc_id", handler.Delete)
}

func RegisterHealthRoutes(app *fiber.App, handler *handlers.HealthHandler) {
	app.Get("/health", handler.Check)
}
