package handlers

import (
	"strconv"

	"docpipe_backend/models"
	"docpipe_backend/pkg/apperr"
	"docpipe_backend/services"

	"github.com/gofiber/fiber/v2"
)

type DocHandler struct {
	docService           *services.DocumentService
	transcriptionService *services.TranscriptionService
	tracker              *services.UploadTrackerService
}

func NewDocHandler(
	docService *services.DocumentService,
	transcriptionService *services.TranscriptionService,
	tracker *services.UploadTrackerService,
) *DocHandler {
	return &DocHandler{
		docService:           docService,
		transcriptionService: transcriptionService,
		tracker:              tracker,
	}
}

func (h *DocHandler) RequestUpload(c *fiber.Ctx) error {
	var req models.UploadReq
	if err := c.BodyParser(&req); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "Invalid request"})
	}

	res, err := h.docService.RequestUpload(c.Context(), userID(c), req)
	if err != nil {
		return respondError(c, err)
	}
	h.tracker.Start(res.DocID, req.FileName)
	return c.JSON(res)
}

func (h *DocHandler) ConfirmUpload(c *fiber.Ctx) error {
	res, err := h.docService.ConfirmUpload(c.Context(), userID(c), c.Params("doc_id"))
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(res)
}

func (h *DocHandler) Convert(c *fiber.Ctx) error {
	docID := c.Params("doc_id")
	if err := h.docService.RequestConversion(c.Context(), userID(c), docID); err != nil {
		return respondError(c, err)
	}
	return c.Status(fiber.StatusAccepted).JSON(fiber.Map{"doc_id": docID, "status": "queued"})
}

func (h *DocHandler) Transcribe(c *fiber.Ctx) error {
	docID := c.Params("doc_id")
	if err := h.docService.RequestTranscription(c.Context(), userID(c), docID); err != nil {
		return respondError(c, err)
	}
	return c.Status(fiber.StatusAccepted).JSON(fiber.Map{"doc_id": docID, "status": "queued"})
}

func (h *DocHandler) List(c *fiber.Ctx) error {
	page, _ := strconv.Atoi(c.Query("page", "1"))
	limit, _ := strconv.Atoi(c.Query("limit", "10"))

	docs, total, err := h.docService.ListDocuments(c.Context(), userID(c), c.Query("status"), page, limit)
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(fiber.Map{
		"data":  docs,
		"total": total,
		"page":  page,
		"limit": limit,
	})
}

func (h *DocHandler) Get(c *fiber.Ctx) error {
	uid := userID(c)
	docID := c.Params("doc_id")

	doc, err := h.docService.GetDocument(c.Context(), uid, docID)
	if err != nil {
		return respondError(c, err)
	}
	pages, err := h.docService.GetDocumentPages(c.Context(), uid, docID)
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(fiber.Map{
		"document": doc,
		"pages":    pages,
	})
}

func (h *DocHandler) Logs(c *fiber.Ctx) error {
	entries, err := h.docService.GetProcessingLog(c.Context(), userID(c), c.Params("doc_id"))
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(fiber.Map{"data": entries})
}

func (h *DocHandler) Transcription(c *fiber.Ctx) error {
	text, err := h.transcriptionService.GetTranscription(c.Context(), userID(c), c.Params("doc_id"))
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(fiber.Map{"doc_id": c.Params("doc_id"), "transcription": text})
}

func (h *DocHandler) UploadState(c *fiber.Ctx) error {
	docID := c.Params("doc_id")
	// The tracker is keyed by doc id only; ownership is enforced here.
	if _, err := h.docService.GetDocument(c.Context(), userID(c), docID); err != nil {
		return respondError(c, err)
	}
	task, ok := h.tracker.Get(docID)
	if !ok {
		return c.Status(fiber.StatusNotFound).JSON(fiber.Map{"error": "no upload in progress"})
	}
	return c.JSON(task)
}

func (h *DocHandler) Delete(c *fiber.Ctx) error {
	docID := c.Params("doc_id")
	if err := h.docService.DeleteDocument(c.Context(), userID(c), docID); err != nil {
		return respondError(c, err)
	}
	h.tracker.Remove(docID)
	return c.JSON(fiber.Map{"message": "Document deleted"})
}

func userID(c *fiber.Ctx) string {
	uid, _ := c.Locals("user_id").(string)
	return uid
}

func respondError(c *fiber.Ctx, err error) error {
	status := fiber.StatusInternalServerError
	switch apperr.KindOf(err) {
	case apperr.KindValidation:
		status = fiber.StatusBadRequest
	case apperr.KindAuth:
		status = fiber.StatusForbidden
	case apperr.KindNotFound:
		status = fiber.StatusNotFound
	case apperr.KindUpstream:
		status = fiber.StatusBadGateway
	}
	return c.Status(status).JSON(fiber.Map{"error": err.Error()})
}
