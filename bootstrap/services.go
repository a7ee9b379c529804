package bootstrap

import (
	"docpipe_backend/config"
	"docpipe_backend/services"
)

type Services struct {
	LogService           *services.ProcessingLogService
	DocService           *services.DocumentService
	ConversionService    *services.ConversionService
	TranscriptionService *services.TranscriptionService
	UploadTracker        *services.UploadTrackerService
}

func NewServices(cfg *config.Config, repos *Repositories, infra *Infrastructure) *Services {
	res := &Services{}

	logService := services.NewProcessingLogService(repos.ProcessingLogRepository)
	res.LogService = logService

	docService := services.NewDocumentService(
		repos.DocumentRepository,
		repos.PageRepository,
		logService,
		infra.Queue,
		infra.Storage,
		infra.EventPublisher,
		cfg.MaxFileSize,
	)
	res.DocService = docService

	engine := services.NewPDFEngine()
	conversionService := services.NewConversionService(
		repos.DocumentRepository,
		repos.PageRepository,
		logService,
		infra.Storage,
		engine,
		infra.EventPublisher,
	)
	res.ConversionService = conversionService

	transcriptionService := services.NewTranscriptionService(
		repos.DocumentRepository,
		repos.PageRepository,
		logService,
		infra.EventPublisher,
		infra.Cache,
	)
	res.TranscriptionService = transcriptionService

	res.UploadTracker = services.NewUploadTrackerService()
	return res
}
