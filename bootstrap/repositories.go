package bootstrap

import (
	"docpipe_backend/platform/database"
	"docpipe_backend/repository"
)

type Repositories struct {
	DocumentRepository      repository.DocumentRepository
	PageRepository          repository.PageRepository
	ProcessingLogRepository repository.ProcessingLogRepository
}

func NewRepositories(db *database.DB) *Repositories {
	sqlDB := db.GetDatabase()
	return &Repositories{
		DocumentRepository:      repository.NewDocumentRepository(sqlDB),
		PageRepository:          repository.NewPageRepository(sqlDB),
		ProcessingLogRepository: repository.NewProcessingLogRepository(sqlDB),
	}
}
