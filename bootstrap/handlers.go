package bootstrap

import "docpipe_backend/handlers"

type Handlers struct {
	DocHandler    *handlers.DocHandler
	WSHandler     *handlers.WSHandler
	HealthHandler *handlers.HealthHandler
}

func NewHandlers(services *Services, infra *Infrastructure) *Handlers {
	res := &Handlers{}
	d := handlers.NewDocHandler(services.DocService, services.TranscriptionService, services.UploadTracker)
	res.DocHandler = d
	w := handlers.NewWSHandler(infra.EventPublisher)
	res.WSHandler = w
	h := handlers.NewHealthHandler(infra.DB, infra.Redis)
	res.HealthHandler = h
	return res
}
