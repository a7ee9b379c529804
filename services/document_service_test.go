package services

import (
	"context"
	"encoding/json"
	"sync"
	"testing"
	"time"

	"docpipe_backend/models"
	"docpipe_backend/pkg/apperr"

	"github.com/redis/go-redis/v9"
)

// fakeQueue is an in-memory stand-in for the redis list queue.
type fakeQueue struct {
	mu     sync.Mutex
	queues map[string][]string
}

func newFakeQueue() *fakeQueue {
	return &fakeQueue{queues: make(map[string][]string)}
}

func (q *fakeQueue) PushToQueue(queueName string, value interface{}) error {
	q.mu.Lock()
	defer q.mu.Unlock()
	data, err := json.Marshal(value)
	if err != nil {
		return err
	}
	q.queues[queueName] = append(q.queues[queueName], string(data))
	return nil
}

func (q *fakeQueue) PopFromQueue(queueName string) (string, error) {
	q.mu.Lock()
	defer q.mu.Unlock()
	items := q.queues[queueName]
	if len(items) == 0 {
		return "", redis.Nil
	}
	head := items[0]
	q.queues[queueName] = items[1:]
	return head, nil
}

func (q *fakeQueue) BlockingPopFromQueue(ctx context.Context, queueName string, timeout time.Duration) (string, error) {
	return q.PopFromQueue(queueName)
}

func (q *fakeQueue) tasks(t *testing.T, queueName string) []models.TaskMessage {
	t.Helper()
	q.mu.Lock()
	defer q.mu.Unlock()
	var out []models.TaskMessage
	for _, raw := range q.queues[queueName] {
		var task models.TaskMessage
		if err := json.Unmarshal([]byte(raw), &task); err != nil {
			t.Fatalf("bad task payload %q: %v", raw, err)
		}
		out = append(out, task)
	}
	return out
}

func newDocumentFixture(docs ...*models.Document) (*DocumentService, *fakeDocRepo, *fakePageRepo, *fakeLogRepo, *fakeQueue, *fakeStore, *fakePublisher) {
	docRepo := newFakeDocRepo(docs...)
	pageRepo := &fakePageRepo{}
	logRepo := &fakeLogRepo{}
	queue := newFakeQueue()
	store := newFakeStore()
	publisher := &fakePublisher{}
	svc := NewDocumentService(docRepo, pageRepo, NewProcessingLogService(logRepo), queue, store, publisher, 50*1024*1024)
	return svc, docRepo, pageRepo, logRepo, queue, store, publisher
}

func TestRequestUploadCreatesUploadingDocument(t *testing.T) {
	svc, docRepo, _, logRepo, _, _, _ := newDocumentFixture()

	res, err := svc.RequestUpload(context.Background(), "user-1", models.UploadReq{
		FileName:    "quarterly report.pdf",
		FileSize:    1024,
		ContentType: "application/pdf",
	})
	if err != nil {
		t.Fatalf("RequestUpload: %v", err)
	}
	if res.DocID == "" || res.UploadURL == "" || res.FileKey == "" {
		t.Fatalf("incomplete upload response: %+v", res)
	}

	doc := docRepo.get(t, res.DocID)
	if doc.Status != models.StatusUploading {
		t.Errorf("status = %q, want %q", doc.Status, models.StatusUploading)
	}
	if doc.MediaType != models.MediaTypePDF {
		t.Errorf("media_type = %q, want pdf", doc.MediaType)
	}
	entries, _ := logRepo.ListByDocument(context.Background(), res.DocID)
	if len(entries) != 1 {
		t.Errorf("got %d log entries, want 1", len(entries))
	}
}

func TestRequestUploadValidation(t *testing.T) {
	svc, _, _, _, _, _, _ := newDocumentFixture()
	ctx := context.Background()

	cases := []struct {
		name   string
		userID string
		req    models.UploadReq
		kind   apperr.Kind
	}{
		{"anonymous", "", models.UploadReq{FileName: "a.pdf", FileSize: 1, ContentType: "application/pdf"}, apperr.KindAuth},
		{"no filename", "u", models.UploadReq{FileSize: 1, ContentType: "application/pdf"}, apperr.KindValidation},
		{"zero size", "u", models.UploadReq{FileName: "a.pdf", ContentType: "application/pdf"}, apperr.KindValidation},
		{"oversized", "u", models.UploadReq{FileName: "a.pdf", FileSize: 51 * 1024 * 1024, ContentType: "application/pdf"}, apperr.KindValidation},
		{"bad content type", "u", models.UploadReq{FileName: "a.pdf", FileSize: 1, ContentType: "text/html"}, apperr.KindValidation},
		{"bad extension", "u", models.UploadReq{FileName: "a.exe", FileSize: 1, ContentType: "application/pdf"}, apperr.KindValidation},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			if _, err := svc.RequestUpload(ctx, tc.userID, tc.req); !apperr.IsKind(err, tc.kind) {
				t.Errorf("got %v, want kind %q", err, tc.kind)
			}
		})
	}
}

func TestConfirmUploadQueuesConversion(t *testing.T) {
	doc := uploadedDoc()
	doc.Status = models.StatusUploading
	svc, docRepo, _, _, queue, store, publisher := newDocumentFixture(doc)
	store.objects[doc.FileKey] = []byte("%PDF-fake")

	res, err := svc.ConfirmUpload(context.Background(), doc.UserID, doc.ID)
	if err != nil {
		t.Fatalf("ConfirmUpload: %v", err)
	}
	if res.Status != "queued" {
		t.Errorf("status = %q, want queued", res.Status)
	}

	got := docRepo.get(t, doc.ID)
	// Confirm lands on uploaded, then the enqueue moves it to processing.
	if got.Status != models.StatusProcessing {
		t.Errorf("status = %q, want %q", got.Status, models.StatusProcessing)
	}
	if got.OriginalURL == "" {
		t.Error("original_url not set")
	}

	tasks := queue.tasks(t, DocumentTaskQueue)
	if len(tasks) != 1 || tasks[0].Kind != models.TaskConvertToImages || tasks[0].DocumentID != doc.ID {
		t.Fatalf("queued tasks = %+v, want one conversion task", tasks)
	}
	if uploadedEvents := publisher.byType(models.EventDocumentUploaded); len(uploadedEvents) != 1 {
		t.Errorf("got %d uploaded events, want 1", len(uploadedEvents))
	}
}

func TestConfirmUploadMissingObjectFailsDocument(t *testing.T) {
	doc := uploadedDoc()
	doc.Status = models.StatusUploading
	svc, docRepo, _, _, queue, _, _ := newDocumentFixture(doc)

	_, err := svc.ConfirmUpload(context.Background(), doc.UserID, doc.ID)
	if !apperr.IsKind(err, apperr.KindValidation) {
		t.Fatalf("got %v, want validation error", err)
	}
	if got := docRepo.get(t, doc.ID); got.Status != models.StatusFailed {
		t.Errorf("status = %q, want %q", got.Status, models.StatusFailed)
	}
	if tasks := queue.tasks(t, DocumentTaskQueue); len(tasks) != 0 {
		t.Errorf("no task may be queued, got %+v", tasks)
	}
}

func TestRequestConversionBlockedWhileUploading(t *testing.T) {
	doc := uploadedDoc()
	doc.Status = models.StatusUploading
	svc, _, _, _, queue, _, _ := newDocumentFixture(doc)

	err := svc.RequestConversion(context.Background(), doc.UserID, doc.ID)
	if !apperr.IsKind(err, apperr.KindValidation) {
		t.Fatalf("got %v, want validation error", err)
	}
	if tasks := queue.tasks(t, DocumentTaskQueue); len(tasks) != 0 {
		t.Errorf("no task may be queued, got %+v", tasks)
	}
}

func TestRequestConversionRetryFromFailed(t *testing.T) {
	doc := uploadedDoc()
	doc.Status = models.StatusFailed
	doc.ProcessingProgress = 42
	doc.ErrorMessage = "boom"
	svc, docRepo, _, _, queue, _, _ := newDocumentFixture(doc)

	if err := svc.RequestConversion(context.Background(), doc.UserID, doc.ID); err != nil {
		t.Fatalf("retry from failed: %v", err)
	}

	got := docRepo.get(t, doc.ID)
	if got.Status != models.StatusProcessing {
		t.Errorf("status = %q, want %q", got.Status, models.StatusProcessing)
	}
	if got.ProcessingProgress != 0 {
		t.Errorf("progress = %v, want reset to 0", got.ProcessingProgress)
	}
	if got.ErrorMessage != "" {
		t.Errorf("error_message = %q, want cleared", got.ErrorMessage)
	}
	if tasks := queue.tasks(t, DocumentTaskQueue); len(tasks) != 1 {
		t.Fatalf("got %d queued tasks, want 1", len(tasks))
	}
}

func TestRequestTranscriptionNeedsPages(t *testing.T) {
	doc := uploadedDoc()
	doc.Status = models.StatusProcessed
	svc, _, pageRepo, _, queue, _, _ := newDocumentFixture(doc)

	if err := svc.RequestTranscription(context.Background(), doc.UserID, doc.ID); !apperr.IsKind(err, apperr.KindValidation) {
		t.Fatalf("got %v, want validation error for a pageless document", err)
	}

	addPage(pageRepo, doc.ID, 1, "text")
	if err := svc.RequestTranscription(context.Background(), doc.UserID, doc.ID); err != nil {
		t.Fatalf("with pages: %v", err)
	}
	tasks := queue.tasks(t, DocumentTaskQueue)
	if len(tasks) != 1 || tasks[0].Kind != models.TaskProcessText {
		t.Fatalf("queued tasks = %+v, want one text task", tasks)
	}
}

func TestDeleteDocumentRemovesObjectsAndKeepsLog(t *testing.T) {
	doc := uploadedDoc()
	svc, docRepo, pageRepo, logRepo, _, store, _ := newDocumentFixture(doc)
	store.objects[doc.FileKey] = []byte("%PDF-fake")
	_ = pageRepo.Create(context.Background(), &models.Page{
		ID: "p1", DocumentID: doc.ID, PageNumber: 1, ImageKey: "documents/pages/doc-1/00001.pdf",
	})
	store.objects["documents/pages/doc-1/00001.pdf"] = []byte("page")
	_ = logRepo.Append(context.Background(), &models.ProcessingLogEntry{ID: "l1", DocumentID: doc.ID, Action: "Upload requested"})

	if err := svc.DeleteDocument(context.Background(), doc.UserID, doc.ID); err != nil {
		t.Fatalf("DeleteDocument: %v", err)
	}

	if _, err := docRepo.GetByID(context.Background(), doc.ID); err == nil {
		t.Error("document row should be gone")
	}
	if pages, _ := pageRepo.ListByDocument(context.Background(), doc.ID); len(pages) != 0 {
		t.Errorf("pages should be gone, got %d", len(pages))
	}
	if ok, _ := store.FileExists(doc.FileKey); ok {
		t.Error("original object should be removed")
	}
	if ok, _ := store.FileExists("documents/pages/doc-1/00001.pdf"); ok {
		t.Error("page object should be removed")
	}
	// Audit trail survives deletion.
	entries, _ := logRepo.ListByDocument(context.Background(), doc.ID)
	if len(entries) < 1 {
		t.Error("processing log entries must be retained")
	}
}

func TestOwnershipChecks(t *testing.T) {
	doc := uploadedDoc()
	svc, _, _, _, _, _, _ := newDocumentFixture(doc)
	ctx := context.Background()

	if _, err := svc.GetDocument(ctx, "", doc.ID); !apperr.IsKind(err, apperr.KindAuth) {
		t.Errorf("anonymous: got %v, want auth error", err)
	}
	if _, err := svc.GetDocument(ctx, "intruder", doc.ID); !apperr.IsKind(err, apperr.KindAuth) {
		t.Errorf("intruder: got %v, want auth error", err)
	}
	if _, err := svc.GetDocument(ctx, doc.UserID, "missing"); !apperr.IsKind(err, apperr.KindNotFound) {
		t.Errorf("missing: got %v, want not-found error", err)
	}
	if _, err := svc.GetDocument(ctx, doc.UserID, ""); !apperr.IsKind(err, apperr.KindValidation) {
		t.Errorf("empty id: got %v, want validation error", err)
	}
}
