package services

import (
	"context"
	"fmt"
	"os"
	"sort"
	"sync"
	"testing"
	"time"

	"docpipe_backend/models"
	"docpipe_backend/pkg/logging"

	"github.com/lib/pq"
)

func TestMain(m *testing.M) {
	logging.Init()
	os.Exit(m.Run())
}

// fakeDocRepo is an in-memory DocumentRepository that replays the same
// update semantics as the postgres-backed one, including the
// forward-only progress guard.
type fakeDocRepo struct {
	mu   sync.Mutex
	docs map[string]*models.Document

	// every progress value that actually got applied, in order
	progressHistory []float64

	getErr          error
	updateFieldsErr error
}

func newFakeDocRepo(docs ...*models.Document) *fakeDocRepo {
	r := &fakeDocRepo{docs: make(map[string]*models.Document)}
	for _, d := range docs {
		r.docs[d.ID] = d
	}
	return r
}

func (r *fakeDocRepo) Create(ctx context.Context, doc *models.Document) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.docs[doc.ID] = doc
	return nil
}

func (r *fakeDocRepo) GetByID(ctx context.Context, documentID string) (*models.Document, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.getErr != nil {
		return nil, r.getErr
	}
	doc, ok := r.docs[documentID]
	if !ok {
		return nil, fmt.Errorf("record not found")
	}
	copied := *doc
	return &copied, nil
}

func (r *fakeDocRepo) ListByUser(ctx context.Context, userID, status string, limit, offset int) ([]*models.Document, int64, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var out []*models.Document
	for _, d := range r.docs {
		if d.UserID != userID {
			continue
		}
		if status != "" && d.Status != status {
			continue
		}
		copied := *d
		out = append(out, &copied)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].CreatedAt.After(out[j].CreatedAt) })
	return out, int64(len(out)), nil
}

func (r *fakeDocRepo) UpdateStatus(ctx context.Context, documentID string, status string) error {
	return r.UpdateFields(ctx, documentID, map[string]interface{}{"status": status})
}

func (r *fakeDocRepo) UpdateProgress(ctx context.Context, documentID string, progress float64) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	doc, ok := r.docs[documentID]
	if !ok {
		return fmt.Errorf("record not found")
	}
	if progress < doc.ProcessingProgress {
		return nil
	}
	doc.ProcessingProgress = progress
	r.progressHistory = append(r.progressHistory, progress)
	return nil
}

func (r *fakeDocRepo) UpdateFields(ctx context.Context, documentID string, fields map[string]interface{}) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.updateFieldsErr != nil {
		return r.updateFieldsErr
	}
	doc, ok := r.docs[documentID]
	if !ok {
		return fmt.Errorf("record not found")
	}
	for column, value := range fields {
		switch column {
		case "status":
			doc.Status = value.(string)
		case "processing_progress":
			doc.ProcessingProgress = value.(float64)
			r.progressHistory = append(r.progressHistory, doc.ProcessingProgress)
		case "error_message":
			doc.ErrorMessage = value.(string)
		case "page_count":
			doc.PageCount = value.(int)
		case "thumbnail_urls":
			doc.ThumbnailURLs = value.(pq.StringArray)
		case "transcription":
			doc.Transcription = value.(string)
		case "processed_at":
			doc.ProcessedAt = value.(*time.Time)
		case "file_key":
			doc.FileKey = value.(string)
		case "original_url":
			doc.OriginalURL = value.(string)
		}
	}
	return nil
}

func (r *fakeDocRepo) Delete(ctx context.Context, documentID string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	delete(r.docs, documentID)
	return nil
}

func (r *fakeDocRepo) get(t *testing.T, documentID string) *models.Document {
	t.Helper()
	doc, err := r.GetByID(context.Background(), documentID)
	if err != nil {
		t.Fatalf("document %s not found: %v", documentID, err)
	}
	return doc
}

type fakePageRepo struct {
	mu      sync.Mutex
	pages   []*models.Page
	listErr error
}

func (r *fakePageRepo) Create(ctx context.Context, page *models.Page) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.pages = append(r.pages, page)
	return nil
}

func (r *fakePageRepo) ListByDocument(ctx context.Context, documentID string) ([]*models.Page, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.listErr != nil {
		return nil, r.listErr
	}
	var out []*models.Page
	for _, p := range r.pages {
		if p.DocumentID == documentID {
			out = append(out, p)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].PageNumber < out[j].PageNumber })
	return out, nil
}

func (r *fakePageRepo) CountByDocument(ctx context.Context, documentID string) (int64, error) {
	pages, err := r.ListByDocument(ctx, documentID)
	return int64(len(pages)), err
}

func (r *fakePageRepo) DeleteByDocument(ctx context.Context, documentID string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	kept := r.pages[:0]
	for _, p := range r.pages {
		if p.DocumentID != documentID {
			kept = append(kept, p)
		}
	}
	r.pages = kept
	return nil
}

type fakeLogRepo struct {
	mu        sync.Mutex
	entries   []*models.ProcessingLogEntry
	appendErr error
}

func (r *fakeLogRepo) Append(ctx context.Context, entry *models.ProcessingLogEntry) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.appendErr != nil {
		return r.appendErr
	}
	r.entries = append(r.entries, entry)
	return nil
}

func (r *fakeLogRepo) ListByDocument(ctx context.Context, documentID string) ([]*models.ProcessingLogEntry, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var out []*models.ProcessingLogEntry
	for _, e := range r.entries {
		if e.DocumentID == documentID {
			out = append(out, e)
		}
	}
	return out, nil
}

func (r *fakeLogRepo) byAction(action string) []*models.ProcessingLogEntry {
	r.mu.Lock()
	defer r.mu.Unlock()
	var out []*models.ProcessingLogEntry
	for _, e := range r.entries {
		if e.Action == action {
			out = append(out, e)
		}
	}
	return out
}

type fakeStore struct {
	mu          sync.Mutex
	objects     map[string][]byte
	downloadErr error
	uploadErr   error
}

func newFakeStore() *fakeStore {
	return &fakeStore{objects: make(map[string][]byte)}
}

func (s *fakeStore) FileExists(fileKey string) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	_, ok := s.objects[fileKey]
	return ok, nil
}

func (s *fakeStore) DownloadObject(ctx context.Context, fileKey string) ([]byte, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.downloadErr != nil {
		return nil, s.downloadErr
	}
	data, ok := s.objects[fileKey]
	if !ok {
		return nil, fmt.Errorf("no such key %s", fileKey)
	}
	return data, nil
}

func (s *fakeStore) UploadObject(ctx context.Context, fileKey string, data []byte, contentType string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.uploadErr != nil {
		return s.uploadErr
	}
	s.objects[fileKey] = data
	return nil
}

func (s *fakeStore) RemoveObject(ctx context.Context, fileKey string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.objects, fileKey)
	return nil
}

func (s *fakeStore) PublicObjectURL(fileKey string) string {
	return "https://cdn.test/" + fileKey
}

func (s *fakeStore) GeneratePresignedUpload(filename, userID, contentType string, maxFileSize int64, docID string) (*models.UploadResp, error) {
	return &models.UploadResp{
		DocID:     docID,
		UploadURL: "https://cdn.test/upload",
		FileKey:   "documents/" + docID,
		Provider:  "fake",
	}, nil
}

// fakeEngine serves a synthetic document of pageCount pages. Pages
// listed in failPages error on extraction.
type fakeEngine struct {
	pageCount int
	countErr  error
	failPages map[int]error
	textErr   error

	mu            sync.Mutex
	extractCalls  int
	pageTextCalls int
}

func (e *fakeEngine) PageCount(data []byte) (int, error) {
	if e.countErr != nil {
		return 0, e.countErr
	}
	return e.pageCount, nil
}

func (e *fakeEngine) ExtractPage(data []byte, pageNumber int) ([]byte, string, string, error) {
	e.mu.Lock()
	e.extractCalls++
	e.mu.Unlock()
	if err, ok := e.failPages[pageNumber]; ok {
		return nil, "", "", err
	}
	return []byte(fmt.Sprintf("page-%d", pageNumber)), ".pdf", "application/pdf", nil
}

func (e *fakeEngine) ExtractPageText(data []byte, pageNumber int) (string, error) {
	e.mu.Lock()
	e.pageTextCalls++
	e.mu.Unlock()
	if e.textErr != nil {
		return "", e.textErr
	}
	return fmt.Sprintf("text of page %d", pageNumber), nil
}

// fakeCache is an in-memory CacheService without the L1/L2 split.
type fakeCache struct {
	mu   sync.Mutex
	data map[string]interface{}
}

func newFakeCache() *fakeCache {
	return &fakeCache{data: make(map[string]interface{})}
}

func (c *fakeCache) GetCache(key string) (interface{}, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	value, ok := c.data[key]
	return value, ok
}

func (c *fakeCache) SetCache(key string, value interface{}, expiration time.Duration) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.data[key] = value
	return nil
}

func (c *fakeCache) DelCache(key string) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	delete(c.data, key)
	return nil
}

func (c *fakeCache) GetOrLoad(key string, expiration time.Duration, load func() (interface{}, error)) (interface{}, error) {
	if value, ok := c.GetCache(key); ok {
		return value, nil
	}
	value, err := load()
	if err != nil {
		return nil, err
	}
	_ = c.SetCache(key, value, expiration)
	return value, nil
}

type fakePublisher struct {
	mu     sync.Mutex
	events []*models.DocumentEvent
}

func (p *fakePublisher) PublishDocumentEvent(event *models.DocumentEvent) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.events = append(p.events, event)
	return nil
}

func (p *fakePublisher) byType(eventType models.DocumentEventType) []*models.DocumentEvent {
	p.mu.Lock()
	defer p.mu.Unlock()
	var out []*models.DocumentEvent
	for _, e := range p.events {
		if e.Type == eventType {
			out = append(out, e)
		}
	}
	return out
}
