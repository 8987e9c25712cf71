package app

import (
	"context"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"log"
	"net/http"
	"strings"

	"golang.org/x/crypto/blake2b"

	"redline/api/internal/config"
	"redline/api/internal/docx"
	"redline/api/internal/export"
	"redline/api/internal/history"
	"redline/api/internal/search"
	"redline/api/internal/session"
	"redline/api/internal/store"
	"redline/api/internal/util"
)

type dataStore interface {
	Ping(ctx context.Context) error
	CreateDocument(ctx context.Context, doc store.Document) error
	GetDocument(ctx context.Context, documentID string) (store.Document, error)
	ListDocuments(ctx context.Context, userID string) ([]store.Document, error)
	UpdateParagraphs(ctx context.Context, documentID string, paragraphs json.RawMessage, contentText string) error
	DeleteDocument(ctx context.Context, userID, documentID string) error
}

type searcher interface {
	Search(q search.Query) search.Response
	IndexDocument(doc search.DocumentRecord)
	DeleteDocument(id string)
}

type historian interface {
	EnsureDocumentRepo(documentID string, initial history.Snapshot, author string) error
	CommitSnapshot(documentID string, snapshot history.Snapshot, author, message string) (history.Revision, error)
	History(documentID string, limit int) ([]history.Revision, error)
	RemoveDocumentRepo(documentID string) error
}

// Archiver receives successful container exports. Implementations must not
// block the export response.
type Archiver interface {
	StoreAsync(documentID string, data []byte)
}

type pdfRenderer interface {
	PDF(name string, texts []string) (*export.Result, error)
}

// Service owns the upload/edit/export flow. search, history, archive, and
// pdf are optional collaborators; a nil value disables the feature.
type Service struct {
	cfg      config.Config
	store    dataStore
	sessions session.Store
	search   searcher
	history  historian
	archive  Archiver
	pdf      pdfRenderer
}

func NewService(cfg config.Config, store dataStore, sessions session.Store, search searcher, history historian, archive Archiver, pdf pdfRenderer) *Service {
	return &Service{
		cfg:      cfg,
		store:    store,
		sessions: sessions,
		search:   search,
		history:  history,
		archive:  archive,
		pdf:      pdf,
	}
}

// Ping checks the metadata store for the readiness probe.
func (s *Service) Ping(ctx context.Context) error {
	return s.store.Ping(ctx)
}

// UploadResult is the payload returned for a successful upload.
type UploadResult struct {
	DocumentID string           `json:"documentId"`
	Name       string           `json:"name"`
	Checksum   string           `json:"checksum"`
	Paragraphs []docx.Paragraph `json:"paragraphs"`
}

// UploadDocument parses an uploaded container, opens an editing session
// holding the original bytes and the paragraph identifier maps, and
// persists the document metadata.
func (s *Service) UploadDocument(ctx context.Context, userID, name string, data []byte) (UploadResult, error) {
	if int64(len(data)) > s.cfg.MaxUploadBytes {
		return UploadResult{}, domainError(http.StatusRequestEntityTooLarge, "VALIDATION_ERROR",
			fmt.Sprintf("upload exceeds %d bytes", s.cfg.MaxUploadBytes), nil)
	}
	if len(data) == 0 {
		return UploadResult{}, domainError(http.StatusUnprocessableEntity, "VALIDATION_ERROR", "upload is empty", nil)
	}

	extraction, err := docx.Extract(data)
	if err != nil {
		return UploadResult{}, err
	}
	if len(extraction.Paragraphs) > s.cfg.MaxParagraphs {
		return UploadResult{}, domainError(http.StatusUnprocessableEntity, "VALIDATION_ERROR",
			fmt.Sprintf("document has %d paragraphs, limit is %d", len(extraction.Paragraphs), s.cfg.MaxParagraphs), nil)
	}

	sum := blake2b.Sum256(data)
	checksum := hex.EncodeToString(sum[:])
	documentID := util.NewID("")

	paragraphsJSON, err := json.Marshal(extraction.Paragraphs)
	if err != nil {
		return UploadResult{}, fmt.Errorf("marshal paragraphs: %w", err)
	}
	contentText := extraction.PlainText()

	if err := s.store.CreateDocument(ctx, store.Document{
		ID:          documentID,
		UserID:      userID,
		Name:        name,
		Checksum:    checksum,
		Paragraphs:  paragraphsJSON,
		ContentText: contentText,
	}); err != nil {
		return UploadResult{}, err
	}

	if err := s.sessions.Put(ctx, documentID, session.Record{
		Buffer:       data,
		ParagraphMap: extraction.Index,
		StyleMap:     extraction.Styles,
	}); err != nil {
		return UploadResult{}, fmt.Errorf("open session: %w", err)
	}

	if s.search != nil {
		s.search.IndexDocument(search.DocumentRecord{
			ID:      documentID,
			Name:    name,
			Content: contentText,
			UserID:  userID,
		})
	}
	if s.history != nil {
		if err := s.history.EnsureDocumentRepo(documentID, history.Snapshot{
			Name:       name,
			Paragraphs: paragraphsJSON,
		}, userID); err != nil {
			log.Printf("history: baseline for %s: %v", documentID, err)
		}
	}

	return UploadResult{
		DocumentID: documentID,
		Name:       name,
		Checksum:   checksum,
		Paragraphs: extraction.Paragraphs,
	}, nil
}

// ExportDocument applies the ordered edit list to the session's original
// container. format docx rebuilds the container and consumes the session;
// format pdf renders the edited text and leaves the session open.
func (s *Service) ExportDocument(ctx context.Context, userID, documentID string, edits []docx.Edit, format export.Format) (*export.Result, error) {
	doc, err := s.getOwned(ctx, userID, documentID)
	if err != nil {
		return nil, err
	}

	rec, err := s.sessions.Get(ctx, documentID)
	if err != nil {
		return nil, err
	}

	switch format {
	case export.FormatPDF:
		return s.exportPDF(doc, rec, edits)
	case export.FormatDOCX:
		return s.exportDOCX(ctx, userID, doc, rec, edits)
	default:
		return nil, domainError(http.StatusUnprocessableEntity, "VALIDATION_ERROR", "format must be 'docx' or 'pdf'", nil)
	}
}

func (s *Service) exportPDF(doc store.Document, rec session.Record, edits []docx.Edit) (*export.Result, error) {
	if s.pdf == nil {
		return nil, domainError(http.StatusNotImplemented, "SERVER_ERROR", "PDF export is not configured", nil)
	}

	texts := make([]string, 0, len(edits))
	for _, edit := range edits {
		if edit.ID != nil {
			if _, ok := rec.ParagraphMap[*edit.ID]; !ok {
				return nil, docx.ErrUnknownParagraph
			}
		}
		texts = append(texts, edit.Text)
	}

	result, err := s.pdf.PDF(doc.Name, texts)
	if err != nil {
		return nil, fmt.Errorf("render pdf: %w", err)
	}
	return result, nil
}

func (s *Service) exportDOCX(ctx context.Context, userID string, doc store.Document, rec session.Record, edits []docx.Edit) (*export.Result, error) {
	rebuilt, err := docx.Rebuild(rec.Buffer, edits, rec.ParagraphMap, rec.StyleMap)
	if err != nil {
		return nil, err
	}

	// Refresh the persisted paragraph model from the rebuilt container so
	// listings and search reflect the exported state.
	extraction, err := docx.Extract(rebuilt)
	if err != nil {
		return nil, fmt.Errorf("re-extract rebuilt container: %w", err)
	}
	paragraphsJSON, err := json.Marshal(extraction.Paragraphs)
	if err != nil {
		return nil, fmt.Errorf("marshal paragraphs: %w", err)
	}
	contentText := extraction.PlainText()

	if err := s.store.UpdateParagraphs(ctx, doc.ID, paragraphsJSON, contentText); err != nil {
		return nil, err
	}

	if s.search != nil {
		s.search.IndexDocument(search.DocumentRecord{
			ID:      doc.ID,
			Name:    doc.Name,
			Content: contentText,
			UserID:  userID,
		})
	}
	if s.history != nil {
		if _, err := s.history.CommitSnapshot(doc.ID, history.Snapshot{
			Name:       doc.Name,
			Paragraphs: paragraphsJSON,
		}, userID, fmt.Sprintf("Export with %d paragraphs", len(edits))); err != nil {
			log.Printf("history: commit export for %s: %v", doc.ID, err)
		}
	}
	if s.archive != nil {
		s.archive.StoreAsync(doc.ID, rebuilt)
	}

	// The session is single-use for container exports.
	if err := s.sessions.Evict(ctx, doc.ID); err != nil {
		log.Printf("session: evict %s after export: %v", doc.ID, err)
	}

	return &export.Result{
		Data:     rebuilt,
		Filename: exportFilename(doc.Name),
		MimeType: docx.MimeType,
	}, nil
}

// ListDocuments returns the caller's document metadata, newest first.
func (s *Service) ListDocuments(ctx context.Context, userID string) ([]store.Document, error) {
	return s.store.ListDocuments(ctx, userID)
}

// GetDocument returns one document's metadata including its paragraph list.
func (s *Service) GetDocument(ctx context.Context, userID, documentID string) (store.Document, error) {
	return s.getOwned(ctx, userID, documentID)
}

// DeleteDocument removes the document's metadata, evicts any open session,
// and drops it from search and history.
func (s *Service) DeleteDocument(ctx context.Context, userID, documentID string) error {
	if err := s.store.DeleteDocument(ctx, userID, documentID); err != nil {
		return err
	}
	if err := s.sessions.Evict(ctx, documentID); err != nil {
		log.Printf("session: evict %s after delete: %v", documentID, err)
	}
	if s.search != nil {
		s.search.DeleteDocument(documentID)
	}
	if s.history != nil {
		if err := s.history.RemoveDocumentRepo(documentID); err != nil {
			log.Printf("history: remove repo %s: %v", documentID, err)
		}
	}
	return nil
}

// History lists a document's export revisions, newest first.
func (s *Service) History(ctx context.Context, userID, documentID string, limit int) ([]history.Revision, error) {
	if _, err := s.getOwned(ctx, userID, documentID); err != nil {
		return nil, err
	}
	if s.history == nil {
		return []history.Revision{}, nil
	}
	revisions, err := s.history.History(documentID, limit)
	if err != nil {
		return nil, fmt.Errorf("load history: %w", err)
	}
	return revisions, nil
}

// Search runs a full-text query over the caller's documents.
func (s *Service) Search(ctx context.Context, userID, text string, limit, offset int) (search.Response, error) {
	if s.search == nil {
		return search.Response{Results: []search.Result{}, Query: text}, nil
	}
	return s.search.Search(search.Query{
		Text:   text,
		UserID: userID,
		Limit:  limit,
		Offset: offset,
	}), nil
}

// getOwned loads a document and hides other users' documents behind NOT_FOUND.
func (s *Service) getOwned(ctx context.Context, userID, documentID string) (store.Document, error) {
	doc, err := s.store.GetDocument(ctx, documentID)
	if err != nil {
		return store.Document{}, err
	}
	if doc.UserID != userID {
		return store.Document{}, store.ErrNotFound
	}
	return doc, nil
}

func exportFilename(name string) string {
	if strings.HasSuffix(strings.ToLower(name), ".docx") {
		return name
	}
	return name + ".docx"
}
