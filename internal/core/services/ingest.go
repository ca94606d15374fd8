package services

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/custodia-labs/ragcore/internal/core/domain"
	"github.com/custodia-labs/ragcore/internal/core/ports/driven"
	"github.com/custodia-labs/ragcore/internal/core/ports/driving"
	"github.com/custodia-labs/ragcore/internal/folder"
	"github.com/custodia-labs/ragcore/internal/logger"
)

// Ensure IngestService implements the interface.
var _ driving.IngestService = (*IngestService)(nil)

// documentNamespace scopes document IDs derived from folder and filename.
var documentNamespace = uuid.MustParse("5b1c9a56-3e0f-4f5e-9d8e-7a2f3c1e0b41")

// maxLawTextRunes bounds the statute text included in a record's embedding text.
const maxLawTextRunes = 2000

// Entry metadata keys written by ingestion.
const (
	metaChunkIndex   = "chunk_index"
	metaItemName     = "item_name"
	metaBuildingType = "building_type"
)

// DocumentID derives a stable document ID from folder and filename.
// The folder is NFC-normalised first, so differently composed labels map
// to the same document.
func DocumentID(folderLabel, filename string) string {
	return uuid.NewSHA1(documentNamespace, []byte(folder.Normalize(folderLabel)+"|"+filename)).String()
}

// IngestService chunks, embeds and stores documents.
type IngestService struct {
	pipeline  driven.PostProcessorPipeline
	store     driven.VectorStore
	catalog   driven.DocumentCatalog
	embedding driven.EmbeddingService
	now       func() time.Time

	normalisers driven.NormaliserRegistry
}

// IngestOption configures an IngestService.
type IngestOption func(*IngestService)

// WithNormalisers sets the registry that converts raw file data to text.
func WithNormalisers(r driven.NormaliserRegistry) IngestOption {
	return func(s *IngestService) {
		s.normalisers = r
	}
}

// NewIngestService creates a new ingest service.
// The embedding service may be nil; ingestion then fails with
// domain.ErrEmbeddingUnavailable.
func NewIngestService(
	pipeline driven.PostProcessorPipeline,
	store driven.VectorStore,
	catalog driven.DocumentCatalog,
	embedding driven.EmbeddingService,
	opts ...IngestOption,
) *IngestService {
	s := &IngestService{
		pipeline:  pipeline,
		store:     store,
		catalog:   catalog,
		embedding: embedding,
		now:       time.Now,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Ingest chunks, embeds and stores a document.
func (s *IngestService) Ingest(ctx context.Context, req driving.IngestRequest) (*driving.IngestResult, error) {
	if strings.TrimSpace(req.Filename) == "" {
		return nil, fmt.Errorf("%w: filename is required", domain.ErrInvalidInput)
	}
	if s.embedding == nil {
		return nil, domain.ErrEmbeddingUnavailable
	}

	logger.Section("Ingest")
	defer logger.Timed("ingest " + req.Filename)()

	doc := &domain.Document{
		ID:       DocumentID(req.Folder, req.Filename),
		Filename: req.Filename,
		Folder:   req.Folder,
		Content:  req.Content,
		Metadata: copyMetadata(req.Metadata),
	}
	if doc.Content == "" && len(req.Data) > 0 {
		if err := s.normalise(ctx, doc, req); err != nil {
			return nil, err
		}
	}
	if req.Structured {
		doc.Metadata[domain.DocStructured] = true
	}

	chunks, err := s.pipeline.Process(ctx, doc)
	if err != nil {
		return nil, fmt.Errorf("chunk %s: %w", req.Filename, err)
	}
	if len(chunks) == 0 {
		return nil, fmt.Errorf("%w: %s has no text content", domain.ErrInvalidInput, req.Filename)
	}
	logger.Debug("%s: %d chunks", req.Filename, len(chunks))

	texts := make([]string, len(chunks))
	metas := make([]map[string]any, len(chunks))
	for i, c := range chunks {
		texts[i] = c.Content
		metas[i] = map[string]any{metaChunkIndex: c.Position}
	}

	return s.replace(ctx, doc, req.Metadata, texts, metas)
}

// normalise fills doc.Content from the raw request data. Without a
// registry the data is taken as UTF-8 text.
func (s *IngestService) normalise(ctx context.Context, doc *domain.Document, req driving.IngestRequest) error {
	if s.normalisers == nil {
		doc.Content = string(req.Data)
		return nil
	}

	res, err := s.normalisers.Normalise(ctx, &domain.RawDocument{
		Filename: req.Filename,
		MIMEType: req.MIMEType,
		Content:  req.Data,
	})
	if err != nil {
		return fmt.Errorf("extract text from %s: %w", req.Filename, err)
	}
	doc.Content = res.Content
	if res.Title != "" {
		doc.Metadata[domain.DocTitle] = res.Title
	}
	if res.Format != "" {
		doc.Metadata[domain.DocFormat] = res.Format
	}
	logger.Debug("%s: extracted %d bytes as %s", req.Filename, len(res.Content), res.Format)
	return nil
}

// IngestRecords stores one entry per structured record. Law-table records
// (carrying scenario, law_group or item_name) are rendered into a labelled
// embedding text; other records use their passage format. Records that
// render empty are skipped.
func (s *IngestService) IngestRecords(
	ctx context.Context, filename, folderLabel string, records []domain.Record,
) (*driving.IngestResult, error) {
	if strings.TrimSpace(filename) == "" {
		return nil, fmt.Errorf("%w: filename is required", domain.ErrInvalidInput)
	}
	if s.embedding == nil {
		return nil, domain.ErrEmbeddingUnavailable
	}

	logger.Section("Ingest Records")
	defer logger.Timed("ingest records " + filename)()

	var (
		texts []string
		metas []map[string]any
	)
	for i, rec := range records {
		if rec == nil {
			continue
		}
		text, meta := recordEntry(rec)
		if strings.TrimSpace(text) == "" {
			logger.Debug("%s: record %d has no text, skipped", filename, i)
			continue
		}
		meta[metaChunkIndex] = len(texts)
		texts = append(texts, text)
		metas = append(metas, meta)
	}
	if len(texts) == 0 {
		return nil, fmt.Errorf("%w: %s has no usable records", domain.ErrInvalidInput, filename)
	}

	doc := &domain.Document{
		ID:       DocumentID(folderLabel, filename),
		Filename: filename,
		Folder:   folderLabel,
		Metadata: map[string]any{domain.DocStructured: true},
	}
	return s.replace(ctx, doc, nil, texts, metas)
}

// replace embeds texts and swaps them in for the document's entries in a
// single store write. An embedding or store failure leaves the previous
// version and its catalog record in place.
func (s *IngestService) replace(
	ctx context.Context,
	doc *domain.Document,
	callerMeta map[string]any,
	texts []string,
	metas []map[string]any,
) (*driving.IngestResult, error) {
	vectors, err := s.embedding.EmbedBatch(ctx, texts)
	if err != nil {
		return nil, fmt.Errorf("embed %s: %w", doc.Filename, err)
	}
	if len(vectors) != len(texts) {
		return nil, fmt.Errorf("%w: got %d embeddings for %d texts", domain.ErrProviderFailure, len(vectors), len(texts))
	}

	now := s.now()
	createdAt := now
	replaced := false
	existing, err := s.catalog.Get(ctx, doc.ID)
	switch {
	case err == nil:
		replaced = true
		createdAt = existing.CreatedAt
	case !errors.Is(err, domain.ErrNotFound):
		return nil, fmt.Errorf("look up %s: %w", doc.ID, err)
	}

	stamp := now.Format(time.RFC3339)
	entries := make([]domain.Entry, len(texts))
	for i, text := range texts {
		m := copyMetadata(callerMeta)
		for k, v := range metas[i] {
			m[k] = v
		}
		m[domain.MetaSource] = doc.ID
		m[domain.MetaFilename] = doc.Filename
		m[domain.MetaFolder] = doc.Folder
		m[domain.MetaCreatedAt] = stamp

		entries[i] = domain.Entry{
			Embedding: vectors[i],
			Content:   text,
			Metadata:  domain.MetadataFromMap(m),
		}
	}

	removed, err := s.store.Replace(ctx, doc.ID, entries)
	if err != nil {
		return nil, fmt.Errorf("store entries: %w", err)
	}
	if removed > 0 {
		replaced = true
		logger.Info("replaced %d entries of %s", removed, doc.Filename)
	}

	doc.ChunkCount = len(entries)
	doc.CreatedAt = createdAt
	doc.UpdatedAt = now
	if err := s.catalog.Upsert(ctx, doc); err != nil {
		return nil, fmt.Errorf("catalog %s: %w", doc.Filename, err)
	}

	logger.Info("ingested %s (%d entries)", doc.Filename, len(entries))
	return &driving.IngestResult{Document: doc, Chunks: len(entries), Replaced: replaced}, nil
}

// Remove deletes a document's entries and its catalog record.
// Returns domain.ErrNotFound when neither the catalog nor the store knows it.
func (s *IngestService) Remove(ctx context.Context, documentID string) (int, error) {
	_, getErr := s.catalog.Get(ctx, documentID)
	if getErr != nil && !errors.Is(getErr, domain.ErrNotFound) {
		return 0, fmt.Errorf("look up %s: %w", documentID, getErr)
	}

	removed, err := s.store.Remove(ctx, documentID)
	if err != nil {
		return 0, fmt.Errorf("remove entries: %w", err)
	}
	if removed == 0 && getErr != nil {
		return 0, fmt.Errorf("document %s: %w", documentID, domain.ErrNotFound)
	}

	if err := s.catalog.Delete(ctx, documentID); err != nil {
		return removed, fmt.Errorf("delete catalog record: %w", err)
	}
	logger.Info("removed %s (%d entries)", documentID, removed)
	return removed, nil
}

// List returns catalogued documents.
func (s *IngestService) List(ctx context.Context) ([]domain.Document, error) {
	return s.catalog.List(ctx)
}

// recordEntry renders a record into embedding text and entry metadata.
func recordEntry(rec domain.Record) (string, map[string]any) {
	if !isLawTable(rec) {
		meta := map[string]any{}
		if id := rec.ID(); id != "" {
			meta["id"] = id
		}
		if c := rec.String("category"); c != "" {
			meta["category"] = c
		}
		return rec.Format(), meta
	}

	meta := map[string]any{
		domain.MetaScenario: rec.String("scenario"),
		domain.MetaLawGroup: rec.String("law_group"),
		metaItemName:        rec.String("item_name"),
	}
	if ids := rec.Strings("article_ids"); len(ids) > 0 {
		meta[domain.MetaArticleIDs] = ids
	}
	if u := rec.String("usage"); u != "" {
		meta[domain.MetaUsage] = u
	}
	if b := rec.String("building_type"); b != "" {
		meta[metaBuildingType] = b
	}
	return LawTableText(rec), meta
}

func isLawTable(rec domain.Record) bool {
	return rec.Has("scenario") || rec.Has("law_group") || rec.Has("item_name")
}

// LawTableText builds the labelled embedding text for a law-table record.
// Statute text longer than 2000 runes is truncated with "...".
func LawTableText(rec domain.Record) string {
	parts := []string{
		"[시나리오] " + rec.String("scenario"),
		"[법령 묶음] " + rec.String("law_group"),
	}
	if ids := rec.Strings("article_ids"); len(ids) > 0 {
		parts = append(parts, "[조문] "+strings.Join(ids, ", "))
	}
	parts = append(parts, "[항목] "+rec.String("item_name"))

	if review := rec.String("review_text"); review != "" {
		parts = append(parts, "[검토내용] "+review)
	}
	if law := rec.String("law_text"); law != "" {
		if r := []rune(law); len(r) > maxLawTextRunes {
			law = string(r[:maxLawTextRunes]) + "..."
		}
		parts = append(parts, "[법령내용] "+law)
	}
	if usage := rec.String("usage"); usage != "" {
		parts = append(parts, "[용도] "+usage)
	}
	if bt := rec.String("building_type"); bt != "" {
		parts = append(parts, "[건축종류] "+bt)
	}
	return strings.Join(parts, "\n")
}

func copyMetadata(m map[string]any) map[string]any {
	out := make(map[string]any, len(m))
	for k, v := range m {
		out[k] = v
	}
	return out
}
