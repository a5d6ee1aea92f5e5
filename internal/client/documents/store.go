// Package documents owns the fetched document collection and the
// operations that reconcile it against the backend.
package documents

import (
	"context"
	"errors"
	"sort"
	"sync"

	"github.com/dmitrijs2005/docvault/internal/client/api"
	"github.com/dmitrijs2005/docvault/internal/client/models"
	"github.com/dmitrijs2005/docvault/internal/logging"
)

// ErrStaleResponse marks a response that resolved for a retired request:
// either a newer fetch was initiated, or the session it was issued in is
// gone. The store has already ignored it.
var ErrStaleResponse = errors.New("stale documents response discarded")

// Status is the lifecycle state of the store's current/last request.
type Status string

const (
	StatusIdle    Status = "idle"
	StatusPending Status = "pending"
	StatusError   Status = "error"
)

// Fallback messages for operations whose failure carries no server msg.
const (
	fetchFallbackMsg  = "Failed to load documents"
	uploadFallbackMsg = "Upload failed."
	updateFallbackMsg = "Failed to update document."
	deleteFallbackMsg = "Failed to delete document."
)

// EpochSource reports the current session generation. The session store
// satisfies it; the collection uses it to drop responses that outlived
// the session they were requested under.
type EpochSource interface {
	Epoch() uint64
}

// Store holds the document collection, keyed by id. The server is the
// source of truth; the store reconciles locally after each acknowledged
// mutation instead of refetching.
type Store struct {
	api     api.Client
	session EpochSource
	log     logging.Logger

	mu      sync.Mutex
	items   map[string]models.Document
	status  Status
	lastErr string
	seq     uint64 // retires in-flight fetches
}

func NewStore(apiClient api.Client, session EpochSource, log logging.Logger) *Store {
	return &Store{
		api:     apiClient,
		session: session,
		log:     log.With("component", "documents"),
		items:   make(map[string]models.Document),
		status:  StatusIdle,
	}
}

// begin marks a new request and captures the identifiers its response
// must still match to be applied.
func (s *Store) begin() (seq, epoch uint64) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.seq++
	s.status = StatusPending
	s.lastErr = ""
	return s.seq, s.session.Epoch()
}

// stale reports whether a response may no longer be applied. checkSeq is
// set for wholesale fetches, which must be the latest-initiated request;
// id-keyed mutations only require the session to still be the same.
func (s *Store) stale(seq, epoch uint64, checkSeq bool) bool {
	if checkSeq && seq != s.seq {
		return true
	}
	return epoch != s.session.Epoch()
}

// FetchAll replaces the collection wholesale with the server's current
// set. On failure the previously loaded items stay available.
func (s *Store) FetchAll(ctx context.Context) error {
	seq, epoch := s.begin()

	docs, err := s.api.ListDocuments(ctx)

	s.mu.Lock()
	defer s.mu.Unlock()

	if s.stale(seq, epoch, true) {
		s.log.Info(ctx, "discarding stale document fetch", "seq", seq)
		return ErrStaleResponse
	}
	if err != nil {
		s.status = StatusError
		s.lastErr = api.Message(err, fetchFallbackMsg)
		return err
	}

	items := make(map[string]models.Document, len(docs))
	for _, d := range docs {
		items[d.Id] = d
	}
	s.items = items
	s.status = StatusIdle
	return nil
}

// Get fetches a single record. It is a pass-through read used by the
// view and update-prefill flows; the collection itself is not touched.
func (s *Store) Get(ctx context.Context, id string) (*models.Document, error) {
	doc, err := s.api.GetDocument(ctx, id)
	if err != nil {
		return nil, err
	}
	return doc, nil
}

// Create uploads a new document. When the server echoes the created
// record it is appended locally; otherwise the store falls back to a
// full refresh, since the upload contract only promises a 201.
func (s *Store) Create(ctx context.Context, up api.Upload) error {
	seq, epoch := s.begin()

	doc, err := s.api.UploadDocument(ctx, up)

	s.mu.Lock()
	if s.stale(seq, epoch, false) {
		s.mu.Unlock()
		return ErrStaleResponse
	}
	if err != nil {
		s.status = StatusError
		s.lastErr = api.Message(err, uploadFallbackMsg)
		s.mu.Unlock()
		return err
	}
	if doc != nil {
		s.items[doc.Id] = *doc
		s.status = StatusIdle
		s.mu.Unlock()
		return nil
	}
	s.mu.Unlock()
	return s.FetchAll(ctx)
}

// Update submits changed fields for id and, after the server's ack,
// replaces the local entry with them. The previous file URL is kept:
// the server does not echo a new one on 200.
func (s *Store) Update(ctx context.Context, id string, up api.Upload) error {
	seq, epoch := s.begin()

	err := s.api.UpdateDocument(ctx, id, up)

	s.mu.Lock()
	defer s.mu.Unlock()

	if s.stale(seq, epoch, false) {
		return ErrStaleResponse
	}
	if err != nil {
		s.status = StatusError
		s.lastErr = api.Message(err, updateFallbackMsg)
		return err
	}

	if prev, ok := s.items[id]; ok {
		s.items[id] = models.Document{
			Id:          id,
			Name:        up.Name,
			Type:        up.Type,
			Description: up.Description,
			ExpiryDate:  up.ExpiryDate,
			FileUrl:     prev.FileUrl,
		}
	}
	s.status = StatusIdle
	return nil
}

// Remove deletes id on the server and, only after the acknowledgment,
// drops it from the collection. A failed delete leaves the items
// untouched and surfaces the error.
func (s *Store) Remove(ctx context.Context, id string) error {
	seq, epoch := s.begin()

	err := s.api.DeleteDocument(ctx, id)

	s.mu.Lock()
	defer s.mu.Unlock()

	if s.stale(seq, epoch, false) {
		return ErrStaleResponse
	}
	if err != nil {
		s.status = StatusError
		s.lastErr = api.Message(err, deleteFallbackMsg)
		return err
	}

	delete(s.items, id)
	s.status = StatusIdle
	return nil
}

// Clear empties the collection and resets status. The logout path calls
// it so a prior user's documents never leak into the next session.
func (s *Store) Clear() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.items = make(map[string]models.Document)
	s.status = StatusIdle
	s.lastErr = ""
	s.seq++ // retire in-flight fetches
}

// Items returns a snapshot of the collection ordered by name for
// rendering. Internally the set stays keyed by id.
func (s *Store) Items() []models.Document {
	s.mu.Lock()
	defer s.mu.Unlock()

	docs := make([]models.Document, 0, len(s.items))
	for _, d := range s.items {
		docs = append(docs, d)
	}
	sort.Slice(docs, func(i, j int) bool {
		if docs[i].Name != docs[j].Name {
			return docs[i].Name < docs[j].Name
		}
		return docs[i].Id < docs[j].Id
	})
	return docs
}

// Contains reports whether id is present in the local collection.
func (s *Store) Contains(id string) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	_, ok := s.items[id]
	return ok
}

func (s *Store) Status() Status {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.status
}

func (s *Store) LastError() string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.lastErr
}
