package services

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"sync/atomic"

	"github.com/jamshid-zayniyev/warehouse-admin/models"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"
)

var (
	// ErrRequestNotFound means the id is not part of the loaded list
	ErrRequestNotFound = errors.New("supplier request not found in the loaded scope")

	// ErrStaleLoad means a newer load finished first and this result was discarded
	ErrStaleLoad = errors.New("load superseded by a newer request")
)

// ActionResult describes an applied command and the reload that followed it
type ActionResult struct {
	Command   Command
	Reloads   int   // reloads issued after the command, one for an applied command with a loaded scope
	ReloadErr error // set when the follow-up reload failed; the command itself was applied
	Requests  []models.SupplierRequestWithDetails
}

// RequestStore holds the enriched supplier requests of the selected date scope.
// Mutations never patch the list: every applied command reloads it from the backend.
type RequestStore struct {
	backend  BackendClient
	enricher *Enricher
	journal  ActionJournal
	logger   *zap.Logger

	issued atomic.Uint64

	mu       sync.RWMutex
	loaded   bool
	applied  uint64
	scope    models.DateScope
	requests []models.SupplierRequestWithDetails
}

// NewRequestStore creates an empty store
func NewRequestStore(backend BackendClient, enricher *Enricher, journal ActionJournal, logger *zap.Logger) *RequestStore {
	if journal == nil {
		journal = NoopActionJournal{}
	}
	return &RequestStore{
		backend:  backend,
		enricher: enricher,
		journal:  journal,
		logger:   logger,
		requests: []models.SupplierRequestWithDetails{},
	}
}

// Load fetches and enriches every request in scope and replaces the stored list.
// On failure the previous list stays in place. A load that finishes after a newer
// one was applied is discarded with ErrStaleLoad.
func (s *RequestStore) Load(ctx context.Context, token string, scope models.DateScope) ([]models.SupplierRequestWithDetails, error) {
	gen := s.issued.Add(1)

	enriched, err := s.Collect(ctx, token, scope)
	if err != nil {
		s.logger.Warn("supplier request load failed", zap.String("scope", scope.Key()), zap.Error(err))
		return nil, err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if gen < s.applied {
		s.logger.Debug("discarding stale load", zap.String("scope", scope.Key()), zap.Uint64("generation", gen))
		return nil, ErrStaleLoad
	}

	s.applied = gen
	s.loaded = true
	s.scope = scope
	s.requests = enriched

	s.logger.Info("supplier requests loaded",
		zap.String("scope", scope.Key()),
		zap.Int("count", len(enriched)))

	return cloneRequests(enriched), nil
}

// Collect fetches and enriches every request in scope without touching the stored list
func (s *RequestStore) Collect(ctx context.Context, token string, scope models.DateScope) ([]models.SupplierRequestWithDetails, error) {
	raw, err := s.fetch(ctx, token, scope)
	if err != nil {
		return nil, fmt.Errorf("failed to load supplier requests for %s: %w", scope.Key(), err)
	}
	return s.enricher.EnrichAll(ctx, token, raw), nil
}

// fetch loads the raw records of every day in scope concurrently and
// concatenates them in chronological order
func (s *RequestStore) fetch(ctx context.Context, token string, scope models.DateScope) ([]models.SupplierRequest, error) {
	days := scope.Days()
	perDay := make([][]models.SupplierRequest, len(days))

	g, gctx := errgroup.WithContext(ctx)
	for i, day := range days {
		g.Go(func() error {
			reqs, err := s.backend.ListSupplierRequests(gctx, token, day)
			if err != nil {
				return fmt.Errorf("day %s: %w", day, err)
			}
			perDay[i] = reqs
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}

	var out []models.SupplierRequest
	for _, reqs := range perDay {
		out = append(out, reqs...)
	}
	return out, nil
}

// Snapshot returns the current scope and a copy of the stored list.
// loaded is false until the first successful Load.
func (s *RequestStore) Snapshot() (scope models.DateScope, requests []models.SupplierRequestWithDetails, loaded bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.scope, cloneRequests(s.requests), s.loaded
}

// Find returns the stored request with the given id
func (s *RequestStore) Find(id uint) (models.SupplierRequestWithDetails, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	for _, r := range s.requests {
		if r.ID == id {
			return r, nil
		}
	}
	return models.SupplierRequestWithDetails{}, ErrRequestNotFound
}

// Candidates returns the suppliers the request may be reassigned to
func (s *RequestStore) Candidates(ctx context.Context, token string, id uint) ([]models.User, error) {
	req, err := s.Find(id)
	if err != nil {
		return nil, err
	}
	suppliers, err := s.backend.ListSuppliers(ctx, token)
	if err != nil {
		return nil, fmt.Errorf("failed to load suppliers: %w", err)
	}
	return CandidateSuppliers(req.SupplierRequest, suppliers), nil
}

// Dispatch validates action against the stored request, sends it to the backend
// and reloads the current scope once. Nothing is sent when validation fails, and
// nothing is reloaded when the backend rejects the command.
func (s *RequestStore) Dispatch(ctx context.Context, token string, id uint, action Action) (*ActionResult, error) {
	req, err := s.Find(id)
	if err != nil {
		return nil, err
	}

	cmd, err := Plan(req.SupplierRequest, action)
	if err != nil {
		entry := newActionLog(ctx, Command{Kind: action.Kind()}, id)
		markOutcome(entry, models.OutcomeInvalid, err)
		s.journal.Record(ctx, entry)
		return nil, err
	}

	return s.execute(ctx, token, cmd)
}

// AddProduct appends a product to an order, then reloads the current scope
// when one is loaded
func (s *RequestStore) AddProduct(ctx context.Context, token string, orderID, productID uint, quantity int) (*ActionResult, error) {
	cmd, err := PlanAddProduct(orderID, productID, quantity)
	if err != nil {
		return nil, err
	}
	return s.execute(ctx, token, cmd)
}

func (s *RequestStore) execute(ctx context.Context, token string, cmd Command) (*ActionResult, error) {
	entry := newActionLog(ctx, cmd, cmd.RequestID)

	if err := s.backend.Execute(ctx, token, cmd); err != nil {
		markOutcome(entry, models.OutcomeFailed, err)
		s.journal.Record(ctx, entry)
		s.logger.Warn("supplier request action failed",
			zap.String("action", string(cmd.Kind)),
			zap.Uint("request_id", cmd.RequestID),
			zap.Error(err))
		return nil, fmt.Errorf("failed to apply %s: %w", cmd.Kind, err)
	}

	result := &ActionResult{Command: cmd}

	s.mu.RLock()
	scope, loaded := s.scope, s.loaded
	s.mu.RUnlock()

	if loaded {
		result.Reloads = 1
		result.Requests, result.ReloadErr = s.Load(ctx, token, scope)
	}

	markOutcome(entry, models.OutcomeApplied, nil)
	entry.Reloaded = result.Reloads > 0 && result.ReloadErr == nil
	s.journal.Record(ctx, entry)

	s.logger.Info("supplier request action applied",
		zap.String("action", string(cmd.Kind)),
		zap.Uint("request_id", cmd.RequestID),
		zap.String("correlation_id", CorrelationID(ctx)))

	return result, nil
}

// History returns the journal entries recorded for a request
func (s *RequestStore) History(ctx context.Context, id uint) ([]models.ActionLog, error) {
	return s.journal.History(ctx, id)
}

func cloneRequests(in []models.SupplierRequestWithDetails) []models.SupplierRequestWithDetails {
	out := make([]models.SupplierRequestWithDetails, len(in))
	copy(out, in)
	return out
}
