package services

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/jamshid-zayniyev/warehouse-admin/models"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/stretchr/testify/suite"
	"go.uber.org/zap"
)

var storeDay = models.DayOf(time.Date(2025, time.March, 10, 0, 0, 0, 0, time.UTC))

// RequestStoreTestSuite exercises loading and actions against the mock backend
type RequestStoreTestSuite struct {
	suite.Suite
	backend *MockBackend
	journal *recordingJournal
	store   *RequestStore
	ctx     context.Context
}

func (s *RequestStoreTestSuite) SetupTest() {
	s.backend = seededBackend()
	s.backend.AddUser(models.User{ID: 11, Role: "supplier", FullName: "Baltic Trade"})

	settled := pendingRequest()
	settled.ID = 8
	settled.Status = models.StatusSuccess
	s.backend.AddRequests(storeDay, pendingRequest(), settled)

	s.journal = &recordingJournal{}
	s.store = NewRequestStore(s.backend, NewEnricher(s.backend, nil, 4, zap.NewNop()), s.journal, zap.NewNop())
	s.ctx = WithCorrelationID(context.Background(), "corr-1")
}

func (s *RequestStoreTestSuite) load() []models.SupplierRequestWithDetails {
	reqs, err := s.store.Load(s.ctx, "token", models.SingleDay(storeDay))
	s.Require().NoError(err)
	return reqs
}

func (s *RequestStoreTestSuite) TestLoad_EnrichesAndStores() {
	reqs := s.load()

	s.Require().Len(reqs, 2)
	s.Equal(uint(7), reqs[0].ID)
	s.Equal("Acme Supply", reqs[0].SupplierDetails.FullName)
	s.Equal(models.LabelPending, reqs[0].DisplayStatus)
	s.Equal(models.LabelSuccess, reqs[1].DisplayStatus)

	scope, stored, loaded := s.store.Snapshot()
	s.True(loaded)
	s.Equal(storeDay, scope.From)
	s.Len(stored, 2)
	s.Equal([]string{"token"}, s.backend.Tokens())
}

func (s *RequestStoreTestSuite) TestLoad_IsIdempotent() {
	first := s.load()
	second := s.load()

	s.Equal(first, second)
}

func (s *RequestStoreTestSuite) TestLoad_MultiDayScopeIsChronological() {
	earlier := storeDay.AddDays(-2)
	older := pendingRequest()
	older.ID = 2
	s.backend.AddRequests(earlier, older)

	reqs, err := s.store.Load(s.ctx, "token", models.DateScope{From: earlier, To: storeDay})
	s.Require().NoError(err)

	s.Require().Len(reqs, 3)
	s.Equal(uint(2), reqs[0].ID)
	s.Equal(uint(7), reqs[1].ID)
	s.Equal(3, s.backend.ListCalls(), "one list call per day")
}

func (s *RequestStoreTestSuite) TestLoad_FailureKeepsPreviousList() {
	s.load()

	s.backend.ListErr = &BackendError{Method: "GET", Path: "/supplier/supplier-requests/", StatusCode: 500}
	_, err := s.store.Load(s.ctx, "token", models.SingleDay(storeDay.AddDays(1)))

	var backendErr *BackendError
	s.Require().ErrorAs(err, &backendErr)
	_, stored, _ := s.store.Snapshot()
	s.Len(stored, 2)
}

func (s *RequestStoreTestSuite) TestDispatch_RejectReloadsOnce() {
	s.load()
	callsBefore := s.backend.ListCalls()

	result, err := s.store.Dispatch(s.ctx, "token", 7, RejectAction{})
	s.Require().NoError(err)

	s.Equal(1, result.Reloads)
	s.NoError(result.ReloadErr)
	s.Equal(callsBefore+1, s.backend.ListCalls())

	reloaded, err := s.store.Find(7)
	s.Require().NoError(err)
	s.Equal(models.LabelRejected, reloaded.DisplayStatus)
	s.Empty(reloaded.AllowedActions)

	s.Require().Len(s.journal.entries, 1)
	entry := s.journal.entries[0]
	s.Equal(models.OutcomeApplied, entry.Outcome)
	s.Equal("reject", entry.Action)
	s.Equal("corr-1", entry.CorrelationID)
	s.True(entry.Reloaded)
}

func (s *RequestStoreTestSuite) TestDispatch_ReassignSplitsRequest() {
	s.load()

	result, err := s.store.Dispatch(s.ctx, "token", 7, ReassignAction{
		NewSupplier: uintPtr(9),
		Quantity:    intPtr(20),
		BuyPrice:    price("1000"),
	})
	s.Require().NoError(err)
	s.Require().Len(result.Requests, 3)

	original, err := s.store.Find(7)
	s.Require().NoError(err)
	s.Equal(models.LabelPartial, original.DisplayStatus)
	s.Require().NotNil(original.NewSupplierDetails)
	s.Equal("Nordic Goods", original.NewSupplierDetails.FullName)
	partial, ok := original.State().(models.Partial)
	s.Require().True(ok)
	s.Equal(20, partial.TransferredQuantity)

	derived := result.Requests[2]
	s.Equal(uint(9), derived.Supplier)
	s.Equal(models.LabelPending, derived.DisplayStatus)
	s.Require().NotNil(derived.ReassignedFrom)
	s.Equal(uint(7), *derived.ReassignedFrom)

	s.JSONEq(`{"new_supplier":9,"quantity":20,"buy_price":"1000"}`, s.journal.entries[0].Payload)
}

func (s *RequestStoreTestSuite) TestDispatch_ValidationSendsNothing() {
	s.load()

	_, err := s.store.Dispatch(s.ctx, "token", 7, SuccessAction{BuyPrice: price("-0.01")})
	s.True(IsValidationError(err))

	_, err = s.store.Dispatch(s.ctx, "token", 8, RejectAction{})
	requireValidationCode(s.T(), err, CodeNotActionable)

	s.Empty(s.backend.ExecutedCommands())
	s.Require().Len(s.journal.entries, 2)
	s.Equal(models.OutcomeInvalid, s.journal.entries[0].Outcome)
	s.Require().NotNil(s.journal.entries[0].Error)
}

func (s *RequestStoreTestSuite) TestDispatch_UnknownRequest() {
	s.load()

	_, err := s.store.Dispatch(s.ctx, "token", 999, RejectAction{})
	s.ErrorIs(err, ErrRequestNotFound)
}

func (s *RequestStoreTestSuite) TestDispatch_BackendFailureSkipsReload() {
	s.load()
	callsBefore := s.backend.ListCalls()
	s.backend.ExecuteErr = &BackendError{Method: "POST", Path: "/supplier/supplier-requests/7/reject/", StatusCode: 400, Body: "bad"}

	result, err := s.store.Dispatch(s.ctx, "token", 7, RejectAction{})

	s.Nil(result)
	var backendErr *BackendError
	s.Require().ErrorAs(err, &backendErr)
	s.Equal(400, backendErr.StatusCode)
	s.Equal(callsBefore, s.backend.ListCalls())

	stored, err := s.store.Find(7)
	s.Require().NoError(err)
	s.Equal(models.LabelPending, stored.DisplayStatus)
	s.Equal(models.OutcomeFailed, s.journal.entries[0].Outcome)
}

func (s *RequestStoreTestSuite) TestCandidates_ExcludeCurrentSupplier() {
	s.load()

	candidates, err := s.store.Candidates(s.ctx, "token", 7)
	s.Require().NoError(err)

	ids := []uint{}
	for _, c := range candidates {
		ids = append(ids, c.ID)
	}
	s.ElementsMatch([]uint{9, 11}, ids)
}

func (s *RequestStoreTestSuite) TestAddProduct_ReloadsWhenLoaded() {
	result, err := s.store.AddProduct(s.ctx, "token", 100, 5, 2)
	s.Require().NoError(err)
	s.Equal(0, result.Reloads, "nothing loaded yet")

	s.load()
	result, err = s.store.AddProduct(s.ctx, "token", 100, 5, 2)
	s.Require().NoError(err)
	s.Equal(1, result.Reloads)

	_, err = s.store.AddProduct(s.ctx, "token", 100, 5, 0)
	requireValidationCode(s.T(), err, CodeInvalidQuantity)
	s.Len(s.backend.ExecutedCommands(), 2)
}

func TestRequestStoreTestSuite(t *testing.T) {
	suite.Run(t, new(RequestStoreTestSuite))
}

func TestLoad_StaleResultIsDiscarded(t *testing.T) {
	backend := seededBackend()
	dayA := storeDay
	dayB := storeDay.AddDays(1)
	reqA := pendingRequest()
	reqB := pendingRequest()
	reqB.ID = 70
	backend.AddRequests(dayA, reqA)
	backend.AddRequests(dayB, reqB)

	release := make(chan struct{})
	entered := make(chan struct{})
	var once sync.Once
	backend.ListHook = func(day models.Day) {
		if day == dayA {
			once.Do(func() { close(entered) })
			<-release
		}
	}

	store := NewRequestStore(backend, NewEnricher(backend, nil, 4, zap.NewNop()), nil, zap.NewNop())
	ctx := context.Background()

	var staleErr error
	done := make(chan struct{})
	go func() {
		defer close(done)
		_, staleErr = store.Load(ctx, "token", models.SingleDay(dayA))
	}()

	<-entered
	newer, err := store.Load(ctx, "token", models.SingleDay(dayB))
	require.NoError(t, err)
	require.Len(t, newer, 1)
	assert.Equal(t, uint(70), newer[0].ID)

	close(release)
	<-done

	assert.True(t, errors.Is(staleErr, ErrStaleLoad))
	scope, stored, _ := store.Snapshot()
	assert.Equal(t, dayB, scope.From)
	require.Len(t, stored, 1)
	assert.Equal(t, uint(70), stored[0].ID)
}

func TestHistory_WithoutJournalIsEmpty(t *testing.T) {
	backend := seededBackend()
	store := NewRequestStore(backend, NewEnricher(backend, nil, 1, zap.NewNop()), nil, zap.NewNop())

	logs, err := store.History(context.Background(), 7)
	require.NoError(t, err)
	assert.Empty(t, logs)
}

// recordingJournal keeps entries in memory
type recordingJournal struct {
	mu      sync.Mutex
	entries []models.ActionLog
}

func (j *recordingJournal) Record(_ context.Context, entry *models.ActionLog) {
	j.mu.Lock()
	defer j.mu.Unlock()
	j.entries = append(j.entries, *entry)
}

func (j *recordingJournal) History(_ context.Context, requestID uint) ([]models.ActionLog, error) {
	j.mu.Lock()
	defer j.mu.Unlock()
	var out []models.ActionLog
	for _, e := range j.entries {
		if e.RequestID == requestID {
			out = append(out, e)
		}
	}
	return out, nil
}
