package services

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"sync"

	"github.com/jamshid-zayniyev/warehouse-admin/models"
)

// RecordedForward is a relayed request as the mock received it
type RecordedForward struct {
	Method      string
	Path        string
	RawQuery    string
	ContentType string
	Body        []byte
}

// MockBackend is an in-memory BackendClient for testing. Executed commands are
// applied to the stored requests the way the real backend applies them.
type MockBackend struct {
	mu sync.Mutex

	requests  map[models.Day][]models.SupplierRequest
	users     map[uint]models.User
	products  map[uint]models.Product
	orders    map[uint]models.Order
	suppliers []models.User
	forwards  map[string]*ForwardResponse
	nextID    uint

	executed  []Command
	forwarded []RecordedForward
	listCalls int
	tokens    []string

	// ListErr, ExecuteErr and ForwardErr make the matching calls fail when set
	ListErr    error
	ExecuteErr error
	ForwardErr error

	// ListHook runs before ListSupplierRequests answers; tests use it to block a load
	ListHook func(day models.Day)
}

// NewMockBackend creates an empty mock backend
func NewMockBackend() *MockBackend {
	return &MockBackend{
		requests: make(map[models.Day][]models.SupplierRequest),
		users:    make(map[uint]models.User),
		products: make(map[uint]models.Product),
		orders:   make(map[uint]models.Order),
		forwards: make(map[string]*ForwardResponse),
		nextID:   1000,
	}
}

// AddRequests stores requests under day, in order
func (m *MockBackend) AddRequests(day models.Day, reqs ...models.SupplierRequest) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.requests[day] = append(m.requests[day], reqs...)
}

// AddUser stores a user; suppliers are also listed by ListSuppliers
func (m *MockBackend) AddUser(u models.User) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.users[u.ID] = u
	if u.Role == "supplier" {
		m.suppliers = append(m.suppliers, u)
	}
}

// AddProduct stores a product
func (m *MockBackend) AddProduct(p models.Product) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.products[p.ID] = p
}

// AddOrder stores an order
func (m *MockBackend) AddOrder(o models.Order) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.orders[o.ID] = o
}

// SetForwardResponse fixes the answer to a relayed METHOD path
func (m *MockBackend) SetForwardResponse(method, path string, resp *ForwardResponse) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.forwards[method+" "+path] = resp
}

// ListSupplierRequests returns copies of the requests stored for day
func (m *MockBackend) ListSupplierRequests(_ context.Context, token string, day models.Day) ([]models.SupplierRequest, error) {
	if m.ListHook != nil {
		m.ListHook(day)
	}

	m.mu.Lock()
	defer m.mu.Unlock()
	m.listCalls++
	m.tokens = append(m.tokens, token)

	if m.ListErr != nil {
		return nil, m.ListErr
	}
	out := make([]models.SupplierRequest, len(m.requests[day]))
	copy(out, m.requests[day])
	return out, nil
}

// GetUser returns a stored user or a 404 BackendError
func (m *MockBackend) GetUser(_ context.Context, _ string, id uint) (*models.User, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	u, ok := m.users[id]
	if !ok {
		return nil, notFound(fmt.Sprintf("/user/%d/", id))
	}
	return &u, nil
}

// GetProduct returns a stored product or a 404 BackendError
func (m *MockBackend) GetProduct(_ context.Context, _ string, id uint) (*models.Product, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	p, ok := m.products[id]
	if !ok {
		return nil, notFound(fmt.Sprintf("/product/%d/", id))
	}
	return &p, nil
}

// GetOrder returns a stored order or a 404 BackendError
func (m *MockBackend) GetOrder(_ context.Context, _ string, id uint) (*models.Order, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	o, ok := m.orders[id]
	if !ok {
		return nil, notFound(fmt.Sprintf("/order/%d/", id))
	}
	return &o, nil
}

// ListSuppliers returns every stored supplier
func (m *MockBackend) ListSuppliers(_ context.Context, _ string) ([]models.User, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := make([]models.User, len(m.suppliers))
	copy(out, m.suppliers)
	return out, nil
}

// Execute records cmd and applies its effect
func (m *MockBackend) Execute(_ context.Context, _ string, cmd Command) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.executed = append(m.executed, cmd)

	if m.ExecuteErr != nil {
		return m.ExecuteErr
	}

	for day, reqs := range m.requests {
		for i := range reqs {
			if reqs[i].ID != cmd.RequestID {
				continue
			}
			switch cmd.Kind {
			case models.ActionSuccess:
				reqs[i].Status = models.StatusSuccess
			case models.ActionReject:
				reqs[i].Status = models.StatusRejected
			case models.ActionReassign:
				payload := cmd.Payload.(ReassignPayload)
				newSupplier := payload.NewSupplier
				original := reqs[i].ID
				reqs[i].Status = models.StatusPartial
				reqs[i].NewSupplier = &newSupplier
				reqs[i].AmountReceived = reqs[i].TotalQuantity - payload.Quantity
				m.nextID++
				m.requests[day] = append(reqs, models.SupplierRequest{
					ID:             m.nextID,
					Supplier:       newSupplier,
					Product:        reqs[i].Product,
					Orders:         append([]uint(nil), reqs[i].Orders...),
					TotalQuantity:  payload.Quantity,
					Status:         models.StatusPending,
					ReassignedFrom: &original,
					CreatedAt:      reqs[i].CreatedAt,
				})
			}
			return nil
		}
	}
	return nil
}

// Forward records the relayed request and returns the configured response,
// or an empty JSON object with status 200
func (m *MockBackend) Forward(_ context.Context, _ string, fr ForwardRequest) (*ForwardResponse, error) {
	rec := RecordedForward{
		Method:      fr.Method,
		Path:        fr.Path,
		RawQuery:    fr.RawQuery,
		ContentType: fr.ContentType,
	}
	if fr.Body != nil {
		body, err := io.ReadAll(fr.Body)
		if err != nil {
			return nil, err
		}
		rec.Body = body
	}

	m.mu.Lock()
	defer m.mu.Unlock()
	m.forwarded = append(m.forwarded, rec)

	if m.ForwardErr != nil {
		return nil, m.ForwardErr
	}
	if resp, ok := m.forwards[fr.Method+" "+fr.Path]; ok {
		return resp, nil
	}
	return &ForwardResponse{StatusCode: http.StatusOK, ContentType: "application/json", Body: []byte("{}")}, nil
}

// ExecutedCommands returns a copy of every command received
func (m *MockBackend) ExecutedCommands() []Command {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := make([]Command, len(m.executed))
	copy(out, m.executed)
	return out
}

// ForwardedRequests returns a copy of every relayed request
func (m *MockBackend) ForwardedRequests() []RecordedForward {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := make([]RecordedForward, len(m.forwarded))
	copy(out, m.forwarded)
	return out
}

// ListCalls returns how many times ListSupplierRequests was called
func (m *MockBackend) ListCalls() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.listCalls
}

// Tokens returns the bearer tokens seen by ListSupplierRequests
func (m *MockBackend) Tokens() []string {
	m.mu.Lock()
	defer m.mu.Unlock()
	return append([]string(nil), m.tokens...)
}

func notFound(path string) error {
	return &BackendError{Method: http.MethodGet, Path: path, StatusCode: http.StatusNotFound, Body: `{"detail":"Not found."}`}
}
