package services

import (
	"context"
	"fmt"

	"github.com/jamshid-zayniyev/warehouse-admin/models"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"
	"golang.org/x/sync/semaphore"
)

// Enricher joins supplier requests with their supplier, product and order records.
// A lookup that fails leaves its field empty; it never fails the record.
type Enricher struct {
	backend BackendClient
	cache   DetailCache
	sem     *semaphore.Weighted
	logger  *zap.Logger
}

// NewEnricher creates an enricher that runs at most limit backend lookups at once.
// cache may be nil.
func NewEnricher(backend BackendClient, cache DetailCache, limit int, logger *zap.Logger) *Enricher {
	if limit <= 0 {
		limit = 1
	}
	return &Enricher{
		backend: backend,
		cache:   cache,
		sem:     semaphore.NewWeighted(int64(limit)),
		logger:  logger,
	}
}

// EnrichAll enriches every request concurrently. The result keeps the input order.
func (e *Enricher) EnrichAll(ctx context.Context, token string, reqs []models.SupplierRequest) []models.SupplierRequestWithDetails {
	out := make([]models.SupplierRequestWithDetails, len(reqs))

	var g errgroup.Group
	for i, r := range reqs {
		g.Go(func() error {
			out[i] = e.Enrich(ctx, token, r)
			return nil
		})
	}
	_ = g.Wait()

	return out
}

// Enrich resolves the references of one request with independent concurrent lookups
func (e *Enricher) Enrich(ctx context.Context, token string, r models.SupplierRequest) models.SupplierRequestWithDetails {
	d := models.NewSupplierRequestWithDetails(r)
	orders := make([]*models.Order, len(r.Orders))

	var g errgroup.Group
	g.Go(func() error {
		d.SupplierDetails = e.lookupUser(ctx, token, r.Supplier)
		return nil
	})
	g.Go(func() error {
		d.ProductDetails = e.lookupProduct(ctx, token, r.Product)
		return nil
	})
	for i, id := range r.Orders {
		g.Go(func() error {
			orders[i] = e.lookupOrder(ctx, token, id)
			return nil
		})
	}
	if r.NewSupplier != nil {
		g.Go(func() error {
			d.NewSupplierDetails = e.lookupUser(ctx, token, *r.NewSupplier)
			return nil
		})
	}
	_ = g.Wait()

	for _, o := range orders {
		if o != nil {
			d.OrderDetails = append(d.OrderDetails, *o)
		}
	}
	return d
}

func (e *Enricher) lookupUser(ctx context.Context, token string, id uint) *models.User {
	if id == 0 {
		return nil
	}
	key := fmt.Sprintf("user:%d", id)

	var cached models.User
	if e.cache != nil && e.cache.Get(ctx, key, &cached) {
		return &cached
	}

	var user *models.User
	err := e.withSlot(ctx, func() error {
		var err error
		user, err = e.backend.GetUser(ctx, token, id)
		return err
	})
	if err != nil {
		e.logger.Debug("user lookup failed", zap.Uint("user_id", id), zap.Error(err))
		return nil
	}

	if e.cache != nil && user != nil {
		e.cache.Set(ctx, key, user)
	}
	return user
}

func (e *Enricher) lookupProduct(ctx context.Context, token string, id uint) *models.Product {
	if id == 0 {
		return nil
	}
	key := fmt.Sprintf("product:%d", id)

	var cached models.Product
	if e.cache != nil && e.cache.Get(ctx, key, &cached) {
		return &cached
	}

	var product *models.Product
	err := e.withSlot(ctx, func() error {
		var err error
		product, err = e.backend.GetProduct(ctx, token, id)
		return err
	})
	if err != nil {
		e.logger.Debug("product lookup failed", zap.Uint("product_id", id), zap.Error(err))
		return nil
	}

	if e.cache != nil && product != nil {
		e.cache.Set(ctx, key, product)
	}
	return product
}

// lookupOrder is never cached: adding a product changes the order
func (e *Enricher) lookupOrder(ctx context.Context, token string, id uint) *models.Order {
	var order *models.Order
	err := e.withSlot(ctx, func() error {
		var err error
		order, err = e.backend.GetOrder(ctx, token, id)
		return err
	})
	if err != nil {
		e.logger.Debug("order lookup failed", zap.Uint("order_id", id), zap.Error(err))
		return nil
	}
	return order
}

// withSlot runs fn while holding one of the lookup slots
func (e *Enricher) withSlot(ctx context.Context, fn func() error) error {
	if err := e.sem.Acquire(ctx, 1); err != nil {
		return err
	}
	defer e.sem.Release(1)
	return fn()
}
