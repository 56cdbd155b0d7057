package testutil

import (
	"time"

	"github.com/jamshid-zayniyev/warehouse-admin/models"
	"github.com/jamshid-zayniyev/warehouse-admin/services"
	"github.com/shopspring/decimal"
)

// Fixture ids shared by the console tests
const (
	SupplierAcme   uint = 3
	SupplierNordic uint = 9
	SupplierBaltic uint = 11
	ProductShoes   uint = 5
	ProductBoots   uint = 6
	OrderFirst     uint = 100
	OrderSecond    uint = 101

	PendingRequestID  uint = 7
	SettledRequestID  uint = 8
	RejectedRequestID uint = 12
)

// FixtureDay is the date the fixture requests were created on
var FixtureDay = models.DayOf(time.Date(2025, time.March, 10, 0, 0, 0, 0, time.UTC))

// SeedConsole fills backend with three suppliers, two products, two orders and
// three requests on FixtureDay: 7 pending, 8 settled, 12 rejected
func SeedConsole(backend *services.MockBackend) {
	backend.AddUser(models.User{ID: SupplierAcme, Role: "supplier", FullName: "Acme Supply", PhoneNumber: "+998901112233", IsActive: true})
	backend.AddUser(models.User{ID: SupplierNordic, Role: "supplier", FullName: "Nordic Goods", PhoneNumber: "+998901112244", IsActive: true})
	backend.AddUser(models.User{ID: SupplierBaltic, Role: "supplier", PhoneNumber: "+998901112255", IsActive: true})

	backend.AddProduct(models.Product{ID: ProductShoes, Title: "Running shoes", BuyPrice: decimal.NewNullDecimal(decimal.NewFromInt(900))})
	backend.AddProduct(models.Product{ID: ProductBoots, Title: "Winter boots"})

	backend.AddOrder(models.Order{ID: OrderFirst, Status: "pending", Name: "Dilnoza", Price: decimal.NewFromInt(120000)})
	backend.AddOrder(models.Order{ID: OrderSecond, Status: "pending", Name: "Rustam", Price: decimal.NewFromInt(80000)})

	created := FixtureDay.String() + "T09:30:00Z"
	backend.AddRequests(FixtureDay,
		models.SupplierRequest{
			ID: PendingRequestID, Supplier: SupplierAcme, Product: ProductShoes,
			Orders: []uint{OrderFirst, OrderSecond}, TotalQuantity: 50,
			Status: models.StatusPending, CreatedAt: created,
		},
		models.SupplierRequest{
			ID: SettledRequestID, Supplier: SupplierNordic, Product: ProductBoots,
			Orders: []uint{OrderFirst}, TotalQuantity: 10, AmountReceived: 10,
			Status: models.StatusSuccess, CreatedAt: created,
		},
		models.SupplierRequest{
			ID: RejectedRequestID, Supplier: SupplierBaltic, Product: ProductBoots,
			Orders: []uint{OrderSecond}, TotalQuantity: 4,
			Status: models.StatusRejected, CreatedAt: created,
		},
	)
}
