package impl

import (
	"bytes"
	"context"
	"testing"
	"time"

	"tienda/internal/domain/entity"
	domainerrors "tienda/internal/domain/errors"
	"tienda/internal/domain/repository"
	"tienda/internal/domain/service"
	"tienda/internal/domain/stock"
	"tienda/internal/infra/export"
	"tienda/internal/usecase"

	"github.com/google/uuid"
	"github.com/pkg/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type orderFixtures struct {
	service   usecase.OrderUsecase
	store     *memStore
	publisher *recordingPublisher
	customer  *entity.User
}

func createTestOrderService(t *testing.T) orderFixtures {
	t.Helper()

	store := newMemStore()
	publisher := &recordingPublisher{}
	customer := store.addUser(&entity.User{
		Name:     "Ana",
		Email:    "ana@example.com",
		Role:     entity.RoleCustomer,
		Verified: true,
	})

	srv := NewOrderService(OrderServiceParams{
		TxManager: memTxManager{s: store},
		OrderRepo: memOrderRepo{s: store},
		Numbers:   &seqNumbers{},
		QRCodes:   fakeQRCodes{},
		Exporter:  export.NewReportExporter(time.UTC),
		Publisher: publisher,
		Config:    newTestConfig(),
		Logger:    newDiscardLogger(),
	})

	return orderFixtures{service: srv, store: store, publisher: publisher, customer: customer}
}

func (fx orderFixtures) product(stockQty int, sell, buy string) *entity.Product {
	return fx.store.addProduct(&entity.Product{
		Name:      "Taza",
		SellPrice: dec(sell),
		BuyPrice:  dec(buy),
		Stock:     stockQty,
	})
}

func (fx orderFixtures) checkout(t *testing.T, items ...usecase.CartItem) (*entity.Order, error) {
	t.Helper()

	return fx.service.Checkout(context.Background(), usecase.CheckoutInput{UserID: fx.customer.ID, Items: items})
}

func TestOrderService_Checkout_DecrementsStockAndConfirms(t *testing.T) {
	fx := createTestOrderService(t)
	p := fx.product(10, "12.50", "7.25")

	order, err := fx.checkout(t, usecase.CartItem{ProductID: p.ID, Quantity: 3})

	require.NoError(t, err)
	assert.Equal(t, entity.OrderStatusConfirmed, order.Status)
	assert.True(t, dec("37.50").Equal(order.Total), "total = 3 * sellPrice")
	assert.True(t, dec("15.75").Equal(order.TotalProfit))
	assert.Equal(t, 7, fx.store.stockOf(p.ID))
	assert.Equal(t, "ana@example.com", order.CustomerEmail)
	assert.NotZero(t, order.Number)
	require.Len(t, order.Lines, 1)
	assert.Equal(t, "Taza", order.Lines[0].ProductName)
	assert.Equal(t, []string{service.EventOrderConfirmed}, fx.publisher.types())
}

func TestOrderService_Checkout_InsufficientStockWritesNothing(t *testing.T) {
	fx := createTestOrderService(t)
	p := fx.product(2, "5", "3")

	order, err := fx.checkout(t, usecase.CartItem{ProductID: p.ID, Quantity: 5})

	require.Error(t, err)
	assert.Nil(t, order)
	assert.True(t, errors.Is(err, domainerrors.ErrInsufficientStock))

	var appErr domainerrors.AppError
	require.True(t, errors.As(err, &appErr))
	assert.Equal(t, 400, appErr.HTTPCode())
	assert.Equal(t, 2, appErr.Fields()["disponible"])
	assert.Equal(t, "Taza", appErr.Fields()["producto"])

	assert.Equal(t, 2, fx.store.stockOf(p.ID))
	assert.Zero(t, fx.store.orderCount())
	assert.Empty(t, fx.publisher.types())
}

func TestOrderService_Checkout_ValidatesEveryLineBeforeMutating(t *testing.T) {
	fx := createTestOrderService(t)
	plenty := fx.product(10, "5", "3")
	scarce := fx.product(1, "5", "3")

	_, err := fx.checkout(t,
		usecase.CartItem{ProductID: plenty.ID, Quantity: 4},
		usecase.CartItem{ProductID: scarce.ID, Quantity: 2},
	)

	require.Error(t, err)
	assert.True(t, errors.Is(err, domainerrors.ErrInsufficientStock))
	assert.Equal(t, 10, fx.store.stockOf(plenty.ID))
	assert.Equal(t, 1, fx.store.stockOf(scarce.ID))
}

func TestOrderService_Checkout_UnknownProduct(t *testing.T) {
	fx := createTestOrderService(t)
	p := fx.product(10, "5", "3")

	_, err := fx.checkout(t,
		usecase.CartItem{ProductID: p.ID, Quantity: 1},
		usecase.CartItem{ProductID: uuid.New(), Quantity: 1},
	)

	require.Error(t, err)
	assert.True(t, errors.Is(err, domainerrors.ErrProductNotFound))
	assert.Equal(t, 10, fx.store.stockOf(p.ID))
	assert.Zero(t, fx.store.orderCount())
}

func TestOrderService_Checkout_GuardFailureRollsBackEarlierLines(t *testing.T) {
	fx := createTestOrderService(t)
	first := fx.product(10, "5", "3")
	second := fx.product(10, "5", "3")
	// another checkout takes the stock between validation and decrement
	fx.store.failDecrement[second.ID] = repository.ErrStockGuardFailed

	_, err := fx.checkout(t,
		usecase.CartItem{ProductID: first.ID, Quantity: 2},
		usecase.CartItem{ProductID: second.ID, Quantity: 2},
	)

	require.Error(t, err)
	assert.True(t, errors.Is(err, domainerrors.ErrInsufficientStock))
	assert.Equal(t, 10, fx.store.stockOf(first.ID))
	assert.Zero(t, fx.store.orderCount())
}

func TestOrderService_Checkout_DuplicateLinesCannotOversell(t *testing.T) {
	fx := createTestOrderService(t)
	p := fx.product(5, "5", "3")

	_, err := fx.checkout(t,
		usecase.CartItem{ProductID: p.ID, Quantity: 3},
		usecase.CartItem{ProductID: p.ID, Quantity: 3},
	)

	require.Error(t, err)
	assert.True(t, errors.Is(err, domainerrors.ErrInsufficientStock))
	assert.Equal(t, 5, fx.store.stockOf(p.ID))
}

func TestOrderService_Checkout_RejectsBadCarts(t *testing.T) {
	fx := createTestOrderService(t)
	p := fx.product(5, "5", "3")

	tests := []struct {
		name  string
		items []usecase.CartItem
		want  error
	}{
		{"empty", nil, domainerrors.ErrEmptyCart},
		{"zero quantity", []usecase.CartItem{{ProductID: p.ID, Quantity: 0}}, domainerrors.ErrValidationFailed},
		{"negative quantity", []usecase.CartItem{{ProductID: p.ID, Quantity: -1}}, domainerrors.ErrValidationFailed},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := fx.checkout(t, tt.items...)
			assert.True(t, errors.Is(err, tt.want), "got %v", err)
		})
	}
	assert.Equal(t, 5, fx.store.stockOf(p.ID))
}

func TestOrderService_AdminCancelRestoresStockOnce(t *testing.T) {
	fx := createTestOrderService(t)
	ctx := context.Background()
	p := fx.product(10, "12.50", "7.25")

	order, err := fx.checkout(t, usecase.CartItem{ProductID: p.ID, Quantity: 3})
	require.NoError(t, err)
	require.Equal(t, 7, fx.store.stockOf(p.ID))

	cancelled, err := fx.service.UpdateStatus(ctx, order.ID, entity.OrderStatusCancelled)
	require.NoError(t, err)
	assert.Equal(t, entity.OrderStatusCancelled, cancelled.Status)
	assert.Equal(t, 10, fx.store.stockOf(p.ID))

	_, err = fx.service.UpdateStatus(ctx, order.ID, entity.OrderStatusCancelled)
	assert.True(t, errors.Is(err, domainerrors.ErrInvalidTransition))
	assert.Equal(t, 10, fx.store.stockOf(p.ID))

	assert.Equal(t, []string{service.EventOrderConfirmed, service.EventOrderCancelled}, fx.publisher.types())
}

func TestOrderService_UpdateStatus_Transitions(t *testing.T) {
	tests := []struct {
		name    string
		path    []entity.OrderStatus
		wantErr error
	}{
		{"confirmado to entregado", []entity.OrderStatus{entity.OrderStatusDelivered}, nil},
		{"pickup then shipped then delivered", []entity.OrderStatus{
			entity.OrderStatusReadyForPickup, entity.OrderStatusShipped, entity.OrderStatusDelivered,
		}, nil},
		{"same state", []entity.OrderStatus{entity.OrderStatusConfirmed}, domainerrors.ErrInvalidTransition},
		{"back to pendiente", []entity.OrderStatus{entity.OrderStatusPending}, domainerrors.ErrInvalidTransition},
		{"out of entregado", []entity.OrderStatus{entity.OrderStatusDelivered, entity.OrderStatusShipped}, domainerrors.ErrInvalidTransition},
		{"cancel delivered", []entity.OrderStatus{entity.OrderStatusDelivered, entity.OrderStatusCancelled}, domainerrors.ErrInvalidTransition},
		{"unknown status", []entity.OrderStatus{"perdido"}, domainerrors.ErrValidationFailed},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			fx := createTestOrderService(t)
			p := fx.product(10, "5", "3")
			order, err := fx.checkout(t, usecase.CartItem{ProductID: p.ID, Quantity: 2})
			require.NoError(t, err)

			for i, status := range tt.path {
				_, err = fx.service.UpdateStatus(context.Background(), order.ID, status)
				if i < len(tt.path)-1 {
					require.NoError(t, err)
				}
			}

			if tt.wantErr == nil {
				assert.NoError(t, err)
			} else {
				assert.True(t, errors.Is(err, tt.wantErr), "got %v", err)
			}
			assert.Equal(t, 8, fx.store.stockOf(p.ID), "only cancellation touches stock")
		})
	}
}

func TestOrderService_CancelByCustomer(t *testing.T) {
	t.Run("owner cancels confirmed order", func(t *testing.T) {
		fx := createTestOrderService(t)
		p := fx.product(10, "5", "3")
		order, err := fx.checkout(t, usecase.CartItem{ProductID: p.ID, Quantity: 4})
		require.NoError(t, err)

		cancelled, err := fx.service.CancelByCustomer(context.Background(), fx.customer.ID, order.ID)

		require.NoError(t, err)
		assert.Equal(t, entity.OrderStatusCancelled, cancelled.Status)
		assert.Equal(t, 10, fx.store.stockOf(p.ID))
	})

	t.Run("another user is refused", func(t *testing.T) {
		fx := createTestOrderService(t)
		p := fx.product(10, "5", "3")
		order, err := fx.checkout(t, usecase.CartItem{ProductID: p.ID, Quantity: 4})
		require.NoError(t, err)

		_, err = fx.service.CancelByCustomer(context.Background(), uuid.New(), order.ID)

		assert.True(t, errors.Is(err, domainerrors.ErrOrderNotOwned))
		assert.Equal(t, 6, fx.store.stockOf(p.ID))
	})

	t.Run("delivered order cannot be cancelled", func(t *testing.T) {
		fx := createTestOrderService(t)
		p := fx.product(10, "5", "3")
		order, err := fx.checkout(t, usecase.CartItem{ProductID: p.ID, Quantity: 4})
		require.NoError(t, err)
		_, err = fx.service.UpdateStatus(context.Background(), order.ID, entity.OrderStatusDelivered)
		require.NoError(t, err)

		_, err = fx.service.CancelByCustomer(context.Background(), fx.customer.ID, order.ID)

		assert.True(t, errors.Is(err, domainerrors.ErrInvalidTransition))
		assert.Equal(t, 6, fx.store.stockOf(p.ID))
	})

	t.Run("unknown order", func(t *testing.T) {
		fx := createTestOrderService(t)

		_, err := fx.service.CancelByCustomer(context.Background(), fx.customer.ID, uuid.New())

		assert.True(t, errors.Is(err, domainerrors.ErrOrderNotFound))
	})
}

func TestOrderService_CancelSkipsDeletedProducts(t *testing.T) {
	fx := createTestOrderService(t)
	kept := fx.product(10, "5", "3")
	removed := fx.product(10, "5", "3")

	order, err := fx.checkout(t,
		usecase.CartItem{ProductID: kept.ID, Quantity: 2},
		usecase.CartItem{ProductID: removed.ID, Quantity: 2},
	)
	require.NoError(t, err)
	require.NoError(t, memProductRepo{s: fx.store}.Delete(context.Background(), removed.ID))

	cancelled, err := fx.service.UpdateStatus(context.Background(), order.ID, entity.OrderStatusCancelled)

	require.NoError(t, err)
	assert.Equal(t, entity.OrderStatusCancelled, cancelled.Status)
	assert.Equal(t, 10, fx.store.stockOf(kept.ID))
}

func TestOrderService_SnapshotsSurvivePriceChanges(t *testing.T) {
	fx := createTestOrderService(t)
	p := fx.product(10, "5", "3")

	order, err := fx.checkout(t, usecase.CartItem{ProductID: p.ID, Quantity: 2})
	require.NoError(t, err)

	p.SellPrice = dec("99")
	p.Name = "Taza nueva"
	fx.store.addProduct(p)

	stored, err := fx.service.Get(context.Background(), usecase.Actor{UserID: fx.customer.ID}, order.ID)
	require.NoError(t, err)
	assert.Equal(t, "Taza", stored.Lines[0].ProductName)
	assert.True(t, dec("5").Equal(stored.Lines[0].SellPrice))
	assert.True(t, stock.Reconciles(stored.Total, stored.TotalProfit, stored.Lines))
}

func TestOrderService_SequentialLedger(t *testing.T) {
	fx := createTestOrderService(t)
	ctx := context.Background()
	p := fx.product(50, "4", "1")

	var kept, cancelled int
	for i, qty := range []int{3, 5, 2, 7, 1} {
		order, err := fx.checkout(t, usecase.CartItem{ProductID: p.ID, Quantity: qty})
		require.NoError(t, err)
		require.True(t, stock.Reconciles(order.Total, order.TotalProfit, order.Lines))

		if i%2 == 1 {
			_, err = fx.service.UpdateStatus(ctx, order.ID, entity.OrderStatusCancelled)
			require.NoError(t, err)
			cancelled += qty
		} else {
			kept += qty
		}
	}

	_, err := fx.checkout(t, usecase.CartItem{ProductID: p.ID, Quantity: 100})
	require.Error(t, err)

	assert.Equal(t, 50-kept, fx.store.stockOf(p.ID))
	assert.Equal(t, 12, cancelled)
}

func TestOrderService_GetAndPickupQR(t *testing.T) {
	fx := createTestOrderService(t)
	ctx := context.Background()
	p := fx.product(10, "5", "3")
	order, err := fx.checkout(t, usecase.CartItem{ProductID: p.ID, Quantity: 1})
	require.NoError(t, err)

	owner := usecase.Actor{UserID: fx.customer.ID, Roles: entity.Roles{entity.RoleCustomer}}
	admin := usecase.Actor{UserID: uuid.New(), Roles: entity.Roles{entity.RoleAdmin}}
	stranger := usecase.Actor{UserID: uuid.New(), Roles: entity.Roles{entity.RoleCustomer}}

	_, err = fx.service.Get(ctx, admin, order.ID)
	assert.NoError(t, err)
	_, err = fx.service.Get(ctx, stranger, order.ID)
	assert.True(t, errors.Is(err, domainerrors.ErrForbidden))

	png, err := fx.service.PickupQR(ctx, owner, order.ID)
	require.NoError(t, err)
	assert.Equal(t, "qr:"+order.ID.String(), string(png))

	_, err = fx.service.UpdateStatus(ctx, order.ID, entity.OrderStatusCancelled)
	require.NoError(t, err)
	_, err = fx.service.PickupQR(ctx, owner, order.ID)
	assert.True(t, errors.Is(err, domainerrors.ErrInvalidTransition))
}

func TestOrderService_ListPaginatesAndFilters(t *testing.T) {
	fx := createTestOrderService(t)
	ctx := context.Background()
	p := fx.product(100, "5", "3")

	for range 3 {
		_, err := fx.checkout(t, usecase.CartItem{ProductID: p.ID, Quantity: 1})
		require.NoError(t, err)
	}
	last, err := fx.checkout(t, usecase.CartItem{ProductID: p.ID, Quantity: 1})
	require.NoError(t, err)
	_, err = fx.service.UpdateStatus(ctx, last.ID, entity.OrderStatusShipped)
	require.NoError(t, err)

	page, err := fx.service.List(ctx, usecase.ListOrdersInput{PageRequest: usecase.PageRequest{Page: 2, Limit: 3}})
	require.NoError(t, err)
	assert.Len(t, page.Orders, 1)
	assert.Equal(t, usecase.Pagination{
		CurrentPage: 2, TotalPages: 2, TotalItems: 4, HasNextPage: false, HasPrevPage: true, Limit: 3,
	}, page.Pagination)

	shipped, err := fx.service.List(ctx, usecase.ListOrdersInput{Status: entity.OrderStatusShipped})
	require.NoError(t, err)
	require.Len(t, shipped.Orders, 1)
	assert.Equal(t, last.ID, shipped.Orders[0].ID)

	_, err = fx.service.List(ctx, usecase.ListOrdersInput{Status: "perdido"})
	assert.True(t, errors.Is(err, domainerrors.ErrValidationFailed))

	mine, err := fx.service.ListMine(ctx, fx.customer.ID)
	require.NoError(t, err)
	assert.Len(t, mine, 4)
}

func TestOrderService_ExportCSV(t *testing.T) {
	fx := createTestOrderService(t)
	p := fx.product(10, "5", "3")
	_, err := fx.checkout(t, usecase.CartItem{ProductID: p.ID, Quantity: 2})
	require.NoError(t, err)

	var buf bytes.Buffer
	require.NoError(t, fx.service.ExportCSV(context.Background(), &buf))

	assert.Contains(t, buf.String(), "Taza")
	assert.Contains(t, buf.String(), "ana@example.com")
}

func TestOrderService_PublishFailureDoesNotFailCheckout(t *testing.T) {
	fx := createTestOrderService(t)
	fx.publisher.err = errors.New("broker down")
	p := fx.product(10, "5", "3")

	order, err := fx.checkout(t, usecase.CartItem{ProductID: p.ID, Quantity: 1})

	require.NoError(t, err)
	assert.NotNil(t, order)
	assert.Equal(t, 9, fx.store.stockOf(p.ID))
}
