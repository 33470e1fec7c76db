package impl

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"time"

	"tienda/config"
	deliverycontext "tienda/internal/delivery/context"
	"tienda/internal/domain/entity"
	domainerrors "tienda/internal/domain/errors"
	"tienda/internal/domain/repository"
	"tienda/internal/domain/service"
	"tienda/internal/domain/stock"
	"tienda/internal/usecase"

	"github.com/google/uuid"
	"github.com/pkg/errors"
	"go.uber.org/fx"
)

// orderService implements the OrderUsecase interface.
type orderService struct {
	txManager repository.TransactionManager
	orderRepo repository.OrderRepository
	numbers   service.NumberGenerator
	qrCodes   service.QRCodeService
	exporter  service.ReportExporter
	events    eventEmitter
	paging    config.PaginationConfig
	now       func() time.Time
	logger    *slog.Logger
}

// OrderServiceParams holds dependencies for OrderService, injected by Fx.
type OrderServiceParams struct {
	fx.In

	TxManager repository.TransactionManager
	OrderRepo repository.OrderRepository
	Numbers   service.NumberGenerator
	QRCodes   service.QRCodeService
	Exporter  service.ReportExporter
	Publisher service.EventPublisher
	Config    *config.Config
	Logger    *slog.Logger
}

// NewOrderService is the constructor for orderService.
func NewOrderService(params OrderServiceParams) usecase.OrderUsecase {
	return &orderService{
		txManager: params.TxManager,
		orderRepo: params.OrderRepo,
		numbers:   params.Numbers,
		qrCodes:   params.QRCodes,
		exporter:  params.Exporter,
		events:    eventEmitter{publisher: params.Publisher, now: time.Now},
		paging:    params.Config.Pagination,
		now:       time.Now,
		logger:    params.Logger,
	}
}

func (srv *orderService) log(ctx context.Context) *slog.Logger {
	return deliverycontext.GetLoggerOrDefault(ctx, srv.logger)
}

// Checkout validates every line before touching stock, then decrements stock
// for every line, then stores the order as confirmado. The three passes share
// one transaction and each decrement is guarded, so a concurrent checkout that
// took the stock in between fails this one instead of overselling.
func (srv *orderService) Checkout(ctx context.Context, input usecase.CheckoutInput) (*entity.Order, error) {
	if len(input.Items) == 0 {
		return nil, domainerrors.ErrEmptyCart
	}
	for i, item := range input.Items {
		if item.Quantity < 1 {
			return nil, domainerrors.NewValidationError(fmt.Sprintf("items[%d].cantidad: debe ser al menos 1", i))
		}
	}

	var order *entity.Order
	err := srv.txManager.Execute(ctx, func(repoFactory repository.RepositoryFactory) error {
		productRepo := repoFactory.ProductRepo()

		customer, err := repoFactory.UserRepo().FindByID(ctx, input.UserID)
		if errors.Is(err, repository.ErrUserNotFound) {
			return domainerrors.ErrUserNotFound
		}
		if err != nil {
			return errors.Wrap(err, "failed to load customer")
		}

		ids := make([]uuid.UUID, 0, len(input.Items))
		for _, item := range input.Items {
			ids = append(ids, item.ProductID)
		}
		products, err := productRepo.FindByIDs(ctx, ids)
		if err != nil {
			return errors.Wrap(err, "failed to load cart products")
		}

		// validation pass
		lines := make([]entity.Line, 0, len(input.Items))
		for _, item := range input.Items {
			product, ok := products[item.ProductID]
			if !ok {
				return domainerrors.ErrProductNotFound.WithDetails(item.ProductID.String())
			}
			if !product.CanSellUnits(item.Quantity) {
				return domainerrors.NewInsufficientStockError(product.Name, product.Stock)
			}

			lines = append(lines, stock.PriceLine(entity.Line{
				ProductID:   product.ID,
				ProductName: product.Name,
				Kind:        entity.Individual{Qty: item.Quantity},
				SellPrice:   product.SellPrice,
				BuyPrice:    product.BuyPrice,
			}))
		}

		// mutation pass
		for _, line := range lines {
			if err := decrementGuarded(ctx, productRepo, line); err != nil {
				return err
			}
		}

		total, profit := stock.Totals(lines)
		order = &entity.Order{
			Number:        srv.numbers.Next(),
			UserID:        customer.ID,
			CustomerName:  customer.Name,
			CustomerEmail: customer.Email,
			OrderedAt:     srv.now().UTC(),
			Status:        entity.OrderStatusConfirmed,
			Lines:         lines,
			Total:         total,
			TotalProfit:   profit,
		}
		if err := repoFactory.OrderRepo().Create(ctx, order); err != nil {
			return errors.Wrap(err, "failed to create order")
		}

		return nil
	})
	if err != nil {
		return nil, err
	}

	srv.log(ctx).Info("Order confirmed",
		slog.String("order_id", order.ID.String()),
		slog.Int64("order_number", order.Number),
		slog.String("user_id", order.UserID.String()),
		slog.String("total", order.Total.String()),
	)
	srv.events.emit(ctx, srv.log(ctx), orderEvent(service.EventOrderConfirmed, order, ""))

	return order, nil
}

// decrementGuarded takes the line's units from stock, failing with
// InsufficientStock and the re-read quantity when the guard rejects the write.
func decrementGuarded(ctx context.Context, productRepo repository.ProductRepository, line entity.Line) error {
	err := productRepo.DecrementStockGuarded(ctx, line.ProductID, line.Units())
	switch {
	case err == nil:
		return nil
	case errors.Is(err, repository.ErrProductNotFound):
		return domainerrors.ErrProductNotFound.WithDetails(line.ProductID.String())
	case errors.Is(err, repository.ErrStockGuardFailed):
		current, findErr := productRepo.FindByID(ctx, line.ProductID)
		if findErr != nil {
			return errors.Wrap(findErr, "failed to re-read product after stock guard")
		}

		return domainerrors.NewInsufficientStockError(current.Name, current.Stock)
	default:
		return errors.Wrap(err, "failed to decrement stock")
	}
}

// ListMine returns the user's orders, newest first.
func (srv *orderService) ListMine(ctx context.Context, userID uuid.UUID) ([]*entity.Order, error) {
	orders, err := srv.orderRepo.ListByUser(ctx, userID)
	if err != nil {
		return nil, errors.Wrap(err, "failed to list user orders")
	}

	return orders, nil
}

// List returns a page of every order, optionally restricted to one status.
func (srv *orderService) List(ctx context.Context, input usecase.ListOrdersInput) (*usecase.OrderPage, error) {
	if input.Status != "" && !input.Status.IsValid() {
		return nil, domainerrors.NewValidationError("estado: valor desconocido " + string(input.Status))
	}

	page := input.PageRequest.Normalize(srv.paging.DefaultLimit, srv.paging.MaxLimit)
	orders, total, err := srv.orderRepo.List(ctx, repository.OrderFilter{
		Status: input.Status,
		Offset: page.Offset(),
		Limit:  page.Limit,
	})
	if err != nil {
		return nil, errors.Wrap(err, "failed to list orders")
	}

	return &usecase.OrderPage{
		Orders:     orders,
		Pagination: usecase.NewPagination(page, total),
	}, nil
}

// Get returns an order its owner or an admin may see.
func (srv *orderService) Get(ctx context.Context, actor usecase.Actor, id uuid.UUID) (*entity.Order, error) {
	order, err := srv.findOrder(ctx, srv.orderRepo, id)
	if err != nil {
		return nil, err
	}
	if !actor.IsAdmin() && !order.IsOwnedBy(actor.UserID) {
		return nil, domainerrors.ErrForbidden
	}

	return order, nil
}

// UpdateStatus applies an admin transition.
func (srv *orderService) UpdateStatus(ctx context.Context, id uuid.UUID, status entity.OrderStatus) (*entity.Order, error) {
	if !status.IsValid() {
		return nil, domainerrors.NewValidationError("estado: valor desconocido " + string(status))
	}

	return srv.transition(ctx, id, status, func(order *entity.Order) error {
		if !order.Status.CanTransitionTo(status) {
			return domainerrors.ErrInvalidTransition.WithDetails(fmt.Sprintf("%s -> %s", order.Status, status))
		}

		return nil
	})
}

// CancelByCustomer cancels an order on behalf of its owner.
func (srv *orderService) CancelByCustomer(ctx context.Context, userID, id uuid.UUID) (*entity.Order, error) {
	return srv.transition(ctx, id, entity.OrderStatusCancelled, func(order *entity.Order) error {
		if !order.IsOwnedBy(userID) {
			return domainerrors.ErrOrderNotOwned
		}
		if order.Status.IsTerminal() {
			return domainerrors.ErrInvalidTransition.WithDetails(fmt.Sprintf("el pedido ya está %s", order.Status))
		}

		return nil
	})
}

// transition moves an order to status after check accepts it. The status write
// is a version compare-and-swap, so of two racing cancellations only one
// reverses stock; the other rolls back with ErrConflict.
func (srv *orderService) transition(
	ctx context.Context,
	id uuid.UUID,
	status entity.OrderStatus,
	check func(order *entity.Order) error,
) (*entity.Order, error) {
	var (
		order      *entity.Order
		prevStatus entity.OrderStatus
	)
	err := srv.txManager.Execute(ctx, func(repoFactory repository.RepositoryFactory) error {
		orderRepo := repoFactory.OrderRepo()

		var err error
		order, err = srv.findOrder(ctx, orderRepo, id)
		if err != nil {
			return err
		}
		if err := check(order); err != nil {
			return err
		}

		err = orderRepo.UpdateStatus(ctx, order.ID, status, order.Version)
		switch {
		case errors.Is(err, repository.ErrVersionConflict):
			return domainerrors.ErrConflict.WithDetails("pedido " + order.ID.String())
		case errors.Is(err, repository.ErrOrderNotFound):
			return domainerrors.ErrOrderNotFound
		case err != nil:
			return errors.Wrap(err, "failed to update order status")
		}

		prevStatus = order.Status
		order.Status = status
		order.Version++

		if status == entity.OrderStatusCancelled {
			return srv.reverseStock(ctx, repoFactory.ProductRepo(), order)
		}

		return nil
	})
	if err != nil {
		return nil, err
	}

	srv.log(ctx).Info("Order status updated",
		slog.String("order_id", order.ID.String()),
		slog.String("from", string(prevStatus)),
		slog.String("to", string(status)),
	)

	eventType := service.EventOrderStatusChanged
	if status == entity.OrderStatusCancelled {
		eventType = service.EventOrderCancelled
	}
	srv.events.emit(ctx, srv.log(ctx), orderEvent(eventType, order, prevStatus))

	return order, nil
}

// reverseStock gives every line's units back. A product deleted since the
// order was placed is skipped so the order stays cancellable.
func (srv *orderService) reverseStock(ctx context.Context, productRepo repository.ProductRepository, order *entity.Order) error {
	for _, line := range order.Lines {
		err := productRepo.AdjustStock(ctx, line.ProductID, stock.ReversalDelta(line.Units()))
		if errors.Is(err, repository.ErrProductNotFound) {
			srv.log(ctx).Warn("Skipping stock reversal for missing product",
				slog.String("order_id", order.ID.String()),
				slog.String("product_id", line.ProductID.String()),
				slog.Int("units", line.Units()),
			)

			continue
		}
		if err != nil {
			return errors.Wrapf(err, "failed to reverse stock for product %s", line.ProductID)
		}
	}

	return nil
}

// PickupQR renders the code a customer shows to collect the order.
func (srv *orderService) PickupQR(ctx context.Context, actor usecase.Actor, id uuid.UUID) ([]byte, error) {
	order, err := srv.Get(ctx, actor, id)
	if err != nil {
		return nil, err
	}
	if order.Status == entity.OrderStatusCancelled {
		return nil, domainerrors.ErrInvalidTransition.WithDetails("el pedido está cancelado")
	}

	png, err := srv.qrCodes.GeneratePickupQR(order.ID, order.Number)
	if err != nil {
		return nil, errors.Wrap(err, "failed to generate pickup code")
	}

	return png, nil
}

// ExportCSV writes every order, one row per line.
func (srv *orderService) ExportCSV(ctx context.Context, w io.Writer) error {
	orders, _, err := srv.orderRepo.List(ctx, repository.OrderFilter{})
	if err != nil {
		return errors.Wrap(err, "failed to load orders for export")
	}

	return errors.Wrap(srv.exporter.WriteOrdersCSV(w, orders), "failed to write orders csv")
}

func (srv *orderService) findOrder(ctx context.Context, orderRepo repository.OrderRepository, id uuid.UUID) (*entity.Order, error) {
	order, err := orderRepo.FindByID(ctx, id)
	if errors.Is(err, repository.ErrOrderNotFound) {
		return nil, domainerrors.ErrOrderNotFound
	}
	if err != nil {
		return nil, errors.Wrap(err, "failed to find order")
	}

	return order, nil
}
