package impl

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"strings"
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
	"github.com/shopspring/decimal"
	"go.uber.org/fx"
)

// saleService implements the SaleUsecase interface.
type saleService struct {
	txManager   repository.TransactionManager
	productRepo repository.ProductRepository
	saleRepo    repository.SaleRepository
	numbers     service.NumberGenerator
	exporter    service.ReportExporter
	events      eventEmitter
	strict      bool
	now         func() time.Time
	logger      *slog.Logger
}

// SaleServiceParams holds dependencies for SaleService, injected by Fx.
type SaleServiceParams struct {
	fx.In

	TxManager   repository.TransactionManager
	ProductRepo repository.ProductRepository
	SaleRepo    repository.SaleRepository
	Numbers     service.NumberGenerator
	Exporter    service.ReportExporter
	Publisher   service.EventPublisher
	Config      *config.Config
	Logger      *slog.Logger
}

// NewSaleService is the constructor for saleService.
func NewSaleService(params SaleServiceParams) usecase.SaleUsecase {
	return &saleService{
		txManager:   params.TxManager,
		productRepo: params.ProductRepo,
		saleRepo:    params.SaleRepo,
		numbers:     params.Numbers,
		exporter:    params.Exporter,
		events:      eventEmitter{publisher: params.Publisher, now: time.Now},
		strict:      params.Config.POS.Strict,
		now:         time.Now,
		logger:      params.Logger,
	}
}

func (srv *saleService) log(ctx context.Context) *slog.Logger {
	return deliverycontext.GetLoggerOrDefault(ctx, srv.logger)
}

// Record settles a point of sale transaction with the configured strictness.
func (srv *saleService) Record(ctx context.Context, input usecase.RecordSaleInput) (*entity.Sale, error) {
	if len(input.Lines) == 0 {
		return nil, domainerrors.ErrEmptyCart
	}

	var (
		sale *entity.Sale
		err  error
	)
	if srv.strict {
		sale, err = srv.recordStrict(ctx, input)
	} else {
		sale, err = srv.recordTrusted(ctx, input)
	}
	if err != nil {
		return nil, err
	}

	srv.log(ctx).Info("Sale recorded",
		slog.String("sale_id", sale.ID.String()),
		slog.Int64("sale_number", sale.Number),
		slog.String("total", sale.Total.String()),
		slog.Bool("strict", srv.strict),
	)
	srv.events.emit(ctx, srv.log(ctx), saleEvent(sale))

	return sale, nil
}

// recordTrusted stores the sale exactly as the cashier built it. Stock is
// decremented line by line with no sufficiency check and no transaction, so a
// failure on one line leaves earlier decrements applied.
func (srv *saleService) recordTrusted(ctx context.Context, input usecase.RecordSaleInput) (*entity.Sale, error) {
	lines := make([]entity.Line, 0, len(input.Lines))
	for i, in := range input.Lines {
		kind, err := lineKind(i, in)
		if err != nil {
			return nil, err
		}
		if set, ok := kind.(entity.Set); ok && set.UnitsPerSet < 1 {
			if kind, err = srv.catalogSet(ctx, i, in.ProductID, set); err != nil {
				return nil, err
			}
		}
		// Stock moves by the sets sold; a unit count that disagrees is kept only in the log
		if _, ok := kind.(entity.Set); ok && in.Quantity > 0 && in.Quantity != kind.Units() {
			srv.log(ctx).Warn("Sale line units do not match its sets",
				slog.Int("line", i),
				slog.String("product_id", in.ProductID.String()),
				slog.Int("cantidad", in.Quantity),
				slog.Int("units", kind.Units()),
			)
		}
		lines = append(lines, entity.Line{
			ProductID:   in.ProductID,
			ProductName: in.ProductName,
			Kind:        kind,
			SellPrice:   in.SellPrice,
			BuyPrice:    in.BuyPrice,
			Subtotal:    in.Subtotal,
			Profit:      in.Profit,
		})
	}

	for _, line := range lines {
		err := srv.productRepo.AdjustStock(ctx, line.ProductID, stock.LineDelta(line.Kind))
		if errors.Is(err, repository.ErrProductNotFound) {
			return nil, domainerrors.ErrProductNotFound.WithDetails(line.ProductID.String())
		}
		if err != nil {
			return nil, errors.Wrap(err, "failed to decrement stock")
		}
	}

	sale := srv.newSale(input, lines, input.Total, input.TotalProfit)
	if !stock.Reconciles(sale.Total, sale.TotalProfit, sale.Lines) {
		srv.log(ctx).Warn("Sale totals do not match its lines",
			slog.String("total", sale.Total.String()),
			slog.String("total_profit", sale.TotalProfit.String()),
		)
	}

	if err := srv.saleRepo.Create(ctx, sale); err != nil {
		return nil, errors.Wrap(err, "failed to create sale")
	}

	return sale, nil
}

// recordStrict prices every line from the catalog, refuses insufficient
// stock and writes everything in one transaction.
func (srv *saleService) recordStrict(ctx context.Context, input usecase.RecordSaleInput) (*entity.Sale, error) {
	var sale *entity.Sale
	err := srv.txManager.Execute(ctx, func(repoFactory repository.RepositoryFactory) error {
		productRepo := repoFactory.ProductRepo()

		ids := make([]uuid.UUID, 0, len(input.Lines))
		for _, in := range input.Lines {
			ids = append(ids, in.ProductID)
		}
		products, err := productRepo.FindByIDs(ctx, ids)
		if err != nil {
			return errors.Wrap(err, "failed to load sale products")
		}

		lines := make([]entity.Line, 0, len(input.Lines))
		for i, in := range input.Lines {
			product, ok := products[in.ProductID]
			if !ok {
				return domainerrors.ErrProductNotFound.WithDetails(in.ProductID.String())
			}
			line, err := catalogLine(i, in, product)
			if err != nil {
				return err
			}
			lines = append(lines, line)
		}

		for _, line := range lines {
			if err := decrementGuarded(ctx, productRepo, line); err != nil {
				return err
			}
		}

		total, profit := stock.Totals(lines)
		sale = srv.newSale(input, lines, total, profit)

		return errors.Wrap(repoFactory.SaleRepo().Create(ctx, sale), "failed to create sale")
	})
	if err != nil {
		return nil, err
	}

	return sale, nil
}

// catalogSet fills a set line's bundle snapshot from the product when the
// cashier did not send it.
func (srv *saleService) catalogSet(ctx context.Context, i int, productID uuid.UUID, set entity.Set) (entity.LineKind, error) {
	product, err := findProduct(ctx, srv.productRepo, productID)
	if err != nil {
		return nil, err
	}
	if !product.HasSet() {
		return nil, domainerrors.NewValidationError(fmt.Sprintf("lineas[%d]: %s no se vende por conjunto", i, product.Name))
	}

	set.UnitsPerSet = product.Set.UnitsPerSet
	if set.SetName == "" {
		set.SetName = product.Set.Name
	}
	if set.SetPrice.IsZero() {
		set.SetPrice = product.Set.Price
	}

	return set, nil
}

func (srv *saleService) newSale(input usecase.RecordSaleInput, lines []entity.Line, total, profit decimal.Decimal) *entity.Sale {
	channel := input.Channel
	if channel == "" {
		channel = entity.SaleChannelPhysical
	}
	soldAt := input.SoldAt
	if soldAt.IsZero() {
		soldAt = srv.now()
	}

	return &entity.Sale{
		Number:        srv.numbers.Next(),
		CustomerName:  strings.TrimSpace(input.CustomerName),
		CustomerPhone: strings.TrimSpace(input.CustomerPhone),
		Lines:         lines,
		Total:         total,
		TotalProfit:   profit,
		Channel:       channel,
		PaymentMethod: input.PaymentMethod,
		SoldAt:        soldAt.UTC(),
		CashierID:     input.CashierID,
	}
}

// List returns every sale, newest first.
func (srv *saleService) List(ctx context.Context) ([]*entity.Sale, error) {
	sales, err := srv.saleRepo.List(ctx)
	if err != nil {
		return nil, errors.Wrap(err, "failed to list sales")
	}

	return sales, nil
}

// ExportXLSX writes every sale to a workbook.
func (srv *saleService) ExportXLSX(ctx context.Context, w io.Writer) error {
	sales, err := srv.List(ctx)
	if err != nil {
		return err
	}

	return errors.Wrap(srv.exporter.WriteSalesXLSX(w, sales), "failed to write sales workbook")
}

// lineKind reads the kind the cashier sent. A set line missing its bundle
// size falls back to units divided by sets, or to zero when that is unknown too.
func lineKind(i int, in usecase.SaleLineInput) (entity.LineKind, error) {
	switch in.Kind {
	case "", entity.LineKindIndividual:
		if in.Quantity < 1 {
			return nil, domainerrors.NewValidationError(fmt.Sprintf("lineas[%d].cantidad: debe ser al menos 1", i))
		}

		return entity.Individual{Qty: in.Quantity}, nil
	case entity.LineKindSet:
		unitsPerSet := in.UnitsPerSet
		if unitsPerSet < 1 && in.SetQty > 0 && in.Quantity > 0 && in.Quantity%in.SetQty == 0 {
			unitsPerSet = in.Quantity / in.SetQty
		}
		if in.SetQty < 1 {
			return nil, domainerrors.NewValidationError(fmt.Sprintf("lineas[%d].cantidadOriginal: debe ser al menos 1", i))
		}

		return entity.Set{
			SetQty:      in.SetQty,
			UnitsPerSet: unitsPerSet,
			SetName:     in.SetName,
			SetPrice:    in.SetPrice,
		}, nil
	default:
		return nil, domainerrors.NewValidationError(fmt.Sprintf("lineas[%d].tipoVenta: debe ser individual o conjunto", i))
	}
}

// catalogLine builds a priced line from the live product, ignoring the
// prices the cashier sent.
func catalogLine(i int, in usecase.SaleLineInput, product *entity.Product) (entity.Line, error) {
	line := entity.Line{
		ProductID:   product.ID,
		ProductName: product.Name,
		SellPrice:   product.SellPrice,
		BuyPrice:    product.BuyPrice,
	}

	switch in.Kind {
	case "", entity.LineKindIndividual:
		if in.Quantity < 1 {
			return line, domainerrors.NewValidationError(fmt.Sprintf("lineas[%d].cantidad: debe ser al menos 1", i))
		}
		if !product.CanSellUnits(in.Quantity) {
			return line, domainerrors.NewInsufficientStockError(product.Name, product.Stock)
		}
		line.Kind = entity.Individual{Qty: in.Quantity}
	case entity.LineKindSet:
		if !product.HasSet() {
			return line, domainerrors.NewValidationError(fmt.Sprintf("lineas[%d]: %s no se vende por conjunto", i, product.Name))
		}
		if in.SetQty < 1 {
			return line, domainerrors.NewValidationError(fmt.Sprintf("lineas[%d].cantidadOriginal: debe ser al menos 1", i))
		}
		if !product.CanSellSets(in.SetQty) {
			return line, domainerrors.NewInsufficientStockError(product.Set.Name+" de "+product.Name, product.SetsAvailable())
		}
		line.Kind = entity.Set{
			SetQty:      in.SetQty,
			UnitsPerSet: product.Set.UnitsPerSet,
			SetName:     product.Set.Name,
			SetPrice:    product.Set.Price,
		}
	default:
		return line, domainerrors.NewValidationError(fmt.Sprintf("lineas[%d].tipoVenta: debe ser individual o conjunto", i))
	}

	return stock.PriceLine(line), nil
}
