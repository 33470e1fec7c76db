package impl

import (
	"bufio"
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"strings"

	"tienda/config"
	deliverycontext "tienda/internal/delivery/context"
	"tienda/internal/domain/entity"
	domainerrors "tienda/internal/domain/errors"
	"tienda/internal/domain/repository"
	"tienda/internal/domain/service"
	"tienda/internal/usecase"
	"tienda/internal/util"

	"github.com/google/uuid"
	"github.com/pkg/errors"
	"go.uber.org/fx"
)

const sniffLen = 512

// imageExtensions lists the accepted image types and the extension they are stored with.
var imageExtensions = map[string]string{
	"image/jpeg": ".jpg",
	"image/png":  ".png",
	"image/webp": ".webp",
}

// productService implements the ProductUsecase interface.
type productService struct {
	txManager     repository.TransactionManager
	productRepo   repository.ProductRepository
	images        service.ImageStore
	paging        config.PaginationConfig
	maxImageBytes int64
	logger        *slog.Logger
}

// ProductServiceParams holds dependencies for ProductService, injected by Fx.
type ProductServiceParams struct {
	fx.In

	TxManager   repository.TransactionManager
	ProductRepo repository.ProductRepository
	Images      service.ImageStore
	Config      *config.Config
	Logger      *slog.Logger
}

// NewProductService is the constructor for productService.
func NewProductService(params ProductServiceParams) usecase.ProductUsecase {
	return &productService{
		txManager:     params.TxManager,
		productRepo:   params.ProductRepo,
		images:        params.Images,
		paging:        params.Config.Pagination,
		maxImageBytes: params.Config.Storage.MaxBytes,
		logger:        params.Logger,
	}
}

func (srv *productService) log(ctx context.Context) *slog.Logger {
	return deliverycontext.GetLoggerOrDefault(ctx, srv.logger)
}

// List returns one page of the catalog.
func (srv *productService) List(ctx context.Context, input usecase.ListProductsInput) (*usecase.ProductPage, error) {
	page := input.PageRequest.Normalize(srv.paging.DefaultLimit, srv.paging.MaxLimit)

	products, total, err := srv.productRepo.List(ctx, repository.ProductFilter{
		Category: strings.TrimSpace(input.Category),
		Search:   input.Search,
		Offset:   page.Offset(),
		Limit:    page.Limit,
	})
	if err != nil {
		return nil, errors.Wrap(err, "failed to list products")
	}

	return &usecase.ProductPage{
		Products:   products,
		Pagination: usecase.NewPagination(page, total),
	}, nil
}

// Get returns a single product.
func (srv *productService) Get(ctx context.Context, id uuid.UUID) (*entity.Product, error) {
	return findProduct(ctx, srv.productRepo, id)
}

// Create validates and stores a new product.
func (srv *productService) Create(ctx context.Context, input usecase.ProductInput) (*entity.Product, error) {
	product := &entity.Product{}
	applyProductInput(product, input)

	if fieldErrs := productFieldErrors(product, input); fieldErrs != nil {
		return nil, domainerrors.NewValidationError(fieldErrs.Error())
	}

	if err := srv.productRepo.Create(ctx, product); err != nil {
		return nil, errors.Wrap(err, "failed to create product")
	}

	srv.log(ctx).Info("Product created",
		slog.String("product_id", product.ID.String()),
		slog.String("name", product.Name),
		slog.Int("stock", product.Stock),
	)

	return product, nil
}

// Update replaces every editable field. Turning sets off clears the set fields.
func (srv *productService) Update(ctx context.Context, id uuid.UUID, input usecase.UpdateProductInput) (*entity.Product, error) {
	var product *entity.Product
	err := srv.txManager.Execute(ctx, func(repoFactory repository.RepositoryFactory) error {
		productRepo := repoFactory.ProductRepo()

		var err error
		product, err = findProduct(ctx, productRepo, id)
		if err != nil {
			return err
		}

		expectedVersion := product.Version
		if input.Version > 0 {
			if input.Version != product.Version {
				return domainerrors.ErrConflict.WithDetails(fmt.Sprintf("versión %d, actual %d", input.Version, product.Version))
			}
			expectedVersion = input.Version
		}

		applyProductInput(product, input.ProductInput)
		if fieldErrs := productFieldErrors(product, input.ProductInput); fieldErrs != nil {
			return domainerrors.NewValidationError(fieldErrs.Error())
		}

		return srv.saveProduct(ctx, productRepo, product, expectedVersion)
	})
	if err != nil {
		return nil, err
	}

	srv.log(ctx).Info("Product updated",
		slog.String("product_id", product.ID.String()),
		slog.Int64("version", product.Version),
	)

	return product, nil
}

// Delete removes the product and its image. Orders and sales keep their snapshots.
func (srv *productService) Delete(ctx context.Context, id uuid.UUID) error {
	product, err := findProduct(ctx, srv.productRepo, id)
	if err != nil {
		return err
	}

	err = srv.productRepo.Delete(ctx, id)
	if errors.Is(err, repository.ErrProductNotFound) {
		return domainerrors.ErrProductNotFound
	}
	if err != nil {
		return errors.Wrap(err, "failed to delete product")
	}

	srv.deleteImage(ctx, product.ImageKey)
	srv.log(ctx).Info("Product deleted", slog.String("product_id", id.String()))

	return nil
}

// UploadImage stores a new image and replaces the previous one.
func (srv *productService) UploadImage(ctx context.Context, input usecase.UploadImageInput) (*entity.Product, error) {
	if srv.maxImageBytes > 0 && input.Size > srv.maxImageBytes {
		return nil, domainerrors.ErrImageInvalid.WithDetails("el tamaño máximo es " + util.FormatBytes(srv.maxImageBytes))
	}

	body := bufio.NewReaderSize(input.Body, sniffLen)
	head, err := body.Peek(sniffLen)
	if err != nil && len(head) == 0 {
		return nil, domainerrors.ErrImageInvalid.WithDetails("archivo vacío")
	}
	contentType := http.DetectContentType(head)
	ext, ok := imageExtensions[contentType]
	if !ok {
		return nil, domainerrors.ErrImageInvalid.WithDetails("formatos permitidos: jpeg, png, webp")
	}

	product, err := findProduct(ctx, srv.productRepo, input.ProductID)
	if err != nil {
		return nil, err
	}

	key := fmt.Sprintf("productos/%s/%s%s", product.ID, uuid.NewString(), ext)
	if err := srv.images.Put(ctx, key, contentType, body); err != nil {
		return nil, errors.Wrap(err, "failed to store product image")
	}

	previousKey := product.ImageKey
	product.ImageKey = key
	if err := srv.saveProduct(ctx, srv.productRepo, product, product.Version); err != nil {
		srv.deleteImage(ctx, key)

		return nil, err
	}
	srv.deleteImage(ctx, previousKey)

	srv.log(ctx).Info("Product image replaced",
		slog.String("product_id", product.ID.String()),
		slog.String("key", key),
	)

	return product, nil
}

// OpenImage streams the product image.
func (srv *productService) OpenImage(ctx context.Context, id uuid.UUID) (*usecase.ProductImage, error) {
	product, err := findProduct(ctx, srv.productRepo, id)
	if err != nil {
		return nil, err
	}
	if product.ImageKey == "" {
		return nil, domainerrors.ErrImageNotFound
	}

	body, contentType, err := srv.images.Open(ctx, product.ImageKey)
	if errors.Is(err, service.ErrImageNotFound) {
		return nil, domainerrors.ErrImageNotFound
	}
	if err != nil {
		return nil, errors.Wrap(err, "failed to open product image")
	}

	return &usecase.ProductImage{Body: body, ContentType: contentType}, nil
}

// CheckStock answers whether a quantity of units or sets can be sold right now.
func (srv *productService) CheckStock(ctx context.Context, input usecase.StockCheckInput) (*usecase.StockCheckOutput, error) {
	if input.Quantity < 1 {
		return nil, domainerrors.NewValidationError("cantidad: debe ser al menos 1")
	}

	product, err := findProduct(ctx, srv.productRepo, input.ProductID)
	if err != nil {
		return nil, err
	}

	output := &usecase.StockCheckOutput{
		UnitStock:     product.Stock,
		SetsAvailable: product.SetsAvailable(),
	}

	switch input.Kind {
	case "", entity.LineKindIndividual:
		output.Available = product.CanSellUnits(input.Quantity)
		if output.Available {
			output.Message = "Stock disponible"
		} else {
			output.Message = fmt.Sprintf("Stock insuficiente. Disponible: %d unidades", product.Stock)
		}
	case entity.LineKindSet:
		switch {
		case !product.HasSet():
			output.Message = "Este producto no se vende por conjunto"
		case product.CanSellSets(input.Quantity):
			output.Available = true
			output.Message = "Stock disponible"
		default:
			output.Message = fmt.Sprintf("Stock insuficiente. Disponible: %d %s", output.SetsAvailable, product.Set.Name)
		}
	default:
		return nil, domainerrors.NewValidationError("tipo: debe ser individual o conjunto")
	}

	return output, nil
}

func (srv *productService) saveProduct(ctx context.Context, productRepo repository.ProductRepository, product *entity.Product, expectedVersion int64) error {
	err := productRepo.Update(ctx, product, expectedVersion)
	switch {
	case err == nil:
		return nil
	case errors.Is(err, repository.ErrProductNotFound):
		return domainerrors.ErrProductNotFound
	case errors.Is(err, repository.ErrVersionConflict):
		return domainerrors.ErrConflict.WithDetails("producto " + product.ID.String())
	default:
		return errors.Wrap(err, "failed to update product")
	}
}

func (srv *productService) deleteImage(ctx context.Context, key string) {
	if key == "" {
		return
	}
	if err := srv.images.Delete(ctx, key); err != nil && !errors.Is(err, service.ErrImageNotFound) {
		srv.log(ctx).Warn("Failed to delete product image", slog.String("key", key), slog.Any("error", err))
	}
}

func applyProductInput(product *entity.Product, input usecase.ProductInput) {
	product.Name = strings.TrimSpace(input.Name)
	product.Description = strings.TrimSpace(input.Description)
	product.Category = strings.TrimSpace(input.Category)
	product.BuyPrice = input.BuyPrice.Decimal
	product.SellPrice = input.SellPrice.Decimal
	product.Stock = input.Stock

	if !input.HasSet {
		product.Set = nil

		return
	}
	product.Set = &entity.SetConfig{
		Name:        strings.TrimSpace(input.SetName),
		UnitsPerSet: input.UnitsPerSet,
		Price:       input.SetPrice.Decimal,
	}
}

// productFieldErrors runs the entity checks and adds the prices the client
// left out, which the entity alone cannot tell apart from zero.
func productFieldErrors(product *entity.Product, input usecase.ProductInput) entity.FieldErrors {
	errs := product.Validate()
	if errs == nil {
		errs = entity.FieldErrors{}
	}

	if !input.BuyPrice.Valid {
		errs.Add("precioCompra", "es obligatorio")
	}
	if !input.SellPrice.Valid {
		errs.Add("precioVenta", "es obligatorio")
	}
	if input.HasSet && !input.SetPrice.Valid {
		errs.Add("precioConjunto", "es obligatorio cuando se vende por conjunto")
	}

	if len(errs) == 0 {
		return nil
	}

	return errs
}

func findProduct(ctx context.Context, productRepo repository.ProductRepository, id uuid.UUID) (*entity.Product, error) {
	product, err := productRepo.FindByID(ctx, id)
	if errors.Is(err, repository.ErrProductNotFound) {
		return nil, domainerrors.ErrProductNotFound
	}
	if err != nil {
		return nil, errors.Wrap(err, "failed to find product")
	}

	return product, nil
}
