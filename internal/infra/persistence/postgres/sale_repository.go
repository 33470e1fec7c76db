package postgres

import (
	"context"

	"tienda/internal/domain/entity"
	domainerrors "tienda/internal/domain/errors"
	"tienda/internal/domain/repository"
	"tienda/internal/infra/persistence/model"

	"github.com/google/uuid"
	"github.com/pkg/errors"
	"gorm.io/gorm"
)

type saleRepository struct {
	db *gorm.DB
}

// NewSaleRepository is the constructor for saleRepository.
func NewSaleRepository(db *gorm.DB) repository.SaleRepository {
	return &saleRepository{db: db}
}

// Create stores the sale exactly as given.
func (repo *saleRepository) Create(ctx context.Context, sale *entity.Sale) error {
	if sale.ID == uuid.Nil {
		sale.ID = uuid.Must(uuid.NewV7())
	}
	saleM := fromSaleDomain(sale)

	if err := repo.db.WithContext(ctx).Create(saleM).Error; err != nil {
		if isUniqueConstraintViolation(err) {
			return domainerrors.ErrConflict.WrapMessage("sale number already used")
		}

		return domainerrors.NewDatabaseExecuteError(err, "failed to create sale")
	}

	sale.CreatedAt = saleM.CreatedAt

	return nil
}

// List returns every sale, newest first.
func (repo *saleRepository) List(ctx context.Context) ([]*entity.Sale, error) {
	var saleMs []model.SaleModel
	if err := repo.db.WithContext(ctx).Order("sold_at DESC").Find(&saleMs).Error; err != nil {
		return nil, errors.Wrap(err, "failed to list sales")
	}

	sales := make([]*entity.Sale, 0, len(saleMs))
	for i := range saleMs {
		sales = append(sales, toSaleDomain(&saleMs[i]))
	}

	return sales, nil
}

// --- Mapper Functions ---

func toSaleDomain(data *model.SaleModel) *entity.Sale {
	if data == nil {
		return nil
	}

	sale := &entity.Sale{
		ID:            data.ID,
		Number:        data.Number,
		CustomerName:  data.CustomerName,
		CustomerPhone: data.CustomerPhone,
		Lines:         toLinesDomain(data.Lines),
		Total:         data.Total,
		TotalProfit:   data.TotalProfit,
		Channel:       entity.SaleChannel(data.Channel),
		PaymentMethod: data.PaymentMethod,
		SoldAt:        data.SoldAt,
		CreatedAt:     data.CreatedAt,
	}
	if data.CashierID != nil {
		sale.CashierID = *data.CashierID
	}

	return sale
}

func fromSaleDomain(data *entity.Sale) *model.SaleModel {
	if data == nil {
		return nil
	}

	saleM := &model.SaleModel{
		ID:            data.ID,
		Number:        data.Number,
		CustomerName:  data.CustomerName,
		CustomerPhone: data.CustomerPhone,
		Lines:         fromLinesDomain(data.Lines),
		Total:         data.Total,
		TotalProfit:   data.TotalProfit,
		Channel:       string(data.Channel),
		PaymentMethod: data.PaymentMethod,
		SoldAt:        data.SoldAt,
		CreatedAt:     data.CreatedAt,
	}
	if data.CashierID != uuid.Nil {
		cashierID := data.CashierID
		saleM.CashierID = &cashierID
	}

	return saleM
}
