package handler

import (
	"context"
	"io"

	"tienda/internal/domain/entity"
	"tienda/internal/usecase"

	"github.com/google/uuid"
	"github.com/stretchr/testify/mock"
)

type mockOrderUsecase struct {
	mock.Mock
}

func (m *mockOrderUsecase) Checkout(ctx context.Context, input usecase.CheckoutInput) (*entity.Order, error) {
	args := m.Called(ctx, input)
	order, _ := args.Get(0).(*entity.Order)

	return order, args.Error(1)
}

func (m *mockOrderUsecase) ListMine(ctx context.Context, userID uuid.UUID) ([]*entity.Order, error) {
	args := m.Called(ctx, userID)
	orders, _ := args.Get(0).([]*entity.Order)

	return orders, args.Error(1)
}

func (m *mockOrderUsecase) List(ctx context.Context, input usecase.ListOrdersInput) (*usecase.OrderPage, error) {
	args := m.Called(ctx, input)
	page, _ := args.Get(0).(*usecase.OrderPage)

	return page, args.Error(1)
}

func (m *mockOrderUsecase) Get(ctx context.Context, actor usecase.Actor, id uuid.UUID) (*entity.Order, error) {
	args := m.Called(ctx, actor, id)
	order, _ := args.Get(0).(*entity.Order)

	return order, args.Error(1)
}

func (m *mockOrderUsecase) UpdateStatus(ctx context.Context, id uuid.UUID, status entity.OrderStatus) (*entity.Order, error) {
	args := m.Called(ctx, id, status)
	order, _ := args.Get(0).(*entity.Order)

	return order, args.Error(1)
}

func (m *mockOrderUsecase) CancelByCustomer(ctx context.Context, userID, id uuid.UUID) (*entity.Order, error) {
	args := m.Called(ctx, userID, id)
	order, _ := args.Get(0).(*entity.Order)

	return order, args.Error(1)
}

func (m *mockOrderUsecase) PickupQR(ctx context.Context, actor usecase.Actor, id uuid.UUID) ([]byte, error) {
	args := m.Called(ctx, actor, id)
	png, _ := args.Get(0).([]byte)

	return png, args.Error(1)
}

func (m *mockOrderUsecase) ExportCSV(ctx context.Context, w io.Writer) error {
	args := m.Called(ctx, w)
	if data, ok := args.Get(0).(string); ok {
		_, _ = io.WriteString(w, data)
	}

	return args.Error(1)
}

type mockProductUsecase struct {
	mock.Mock
}

func (m *mockProductUsecase) List(ctx context.Context, input usecase.ListProductsInput) (*usecase.ProductPage, error) {
	args := m.Called(ctx, input)
	page, _ := args.Get(0).(*usecase.ProductPage)

	return page, args.Error(1)
}

func (m *mockProductUsecase) Get(ctx context.Context, id uuid.UUID) (*entity.Product, error) {
	args := m.Called(ctx, id)
	product, _ := args.Get(0).(*entity.Product)

	return product, args.Error(1)
}

func (m *mockProductUsecase) Create(ctx context.Context, input usecase.ProductInput) (*entity.Product, error) {
	args := m.Called(ctx, input)
	product, _ := args.Get(0).(*entity.Product)

	return product, args.Error(1)
}

func (m *mockProductUsecase) Update(ctx context.Context, id uuid.UUID, input usecase.UpdateProductInput) (*entity.Product, error) {
	args := m.Called(ctx, id, input)
	product, _ := args.Get(0).(*entity.Product)

	return product, args.Error(1)
}

func (m *mockProductUsecase) Delete(ctx context.Context, id uuid.UUID) error {
	return m.Called(ctx, id).Error(0)
}

func (m *mockProductUsecase) UploadImage(ctx context.Context, input usecase.UploadImageInput) (*entity.Product, error) {
	args := m.Called(ctx, input)
	product, _ := args.Get(0).(*entity.Product)

	return product, args.Error(1)
}

func (m *mockProductUsecase) OpenImage(ctx context.Context, id uuid.UUID) (*usecase.ProductImage, error) {
	args := m.Called(ctx, id)
	img, _ := args.Get(0).(*usecase.ProductImage)

	return img, args.Error(1)
}

func (m *mockProductUsecase) CheckStock(ctx context.Context, input usecase.StockCheckInput) (*usecase.StockCheckOutput, error) {
	args := m.Called(ctx, input)
	out, _ := args.Get(0).(*usecase.StockCheckOutput)

	return out, args.Error(1)
}

type mockSaleUsecase struct {
	mock.Mock
}

func (m *mockSaleUsecase) Record(ctx context.Context, input usecase.RecordSaleInput) (*entity.Sale, error) {
	args := m.Called(ctx, input)
	sale, _ := args.Get(0).(*entity.Sale)

	return sale, args.Error(1)
}

func (m *mockSaleUsecase) List(ctx context.Context) ([]*entity.Sale, error) {
	args := m.Called(ctx)
	sales, _ := args.Get(0).([]*entity.Sale)

	return sales, args.Error(1)
}

func (m *mockSaleUsecase) ExportXLSX(ctx context.Context, w io.Writer) error {
	return m.Called(ctx, w).Error(0)
}

type mockAuthUsecase struct {
	mock.Mock
}

func (m *mockAuthUsecase) Register(ctx context.Context, input usecase.RegisterInput) (*entity.User, error) {
	args := m.Called(ctx, input)
	user, _ := args.Get(0).(*entity.User)

	return user, args.Error(1)
}

func (m *mockAuthUsecase) VerifyEmail(ctx context.Context, token string) (*entity.User, error) {
	args := m.Called(ctx, token)
	user, _ := args.Get(0).(*entity.User)

	return user, args.Error(1)
}

func (m *mockAuthUsecase) ResendVerification(ctx context.Context, email string) error {
	return m.Called(ctx, email).Error(0)
}

func (m *mockAuthUsecase) Login(ctx context.Context, input usecase.LoginInput) (*usecase.LoginOutput, error) {
	args := m.Called(ctx, input)
	out, _ := args.Get(0).(*usecase.LoginOutput)

	return out, args.Error(1)
}

func (m *mockAuthUsecase) ForgotPassword(ctx context.Context, email string) error {
	return m.Called(ctx, email).Error(0)
}

func (m *mockAuthUsecase) ResetPassword(ctx context.Context, input usecase.ResetPasswordInput) error {
	return m.Called(ctx, input).Error(0)
}

func (m *mockAuthUsecase) Profile(ctx context.Context, userID uuid.UUID) (*entity.User, error) {
	args := m.Called(ctx, userID)
	user, _ := args.Get(0).(*entity.User)

	return user, args.Error(1)
}

func (m *mockAuthUsecase) EnsureAdmin(ctx context.Context) error {
	return m.Called(ctx).Error(0)
}

func (m *mockAuthUsecase) PurgeExpiredTokens(ctx context.Context) (int64, error) {
	args := m.Called(ctx)

	return args.Get(0).(int64), args.Error(1)
}
