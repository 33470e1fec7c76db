package impl

import (
	"context"
	"io"
	"log/slog"
	"slices"
	"sort"
	"strings"
	"sync"
	"time"

	"tienda/config"
	"tienda/internal/domain/entity"
	"tienda/internal/domain/repository"
	"tienda/internal/domain/service"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/mock"
)

func newDiscardLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func newTestConfig() *config.Config {
	cfg := &config.Config{
		Auth:       &config.AuthConfig{BcryptCost: 4, AccessTokenTTL: time.Hour},
		Pagination: config.PaginationConfig{DefaultLimit: 10, MaxLimit: 100},
		Storage:    config.StorageConfig{MaxBytes: 1 << 20},
	}
	cfg.SecretKey.Access = "test-secret"

	return cfg
}

func dec(s string) decimal.Decimal {
	return decimal.RequireFromString(s)
}

func price(s string) decimal.NullDecimal {
	return decimal.NewNullDecimal(dec(s))
}

// memStore is an in-memory database shared by the repository fakes.
type memStore struct {
	mu       sync.Mutex
	products map[uuid.UUID]entity.Product
	orders   map[uuid.UUID]entity.Order
	sales    []entity.Sale
	users    map[uuid.UUID]entity.User

	// failDecrement makes the next guarded decrement of that product fail with err.
	failDecrement map[uuid.UUID]error
}

func newMemStore() *memStore {
	return &memStore{
		products:      map[uuid.UUID]entity.Product{},
		orders:        map[uuid.UUID]entity.Order{},
		users:         map[uuid.UUID]entity.User{},
		failDecrement: map[uuid.UUID]error{},
	}
}

type memSnapshot struct {
	products map[uuid.UUID]entity.Product
	orders   map[uuid.UUID]entity.Order
	sales    []entity.Sale
	users    map[uuid.UUID]entity.User
}

func (s *memStore) snapshot() memSnapshot {
	s.mu.Lock()
	defer s.mu.Unlock()

	snap := memSnapshot{
		products: make(map[uuid.UUID]entity.Product, len(s.products)),
		orders:   make(map[uuid.UUID]entity.Order, len(s.orders)),
		sales:    slices.Clone(s.sales),
		users:    make(map[uuid.UUID]entity.User, len(s.users)),
	}
	for id, p := range s.products {
		snap.products[id] = copyProduct(p)
	}
	for id, o := range s.orders {
		snap.orders[id] = copyOrder(o)
	}
	for id, u := range s.users {
		snap.users[id] = copyUser(u)
	}

	return snap
}

func (s *memStore) restore(snap memSnapshot) {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.products = snap.products
	s.orders = snap.orders
	s.sales = snap.sales
	s.users = snap.users
}

func (s *memStore) addProduct(p *entity.Product) *entity.Product {
	s.mu.Lock()
	defer s.mu.Unlock()

	if p.ID == uuid.Nil {
		p.ID = uuid.New()
	}
	s.products[p.ID] = copyProduct(*p)

	return p
}

func (s *memStore) addUser(u *entity.User) *entity.User {
	s.mu.Lock()
	defer s.mu.Unlock()

	if u.ID == uuid.Nil {
		u.ID = uuid.New()
	}
	s.users[u.ID] = copyUser(*u)

	return u
}

func (s *memStore) stockOf(id uuid.UUID) int {
	s.mu.Lock()
	defer s.mu.Unlock()

	return s.products[id].Stock
}

func (s *memStore) orderCount() int {
	s.mu.Lock()
	defer s.mu.Unlock()

	return len(s.orders)
}

func (s *memStore) saleCount() int {
	s.mu.Lock()
	defer s.mu.Unlock()

	return len(s.sales)
}

func (s *memStore) user(id uuid.UUID) entity.User {
	s.mu.Lock()
	defer s.mu.Unlock()

	return copyUser(s.users[id])
}

func copyProduct(p entity.Product) entity.Product {
	if p.Set != nil {
		set := *p.Set
		p.Set = &set
	}

	return p
}

func copyOrder(o entity.Order) entity.Order {
	o.Lines = slices.Clone(o.Lines)

	return o
}

func copyUser(u entity.User) entity.User {
	if u.Verification != nil {
		grant := *u.Verification
		u.Verification = &grant
	}
	if u.Reset != nil {
		grant := *u.Reset
		u.Reset = &grant
	}

	return u
}

// --- repositories ---

type memProductRepo struct{ s *memStore }

func (r memProductRepo) FindByID(_ context.Context, id uuid.UUID) (*entity.Product, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()

	p, ok := r.s.products[id]
	if !ok {
		return nil, repository.ErrProductNotFound
	}
	cp := copyProduct(p)

	return &cp, nil
}

func (r memProductRepo) FindByIDs(_ context.Context, ids []uuid.UUID) (map[uuid.UUID]*entity.Product, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()

	found := make(map[uuid.UUID]*entity.Product, len(ids))
	for _, id := range ids {
		if p, ok := r.s.products[id]; ok {
			cp := copyProduct(p)
			found[id] = &cp
		}
	}

	return found, nil
}

func (r memProductRepo) List(_ context.Context, filter repository.ProductFilter) ([]*entity.Product, int64, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()

	var matched []*entity.Product
	for _, p := range r.s.products {
		if filter.Category != "" && p.Category != filter.Category {
			continue
		}
		if filter.Search != "" && !strings.Contains(strings.ToLower(p.Name), strings.ToLower(filter.Search)) {
			continue
		}
		cp := copyProduct(p)
		matched = append(matched, &cp)
	}
	sort.Slice(matched, func(i, j int) bool { return matched[i].Name < matched[j].Name })

	total := int64(len(matched))
	matched = page(matched, filter.Offset, filter.Limit)

	return matched, total, nil
}

func (r memProductRepo) Create(_ context.Context, product *entity.Product) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()

	if product.ID == uuid.Nil {
		product.ID = uuid.New()
	}
	r.s.products[product.ID] = copyProduct(*product)

	return nil
}

func (r memProductRepo) Update(_ context.Context, product *entity.Product, expectedVersion int64) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()

	stored, ok := r.s.products[product.ID]
	if !ok {
		return repository.ErrProductNotFound
	}
	if stored.Version != expectedVersion {
		return repository.ErrVersionConflict
	}
	product.Version = expectedVersion + 1
	r.s.products[product.ID] = copyProduct(*product)

	return nil
}

func (r memProductRepo) Delete(_ context.Context, id uuid.UUID) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()

	if _, ok := r.s.products[id]; !ok {
		return repository.ErrProductNotFound
	}
	delete(r.s.products, id)

	return nil
}

func (r memProductRepo) DecrementStockGuarded(_ context.Context, id uuid.UUID, qty int) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()

	if err, ok := r.s.failDecrement[id]; ok {
		delete(r.s.failDecrement, id)

		return err
	}
	p, ok := r.s.products[id]
	if !ok {
		return repository.ErrProductNotFound
	}
	if p.Stock < qty {
		return repository.ErrStockGuardFailed
	}
	p.Stock -= qty
	p.Version++
	r.s.products[id] = p

	return nil
}

func (r memProductRepo) AdjustStock(_ context.Context, id uuid.UUID, delta int) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()

	p, ok := r.s.products[id]
	if !ok {
		return repository.ErrProductNotFound
	}
	p.Stock += delta
	p.Version++
	r.s.products[id] = p

	return nil
}

type memOrderRepo struct{ s *memStore }

func (r memOrderRepo) Create(_ context.Context, order *entity.Order) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()

	if order.ID == uuid.Nil {
		order.ID = uuid.New()
	}
	r.s.orders[order.ID] = copyOrder(*order)

	return nil
}

func (r memOrderRepo) FindByID(_ context.Context, id uuid.UUID) (*entity.Order, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()

	o, ok := r.s.orders[id]
	if !ok {
		return nil, repository.ErrOrderNotFound
	}
	cp := copyOrder(o)

	return &cp, nil
}

func (r memOrderRepo) ListByUser(ctx context.Context, userID uuid.UUID) ([]*entity.Order, error) {
	all, _, _ := r.List(ctx, repository.OrderFilter{})

	mine := make([]*entity.Order, 0, len(all))
	for _, o := range all {
		if o.UserID == userID {
			mine = append(mine, o)
		}
	}

	return mine, nil
}

func (r memOrderRepo) List(_ context.Context, filter repository.OrderFilter) ([]*entity.Order, int64, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()

	var matched []*entity.Order
	for _, o := range r.s.orders {
		if filter.Status != "" && o.Status != filter.Status {
			continue
		}
		cp := copyOrder(o)
		matched = append(matched, &cp)
	}
	sort.Slice(matched, func(i, j int) bool { return matched[i].OrderedAt.After(matched[j].OrderedAt) })

	total := int64(len(matched))

	return page(matched, filter.Offset, filter.Limit), total, nil
}

func (r memOrderRepo) UpdateStatus(_ context.Context, id uuid.UUID, status entity.OrderStatus, expectedVersion int64) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()

	o, ok := r.s.orders[id]
	if !ok {
		return repository.ErrOrderNotFound
	}
	if o.Version != expectedVersion {
		return repository.ErrVersionConflict
	}
	o.Status = status
	o.Version++
	r.s.orders[id] = o

	return nil
}

type memSaleRepo struct{ s *memStore }

func (r memSaleRepo) Create(_ context.Context, sale *entity.Sale) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()

	if sale.ID == uuid.Nil {
		sale.ID = uuid.New()
	}
	r.s.sales = append(r.s.sales, *sale)

	return nil
}

func (r memSaleRepo) List(_ context.Context) ([]*entity.Sale, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()

	sales := make([]*entity.Sale, 0, len(r.s.sales))
	for i := len(r.s.sales) - 1; i >= 0; i-- {
		sale := r.s.sales[i]
		sales = append(sales, &sale)
	}

	return sales, nil
}

type memUserRepo struct{ s *memStore }

func (r memUserRepo) FindByID(_ context.Context, id uuid.UUID) (*entity.User, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()

	u, ok := r.s.users[id]
	if !ok {
		return nil, repository.ErrUserNotFound
	}
	cp := copyUser(u)

	return &cp, nil
}

func (r memUserRepo) FindByEmail(_ context.Context, email string) (*entity.User, error) {
	return r.find(func(u entity.User) bool { return u.Email == email })
}

func (r memUserRepo) FindByTokenHash(_ context.Context, purpose repository.TokenPurpose, hash string, now time.Time) (*entity.User, error) {
	return r.find(func(u entity.User) bool {
		grant := u.Verification
		if purpose == repository.TokenPurposeReset {
			grant = u.Reset
		}

		return grant != nil && grant.Hash == hash && grant.Usable(now)
	})
}

func (r memUserRepo) find(match func(u entity.User) bool) (*entity.User, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()

	for _, u := range r.s.users {
		if match(u) {
			cp := copyUser(u)

			return &cp, nil
		}
	}

	return nil, repository.ErrUserNotFound
}

func (r memUserRepo) Create(_ context.Context, user *entity.User) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()

	if user.ID == uuid.Nil {
		user.ID = uuid.New()
	}
	r.s.users[user.ID] = copyUser(*user)

	return nil
}

func (r memUserRepo) Update(_ context.Context, user *entity.User) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()

	if _, ok := r.s.users[user.ID]; !ok {
		return repository.ErrUserNotFound
	}
	r.s.users[user.ID] = copyUser(*user)

	return nil
}

func (r memUserRepo) PurgeExpiredTokens(_ context.Context, now time.Time) (int64, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()

	var touched int64
	for id, u := range r.s.users {
		changed := false
		if u.Verification != nil && !u.Verification.Usable(now) {
			u.Verification = nil
			changed = true
		}
		if u.Reset != nil && !u.Reset.Usable(now) {
			u.Reset = nil
			changed = true
		}
		if changed {
			r.s.users[id] = u
			touched++
		}
	}

	return touched, nil
}

func page[T any](items []T, offset, limit int) []T {
	if offset >= len(items) {
		return nil
	}
	items = items[offset:]
	if limit > 0 && limit < len(items) {
		items = items[:limit]
	}

	return items
}

// memTxManager restores the store when the transaction function fails, so
// rollback is observable in tests.
type memTxManager struct{ s *memStore }

func (m memTxManager) Execute(_ context.Context, fn func(repository.RepositoryFactory) error) error {
	snap := m.s.snapshot()
	if err := fn(memFactory(m)); err != nil {
		m.s.restore(snap)

		return err
	}

	return nil
}

type memFactory struct{ s *memStore }

func (f memFactory) ProductRepo() repository.ProductRepository { return memProductRepo(f) }
func (f memFactory) OrderRepo() repository.OrderRepository     { return memOrderRepo(f) }
func (f memFactory) SaleRepo() repository.SaleRepository       { return memSaleRepo(f) }
func (f memFactory) UserRepo() repository.UserRepository       { return memUserRepo(f) }

// --- collaborators ---

type seqNumbers struct {
	mu   sync.Mutex
	next int64
}

func (n *seqNumbers) Next() int64 {
	n.mu.Lock()
	defer n.mu.Unlock()

	n.next++

	return n.next
}

// recordingPublisher keeps every published event.
type recordingPublisher struct {
	mu     sync.Mutex
	events []*service.DomainEvent
	err    error
}

func (p *recordingPublisher) Publish(_ context.Context, event *service.DomainEvent) error {
	p.mu.Lock()
	defer p.mu.Unlock()

	p.events = append(p.events, event)

	return p.err
}

func (p *recordingPublisher) Close() error { return nil }

func (p *recordingPublisher) types() []string {
	p.mu.Lock()
	defer p.mu.Unlock()

	types := make([]string, 0, len(p.events))
	for _, e := range p.events {
		types = append(types, e.Type)
	}

	return types
}

type mockMailer struct {
	mock.Mock
}

func (m *mockMailer) SendVerification(ctx context.Context, to, name, token string) error {
	return m.Called(ctx, to, name, token).Error(0)
}

func (m *mockMailer) SendPasswordReset(ctx context.Context, to, name, token string) error {
	return m.Called(ctx, to, name, token).Error(0)
}

func (m *mockMailer) SendWelcome(ctx context.Context, to, name string) error {
	return m.Called(ctx, to, name).Error(0)
}

func (m *mockMailer) SendOrderStatus(ctx context.Context, to, name string, order service.OrderMail) error {
	return m.Called(ctx, to, name, order).Error(0)
}

type fakeQRCodes struct{}

func (fakeQRCodes) GeneratePickupQR(orderID uuid.UUID, _ int64) ([]byte, error) {
	return []byte("qr:" + orderID.String()), nil
}

func (fakeQRCodes) ParsePickupQR(string) (uuid.UUID, error) {
	return uuid.Nil, nil
}
