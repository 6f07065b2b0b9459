package httpapi

import (
	"context"
	"io"
	"log"
	"net/http"
	"time"

	"github.com/moya-nicolau/ecommerce-api/internal/auth"
	"github.com/moya-nicolau/ecommerce-api/internal/cart"
	"github.com/moya-nicolau/ecommerce-api/internal/product"
	"github.com/moya-nicolau/ecommerce-api/internal/user"
)

const testSecret = "test-secret"

type fakeUsers struct {
	createFunc     func(ctx context.Context, u *user.User) error
	getByIDFunc    func(ctx context.Context, userID string) (*user.User, error)
	getByEmailFunc func(ctx context.Context, email string) (*user.User, error)
	updateFunc     func(ctx context.Context, u *user.User) error
	deleteFunc     func(ctx context.Context, userID string) error
}

func (f *fakeUsers) Create(ctx context.Context, u *user.User) error {
	if f.createFunc != nil {
		return f.createFunc(ctx, u)
	}
	u.ID = "u-1"
	return nil
}

func (f *fakeUsers) GetByID(ctx context.Context, userID string) (*user.User, error) {
	if f.getByIDFunc != nil {
		return f.getByIDFunc(ctx, userID)
	}
	return &user.User{ID: userID, Name: "Alice", Email: "alice@example.com"}, nil
}

func (f *fakeUsers) GetByEmail(ctx context.Context, email string) (*user.User, error) {
	if f.getByEmailFunc != nil {
		return f.getByEmailFunc(ctx, email)
	}
	return nil, user.ErrNotFound
}

func (f *fakeUsers) Update(ctx context.Context, u *user.User) error {
	if f.updateFunc != nil {
		return f.updateFunc(ctx, u)
	}
	return nil
}

func (f *fakeUsers) Delete(ctx context.Context, userID string) error {
	if f.deleteFunc != nil {
		return f.deleteFunc(ctx, userID)
	}
	return nil
}

type fakeCarts struct {
	createForUserFunc func(ctx context.Context, userID string) (*cart.Cart, error)
	getByIDFunc       func(ctx context.Context, cartID int64) (*cart.Cart, error)
}

func (f *fakeCarts) CreateForUser(ctx context.Context, userID string) (*cart.Cart, error) {
	if f.createForUserFunc != nil {
		return f.createForUserFunc(ctx, userID)
	}
	return &cart.Cart{ID: 7, UserID: userID, CreatedAt: time.Now(), UpdatedAt: time.Now()}, nil
}

func (f *fakeCarts) GetByID(ctx context.Context, cartID int64) (*cart.Cart, error) {
	if f.getByIDFunc != nil {
		return f.getByIDFunc(ctx, cartID)
	}
	return &cart.Cart{ID: cartID, UserID: "u-1"}, nil
}

type fakeCartService struct {
	currentFunc func(ctx context.Context, cartID int64) (*cart.Cart, error)
	addFunc     func(ctx context.Context, cartID int64, reqs []cart.LineRequest) (cart.Result, error)
	removeFunc  func(ctx context.Context, cartID int64, reqs []cart.LineRequest) (cart.Result, error)
}

func (f *fakeCartService) Current(ctx context.Context, cartID int64) (*cart.Cart, error) {
	if f.currentFunc != nil {
		return f.currentFunc(ctx, cartID)
	}
	return &cart.Cart{ID: cartID, Products: []cart.Line{}}, nil
}

func (f *fakeCartService) AddItems(ctx context.Context, cartID int64, reqs []cart.LineRequest) (cart.Result, error) {
	if f.addFunc != nil {
		return f.addFunc(ctx, cartID, reqs)
	}
	return cart.Result{Success: true, Record: &cart.Cart{ID: cartID}}, nil
}

func (f *fakeCartService) RemoveItems(ctx context.Context, cartID int64, reqs []cart.LineRequest) (cart.Result, error) {
	if f.removeFunc != nil {
		return f.removeFunc(ctx, cartID, reqs)
	}
	return cart.Result{Success: true, Record: &cart.Cart{ID: cartID}}, nil
}

type fakeProducts struct {
	listFunc    func(ctx context.Context) ([]product.Product, error)
	getByIDFunc func(ctx context.Context, productID int64) (*product.Product, error)
	createFunc  func(ctx context.Context, p *product.Product) error
	updateFunc  func(ctx context.Context, p *product.Product) error
	discardFunc func(ctx context.Context, productID int64) error
}

func (f *fakeProducts) List(ctx context.Context) ([]product.Product, error) {
	if f.listFunc != nil {
		return f.listFunc(ctx)
	}
	return nil, nil
}

func (f *fakeProducts) GetByID(ctx context.Context, productID int64) (*product.Product, error) {
	if f.getByIDFunc != nil {
		return f.getByIDFunc(ctx, productID)
	}
	return nil, product.ErrNotFound
}

func (f *fakeProducts) Create(ctx context.Context, p *product.Product) error {
	if f.createFunc != nil {
		return f.createFunc(ctx, p)
	}
	p.ID = 1
	return nil
}

func (f *fakeProducts) Update(ctx context.Context, p *product.Product) error {
	if f.updateFunc != nil {
		return f.updateFunc(ctx, p)
	}
	return nil
}

func (f *fakeProducts) Discard(ctx context.Context, productID int64) error {
	if f.discardFunc != nil {
		return f.discardFunc(ctx, productID)
	}
	return nil
}

// fixture wires the router with fakes and a real token maker so tests
// exercise the same middleware chain production uses.
type fixture struct {
	users       *fakeUsers
	carts       *fakeCarts
	products    *fakeProducts
	cartService *fakeCartService
	tokens      *auth.TokenMaker
	router      http.Handler
}

func newFixture() *fixture {
	f := &fixture{
		users:       &fakeUsers{},
		carts:       &fakeCarts{},
		products:    &fakeProducts{},
		cartService: &fakeCartService{},
		tokens:      auth.NewTokenMaker(testSecret, 10),
	}

	logger := log.New(io.Discard, "", 0)
	mw := NewAuthMiddleware(f.tokens, f.users, f.carts, logger)
	f.router = NewRouter(
		mw,
		NewUserHandler(f.users, f.carts, f.tokens),
		NewProductHandler(f.products),
		NewCartHandler(f.cartService),
	)
	return f
}

// token mints a valid bearer token for user u-1 bound to cart 7.
func (f *fixture) token() string {
	t, _ := f.tokens.Issue("u-1", 7)
	return t
}
