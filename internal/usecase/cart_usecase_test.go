package usecase

import (
	"context"
	"net/http"
	"testing"

	"marketplace/internal/domain/model"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
)

func newCartUsecaseForTest() (*CartUsecase, *CartRepoMock, *CartItemRepoMock, *ProductRepoMock) {
	carts := &CartRepoMock{}
	items := &CartItemRepoMock{}
	products := &ProductRepoMock{}
	return NewCartUsecase(carts, items, products), carts, items, products
}

func TestAddToCart_SnapshotsEffectivePrice(t *testing.T) {
	u, carts, items, products := newCartUsecaseForTest()

	carts.On("GetOrCreateActiveByUserID", mock.Anything, int64(7)).Return(model.Cart{ID: 3, UserID: 7}, nil)
	products.On("FindByID", mock.Anything, int64(1)).Return(model.Product{
		ID: 1, Name: "コーヒー豆", Price: 1000, Discount: 200, Stock: 10, IsActive: true,
	}, nil)
	items.On("ListByCartID", mock.Anything, int64(3)).Return([]model.CartItem{}, nil).Once()
	// 単価は追加時点の実効価格800
	items.On("UpsertByCartAndProduct", mock.Anything, int64(3), int64(1), int64(2), int64(800)).Return(nil)
	items.On("ListByCartID", mock.Anything, int64(3)).Return([]model.CartItem{
		{ID: 11, CartID: 3, ProductID: 1, Quantity: 2, UnitPriceSnapshot: 800},
	}, nil).Once()

	out, err := u.AddToCart(context.Background(), 7, AddCartInput{ProductID: 1, Quantity: 2})

	assert.NoError(t, err)
	assert.Len(t, out.Items, 1)
	assert.Equal(t, int64(800), out.Items[0].Price)
	assert.Equal(t, int64(1600), out.Total)
	items.AssertExpectations(t)
}

func TestAddToCart_StockExceeded(t *testing.T) {
	u, carts, items, products := newCartUsecaseForTest()

	carts.On("GetOrCreateActiveByUserID", mock.Anything, int64(7)).Return(model.Cart{ID: 3, UserID: 7}, nil)
	products.On("FindByID", mock.Anything, int64(1)).Return(model.Product{
		ID: 1, Price: 1000, Stock: 3, IsActive: true,
	}, nil)
	items.On("ListByCartID", mock.Anything, int64(3)).Return([]model.CartItem{
		{ID: 11, CartID: 3, ProductID: 1, Quantity: 2},
	}, nil)

	_, err := u.AddToCart(context.Background(), 7, AddCartInput{ProductID: 1, Quantity: 2})

	he, ok := AsHTTPError(err)
	assert.True(t, ok)
	assert.Equal(t, http.StatusBadRequest, he.Status)
	assert.Equal(t, "stock exceeded", he.Message)
	items.AssertNotCalled(t, "UpsertByCartAndProduct",
		mock.Anything, mock.Anything, mock.Anything, mock.Anything, mock.Anything)
}

func TestAddToCart_InactiveProductRejected(t *testing.T) {
	u, carts, items, products := newCartUsecaseForTest()

	carts.On("GetOrCreateActiveByUserID", mock.Anything, int64(7)).Return(model.Cart{ID: 3, UserID: 7}, nil)
	products.On("FindByID", mock.Anything, int64(1)).Return(model.Product{
		ID: 1, Price: 1000, Stock: 10, IsActive: false,
	}, nil)

	_, err := u.AddToCart(context.Background(), 7, AddCartInput{ProductID: 1, Quantity: 1})

	he, ok := AsHTTPError(err)
	assert.True(t, ok)
	assert.Equal(t, http.StatusBadRequest, he.Status)
	items.AssertNotCalled(t, "UpsertByCartAndProduct",
		mock.Anything, mock.Anything, mock.Anything, mock.Anything, mock.Anything)
}

func TestUpdateCartItem_ForeignItemMasked(t *testing.T) {
	u, _, items, _ := newCartUsecaseForTest()

	items.On("IsOwnedByUser", mock.Anything, int64(11), int64(7)).Return(false, nil)

	_, err := u.UpdateCartItem(context.Background(), 7, 11, UpdateCartItemInput{Quantity: 2})

	he, ok := AsHTTPError(err)
	assert.True(t, ok)
	assert.Equal(t, http.StatusNotFound, he.Status)
	items.AssertNotCalled(t, "UpdateQuantity", mock.Anything, mock.Anything, mock.Anything)
}

func TestUpdateCartItem_StockCheckedAgainstCurrentProduct(t *testing.T) {
	u, _, items, products := newCartUsecaseForTest()

	items.On("IsOwnedByUser", mock.Anything, int64(11), int64(7)).Return(true, nil)
	items.On("FindByID", mock.Anything, int64(11)).Return(model.CartItem{
		ID: 11, CartID: 3, ProductID: 1, Quantity: 1, UnitPriceSnapshot: 800,
	}, nil)
	products.On("FindByID", mock.Anything, int64(1)).Return(model.Product{
		ID: 1, Price: 1000, Stock: 2, IsActive: true,
	}, nil)

	_, err := u.UpdateCartItem(context.Background(), 7, 11, UpdateCartItemInput{Quantity: 5})

	he, ok := AsHTTPError(err)
	assert.True(t, ok)
	assert.Equal(t, http.StatusBadRequest, he.Status)
	assert.Equal(t, "stock exceeded", he.Message)
}

func TestDeleteCartItem_RemovesAndReturnsCart(t *testing.T) {
	u, _, items, _ := newCartUsecaseForTest()

	items.On("IsOwnedByUser", mock.Anything, int64(11), int64(7)).Return(true, nil)
	items.On("FindByID", mock.Anything, int64(11)).Return(model.CartItem{
		ID: 11, CartID: 3, ProductID: 1, Quantity: 2,
	}, nil)
	items.On("DeleteByID", mock.Anything, int64(11)).Return(nil)
	items.On("ListByCartID", mock.Anything, int64(3)).Return([]model.CartItem{}, nil)

	out, err := u.DeleteCartItem(context.Background(), 7, 11)

	assert.NoError(t, err)
	assert.Empty(t, out.Items)
	assert.Equal(t, int64(0), out.Total)
	items.AssertExpectations(t)
}
