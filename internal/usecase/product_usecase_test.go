package usecase

import (
	"context"
	"net/http"
	"testing"

	"marketplace/internal/domain/model"
	repo "marketplace/internal/repository"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
)

func TestListPublicProducts_EffectivePrice(t *testing.T) {
	products := &ProductRepoMock{}
	inventory := &InventoryRepoMock{}
	u := NewProductUsecase(products, inventory)

	products.On("ListPublic", mock.Anything, mock.Anything).Return([]model.Product{
		{ID: 1, Name: "コーヒー豆", Price: 1000, Discount: 200, Stock: 10, IsActive: true},
	}, int64(1), nil)

	out, err := u.ListPublicProducts(context.Background(), ListProductsInput{Page: 1, Limit: 20})

	assert.NoError(t, err)
	assert.Len(t, out.Items, 1)
	assert.Equal(t, int64(800), out.Items[0].EffectivePrice)
	assert.Equal(t, int64(1), out.Total)
}

func TestListPublicProducts_QueryValidation(t *testing.T) {
	products := &ProductRepoMock{}
	inventory := &InventoryRepoMock{}
	u := NewProductUsecase(products, inventory)

	neg := int64(-1)
	lo := int64(500)
	hi := int64(100)

	cases := []struct {
		name string
		in   ListProductsInput
	}{
		{"page zero", ListProductsInput{Page: 0, Limit: 20}},
		{"limit over", ListProductsInput{Page: 1, Limit: 1000}},
		{"negative min", ListProductsInput{Page: 1, Limit: 20, MinPrice: &neg}},
		{"min over max", ListProductsInput{Page: 1, Limit: 20, MinPrice: &lo, MaxPrice: &hi}},
		{"bad sort", ListProductsInput{Page: 1, Limit: 20, Sort: "cheapest"}},
	}

	for _, c := range cases {
		_, err := u.ListPublicProducts(context.Background(), c.in)
		he, ok := AsHTTPError(err)
		assert.True(t, ok, c.name)
		assert.Equal(t, http.StatusBadRequest, he.Status, c.name)
	}
}

func TestGetProductDetail_InactiveHidden(t *testing.T) {
	products := &ProductRepoMock{}
	inventory := &InventoryRepoMock{}
	u := NewProductUsecase(products, inventory)

	products.On("FindByID", mock.Anything, int64(1)).Return(model.Product{
		ID: 1, Name: "非公開", Price: 100, IsActive: false,
	}, nil)

	_, err := u.GetProductDetail(context.Background(), 1)

	he, ok := AsHTTPError(err)
	assert.True(t, ok)
	assert.Equal(t, http.StatusNotFound, he.Status)
}

func TestCreateProduct_CustomerForbidden(t *testing.T) {
	products := &ProductRepoMock{}
	inventory := &InventoryRepoMock{}
	u := NewProductUsecase(products, inventory)

	_, err := u.CreateProduct(context.Background(), 7, model.RoleCustomer, SaveProductInput{
		Name: "新商品", Price: 1000, Stock: 5, IsActive: true,
	})

	he, ok := AsHTTPError(err)
	assert.True(t, ok)
	assert.Equal(t, http.StatusForbidden, he.Status)
}

func TestCreateProduct_DiscountOverPriceRejected(t *testing.T) {
	products := &ProductRepoMock{}
	inventory := &InventoryRepoMock{}
	u := NewProductUsecase(products, inventory)

	_, err := u.CreateProduct(context.Background(), 8, model.RoleSeller, SaveProductInput{
		Name: "新商品", Price: 100, Discount: 150, Stock: 5, IsActive: true,
	})

	he, ok := AsHTTPError(err)
	assert.True(t, ok)
	assert.Equal(t, http.StatusBadRequest, he.Status)
	products.AssertNotCalled(t, "Create", mock.Anything, mock.Anything)
}

func TestCreateProduct_SellerIDTakenFromCaller(t *testing.T) {
	products := &ProductRepoMock{}
	inventory := &InventoryRepoMock{}
	u := NewProductUsecase(products, inventory)

	products.On("Create", mock.Anything, mock.MatchedBy(func(p model.Product) bool {
		return p.SellerID == 8 && p.Name == "新商品"
	})).Return(model.Product{ID: 42, SellerID: 8}, nil)

	id, err := u.CreateProduct(context.Background(), 8, model.RoleSeller, SaveProductInput{
		Name: "新商品", Price: 1000, Stock: 5, IsActive: true,
	})

	assert.NoError(t, err)
	assert.Equal(t, int64(42), id)
	products.AssertExpectations(t)
}

func TestUpdateProduct_ForeignProductMasked(t *testing.T) {
	products := &ProductRepoMock{}
	inventory := &InventoryRepoMock{}
	u := NewProductUsecase(products, inventory)

	products.On("FindByID", mock.Anything, int64(42)).Return(model.Product{
		ID: 42, SellerID: 99,
	}, nil)

	err := u.UpdateProduct(context.Background(), 8, model.RoleSeller, 42, SaveProductInput{
		Name: "改名", Price: 500,
	})

	// 他人の商品は403ではなく404
	he, ok := AsHTTPError(err)
	assert.True(t, ok)
	assert.Equal(t, http.StatusNotFound, he.Status)
	products.AssertNotCalled(t, "Update", mock.Anything, mock.Anything)
}

func TestDeleteProduct_OwnerSoftDeletes(t *testing.T) {
	products := &ProductRepoMock{}
	inventory := &InventoryRepoMock{}
	u := NewProductUsecase(products, inventory)

	products.On("FindByID", mock.Anything, int64(42)).Return(model.Product{
		ID: 42, SellerID: 8,
	}, nil)
	products.On("SoftDelete", mock.Anything, int64(42)).Return(nil)

	err := u.DeleteProduct(context.Background(), 8, model.RoleSeller, 42)

	assert.NoError(t, err)
	products.AssertExpectations(t)
}

func TestDeleteProduct_ForeignProductMasked(t *testing.T) {
	products := &ProductRepoMock{}
	inventory := &InventoryRepoMock{}
	u := NewProductUsecase(products, inventory)

	products.On("FindByID", mock.Anything, int64(42)).Return(model.Product{
		ID: 42, SellerID: 99,
	}, nil)

	err := u.DeleteProduct(context.Background(), 8, model.RoleSeller, 42)

	// 他人の商品は403ではなく404
	he, ok := AsHTTPError(err)
	assert.True(t, ok)
	assert.Equal(t, http.StatusNotFound, he.Status)
	products.AssertNotCalled(t, "SoftDelete", mock.Anything, mock.Anything)
}

func TestUpdateStock_SetsInventory(t *testing.T) {
	products := &ProductRepoMock{}
	inventory := &InventoryRepoMock{}
	u := NewProductUsecase(products, inventory)

	products.On("FindByID", mock.Anything, int64(42)).Return(model.Product{
		ID: 42, SellerID: 8,
	}, nil)
	inventory.On("SetStock", mock.Anything, int64(42), int64(30)).Return(nil)

	err := u.UpdateStock(context.Background(), 8, model.RoleSeller, 42, 30)

	assert.NoError(t, err)
	inventory.AssertExpectations(t)
}

func TestUpdateStock_NegativeRejected(t *testing.T) {
	products := &ProductRepoMock{}
	inventory := &InventoryRepoMock{}
	u := NewProductUsecase(products, inventory)

	err := u.UpdateStock(context.Background(), 8, model.RoleSeller, 42, -1)

	he, ok := AsHTTPError(err)
	assert.True(t, ok)
	assert.Equal(t, http.StatusBadRequest, he.Status)
	inventory.AssertNotCalled(t, "SetStock", mock.Anything, mock.Anything, mock.Anything)
}

func TestGetProductDetail_NotFound(t *testing.T) {
	products := &ProductRepoMock{}
	inventory := &InventoryRepoMock{}
	u := NewProductUsecase(products, inventory)

	products.On("FindByID", mock.Anything, int64(404)).Return(model.Product{}, repo.ErrNotFound)

	_, err := u.GetProductDetail(context.Background(), 404)

	he, ok := AsHTTPError(err)
	assert.True(t, ok)
	assert.Equal(t, http.StatusNotFound, he.Status)
}
