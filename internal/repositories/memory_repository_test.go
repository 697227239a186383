package repositories_test

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"ordersvc/internal/models"
	"ordersvc/internal/repositories"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newMemoryProducts(t *testing.T) (*repositories.MockProductRepository, *models.Product) {
	t.Helper()
	repo := repositories.NewMockProductRepository()
	product := &models.Product{Name: "Keyboard", Price: decimal.RequireFromString("9.99"), Quantity: 10}
	require.NoError(t, repo.Create(context.Background(), product))
	return repo, product
}

func TestMockProductRepository_UpdateQuantityAllOrNothing(t *testing.T) {
	repo, keyboard := newMemoryProducts(t)
	mouse := &models.Product{Name: "Mouse", Price: decimal.NewFromInt(25), Quantity: 1}
	require.NoError(t, repo.Create(context.Background(), mouse))
	ctx := context.Background()

	_, err := repo.UpdateQuantity(ctx, []models.QuantityUpdate{
		{ID: keyboard.ID, Quantity: 3},
		{ID: mouse.ID, Quantity: 2},
	})
	assert.ErrorIs(t, err, repositories.ErrStockConflict)

	stored, err := repo.GetByID(ctx, keyboard.ID)
	require.NoError(t, err)
	assert.Equal(t, 10, stored.Quantity)

	updated, err := repo.UpdateQuantity(ctx, []models.QuantityUpdate{
		{ID: keyboard.ID, Quantity: 3},
		{ID: keyboard.ID, Quantity: 4},
	})
	require.NoError(t, err)
	require.Len(t, updated, 1)
	assert.Equal(t, 3, updated[0].Quantity)

	_, err = repo.UpdateQuantity(ctx, []models.QuantityUpdate{{ID: "missing", Quantity: 1}})
	assert.ErrorIs(t, err, repositories.ErrNotFound)
}

func TestMockProductRepository_RejectsDuplicateName(t *testing.T) {
	repo, _ := newMemoryProducts(t)
	err := repo.Create(context.Background(), &models.Product{Name: "Keyboard", Price: decimal.NewFromInt(1), Quantity: 1})
	assert.ErrorIs(t, err, repositories.ErrDuplicate)

	customers := repositories.NewMockCustomerRepository()
	require.NoError(t, customers.Create(context.Background(), &models.Customer{Name: "C1", Email: "c1@example.com"}))
	err = customers.Create(context.Background(), &models.Customer{Name: "C2", Email: "c1@example.com"})
	assert.ErrorIs(t, err, repositories.ErrDuplicate)

	_, err = repo.GetByName(context.Background(), "Monitor")
	assert.ErrorIs(t, err, repositories.ErrNotFound)
}

func TestMockOrderRepository_ReturnsCopies(t *testing.T) {
	repo := repositories.NewMockOrderRepository()
	ctx := context.Background()

	order := &models.Order{
		CustomerID: "c1",
		Items:      []models.OrderItem{{ProductID: "p1", Quantity: 1, Price: decimal.NewFromInt(5)}},
	}
	require.NoError(t, repo.Create(ctx, order))
	require.NotEmpty(t, order.ID)
	assert.Equal(t, order.ID, order.Items[0].OrderID)

	order.Items[0].Quantity = 99

	stored, err := repo.GetByID(ctx, order.ID)
	require.NoError(t, err)
	assert.Equal(t, 1, stored.Items[0].Quantity)

	_, err = repo.GetByID(ctx, "missing")
	assert.ErrorIs(t, err, repositories.ErrNotFound)
}

func TestMockTransactor_RollsBackStockAndOrders(t *testing.T) {
	products, keyboard := newMemoryProducts(t)
	orders := repositories.NewMockOrderRepository()
	tx := repositories.NewMockTransactor(products, orders)
	ctx := context.Background()

	errBoom := errors.New("boom")
	err := tx.WithinTransaction(ctx, func(ctx context.Context) error {
		if _, err := products.UpdateQuantity(ctx, []models.QuantityUpdate{{ID: keyboard.ID, Quantity: 4}}); err != nil {
			return err
		}
		if err := orders.Create(ctx, &models.Order{CustomerID: "c1"}); err != nil {
			return err
		}
		return errBoom
	})
	assert.ErrorIs(t, err, errBoom)

	stored, err := products.GetByID(ctx, keyboard.ID)
	require.NoError(t, err)
	assert.Equal(t, 10, stored.Quantity)
	all, err := orders.GetAll(ctx)
	require.NoError(t, err)
	assert.Empty(t, all)
}

func TestMockTransactor_RollsBackOnPanic(t *testing.T) {
	products, keyboard := newMemoryProducts(t)
	tx := repositories.NewMockTransactor(products, repositories.NewMockOrderRepository())
	ctx := context.Background()

	assert.Panics(t, func() {
		_ = tx.WithinTransaction(ctx, func(ctx context.Context) error {
			_, _ = products.UpdateQuantity(ctx, []models.QuantityUpdate{{ID: keyboard.ID, Quantity: 4}})
			panic("unexpected")
		})
	})

	stored, err := products.GetByID(ctx, keyboard.ID)
	require.NoError(t, err)
	assert.Equal(t, 10, stored.Quantity)
}

func TestMockTransactor_SerializesConcurrentOrders(t *testing.T) {
	products, keyboard := newMemoryProducts(t)
	tx := repositories.NewMockTransactor(products, repositories.NewMockOrderRepository())
	ctx := context.Background()

	// Twenty buyers race for ten units; the check and the decrement run under
	// one transaction, so exactly ten succeed.
	var (
		wg        sync.WaitGroup
		mu        sync.Mutex
		succeeded int
	)
	for i := 0; i < 20; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			err := tx.WithinTransaction(ctx, func(ctx context.Context) error {
				found, err := products.FindAllByID(ctx, []string{keyboard.ID})
				if err != nil {
					return err
				}
				if found[0].Quantity < 1 {
					return repositories.ErrStockConflict
				}
				_, err = products.UpdateQuantity(ctx, []models.QuantityUpdate{{ID: keyboard.ID, Quantity: 1}})
				return err
			})
			if err == nil {
				mu.Lock()
				succeeded++
				mu.Unlock()
			}
		}()
	}
	wg.Wait()

	assert.Equal(t, 10, succeeded)
	stored, err := products.GetByID(ctx, keyboard.ID)
	require.NoError(t, err)
	assert.Equal(t, 0, stored.Quantity)
}

func TestMockTransactor_ReadsWaitForCommit(t *testing.T) {
	products, _ := newMemoryProducts(t)
	orders := repositories.NewMockOrderRepository()
	tx := repositories.NewMockTransactor(products, orders)
	ctx := context.Background()

	created := make(chan struct{})
	release := make(chan struct{})
	done := make(chan error, 1)
	go func() {
		done <- tx.WithinTransaction(ctx, func(ctx context.Context) error {
			if err := orders.Create(ctx, &models.Order{ID: "pending", CustomerID: "c1"}); err != nil {
				return err
			}
			close(created)
			<-release
			return errors.New("payment declined")
		})
	}()
	<-created

	lookup := make(chan error, 1)
	go func() {
		_, err := orders.GetByID(ctx, "pending")
		lookup <- err
	}()

	select {
	case err := <-lookup:
		t.Fatalf("lookup finished while the transaction was open: %v", err)
	case <-time.After(50 * time.Millisecond):
	}

	close(release)
	assert.Error(t, <-done)
	assert.ErrorIs(t, <-lookup, repositories.ErrNotFound)
}
