package orders

import (
	"context"
	"errors"
	"testing"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	gormlogger "gorm.io/gorm/logger"

	"github.com/rowncoffee/rown-backend/pkg/db"
	"github.com/rowncoffee/rown-backend/pkg/db/models"
	"github.com/rowncoffee/rown-backend/pkg/enums"
	pkgerrors "github.com/rowncoffee/rown-backend/pkg/errors"
)

func openTestDB(t *testing.T, tables ...any) *gorm.DB {
	t.Helper()

	conn, err := gorm.Open(sqlite.Open("file::memory:"), &gorm.Config{Logger: gormlogger.Default.LogMode(gormlogger.Silent)})
	require.NoError(t, err)
	sqlDB, err := conn.DB()
	require.NoError(t, err)
	sqlDB.SetMaxOpenConns(1)
	t.Cleanup(func() { _ = sqlDB.Close() })

	if len(tables) > 0 {
		require.NoError(t, conn.AutoMigrate(tables...))
	}
	return conn
}

func cashPayload() Payload {
	return Payload{
		CustomerName:    "Rina Wijaya",
		CustomerPhone:   "081234567890",
		CustomerAddress: "Jl. Kemang Raya No. 10, Jakarta",
		PaymentMethod:   enums.PaymentMethodCash,
		TotalAmount:     decimal.NewFromInt(80000),
		Items: []ItemPayload{
			{ProductID: 6, Quantity: 2, PriceAtOrder: decimal.NewFromInt(28000)},
			{ProductID: 2, Quantity: 1, PriceAtOrder: decimal.NewFromInt(24000)},
		},
	}
}

func newTestGateway(t *testing.T, conn *gorm.DB, atomic bool) Gateway {
	t.Helper()
	gw, err := NewGateway(NewRepository(conn), db.FromGorm(conn), atomic)
	require.NoError(t, err)
	return gw
}

func countRows(t *testing.T, conn *gorm.DB, model any) int64 {
	t.Helper()
	var count int64
	require.NoError(t, conn.Model(model).Count(&count).Error)
	return count
}

func TestCreateOrderWritesOrderThenItems(t *testing.T) {
	conn := openTestDB(t, &models.Order{}, &models.OrderItem{})
	gw := newTestGateway(t, conn, false)

	orderID, err := gw.CreateOrder(context.Background(), cashPayload())
	require.NoError(t, err)
	require.NotEqual(t, uuid.Nil, orderID)

	var order models.Order
	require.NoError(t, conn.First(&order, "order_id = ?", orderID).Error)
	assert.Equal(t, "Rina Wijaya", order.CustomerName)
	assert.Equal(t, enums.PaymentMethodCash, order.PaymentMethod)
	assert.Equal(t, enums.PaymentStatusCash, order.PaymentStatus)
	assert.True(t, order.TotalAmount.Equal(decimal.NewFromInt(80000)), "total %s", order.TotalAmount)
	assert.Nil(t, order.PaymentProofURL)

	var items []models.OrderItem
	require.NoError(t, conn.Where("order_id = ?", orderID).Order("product_id DESC").Find(&items).Error)
	require.Len(t, items, 2)
	assert.Equal(t, int64(6), items[0].ProductID)
	assert.Equal(t, 2, items[0].Quantity)
	assert.True(t, items[0].PriceAtOrder.Equal(decimal.NewFromInt(28000)))
}

func TestCreateOrderQRISIsPending(t *testing.T) {
	conn := openTestDB(t, &models.Order{}, &models.OrderItem{})
	gw := newTestGateway(t, conn, false)

	payload := cashPayload()
	payload.PaymentMethod = enums.PaymentMethodQRIS
	proof := "/payment-proof/1717230000123-receipt.png"
	payload.PaymentProofURL = &proof

	orderID, err := gw.CreateOrder(context.Background(), payload)
	require.NoError(t, err)

	var order models.Order
	require.NoError(t, conn.First(&order, "order_id = ?", orderID).Error)
	assert.Equal(t, enums.PaymentStatusPending, order.PaymentStatus)
	require.NotNil(t, order.PaymentProofURL)
	assert.Equal(t, proof, *order.PaymentProofURL)
}

func TestCreateOrderWithoutItemsSkipsItemsInsert(t *testing.T) {
	conn := openTestDB(t, &models.Order{})
	gw := newTestGateway(t, conn, false)

	payload := cashPayload()
	payload.Items = nil
	payload.TotalAmount = decimal.Zero

	orderID, err := gw.CreateOrder(context.Background(), payload)
	require.NoError(t, err)
	assert.NotEqual(t, uuid.Nil, orderID)
}

func TestCreateOrderHeaderFailure(t *testing.T) {
	conn := openTestDB(t)
	gw := newTestGateway(t, conn, false)

	_, err := gw.CreateOrder(context.Background(), cashPayload())
	require.Error(t, err)

	typed := pkgerrors.As(err)
	require.NotNil(t, typed)
	assert.Equal(t, pkgerrors.CodePersistence, typed.Code())
	assert.Contains(t, typed.Message(), "error creating order: ")
	assert.True(t, errors.Is(err, ErrOrderNotSaved))
	assert.Equal(t, stepOrderInsert, typed.Details().(map[string]any)["step"])
}

func TestCreateOrderItemsFailureLeavesOrderRow(t *testing.T) {
	conn := openTestDB(t, &models.Order{})
	gw := newTestGateway(t, conn, false)

	_, err := gw.CreateOrder(context.Background(), cashPayload())
	require.Error(t, err)

	typed := pkgerrors.As(err)
	require.NotNil(t, typed)
	assert.Equal(t, pkgerrors.CodePersistence, typed.Code())
	assert.Contains(t, typed.Message(), "order created but items failed: ")
	assert.True(t, errors.Is(err, ErrItemsNotSaved))

	details := typed.Details().(map[string]any)
	assert.Equal(t, stepItemsInsert, details["step"])
	assert.NotEmpty(t, details["order_id"])
	assert.Equal(t, int64(1), countRows(t, conn, &models.Order{}))
}

func TestCreateOrderAtomicRollsBackOnItemsFailure(t *testing.T) {
	conn := openTestDB(t, &models.Order{})
	gw := newTestGateway(t, conn, true)

	_, err := gw.CreateOrder(context.Background(), cashPayload())
	require.Error(t, err)
	assert.True(t, errors.Is(err, ErrItemsNotSaved))
	assert.True(t, pkgerrors.IsCode(err, pkgerrors.CodePersistence))
	assert.Equal(t, int64(0), countRows(t, conn, &models.Order{}))
}

func TestCreateOrderAtomicCommits(t *testing.T) {
	conn := openTestDB(t, &models.Order{}, &models.OrderItem{})
	gw := newTestGateway(t, conn, true)

	orderID, err := gw.CreateOrder(context.Background(), cashPayload())
	require.NoError(t, err)
	assert.NotEqual(t, uuid.Nil, orderID)
	assert.Equal(t, int64(2), countRows(t, conn, &models.OrderItem{}))
}

func TestCreateOrderWithoutStore(t *testing.T) {
	gw, err := NewGateway(nil, nil, false)
	require.NoError(t, err)

	_, err = gw.CreateOrder(context.Background(), cashPayload())
	require.Error(t, err)
	assert.True(t, pkgerrors.IsCode(err, pkgerrors.CodeDependency))
	assert.Equal(t, "order store not configured", pkgerrors.As(err).Message())
}

func TestNewGatewayAtomicRequiresTx(t *testing.T) {
	conn := openTestDB(t)
	_, err := NewGateway(NewRepository(conn), nil, true)
	assert.Error(t, err)
}
