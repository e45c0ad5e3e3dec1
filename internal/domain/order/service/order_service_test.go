package service

import (
	"os"
	"testing"
	"time"

	"cakery_api/internal/domain/order/model"
	userModel "cakery_api/internal/domain/user/model"
	"cakery_api/pkg/apperr"
	"cakery_api/pkg/logger"
	"cakery_api/pkg/utils"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"go.uber.org/zap"
)

func TestMain(m *testing.M) {
	logger.Log = zap.NewNop()
	os.Exit(m.Run())
}

// MockOrderRepository is a mock of OrderRepository
type MockOrderRepository struct {
	mock.Mock
}

func (m *MockOrderRepository) CreateWithItems(order *model.Order, items []model.OrderItem) error {
	args := m.Called(order, items)
	if args.Error(0) == nil {
		order.ID = 1
		order.Items = items
		total := decimal.Zero
		for _, it := range items {
			total = total.Add(it.ItemTotal())
		}
		order.TotalPrice = total
	}
	return args.Error(0)
}

func (m *MockOrderRepository) GetByID(id uint) (*model.Order, error) {
	args := m.Called(id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*model.Order), args.Error(1)
}

func (m *MockOrderRepository) GetOwned(id, userID uint) (*model.Order, error) {
	args := m.Called(id, userID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*model.Order), args.Error(1)
}

func (m *MockOrderRepository) List(userID uint, all bool, offset, limit int) ([]model.Order, int64, error) {
	args := m.Called(userID, all, offset, limit)
	return args.Get(0).([]model.Order), args.Get(1).(int64), args.Error(2)
}

// UpdateLocked runs the apply closure against the stubbed order, mirroring
// the locked read-modify-write of the real repository.
func (m *MockOrderRepository) UpdateLocked(id uint, apply func(o *model.Order) error) (*model.Order, error) {
	args := m.Called(id, apply)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	order := args.Get(0).(*model.Order)
	if err := apply(order); err != nil {
		return nil, err
	}
	return order, args.Error(1)
}

func (m *MockOrderRepository) RecomputeTotal(orderID uint) (decimal.Decimal, error) {
	args := m.Called(orderID)
	return args.Get(0).(decimal.Decimal), args.Error(1)
}

// MockVariantRepository is a mock of VariantRepository
type MockVariantRepository struct {
	mock.Mock
}

func (m *MockVariantRepository) PriceFor(productID uint, kg decimal.Decimal) (decimal.Decimal, error) {
	args := m.Called(productID, kg)
	return args.Get(0).(decimal.Decimal), args.Error(1)
}

func (m *MockVariantRepository) ProductName(productID uint) (string, error) {
	args := m.Called(productID)
	return args.String(0), args.Error(1)
}

// MockUserRepository is a mock of UserRepository
type MockUserRepository struct {
	mock.Mock
}

func (m *MockUserRepository) GetByID(id uint) (*userModel.User, error) {
	args := m.Called(id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*userModel.User), args.Error(1)
}

// MockNotificationService is a mock of NotificationService
type MockNotificationService struct {
	mock.Mock
}

func (m *MockNotificationService) NotifyOrder(userID uint, email, title, emailSubject, message string) {
	m.Called(userID, email, title, emailSubject, message)
}

func (m *MockNotificationService) NotifyOrderBatch(userID uint, email, title, emailSubject string, messages []string) {
	m.Called(userID, email, title, emailSubject, messages)
}

func (m *MockNotificationService) SendEmail(to, subject, body string) {
	m.Called(to, subject, body)
}

func (m *MockNotificationService) AdminEmail() string {
	args := m.Called()
	return args.String(0)
}

func (m *MockNotificationService) List(userID uint, p *utils.Pagination) (*utils.PageResult, error) {
	args := m.Called(userID, p)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*utils.PageResult), args.Error(1)
}

func (m *MockNotificationService) MarkRead(id, userID uint) error {
	args := m.Called(id, userID)
	return args.Error(0)
}

func newTestService() (*MockOrderRepository, *MockVariantRepository, *MockUserRepository, *MockNotificationService, OrderService) {
	repo := new(MockOrderRepository)
	variants := new(MockVariantRepository)
	users := new(MockUserRepository)
	notifier := new(MockNotificationService)
	return repo, variants, users, notifier, NewOrderService(repo, variants, users, notifier)
}

func testUser(id uint) *userModel.User {
	return &userModel.User{
		FullName: "Wanjiku Kamau",
		Email:    "wanjiku@example.com",
		Phone:    "0712345678",
		Role:     userModel.RoleUser,
	}
}

func dec(s string) decimal.Decimal {
	d, _ := decimal.NewFromString(s)
	return d
}

func TestCreateOrder(t *testing.T) {
	t.Run("Success with price snapshot", func(t *testing.T) {
		repo, variants, users, notifier, svc := newTestService()

		variants.On("PriceFor", uint(7), dec("1.5")).Return(dec("2500.00"), nil)
		variants.On("ProductName", uint(7)).Return("Red Velvet", nil)
		repo.On("CreateWithItems", mock.AnythingOfType("*model.Order"), mock.Anything).Return(nil)
		users.On("GetByID", uint(5)).Return(testUser(5), nil)
		notifier.On("SendEmail", "wanjiku@example.com", mock.Anything, mock.Anything).Return()
		notifier.On("AdminEmail").Return("admin@example.com")
		notifier.On("SendEmail", "admin@example.com", mock.Anything, mock.Anything).Return()

		order, err := svc.Create(5, CreateOrderInput{
			Items:          []OrderItemInput{{ProductID: 7, Kg: dec("1.5"), Quantity: 2}},
			PaymentMethod:  model.MethodMpesa,
			DeliveryMethod: model.DeliveryUber,
			Address:        "Westlands, Nairobi",
		})

		assert.NoError(t, err)
		assert.Equal(t, model.StatusPending, order.Status)
		assert.Equal(t, model.PaymentPending, order.PaymentStatus)
		assert.Equal(t, "5000.00", order.TotalPrice.StringFixed(2))
		assert.Equal(t, "Red Velvet", order.Items[0].ProductName)
		assert.Equal(t, "2500.00", order.Items[0].PriceAtPurchase.StringFixed(2))
		repo.AssertExpectations(t)
		notifier.AssertExpectations(t)
	})

	t.Run("Pickup discards submitted address", func(t *testing.T) {
		repo, variants, users, notifier, svc := newTestService()

		variants.On("PriceFor", uint(7), dec("1")).Return(dec("1800"), nil)
		variants.On("ProductName", uint(7)).Return("Black Forest", nil)
		repo.On("CreateWithItems", mock.AnythingOfType("*model.Order"), mock.Anything).Return(nil)
		users.On("GetByID", uint(5)).Return(testUser(5), nil)
		notifier.On("SendEmail", mock.Anything, mock.Anything, mock.Anything).Return()
		notifier.On("AdminEmail").Return("")

		order, err := svc.Create(5, CreateOrderInput{
			Items:          []OrderItemInput{{ProductID: 7, Kg: dec("1"), Quantity: 1}},
			PaymentMethod:  model.MethodCOD,
			DeliveryMethod: model.DeliveryPickup,
			Address:        "should be ignored",
		})

		assert.NoError(t, err)
		assert.Equal(t, "", order.Address)
	})

	t.Run("Uber delivery requires address", func(t *testing.T) {
		repo, _, _, _, svc := newTestService()

		_, err := svc.Create(5, CreateOrderInput{
			Items:          []OrderItemInput{{ProductID: 7, Kg: dec("1"), Quantity: 1}},
			PaymentMethod:  model.MethodMpesa,
			DeliveryMethod: model.DeliveryUber,
			Address:        "   ",
		})

		var validation *apperr.ValidationError
		assert.ErrorAs(t, err, &validation)
		repo.AssertNotCalled(t, "CreateWithItems", mock.Anything, mock.Anything)
	})

	t.Run("Empty item list rejected", func(t *testing.T) {
		_, _, _, _, svc := newTestService()

		_, err := svc.Create(5, CreateOrderInput{
			PaymentMethod:  model.MethodMpesa,
			DeliveryMethod: model.DeliveryUber,
			Address:        "Westlands",
		})

		var validation *apperr.ValidationError
		assert.ErrorAs(t, err, &validation)
	})

	t.Run("Unknown payment method rejected", func(t *testing.T) {
		_, _, _, _, svc := newTestService()

		_, err := svc.Create(5, CreateOrderInput{
			Items:          []OrderItemInput{{ProductID: 7, Kg: dec("1"), Quantity: 1}},
			PaymentMethod:  "bitcoin",
			DeliveryMethod: model.DeliveryUber,
			Address:        "Westlands",
		})

		var validation *apperr.ValidationError
		assert.ErrorAs(t, err, &validation)
	})

	t.Run("Off-grid weight rejected", func(t *testing.T) {
		_, _, _, _, svc := newTestService()

		_, err := svc.Create(5, CreateOrderInput{
			Items:          []OrderItemInput{{ProductID: 7, Kg: dec("0.7"), Quantity: 1}},
			PaymentMethod:  model.MethodMpesa,
			DeliveryMethod: model.DeliveryUber,
			Address:        "Westlands",
		})

		var validation *apperr.ValidationError
		assert.ErrorAs(t, err, &validation)
	})

	t.Run("Missing variant surfaces as validation error", func(t *testing.T) {
		repo, variants, _, _, svc := newTestService()

		variants.On("PriceFor", uint(9), dec("4")).
			Return(decimal.Zero, &apperr.NotFoundError{Resource: "Product variant"})

		_, err := svc.Create(5, CreateOrderInput{
			Items:          []OrderItemInput{{ProductID: 9, Kg: dec("4"), Quantity: 1}},
			PaymentMethod:  model.MethodMpesa,
			DeliveryMethod: model.DeliveryUber,
			Address:        "Westlands",
		})

		var validation *apperr.ValidationError
		assert.ErrorAs(t, err, &validation)
		assert.Contains(t, validation.Message, "4kg variant for product 9")
		repo.AssertNotCalled(t, "CreateWithItems", mock.Anything, mock.Anything)
	})
}

func TestUpdateStatus(t *testing.T) {
	t.Run("Valid transition notifies with previous status", func(t *testing.T) {
		repo, _, users, notifier, svc := newTestService()

		stored := &model.Order{UserID: 5, Status: model.StatusPending}
		stored.ID = 1
		repo.On("UpdateLocked", uint(1), mock.Anything).Return(stored, nil)
		users.On("GetByID", uint(5)).Return(testUser(5), nil)
		notifier.On("NotifyOrder", mock.Anything, "wanjiku@example.com",
			"Order Status Updated", mock.Anything, mock.MatchedBy(func(msg string) bool {
				return msg != ""
			})).Return()

		order, oldStatus, err := svc.UpdateStatus(1, model.StatusProcessing)

		assert.NoError(t, err)
		assert.Equal(t, model.StatusPending, oldStatus)
		assert.Equal(t, model.StatusProcessing, order.Status)
		notifier.AssertExpectations(t)
	})

	t.Run("Same status rejected", func(t *testing.T) {
		repo, _, _, notifier, svc := newTestService()

		stored := &model.Order{UserID: 5, Status: model.StatusPending}
		repo.On("UpdateLocked", uint(1), mock.Anything).Return(stored, nil)

		_, _, err := svc.UpdateStatus(1, model.StatusPending)

		var validation *apperr.ValidationError
		assert.ErrorAs(t, err, &validation)
		notifier.AssertNotCalled(t, "NotifyOrder", mock.Anything, mock.Anything, mock.Anything, mock.Anything, mock.Anything)
	})

	t.Run("Disallowed transition rejected", func(t *testing.T) {
		repo, _, _, _, svc := newTestService()

		stored := &model.Order{UserID: 5, Status: model.StatusPaid}
		repo.On("UpdateLocked", uint(1), mock.Anything).Return(stored, nil)

		_, _, err := svc.UpdateStatus(1, model.StatusCancelled)

		var validation *apperr.ValidationError
		assert.ErrorAs(t, err, &validation)
	})

	t.Run("Unknown order", func(t *testing.T) {
		repo, _, _, _, svc := newTestService()

		repo.On("UpdateLocked", uint(404), mock.Anything).
			Return(nil, &apperr.NotFoundError{Resource: "Order"})

		_, _, err := svc.UpdateStatus(404, model.StatusProcessing)

		var notFound *apperr.NotFoundError
		assert.ErrorAs(t, err, &notFound)
	})
}

func TestBulkUpdateStatus(t *testing.T) {
	t.Run("Partial failure never aborts the batch", func(t *testing.T) {
		repo, _, users, notifier, svc := newTestService()

		ok := &model.Order{UserID: 5, Status: model.StatusPending}
		ok.ID = 1
		ok.CreatedAt = time.Now()
		unchanged := &model.Order{UserID: 5, Status: model.StatusProcessing}
		unchanged.ID = 2
		terminal := &model.Order{UserID: 5, Status: model.StatusCancelled}
		terminal.ID = 3

		repo.On("UpdateLocked", uint(1), mock.Anything).Return(ok, nil)
		repo.On("UpdateLocked", uint(2), mock.Anything).Return(unchanged, nil)
		repo.On("UpdateLocked", uint(3), mock.Anything).Return(terminal, nil)
		repo.On("UpdateLocked", uint(999), mock.Anything).
			Return(nil, &apperr.NotFoundError{Resource: "Order"})

		users.On("GetByID", uint(5)).Return(testUser(5), nil)
		notifier.On("NotifyOrderBatch", mock.Anything, "wanjiku@example.com",
			"Order Status Updates", "Multiple Order Updates - Adorable Cakery",
			mock.MatchedBy(func(messages []string) bool { return len(messages) == 1 })).Return()

		results := svc.BulkUpdateStatus([]StatusUpdate{
			{OrderID: 1, Status: model.StatusProcessing},
			{OrderID: 999, Status: model.StatusProcessing},
			{OrderID: 2, Status: model.StatusProcessing},
			{OrderID: 3, Status: model.StatusProcessing},
			{OrderID: 0, Status: model.StatusProcessing},
		})

		assert.Len(t, results, 5)
		assert.Equal(t, "Updated", results[0].Status)
		assert.Equal(t, "Order not found", results[1].Status)
		assert.Equal(t, "Status unchanged", results[2].Status)
		assert.Equal(t, "Invalid transition", results[3].Status)
		assert.Equal(t, "Invalid data", results[4].Status)
		notifier.AssertExpectations(t)
	})

	t.Run("Notifications grouped per user", func(t *testing.T) {
		repo, _, users, notifier, svc := newTestService()

		first := &model.Order{UserID: 5, Status: model.StatusPending}
		first.ID = 1
		first.CreatedAt = time.Now()
		second := &model.Order{UserID: 5, Status: model.StatusPending}
		second.ID = 2
		second.CreatedAt = time.Now()

		repo.On("UpdateLocked", uint(1), mock.Anything).Return(first, nil)
		repo.On("UpdateLocked", uint(2), mock.Anything).Return(second, nil)
		users.On("GetByID", uint(5)).Return(testUser(5), nil).Once()
		notifier.On("NotifyOrderBatch", mock.Anything, mock.Anything, mock.Anything, mock.Anything,
			mock.MatchedBy(func(messages []string) bool { return len(messages) == 2 })).Return().Once()

		svc.BulkUpdateStatus([]StatusUpdate{
			{OrderID: 1, Status: model.StatusProcessing},
			{OrderID: 2, Status: model.StatusProcessing},
		})

		notifier.AssertExpectations(t)
		users.AssertExpectations(t)
	})
}

func TestSettlePayment(t *testing.T) {
	t.Run("Pending order driven to paid", func(t *testing.T) {
		repo, _, users, notifier, svc := newTestService()

		stored := &model.Order{UserID: 5, Status: model.StatusPending, PaymentStatus: model.PaymentPending}
		stored.ID = 1
		repo.On("UpdateLocked", uint(1), mock.Anything).Return(stored, nil)
		users.On("GetByID", uint(5)).Return(testUser(5), nil)
		notifier.On("NotifyOrder", mock.Anything, mock.Anything, mock.Anything, mock.Anything, mock.Anything).Return()

		order, changed, err := svc.SettlePayment(1, "SBK12345")

		assert.NoError(t, err)
		assert.True(t, changed)
		assert.Equal(t, model.StatusPaid, order.Status)
		assert.True(t, order.IsPaid)
		assert.NotNil(t, order.PaidAt)
		assert.Equal(t, model.PaymentPaid, order.PaymentStatus)
		assert.Equal(t, "SBK12345", order.MpesaReceiptNumber)
		notifier.AssertExpectations(t)
	})

	t.Run("Duplicate settlement is a no-op", func(t *testing.T) {
		repo, _, _, notifier, svc := newTestService()

		paidAt := time.Now().Add(-time.Hour)
		stored := &model.Order{
			UserID: 5, Status: model.StatusPaid, PaymentStatus: model.PaymentPaid,
			IsPaid: true, PaidAt: &paidAt, MpesaReceiptNumber: "SBK12345",
		}
		stored.ID = 1
		repo.On("UpdateLocked", uint(1), mock.Anything).Return(stored, nil)

		order, changed, err := svc.SettlePayment(1, "SBK99999")

		assert.NoError(t, err)
		assert.False(t, changed)
		assert.Equal(t, "SBK12345", order.MpesaReceiptNumber)
		assert.Equal(t, paidAt, *order.PaidAt)
		notifier.AssertNotCalled(t, "NotifyOrder", mock.Anything, mock.Anything, mock.Anything, mock.Anything, mock.Anything)
	})

	t.Run("Cancelled order records funds without status change", func(t *testing.T) {
		repo, _, _, notifier, svc := newTestService()

		stored := &model.Order{UserID: 5, Status: model.StatusCancelled, PaymentStatus: model.PaymentPending}
		stored.ID = 1
		repo.On("UpdateLocked", uint(1), mock.Anything).Return(stored, nil)

		order, changed, err := svc.SettlePayment(1, "SBK12345")

		assert.NoError(t, err)
		assert.True(t, changed)
		assert.Equal(t, model.StatusCancelled, order.Status)
		assert.Equal(t, model.PaymentPaid, order.PaymentStatus)
		assert.False(t, order.IsPaid)
		notifier.AssertNotCalled(t, "NotifyOrder", mock.Anything, mock.Anything, mock.Anything, mock.Anything, mock.Anything)
	})
}

func TestMarkPaymentFailed(t *testing.T) {
	t.Run("Pending payment marked failed", func(t *testing.T) {
		repo, _, _, _, svc := newTestService()

		stored := &model.Order{UserID: 5, Status: model.StatusPending, PaymentStatus: model.PaymentPending}
		repo.On("UpdateLocked", uint(1), mock.Anything).Return(stored, nil)

		err := svc.MarkPaymentFailed(1)

		assert.NoError(t, err)
		assert.Equal(t, model.PaymentFailed, stored.PaymentStatus)
	})

	t.Run("Never regresses a paid order", func(t *testing.T) {
		repo, _, _, _, svc := newTestService()

		stored := &model.Order{UserID: 5, Status: model.StatusPaid, PaymentStatus: model.PaymentPaid}
		repo.On("UpdateLocked", uint(1), mock.Anything).Return(stored, nil)

		err := svc.MarkPaymentFailed(1)

		assert.NoError(t, err)
		assert.Equal(t, model.PaymentPaid, stored.PaymentStatus)
	})
}

func TestItemLines(t *testing.T) {
	items := []model.OrderItem{
		{ProductName: "Red Velvet", Kg: dec("1.5"), Quantity: 2},
		{ProductName: "Black Forest", Kg: dec("1"), Quantity: 1},
	}

	assert.Equal(t, "- Red Velvet – 3 kg\n- Black Forest – 1 kg", itemLines(items))
}
