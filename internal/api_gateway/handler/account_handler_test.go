package handler

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"os"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/banking-transfer-saga/internal/api_gateway/service"
	"github.com/banking-transfer-saga/internal/domain/account"
)

type MockAccountService struct {
	mock.Mock
}

func (m *MockAccountService) CreateAccount(ctx context.Context, accountNumber, ownerName string, openingBalance decimal.Decimal) (*account.Account, error) {
	args := m.Called(ctx, accountNumber, ownerName, openingBalance)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*account.Account), args.Error(1)
}

func (m *MockAccountService) GetAccountByNumber(ctx context.Context, accountNumber string) (*account.Account, error) {
	args := m.Called(ctx, accountNumber)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*account.Account), args.Error(1)
}

func setupTestRouter() *gin.Engine {
	gin.SetMode(gin.TestMode)
	r := gin.Default()
	return r
}

func decodeData[T any](t *testing.T, body []byte) T {
	t.Helper()
	var topLevel Response
	require.NoError(t, json.Unmarshal(body, &topLevel))
	require.NotNil(t, topLevel.Data, "'data' field should not be nil")

	dataBytes, err := json.Marshal(topLevel.Data)
	require.NoError(t, err)
	var out T
	require.NoError(t, json.Unmarshal(dataBytes, &out))
	return out
}

func TestAccountHandler_Create(t *testing.T) {
	logger := slog.New(slog.NewJSONHandler(os.Stdout, nil))

	t.Run("Success", func(t *testing.T) {
		mockService := new(MockAccountService)
		handler := NewAccountHandler(logger, mockService)

		balance := decimal.NewFromInt(1000)
		expectedAccount, err := account.NewAccount("ACC-1001", "John Doe", balance)
		require.NoError(t, err)
		mockService.On("CreateAccount", mock.Anything, "ACC-1001", "John Doe", balance).Return(expectedAccount, nil)

		router := setupTestRouter()
		router.POST("/accounts", handler.Create)

		reqBody := CreateAccountRequest{
			AccountNumber:  "ACC-1001",
			OwnerName:      "John Doe",
			OpeningBalance: balance,
		}
		jsonBody, _ := json.Marshal(reqBody)

		req, _ := http.NewRequest(http.MethodPost, "/accounts", bytes.NewBuffer(jsonBody))
		req.Header.Set("Content-Type", "application/json")
		rr := httptest.NewRecorder()

		router.ServeHTTP(rr, req)

		assert.Equal(t, http.StatusCreated, rr.Code)

		responseBody := decodeData[AccountResponse](t, rr.Body.Bytes())
		assert.Equal(t, "ACC-1001", responseBody.AccountNumber)
		assert.Equal(t, "John Doe", responseBody.OwnerName)
		assert.Equal(t, "1000", responseBody.Balance)
		assert.True(t, responseBody.Active)

		mockService.AssertExpectations(t)
	})

	t.Run("InvalidRequestBody", func(t *testing.T) {
		mockService := new(MockAccountService)
		handler := NewAccountHandler(logger, mockService)

		router := setupTestRouter()
		router.POST("/accounts", handler.Create)

		req, _ := http.NewRequest(http.MethodPost, "/accounts", bytes.NewBufferString(`{"invalid`)) // Malformed JSON
		req.Header.Set("Content-Type", "application/json")
		rr := httptest.NewRecorder()

		router.ServeHTTP(rr, req)

		assert.Equal(t, http.StatusBadRequest, rr.Code)
		mockService.AssertExpectations(t) // Ensure no service methods were called
	})

	t.Run("DuplicateAccountNumber", func(t *testing.T) {
		mockService := new(MockAccountService)
		handler := NewAccountHandler(logger, mockService)

		balance := decimal.NewFromInt(500)
		mockService.On("CreateAccount", mock.Anything, "ACC-1001", "Jane Smith", balance).
			Return(nil, account.ErrDuplicateAccount{AccountNumber: "ACC-1001"})

		router := setupTestRouter()
		router.POST("/accounts", handler.Create)

		reqBody := CreateAccountRequest{
			AccountNumber:  "ACC-1001",
			OwnerName:      "Jane Smith",
			OpeningBalance: balance,
		}
		jsonBody, _ := json.Marshal(reqBody)

		req, _ := http.NewRequest(http.MethodPost, "/accounts", bytes.NewBuffer(jsonBody))
		req.Header.Set("Content-Type", "application/json")
		rr := httptest.NewRecorder()

		router.ServeHTTP(rr, req)

		assert.Equal(t, http.StatusConflict, rr.Code)
		var response Response
		require.NoError(t, json.Unmarshal(rr.Body.Bytes(), &response))
		require.NotNil(t, response.Error)
		assert.Equal(t, "CONFLICT", response.Error.Code)
		mockService.AssertExpectations(t)
	})

	t.Run("NegativeOpeningBalance", func(t *testing.T) {
		mockService := new(MockAccountService)
		handler := NewAccountHandler(logger, mockService)

		balance := decimal.NewFromInt(-100)
		mockService.On("CreateAccount", mock.Anything, "ACC-1002", "Jane Smith", balance).
			Return(nil, account.ErrInvalidAmount)

		router := setupTestRouter()
		router.POST("/accounts", handler.Create)

		reqBody := CreateAccountRequest{
			AccountNumber:  "ACC-1002",
			OwnerName:      "Jane Smith",
			OpeningBalance: balance,
		}
		jsonBody, _ := json.Marshal(reqBody)

		req, _ := http.NewRequest(http.MethodPost, "/accounts", bytes.NewBuffer(jsonBody))
		req.Header.Set("Content-Type", "application/json")
		rr := httptest.NewRecorder()

		router.ServeHTTP(rr, req)

		assert.Equal(t, http.StatusBadRequest, rr.Code)
		mockService.AssertExpectations(t)
	})

	t.Run("ServiceError", func(t *testing.T) {
		mockService := new(MockAccountService)
		handler := NewAccountHandler(logger, mockService)

		balance := decimal.NewFromInt(500)
		mockService.On("CreateAccount", mock.Anything, "ACC-1003", "Jane Doe", balance).
			Return(nil, errors.New("service unavailable"))

		router := setupTestRouter()
		router.POST("/accounts", handler.Create)

		reqBody := CreateAccountRequest{
			AccountNumber:  "ACC-1003",
			OwnerName:      "Jane Doe",
			OpeningBalance: balance,
		}
		jsonBody, _ := json.Marshal(reqBody)

		req, _ := http.NewRequest(http.MethodPost, "/accounts", bytes.NewBuffer(jsonBody))
		req.Header.Set("Content-Type", "application/json")
		rr := httptest.NewRecorder()

		router.ServeHTTP(rr, req)

		assert.Equal(t, http.StatusInternalServerError, rr.Code)
		mockService.AssertExpectations(t)
	})
}

func TestAccountHandler_GetByNumber(t *testing.T) {
	logger := slog.New(slog.NewJSONHandler(os.Stdout, nil))

	t.Run("Success", func(t *testing.T) {
		mockService := new(MockAccountService)
		handler := NewAccountHandler(logger, mockService)

		expectedAccount, err := account.NewAccount("ACC-1001", "Alice Wonderland", decimal.NewFromInt(2000))
		require.NoError(t, err)
		mockService.On("GetAccountByNumber", mock.Anything, "ACC-1001").Return(expectedAccount, nil)

		router := setupTestRouter()
		router.GET("/accounts/:number", handler.GetByNumber)

		req, _ := http.NewRequest(http.MethodGet, "/accounts/ACC-1001", nil)
		rr := httptest.NewRecorder()

		router.ServeHTTP(rr, req)

		assert.Equal(t, http.StatusOK, rr.Code)

		responseBody := decodeData[AccountResponse](t, rr.Body.Bytes())
		assert.Equal(t, "ACC-1001", responseBody.AccountNumber)
		assert.Equal(t, "Alice Wonderland", responseBody.OwnerName)
		assert.Equal(t, "2000", responseBody.Balance)

		mockService.AssertExpectations(t)
	})

	t.Run("AccountNotFound", func(t *testing.T) {
		mockService := new(MockAccountService)
		handler := NewAccountHandler(logger, mockService)

		mockService.On("GetAccountByNumber", mock.Anything, "ACC-9999").
			Return(nil, account.ErrAccountNotFound{AccountNumber: "ACC-9999"})

		router := setupTestRouter()
		router.GET("/accounts/:number", handler.GetByNumber)

		req, _ := http.NewRequest(http.MethodGet, "/accounts/ACC-9999", nil)
		rr := httptest.NewRecorder()

		router.ServeHTTP(rr, req)

		assert.Equal(t, http.StatusNotFound, rr.Code)
		mockService.AssertExpectations(t)
	})

	t.Run("ServiceError", func(t *testing.T) {
		mockService := new(MockAccountService)
		handler := NewAccountHandler(logger, mockService)

		mockService.On("GetAccountByNumber", mock.Anything, "ACC-1001").
			Return(nil, errors.New("database connection lost"))

		router := setupTestRouter()
		router.GET("/accounts/:number", handler.GetByNumber)

		req, _ := http.NewRequest(http.MethodGet, "/accounts/ACC-1001", nil)
		rr := httptest.NewRecorder()

		router.ServeHTTP(rr, req)

		assert.Equal(t, http.StatusInternalServerError, rr.Code)
		mockService.AssertExpectations(t)
	})
}

var _ service.AccountService = (*MockAccountService)(nil)
