package api_test

import (
	"bytes"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/hoangchung16-00/personal-finance-backend/internal/api"
	"github.com/hoangchung16-00/personal-finance-backend/internal/domain"

	"github.com/gin-gonic/gin"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
)

// newTestServer wires the full router against an isolated in-memory database,
// with caching disabled (nil Redis client)
func newTestServer(t *testing.T) (*gin.Engine, *gorm.DB) {
	t.Helper()
	gin.SetMode(gin.TestMode)
	dsn := fmt.Sprintf("file:api_%s?mode=memory&cache=shared", t.Name())
	db, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{})
	require.NoError(t, err)
	sqlDB, err := db.DB()
	require.NoError(t, err)
	sqlDB.SetMaxOpenConns(1)
	require.NoError(t, db.AutoMigrate(&domain.User{}, &domain.Account{}, &domain.Category{}, &domain.Transaction{}))
	r := gin.New()
	api.SetupRoutes(r, db, nil)
	return r, db
}

// do performs a JSON request with an optional bearer API key
func do(t *testing.T, r *gin.Engine, method, path, key string, body any) *httptest.ResponseRecorder {
	t.Helper()
	var buf bytes.Buffer
	if body != nil {
		require.NoError(t, json.NewEncoder(&buf).Encode(body))
	}
	req := httptest.NewRequest(method, path, &buf)
	req.Header.Set("Content-Type", "application/json")
	if key != "" {
		req.Header.Set("Authorization", "Bearer "+key)
	}
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)
	return w
}

// decode unmarshals a JSON response body into a generic map
func decode(t *testing.T, w *httptest.ResponseRecorder) map[string]any {
	t.Helper()
	var m map[string]any
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &m))
	return m
}

// register creates a user and returns the plaintext API key issued once
func register(t *testing.T, r *gin.Engine, email string) string {
	t.Helper()
	w := do(t, r, http.MethodPost, "/api/v1/users", "", gin.H{
		"email":      email,
		"first_name": "Jane",
		"last_name":  "Doe",
	})
	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())
	key, _ := decode(t, w)["api_key"].(string)
	require.Len(t, key, 64)
	return key
}

// createAccount creates an account and returns its id
func createAccount(t *testing.T, r *gin.Engine, key string, body gin.H) uint {
	t.Helper()
	w := do(t, r, http.MethodPost, "/api/v1/accounts", key, body)
	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())
	account := decode(t, w)["account"].(map[string]any)
	return uint(account["id"].(float64))
}

// createTransaction records a transaction under an account and returns its id
func createTransaction(t *testing.T, r *gin.Engine, key string, accountID uint, body gin.H) uint {
	t.Helper()
	path := fmt.Sprintf("/api/v1/accounts/%d/transactions", accountID)
	w := do(t, r, http.MethodPost, path, key, body)
	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())
	txn := decode(t, w)["transaction"].(map[string]any)
	return uint(txn["id"].(float64))
}

// accountBalance reads the account through the API and parses its balance
func accountBalance(t *testing.T, r *gin.Engine, key string, accountID uint) decimal.Decimal {
	t.Helper()
	w := do(t, r, http.MethodGet, fmt.Sprintf("/api/v1/accounts/%d", accountID), key, nil)
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	account := decode(t, w)["account"].(map[string]any)
	return decimal.RequireFromString(account["balance"].(string))
}

func assertBalance(t *testing.T, r *gin.Engine, key string, accountID uint, want string) {
	t.Helper()
	got := accountBalance(t, r, key, accountID)
	assert.True(t, got.Equal(decimal.RequireFromString(want)), "balance = %s, want %s", got, want)
}

func TestRegisterIssuesAPIKey(t *testing.T) {
	r, db := newTestServer(t)
	key := register(t, r, "jane@example.com")

	// Only the digest is stored, never the key
	var user domain.User
	require.NoError(t, db.Where("email = ?", "jane@example.com").First(&user).Error)
	require.NotNil(t, user.APIKeyDigest)
	assert.NotEqual(t, key, *user.APIKeyDigest)
	assert.NotNil(t, user.APIKeyCreatedAt)

	// Duplicate email is a validation failure
	w := do(t, r, http.MethodPost, "/api/v1/users", "", gin.H{
		"email": "jane@example.com", "first_name": "Jane", "last_name": "Doe",
	})
	assert.Equal(t, http.StatusUnprocessableEntity, w.Code)
}

func TestRegisterValidation(t *testing.T) {
	r, _ := newTestServer(t)
	// Missing fields
	w := do(t, r, http.MethodPost, "/api/v1/users", "", gin.H{"email": "a@b.com"})
	assert.Equal(t, http.StatusBadRequest, w.Code)
	// Malformed email
	w = do(t, r, http.MethodPost, "/api/v1/users", "", gin.H{
		"email": "not-an-email", "first_name": "Jane", "last_name": "Doe",
	})
	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestAuthRejectionIsUniform(t *testing.T) {
	r, _ := newTestServer(t)
	register(t, r, "jane@example.com")

	cases := map[string]string{
		"missing header":  "",
		"wrong scheme":    "Token abc123",
		"empty token":     "Bearer ",
		"unknown key":     "Bearer " + "deadbeef",
	}
	var bodies []string
	for name, header := range cases {
		req := httptest.NewRequest(http.MethodGet, "/api/v1/accounts", nil)
		if header != "" {
			req.Header.Set("Authorization", header)
		}
		w := httptest.NewRecorder()
		r.ServeHTTP(w, req)
		assert.Equal(t, http.StatusUnauthorized, w.Code, name)
		bodies = append(bodies, w.Body.String())
	}
	// The response never reveals which part of the credential failed
	for _, b := range bodies {
		assert.Equal(t, bodies[0], b)
	}
}

func TestRevokedKeyFailsImmediately(t *testing.T) {
	r, _ := newTestServer(t)
	key := register(t, r, "jane@example.com")

	w := do(t, r, http.MethodDelete, "/api/v1/users/api_key", key, nil)
	require.Equal(t, http.StatusOK, w.Code)

	w = do(t, r, http.MethodGet, "/api/v1/accounts", key, nil)
	assert.Equal(t, http.StatusUnauthorized, w.Code)
}

func TestRotateInvalidatesOldKey(t *testing.T) {
	r, _ := newTestServer(t)
	oldKey := register(t, r, "jane@example.com")

	w := do(t, r, http.MethodPost, "/api/v1/users/api_key", oldKey, nil)
	require.Equal(t, http.StatusOK, w.Code)
	newKey := decode(t, w)["api_key"].(string)
	require.Len(t, newKey, 64)
	require.NotEqual(t, oldKey, newKey)

	// The old key is dead the moment the digest is replaced
	w = do(t, r, http.MethodGet, "/api/v1/accounts", oldKey, nil)
	assert.Equal(t, http.StatusUnauthorized, w.Code)
	w = do(t, r, http.MethodGet, "/api/v1/accounts", newKey, nil)
	assert.Equal(t, http.StatusOK, w.Code)
}

func TestAccountDefaults(t *testing.T) {
	r, _ := newTestServer(t)
	key := register(t, r, "jane@example.com")

	w := do(t, r, http.MethodPost, "/api/v1/accounts", key, gin.H{
		"name": "Everyday", "account_type": "checking",
	})
	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())
	account := decode(t, w)["account"].(map[string]any)
	assert.Equal(t, "USD", account["currency"])
	assert.True(t, decimal.RequireFromString(account["balance"].(string)).IsZero())
}

func TestAccountCRUD(t *testing.T) {
	r, _ := newTestServer(t)
	key := register(t, r, "jane@example.com")
	id := createAccount(t, r, key, gin.H{
		"name": "Savings", "account_type": "savings", "balance": "1500.00", "bank_name": "Acme Bank",
	})

	// List
	w := do(t, r, http.MethodGet, "/api/v1/accounts", key, nil)
	require.Equal(t, http.StatusOK, w.Code)
	accounts := decode(t, w)["accounts"].([]any)
	assert.Len(t, accounts, 1)

	// Update (balance is not updatable through the API)
	w = do(t, r, http.MethodPatch, fmt.Sprintf("/api/v1/accounts/%d", id), key, gin.H{"name": "Rainy Day"})
	require.Equal(t, http.StatusOK, w.Code)
	assertBalance(t, r, key, id, "1500.00")

	// Bad account type is a validation failure
	w = do(t, r, http.MethodPost, "/api/v1/accounts", key, gin.H{"name": "X", "account_type": "offshore"})
	assert.Equal(t, http.StatusBadRequest, w.Code)

	// Delete
	w = do(t, r, http.MethodDelete, fmt.Sprintf("/api/v1/accounts/%d", id), key, nil)
	require.Equal(t, http.StatusNoContent, w.Code)
	w = do(t, r, http.MethodGet, fmt.Sprintf("/api/v1/accounts/%d", id), key, nil)
	assert.Equal(t, http.StatusNotFound, w.Code)
}

func TestOwnershipScopingReportsNotFound(t *testing.T) {
	r, _ := newTestServer(t)
	keyA := register(t, r, "a@example.com")
	keyB := register(t, r, "b@example.com")

	accountA := createAccount(t, r, keyA, gin.H{"name": "A", "account_type": "checking"})
	txnA := createTransaction(t, r, keyA, accountA, gin.H{
		"transaction_type": "expense", "amount": "10.00", "date": "2026-08-01", "description": "coffee",
	})

	// Another user's records are indistinguishable from missing ones
	paths := []string{
		fmt.Sprintf("/api/v1/accounts/%d", accountA),
		fmt.Sprintf("/api/v1/transactions/%d", txnA),
	}
	for _, path := range paths {
		w := do(t, r, http.MethodGet, path, keyB, nil)
		assert.Equal(t, http.StatusNotFound, w.Code, path)
	}
	w := do(t, r, http.MethodDelete, fmt.Sprintf("/api/v1/transactions/%d", txnA), keyB, nil)
	assert.Equal(t, http.StatusNotFound, w.Code)
	w = do(t, r, http.MethodPatch, fmt.Sprintf("/api/v1/transactions/%d", txnA), keyB, gin.H{"amount": "99.00"})
	assert.Equal(t, http.StatusNotFound, w.Code)
	// And a foreign account cannot receive transactions
	w = do(t, r, http.MethodPost, fmt.Sprintf("/api/v1/accounts/%d/transactions", accountA), keyB, gin.H{
		"transaction_type": "expense", "amount": "10.00", "date": "2026-08-01", "description": "coffee",
	})
	assert.Equal(t, http.StatusNotFound, w.Code)

	// The failed cross-user attempts must not have moved A's balance
	assertBalance(t, r, keyA, accountA, "-10.00")
}

func TestCategoryUniquenessPerUser(t *testing.T) {
	r, _ := newTestServer(t)
	keyA := register(t, r, "a@example.com")
	keyB := register(t, r, "b@example.com")

	w := do(t, r, http.MethodPost, "/api/v1/categories", keyA, gin.H{"name": "Groceries"})
	require.Equal(t, http.StatusCreated, w.Code)
	// Same name twice for one user is rejected
	w = do(t, r, http.MethodPost, "/api/v1/categories", keyA, gin.H{"name": "Groceries"})
	assert.Equal(t, http.StatusUnprocessableEntity, w.Code)
	// But is fine for a different user
	w = do(t, r, http.MethodPost, "/api/v1/categories", keyB, gin.H{"name": "Groceries"})
	assert.Equal(t, http.StatusCreated, w.Code)
}

func TestCategoryDeleteClearsReferences(t *testing.T) {
	r, _ := newTestServer(t)
	key := register(t, r, "jane@example.com")
	account := createAccount(t, r, key, gin.H{"name": "A", "account_type": "checking"})

	w := do(t, r, http.MethodPost, "/api/v1/categories", key, gin.H{"name": "Dining"})
	require.Equal(t, http.StatusCreated, w.Code)
	category := decode(t, w)["category"].(map[string]any)
	categoryID := uint(category["id"].(float64))

	txn := createTransaction(t, r, key, account, gin.H{
		"transaction_type": "expense", "amount": "20.00", "date": "2026-08-01",
		"description": "dinner", "category_id": categoryID,
	})

	w = do(t, r, http.MethodDelete, fmt.Sprintf("/api/v1/categories/%d", categoryID), key, nil)
	require.Equal(t, http.StatusNoContent, w.Code)

	// The transaction survives with its category reference cleared
	w = do(t, r, http.MethodGet, fmt.Sprintf("/api/v1/transactions/%d", txn), key, nil)
	require.Equal(t, http.StatusOK, w.Code)
	got := decode(t, w)["transaction"].(map[string]any)
	assert.Nil(t, got["category_id"])
}

func TestTransactionCategoryClearedByNull(t *testing.T) {
	r, _ := newTestServer(t)
	key := register(t, r, "jane@example.com")
	account := createAccount(t, r, key, gin.H{"name": "A", "account_type": "checking"})

	w := do(t, r, http.MethodPost, "/api/v1/categories", key, gin.H{"name": "Dining"})
	require.Equal(t, http.StatusCreated, w.Code)
	categoryID := uint(decode(t, w)["category"].(map[string]any)["id"].(float64))

	txn := createTransaction(t, r, key, account, gin.H{
		"transaction_type": "expense", "amount": "20.00", "date": "2026-08-01",
		"description": "dinner", "category_id": categoryID,
	})

	// An update that omits the field leaves the category alone
	w = do(t, r, http.MethodPatch, fmt.Sprintf("/api/v1/transactions/%d", txn), key, gin.H{"notes": "with friends"})
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	got := decode(t, w)["transaction"].(map[string]any)
	assert.Equal(t, float64(categoryID), got["category_id"])

	// An explicit null detaches it
	w = do(t, r, http.MethodPatch, fmt.Sprintf("/api/v1/transactions/%d", txn), key, gin.H{"category_id": nil})
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	got = decode(t, w)["transaction"].(map[string]any)
	assert.Nil(t, got["category_id"])

	// And the detachment is persisted
	w = do(t, r, http.MethodGet, fmt.Sprintf("/api/v1/transactions/%d", txn), key, nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Nil(t, decode(t, w)["transaction"].(map[string]any)["category_id"])
}

func TestCategoryLookupFailureIsServerError(t *testing.T) {
	r, db := newTestServer(t)
	key := register(t, r, "jane@example.com")
	account := createAccount(t, r, key, gin.H{"name": "A", "account_type": "checking"})
	txn := createTransaction(t, r, key, account, gin.H{
		"transaction_type": "expense", "amount": "5.00", "date": "2026-08-01", "description": "x",
	})

	// With category storage broken, referencing one must surface a server
	// error, not masquerade as a validation failure
	require.NoError(t, db.Migrator().DropTable(&domain.Category{}))

	w := do(t, r, http.MethodPost, fmt.Sprintf("/api/v1/accounts/%d/transactions", account), key, gin.H{
		"transaction_type": "expense", "amount": "5.00", "date": "2026-08-01",
		"description": "x", "category_id": 1,
	})
	assert.Equal(t, http.StatusInternalServerError, w.Code, w.Body.String())

	w = do(t, r, http.MethodPatch, fmt.Sprintf("/api/v1/transactions/%d", txn), key, gin.H{"category_id": 1})
	assert.Equal(t, http.StatusInternalServerError, w.Code, w.Body.String())
}

func TestTransactionBalanceLifecycle(t *testing.T) {
	// The worked example: 1000.00 -> expense 50 -> 950.00 -> amend to 75 ->
	// 925.00 -> delete -> 1000.00
	r, _ := newTestServer(t)
	key := register(t, r, "jane@example.com")
	account := createAccount(t, r, key, gin.H{
		"name": "Checking", "account_type": "checking", "balance": "1000.00",
	})

	txn := createTransaction(t, r, key, account, gin.H{
		"transaction_type": "expense", "amount": "50.00", "date": "2026-08-28", "description": "groceries",
	})
	assertBalance(t, r, key, account, "950.00")

	w := do(t, r, http.MethodPatch, fmt.Sprintf("/api/v1/transactions/%d", txn), key, gin.H{"amount": "75.00"})
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	assertBalance(t, r, key, account, "925.00")

	w = do(t, r, http.MethodDelete, fmt.Sprintf("/api/v1/transactions/%d", txn), key, nil)
	require.Equal(t, http.StatusNoContent, w.Code)
	assertBalance(t, r, key, account, "1000.00")
}

func TestIncomeAndTransferImpact(t *testing.T) {
	r, _ := newTestServer(t)
	key := register(t, r, "jane@example.com")
	account := createAccount(t, r, key, gin.H{
		"name": "Checking", "account_type": "checking", "balance": "100.00",
	})

	createTransaction(t, r, key, account, gin.H{
		"transaction_type": "income", "amount": "200.00", "date": "2026-08-01", "description": "salary",
	})
	assertBalance(t, r, key, account, "300.00")

	// A transfer's offsetting leg is external, so the balance holds still
	createTransaction(t, r, key, account, gin.H{
		"transaction_type": "transfer", "amount": "50.00", "date": "2026-08-02", "description": "to savings",
	})
	assertBalance(t, r, key, account, "300.00")
}

func TestTransactionTypeChangeMovesBalance(t *testing.T) {
	r, _ := newTestServer(t)
	key := register(t, r, "jane@example.com")
	account := createAccount(t, r, key, gin.H{
		"name": "Checking", "account_type": "checking", "balance": "0.00",
	})
	txn := createTransaction(t, r, key, account, gin.H{
		"transaction_type": "expense", "amount": "40.00", "date": "2026-08-01", "description": "refunded later",
	})
	assertBalance(t, r, key, account, "-40.00")

	w := do(t, r, http.MethodPatch, fmt.Sprintf("/api/v1/transactions/%d", txn), key, gin.H{"transaction_type": "income"})
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	assertBalance(t, r, key, account, "40.00")
}

func TestTransactionValidation(t *testing.T) {
	r, _ := newTestServer(t)
	key := register(t, r, "jane@example.com")
	account := createAccount(t, r, key, gin.H{"name": "A", "account_type": "checking"})
	path := fmt.Sprintf("/api/v1/accounts/%d/transactions", account)

	// Missing amount (defaults to zero) is rejected
	w := do(t, r, http.MethodPost, path, key, gin.H{
		"transaction_type": "expense", "date": "2026-08-01", "description": "x",
	})
	assert.Equal(t, http.StatusUnprocessableEntity, w.Code)
	// Negative amount is rejected; the sign belongs to the type
	w = do(t, r, http.MethodPost, path, key, gin.H{
		"transaction_type": "expense", "amount": "-5.00", "date": "2026-08-01", "description": "x",
	})
	assert.Equal(t, http.StatusUnprocessableEntity, w.Code)
	// Unknown type fails request binding
	w = do(t, r, http.MethodPost, path, key, gin.H{
		"transaction_type": "loan", "amount": "5.00", "date": "2026-08-01", "description": "x",
	})
	assert.Equal(t, http.StatusBadRequest, w.Code)
	// Malformed date
	w = do(t, r, http.MethodPost, path, key, gin.H{
		"transaction_type": "expense", "amount": "5.00", "date": "01/08/2026", "description": "x",
	})
	assert.Equal(t, http.StatusUnprocessableEntity, w.Code)
	// A category belonging to another user cannot be referenced
	keyB := register(t, r, "b@example.com")
	w = do(t, r, http.MethodPost, "/api/v1/categories", keyB, gin.H{"name": "Other"})
	require.Equal(t, http.StatusCreated, w.Code)
	foreign := uint(decode(t, w)["category"].(map[string]any)["id"].(float64))
	w = do(t, r, http.MethodPost, path, key, gin.H{
		"transaction_type": "expense", "amount": "5.00", "date": "2026-08-01",
		"description": "x", "category_id": foreign,
	})
	assert.Equal(t, http.StatusUnprocessableEntity, w.Code)

	// None of the rejected writes may have moved the balance
	assertBalance(t, r, key, account, "0.00")
}

func TestTransactionFilters(t *testing.T) {
	r, _ := newTestServer(t)
	key := register(t, r, "jane@example.com")
	checking := createAccount(t, r, key, gin.H{"name": "Checking", "account_type": "checking"})
	savings := createAccount(t, r, key, gin.H{"name": "Savings", "account_type": "savings"})

	w := do(t, r, http.MethodPost, "/api/v1/categories", key, gin.H{"name": "Food"})
	require.Equal(t, http.StatusCreated, w.Code)
	food := uint(decode(t, w)["category"].(map[string]any)["id"].(float64))

	createTransaction(t, r, key, checking, gin.H{
		"transaction_type": "expense", "amount": "10.00", "date": "2026-08-01",
		"description": "lunch", "category_id": food,
	})
	createTransaction(t, r, key, checking, gin.H{
		"transaction_type": "income", "amount": "500.00", "date": "2026-08-15", "description": "salary",
	})
	createTransaction(t, r, key, savings, gin.H{
		"transaction_type": "expense", "amount": "25.00", "date": "2026-08-20", "description": "fees",
	})

	list := func(path string) []any {
		w := do(t, r, http.MethodGet, path, key, nil)
		require.Equal(t, http.StatusOK, w.Code, w.Body.String())
		return decode(t, w)["transactions"].([]any)
	}

	// All accounts
	assert.Len(t, list("/api/v1/transactions"), 3)
	// Scoped to one account
	assert.Len(t, list(fmt.Sprintf("/api/v1/accounts/%d/transactions", checking)), 2)
	// By type
	assert.Len(t, list("/api/v1/transactions?transaction_type=expense"), 2)
	// By category
	assert.Len(t, list(fmt.Sprintf("/api/v1/transactions?category_id=%d", food)), 1)
	// Inclusive date range: boundaries are part of the range
	assert.Len(t, list("/api/v1/transactions?start_date=2026-08-01&end_date=2026-08-15"), 2)
	assert.Len(t, list("/api/v1/transactions?start_date=2026-08-02&end_date=2026-08-14"), 0)
	// Combined
	assert.Len(t, list(fmt.Sprintf("/api/v1/accounts/%d/transactions?transaction_type=expense", checking)), 1)

	// Listing is newest-first by date
	all := list("/api/v1/transactions")
	first := all[0].(map[string]any)
	assert.Equal(t, "fees", first["description"])

	// Invalid filter values are rejected
	w = do(t, r, http.MethodGet, "/api/v1/transactions?transaction_type=loan", key, nil)
	assert.Equal(t, http.StatusUnprocessableEntity, w.Code)
	w = do(t, r, http.MethodGet, "/api/v1/transactions?start_date=yesterday", key, nil)
	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestTransactionPagination(t *testing.T) {
	r, _ := newTestServer(t)
	key := register(t, r, "jane@example.com")
	account := createAccount(t, r, key, gin.H{"name": "A", "account_type": "checking"})

	for i := 0; i < 25; i++ {
		createTransaction(t, r, key, account, gin.H{
			"transaction_type": "expense", "amount": "1.00",
			"date": fmt.Sprintf("2026-07-%02d", i%28+1), "description": fmt.Sprintf("txn %d", i),
		})
	}

	w := do(t, r, http.MethodGet, "/api/v1/transactions?page=2", key, nil)
	require.Equal(t, http.StatusOK, w.Code)
	resp := decode(t, w)
	assert.Len(t, resp["transactions"].([]any), 5)
	assert.Equal(t, float64(25), resp["total"])
	assert.Equal(t, float64(2), resp["total_pages"])
	assert.Equal(t, float64(2), resp["page"])
}
