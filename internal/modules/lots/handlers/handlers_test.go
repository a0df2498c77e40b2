package handlers

import (
	"bytes"
	"database/sql"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/dferran/hoard/internal/modules/lots"
	"github.com/go-chi/chi/v5"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	_ "modernc.org/sqlite"
)

func setupTestRouter(t *testing.T) (*chi.Mux, *lots.Repository) {
	db, err := sql.Open("sqlite", ":memory:")
	require.NoError(t, err)
	db.SetMaxOpenConns(1)
	t.Cleanup(func() { db.Close() })

	require.NoError(t, lots.InitSchema(db))

	repo := lots.NewRepository(db, zerolog.Nop())
	handler := NewHandler(repo, zerolog.Nop())

	router := chi.NewRouter()
	handler.RegisterRoutes(router)

	return router, repo
}

func createRequestBody() map[string]string {
	return map[string]string{
		"owner_id":      "alice",
		"family":        "metal",
		"asset_code":    "XAU",
		"quantity":      "100",
		"unit":          "g",
		"unit_price":    "55",
		"total_price":   "5500",
		"currency":      "EUR",
		"purchase_date": "2024-03-15",
	}
}

func postJSON(t *testing.T, router http.Handler, path string, body interface{}) *httptest.ResponseRecorder {
	payload, err := json.Marshal(body)
	require.NoError(t, err)

	req := httptest.NewRequest(http.MethodPost, path, bytes.NewReader(payload))
	req.Header.Set("Content-Type", "application/json")
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)
	return rec
}

func TestHandleCreate(t *testing.T) {
	router, repo := setupTestRouter(t)

	rec := postJSON(t, router, "/lots", createRequestBody())
	require.Equal(t, http.StatusCreated, rec.Code)

	var resp struct {
		Data struct {
			ID string `json:"id"`
		} `json:"data"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	require.NotEmpty(t, resp.Data.ID)

	stored, err := repo.GetByID(resp.Data.ID)
	require.NoError(t, err)
	require.NotNil(t, stored)
	assert.Equal(t, "alice", stored.OwnerID)
	assert.Equal(t, "XAU", stored.AssetCode)
}

func TestHandleCreate_RejectsInvalidLot(t *testing.T) {
	router, _ := setupTestRouter(t)

	body := createRequestBody()
	body["unit"] = "kg"

	rec := postJSON(t, router, "/lots", body)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestHandleCreate_RejectsMalformedDecimal(t *testing.T) {
	router, _ := setupTestRouter(t)

	body := createRequestBody()
	body["quantity"] = "a lot"

	rec := postJSON(t, router, "/lots", body)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestHandleList(t *testing.T) {
	router, _ := setupTestRouter(t)

	require.Equal(t, http.StatusCreated, postJSON(t, router, "/lots", createRequestBody()).Code)

	req := httptest.NewRequest(http.MethodGet, "/lots?owner_id=alice", nil)
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	require.Equal(t, http.StatusOK, rec.Code)

	var resp struct {
		Data struct {
			Count int `json:"count"`
		} `json:"data"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	assert.Equal(t, 1, resp.Data.Count)
}

func TestHandleList_RequiresOwner(t *testing.T) {
	router, _ := setupTestRouter(t)

	req := httptest.NewRequest(http.MethodGet, "/lots", nil)
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestHandleUpdate_BoundedFields(t *testing.T) {
	router, repo := setupTestRouter(t)

	rec := postJSON(t, router, "/lots", createRequestBody())
	require.Equal(t, http.StatusCreated, rec.Code)

	var created struct {
		Data struct {
			ID string `json:"id"`
		} `json:"data"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &created))

	update := map[string]string{
		"unit_price":  "60",
		"total_price": "6000",
		"currency":    "USD",
	}
	payload, err := json.Marshal(update)
	require.NoError(t, err)

	req := httptest.NewRequest(http.MethodPut, "/lots/"+created.Data.ID, bytes.NewReader(payload))
	updateRec := httptest.NewRecorder()
	router.ServeHTTP(updateRec, req)

	require.Equal(t, http.StatusOK, updateRec.Code)

	stored, err := repo.GetByID(created.Data.ID)
	require.NoError(t, err)
	require.NotNil(t, stored)
	assert.Equal(t, "USD", stored.Currency)
	assert.Equal(t, "60", stored.UnitPrice.String())
	// quantity is not editable
	assert.Equal(t, "100", stored.Quantity.String())
}

func TestHandleUpdate_NotFound(t *testing.T) {
	router, _ := setupTestRouter(t)

	payload := []byte(`{"unit_price":"1","total_price":"1","currency":"EUR"}`)
	req := httptest.NewRequest(http.MethodPut, "/lots/missing", bytes.NewReader(payload))
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestHandleDelete(t *testing.T) {
	router, repo := setupTestRouter(t)

	rec := postJSON(t, router, "/lots", createRequestBody())
	require.Equal(t, http.StatusCreated, rec.Code)

	var created struct {
		Data struct {
			ID string `json:"id"`
		} `json:"data"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &created))

	req := httptest.NewRequest(http.MethodDelete, "/lots/"+created.Data.ID, nil)
	deleteRec := httptest.NewRecorder()
	router.ServeHTTP(deleteRec, req)
	require.Equal(t, http.StatusNoContent, deleteRec.Code)

	stored, err := repo.GetByID(created.Data.ID)
	require.NoError(t, err)
	assert.Nil(t, stored)
}
