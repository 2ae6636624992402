package table

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeStore struct {
	tables     map[string]*Table
	openOrders map[string]bool
}

func newFakeStore() *fakeStore {
	return &fakeStore{tables: make(map[string]*Table), openOrders: make(map[string]bool)}
}

func (s *fakeStore) add(t *testing.T, number int, status string) *Table {
	t.Helper()
	id, err := uuid.NewV7()
	require.NoError(t, err)
	table := &Table{ID: id.String(), Number: number, Capacity: 4, Status: status}
	s.tables[table.ID] = table
	return table
}

func (s *fakeStore) List(context.Context, string) ([]Table, error) {
	out := make([]Table, 0, len(s.tables))
	for _, t := range s.tables {
		out = append(out, *t)
	}
	return out, nil
}

func (s *fakeStore) Get(_ context.Context, id string) (*Table, error) {
	t, ok := s.tables[id]
	if !ok {
		return nil, nil
	}
	copied := *t
	return &copied, nil
}

func (s *fakeStore) GetByNumber(_ context.Context, number int) (*Table, error) {
	for _, t := range s.tables {
		if t.Number == number {
			copied := *t
			return &copied, nil
		}
	}
	return nil, nil
}

func (s *fakeStore) Create(_ context.Context, input TableInput) (Table, error) {
	id, _ := uuid.NewV7()
	t := Table{
		ID:          id.String(),
		Number:      input.Number,
		Description: input.Description,
		Capacity:    input.Capacity,
		Status:      input.Status,
		CategoryID:  input.CategoryID,
		CreatedAt:   time.Now().UTC(),
		UpdatedAt:   time.Now().UTC(),
	}
	s.tables[t.ID] = &t
	return t, nil
}

func (s *fakeStore) Update(_ context.Context, id string, input TableInput) (Table, error) {
	t := s.tables[id]
	t.Number = input.Number
	t.Description = input.Description
	t.Capacity = input.Capacity
	t.Status = input.Status
	t.CategoryID = input.CategoryID
	return *t, nil
}

func (s *fakeStore) Delete(_ context.Context, id string) error {
	delete(s.tables, id)
	return nil
}

func (s *fakeStore) HasOpenOrder(_ context.Context, tableID string) (bool, error) {
	return s.openOrders[tableID], nil
}

func doRequest(t *testing.T, handler http.HandlerFunc, method, target, body string) *httptest.ResponseRecorder {
	t.Helper()
	var reader *strings.Reader
	if body == "" {
		reader = strings.NewReader("")
	} else {
		reader = strings.NewReader(body)
	}
	req := httptest.NewRequest(method, target, reader)
	recorder := httptest.NewRecorder()

	mux := http.NewServeMux()
	mux.HandleFunc(method+" /tables/{id}", handler)
	mux.HandleFunc(method+" /tables", handler)
	mux.ServeHTTP(recorder, req)
	return recorder
}

func errorMessage(t *testing.T, recorder *httptest.ResponseRecorder) string {
	t.Helper()
	var body map[string]any
	require.NoError(t, json.Unmarshal(recorder.Body.Bytes(), &body))
	message, _ := body["error"].(string)
	if message == "" {
		message, _ = body["message"].(string)
	}
	return message
}

func TestDeleteOccupiedTableIsRejected(t *testing.T) {
	store := newFakeStore()
	occupied := store.add(t, 1, StatusOccupied)
	handler := NewHandler(store)

	recorder := doRequest(t, handler.Delete, http.MethodDelete, "/tables/"+occupied.ID, "")
	assert.Equal(t, http.StatusConflict, recorder.Code)
	assert.Contains(t, errorMessage(t, recorder), "occupied")
	assert.Contains(t, store.tables, occupied.ID)
}

func TestDeleteBillPendingTableIsRejected(t *testing.T) {
	store := newFakeStore()
	pending := store.add(t, 2, StatusBillPending)
	handler := NewHandler(store)

	recorder := doRequest(t, handler.Delete, http.MethodDelete, "/tables/"+pending.ID, "")
	assert.Equal(t, http.StatusConflict, recorder.Code)
}

func TestDeleteTableWithOpenOrderIsRejected(t *testing.T) {
	store := newFakeStore()
	available := store.add(t, 3, StatusAvailable)
	store.openOrders[available.ID] = true
	handler := NewHandler(store)

	recorder := doRequest(t, handler.Delete, http.MethodDelete, "/tables/"+available.ID, "")
	assert.Equal(t, http.StatusConflict, recorder.Code)
	assert.Contains(t, errorMessage(t, recorder), "open orders")
}

func TestDeleteAvailableTableSucceeds(t *testing.T) {
	store := newFakeStore()
	available := store.add(t, 4, StatusAvailable)
	handler := NewHandler(store)

	recorder := doRequest(t, handler.Delete, http.MethodDelete, "/tables/"+available.ID, "")
	assert.Equal(t, http.StatusOK, recorder.Code)
	assert.NotContains(t, store.tables, available.ID)
}

func TestDeleteUnknownTableReturnsNotFound(t *testing.T) {
	handler := NewHandler(newFakeStore())
	id, err := uuid.NewV7()
	require.NoError(t, err)

	recorder := doRequest(t, handler.Delete, http.MethodDelete, "/tables/"+id.String(), "")
	assert.Equal(t, http.StatusNotFound, recorder.Code)
}

func TestCreateTableRejectsDuplicateNumber(t *testing.T) {
	store := newFakeStore()
	store.add(t, 7, StatusAvailable)
	handler := NewHandler(store)

	recorder := doRequest(t, handler.Create, http.MethodPost, "/tables",
		`{"number":7,"capacity":4}`)
	assert.Equal(t, http.StatusConflict, recorder.Code)
}

func TestUpdateTableStatusBlockedByOpenOrder(t *testing.T) {
	store := newFakeStore()
	occupied := store.add(t, 8, StatusOccupied)
	store.openOrders[occupied.ID] = true
	handler := NewHandler(store)

	recorder := doRequest(t, handler.Update, http.MethodPut, "/tables/"+occupied.ID,
		`{"number":8,"capacity":4,"status":"AVAILABLE"}`)
	assert.Equal(t, http.StatusConflict, recorder.Code)
	assert.Equal(t, StatusOccupied, store.tables[occupied.ID].Status)
}

func TestUpdateTableUniquenessExcludesSelf(t *testing.T) {
	store := newFakeStore()
	table := store.add(t, 9, StatusAvailable)
	handler := NewHandler(store)

	// Keeping its own number must not trip the uniqueness guard.
	recorder := doRequest(t, handler.Update, http.MethodPut, "/tables/"+table.ID,
		`{"number":9,"capacity":6,"status":"AVAILABLE"}`)
	assert.Equal(t, http.StatusOK, recorder.Code)
	assert.Equal(t, 6, store.tables[table.ID].Capacity)

	// Taking another table's number must.
	store.add(t, 10, StatusAvailable)
	recorder = doRequest(t, handler.Update, http.MethodPut, "/tables/"+table.ID,
		`{"number":10,"capacity":6,"status":"AVAILABLE"}`)
	assert.Equal(t, http.StatusConflict, recorder.Code)
}
