package user

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"
)

type fakeStore struct {
	users map[string]*User
	roles map[string]*Role
}

func newFakeStore() *fakeStore {
	return &fakeStore{users: make(map[string]*User), roles: make(map[string]*Role)}
}

func (s *fakeStore) addUser(t *testing.T, name, email string) *User {
	t.Helper()
	hash, err := bcrypt.GenerateFromPassword([]byte("Secret1!"), bcrypt.MinCost)
	require.NoError(t, err)
	u := &User{ID: newID(t), Name: name, Email: email, PasswordHash: string(hash), RoleID: newID(t), IsActive: true}
	s.users[u.ID] = u
	return u
}

func (s *fakeStore) List(context.Context) ([]User, error) {
	out := make([]User, 0, len(s.users))
	for _, u := range s.users {
		out = append(out, *u)
	}
	return out, nil
}

func (s *fakeStore) Get(_ context.Context, id string) (*User, error) {
	u, ok := s.users[id]
	if !ok {
		return nil, nil
	}
	copied := *u
	return &copied, nil
}

func (s *fakeStore) GetByEmail(_ context.Context, email, excludeID string) (*User, error) {
	for _, u := range s.users {
		if u.Email == email && u.ID != excludeID {
			copied := *u
			return &copied, nil
		}
	}
	return nil, nil
}

func (s *fakeStore) Create(_ context.Context, input UserInput, passwordHash string) (User, error) {
	id, _ := uuid.NewV7()
	u := User{ID: id.String(), Name: input.Name, Email: input.Email, PasswordHash: passwordHash, RoleID: input.RoleID, IsActive: true}
	s.users[u.ID] = &u
	return u, nil
}

func (s *fakeStore) Update(_ context.Context, id string, input UserInput, passwordHash string) (User, error) {
	u := s.users[id]
	u.Name = input.Name
	u.Email = input.Email
	u.PasswordHash = passwordHash
	u.RoleID = input.RoleID
	return *u, nil
}

func (s *fakeStore) Deactivate(_ context.Context, id string) (User, error) {
	u := s.users[id]
	u.IsActive = false
	return *u, nil
}

func (s *fakeStore) ListRoles(context.Context) ([]Role, error) {
	out := make([]Role, 0, len(s.roles))
	for _, role := range s.roles {
		out = append(out, *role)
	}
	return out, nil
}

func (s *fakeStore) GetRole(_ context.Context, id string) (*Role, error) {
	role, ok := s.roles[id]
	if !ok {
		return nil, nil
	}
	copied := *role
	return &copied, nil
}

func (s *fakeStore) GetRoleByName(_ context.Context, name, excludeID string) (*Role, error) {
	for _, role := range s.roles {
		if role.Name == name && role.ID != excludeID {
			copied := *role
			return &copied, nil
		}
	}
	return nil, nil
}

func (s *fakeStore) CreateRole(_ context.Context, input RoleInput) (Role, error) {
	id, _ := uuid.NewV7()
	role := Role{ID: id.String(), Name: input.Name, Description: input.Description, Permissions: input.Permissions}
	s.roles[role.ID] = &role
	return role, nil
}

func (s *fakeStore) UpdateRole(_ context.Context, id string, input RoleInput) (Role, error) {
	role := s.roles[id]
	role.Name = input.Name
	role.Description = input.Description
	role.Permissions = input.Permissions
	return *role, nil
}

func (s *fakeStore) DeleteRole(_ context.Context, id string) error {
	delete(s.roles, id)
	return nil
}

func (s *fakeStore) CountUsersWithRole(_ context.Context, roleID string) (int, error) {
	count := 0
	for _, u := range s.users {
		if u.RoleID == roleID {
			count++
		}
	}
	return count, nil
}

func newID(t *testing.T) string {
	t.Helper()
	id, err := uuid.NewV7()
	require.NoError(t, err)
	return id.String()
}

func doRequest(t *testing.T, handler http.HandlerFunc, pattern, method, target, body string) *httptest.ResponseRecorder {
	t.Helper()
	req := httptest.NewRequest(method, target, strings.NewReader(body))
	recorder := httptest.NewRecorder()

	mux := http.NewServeMux()
	mux.HandleFunc(method+" "+pattern, handler)
	mux.ServeHTTP(recorder, req)
	return recorder
}

func userBody(t *testing.T, email string) string {
	t.Helper()
	return fmt.Sprintf(`{"name":"Ana","email":"%s","password":"Str0ng!pass","role_id":"%s"}`, email, newID(t))
}

func TestCreateUser(t *testing.T) {
	store := newFakeStore()
	handler := NewHandler(store)

	recorder := doRequest(t, handler.Create, "/users", http.MethodPost, "/users", userBody(t, "ana@comandapp.dev"))
	require.Equal(t, http.StatusCreated, recorder.Code)

	var created User
	require.NoError(t, json.Unmarshal(recorder.Body.Bytes(), &created))
	assert.True(t, created.IsActive)
	assert.NotContains(t, recorder.Body.String(), "password_hash")
}

func TestCreateUserRejectsDuplicateEmail(t *testing.T) {
	store := newFakeStore()
	store.addUser(t, "Ana", "ana@comandapp.dev")
	handler := NewHandler(store)

	recorder := doRequest(t, handler.Create, "/users", http.MethodPost, "/users", userBody(t, "ana@comandapp.dev"))
	assert.Equal(t, http.StatusConflict, recorder.Code)
}

func TestCreateUserRejectsWeakPassword(t *testing.T) {
	handler := NewHandler(newFakeStore())

	body := fmt.Sprintf(`{"name":"Ana","email":"ana@comandapp.dev","password":"short","role_id":"%s"}`, newID(t))
	recorder := doRequest(t, handler.Create, "/users", http.MethodPost, "/users", body)
	assert.Equal(t, http.StatusBadRequest, recorder.Code)
	assert.Contains(t, recorder.Body.String(), "security requirements")
}

func TestUpdateUserKeepsPasswordWhenEmpty(t *testing.T) {
	store := newFakeStore()
	ana := store.addUser(t, "Ana", "ana@comandapp.dev")
	originalHash := ana.PasswordHash
	handler := NewHandler(store)

	body := fmt.Sprintf(`{"name":"Ana Maria","email":"ana@comandapp.dev","role_id":"%s"}`, ana.RoleID)
	recorder := doRequest(t, handler.Update, "/users/{id}", http.MethodPut, "/users/"+ana.ID, body)
	require.Equal(t, http.StatusOK, recorder.Code)
	assert.Equal(t, originalHash, store.users[ana.ID].PasswordHash)
	assert.Equal(t, "Ana Maria", store.users[ana.ID].Name)
}

func TestUpdateUserEmailUniquenessExcludesSelf(t *testing.T) {
	store := newFakeStore()
	ana := store.addUser(t, "Ana", "ana@comandapp.dev")
	store.addUser(t, "Bruno", "bruno@comandapp.dev")
	handler := NewHandler(store)

	// Keeping her own email is fine.
	body := fmt.Sprintf(`{"name":"Ana","email":"ana@comandapp.dev","role_id":"%s"}`, ana.RoleID)
	recorder := doRequest(t, handler.Update, "/users/{id}", http.MethodPut, "/users/"+ana.ID, body)
	assert.Equal(t, http.StatusOK, recorder.Code)

	// Taking Bruno's email is not.
	body = fmt.Sprintf(`{"name":"Ana","email":"bruno@comandapp.dev","role_id":"%s"}`, ana.RoleID)
	recorder = doRequest(t, handler.Update, "/users/{id}", http.MethodPut, "/users/"+ana.ID, body)
	assert.Equal(t, http.StatusConflict, recorder.Code)
}

func TestDeleteUserDeactivates(t *testing.T) {
	store := newFakeStore()
	ana := store.addUser(t, "Ana", "ana@comandapp.dev")
	handler := NewHandler(store)

	recorder := doRequest(t, handler.Delete, "/users/{id}", http.MethodDelete, "/users/"+ana.ID, "")
	require.Equal(t, http.StatusOK, recorder.Code)
	assert.Contains(t, recorder.Body.String(), "deactivated")

	// The record survives, only the flag flips.
	require.Contains(t, store.users, ana.ID)
	assert.False(t, store.users[ana.ID].IsActive)
}

func TestCreateRole(t *testing.T) {
	store := newFakeStore()
	handler := NewRoleHandler(store)

	recorder := doRequest(t, handler.Create, "/roles", http.MethodPost, "/roles",
		`{"name":"cashier","description":"Caja","permissions":["PROCESS_PAYMENTS","VIEW_REPORTS"]}`)
	require.Equal(t, http.StatusCreated, recorder.Code)

	var created Role
	require.NoError(t, json.Unmarshal(recorder.Body.Bytes(), &created))
	assert.Equal(t, "CASHIER", created.Name)
	assert.ElementsMatch(t, []string{"PROCESS_PAYMENTS", "VIEW_REPORTS"}, created.Permissions)
}

func TestCreateRoleRejectsUnknownPermission(t *testing.T) {
	handler := NewRoleHandler(newFakeStore())

	recorder := doRequest(t, handler.Create, "/roles", http.MethodPost, "/roles",
		`{"name":"CASHIER","permissions":["RULE_THE_WORLD"]}`)
	assert.Equal(t, http.StatusBadRequest, recorder.Code)
	assert.Contains(t, recorder.Body.String(), "unknown permission")
}

func TestCreateRoleRejectsDuplicateName(t *testing.T) {
	store := newFakeStore()
	handler := NewRoleHandler(store)

	body := `{"name":"CASHIER","permissions":["PROCESS_PAYMENTS"]}`
	recorder := doRequest(t, handler.Create, "/roles", http.MethodPost, "/roles", body)
	require.Equal(t, http.StatusCreated, recorder.Code)

	recorder = doRequest(t, handler.Create, "/roles", http.MethodPost, "/roles", body)
	assert.Equal(t, http.StatusConflict, recorder.Code)
}

func (s *fakeStore) addRole(t *testing.T, name string, permissions ...string) *Role {
	t.Helper()
	role := &Role{ID: newID(t), Name: name, Permissions: permissions}
	s.roles[role.ID] = role
	return role
}

func TestUpdateRole(t *testing.T) {
	store := newFakeStore()
	cashier := store.addRole(t, "CASHIER", PermProcessPayments)
	handler := NewRoleHandler(store)

	body := `{"name":"cashier","description":"Caja y reportes","permissions":["PROCESS_PAYMENTS","VIEW_REPORTS"]}`
	recorder := doRequest(t, handler.Update, "/roles/{id}", http.MethodPut, "/roles/"+cashier.ID, body)
	require.Equal(t, http.StatusOK, recorder.Code)

	var updated Role
	require.NoError(t, json.Unmarshal(recorder.Body.Bytes(), &updated))
	assert.Equal(t, "CASHIER", updated.Name)
	assert.Equal(t, "Caja y reportes", updated.Description)
	assert.ElementsMatch(t, []string{PermProcessPayments, PermViewReports}, updated.Permissions)
}

func TestUpdateRoleNameUniquenessExcludesSelf(t *testing.T) {
	store := newFakeStore()
	cashier := store.addRole(t, "CASHIER", PermProcessPayments)
	store.addRole(t, "HOST", PermManageTables)
	handler := NewRoleHandler(store)

	// Keeping its own name is fine.
	body := `{"name":"CASHIER","permissions":["PROCESS_PAYMENTS"]}`
	recorder := doRequest(t, handler.Update, "/roles/{id}", http.MethodPut, "/roles/"+cashier.ID, body)
	assert.Equal(t, http.StatusOK, recorder.Code)

	// Taking another role's name is not.
	body = `{"name":"HOST","permissions":["PROCESS_PAYMENTS"]}`
	recorder = doRequest(t, handler.Update, "/roles/{id}", http.MethodPut, "/roles/"+cashier.ID, body)
	assert.Equal(t, http.StatusConflict, recorder.Code)
}

func TestUpdateRoleRejectsUnknownPermission(t *testing.T) {
	store := newFakeStore()
	cashier := store.addRole(t, "CASHIER", PermProcessPayments)
	handler := NewRoleHandler(store)

	recorder := doRequest(t, handler.Update, "/roles/{id}", http.MethodPut, "/roles/"+cashier.ID,
		`{"name":"CASHIER","permissions":["RULE_THE_WORLD"]}`)
	assert.Equal(t, http.StatusBadRequest, recorder.Code)
	assert.Contains(t, recorder.Body.String(), "unknown permission")
}

func TestUpdateRoleNotFound(t *testing.T) {
	handler := NewRoleHandler(newFakeStore())

	recorder := doRequest(t, handler.Update, "/roles/{id}", http.MethodPut, "/roles/"+newID(t),
		`{"name":"CASHIER","permissions":["PROCESS_PAYMENTS"]}`)
	assert.Equal(t, http.StatusNotFound, recorder.Code)
}

func TestDeleteRole(t *testing.T) {
	store := newFakeStore()
	cashier := store.addRole(t, "CASHIER", PermProcessPayments)
	handler := NewRoleHandler(store)

	recorder := doRequest(t, handler.Delete, "/roles/{id}", http.MethodDelete, "/roles/"+cashier.ID, "")
	require.Equal(t, http.StatusOK, recorder.Code)
	assert.NotContains(t, store.roles, cashier.ID)
}

func TestDeleteRoleRejectsAssignedUsers(t *testing.T) {
	store := newFakeStore()
	cashier := store.addRole(t, "CASHIER", PermProcessPayments)
	ana := store.addUser(t, "Ana", "ana@comandapp.dev")
	ana.RoleID = cashier.ID
	handler := NewRoleHandler(store)

	recorder := doRequest(t, handler.Delete, "/roles/{id}", http.MethodDelete, "/roles/"+cashier.ID, "")
	assert.Equal(t, http.StatusConflict, recorder.Code)
	assert.Contains(t, recorder.Body.String(), "assigned users")
	assert.Contains(t, store.roles, cashier.ID)
}

func TestListPermissions(t *testing.T) {
	handler := NewRoleHandler(newFakeStore())

	recorder := doRequest(t, handler.Permissions, "/roles/permissions", http.MethodGet, "/roles/permissions", "")
	require.Equal(t, http.StatusOK, recorder.Code)

	var body map[string][]string
	require.NoError(t, json.Unmarshal(recorder.Body.Bytes(), &body))
	assert.ElementsMatch(t, AllPermissions(), body["permissions"])
	assert.Contains(t, body["permissions"], PermKitchenAccess)
}
