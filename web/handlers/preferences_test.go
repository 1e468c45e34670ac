package handlers

import (
	"context"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/scrypster/sous/pkg/types"
)

func prefsMux(h *PreferencesHandler) *http.ServeMux {
	mux := http.NewServeMux()
	mux.HandleFunc("GET /api/users/{phone}/preferences", h.Get)
	mux.HandleFunc("PUT /api/users/{phone}/preferences", h.Update)
	return mux
}

func TestPreferencesGet(t *testing.T) {
	store := newMemStore()
	user := types.NewUser("+4915112345678", time.Now())
	require.NoError(t, store.Insert(context.Background(), user))
	mux := prefsMux(NewPreferencesHandler(store))

	rec := httptest.NewRecorder()
	mux.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/api/users/+4915112345678/preferences", nil))

	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), `"chef_personality":"warm"`)
}

func TestPreferencesGetUnknownUser(t *testing.T) {
	mux := prefsMux(NewPreferencesHandler(newMemStore()))

	rec := httptest.NewRecorder()
	mux.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/api/users/+10000000000/preferences", nil))
	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestPreferencesPartialUpdate(t *testing.T) {
	store := newMemStore()
	user := types.NewUser("+4915112345678", time.Now())
	require.NoError(t, store.Insert(context.Background(), user))
	mux := prefsMux(NewPreferencesHandler(store))

	body := `{"chef_personality": "funny", "allergies": ["peanuts"]}`
	req := httptest.NewRequest(http.MethodPut, "/api/users/+4915112345678/preferences", strings.NewReader(body))
	rec := httptest.NewRecorder()
	mux.ServeHTTP(rec, req)

	require.Equal(t, http.StatusOK, rec.Code)

	updated, err := store.FindByPhone(context.Background(), "+4915112345678")
	require.NoError(t, err)
	assert.Equal(t, types.PersonalityFunny, updated.Preferences.ChefPersonality)
	assert.Equal(t, []string{"peanuts"}, updated.Preferences.Allergies)
	// Untouched fields keep their stored values.
	assert.Equal(t, "beginner", updated.Preferences.CookingSkillLevel)
	assert.Equal(t, "medium", updated.Preferences.SpicePreference)
}

func TestPreferencesRejectsUnknownPersonality(t *testing.T) {
	store := newMemStore()
	require.NoError(t, store.Insert(context.Background(), types.NewUser("+4915112345678", time.Now())))
	mux := prefsMux(NewPreferencesHandler(store))

	req := httptest.NewRequest(http.MethodPut, "/api/users/+4915112345678/preferences",
		strings.NewReader(`{"chef_personality": "sarcastic"}`))
	rec := httptest.NewRecorder()
	mux.ServeHTTP(rec, req)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestPreferencesRejectsBadJSON(t *testing.T) {
	store := newMemStore()
	require.NoError(t, store.Insert(context.Background(), types.NewUser("+4915112345678", time.Now())))
	mux := prefsMux(NewPreferencesHandler(store))

	req := httptest.NewRequest(http.MethodPut, "/api/users/+4915112345678/preferences",
		strings.NewReader(`{not json`))
	rec := httptest.NewRecorder()
	mux.ServeHTTP(rec, req)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}
