package handlers

import (
	"encoding/json"
	"errors"
	"log"
	"net/http"
	"time"

	"github.com/scrypster/sous/internal/storage"
	"github.com/scrypster/sous/pkg/types"
)

// PreferencesHandler serves the admin API for per-user preferences.
type PreferencesHandler struct {
	store storage.UserStore
	now   func() time.Time
}

// NewPreferencesHandler creates a preferences handler.
func NewPreferencesHandler(store storage.UserStore) *PreferencesHandler {
	return &PreferencesHandler{store: store, now: time.Now}
}

// preferencesPatch is the partial-update request body. Each nil field keeps
// its stored value.
type preferencesPatch struct {
	ChefPersonality     *string   `json:"chef_personality"`
	DietaryRestrictions *[]string `json:"dietary_restrictions"`
	FavoriteCuisines    *[]string `json:"favorite_cuisines"`
	CookingSkillLevel   *string   `json:"cooking_skill_level"`
	SpicePreference     *string   `json:"spice_preference"`
	Allergies           *[]string `json:"allergies"`
}

// validPersonalities guards the preference update from arbitrary values.
var validPersonalities = map[types.ChefPersonality]bool{
	types.PersonalityFunny:       true,
	types.PersonalityDirect:      true,
	types.PersonalityWarm:        true,
	types.PersonalityInformative: true,
}

// Get handles GET /api/users/{phone}/preferences.
func (h *PreferencesHandler) Get(w http.ResponseWriter, r *http.Request) {
	phone := r.PathValue("phone")
	user, err := h.store.FindByPhone(r.Context(), phone)
	if err != nil {
		h.storeError(w, err)
		return
	}
	h.writePrefs(w, user.Preferences)
}

// Update handles PUT /api/users/{phone}/preferences with a partial body.
func (h *PreferencesHandler) Update(w http.ResponseWriter, r *http.Request) {
	phone := r.PathValue("phone")
	user, err := h.store.FindByPhone(r.Context(), phone)
	if err != nil {
		h.storeError(w, err)
		return
	}

	var patch preferencesPatch
	if err := json.NewDecoder(r.Body).Decode(&patch); err != nil {
		http.Error(w, `{"error":"invalid JSON body"}`, http.StatusBadRequest)
		return
	}

	prefs := user.Preferences
	if patch.ChefPersonality != nil {
		personality := types.ChefPersonality(*patch.ChefPersonality)
		if !validPersonalities[personality] {
			http.Error(w, `{"error":"unknown chef_personality"}`, http.StatusBadRequest)
			return
		}
		prefs.ChefPersonality = personality
	}
	if patch.DietaryRestrictions != nil {
		prefs.DietaryRestrictions = *patch.DietaryRestrictions
	}
	if patch.FavoriteCuisines != nil {
		prefs.FavoriteCuisines = *patch.FavoriteCuisines
	}
	if patch.CookingSkillLevel != nil {
		prefs.CookingSkillLevel = *patch.CookingSkillLevel
	}
	if patch.SpicePreference != nil {
		prefs.SpicePreference = *patch.SpicePreference
	}
	if patch.Allergies != nil {
		prefs.Allergies = *patch.Allergies
	}

	if err := h.store.UpdatePreferences(r.Context(), user.UserID, prefs, h.now().UTC()); err != nil {
		h.storeError(w, err)
		return
	}
	h.writePrefs(w, prefs)
}

func (h *PreferencesHandler) writePrefs(w http.ResponseWriter, prefs types.Preferences) {
	w.Header().Set("Content-Type", "application/json")
	if err := json.NewEncoder(w).Encode(prefs); err != nil {
		log.Printf("preferences: failed to encode response: %v", err)
	}
}

func (h *PreferencesHandler) storeError(w http.ResponseWriter, err error) {
	if errors.Is(err, storage.ErrNotFound) {
		http.Error(w, `{"error":"user not found"}`, http.StatusNotFound)
		return
	}
	log.Printf("preferences: storage error: %v", err)
	http.Error(w, `{"error":"internal error"}`, http.StatusInternalServerError)
}
