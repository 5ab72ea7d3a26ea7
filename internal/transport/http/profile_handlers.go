package http

import (
	"errors"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog"
	"github.com/samber/lo"

	"github.com/vovakirdan/matchchat-server/internal/service/matches"
	"github.com/vovakirdan/matchchat-server/internal/store"
)

// ProfileHandlers provides HTTP handlers for profile and match endpoints.
type ProfileHandlers struct {
	profiles store.ProfileStore
	linker   *matches.Linker
	log      *zerolog.Logger
}

// NewProfileHandlers creates profile handlers.
func NewProfileHandlers(profiles store.ProfileStore, linker *matches.Linker, logger *zerolog.Logger) *ProfileHandlers {
	return &ProfileHandlers{
		profiles: profiles,
		linker:   linker,
		log:      logger,
	}
}

// SaveProfileRequest is the body of POST /saveData.
type SaveProfileRequest struct {
	Phone      string                 `json:"phone"`
	FirstName  string                 `json:"firstName" binding:"required"`
	LastName   string                 `json:"lastName"`
	Age        Age                    `json:"age" binding:"gte=0"`
	Occupation string                 `json:"occupation"`
	PhotoURL   string                 `json:"photoURL"`
	Match      []ProfileEntryResponse `json:"match"`
	Pass       []ProfileEntryResponse `json:"pass"`
}

// UpdateProfileRequest is the body of PUT /updateData/:id.
// Field "match" or "pass" adds an entry for Value; anything else overwrites the profile fields.
type UpdateProfileRequest struct {
	Field          string  `json:"field"`
	Value          string  `json:"value"`
	MatchFirstName string  `json:"matchFirstName"`
	MatchLastName  string  `json:"matchLastName"`
	MatchPhotoURL  string  `json:"matchPhotoURL"`
	ConversationID *string `json:"conversationID"`

	FirstName  string `json:"firstName"`
	LastName   string `json:"lastName"`
	Age        Age    `json:"age" binding:"gte=0"`
	Occupation string `json:"occupation"`
	PhotoURL   string `json:"photoURL"`
}

// LinkMatchRequest is the body of PUT /updateExsistingMatch/:id.
type LinkMatchRequest struct {
	Value          string `json:"value" binding:"required"`
	ConversationID string `json:"conversationID" binding:"required"`
}

// EnsureConversationRequest is the body of POST /matches/conversation.
type EnsureConversationRequest struct {
	ProfileID string `json:"profileID" binding:"required"`
	MatchID   string `json:"matchID" binding:"required"`
}

// ListPeople lists profiles filtered by query parameters.
// GET /people
func (h *ProfileHandlers) ListPeople(c *gin.Context) {
	filter := store.ProfileFilter{
		Phone:      c.Query("phone"),
		FirstName:  c.Query("firstName"),
		LastName:   c.Query("lastName"),
		Occupation: c.Query("occupation"),
	}
	if raw, ok := c.GetQuery("age"); ok {
		age, err := strconv.Atoi(raw)
		if err != nil {
			respondError(c, http.StatusBadRequest, "invalid age", err)
			return
		}
		filter.Age = &age
	}

	people, err := h.profiles.ListProfiles(c.Request.Context(), filter)
	if err != nil {
		h.log.Error().Err(err).Msg("failed to list profiles")
		respondError(c, http.StatusInternalServerError, "failed to list people", err)
		return
	}

	c.JSON(http.StatusOK, lo.Map(people, func(p *store.Profile, _ int) ProfileResponse {
		return profileToResponse(p)
	}))
}

// GetUser returns a profile by ID.
// GET /user/:id and GET /matchFound/:id
func (h *ProfileHandlers) GetUser(c *gin.Context) {
	id := c.Param("id")

	profile, err := h.profiles.GetProfile(c.Request.Context(), id)
	if err != nil {
		h.profileError(c, err, id)
		return
	}

	c.JSON(http.StatusOK, profileToResponse(profile))
}

// GetUserByPhone returns the profile registered with a phone number.
// GET /getUser/:phone
func (h *ProfileHandlers) GetUserByPhone(c *gin.Context) {
	phone := c.Param("phone")

	profile, err := h.profiles.GetProfileByPhone(c.Request.Context(), phone)
	if err != nil {
		if errors.Is(err, store.ErrProfileNotFound) {
			respondError(c, http.StatusNotFound, "user not found", nil)
			return
		}
		h.log.Error().Err(err).Msg("failed to get profile by phone")
		respondError(c, http.StatusInternalServerError, "internal server error", err)
		return
	}

	c.JSON(http.StatusOK, profileToResponse(profile))
}

// SaveData creates a profile.
// POST /saveData
func (h *ProfileHandlers) SaveData(c *gin.Context) {
	var req SaveProfileRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.log.Debug().Err(err).Msg("invalid save profile request")
		respondError(c, http.StatusBadRequest, "invalid request body", err)
		return
	}

	profile, err := h.profiles.CreateProfile(c.Request.Context(), &store.Profile{
		Phone:      req.Phone,
		FirstName:  req.FirstName,
		LastName:   req.LastName,
		Age:        int(req.Age),
		Occupation: req.Occupation,
		PhotoURL:   req.PhotoURL,
		Match:      lo.Map(req.Match, func(e ProfileEntryResponse, _ int) store.MatchEntry { return entryFromRequest(e) }),
		Pass:       lo.Map(req.Pass, func(e ProfileEntryResponse, _ int) store.MatchEntry { return entryFromRequest(e) }),
	})
	if err != nil {
		if errors.Is(err, store.ErrDuplicatePhone) {
			respondError(c, http.StatusConflict, "phone already registered", nil)
			return
		}
		h.log.Error().Err(err).Msg("failed to create profile")
		respondError(c, http.StatusInternalServerError, "failed to save user", err)
		return
	}

	h.log.Info().Str("profile_id", profile.ID).Msg("profile created")
	c.JSON(http.StatusCreated, profileToResponse(profile))
}

// UpdateData adds a match or pass entry, or overwrites the profile fields.
// PUT /updateData/:id
func (h *ProfileHandlers) UpdateData(c *gin.Context) {
	id := c.Param("id")

	var req UpdateProfileRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.log.Debug().Err(err).Msg("invalid update profile request")
		respondError(c, http.StatusBadRequest, "invalid request body", err)
		return
	}

	var (
		profile *store.Profile
		err     error
	)
	switch req.Field {
	case string(store.EntryKindMatch), string(store.EntryKindPass):
		if req.Value == "" {
			respondError(c, http.StatusBadRequest, "value is required", nil)
			return
		}
		profile, err = h.profiles.AddEntry(c.Request.Context(), id, store.EntryKind(req.Field), store.MatchEntry{
			MatchID:        req.Value,
			FirstName:      req.MatchFirstName,
			LastName:       req.MatchLastName,
			PhotoURL:       req.MatchPhotoURL,
			ConversationID: req.ConversationID,
		})
	default:
		profile, err = h.profiles.UpdateProfileFields(c.Request.Context(), id, store.ProfileFields{
			FirstName:  req.FirstName,
			LastName:   req.LastName,
			Age:        int(req.Age),
			Occupation: req.Occupation,
			PhotoURL:   req.PhotoURL,
		})
	}
	if err != nil {
		h.profileError(c, err, id)
		return
	}

	c.JSON(http.StatusOK, UserUpdatedResponse{
		Message: "User updated successfully",
		User:    profileToResponse(profile),
	})
}

// UpdateExistingMatch links a conversation to one of the profile's matches.
// PUT /updateExsistingMatch/:id
func (h *ProfileHandlers) UpdateExistingMatch(c *gin.Context) {
	id := c.Param("id")

	var req LinkMatchRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.log.Debug().Err(err).Msg("invalid link match request")
		respondError(c, http.StatusBadRequest, "invalid request body", err)
		return
	}

	if err := h.linker.LinkConversation(c.Request.Context(), id, req.Value, req.ConversationID); err != nil {
		if errors.Is(err, matches.ErrMatchNotFound) {
			respondError(c, http.StatusNotFound, "Match not found", nil)
			return
		}
		h.profileError(c, err, id)
		return
	}

	c.JSON(http.StatusOK, MessageResponse{Message: "Match updated successfully"})
}

// EnsureConversation returns the conversation shared by two matched profiles, creating it if needed.
// POST /matches/conversation
func (h *ProfileHandlers) EnsureConversation(c *gin.Context) {
	var req EnsureConversationRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.log.Debug().Err(err).Msg("invalid ensure conversation request")
		respondError(c, http.StatusBadRequest, "invalid request body", err)
		return
	}

	id, err := h.linker.EnsureConversation(c.Request.Context(), req.ProfileID, req.MatchID)
	if err != nil {
		switch {
		case errors.Is(err, matches.ErrSameProfile):
			respondError(c, http.StatusBadRequest, "cannot match a profile with itself", nil)
		case errors.Is(err, matches.ErrMatchNotFound):
			respondError(c, http.StatusNotFound, "Match not found", nil)
		default:
			h.profileError(c, err, req.ProfileID)
		}
		return
	}

	c.JSON(http.StatusOK, EnsureConversationResponse{
		Message:        "Conversation ready",
		ConversationID: id,
	})
}

func (h *ProfileHandlers) profileError(c *gin.Context, err error, profileID string) {
	if errors.Is(err, store.ErrProfileNotFound) {
		respondError(c, http.StatusNotFound, "User not found", nil)
		return
	}
	h.log.Error().Err(err).Str("profile_id", profileID).Msg("profile operation failed")
	respondError(c, http.StatusInternalServerError, "internal server error", err)
}
