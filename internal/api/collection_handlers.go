package api

import (
	"errors"
	"net/http"
	"strconv"

	"github.com/Mmohamed-56/StudyMon/internal/constants"
	"github.com/Mmohamed-56/StudyMon/internal/service"
	"github.com/Mmohamed-56/StudyMon/internal/storage"
	"github.com/gin-gonic/gin"
)

// CollectionHandler exposes collection, party and trainer profile endpoints.
type CollectionHandler struct {
	collection *service.CollectionService
}

func NewCollectionHandler(collection *service.CollectionService) *CollectionHandler {
	return &CollectionHandler{collection: collection}
}

// ListSpecies returns the species catalog (public).
func (h *CollectionHandler) ListSpecies(c *gin.Context) {
	species, err := h.collection.SpeciesCatalog()
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{constants.JSONKeyError: constants.ErrFailedFetchSpecies})
		return
	}
	c.JSON(http.StatusOK, species)
}

// ListCollection returns every creature the session user owns.
func (h *CollectionHandler) ListCollection(c *gin.Context) {
	owned, err := h.collection.ListCollection(sessionEmail(c))
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{constants.JSONKeyError: constants.ErrFailedFetchParty})
		return
	}
	c.JSON(http.StatusOK, owned)
}

type partyPositionRequest struct {
	// Position 1..4 places the creature; null benches it.
	Position *int `json:"position"`
}

// SetPartyPosition moves a creature into or out of the party.
func (h *CollectionHandler) SetPartyPosition(c *gin.Context) {
	id, err := strconv.ParseUint(c.Param("creatureID"), 10, 32)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{constants.JSONKeyError: constants.ErrInvalidRequest})
		return
	}
	var req partyPositionRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{constants.JSONKeyError: constants.ErrInvalidRequest})
		return
	}
	err = h.collection.SetPartyPosition(sessionEmail(c), uint(id), req.Position)
	switch {
	case err == nil:
		c.JSON(http.StatusOK, gin.H{constants.JSONKeyMessage: "party updated"})
	case errors.Is(err, storage.ErrNotOwned):
		c.JSON(http.StatusForbidden, gin.H{constants.JSONKeyError: constants.ErrNotOwner})
	case errors.Is(err, service.ErrNotInParty):
		c.JSON(http.StatusBadRequest, gin.H{constants.JSONKeyError: constants.ErrFailedUpdateParty})
	default:
		c.JSON(http.StatusInternalServerError, gin.H{constants.JSONKeyError: constants.ErrFailedUpdateParty})
	}
}

// HealAll restores the whole collection to full HP and SP.
func (h *CollectionHandler) HealAll(c *gin.Context) {
	if err := h.collection.HealAll(sessionEmail(c)); err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{constants.JSONKeyError: constants.ErrFailedHealParty})
		return
	}
	c.JSON(http.StatusOK, gin.H{constants.JSONKeyMessage: "all creatures healed"})
}

type starterRequest struct {
	Species string `json:"species"`
}

// GrantStarter gives a new player their first creature.
func (h *CollectionHandler) GrantStarter(c *gin.Context) {
	var req starterRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{constants.JSONKeyError: constants.ErrInvalidRequest})
		return
	}
	summary, err := h.collection.GrantStarter(sessionEmail(c), req.Species)
	switch {
	case err == nil:
		c.JSON(http.StatusCreated, summary)
	case errors.Is(err, service.ErrStarterOwned):
		c.JSON(http.StatusConflict, gin.H{constants.JSONKeyError: constants.ErrStarterAlreadyOwned})
	case errors.Is(err, service.ErrSpeciesNotFound):
		c.JSON(http.StatusBadRequest, gin.H{constants.JSONKeyError: err.Error()})
	default:
		c.JSON(http.StatusInternalServerError, gin.H{constants.JSONKeyError: constants.ErrFailedGrantStarter})
	}
}

// GetPlayerStats returns the trainer profile aggregates.
func (h *CollectionHandler) GetPlayerStats(c *gin.Context) {
	stats, err := h.collection.Stats(sessionEmail(c))
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{constants.JSONKeyError: constants.ErrFailedFetchStats})
		return
	}
	c.JSON(http.StatusOK, stats)
}
