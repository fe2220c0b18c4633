package api

import (
	"errors"
	"net/http"

	"github.com/Mmohamed-56/StudyMon/internal/constants"
	"github.com/Mmohamed-56/StudyMon/internal/engine"
	"github.com/Mmohamed-56/StudyMon/internal/game"
	"github.com/Mmohamed-56/StudyMon/internal/service"
	"github.com/Mmohamed-56/StudyMon/internal/storage"
	"github.com/gin-gonic/gin"
)

// BattleHandler exposes the battle endpoints.
type BattleHandler struct {
	battles *service.BattleService
}

func NewBattleHandler(battles *service.BattleService) *BattleHandler {
	return &BattleHandler{battles: battles}
}

// battleError maps service and engine sentinels onto HTTP responses.
func battleError(c *gin.Context, err error) {
	switch {
	case errors.Is(err, service.ErrNoBattle):
		c.JSON(http.StatusNotFound, gin.H{constants.JSONKeyError: constants.ErrNoBattleInProgress})
	case errors.Is(err, service.ErrBattleInProgress):
		c.JSON(http.StatusConflict, gin.H{constants.JSONKeyError: constants.ErrBattleAlreadyRunning})
	case errors.Is(err, service.ErrEmptyParty):
		c.JSON(http.StatusBadRequest, gin.H{constants.JSONKeyError: constants.ErrEmptyParty})
	case errors.Is(err, service.ErrNoPendingQuest):
		c.JSON(http.StatusBadRequest, gin.H{constants.JSONKeyError: constants.ErrNoPendingQuestion})
	case errors.Is(err, service.ErrNoPendingLevelUp):
		c.JSON(http.StatusBadRequest, gin.H{constants.JSONKeyError: constants.ErrNoPendingLevelUp})
	case errors.Is(err, service.ErrNotInParty), errors.Is(err, service.ErrFainted), errors.Is(err, service.ErrSkillNotEligible):
		c.JSON(http.StatusBadRequest, gin.H{constants.JSONKeyError: err.Error()})
	case errors.Is(err, engine.ErrNotPlayerTurn), errors.Is(err, engine.ErrNotOpponentTurn):
		c.JSON(http.StatusConflict, gin.H{constants.JSONKeyError: constants.ErrNotYourTurn})
	case errors.Is(err, engine.ErrBattleOver):
		c.JSON(http.StatusConflict, gin.H{constants.JSONKeyError: err.Error()})
	case errors.Is(err, engine.ErrInsufficientSP):
		c.JSON(http.StatusBadRequest, gin.H{constants.JSONKeyError: constants.ErrNotEnoughSP})
	case errors.Is(err, engine.ErrSkillNotKnown), errors.Is(err, engine.ErrNoSwitchPending):
		c.JSON(http.StatusBadRequest, gin.H{constants.JSONKeyError: err.Error()})
	case errors.Is(err, engine.ErrCatchNotEligible):
		c.JSON(http.StatusBadRequest, gin.H{constants.JSONKeyError: constants.ErrCatchNotEligible})
	case errors.Is(err, storage.ErrNotOwned):
		c.JSON(http.StatusForbidden, gin.H{constants.JSONKeyError: constants.ErrNotOwner})
	case errors.Is(err, storage.ErrNotFound):
		c.JSON(http.StatusNotFound, gin.H{constants.JSONKeyError: err.Error()})
	default:
		c.JSON(http.StatusInternalServerError, gin.H{constants.JSONKeyError: constants.ErrFailedCheckpoint, constants.JSONKeyDetails: err.Error()})
	}
}

// StartBattle begins a wild encounter.
func (h *BattleHandler) StartBattle(c *gin.Context) {
	view, err := h.battles.StartBattle(sessionEmail(c))
	if err != nil {
		battleError(c, err)
		return
	}
	c.JSON(http.StatusCreated, view)
}

// GetBattle returns the current battle snapshot.
func (h *BattleHandler) GetBattle(c *gin.Context) {
	view, err := h.battles.Snapshot(sessionEmail(c))
	if err != nil {
		battleError(c, err)
		return
	}
	c.JSON(http.StatusOK, view)
}

type questionRequest struct {
	Topic      string `json:"topic"`
	Difficulty string `json:"difficulty"`
}

// RequestQuestion issues a study question for SP.
func (h *BattleHandler) RequestQuestion(c *gin.Context) {
	var req questionRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{constants.JSONKeyError: constants.ErrInvalidRequest})
		return
	}
	difficulty, err := game.ParseDifficulty(req.Difficulty)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{constants.JSONKeyError: err.Error()})
		return
	}
	q, err := h.battles.RequestQuestion(c.Request.Context(), sessionEmail(c), req.Topic, difficulty)
	if err != nil {
		battleError(c, err)
		return
	}
	c.JSON(http.StatusOK, q)
}

type answerRequest struct {
	Answer string `json:"answer"`
}

// SubmitAnswer resolves the pending question (SP gain or catch).
func (h *BattleHandler) SubmitAnswer(c *gin.Context) {
	var req answerRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{constants.JSONKeyError: constants.ErrInvalidRequest})
		return
	}
	result, err := h.battles.SubmitAnswer(sessionEmail(c), req.Answer)
	if err != nil {
		battleError(c, err)
		return
	}
	c.JSON(http.StatusOK, result)
}

type skillRequest struct {
	SkillID uint `json:"skill_id"`
}

// UseSkill executes the player's attack.
func (h *BattleHandler) UseSkill(c *gin.Context) {
	var req skillRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{constants.JSONKeyError: constants.ErrInvalidRequest})
		return
	}
	view, err := h.battles.UseSkill(sessionEmail(c), req.SkillID)
	if err != nil {
		battleError(c, err)
		return
	}
	c.JSON(http.StatusOK, view)
}

type switchRequest struct {
	CreatureID uint `json:"creature_id"`
}

// Switch swaps the active party creature.
func (h *BattleHandler) Switch(c *gin.Context) {
	var req switchRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{constants.JSONKeyError: constants.ErrInvalidRequest})
		return
	}
	view, err := h.battles.Switch(sessionEmail(c), req.CreatureID)
	if err != nil {
		battleError(c, err)
		return
	}
	c.JSON(http.StatusOK, view)
}

// Catch starts a catch attempt by issuing its question.
func (h *BattleHandler) Catch(c *gin.Context) {
	var req questionRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{constants.JSONKeyError: constants.ErrInvalidRequest})
		return
	}
	difficulty, err := game.ParseDifficulty(req.Difficulty)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{constants.JSONKeyError: err.Error()})
		return
	}
	q, err := h.battles.BeginCatch(c.Request.Context(), sessionEmail(c), req.Topic, difficulty)
	if err != nil {
		battleError(c, err)
		return
	}
	c.JSON(http.StatusOK, q)
}

// Flee abandons the battle.
func (h *BattleHandler) Flee(c *gin.Context) {
	view, err := h.battles.Flee(sessionEmail(c))
	if err != nil {
		battleError(c, err)
		return
	}
	c.JSON(http.StatusOK, view)
}

type learnSkillRequest struct {
	SkillID uint `json:"skill_id"`
	Skip    bool `json:"skip"`
}

// LearnSkill resolves a pending level-up choice.
func (h *BattleHandler) LearnSkill(c *gin.Context) {
	var req learnSkillRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{constants.JSONKeyError: constants.ErrInvalidRequest})
		return
	}
	if req.Skip {
		req.SkillID = 0
	}
	result, err := h.battles.LearnSkill(sessionEmail(c), req.SkillID)
	if err != nil {
		battleError(c, err)
		return
	}
	c.JSON(http.StatusOK, result)
}
