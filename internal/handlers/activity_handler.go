package handlers

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/chiapei/trailgo/internal/helpers"
	"github.com/chiapei/trailgo/internal/repository"
)

type ActivityHandler struct {
	activities repository.ActivityRepository
}

func NewActivityHandler(activities repository.ActivityRepository) *ActivityHandler {
	return &ActivityHandler{activities: activities}
}

func (h *ActivityHandler) ListActivities(c *gin.Context) {
	activities, err := h.activities.ListPublished(c.Request.Context())
	if err != nil {
		helpers.RespondWithError(c, http.StatusInternalServerError, "Error retrieving activities.")
		return
	}

	c.JSON(http.StatusOK, gin.H{"activities": activities})
}

func (h *ActivityHandler) GetActivity(c *gin.Context) {
	activityID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		helpers.RespondWithError(c, http.StatusBadRequest, "Invalid activity ID.")
		return
	}

	activity, err := h.activities.FindPublishedByID(c.Request.Context(), activityID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			helpers.RespondWithError(c, http.StatusNotFound, "Activity not found.")
			return
		}
		helpers.RespondWithError(c, http.StatusInternalServerError, "Error retrieving activity.")
		return
	}

	c.JSON(http.StatusOK, activity)
}
