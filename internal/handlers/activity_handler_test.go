package handlers

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"

	"github.com/chiapei/trailgo/internal/models"
)

type stubActivityRepo struct {
	listFn func(ctx context.Context) ([]models.Activity, error)
	findFn func(ctx context.Context, id uuid.UUID) (*models.Activity, error)
}

func (s *stubActivityRepo) ListPublished(ctx context.Context) ([]models.Activity, error) {
	return s.listFn(ctx)
}
func (s *stubActivityRepo) FindPublishedByID(ctx context.Context, id uuid.UUID) (*models.Activity, error) {
	return s.findFn(ctx, id)
}
func (s *stubActivityRepo) FindByIDForUpdate(ctx context.Context, tx *gorm.DB, id uuid.UUID) (*models.Activity, error) {
	return nil, gorm.ErrRecordNotFound
}
func (s *stubActivityRepo) UpdateBookedCapacity(ctx context.Context, tx *gorm.DB, id uuid.UUID, booked int) error {
	return nil
}

func setupActivityRouter(repo *stubActivityRepo) *gin.Engine {
	gin.SetMode(gin.TestMode)
	r := gin.New()
	h := NewActivityHandler(repo)
	r.GET("/v1/activities", h.ListActivities)
	r.GET("/v1/activities/:id", h.GetActivity)
	return r
}

func TestListActivitiesReturnsPublished(t *testing.T) {
	repo := &stubActivityRepo{
		listFn: func(ctx context.Context) ([]models.Activity, error) {
			return []models.Activity{
				{ID: uuid.New(), Title: "Riverside Hike", IsPublish: true},
				{ID: uuid.New(), Title: "Summit Trail", IsPublish: true},
			}, nil
		},
	}
	r := setupActivityRouter(repo)

	w := httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/v1/activities", nil))

	require.Equal(t, http.StatusOK, w.Code)

	var resp struct {
		Activities []models.Activity `json:"activities"`
	}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	require.Len(t, resp.Activities, 2)
	assert.Equal(t, "Riverside Hike", resp.Activities[0].Title)
}

func TestGetActivityNotFound(t *testing.T) {
	repo := &stubActivityRepo{
		findFn: func(ctx context.Context, id uuid.UUID) (*models.Activity, error) {
			return nil, gorm.ErrRecordNotFound
		},
	}
	r := setupActivityRouter(repo)

	w := httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/v1/activities/"+uuid.NewString(), nil))

	assert.Equal(t, http.StatusNotFound, w.Code)
}

func TestGetActivityInvalidID(t *testing.T) {
	repo := &stubActivityRepo{
		findFn: func(ctx context.Context, id uuid.UUID) (*models.Activity, error) {
			t.Fatal("repository must not be hit for a malformed ID")
			return nil, nil
		},
	}
	r := setupActivityRouter(repo)

	w := httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/v1/activities/not-a-uuid", nil))

	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestGetActivitySuccess(t *testing.T) {
	activityID := uuid.New()
	repo := &stubActivityRepo{
		findFn: func(ctx context.Context, id uuid.UUID) (*models.Activity, error) {
			assert.Equal(t, activityID, id)
			return &models.Activity{ID: activityID, Title: "Riverside Hike", IsPublish: true}, nil
		},
	}
	r := setupActivityRouter(repo)

	w := httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/v1/activities/"+activityID.String(), nil))

	require.Equal(t, http.StatusOK, w.Code)

	var resp models.Activity
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	assert.Equal(t, "Riverside Hike", resp.Title)
}
