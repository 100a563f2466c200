package handler_test

import (
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"

	"go-formation-reservation/internal/model"
	"go-formation-reservation/internal/service/mocks"
	apperrors "go-formation-reservation/pkg/apperrors"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
)

func TestCreateOffering(t *testing.T) {
	t.Run("Success", func(t *testing.T) {
		mockService := mocks.NewOfferingServiceMock()
		router := setupOfferingTestRouter(mockService)

		mockService.On("Create", mock.Anything, mock.Anything).Return(&model.Offering{
			ID:                1,
			OfferingID:        uuid.New(),
			Title:             "Go avancé",
			CapacityTotal:     20,
			CapacityRemaining: 20,
			Status:            model.OfferingStatusDraft,
		}, nil).Once()

		body := model.CreateOfferingRequest{Title: "Go avancé", CapacityTotal: 20}
		req := createJSONHTTPRequest("POST", "/api/v1/offerings", body)
		w := httptest.NewRecorder()
		router.ServeHTTP(w, req)

		assert.Equal(t, http.StatusCreated, w.Code)
		mockService.AssertExpectations(t)
	})

	t.Run("Failed - capacity below 1", func(t *testing.T) {
		mockService := mocks.NewOfferingServiceMock()
		router := setupOfferingTestRouter(mockService)

		body := map[string]interface{}{"title": "Go avancé", "capacity_total": 0}
		req := createJSONHTTPRequest("POST", "/api/v1/offerings", body)
		w := httptest.NewRecorder()
		router.ServeHTTP(w, req)

		assert.Equal(t, http.StatusBadRequest, w.Code)
		mockService.AssertNotCalled(t, "Create")
	})
}

func TestPublishOffering(t *testing.T) {
	t.Run("Success", func(t *testing.T) {
		mockService := mocks.NewOfferingServiceMock()
		router := setupOfferingTestRouter(mockService)

		offeringID := uuid.New()
		mockService.On("Publish", mock.Anything, offeringID).
			Return(&model.Offering{ID: 1, Status: model.OfferingStatusPublished}, nil).Once()

		req := createJSONHTTPRequest("PUT", fmt.Sprintf("/api/v1/offerings/%s/publish", offeringID), nil)
		w := httptest.NewRecorder()
		router.ServeHTTP(w, req)

		assert.Equal(t, http.StatusOK, w.Code)
		mockService.AssertExpectations(t)
	})

	t.Run("Failed - ErrInvalidStatusTransition", func(t *testing.T) {
		mockService := mocks.NewOfferingServiceMock()
		router := setupOfferingTestRouter(mockService)

		offeringID := uuid.New()
		mockService.On("Publish", mock.Anything, offeringID).
			Return(nil, apperrors.ErrInvalidStatusTransition).Once()

		req := createJSONHTTPRequest("PUT", fmt.Sprintf("/api/v1/offerings/%s/publish", offeringID), nil)
		w := httptest.NewRecorder()
		router.ServeHTTP(w, req)

		assert.Equal(t, http.StatusBadRequest, w.Code)
		mockService.AssertExpectations(t)
	})
}

func TestAdjustCapacity(t *testing.T) {
	t.Run("Success", func(t *testing.T) {
		mockService := mocks.NewOfferingServiceMock()
		router := setupOfferingTestRouter(mockService)

		offeringID := uuid.New()
		mockService.On("AdjustCapacity", mock.Anything, offeringID, 30).
			Return(&model.Offering{ID: 1, CapacityTotal: 30, CapacityRemaining: 25}, nil).Once()

		body := model.AdjustCapacityRequest{CapacityTotal: 30}
		req := createJSONHTTPRequest("PUT", fmt.Sprintf("/api/v1/offerings/%s/capacity", offeringID), body)
		w := httptest.NewRecorder()
		router.ServeHTTP(w, req)

		assert.Equal(t, http.StatusOK, w.Code)
		mockService.AssertExpectations(t)
	})

	t.Run("Failed - ErrCapacityBelowReserved", func(t *testing.T) {
		mockService := mocks.NewOfferingServiceMock()
		router := setupOfferingTestRouter(mockService)

		offeringID := uuid.New()
		mockService.On("AdjustCapacity", mock.Anything, offeringID, 2).
			Return(nil, apperrors.ErrCapacityBelowReserved).Once()

		body := model.AdjustCapacityRequest{CapacityTotal: 2}
		req := createJSONHTTPRequest("PUT", fmt.Sprintf("/api/v1/offerings/%s/capacity", offeringID), body)
		w := httptest.NewRecorder()
		router.ServeHTTP(w, req)

		assert.Equal(t, http.StatusUnprocessableEntity, w.Code)
		mockService.AssertExpectations(t)
	})

	t.Run("Failed - ErrOfferingNotFound", func(t *testing.T) {
		mockService := mocks.NewOfferingServiceMock()
		router := setupOfferingTestRouter(mockService)

		offeringID := uuid.New()
		mockService.On("AdjustCapacity", mock.Anything, offeringID, 10).
			Return(nil, apperrors.ErrOfferingNotFound).Once()

		body := model.AdjustCapacityRequest{CapacityTotal: 10}
		req := createJSONHTTPRequest("PUT", fmt.Sprintf("/api/v1/offerings/%s/capacity", offeringID), body)
		w := httptest.NewRecorder()
		router.ServeHTTP(w, req)

		assert.Equal(t, http.StatusNotFound, w.Code)
		mockService.AssertExpectations(t)
	})
}

func TestGetOfferings(t *testing.T) {
	mockService := mocks.NewOfferingServiceMock()
	router := setupOfferingTestRouter(mockService)

	mockService.On("ListPublished", mock.Anything).
		Return([]*model.Offering{{ID: 1}, {ID: 2}}, nil).Once()

	req := createJSONHTTPRequest("GET", "/api/v1/offerings", nil)
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)

	assert.Equal(t, http.StatusOK, w.Code)
	mockService.AssertExpectations(t)
}
