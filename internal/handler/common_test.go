package handler_test

import (
	"bytes"
	"encoding/json"
	"net/http"
	"net/http/httptest"

	"go-formation-reservation/internal/handler"
	"go-formation-reservation/internal/service/mocks"

	"github.com/gin-gonic/gin"
)

func createJSONHTTPRequest(method, url string, body interface{}) *http.Request {
	var buf bytes.Buffer
	if body != nil {
		_ = json.NewEncoder(&buf).Encode(body)
	}
	req := httptest.NewRequest(method, url, &buf)
	req.Header.Set("Content-Type", "application/json")
	return req
}

func setupReservationTestRouter(mockService *mocks.ReservationServiceMock) *gin.Engine {
	gin.SetMode(gin.TestMode)
	router := gin.New()
	handler.NewReservationHandler(mockService).RegisterRoutes(router)
	return router
}

func setupOfferingTestRouter(mockService *mocks.OfferingServiceMock) *gin.Engine {
	gin.SetMode(gin.TestMode)
	router := gin.New()
	handler.NewOfferingHandler(mockService).RegisterRoutes(router)
	return router
}
