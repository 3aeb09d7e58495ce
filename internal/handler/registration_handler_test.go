package handler

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"warsha/internal/models"
	"warsha/pkg/appsscript"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

type stubRegStore struct {
	rows []*models.Registration
}

func (s *stubRegStore) Create(reg *models.Registration) error {
	s.rows = append(s.rows, reg)
	return nil
}

func registrationRouter(autoURL string, store *stubRegStore) *gin.Engine {
	gin.SetMode(gin.TestMode)
	log := zap.NewNop().Sugar()
	auto := appsscript.NewClient(autoURL, "tok", log)
	r := gin.New()
	r.POST("/api/register", NewRegistrationHandler(auto, store, log).Register)
	return r
}

func TestRegisterForwards(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`{"success":true,"row":3}`))
	}))
	defer srv.Close()

	store := &stubRegStore{}
	r := registrationRouter(srv.URL, store)
	w := postJSON(r, "/api/register", `{"workshopId":"w1","name":"Nour","email":"n@x.y","governorate":"Cairo"}`)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), `"success":true`)
	require.Len(t, store.rows, 1)
	assert.True(t, store.rows[0].Forwarded)
	assert.Equal(t, "Nour", store.rows[0].Name)
}

func TestRegisterValidation(t *testing.T) {
	store := &stubRegStore{}
	r := registrationRouter("http://unused", store)

	w := postJSON(r, "/api/register", `{"email":"n@x.y"}`)
	assert.Equal(t, http.StatusBadRequest, w.Code)
	w = postJSON(r, "/api/register", `{"name":"Nour"}`)
	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.Empty(t, store.rows)
}

func TestRegisterUnconfiguredAutomation(t *testing.T) {
	r := registrationRouter("", &stubRegStore{})
	w := postJSON(r, "/api/register", `{"name":"Nour","email":"n@x.y"}`)
	assert.Equal(t, http.StatusInternalServerError, w.Code)
}

func TestRegisterAutomationError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`{"success":false,"error":"sheet locked"}`))
	}))
	defer srv.Close()

	store := &stubRegStore{}
	r := registrationRouter(srv.URL, store)
	w := postJSON(r, "/api/register", `{"name":"Nour","email":"n@x.y"}`)
	assert.Equal(t, http.StatusBadGateway, w.Code)
	require.Len(t, store.rows, 1)
	assert.False(t, store.rows[0].Forwarded)
	assert.Contains(t, store.rows[0].Error, "sheet locked")
}
