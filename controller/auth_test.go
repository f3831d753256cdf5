package controller

import (
	"bytes"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/timera-ai/timera-api/common"
	"github.com/timera-ai/timera-api/common/config"
	"github.com/timera-ai/timera-api/model"
	"gorm.io/gorm"
)

func setupAuthTest(t *testing.T) {
	t.Helper()
	gin.SetMode(gin.TestMode)

	prevPath := common.SQLitePath
	common.SQLitePath = filepath.Join(t.TempDir(), "auth-test.db")
	db, err := model.InitDB("SQL_DSN_UNSET_FOR_TESTS")
	require.NoError(t, err)
	prevDB := model.DB
	model.DB = db
	t.Cleanup(func() {
		sqlDB, _ := db.DB()
		_ = sqlDB.Close()
		model.DB = prevDB
		common.SQLitePath = prevPath
	})
}

func postJSON(t *testing.T, handler gin.HandlerFunc, path string, body any) *httptest.ResponseRecorder {
	t.Helper()
	payload, err := json.Marshal(body)
	require.NoError(t, err)
	w := httptest.NewRecorder()
	c, _ := gin.CreateTestContext(w)
	c.Request = httptest.NewRequest(http.MethodPost, path, bytes.NewReader(payload))
	c.Request.Header.Set("Content-Type", "application/json")
	handler(c)
	return w
}

func TestRegisterReturnsSignupBalance(t *testing.T) {
	setupAuthTest(t)
	prevGrant := config.CreditsForNewUser
	config.CreditsForNewUser = 25
	t.Cleanup(func() { config.CreditsForNewUser = prevGrant })

	w := postJSON(t, Register, "/api/register", map[string]any{
		"email":    "new@example.com",
		"password": "secret-password",
	})
	require.Equal(t, http.StatusOK, w.Code)

	var resp struct {
		User struct {
			Email            string `json:"email"`
			Credits          int    `json:"credits"`
			HeldCredits      int    `json:"held_credits"`
			AvailableCredits int    `json:"available_credits"`
		} `json:"user"`
		Tokens struct {
			Access  string `json:"access"`
			Refresh string `json:"refresh"`
		} `json:"tokens"`
	}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	assert.Equal(t, "new@example.com", resp.User.Email)
	assert.Equal(t, 25, resp.User.Credits)
	assert.Equal(t, 0, resp.User.HeldCredits)
	assert.Equal(t, 25, resp.User.AvailableCredits)
	assert.NotEmpty(t, resp.Tokens.Access)
	assert.NotEmpty(t, resp.Tokens.Refresh)
}

func TestRegisterSurvivesBalanceReadFailure(t *testing.T) {
	setupAuthTest(t)

	// inserts still succeed; the post-insert balance read fails
	err := model.DB.Callback().Query().Before("gorm:query").Register("auth_test_fail_query", func(tx *gorm.DB) {
		tx.AddError(errors.New("connection lost"))
	})
	require.NoError(t, err)

	w := postJSON(t, Register, "/api/register", map[string]any{
		"email":    "new@example.com",
		"password": "secret-password",
	})
	require.Equal(t, http.StatusOK, w.Code)

	var resp struct {
		Success bool   `json:"success"`
		Message string `json:"message"`
	}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	assert.False(t, resp.Success)
	assert.Contains(t, resp.Message, "connection lost")
}
