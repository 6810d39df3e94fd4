package webserver

import (
	"bytes"
	"encoding/json"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/glebarez/sqlite"
	"github.com/golang-jwt/jwt/v5"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"

	"github.com/commonsdao/liquidvote/src/api/config"
	"github.com/commonsdao/liquidvote/src/api/data"
	"github.com/commonsdao/liquidvote/src/api/types"
)

const testSecret = "test-secret"

type testEnv struct {
	router *gin.Engine
	db     *gorm.DB
}

// newTestEnv builds a router backed by an in-memory database and in-process
// cooldowns with the given window.
func newTestEnv(t *testing.T, cooldownWindow time.Duration) *testEnv {
	t.Helper()
	gin.SetMode(gin.TestMode)

	db, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Silent),
	})
	require.NoError(t, err)
	sqlDB, err := db.DB()
	require.NoError(t, err)
	sqlDB.SetMaxOpenConns(1) // keep the in-memory database on one connection

	require.NoError(t, data.Migrate(db))

	cfg := config.Config{
		JWTSecret:      testSecret,
		AllowedOrigins: []string{"http://localhost:3000"},
	}
	router := New(cfg, db, data.NewMemoryCooldowns(cooldownWindow))
	return &testEnv{router: router, db: db}
}

func (e *testEnv) seedBasics(t *testing.T, deadline time.Time) {
	t.Helper()
	require.NoError(t, e.db.Create(&types.Member{ID: "alice", Name: "Alice"}).Error)
	require.NoError(t, e.db.Create(&types.Member{ID: "bob", Name: "Bob"}).Error)
	require.NoError(t, e.db.Create(&types.Member{ID: "carol", Name: "Carol"}).Error)
	require.NoError(t, e.db.Create(&types.Category{ID: "cat1", Title: "Treasury", CreatedBy: "alice", CreatedAt: time.Now()}).Error)
	require.NoError(t, e.db.Create(&types.Proposal{
		ID:         "p1",
		CategoryID: "cat1",
		Title:      "Budget 2026",
		CreatedBy:  "alice",
		Deadline:   deadline,
		CreatedAt:  time.Now(),
	}).Error)
	require.NoError(t, e.db.Create(&types.Option{ProposalID: "p1", Number: 1, Text: "Yes"}).Error)
	require.NoError(t, e.db.Create(&types.Option{ProposalID: "p1", Number: 2, Text: "No"}).Error)
}

func authToken(t *testing.T, uid string) string {
	t.Helper()
	tok := jwt.NewWithClaims(jwt.SigningMethodHS256, jwt.MapClaims{"sub": uid})
	signed, err := tok.SignedString([]byte(testSecret))
	require.NoError(t, err)
	return signed
}

func (e *testEnv) do(t *testing.T, method, path, uid string, body any) *httptest.ResponseRecorder {
	t.Helper()
	var reader *bytes.Reader
	if body != nil {
		payload, err := json.Marshal(body)
		require.NoError(t, err)
		reader = bytes.NewReader(payload)
	} else {
		reader = bytes.NewReader(nil)
	}
	req := httptest.NewRequest(method, path, reader)
	req.Header.Set("Content-Type", "application/json")
	if uid != "" {
		req.Header.Set("Authorization", "Bearer "+authToken(t, uid))
	}
	w := httptest.NewRecorder()
	e.router.ServeHTTP(w, req)
	return w
}

func decode[T any](t *testing.T, w *httptest.ResponseRecorder) T {
	t.Helper()
	var out T
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &out))
	return out
}
