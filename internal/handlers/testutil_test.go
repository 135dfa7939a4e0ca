package handlers_test

import (
	"bytes"
	"encoding/json"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/glebarez/sqlite"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"

	"carnet-medical-server/internal/config"
	"carnet-medical-server/internal/models"
	"carnet-medical-server/internal/routes"
	"carnet-medical-server/internal/utils"
)

func testConfig(t *testing.T) *config.Config {
	t.Helper()
	return &config.Config{
		Port:                      "0",
		Environment:               "test",
		JWTSecret:                 "test_jwt_secret",
		JWTRefreshSecret:          "test_refresh_secret",
		JWTExpirationMinutes:      15,
		JWTRefreshExpirationHours: 1,
		UploadDir:                 t.TempDir(),
	}
}

// setupTest builds a fresh in-memory database and a router wired exactly
// like production.
func setupTest(t *testing.T) (*gin.Engine, *gorm.DB, *config.Config) {
	t.Helper()
	gin.SetMode(gin.TestMode)

	db, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{TranslateError: true})
	require.NoError(t, err)

	// A pooled in-memory sqlite would open one database per connection.
	sqlDB, err := db.DB()
	require.NoError(t, err)
	sqlDB.SetMaxOpenConns(1)

	require.NoError(t, models.Migrate(db))

	cfg := testConfig(t)
	router := gin.New()
	routes.SetupRoutes(router, db, cfg)

	return router, db, cfg
}

func createUtilisateur(t *testing.T, db *gorm.DB, role models.Role, email, password string) models.Utilisateur {
	t.Helper()
	user := models.Utilisateur{
		Noms:   "Test " + string(role),
		Email:  email,
		Role:   role,
		Statut: models.StatutActif,
	}
	require.NoError(t, user.SetPassword(password))
	require.NoError(t, db.Create(&user).Error)
	return user
}

func createPatient(t *testing.T, db *gorm.DB, nom string) models.Patient {
	t.Helper()
	patient := models.Patient{Nom: nom, Sexe: "M"}
	require.NoError(t, db.Create(&patient).Error)
	return patient
}

func tokenFor(t *testing.T, cfg *config.Config, user models.Utilisateur) string {
	t.Helper()
	access, _, err := utils.GenerateTokens(&user, cfg)
	require.NoError(t, err)
	return access
}

// doJSON performs a JSON request against the router with an optional bearer token.
func doJSON(t *testing.T, router *gin.Engine, method, path, token string, body interface{}) *httptest.ResponseRecorder {
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
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}

	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)
	return rec
}

// envelope mirrors utils.ResponseData with raw data for per-test decoding.
type envelope struct {
	Status  int             `json:"status"`
	Message string          `json:"message"`
	Data    json.RawMessage `json:"data"`
	Error   string          `json:"error"`
}

func decodeEnvelope(t *testing.T, rec *httptest.ResponseRecorder) envelope {
	t.Helper()
	var env envelope
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &env))
	return env
}

func decodeData(t *testing.T, rec *httptest.ResponseRecorder, out interface{}) {
	t.Helper()
	env := decodeEnvelope(t, rec)
	require.NotNil(t, env.Data, "response has no data: %s", rec.Body.String())
	require.NoError(t, json.Unmarshal(env.Data, out))
}

func requireStatus(t *testing.T, rec *httptest.ResponseRecorder, want int) {
	t.Helper()
	require.Equal(t, want, rec.Code, "unexpected status, body: %s", rec.Body.String())
}
