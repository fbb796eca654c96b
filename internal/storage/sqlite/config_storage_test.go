package sqlite

import (
	"context"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/ternarybob/arbor"
	"github.com/ternarybob/tessera/internal/common"
	"github.com/ternarybob/tessera/internal/models"
)

func setupTestDB(t *testing.T) (*SQLiteDB, func()) {
	t.Helper()

	if os.Getenv("TESSERA_ENCRYPTION_KEY") == "" {
		os.Setenv("TESSERA_ENCRYPTION_KEY", common.GenerateEncryptionKey())
	}

	dir := t.TempDir()
	db, err := NewSQLiteDB(arbor.NewLogger(), &common.SQLiteConfig{
		Path:          filepath.Join(dir, "test.db"),
		CacheSizeMB:   16,
		BusyTimeoutMS: 1000,
		WALMode:       false,
	})
	require.NoError(t, err)

	return db, func() { db.Close() }
}

func seedUser(t *testing.T, db *SQLiteDB, username string) *models.User {
	t.Helper()
	users := NewUserStorage(db, arbor.NewLogger())
	user := models.NewUser(username)
	require.NoError(t, users.SaveUser(context.Background(), user))
	return user
}

func TestSaveAndGetMCPConfig(t *testing.T) {
	db, cleanup := setupTestDB(t)
	defer cleanup()

	user := seedUser(t, db, "ada")
	storage := NewConfigStorage(db, arbor.NewLogger())

	config := models.NewMCPConfiguration(user.ID)
	config.JiraURL = "https://jira.example.com"
	require.NoError(t, config.SetJiraPersonalToken("secret"))
	config.SetAdditionalParam("projects_filter", "PROJ")

	require.NoError(t, storage.SaveMCPConfig(context.Background(), config))

	stored, err := storage.GetMCPConfig(context.Background(), user.ID)
	require.NoError(t, err)
	require.NotNil(t, stored)
	assert.Equal(t, config.ID, stored.ID)
	assert.Equal(t, "https://jira.example.com", stored.JiraURL)
	assert.True(t, stored.JiraSSLVerify)
	assert.True(t, stored.IsActive)
	assert.Nil(t, stored.LastTested)
	assert.Equal(t, "PROJ", stored.GetAdditionalParam("projects_filter", ""))

	// Ciphertext survives storage and still decrypts
	assert.Equal(t, "secret", stored.JiraPersonalTokenPlain())
}

func TestGetMCPConfigMissing(t *testing.T) {
	db, cleanup := setupTestDB(t)
	defer cleanup()

	storage := NewConfigStorage(db, arbor.NewLogger())
	config, err := storage.GetMCPConfig(context.Background(), "usr_nobody")
	require.NoError(t, err)
	assert.Nil(t, config)
}

func TestSaveMCPConfigUpserts(t *testing.T) {
	db, cleanup := setupTestDB(t)
	defer cleanup()

	user := seedUser(t, db, "ada")
	storage := NewConfigStorage(db, arbor.NewLogger())

	first := models.NewMCPConfiguration(user.ID)
	first.JiraURL = "https://jira.example.com"
	require.NoError(t, first.SetJiraPersonalToken("one"))
	require.NoError(t, storage.SaveMCPConfig(context.Background(), first))

	second := models.NewMCPConfiguration(user.ID)
	second.JiraURL = "https://jira2.example.com"
	require.NoError(t, second.SetJiraPersonalToken("two"))
	require.NoError(t, storage.SaveMCPConfig(context.Background(), second))

	stored, err := storage.GetMCPConfig(context.Background(), user.ID)
	require.NoError(t, err)
	require.NotNil(t, stored)
	assert.Equal(t, "https://jira2.example.com", stored.JiraURL)
	assert.Equal(t, "two", stored.JiraPersonalTokenPlain())

	// Still exactly one row for the user
	var count int
	require.NoError(t, db.DB().QueryRow(
		`SELECT COUNT(*) FROM mcp_configurations WHERE user_id = ?`, user.ID).Scan(&count))
	assert.Equal(t, 1, count)
}

func TestTouchLastTested(t *testing.T) {
	db, cleanup := setupTestDB(t)
	defer cleanup()

	user := seedUser(t, db, "ada")
	storage := NewConfigStorage(db, arbor.NewLogger())

	config := models.NewMCPConfiguration(user.ID)
	config.JiraURL = "https://jira.example.com"
	require.NoError(t, config.SetJiraPersonalToken("secret"))
	require.NoError(t, storage.SaveMCPConfig(context.Background(), config))

	before := time.Now().Add(-time.Minute)
	require.NoError(t, storage.TouchLastTested(context.Background(), user.ID))

	stored, err := storage.GetMCPConfig(context.Background(), user.ID)
	require.NoError(t, err)
	require.NotNil(t, stored.LastTested)
	assert.True(t, stored.LastTested.After(before))
}

func TestDeleteUserCascadesToConfigs(t *testing.T) {
	db, cleanup := setupTestDB(t)
	defer cleanup()

	user := seedUser(t, db, "ada")
	users := NewUserStorage(db, arbor.NewLogger())
	storage := NewConfigStorage(db, arbor.NewLogger())

	mcp := models.NewMCPConfiguration(user.ID)
	mcp.JiraURL = "https://jira.example.com"
	require.NoError(t, mcp.SetJiraPersonalToken("secret"))
	require.NoError(t, storage.SaveMCPConfig(context.Background(), mcp))

	ai := models.NewAIConfiguration(user.ID)
	require.NoError(t, storage.SaveAIConfig(context.Background(), ai))

	require.NoError(t, users.DeleteUser(context.Background(), user.ID))

	storedMCP, err := storage.GetMCPConfig(context.Background(), user.ID)
	require.NoError(t, err)
	assert.Nil(t, storedMCP)

	storedAI, err := storage.GetAIConfig(context.Background(), user.ID)
	require.NoError(t, err)
	assert.Nil(t, storedAI)
}

func TestSaveAndGetAIConfig(t *testing.T) {
	db, cleanup := setupTestDB(t)
	defer cleanup()

	user := seedUser(t, db, "ada")
	storage := NewConfigStorage(db, arbor.NewLogger())

	config := models.NewAIConfiguration(user.ID)
	require.NoError(t, config.SetCustomHeaders(map[string]string{"X-Team": "platform"}))
	config.UserIDFromJira = "ada"
	config.ModelConfigs = map[string]interface{}{"default": "sonnet"}

	require.NoError(t, storage.SaveAIConfig(context.Background(), config))

	stored, err := storage.GetAIConfig(context.Background(), user.ID)
	require.NoError(t, err)
	require.NotNil(t, stored)
	assert.Equal(t, map[string]string{"X-Team": "platform"}, stored.GetCustomHeaders())
	assert.Equal(t, "ada", stored.UserIDFromJira)
	assert.Equal(t, "sonnet", stored.ModelConfigs["default"])
}

func TestGetUserByUsername(t *testing.T) {
	db, cleanup := setupTestDB(t)
	defer cleanup()

	users := NewUserStorage(db, arbor.NewLogger())
	seedUser(t, db, "ada")

	found, err := users.GetUserByUsername(context.Background(), "ada")
	require.NoError(t, err)
	require.NotNil(t, found)
	assert.Equal(t, "ada", found.Username)

	missing, err := users.GetUserByUsername(context.Background(), "nobody")
	require.NoError(t, err)
	assert.Nil(t, missing)
}
