package service

import (
	"context"
	"testing"

	"shortscript/internal/config"
	"shortscript/internal/infrastructure/database"
	"shortscript/internal/model"

	"github.com/stretchr/testify/require"
	"gorm.io/gorm"
)

func newTestDB(t *testing.T) *gorm.DB {
	t.Helper()
	db, err := database.OpenInMemory()
	require.NoError(t, err)
	t.Cleanup(func() {
		if sqlDB, err := db.DB(); err == nil {
			_ = sqlDB.Close()
		}
	})
	return db
}

func testConfig() *config.Config {
	return &config.Config{
		Kafka: config.KafkaConfig{
			Topic: config.KafkaTopicConfig{
				CreditEvents: "credit.events",
				ScriptEvents: "script.events",
			},
		},
		Business: config.BusinessConfig{
			StartingCredits:      10,
			ScriptCost:           1,
			ScriptTimeoutMinutes: 30,
			MaxRetryCount:        3,
		},
	}
}

func listTransactions(t *testing.T, db *gorm.DB, userID string) []*model.CreditTransaction {
	t.Helper()
	var transactions []*model.CreditTransaction
	require.NoError(t, db.Where("user_id = ?", userID).Order("created_at ASC").Order("id ASC").Find(&transactions).Error)
	return transactions
}

func mustUser(t *testing.T, db *gorm.DB, userID string) *model.User {
	t.Helper()
	var user model.User
	require.NoError(t, db.WithContext(context.Background()).Where("id = ?", userID).First(&user).Error)
	return &user
}

func countOutbox(t *testing.T, db *gorm.DB, status string) int64 {
	t.Helper()
	var n int64
	require.NoError(t, db.Model(&model.OutboxMessage{}).Where("status = ?", status).Count(&n).Error)
	return n
}
