package notifications

import (
	"context"
	"fmt"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"

	"github.com/agrimarket/inventory-engine/pkg/db/models"
	"github.com/agrimarket/inventory-engine/pkg/enums"
)

func newRepoDB(t *testing.T) *gorm.DB {
	t.Helper()
	dsn := fmt.Sprintf("file:notifications_repo_%s?mode=memory&cache=shared", uuid.NewString())
	db, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{})
	require.NoError(t, err)
	require.NoError(t, db.AutoMigrate(&models.Notification{}))
	return db
}

func seedNotification(t *testing.T, db *gorm.DB, sellerID uuid.UUID, createdAt time.Time, read bool) models.Notification {
	t.Helper()
	n := models.Notification{
		ID:        uuid.New(),
		SellerID:  sellerID,
		Type:      enums.NotificationLowStock,
		Title:     "Low stock",
		Message:   "Product is running low",
		CreatedAt: createdAt,
	}
	if read {
		at := createdAt.Add(time.Minute)
		n.ReadAt = &at
	}
	require.NoError(t, db.Create(&n).Error)
	return n
}

func TestRepositoryListPaginatesNewestFirst(t *testing.T) {
	db := newRepoDB(t)
	repo := NewRepository(db)
	sellerID := uuid.New()

	base := time.Now().Add(-time.Hour).Truncate(time.Second)
	var seeded []models.Notification
	for i := 0; i < 3; i++ {
		seeded = append(seeded, seedNotification(t, db, sellerID, base.Add(time.Duration(i)*time.Minute), false))
	}
	// A different seller's row must never leak into the page.
	seedNotification(t, db, uuid.New(), base, false)

	rows, cursor, err := repo.List(context.Background(), listNotificationsParams{SellerID: sellerID, Limit: 2})
	require.NoError(t, err)
	require.Len(t, rows, 2)
	require.NotNil(t, cursor)
	assert.Equal(t, seeded[2].ID, rows[0].ID)
	assert.Equal(t, seeded[1].ID, rows[1].ID)
	assert.Equal(t, seeded[0].ID, cursor.ID)

	rows, cursor, err = repo.List(context.Background(), listNotificationsParams{SellerID: sellerID, Limit: 2, Cursor: cursor})
	require.NoError(t, err)
	require.Len(t, rows, 1)
	assert.Nil(t, cursor)
	assert.Equal(t, seeded[0].ID, rows[0].ID)
}

func TestRepositoryListUnreadOnly(t *testing.T) {
	db := newRepoDB(t)
	repo := NewRepository(db)
	sellerID := uuid.New()

	base := time.Now().Add(-time.Hour)
	unread := seedNotification(t, db, sellerID, base.Add(time.Minute), false)
	seedNotification(t, db, sellerID, base, true)

	rows, _, err := repo.List(context.Background(), listNotificationsParams{SellerID: sellerID, Limit: 10, UnreadOnly: true})
	require.NoError(t, err)
	require.Len(t, rows, 1)
	assert.Equal(t, unread.ID, rows[0].ID)
}

func TestRepositoryMarkRead(t *testing.T) {
	db := newRepoDB(t)
	repo := NewRepository(db)
	sellerID := uuid.New()
	n := seedNotification(t, db, sellerID, time.Now(), false)

	mark, err := repo.MarkRead(context.Background(), sellerID, n.ID, time.Now())
	require.NoError(t, err)
	assert.True(t, mark.Found)
	assert.True(t, mark.Updated)

	// Second call finds the row but updates nothing.
	mark, err = repo.MarkRead(context.Background(), sellerID, n.ID, time.Now())
	require.NoError(t, err)
	assert.True(t, mark.Found)
	assert.False(t, mark.Updated)

	mark, err = repo.MarkRead(context.Background(), sellerID, uuid.New(), time.Now())
	require.NoError(t, err)
	assert.False(t, mark.Found)
}

func TestRepositoryMarkAllRead(t *testing.T) {
	db := newRepoDB(t)
	repo := NewRepository(db)
	sellerID := uuid.New()

	base := time.Now().Add(-time.Hour)
	seedNotification(t, db, sellerID, base, false)
	seedNotification(t, db, sellerID, base.Add(time.Minute), false)
	seedNotification(t, db, sellerID, base.Add(2*time.Minute), true)

	updated, err := repo.MarkAllRead(context.Background(), sellerID, time.Now())
	require.NoError(t, err)
	assert.Equal(t, int64(2), updated)

	rows, _, err := repo.List(context.Background(), listNotificationsParams{SellerID: sellerID, Limit: 10, UnreadOnly: true})
	require.NoError(t, err)
	assert.Empty(t, rows)
}

func TestRepositoryDeleteOlderThan(t *testing.T) {
	db := newRepoDB(t)
	repo := NewRepository(db)
	sellerID := uuid.New()

	old := time.Now().Add(-40 * 24 * time.Hour)
	seedNotification(t, db, sellerID, old, true)
	fresh := seedNotification(t, db, sellerID, time.Now(), false)

	deleted, err := repo.DeleteOlderThan(context.Background(), time.Now().Add(-30*24*time.Hour))
	require.NoError(t, err)
	assert.Equal(t, int64(1), deleted)

	rows, _, err := repo.List(context.Background(), listNotificationsParams{SellerID: sellerID, Limit: 10})
	require.NoError(t, err)
	require.Len(t, rows, 1)
	assert.Equal(t, fresh.ID, rows[0].ID)
}
