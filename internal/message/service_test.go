package message

import (
	"context"
	"fmt"
	"strings"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	gormLogger "gorm.io/gorm/logger"

	"github.com/khaledmahi/linkup/internal/user"
	"github.com/khaledmahi/linkup/pkg/logger"
)

func newTestService(t *testing.T) (*Service, *gorm.DB) {
	t.Helper()

	dsn := fmt.Sprintf("file:%s?mode=memory&cache=shared", strings.ReplaceAll(t.Name(), "/", "_"))
	db, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{
		Logger: gormLogger.Default.LogMode(gormLogger.Silent),
	})
	require.NoError(t, err)

	sqlDB, err := db.DB()
	require.NoError(t, err)
	sqlDB.SetMaxOpenConns(1)

	require.NoError(t, db.AutoMigrate(&user.User{}, &Message{}))

	svc := NewService(NewRepository(db), logger.NewNop())
	return svc, db
}

func seedUser(t *testing.T, db *gorm.DB, username string) *user.User {
	t.Helper()
	u := &user.User{
		ID:           uuid.NewString(),
		Username:     username,
		Email:        username + "@example.com",
		PasswordHash: "x",
		DisplayName:  username,
		CreatedAt:    time.Now(),
	}
	require.NoError(t, db.Create(u).Error)
	return u
}

func TestSendMessage(t *testing.T) {
	svc, db := newTestService(t)
	ctx := context.Background()
	alice := seedUser(t, db, "alice")
	seedUser(t, db, "bob")

	m, err := svc.Send(ctx, alice.ID, &SendMessageRequest{Username: "bob", Content: "hey"})
	require.NoError(t, err)
	assert.False(t, m.IsRead)
	assert.Equal(t, alice.ID, m.SenderID)

	_, err = svc.Send(ctx, alice.ID, &SendMessageRequest{Username: "nobody", Content: "hey"})
	assert.ErrorIs(t, err, ErrUserNotFound)

	_, err = svc.Send(ctx, alice.ID, &SendMessageRequest{Username: "bob", Content: "  "})
	assert.ErrorIs(t, err, ErrContentRequired)

	_, err = svc.Send(ctx, alice.ID, &SendMessageRequest{Username: "alice", Content: "me"})
	assert.ErrorIs(t, err, ErrSelfMessage)
}

func TestGetConversation(t *testing.T) {
	svc, db := newTestService(t)
	ctx := context.Background()
	alice := seedUser(t, db, "alice")
	bob := seedUser(t, db, "bob")
	seedUser(t, db, "carol")

	for i := 0; i < 3; i++ {
		_, err := svc.Send(ctx, alice.ID, &SendMessageRequest{Username: "bob", Content: fmt.Sprintf("to bob %d", i)})
		require.NoError(t, err)
	}
	_, err := svc.Send(ctx, bob.ID, &SendMessageRequest{Username: "alice", Content: "back at you"})
	require.NoError(t, err)
	_, err = svc.Send(ctx, alice.ID, &SendMessageRequest{Username: "carol", Content: "different thread"})
	require.NoError(t, err)

	messages, total, pages, err := svc.GetConversation(ctx, alice.ID, "bob", 1, 3)
	require.NoError(t, err)
	assert.Equal(t, int64(4), total)
	assert.Equal(t, 2, pages)
	require.Len(t, messages, 3)

	_, _, _, err = svc.GetConversation(ctx, alice.ID, "nobody", 1, 10)
	assert.ErrorIs(t, err, ErrUserNotFound)
}

func TestListConversations(t *testing.T) {
	svc, db := newTestService(t)
	ctx := context.Background()
	alice := seedUser(t, db, "alice")
	bob := seedUser(t, db, "bob")
	carol := seedUser(t, db, "carol")

	_, err := svc.Send(ctx, bob.ID, &SendMessageRequest{Username: "alice", Content: "from bob"})
	require.NoError(t, err)
	_, err = svc.Send(ctx, carol.ID, &SendMessageRequest{Username: "alice", Content: "from carol 1"})
	require.NoError(t, err)
	_, err = svc.Send(ctx, carol.ID, &SendMessageRequest{Username: "alice", Content: "from carol 2"})
	require.NoError(t, err)

	conversations, err := svc.ListConversations(ctx, alice.ID)
	require.NoError(t, err)
	require.Len(t, conversations, 2)

	// newest conversation first, carrying the latest message and unreads
	assert.Equal(t, "carol", conversations[0].Username)
	assert.Equal(t, "from carol 2", conversations[0].LastMessage)
	assert.Equal(t, int64(2), conversations[0].UnreadCount)
	assert.Equal(t, "bob", conversations[1].Username)
	assert.Equal(t, int64(1), conversations[1].UnreadCount)
}

func TestMarkConversationRead(t *testing.T) {
	svc, db := newTestService(t)
	ctx := context.Background()
	alice := seedUser(t, db, "alice")
	bob := seedUser(t, db, "bob")

	_, err := svc.Send(ctx, bob.ID, &SendMessageRequest{Username: "alice", Content: "one"})
	require.NoError(t, err)
	_, err = svc.Send(ctx, bob.ID, &SendMessageRequest{Username: "alice", Content: "two"})
	require.NoError(t, err)

	count, err := svc.MarkConversationRead(ctx, alice.ID, "bob")
	require.NoError(t, err)
	assert.Equal(t, int64(2), count)

	// already read; nothing left to flip
	count, err = svc.MarkConversationRead(ctx, alice.ID, "bob")
	require.NoError(t, err)
	assert.Equal(t, int64(0), count)
}
