package comment

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

	"github.com/khaledmahi/linkup/internal/post"
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

	require.NoError(t, db.AutoMigrate(&user.User{}, &post.Post{}, &Comment{}))

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

func seedPost(t *testing.T, db *gorm.DB, userID string) *post.Post {
	t.Helper()
	p := &post.Post{
		ID:        uuid.NewString(),
		Content:   "a post",
		UserID:    userID,
		CreatedAt: time.Now(),
	}
	require.NoError(t, db.Create(p).Error)
	return p
}

func TestCreateComment(t *testing.T) {
	svc, db := newTestService(t)
	ctx := context.Background()
	author := seedUser(t, db, "alice")
	p := seedPost(t, db, author.ID)

	c, err := svc.Create(ctx, author.ID, &CreateCommentRequest{PostID: p.ID, Content: "first"})
	require.NoError(t, err)
	assert.Nil(t, c.ParentID)

	reply, err := svc.Create(ctx, author.ID, &CreateCommentRequest{PostID: p.ID, ParentID: c.ID, Content: "reply"})
	require.NoError(t, err)
	require.NotNil(t, reply.ParentID)
	assert.Equal(t, c.ID, *reply.ParentID)

	_, err = svc.Create(ctx, author.ID, &CreateCommentRequest{PostID: p.ID, Content: "  "})
	assert.ErrorIs(t, err, ErrContentRequired)

	_, err = svc.Create(ctx, author.ID, &CreateCommentRequest{PostID: uuid.NewString(), Content: "orphan"})
	assert.ErrorIs(t, err, ErrPostNotFound)
}

func TestCreateReplyParentMismatch(t *testing.T) {
	svc, db := newTestService(t)
	ctx := context.Background()
	author := seedUser(t, db, "alice")
	p1 := seedPost(t, db, author.ID)
	p2 := seedPost(t, db, author.ID)

	parent, err := svc.Create(ctx, author.ID, &CreateCommentRequest{PostID: p1.ID, Content: "on p1"})
	require.NoError(t, err)

	_, err = svc.Create(ctx, author.ID, &CreateCommentRequest{PostID: p2.ID, ParentID: parent.ID, Content: "cross-post"})
	assert.ErrorIs(t, err, ErrParentMismatch)
}

func TestListByPost(t *testing.T) {
	svc, db := newTestService(t)
	ctx := context.Background()
	author := seedUser(t, db, "alice")
	p := seedPost(t, db, author.ID)

	parent, err := svc.Create(ctx, author.ID, &CreateCommentRequest{PostID: p.ID, Content: "first"})
	require.NoError(t, err)
	_, err = svc.Create(ctx, author.ID, &CreateCommentRequest{PostID: p.ID, ParentID: parent.ID, Content: "reply"})
	require.NoError(t, err)

	comments, err := svc.ListByPost(ctx, p.ID)
	require.NoError(t, err)
	require.Len(t, comments, 2)
	assert.Equal(t, "first", comments[0].Content) // oldest first
	assert.Equal(t, int64(1), comments[0].ReplyCount)
	assert.Equal(t, "alice", comments[0].Author.Username)

	_, err = svc.ListByPost(ctx, uuid.NewString())
	assert.ErrorIs(t, err, ErrPostNotFound)
}

func TestUpdateComment(t *testing.T) {
	svc, db := newTestService(t)
	ctx := context.Background()
	author := seedUser(t, db, "alice")
	other := seedUser(t, db, "bob")
	p := seedPost(t, db, author.ID)

	c, err := svc.Create(ctx, author.ID, &CreateCommentRequest{PostID: p.ID, Content: "before"})
	require.NoError(t, err)

	_, err = svc.UpdateContent(ctx, c.ID, other.ID, "hijack")
	assert.ErrorIs(t, err, ErrNotAuthorized)

	updated, err := svc.UpdateContent(ctx, c.ID, author.ID, "after")
	require.NoError(t, err)
	assert.Equal(t, "after", updated.Content)
	assert.NotEmpty(t, updated.ModifiedAt)
}

func TestDeleteCascades(t *testing.T) {
	svc, db := newTestService(t)
	ctx := context.Background()
	author := seedUser(t, db, "alice")
	other := seedUser(t, db, "bob")
	p := seedPost(t, db, author.ID)

	root, err := svc.Create(ctx, author.ID, &CreateCommentRequest{PostID: p.ID, Content: "root"})
	require.NoError(t, err)
	child, err := svc.Create(ctx, other.ID, &CreateCommentRequest{PostID: p.ID, ParentID: root.ID, Content: "child"})
	require.NoError(t, err)
	_, err = svc.Create(ctx, author.ID, &CreateCommentRequest{PostID: p.ID, ParentID: child.ID, Content: "grandchild"})
	require.NoError(t, err)
	sibling, err := svc.Create(ctx, other.ID, &CreateCommentRequest{PostID: p.ID, Content: "sibling"})
	require.NoError(t, err)

	err = svc.Delete(ctx, root.ID, other.ID)
	assert.ErrorIs(t, err, ErrNotAuthorized)

	// deleting the root takes the whole reply chain with it
	require.NoError(t, svc.Delete(ctx, root.ID, author.ID))

	remaining, err := svc.ListByPost(ctx, p.ID)
	require.NoError(t, err)
	require.Len(t, remaining, 1)
	assert.Equal(t, sibling.ID, remaining[0].ID)
}
