package post

import (
	"bytes"
	"context"
	"fmt"
	"mime/multipart"
	"strings"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	gormLogger "gorm.io/gorm/logger"

	"github.com/khaledmahi/linkup/internal/assets"
	"github.com/khaledmahi/linkup/internal/comment"
	"github.com/khaledmahi/linkup/internal/user"
	"github.com/khaledmahi/linkup/pkg/logger"
)

// memberships is a test MembershipChecker backed by a set of
// "userID:groupID" pairs.
type memberships map[string]bool

func (m memberships) IsMember(ctx context.Context, userID, groupID string) (bool, error) {
	return m[userID+":"+groupID], nil
}

func newTestDB(t *testing.T) *gorm.DB {
	t.Helper()

	dsn := fmt.Sprintf("file:%s?mode=memory&cache=shared", strings.ReplaceAll(t.Name(), "/", "_"))
	db, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{
		Logger: gormLogger.Default.LogMode(gormLogger.Silent),
	})
	require.NoError(t, err)

	sqlDB, err := db.DB()
	require.NoError(t, err)
	sqlDB.SetMaxOpenConns(1)

	require.NoError(t, db.AutoMigrate(&user.User{}, &Post{}, &Image{}, &comment.Comment{}))
	return db
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

func newTestService(t *testing.T, members memberships) (*Service, *gorm.DB, *assets.FakeStore) {
	t.Helper()
	db := newTestDB(t)
	store := assets.NewFakeStore()
	svc := NewService(NewRepository(db), members, store, logger.NewNop())
	return svc, db, store
}

// fileHeaders builds real multipart file headers for the given file names.
func fileHeaders(t *testing.T, names ...string) []*multipart.FileHeader {
	t.Helper()

	var buf bytes.Buffer
	mw := multipart.NewWriter(&buf)
	for _, name := range names {
		fw, err := mw.CreateFormFile("images", name)
		require.NoError(t, err)
		_, err = fw.Write([]byte("image-bytes-" + name))
		require.NoError(t, err)
	}
	require.NoError(t, mw.Close())

	form, err := multipart.NewReader(&buf, mw.Boundary()).ReadForm(32 << 20)
	require.NoError(t, err)
	return form.File["images"]
}

func TestCreatePost(t *testing.T) {
	svc, _, _ := newTestService(t, memberships{})
	ctx := context.Background()
	db := svc.repo.db
	author := seedUser(t, db, "alice")

	p, err := svc.Create(ctx, author.ID, &CreatePostRequest{Content: "hello world"}, nil)
	require.NoError(t, err)
	assert.Nil(t, p.GroupID)
	assert.Equal(t, "hello world", p.Content)

	_, err = svc.Create(ctx, author.ID, &CreatePostRequest{Content: "   "}, nil)
	assert.ErrorIs(t, err, ErrContentRequired)
}

func TestCreatePostGroupAttachment(t *testing.T) {
	groupID := uuid.NewString()
	members := memberships{}
	svc, db, _ := newTestService(t, members)
	ctx := context.Background()
	member := seedUser(t, db, "alice")
	outsider := seedUser(t, db, "bob")
	members[member.ID+":"+groupID] = true

	p, err := svc.Create(ctx, member.ID, &CreatePostRequest{Content: "in group", GroupID: groupID}, nil)
	require.NoError(t, err)
	require.NotNil(t, p.GroupID)
	assert.Equal(t, groupID, *p.GroupID)

	// a non-member's group id is silently dropped
	p, err = svc.Create(ctx, outsider.ID, &CreatePostRequest{Content: "outside", GroupID: groupID}, nil)
	require.NoError(t, err)
	assert.Nil(t, p.GroupID)
}

func TestCreatePostWithImages(t *testing.T) {
	svc, db, store := newTestService(t, memberships{})
	ctx := context.Background()
	author := seedUser(t, db, "alice")

	p, err := svc.Create(ctx, author.ID, &CreatePostRequest{Content: "pics"}, fileHeaders(t, "a.jpg", "b.jpg"))
	require.NoError(t, err)

	images, err := svc.repo.ListImages(ctx, p.ID, 0)
	require.NoError(t, err)
	assert.Len(t, images, 2)
	assert.Equal(t, 2, store.StoredCount())
}

func TestAddImagesOwnership(t *testing.T) {
	svc, db, store := newTestService(t, memberships{})
	ctx := context.Background()
	author := seedUser(t, db, "alice")
	other := seedUser(t, db, "bob")

	p, err := svc.Create(ctx, author.ID, &CreatePostRequest{Content: "pics"}, nil)
	require.NoError(t, err)

	_, err = svc.AddImages(ctx, p.ID, other.ID, fileHeaders(t, "a.jpg"))
	assert.ErrorIs(t, err, ErrNotAuthorized)
	assert.Equal(t, 0, store.StoredCount())

	_, err = svc.AddImages(ctx, uuid.NewString(), author.ID, fileHeaders(t, "a.jpg"))
	assert.ErrorIs(t, err, ErrPostNotFound)

	_, err = svc.AddImages(ctx, p.ID, author.ID, nil)
	assert.ErrorIs(t, err, ErrNoImages)
}

func TestAddImagesPartialUploadFailure(t *testing.T) {
	svc, db, store := newTestService(t, memberships{})
	ctx := context.Background()
	author := seedUser(t, db, "alice")
	store.FailUploads["bad.jpg"] = true

	p, err := svc.Create(ctx, author.ID, &CreatePostRequest{Content: "pics"}, nil)
	require.NoError(t, err)

	added, err := svc.AddImages(ctx, p.ID, author.ID, fileHeaders(t, "good.jpg", "bad.jpg"))
	require.NoError(t, err)

	// created records never exceed successful uploads
	assert.Len(t, added, 1)

	images, err := svc.repo.ListImages(ctx, p.ID, 0)
	require.NoError(t, err)
	assert.Len(t, images, 1)

	updated, err := svc.repo.GetByID(ctx, p.ID)
	require.NoError(t, err)
	assert.NotNil(t, updated.ModifiedAt)
}

func TestAddImagesAllUploadsFail(t *testing.T) {
	svc, db, store := newTestService(t, memberships{})
	ctx := context.Background()
	author := seedUser(t, db, "alice")
	store.FailUploads["bad.jpg"] = true

	p, err := svc.Create(ctx, author.ID, &CreatePostRequest{Content: "pics"}, nil)
	require.NoError(t, err)

	_, err = svc.AddImages(ctx, p.ID, author.ID, fileHeaders(t, "bad.jpg"))
	assert.ErrorIs(t, err, ErrNoImagesStored)
}

func TestDeleteImages(t *testing.T) {
	svc, db, store := newTestService(t, memberships{})
	ctx := context.Background()
	author := seedUser(t, db, "alice")
	other := seedUser(t, db, "bob")

	p, err := svc.Create(ctx, author.ID, &CreatePostRequest{Content: "pics"}, fileHeaders(t, "a.jpg", "b.jpg", "c.jpg"))
	require.NoError(t, err)

	images, err := svc.repo.ListImages(ctx, p.ID, 0)
	require.NoError(t, err)
	require.Len(t, images, 3)

	// only the post's owner may delete its images
	_, err = svc.DeleteImages(ctx, p.ID, other.ID, []string{images[0].ID})
	assert.ErrorIs(t, err, ErrNotAuthorized)

	// the store refuses one of the two requested deletions
	store.FailDeletes[images[1].PublicID] = true

	result, err := svc.DeleteImages(ctx, p.ID, author.ID, []string{images[0].ID, images[1].ID})
	require.NoError(t, err)
	assert.ElementsMatch(t, []string{images[0].ID}, result.Deleted)
	assert.ElementsMatch(t, []string{images[1].ID}, result.NotDeleted)

	// deleted and not-deleted never overlap
	for _, id := range result.Deleted {
		assert.NotContains(t, result.NotDeleted, id)
	}

	remaining, err := svc.repo.ListImages(ctx, p.ID, 0)
	require.NoError(t, err)
	assert.Len(t, remaining, 2)
}

// droppedImageDeleter pretends the local delete commits zero rows.
type droppedImageDeleter struct{}

func (droppedImageDeleter) DeleteImages(ctx context.Context, imageIDs []string) (int64, error) {
	return 0, nil
}

func TestDeleteImagesLocalCommitCollapse(t *testing.T) {
	svc, db, store := newTestService(t, memberships{})
	ctx := context.Background()
	author := seedUser(t, db, "alice")

	p, err := svc.Create(ctx, author.ID, &CreatePostRequest{Content: "pics"}, fileHeaders(t, "a.jpg"))
	require.NoError(t, err)

	images, err := svc.repo.ListImages(ctx, p.ID, 0)
	require.NoError(t, err)
	require.Len(t, images, 1)

	svc.images = droppedImageDeleter{}

	// the store confirms the deletion but the local commit touches no rows:
	// nothing may be reported deleted
	result, err := svc.DeleteImages(ctx, p.ID, author.ID, []string{images[0].ID})
	require.NoError(t, err)
	assert.Empty(t, result.Deleted)
	assert.Empty(t, result.NotDeleted)

	// the remote object is already gone while the row survived
	assert.Equal(t, 0, store.StoredCount())
	remaining, err := svc.repo.ListImages(ctx, p.ID, 0)
	require.NoError(t, err)
	assert.Len(t, remaining, 1)
}

func TestDeleteImagesIgnoresForeignIDs(t *testing.T) {
	svc, db, _ := newTestService(t, memberships{})
	ctx := context.Background()
	author := seedUser(t, db, "alice")

	p, err := svc.Create(ctx, author.ID, &CreatePostRequest{Content: "pics"}, fileHeaders(t, "a.jpg"))
	require.NoError(t, err)

	// IDs that do not belong to the post are filtered out up front
	result, err := svc.DeleteImages(ctx, p.ID, author.ID, []string{uuid.NewString()})
	require.NoError(t, err)
	assert.Empty(t, result.Deleted)
	assert.Empty(t, result.NotDeleted)

	images, err := svc.repo.ListImages(ctx, p.ID, 0)
	require.NoError(t, err)
	assert.Len(t, images, 1)
}

func TestUpdateContent(t *testing.T) {
	svc, db, _ := newTestService(t, memberships{})
	ctx := context.Background()
	author := seedUser(t, db, "alice")
	other := seedUser(t, db, "bob")

	p, err := svc.Create(ctx, author.ID, &CreatePostRequest{Content: "before"}, nil)
	require.NoError(t, err)

	_, err = svc.UpdateContent(ctx, p.ID, other.ID, "hijack")
	assert.ErrorIs(t, err, ErrNotAuthorized)

	content, err := svc.UpdateContent(ctx, p.ID, author.ID, "after")
	require.NoError(t, err)
	assert.Equal(t, "after", content)

	updated, err := svc.repo.GetByID(ctx, p.ID)
	require.NoError(t, err)
	assert.Equal(t, "after", updated.Content)
	assert.NotNil(t, updated.ModifiedAt)
}

func TestUpdateAll(t *testing.T) {
	svc, db, store := newTestService(t, memberships{})
	ctx := context.Background()
	author := seedUser(t, db, "alice")

	p, err := svc.Create(ctx, author.ID, &CreatePostRequest{Content: "before"}, fileHeaders(t, "old.jpg"))
	require.NoError(t, err)

	existing, err := svc.repo.ListImages(ctx, p.ID, 0)
	require.NoError(t, err)
	require.Len(t, existing, 1)

	result, err := svc.UpdateAll(ctx, p.ID, author.ID, "after", fileHeaders(t, "new.jpg"), []string{existing[0].ID})
	require.NoError(t, err)
	assert.Equal(t, "after", result.Content)
	assert.Len(t, result.AddedImages, 1)
	assert.ElementsMatch(t, []string{existing[0].ID}, result.RemovedImages.Deleted)

	images, err := svc.repo.ListImages(ctx, p.ID, 0)
	require.NoError(t, err)
	require.Len(t, images, 1)
	assert.Equal(t, 1, store.StoredCount())
}

func TestUpdateAllOwnershipAbortsBeforeRemoteCalls(t *testing.T) {
	svc, db, store := newTestService(t, memberships{})
	ctx := context.Background()
	author := seedUser(t, db, "alice")
	other := seedUser(t, db, "bob")

	p, err := svc.Create(ctx, author.ID, &CreatePostRequest{Content: "before"}, nil)
	require.NoError(t, err)

	_, err = svc.UpdateAll(ctx, p.ID, other.ID, "hijack", fileHeaders(t, "new.jpg"), nil)
	assert.ErrorIs(t, err, ErrNotAuthorized)
	assert.Equal(t, 0, store.StoredCount())

	unchanged, err := svc.repo.GetByID(ctx, p.ID)
	require.NoError(t, err)
	assert.Equal(t, "before", unchanged.Content)
}

func TestDeletePost(t *testing.T) {
	svc, db, store := newTestService(t, memberships{})
	ctx := context.Background()
	author := seedUser(t, db, "alice")
	other := seedUser(t, db, "bob")

	p, err := svc.Create(ctx, author.ID, &CreatePostRequest{Content: "pics"}, fileHeaders(t, "a.jpg"))
	require.NoError(t, err)
	require.Equal(t, 1, store.StoredCount())

	err = svc.Delete(ctx, other.ID, p.ID)
	assert.ErrorIs(t, err, ErrNotAuthorized)

	require.NoError(t, svc.Delete(ctx, author.ID, p.ID))

	gone, err := svc.repo.GetByID(ctx, p.ID)
	require.NoError(t, err)
	assert.Nil(t, gone)
	assert.Equal(t, 0, store.StoredCount())
}

func TestListFeed(t *testing.T) {
	groupID := uuid.NewString()
	members := memberships{}
	svc, db, _ := newTestService(t, members)
	ctx := context.Background()
	author := seedUser(t, db, "alice")
	members[author.ID+":"+groupID] = true

	for i := 0; i < 3; i++ {
		_, err := svc.Create(ctx, author.ID, &CreatePostRequest{Content: fmt.Sprintf("public-%d", i)}, nil)
		require.NoError(t, err)
	}
	_, err := svc.Create(ctx, author.ID, &CreatePostRequest{Content: "grouped", GroupID: groupID}, nil)
	require.NoError(t, err)

	// the global feed only carries ungrouped posts
	posts, total, pages, err := svc.ListFeed(ctx, 1, 2)
	require.NoError(t, err)
	assert.Equal(t, int64(3), total)
	assert.Equal(t, 2, pages)
	require.Len(t, posts, 2)
	for _, p := range posts {
		assert.Nil(t, p.GroupID)
	}
}

func TestListByUsername(t *testing.T) {
	svc, db, _ := newTestService(t, memberships{})
	ctx := context.Background()
	author := seedUser(t, db, "alice")

	_, err := svc.Create(ctx, author.ID, &CreatePostRequest{Content: "mine"}, nil)
	require.NoError(t, err)

	posts, total, pages, err := svc.ListByUsername(ctx, "alice", 1, 10)
	require.NoError(t, err)
	assert.Equal(t, int64(1), total)
	assert.Equal(t, 1, pages)
	require.Len(t, posts, 1)
	assert.Equal(t, "alice", posts[0].Author.Username)

	// an unknown username is an empty page, not an error
	posts, total, pages, err = svc.ListByUsername(ctx, "nobody", 1, 10)
	require.NoError(t, err)
	assert.Empty(t, posts)
	assert.Equal(t, int64(0), total)
	assert.Equal(t, 0, pages)
}

func TestGetPostDetail(t *testing.T) {
	groupID := uuid.NewString()
	members := memberships{}
	svc, db, _ := newTestService(t, members)
	ctx := context.Background()
	author := seedUser(t, db, "alice")
	members[author.ID+":"+groupID] = true

	// the post package never migrates groups; a bare table is enough for
	// the parent-group projection
	require.NoError(t, db.Exec(
		"CREATE TABLE groups (id text PRIMARY KEY, name text, creator_id text, created_at datetime)",
	).Error)
	require.NoError(t, db.Exec(
		"INSERT INTO groups (id, name, creator_id, created_at) VALUES (?, ?, ?, ?)",
		groupID, "Readers", author.ID, time.Now(),
	).Error)

	p, err := svc.Create(ctx, author.ID, &CreatePostRequest{Content: "hi", GroupID: groupID}, fileHeaders(t, "a.jpg"))
	require.NoError(t, err)

	detail, err := svc.Get(ctx, p.ID)
	require.NoError(t, err)
	assert.Equal(t, "hi", detail.Content)
	require.NotNil(t, detail.Author)
	assert.Equal(t, "alice", detail.Author.Username)
	require.NotNil(t, detail.Group)
	assert.Equal(t, "Readers", detail.Group.Name)
	assert.Len(t, detail.Images, 1)

	// the rendered timestamp names the same instant the model holds
	created, err := time.Parse(time.RFC3339, detail.CreatedAt)
	require.NoError(t, err)
	assert.True(t, created.Equal(p.CreatedAt.Truncate(time.Second)))

	_, err = svc.Get(ctx, uuid.NewString())
	assert.ErrorIs(t, err, ErrPostNotFound)
}
