package database

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/danielcuellar117/cgs-glassbid-mvp/pkg/database/model"
	gberrors "github.com/danielcuellar117/cgs-glassbid-mvp/pkg/errors"
)

func TestCreateStorageObjectConflict(t *testing.T) {
	h := NewTestHelper(t)
	defer h.Cleanup()
	ctx := h.CreateTestContext()
	facade := NewStorageObjectFacade()

	obj := &model.StorageObject{ID: "dup-1", Bucket: "outputs", Key: "p/j/bid-v1.pdf"}
	require.NoError(t, facade.CreateStorageObject(ctx, obj))

	err := facade.CreateStorageObject(ctx, &model.StorageObject{
		ID: "dup-1", Bucket: "outputs", Key: "p/j/bid-v1.pdf",
	})
	require.Error(t, err)
	assert.True(t, gberrors.IsCode(err, gberrors.CodeConflictError), "conflict code, got %v", err)
	assert.ErrorIs(t, err, ErrConflict)
}

func TestDBErrCodes(t *testing.T) {
	assert.NoError(t, dbErr("noop", nil))

	plain := dbErr("query failed", errors.New("connection reset"))
	require.Error(t, plain)
	assert.True(t, gberrors.IsCode(plain, gberrors.CodeDatabaseError))
	assert.False(t, errors.Is(plain, ErrConflict))

	dup := dbErr("insert", errors.New(`UNIQUE constraint failed: render_requests.job_id`))
	assert.True(t, gberrors.IsCode(dup, gberrors.CodeConflictError))
	assert.ErrorIs(t, dup, ErrConflict)
}
