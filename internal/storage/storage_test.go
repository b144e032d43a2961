package storage

import (
	"context"
	"errors"
	"net/http"
	"testing"

	"github.com/minio/minio-go/v7"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDocumentKey(t *testing.T) {
	assert.Equal(t, "analyses/a1/000-protocol.pdf", DocumentKey("a1", 0, "protocol.pdf"))
	assert.Equal(t, "analyses/a1/012-budget.xlsx", DocumentKey("a1", 12, "../../budget.xlsx"))
	assert.Equal(t, "analyses/a1/001-memo.txt", DocumentKey("a1", 1, `C:\Users\me\memo.txt`))
	assert.Equal(t, "analyses/a1/002-document", DocumentKey("a1", 2, ""))
}

func TestMemoryStorage(t *testing.T) {
	ctx := context.Background()
	s := NewMemoryStorage()

	data := []byte("Site 002 IMP Delay")
	require.NoError(t, s.Upload(ctx, "k", data, "text/plain"))
	data[0] = 'X'

	got, err := s.Download(ctx, "k")
	require.NoError(t, err)
	assert.Equal(t, "Site 002 IMP Delay", string(got))
	assert.Equal(t, 1, s.Len())

	require.NoError(t, s.Delete(ctx, "k"))
	_, err = s.Download(ctx, "k")
	assert.ErrorIs(t, err, ErrObjectNotFound)
}

func TestMemoryStorageHonoursContext(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	assert.ErrorIs(t, NewMemoryStorage().Upload(ctx, "k", nil, ""), context.Canceled)
}

func TestS3ObjectErrorMapsMissingKeys(t *testing.T) {
	s := &s3Storage{bucket: "trial-documents"}

	err := s.objectError("analyses/a1/000-a.txt", minio.ErrorResponse{Code: "NoSuchKey", StatusCode: http.StatusNotFound})
	assert.ErrorIs(t, err, ErrObjectNotFound)

	err = s.objectError("analyses/a1/000-a.txt", minio.ErrorResponse{Code: "SlowDown", StatusCode: http.StatusServiceUnavailable})
	assert.NotErrorIs(t, err, ErrObjectNotFound)
	assert.Contains(t, err.Error(), "trial-documents")

	err = s.objectError("k", errors.New("connection refused"))
	assert.NotErrorIs(t, err, ErrObjectNotFound)
}
