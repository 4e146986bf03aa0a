package memory

import (
	"context"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/tendant/edu-content/pkg/educontent"
)

func TestBackend_PutGetDelete(t *testing.T) {
	backend := New()
	ctx := context.Background()

	url, err := backend.Put(ctx, "1-2-notes.pdf", strings.NewReader("%PDF-1.4"), educontent.PutParams{MediaType: "application/pdf"})
	require.NoError(t, err)
	assert.Equal(t, "memory://1-2-notes.pdf", url)
	assert.Equal(t, url, backend.URL("1-2-notes.pdf"))

	obj, ok := backend.Get("1-2-notes.pdf")
	require.True(t, ok)
	assert.Equal(t, []byte("%PDF-1.4"), obj.Data)
	assert.Equal(t, "application/pdf", obj.MediaType)

	exists, err := backend.Exists(ctx, "1-2-notes.pdf")
	require.NoError(t, err)
	assert.True(t, exists)

	require.NoError(t, backend.Delete(ctx, "1-2-notes.pdf"))
	exists, err = backend.Exists(ctx, "1-2-notes.pdf")
	require.NoError(t, err)
	assert.False(t, exists)
}

func TestBackend_DeleteMissing(t *testing.T) {
	backend := New()
	err := backend.Delete(context.Background(), "nope")
	assert.ErrorIs(t, err, educontent.ErrFileNotFound)
	assert.ErrorIs(t, err, educontent.ErrNotFound)
}

func TestBackend_PutCanceled(t *testing.T) {
	backend := New()
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := backend.Put(ctx, "k", strings.NewReader("x"), educontent.PutParams{})
	assert.ErrorIs(t, err, context.Canceled)
	assert.Equal(t, 0, backend.Len())
}

func TestBackend_CustomBaseURL(t *testing.T) {
	backend := NewWithBaseURL("http://localhost:8080/files/")
	assert.Equal(t, "http://localhost:8080/files/a.png", backend.URL("a.png"))
}
