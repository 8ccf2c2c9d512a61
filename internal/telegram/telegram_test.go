package telegram

import (
	"context"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"sync/atomic"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSendMessagePostsHTML(t *testing.T) {
	var gotPath string
	var gotBody string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotPath = r.URL.Path
		buf := make([]byte, r.ContentLength)
		r.Body.Read(buf)
		gotBody = string(buf)
		w.WriteHeader(http.StatusOK)
	}))
	defer srv.Close()

	c := NewClient(srv.Client(), srv.URL+"/bot", "TOKEN", "42")
	err := c.SendMessage(context.Background(), "<b>report</b>")
	require.NoError(t, err)
	assert.Equal(t, "/botTOKEN/sendMessage", gotPath)
	assert.Contains(t, gotBody, `"parse_mode":"HTML"`)
	assert.Contains(t, gotBody, `"chat_id":"42"`)
}

func TestSendMessageChunksLongText(t *testing.T) {
	var calls int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		atomic.AddInt32(&calls, 1)
		w.WriteHeader(http.StatusOK)
	}))
	defer srv.Close()

	c := NewClient(srv.Client(), srv.URL+"/bot", "TOKEN", "42")
	long := strings.Repeat("line of report text\n", 500) // ~10k chars
	err := c.SendMessage(context.Background(), long)
	require.NoError(t, err)
	assert.GreaterOrEqual(t, atomic.LoadInt32(&calls), int32(3))
}

func TestSendMessageUnconfiguredIsNoop(t *testing.T) {
	c := NewClient(http.DefaultClient, "http://unused/bot", "", "")
	assert.False(t, c.Enabled())
	assert.NoError(t, c.SendMessage(context.Background(), "dropped"))
}

func TestSendDocument(t *testing.T) {
	var gotFile string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		require.NoError(t, r.ParseMultipartForm(1<<20))
		_, fh, err := r.FormFile("document")
		require.NoError(t, err)
		gotFile = fh.Filename
		assert.Equal(t, "42", r.FormValue("chat_id"))
		w.WriteHeader(http.StatusOK)
	}))
	defer srv.Close()

	path := filepath.Join(t.TempDir(), "daily_report_01-06-2025.csv")
	require.NoError(t, os.WriteFile(path, []byte("agent,total\nself,3\n"), 0644))

	c := NewClient(srv.Client(), srv.URL+"/bot", "TOKEN", "42")
	ok, err := c.SendDocument(context.Background(), path)
	require.NoError(t, err)
	assert.True(t, ok)
	assert.Equal(t, "daily_report_01-06-2025.csv", gotFile)
}

func TestSendDocumentWithRetryEventuallySucceeds(t *testing.T) {
	var calls int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if atomic.AddInt32(&calls, 1) < 3 {
			w.WriteHeader(http.StatusTooManyRequests)
			return
		}
		w.WriteHeader(http.StatusOK)
	}))
	defer srv.Close()

	path := filepath.Join(t.TempDir(), "hourly.csv")
	require.NoError(t, os.WriteFile(path, []byte("x\n"), 0644))

	c := NewClient(srv.Client(), srv.URL+"/bot", "TOKEN", "42")
	err := c.SendDocumentWithRetry(context.Background(), path)
	require.NoError(t, err)
	assert.Equal(t, int32(3), atomic.LoadInt32(&calls))
}

func TestChunkText(t *testing.T) {
	chunks := chunkText("short", 100)
	assert.Equal(t, []string{"short"}, chunks)

	long := strings.Repeat("a", 250)
	chunks = chunkText(long, 100)
	require.Len(t, chunks, 3)
	for _, c := range chunks {
		assert.LessOrEqual(t, len(c), 100)
	}
}

func TestChunkTextLineAtLimitEmitsNoEmptyChunk(t *testing.T) {
	first := strings.Repeat("a", 100)
	second := strings.Repeat("b", 50)
	chunks := chunkText(first+"\n"+second, 100)

	require.Len(t, chunks, 2)
	assert.Equal(t, first, chunks[0])
	assert.Equal(t, second, chunks[1])
	for i, c := range chunks {
		assert.NotEmpty(t, c, "chunk %d", i)
	}
}
