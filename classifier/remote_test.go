package classifier

import (
	"context"
	"math"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/time/rate"

	"github.com/teranos/classdb/errors"
	"github.com/teranos/classdb/internal/httpclient"
)

func newRemote(t *testing.T, handler http.HandlerFunc) *Remote {
	t.Helper()
	server := httptest.NewServer(handler)
	t.Cleanup(server.Close)

	r, err := NewRemote("convnet", server.URL+"/classification/", httpclient.WrapClient(server.Client()), nil)
	require.NoError(t, err)
	return r
}

func TestRemote_Classify(t *testing.T) {
	var gotPath, gotURI string
	r := newRemote(t, func(w http.ResponseWriter, req *http.Request) {
		gotPath = req.URL.EscapedPath()
		gotURI = req.URL.Query().Get("uri")
		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(`{"results":{"class://convnet/liver/false":0.1,"class://convnet/liver/true":0.9,"class://convnet/liver/maybe":"NaN"},"elapsedTime":3}`))
	})

	got, err := r.Classify(context.Background(), "liver", "file://dataset/1.dcm?frame=2")
	require.NoError(t, err)

	assert.Equal(t, "/classification/classify/convnet/liver", gotPath)
	assert.Equal(t, "file://dataset/1.dcm?frame=2", gotURI)

	require.Len(t, got, 3)
	assert.Equal(t, Result{PredictionURI: "class://convnet/liver/true", Score: 0.9}, got[0])
	assert.Equal(t, Result{PredictionURI: "class://convnet/liver/false", Score: 0.1}, got[1])
	assert.True(t, math.IsNaN(got[2].Score), "string scores are parsed, not rejected")
}

func TestRemote_ErrorStatus(t *testing.T) {
	t.Run("error body", func(t *testing.T) {
		r := newRemote(t, func(w http.ResponseWriter, req *http.Request) {
			w.WriteHeader(http.StatusBadRequest)
			w.Write([]byte(`{"error":"unknown criterion"}`))
		})
		_, err := r.Classify(context.Background(), "liver", "file://x")
		require.Error(t, err)
		assert.Contains(t, err.Error(), "returned 400: unknown criterion")
	})

	t.Run("not found is marked", func(t *testing.T) {
		r := newRemote(t, func(w http.ResponseWriter, req *http.Request) {
			http.NotFound(w, req)
		})
		_, err := r.Classify(context.Background(), "liver", "file://x")
		assert.True(t, errors.IsNotFoundError(err))
	})

	t.Run("bad json", func(t *testing.T) {
		r := newRemote(t, func(w http.ResponseWriter, req *http.Request) {
			w.Write([]byte(`{"results":`))
		})
		_, err := r.Classify(context.Background(), "liver", "file://x")
		assert.Error(t, err)
	})

}

func TestRemote_UnreadableScoreKeepsTheRest(t *testing.T) {
	r := newRemote(t, func(w http.ResponseWriter, req *http.Request) {
		w.Write([]byte(`{"results":{"class://convnet/liver/true":0.85,"class://convnet/liver/false":0.15,` +
			`"class://convnet/liver/maybe":"high","class://convnet/liver/unsure":true}}`))
	})

	got, err := r.Classify(context.Background(), "liver", "file://x")
	require.NoError(t, err)
	require.Len(t, got, 4)
	assert.Equal(t, Result{PredictionURI: "class://convnet/liver/true", Score: 0.85}, got[0])
	assert.Equal(t, Result{PredictionURI: "class://convnet/liver/false", Score: 0.15}, got[1])
	assert.True(t, math.IsNaN(got[2].Score))
	assert.True(t, math.IsNaN(got[3].Score))
}

func TestRemote_RateLimitHonorsContext(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, req *http.Request) {
		w.Write([]byte(`{"results":{}}`))
	}))
	defer server.Close()

	limiter := rate.NewLimiter(rate.Every(time.Hour), 1)
	r, err := NewRemote("convnet", server.URL, httpclient.WrapClient(server.Client()), limiter)
	require.NoError(t, err)

	_, err = r.Classify(context.Background(), "liver", "file://x")
	require.NoError(t, err)

	ctx, cancel := context.WithTimeout(context.Background(), 20*time.Millisecond)
	defer cancel()
	_, err = r.Classify(ctx, "liver", "file://x")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "rate limit")
}

func TestNewRemote_Validation(t *testing.T) {
	client := httpclient.NewSaferClient(time.Second)

	_, err := NewRemote("", "https://example.com", client, nil)
	assert.True(t, errors.IsInvalidRequestError(err))

	_, err = NewRemote("convnet", "ftp://example.com", client, nil)
	assert.Error(t, err)

	_, err = NewRemote("convnet", "http://127.0.0.1:9000", client, nil)
	assert.Error(t, err, "private targets are refused unless allowed")
}

func TestNewRemotes(t *testing.T) {
	client := httpclient.New(time.Second, httpclient.Options{AllowPrivate: true})
	remotes, err := NewRemotes(map[string]string{
		"mammo":   "http://127.0.0.1:9001",
		"convnet": "http://127.0.0.1:9000/",
	}, client, RemoteOptions{RatePerSecond: 5, Burst: 2})
	require.NoError(t, err)
	require.Len(t, remotes, 2)

	assert.Equal(t, "convnet", remotes[0].Name())
	assert.Equal(t, "mammo", remotes[1].Name())
	assert.Equal(t, "http://127.0.0.1:9000/classify/convnet/a%2Fb?uri=file%3A%2F%2Fx", remotes[0].URL("a/b", "file://x"))
	assert.Same(t, remotes[0].limiter, remotes[1].limiter)
}
