package server

import (
	"context"
	"encoding/json"
	"math"
	"net"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/teranos/classdb/classifier"
	"github.com/teranos/classdb/endpoint"
	"github.com/teranos/classdb/indexer"
	qtesting "github.com/teranos/classdb/internal/testing"
	"github.com/teranos/classdb/query"
	"github.com/teranos/classdb/store"
)

const (
	item1 = "file://dataset/1.dcm"
	item2 = "file://dataset/2.dcm"
)

type fixture struct {
	srv     *Server
	store   *store.Store
	indexer *indexer.Indexer
}

func newFixture(t *testing.T) *fixture {
	t.Helper()

	st := store.New(qtesting.CreateTestDB(t))

	convnet := classifier.NewStatic("convnet")
	convnet.Predict("liver", item1, "true", 0.85)
	convnet.Predict("liver", item1, "false", 0.15)
	convnet.Predict("liver", item2, "true", 0.2)
	convnet.Predict("liver", item2, "false", 0.8)
	convnet.Set("odd", item1,
		classifier.Result{PredictionURI: "class://convnet/odd/nan", Score: math.NaN()},
		classifier.Result{PredictionURI: "class://convnet/odd/big", Score: math.Inf(1)},
		classifier.Result{PredictionURI: "CLASS://convnet/odd/upper", Score: 0.5},
		classifier.Result{PredictionURI: "http://elsewhere/odd", Score: 0.9},
	)

	registry := classifier.NewRegistry()
	require.NoError(t, registry.Register(convnet))

	ix := indexer.New(st, registry)
	require.NoError(t, ix.Configure([]endpoint.Descriptor{
		endpoint.New("convnet", "liver", nil, true),
	}))

	defaults, err := query.NewParams(query.Unbounded, 0, true)
	require.NoError(t, err)

	return &fixture{
		srv: New(Options{
			Store:    st,
			Indexer:  ix,
			Lookup:   registry,
			Defaults: defaults,
		}),
		store:   st,
		indexer: ix,
	}
}

func (f *fixture) do(t *testing.T, method, target, body string) *httptest.ResponseRecorder {
	t.Helper()
	var req *http.Request
	if body == "" {
		req = httptest.NewRequest(method, target, nil)
	} else {
		req = httptest.NewRequest(method, target, strings.NewReader(body))
		req.Header.Set("Content-Type", "application/json")
	}
	rr := httptest.NewRecorder()
	f.srv.Handler().ServeHTTP(rr, req)
	return rr
}

func decode[T any](t *testing.T, rr *httptest.ResponseRecorder) T {
	t.Helper()
	var v T
	require.NoError(t, json.Unmarshal(rr.Body.Bytes(), &v), rr.Body.String())
	return v
}

func (f *fixture) index(t *testing.T, items ...string) {
	t.Helper()
	body, err := json.Marshal(IndexRequest{Items: items})
	require.NoError(t, err)
	rr := f.do(t, http.MethodPost, "/classification/index", string(body))
	require.Equal(t, http.StatusOK, rr.Code, rr.Body.String())
}

func TestIndexAndQuery(t *testing.T) {
	f := newFixture(t)

	rr := f.do(t, http.MethodPost, "/classification/index", `{"items":["`+item1+`","`+item2+`"]}`)
	require.Equal(t, http.StatusOK, rr.Code, rr.Body.String())
	report := decode[map[string]float64](t, rr)
	assert.Equal(t, float64(4), report["indexed"])
	assert.Equal(t, float64(0), report["errors"])
	assert.Contains(t, report, "elapsedTime")

	rr = f.do(t, http.MethodGet, "/classification/query?query=criterion:liver", "")
	require.Equal(t, http.StatusOK, rr.Code, rr.Body.String())
	resp := decode[QueryResponse](t, rr)
	require.Len(t, resp.Results, 2, "only the best class per item and criterion")
	assert.Equal(t, QueryResult{
		Item: item1, ClassifierName: "convnet", Criterion: "liver", Prediction: "true", Score: 0.85,
	}, resp.Results[0])
	assert.Equal(t, item2, resp.Results[1].Item)
	assert.Equal(t, "false", resp.Results[1].Prediction)

	rr = f.do(t, http.MethodGet, "/classification/query?query=liver:true&onlybest=false&threshold=0.5", "")
	require.Equal(t, http.StatusOK, rr.Code, rr.Body.String())
	resp = decode[QueryResponse](t, rr)
	require.Len(t, resp.Results, 1)
	assert.Equal(t, item1, resp.Results[0].Item)

	rr = f.do(t, http.MethodGet, "/classification/query?query=criterion:liver&onlybest=false&nresults=3", "")
	require.Equal(t, http.StatusOK, rr.Code)
	assert.Len(t, decode[QueryResponse](t, rr).Results, 3)

	// a bare criterion means its positive class
	rr = f.do(t, http.MethodGet, "/classification/query?query=liver", "")
	require.Equal(t, http.StatusOK, rr.Code)
	resp = decode[QueryResponse](t, rr)
	require.Len(t, resp.Results, 2)
	assert.Equal(t, "true", resp.Results[1].Prediction)
	assert.Equal(t, 0.2, resp.Results[1].Score)
}

func TestQueryParameterErrors(t *testing.T) {
	f := newFixture(t)

	tests := []struct {
		name   string
		target string
		want   int
		msg    string
	}{
		{"missing query", "/classification/query", http.StatusBadRequest, "Missing query parameter"},
		{"threshold not a number", "/classification/query?query=liver&threshold=high", http.StatusBadRequest, "Bad threshold parameter"},
		{"threshold above one", "/classification/query?query=liver&threshold=1.5", http.StatusBadRequest, "Bad threshold parameter"},
		{"threshold negative", "/classification/query?query=liver&threshold=-0.1", http.StatusBadRequest, "Bad threshold parameter"},
		{"nresults not an integer", "/classification/query?query=liver&nresults=ten", http.StatusBadRequest, "Bad nresults parameter"},
		{"onlybest not a bool", "/classification/query?query=liver&onlybest=maybe", http.StatusBadRequest, "Bad onlybest parameter"},
		{"unparseable query", "/classification/query?query=" + "liver%3A(true", http.StatusBadRequest, "Classification query failed"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rr := f.do(t, http.MethodGet, tt.target, "")
			assert.Equal(t, tt.want, rr.Code)
			assert.Contains(t, decode[map[string]string](t, rr)["error"], tt.msg)
		})
	}
}

func TestQueryClampsNResults(t *testing.T) {
	f := newFixture(t)
	f.index(t, item1, item2)

	rr := f.do(t, http.MethodGet, "/classification/query?query=criterion:liver&onlybest=false&nresults=-7", "")
	require.Equal(t, http.StatusOK, rr.Code, rr.Body.String())
	assert.Len(t, decode[QueryResponse](t, rr).Results, 4)
}

func TestQueryWithoutStore(t *testing.T) {
	srv := New(Options{Defaults: query.Default()})
	rr := httptest.NewRecorder()
	srv.Handler().ServeHTTP(rr, httptest.NewRequest(http.MethodGet, "/classification/query?query=liver", nil))
	assert.Equal(t, http.StatusServiceUnavailable, rr.Code)

	var nilStore *store.Store
	srv = New(Options{Store: nilStore, Defaults: query.Default()})
	rr = httptest.NewRecorder()
	srv.Handler().ServeHTTP(rr, httptest.NewRequest(http.MethodGet, "/classification/query?query=liver", nil))
	assert.Equal(t, http.StatusServiceUnavailable, rr.Code)
}

func TestClassify(t *testing.T) {
	f := newFixture(t)

	rr := f.do(t, http.MethodGet, "/classification/classify/convnet/liver?uri="+item1, "")
	require.Equal(t, http.StatusOK, rr.Code, rr.Body.String())
	resp := decode[ClassifyResponse](t, rr)
	assert.Equal(t, map[string]interface{}{
		"class://convnet/liver/true":  0.85,
		"class://convnet/liver/false": 0.15,
	}, resp.Results)

	t.Run("non-finite scores and foreign schemes", func(t *testing.T) {
		rr := f.do(t, http.MethodGet, "/classification/classify/convnet/odd?uri="+item1, "")
		require.Equal(t, http.StatusOK, rr.Code, rr.Body.String())
		resp := decode[ClassifyResponse](t, rr)
		assert.Equal(t, map[string]interface{}{
			"class://convnet/odd/nan":   "NaN",
			"class://convnet/odd/big":   "Infinity",
			"CLASS://convnet/odd/upper": 0.5,
		}, resp.Results)
	})

	t.Run("unknown classifier", func(t *testing.T) {
		rr := f.do(t, http.MethodGet, "/classification/classify/resnet/liver?uri="+item1, "")
		assert.Equal(t, http.StatusBadRequest, rr.Code)
		assert.Equal(t, "No such classifier with the name resnet", decode[map[string]string](t, rr)["error"])
	})

	t.Run("missing uri", func(t *testing.T) {
		rr := f.do(t, http.MethodGet, "/classification/classify/convnet/liver", "")
		assert.Equal(t, http.StatusBadRequest, rr.Code)
		assert.Equal(t, "Missing uri parameter", decode[map[string]string](t, rr)["error"])
	})
}

func TestUnindex(t *testing.T) {
	f := newFixture(t)
	f.index(t, item1, item2)

	rr := f.do(t, http.MethodDelete, "/classification/index?uri="+item1, "")
	require.Equal(t, http.StatusOK, rr.Code, rr.Body.String())
	assert.Equal(t, map[string]bool{"removed": true}, decode[map[string]bool](t, rr))

	n, err := f.store.Count(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 2, n)

	rr = f.do(t, http.MethodDelete, "/classification/index?uri="+item1, "")
	assert.Equal(t, map[string]bool{"removed": false}, decode[map[string]bool](t, rr))

	rr = f.do(t, http.MethodDelete, "/classification/index", "")
	assert.Equal(t, http.StatusBadRequest, rr.Code)
}

func TestIndexRejectsBadBody(t *testing.T) {
	f := newFixture(t)
	rr := f.do(t, http.MethodPost, "/classification/index", `{"items": "not a list"}`)
	assert.Equal(t, http.StatusBadRequest, rr.Code)

	rr = f.do(t, http.MethodPost, "/classification/index", `{"uris": []}`)
	assert.Equal(t, http.StatusBadRequest, rr.Code)
}

func TestIndexDisabled(t *testing.T) {
	f := newFixture(t)
	f.indexer.Disable()

	f.index(t, item1)
	n, err := f.store.Count(context.Background())
	require.NoError(t, err)
	assert.Zero(t, n)
}

func TestHealth(t *testing.T) {
	f := newFixture(t)
	f.index(t, item1)

	rr := f.do(t, http.MethodGet, "/health", "")
	require.Equal(t, http.StatusOK, rr.Code)
	health := decode[map[string]interface{}](t, rr)
	assert.Equal(t, "ok", health["status"])
	assert.Equal(t, true, health["indexer_enabled"])
	assert.Equal(t, float64(1), health["endpoints"])
	assert.Equal(t, float64(2), health["records"])
}

func TestMiddleware(t *testing.T) {
	f := newFixture(t)

	rr := f.do(t, http.MethodGet, "/health", "")
	assert.NotEmpty(t, rr.Header().Get(RequestIDHeader))

	req := httptest.NewRequest(http.MethodGet, "/health", nil)
	req.Header.Set(RequestIDHeader, "req-42")
	rr = httptest.NewRecorder()
	f.srv.Handler().ServeHTTP(rr, req)
	assert.Equal(t, "req-42", rr.Header().Get(RequestIDHeader))

	rr = f.do(t, http.MethodGet, "/metrics", "")
	require.Equal(t, http.StatusOK, rr.Code)
	assert.Contains(t, rr.Body.String(), "classdb_http_requests_total")

	rr = f.do(t, http.MethodPut, "/classification/index", "")
	assert.Equal(t, http.StatusMethodNotAllowed, rr.Code)
}

func TestIndexSlotHonorsContext(t *testing.T) {
	f := newFixture(t)
	release, err := f.srv.acquireIndexSlot(context.Background())
	require.NoError(t, err)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	_, err = f.srv.acquireIndexSlot(ctx)
	assert.ErrorIs(t, err, context.Canceled)

	release()
	release, err = f.srv.acquireIndexSlot(context.Background())
	require.NoError(t, err)
	release()
}

func TestServeAndShutdown(t *testing.T) {
	f := newFixture(t)
	ln, err := net.Listen("tcp", "127.0.0.1:0")
	require.NoError(t, err)

	served := make(chan error, 1)
	go func() { served <- f.srv.Serve(ln) }()

	resp, err := http.Get("http://" + ln.Addr().String() + "/health")
	require.NoError(t, err)
	resp.Body.Close()
	assert.Equal(t, http.StatusOK, resp.StatusCode)

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	require.NoError(t, f.srv.Shutdown(ctx))
	assert.NoError(t, <-served)
}
