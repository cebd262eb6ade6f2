package server

import (
	"math"
	"net/http"
	"net/url"
	"slices"
	"strconv"
	"strings"
	"time"

	"github.com/teranos/classdb/errors"
	"github.com/teranos/classdb/logger"
	"github.com/teranos/classdb/prediction"
	"github.com/teranos/classdb/query"
	"github.com/teranos/classdb/store"
	"github.com/teranos/classdb/version"
)

// QueryResult is one search hit.
type QueryResult struct {
	Item           string  `json:"item"`
	ClassifierName string  `json:"classifierName"`
	Criterion      string  `json:"criterion"`
	Prediction     string  `json:"prediction"`
	Score          float64 `json:"score"`
}

// QueryResponse is the body of GET /classification/query.
type QueryResponse struct {
	Results     []QueryResult `json:"results"`
	ElapsedTime int64         `json:"elapsedTime"`
}

// ClassifyResponse is the body of GET /classification/classify/...
// Scores are numbers, or strings for NaN and the infinities.
type ClassifyResponse struct {
	Results     map[string]interface{} `json:"results"`
	ElapsedTime int64                  `json:"elapsedTime"`
}

// IndexRequest is the body of POST /classification/index.
type IndexRequest struct {
	Items []string `json:"items"`
}

// queryParams reads onlybest, threshold and nresults over the defaults.
func (s *Server) queryParams(values url.Values) (query.Params, string) {
	b := query.BuilderFrom(s.opts.Defaults)

	if v := values.Get("onlybest"); v != "" {
		ob, err := strconv.ParseBool(v)
		if err != nil {
			return query.Params{}, "Bad onlybest parameter: must be true or false"
		}
		b.OnlyBest(ob)
	}
	if v := values.Get("threshold"); v != "" {
		t, err := strconv.ParseFloat(v, 32)
		if err != nil || math.IsNaN(t) || t < 0 || t > 1 {
			return query.Params{}, "Bad threshold parameter: must be a number between 0 and 1"
		}
		b.Threshold(float32(t))
	}
	if v := values.Get("nresults"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil {
			return query.Params{}, "Bad nresults parameter: must be an integer"
		}
		b.NumberOfResults(max(n, query.Unbounded))
	}

	params, err := b.Build()
	if err != nil {
		return query.Params{}, err.Error()
	}
	return params, ""
}

// HandleQuery searches the store.
func (s *Server) HandleQuery(w http.ResponseWriter, r *http.Request) {
	start := time.Now()
	log := logger.FromContext(r.Context(), s.logger)

	text := r.URL.Query().Get("query")
	if text == "" {
		writeError(w, http.StatusBadRequest, "Missing query parameter")
		return
	}
	params, problem := s.queryParams(r.URL.Query())
	if problem != "" {
		writeError(w, http.StatusBadRequest, problem)
		return
	}
	if s.opts.Store == nil {
		writeError(w, http.StatusServiceUnavailable, "Classification database is not ready")
		return
	}

	reader, err := s.opts.Store.Reader(r.Context())
	if err != nil {
		s.fail(w, r, err, "Failed to open reader")
		return
	}
	defer reader.Close()

	records, err := reader.Search(r.Context(), text, params)
	if err != nil {
		s.fail(w, r, err, "Classification query failed")
		return
	}

	resp := QueryResponse{Results: make([]QueryResult, 0, len(records))}
	for _, rec := range records {
		resp.Results = append(resp.Results, QueryResult{
			Item:           rec.Item,
			ClassifierName: rec.Classifier,
			Criterion:      rec.Criterion,
			Prediction:     rec.Class,
			Score:          rec.Score,
		})
	}
	resp.ElapsedTime = time.Since(start).Milliseconds()

	log.Debugw("Classification query answered",
		logger.FieldQuery, text,
		logger.FieldParams, params.String(),
		logger.FieldCount, len(records))
	writeJSON(w, http.StatusOK, resp)
}

// HandleClassify runs one classifier on one item without storing anything.
func (s *Server) HandleClassify(w http.ResponseWriter, r *http.Request) {
	start := time.Now()
	name := r.PathValue("classifier")
	criterion := r.PathValue("criterion")

	item := r.URL.Query().Get("uri")
	if item == "" {
		writeError(w, http.StatusBadRequest, "Missing uri parameter")
		return
	}
	if s.opts.Lookup == nil {
		writeError(w, http.StatusServiceUnavailable, "No classifiers are configured")
		return
	}

	c, err := s.opts.Lookup.Get(name)
	if err != nil {
		writeError(w, http.StatusBadRequest, "No such classifier with the name "+name)
		return
	}

	results, err := c.Classify(r.Context(), criterion, item)
	if err != nil {
		s.fail(w, r, errors.Wrapf(err, "classifier %s failed on %s", name, item), "Classification failed")
		return
	}

	resp := ClassifyResponse{Results: make(map[string]interface{}, len(results))}
	for _, res := range results {
		if !isPredictionURI(res.PredictionURI) {
			continue
		}
		resp.Results[res.PredictionURI] = scoreValue(res.Score)
	}
	resp.ElapsedTime = time.Since(start).Milliseconds()
	writeJSON(w, http.StatusOK, resp)
}

// HandleIndex classifies and stores the posted items.
func (s *Server) HandleIndex(w http.ResponseWriter, r *http.Request) {
	var req IndexRequest
	if err := readJSON(w, r, &req); err != nil {
		return
	}
	if s.opts.Indexer == nil {
		writeError(w, http.StatusServiceUnavailable, "Indexer is not ready")
		return
	}

	release, err := s.acquireIndexSlot(r.Context())
	if err != nil {
		writeError(w, http.StatusServiceUnavailable, "Indexer is busy")
		return
	}
	defer release()

	task := s.opts.Indexer.IndexBatch(r.Context(), slices.Values(req.Items))
	logger.FromContext(r.Context(), s.logger).Infow("Index task started",
		logger.FieldJobID, task.JobID,
		logger.FieldCount, len(req.Items))
	writeJSON(w, http.StatusOK, task.Wait())
}

// HandleUnindex removes every record of one item.
func (s *Server) HandleUnindex(w http.ResponseWriter, r *http.Request) {
	item := r.URL.Query().Get("uri")
	if item == "" {
		writeError(w, http.StatusBadRequest, "Missing uri parameter")
		return
	}
	if s.opts.Indexer == nil {
		writeError(w, http.StatusServiceUnavailable, "Indexer is not ready")
		return
	}

	release, err := s.acquireIndexSlot(r.Context())
	if err != nil {
		writeError(w, http.StatusServiceUnavailable, "Indexer is busy")
		return
	}
	defer release()

	removed := s.opts.Indexer.Unindex(r.Context(), item)
	writeJSON(w, http.StatusOK, map[string]bool{"removed": removed})
}

// HandleHealth reports version and readiness.
func (s *Server) HandleHealth(w http.ResponseWriter, r *http.Request) {
	info := version.Get()
	health := map[string]interface{}{
		"status":     "ok",
		"version":    info.Version,
		"commit":     info.CommitHash,
		"build_time": info.BuildTime,
	}

	if ix := s.opts.Indexer; ix != nil {
		health["indexer_enabled"] = ix.IsEnabled()
		health["endpoints"] = len(ix.Endpoints())
	}
	if s.opts.Store != nil {
		if n, err := s.opts.Store.Count(r.Context()); err == nil {
			health["records"] = n
		} else {
			health["status"] = "degraded"
			health["error"] = err.Error()
		}
	}

	writeJSON(w, http.StatusOK, health)
}

// fail logs err and answers with the status its kind maps to.
func (s *Server) fail(w http.ResponseWriter, r *http.Request, err error, msg string) {
	status := statusFor(err)
	log := logger.FromContext(r.Context(), s.logger)
	if status >= http.StatusInternalServerError {
		log.Errorw(msg, logger.FieldPath, r.URL.Path, logger.FieldError, err)
	} else {
		log.Debugw(msg, logger.FieldPath, r.URL.Path, logger.FieldError, err)
	}
	writeError(w, status, msg+": "+err.Error())
}

func isPredictionURI(uri string) bool {
	u, err := url.Parse(uri)
	return err == nil && strings.EqualFold(u.Scheme, prediction.Scheme)
}

func scoreValue(score float64) interface{} {
	switch {
	case math.IsNaN(score):
		return "NaN"
	case math.IsInf(score, 1):
		return "Infinity"
	case math.IsInf(score, -1):
		return "-Infinity"
	default:
		return score
	}
}

var _ Store = (*store.Store)(nil)
