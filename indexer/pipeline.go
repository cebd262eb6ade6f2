package indexer

import (
	"context"

	"go.uber.org/zap"

	"github.com/teranos/classdb/classifier"
	"github.com/teranos/classdb/endpoint"
	"github.com/teranos/classdb/logger"
	"github.com/teranos/classdb/prediction"
	"github.com/teranos/classdb/store"
)

// IndexItem classifies item at each endpoint, in order, and adds every valid
// prediction to w. Unresolvable classifiers, classifier errors, out-of-range
// scores and malformed prediction URIs contribute nothing; failed writes are
// counted in errs.
func IndexItem(ctx context.Context, item string, lookup classifier.Lookup, endpoints []endpoint.Descriptor, w store.Writer) (indexed, errs int) {
	log := logger.FromContext(ctx, logger.ComponentLogger("indexer"))
	return indexItem(ctx, log, item, lookup, endpoints, w)
}

func indexItem(ctx context.Context, log *zap.SugaredLogger, item string, lookup classifier.Lookup, endpoints []endpoint.Descriptor, w store.Writer) (indexed, errs int) {
	for _, ep := range endpoints {
		for _, res := range classify(ctx, log, item, lookup, ep) {
			if !prediction.ValidScore(res.Score) {
				dropped.WithLabelValues("score").Inc()
				log.Debugw("Dropping prediction with invalid score",
					logger.FieldItem, item,
					logger.FieldPrediction, res.PredictionURI,
					logger.FieldScore, res.Score)
				continue
			}

			id, err := prediction.ParseIdentifier(res.PredictionURI)
			if err != nil {
				dropped.WithLabelValues("uri").Inc()
				log.Debugw("Dropping malformed prediction",
					logger.FieldItem, item,
					logger.FieldPrediction, res.PredictionURI,
					logger.FieldError, err)
				continue
			}

			rec := prediction.Record{Item: item, Identifier: id, Score: res.Score}
			if err := w.Add(ctx, rec); err != nil {
				errs++
				predictions.WithLabelValues("error").Inc()
				log.Warnw("Could not add prediction",
					logger.FieldItem, item,
					logger.FieldPrediction, res.PredictionURI,
					logger.FieldError, err)
				continue
			}
			indexed++
			predictions.WithLabelValues("indexed").Inc()
		}
	}
	return indexed, errs
}

// classify runs one endpoint. Failures are logged and yield no results.
func classify(ctx context.Context, log *zap.SugaredLogger, item string, lookup classifier.Lookup, ep endpoint.Descriptor) []classifier.Result {
	c, err := lookup.Get(ep.Classifier)
	if err != nil {
		log.Warnw("No such classifier, providing no predictions",
			logger.FieldClassifier, ep.Classifier,
			logger.FieldCriterion, ep.Criterion,
			logger.FieldError, err)
		return nil
	}

	results, err := c.Classify(ctx, ep.Criterion, item)
	if err != nil {
		log.Warnw("Classifier failed, providing no predictions",
			logger.FieldClassifier, ep.Classifier,
			logger.FieldCriterion, ep.Criterion,
			logger.FieldItem, item,
			logger.FieldError, err)
		return nil
	}
	return results
}
