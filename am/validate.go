package am

import (
	"net/url"

	"github.com/teranos/classdb/errors"
)

// Validate checks that the configuration is valid
func (c *Config) Validate() error {
	// -1 means unbounded
	if c.Query.NumberOfResults < -1 {
		return errors.NewInvalidRequestError("query.number_of_results must be >= -1, got %d", c.Query.NumberOfResults)
	}
	if !(c.Query.Threshold >= 0 && c.Query.Threshold <= 1) {
		return errors.NewInvalidRequestError("query.threshold must be within [0,1], got %v", c.Query.Threshold)
	}

	for i, clf := range c.Indexer.Classifiers {
		if clf.Name == "" {
			return errors.NewInvalidRequestError("indexer.classifiers[%d].name cannot be empty", i)
		}
		for j, crit := range clf.Criteria {
			if crit.ID == "" {
				return errors.NewInvalidRequestError("indexer.classifiers[%d].criteria[%d].id cannot be empty (classifier %s)", i, j, clf.Name)
			}
		}
	}

	if c.Remote.RatePerSecond <= 0 {
		return errors.NewInvalidRequestError("remote.rate_per_second must be > 0, got %v", c.Remote.RatePerSecond)
	}
	if c.Remote.Timeout < 0 {
		return errors.NewInvalidRequestError("remote.timeout must be >= 0, got %s", c.Remote.Timeout)
	}
	for name, base := range c.Remote.Endpoints {
		u, err := url.Parse(base)
		if err != nil || u.Scheme == "" || u.Host == "" {
			return errors.NewInvalidRequestError("remote.endpoints.%s: %q is not an absolute URL", name, base)
		}
	}

	return nil
}
