// Package prediction defines what classdb stores: a classifier's verdict
// about one item, identified by classifier, criterion and predicted class.
package prediction

import (
	"net/url"
	"strings"

	"github.com/teranos/classdb/errors"
)

// Scheme prefixes every prediction identifier URI.
const Scheme = "class"

const schemePrefix = Scheme + "://"

// Identifier names one kind of prediction, not a particular instance of it.
// Two records with the same Identifier for the same item occupy one slot.
type Identifier struct {
	Classifier string
	Criterion  string
	Class      string
}

// NewIdentifier validates that no part is empty.
func NewIdentifier(classifier, criterion, class string) (Identifier, error) {
	id := Identifier{Classifier: classifier, Criterion: criterion, Class: class}
	if classifier == "" || criterion == "" || class == "" {
		return Identifier{}, errors.NewInvalidRequestError("incomplete prediction identifier %q", id.URI())
	}
	return id, nil
}

// URI encodes id as class://<classifier>/<criterion>/<class>, path-escaping
// each segment so slashes inside names survive.
func (id Identifier) URI() string {
	return schemePrefix +
		url.PathEscape(id.Classifier) + "/" +
		url.PathEscape(id.Criterion) + "/" +
		url.PathEscape(id.Class)
}

func (id Identifier) String() string {
	return id.URI()
}

// ParseIdentifier decomposes a prediction identifier URI.
func ParseIdentifier(uri string) (Identifier, error) {
	if len(uri) < len(schemePrefix) || !strings.EqualFold(uri[:len(schemePrefix)], schemePrefix) {
		return Identifier{}, errors.NewInvalidRequestError("not a %s URI: %q", Scheme, uri)
	}

	segments := strings.Split(uri[len(schemePrefix):], "/")
	if len(segments) != 3 {
		return Identifier{}, errors.NewInvalidRequestError("prediction URI %q needs classifier/criterion/class", uri)
	}

	parts := make([]string, 3)
	for i, s := range segments {
		v, err := url.PathUnescape(s)
		if err != nil {
			return Identifier{}, errors.WithDetail(errors.NewInvalidRequestError("bad escape in prediction URI %q", uri), err.Error())
		}
		parts[i] = v
	}
	return NewIdentifier(parts[0], parts[1], parts[2])
}
