package prediction

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/teranos/classdb/errors"
)

func TestIdentifier_URI(t *testing.T) {
	tests := []struct {
		name string
		id   Identifier
		want string
	}{
		{
			name: "plain names",
			id:   Identifier{Classifier: "convnet", Criterion: "liver", Class: "true"},
			want: "class://convnet/liver/true",
		},
		{
			name: "slash in criterion is escaped",
			id:   Identifier{Classifier: "mammo", Criterion: "birads/4", Class: "a b"},
			want: "class://mammo/birads%2F4/a%20b",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, tt.id.URI())

			back, err := ParseIdentifier(tt.want)
			require.NoError(t, err)
			assert.Equal(t, tt.id, back)
		})
	}
}

func TestParseIdentifier_Errors(t *testing.T) {
	tests := []struct {
		name string
		uri  string
	}{
		{name: "wrong scheme", uri: "file://dataset/1.dcm"},
		{name: "no scheme", uri: "convnet/liver/true"},
		{name: "too few segments", uri: "class://convnet/liver"},
		{name: "too many segments", uri: "class://convnet/liver/true/extra"},
		{name: "empty class", uri: "class://convnet/liver/"},
		{name: "bad escape", uri: "class://convnet/li%zzver/true"},
		{name: "empty", uri: ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := ParseIdentifier(tt.uri)
			require.Error(t, err)
			assert.True(t, errors.IsInvalidRequestError(err))
		})
	}
}

func TestParseIdentifier_SchemeIsCaseInsensitive(t *testing.T) {
	id, err := ParseIdentifier("CLASS://convnet/liver/false")
	require.NoError(t, err)
	assert.Equal(t, Identifier{Classifier: "convnet", Criterion: "liver", Class: "false"}, id)
}

func TestNewIdentifier(t *testing.T) {
	_, err := NewIdentifier("", "liver", "true")
	assert.Error(t, err)

	id, err := NewIdentifier("convnet", "liver", "true")
	require.NoError(t, err)
	assert.Equal(t, "convnet", id.Classifier)
}
