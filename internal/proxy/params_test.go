package proxy

import (
	"net/http"
	"net/url"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestValidate_AllPresent(t *testing.T) {
	query := url.Values{
		"artist": {" Pink Floyd "},
		"album":  {"Animals"},
	}

	params, err := Validate(query, "artist", "album")

	require.NoError(t, err)
	assert.Equal(t, Params{"artist": "Pink Floyd", "album": "Animals"}, params)
}

func TestValidate_MissingParameters(t *testing.T) {
	cases := []struct {
		name    string
		query   url.Values
		message string
	}{
		{
			name:    "all absent",
			query:   url.Values{},
			message: "artist, album required",
		},
		{
			name:    "one absent",
			query:   url.Values{"artist": {"Pink Floyd"}},
			message: "album required",
		},
		{
			name:    "empty after trimming",
			query:   url.Values{"artist": {"   "}, "album": {"Animals"}},
			message: "artist required",
		},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			_, err := Validate(tc.query, "artist", "album")

			var validationErr *ValidationError
			require.ErrorAs(t, err, &validationErr)
			assert.Equal(t, tc.message, validationErr.Error())

			status, message := validationErr.Status()
			assert.Equal(t, http.StatusBadRequest, status)
			assert.Equal(t, tc.message, message)
		})
	}
}

func TestParamsOptional(t *testing.T) {
	params := Params{}

	params.Optional(url.Values{"type": {"album"}}, "type", "track")
	assert.Equal(t, "album", params["type"])

	params.Optional(url.Values{}, "kind", "track")
	assert.Equal(t, "track", params["kind"])
}

func TestKey_Deterministic(t *testing.T) {
	cases := []struct {
		name     string
		parts    []string
		expected string
	}{
		{
			name:     "lower-cases and encodes",
			parts:    []string{"Dark Side of the Moon", "Pink Floyd"},
			expected: "dark+side+of+the+moon_pink+floyd",
		},
		{
			name:     "folds diacritics",
			parts:    []string{"Björk"},
			expected: "bjork",
		},
		{
			name:     "keeps underscores",
			parts:    []string{"a_b", "c"},
			expected: "a_b_c",
		},
		{
			name:     "single part",
			parts:    []string{"Jazz"},
			expected: "jazz",
		},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			assert.Equal(t, tc.expected, Key(tc.parts...))
		})
	}
}

func TestKey_SameInputSameKey(t *testing.T) {
	assert.Equal(t, Key("Björk"), Key("Bjork"))
	assert.Equal(t, Key("PINK FLOYD"), Key("pink floyd"))
}
