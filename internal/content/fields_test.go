package content

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestSectionOrder(t *testing.T) {
	tests := []struct {
		name  string
		value any
		set   bool
		want  float64
	}{
		{name: "missing", want: 0},
		{name: "float", value: 2.5, set: true, want: 2.5},
		{name: "int", value: 7, set: true, want: 7},
		{name: "json number", value: json.Number("12"), set: true, want: 12},
		{name: "numeric string", value: " 4 ", set: true, want: 4},
		{name: "junk string", value: "first", set: true, want: 0},
		{name: "nan string", value: "NaN", set: true, want: 0},
		{name: "true", value: true, set: true, want: 1},
		{name: "false", value: false, set: true, want: 0},
		{name: "null", value: nil, set: true, want: 0},
		{name: "list", value: []any{1.0}, set: true, want: 0},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			s := Section{Fields: Fields{}}
			if tt.set {
				s.Fields["order"] = tt.value
			}
			assert.Equal(t, tt.want, s.Order())
		})
	}
}

func TestFieldsString(t *testing.T) {
	f := Fields{
		"heading": "Noise Surveys",
		"blank":   "   ",
		"count":   3.0,
		"on":      true,
		"nothing": nil,
	}
	assert.Equal(t, "Noise Surveys", f.String("heading", "x"))
	assert.Equal(t, "fallback", f.String("blank", "fallback"))
	assert.Equal(t, "3", f.String("count", ""))
	assert.Equal(t, "true", f.String("on", ""))
	assert.Equal(t, "d", f.String("nothing", "d"))
	assert.Equal(t, "d", f.String("missing", "d"))
}

func TestFieldsFirst(t *testing.T) {
	f := Fields{"whatHeading": "Legacy heading", "heading": ""}
	assert.Equal(t, "Legacy heading", f.First("", "heading", "whatHeading"))
	assert.Equal(t, "Find Out More", f.First("Find Out More", "buttonLabel"))
}

func TestFieldsStrings(t *testing.T) {
	f := Fields{
		"semi":  "Road traffic; Rail ;; Industrial",
		"lines": "One\nTwo\r\nThree",
		"array": []any{"A", " ", "B", 3.0},
		"typed": []string{"x", "y"},
		"num":   4.0,
	}
	assert.Equal(t, []string{"Road traffic", "Rail", "Industrial"}, f.Strings("semi"))
	assert.Equal(t, []string{"One", "Two", "Three"}, f.Strings("lines"))
	assert.Equal(t, []string{"A", "B"}, f.Strings("array"))
	assert.Equal(t, []string{"x", "y"}, f.Strings("typed"))
	assert.Nil(t, f.Strings("num"))
	assert.Nil(t, f.Strings("missing"))
}

func TestFieldsBoolAndFloat(t *testing.T) {
	f := Fields{"a": "on", "b": "no", "c": 1.0, "d": true, "rating": "4.5"}
	assert.True(t, f.Bool("a"))
	assert.False(t, f.Bool("b"))
	assert.True(t, f.Bool("c"))
	assert.True(t, f.Bool("d"))
	assert.False(t, f.Bool("missing"))
	assert.Equal(t, 4.5, f.Float("rating", 0))
	assert.Equal(t, 5.0, f.Float("missing", 5))
}

func TestTitleFromSlug(t *testing.T) {
	assert.Equal(t, "Noise Impact Assessment", TitleFromSlug("noise-impact-assessment"))
	assert.Equal(t, "Acoustic Testing", TitleFromSlug("acoustic_testing"))
	assert.Equal(t, "", TitleFromSlug(""))
}

func TestServiceHref(t *testing.T) {
	assert.Equal(t, "/", Service{Key: "home", Slug: "home"}.Href())
	assert.Equal(t, "/services/noise-survey", Service{Key: "noise-survey", Slug: "noise-survey"}.Href())
}
