package casing

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestToSnake(t *testing.T) {
	t.Parallel()

	tests := []struct {
		in   string
		want string
	}{
		{"title", "title"},
		{"startingBid", "starting_bid"},
		{"numPages", "num_pages"},
		{"parentCommentId", "parent_comment_id"},
		{"imageURL", "image_url"},
		{"imageURLPath", "image_url_path"},
		{"userID", "user_id"},
		{"page2Size", "page2_size"},
		{"starting_bid", "starting_bid"},
		{"ID", "id"},
		{"", ""},
		{"_private", "_private"},
	}

	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			t.Parallel()
			assert.Equal(t, tt.want, ToSnake(tt.in))
		})
	}
}

func TestToCamel(t *testing.T) {
	t.Parallel()

	tests := []struct {
		in   string
		want string
	}{
		{"title", "title"},
		{"created_at", "createdAt"},
		{"num_pages", "numPages"},
		{"parent_comment_id", "parentCommentId"},
		{"winner_id", "winnerId"},
		{"startingBid", "startingBid"},
		{"double__underscore", "doubleUnderscore"},
		{"trailing_", "trailing"},
		{"_meta", "_meta"},
		{"_meta_data", "_metaData"},
		{"", ""},
	}

	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			t.Parallel()
			assert.Equal(t, tt.want, ToCamel(tt.in))
		})
	}
}

func TestKeyRoundTrip(t *testing.T) {
	t.Parallel()

	camel := map[string]any{
		"title":       "Desk",
		"startingBid": 10,
		"imageUrl":    "https://example.com/desk.png",
		"location": map[string]any{
			"latitude":  51.5,
			"longitude": -0.12,
			"nearbyPlaces": []any{
				map[string]any{"placeName": "park", "distanceKm": 1.2},
				map[string]any{"placeName": "station", "distanceKm": 0.4},
			},
		},
		"tagNames":   []any{"oak", "vintage"},
		"emptyValue": nil,
	}

	snake := SnakeKeys(camel)
	assert.Equal(t, map[string]any{
		"title":        "Desk",
		"starting_bid": 10,
		"image_url":    "https://example.com/desk.png",
		"location": map[string]any{
			"latitude":  51.5,
			"longitude": -0.12,
			"nearby_places": []any{
				map[string]any{"place_name": "park", "distance_km": 1.2},
				map[string]any{"place_name": "station", "distance_km": 0.4},
			},
		},
		"tag_names":   []any{"oak", "vintage"},
		"empty_value": nil,
	}, snake)

	assert.Equal(t, camel, CamelKeys(snake))
}

// Keys outside the lowercase-words domain convert one way only.
func TestLossyKeys(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name      string
		in        string
		convert   func(string) string
		back      func(string) string
		converted string
		returned  string
	}{
		{"acronym camel key", "HTTPStatus", ToSnake, ToCamel, "http_status", "httpStatus"},
		{"trailing acronym", "imageURL", ToSnake, ToCamel, "image_url", "imageUrl"},
		{"digit word snake key", "line_1", ToCamel, ToSnake, "line1", "line1"},
		{"digit after underscore", "address_2_line", ToCamel, ToSnake, "address2Line", "address2_line"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			got := tt.convert(tt.in)
			assert.Equal(t, tt.converted, got)
			assert.Equal(t, tt.returned, tt.back(got))
			assert.NotEqual(t, tt.in, tt.back(got))
		})
	}
}

func TestSnakeToCamelRoundTrip(t *testing.T) {
	t.Parallel()

	snake := []any{
		map[string]any{
			"id":         5,
			"created_at": "2024-01-01",
			"replies": []any{
				map[string]any{"parent_id": 5, "created_at": "2024-01-02"},
			},
		},
		"plain string",
		42,
	}

	camel := CamelKeys(snake)
	assert.Equal(t, []any{
		map[string]any{
			"id":        5,
			"createdAt": "2024-01-01",
			"replies": []any{
				map[string]any{"parentId": 5, "createdAt": "2024-01-02"},
			},
		},
		"plain string",
		42,
	}, camel)
	assert.Equal(t, snake, SnakeKeys(camel))
}

func TestConvertLeavesScalarsAlone(t *testing.T) {
	t.Parallel()

	assert.Equal(t, "someValue", SnakeKeys("someValue"))
	assert.Equal(t, 3.5, CamelKeys(3.5))
	assert.Nil(t, SnakeKeys(nil))
	assert.Equal(t, []any{"aB", "c_d"}, SnakeKeys([]any{"aB", "c_d"}))
}

func TestConvertTypedMapSlice(t *testing.T) {
	t.Parallel()

	got := SnakeKeys([]map[string]any{{"userId": 1}, {"userId": 2}})
	assert.Equal(t, []any{
		map[string]any{"user_id": 1},
		map[string]any{"user_id": 2},
	}, got)
}

func TestConvertDoesNotMutateInput(t *testing.T) {
	t.Parallel()

	in := map[string]any{"startingBid": 10, "nested": map[string]any{"imageUrl": "x"}}
	_ = SnakeKeys(in)
	assert.Contains(t, in, "startingBid")
	assert.Contains(t, in["nested"], "imageUrl")
}
