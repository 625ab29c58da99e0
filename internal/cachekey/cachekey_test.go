package cachekey

import "testing"

func TestEncode(t *testing.T) {
	tests := []struct {
		name     string
		params   Params
		expected string
	}{
		{"empty", Params{}, "default"},
		{"collections and width", Params{Collections: "b,a", Width: "100"}, "collections=a,b&width=100"},
		{"sorted values", Params{Topics: "wallpapers,nature,animals"}, "topics=animals,nature,wallpapers"},
		{"trims spaces", Params{Collections: " b , a "}, "collections=a,b"},
		{"query only", Params{Query: "mountains"}, "query=mountains"},
		{"dimensions only", Params{Width: "1920", Height: "1080"}, "height=1080&width=1920"},
		{"all fields ordered", Params{Collections: "c1", Height: "10", Topics: "t1", Width: "20"}, "collections=c1&height=10&topics=t1&width=20"},
	}

	for _, tt := range tests {
		if got := Encode(tt.params); got != tt.expected {
			t.Errorf("%s: Encode() = %q, want %q", tt.name, got, tt.expected)
		}
	}
}

func TestEncodeOrderInsensitive(t *testing.T) {
	a := Encode(Params{Topics: "nature,travel", Width: "800"})
	b := Encode(Params{Width: "800", Topics: "travel,nature"})
	if a != b {
		t.Errorf("expected equal keys, got %q and %q", a, b)
	}
}

func TestDecodeRoundTrip(t *testing.T) {
	tests := []Params{
		{},
		{Collections: "b,a", Width: "100"},
		{Topics: "wallpapers"},
		{Query: "forest,lake"},
		{Width: "640", Height: "480"},
	}

	for _, p := range tests {
		key := Encode(p)
		decoded := Decode(key)
		// Re-encoding the decoded params must be a fixed point.
		if again := Encode(decoded); again != key {
			t.Errorf("Encode(Decode(%q)) = %q, want fixed point", key, again)
		}
	}
}

func TestDecodeDefault(t *testing.T) {
	p := Decode("default")
	if p != (Params{}) {
		t.Errorf("Decode(default) = %+v, want zero params", p)
	}
}

func TestDecodeIgnoresMalformedSegments(t *testing.T) {
	p := Decode("collections=a,b&bogus&unknown=x")
	if p.Collections != "a,b" {
		t.Errorf("Collections = %q, want a,b", p.Collections)
	}
	if p.Topics != "" || p.Query != "" {
		t.Errorf("unexpected fields populated: %+v", p)
	}
}

func TestValidate(t *testing.T) {
	tests := []struct {
		name    string
		params  Params
		wantErr bool
	}{
		{"empty", Params{}, false},
		{"topics only", Params{Topics: "nature"}, false},
		{"query only", Params{Query: "sunset"}, false},
		{"topics with query", Params{Topics: "nature", Query: "sunset"}, true},
		{"collections with query", Params{Collections: "123", Query: "sunset"}, true},
		{"collections with topics", Params{Collections: "123", Topics: "nature"}, false},
	}

	for _, tt := range tests {
		err := tt.params.Validate()
		if (err != nil) != tt.wantErr {
			t.Errorf("%s: Validate() error = %v, wantErr %v", tt.name, err, tt.wantErr)
		}
	}
}

func TestCategory(t *testing.T) {
	tests := []struct {
		params   Params
		expected string
	}{
		{Params{}, "random"},
		{Params{Topics: "nature"}, "topics: nature"},
		{Params{Query: "sunset"}, "query: sunset"},
		{Params{Collections: "123"}, "collections: 123"},
		{Params{Topics: "nature", Collections: "123"}, "topics: nature"},
	}

	for _, tt := range tests {
		if got := tt.params.Category(); got != tt.expected {
			t.Errorf("Category(%+v) = %q, want %q", tt.params, got, tt.expected)
		}
	}
}
