package domain

import "testing"

func TestParseTier(t *testing.T) {
	tests := map[string]Tier{
		"free":       TierFree,
		" PRO ":      TierPro,
		"Business":   TierBusiness,
		"":           TierFree,
		"enterprise": TierFree,
	}
	for in, want := range tests {
		if got := ParseTier(in); got != want {
			t.Fatalf("ParseTier(%q) = %q, want %q", in, got, want)
		}
	}
	if Tier("gold").Valid() {
		t.Fatalf("gold should not be a valid tier")
	}
}

func TestAssetBaseName(t *testing.T) {
	tests := []struct {
		key  string
		want string
	}{
		{key: "users/u1/summer-look.jpg", want: "summer-look"},
		{key: "https://cdn.example.com/a/b/outfit.png?sig=abc", want: "outfit"},
		{key: "s3://bucket/exports/shot.webp", want: "shot"},
		{key: "data:image/png;base64,AAAA", want: "asset-1"},
		{key: "", want: "asset-1"},
	}
	for _, tc := range tests {
		a := Asset{ID: "asset-1", StorageKey: tc.key}
		if got := a.BaseName(); got != tc.want {
			t.Fatalf("BaseName(%q) = %q, want %q", tc.key, got, tc.want)
		}
	}
}
