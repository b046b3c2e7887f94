package textutil_test

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/partscout/partscout/internal/textutil"
)

func TestSellerKey(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name  string
		input string
		want  string
	}{
		{
			name:  "drops storefront prefix",
			input: "فروشگاه یدک شرق",
			want:  "یدک شرق",
		},
		{
			name:  "same seller without prefix",
			input: "یدک شرق",
			want:  "یدک شرق",
		},
		{
			name:  "punctuation and case fold",
			input: "Auto-Parts Co.",
			want:  "auto parts",
		},
		{
			name:  "all noise words fall back to normalized form",
			input: "شرکت گروه",
			want:  "شرکت گروه",
		},
		{
			name:  "empty",
			input: "",
			want:  "",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			assert.Equal(t, tt.want, textutil.SellerKey(tt.input))
		})
	}
}

func TestSellerKeyIdempotent(t *testing.T) {
	t.Parallel()

	inputs := []string{"فروشگاه یدک شرق", "Auto-Parts Co.", "شرکت گروه"}
	for _, input := range inputs {
		once := textutil.SellerKey(input)
		assert.Equal(t, once, textutil.SellerKey(once), "input %q", input)
	}
}

func TestSellerKeyUnifiesVariants(t *testing.T) {
	t.Parallel()

	variants := []string{
		"فروشگاه یدک شرق",
		"یدک شرق",
		"یدک‌ شرق",
	}
	want := textutil.SellerKey(variants[0])
	for _, v := range variants[1:] {
		assert.Equal(t, want, textutil.SellerKey(v), "variant %q", v)
	}
}
