package naming

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/require"
	"k8s.io/apimachinery/pkg/util/validation"
)

func TestToRFC1123Label(t *testing.T) {
	tests := []struct {
		name     string
		input    string
		expected string
	}{
		{"empty string returns x", "", "x"},
		{"already valid", "valid-name", "valid-name"},
		{"uppercase to lowercase", "UPPERCASE", "uppercase"},
		{"underscores replaced", "my_lease_name", "my-lease-name"},
		{"dots replaced", "my.lease.name", "my-lease-name"},
		{"only special chars", "...---...", "x"},
		{"spaces replaced", "hello world", "hello-world"},
		{"leading hyphen removed", "-leading", "leading"},
		{"trailing hyphen removed", "trailing-", "trailing"},
		{"consecutive hyphens collapsed", "hello--world", "hello-world"},
		{"numbers preserved", "test123", "test123"},
		{"long string truncated", strings.Repeat("a", 100), strings.Repeat("a", 63)},
		{"truncation does not leave trailing hyphen", strings.Repeat("a", 62) + "--tail", strings.Repeat("a", 62)},
		{"mixed invalid chars", "hello!@#$%world", "hello-world"},
		{"unicode converted", "héllo", "h-llo"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			result := ToRFC1123Label(tt.input)
			require.Equal(t, tt.expected, result)

			// Verify result passes K8s validation
			errs := validation.IsDNS1123Label(result)
			require.Empty(t, errs, "result %q should be a valid DNS1123 label", result)
		})
	}
}

func TestIsValidLabel(t *testing.T) {
	require.True(t, IsValidLabel("leaselock"))
	require.True(t, IsValidLabel("lease-1"))
	require.False(t, IsValidLabel("Invalid"))
	require.False(t, IsValidLabel("-leading"))
	require.False(t, IsValidLabel(strings.Repeat("a", 64)))
	require.False(t, IsValidLabel(""))
}
