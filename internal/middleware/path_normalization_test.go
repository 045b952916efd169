package middleware

import (
	"testing"
)

func TestNormalizePath(t *testing.T) {
	tests := []struct {
		name     string
		path     string
		expected string
	}{
		// Static routes - no normalization
		{
			name:     "root path",
			path:     "/",
			expected: "/",
		},
		{
			name:     "recommend endpoint",
			path:     "/recommend",
			expected: "/recommend",
		},
		{
			name:     "health endpoint",
			path:     "/health",
			expected: "/health",
		},
		{
			name:     "ready endpoint",
			path:     "/ready",
			expected: "/ready",
		},
		{
			name:     "metrics endpoint",
			path:     "/metrics",
			expected: "/metrics",
		},

		// Dynamic routes - normalized
		{
			name:     "researcher by plain id",
			path:     "/researchers/r123",
			expected: "/researchers/{id}",
		},
		{
			name:     "researcher by uuid",
			path:     "/researchers/550e8400-e29b-41d4-a716-446655440000",
			expected: "/researchers/{id}",
		},
		{
			name:     "researcher by external id",
			path:     "/researchers/A5023888391",
			expected: "/researchers/{id}",
		},

		// Edge cases
		{
			name:     "researchers collection without id stays as-is",
			path:     "/researchers/",
			expected: "/researchers/",
		},
		{
			name:     "nested researcher path falls through",
			path:     "/researchers/r123/extra",
			expected: "/researchers/r123/extra",
		},
		{
			name:     "unknown route passes through",
			path:     "/unknown/route",
			expected: "/unknown/route",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := normalizePath(tt.path)
			if got != tt.expected {
				t.Errorf("normalizePath(%q) = %q, want %q", tt.path, got, tt.expected)
			}
		})
	}
}

// TestNormalizePath_CardinalityBound verifies that many distinct researcher
// IDs collapse to a single metric label value.
func TestNormalizePath_CardinalityBound(t *testing.T) {
	seen := make(map[string]bool)
	ids := []string{"r1", "r2", "abc-def", "550e8400-e29b-41d4-a716-446655440000", "A5023888391"}
	for _, id := range ids {
		seen[normalizePath("/researchers/"+id)] = true
	}
	if len(seen) != 1 {
		t.Errorf("expected all researcher paths to normalize to one label, got %d: %v", len(seen), seen)
	}
}
