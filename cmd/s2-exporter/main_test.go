package main

import "testing"

func TestCheckBackends(t *testing.T) {
	tests := []struct {
		catalog, backend string
		valid            bool
	}{
		{"earthengine", "earthengine", true},
		{"earthengine", "queue", true},
		{"earthengine", "manifest", true},
		{"copernicus", "queue", true},
		{"copernicus", "manifest", true},
		{"copernicus", "earthengine", false},
		{"scihub", "manifest", false},
		{"earthengine", "drive", false},
	}
	for _, tt := range tests {
		err := checkBackends(tt.catalog, tt.backend)
		if (err == nil) != tt.valid {
			t.Errorf("catalog=%s backend=%s: expected valid=%v, got %v", tt.catalog, tt.backend, tt.valid, err)
		}
	}
}
