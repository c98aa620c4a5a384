package id

import "testing"

func TestNewDoesNotCollideUnderRapidCalls(t *testing.T) {
	seen := make(map[string]bool, 10000)
	for i := 0; i < 10000; i++ {
		generated := New()
		if generated == "" {
			t.Fatal("empty identifier")
		}
		if seen[generated] {
			t.Fatalf("identifier %q generated twice", generated)
		}
		seen[generated] = true
	}
}
