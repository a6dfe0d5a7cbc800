package util

import (
	"testing"
)

func TestSliceOrderedBy(t *testing.T) {
	s := []int{10, 3, 523, 77, -95}
	o := SliceOrderedBy(s, func(v *int) int { return -*v })

	expected := []int{523, 77, 10, 3, -95}
	if len(o) != len(expected) {
		t.Fatal("wrong size")
	}
	for i := range o {
		if o[i] != expected[i] {
			t.Fatalf("wrong element %d", i)
		}
	}
}

func TestOrderedKeys(t *testing.T) {
	keys := OrderedKeys(map[string]bool{"tests": true, "ip_infra": true})
	if len(keys) != 2 || keys[0] != "ip_infra" || keys[1] != "tests" {
		t.Fatalf("unexpected keys %v", keys)
	}
	if keys := OrderedKeys(map[int]string{}); len(keys) != 0 {
		t.Fatalf("unexpected keys %v", keys)
	}
}
