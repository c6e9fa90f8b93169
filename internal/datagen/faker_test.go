//-------------------------------------------------------------------------
//
// pgEdge Lottery Warehouse
//
// Copyright (c) 2025 - 2026, pgEdge, Inc.
// This software is released under The PostgreSQL License
//
//-------------------------------------------------------------------------

package datagen

import (
	"testing"
)

func TestNewFaker(t *testing.T) {
	f := NewFaker()
	if f == nil {
		t.Fatal("NewFaker returned nil")
	}
	if f.faker == nil {
		t.Fatal("faker field is nil")
	}
}

func TestNewFakerWithSeed(t *testing.T) {
	seed := uint64(12345)
	f1 := NewFakerWithSeed(seed)
	f2 := NewFakerWithSeed(seed)

	// Same seed should produce same sequence
	for i := 0; i < 10; i++ {
		v1 := f1.Int(0, 1000)
		v2 := f2.Int(0, 1000)
		if v1 != v2 {
			t.Errorf("Same seed produced different values: %d != %d", v1, v2)
		}
	}
}

func TestFakerInt(t *testing.T) {
	f := NewFaker()
	for i := 0; i < 100; i++ {
		n := f.Int(2, 4)
		if n < 2 || n > 4 {
			t.Errorf("Int(2, 4) = %d, out of range", n)
		}
	}
}

func TestFakerFloat64(t *testing.T) {
	f := NewFaker()
	for i := 0; i < 100; i++ {
		v := f.Float64(0.85, 1.15)
		if v < 0.85 || v > 1.15 {
			t.Errorf("Float64(0.85, 1.15) = %f, out of range", v)
		}
	}
}

func TestFakerDigits(t *testing.T) {
	f := NewFaker()
	for _, n := range []int{2, 3, 4, 5, 6} {
		d := f.Digits(n)
		if len(d) != n {
			t.Errorf("Digits(%d) length = %d", n, len(d))
		}
		for _, r := range d {
			if r < '0' || r > '9' {
				t.Errorf("Digits(%d) = %q contains non-digit", n, d)
			}
		}
	}
}

func TestChoose(t *testing.T) {
	f := NewFaker()
	items := []string{"a", "b", "c"}

	for i := 0; i < 20; i++ {
		got := Choose(f, items)
		found := false
		for _, item := range items {
			if got == item {
				found = true
				break
			}
		}
		if !found {
			t.Errorf("Choose returned %q, not in items", got)
		}
	}
}

func TestChooseEmpty(t *testing.T) {
	f := NewFaker()
	if got := Choose(f, []string{}); got != "" {
		t.Errorf("Choose on empty slice = %q, want zero value", got)
	}
}

func TestSample(t *testing.T) {
	f := NewFakerWithSeed(7)
	items := []int{1, 2, 3, 4, 5, 6, 7, 8}

	for i := 0; i < 50; i++ {
		got := Sample(f, items, 3)
		if len(got) != 3 {
			t.Fatalf("Sample length = %d, want 3", len(got))
		}
		seen := make(map[int]bool)
		for _, v := range got {
			if seen[v] {
				t.Errorf("Sample returned duplicate %d in %v", v, got)
			}
			seen[v] = true
		}
	}

	if got := Sample(f, items, 20); len(got) != len(items) {
		t.Errorf("Sample with k > len = %d items, want %d", len(got), len(items))
	}

	// The input must not be reordered.
	for i, v := range items {
		if v != i+1 {
			t.Fatalf("Sample modified its input: %v", items)
		}
	}
}

func BenchmarkFakerInt(b *testing.B) {
	f := NewFaker()
	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		f.Int(0, 1000000)
	}
}

func BenchmarkSample(b *testing.B) {
	f := NewFaker()
	items := []string{"a", "b", "c", "d", "e", "f", "g", "h"}
	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		Sample(f, items, 4)
	}
}
