//-------------------------------------------------------------------------
//
// unidwh: University Data Warehouse Generator
//
// This software is released under The PostgreSQL License
//
//-------------------------------------------------------------------------

package datagen

import (
	"testing"
	"time"
)

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

func TestFakerGaussSeeded(t *testing.T) {
	f1 := NewFakerWithSeed(7)
	f2 := NewFakerWithSeed(7)

	for i := 0; i < 10; i++ {
		v1 := f1.Gauss(70, 12)
		v2 := f2.Gauss(70, 12)
		if v1 != v2 {
			t.Errorf("Same seed produced different draws: %f != %f", v1, v2)
		}
	}
}

func TestFakerGaussDistribution(t *testing.T) {
	f := NewFakerWithSeed(1)

	var sum float64
	n := 10000
	for i := 0; i < n; i++ {
		sum += f.Gauss(3.5, 0.5)
	}
	mean := sum / float64(n)
	if mean < 3.4 || mean > 3.6 {
		t.Errorf("Sample mean %f too far from 3.5", mean)
	}
}

func TestFakerInt(t *testing.T) {
	f := NewFaker()
	for i := 0; i < 100; i++ {
		v := f.Int(5, 10)
		if v < 5 || v > 10 {
			t.Errorf("Int %d not in range [5, 10]", v)
		}
	}
}

func TestFakerFloat64(t *testing.T) {
	f := NewFaker()
	for i := 0; i < 100; i++ {
		v := f.Float64(1.5, 3.5)
		if v < 1.5 || v > 3.5 {
			t.Errorf("Float64 %f not in range [1.5, 3.5]", v)
		}
	}
}

func TestFakerChance(t *testing.T) {
	f := NewFaker()

	for i := 0; i < 10; i++ {
		if f.Chance(0.0) {
			t.Error("Chance(0) should never be true")
		}
		if !f.Chance(1.0) {
			t.Error("Chance(1) should always be true")
		}
	}
}

func TestFakerDateRange(t *testing.T) {
	f := NewFaker()
	start := time.Date(2020, 1, 1, 0, 0, 0, 0, time.UTC)
	end := time.Date(2025, 1, 1, 0, 0, 0, 0, time.UTC)

	d := f.DateRange(start, end)
	if d.Before(start) || d.After(end) {
		t.Errorf("DateRange %v not in range [%v, %v]", d, start, end)
	}
}

func TestFakerDigits(t *testing.T) {
	f := NewFaker()
	s := f.Digits(8)
	if len(s) != 8 {
		t.Errorf("Digits(8) should return 8 chars, got %d", len(s))
	}
	for _, c := range s {
		if c < '0' || c > '9' {
			t.Errorf("Digits should only contain digits, got: %c", c)
		}
	}
}

func TestChoose(t *testing.T) {
	f := NewFaker()
	items := []string{"a", "b", "c", "d", "e"}

	for i := 0; i < 100; i++ {
		chosen := Choose(f, items)
		found := false
		for _, item := range items {
			if item == chosen {
				found = true
				break
			}
		}
		if !found {
			t.Errorf("Choose returned item not in slice: %s", chosen)
		}
	}
}

func TestChooseEmpty(t *testing.T) {
	f := NewFaker()
	var items []string

	chosen := Choose(f, items)
	if chosen != "" {
		t.Errorf("Choose on empty slice should return zero value, got: %s", chosen)
	}
}

func TestTruncate(t *testing.T) {
	s1 := Truncate("hello world", 5)
	if s1 != "hello" {
		t.Errorf("Truncate should truncate to 5, got: %s", s1)
	}

	s2 := Truncate("hi", 10)
	if s2 != "hi" {
		t.Errorf("Truncate should not modify shorter string, got: %s", s2)
	}
}
