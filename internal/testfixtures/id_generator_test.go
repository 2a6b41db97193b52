package testfixtures

import "testing"

func TestIDGenerator(t *testing.T) {
	gen := NewIDGenerator("rec")
	if gen.Last() != "" || gen.Issued() != 0 {
		t.Fatalf("expected an unused generator, got last=%q issued=%d", gen.Last(), gen.Issued())
	}

	next := gen.NextFunc()
	first, second := next(), next()
	if first != "rec-1" || second != "rec-2" {
		t.Fatalf("expected rec-1, rec-2, got %q, %q", first, second)
	}
	if gen.Last() != "rec-2" || gen.Issued() != 2 {
		t.Fatalf("expected last rec-2 after two ids, got %q (%d)", gen.Last(), gen.Issued())
	}

	if id := NewIDGenerator("").Next(); id != "id-1" {
		t.Fatalf("expected default prefix, got %q", id)
	}
	var missing *IDGenerator
	if id := missing.NextFunc()(); id != "" {
		t.Fatalf("expected empty id from a nil generator, got %q", id)
	}
}
