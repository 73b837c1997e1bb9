package checksum

import "testing"

func TestSum_Stable(t *testing.T) {
	a := Sum([]byte("closures"))
	b := Sum([]byte("closures"))
	if a != b {
		t.Fatalf("sum not stable: %q vs %q", a, b)
	}
	if len(a) != 64 {
		t.Errorf("len = %d, want 64", len(a))
	}
	if Sum([]byte("hoisting")) == a {
		t.Error("different content produced the same sum")
	}
}

func TestETag_Quoted(t *testing.T) {
	tag := ETag([]byte("x"))
	if len(tag) != 34 || tag[0] != '"' || tag[33] != '"' {
		t.Errorf("etag = %q", tag)
	}
}
