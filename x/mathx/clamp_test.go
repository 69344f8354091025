package mathx

import "testing"

func TestClampSwapsBounds(t *testing.T) {
	if got := Clamp(15, 10, 0); got != 10 {
		t.Fatalf("Clamp(15,10,0) = %d, want 10", got)
	}
	if got := Clamp(-3, 0, 10); got != 0 {
		t.Fatalf("Clamp(-3,0,10) = %d, want 0", got)
	}
}

func TestSaturating(t *testing.T) {
	const limit = uint16(0xFFFF)
	if got := SatAdd(uint16(0xFFF0), 0x20, limit); got != limit {
		t.Fatalf("SatAdd overflow = %d, want %d", got, limit)
	}
	if got := SatAdd(uint16(100), 23, limit); got != 123 {
		t.Fatalf("SatAdd = %d, want 123", got)
	}
	if got := SatAdd(uint16(90), 20, 100); got != 100 {
		t.Fatalf("SatAdd with custom limit = %d, want 100", got)
	}
	if got := SatSub(uint16(5), 9); got != 0 {
		t.Fatalf("SatSub underflow = %d, want 0", got)
	}
	if got := AbsDiff(uint16(3), 10); got != 7 {
		t.Fatalf("AbsDiff = %d, want 7", got)
	}
}
