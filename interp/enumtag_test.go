package interp

import "testing"

func TestGetEnumTagSinglePayloadSimple(t *testing.T) {
	t.Run("no empty cases always returns 0", func(t *testing.T) {
		addr := []byte{0xff}
		if got := GetEnumTagSinglePayloadSimple(addr, 1, 0); got != 0 {
			t.Errorf("tag = %d, want 0", got)
		}
	})

	t.Run("a stored value at or above numEmptyCases is the payload case", func(t *testing.T) {
		addr := []byte{3, 0, 0, 0}
		if got := GetEnumTagSinglePayloadSimple(addr, 4, 2); got != 0 {
			t.Errorf("tag = %d, want 0 (3 >= numEmptyCases 2)", got)
		}
	})

	t.Run("a stored value below numEmptyCases selects that empty case", func(t *testing.T) {
		addr := []byte{1, 0, 0, 0}
		if got := GetEnumTagSinglePayloadSimple(addr, 4, 2); got != 2 {
			t.Errorf("tag = %d, want 2 (xi=1 -> tag 1+1)", got)
		}
	})
}

func TestEnumTagSinglePayloadSimpleRoundTrip(t *testing.T) {
	t.Run("empty case", func(t *testing.T) {
		addr := make([]byte, 4)
		InjectEnumTagSinglePayloadSimple(addr, 2, 4, 3)
		if got := GetEnumTagSinglePayloadSimple(addr, 4, 3); got != 2 {
			t.Errorf("round trip tag = %d, want 2", got)
		}
	})

	t.Run("payload case", func(t *testing.T) {
		addr := make([]byte, 4)
		InjectEnumTagSinglePayloadSimple(addr, 0, 4, 3)
		if got := GetEnumTagSinglePayloadSimple(addr, 4, 3); got != 0 {
			t.Errorf("round trip tag = %d, want 0", got)
		}
	})
}

func TestEnumTagMultiPayloadRoundTrip(t *testing.T) {
	tests := []struct {
		name          string
		tag           int
		payloadSize   int
		extraTagBytes int
	}{
		{"fits in payload bits, no extra bytes", 2, 1, 0},
		{"needs extra tag bytes", 300, 1, 1},
		{"wide payload, no extra bytes needed", 5, 4, 0},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			addr := make([]byte, tt.payloadSize+tt.extraTagBytes)
			InjectEnumTagMultiPayload(addr, tt.tag, tt.payloadSize, tt.extraTagBytes)
			got := GetEnumTagMultiPayload(addr, 4, tt.payloadSize, tt.extraTagBytes)
			if got != tt.tag {
				t.Errorf("tag = %d, want %d", got, tt.tag)
			}
		})
	}
}

func TestSingletonEnumGetEnumTag(t *testing.T) {
	if got := SingletonEnumGetEnumTag(nil); got != 0 {
		t.Errorf("tag = %d, want 0", got)
	}
}

func TestReadTagStoreTagRoundTrip(t *testing.T) {
	for _, n := range []int{1, 2, 4, 8} {
		buf := make([]byte, 8)
		StoreTag(buf, 0, 0xdeadbeef, n)
		got := ReadTag(buf, 0, n)
		want := uint64(0xdeadbeef) & ((uint64(1) << uint(8*n)) - 1)
		if n == 8 {
			want = 0xdeadbeef
		}
		if got != want {
			t.Errorf("n=%d: ReadTag = %#x, want %#x", n, got, want)
		}
	}
}

func TestLoadStoreEnumElement(t *testing.T) {
	buf := make([]byte, 8)
	StoreEnumElement(buf, 0, 0x1234, 2)
	if got := LoadEnumElement(buf, 0, 2); got != 0x1234 {
		t.Errorf("LoadEnumElement = %#x, want %#x", got, 0x1234)
	}

	// sizes of 4 or more always collapse to a 4-byte read.
	StoreEnumElement(buf, 0, 0x11223344, 8)
	if got := LoadEnumElement(buf, 0, 8); got != 0x11223344 {
		t.Errorf("LoadEnumElement(size=8) = %#x, want %#x", got, 0x11223344)
	}
}
