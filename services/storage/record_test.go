package storage

import (
	"errors"
	"testing"

	"deskctl-go/calibration"
	"deskctl-go/errcode"
	"deskctl-go/types"
)

func fullTable(t *testing.T) calibration.Table {
	t.Helper()
	var tab calibration.Table
	for i := 0; i < calibration.Capacity; i++ {
		if err := tab.Insert(uint16(4095-i*200), types.Millimeters(65535-i*3000)); err != nil {
			t.Fatal(err)
		}
	}
	return tab
}

func TestRecordRoundTrip(t *testing.T) {
	small, _ := calibration.FromPoints(
		calibration.Point{Raw: 952, Length: 86},
		calibration.Point{Raw: 1432, Length: 172},
	)
	cases := map[string]InnerConfiguration{
		"defaults":     {},
		"positions":    {Position1: Position(400), Position2: Position(1180)},
		"pos2 only":    {Position2: Position(0)},
		"small table":  {Position1: Position(720), Calibration: small},
		"full table":   {Position1: Position(65535), Position2: Position(1), Calibration: fullTable(t)},
		"unset + full": {Calibration: fullTable(t)},
	}
	for name, want := range cases {
		rec := Encode(want)
		if len(rec) > RecordSize {
			t.Fatalf("%s: record is %d bytes, limit %d", name, len(rec), RecordSize)
		}
		got, err := Decode(rec)
		if err != nil {
			t.Fatalf("%s: Decode: %v", name, err)
		}
		if got != want {
			t.Fatalf("%s: round trip mismatch\n got %+v\nwant %+v", name, got, want)
		}
	}
}

func TestDecodeIgnoresTrailingBytes(t *testing.T) {
	want := InnerConfiguration{Position1: Position(512)}
	rec := append(Encode(want), 0xFF, 0xFF, 0xFF, 0x00)
	got, err := Decode(rec)
	if err != nil || got != want {
		t.Fatalf("Decode = %+v, %v", got, err)
	}
}

func TestDecodeErrors(t *testing.T) {
	good := Encode(InnerConfiguration{Position1: Position(400)})

	erased := make([]byte, RecordSize)
	for i := range erased {
		erased[i] = 0xFF
	}
	if _, err := Decode(erased); !errors.Is(err, errcode.BadMagic) {
		t.Fatalf("erased: %v, want bad_magic", err)
	}

	flipped := append([]byte(nil), good...)
	flipped[headerSize+1] ^= 0x40
	if _, err := Decode(flipped); !errors.Is(err, errcode.BadChecksum) {
		t.Fatalf("flipped payload: %v, want bad_checksum", err)
	}

	if _, err := Decode(good[:len(good)-2]); !errors.Is(err, errcode.BadChecksum) {
		t.Fatalf("truncated: %v, want bad_checksum", err)
	}
	if _, err := Decode(good[:3]); !errors.Is(err, errcode.BadMagic) {
		t.Fatalf("too short: %v, want bad_magic", err)
	}
}
