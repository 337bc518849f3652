package wire

import (
	"bytes"
	"testing"
)

func TestParseCommand(t *testing.T) {
	cases := []struct {
		in   string
		want Command
	}{
		{"c /a f", Command{Op: OpCreate, Arg1: "/a", Arg2: "f"}},
		{"m /a /b", Command{Op: OpMove, Arg1: "/a", Arg2: "/b"}},
		{"d /a", Command{Op: OpDelete, Arg1: "/a"}},
		{"l /a", Command{Op: OpLookup, Arg1: "/a"}},
		{"p /tmp/out", Command{Op: OpPrint, Arg1: "/tmp/out"}},
	}
	for _, c := range cases {
		got, err := ParseCommand([]byte(c.in))
		if err != nil {
			t.Fatalf("ParseCommand(%q): %v", c.in, err)
		}
		if got != c.want {
			t.Errorf("ParseCommand(%q) = %+v, want %+v", c.in, got, c.want)
		}
	}
}

func TestParseCommandRejectsMalformed(t *testing.T) {
	cases := []string{"", "x", "c /a", "d", "d /a /b", "z /a"}
	for _, in := range cases {
		if _, err := ParseCommand([]byte(in)); err == nil {
			t.Errorf("ParseCommand(%q) succeeded, want error", in)
		}
	}
}

func TestCommandFormatRoundTrip(t *testing.T) {
	cmd := Command{Op: OpMove, Arg1: "/a", Arg2: "/b"}
	got, err := ParseCommand([]byte(cmd.Format()))
	if err != nil {
		t.Fatalf("ParseCommand(Format()): %v", err)
	}
	if got != cmd {
		t.Errorf("round trip = %+v, want %+v", got, cmd)
	}
}

func TestStatusCodec(t *testing.T) {
	var buf bytes.Buffer
	if err := EncodeStatus(&buf, ErrInvalidMove); err != nil {
		t.Fatalf("EncodeStatus: %v", err)
	}
	got, err := DecodeStatus(&buf)
	if err != nil {
		t.Fatalf("DecodeStatus: %v", err)
	}
	if got != ErrInvalidMove {
		t.Errorf("DecodeStatus = %v, want %v", got, ErrInvalidMove)
	}
}

func TestStatusOk(t *testing.T) {
	if !OK.Ok() {
		t.Error("OK.Ok() = false")
	}
	if !Status(7).Ok() {
		t.Error("a resolved inumber should report Ok")
	}
	if ErrNotFound.Ok() {
		t.Error("ErrNotFound.Ok() = true")
	}
}
