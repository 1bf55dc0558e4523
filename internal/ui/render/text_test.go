package render

import (
	"testing"
)

func TestTruncate(t *testing.T) {
	tests := []struct {
		name  string
		input string
		width int
		want  string
	}{
		{"fits", "Lofi beats", 20, "Lofi beats"},
		{"exact", "hello", 5, "hello"},
		{"cut", "Never Gonna Give You Up", 10, "Never G..."},
		{"only ellipsis", "hello", 3, "..."},
		{"empty", "", 10, ""},
		{"wide runes", "夜に駆ける", 7, "夜に..."},
		{"control chars dropped", "live\x07 set\n", 20, "live set"},
		{"invalid utf8 dropped", "ab\xffcd", 10, "abcd"},
		{"nbsp becomes space", "a b", 10, "a b"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := Truncate(tt.input, tt.width); got != tt.want {
				t.Errorf("Truncate(%q, %d) = %q, want %q", tt.input, tt.width, got, tt.want)
			}
		})
	}
}

func TestTruncateAndPad(t *testing.T) {
	tests := []struct {
		input string
		width int
		want  string
	}{
		{"abc", 6, "abc   "},
		{"abcdefgh", 6, "abc..."},
		{"夜に", 6, "夜に  "},
	}

	for _, tt := range tests {
		got := TruncateAndPad(tt.input, tt.width)
		if got != tt.want {
			t.Errorf("TruncateAndPad(%q, %d) = %q, want %q", tt.input, tt.width, got, tt.want)
		}
		if w := Width(got); w != tt.width {
			t.Errorf("Width(TruncateAndPad(%q)) = %d, want %d", tt.input, w, tt.width)
		}
	}
}

func TestRow(t *testing.T) {
	if got := Row("left", "right", 12); got != "left   right" {
		t.Errorf("Row() = %q", got)
	}
	if got := Row("left", "right", 4); got != "left right" {
		t.Errorf("Row() overflow = %q, want one space gap", got)
	}
}

func TestSeparatorAndEmptyLine(t *testing.T) {
	if got := Separator(3); got != "───" {
		t.Errorf("Separator(3) = %q", got)
	}
	if got := EmptyLine(2); got != "  " {
		t.Errorf("EmptyLine(2) = %q", got)
	}
	if Separator(-1) != "" || EmptyLine(-1) != "" {
		t.Error("negative widths should render empty")
	}
}

func TestWidth_IgnoresANSI(t *testing.T) {
	if got := Width("\x1b[31mred\x1b[0m"); got != 3 {
		t.Errorf("Width() = %d, want 3", got)
	}
}
