package envutil

import (
	"testing"
	"time"
)

func TestTypedReads(t *testing.T) {
	t.Setenv("FC_INT", "42")
	t.Setenv("FC_BAD_INT", "forty")
	t.Setenv("FC_BOOL", "off")
	t.Setenv("FC_MIN", "15")
	t.Setenv("FC_LIST", " a, ,b ")

	if got := Int("FC_INT", 1); got != 42 {
		t.Fatalf("Int: got=%d want=42", got)
	}
	if got := Int("FC_BAD_INT", 7); got != 7 {
		t.Fatalf("Int fallback: got=%d want=7", got)
	}
	if got := Bool("FC_BOOL", true); got {
		t.Fatalf("Bool: got=%v want=false", got)
	}
	if got := Minutes("FC_MIN", time.Minute); got != 15*time.Minute {
		t.Fatalf("Minutes: got=%s", got)
	}
	if got := Seconds("FC_UNSET", 3*time.Second); got != 3*time.Second {
		t.Fatalf("Seconds default: got=%s", got)
	}
	got := List("FC_LIST", nil)
	if len(got) != 2 || got[0] != "a" || got[1] != "b" {
		t.Fatalf("List: got=%v", got)
	}
}
