package errcode

import (
	"errors"
	"fmt"
	"testing"
)

func TestOf(t *testing.T) {
	if got := Of(nil); got != OK {
		t.Fatalf("Of(nil) = %v", got)
	}
	if got := Of(NoFreeStream); got != NoFreeStream {
		t.Fatalf("Of(code) = %v", got)
	}
	wrapped := &E{C: InvalidPriority, Op: "dma.Allocate", Msg: "priority 9"}
	if got := Of(wrapped); got != InvalidPriority {
		t.Fatalf("Of(*E) = %v", got)
	}
	if got := Of(fmt.Errorf("boom")); got != Error {
		t.Fatalf("Of(opaque) = %v", got)
	}
}

func TestEUnwrap(t *testing.T) {
	cause := fmt.Errorf("register read failed")
	e := &E{C: Error, Op: "sim", Err: cause}
	if !errors.Is(e, cause) {
		t.Fatal("Unwrap chain broken")
	}
	if e.Error() != "error" {
		t.Fatalf("Error() = %q", e.Error())
	}
	e.Msg = "bad bank"
	if e.Error() != "error: bad bank" {
		t.Fatalf("Error() = %q", e.Error())
	}
}
