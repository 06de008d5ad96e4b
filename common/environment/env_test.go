package environment_test

import (
	"testing"

	"github.com/tolgaki/ews-migration-analyzer/common/environment"
)

func TestStringOr(t *testing.T) {
	t.Setenv("EWS_TEST_STR", "value")
	if got := environment.StringOr("EWS_TEST_STR", "fallback"); got != "value" {
		t.Errorf("got %q, want value", got)
	}
	if got := environment.StringOr("EWS_TEST_STR_UNSET", "fallback"); got != "fallback" {
		t.Errorf("got %q, want fallback", got)
	}
	t.Setenv("EWS_TEST_STR_EMPTY", "")
	if got := environment.StringOr("EWS_TEST_STR_EMPTY", "fallback"); got != "fallback" {
		t.Errorf("empty var: got %q, want fallback", got)
	}
}

func TestIntOr(t *testing.T) {
	t.Setenv("EWS_TEST_INT", "250")
	if got := environment.IntOr("EWS_TEST_INT", 7); got != 250 {
		t.Errorf("got %d, want 250", got)
	}
	t.Setenv("EWS_TEST_INT_BAD", "many")
	if got := environment.IntOr("EWS_TEST_INT_BAD", 7); got != 7 {
		t.Errorf("unparsable var: got %d, want 7", got)
	}
	if got := environment.IntOr("EWS_TEST_INT_UNSET", 7); got != 7 {
		t.Errorf("unset var: got %d, want 7", got)
	}
}
