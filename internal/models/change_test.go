package models

import (
	"strings"
	"testing"
)

func TestChangeRefValidate(t *testing.T) {
	valid := []string{
		"a",
		"change-1",
		"fix.login.bug",
		"123",
		"a" + strings.Repeat("b", 63),
	}
	for _, ref := range valid {
		if err := ChangeRef(ref).Validate(); err != nil {
			t.Fatalf("expected %q valid: %v", ref, err)
		}
	}

	invalid := []string{
		"",
		"-leading-dash",
		".leading-dot",
		"UPPER",
		"has space",
		"has/slash",
		"has_underscore",
		"a" + strings.Repeat("b", 64),
		"../escape",
	}
	for _, ref := range invalid {
		if err := ChangeRef(ref).Validate(); err == nil {
			t.Fatalf("expected %q invalid", ref)
		}
	}
}

func TestValidateWorkingRoot(t *testing.T) {
	if err := ValidateWorkingRoot("/tmp/work"); err != nil {
		t.Fatalf("expected absolute path valid: %v", err)
	}
	for _, root := range []string{"", "relative", "./dot"} {
		if err := ValidateWorkingRoot(root); err == nil {
			t.Fatalf("expected %q invalid", root)
		}
	}
}
