package utils

import "testing"

func TestSanitizeName(t *testing.T) {
	cases := []struct {
		in  string
		out string
	}{
		{"", ""},
		{"acme", "acme"},
		{"  acme ui\t", "acme ui"},
		{"Tricox Admin", "Tricox Admin"},
	}

	for _, c := range cases {
		if got := SanitizeName(c.in); got != c.out {
			t.Errorf("SanitizeName(%q) = %q, want %q", c.in, got, c.out)
		}
	}
}

func TestValidateName(t *testing.T) {
	cases := []struct {
		name  string
		valid bool
	}{
		{"", false},
		{"acme", true},
		{"Tricox Admin", true},
		{"octocat-org", true},
		{"button.v2", true},
		{"acme/ui", false},
		{`acme\ui`, false},
		{"acme\nui", false},
	}

	for _, c := range cases {
		err := ValidateName(c.name)
		if c.valid && err != nil {
			t.Errorf("ValidateName(%q) = %v, want nil", c.name, err)
		}
		if !c.valid && err == nil {
			t.Errorf("ValidateName(%q) = nil, want error", c.name)
		}
	}
}

func TestSanitizeEmail(t *testing.T) {
	if got := SanitizeEmail("  Admin@Gmail.COM "); got != "admin@gmail.com" {
		t.Errorf("SanitizeEmail = %q", got)
	}
}
