package internal

import (
	"strings"
	"testing"
)

func TestAuthConfig_DisabledMode(t *testing.T) {
	cfg := AuthConfig{Mode: "disabled", Token: ""}
	if err := cfg.Validate(); err != nil {
		t.Fatalf("disabled mode should pass: %v", err)
	}
	if cfg.AuthEnabled() {
		t.Error("disabled mode should not be enabled")
	}
}

func TestAuthConfig_EmptyModeDefaultsDisabled(t *testing.T) {
	cfg := AuthConfig{Mode: "", Token: ""}
	if err := cfg.Validate(); err != nil {
		t.Fatalf("empty mode should default to disabled: %v", err)
	}
	if cfg.Mode != AuthModeDisabled {
		t.Errorf("mode = %q, want %q", cfg.Mode, AuthModeDisabled)
	}
}

func TestAuthConfig_TokenModeEmptyToken(t *testing.T) {
	cfg := AuthConfig{Mode: "token", Token: ""}
	err := cfg.Validate()
	if err == nil {
		t.Fatal("token mode with empty token should fail")
	}
	if !strings.Contains(err.Error(), "token is empty") {
		t.Errorf("unexpected error: %v", err)
	}
}

func TestStampConfig_NumericFallbacks(t *testing.T) {
	cfg := StampConfig{
		BaseTag:          "date",
		DebounceMs:       -5,
		TemplaterDelayMs: 0,
		IndentWidth:      -1,
	}
	if err := cfg.Validate(); err != nil {
		t.Fatalf("invalid numerics must not error: %v", err)
	}
	if cfg.DebounceMs != DefaultDebounceMs {
		t.Errorf("debounce = %d, want %d", cfg.DebounceMs, DefaultDebounceMs)
	}
	if cfg.TemplaterDelayMs != DefaultTemplaterDelayMs {
		t.Errorf("templater delay = %d, want %d", cfg.TemplaterDelayMs, DefaultTemplaterDelayMs)
	}
	if cfg.IndentWidth != DefaultIndentWidth {
		t.Errorf("indent = %d, want %d", cfg.IndentWidth, DefaultIndentWidth)
	}
}

func TestStampConfig_EmptyStringsDefault(t *testing.T) {
	cfg := StampConfig{}
	if err := cfg.Validate(); err != nil {
		t.Fatalf("empty stamp config should normalise: %v", err)
	}
	if cfg.BaseTag != "date" {
		t.Errorf("base tag = %q, want %q", cfg.BaseTag, "date")
	}
	if cfg.TypeValue != "note" {
		t.Errorf("type value = %q, want %q", cfg.TypeValue, "note")
	}
}

func TestDefaultConfig_Valid(t *testing.T) {
	cfg := NewDefaultConfig()
	if err := cfg.Validate(); err != nil {
		t.Fatalf("default config should validate: %v", err)
	}
	opts := cfg.Stamp.PolicyOptions()
	if !opts.UpdateModifiedOnEdit || !opts.PreserveCreationTag || !opts.AddTypeIfMissing {
		t.Errorf("default policy switches wrong: %+v", opts)
	}
	if opts.AppendDuplicateDayTags {
		t.Error("duplicate day tags must default off")
	}
}

func TestFullConfig_AuthValidationCalled(t *testing.T) {
	cfg := NewDefaultConfig()
	cfg.Auth.Mode = "token"
	cfg.Auth.Token = ""
	if err := cfg.Validate(); err == nil {
		t.Fatal("full config validate should catch auth error")
	}
}
