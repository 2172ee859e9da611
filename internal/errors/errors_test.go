package errors

import (
	"bytes"
	stderrors "errors"
	"fmt"
	"strings"
	"testing"
)

func TestNew(t *testing.T) {
	tests := []struct {
		name    string
		code    string
		wantMsg string
		wantCat Category
	}{
		{
			name:    "render error",
			code:    CodeRender,
			wantMsg: "Render failed",
			wantCat: CategoryRender,
		},
		{
			name:    "validation error",
			code:    CodeValidation,
			wantMsg: "Build failed",
			wantCat: CategoryValidation,
		},
		{
			name:    "config error",
			code:    "E122",
			wantMsg: "Invalid configuration value",
			wantCat: CategoryConfig,
		},
		{
			name:    "unknown error code",
			code:    "E999",
			wantMsg: "Unknown error",
			wantCat: "",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := New(tt.code)
			if err.Message != tt.wantMsg {
				t.Errorf("Message = %q, want %q", err.Message, tt.wantMsg)
			}
			if err.Category != tt.wantCat {
				t.Errorf("Category = %q, want %q", err.Category, tt.wantCat)
			}
			if err.Code != tt.code {
				t.Errorf("Code = %q, want %q", err.Code, tt.code)
			}
		})
	}
}

func TestNewf(t *testing.T) {
	err := Newf(CategoryCLI, "file %q not found", "main.go")
	if err.Message != `file "main.go" not found` {
		t.Errorf("Message = %q", err.Message)
	}
	if err.Category != CategoryCLI {
		t.Errorf("Category = %q, want %q", err.Category, CategoryCLI)
	}
}

func TestTauError_Error(t *testing.T) {
	err := New(CodeDelivery)
	if got, want := err.Error(), "E300: Message delivery failed"; got != want {
		t.Errorf("Error() = %q, want %q", got, want)
	}

	err.Wrap(fmt.Errorf("broken pipe"))
	if got, want := err.Error(), "E300: Message delivery failed: broken pipe"; got != want {
		t.Errorf("Error() = %q, want %q", got, want)
	}

	plain := &TauError{Message: "test error"}
	if plain.Error() != "test error" {
		t.Errorf("Error() = %q, want %q", plain.Error(), "test error")
	}
}

func TestUnwrapAndIs(t *testing.T) {
	cause := stderrors.New("listen tcp :8000: address already in use")
	err := NewFatalStartupError("binding port 8000", cause)

	if !stderrors.Is(err, cause) {
		t.Error("errors.Is should find the cause")
	}

	wrapped := fmt.Errorf("run: %w", err)
	if !Is(wrapped, CodeFatalStartup) {
		t.Error("Is should find the code through wrapping")
	}
	if Is(wrapped, CodeRender) {
		t.Error("Is should not match another code")
	}
	if CategoryOf(wrapped) != CategoryStartup {
		t.Errorf("CategoryOf = %q", CategoryOf(wrapped))
	}
	if CategoryOf(cause) != "" {
		t.Error("plain errors have no category")
	}
}

func TestFromError(t *testing.T) {
	if FromError(nil, CodeRender) != nil {
		t.Error("nil in, nil out")
	}

	orig := NewHandlerError("tau_1", "click", stderrors.New("boom"))
	if got := FromError(fmt.Errorf("x: %w", orig), CodeRender); got != orig {
		t.Error("existing TauError should be returned as is")
	}

	got := FromError(stderrors.New("boom"), CodeRender)
	if got.Code != CodeRender || got.Wrapped == nil {
		t.Errorf("unexpected %+v", got)
	}
}

func TestValidationErrorLocation(t *testing.T) {
	output := "# example.com/app\n./main.go:12:5: undefined: Foo\n"
	err := NewValidationError(output, stderrors.New("exit status 1"))

	if err.Location == nil {
		t.Fatal("expected location")
	}
	if err.Location.File != "./main.go" || err.Location.Line != 12 || err.Location.Column != 5 {
		t.Errorf("unexpected location %s", err.Location)
	}
	if !strings.Contains(err.Plain(), "undefined: Foo") {
		t.Errorf("plain output should carry compiler output: %q", err.Plain())
	}
}

func TestLocationString(t *testing.T) {
	var nilLoc *Location
	if nilLoc.String() != "" {
		t.Error("nil location should be empty")
	}
	if got := (&Location{File: "a.go", Line: 3}).String(); got != "a.go:3" {
		t.Errorf("got %q", got)
	}
	if got := (&Location{File: "a.go", Line: 3, Column: 7}).String(); got != "a.go:3:7" {
		t.Errorf("got %q", got)
	}
}

func TestFormat(t *testing.T) {
	DisableColors()
	defer EnableColors()

	err := New(CodeValidation).
		WithLocation("main.go", 4, 2).
		WithDetail("main.go:4:2: syntax error").
		WithSuggestion("Fix it")

	out := err.Format()
	for _, want := range []string{"ERROR E200: Build failed", "main.go:4:2", "syntax error", "Hint: Fix it"} {
		if !strings.Contains(out, want) {
			t.Errorf("Format() missing %q:\n%s", want, out)
		}
	}
	if strings.Contains(out, "\033[") {
		t.Error("colors should be disabled")
	}
}

func TestPlainHasNoColors(t *testing.T) {
	err := New(CodeValidation).WithDetail("boom")
	if strings.Contains(err.Plain(), "\033[") {
		t.Error("Plain must never contain ANSI codes")
	}
}

func TestFormatCompact(t *testing.T) {
	err := New(CodeRender).WithLocation("page.go", 10, 0)
	if got, want := err.FormatCompact(), "page.go:10: E100: Render failed"; got != want {
		t.Errorf("FormatCompact() = %q, want %q", got, want)
	}
}

func TestPrintError(t *testing.T) {
	DisableColors()
	defer EnableColors()

	var buf bytes.Buffer
	PrintError(&buf, New("E141"))
	if !strings.Contains(buf.String(), "Not a tau project") {
		t.Errorf("unexpected output %q", buf.String())
	}

	buf.Reset()
	PrintError(&buf, stderrors.New("plain"))
	if !strings.Contains(buf.String(), "ERROR: plain") {
		t.Errorf("unexpected output %q", buf.String())
	}
}

func TestGetAllCodesSorted(t *testing.T) {
	codes := GetAllCodes()
	for i := 1; i < len(codes); i++ {
		if codes[i-1] > codes[i] {
			t.Fatalf("codes not sorted: %v", codes)
		}
	}
	if _, ok := GetTemplate(CodeHandler); !ok {
		t.Error("handler template missing")
	}
}
