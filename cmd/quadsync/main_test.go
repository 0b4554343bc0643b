package main

import (
	"testing"

	"quadsync/internal/client"
	"quadsync/internal/config"
	"quadsync/internal/rdf"
)

func TestParseParamPairs(t *testing.T) {
	params, err := parseParamPairs([]string{"graph=p1", " limit = 10 ", ""})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if params["graph"] != "p1" || params["limit"] != "10" || len(params) != 2 {
		t.Fatalf("unexpected params: %v", params)
	}

	for _, bad := range []string{"novalue", "=x"} {
		if _, err := parseParamPairs([]string{bad}); err == nil {
			t.Fatalf("expected error for %q", bad)
		}
	}
}

func TestPatternTerm(t *testing.T) {
	c, err := client.New(config.Default("demo", "example.invalid"), nil)
	if err != nil {
		t.Fatalf("client.New: %v", err)
	}

	tests := []struct {
		name  string
		input string
		want  rdf.Term
	}{
		{name: "wildcard", input: "", want: rdf.Term{}},
		{name: "prefixed", input: "dc:title", want: rdf.DCTitle},
		{name: "bracketed", input: "<http://example.org/a>", want: rdf.IRI("http://example.org/a")},
		{name: "literal", input: `"Folio"@en`, want: rdf.LangLiteral("Folio", "en")},
		{name: "blank", input: "_:b1", want: rdf.Blank("b1")},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := patternTerm(c, tt.input)
			if err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
			if got != tt.want {
				t.Fatalf("patternTerm(%q) = %v, want %v", tt.input, got, tt.want)
			}
		})
	}

	if _, err := patternTerm(c, `"unterminated`); err == nil {
		t.Fatal("expected error for unterminated literal")
	}
}
