package analyzer

import (
	"strings"
	"testing"

	"github.com/codescope/codescope-go/internal/models"
)

const pythonFixture = `import os
from typing import List

MAX_RETRIES = 3


class Greeter:
    """Says hello."""

    def greet(self, name):
        """Return a greeting."""
        if name:
            return "hi " + name
        return "hi"


class LoudGreeter(Greeter):
    pass


async def fetch_data(url, timeout=30):
    return url
`

func TestAnalyzePython(t *testing.T) {
	a := New()
	fa := a.Analyze("app/models.py", []byte(pythonFixture))

	if fa.Language != "python" {
		t.Fatalf("language = %q, want python", fa.Language)
	}
	if len(fa.ParsingErrors) != 0 {
		t.Fatalf("unexpected parsing errors: %v", fa.ParsingErrors)
	}

	greeter := findSymbol(t, fa, models.SymbolKindClass, "Greeter")
	if greeter.LineStart != 7 {
		t.Errorf("Greeter line = %d, want 7", greeter.LineStart)
	}
	if greeter.Docstring != "Says hello." {
		t.Errorf("Greeter docstring = %q", greeter.Docstring)
	}

	greet := findSymbol(t, fa, models.SymbolKindMethod, "greet")
	if greet.Scope != "Greeter" {
		t.Errorf("greet scope = %q, want Greeter", greet.Scope)
	}
	wantParent := models.SymbolID(models.SymbolKindClass, "app/models.py", "Greeter", greeter.LineStart)
	if greet.ParentID != wantParent {
		t.Errorf("greet parent = %q, want %q", greet.ParentID, wantParent)
	}
	if greet.Docstring != "Return a greeting." {
		t.Errorf("greet docstring = %q", greet.Docstring)
	}
	if greet.Complexity != 2 {
		t.Errorf("greet complexity = %d, want 2", greet.Complexity)
	}
	if want := []string{"self", "name"}; !equalStrings(greet.Parameters, want) {
		t.Errorf("greet params = %v, want %v", greet.Parameters, want)
	}

	fetch := findSymbol(t, fa, models.SymbolKindFunction, "fetch_data")
	if !fetch.IsAsync {
		t.Error("fetch_data should be async")
	}

	findSymbol(t, fa, models.SymbolKindConstant, "MAX_RETRIES")

	if !hasDependency(fa, "os") {
		t.Error("missing dependency on os")
	}
	if !hasDependency(fa, "typing.List") {
		t.Error("missing dependency on typing.List")
	}
	if !hasInheritance(fa, "LoudGreeter", "Greeter") {
		t.Error("missing inheritance edge LoudGreeter -> Greeter")
	}

	if fa.Complexity.FunctionCount != 2 {
		t.Errorf("function count = %d, want 2", fa.Complexity.FunctionCount)
	}
	if fa.Complexity.ClassCount != 2 {
		t.Errorf("class count = %d, want 2", fa.Complexity.ClassCount)
	}
	if fa.Complexity.Cyclomatic != 2 {
		t.Errorf("file cyclomatic = %d, want 2", fa.Complexity.Cyclomatic)
	}
	if fa.Complexity.AveragePerFn != 1.5 {
		t.Errorf("average per fn = %v, want 1.5", fa.Complexity.AveragePerFn)
	}

	assertSymbolInvariants(t, fa)
}

const goFixture = `package greeter

import (
	"fmt"
	"strings"
)

const maxRetries = 3

type Greeter struct {
	prefix string
}

// Greet returns a greeting for name.
func (g *Greeter) Greet(name string) string {
	if name == "" {
		return g.prefix
	}
	return fmt.Sprintf("%s %s", g.prefix, strings.ToUpper(name))
}

func Add(a, b int) int {
	return a + b
}
`

func TestAnalyzeGo(t *testing.T) {
	a := New()
	fa := a.Analyze("internal/greeter/greeter.go", []byte(goFixture))

	if fa.Language != "go" {
		t.Fatalf("language = %q, want go", fa.Language)
	}
	if len(fa.ParsingErrors) != 0 {
		t.Fatalf("unexpected parsing errors: %v", fa.ParsingErrors)
	}

	findSymbol(t, fa, models.SymbolKindStruct, "Greeter")
	findSymbol(t, fa, models.SymbolKindConstant, "maxRetries")

	greet := findSymbol(t, fa, models.SymbolKindMethod, "Greet")
	if greet.Scope != "Greeter" {
		t.Errorf("Greet scope = %q, want Greeter", greet.Scope)
	}
	if greet.Complexity != 2 {
		t.Errorf("Greet complexity = %d, want 2", greet.Complexity)
	}
	if greet.Docstring != "Greet returns a greeting for name." {
		t.Errorf("Greet docstring = %q", greet.Docstring)
	}

	add := findSymbol(t, fa, models.SymbolKindFunction, "Add")
	if want := []string{"a", "b"}; !equalStrings(add.Parameters, want) {
		t.Errorf("Add params = %v, want %v", add.Parameters, want)
	}
	if add.Complexity != 1 {
		t.Errorf("Add complexity = %d, want 1", add.Complexity)
	}

	if !hasDependency(fa, "fmt") || !hasDependency(fa, "strings") {
		t.Errorf("missing import dependencies, got %v", dependencyTargets(fa))
	}

	assertSymbolInvariants(t, fa)
}

const jsFixture = `import { readFile } from 'fs';
const MAX_SIZE = 5;

export class Animal {
  speak() {
    if (this.sound) {
      return this.sound;
    }
    return 'silence';
  }
}

class Dog extends Animal {}

const fetchData = async (url) => {
  return url;
};

function helper(x) {
  return x || 0;
}
`

func TestAnalyzeJavaScript(t *testing.T) {
	a := New()
	fa := a.Analyze("src/zoo.js", []byte(jsFixture))

	if len(fa.ParsingErrors) != 0 {
		t.Fatalf("unexpected parsing errors: %v", fa.ParsingErrors)
	}

	animal := findSymbol(t, fa, models.SymbolKindClass, "Animal")
	speak := findSymbol(t, fa, models.SymbolKindMethod, "speak")
	if speak.Scope != "Animal" {
		t.Errorf("speak scope = %q, want Animal", speak.Scope)
	}
	wantParent := models.SymbolID(models.SymbolKindClass, "src/zoo.js", "Animal", animal.LineStart)
	if speak.ParentID != wantParent {
		t.Errorf("speak parent = %q, want %q", speak.ParentID, wantParent)
	}

	findSymbol(t, fa, models.SymbolKindClass, "Dog")
	if !hasInheritance(fa, "Dog", "Animal") {
		t.Error("missing extends edge Dog -> Animal")
	}

	fetch := findSymbol(t, fa, models.SymbolKindFunction, "fetchData")
	if !fetch.IsAsync {
		t.Error("fetchData should be async")
	}

	helper := findSymbol(t, fa, models.SymbolKindFunction, "helper")
	if helper.Complexity != 2 {
		t.Errorf("helper complexity = %d, want 2", helper.Complexity)
	}

	findSymbol(t, fa, models.SymbolKindConstant, "MAX_SIZE")

	if !hasDependency(fa, "fs") {
		t.Errorf("missing dependency on fs, got %v", dependencyTargets(fa))
	}

	assertSymbolInvariants(t, fa)
}

const tsFixture = `import { Router } from 'express';

export interface Shape {
  area(): number;
}

enum Color {
  Red,
  Green,
}

export type Result = Shape | null;

export function compute(input: Shape): number {
  if (input) {
    return input.area();
  }
  return 0;
}
`

func TestAnalyzeTypeScript(t *testing.T) {
	a := New()
	fa := a.Analyze("src/geometry.ts", []byte(tsFixture))

	if len(fa.ParsingErrors) != 0 {
		t.Fatalf("unexpected parsing errors: %v", fa.ParsingErrors)
	}

	findSymbol(t, fa, models.SymbolKindStruct, "Shape")
	findSymbol(t, fa, models.SymbolKindConstant, "Color")
	findSymbol(t, fa, models.SymbolKindStruct, "Result")

	compute := findSymbol(t, fa, models.SymbolKindFunction, "compute")
	if compute.Complexity != 2 {
		t.Errorf("compute complexity = %d, want 2", compute.Complexity)
	}
	if want := []string{"input"}; !equalStrings(compute.Parameters, want) {
		t.Errorf("compute params = %v, want %v", compute.Parameters, want)
	}

	if !hasDependency(fa, "express") {
		t.Errorf("missing dependency on express, got %v", dependencyTargets(fa))
	}
}

const rubyFixture = `require 'json'

class Greeter
  def greet(name)
    if name
      "hi " + name
    else
      "hi"
    end
  end
end
`

func TestAnalyzeRubyHeuristic(t *testing.T) {
	a := New()
	fa := a.Analyze("lib/greeter.rb", []byte(rubyFixture))

	if fa.Language != "ruby" {
		t.Fatalf("language = %q, want ruby", fa.Language)
	}
	// Heuristic analysis is degraded capability, not a parse failure.
	if len(fa.ParsingErrors) != 0 {
		t.Fatalf("heuristic path recorded parsing errors: %v", fa.ParsingErrors)
	}

	findSymbol(t, fa, models.SymbolKindClass, "Greeter")
	findSymbol(t, fa, models.SymbolKindFunction, "greet")

	if !hasDependency(fa, "json") {
		t.Errorf("missing dependency on json, got %v", dependencyTargets(fa))
	}
	if fa.Complexity.Cyclomatic != 2 {
		t.Errorf("cyclomatic = %d, want 2", fa.Complexity.Cyclomatic)
	}
}

func TestAnalyzeEmptyContent(t *testing.T) {
	a := New()
	fa := a.Analyze("empty.py", nil)

	if len(fa.Symbols) != 0 {
		t.Errorf("symbols = %v, want none", symbolNames(fa))
	}
	if len(fa.ParsingErrors) != 0 {
		t.Errorf("parsing errors = %v, want none", fa.ParsingErrors)
	}
	if fa.Complexity.Cyclomatic != 1 {
		t.Errorf("cyclomatic = %d, want 1", fa.Complexity.Cyclomatic)
	}
}

func TestAnalyzeBrokenSyntax(t *testing.T) {
	src := `def broken(:
    pass

def works(x):
    return x
`
	a := New()
	fa := a.Analyze("bad.py", []byte(src))

	if len(fa.ParsingErrors) == 0 {
		t.Fatal("expected parsing errors for broken syntax")
	}
	if !strings.Contains(fa.ParsingErrors[0], "syntax errors") {
		t.Errorf("parsing error = %q", fa.ParsingErrors[0])
	}

	// Partial results survive: both declarations are recoverable, one
	// from the grammar and one from the heuristic merge.
	names := symbolNames(fa)
	if !containsString(names, "works") {
		t.Errorf("works not recovered, got %v", names)
	}
	if !containsString(names, "broken") {
		t.Errorf("broken not recovered, got %v", names)
	}
}

func TestAnalyzeOversizedFallsBack(t *testing.T) {
	a := New(WithMaxFileSize(10))
	fa := a.Analyze("app/models.py", []byte(pythonFixture))

	if len(fa.ParsingErrors) != 0 {
		t.Fatalf("oversize fallback recorded parsing errors: %v", fa.ParsingErrors)
	}

	names := symbolNames(fa)
	for _, want := range []string{"Greeter", "greet", "fetch_data", "MAX_RETRIES"} {
		if !containsString(names, want) {
			t.Errorf("heuristic pass missed %q, got %v", want, names)
		}
	}

	fetch := findSymbol(t, fa, models.SymbolKindFunction, "fetch_data")
	if !fetch.IsAsync {
		t.Error("fetch_data should be async in heuristic pass")
	}
}

func TestAnalyzeDeterministic(t *testing.T) {
	a := New()
	first := a.Analyze("app/models.py", []byte(pythonFixture))
	second := a.Analyze("app/models.py", []byte(pythonFixture))

	if len(first.Symbols) != len(second.Symbols) {
		t.Fatalf("symbol counts differ: %d vs %d", len(first.Symbols), len(second.Symbols))
	}
	for i := range first.Symbols {
		if first.Symbols[i].ID != second.Symbols[i].ID {
			t.Errorf("symbol %d id differs: %q vs %q", i, first.Symbols[i].ID, second.Symbols[i].ID)
		}
	}
	if first.ContentHash != second.ContentHash {
		t.Errorf("content hash differs: %q vs %q", first.ContentHash, second.ContentHash)
	}
}

func TestContentHash(t *testing.T) {
	a := ContentHash([]byte("hello"))
	b := ContentHash([]byte("hello"))
	c := ContentHash([]byte("world"))

	if a != b {
		t.Errorf("same content hashed differently: %q vs %q", a, b)
	}
	if a == c {
		t.Error("different content produced the same hash")
	}
	if len(a) != 16 {
		t.Errorf("hash length = %d, want 16", len(a))
	}
}

func TestModuleName(t *testing.T) {
	tests := []struct {
		path string
		lang string
		want string
	}{
		{"app/models.py", "python", "app.models"},
		{"pkg/__init__.py", "python", "pkg"},
		{"internal/server/main.go", "go", "internal/server"},
		{"main.go", "go", "main"},
		{"./lib/util.js", "javascript", "lib/util"},
	}

	for _, tt := range tests {
		if got := ModuleName(tt.path, tt.lang); got != tt.want {
			t.Errorf("ModuleName(%q, %q) = %q, want %q", tt.path, tt.lang, got, tt.want)
		}
	}
}

func TestDetectLanguage(t *testing.T) {
	tests := []struct {
		path string
		want string
	}{
		{"a/b.py", "python"},
		{"x.go", "go"},
		{"x.tsx", "tsx"},
		{"x.rb", "ruby"},
		{"x.zig", ""},
		{"Makefile", ""},
	}

	for _, tt := range tests {
		if got := DetectLanguage(tt.path); got != tt.want {
			t.Errorf("DetectLanguage(%q) = %q, want %q", tt.path, got, tt.want)
		}
	}
}

func findSymbol(t *testing.T, fa *models.FileAnalysis, kind models.SymbolKind, name string) models.Symbol {
	t.Helper()
	for _, s := range fa.Symbols {
		if s.Kind == kind && s.Name == name {
			return s
		}
	}
	t.Fatalf("symbol %s %q not found, have %v", kind, name, symbolNames(fa))
	return models.Symbol{}
}

func hasDependency(fa *models.FileAnalysis, target string) bool {
	for _, d := range fa.Dependencies {
		if d.TargetModule == target {
			return true
		}
	}
	return false
}

func hasInheritance(fa *models.FileAnalysis, child, parent string) bool {
	for _, d := range fa.Dependencies {
		if d.SourceModule == child && d.TargetModule == parent {
			return true
		}
	}
	return false
}

func dependencyTargets(fa *models.FileAnalysis) []string {
	targets := make([]string, 0, len(fa.Dependencies))
	for _, d := range fa.Dependencies {
		targets = append(targets, d.TargetModule)
	}
	return targets
}

func symbolNames(fa *models.FileAnalysis) []string {
	names := make([]string, 0, len(fa.Symbols))
	for _, s := range fa.Symbols {
		names = append(names, s.Name)
	}
	return names
}

func assertSymbolInvariants(t *testing.T, fa *models.FileAnalysis) {
	t.Helper()
	lastLine := 0
	for _, s := range fa.Symbols {
		if !strings.HasPrefix(s.ID, "sym_") {
			t.Errorf("symbol %q has malformed id %q", s.Name, s.ID)
		}
		if s.FilePath != fa.FilePath {
			t.Errorf("symbol %q file path = %q, want %q", s.Name, s.FilePath, fa.FilePath)
		}
		if s.LineStart < lastLine {
			t.Errorf("symbols not ordered by line: %q at %d after %d", s.Name, s.LineStart, lastLine)
		}
		lastLine = s.LineStart
	}
}

func containsString(list []string, want string) bool {
	for _, s := range list {
		if s == want {
			return true
		}
	}
	return false
}

func equalStrings(a, b []string) bool {
	if len(a) != len(b) {
		return false
	}
	for i := range a {
		if a[i] != b[i] {
			return false
		}
	}
	return true
}
