// SPDX-License-Identifier: MPL-2.0

package issue

import (
	"strings"
	"testing"
)

func TestCatalog(t *testing.T) {
	t.Parallel()

	all := Values()
	if len(all) != len(issues) {
		t.Fatalf("Values() returned %d issues, want %d", len(all), len(issues))
	}
	names := make(map[string]bool)
	for i, iss := range all {
		if iss.Id() != Id(i+1) {
			t.Errorf("Values()[%d].Id() = %d, want ids in order", i, iss.Id())
		}
		if iss.Name() == "" || names[iss.Name()] {
			t.Errorf("issue %d has empty or duplicate name %q", iss.Id(), iss.Name())
		}
		names[iss.Name()] = true
		if !strings.HasPrefix(strings.TrimSpace(string(iss.MarkdownMsg())), "# ") {
			t.Errorf("issue %s should start with a heading", iss.Name())
		}
	}
}

func TestLookup(t *testing.T) {
	t.Parallel()

	iss, ok := Lookup("has-dependents")
	if !ok || iss.Id() != HasDependentsId {
		t.Fatalf("Lookup(has-dependents) = %v, %v", iss, ok)
	}
	if _, ok := Lookup("nope"); ok {
		t.Error("Lookup(nope) should fail")
	}
	if Get(0) != nil {
		t.Error("Get(0) should be nil")
	}
}

func TestIssue_Suggestions_Cloned(t *testing.T) {
	t.Parallel()

	iss := Get(MissingDependencyId)
	s := iss.Suggestions()
	s[0] = "changed"
	if iss.Suggestions()[0] == "changed" {
		t.Error("Suggestions() must return a copy")
	}
}

func TestIssue_Render(t *testing.T) {
	t.Parallel()

	out, err := Get(MigrationVerificationFailedId).Render("notty")
	if err != nil {
		t.Fatalf("Render() error = %v", err)
	}
	for _, want := range []string{"Post-migration verification failed", "Partial migrations"} {
		if !strings.Contains(out, want) {
			t.Errorf("Render() missing %q\ngot:\n%s", want, out)
		}
	}
}
