package recschema

import (
	"errors"
	"strings"
	"testing"
)

func TestEscapePointer(t *testing.T) {
	cases := []struct{ in, want string }{
		{"plain", "plain"},
		{"a/b", "a~1b"},
		{"a~b", "a~0b"},
		{"a~/b", "a~0~1b"},
	}
	for _, tc := range cases {
		if got := EscapePointer(tc.in); got != tc.want {
			t.Errorf("EscapePointer(%q) = %q, want %q", tc.in, got, tc.want)
		}
	}
}

func TestIssuesByField(t *testing.T) {
	iss := Issues{
		{Path: "/name", Message: "Missing data for required field."},
		{Path: "/address/city", Message: "Not a valid string."},
		{Path: "/", Message: "hook failed"},
		{Path: "", Message: "another root issue"},
	}
	got := iss.ByField()
	if len(got["name"]) != 1 {
		t.Fatalf("name messages = %v", got["name"])
	}
	if len(got["address"]) != 1 {
		t.Fatalf("nested issues group under the first segment, got %v", got["address"])
	}
	if len(got["_schema"]) != 2 {
		t.Fatalf("root issues group under _schema, got %v", got["_schema"])
	}
}

func TestRebaseIssues(t *testing.T) {
	iss := Issues{
		{Path: "/x"},
		{Path: "/"},
		{Path: ""},
	}
	got := RebaseIssues("/items/3", iss)
	if got[0].Path != "/items/3/x" {
		t.Errorf("rebased child path = %q", got[0].Path)
	}
	if got[1].Path != "/items/3" || got[2].Path != "/items/3" {
		t.Errorf("rebased root paths = %q, %q", got[1].Path, got[2].Path)
	}
}

func TestIssuesErrorSummary(t *testing.T) {
	iss := Issues{
		{Path: "/a", Code: CodeRequired},
		{Path: "/b", Code: CodeInvalidType},
		{Path: "/c", Code: CodePattern},
		{Path: "/d", Code: CodeTooLong},
	}
	msg := iss.Error()
	if !strings.Contains(msg, "required at /a") || !strings.Contains(msg, "pattern at /c") {
		t.Fatalf("summary should include the first few issues: %s", msg)
	}
	if strings.Contains(msg, "/d") {
		t.Fatalf("summary should truncate after the first few issues: %s", msg)
	}
	if !strings.Contains(msg, "(total 4)") {
		t.Fatalf("summary should report the total count: %s", msg)
	}
}

func TestIssuesFromErr(t *testing.T) {
	iss := Issues{{Path: "/x", Code: CodeRequired}}
	if got := IssuesFromErr("/", error(iss)); got[0].Path != "/x" {
		t.Fatalf("existing issues must pass through unchanged")
	}
	plain := errors.New("kaboom")
	got := IssuesFromErr("/", plain)
	if got[0].Code != CodeParseError || got[0].Cause != plain {
		t.Fatalf("foreign errors wrap as parse issues: %+v", got[0])
	}
}

func TestUnboundTypeVarErrorMessages(t *testing.T) {
	withRecord := &UnboundTypeVarError{Record: "Base1", Fields: []string{"answer"}}
	if !strings.Contains(withRecord.Error(), "Base1 has unbound fields: answer") {
		t.Fatalf("unexpected message: %s", withRecord.Error())
	}
	stray := &UnboundTypeVarError{Var: "T"}
	if !strings.Contains(stray.Error(), "can not resolve type variable T") {
		t.Fatalf("unexpected message: %s", stray.Error())
	}
}
