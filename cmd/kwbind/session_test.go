package main

import (
	"bytes"
	"strings"
	"testing"

	"github.com/google/go-cmp/cmp"
)

func newTestSession(t *testing.T) *session {
	t.Helper()
	sess, err := newSession(sessionOptions{libraries: stringList{networkLibrary}})
	if err != nil {
		t.Fatalf("newSession: %v", err)
	}
	return sess
}

func TestSplitCells(t *testing.T) {
	tests := map[string][]string{
		"Connect  db  2222":          {"Connect", "db", "2222"},
		"Open Socket\t{'host': 'h'}": {"Open Socket", "{'host': 'h'}"},
		"  VAR    ${x: int}   1  ":   {"VAR", "${x: int}", "1"},
		"Log  hello world":           {"Log", "hello world"},
		"Log\t\tfirst \t second":     {"Log", "first", "second"},
		"":                           nil,
	}
	for line, want := range tests {
		if diff := cmp.Diff(want, splitCells(line)); diff != "" {
			t.Fatalf("splitCells(%q) mismatch (-want +got):\n%s", line, diff)
		}
	}
}

func TestSessionExecuteAssignsAndBinds(t *testing.T) {
	sess := newTestSession(t)

	out, err := sess.execute("VAR  ${port: int}  8080")
	if err != nil {
		t.Fatalf("VAR failed: %v", err)
	}
	if out != "${port} = 8080" {
		t.Fatalf("unexpected VAR output %q", out)
	}

	out, err = sess.execute("connect  db  ${port}  retries=3")
	if err != nil {
		t.Fatalf("bind failed: %v", err)
	}
	want := "Connect(db: string, 8080: integer, timeout=1.5: float, retries=3: integer)"
	if out != want {
		t.Fatalf("bind output = %q, want %q", out, want)
	}

	out, err = sess.execute("Open Socket  {'host': 'h', 'port': '80'}  udp")
	if err != nil {
		t.Fatalf("bind failed: %v", err)
	}
	if want := "Open Socket({'host': 'h', 'port': 80}: dictionary, udp: Protocol)"; out != want {
		t.Fatalf("bind output = %q, want %q", out, want)
	}
}

func TestSessionExecuteReportsErrors(t *testing.T) {
	sess := newTestSession(t)

	tests := map[string]string{
		"Connect  db  abc":      "Argument 'port' got value 'abc' (string) that cannot be converted to integer.",
		"Conect  db":            "Did you mean 'Connect'?",
		"VAR  ${n: int}  x":     "Variable '${n: int}' got value 'x' (string)",
		"VAR":                   "VAR requires a variable declaration",
		"Open Socket  {}  sctp": "Argument 'endpoint'",
		"Connect  db  ${nope}":  "Variable '${nope}' not found.",
	}
	for line, want := range tests {
		_, err := sess.execute(line)
		if err == nil || !strings.Contains(err.Error(), want) {
			t.Fatalf("execute(%q) error = %v, want %q", line, err, want)
		}
	}
	if _, ok := sess.scope.Get("n"); ok {
		t.Fatalf("failed VAR must not define the variable")
	}
}

func TestSessionVariablesAndKeywords(t *testing.T) {
	sess, err := newSession(sessionOptions{
		libraries: stringList{networkLibrary},
		vars:      stringList{"host=db.local", "Port=5432"},
	})
	if err != nil {
		t.Fatalf("newSession: %v", err)
	}
	if diff := cmp.Diff([]string{"Port = 5432: string", "host = db.local: string"}, sess.variables()); diff != "" {
		t.Fatalf("variables mismatch (-want +got):\n%s", diff)
	}
	if diff := cmp.Diff([]string{"Connect", "Open Socket"}, sess.keywordNames()); diff != "" {
		t.Fatalf("keywords mismatch (-want +got):\n%s", diff)
	}

	desc, err := sess.describeKeyword("open_socket")
	if err != nil {
		t.Fatalf("describeKeyword: %v", err)
	}
	if !strings.HasPrefix(desc, "Open Socket(endpoint: Endpoint, protocol: Protocol = tcp) -> boolean") {
		t.Fatalf("unexpected description %q", desc)
	}
	if _, err := sess.describeKeyword("missing"); err == nil {
		t.Fatalf("expected unknown keyword error")
	}
}

func TestRunLinesReportsEachLine(t *testing.T) {
	sess := newTestSession(t)
	input := strings.Join([]string{
		"# setup",
		"VAR  @{tags}  a  b",
		"",
		"Connect  db  22  @{tags}",
		"Connect  db  nope",
	}, "\n")

	var out bytes.Buffer
	err := runLines(sess, strings.NewReader(input), &out)
	if err == nil || err.Error() != "1 line(s) failed" {
		t.Fatalf("unexpected error: %v", err)
	}
	lines := strings.Split(strings.TrimSpace(out.String()), "\n")
	want := []string{
		"2: @{tags} = ['a', 'b']",
		"4: Connect(db: string, 22: integer, a: string, b: string, timeout=1.5: float)",
		"5: error: Argument 'port' got value 'nope' (string) that cannot be converted to integer.",
	}
	if diff := cmp.Diff(want, lines); diff != "" {
		t.Fatalf("output mismatch (-want +got):\n%s", diff)
	}
}
