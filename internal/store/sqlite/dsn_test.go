package sqlite

import "testing"

func TestParseDSN(t *testing.T) {
	tests := []struct {
		name     string
		input    string
		expected string
		wantErr  bool
	}{
		{name: "memory", input: "sqlite://:memory:", expected: ":memory:"},
		{name: "absolute path", input: "sqlite:///var/lib/timelines.db", expected: "/var/lib/timelines.db"},
		{name: "relative path", input: "sqlite://timelines.db", expected: "./timelines.db"},
		{name: "dot relative path", input: "sqlite://./data/timelines.db", expected: "./data/timelines.db"},
		{name: "escaped path", input: "sqlite://my%20story.db", expected: "./my story.db"},
		{name: "query kept", input: "sqlite://timelines.db?cache=shared", expected: "./timelines.db?cache=shared"},
		{name: "wrong scheme", input: "postgres://localhost/db", wantErr: true},
		{name: "empty path", input: "sqlite://", wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := parseDSN(tt.input)
			if tt.wantErr {
				if err == nil {
					t.Fatalf("expected error")
				}
				return
			}
			if err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
			if got != tt.expected {
				t.Fatalf("parseDSN(%q) = %q, want %q", tt.input, got, tt.expected)
			}
		})
	}
}

func TestWithConnectionPragmas(t *testing.T) {
	if got := withConnectionPragmas("./a.db"); got != "./a.db?_pragma=busy_timeout(30000)&_pragma=foreign_keys(1)" {
		t.Fatalf("unexpected dsn: %s", got)
	}
	if got := withConnectionPragmas("./a.db?cache=shared"); got != "./a.db?cache=shared&_pragma=busy_timeout(30000)&_pragma=foreign_keys(1)" {
		t.Fatalf("unexpected dsn: %s", got)
	}
}

func TestSplitStatements(t *testing.T) {
	statements := splitStatements("-- comment\nCREATE TABLE a (x INT);\n\nCREATE INDEX i ON a (x);\n")
	if len(statements) != 2 {
		t.Fatalf("expected 2 statements, got %d: %#v", len(statements), statements)
	}
}
