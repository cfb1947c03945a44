package main

import (
	"bytes"
	"strings"
	"testing"
)

const articleDoc = `{"title":"Notes on Go","content":"Short **body**.","author":"Rob","siteName":"Go Blog","url":"https://go.dev/blog/notes"}`

func run(t *testing.T, stdin string, args ...string) (string, error) {
	t.Helper()
	root := newRootCMD()
	var out bytes.Buffer
	root.SetIn(strings.NewReader(stdin))
	root.SetOut(&out)
	root.SetErr(&out)
	root.SetArgs(args)
	err := root.Execute()
	return out.String(), err
}

func TestExportMarkdownFromStdin(t *testing.T) {
	t.Chdir(t.TempDir())
	out, err := run(t, articleDoc, "export", "--format", "md")
	if err != nil {
		t.Fatalf("export: %v\n%s", err, out)
	}
	for _, want := range []string{"title: Notes on Go", "# Notes on Go", "Short **body**."} {
		if !strings.Contains(out, want) {
			t.Fatalf("output missing %q:\n%s", want, out)
		}
	}
}

func TestExportRejectsUnknownFormat(t *testing.T) {
	t.Chdir(t.TempDir())
	if _, err := run(t, articleDoc, "export", "--format", "docx"); err == nil {
		t.Fatalf("expected error for unknown format")
	}
}

func TestFetchRequiresURL(t *testing.T) {
	t.Chdir(t.TempDir())
	if _, err := run(t, "", "fetch"); err == nil {
		t.Fatalf("expected argument error")
	}
}

func TestMigrateRequiresPostgres(t *testing.T) {
	t.Chdir(t.TempDir())
	_, err := run(t, "", "migrate")
	if err == nil || !strings.Contains(err.Error(), "postgres not configured") {
		t.Fatalf("expected postgres error, got %v", err)
	}
}
