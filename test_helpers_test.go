package bigdir_test

import (
	"fmt"
	"os"
	"path/filepath"
	"testing"

	"github.com/calvinalkan/bigdir"
)

const (
	windowsOS     = "windows"
	testNumFiles  = 2000
	testNamePad   = 200
	testHiddenDot = ".profile"
)

func writeFile(t *testing.T, root, rel string, data []byte) {
	t.Helper()

	fullPath := filepath.Join(root, rel)
	parent := filepath.Dir(fullPath)

	err := os.MkdirAll(parent, 0o750)
	if err != nil {
		t.Fatalf("mkdir %s: %v", parent, err)
	}

	err = os.WriteFile(fullPath, data, 0o600)
	if err != nil {
		t.Fatalf("write %s: %v", fullPath, err)
	}
}

// writeFlatFiles creates n empty files named by nameFn and returns the names.
func writeFlatFiles(t *testing.T, root string, n int, nameFn func(i int) string) []string {
	t.Helper()

	names := make([]string, 0, n)

	for i := range n {
		name := nameFn(i)
		writeFile(t, root, name, nil)
		names = append(names, name)
	}

	return names
}

func paddedName(i int) string {
	return fmt.Sprintf("file-%06d.txt", i)
}

// availableBackends lists the backends that can open a directory here.
func availableBackends() []bigdir.BackendKind {
	kinds := []bigdir.BackendKind{bigdir.BackendAuto, bigdir.BackendStream}
	if bigdir.Implementation == "linux" {
		kinds = append(kinds, bigdir.BackendRaw)
	}

	return kinds
}

// scanAll drains a scanner and returns the names it produced.
func scanAll(t *testing.T, path string, opts ...bigdir.Option) []string {
	t.Helper()

	sc, err := bigdir.Scan(path, opts...)
	if err != nil {
		t.Fatalf("scan %s: %v", path, err)
	}

	var names []string
	for sc.Next() {
		names = append(names, sc.Name())
	}

	if err := sc.Err(); err != nil {
		t.Fatalf("scan %s: %v", path, err)
	}

	if err := sc.Close(); err != nil {
		t.Fatalf("close %s: %v", path, err)
	}

	return names
}
