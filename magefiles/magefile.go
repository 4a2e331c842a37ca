//go:build mage

// Package main contains Mage build targets for pdf2md developer tooling.
package main

import (
	"bufio"
	"bytes"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/magefile/mage/mg"
	"github.com/magefile/mage/sh"
)

const (
	binDir   = "bin"
	binName  = "pdf2md"
	cmdPkg   = "./cmd/pdf2md"
	wasmPkg  = "./cmd/pdf2md-wasm"
	wasmName = "pdf2md.wasm"
)

// Build compiles the CLI binary into bin/.
func Build() error {
	if err := os.MkdirAll(binDir, 0o755); err != nil {
		return fmt.Errorf("creating %s: %w", binDir, err)
	}
	out := filepath.Join(binDir, binName)
	if err := sh.RunV("go", "build", "-o", out, cmdPkg); err != nil {
		return fmt.Errorf("go build: %w", err)
	}
	fmt.Printf("Built %s\n", out)
	return nil
}

// BuildWasm compiles the browser module into bin/ and copies the Go
// wasm_exec.js loader next to it.
func BuildWasm() error {
	if err := os.MkdirAll(binDir, 0o755); err != nil {
		return fmt.Errorf("creating %s: %w", binDir, err)
	}
	out := filepath.Join(binDir, wasmName)
	env := map[string]string{"GOOS": "js", "GOARCH": "wasm"}
	if err := sh.RunWithV(env, "go", "build", "-o", out, wasmPkg); err != nil {
		return fmt.Errorf("go build (wasm): %w", err)
	}

	root, err := sh.Output("go", "env", "GOROOT")
	if err != nil {
		return fmt.Errorf("go env GOROOT: %w", err)
	}
	// Go 1.24 moved the loader from misc/wasm to lib/wasm.
	for _, dir := range []string{"lib", "misc"} {
		src := filepath.Join(root, dir, "wasm", "wasm_exec.js")
		if _, err := os.Stat(src); err == nil {
			if err := sh.Copy(filepath.Join(binDir, "wasm_exec.js"), src); err != nil {
				return err
			}
			break
		}
	}
	fmt.Printf("Built %s\n", out)
	return nil
}

// All builds both the CLI and the wasm module.
func All() {
	mg.Deps(Build, BuildWasm)
}

// Test runs the unit tests.
func Test() error {
	return sh.RunV("go", "test", "./...")
}

// Clean removes build output.
func Clean() error {
	return sh.Rm(binDir)
}

// Stats prints project metrics: Go production and test line counts.
func Stats() error {
	prodLines, err := countGoLines(".", false)
	if err != nil {
		return err
	}
	testLines, err := countGoLines(".", true)
	if err != nil {
		return err
	}

	fmt.Printf("Lines of code (Go, production): %d\n", prodLines)
	fmt.Printf("Lines of code (Go, tests):      %d\n", testLines)
	return nil
}

// countGoLines walks the tree and counts non-blank lines in Go files.
// If testOnly is true, count only _test.go files; otherwise count non-test .go files.
func countGoLines(root string, testOnly bool) (int, error) {
	total := 0
	err := filepath.WalkDir(root, func(path string, d os.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if d.IsDir() {
			if strings.HasPrefix(d.Name(), "_") || d.Name() == ".git" {
				return filepath.SkipDir
			}
			return nil
		}
		if filepath.Ext(path) != ".go" {
			return nil
		}
		if strings.HasSuffix(path, "_test.go") != testOnly {
			return nil
		}
		data, err := os.ReadFile(path)
		if err != nil {
			return fmt.Errorf("reading %s: %w", path, err)
		}
		sc := bufio.NewScanner(bytes.NewReader(data))
		for sc.Scan() {
			if strings.TrimSpace(sc.Text()) != "" {
				total++
			}
		}
		return sc.Err()
	})
	return total, err
}
