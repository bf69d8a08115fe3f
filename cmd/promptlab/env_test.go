package main

import (
	"os"
	"path/filepath"
	"testing"
)

func TestLoadEnvFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), ".env")
	content := "# comment\r\n" +
		"PROMPTLAB_TEST_A=plain\r\n" +
		"export PROMPTLAB_TEST_B=\"quoted value\"\n" +
		"PROMPTLAB_TEST_C = 'single'\n" +
		"not a pair\n" +
		"PROMPTLAB_TEST_D=a=b\n" +
		"PROMPTLAB_TEST_SET=from-file\n"
	if err := os.WriteFile(path, []byte(content), 0644); err != nil {
		t.Fatal(err)
	}
	t.Setenv("PROMPTLAB_TEST_SET", "from-env")
	for _, k := range []string{"PROMPTLAB_TEST_A", "PROMPTLAB_TEST_B", "PROMPTLAB_TEST_C", "PROMPTLAB_TEST_D"} {
		t.Setenv(k, "")
		os.Unsetenv(k)
	}

	if err := loadEnvFile(path); err != nil {
		t.Fatalf("loadEnvFile failed: %v", err)
	}

	tests := map[string]string{
		"PROMPTLAB_TEST_A":   "plain",
		"PROMPTLAB_TEST_B":   "quoted value",
		"PROMPTLAB_TEST_C":   "single",
		"PROMPTLAB_TEST_D":   "a=b",
		"PROMPTLAB_TEST_SET": "from-env",
	}
	for key, want := range tests {
		if got := os.Getenv(key); got != want {
			t.Errorf("%s = %q, want %q", key, got, want)
		}
	}
}

func TestLoadEnvFile_Missing(t *testing.T) {
	if err := loadEnvFile(filepath.Join(t.TempDir(), "nope")); !os.IsNotExist(err) {
		t.Errorf("Expected not-exist error, got %v", err)
	}
}
