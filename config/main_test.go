package config

import (
	"fmt"
	"os"
	"testing"
)

// TestMain runs before all tests in the config package.
// Config tests load .env files and open the action journal database, so a
// development or production environment could point them at a real backend
// or journal. GO_ENV must be "test".
func TestMain(m *testing.M) {
	env := os.Getenv("GO_ENV")
	if env != "test" {
		fmt.Fprintf(os.Stderr, "\n"+
			"config tests refused to run: GO_ENV is %q\n"+
			"they read .env.<GO_ENV> and may reach BACKEND_URL or DATABASE_URL\n"+
			"run them with: GO_ENV=test go test ./config/...\n\n",
			env)
		os.Exit(1)
	}

	os.Exit(m.Run())
}
