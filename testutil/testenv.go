// Package testutil provides shared test helpers: an in-memory document
// library for unit tests and environment setup for the live E2E suite.
package testutil

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/joho/godotenv"
)

// AllowedSitesEnv lists the SharePoint site URLs the E2E suite may write
// to, comma separated.
const AllowedSitesEnv = "SHAREPOINT_GO_ALLOWED_TEST_SITES"

// LoadDotEnv reads KEY=VALUE pairs from a .env file at the given path.
// Missing file is not an error (CI sets env vars directly).
// Existing env vars take precedence over .env values.
func LoadDotEnv(envPath string) {
	_ = godotenv.Load(envPath)
}

// ValidateAllowlist crashes the process if the site named by siteEnvVar is
// not listed in SHAREPOINT_GO_ALLOWED_TEST_SITES.
func ValidateAllowlist(siteEnvVar string) {
	allowlist := os.Getenv(AllowedSitesEnv)
	if allowlist == "" {
		fmt.Fprintf(os.Stderr, "FATAL: %s not set\n", AllowedSitesEnv)
		fmt.Fprintln(os.Stderr, "Set it in .env or as an environment variable.")
		fmt.Fprintf(os.Stderr, "Example: %s=https://contoso.sharepoint.com/sites/test\n", AllowedSitesEnv)
		os.Exit(1)
	}

	site := os.Getenv(siteEnvVar)
	if site == "" {
		fmt.Fprintf(os.Stderr, "FATAL: %s not set\n", siteEnvVar)
		os.Exit(1)
	}

	for _, a := range strings.Split(allowlist, ",") {
		if strings.TrimRight(strings.TrimSpace(a), "/") == strings.TrimRight(site, "/") {
			return
		}
	}

	fmt.Fprintf(os.Stderr, "FATAL: %s=%q is not in %s=%q\n", siteEnvVar, site, AllowedSitesEnv, allowlist)
	os.Exit(1)
}

// FindModuleRoot walks up from the current directory to find go.mod.
// Returns the fallback if the root is not found.
func FindModuleRoot(fallback string) string {
	dir, err := os.Getwd()
	if err != nil {
		return fallback
	}

	for {
		if _, err := os.Stat(filepath.Join(dir, "go.mod")); err == nil {
			return dir
		}

		parent := filepath.Dir(dir)
		if parent == dir {
			return fallback
		}

		dir = parent
	}
}
