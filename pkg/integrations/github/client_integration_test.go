//go:build integration

package github

import (
	"context"
	"os"
	"testing"
	"time"

	"github.com/NobleMathews/dev-versioner/pkg/errors"
	"github.com/NobleMathews/dev-versioner/pkg/httputil"
	"github.com/NobleMathews/dev-versioner/pkg/integrations"
)

func TestLicense_Integration(t *testing.T) {
	token := os.Getenv("GITHUB_TOKEN")
	if token == "" {
		t.Skip("GITHUB_TOKEN not set, skipping integration test")
	}
	c := NewClient(integrations.NewClient(httputil.NewFetcher(30*time.Second)), "", token)

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	tests := []struct {
		name  string
		owner string
		repo  string
		want  errors.Code
	}{
		{"spf13/cobra", "spf13", "cobra", ""},
		{"nonexistent", "nonexistent-owner-12345", "nonexistent-repo", errors.ErrCodeNotFound},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			lic, err := c.License(ctx, tt.owner, tt.repo)
			if got := errors.GetCode(err); got != tt.want {
				t.Fatalf("License(%q, %q) code = %q, want %q (err: %v)", tt.owner, tt.repo, got, tt.want, err)
			}
			if err == nil && lic.Name == "" {
				t.Error("expected a license name")
			}
		})
	}
}
