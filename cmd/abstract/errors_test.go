// SPDX-License-Identifier: MPL-2.0

package cmd

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"strings"
	"testing"

	"github.com/abstractsdk/abstract/internal/account"
	"github.com/abstractsdk/abstract/internal/deploy"
	"github.com/abstractsdk/abstract/internal/host"
	"github.com/abstractsdk/abstract/internal/issue"
	"github.com/abstractsdk/abstract/internal/registry"
	"github.com/abstractsdk/abstract/pkg/types"

	"github.com/spf13/cobra"
)

func TestClassifyError(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name     string
		err      error
		wantID   issue.Id
		wantCode types.ExitCode
	}{
		{"not deployed", fmt.Errorf("load: %w", deploy.ErrNotDeployed), issue.NotDeployedId, types.ExitNotDeployed},
		{"verification", account.ErrMigrationVerification, issue.MigrationVerificationFailedId, types.ExitVerificationFailed},
		{"dependents", account.ErrHasDependents, issue.HasDependentsId, types.ExitFailure},
		{"missing dependency", account.ErrMissingDependency, issue.MissingDependencyId, types.ExitFailure},
		{"namespace", fmt.Errorf("claim: %w", registry.ErrNamespaceOccupied), issue.NamespaceConflictId, types.ExitFailure},
		{"plain", errors.New("boom"), 0, types.ExitFailure},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			id, code := classifyError(tt.err)
			if id != tt.wantID {
				t.Errorf("classifyError() id = %v, want %v", id, tt.wantID)
			}
			if code != tt.wantCode {
				t.Errorf("classifyError() code = %v, want %v", code, tt.wantCode)
			}
		})
	}
}

func TestFailRendersActionableError(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name     string
		verbose  bool
		err      error
		wantCode types.ExitCode
		want     []string
		wantNot  []string
	}{
		{
			name:     "unclassified error",
			err:      errors.New("boom"),
			wantCode: types.ExitFailure,
			want:     []string{"failed to do work: boom", "--verbose"},
			wantNot:  []string{"abstract issue", "reverted"},
		},
		{
			name:     "unclassified error verbose",
			verbose:  true,
			err:      errors.New("boom"),
			wantCode: types.ExitFailure,
			want:     []string{"Error chain:", "1. boom"},
			wantNot:  []string{"--verbose"},
		},
		{
			name: "contract rejection",
			err: &host.ContractError{
				Contract: "manager",
				Entry:    "execute",
				Variant:  "install_modules",
				Err:      account.ErrMissingDependency,
			},
			wantCode: types.ExitRejected,
			want: []string{
				"Check the install_modules message sent to manager",
				"abstract issue missing-dependency",
				"transaction was reverted",
			},
			wantNot: []string{"--verbose"},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			var stderr bytes.Buffer
			app := NewApp(Dependencies{Stdout: io.Discard, Stderr: &stderr})
			app.flags.verbose = tt.verbose

			err := app.fail(&cobra.Command{}, "do work", tt.err)
			var exitErr *ExitError
			if !errors.As(err, &exitErr) {
				t.Fatalf("fail() = %v, want *ExitError", err)
			}
			if exitErr.Code != tt.wantCode {
				t.Errorf("fail() code = %v, want %v", exitErr.Code, tt.wantCode)
			}
			if !errors.Is(err, tt.err) {
				t.Errorf("fail() does not wrap %v", tt.err)
			}
			out := stderr.String()
			for _, s := range tt.want {
				if !strings.Contains(out, s) {
					t.Errorf("stderr missing %q:\n%s", s, out)
				}
			}
			for _, s := range tt.wantNot {
				if strings.Contains(out, s) {
					t.Errorf("stderr should not contain %q:\n%s", s, out)
				}
			}
		})
	}
}
