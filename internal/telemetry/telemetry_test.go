// SPDX-License-Identifier: MPL-2.0

package telemetry_test

import (
	"io"
	"net/http/httptest"
	"testing"

	"github.com/abstractsdk/abstract/internal/deploy"
	"github.com/abstractsdk/abstract/internal/telemetry"
	"github.com/abstractsdk/abstract/internal/testutil"
	"github.com/abstractsdk/abstract/pkg/module"

	promtest "github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCollectorCountsTransactions(t *testing.T) {
	t.Parallel()

	f := testutil.New(t, deploy.Options{})
	c := telemetry.NewCollector("")
	require.NoError(t, c.Attach(f.Chain.Bus()))
	require.Error(t, c.Attach(f.Chain.Bus()))

	f.MustPublish("demo:vault@1.0.0", module.KindStandalone)
	f.MustPublish("demo:vault@1.1.0", module.KindStandalone)
	f.MustInstall(f.Alice, "demo:vault@1.0.0")
	_, err := f.Upgrade(f.Ctx, f.Alice, testutil.Upgrade(f.Info("demo:vault"), `{}`))
	require.NoError(t, err)
	_, err = f.Uninstall(f.Ctx, f.Alice, "demo:missing")
	require.Error(t, err)

	series, err := promtest.GatherAndCount(c.Registry(), "abstract_host_transactions_total")
	require.NoError(t, err)
	assert.Equal(t, 2, series, "one series per observed result")

	body := scrape(t, c)
	assert.Contains(t, body, `abstract_host_transactions_total{result="failed"} 1`)
	assert.Contains(t, body, `abstract_account_module_upgrades_total{kind="standalone"} 1`)
	assert.Contains(t, body, `abstract_contract_actions_total{action="upgrade_modules",type="wasm"} 1`)
	assert.Contains(t, body, `abstract_account_migration_verification_failures_total 0`)

	c.Detach()
	f.MustPublish("demo:vault@1.2.0", module.KindStandalone)
	assert.Contains(t, scrape(t, c), `abstract_account_module_upgrades_total{kind="standalone"} 1`)
}

func TestCollectorCountsVerificationFailures(t *testing.T) {
	t.Parallel()

	f := testutil.New(t, deploy.Options{})
	c := telemetry.NewCollector("test")
	require.NoError(t, c.Attach(f.Chain.Bus()))
	t.Cleanup(c.Detach)

	f.MustPublish("demo:autocompounder@1.0.0", module.KindApp)
	f.MustPublish("demo:autocompounder@1.1.0", module.KindApp, testutil.Dep("demo:dex", "^1.0.0"))
	f.MustInstall(f.Alice, "demo:autocompounder@1.0.0")

	_, err := f.Upgrade(f.Ctx, f.Alice, testutil.Upgrade(f.Info("demo:autocompounder"), ""))
	require.Error(t, err)

	assert.Contains(t, scrape(t, c), "test_account_migration_verification_failures_total 1")
}

func scrape(t *testing.T, c *telemetry.Collector) string {
	t.Helper()
	rec := httptest.NewRecorder()
	c.Handler().ServeHTTP(rec, httptest.NewRequest("GET", "/metrics", nil))
	body, err := io.ReadAll(rec.Body)
	require.NoError(t, err)
	return string(body)
}
