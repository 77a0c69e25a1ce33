package scenario

import (
	"context"
	"path/filepath"
	"testing"

	"github.com/gagliardetto/solana-go"
	"github.com/stretchr/testify/require"

	"refpool/native/referral"
	"refpool/runtime"
	"refpool/storage"
)

func newDeployment(t *testing.T) *runtime.Deployment {
	t.Helper()
	program, err := solana.NewRandomPrivateKey()
	require.NoError(t, err)
	custodyProgram, err := solana.NewRandomPrivateKey()
	require.NoError(t, err)
	dep, err := runtime.New(storage.NewMemDB(), runtime.BankConfig{NetworkName: "scenario"}, referral.Config{
		ProgramID:        program.PublicKey(),
		CustodyProgramID: custodyProgram.PublicKey(),
	}, nil)
	require.NoError(t, err)
	return dep
}

func TestRunReferralScenario(t *testing.T) {
	sc, err := Load(filepath.Join("testdata", "referral.yaml"))
	require.NoError(t, err)

	res, err := Run(context.Background(), newDeployment(t), sc)
	require.NoError(t, err)
	require.Equal(t, "two-tier referral payout", res.Name)
	require.Len(t, res.Steps, 8)
	require.Equal(t, uint64(0), res.Balances["alice"])
	require.Equal(t, uint64(90), res.Balances["bob"])
	require.Equal(t, uint64(110), res.Wallets["alice"])
	require.Equal(t, uint64(890), res.Vault)
	require.NotEmpty(t, res.StateRoot)
	require.Contains(t, res.Steps[4].Err, "referral: unauthorized")
}

func TestRunReportsUnexpectedFailure(t *testing.T) {
	sc, err := Parse([]byte(`
name: claim before reward
steps:
  - action: register
    holder: carol
  - action: claim
    holder: carol
`))
	require.NoError(t, err)

	res, err := Run(context.Background(), newDeployment(t), sc)
	require.ErrorIs(t, err, referral.ErrUnclaimableAmount)
	require.Len(t, res.Steps, 2)
}

func TestRunChecksExpectations(t *testing.T) {
	sc, err := Parse([]byte(`
name: wrong expectation
funding: 10
steps:
  - action: register
    holder: dave
  - action: distribute
    holder: dave
    amount: 10
expect:
  balances:
    dave: 9
`))
	require.NoError(t, err)

	_, err = Run(context.Background(), newDeployment(t), sc)
	require.ErrorContains(t, err, "balance of dave: want 9, got 10")
}

func TestParseRejectsInvalidDocuments(t *testing.T) {
	for name, doc := range map[string]string{
		"no steps":        "name: empty\n",
		"unknown action":  "steps:\n  - action: burn\n    holder: x\n",
		"missing holder":  "steps:\n  - action: register\n",
		"reserved holder": "steps:\n  - action: register\n    holder: admin\n",
		"bad yaml":        "steps: [",
	} {
		t.Run(name, func(t *testing.T) {
			_, err := Parse([]byte(doc))
			require.ErrorIs(t, err, ErrInvalidScenario)
		})
	}
}
