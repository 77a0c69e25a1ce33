package scenario

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"strings"

	"github.com/gagliardetto/solana-go"

	"refpool/core/types"
	"refpool/native/custody"
	"refpool/native/referral"
	"refpool/runtime"
)

// ErrInsufficientPayout is reported when the custody vault could not cover
// every outstanding balance after a distribution.
var ErrInsufficientPayout = errors.New("scenario: insufficient funds to pay out rewards")

// StepResult records the outcome of a single step.
type StepResult struct {
	Index     int
	Action    string
	Holder    string
	Signature string
	Err       string
}

// Result summarises a run.
type Result struct {
	Name      string
	Steps     []StepResult
	Balances  map[string]uint64
	Wallets   map[string]uint64
	Vault     uint64
	StateRoot string
}

type actor struct {
	key         solana.PrivateKey
	participant solana.PublicKey
	registered  bool
	wallet      solana.PublicKey
}

type runner struct {
	ctx     context.Context
	dep     *runtime.Deployment
	cfg     referral.Config
	actors  map[string]*actor
	mint    solana.PrivateKey
	vault   solana.PrivateKey
	pool    solana.PrivateKey
	minter  solana.PrivateKey
	results []StepResult
}

// Run executes sc against dep. Step failures that match ExpectError are
// recorded and the run continues; any other failure aborts the run.
func Run(ctx context.Context, dep *runtime.Deployment, sc *Scenario) (*Result, error) {
	if err := sc.Validate(); err != nil {
		return nil, err
	}
	r := &runner{
		ctx:    ctx,
		dep:    dep,
		cfg:    dep.Engine.Config(),
		actors: make(map[string]*actor),
	}
	var err error
	for _, key := range []*solana.PrivateKey{&r.mint, &r.vault, &r.pool, &r.minter} {
		if *key, err = solana.NewRandomPrivateKey(); err != nil {
			return nil, err
		}
	}
	if err := r.setup(sc.Funding); err != nil {
		return nil, fmt.Errorf("scenario: setup: %w", err)
	}
	for i, step := range sc.Steps {
		res := StepResult{Index: i, Action: strings.ToLower(step.Action), Holder: step.Holder}
		sig, stepErr := r.step(step)
		res.Signature = sig
		if stepErr != nil {
			res.Err = stepErr.Error()
		}
		r.results = append(r.results, res)
		switch {
		case step.ExpectError == "" && stepErr != nil:
			return r.result(sc.Name), fmt.Errorf("scenario: step %d (%s): %w", i, res.Action, stepErr)
		case step.ExpectError != "" && stepErr == nil:
			return r.result(sc.Name), fmt.Errorf("scenario: step %d (%s): expected error %q", i, res.Action, step.ExpectError)
		case step.ExpectError != "" && !strings.Contains(stepErr.Error(), step.ExpectError):
			return r.result(sc.Name), fmt.Errorf("scenario: step %d (%s): expected error %q, got %w", i, res.Action, step.ExpectError, stepErr)
		}
	}
	result := r.result(sc.Name)
	if err := r.check(sc.Expect, result); err != nil {
		return result, err
	}
	return result, nil
}

func (r *runner) actor(name string) (*actor, error) {
	if a, ok := r.actors[name]; ok {
		return a, nil
	}
	key, err := solana.NewRandomPrivateKey()
	if err != nil {
		return nil, err
	}
	a := &actor{key: key}
	r.actors[name] = a
	return a, nil
}

func (r *runner) send(payer solana.PrivateKey, signers []solana.PrivateKey, ixs ...types.Instruction) (string, error) {
	blockhash, err := r.dep.LatestBlockhash()
	if err != nil {
		return "", err
	}
	tx := types.NewTransaction(payer.PublicKey(), blockhash, ixs...)
	if err := tx.Sign(append([]solana.PrivateKey{payer}, signers...)...); err != nil {
		return "", err
	}
	receipt, err := r.dep.ProcessTransaction(r.ctx, tx)
	if err != nil {
		return tx.Signature().String(), err
	}
	return receipt.Signature.String(), nil
}

func (r *runner) newTokenAccount(payer solana.PrivateKey, owner solana.PublicKey) (solana.PrivateKey, error) {
	account, err := solana.NewRandomPrivateKey()
	if err != nil {
		return nil, err
	}
	id := r.cfg.CustodyProgramID
	_, err = r.send(payer, []solana.PrivateKey{account},
		runtime.CreateAccountInstruction(payer.PublicKey(), account.PublicKey(), custody.AccountSize, id),
		custody.InitializeAccountInstruction(id, account.PublicKey(), r.mint.PublicKey(), owner),
	)
	return account, err
}

// setup creates the mint, funds the administrator's vault and initialises
// the pool with that vault as custody account.
func (r *runner) setup(funding uint64) error {
	admin, err := r.actor(AdminActor)
	if err != nil {
		return err
	}
	id := r.cfg.CustodyProgramID
	if _, err := r.send(admin.key, []solana.PrivateKey{r.mint},
		runtime.CreateAccountInstruction(admin.key.PublicKey(), r.mint.PublicKey(), custody.MintSize, id),
		custody.InitializeMintInstruction(id, r.mint.PublicKey(), r.minter.PublicKey()),
	); err != nil {
		return err
	}
	vault, err := r.newTokenAccount(admin.key, admin.key.PublicKey())
	if err != nil {
		return err
	}
	r.vault = vault
	if funding > 0 {
		if _, err := r.send(admin.key, []solana.PrivateKey{r.minter},
			custody.MintToInstruction(id, r.mint.PublicKey(), r.vault.PublicKey(), r.minter.PublicKey(), funding),
		); err != nil {
			return err
		}
	}
	_, err = r.send(admin.key, []solana.PrivateKey{r.pool},
		runtime.CreateAccountInstruction(admin.key.PublicKey(), r.pool.PublicKey(), referral.PoolSize, r.cfg.ProgramID),
		referral.InitializeInstruction(r.cfg, admin.key.PublicKey(), r.pool.PublicKey(), r.vault.PublicKey()),
	)
	return err
}

func (r *runner) signer(step Step, fallback *actor) (*actor, error) {
	if step.Signer == "" {
		return fallback, nil
	}
	return r.actor(step.Signer)
}

func (r *runner) step(step Step) (string, error) {
	holder, err := r.actor(step.Holder)
	if err != nil {
		return "", err
	}
	switch strings.ToLower(step.Action) {
	case ActionRegister:
		return r.register(step, holder)
	case ActionDistribute:
		return r.distribute(step, holder)
	case ActionClaim:
		return r.claim(step, holder)
	default:
		return "", fmt.Errorf("%w: unknown action %q", ErrInvalidScenario, step.Action)
	}
}

func (r *runner) register(step Step, holder *actor) (string, error) {
	signer, err := r.signer(step, holder)
	if err != nil {
		return "", err
	}
	var referrer *solana.PublicKey
	if step.Referrer != "" {
		upline, ok := r.actors[step.Referrer]
		if !ok || !upline.registered {
			return "", fmt.Errorf("%w: referrer %q is not registered", ErrInvalidScenario, step.Referrer)
		}
		referrer = &upline.participant
	}
	// A holder registering again targets its existing record.
	if holder.registered {
		return r.send(signer.key, nil,
			referral.RegisterInstruction(r.cfg, signer.key.PublicKey(), holder.participant, r.pool.PublicKey(), referrer))
	}
	slot, err := solana.NewRandomPrivateKey()
	if err != nil {
		return "", err
	}
	sig, err := r.send(signer.key, []solana.PrivateKey{slot},
		runtime.CreateAccountInstruction(signer.key.PublicKey(), slot.PublicKey(), referral.ParticipantSize, r.cfg.ProgramID),
		referral.RegisterInstruction(r.cfg, signer.key.PublicKey(), slot.PublicKey(), r.pool.PublicKey(), referrer),
	)
	if err != nil {
		return sig, err
	}
	holder.participant = slot.PublicKey()
	holder.registered = true
	return sig, nil
}

func (r *runner) distribute(step Step, holder *actor) (string, error) {
	admin, err := r.actor(AdminActor)
	if err != nil {
		return "", err
	}
	signer, err := r.signer(step, admin)
	if err != nil {
		return "", err
	}
	if !holder.registered {
		return "", fmt.Errorf("%w: %q is not registered", ErrInvalidScenario, step.Holder)
	}
	if err := r.checkPayout(step.Amount); err != nil {
		return "", err
	}
	record, err := r.dep.Participant(holder.participant)
	if err != nil {
		return "", err
	}
	var referrer *solana.PublicKey
	if key, ok := record.Referrer.Get(); ok {
		referrer = &key
	}
	return r.send(signer.key, nil,
		referral.DistributeRewardInstruction(r.cfg, signer.key.PublicKey(), r.pool.PublicKey(), holder.participant, referrer, step.Amount))
}

// checkPayout refuses a distribution the vault could not honour if every
// participant claimed afterwards.
func (r *runner) checkPayout(amount uint64) error {
	available, err := r.dep.TokenBalance(r.vault.PublicKey())
	if err != nil {
		return err
	}
	var outstanding uint64
	for _, a := range r.actors {
		if !a.registered {
			continue
		}
		record, err := r.dep.Participant(a.participant)
		if err != nil {
			return err
		}
		outstanding += record.RewardBalance
	}
	if outstanding > available || amount > available-outstanding {
		return fmt.Errorf("%w: vault holds %d, outstanding %d, requested %d", ErrInsufficientPayout, available, outstanding, amount)
	}
	return nil
}

func (r *runner) claim(step Step, holder *actor) (string, error) {
	signer, err := r.signer(step, holder)
	if err != nil {
		return "", err
	}
	if !holder.registered {
		return "", fmt.Errorf("%w: %q is not registered", ErrInvalidScenario, step.Holder)
	}
	if signer.wallet == (solana.PublicKey{}) {
		wallet, err := r.newTokenAccount(signer.key, signer.key.PublicKey())
		if err != nil {
			return "", err
		}
		signer.wallet = wallet.PublicKey()
	}
	ix, err := referral.ClaimInstruction(r.cfg, signer.key.PublicKey(), r.pool.PublicKey(), holder.participant, r.vault.PublicKey(), signer.wallet)
	if err != nil {
		return "", err
	}
	return r.send(signer.key, nil, ix)
}

func (r *runner) result(name string) *Result {
	res := &Result{
		Name:     name,
		Steps:    append([]StepResult(nil), r.results...),
		Balances: make(map[string]uint64),
		Wallets:  make(map[string]uint64),
	}
	names := make([]string, 0, len(r.actors))
	for n := range r.actors {
		names = append(names, n)
	}
	sort.Strings(names)
	for _, n := range names {
		a := r.actors[n]
		if a.registered {
			if record, err := r.dep.Participant(a.participant); err == nil {
				res.Balances[n] = record.RewardBalance
			}
		}
		if a.wallet != (solana.PublicKey{}) {
			if amount, err := r.dep.TokenBalance(a.wallet); err == nil {
				res.Wallets[n] = amount
			}
		}
	}
	if amount, err := r.dep.TokenBalance(r.vault.PublicKey()); err == nil {
		res.Vault = amount
	}
	if root, err := r.dep.StateRoot(); err == nil {
		res.StateRoot = root.Hex()
	}
	return res
}

func (r *runner) check(expect Expectations, res *Result) error {
	var problems []string
	for name, want := range expect.Balances {
		if got, ok := res.Balances[name]; !ok || got != want {
			problems = append(problems, fmt.Sprintf("balance of %s: want %d, got %d", name, want, got))
		}
	}
	for name, want := range expect.Wallets {
		if got, ok := res.Wallets[name]; !ok || got != want {
			problems = append(problems, fmt.Sprintf("wallet of %s: want %d, got %d", name, want, got))
		}
	}
	if expect.Vault != nil && *expect.Vault != res.Vault {
		problems = append(problems, fmt.Sprintf("vault: want %d, got %d", *expect.Vault, res.Vault))
	}
	if len(problems) > 0 {
		sort.Strings(problems)
		return fmt.Errorf("scenario: expectations failed: %s", strings.Join(problems, "; "))
	}
	return nil
}
