package referral

import (
	"fmt"
	"log/slog"

	"github.com/holiman/uint256"

	"refpool/core/events"
	"refpool/core/types"
	"refpool/observability/metrics"
)

// Engine executes ledger commands against caller-supplied account handles.
// Every handler validates first, performs any custodian request next and
// only then writes the records, so a failure leaves every handle untouched.
type Engine struct {
	cfg       Config
	custodian Custodian
	emitter   events.Emitter
	logger    *slog.Logger
	telemetry *metrics.ReferralMetrics
}

// NewEngine constructs an engine for cfg using custodian for all asset
// movements.
func NewEngine(cfg Config, custodian Custodian) *Engine {
	return &Engine{
		cfg:       cfg,
		custodian: custodian,
		emitter:   events.NoopEmitter{},
		logger:    slog.Default(),
		telemetry: metrics.Referral(),
	}
}

// SetEmitter configures the event emitter used by the engine.
func (e *Engine) SetEmitter(emitter events.Emitter) {
	if emitter == nil {
		e.emitter = events.NoopEmitter{}
		return
	}
	e.emitter = emitter
}

func (e *Engine) SetLogger(logger *slog.Logger) {
	if logger == nil {
		logger = slog.Default()
	}
	e.logger = logger
}

func (e *Engine) Config() Config { return e.cfg }

// Delegate re-derives the custody delegate of this engine.
func (e *Engine) Delegate() (Delegate, error) {
	return DeriveDelegate(e.cfg.ProgramID, e.cfg.seed())
}

func (e *Engine) emit(evt events.Event) {
	if e.emitter != nil {
		e.emitter.Emit(evt)
	}
}

// Initialize binds the pool to its administrator and custody account and
// hands transfer authority over the custody account to the delegate.
//
// Accounts: admin [signer], pool [writable], custody account [writable],
// custody program.
func (e *Engine) Initialize(accounts []*types.AccountInfo) error {
	if err := requireAccounts(accounts, 4); err != nil {
		return err
	}
	admin, poolAcc, custodyAcc, custodyProgram := accounts[0], accounts[1], accounts[2], accounts[3]

	if err := requireSigner(admin); err != nil {
		return err
	}
	if err := requireOwned(poolAcc, e.cfg.ProgramID); err != nil {
		return err
	}
	if UnpackPoolUnchecked(poolAcc.Data).Initialized {
		return fmt.Errorf("%w: pool %s", ErrAlreadyInitialized, poolAcc.Key)
	}
	if err := requireOwned(custodyAcc, e.cfg.CustodyProgramID); err != nil {
		return err
	}
	if err := requireKey(custodyProgram, e.cfg.CustodyProgramID, ErrInvalidCustody); err != nil {
		return err
	}
	if e.custodian == nil {
		return ErrNilCustodian
	}

	delegate, err := e.Delegate()
	if err != nil {
		return err
	}
	pool := &Pool{Initialized: true, Administrator: admin.Key, CustodyAccount: custodyAcc.Key}
	scratch := make([]byte, len(poolAcc.Data))
	if err := pool.Pack(scratch); err != nil {
		return err
	}

	if err := e.custodian.SetAuthority(custodyAcc, admin, delegate.Address); err != nil {
		return fmt.Errorf("referral: hand custody to delegate: %w", err)
	}
	copy(poolAcc.Data, scratch)

	e.logger.Debug("referral pool initialized",
		slog.String("pool", poolAcc.Key.String()),
		slog.String("administrator", admin.Key.String()),
		slog.String("delegate", delegate.Address.String()))
	e.emit(events.ReferralPoolInitialized{
		Pool:           poolAcc.Key,
		Administrator:  admin.Key,
		CustodyAccount: custodyAcc.Key,
		Delegate:       delegate.Address,
	})
	return nil
}

// Register initialises a participant record owned by the signing holder.
//
// Accounts: holder [signer], participant [writable], pool, referrer
// (optional).
func (e *Engine) Register(accounts []*types.AccountInfo, cmd Register) error {
	if err := requireAccounts(accounts, 3); err != nil {
		return err
	}
	holder, participantAcc, poolAcc := accounts[0], accounts[1], accounts[2]
	referrerAcc := optionalAccount(accounts, 3)

	if err := requireSigner(holder); err != nil {
		return err
	}
	if err := requireOwned(participantAcc, e.cfg.ProgramID); err != nil {
		return err
	}
	if err := requireOwned(poolAcc, e.cfg.ProgramID); err != nil {
		return err
	}
	if referrerAcc != nil {
		if err := requireOwned(referrerAcc, e.cfg.ProgramID); err != nil {
			return err
		}
	}
	if UnpackParticipantUnchecked(participantAcc.Data).Initialized {
		return fmt.Errorf("%w: participant %s", ErrAlreadyInitialized, participantAcc.Key)
	}

	referrer := NoReferrer()
	if cmd.Explicit {
		key, present := cmd.Referrer.Get()
		switch {
		case present && referrerAcc == nil:
			return fmt.Errorf("%w: referrer %s not supplied", ErrInvalidUpline, key)
		case present:
			if err := requireKey(referrerAcc, key, ErrInvalidUpline); err != nil {
				return err
			}
		case referrerAcc != nil:
			return fmt.Errorf("%w: unexpected referrer %s", ErrInvalidUpline, referrerAcc.Key)
		}
	}
	if referrerAcc != nil {
		if referrerAcc.Key.Equals(participantAcc.Key) {
			return fmt.Errorf("%w: %s", ErrSelfReferral, participantAcc.Key)
		}
		if _, err := loadParticipant(referrerAcc); err != nil {
			return err
		}
		referrer = ReferrerOf(referrerAcc.Key)
	}

	participant := &Participant{
		Initialized:   true,
		Owner:         holder.Key,
		RewardBalance: 0,
		Referrer:      referrer,
	}
	scratch := make([]byte, len(participantAcc.Data))
	if err := participant.Pack(scratch); err != nil {
		return err
	}
	copy(participantAcc.Data, scratch)

	registered := events.ReferralParticipantRegistered{Participant: participantAcc.Key, Owner: holder.Key}
	if key, ok := referrer.Get(); ok {
		registered.Referrer = &key
	}
	e.logger.Debug("referral participant registered",
		slog.String("participant", participantAcc.Key.String()),
		slog.String("referrer", referrer.String()))
	e.emit(registered)
	return nil
}

// DistributeReward credits amount to a participant, sending the referrer
// share to its referrer when it has one.
//
// Accounts: admin [signer], pool, participant [writable], referrer
// [writable] (required when the participant has a referrer).
func (e *Engine) DistributeReward(accounts []*types.AccountInfo, amount uint64) error {
	if err := requireAccounts(accounts, 3); err != nil {
		return err
	}
	admin, poolAcc, participantAcc := accounts[0], accounts[1], accounts[2]
	referrerAcc := optionalAccount(accounts, 3)

	if err := requireSigner(admin); err != nil {
		return err
	}
	if err := requireOwned(poolAcc, e.cfg.ProgramID); err != nil {
		return err
	}
	if err := requireOwned(participantAcc, e.cfg.ProgramID); err != nil {
		return err
	}
	if referrerAcc != nil {
		if err := requireOwned(referrerAcc, e.cfg.ProgramID); err != nil {
			return err
		}
	}

	pool, err := loadPool(poolAcc)
	if err != nil {
		return err
	}
	if !admin.Key.Equals(pool.Administrator) {
		return fmt.Errorf("%w: %s is not the pool administrator", ErrUnauthorized, admin.Key)
	}
	participant, err := loadParticipant(participantAcc)
	if err != nil {
		return err
	}
	upline, err := resolveReferral(participant, referrerAcc)
	if err != nil {
		return err
	}

	participantShare, referrerShare := amount, uint64(0)
	if upline != nil {
		participantShare, referrerShare, err = SplitReward(amount)
		if err != nil {
			return err
		}
	}

	participant.RewardBalance, err = addReward(participant.RewardBalance, participantShare)
	if err != nil {
		return err
	}
	participantScratch := make([]byte, len(participantAcc.Data))
	if err := participant.Pack(participantScratch); err != nil {
		return err
	}
	var referrerScratch []byte
	if upline != nil {
		upline.RewardBalance, err = addReward(upline.RewardBalance, referrerShare)
		if err != nil {
			return err
		}
		referrerScratch = make([]byte, len(referrerAcc.Data))
		if err := upline.Pack(referrerScratch); err != nil {
			return err
		}
	}

	copy(participantAcc.Data, participantScratch)
	if referrerScratch != nil {
		copy(referrerAcc.Data, referrerScratch)
	}

	distributed := events.ReferralRewardDistributed{
		Participant:      participantAcc.Key,
		Amount:           amount,
		ParticipantShare: participantShare,
		ReferrerShare:    referrerShare,
		Dropped:          amount - participantShare - referrerShare,
	}
	if upline != nil {
		key := referrerAcc.Key
		distributed.Referrer = &key
	}
	e.telemetry.ObserveDistribution(participantShare, referrerShare, distributed.Dropped)
	e.logger.Debug("referral reward distributed",
		slog.String("participant", participantAcc.Key.String()),
		slog.Uint64("amount", amount),
		slog.Uint64("participantShare", participantShare),
		slog.Uint64("referrerShare", referrerShare))
	e.emit(distributed)
	return nil
}

// Claim withdraws the full balance of a participant to a destination token
// account. The balance is cleared only once the custodian has performed the
// transfer.
//
// Accounts: holder [signer], pool, participant [writable], custody account
// [writable], custody delegate, destination [writable], custody program.
func (e *Engine) Claim(accounts []*types.AccountInfo) error {
	if err := requireAccounts(accounts, 7); err != nil {
		return err
	}
	holder, poolAcc, participantAcc := accounts[0], accounts[1], accounts[2]
	custodyAcc, delegateAcc, destination, custodyProgram := accounts[3], accounts[4], accounts[5], accounts[6]

	if err := requireSigner(holder); err != nil {
		return err
	}
	if err := requireOwned(poolAcc, e.cfg.ProgramID); err != nil {
		return err
	}
	if err := requireOwned(participantAcc, e.cfg.ProgramID); err != nil {
		return err
	}

	pool, err := loadPool(poolAcc)
	if err != nil {
		return err
	}
	participant, err := loadParticipant(participantAcc)
	if err != nil {
		return err
	}
	if !holder.Key.Equals(participant.Owner) {
		return fmt.Errorf("%w: %s does not own %s", ErrUnauthorized, holder.Key, participantAcc.Key)
	}
	amount := participant.RewardBalance
	if amount == 0 {
		return fmt.Errorf("%w: participant %s has no balance", ErrUnclaimableAmount, participantAcc.Key)
	}
	if err := requireKey(custodyAcc, pool.CustodyAccount, ErrInvalidCustody); err != nil {
		return err
	}
	delegate, err := e.Delegate()
	if err != nil {
		return err
	}
	if err := requireKey(delegateAcc, delegate.Address, ErrInvalidCustody); err != nil {
		return err
	}
	if err := requireKey(custodyProgram, e.cfg.CustodyProgramID, ErrInvalidCustody); err != nil {
		return err
	}
	if e.custodian == nil {
		return ErrNilCustodian
	}

	participant.RewardBalance = 0
	scratch := make([]byte, len(participantAcc.Data))
	if err := participant.Pack(scratch); err != nil {
		return err
	}
	if err := e.custodian.Transfer(custodyAcc, destination, delegateAcc, amount, delegate.SignerSeeds()); err != nil {
		return fmt.Errorf("referral: custody transfer: %w", err)
	}
	copy(participantAcc.Data, scratch)

	e.telemetry.ObserveClaim(amount)
	e.logger.Debug("referral reward claimed",
		slog.String("participant", participantAcc.Key.String()),
		slog.String("destination", destination.Key.String()),
		slog.Uint64("amount", amount))
	e.emit(events.ReferralRewardClaimed{
		Participant: participantAcc.Key,
		Owner:       holder.Key,
		Destination: destination.Key,
		Amount:      amount,
	})
	return nil
}

var hundred = uint256.NewInt(100)

// SplitReward returns the participant and referrer shares of amount. Each
// share is truncated independently, so the shares may sum to less than
// amount.
func SplitReward(amount uint64) (participant, referrer uint64, err error) {
	participant, err = percentOf(amount, ParticipantSharePercent)
	if err != nil {
		return 0, 0, err
	}
	referrer, err = percentOf(amount, ReferrerSharePercent)
	if err != nil {
		return 0, 0, err
	}
	return participant, referrer, nil
}

func percentOf(amount uint64, percent uint64) (uint64, error) {
	share, overflow := new(uint256.Int).MulDivOverflow(uint256.NewInt(amount), uint256.NewInt(percent), hundred)
	if overflow || !share.IsUint64() {
		return 0, fmt.Errorf("%w: %d * %d / 100", ErrRewardAmountOverflow, amount, percent)
	}
	return share.Uint64(), nil
}

func addReward(balance, credit uint64) (uint64, error) {
	sum := balance + credit
	if sum < balance {
		return 0, fmt.Errorf("%w: %d + %d", ErrRewardAmountOverflow, balance, credit)
	}
	return sum, nil
}
