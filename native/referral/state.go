package referral

import (
	"bytes"
	"fmt"

	bin "github.com/gagliardetto/binary"
	"github.com/gagliardetto/solana-go"
)

const (
	// PoolSize is the slot size of a pool record: initialized flag,
	// administrator and custody account.
	PoolSize = 1 + 32 + 32
	// ParticipantSize is the slot size of a participant record: initialized
	// flag, owner, reward balance, referrer presence tag and payload.
	ParticipantSize = 1 + 32 + 8 + 4 + 32
)

const (
	referrerAbsent  uint32 = 0
	referrerPresent uint32 = 1
)

// Referrer is the optional upline of a participant. The zero value is
// absent.
type Referrer struct {
	key     solana.PublicKey
	present bool
}

// NoReferrer returns the absent referrer.
func NoReferrer() Referrer { return Referrer{} }

// ReferrerOf returns a referrer pointing at key.
func ReferrerOf(key solana.PublicKey) Referrer {
	return Referrer{key: key, present: true}
}

// Get returns the referrer record key and whether it is present.
func (r Referrer) Get() (solana.PublicKey, bool) {
	return r.key, r.present
}

func (r Referrer) IsPresent() bool { return r.present }

func (r Referrer) String() string {
	if !r.present {
		return "none"
	}
	return r.key.String()
}

func (r Referrer) encode(enc *bin.Encoder) error {
	tag := referrerAbsent
	var payload solana.PublicKey
	if r.present {
		tag = referrerPresent
		payload = r.key
	}
	if err := enc.WriteUint32(tag, bin.LE); err != nil {
		return err
	}
	return enc.WriteBytes(payload[:], false)
}

func decodeReferrer(dec *bin.Decoder) (Referrer, error) {
	tag, err := dec.ReadUint32(bin.LE)
	if err != nil {
		return Referrer{}, fmt.Errorf("%w: %v", ErrInvalidRecordData, err)
	}
	key, err := readKey(dec)
	if err != nil {
		return Referrer{}, err
	}
	switch tag {
	case referrerAbsent:
		return NoReferrer(), nil
	case referrerPresent:
		return ReferrerOf(key), nil
	default:
		return Referrer{}, fmt.Errorf("%w: referrer tag %d", ErrInvalidRecordData, tag)
	}
}

// Pool is the singleton record holding the administrator and the custody
// account rewards are paid from.
type Pool struct {
	Initialized    bool
	Administrator  solana.PublicKey
	CustodyAccount solana.PublicKey
}

// Pack encodes the pool into dst, which must be exactly PoolSize bytes.
func (p *Pool) Pack(dst []byte) error {
	if len(dst) != PoolSize {
		return sizeMismatch(PoolSize, len(dst))
	}
	buf := bytes.NewBuffer(make([]byte, 0, PoolSize))
	enc := bin.NewBorshEncoder(buf)
	if err := writeBool(enc, p.Initialized); err != nil {
		return err
	}
	if err := enc.WriteBytes(p.Administrator[:], false); err != nil {
		return err
	}
	if err := enc.WriteBytes(p.CustodyAccount[:], false); err != nil {
		return err
	}
	copy(dst, buf.Bytes())
	return nil
}

// Bytes returns the packed record.
func (p *Pool) Bytes() []byte {
	out := make([]byte, PoolSize)
	if err := p.Pack(out); err != nil {
		panic(err)
	}
	return out
}

// UnpackPool decodes a pool record. The buffer must be exactly PoolSize bytes.
func UnpackPool(data []byte) (*Pool, error) {
	if len(data) != PoolSize {
		return nil, sizeMismatch(PoolSize, len(data))
	}
	dec := bin.NewBorshDecoder(data)
	initialized, err := readBool(dec)
	if err != nil {
		return nil, err
	}
	admin, err := readKey(dec)
	if err != nil {
		return nil, err
	}
	custody, err := readKey(dec)
	if err != nil {
		return nil, err
	}
	return &Pool{Initialized: initialized, Administrator: admin, CustodyAccount: custody}, nil
}

// UnpackPoolUnchecked decodes a pool record that may not have been
// initialised yet. Buffers that fail to decode yield the zero pool.
func UnpackPoolUnchecked(data []byte) *Pool {
	pool, err := UnpackPool(data)
	if err != nil {
		return &Pool{}
	}
	return pool
}

// Participant is a registered holder of reward balance.
type Participant struct {
	Initialized   bool
	Owner         solana.PublicKey
	RewardBalance uint64
	Referrer      Referrer
}

// Pack encodes the participant into dst, which must be exactly
// ParticipantSize bytes.
func (p *Participant) Pack(dst []byte) error {
	if len(dst) != ParticipantSize {
		return sizeMismatch(ParticipantSize, len(dst))
	}
	buf := bytes.NewBuffer(make([]byte, 0, ParticipantSize))
	enc := bin.NewBorshEncoder(buf)
	if err := writeBool(enc, p.Initialized); err != nil {
		return err
	}
	if err := enc.WriteBytes(p.Owner[:], false); err != nil {
		return err
	}
	if err := enc.WriteUint64(p.RewardBalance, bin.LE); err != nil {
		return err
	}
	if err := p.Referrer.encode(enc); err != nil {
		return err
	}
	copy(dst, buf.Bytes())
	return nil
}

// Bytes returns the packed record.
func (p *Participant) Bytes() []byte {
	out := make([]byte, ParticipantSize)
	if err := p.Pack(out); err != nil {
		panic(err)
	}
	return out
}

// UnpackParticipant decodes a participant record. The buffer must be exactly
// ParticipantSize bytes.
func UnpackParticipant(data []byte) (*Participant, error) {
	if len(data) != ParticipantSize {
		return nil, sizeMismatch(ParticipantSize, len(data))
	}
	dec := bin.NewBorshDecoder(data)
	initialized, err := readBool(dec)
	if err != nil {
		return nil, err
	}
	owner, err := readKey(dec)
	if err != nil {
		return nil, err
	}
	balance, err := dec.ReadUint64(bin.LE)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidRecordData, err)
	}
	referrer, err := decodeReferrer(dec)
	if err != nil {
		return nil, err
	}
	return &Participant{
		Initialized:   initialized,
		Owner:         owner,
		RewardBalance: balance,
		Referrer:      referrer,
	}, nil
}

// UnpackParticipantUnchecked decodes a participant record that may not have
// been registered yet. Buffers that fail to decode yield the zero record.
func UnpackParticipantUnchecked(data []byte) *Participant {
	participant, err := UnpackParticipant(data)
	if err != nil {
		return &Participant{}
	}
	return participant
}

func sizeMismatch(want, got int) error {
	return fmt.Errorf("%w: expected %d bytes, got %d", ErrInvalidRecordData, want, got)
}

func writeBool(enc *bin.Encoder, v bool) error {
	if v {
		return enc.WriteByte(1)
	}
	return enc.WriteByte(0)
}

func readBool(dec *bin.Decoder) (bool, error) {
	b, err := dec.ReadByte()
	if err != nil {
		return false, fmt.Errorf("%w: %v", ErrInvalidRecordData, err)
	}
	switch b {
	case 0:
		return false, nil
	case 1:
		return true, nil
	default:
		return false, fmt.Errorf("%w: bool byte %d", ErrInvalidRecordData, b)
	}
}

func readKey(dec *bin.Decoder) (solana.PublicKey, error) {
	raw, err := dec.ReadNBytes(solana.PublicKeyLength)
	if err != nil {
		return solana.PublicKey{}, fmt.Errorf("%w: %v", ErrInvalidRecordData, err)
	}
	return solana.PublicKeyFromBytes(raw), nil
}
