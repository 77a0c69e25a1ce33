package referral

import (
	"bytes"
	"fmt"

	bin "github.com/gagliardetto/binary"
	"github.com/gagliardetto/solana-go"
)

// Tag is the leading byte of every instruction buffer.
type Tag uint8

const (
	TagInitialize       Tag = 0
	TagRegister         Tag = 1
	TagDistributeReward Tag = 2
	TagClaim            Tag = 3
)

func (t Tag) String() string {
	switch t {
	case TagInitialize:
		return "initialize"
	case TagRegister:
		return "register"
	case TagDistributeReward:
		return "distribute_reward"
	case TagClaim:
		return "claim"
	default:
		return fmt.Sprintf("unknown(%d)", uint8(t))
	}
}

// explicitReferrerLen is the size of an explicit referrer payload: presence
// tag followed by the identity area.
const explicitReferrerLen = 4 + 32

// Command is a decoded instruction.
type Command interface {
	Tag() Tag
	// Pack returns the wire form of the command.
	Pack() []byte
}

type Initialize struct{}

func (Initialize) Tag() Tag { return TagInitialize }
func (Initialize) Pack() []byte { return []byte{byte(TagInitialize)} }

// Register initialises a participant record. When Explicit is false the
// referrer is inferred from the account handles supplied with the
// instruction.
type Register struct {
	Referrer Referrer
	Explicit bool
}

func (Register) Tag() Tag { return TagRegister }

func (r Register) Pack() []byte {
	if !r.Explicit {
		return []byte{byte(TagRegister)}
	}
	buf := bytes.NewBuffer([]byte{byte(TagRegister)})
	enc := bin.NewBorshEncoder(buf)
	if err := r.Referrer.encode(enc); err != nil {
		panic(err)
	}
	return buf.Bytes()
}

type DistributeReward struct {
	Amount uint64
}

func (DistributeReward) Tag() Tag { return TagDistributeReward }

func (d DistributeReward) Pack() []byte {
	buf := bytes.NewBuffer([]byte{byte(TagDistributeReward)})
	enc := bin.NewBorshEncoder(buf)
	if err := enc.WriteUint64(d.Amount, bin.LE); err != nil {
		panic(err)
	}
	return buf.Bytes()
}

type Claim struct{}

func (Claim) Tag() Tag { return TagClaim }
func (Claim) Pack() []byte { return []byte{byte(TagClaim)} }

// DecodeCommand parses an instruction buffer. Trailing bytes after a complete
// payload are ignored.
func DecodeCommand(data []byte) (Command, error) {
	if len(data) == 0 {
		return nil, fmt.Errorf("%w: empty instruction", ErrInvalidCommand)
	}
	payload := data[1:]
	switch Tag(data[0]) {
	case TagInitialize:
		return Initialize{}, nil
	case TagRegister:
		return decodeRegister(payload)
	case TagDistributeReward:
		if len(payload) < 8 {
			return nil, fmt.Errorf("%w: reward amount needs 8 bytes, got %d", ErrInvalidCommand, len(payload))
		}
		amount, err := bin.NewBorshDecoder(payload).ReadUint64(bin.LE)
		if err != nil {
			return nil, fmt.Errorf("%w: %v", ErrInvalidCommand, err)
		}
		return DistributeReward{Amount: amount}, nil
	case TagClaim:
		return Claim{}, nil
	default:
		return nil, fmt.Errorf("%w: unknown tag %d", ErrInvalidCommand, data[0])
	}
}

func decodeRegister(payload []byte) (Command, error) {
	if len(payload) == 0 {
		return Register{}, nil
	}
	if len(payload) < explicitReferrerLen {
		return nil, fmt.Errorf("%w: referrer payload needs %d bytes, got %d", ErrInvalidCommand, explicitReferrerLen, len(payload))
	}
	dec := bin.NewBorshDecoder(payload)
	tag, err := dec.ReadUint32(bin.LE)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidCommand, err)
	}
	raw, err := dec.ReadNBytes(solana.PublicKeyLength)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidCommand, err)
	}
	switch tag {
	case referrerAbsent:
		return Register{Referrer: NoReferrer(), Explicit: true}, nil
	case referrerPresent:
		return Register{Referrer: ReferrerOf(solana.PublicKeyFromBytes(raw)), Explicit: true}, nil
	default:
		return nil, fmt.Errorf("%w: referrer tag %d", ErrInvalidCommand, tag)
	}
}
