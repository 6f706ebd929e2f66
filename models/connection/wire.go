package connection

import (
	"encoding/binary"
	"errors"
	"fmt"
	"io"
	"strings"

	cerr "github.com/navalclash/battleship-server/internal/error"
)

// ErrMalformed marks a message that decoded badly while the
// connection itself stayed healthy. Callers drop the message and
// answer INVALID_REQUEST instead of closing the connection; any
// other read error means the connection is gone.
var ErrMalformed = errors.New("malformed message")

const (
	FlagInfo           = "INFO"
	FlagError          = "ERROR"
	FlagInvalidRequest = "INVALID_REQUEST"
)

const (
	CommandDefault            = "DEFAULT"
	CommandShipPlacementStart = "SHIP_PLACEMENT_START"
	CommandShipPlacementEnd   = "SHIP_PLACEMENT_END"
	CommandClientPlacement    = "CLIENT_SHIP_PLACEMENT"
	CommandClientShot         = "CLIENT_SHOT"
	CommandTurn               = "TURN"
	CommandYourTurn           = "YOUR_TURN"
	CommandDisconnect         = "DISCONNECT"
	CommandSeeBoard           = "SEE_BOARD"
	CommandQuit               = "QUIT"
)

// Message is the logical wire unit: flag, command and a free-form
// payload. The payload may itself contain colons.
type Message struct {
	Flag    string
	Command string
	Payload string
}

func NewMessage(flag, command, payload string) Message {
	return Message{Flag: flag, Command: command, Payload: payload}
}

// Encode renders a message as FLAG:COMMAND:PAYLOAD text.
func Encode(m Message) []byte {
	return []byte(m.Flag + ":" + m.Command + ":" + m.Payload)
}

// Decode splits raw text into its three segments. Fewer than
// three segments is a malformed message.
func Decode(raw []byte) (Message, error) {
	parts := strings.SplitN(string(raw), ":", 3)
	if len(parts) < 3 {
		return Message{}, fmt.Errorf("%w, expected 3 colon-delimited segments: %q", ErrMalformed, string(raw))
	}
	return Message{Flag: parts[0], Command: parts[1], Payload: parts[2]}, nil
}

const frameHeaderLen = 4

// WriteFrame writes the canonical framing: a 4-byte big-endian
// length prefix followed by the encoded message text. Header and
// body go out in a single write so a frame can never reach the
// peer half-interleaved with another writer's frame.
func WriteFrame(w io.Writer, m Message) error {
	body := Encode(m)

	frame := make([]byte, frameHeaderLen+len(body))
	binary.BigEndian.PutUint32(frame[:frameHeaderLen], uint32(len(body)))
	copy(frame[frameHeaderLen:], body)

	_, err := w.Write(frame)
	return err
}

// ReadFrame blocks until a full frame is read and decoded. A peer
// closing the stream mid-frame yields a short-frame error; a clean
// close before any header byte yields io.EOF so callers can tell a
// normal disconnect from a truncated message.
func ReadFrame(r io.Reader) (Message, error) {
	var header [frameHeaderLen]byte
	if _, err := io.ReadFull(r, header[:]); err != nil {
		if errors.Is(err, io.ErrUnexpectedEOF) {
			return Message{}, cerr.ErrShortFrame(frameHeaderLen, 0)
		}
		return Message{}, err
	}

	declared := int(binary.BigEndian.Uint32(header[:]))
	body := make([]byte, declared)
	if n, err := io.ReadFull(r, body); err != nil {
		if errors.Is(err, io.EOF) || errors.Is(err, io.ErrUnexpectedEOF) {
			return Message{}, cerr.ErrShortFrame(declared, n)
		}
		return Message{}, err
	}

	return Decode(body)
}
