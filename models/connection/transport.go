package connection

import (
	"net"

	"github.com/gorilla/websocket"
)

// Transport carries wire messages over one persistent client
// connection. The raw TCP implementation is the canonical one and
// uses the length-prefixed framing; the websocket implementation
// rides on websocket's own framing and carries the same message
// text.
type Transport interface {
	ReadMessage() (Message, error)
	WriteMessage(Message) error
	Close() error
	RemoteAddr() string
}

type tcpTransport struct {
	conn net.Conn
}

var _ Transport = (*tcpTransport)(nil)

func NewTCPTransport(conn net.Conn) Transport {
	return &tcpTransport{conn: conn}
}

func (t *tcpTransport) ReadMessage() (Message, error) {
	return ReadFrame(t.conn)
}

func (t *tcpTransport) WriteMessage(m Message) error {
	return WriteFrame(t.conn, m)
}

func (t *tcpTransport) Close() error {
	return t.conn.Close()
}

func (t *tcpTransport) RemoteAddr() string {
	return t.conn.RemoteAddr().String()
}

type wsTransport struct {
	conn *websocket.Conn
}

var _ Transport = (*wsTransport)(nil)

func NewWebsocketTransport(conn *websocket.Conn) Transport {
	return &wsTransport{conn: conn}
}

func (t *wsTransport) ReadMessage() (Message, error) {
	// A WebSocket frame can be one of 6 types: text=1, binary=2, ping=9, pong=10, close=8 and continuation=0
	// https://www.rfc-editor.org/rfc/rfc6455.html#section-11.8
	_, payload, err := t.conn.ReadMessage()
	if err != nil {
		return Message{}, err
	}
	return Decode(payload)
}

func (t *wsTransport) WriteMessage(m Message) error {
	return t.conn.WriteMessage(websocket.TextMessage, Encode(m))
}

func (t *wsTransport) Close() error {
	return t.conn.Close()
}

func (t *wsTransport) RemoteAddr() string {
	return t.conn.RemoteAddr().String()
}
