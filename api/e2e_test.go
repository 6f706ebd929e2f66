package api_test

import (
	"encoding/binary"
	"log"
	"net"
	"os"
	"strings"
	"testing"
	"time"

	"github.com/gorilla/websocket"

	"github.com/navalclash/battleship-server/api"
	mc "github.com/navalclash/battleship-server/models/connection"
)

const (
	testWsPort   = "7172"
	testWsUrl    = "ws://127.0.0.1:" + testWsPort + "/battleship"
	recvDeadline = time.Second * 5
)

var (
	testServer *api.Server
	serverAddr string

	clientA *testClient
	clientB *testClient

	dialer = websocket.Dialer{
		HandshakeTimeout: 10 * time.Second,
	}
)

type testClient struct {
	conn net.Conn
}

func dialTestClient(t *testing.T) *testClient {
	t.Helper()

	conn, err := net.Dial("tcp", serverAddr)
	if err != nil {
		t.Fatal(err)
	}
	return &testClient{conn: conn}
}

func (c *testClient) send(t *testing.T, flag, command, payload string) {
	t.Helper()

	if err := mc.WriteFrame(c.conn, mc.NewMessage(flag, command, payload)); err != nil {
		t.Fatal(err)
	}
}

// Sends a framed message that is not three colon-delimited
// segments, which no Message round trip can produce.
func (c *testClient) sendRaw(t *testing.T, body string) {
	t.Helper()

	var header [4]byte
	binary.BigEndian.PutUint32(header[:], uint32(len(body)))
	if _, err := c.conn.Write(append(header[:], body...)); err != nil {
		t.Fatal(err)
	}
}

func (c *testClient) recv(t *testing.T) mc.Message {
	t.Helper()

	_ = c.conn.SetReadDeadline(time.Now().Add(recvDeadline))
	msg, err := mc.ReadFrame(c.conn)
	if err != nil {
		t.Fatalf("reading frame: %v", err)
	}
	return msg
}

func (c *testClient) expect(t *testing.T, flag, command string) mc.Message {
	t.Helper()

	msg := c.recv(t)
	if msg.Flag != flag || msg.Command != command {
		t.Fatalf("expected %s:%s got %s:%s (payload %q)", flag, command, msg.Flag, msg.Command, msg.Payload)
	}
	return msg
}

func (c *testClient) expectClosed(t *testing.T) {
	t.Helper()

	_ = c.conn.SetReadDeadline(time.Now().Add(recvDeadline))
	if _, err := mc.ReadFrame(c.conn); err == nil {
		t.Fatal("expected connection to be closed")
	}
}

func TestMain(m *testing.M) {
	testServer = api.NewServer(
		api.WithPort("0"),
		api.WithWsPort(testWsPort),
		api.WithStage(api.StageDev),
		api.WithPlacementTimeout(time.Second*30),
	)
	if err := testServer.Listen(); err != nil {
		log.Println(err)
		os.Exit(1)
	}
	serverAddr = testServer.Addr()

	go func() {
		if err := testServer.Serve(); err != nil {
			log.Println(err)
		}
	}()

	// Give the websocket listener time to come up
	time.Sleep(time.Millisecond * 200)

	os.Exit(m.Run())
}

func TestWelcomeAndPlacementStart(t *testing.T) {
	clientA = dialTestClient(t)
	welcome := clientA.expect(t, mc.FlagInfo, mc.CommandDefault)
	if !strings.Contains(welcome.Payload, "client 1") {
		t.Fatalf("expected first client id in welcome, got %q", welcome.Payload)
	}

	clientB = dialTestClient(t)
	welcome = clientB.expect(t, mc.FlagInfo, mc.CommandDefault)
	if !strings.Contains(welcome.Payload, "client 2") {
		t.Fatalf("expected second client id in welcome, got %q", welcome.Payload)
	}

	for _, c := range []*testClient{clientA, clientB} {
		start := c.expect(t, mc.FlagInfo, mc.CommandShipPlacementStart)
		for _, want := range []string{"Mothership", "Destroyer", "Submarine", "Your board:"} {
			if !strings.Contains(start.Payload, want) {
				t.Fatalf("placement start notice missing %q:\n%s", want, start.Payload)
			}
		}
	}
}

func TestMalformedMessageKeepsConnectionOpen(t *testing.T) {
	clientA.sendRaw(t, "this has no segments")
	clientA.expect(t, mc.FlagInvalidRequest, mc.CommandDefault)

	// Connection must still work.
	clientA.send(t, mc.FlagInfo, mc.CommandSeeBoard, "")
	clientA.expect(t, mc.FlagInfo, mc.CommandSeeBoard)
}

func TestIllegalPlacementsRejected(t *testing.T) {
	tests := []struct {
		name    string
		payload string
	}{
		{name: "unknown ship", payload: "Canoe:00:H"},
		{name: "off the edge", payload: "Mothership:02:H"},
		{name: "bad orientation", payload: "Mothership:00:Z"},
		{name: "bad coordinates", payload: "Mothership:xy:H"},
		{name: "missing segments", payload: "Mothership"},
	}

	for _, test := range tests {
		t.Run(test.name, func(t *testing.T) {
			clientA.send(t, mc.FlagInfo, mc.CommandClientPlacement, test.payload)
			clientA.expect(t, mc.FlagInvalidRequest, mc.CommandDefault)
		})
	}
}

func placeFleet(t *testing.T, c *testClient) {
	t.Helper()

	for _, payload := range []string{"Mothership:00:H", "Destroyer:10:H", "Submarine:20:H"} {
		c.send(t, mc.FlagInfo, mc.CommandClientPlacement, payload)
		ack := c.expect(t, mc.FlagInfo, mc.CommandDefault)
		if !strings.Contains(ack.Payload, "placed") {
			t.Fatalf("expected placement ack, got %q", ack.Payload)
		}
	}
}

func TestPlacementToBattle(t *testing.T) {
	placeFleet(t, clientA)
	placeFleet(t, clientB)

	for _, c := range []*testClient{clientA, clientB} {
		end := c.expect(t, mc.FlagInfo, mc.CommandShipPlacementEnd)
		if !strings.Contains(end.Payload, "Opponent board:") {
			t.Fatalf("expected both boards in placement end notice:\n%s", end.Payload)
		}
	}

	// First-registered session fires first.
	clientA.expect(t, mc.FlagInfo, mc.CommandYourTurn)
	clientB.expect(t, mc.FlagInfo, mc.CommandTurn)
}

func TestShotOutOfTurnRejected(t *testing.T) {
	clientB.send(t, mc.FlagInfo, mc.CommandClientShot, "00")
	clientB.expect(t, mc.FlagInvalidRequest, mc.CommandDefault)
}

func TestHitFlipsTurn(t *testing.T) {
	// Submarine sits on row 2; (2,0) is a hit.
	clientA.send(t, mc.FlagInfo, mc.CommandClientShot, "20")

	hit := clientA.expect(t, mc.FlagInfo, mc.CommandDefault)
	if !strings.Contains(hit.Payload, "hit") {
		t.Fatalf("expected hit notice, got %q", hit.Payload)
	}
	clientA.expect(t, mc.FlagInfo, mc.CommandTurn)

	notice := clientB.expect(t, mc.FlagInfo, mc.CommandDefault)
	if !strings.Contains(notice.Payload, "Your ship was hit") {
		t.Fatalf("expected defender notice, got %q", notice.Payload)
	}
	clientB.expect(t, mc.FlagInfo, mc.CommandYourTurn)
}

func TestMissFlipsTurnBack(t *testing.T) {
	clientB.send(t, mc.FlagInfo, mc.CommandClientShot, "44")

	miss := clientB.expect(t, mc.FlagInfo, mc.CommandDefault)
	if !strings.Contains(miss.Payload, "missed") {
		t.Fatalf("expected miss notice, got %q", miss.Payload)
	}
	clientB.expect(t, mc.FlagInfo, mc.CommandTurn)

	clientA.expect(t, mc.FlagInfo, mc.CommandDefault)
	view := clientA.expect(t, mc.FlagInfo, mc.CommandYourTurn)
	if !strings.Contains(view.Payload, "Opponent board:") {
		t.Fatalf("expected boards with the turn notice:\n%s", view.Payload)
	}
}

func TestRepeatHitKeepsTurn(t *testing.T) {
	clientA.send(t, mc.FlagInfo, mc.CommandClientShot, "20")
	already := clientA.expect(t, mc.FlagInfo, mc.CommandDefault)
	if !strings.Contains(already.Payload, "already hit") {
		t.Fatalf("expected already-hit notice, got %q", already.Payload)
	}

	// Still client A's turn: the next shot is accepted.
	clientA.send(t, mc.FlagInfo, mc.CommandClientShot, "21")
	clientA.expect(t, mc.FlagInfo, mc.CommandDefault)
	clientA.expect(t, mc.FlagInfo, mc.CommandTurn)
	clientB.expect(t, mc.FlagInfo, mc.CommandDefault)
	clientB.expect(t, mc.FlagInfo, mc.CommandYourTurn)
}

func TestThirdConnectionRejected(t *testing.T) {
	extra := dialTestClient(t)
	extra.expect(t, mc.FlagInfo, mc.CommandDefault)
	reject := extra.expect(t, mc.FlagInvalidRequest, mc.CommandDisconnect)
	if !strings.Contains(reject.Payload, "full") {
		t.Fatalf("expected server-full notice, got %q", reject.Payload)
	}
	extra.expectClosed(t)
}

func TestWebsocketClientSpeaksSameProtocol(t *testing.T) {
	conn, _, err := dialer.Dial(testWsUrl, nil)
	if err != nil {
		t.Fatal(err)
	}
	defer conn.Close()

	_, payload, err := conn.ReadMessage()
	if err != nil {
		t.Fatal(err)
	}
	welcome, err := mc.Decode(payload)
	if err != nil {
		t.Fatal(err)
	}
	if welcome.Flag != mc.FlagInfo || !strings.Contains(welcome.Payload, "Welcome") {
		t.Fatalf("unexpected websocket welcome: %+v", welcome)
	}

	// The running match is full, so the websocket client is
	// rejected through the same policy as raw TCP.
	_, payload, err = conn.ReadMessage()
	if err != nil {
		t.Fatal(err)
	}
	reject, err := mc.Decode(payload)
	if err != nil {
		t.Fatal(err)
	}
	if reject.Flag != mc.FlagInvalidRequest || reject.Command != mc.CommandDisconnect {
		t.Fatalf("expected rejection over websocket, got %+v", reject)
	}
}

func TestQuitEndsMatchForBoth(t *testing.T) {
	clientB.send(t, mc.FlagInfo, mc.CommandQuit, "")
	clientB.expect(t, mc.FlagInfo, mc.CommandDisconnect)

	notice := clientA.expect(t, mc.FlagError, mc.CommandDisconnect)
	if !strings.Contains(notice.Payload, "opponent left") {
		t.Fatalf("expected opponent-left notice, got %q", notice.Payload)
	}

	clientA.expectClosed(t)
	clientB.expectClosed(t)
}

func TestPlacementTimeoutOverWire(t *testing.T) {
	server := api.NewServer(
		api.WithPort("0"),
		api.WithPlacementTimeout(time.Millisecond*300),
	)
	if err := server.Listen(); err != nil {
		t.Fatal(err)
	}
	defer server.Close()
	go func() { _ = server.Serve() }()

	dial := func() *testClient {
		conn, err := net.Dial("tcp", server.Addr())
		if err != nil {
			t.Fatal(err)
		}
		return &testClient{conn: conn}
	}

	slow := dial()
	slow.expect(t, mc.FlagInfo, mc.CommandDefault)
	quick := dial()
	quick.expect(t, mc.FlagInfo, mc.CommandDefault)

	slow.expect(t, mc.FlagInfo, mc.CommandShipPlacementStart)
	quick.expect(t, mc.FlagInfo, mc.CommandShipPlacementStart)

	placeFleet(t, quick)

	// The slow player never places and is evicted; the complete
	// player cannot continue alone and is dismissed too.
	evicted := slow.expect(t, mc.FlagError, mc.CommandDisconnect)
	if !strings.Contains(evicted.Payload, "timed out") {
		t.Fatalf("expected timeout notice, got %q", evicted.Payload)
	}
	quick.expect(t, mc.FlagError, mc.CommandDisconnect)

	slow.expectClosed(t)
	quick.expectClosed(t)
}
