package ws

import (
	"context"
	"encoding/binary"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/gorilla/websocket"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"periph.io/x/conn/v3/i2c/i2ctest"

	diag "github.com/coreman2200/funtimes-sensehat/internal/diagnostics"
	"github.com/coreman2200/funtimes-sensehat/internal/pattern"
	"github.com/coreman2200/funtimes-sensehat/ledmatrix"
	"github.com/coreman2200/funtimes-sensehat/sensor"
)

func newMatrix(t *testing.T) (*ledmatrix.Matrix, string) {
	path := filepath.Join(t.TempDir(), "fb1")
	require.NoError(t, os.WriteFile(path, make([]byte, ledmatrix.FrameSize), 0o644))
	m, err := ledmatrix.Open(path)
	require.NoError(t, err)
	t.Cleanup(func() { _ = m.Close() })
	return m, path
}

func pixelAt(t *testing.T, path string, row, col int) ledmatrix.Pixel {
	b, err := os.ReadFile(path)
	require.NoError(t, err)
	off := ledmatrix.Offset(row, col)
	return ledmatrix.Pixel(binary.NativeEndian.Uint16(b[off:]))
}

func dial(t *testing.T, srv *httptest.Server, route string) *websocket.Conn {
	u := "ws" + strings.TrimPrefix(srv.URL, "http") + route
	c, _, err := websocket.DefaultDialer.Dial(u, nil)
	require.NoError(t, err)
	t.Cleanup(func() { c.Close() })
	return c
}

func send(t *testing.T, c *websocket.Conn, cmd string) Reply {
	require.NoError(t, c.WriteMessage(websocket.TextMessage, []byte(cmd)))
	var r Reply
	require.NoError(t, c.ReadJSON(&r))
	return r
}

func TestControl(t *testing.T) {
	m, path := newMatrix(t)
	s := NewServer(m, nil, nil, Options{})
	srv := httptest.NewServer(s.Handler())
	defer srv.Close()
	c := dial(t, srv, "/control")

	r := send(t, c, `{"op":"set","row":2,"col":3,"rgb":[255,0,0]}`)
	assert.True(t, r.OK, r.Error)
	assert.Equal(t, ledmatrix.Pixel(0xF800), pixelAt(t, path, 2, 3))

	r = send(t, c, `{"op":"fill","rgb":[0,0,255]}`)
	assert.True(t, r.OK)
	assert.Equal(t, ledmatrix.Pixel(0x001F), pixelAt(t, path, 7, 7))

	r = send(t, c, `{"op":"draw","pattern":"gradient"}`)
	assert.True(t, r.OK)
	assert.Equal(t, ledmatrix.Color{R: 0xff, G: 0x7f}.RGB565(), pixelAt(t, path, 0, 0))

	r = send(t, c, `{"op":"clear"}`)
	assert.True(t, r.OK)
	assert.Equal(t, ledmatrix.Pixel(0), pixelAt(t, path, 0, 0))
}

func TestControlErrors(t *testing.T) {
	m, _ := newMatrix(t)
	s := NewServer(m, nil, nil, Options{})
	srv := httptest.NewServer(s.Handler())
	defer srv.Close()
	c := dial(t, srv, "/control")
	d := dial(t, srv, "/diag")
	require.Eventually(t, func() bool { return s.clients(s.diagClients) == 1 }, time.Second, 5*time.Millisecond)

	r := send(t, c, `{"op":"set","row":8,"col":0,"rgb":[1,2,3]}`)
	assert.False(t, r.OK)
	assert.Contains(t, r.Error, "128")

	var got diag.Diagnostic
	require.NoError(t, d.ReadJSON(&got))
	assert.Equal(t, "MATRIX.RANGE", got.Code)

	for _, cmd := range []string{
		`{"op":"set","row":0,"col":0,"rgb":[1,2]}`,
		`{"op":"fill","rgb":[256,0,0]}`,
		`{"op":"draw","pattern":"plasma"}`,
		`{"op":"spin"}`,
		`not json`,
	} {
		r := send(t, c, cmd)
		assert.False(t, r.OK, cmd)
		assert.NotEmpty(t, r.Error, cmd)
	}
}

func TestTestSweep(t *testing.T) {
	m, path := newMatrix(t)
	s := NewServer(m, nil, nil, Options{})
	require.NoError(t, s.Apply(Command{Op: "test", Pattern: string(pattern.RGBChannels)}))

	s.stepTest()
	assert.Equal(t, ledmatrix.Pixel(0xF800), pixelAt(t, path, 4, 4))
	s.stepTest()
	assert.Equal(t, ledmatrix.Pixel(0x07E0), pixelAt(t, path, 4, 4))
	s.stepTest()
	assert.Equal(t, ledmatrix.Pixel(0x001F), pixelAt(t, path, 4, 4))
	s.stepTest()
	assert.Nil(t, s.sweep)

	assert.Error(t, s.Apply(Command{Op: "test", Pattern: "plane_z"}))

	require.NoError(t, s.Apply(Command{Op: "test", Pattern: string(pattern.IndexSweep)}))
	require.NoError(t, s.Apply(Command{Op: "clear"}))
	assert.Nil(t, s.sweep)
}

func TestHealth(t *testing.T) {
	m, _ := newMatrix(t)
	s := NewServer(m, nil, nil, Options{})
	srv := httptest.NewServer(s.Handler())
	defer srv.Close()

	resp, err := http.Get(srv.URL + "/health")
	require.NoError(t, err)
	defer resp.Body.Close()
	var body map[string]any
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&body))
	assert.Contains(t, body["device"], "ledmatrix{")
	assert.Contains(t, body, "uptime_s")
	assert.NotContains(t, body, "humidity")
}

func TestEnvStream(t *testing.T) {
	bus := &i2ctest.Playback{Ops: []i2ctest.IO{
		{Addr: 0x5C, W: []byte{0x0F}, R: []byte{0xBD}},
		{Addr: 0x5C, W: []byte{0x20, 0xC4}},
		{Addr: 0x5C, W: []byte{0x10, 0x05}},
		{Addr: 0x5C, W: []byte{0x2E, 0xC0}},
		{Addr: 0x5C, W: []byte{0x21, 0x40}},
		{Addr: 0x5C, W: []byte{0x27}, R: []byte{0x02}},
		{Addr: 0x5C, W: []byte{0xA8}, R: []byte{0x00, 0x54, 0x3F}},
	}}
	p, err := sensor.NewPressure(bus, sensor.DefaultSettings().Pressure)
	require.NoError(t, err)
	require.NoError(t, p.Init())

	m, _ := newMatrix(t)
	s := NewServer(m, nil, p, Options{})
	srv := httptest.NewServer(s.Handler())
	defer srv.Close()
	c := dial(t, srv, "/env")
	require.Eventually(t, func() bool { return s.clients(s.envClients) == 1 }, time.Second, 5*time.Millisecond)

	s.broadcastEnv()
	var got sensor.Sample
	require.NoError(t, c.ReadJSON(&got))
	require.NotNil(t, got.PressureHPa)
	assert.InDelta(t, 1013.25, *got.PressureHPa, 1e-6)
	assert.Nil(t, got.HumidityRH)
	require.NoError(t, bus.Close())
}

func TestCloseClearsAndStopsTests(t *testing.T) {
	m, path := newMatrix(t)
	s := NewServer(m, nil, nil, Options{FrameInterval: time.Millisecond})
	srv := httptest.NewServer(s.Handler())
	defer srv.Close()
	c := dial(t, srv, "/control")

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	go s.Run(ctx)
	require.True(t, send(t, c, `{"op":"test","pattern":"rgb_channels"}`).OK)
	require.Eventually(t, func() bool { return pixelAt(t, path, 0, 0) != 0 }, time.Second, time.Millisecond)

	require.NoError(t, s.Close())
	time.Sleep(20 * time.Millisecond)
	b, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Equal(t, make([]byte, ledmatrix.FrameSize), b)

	r := send(t, c, `{"op":"fill","rgb":[255,255,255]}`)
	assert.False(t, r.OK)
	assert.True(t, errors.Is(s.Apply(Command{Op: "clear"}), ledmatrix.ErrClosed))
	assert.Equal(t, ledmatrix.Pixel(0), pixelAt(t, path, 3, 3))
	assert.NoError(t, s.Close())
}
