package device

import (
	"fmt"
	"io"
	"sync"

	"github.com/golang/glog"
	"golang.org/x/net/websocket"
)

// WebSocketOrigin is the origin presented when dialing a bridge.
var WebSocketOrigin = "http://localhost/"

// DialWebSocket connects to a remote serial bridge.
func DialWebSocket(url string) (*websocket.Conn, error) {
	conn, err := websocket.Dial(url, "", WebSocketOrigin)
	if err != nil {
		return nil, fmt.Errorf("dial %s: %w", url, err)
	}
	conn.PayloadType = websocket.BinaryFrame
	return conn, nil
}

// Bridge exposes a local device to a websocket client so the device can
// be opened remotely with a ws:// path. Only one client is served at a
// time as the serial link can't be shared.
type Bridge struct {
	Open func() (io.ReadWriteCloser, error)

	lock sync.Mutex
	busy bool
}

// NewBridge creates a Bridge for a local serial port.
func NewBridge(path string, baud int) *Bridge {
	return &Bridge{Open: func() (io.ReadWriteCloser, error) {
		return OpenSerial(path, baud)
	}}
}

// Handler returns the websocket handler, which is also an http.Handler.
func (b *Bridge) Handler() websocket.Handler {
	return b.serve
}

func (b *Bridge) serve(conn *websocket.Conn) {
	defer conn.Close()
	conn.PayloadType = websocket.BinaryFrame
	b.lock.Lock()
	busy := b.busy
	b.busy = true
	b.lock.Unlock()
	if busy {
		glog.Warningf("bridge: reject %s, device in use", conn.Request().RemoteAddr)
		return
	}
	defer func() {
		b.lock.Lock()
		b.busy = false
		b.lock.Unlock()
	}()

	port, err := b.Open()
	if err != nil {
		glog.Errorf("bridge: %v", err)
		return
	}
	glog.Infof("bridge: %s connected", conn.Request().RemoteAddr)
	errCh := make(chan error, 2)
	go func() {
		_, err := io.Copy(port, conn)
		errCh <- err
	}()
	go func() {
		_, err := io.Copy(conn, port)
		errCh <- err
	}()
	err = <-errCh
	port.Close()
	conn.Close()
	<-errCh
	glog.Infof("bridge: %s disconnected: %v", conn.Request().RemoteAddr, err)
}
