// Package network provides listener helpers for the web server.
package network

import (
	"bufio"
	"net"
	"net/http"
	"sync"
)

// tlsHandshake is the record type byte every TLS connection starts with.
const tlsHandshake = 0x16

// HTTPSRedirectListener sits under a TLS listener. Connections that open
// with a plain HTTP request are answered with a redirect to the https URL
// and closed; TLS connections pass through.
type HTTPSRedirectListener struct {
	net.Listener
}

func NewHTTPSRedirectListener(listener net.Listener) net.Listener {
	return &HTTPSRedirectListener{Listener: listener}
}

func (l *HTTPSRedirectListener) Accept() (net.Conn, error) {
	conn, err := l.Listener.Accept()
	if err != nil {
		return nil, err
	}
	return &sniffConn{Conn: conn, reader: bufio.NewReader(conn)}, nil
}

// sniffConn looks at the first byte on the first Read. Everything read while
// sniffing stays buffered in reader.
type sniffConn struct {
	net.Conn

	reader    *bufio.Reader
	sniffOnce sync.Once
	closed    bool
}

func (c *sniffConn) Read(buf []byte) (int, error) {
	c.sniffOnce.Do(c.sniff)
	if c.closed {
		return 0, net.ErrClosed
	}
	return c.reader.Read(buf)
}

func (c *sniffConn) sniff() {
	first, err := c.reader.Peek(1)
	if err != nil || first[0] == tlsHandshake {
		return
	}

	c.closed = true
	defer c.Conn.Close()

	req, err := http.ReadRequest(c.reader)
	if err != nil {
		return
	}
	resp := http.Response{
		StatusCode: http.StatusTemporaryRedirect,
		ProtoMajor: 1,
		ProtoMinor: 1,
		Header:     http.Header{},
		Close:      true,
	}
	resp.Header.Set("Location", "https://"+req.Host+req.RequestURI)
	_ = resp.Write(c.Conn)
}
