// Package client implements the TecnicoFS client library: mounting a
// connection to a running server's unixgram socket and issuing the
// five filesystem operations over it.
package client

import (
	"bytes"
	"fmt"
	"net"
	"os"
	"path/filepath"

	"github.com/google/uuid"

	"github.com/tecnicofs/tecnicofs/internal/inode"
	"github.com/tecnicofs/tecnicofs/internal/wire"
)

// Client is a single mounted session against a server. It is not safe
// for concurrent use by multiple goroutines: the original protocol is
// one in-flight request per session, and a connected unixgram socket
// has no way to tell two overlapping replies apart.
type Client struct {
	conn      *net.UnixConn
	localPath string
}

// Mount opens a session against the server listening on serverSocket.
// It binds an ephemeral local socket — named with a random suffix so
// two Mounts from the same process, or from two processes sharing a
// working directory, never collide — and connects it to the server,
// so subsequent calls can use plain Write/Read instead of addressed
// SendTo/RecvFrom.
func Mount(serverSocket string) (*Client, error) {
	localPath := filepath.Join(os.TempDir(), fmt.Sprintf("tecnicofs-client-%s.sock", uuid.NewString()))

	laddr, err := net.ResolveUnixAddr("unixgram", localPath)
	if err != nil {
		return nil, fmt.Errorf("client: resolve local socket: %w", err)
	}
	raddr, err := net.ResolveUnixAddr("unixgram", serverSocket)
	if err != nil {
		return nil, fmt.Errorf("client: resolve server socket %s: %w", serverSocket, err)
	}

	conn, err := net.DialUnix("unixgram", laddr, raddr)
	if err != nil {
		return nil, fmt.Errorf("client: %w: %v", errOpenSession, err)
	}

	return &Client{conn: conn, localPath: localPath}, nil
}

// Unmount closes the session and removes its local socket file.
func (c *Client) Unmount() error {
	err := c.conn.Close()
	_ = os.Remove(c.localPath)
	return err
}

// call sends cmd and waits for the server's reply status.
func (c *Client) call(cmd wire.Command) (wire.Status, error) {
	if _, err := c.conn.Write([]byte(cmd.Format())); err != nil {
		return 0, fmt.Errorf("client: %w: %v", errConnection, err)
	}

	reply := make([]byte, 4)
	n, err := c.conn.Read(reply)
	if err != nil {
		return 0, fmt.Errorf("client: %w: %v", errConnection, err)
	}
	status, err := wire.DecodeStatus(bytes.NewReader(reply[:n]))
	if err != nil {
		return 0, fmt.Errorf("client: malformed reply: %w", err)
	}
	return status, nil
}

// Create asks the server to create a node of the given kind at path.
func (c *Client) Create(path string, kind inode.Kind) (wire.Status, error) {
	arg2 := "f"
	if kind == inode.Directory {
		arg2 = "d"
	}
	return c.call(wire.Command{Op: wire.OpCreate, Arg1: path, Arg2: arg2})
}

// Delete asks the server to remove the node at path.
func (c *Client) Delete(path string) (wire.Status, error) {
	return c.call(wire.Command{Op: wire.OpDelete, Arg1: path})
}

// Move asks the server to relocate src to dst.
func (c *Client) Move(src, dst string) (wire.Status, error) {
	return c.call(wire.Command{Op: wire.OpMove, Arg1: src, Arg2: dst})
}

// Lookup asks the server to resolve path. A non-negative Status is
// the resolved inumber, not a plain success code.
func (c *Client) Lookup(path string) (wire.Status, error) {
	return c.call(wire.Command{Op: wire.OpLookup, Arg1: path})
}

// Print asks the server to write a dump of the whole tree to destPath
// on the server's filesystem.
func (c *Client) Print(destPath string) (wire.Status, error) {
	return c.call(wire.Command{Op: wire.OpPrint, Arg1: destPath})
}
