// Package server implements the TecnicoFS dispatcher: a fixed pool of
// worker goroutines reading request datagrams off a single
// unixgram socket and replying to each on the datagram's source
// address.
package server

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"log"
	"net"
	"os"

	"golang.org/x/sync/errgroup"

	"github.com/tecnicofs/tecnicofs/internal/inode"
	"github.com/tecnicofs/tecnicofs/internal/metrics"
	"github.com/tecnicofs/tecnicofs/internal/ops"
	"github.com/tecnicofs/tecnicofs/internal/wire"
)

// Config holds everything needed to start a Dispatcher.
type Config struct {
	// SocketPath is the filesystem path of the unixgram socket to
	// listen on. New removes any file already at this path before
	// binding; ListenAndServe removes it again on shutdown.
	SocketPath string

	// NumWorkers is the size of the fixed worker pool reading requests
	// off the socket. Zero selects a small default.
	NumWorkers int

	// Table and Metrics back every request's FileSystem calls.
	Table   *inode.Table
	Metrics *metrics.Recorder

	Logger *log.Logger
}

const defaultNumWorkers = 8

// Dispatcher owns the listening socket and the worker pool reading
// from it. Its zero value is not usable; build one with New.
type Dispatcher struct {
	conn   *net.UnixConn
	fs     *ops.FileSystem
	logger *log.Logger
	path   string
	nw     int
}

// New binds the configured socket and returns a Dispatcher ready for
// ListenAndServe. The socket is created here, not in ListenAndServe,
// so New's error return tells the caller immediately whether the
// requested path is usable.
func New(cfg Config) (*Dispatcher, error) {
	if cfg.SocketPath == "" {
		return nil, errors.New("server: SocketPath is required")
	}
	if cfg.Table == nil {
		return nil, errors.New("server: Table is required")
	}

	addr, err := net.ResolveUnixAddr("unixgram", cfg.SocketPath)
	if err != nil {
		return nil, fmt.Errorf("server: resolve socket path: %w", err)
	}
	// A stale socket file from a previous run that didn't shut down
	// cleanly would otherwise make ListenUnixgram fail with "address
	// already in use".
	_ = os.Remove(cfg.SocketPath)

	conn, err := net.ListenUnixgram("unixgram", addr)
	if err != nil {
		return nil, fmt.Errorf("server: listen on %s: %w", cfg.SocketPath, err)
	}

	nw := cfg.NumWorkers
	if nw <= 0 {
		nw = defaultNumWorkers
	}

	logger := cfg.Logger
	if logger == nil {
		logger = log.Default()
	}

	var fs *ops.FileSystem
	if cfg.Metrics != nil {
		fs = ops.NewWithMetrics(cfg.Table, cfg.Metrics)
	} else {
		fs = ops.New(cfg.Table)
	}

	return &Dispatcher{
		conn:   conn,
		fs:     fs,
		logger: logger,
		path:   cfg.SocketPath,
		nw:     nw,
	}, nil
}

// ListenAndServe runs the worker pool until ctx is cancelled, then
// closes the socket, waits for every in-flight request to finish, and
// removes the socket file. It returns only once the errgroup's context
// is done, and then returns that context's error. Workers log socket
// read errors and keep reading; they never end the group with one.
func (d *Dispatcher) ListenAndServe(ctx context.Context) error {
	defer os.Remove(d.path)

	group, gctx := errgroup.WithContext(ctx)
	for i := 0; i < d.nw; i++ {
		group.Go(func() error { return d.worker(gctx) })
	}

	// A separate goroutine closes the socket as soon as the context is
	// cancelled, which is what unblocks every worker's blocking
	// ReadFromUnix call; errgroup alone has no way to interrupt them.
	group.Go(func() error {
		<-gctx.Done()
		d.conn.Close()
		return gctx.Err()
	})

	return group.Wait()
}

// worker is one of the fixed pool of goroutines reading requests off
// the shared socket. Datagram sockets fan requests out to whichever
// reader happens to be blocked in ReadFromUnix, so no further
// dispatch is needed once the pool exists.
func (d *Dispatcher) worker(ctx context.Context) error {
	buf := make([]byte, wire.MaxInputSize)
	for {
		n, clientAddr, err := d.conn.ReadFromUnix(buf)
		if err != nil {
			if ctx.Err() != nil {
				return ctx.Err()
			}
			if isClosedConnError(err) {
				return nil
			}
			d.logger.Printf("server: read error: %v", err)
			continue
		}
		if clientAddr == nil || clientAddr.Name == "" {
			// An anonymous sender can't be replied to; nothing left to do.
			continue
		}
		d.handle(buf[:n], clientAddr)
	}
}

// handle parses and executes a single request datagram and replies on
// the client's address. Errors from the client address being gone by
// reply time are logged, not fatal: a worker that loses its peer
// keeps serving the next datagram.
// handle recovers a panicking request handler just long enough to log
// it before re-panicking: an invariant violation inside the inode
// table or resolver is fatal to the whole process (matching the
// original's abort-on-lock-corruption policy), but it must never be
// allowed to unwind past this point and send a reply as if the
// request had actually succeeded.
func (d *Dispatcher) handle(raw []byte, clientAddr *net.UnixAddr) {
	defer func() {
		if r := recover(); r != nil {
			d.logger.Printf("server: fatal: panic handling request: %v", r)
			panic(r)
		}
	}()

	cmd, err := wire.ParseCommand(raw)
	if err != nil {
		d.reply(clientAddr, wire.ErrInvalidCommand)
		return
	}

	switch cmd.Op {
	case wire.OpCreate:
		err := d.fs.Create(cmd.Arg1, opKindFor(cmd.Arg2))
		d.reply(clientAddr, ops.ToStatus(err))
	case wire.OpDelete:
		err := d.fs.Delete(cmd.Arg1)
		d.reply(clientAddr, ops.ToStatus(err))
	case wire.OpMove:
		err := d.fs.Move(cmd.Arg1, cmd.Arg2)
		d.reply(clientAddr, ops.ToStatus(err))
	case wire.OpLookup:
		inum, err := d.fs.Lookup(cmd.Arg1)
		if err != nil {
			d.reply(clientAddr, ops.ToStatus(err))
			return
		}
		d.reply(clientAddr, wire.Status(inum))
	case wire.OpPrint:
		tree, err := d.fs.Print()
		if err != nil {
			d.reply(clientAddr, ops.ToStatus(err))
			return
		}
		if werr := d.printToFile(cmd.Arg1, tree); werr != nil {
			d.logger.Printf("server: print to %s: %v", cmd.Arg1, werr)
			d.reply(clientAddr, wire.ErrOther)
			return
		}
		d.reply(clientAddr, wire.OK)
	default:
		d.reply(clientAddr, wire.ErrInvalidCommand)
	}
}

// opKindFor maps the create command's type argument ("f" or "d") onto
// an inode.Kind; any other value defaults to File, matching the
// original protocol which treated an unrecognised type byte as a file.
func opKindFor(arg string) inode.Kind {
	if arg == "d" {
		return inode.Directory
	}
	return inode.File
}

func (d *Dispatcher) printToFile(path, tree string) error {
	return os.WriteFile(path, []byte(tree), 0o644)
}

func (d *Dispatcher) reply(clientAddr *net.UnixAddr, status wire.Status) {
	var buf bytes.Buffer
	if err := wire.EncodeStatus(&buf, status); err != nil {
		d.logger.Printf("server: encode reply for %s: %v", clientAddr.Name, err)
		return
	}
	if _, err := d.conn.WriteToUnix(buf.Bytes(), clientAddr); err != nil {
		d.logger.Printf("server: reply to %s: %v", clientAddr.Name, err)
	}
}

func isClosedConnError(err error) bool {
	return errors.Is(err, net.ErrClosed)
}
