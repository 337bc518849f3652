// Command tecnicofs-server runs the TecnicoFS name service: an
// in-memory inode table served over a Unix-domain datagram socket.
package main

import (
	"context"
	"fmt"
	"log"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"
	"gopkg.in/natefinch/lumberjack.v2"

	"github.com/tecnicofs/tecnicofs/internal/inode"
	"github.com/tecnicofs/tecnicofs/internal/metrics"
	"github.com/tecnicofs/tecnicofs/internal/rlimit"
	"github.com/tecnicofs/tecnicofs/internal/server"
)

var (
	inodeTableSize  int
	maxDirEntries   int
	maxFileName     int
	numWorkers      int
	logFile         string
	metricsInterval time.Duration
)

func main() {
	rootCmd := &cobra.Command{
		Use:   "tecnicofs-server SOCKET_PATH",
		Short: "Serve the TecnicoFS name tree over a unixgram socket",
		Args:  cobra.ExactArgs(1),
		RunE:  runServer,
	}

	flags := rootCmd.Flags()
	flags.IntVar(&inodeTableSize, "inode-table-size", inode.DefaultTableSize, "number of inode slots")
	flags.IntVar(&maxDirEntries, "max-dir-entries", inode.DefaultMaxDirEntries, "max entries per directory")
	flags.IntVar(&maxFileName, "max-file-name", inode.DefaultMaxFileName, "max file name length")
	flags.IntVar(&numWorkers, "workers", rlimit.DefaultWorkers(8), "size of the request worker pool")
	flags.StringVar(&logFile, "log-file", "", "write logs here instead of stderr (rotated)")
	flags.DurationVar(&metricsInterval, "metrics-interval", 0, "log an operation-count snapshot at this interval (0 disables)")

	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func runServer(cmd *cobra.Command, args []string) error {
	socketPath := args[0]

	logger := log.New(os.Stderr, "tecnicofs-server: ", log.LstdFlags|log.Lmicroseconds)
	if logFile != "" {
		logger.SetOutput(&lumberjack.Logger{
			Filename:   logFile,
			MaxSize:    50, // megabytes
			MaxBackups: 3,
			MaxAge:     28, // days
		})
	}

	table := inode.NewTable(inodeTableSize, maxDirEntries, maxFileName)
	if _, err := table.Init(); err != nil {
		return fmt.Errorf("init inode table: %w", err)
	}
	defer table.Close()

	rec := metrics.New()

	dispatcher, err := server.New(server.Config{
		SocketPath: socketPath,
		NumWorkers: numWorkers,
		Table:      table,
		Metrics:    rec,
		Logger:     logger,
	})
	if err != nil {
		return err
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if metricsInterval > 0 {
		go logMetrics(ctx, logger, rec, metricsInterval)
	}

	logger.Printf("listening on %s with %d workers (table size %d)", socketPath, numWorkers, inodeTableSize)
	if err := dispatcher.ListenAndServe(ctx); err != nil && ctx.Err() == nil {
		return err
	}
	logger.Printf("shut down")
	return nil
}

func logMetrics(ctx context.Context, logger *log.Logger, rec *metrics.Recorder, interval time.Duration) {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			snap := rec.Snapshot()
			for op, counts := range snap.Ops {
				logger.Printf("metrics: %s ok=%d error=%d", op, counts["ok"], counts["error"])
			}
		}
	}
}
