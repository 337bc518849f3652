// Command tecnicofsctl issues one-shot requests against a running
// tecnicofs-server over its unixgram socket.
package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/tecnicofs/tecnicofs/internal/client"
	"github.com/tecnicofs/tecnicofs/internal/inode"
	"github.com/tecnicofs/tecnicofs/internal/wire"
)

var socketPath string

func main() {
	rootCmd := &cobra.Command{
		Use:   "tecnicofsctl",
		Short: "Talk to a running tecnicofs-server",
	}
	rootCmd.PersistentFlags().StringVar(&socketPath, "socket", "", "server's unixgram socket path")
	_ = rootCmd.MarkPersistentFlagRequired("socket")

	rootCmd.AddCommand(
		newCreateCmd(),
		newDeleteCmd(),
		newMoveCmd(),
		newLookupCmd(),
		newPrintCmd(),
	)

	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

// withClient mounts a session for the duration of fn and unmounts it
// before returning, so every subcommand gets a fresh, short-lived
// client rather than sharing one across the process.
func withClient(fn func(*client.Client) (wire.Status, error)) error {
	c, err := client.Mount(socketPath)
	if err != nil {
		return err
	}
	defer c.Unmount()

	status, err := fn(c)
	if err != nil {
		return err
	}
	if !status.Ok() {
		return fmt.Errorf("%s", status.Error())
	}
	fmt.Println(int32(status))
	return nil
}

func newCreateCmd() *cobra.Command {
	var dir bool
	cmd := &cobra.Command{
		Use:   "create PATH",
		Short: "Create a file or directory",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			kind := inode.File
			if dir {
				kind = inode.Directory
			}
			return withClient(func(c *client.Client) (wire.Status, error) {
				return c.Create(args[0], kind)
			})
		},
	}
	cmd.Flags().BoolVarP(&dir, "directory", "d", false, "create a directory instead of a file")
	return cmd
}

func newDeleteCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "delete PATH",
		Short: "Delete a file or empty directory",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return withClient(func(c *client.Client) (wire.Status, error) {
				return c.Delete(args[0])
			})
		},
	}
}

func newMoveCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "move SRC DST",
		Short: "Move or rename a node",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			return withClient(func(c *client.Client) (wire.Status, error) {
				return c.Move(args[0], args[1])
			})
		},
	}
}

func newLookupCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "lookup PATH",
		Short: "Resolve a path to its inumber",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return withClient(func(c *client.Client) (wire.Status, error) {
				return c.Lookup(args[0])
			})
		},
	}
}

func newPrintCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "print DEST_PATH",
		Short: "Dump the whole tree to a file on the server",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return withClient(func(c *client.Client) (wire.Status, error) {
				return c.Print(args[0])
			})
		},
	}
}
