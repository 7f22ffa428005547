package commands

import (
	"fmt"
	"io"
	"strconv"
	"strings"

	"github.com/spf13/cobra"

	"github.com/benz9527/xrbmap/lib/infra"
	"github.com/benz9527/xrbmap/lib/tree"
)

const (
	dumpCmdUse   = "dump <key>..."
	dumpCmdShort = "Insert the integer keys in order and print the tree shape"
)

// NewDumpCommand creates the dump subcommand.
func NewDumpCommand() *cobra.Command {
	var (
		erase []string
		desc  bool
	)
	cmd := &cobra.Command{
		Use:   dumpCmdUse,
		Short: dumpCmdShort,
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			keys, err := parseKeys(args)
			if err != nil {
				return err
			}
			erased, err := parseKeys(erase)
			if err != nil {
				return err
			}
			return runDump(cmd.OutOrStdout(), keys, erased, desc)
		},
	}
	cmd.Flags().StringSliceVarP(&erase, "erase", "e", nil, "keys to erase after the inserts")
	cmd.Flags().BoolVar(&desc, "desc", false, "descending order")
	return cmd
}

func parseKeys(args []string) ([]int64, error) {
	keys := make([]int64, 0, len(args))
	for _, arg := range args {
		for _, field := range strings.FieldsFunc(arg, func(r rune) bool { return r == ',' || r == ' ' }) {
			key, err := strconv.ParseInt(field, 10, 64)
			if err != nil {
				return nil, infra.WrapErrorStackWithMessage(err, "parse key "+field)
			}
			keys = append(keys, key)
		}
	}
	return keys, nil
}

func runDump(w io.Writer, keys, erased []int64, desc bool) error {
	var opts []tree.RBTreeOpt[int64, struct{}]
	if desc {
		opts = append(opts, tree.WithRBTreeDesc[int64, struct{}]())
	}
	t := tree.NewRBTree[int64, struct{}](opts...)
	for _, key := range keys {
		t.Insert(key, struct{}{})
	}
	for _, key := range erased {
		t.Erase(key)
	}

	if _, err := fmt.Fprint(w, "level-order: "); err != nil {
		return err
	}
	if err := t.LevelOrder(w); err != nil {
		return err
	}

	builder := &strings.Builder{}
	t.Foreach(func(idx int64, color tree.RBColor, key int64, _ struct{}) bool {
		if idx > 0 {
			builder.WriteByte(' ')
		}
		c := "B"
		if color == tree.Red {
			c = "R"
		}
		builder.WriteString(strconv.FormatInt(key, 10))
		builder.WriteString("(" + c + ")")
		return true
	})
	_, err := fmt.Fprintf(w, "\nin-order: %s\nlen: %d\nvalid: %t\n", builder.String(), t.Len(), t.IsValid())
	return err
}
