package main

import (
	"errors"
	"io"
	"os"

	"packit/pkg/cmderr"
	"packit/pkg/config"
	"packit/pkg/core"
	"packit/pkg/logger"
	"packit/pkg/progress"

	"github.com/olekukonko/tablewriter"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
	"golang.org/x/term"
)

// Version is an application version, changed in compile time.
var Version = "dev"

// exitFormat is the exit code for archives that cannot represent the input.
const exitFormat = 2

const (
	configFlag     = "config"
	dirFlag        = "dir"
	outputFlag     = "output"
	sortFlag       = "sort"
	atomicFlag     = "atomic"
	lz4Flag        = "lz4"
	chunkSizeFlag  = "chunk-size"
	noProgressFlag = "no-progress"
	noListFlag     = "no-list"
	logLevelFlag   = "log-level"
)

func main() {
	cmd := newCommand()
	// use stdout as default output for cmd.Print()
	cmd.SetOut(os.Stdout)
	err := cmd.Execute()
	cmderr.ExitOnErr(err)
}

func newCommand() *cobra.Command {
	v := config.NewViper()
	v.SetDefault(config.ProgressKey, term.IsTerminal(int(os.Stdout.Fd())))

	cmd := &cobra.Command{
		Use:   "packit -d <dir> -o <output>",
		Short: "Pack a directory tree into a single PKIT archive",
		Long: `packit stores every regular file found under a directory in one flat
archive: a PKIT header followed by one entry per file holding its path relative
to the directory and its raw content. Nothing is compressed inside the archive.

Settings are read from flags, PACKIT_* environment variables and an optional
config file, in that order of precedence.`,
		Args:          cobra.NoArgs,
		Version:       Version,
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return handlePack(cmd, v)
		},
	}

	flags := cmd.Flags()
	flags.StringP(configFlag, "c", "", "Config file (default is $HOME/.config/packit.yaml)")
	flags.StringP(dirFlag, "d", "", "Directory to pack")
	flags.StringP(outputFlag, "o", "", "Name of output file")
	flags.Bool(sortFlag, true, "Sort collected paths so that unchanged trees give identical archives")
	flags.Bool(atomicFlag, false, "Write to a temporary file and rename it into place on success")
	flags.Bool(lz4Flag, false, "Wrap the archive into an LZ4 frame")
	flags.String(chunkSizeFlag, "32k", "Buffer size used to stream file content")
	flags.Bool(noProgressFlag, false, "Do not show progress bar")
	flags.Bool(noListFlag, false, "Do not print collected files")
	flags.String(logLevelFlag, config.LogLevelDefault, "Logging level")

	for key, flag := range map[string]string{
		config.DirKey:       dirFlag,
		config.OutputKey:    outputFlag,
		config.SortKey:      sortFlag,
		config.AtomicKey:    atomicFlag,
		config.LZ4Key:       lz4Flag,
		config.ChunkSizeKey: chunkSizeFlag,
		config.LogLevelKey:  logLevelFlag,
	} {
		_ = v.BindPFlag(key, flags.Lookup(flag))
	}

	return cmd
}

// handlePack handles the pack operation
func handlePack(cmd *cobra.Command, v *viper.Viper) error {
	cfgPath, _ := cmd.Flags().GetString(configFlag)
	if err := config.ReadConfigFile(v, cfgPath); err != nil {
		return err
	}
	if cmd.Flags().Changed(noProgressFlag) {
		noProgress, _ := cmd.Flags().GetBool(noProgressFlag)
		v.Set(config.ProgressKey, !noProgress)
	}
	if cmd.Flags().Changed(noListFlag) {
		noList, _ := cmd.Flags().GetBool(noListFlag)
		v.Set(config.ListKey, !noList)
	}

	cfg, err := config.Load(v)
	if err != nil {
		return err
	}

	log, err := logger.New(cfg.LogLevel)
	if err != nil {
		return err
	}
	defer func() { _ = log.Sync() }()

	var tracker *progress.Tracker
	sum, err := core.Pack(cfg.Dir, cfg.Output,
		core.WithSort(cfg.Sort),
		core.WithAtomic(cfg.Atomic),
		core.WithLZ4(cfg.LZ4),
		core.WithChunkSize(cfg.ChunkSize),
		core.WithLogger(log),
		core.WithCollectHook(func(paths []string) error {
			if cfg.List {
				printFiles(cmd.OutOrStdout(), cfg.Dir, paths)
			}
			tracker = progress.New(progress.TotalSize(cfg.Dir, paths), cmd.OutOrStdout(), cfg.Progress)
			tracker.Start()
			return nil
		}),
		core.WithProgress(func(n int) { tracker.Add(n) }),
	)
	if tracker != nil {
		tracker.Finish()
	}
	if err != nil {
		var fe *core.FormatError
		if errors.As(err, &fe) {
			return cmderr.ExitErr{Code: exitFormat, Cause: err}
		}
		return err
	}

	cmd.Printf("Packed %d files (%s) into %s\n",
		sum.Files, progress.FormatSize(sum.ContentBytes), cfg.Output)
	return nil
}

// printFiles lists collected paths in archive order with their sizes
func printFiles(w io.Writer, root string, paths []string) {
	out := tablewriter.NewWriter(w)
	out.SetHeader([]string{"File", "Size"})
	out.SetAutoWrapText(false)
	out.SetAlignment(tablewriter.ALIGN_LEFT)

	for _, p := range paths {
		size := "?"
		if info, err := os.Stat(root + "/" + p); err == nil {
			size = progress.FormatSize(uint64(info.Size()))
		}
		out.Append([]string{p, size})
	}

	out.Render()
}
