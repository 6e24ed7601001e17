/*
Command svg-text2path converts the text elements of SVG documents into
vector outline paths, so the documents render identically without the
fonts being installed.

License

Governed by a 3-Clause BSD license. License file may be found in the root
folder of this module.

Copyright © 2023–2026 Emasoft
*/
package main

import (
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/flopp/go-findfont"
	"github.com/npillmayer/schuko/schukonf/testconfig"
	"github.com/npillmayer/schuko/tracing"
	"github.com/npillmayer/schuko/tracing/gologadapter"
	"github.com/npillmayer/schuko/tracing/trace2go"
	"github.com/spf13/cobra"

	"github.com/Emasoft/svg-text2path/convert"
	"github.com/Emasoft/svg-text2path/core/font/fontregistry"
)

func main() {
	if err := rootCommand().Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func rootCommand() *cobra.Command {
	var traceKeys []string
	root := &cobra.Command{
		Use:           "svg-text2path",
		Short:         "Convert SVG text elements to outline paths",
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			return setupTracing(traceKeys)
		},
	}
	root.PersistentFlags().StringArrayVar(&traceKeys, "trace", nil,
		"trace level per key, e.g. t2p.layout=Debug")
	root.AddCommand(convertCommand())
	root.AddCommand(fontsCommand())
	return root
}

func convertCommand() *cobra.Command {
	var (
		outFile    string
		configFile string
		precision  int
		fallbacks  []string
	)
	cmd := &cobra.Command{
		Use:   "convert <input.svg>",
		Short: "Convert the text of an SVG document to paths",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			params := convert.DefaultParams()
			if configFile != "" {
				var err error
				if params, err = convert.LoadParams(configFile); err != nil {
					return err
				}
			}
			if cmd.Flags().Changed("precision") {
				params.Precision = precision
			}
			if len(fallbacks) > 0 {
				params.FallbackFamilies = fallbacks
			}
			in, err := os.Open(args[0])
			if err != nil {
				return err
			}
			defer in.Close()
			out := os.Stdout
			if outFile != "" {
				f, err := os.Create(outFile)
				if err != nil {
					return err
				}
				defer f.Close()
				out = f
			}
			return convert.New(params).Convert(in, out)
		},
	}
	cmd.Flags().StringVarP(&outFile, "output", "o", "", "output file (default stdout)")
	cmd.Flags().StringVar(&configFile, "config", "", "TOML configuration file")
	cmd.Flags().IntVar(&precision, "precision", 3, "decimals in path coordinates")
	cmd.Flags().StringSliceVar(&fallbacks, "fallback", nil, "fallback font families")
	return cmd
}

func fontsCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "fonts",
		Short: "Font related helpers",
	}
	cmd.AddCommand(&cobra.Command{
		Use:   "list",
		Short: "List the fonts visible to the converter",
		RunE: func(cmd *cobra.Command, args []string) error {
			names := fontregistry.GlobalRegistry().FontNames()
			for _, f := range findfont.List() {
				names = append(names, filepath.Base(f))
			}
			sort.Strings(names)
			for _, n := range names {
				fmt.Println(n)
			}
			return nil
		},
	})
	return cmd
}

// setupTracing wires the schuko tracing machinery to the Go standard
// logger and applies per-key levels given on the command line.
func setupTracing(pairs []string) error {
	tracing.RegisterTraceAdapter("go", gologadapter.GetAdapter(), false)
	conf := testconfig.Conf{
		"tracing.adapter": "go",
	}
	for _, p := range pairs {
		key, level, ok := strings.Cut(p, "=")
		if !ok {
			return fmt.Errorf("trace flag needs key=level, got %q", p)
		}
		conf["trace."+key] = level
	}
	if err := trace2go.ConfigureRoot(conf, "trace", trace2go.ReplaceTracers(true)); err != nil {
		return err
	}
	tracing.SetTraceSelector(trace2go.Selector())
	return nil
}
