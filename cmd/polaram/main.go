package main

import (
	"bufio"
	"context"
	"fmt"
	"io"
	"os"
	"os/signal"
	"runtime/pprof"
	"strings"
	"text/tabwriter"

	"github.com/spf13/cobra"
	"github.com/spf13/pflag"
	"github.com/spf13/viper"

	"github.com/lukaszgryglicki/polaram/internal/polaram"
)

var (
	cfgFile string
	v       *viper.Viper
	cfg     *polaram.Config
	logFile io.Closer
)

// flag name -> viper key
var bindings = map[string]map[string]string{
	"root": {
		"store":   "store",
		"log":     "log.file",
		"verbose": "",
	},
	"convert": {
		"samples":        "convert.samples",
		"workers":        "convert.workers",
		"chunk-size":     "convert.chunk_size",
		"precision":      "convert.precision",
		"seed":           "convert.seed",
		"max-extensions": "convert.max_extensions",
		"yes":            "convert.yes",
		"output":         "convert.output",
		"comment":        "convert.comment",
		"plot":           "convert.plot",
		"chart":          "convert.chart",
		"resume":         "convert.resume",
	},
	"simulate": {
		"mueller":                "simulate.mueller",
		"output":                 "simulate.output",
		"append":                 "simulate.append",
		"raw":                    "simulate.raw",
		"silent":                 "simulate.silent",
		"unpolarized-scattering": "simulate.unpolarized_scattering",
	},
}

func bind(group string, flags *pflag.FlagSet) {
	for name, key := range bindings[group] {
		if key == "" {
			continue
		}
		if err := v.BindPFlag(key, flags.Lookup(name)); err != nil {
			polaram.Log.Fatalf("bind flag %s: %v", name, err)
		}
	}
}

func setup(cmd *cobra.Command, _ []string) error {
	var err error
	if v, err = polaram.NewViper(cfgFile); err != nil {
		return err
	}
	bind("root", cmd.Root().PersistentFlags())
	if g, ok := bindings[cmd.Name()]; ok && len(g) > 0 {
		bind(cmd.Name(), cmd.Flags())
	}
	if verbose, _ := cmd.Flags().GetBool("verbose"); verbose {
		v.Set("log.level", "debug")
	}
	if cfg, err = polaram.LoadConfig(v); err != nil {
		return err
	}
	logFile, err = polaram.SetupLogger(cfg.Log.Level, cfg.Log.File)
	return err
}

func invocation() string {
	if len(os.Args) < 3 {
		return ""
	}
	return strings.Join(os.Args[2:], " ")
}

// askExtend is the interactive answer to a failed validation.
func askExtend(in io.Reader, out io.Writer) polaram.FailureHandler {
	r := bufio.NewReader(in)
	return func(f polaram.ConvergenceFailure) polaram.Decision {
		fmt.Fprintf(out, "\nValidation failed after %d samples:\n", f.TotalSamples)
		for _, rep := range f.Failed {
			fmt.Fprintf(out, "  %-20s analytic %.*f  empirical %.*f\n", rep.Head, rep.Digits+2, rep.Analytic, rep.Digits+2, rep.Empirical)
		}
		fmt.Fprint(out, "Sample one more batch? [y/N] ")
		line, err := r.ReadString('\n')
		if err != nil && line == "" {
			return polaram.Abort
		}
		switch strings.ToLower(strings.TrimSpace(line)) {
		case "y", "yes":
			return polaram.Continue
		}
		return polaram.Abort
	}
}

func openStore() (*polaram.Store, error) {
	if cfg.Store == "" {
		return nil, nil
	}
	return polaram.OpenStore(cfg.Store)
}

func newConvertCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "convert <tensorfile>",
		Short: "Convert raman tensors into orientation-averaged Mueller matrices",
		Long: `Converts raman tensors from the molecular coordinate system into the
Mueller matrices of an isotropic solution in the laboratory frame by Monte-Carlo
orientational averaging. The result is validated against the depolarization
ratio of every tensor; an unconverged run can be extended without losing samples.`,
		Args:    cobra.ExactArgs(1),
		PreRunE: setup,
		RunE: func(cmd *cobra.Command, args []string) error {
			store, err := openStore()
			if err != nil {
				return err
			}
			if store != nil {
				defer store.Close()
			}
			ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt)
			defer stop()
			res, err := polaram.Convert(ctx, polaram.ConvertOptions{
				TensorFile: args[0],
				Config:     cfg.Convert,
				Invocation: invocation(),
				Store:      store,
				OnFailure:  askExtend(cmd.InOrStdin(), cmd.ErrOrStderr()),
			})
			if res != nil && res.State != nil {
				fmt.Fprintf(cmd.OutOrStdout(), "run %s: %s after %d samples\n", res.State.ID, res.State.Status, res.State.TotalSamples)
			}
			return err
		},
	}
	f := cmd.Flags()
	f.Int64P("samples", "i", polaram.DefaultSamples, "samples per batch (orientations drawn before each validation)")
	f.IntP("workers", "p", polaram.DefaultWorkers, "number of parallel workers")
	f.IntP("chunk-size", "s", polaram.DefaultChunkSize, "samples per work unit")
	f.IntP("precision", "t", polaram.DefaultPrecision, "decimal digits the depolarization ratios must agree on")
	f.Int64("seed", 0, "random seed (0 = time based)")
	f.Int("max-extensions", 0, "extend an unconverged run up to this many times without asking")
	f.BoolP("yes", "y", false, "extend unconverged runs without asking")
	f.StringP("output", "o", polaram.DefaultOutput, "mueller matrix output file")
	f.StringP("comment", "c", "", "comment written into the output header")
	f.String("plot", "", "write a PNG convergence plot")
	f.String("chart", "", "write an HTML convergence chart")
	f.String("resume", "", "continue the stored run with this id")
	return cmd
}

func newSimulateCmd() *cobra.Command {
	var (
		lasers  []string
		comment string
	)
	cmd := &cobra.Command{
		Use:   "simulate <instructionfile>",
		Short: "Simulate laser polarization through an optical setup and a raman sample",
		Long: `Runs an instruction file (one optical element per line, see "polaram list")
on one or more lasers given as Stokes vectors. SMP applies the sample Mueller
matrices read with --mueller, one state per mode.`,
		Args:    cobra.ExactArgs(1),
		PreRunE: setup,
		RunE: func(cmd *cobra.Command, args []string) error {
			var stokes []polaram.Stokes
			for _, l := range lasers {
				s, err := polaram.ParseStokes(l)
				if err != nil {
					return fmt.Errorf("--laser %q: %w", l, err)
				}
				stokes = append(stokes, s)
			}
			_, err := polaram.Simulate(polaram.SimulateOptions{
				PlanFile:   args[0],
				Config:     cfg.Simulate,
				Lasers:     stokes,
				Comment:    comment,
				Invocation: invocation(),
				Stdout:     cmd.OutOrStdout(),
			})
			return err
		},
	}
	f := cmd.Flags()
	f.StringArrayVar(&lasers, "laser", nil, `initial stokes vector "s0,s1,s2,s3" (repeatable, default 1,1,0,0)`)
	f.StringP("mueller", "m", "", "mueller matrix file of the sample")
	f.StringP("output", "o", polaram.DefaultSimOutput, "output file")
	f.BoolP("append", "a", false, "append to the output file instead of overwriting it")
	f.BoolP("raw", "r", false, "write a tab separated table")
	f.BoolP("silent", "s", false, "do not print results")
	f.BoolP("unpolarized-scattering", "u", false, "allow SMP on partially polarized or circular light")
	f.StringVarP(&comment, "comment", "c", "", "comment written into the output header")
	return cmd
}

func newListCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "list [tag...]",
		Short: "List the instructions simulate can decode",
		RunE: func(cmd *cobra.Command, args []string) error {
			ins, err := polaram.NewDecoder().Select(args...)
			if err != nil {
				return err
			}
			tw := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 4, 2, ' ', 0)
			fmt.Fprintln(tw, "TAG\tPARAMETERS\tKIND\tDESCRIPTION")
			for _, in := range ins {
				fmt.Fprintf(tw, "%s\t%s\t%s\t%s\n", in.Tag, strings.Join(in.Params, " "), in.Kind, in.Help)
			}
			return tw.Flush()
		},
	}
}

func newRunsCmd() *cobra.Command {
	return &cobra.Command{
		Use:     "runs",
		Short:   "List stored conversion runs",
		Args:    cobra.NoArgs,
		PreRunE: setup,
		RunE: func(cmd *cobra.Command, _ []string) error {
			store, err := openStore()
			if err != nil {
				return err
			}
			if store == nil {
				return fmt.Errorf("%w: no store configured", polaram.ErrInvalidParameter)
			}
			defer store.Close()
			runs, err := store.ListRuns(cmd.Context())
			if err != nil {
				return err
			}
			tw := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 4, 2, ' ', 0)
			fmt.Fprintln(tw, "ID\tSTATUS\tSAMPLES\tBATCHES\tMODES\tUPDATED\tSOURCE")
			for _, r := range runs {
				fmt.Fprintf(tw, "%s\t%s\t%d\t%d\t%d\t%s\t%s\n", r.ID, r.Status, r.TotalSamples, r.Batches, r.Modes,
					r.UpdatedAt.Local().Format("2006-01-02 15:04:05"), r.Source)
			}
			return tw.Flush()
		},
	}
}

func newConfigCmd() *cobra.Command {
	return &cobra.Command{
		Use:     "config",
		Short:   "Print the effective configuration as YAML",
		Args:    cobra.NoArgs,
		PreRunE: setup,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return polaram.DumpConfig(cmd.OutOrStdout(), cfg)
		},
	}
}

func newRootCmd() *cobra.Command {
	root := &cobra.Command{
		Use:   "polaram",
		Short: "Polarization of raman scattered light with Mueller calculus",
		Long: `polaram simulates how a raman active sample and the optical elements of a
measurement setup change the polarization of a laser, using Mueller matrices and
Stokes vectors.`,
		SilenceUsage: true,
		PersistentPostRun: func(*cobra.Command, []string) {
			if logFile != nil {
				_ = logFile.Close()
			}
		},
	}
	pf := root.PersistentFlags()
	pf.StringVar(&cfgFile, "config", "", "config file (yaml, json or toml)")
	pf.String("store", polaram.DefaultStore, "sqlite run store (empty disables checkpoints)")
	pf.StringP("log", "l", "", "append the log to this file")
	pf.BoolP("verbose", "v", false, "debug logging")
	root.AddCommand(newConvertCmd(), newSimulateCmd(), newListCmd(), newRunsCmd(), newConfigCmd())
	return root
}

func main() {
	polaram.Debug = os.Getenv("DEBUG") != ""
	polaram.Progress = os.Getenv("NO_PROGRESS") == ""
	if os.Getenv("PROFILE") != "" {
		f, err := os.Create("cpu.out")
		if err != nil {
			panic(err)
		}
		if err := pprof.StartCPUProfile(f); err != nil {
			panic(err)
		}
		defer func() {
			pprof.StopCPUProfile()
			_ = f.Close()
		}()
	}

	if err := newRootCmd().ExecuteContext(context.Background()); err != nil {
		polaram.Log.Errorf("Error: %v", err)
		pprof.StopCPUProfile()
		os.Exit(1)
	}
}
