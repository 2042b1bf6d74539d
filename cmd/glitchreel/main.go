package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/rs/zerolog/log"
	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"

	"github.com/kikiluvv/glitchreel/internal/config"
	"github.com/kikiluvv/glitchreel/internal/ffmpeg"
	"github.com/kikiluvv/glitchreel/internal/glitch"
	"github.com/kikiluvv/glitchreel/internal/logging"
	"github.com/kikiluvv/glitchreel/internal/pipeline"
	"github.com/kikiluvv/glitchreel/internal/timeline"
	"github.com/kikiluvv/glitchreel/pkg/util"
)

var (
	cfgFile string
	verbose bool

	imagesFlag   string
	audioFlag    string
	outputFlag   string
	seedFlag     int64
	glitchesFlag int
	policyFlag   string
	noProgress   bool

	forceInit bool
)

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := rootCmd.ExecuteContext(ctx); err != nil {
		log.Error().Err(err).Msg("glitchreel failed")
		stop()
		os.Exit(1)
	}
}

var rootCmd = &cobra.Command{
	Use:           "glitchreel",
	Short:         "glitchreel - slideshow videos with crossfades and glitches",
	Long:          "Turns a folder of stills and an audio track into a video with randomized transitions, fades and glitch effects.",
	SilenceErrors: true,
	SilenceUsage:  true,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		// Initialize logging
		logging.Init(verbose)

		// Load config
		cfg, err := config.Load(cfgFile)
		if err != nil {
			return err
		}

		// Store config in context
		ctx := config.WithConfig(cmd.Context(), cfg)
		cmd.SetContext(ctx)

		return nil
	},
}

func init() {
	rootCmd.PersistentFlags().StringVar(&cfgFile, "config", "", "config file (default: ./glitchreel.yaml)")
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "verbose output")

	for _, c := range []*cobra.Command{renderCmd, planCmd} {
		c.Flags().StringVarP(&imagesFlag, "images", "i", "", "directory of png/jpg stills")
		c.Flags().StringVarP(&audioFlag, "audio", "a", "", "audio track")
		c.Flags().StringVarP(&outputFlag, "output", "o", "", "output video path")
		c.Flags().Int64Var(&seedFlag, "seed", 0, "random seed for a reproducible run")
		c.Flags().IntVarP(&glitchesFlag, "glitches", "g", 0, "number of glitch segments")
		c.Flags().StringVar(&policyFlag, "policy", "", "glitch placement: evenly or random")
	}
	renderCmd.Flags().BoolVar(&noProgress, "no-progress", false, "disable progress bars")
	configInitCmd.Flags().BoolVarP(&forceInit, "force", "f", false, "overwrite an existing file")

	rootCmd.AddCommand(renderCmd)
	rootCmd.AddCommand(planCmd)
	rootCmd.AddCommand(configCmd)
	rootCmd.AddCommand(listCmd)
	configCmd.AddCommand(configInitCmd)
	configCmd.AddCommand(configShowCmd)
}

// applyFlags lets explicit command line flags win over file and env settings
func applyFlags(cmd *cobra.Command, cfg *config.Config) {
	flags := cmd.Flags()
	if flags.Changed("images") {
		cfg.ImageDir = imagesFlag
	}
	if flags.Changed("audio") {
		cfg.AudioFile = audioFlag
	}
	if flags.Changed("output") {
		cfg.Output = outputFlag
	}
	if flags.Changed("seed") {
		seed := seedFlag
		cfg.Seed = &seed
	}
	if flags.Changed("glitches") {
		cfg.Glitches.Count = glitchesFlag
	}
	if flags.Changed("policy") {
		cfg.Glitches.Policy = policyFlag
	}
}

func newExecutor(cfg *config.Config) (*ffmpeg.Executor, error) {
	return ffmpeg.New(log.Logger, ffmpeg.Options{
		FFmpegPath:  cfg.FFmpeg.BinaryPath,
		FFprobePath: cfg.FFmpeg.ProbePath,
		Threads:     cfg.FFmpeg.Threads,
		LogLevel:    cfg.FFmpeg.LogLevel,
	})
}

var renderCmd = &cobra.Command{
	Use:   "render",
	Short: "Render the slideshow video",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg := config.FromContext(cmd.Context())
		applyFlags(cmd, cfg)

		engine, err := newExecutor(cfg)
		if err != nil {
			return err
		}

		req := pipeline.Request{Config: cfg}
		if !noProgress {
			bars := newPassBars(os.Stderr)
			defer bars.Close()
			req.Progress = bars.Update
		}

		res, err := pipeline.New(log.Logger, engine, engine).Run(cmd.Context(), req)
		if err != nil {
			return err
		}

		logger := logging.WithComponent("cli")
		logger.Info().
			Str("output", res.Output).
			Str("run", res.RunID).
			Int64("seed", res.Seed).
			Str("elapsed", util.FormatDuration(res.Elapsed)).
			Msg("render complete")
		return nil
	},
}

// planView is what the plan command prints
type planView struct {
	RunID  string         `yaml:"run_id"`
	Seed   int64          `yaml:"seed"`
	Output string         `yaml:"output"`
	Plan   *timeline.Plan `yaml:"plan"`
	Passes []passView     `yaml:"passes"`
}

// passView is the dry-run description of one engine pass
type passView struct {
	Name        string   `yaml:"name"`
	Output      string   `yaml:"output"`
	FilterGraph string   `yaml:"filter_graph"`
	Args        []string `yaml:"args"`
}

var planCmd = &cobra.Command{
	Use:   "plan",
	Short: "Print the timeline and filter graphs without rendering",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg := config.FromContext(cmd.Context())
		applyFlags(cmd, cfg)

		engine, err := newExecutor(cfg)
		if err != nil {
			return err
		}

		build, err := pipeline.New(log.Logger, engine, engine).DryRun(cmd.Context(), cfg)
		if err != nil {
			return err
		}

		out := planView{
			RunID:  build.RunID,
			Seed:   build.Seed,
			Output: build.Output,
			Plan:   build.Plan,
		}
		for _, job := range build.Jobs {
			out.Passes = append(out.Passes, passView{
				Name:        job.Name,
				Output:      job.Output,
				FilterGraph: job.Graph.String(),
				Args:        job.Args(),
			})
		}

		enc := yaml.NewEncoder(cmd.OutOrStdout())
		enc.SetIndent(2)
		defer enc.Close()
		return enc.Encode(out)
	},
}

var configCmd = &cobra.Command{
	Use:   "config",
	Short: "Config management commands",
}

var configInitCmd = &cobra.Command{
	Use:   "init [path]",
	Short: "Write the default configuration",
	Args:  cobra.MaximumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		path := "./glitchreel.yaml"
		if len(args) == 1 {
			path = args[0]
		}
		if util.FileExists(path) && !forceInit {
			return fmt.Errorf("%s already exists (use --force to overwrite)", path)
		}
		if err := config.Default().Save(path); err != nil {
			return err
		}
		logger := logging.WithComponent("cli")
		logger.Info().Str("path", path).Msg("config written")
		return nil
	},
}

var configShowCmd = &cobra.Command{
	Use:   "show",
	Short: "Print the effective configuration",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		data, err := yaml.Marshal(config.FromContext(cmd.Context()))
		if err != nil {
			return err
		}
		_, err = cmd.OutOrStdout().Write(data)
		return err
	},
}

var listCmd = &cobra.Command{
	Use:       "list [transitions|effects]",
	Short:     "List available transitions or glitch effects",
	Args:      cobra.MatchAll(cobra.ExactArgs(1), cobra.OnlyValidArgs),
	ValidArgs: []string{"transitions", "effects"},
	RunE: func(cmd *cobra.Command, args []string) error {
		w := cmd.OutOrStdout()
		switch args[0] {
		case "transitions":
			for _, t := range timeline.AllTransitions() {
				fmt.Fprintln(w, t)
			}
		case "effects":
			for _, e := range glitch.AllEffects() {
				fmt.Fprintln(w, e)
			}
		}
		return nil
	},
}
