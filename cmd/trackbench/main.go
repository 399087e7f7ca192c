// Command trackbench runs the tracker, evaluator, and parameter tuner
// described by this module against JSON clip files.
//
// Grounded on the teacher's examples/simple and examples/benchmark_rectangles
// mains (plain fmt/log, no CLI framework) and the original tool's three
// separate argparse scripts (tracker.py, evaluator.py, optimizer.py),
// collapsed here into one binary with three subcommands since none of the
// example repos pull in a CLI framework (cobra, urfave/cli, kingpin) — the
// whole pack does its flag parsing with the standard library, so this
// follows suit rather than introducing one.
package main

import (
	"flag"
	"fmt"
	"log"
	"os"
	"sort"
	"text/tabwriter"

	"github.com/schollz/progressbar/v3"
	"golang.org/x/term"

	"github.com/tracklab/trackbench/clipio"
	"github.com/tracklab/trackbench/clipset"
	"github.com/tracklab/trackbench/eval"
	"github.com/tracklab/trackbench/track"
	"github.com/tracklab/trackbench/tune"
)

func main() {
	log.SetFlags(0)
	log.SetOutput(os.Stdout)

	if len(os.Args) < 2 {
		usage()
		os.Exit(1)
	}

	var err error
	switch os.Args[1] {
	case "track":
		err = runTrack(os.Args[2:])
	case "evaluate":
		err = runEvaluate(os.Args[2:])
	case "tune":
		err = runTune(os.Args[2:])
	default:
		usage()
		os.Exit(1)
	}

	if err != nil {
		log.Printf("trackbench: %v", err)
		os.Exit(1)
	}
}

func usage() {
	fmt.Fprintln(os.Stderr, "usage: trackbench <track|evaluate|tune> [flags]")
}

func runTrack(args []string) error {
	fs := flag.NewFlagSet("track", flag.ExitOnError)
	detectionsPath := fs.String("detections", "", "path to a detections JSON file")
	paramsPath := fs.String("params", "", "path to a TrackerSettings parameters JSON file")
	outPath := fs.String("out", "", "path to write the tracked-output JSON file")
	if err := fs.Parse(args); err != nil {
		return err
	}
	if *detectionsPath == "" || *paramsPath == "" || *outPath == "" {
		return fmt.Errorf("track: --detections, --params, and --out are all required")
	}

	settings, err := clipio.LoadParameters(*paramsPath)
	if err != nil {
		return err
	}
	detections, err := clipio.LoadDetections(*detectionsPath)
	if err != nil {
		return err
	}

	tracker, err := track.New(settings)
	if err != nil {
		return err
	}

	frames := clipio.SortedFrameKeys(detections)
	bar := newProgressBar(len(frames), "tracking")

	tracked := make(map[int][]track.Published, len(frames))
	for _, frame := range frames {
		out, err := tracker.Step(detections[frame])
		if err != nil {
			return err
		}
		tracked[frame] = out
		bar.Add(1)
	}

	if err := clipio.SaveTracked(*outPath, tracked); err != nil {
		return err
	}
	log.Printf("track: wrote %d frames to %s", len(tracked), *outPath)
	return nil
}

func runEvaluate(args []string) error {
	fs := flag.NewFlagSet("evaluate", flag.ExitOnError)
	referencesPath := fs.String("references", "", "path to a references JSON file")
	trackedPath := fs.String("tracked", "", "path to a tracked-output JSON file")
	if err := fs.Parse(args); err != nil {
		return err
	}
	if *referencesPath == "" || *trackedPath == "" {
		return fmt.Errorf("evaluate: --references and --tracked are both required")
	}

	references, err := clipio.LoadReferences(*referencesPath)
	if err != nil {
		return err
	}
	trackedRaw, err := clipio.LoadTracked(*trackedPath)
	if err != nil {
		return err
	}

	refFrames := make(map[int]eval.Frame, len(references))
	for frame, entries := range references {
		obs := make(eval.Frame, len(entries))
		for i, e := range entries {
			obs[i] = eval.Observation{ID: e.ID, Position: e.Position}
		}
		refFrames[frame] = obs
	}
	trackedFrames := make(map[int]eval.Frame, len(trackedRaw))
	for frame, entries := range trackedRaw {
		obs := make(eval.Frame, len(entries))
		for i, e := range entries {
			obs[i] = eval.Observation{ID: e.ID, Position: e.Position}
		}
		trackedFrames[frame] = obs
	}

	stats := eval.Evaluate(refFrames, trackedFrames)
	printStatisticsTable(stats)

	loss, err := stats.Loss()
	if err != nil {
		return err
	}
	log.Printf("evaluate: scalar loss = %.4f", loss)
	return nil
}

func runTune(args []string) error {
	fs := flag.NewFlagSet("tune", flag.ExitOnError)
	manifestPath := fs.String("manifest", "", "path to a clipset manifest (.ini)")
	trials := fs.Int("trials", 50, "number of optimizer trials to run")
	outPath := fs.String("out", "", "path to write the best trial's parameters JSON file")
	seed := fs.Uint64("seed", 1, "random search seed")
	if err := fs.Parse(args); err != nil {
		return err
	}
	if *manifestPath == "" {
		return fmt.Errorf("tune: --manifest is required")
	}
	if _, err := clipset.Load(*manifestPath); err != nil {
		return err
	}

	objective, err := tune.NewObjective(*manifestPath)
	if err != nil {
		return err
	}

	opt := &tune.Optimizer{Objective: objective, Strategy: tune.NewRandomSearch(*seed)}

	bar := newProgressBar(*trials, "tuning")
	best := tune.Trial{}
	for i := 0; i < *trials; i++ {
		trial, _, err := opt.Run(1)
		if err != nil {
			return err
		}
		if i == 0 || trial.Loss < best.Loss {
			best = trial
		}
		bar.Add(1)
	}

	log.Printf("tune: best loss = %.4f after %d trials", best.Loss, *trials)

	if *outPath != "" {
		if err := clipio.SaveParameters(*outPath, best.Settings); err != nil {
			return err
		}
		log.Printf("tune: wrote best parameters to %s", *outPath)
	}
	return nil
}

func newProgressBar(total int, description string) *progressbar.ProgressBar {
	width, _, err := term.GetSize(int(os.Stdout.Fd()))
	if err != nil || width <= 0 {
		width = 40
	}
	width = min(width, 40)
	return progressbar.NewOptions(total,
		progressbar.OptionSetDescription(description),
		progressbar.OptionSetWidth(width),
		progressbar.OptionSetWriter(os.Stdout),
	)
}

// printStatisticsTable renders per-reference statistics, supplementing the
// original tool's tabulate-based console tables. No example repo pulls in
// a table-rendering library, so this uses the standard library's
// text/tabwriter rather than reaching for one.
func printStatisticsTable(stats *eval.Statistics) {
	w := tabwriter.NewWriter(os.Stdout, 0, 2, 2, ' ', 0)
	fmt.Fprintln(w, "reference\tlifespan\ttracked_pct\tswitches")

	ids := make([]int, 0, len(stats.References))
	for id := range stats.References {
		ids = append(ids, id)
	}
	sort.Ints(ids)
	for _, id := range ids {
		rs := stats.References[id]
		fmt.Fprintf(w, "%d\t%d\t%.1f\t%d\n", id, rs.Lifespan, rs.TrackedPercentage, rs.IDSwitches)
	}
	w.Flush()
	fmt.Printf("false_positives: %d\n", stats.FalsePositives)
}
