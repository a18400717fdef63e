package main

import (
	"context"
	"flag"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"strings"
	"syscall"

	_ "gitlab.com/gomidi/midi/v2/drivers/rtmididrv"

	fortuned "github.com/luddite478/fortuned-sub008"
	"github.com/luddite478/fortuned-sub008/engine"
	"github.com/luddite478/fortuned-sub008/midi"
	"github.com/luddite478/fortuned-sub008/model"
	"github.com/luddite478/fortuned-sub008/version"
)

func main() {
	midiPort := flag.String("m", "", "Send triggered notes to the first MIDI out port whose name contains this substring. Empty with -midi-list prints the available ports.")
	listPorts := flag.Bool("midi-list", false, "List the available MIDI out ports and exit.")
	manifest := flag.String("manifest", "", "Sample manifest file used to resolve sample ids in the project.")
	bpm := flag.Int("bpm", 0, "Override the project tempo.")
	startStep := flag.Int("start", 0, "Step to start playback from.")
	verbose := flag.Bool("verbose", false, "Log validation rejections and engine warnings.")
	versionFlag := flag.Bool("v", false, "Print version.")
	help := flag.Bool("h", false, "Show help.")
	flag.Usage = printUsage
	flag.Parse()
	if *versionFlag {
		fmt.Println(version.VersionOrHash)
		os.Exit(0)
	}
	if *help || (flag.NArg() == 0 && !*listPorts) {
		flag.Usage()
		os.Exit(0)
	}
	if *listPorts {
		for _, name := range midi.PortNames() {
			fmt.Println(name)
		}
		os.Exit(0)
	}

	level := slog.LevelWarn
	if *verbose {
		level = slog.LevelDebug
	}
	log := slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: level}))

	if err := run(flag.Arg(0), *manifest, *midiPort, *bpm, *startStep, log); err != nil {
		fmt.Fprintf(os.Stderr, "%v\n", err)
		os.Exit(1)
	}
}

func run(projectFile, manifestFile, midiPort string, bpm, startStep int, log *slog.Logger) error {
	e := engine.New(engine.WithLogger(log))
	if st := e.Init(); st != engine.StatusOK {
		return fmt.Errorf("engine init failed with status %d", st)
	}
	defer e.Cleanup()

	opts := []model.Option{model.WithLogger(log)}
	if manifestFile != "" {
		f, err := os.Open(manifestFile)
		if err != nil {
			return fmt.Errorf("could not open manifest %v: %v", manifestFile, err)
		}
		resolver, err := fortuned.ReadSampleManifest(f)
		f.Close()
		if err != nil {
			return fmt.Errorf("could not read manifest %v: %v", manifestFile, err)
		}
		opts = append(opts, model.WithResolver(resolver))
	}
	m := model.New(e, opts...)

	f, err := os.Open(projectFile)
	if err != nil {
		return fmt.Errorf("could not open project %v: %v", projectFile, err)
	}
	err = m.ReadProject(f)
	f.Close()
	if err != nil {
		return fmt.Errorf("could not load project %v: %v", projectFile, err)
	}
	if bpm > 0 {
		m.Playback.SetBPM(bpm)
		m.Tick()
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	var out *midi.Output
	if midiPort != "" {
		out, err = midi.OpenOutput(midiPort, log)
		if err != nil {
			return err
		}
		defer out.Close()
		fmt.Fprintf(os.Stderr, "sending to MIDI port %v\n", out.Port())
	}

	if st := e.PlaybackStart(m.Playback.BPM(), startStep); st != engine.StatusOK {
		return fmt.Errorf("playback start failed with status %d", st)
	}
	defer e.PlaybackStop()

	for {
		select {
		case <-ctx.Done():
			return nil
		case trig := <-e.Triggers():
			printStep(trig)
			if out != nil {
				out.Play(trig)
			}
		}
	}
}

// printStep renders one trigger as a step line, slot letters at their
// columns.
func printStep(trig engine.StepTrigger) {
	row := []byte(strings.Repeat(".", fortuned.MaxCols))
	for i := 0; i < trig.Count; i++ {
		row[trig.Notes[i].Column] = fortuned.SlotLetter(trig.Notes[i].Slot)[0]
	}
	fmt.Printf("%4d |%s| section %d\n", trig.Step, row, trig.Section)
}

func printUsage() {
	fmt.Fprintf(os.Stderr, "Fortuned command line utility for playing .yml project files.\nUsage: %s [flags] projectfile\n", os.Args[0])
	flag.PrintDefaults()
}
