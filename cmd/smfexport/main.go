// Command smfexport renders a saved project to a Standard MIDI File.
package main

import (
	"flag"
	"fmt"
	"os"

	"go-tracker/automation"
	"go-tracker/config"
	"go-tracker/export"
	"go-tracker/mixer"
	"go-tracker/project"
	"go-tracker/song"
)

func main() {
	projectName := flag.String("project", "", "project to export (latest save)")
	save := flag.String("save", "", "save file within the project, default latest")
	file := flag.String("file", "", "project YAML file, instead of -project")
	demo := flag.Bool("demo", false, "export the demo song")
	kit := flag.String("kit", project.DefaultKit, "drum kit for the demo song")
	out := flag.String("o", "out.mid", "output file")
	flag.Parse()

	if err := run(*projectName, *save, *file, *demo, *kit, *out); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

func run(projectName, save, file string, demo bool, kit, out string) error {
	cfg, err := config.Load()
	if err != nil {
		return err
	}
	s := song.New(cfg.Limits)
	a := automation.NewService()
	mx := mixer.New()

	var doc *project.Document
	switch {
	case demo:
		if err := project.Demo(s, a, kit); err != nil {
			return err
		}
	case file != "":
		data, err := os.ReadFile(file)
		if err != nil {
			return err
		}
		if doc, err = project.Decode(data); err != nil {
			return err
		}
	case projectName != "":
		dir, err := cfg.ProjectsPath()
		if err != nil {
			return err
		}
		if doc, err = project.NewStore(dir).Load(projectName, save); err != nil {
			return err
		}
	default:
		flag.Usage()
		return nil
	}
	if doc != nil {
		if err := doc.Apply(s, a, mx); err != nil {
			return err
		}
	}

	if err := export.WriteFile(out, s, a, mx); err != nil {
		return err
	}
	fmt.Printf("Wrote %s\n", out)
	return nil
}
