package main

import (
	"context"
	"fmt"
	"os"

	"gopkg.in/yaml.v3"

	"github.com/pthm/formup"
	"github.com/pthm/formup/lib/definition"
	"github.com/pthm/formup/lib/prompt"
)

const version = "0.1.0"

func main() {
	if len(os.Args) < 2 {
		printUsage()
		os.Exit(1)
	}

	cmd := os.Args[1]
	args := os.Args[2:]

	var err error
	switch cmd {
	case "check":
		err = runCheck(args)
	case "fill":
		err = runFill(args)
	case "serve":
		err = runServe(args)
	case "version":
		fmt.Printf("formup version %s\n", version)
	case "help", "-h", "--help":
		printUsage()
	default:
		fmt.Fprintf(os.Stderr, "unknown command: %s\n", cmd)
		printUsage()
		os.Exit(1)
	}
	if err != nil {
		fmt.Fprintf(os.Stderr, "error: %v\n", err)
		os.Exit(1)
	}
}

func printUsage() {
	fmt.Println(`formup - form state for server-rendered HTMX apps

Usage:
  formup <command> [arguments]

Commands:
  check <def.yaml>...   Validate form definitions
  fill <def.yaml>       Fill a form in the terminal and print the values
  serve <def.yaml>...   Serve forms over HTTP
  version               Print version
  help                  Show this help

Environment for serve:
  FORMUP_ADDR           Listen address (default :8080)
  FORMUP_KEY            State token key (random when unset)
  FORMUP_SEALED         Encrypt state tokens (default false)
  FORMUP_LOG_LEVEL      debug, info, warn or error (default info)
  FORMUP_STRIP_MARKUP   Strip HTML from submitted values (default false)

Examples:
  formup check forms/*.yaml
  formup fill forms/person.yaml
  FORMUP_ADDR=:3000 formup serve forms/person.yaml`)
}

func runCheck(args []string) error {
	if len(args) == 0 {
		return fmt.Errorf("check: no definition files given")
	}

	failed := 0
	for _, path := range args {
		def, err := definition.LoadFile(path)
		if err == nil {
			err = def.Check()
		}
		if err != nil {
			failed++
			fmt.Fprintf(os.Stderr, "FAIL %s\n%v\n", path, err)
			continue
		}
		fmt.Printf("ok   %s (%s, %d fields)\n", path, def.Name, len(def.Fields))
	}
	if failed > 0 {
		return fmt.Errorf("check: %d of %d definitions invalid", failed, len(args))
	}
	return nil
}

func runFill(args []string) error {
	if len(args) != 1 {
		return fmt.Errorf("fill: expected exactly one definition file")
	}
	def, err := definition.LoadFile(args[0])
	if err != nil {
		return err
	}
	m, err := def.Mount(formup.Options{})
	if err != nil {
		return err
	}
	form, err := formup.New(m.Descriptor, m.Options)
	if err != nil {
		return err
	}

	if def.Title != "" {
		fmt.Println(def.Title)
	}
	if _, err := prompt.NewFiller(prompt.WithConfirm()).Fill(context.Background(), form); err != nil {
		return err
	}

	out, err := yaml.Marshal(map[string]any(form.Values()))
	if err != nil {
		return err
	}
	_, err = os.Stdout.Write(out)
	return err
}
