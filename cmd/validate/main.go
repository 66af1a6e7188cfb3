// Command validate checks synthesis provider output against the report shape
// the service accepts. It reads one JSON document per file (or stdin when no
// files are given), runs the same boundary validation the service applies,
// and prints a per-document verdict. Useful when tuning prompts or comparing
// provider models.
//
// Usage:
//
//	go run ./cmd/validate report1.json report2.json
//	curl ... | go run ./cmd/validate
//	go run ./cmd/validate -mode location fix.json
package main

import (
	"flag"
	"fmt"
	"io"
	"os"

	"github.com/couchcryptid/weather-shield/internal/domain"
)

func main() {
	mode := flag.String("mode", "report", "payload kind to validate: report or location")
	flag.Parse()

	if *mode != "report" && *mode != "location" {
		fmt.Fprintf(os.Stderr, "unknown mode %q\n", *mode)
		os.Exit(2)
	}

	inputs := flag.Args()
	if len(inputs) == 0 {
		data, err := io.ReadAll(os.Stdin)
		if err != nil {
			fmt.Fprintf(os.Stderr, "read stdin: %v\n", err)
			os.Exit(2)
		}
		os.Exit(verdict("stdin", data, *mode))
	}

	exit := 0
	for _, path := range inputs {
		data, err := os.ReadFile(path)
		if err != nil {
			fmt.Fprintf(os.Stderr, "read %s: %v\n", path, err)
			exit = 2
			continue
		}
		if code := verdict(path, data, *mode); code > exit {
			exit = code
		}
	}
	os.Exit(exit)
}

// verdict validates one document and prints the result. Returns the process
// exit code contribution: 0 valid, 1 invalid.
func verdict(name string, data []byte, mode string) int {
	var err error
	switch mode {
	case "report":
		var report domain.SynthesisReport
		if report, err = domain.ParseSynthesisReport(data); err == nil {
			fmt.Printf("%s: OK (%d alerts, highest severity %s)\n",
				name, len(report.Alerts), domain.HighestSeverity(report.Alerts))
			return 0
		}
	case "location":
		var loc domain.ResolvedLocation
		if loc, err = domain.ParseResolvedLocation(data); err == nil {
			fmt.Printf("%s: OK (%s at %.4f, %.4f)\n", name, loc.Name, loc.Coord.Lat, loc.Coord.Lon)
			return 0
		}
	}
	fmt.Printf("%s: INVALID: %v\n", name, err)
	return 1
}
