// Command takeoffpro does blueprint quantity takeoff and estimating from the command line.
//
// Sessions are JSON files (*.takeoff) holding plans and their measurements.
// Preferences, the price list and what-if scenarios live in ~/.takeoffpro.
//
// Build:
//   go build -o takeoffpro ./cmd/takeoffpro

package main

import (
	"fmt"
	"log"
	"os"
)

// Version information - set by ldflags during build
var (
	Version   = "dev"
	BuildTime = "unknown"
	GitCommit = "unknown"
)

const usage = `takeoffpro - blueprint quantity takeoff and estimating

Usage: takeoffpro <command> [arguments]

Sessions:
  new <session> <project-id> [plan-image...]   Create a session file
  plan <session> <plan-image>                   Add a plan page and make it active
  select <session> <plan#>                      Make a plan the active one
  scale <session> <plan#> <ratio|preset>        Recalibrate a plan (e.g. 48, 1:48, 1/4" = 1')
  draw <session> [plan#] <type> <item-id> x,y [x,y...]
                                                Commit a measurement on the given or active plan
  overlay <session> [plan#] <drawing.dxf> kind=item...
                                                Commit DXF shapes (e.g. area=fl-001 count=el-001)
  remove <session> <measurement-id>             Remove a measurement from any plan
  summary <session>                             Print quantities, totals and what-if scenarios
  sessions                                      List recent and saved sessions ($SESSIONS_DIR)

Output:
  estimate <session> <name> <out.pdf|.xlsx|.json>   Generate an estimate
  export <session> <out.pdf|.xlsx>                  Export the takeoff with plan overlays
  labels <session> <out.pdf>                        Print QR labels for every measurement

Catalog:
  catalog                       List the price list
  catalog import <file>         Merge a CSV, XLSX or JSON price list
  catalog add <category> <name> <unit> <price>   Add a company item
  scales                        List architectural scale presets

AI:
  analyze <image> <name> <category[,category...]>   Analyze a document and store the estimate

Data:
  measure <type> <ratio|preset> x,y [x,y...]   Measure without a session
  backup <out.json>             Export config and company items
  restore <in.json>             Import config and company items

Options:
  --version, -v    Print version information
  --help, -h       Print this help message
`

func main() {
	if len(os.Args) < 2 {
		fmt.Print(usage)
		os.Exit(2)
	}

	switch os.Args[1] {
	case "--version", "-v", "version":
		fmt.Printf("takeoffpro %s\n", Version)
		fmt.Printf("  Build time: %s\n", BuildTime)
		fmt.Printf("  Git commit: %s\n", GitCommit)
		return
	case "--help", "-h", "help":
		fmt.Print(usage)
		return
	}

	log.SetFlags(0)
	log.SetPrefix("takeoffpro: ")

	app, err := newCLI()
	if err != nil {
		log.Fatal(err)
	}
	if err := app.run(os.Args[1], os.Args[2:]); err != nil {
		log.Fatal(err)
	}
}
