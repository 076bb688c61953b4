package main

import (
	"encoding/json"
	"flag"
	"fmt"
	"os"
	"strings"

	"github.com/phuslu/log"

	"github.com/myuser/astrobase/internal/client"
	"github.com/myuser/astrobase/internal/config"
	"github.com/myuser/astrobase/internal/server"
)

var logger = &log.Logger{
	Level:  log.InfoLevel,
	Writer: &log.ConsoleWriter{Writer: os.Stderr, ColorOutput: true},
}

func main() {
	endpoint := flag.String("endpoint", config.DefaultEndpoint, "The service endpoint")
	flag.Usage = printUsage
	flag.Parse()

	args := flag.Args()
	if len(args) == 0 {
		printUsage()
		os.Exit(1)
	}

	c := client.New(*endpoint)
	var out server.Output
	var err error

	switch cmd := args[0]; cmd {
	case "get":
		need(args, 1)
		out, err = c.Get(args[1])
	case "insert":
		need(args, 2)
		out, err = c.Insert(args[1], args[2])
	case "delete":
		need(args, 1)
		out, err = c.Delete(args[1])
	case "update":
		need(args, 2)
		out, err = c.Update(args[1], args[2])
	case "sql":
		if len(args) < 2 {
			printUsage()
			os.Exit(1)
		}
		out, err = c.Execute(strings.Join(args[1:], " "))
	case "metrics":
		snapshot, err := c.Metrics()
		if err != nil {
			logger.Fatal().Err(err).Str("endpoint", *endpoint).Msg("metrics")
		}
		printJSON(snapshot)
		return
	case "help":
		printUsage()
		return
	default:
		fmt.Fprintf(os.Stderr, "Unknown command: %s\n", cmd)
		printUsage()
		os.Exit(1)
	}

	if err != nil {
		logger.Fatal().Err(err).Str("endpoint", *endpoint).Msg(args[0])
	}
	printJSON(out)
	if !out.OK {
		os.Exit(1)
	}
}

func need(args []string, n int) {
	if len(args) != n+1 {
		fmt.Fprintf(os.Stderr, "Error: %s takes %d argument(s)\n", args[0], n)
		printUsage()
		os.Exit(1)
	}
}

func printJSON(v any) {
	enc := json.NewEncoder(os.Stdout)
	enc.SetIndent("", "  ")
	enc.Encode(v)
}

func printUsage() {
	fmt.Fprintf(os.Stderr, `Astrobase key-value database client

Usage:
  astrobase-client [-endpoint ADDR] <command> [arguments]

Commands:
  get KEY             Get value by key
  insert KEY VALUE    Insert new record
  delete KEY          Delete record by key
  update KEY VALUE    Update value by key
  sql STATEMENT       Run one SQL statement
  metrics             Show server counters
  help                Show this help

Examples:
  astrobase-client insert a 1
  astrobase-client -endpoint 10.0.0.5:50051 get a
  astrobase-client sql "UPDATE t SET v = '2' WHERE k = 'a'"
`)
}
