package main

import (
	"errors"
	"flag"
	"fmt"
	"log"
	"os"
	"path/filepath"
	"strings"

	"google.golang.org/protobuf/encoding/protojson"
	"google.golang.org/protobuf/proto"

	"github.com/mgomes/kwbind/kwbind"
)

func main() {
	log.SetPrefix("kwbind: ")
	log.SetFlags(0)
	if err := runCLI(os.Args); err != nil {
		log.Fatal(err)
	}
}

func runCLI(args []string) error {
	if len(args) < 2 {
		return usageError()
	}
	switch args[1] {
	case "bind":
		return bindCommand(args[2:])
	case "repl":
		return replCommand(args[2:])
	case "help", "-h", "--help":
		printUsage()
		return nil
	default:
		return usageError()
	}
}

// sessionFlags registers the flags shared by every subcommand that builds
// an engine.
func sessionFlags(fs *flag.FlagSet) *sessionOptions {
	opts := new(sessionOptions)
	fs.Var(&opts.libraries, "library", "load keyword declarations from a YAML file (repeatable)")
	fs.Var(&opts.vars, "var", "define a variable as name=value (repeatable)")
	fs.BoolVar(&opts.useEnv, "env", false, "resolve %{NAME} references from the process environment")
	fs.BoolVar(&opts.strictDefaults, "strict-defaults", false, "fail when a value cannot be converted to a type inferred from a default")
	fs.BoolVar(&opts.verbose, "v", false, "trace conversions to stderr")
	return opts
}

func bindCommand(args []string) error {
	fs := flag.NewFlagSet("bind", flag.ContinueOnError)
	fs.SetOutput(new(flagErrorSink))
	opts := sessionFlags(fs)
	if err := fs.Parse(args); err != nil {
		return err
	}
	remaining := fs.Args()
	if len(remaining) == 0 {
		return errors.New("kwbind bind: keyword name required")
	}
	sess, err := newSession(*opts)
	if err != nil {
		return err
	}
	call, err := sess.engine.BindRaw(sess.scope, remaining[0], remaining[1:])
	if err != nil {
		if printErr := printMessage(kwbind.ErrorProto(err)); printErr != nil {
			return printErr
		}
		return fmt.Errorf("bind failed: %w", err)
	}
	msg, err := call.Proto()
	if err != nil {
		return fmt.Errorf("export bound call: %w", err)
	}
	return printMessage(msg)
}

func printMessage(msg proto.Message) error {
	data, err := protojson.MarshalOptions{Multiline: true, Indent: "  "}.Marshal(msg)
	if err != nil {
		return fmt.Errorf("encode result: %w", err)
	}
	fmt.Println(string(data))
	return nil
}

func usageError() error {
	printUsage()
	return errors.New("invalid command")
}

func printUsage() {
	prog := filepath.Base(os.Args[0])
	fmt.Fprintf(os.Stderr, "Usage: %s bind [flags] <keyword> [args...]\n", prog)
	fmt.Fprintf(os.Stderr, "       %s repl [flags] [-plain]\n", prog)
	fmt.Fprintln(os.Stderr, "Flags:")
	fmt.Fprintln(os.Stderr, "  -library <file>")
	fmt.Fprintln(os.Stderr, "    load keyword declarations from a YAML file (repeatable)")
	fmt.Fprintln(os.Stderr, "  -var name=value")
	fmt.Fprintln(os.Stderr, "    define a variable before binding (repeatable)")
	fmt.Fprintln(os.Stderr, "  -env")
	fmt.Fprintln(os.Stderr, "    resolve %{NAME} references from the process environment")
	fmt.Fprintln(os.Stderr, "  -strict-defaults")
	fmt.Fprintln(os.Stderr, "    fail when a value does not match the type of a parameter's default")
	fmt.Fprintln(os.Stderr, "  -v")
	fmt.Fprintln(os.Stderr, "    trace conversions to stderr")
	fmt.Fprintln(os.Stderr, "  -plain")
	fmt.Fprintln(os.Stderr, "    repl only: use a line editor instead of the full screen interface")
}

type flagErrorSink struct{}

func (flagErrorSink) Write(p []byte) (int, error) {
	return len(p), nil
}

type stringList []string

func (l *stringList) String() string {
	return strings.Join(*l, ",")
}

func (l *stringList) Set(value string) error {
	*l = append(*l, value)
	return nil
}
