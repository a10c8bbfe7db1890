package main

import (
	"bufio"
	"errors"
	"flag"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/chzyer/readline"
	"golang.org/x/term"
)

func replCommand(args []string) error {
	fs := flag.NewFlagSet("repl", flag.ContinueOnError)
	fs.SetOutput(new(flagErrorSink))
	opts := sessionFlags(fs)
	plain := fs.Bool("plain", false, "use a line editor instead of the full screen interface")
	if err := fs.Parse(args); err != nil {
		return err
	}
	if fs.NArg() > 0 {
		return fmt.Errorf("kwbind repl: unexpected arguments %v", fs.Args())
	}
	sess, err := newSession(*opts)
	if err != nil {
		return err
	}
	switch {
	case !term.IsTerminal(int(os.Stdin.Fd())):
		return runLines(sess, os.Stdin, os.Stdout)
	case *plain:
		return runReadline(sess)
	default:
		return runREPL(sess)
	}
}

// runLines executes every line read from r and writes one result line per
// input. Blank lines and lines starting with '#' are skipped. Failures are
// reported inline and counted.
func runLines(sess *session, r io.Reader, w io.Writer) error {
	scanner := bufio.NewScanner(r)
	failed := 0
	for lineNo := 1; scanner.Scan(); lineNo++ {
		line := strings.TrimSpace(scanner.Text())
		if line == "" || strings.HasPrefix(line, "#") {
			continue
		}
		out, err := sess.execute(line)
		if err != nil {
			failed++
			fmt.Fprintf(w, "%d: error: %v\n", lineNo, err)
			continue
		}
		fmt.Fprintf(w, "%d: %s\n", lineNo, out)
	}
	if err := scanner.Err(); err != nil {
		return fmt.Errorf("read input: %w", err)
	}
	if failed > 0 {
		return fmt.Errorf("%d line(s) failed", failed)
	}
	return nil
}

func runReadline(sess *session) error {
	rl, err := readline.NewEx(&readline.Config{
		Prompt:          "kwbind> ",
		AutoComplete:    newCompleter(sess),
		InterruptPrompt: "^C",
		EOFPrompt:       ":quit",
	})
	if err != nil {
		return err
	}
	defer rl.Close()

	for {
		line, err := rl.Readline()
		if errors.Is(err, readline.ErrInterrupt) {
			continue
		}
		if errors.Is(err, io.EOF) {
			return nil
		}
		if err != nil {
			return err
		}
		line = strings.TrimSpace(line)
		switch {
		case line == "":
			continue
		case line == ":quit" || line == ":q":
			return nil
		case line == ":keywords" || line == ":k":
			fmt.Println(strings.Join(sess.keywordNames(), "\n"))
			continue
		case line == ":vars" || line == ":v":
			fmt.Println(strings.Join(sess.variables(), "\n"))
			continue
		case strings.HasPrefix(line, ":doc "):
			line = strings.TrimSpace(strings.TrimPrefix(line, ":doc "))
			desc, err := sess.describeKeyword(line)
			printResult(desc, err)
			continue
		}
		printResult(sess.execute(line))
	}
}

func printResult(out string, err error) {
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		return
	}
	fmt.Println(out)
}

func newCompleter(sess *session) *readline.PrefixCompleter {
	return readline.NewPrefixCompleter(
		readline.PcItem("VAR"),
		readline.PcItem(":doc", readline.PcItemDynamic(func(string) []string {
			return sess.keywordNames()
		})),
		readline.PcItem(":keywords"),
		readline.PcItem(":vars"),
		readline.PcItem(":quit"),
		readline.PcItemDynamic(func(string) []string {
			return sess.keywordNames()
		}),
	)
}
