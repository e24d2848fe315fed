package main

import (
	"errors"
	"fmt"
	"io"
	"os"
	"strings"
	"time"

	"github.com/spf13/cobra"

	"ccdemo/contexts/streaming/word-pipeline/domain/services"
)

const usageLine = "Usage: wordprint [--delay-ms N] < input.txt"

// usageError marks argument problems; they exit with status 2.
type usageError struct {
	err error
}

func (e usageError) Error() string { return e.err.Error() }
func (e usageError) Unwrap() error { return e.err }

func main() {
	os.Exit(run(os.Args[1:], os.Stdin, os.Stdout, os.Stderr, time.Sleep))
}

// run prints stdin word by word, sleeping after each word, and returns the
// process exit status.
func run(args []string, stdin io.Reader, stdout io.Writer, stderr io.Writer, sleep func(time.Duration)) int {
	cmd := buildRootCmd(stdin, stdout, stderr, sleep)
	// A nil slice makes cobra fall back to os.Args.
	if args == nil {
		args = []string{}
	}
	cmd.SetArgs(args)

	err := checkFlagSyntax(args)
	if err == nil {
		err = cmd.Execute()
	}
	if err == nil {
		// Help is not a recognised flag; cobra reports it as a successful run.
		if help, _ := cmd.Flags().GetBool("help"); !help {
			return 0
		}
		err = usageError{errors.New("unknown flag: --help")}
	}
	_, _ = fmt.Fprintln(stderr, err)
	var usage usageError
	if errors.As(err, &usage) {
		_, _ = fmt.Fprintln(stderr, usageLine)
		return 2
	}
	return 1
}

// checkFlagSyntax only accepts the separated "--delay-ms N" form.
func checkFlagSyntax(args []string) error {
	for _, arg := range args {
		if arg == "--" {
			return nil
		}
		if strings.HasPrefix(arg, "--delay-ms=") {
			return usageError{fmt.Errorf("unknown flag: %s", arg)}
		}
	}
	return nil
}

func buildRootCmd(stdin io.Reader, stdout io.Writer, stderr io.Writer, sleep func(time.Duration)) *cobra.Command {
	var delayMS int64

	cmd := &cobra.Command{
		Use:           "wordprint",
		Short:         "Print text from stdin one word at a time",
		SilenceUsage:  true,
		SilenceErrors: true,
		Args: func(_ *cobra.Command, args []string) error {
			if len(args) > 0 {
				return usageError{fmt.Errorf("unknown arg: %s", args[0])}
			}
			return nil
		},
		RunE: func(_ *cobra.Command, _ []string) error {
			if delayMS < 0 {
				return usageError{fmt.Errorf("invalid --delay-ms value: %d", delayMS)}
			}
			return printWords(stdin, stdout, stderr, time.Duration(delayMS)*time.Millisecond, sleep)
		},
	}
	cmd.CompletionOptions.DisableDefaultCmd = true
	cmd.SetIn(stdin)
	cmd.SetOut(stdout)
	cmd.SetErr(stderr)
	cmd.SetHelpFunc(func(*cobra.Command, []string) {})
	cmd.SetFlagErrorFunc(func(_ *cobra.Command, err error) error {
		return usageError{err}
	})
	cmd.Flags().Int64Var(&delayMS, "delay-ms", 200, "delay after each word in milliseconds")
	return cmd
}

func printWords(stdin io.Reader, stdout io.Writer, stderr io.Writer, delay time.Duration, sleep func(time.Duration)) error {
	raw, err := io.ReadAll(stdin)
	if err != nil || strings.TrimSpace(string(raw)) == "" {
		_, _ = fmt.Fprintln(stderr, "Provide text via stdin. Example:")
		_, _ = fmt.Fprintln(stderr, "  cat your_lyrics.txt | wordprint --delay-ms 150")
		return nil
	}

	first := true
	for word := range services.NewWordSource(string(raw)).Words() {
		if !first {
			if _, err := io.WriteString(stdout, " "); err != nil {
				return err
			}
		}
		first = false
		if _, err := io.WriteString(stdout, word); err != nil {
			return err
		}
		sleep(delay)
	}
	_, err = io.WriteString(stdout, "\n")
	return err
}
