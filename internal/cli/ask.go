package cli

import (
	"fmt"
	"io"
	"strings"

	"github.com/fatih/color"
	"github.com/spf13/cobra"

	"askdoc/internal/domain"
)

func newAskCmd(a *app) *cobra.Command {
	var showSources bool
	cmd := &cobra.Command{
		Use:   "ask <question...>",
		Short: "Answer a single question from the indexed documents",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			question := strings.Join(args, " ")
			assistant, _, err := a.newAssistant()
			if err != nil {
				return err
			}
			w := cmd.OutOrStdout()
			answer, sources, err := assistant.AnswerWithSources(cmd.Context(), question)
			if showSources {
				printSources(w, sources)
			}
			if err != nil {
				return unableToAnswer(err)
			}
			color.New(color.FgGreen, color.Bold).Fprint(w, "Answer: ")
			fmt.Fprintln(w, answer.Text)
			return nil
		},
	}
	cmd.Flags().BoolVar(&showSources, "sources", false, "print the retrieved context before the answer")
	return cmd
}

func printSources(w io.Writer, results []domain.SearchResult) {
	head := color.New(color.FgCyan, color.Bold)
	dim := color.New(color.Faint)
	for i, r := range results {
		head.Fprintf(w, "[%d] %s #%d ", i+1, r.Chunk.Source, r.Chunk.Position)
		dim.Fprintf(w, "(score %.3f)\n", r.Score)
		fmt.Fprintln(w, r.Chunk.Text)
		fmt.Fprintln(w)
	}
}

type answerError struct{ err error }

func (e *answerError) Error() string { return "unable to answer: " + e.err.Error() }
func (e *answerError) Unwrap() error { return e.err }

func unableToAnswer(err error) error { return &answerError{err: err} }

// printError writes err with a hint for the error kinds a user can act on.
func printError(w io.Writer, err error) {
	color.New(color.FgRed, color.Bold).Fprint(w, "Error: ")
	fmt.Fprintln(w, err)
	hint := ""
	switch domain.Kind(err) {
	case domain.ErrIndexNotReady:
		hint = "run `askdoc ingest` first"
	case domain.ErrModelMismatch:
		hint = "the embedding model changed; re-run `askdoc ingest`"
	case domain.ErrProviderUnavailable:
		hint = "check that the embedding endpoint is reachable"
	}
	if hint != "" {
		color.New(color.FgYellow).Fprintln(w, "Hint: "+hint)
	}
}
