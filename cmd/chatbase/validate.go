package main

import (
	"errors"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/frogmud/NEVERDIEGUY26-sub001/internal/chatbase"
)

var errInvalid = errors.New("validation found errors")

func validateCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "validate <dir>",
		Short: "Check a chatbase directory for manifest and file consistency",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runValidate(cmd, args[0])
		},
	}
}

func runValidate(cmd *cobra.Command, dir string) error {
	out := cmd.OutOrStdout()
	err := chatbase.Validate(dir)
	if err == nil {
		fmt.Fprintln(out, "No issues found.")
		return nil
	}

	problems := []error{err}
	if joined, ok := err.(interface{ Unwrap() []error }); ok {
		problems = joined.Unwrap()
	}
	fmt.Fprintf(out, "Errors (%d):\n", len(problems))
	for _, p := range problems {
		fmt.Fprintf(out, "  - %v\n", p)
	}
	return errInvalid
}
