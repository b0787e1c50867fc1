package main

import (
	"fmt"
	"io"
	"os"

	"github.com/spf13/cobra"

	"micromeda/internal/validate"
)

func validateCmd() *cobra.Command {
	var catalog string
	cmd := &cobra.Command{
		Use:   "validate",
		Short: "Lint a genome properties catalog",
		RunE: func(cmd *cobra.Command, args []string) error {
			return runValidate(catalog)
		},
	}
	cmd.Flags().StringVarP(&catalog, "catalog", "d", "", "Genome properties catalog file")
	return cmd
}

func runValidate(catalog string) error {
	g, err := loadCatalog(catalog)
	if err != nil {
		return err
	}

	report, err := validate.Run(g)
	if err != nil {
		return err
	}

	var errorIssues []validate.Issue
	var warnIssues []validate.Issue
	for _, issue := range report.Issues {
		switch issue.Severity {
		case validate.SeverityError:
			errorIssues = append(errorIssues, issue)
		case validate.SeverityWarn:
			warnIssues = append(warnIssues, issue)
		}
	}

	fmt.Fprintf(os.Stdout, "%d properties, root %s.\n", g.Len(), g.Root().ID)
	if len(errorIssues) == 0 && len(warnIssues) == 0 {
		fmt.Fprintln(os.Stdout, "No issues found.")
		return nil
	}

	if len(errorIssues) > 0 {
		fmt.Fprintf(os.Stdout, "Errors (%d):\n", len(errorIssues))
		printIssues(os.Stdout, errorIssues)
	}
	if len(warnIssues) > 0 {
		if len(errorIssues) > 0 {
			fmt.Fprintln(os.Stdout, "")
		}
		fmt.Fprintf(os.Stdout, "Warnings (%d):\n", len(warnIssues))
		printIssues(os.Stdout, warnIssues)
	}

	if report.HasErrors() {
		return fmt.Errorf("validation found errors")
	}
	return nil
}

func printIssues(out io.Writer, issues []validate.Issue) {
	for _, issue := range issues {
		location := issue.Property
		if issue.Step > 0 {
			location = fmt.Sprintf("%s step %d", issue.Property, issue.Step)
		}
		if location == "" {
			location = "catalog"
		}
		fmt.Fprintf(out, "  - %s: %s (%s)\n", location, issue.Message, issue.Code)
	}
}
