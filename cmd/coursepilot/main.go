// Package main provides the coursepilot CLI entry point.
package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/joho/godotenv"
	"github.com/mlevans/coursepilot/cli"
	"github.com/spf13/cobra"
)

var (
	// Global flags
	provider string
	dbPath   string
	verbose  bool
)

func main() {
	// Load .env file if present (ignore "file not found" errors)
	if err := godotenv.Load(); err != nil {
		if !os.IsNotExist(err) {
			fmt.Fprintf(os.Stderr, "Warning: failed to load .env file: %v\n", err)
		}
	}

	rootCmd := &cobra.Command{
		Use:   "coursepilot",
		Short: "Question answering over indexed course materials",
		Long: `A retrieval-augmented assistant for course materials.

Course transcripts are chunked, embedded and stored locally. Queries go
to an LLM that can search course content and fetch course outlines via
tools, and answers come back with source attributions.`,
	}

	// Global flags
	rootCmd.PersistentFlags().StringVarP(&provider, "provider", "p", "", "LLM provider (anthropic, openai, gemini)")
	rootCmd.PersistentFlags().StringVar(&dbPath, "db", "", "Database path for the content store")
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "Show verbose output")

	rootCmd.AddCommand(serveCmd())
	rootCmd.AddCommand(askCmd())
	rootCmd.AddCommand(chatCmd())
	rootCmd.AddCommand(indexCmd())
	rootCmd.AddCommand(coursesCmd())

	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func options() cli.Options {
	return cli.Options{
		Provider: provider,
		DBPath:   dbPath,
		Verbose:  verbose,
	}
}

func serveCmd() *cobra.Command {
	var docsDir string

	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Start the HTTP API",
		Long: `Start the HTTP API for querying course materials.

Endpoints:
- POST   /api/query          ask a question, optionally in a session
- GET    /api/courses        catalog statistics
- DELETE /api/sessions/{id}  drop a session's history`,
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
			defer stop()
			return cli.Serve(ctx, docsDir, options())
		},
	}

	cmd.Flags().StringVar(&docsDir, "docs", "", "Directory of course documents to index at startup")

	return cmd
}

func askCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "ask [question]",
		Short: "Ask a single question",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return cli.Ask(context.Background(), args[0], options())
		},
	}
}

func chatCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "chat",
		Short: "Start an interactive chat session",
		RunE: func(cmd *cobra.Command, args []string) error {
			return cli.Chat(context.Background(), options())
		},
	}
}

func indexCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "index [path]",
		Short: "Index a course document or a directory of documents",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return cli.Index(context.Background(), args[0], options())
		},
	}
}

func coursesCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "courses",
		Short: "List indexed courses",
		RunE: func(cmd *cobra.Command, args []string) error {
			return cli.Courses(options())
		},
	}
}
