package main

import (
	"fmt"
	"io"
	"log/slog"
	"os"
	"os/user"
	"path/filepath"
	"strings"

	"github.com/spf13/cobra"

	"github.com/redcreates/qms/internal/adminlog"
	"github.com/redcreates/qms/internal/api"
	"github.com/redcreates/qms/internal/classifier"
	"github.com/redcreates/qms/internal/config"
	"github.com/redcreates/qms/internal/domain"
	"github.com/redcreates/qms/internal/drive"
	"github.com/redcreates/qms/internal/imagelib"
	"github.com/redcreates/qms/internal/parse"
	"github.com/redcreates/qms/internal/qbank"
	"github.com/redcreates/qms/internal/store"
)

var (
	dbPath     string
	configPath string
	adminName  string
	verbose    bool
	ephemeral  bool
)

func main() {
	home, _ := os.UserHomeDir()
	defaultDB := filepath.Join(home, ".qms", "qms.db")

	rootCmd := &cobra.Command{
		Use:   "qms",
		Short: "Quiz transcript parser and question bank",
	}

	rootCmd.PersistentFlags().StringVar(&dbPath, "db", defaultDB, "database path")
	rootCmd.PersistentFlags().StringVar(&configPath, "config", "", "YAML config file")
	rootCmd.PersistentFlags().StringVar(&adminName, "admin", "", "admin identity for log attribution")
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "debug logging")

	rootCmd.AddCommand(parseCmd())
	rootCmd.AddCommand(listCmd())
	rootCmd.AddCommand(showCmd())
	rootCmd.AddCommand(editCmd())
	rootCmd.AddCommand(removeCmd())
	rootCmd.AddCommand(restoreCmd())
	rootCmd.AddCommand(overrideCmd())
	rootCmd.AddCommand(imagesCmd())
	rootCmd.AddCommand(registerImageCmd())
	rootCmd.AddCommand(logCmd())
	rootCmd.AddCommand(statsCmd())
	rootCmd.AddCommand(resetCmd())
	rootCmd.AddCommand(serveCmd())

	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}

// env bundles everything a command needs against one open database.
type env struct {
	cfg    config.Config
	clf    *classifier.Classifier
	parser *parse.Parser
	bank   *qbank.Bank
	images *imagelib.Library
	alog   *adminlog.Log
	db     store.Tabular
	log    *slog.Logger
}

func openEnv() (*env, error) {
	level := slog.LevelInfo
	if verbose {
		level = slog.LevelDebug
	}
	logger := slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: level}))

	cfg, err := config.Load(configPath)
	if err != nil {
		return nil, err
	}

	var db store.Tabular
	if ephemeral {
		db = store.NewMemory()
	} else {
		if err := os.MkdirAll(filepath.Dir(dbPath), 0755); err != nil {
			return nil, fmt.Errorf("create db dir: %w", err)
		}
		db, err = store.Open(dbPath)
		if err != nil {
			return nil, err
		}
	}

	bank, err := qbank.New(db)
	if err != nil {
		db.Close()
		return nil, err
	}
	images, err := imagelib.New(db, bank, drive.NewClient(), logger)
	if err != nil {
		db.Close()
		return nil, err
	}
	alog, err := adminlog.New(db, actorIdentity(), logger)
	if err != nil {
		db.Close()
		return nil, err
	}

	clf := classifier.New(cfg)
	return &env{
		cfg:    cfg,
		clf:    clf,
		parser: parse.New(cfg, clf, logger),
		bank:   bank,
		images: images,
		alog:   alog,
		db:     db,
		log:    logger,
	}, nil
}

func (e *env) close() { e.db.Close() }

// actorIdentity resolves who gets attributed in the admin log: the --admin
// flag, then QMS_ADMIN, then the OS user.
func actorIdentity() string {
	if adminName != "" {
		return adminName
	}
	if v := os.Getenv("QMS_ADMIN"); v != "" {
		return v
	}
	if u, err := user.Current(); err == nil && u.Username != "" {
		return u.Username
	}
	return "unknown"
}

func parseCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "parse [file]",
		Short: "Parse a raw transcript into the question bank",
		Long:  "Reads a chat transcript from the given file, or stdin when the file is - or omitted.",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			var (
				data []byte
				err  error
			)
			if len(args) == 0 || args[0] == "-" {
				data, err = io.ReadAll(os.Stdin)
			} else {
				data, err = os.ReadFile(args[0])
			}
			if err != nil {
				return fmt.Errorf("read transcript: %w", err)
			}

			e, err := openEnv()
			if err != nil {
				return err
			}
			defer e.close()

			summary, err := e.parser.Run(string(data), e.bank, e.images)
			if err != nil {
				e.alog.Append(domain.ActionError, domain.SubjectSystem, "Parsing error: "+err.Error())
				return fmt.Errorf("parsing aborted after %d questions: %w", summary.Emitted, err)
			}

			e.alog.Append(domain.ActionParse, domain.SubjectSystem, summary.String())
			fmt.Printf("Parsing complete! %d questions processed", summary.Emitted)
			if summary.Duplicates > 0 {
				fmt.Printf(" (%d duplicates skipped)", summary.Duplicates)
			}
			fmt.Println()
			return nil
		},
	}
}

func listCmd() *cobra.Command {
	var pending bool

	cmd := &cobra.Command{
		Use:   "list",
		Short: "List questions in the bank",
		RunE: func(cmd *cobra.Command, args []string) error {
			e, err := openEnv()
			if err != nil {
				return err
			}
			defer e.close()

			var questions []domain.Question
			if pending {
				questions, err = e.bank.Pending()
			} else {
				questions, err = e.bank.List()
			}
			if err != nil {
				return err
			}

			if len(questions) == 0 {
				fmt.Println("No questions yet. Use 'qms parse' to ingest a transcript.")
				return nil
			}

			for _, q := range questions {
				marker := " "
				if q.NeedsReview {
					marker = "👀"
				}
				fmt.Printf("%s %-14s %s %-12s %s\n", marker, q.ID, q.TopicEmoji, q.Topic, truncate(q.Text, 60))
			}
			return nil
		},
	}

	cmd.Flags().BoolVar(&pending, "pending", false, "only questions flagged for review")
	return cmd
}

func showCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "show [id]",
		Short: "Show question details",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			e, err := openEnv()
			if err != nil {
				return err
			}
			defer e.close()

			q, err := e.bank.Get(args[0])
			if err != nil {
				return err
			}

			fmt.Printf("ID:       %s\n", q.ID)
			fmt.Printf("Author:   %s (%s)\n", q.Author, q.Date)
			fmt.Printf("Set/Day:  %s / Day %s\n", q.Set, q.Day)
			fmt.Printf("Topic:    %s %s\n", q.TopicEmoji, q.Topic)
			fmt.Printf("Type:     %s %s\n", q.TypeEmoji, q.Type)
			fmt.Printf("Status:   %s\n", q.Status)
			if q.Context != "" {
				fmt.Printf("Context:  %s\n", q.Context)
			}
			if q.ScreenshotURL != "" {
				fmt.Printf("Image:    %s\n", q.ScreenshotURL)
			}
			fmt.Printf("Question: %s\n", q.Text)
			return nil
		},
	}
}

func editCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "edit [id] [text...]",
		Short: "Replace a question's text",
		Args:  cobra.MinimumNArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			e, err := openEnv()
			if err != nil {
				return err
			}
			defer e.close()

			id := args[0]
			text := strings.Join(args[1:], " ")

			q, err := e.bank.Update(id, func(q *domain.Question) {
				q.Text = text
				if !strings.HasSuffix(q.Text, "?") {
					q.Text += "?"
				}
				topic := e.clf.Topic(q.Text)
				qtype := e.clf.Type(q.Text)
				q.Topic, q.TopicEmoji = topic.Name, topic.Emoji
				q.Type, q.TypeEmoji = qtype.Name, qtype.Emoji
				q.IsEdited = true
			})
			if err != nil {
				return err
			}

			e.alog.Append(domain.ActionEdit, id, "Question text replaced")
			fmt.Printf("Edited %s: %s\n", id, truncate(q.Text, 60))
			return nil
		},
	}
}

func removeCmd() *cobra.Command {
	return statusCmd("remove", "Mark a question as removed", domain.ActionRemove, domain.StatusRemoved)
}

func restoreCmd() *cobra.Command {
	return statusCmd("restore", "Mark a removed question as restored", domain.ActionRestore, domain.StatusRestored)
}

func overrideCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "override [id] [topic]",
		Short: "Manually set a question's topic, clearing the review flag",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			e, err := openEnv()
			if err != nil {
				return err
			}
			defer e.close()

			id := args[0]
			topic, ok := e.clf.LookupTopic(args[1])
			if !ok {
				return fmt.Errorf("unknown topic %q", args[1])
			}

			if _, err := e.bank.Update(id, func(q *domain.Question) {
				q.Topic, q.TopicEmoji = topic.Name, topic.Emoji
				q.Confidence = "100%"
				q.NeedsReview = false
			}); err != nil {
				return err
			}

			e.alog.Append(domain.ActionOverride, id, "Topic set to "+topic.Name)
			fmt.Printf("Override %s: topic is now %s %s\n", id, topic.Emoji, topic.Name)
			return nil
		},
	}
}

func statusCmd(use, short string, kind domain.ActionKind, status domain.Status) *cobra.Command {
	return &cobra.Command{
		Use:   use + " [id]",
		Short: short,
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			e, err := openEnv()
			if err != nil {
				return err
			}
			defer e.close()

			id := args[0]
			if _, err := e.bank.Update(id, func(q *domain.Question) {
				q.Status = status
			}); err != nil {
				return err
			}

			e.alog.Append(kind, id, "Status set to "+string(status))
			fmt.Printf("%s: %s\n", status, id)
			return nil
		},
	}
}

func imagesCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "images",
		Short: "List the image library",
		RunE: func(cmd *cobra.Command, args []string) error {
			e, err := openEnv()
			if err != nil {
				return err
			}
			defer e.close()

			entries, err := e.images.List()
			if err != nil {
				return err
			}

			if len(entries) == 0 {
				fmt.Println("No images yet. Screenshots are registered during parsing.")
				return nil
			}

			for _, img := range entries {
				fmt.Printf("%s  %-20s %s\n", img.ImageID, img.TopicLabel, img.AssociatedIDs)
			}
			return nil
		},
	}
}

func registerImageCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "register-image [url] [question-id]",
		Short: "Register a screenshot against a question",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			e, err := openEnv()
			if err != nil {
				return err
			}
			defer e.close()

			if err := e.images.Register(args[0], args[1]); err != nil {
				return err
			}
			fmt.Printf("Registered image for %s\n", args[1])
			return nil
		},
	}
}

func logCmd() *cobra.Command {
	var limit int

	cmd := &cobra.Command{
		Use:   "log",
		Short: "Show the admin log",
		RunE: func(cmd *cobra.Command, args []string) error {
			e, err := openEnv()
			if err != nil {
				return err
			}
			defer e.close()

			entries, err := e.alog.Entries()
			if err != nil {
				return err
			}

			if limit > 0 && len(entries) > limit {
				entries = entries[len(entries)-limit:]
			}
			for _, le := range entries {
				fmt.Printf("%s  %-16s %-10s %-14s %s\n",
					le.Timestamp.Format("01/02/2006 15:04:05"),
					le.Actor, le.Action, le.SubjectID, le.Details)
			}
			return nil
		},
	}

	cmd.Flags().IntVarP(&limit, "limit", "n", 0, "show only the last n entries")
	return cmd
}

func statsCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "stats",
		Short: "Show rollup statistics from the admin log",
		RunE: func(cmd *cobra.Command, args []string) error {
			e, err := openEnv()
			if err != nil {
				return err
			}
			defer e.close()

			snap, err := e.alog.Rollup()
			if err != nil {
				return err
			}
			for _, line := range adminlog.DashboardLines(snap) {
				fmt.Println(line)
			}
			return nil
		},
	}
}

func resetCmd() *cobra.Command {
	var yes bool

	cmd := &cobra.Command{
		Use:   "reset",
		Short: "Clear parsing results and the image library, preserving the admin log",
		RunE: func(cmd *cobra.Command, args []string) error {
			if !yes {
				return fmt.Errorf("reset clears Parsing Results and Image Library; re-run with --yes to confirm")
			}

			e, err := openEnv()
			if err != nil {
				return err
			}
			defer e.close()

			e.alog.Append(domain.ActionReset, domain.SubjectSystem, "Starting system reset (preserving Admin Log)")
			if err := e.bank.Clear(); err != nil {
				return err
			}
			if err := e.images.Clear(); err != nil {
				return err
			}
			e.alog.Append(domain.ActionReset, domain.SubjectSystem, "System reset completed (Admin Log preserved)")

			fmt.Println("Reset complete! (Admin Log preserved)")
			return nil
		},
	}

	cmd.Flags().BoolVar(&yes, "yes", false, "confirm the reset")
	return cmd
}

func serveCmd() *cobra.Command {
	var addr string

	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Start the REST API server",
		RunE: func(cmd *cobra.Command, args []string) error {
			e, err := openEnv()
			if err != nil {
				return err
			}
			// Note: no close, the server runs indefinitely.

			server := api.New(e.parser, e.bank, e.images, e.alog, e.clf, addr, e.log)
			return server.Run()
		},
	}

	cmd.Flags().StringVarP(&addr, "addr", "a", ":8080", "server address")
	cmd.Flags().BoolVar(&ephemeral, "ephemeral", false, "in-memory store, nothing persisted")
	return cmd
}

func truncate(s string, max int) string {
	s = strings.ReplaceAll(s, "\n", " ")
	if len(s) <= max {
		return s
	}
	return s[:max-3] + "..."
}
