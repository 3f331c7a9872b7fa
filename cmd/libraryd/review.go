package main

import (
	"fmt"
	"io"
	"strings"
	"text/tabwriter"

	"github.com/pagevault/library/internal/clients"
	"github.com/pagevault/library/internal/repo"
	"github.com/pagevault/library/internal/review"
	"github.com/spf13/cobra"
)

type reviewFlags struct {
	api      string
	token    string
	email    string
	password string
}

func newReviewCmd() *cobra.Command {
	flags := &reviewFlags{}

	cmd := &cobra.Command{
		Use:   "review",
		Short: "List and review rental requests through a running server",
	}
	cmd.PersistentFlags().StringVar(&flags.api, "api", "", "API base URL (defaults to API_URL)")
	cmd.PersistentFlags().StringVar(&flags.token, "token", "", "admin bearer token")
	cmd.PersistentFlags().StringVar(&flags.email, "email", "", "admin email, used to log in when no token is given")
	cmd.PersistentFlags().StringVar(&flags.password, "password", "", "admin password; prompted when empty")

	cmd.AddCommand(
		newReviewListCmd(flags),
		newReviewActionCmd(flags, "accept", "Accept a pending request"),
		newReviewActionCmd(flags, "reject", "Reject a pending request"),
	)
	return cmd
}

func (f *reviewFlags) board(cmd *cobra.Command, needToken bool) (*review.Board, error) {
	cfg, log := setup()

	api := f.api
	if api == "" {
		api = cfg.APIURL
	}
	client := clients.NewLibraryClient(api, log, clients.WithToken(f.token))

	if needToken && f.token == "" {
		if f.email == "" {
			return nil, fmt.Errorf("--token or --email is required")
		}
		password := f.password
		if password == "" {
			var err error
			if password, err = readPassword(fmt.Sprintf("Password for %s: ", f.email)); err != nil {
				return nil, err
			}
		}
		if _, err := client.Login(cmd.Context(), f.email, password); err != nil {
			return nil, fmt.Errorf("login: %w", err)
		}
	}

	return review.Load(cmd.Context(), client, client, log)
}

func newReviewListCmd(flags *reviewFlags) *cobra.Command {
	var search, status string

	cmd := &cobra.Command{
		Use:   "list",
		Short: "Show rental requests",
		RunE: func(cmd *cobra.Command, args []string) error {
			board, err := flags.board(cmd, false)
			if err != nil {
				return err
			}
			rows, err := board.Filter(search, status)
			if err != nil {
				return err
			}
			printRows(cmd.OutOrStdout(), rows)
			return nil
		},
	}
	cmd.Flags().StringVar(&search, "search", "", "match user name, book title or genre")
	cmd.Flags().StringVar(&status, "status", review.StatusAll, "all, pending, accepted or rejected")
	return cmd
}

func newReviewActionCmd(flags *reviewFlags, action, short string) *cobra.Command {
	return &cobra.Command{
		Use:   action + " <rent-id>",
		Short: short,
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			board, err := flags.board(cmd, true)
			if err != nil {
				return err
			}

			apply := board.Accept
			if action == repo.ActionReject {
				apply = board.Reject
			}
			note, err := apply(cmd.Context(), args[0])
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "[%s] %s\n", note.Type, note.Message)
			return nil
		},
	}
}

const unknown = "(unknown)"

func printRows(out io.Writer, rows []repo.JoinedRental) {
	if len(rows) == 0 {
		fmt.Fprintln(out, "No rent requests.")
		return
	}

	w := tabwriter.NewWriter(out, 0, 0, 2, ' ', 0)
	fmt.Fprintln(w, "ID\tSTATUS\tUSER\tBOOK\tGENRE\tREQUESTED")
	for _, row := range rows {
		status := string(row.Status)
		if status == "" {
			status = review.StatusPending
		}
		user, title, genre := unknown, unknown, unknown
		if row.User != nil {
			user = row.User.FullName
		}
		if row.Book != nil {
			title, genre = row.Book.BookTitle, row.Book.Genre
		}
		fmt.Fprintf(w, "%s\t%s\t%s\t%s\t%s\t%s\n",
			row.ID,
			status,
			user,
			title,
			genre,
			row.CreatedAt.Format("2006-01-02 15:04"),
		)
	}
	w.Flush()
	fmt.Fprintln(out, strings.Repeat("-", 40))
	fmt.Fprintf(out, "%d request(s)\n", len(rows))
}
