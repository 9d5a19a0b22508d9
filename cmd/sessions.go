package main

import (
	"encoding/json"
	"os"

	"github.com/rotisserie/eris"
	"github.com/spf13/cobra"

	"github.com/sells-group/targeting-cli/internal/model"
	"github.com/sells-group/targeting-cli/internal/store"
)

var (
	sessionsStatus string
	sessionsLimit  int
)

var sessionsCmd = &cobra.Command{
	Use:   "sessions",
	Short: "Inspect analysis sessions",
}

var sessionsListCmd = &cobra.Command{
	Use:   "list",
	Short: "List analysis sessions",
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx := cmd.Context()

		st, err := initStore(ctx)
		if err != nil {
			return err
		}
		defer st.Close()

		sessions, err := st.ListSessions(ctx, store.SessionFilter{
			Status: model.SessionStatus(sessionsStatus),
			Limit:  sessionsLimit,
		})
		if err != nil {
			return eris.Wrap(err, "list sessions")
		}

		return printJSON(sessions)
	},
}

var sessionsGetCmd = &cobra.Command{
	Use:   "get <session-id>",
	Short: "Show one session with its recommendations and competitor analyses",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx := cmd.Context()
		sessionID := args[0]

		st, err := initStore(ctx)
		if err != nil {
			return err
		}
		defer st.Close()

		session, err := st.GetSession(ctx, sessionID)
		if err != nil {
			return eris.Wrap(err, "get session")
		}
		recs, err := st.ListRecommendations(ctx, sessionID)
		if err != nil {
			return eris.Wrap(err, "list recommendations")
		}
		competitors, err := st.ListCompetitorAnalyses(ctx, sessionID)
		if err != nil {
			return eris.Wrap(err, "list competitor analyses")
		}

		return printJSON(map[string]any{
			"session":         session,
			"recommendations": recs,
			"competitors":     competitors,
		})
	},
}

func printJSON(v any) error {
	enc := json.NewEncoder(os.Stdout)
	enc.SetIndent("", "  ")
	return eris.Wrap(enc.Encode(v), "encode output")
}

func init() {
	sessionsListCmd.Flags().StringVar(&sessionsStatus, "status", "", "filter by status (pending, processing, completed, failed)")
	sessionsListCmd.Flags().IntVar(&sessionsLimit, "limit", 20, "maximum sessions to list")
	sessionsCmd.AddCommand(sessionsListCmd, sessionsGetCmd)
	rootCmd.AddCommand(sessionsCmd)
}
