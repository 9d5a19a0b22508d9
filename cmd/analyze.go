package main

import (
	"encoding/json"
	"os"

	"github.com/rotisserie/eris"
	"github.com/spf13/cobra"
	"go.uber.org/zap"
)

var (
	analyzeCompetitors []string
	analyzeKeywords    []string
)

var analyzeCmd = &cobra.Command{
	Use:   "analyze <url>",
	Short: "Analyze a website and generate targeting recommendations",
	Long:  "Runs the full pipeline synchronously: website analysis, optional competitor analysis, then Meta and Google targeting generation. Prints the session result and recommendations as JSON.",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx := cmd.Context()

		env, err := initEnv(ctx)
		if err != nil {
			return err
		}
		defer env.Close()

		session, err := env.Store.CreateSession(ctx, args[0], analyzeCompetitors, analyzeKeywords)
		if err != nil {
			return eris.Wrap(err, "create session")
		}
		zap.L().Info("session created", zap.String("session_id", session.ID))

		result, runErr := env.Pipeline.Run(ctx, session)

		recs, err := env.Store.ListRecommendations(ctx, session.ID)
		if err != nil {
			return eris.Wrap(err, "list recommendations")
		}
		competitors, err := env.Store.ListCompetitorAnalyses(ctx, session.ID)
		if err != nil {
			return eris.Wrap(err, "list competitor analyses")
		}

		out := map[string]any{
			"session_id":      session.ID,
			"url":             session.URL,
			"result":          result,
			"recommendations": recs,
			"competitors":     competitors,
		}
		enc := json.NewEncoder(os.Stdout)
		enc.SetIndent("", "  ")
		if err := enc.Encode(out); err != nil {
			return eris.Wrap(err, "encode output")
		}

		return runErr
	},
}

func init() {
	analyzeCmd.Flags().StringSliceVar(&analyzeCompetitors, "competitor", nil, "competitor URL (repeatable)")
	analyzeCmd.Flags().StringSliceVar(&analyzeKeywords, "keyword", nil, "seed keyword (repeatable)")
	rootCmd.AddCommand(analyzeCmd)
}
