package cmd

import (
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/spigell/talent-match/internal/recruitment"
)

var analyzeCmd = &cobra.Command{
	Use:   "analyze",
	Short: "Analyze a candidate profile without a vacancy",
	Run: func(cmd *cobra.Command, _ []string) {
		runAnalyze(cmd)
	},
}

func init() {
	rootCmd.AddCommand(analyzeCmd)

	analyzeCmd.Flags().StringP("profile", "p", "", "candidate profile file (yaml or json)")
	analyzeCmd.MarkFlagRequired("profile")
}

func runAnalyze(cmd *cobra.Command) {
	ctx, cancel, logger, eng := setup()
	defer cancel()
	defer logger.Sync()

	var profile recruitment.ProfileSnapshot
	if err := decodeInput(flagString(cmd, "profile"), "", &profile); err != nil {
		logger.Fatal("reading the profile", zap.Error(err))
	}

	analysis, err := eng.analyzer.Analyze(ctx, &profile)
	if err != nil {
		logger.Fatal("analyzing the profile", zap.Error(err))
	}

	if err := printJSON(analysis); err != nil {
		logger.Fatal("printing the result", zap.Error(err))
	}
}
