package cmd

import (
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/spigell/talent-match/internal/recruitment"
)

var matchCmd = &cobra.Command{
	Use:   "match",
	Short: "Compute the compatibility of one candidate with one vacancy",
	Run: func(cmd *cobra.Command, _ []string) {
		runMatch(cmd)
	},
}

func init() {
	rootCmd.AddCommand(matchCmd)

	matchCmd.Flags().StringP("profile", "p", "", "candidate profile file (yaml or json)")
	matchCmd.Flags().StringP("vacancy", "v", "", "vacancy file (yaml or json)")
	matchCmd.MarkFlagRequired("profile")
	matchCmd.MarkFlagRequired("vacancy")
}

func runMatch(cmd *cobra.Command) {
	ctx, cancel, logger, eng := setup()
	defer cancel()
	defer logger.Sync()

	var profile recruitment.ProfileSnapshot
	if err := decodeInput(flagString(cmd, "profile"), "", &profile); err != nil {
		logger.Fatal("reading the profile", zap.Error(err))
	}

	var vacancy recruitment.VacancySnapshot
	if err := decodeInput(flagString(cmd, "vacancy"), "", &vacancy); err != nil {
		logger.Fatal("reading the vacancy", zap.Error(err))
	}

	result, err := eng.matcher.Match(ctx, &profile, &vacancy)
	if err != nil {
		logger.Fatal("matching", zap.Error(err))
	}

	logger.Info("compatibility computed",
		zap.String("profile_id", profile.ID),
		zap.String("vacancy_id", vacancy.ID),
		zap.Int("percentage", result.Percentage),
		zap.String("source", string(result.Source)),
	)

	if err := printJSON(result); err != nil {
		logger.Fatal("printing the result", zap.Error(err))
	}
}

func flagString(cmd *cobra.Command, name string) string {
	value, _ := cmd.Flags().GetString(name)
	return value
}
