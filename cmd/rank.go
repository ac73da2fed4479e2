package cmd

import (
	"errors"
	"fmt"
	"os"

	"github.com/manifoldco/promptui"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/spigell/talent-match/internal/recruitment"
)

const (
	PromptBack = "back"
	PromptDump = "Print the whole ranking as json"
)

var rankCmd = &cobra.Command{
	Use:   "rank",
	Short: "Rank candidates for a vacancy or vacancies for a candidate",
}

var rankCandidatesCmd = &cobra.Command{
	Use:   "candidates",
	Short: "Rank candidates for one vacancy",
	Run: func(cmd *cobra.Command, _ []string) {
		runRankCandidates(cmd)
	},
}

var rankVacanciesCmd = &cobra.Command{
	Use:   "vacancies",
	Short: "Rank vacancies for one candidate",
	Run: func(cmd *cobra.Command, _ []string) {
		runRankVacancies(cmd)
	},
}

func init() {
	rootCmd.AddCommand(rankCmd)
	rankCmd.AddCommand(rankCandidatesCmd, rankVacanciesCmd)

	rankCmd.PersistentFlags().IntP("limit", "l", 0, "maximum number of entries (default from engine.ranking-limit)")
	rankCmd.PersistentFlags().BoolP("interactive", "i", false, "inspect the ranking entries interactively")

	rankCandidatesCmd.Flags().StringP("vacancy", "v", "", "vacancy file (yaml or json)")
	rankCandidatesCmd.Flags().StringP("candidates", "c", "", "file with a candidates list")
	rankCandidatesCmd.MarkFlagRequired("vacancy")
	rankCandidatesCmd.MarkFlagRequired("candidates")

	rankVacanciesCmd.Flags().StringP("profile", "p", "", "candidate profile file (yaml or json)")
	rankVacanciesCmd.Flags().StringP("vacancies", "s", "", "file with a vacancies list")
	rankVacanciesCmd.Flags().BoolP("enrich", "e", false, "annotate every vacancy in input order instead of ranking a top list")
	rankVacanciesCmd.MarkFlagRequired("profile")
	rankVacanciesCmd.MarkFlagRequired("vacancies")
}

func runRankCandidates(cmd *cobra.Command) {
	ctx, cancel, logger, eng := setup()
	defer cancel()
	defer logger.Sync()

	var vacancy recruitment.VacancySnapshot
	if err := decodeInput(flagString(cmd, "vacancy"), "", &vacancy); err != nil {
		logger.Fatal("reading the vacancy", zap.Error(err))
	}

	var candidates []*recruitment.ProfileSnapshot
	if err := decodeInput(flagString(cmd, "candidates"), "candidates", &candidates); err != nil {
		logger.Fatal("reading the candidates", zap.Error(err))
	}

	limit, _ := cmd.Flags().GetInt("limit")
	entries, err := eng.ranking.RankCandidatesForVacancy(ctx, &vacancy, candidates, limit)
	if err != nil {
		logger.Fatal("ranking candidates", zap.Error(err))
	}

	logger.Info("candidates ranked", zap.String("vacancy_id", vacancy.ID), zap.Int("candidates", len(candidates)), zap.Int("entries", len(entries)))
	showRanking(cmd, logger, entries)
}

func runRankVacancies(cmd *cobra.Command) {
	ctx, cancel, logger, eng := setup()
	defer cancel()
	defer logger.Sync()

	var profile recruitment.ProfileSnapshot
	if err := decodeInput(flagString(cmd, "profile"), "", &profile); err != nil {
		logger.Fatal("reading the profile", zap.Error(err))
	}

	var vacancies []*recruitment.VacancySnapshot
	if err := decodeInput(flagString(cmd, "vacancies"), "vacancies", &vacancies); err != nil {
		logger.Fatal("reading the vacancies", zap.Error(err))
	}

	if enrich, _ := cmd.Flags().GetBool("enrich"); enrich {
		enriched, err := eng.ranking.EnrichWithRanking(ctx, &profile, vacancies)
		if err != nil {
			logger.Fatal("enriching vacancies", zap.Error(err))
		}
		if err := printJSON(enriched); err != nil {
			logger.Fatal("printing the result", zap.Error(err))
		}
		return
	}

	limit, _ := cmd.Flags().GetInt("limit")
	entries, err := eng.ranking.RankVacanciesForCandidate(ctx, &profile, vacancies, limit)
	if err != nil {
		logger.Fatal("ranking vacancies", zap.Error(err))
	}

	logger.Info("vacancies ranked", zap.String("profile_id", profile.ID), zap.Int("vacancies", len(vacancies)), zap.Int("entries", len(entries)))
	showRanking(cmd, logger, entries)
}

func showRanking(cmd *cobra.Command, logger *zap.Logger, entries []recruitment.RankingEntry) {
	if interactive, _ := cmd.Flags().GetBool("interactive"); !interactive || len(entries) == 0 {
		if err := printJSON(entries); err != nil {
			logger.Fatal("printing the result", zap.Error(err))
		}
		return
	}

	if err := inspectRanking(entries); err != nil && !errors.Is(err, promptui.ErrInterrupt) && !errors.Is(err, promptui.ErrEOF) {
		logger.Fatal("interactive mode", zap.Error(err))
	}
}

// inspectRanking lets the user pick entries and prints each selected one until back is chosen.
func inspectRanking(entries []recruitment.RankingEntry) error {
	items := make([]string, 0, len(entries)+2)
	for _, entry := range entries {
		items = append(items, rankingItem(entry))
	}
	items = append(items, PromptDump, PromptBack)

	for {
		entryPrompt := promptui.Select{
			Label: "Choose an entry and press ENTER",
			Items: items,
			Size:  min(len(items), 15),
		}

		index, selected, err := entryPrompt.Run()
		if err != nil {
			return err
		}

		switch selected {
		case PromptBack:
			return nil
		case PromptDump:
			if err := writeJSON(os.Stdout, entries); err != nil {
				return err
			}
		default:
			if err := writeJSON(os.Stdout, entries[index]); err != nil {
				return err
			}
		}
	}
}

func rankingItem(entry recruitment.RankingEntry) string {
	return fmt.Sprintf("%d. %s %d%% (%s)", entry.Rank, entry.SubjectID, entry.Result.Percentage, entry.Result.Source)
}
