package cmd

import (
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/spigell/talent-match/internal/assessment"
	"github.com/spigell/talent-match/internal/recruitment"
)

var blueprintCmd = &cobra.Command{
	Use:   "blueprint",
	Short: "Generate technical test questions for a vacancy or a title",
	Run: func(cmd *cobra.Command, _ []string) {
		runBlueprint(cmd)
	},
}

func init() {
	rootCmd.AddCommand(blueprintCmd)

	blueprintCmd.Flags().StringP("vacancy", "v", "", "vacancy file (yaml or json)")
	blueprintCmd.Flags().StringP("title", "t", "", "position title when no vacancy is given")
	blueprintCmd.Flags().StringSlice("tech", nil, "technologies to cover, comma separated")
	blueprintCmd.Flags().String("difficulty", string(recruitment.DifficultyIntermediate), "BASIC, INTERMEDIATE or ADVANCED")
	blueprintCmd.Flags().IntP("count", "n", 5, "number of questions")
	blueprintCmd.Flags().StringP("regenerate", "r", "", "an existing blueprint file; new questions will not repeat it")
	blueprintCmd.MarkFlagsMutuallyExclusive("vacancy", "regenerate")
	blueprintCmd.MarkFlagsMutuallyExclusive("title", "regenerate")
}

func runBlueprint(cmd *cobra.Command) {
	ctx, cancel, logger, eng := setup()
	defer cancel()
	defer logger.Sync()

	count, _ := cmd.Flags().GetInt("count")

	var (
		blueprint *recruitment.TestBlueprint
		err       error
	)

	if existingFile := flagString(cmd, "regenerate"); existingFile != "" {
		var existing recruitment.TestBlueprint
		if err := decodeInput(existingFile, "", &existing); err != nil {
			logger.Fatal("reading the blueprint", zap.Error(err))
		}
		blueprint, err = eng.blueprints.Regenerate(ctx, &existing, count)
	} else {
		technologies, _ := cmd.Flags().GetStringSlice("tech")
		req := assessment.BlueprintRequest{
			Title:        flagString(cmd, "title"),
			Technologies: technologies,
			Difficulty:   recruitment.Difficulty(flagString(cmd, "difficulty")),
			Count:        count,
		}

		if vacancyFile := flagString(cmd, "vacancy"); vacancyFile != "" {
			var vacancy recruitment.VacancySnapshot
			if err := decodeInput(vacancyFile, "", &vacancy); err != nil {
				logger.Fatal("reading the vacancy", zap.Error(err))
			}
			req.Vacancy = &vacancy
		}

		blueprint, err = eng.blueprints.GenerateBlueprint(ctx, req)
	}
	if err != nil {
		logger.Fatal("generating the blueprint", zap.Error(err))
	}

	logger.Info("blueprint generated",
		zap.String("title", blueprint.Title),
		zap.Int("questions", len(blueprint.Questions)),
		zap.String("source", string(blueprint.Source)),
	)

	if err := printJSON(blueprint); err != nil {
		logger.Fatal("printing the result", zap.Error(err))
	}
}
