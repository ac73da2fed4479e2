package cmd

import (
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/spigell/talent-match/internal/recruitment"
)

// submittedTest is the input of the evaluate command.
type submittedTest struct {
	Questions []recruitment.QuestionSpec `json:"questions"`
	Answers   []submittedAnswer          `json:"answers"`
}

type submittedAnswer struct {
	QuestionID string `json:"question_id"`
	Answer     string `json:"answer"`
}

var evaluateCmd = &cobra.Command{
	Use:   "evaluate",
	Short: "Score the submitted answers of a technical test",
	Run: func(cmd *cobra.Command, _ []string) {
		runEvaluate(cmd)
	},
}

func init() {
	rootCmd.AddCommand(evaluateCmd)

	evaluateCmd.Flags().StringP("test", "t", "", "file with questions and answers keyed by question_id")
	evaluateCmd.MarkFlagRequired("test")
}

func runEvaluate(cmd *cobra.Command) {
	ctx, cancel, logger, eng := setup()
	defer cancel()
	defer logger.Sync()

	var test submittedTest
	if err := decodeInput(flagString(cmd, "test"), "", &test); err != nil {
		logger.Fatal("reading the test", zap.Error(err))
	}

	answers := make(map[string]string, len(test.Answers))
	for _, a := range test.Answers {
		answers[a.QuestionID] = a.Answer
	}

	evaluation, err := eng.evaluator.EvaluateTest(ctx, test.Questions, answers)
	if err != nil {
		logger.Fatal("evaluating the test", zap.Error(err))
	}

	logger.Info("test evaluated",
		zap.Int("total_points", evaluation.TotalPoints),
		zap.Int("total_max_points", evaluation.TotalMaxPoints),
		zap.String("source", string(evaluation.Source)),
	)

	if err := printJSON(evaluation); err != nil {
		logger.Fatal("printing the result", zap.Error(err))
	}
}
